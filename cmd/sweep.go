/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/wdmerger/InputParameters"
	"github.com/notargets/wdmerger/readfiles"
	"github.com/notargets/wdmerger/sweep"
	"github.com/notargets/wdmerger/types"
)

type SweepOptions struct {
	DryRun bool
	Force  bool // render even when the output exists
}

// SweepCmd represents the sweep command
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Slice plots across a sweep of problems, velocities, resolutions and times",
	Long: `
For each problem, velocity, cell count and time, finds the plotfile written at
that time in results/problem<P>/velocity<V>/<N> and saves a slice of the field
to plots/<field>_t<time>_p<P>_v<V>_n<N>.<format>. Plots that already exist and
runs that were never made are skipped.

wdmerger sweep -I sweep.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		sp, err := sweepParameters(cmd)
		exitOnError(err)
		so := &SweepOptions{}
		so.DryRun, _ = cmd.Flags().GetBool("dryRun")
		so.Force, _ = cmd.Flags().GetBool("force")
		exitOnError(RunSweep(cmd.Context(), sp, so, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(SweepCmd)
	addSweepFlags(SweepCmd)
}

func addSweepFlags(cmd *cobra.Command) {
	def := InputParameters.DefaultSweepParameters()
	cmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for sweep parameters, defaults to the Kelvin-Helmholtz study")
	cmd.Flags().IntSlice("velocities", def.Velocities, "inflow velocities")
	cmd.Flags().IntSlice("ncells", def.NCells, "cell counts")
	cmd.Flags().StringP("field", "f", def.Field, "field to plot")
	cmd.Flags().StringP("axis", "a", def.Axis, "slice normal, one of x, y, z")
	cmd.Flags().Float64P("width", "w", def.Width, "width of the slice window around the domain centre, 0 for the whole domain")
	cmd.Flags().IntP("level", "l", def.Level, "refinement level to sample")
	cmd.Flags().String("resultsDir", def.ResultsDir, "directory holding problem<P>/velocity<V>/<N> runs")
	cmd.Flags().String("plotsDir", def.PlotsDir, "directory for the images")
	cmd.Flags().String("format", def.Format, "image format: eps, pdf, png, svg, jpg or tif")
	cmd.Flags().BoolP("dryRun", "n", false, "list the plots that would be made without loading anything")
	cmd.Flags().Bool("force", false, "redo plots that already exist")
}

func sweepParameters(cmd *cobra.Command) (sp *InputParameters.SweepParameters, err error) {
	var data []byte
	sp = InputParameters.DefaultSweepParameters()
	if data, err = readDeck(cmd); err != nil {
		return
	}
	if data != nil {
		if err = sp.Parse(data); err != nil {
			return nil, fmt.Errorf("parsing input file: %w", err)
		}
	}
	if setting("velocities") {
		if sp.Velocities, err = intSetting("velocities"); err != nil {
			return
		}
	}
	if setting("ncells") {
		if sp.NCells, err = intSetting("ncells"); err != nil {
			return
		}
	}
	if setting("field") {
		sp.Field = viper.GetString("field")
	}
	if setting("axis") {
		sp.Axis = viper.GetString("axis")
	}
	if setting("width") {
		sp.Width = viper.GetFloat64("width")
	}
	if setting("level") {
		sp.Level = viper.GetInt("level")
	}
	if setting("resultsDir") {
		sp.ResultsDir = viper.GetString("resultsDir")
	}
	if setting("plotsDir") {
		sp.PlotsDir = viper.GetString("plotsDir")
	}
	if setting("format") {
		sp.Format = viper.GetString("format")
	}
	return sp, sp.Validate()
}

func RunSweep(ctx context.Context, sp *InputParameters.SweepParameters, so *SweepOptions, w io.Writer) (err error) {
	var (
		axis   types.Axis
		report *sweep.Report
	)
	if axis, err = types.NewAxis(sp.Axis); err != nil {
		return
	}
	runner := &sweep.Runner{
		Points:   sweep.Enumerate(sp),
		Namer:    sweep.NewDirectoryNamer(sp),
		Resume:   sweep.FileExists{},
		Lister:   sweep.ListerFunc(readfiles.GetPlotfiles),
		Loader:   readfiles.NewLoader(),
		Renderer: sweep.NewSliceRenderer(types.NewFieldName(sp.Field), axis, sp.Width, sp.Level),
		DryRun:   so.DryRun,
	}
	if so.Force {
		runner.Resume = sweep.Always{}
	}
	report, err = runner.Run(ctx)
	if report != nil {
		for _, output := range report.Planned {
			fmt.Fprintln(w, output)
		}
		for _, f := range report.Failures {
			fmt.Fprintf(w, "failed: %s\n", f.Error())
		}
		fmt.Fprintln(w, report)
	}
	if err != nil {
		return
	}
	if n := report.Failed(); n != 0 {
		return fmt.Errorf("%d sweep points failed", n)
	}
	return
}
