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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/notargets/wdmerger/readfiles"
	"github.com/notargets/wdmerger/sweep"
	"github.com/notargets/wdmerger/utils"
)

// PlotfilesCmd represents the plotfiles command
var PlotfilesCmd = &cobra.Command{
	Use:   "plotfiles [dir]",
	Short: "List the plotfiles of a run in step order with their times",
	Long: `
Lists the completed plotfiles of a run directory in the order the sweep indexes
them. With --time and --interval, marks the plotfile a sweep would pick.

wdmerger plotfiles results/problem3/velocity10/256 --time 9.2 --interval 0.1`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) != 0 {
			dir = args[0]
		}
		t, _ := cmd.Flags().GetFloat64("time")
		interval, _ := cmd.Flags().GetFloat64("interval")
		exitOnError(RunPlotfiles(dir, t, interval, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(PlotfilesCmd)
	PlotfilesCmd.Flags().Float64("time", -1, "simulation time to locate")
	PlotfilesCmd.Flags().Float64("interval", 0, "simulated time between plotfiles")
}

func RunPlotfiles(dir string, t, interval float64, w io.Writer) (err error) {
	var (
		paths []string
		pick  = -1
	)
	if paths, err = readfiles.GetPlotfiles(dir); err != nil {
		return
	}
	if t >= 0 && interval > 0 {
		pick = utils.NearestIndex(t, interval)
	}
	for i, path := range paths {
		var pf *readfiles.Plotfile
		if pf, err = readfiles.ReadPlotfile(path); err != nil {
			return
		}
		mark := " "
		if i == pick {
			mark = "*"
		}
		fmt.Fprintf(w, "%s%4d  %-12s  t = %-10s  levels %d  %v\n", mark, i, filepath.Base(path),
			sweep.FormatTime(pf.Time()), pf.FinestLevel()+1, pf.DomainDimensions())
	}
	if pick >= len(paths) {
		return fmt.Errorf("%w: index %d, %s has %d plotfiles", sweep.ErrSnapshotOutOfRange, pick, dir, len(paths))
	}
	return
}
