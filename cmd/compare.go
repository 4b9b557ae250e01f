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
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/wdmerger/InputParameters"
	"github.com/notargets/wdmerger/comparison"
	"github.com/notargets/wdmerger/readfiles"
	"github.com/notargets/wdmerger/types"
)

// CompareCmd represents the compare command
var CompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Relative L2 error of a series of plotfiles against a reference plotfile",
	Long: `
Loads the reference plotfile once, then each candidate named by the template
with {index} replaced by first..last, and prints ||candidate - reference|| / ||reference||
for the chosen field on a covering grid of the whole domain.

wdmerger compare -r results/true/plt00000 -t results/{index}/plt00000 --last 20`,
	Run: func(cmd *cobra.Command, args []string) {
		cp, err := compareParameters(cmd)
		exitOnError(err)
		exitOnError(RunCompare(cmd.Context(), cp, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(CompareCmd)
	addCompareFlags(CompareCmd)
}

func addCompareFlags(cmd *cobra.Command) {
	def := InputParameters.DefaultCompareParameters()
	cmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for comparison parameters")
	cmd.Flags().StringP("reference", "r", def.Reference, "reference plotfile")
	cmd.Flags().StringP("template", "t", def.Template, "candidate plotfile path, {index} is replaced by the candidate index")
	cmd.Flags().Int("first", def.First, "first candidate index")
	cmd.Flags().Int("last", def.Last, "last candidate index, inclusive")
	cmd.Flags().StringP("field", "f", def.Field, "field to compare")
	cmd.Flags().IntP("level", "l", def.Level, "refinement level of the covering grid")
	cmd.Flags().String("csv", "", "also write index,path,relative_l2 records to this file")
	cmd.Flags().BoolP("keepGoing", "k", false, "record NaN for candidates that fail to load and continue")
}

// compareParameters layers the input file, then config and environment,
// then command line flags over the defaults.
func compareParameters(cmd *cobra.Command) (cp *InputParameters.CompareParameters, err error) {
	var data []byte
	cp = InputParameters.DefaultCompareParameters()
	if data, err = readDeck(cmd); err != nil {
		return
	}
	if data != nil {
		if err = cp.Parse(data); err != nil {
			return nil, fmt.Errorf("parsing input file: %w", err)
		}
	}
	if setting("reference") {
		cp.Reference = viper.GetString("reference")
	}
	if setting("template") {
		cp.Template = viper.GetString("template")
	}
	if setting("first") {
		cp.First = viper.GetInt("first")
	}
	if setting("last") {
		cp.Last = viper.GetInt("last")
	}
	if setting("field") {
		cp.Field = viper.GetString("field")
	}
	if setting("level") {
		cp.Level = viper.GetInt("level")
	}
	if setting("csv") {
		cp.CSVFile = viper.GetString("csv")
	}
	if setting("keepGoing") {
		cp.KeepGoing = viper.GetBool("keepGoing")
	}
	cp.Field = types.NewFieldName(cp.Field)
	return cp, cp.Validate()
}

func RunCompare(ctx context.Context, cp *InputParameters.CompareParameters, w io.Writer) (err error) {
	var (
		cm *comparison.Comparison
		c  = comparison.NewComparator(readfiles.NewLoader(), cp.Field, cp.Level)
	)
	c.KeepGoing = cp.KeepGoing
	if cm, err = c.Run(ctx, cp.ReferenceFor(cp.Field), cp.Template, cp.First, cp.Last); err != nil {
		return
	}
	fmt.Fprintln(w, cm.Dims)
	fmt.Fprintln(w, cm.Norms())
	if len(cp.CSVFile) != 0 {
		if err = writeCSV(cm, cp.CSVFile); err != nil {
			return
		}
	}
	if n := cm.Failed(); n != 0 {
		return fmt.Errorf("%d of %d candidates failed", n, len(cm.Results))
	}
	return
}

func writeCSV(cm *comparison.Comparison, fileName string) (err error) {
	var file *os.File
	if err = os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return
	}
	if file, err = os.Create(fileName); err != nil {
		return
	}
	if err = cm.WriteCSV(file); err != nil {
		file.Close()
		return
	}
	return file.Close()
}
