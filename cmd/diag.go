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

	"github.com/spf13/cobra"

	"github.com/notargets/wdmerger/readfiles"
	"github.com/notargets/wdmerger/utils"
)

type DiagOptions struct {
	Column   string
	PlotFile string
	Verbose  bool
}

// DiagCmd represents the diag command
var DiagCmd = &cobra.Command{
	Use:   "diag <log file>",
	Short: "Conservation summary of a column of an integrated quantity log",
	Long: `
Reads a grid_diag.out style log and, for the chosen column, prints the first and
last values and the largest relative change from the first value. Without a
column the available columns are listed.

wdmerger diag grid_diag.out -c "TOTAL ENERGY" -p plots/energy.png`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		do := &DiagOptions{}
		do.Column, _ = cmd.Flags().GetString("column")
		do.PlotFile, _ = cmd.Flags().GetString("plot")
		do.Verbose, _ = cmd.Flags().GetBool("verbose")
		exitOnError(RunDiag(args[0], do, os.Stdout))
	},
}

func init() {
	rootCmd.AddCommand(DiagCmd)
	DiagCmd.Flags().StringP("column", "c", "", "column to summarize")
	DiagCmd.Flags().StringP("plot", "p", "", "plot the column against TIME into this image file")
	DiagCmd.Flags().BoolP("verbose", "v", false, "report progress while reading")
}

func RunDiag(fileName string, do *DiagOptions, w io.Writer) (err error) {
	var (
		dl     *readfiles.DiagLog
		q, tim []float64
	)
	if dl, err = readfiles.ReadDiagLog(fileName, do.Verbose); err != nil {
		return
	}
	if len(do.Column) == 0 {
		for i, c := range dl.Columns {
			fmt.Fprintf(w, "%3d  %s\n", i, c)
		}
		return
	}
	if q, err = dl.Column(do.Column); err != nil {
		return
	}
	if len(q) == 0 {
		return fmt.Errorf("%s has no rows", fileName)
	}
	drift := utils.NewVector(len(q))
	for i := range q {
		drift.Data()[i] = utils.RelativeChange(q[i], q[0])
	}
	fmt.Fprintf(w, "%s: initial %.16e, final %.16e, max relative change %.6e over %d steps\n",
		do.Column, q[0], q[len(q)-1], drift.Max(), len(q))
	if len(do.PlotFile) == 0 {
		return
	}
	if tim, err = dl.Column("TIME"); err != nil {
		return
	}
	pm := utils.NewPlotMeta(do.Column)
	pm.XLabel, pm.YLabel = "TIME", do.Column
	return utils.TimeSeriesPlot(tim, q, do.Column, pm, do.PlotFile)
}
