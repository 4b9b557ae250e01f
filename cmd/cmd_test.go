package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/wdmerger/InputParameters"
	"github.com/notargets/wdmerger/comparison"
	"github.com/notargets/wdmerger/readfiles"
	"github.com/notargets/wdmerger/sweep"
)

func writeRun(t *testing.T, path string, scale, time float64) {
	layout := &readfiles.PlotfileLayout{
		VarNames:    []string{"density", "phiGrav"},
		Time:        time,
		ProbLo:      [3]float64{-1, -1, -1},
		ProbHi:      [3]float64{1, 1, 1},
		Dims:        [3]int{8, 8, 8},
		MaxGridSize: 8,
	}
	require.NoError(t, readfiles.WritePlotfile(path, layout, func(field string, level int, x [3]float64) float64 {
		r2 := x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
		if field == "density" {
			return scale / (0.1 + r2)
		}
		return -scale / (1 + r2)
	}))
}

func TestCompareParameters(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	var (
		dir  = t.TempDir()
		deck = filepath.Join(dir, "compare.yaml")
		cmd  = &cobra.Command{}
	)
	require.NoError(t, os.WriteFile(deck, []byte(`
Title: Multipole order
Field: gravitational potential
Last: 10
KeepGoing: true
`), 0644))
	addCompareFlags(cmd)
	require.NoError(t, cmd.Flags().Set("inputConditionsFile", deck))
	require.NoError(t, cmd.Flags().Set("last", "3"))
	require.NoError(t, viper.BindPFlags(cmd.Flags()))
	viper.SetEnvPrefix("WDMERGER")
	viper.AutomaticEnv()
	t.Setenv("WDMERGER_TEMPLATE", "runs/{index}/plt00000")

	cp, err := compareParameters(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Multipole order", cp.Title)
	assert.Equal(t, "phiGrav", cp.Field)
	assert.Equal(t, 3, cp.Last)
	assert.True(t, cp.KeepGoing)
	assert.Equal(t, "runs/{index}/plt00000", cp.Template)
	assert.Equal(t, "results/true/plt00000", cp.Reference)

	require.NoError(t, cmd.Flags().Set("first", "4"))
	_, err = compareParameters(cmd)
	assert.Error(t, err)
}

func TestSweepParameters(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	cmd := &cobra.Command{}
	addSweepFlags(cmd)
	require.NoError(t, cmd.Flags().Set("ncells", "128,256"))
	require.NoError(t, viper.BindPFlags(cmd.Flags()))
	viper.SetEnvPrefix("WDMERGER")
	viper.AutomaticEnv()
	t.Setenv("WDMERGER_VELOCITIES", "10,30")
	t.Setenv("WDMERGER_PLOTSDIR", "figures")

	sp, err := sweepParameters(cmd)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, sp.Velocities)
	assert.Equal(t, []int{128, 256}, sp.NCells)
	assert.Equal(t, "figures", sp.PlotsDir)
	assert.Equal(t, "density", sp.Field)

	// Config file lists decode the same way
	viper.Set("velocities", []interface{}{3, 100})
	sp, err = sweepParameters(cmd)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 100}, sp.Velocities)

	viper.Set("velocities", "10 x")
	_, err = sweepParameters(cmd)
	assert.Error(t, err)
}

func TestRunCompare(t *testing.T) {
	var (
		dir = t.TempDir()
		cp  = InputParameters.DefaultCompareParameters()
		out bytes.Buffer
	)
	writeRun(t, filepath.Join(dir, "true", "plt00000"), 1, 0)
	writeRun(t, filepath.Join(dir, "0", "plt00000"), 1, 0)
	writeRun(t, filepath.Join(dir, "1", "plt00000"), 1.5, 0)
	cp.Reference = filepath.Join(dir, "true", "plt00000")
	cp.Template = filepath.Join(dir, "{index}", "plt00000")
	cp.Last = 1
	cp.CSVFile = filepath.Join(dir, "out", "norms.csv")

	require.NoError(t, RunCompare(context.Background(), cp, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, 2, len(lines))
	assert.Equal(t, "[8 8 8]", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[0 "))

	f, err := os.Open(cp.CSVFile)
	require.NoError(t, err)
	defer f.Close()
	results, err := comparison.ReadCSV(f)
	require.NoError(t, err)
	require.Equal(t, 2, len(results))
	assert.InDelta(t, 0.5, results[1].RelativeL2, 1e-12)

	// A missing candidate is an error unless kept going past
	cp.Last = 2
	assert.Error(t, RunCompare(context.Background(), cp, &out))
	cp.KeepGoing = true
	out.Reset()
	err = RunCompare(context.Background(), cp, &out)
	assert.EqualError(t, err, "1 of 3 candidates failed")
	assert.Contains(t, out.String(), "NaN")
}

func TestRunSweep(t *testing.T) {
	var (
		dir = t.TempDir()
		sp  = InputParameters.DefaultSweepParameters()
		out bytes.Buffer
	)
	sp.ResultsDir = filepath.Join(dir, "results")
	sp.PlotsDir = filepath.Join(dir, "plots")
	sp.Format = "png"
	sp.Problems = []InputParameters.ProblemParameters{{Problem: 1, Times: []float64{0.0, 0.05}, Interval: 0.05}}
	runDir := sweep.NewDirectoryNamer(sp).InputDir(sweep.Point{Problem: 1, Velocity: 10, NCell: 64})
	writeRun(t, filepath.Join(runDir, "plt00000"), 1, 0)
	writeRun(t, filepath.Join(runDir, "plt00001"), 2, 0.05)

	require.NoError(t, RunSweep(context.Background(), sp, &SweepOptions{DryRun: true}, &out))
	assert.Contains(t, out.String(), filepath.Join(sp.PlotsDir, "density_t0.05_p1_v10_n64.png"))
	_, err := os.Stat(sp.PlotsDir)
	assert.True(t, os.IsNotExist(err))

	out.Reset()
	require.NoError(t, RunSweep(context.Background(), sp, &SweepOptions{}, &out))
	assert.Contains(t, out.String(), "rendered 2")
	for _, name := range []string{"density_t0.0_p1_v10_n64.png", "density_t0.05_p1_v10_n64.png"} {
		_, err = os.Stat(filepath.Join(sp.PlotsDir, name))
		assert.NoError(t, err)
	}

	// A time past the last plotfile fails the run, after the rest is done
	sp.Problems[0].Times = append(sp.Problems[0].Times, 0.5)
	out.Reset()
	err = RunSweep(context.Background(), sp, &SweepOptions{}, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "already done 2")
	out.Reset()
	assert.EqualError(t, RunSweep(context.Background(), sp, &SweepOptions{Force: true}, &out), "1 sweep points failed")
	assert.Contains(t, out.String(), "rendered 2")

	sp.Axis = "w"
	assert.Error(t, RunSweep(context.Background(), sp, &SweepOptions{}, &out))
}

func TestRunDiag(t *testing.T) {
	var (
		dir      = t.TempDir()
		fileName = filepath.Join(dir, "grid_diag.out")
		out      bytes.Buffer
		sb       strings.Builder
	)
	sb.WriteString("# Castro   git hash: 19.08\n# BoxLib   git hash: 19.08\n# wdmerger git hash: abcdef\n")
	fmt.Fprintf(&sb, "%12s%25s%25s%25s\n", "#   TIMESTEP", "TIME", "TOTAL ENERGY", "MASS")
	for step, e := range []float64{2, 2.02, 1.96, 2.01} {
		fmt.Fprintf(&sb, "%12d%25.16f%25.16e%25.16e\n", step, 0.1*float64(step), e, 1.0)
	}
	require.NoError(t, os.WriteFile(fileName, []byte(sb.String()), 0644))

	require.NoError(t, RunDiag(fileName, &DiagOptions{}, &out))
	assert.Contains(t, out.String(), "TOTAL ENERGY")

	out.Reset()
	plotFile := filepath.Join(dir, "plots", "energy.svg")
	require.NoError(t, RunDiag(fileName, &DiagOptions{Column: "total energy", PlotFile: plotFile}, &out))
	assert.Contains(t, out.String(), "max relative change 2.000000e-02")
	_, err := os.Stat(plotFile)
	assert.NoError(t, err)

	assert.ErrorIs(t, RunDiag(fileName, &DiagOptions{Column: "T MAX"}, &out), readfiles.ErrNoSuchField)
	assert.Error(t, RunDiag(filepath.Join(dir, "missing.out"), &DiagOptions{}, &out))
}

func TestRunPlotfiles(t *testing.T) {
	var (
		dir = t.TempDir()
		out bytes.Buffer
	)
	for step := 0; step < 3; step++ {
		writeRun(t, filepath.Join(dir, fmt.Sprintf("plt%05d", step*10)), 1, 0.1*float64(step))
	}
	require.NoError(t, RunPlotfiles(dir, 0.2, 0.1, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, 3, len(lines))
	assert.True(t, strings.HasPrefix(lines[2], "*   2  plt00020"))
	assert.Contains(t, lines[1], "t = 0.1")

	assert.ErrorIs(t, RunPlotfiles(dir, 9.2, 0.1, &out), sweep.ErrSnapshotOutOfRange)
}
