package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepParameters(t *testing.T) {
	sp := DefaultSweepParameters()
	require.NoError(t, sp.Validate())
	assert.Equal(t, 3, len(sp.Problems))
	assert.Equal(t, 0.1, sp.Problems[2].Interval)
	assert.Equal(t, []float64{0.0, 1.5, 2.5, 4.7, 9.2}, sp.Problems[2].Times)

	fileInput := []byte(`
Title: Resolution study
Problems:
  - Problem: 3
    Times: [4.7, 9.2]
    Interval: 0.1
Velocities: [10]
Format: png # Anything plot.Save knows
`)
	require.NoError(t, sp.Parse(fileInput))
	assert.Equal(t, "Resolution study", sp.Title)
	require.Equal(t, 1, len(sp.Problems))
	assert.Equal(t, []float64{4.7, 9.2}, sp.Problems[0].Times)
	assert.Equal(t, []int{10}, sp.Velocities)
	assert.Equal(t, "png", sp.Format)
	// Keys not in the file keep their defaults
	assert.Equal(t, []int{64, 128, 256, 1024, 2048, 4096}, sp.NCells)
	assert.Equal(t, "density", sp.Field)
	sp.Print()

	for _, bad := range []string{
		"Format: bmp",
		"Axis: w",
		"Velocities: []",
		"Problems: [{Problem: 1, Times: [1.0], Interval: 0}]",
		"Problems: [{Problem: 1, Interval: 1}, {Problem: 1, Interval: 2}]",
		"Level: -1",
	} {
		assert.Error(t, DefaultSweepParameters().Parse([]byte(bad)), bad)
	}
	assert.Error(t, DefaultSweepParameters().Parse([]byte("Velocities: [a")))

	// Listed problems start empty, nothing carries over from the defaults
	sp = DefaultSweepParameters()
	err := sp.Parse([]byte("Problems:\n  - Problem: 3\n    Times: [9.2]\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "output interval")
	assert.Error(t, DefaultSweepParameters().Parse([]byte("Problems:\n  - Problem: 3\n    Interval: 0.1\n")))

	sp = DefaultSweepParameters()
	require.NoError(t, sp.Parse([]byte("Problems:\n  - Problem: 3\n    Times: [9.2]\n    Interval: 0.1\n")))
	assert.Equal(t, []ProblemParameters{{Problem: 3, Times: []float64{9.2}, Interval: 0.1}}, sp.Problems)

	// Without a Problems key the defaults stay
	sp = DefaultSweepParameters()
	require.NoError(t, sp.Parse([]byte("Field: phiGrav")))
	assert.Equal(t, DefaultSweepParameters().Problems, sp.Problems)
}

func TestCompareParameters(t *testing.T) {
	cp := DefaultCompareParameters()
	require.NoError(t, cp.Validate())
	assert.Equal(t, "results/true/plt00000", cp.Reference)
	assert.Equal(t, 20, cp.Last)

	fileInput := []byte(`
Title: Multipole order
Last: 10
KeepGoing: true
References:
  density: results/true_density/plt00000
`)
	require.NoError(t, cp.Parse(fileInput))
	assert.Equal(t, 0, cp.First)
	assert.Equal(t, 10, cp.Last)
	assert.True(t, cp.KeepGoing)
	assert.Equal(t, "results/true_density/plt00000", cp.ReferenceFor("density"))
	assert.Equal(t, "results/true/plt00000", cp.ReferenceFor("phiGrav"))
	cp.Print()

	assert.Error(t, DefaultCompareParameters().Parse([]byte("First: 5\nLast: 4")))
	assert.Error(t, DefaultCompareParameters().Parse([]byte("Reference: ''")))
}
