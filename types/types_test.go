package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	{ // Axis labels
		tokens := []string{"x", "Y", " z "}
		axes := []Axis{AxisX, AxisY, AxisZ}
		for i, token := range tokens {
			a, err := NewAxis(token)
			require.NoError(t, err)
			assert.Equal(t, axes[i], a)
		}
		_, err := NewAxis("w")
		assert.Error(t, err)
		u, v := AxisZ.PlaneAxes()
		assert.Equal(t, AxisX, u)
		assert.Equal(t, AxisY, v)
		u, v = AxisX.PlaneAxes()
		assert.Equal(t, AxisY, u)
		assert.Equal(t, AxisZ, v)
	}
	{ // Field names
		assert.Equal(t, "phiGrav", NewFieldName("gravitational potential"))
		assert.Equal(t, "phiGrav", NewFieldName("phiGrav"))
		assert.Equal(t, "density", NewFieldName("density"))
	}
}

func newRampGrid() (g *Grid) {
	g = NewGrid("ramp", [3]int{4, 3, 2}, [3]float64{0, 0, 0}, [3]float64{0.25, 0.5, 1})
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 4; i++ {
				g.Set(i, j, k, float64(100*k+10*j+i))
			}
		}
	}
	return
}

func TestGridSlice(t *testing.T) {
	g := newRampGrid()
	assert.Equal(t, 24, g.Len())
	assert.Equal(t, 123.0, g.At(3, 2, 1))
	assert.Equal(t, [3]float64{0.5, 0.75, 1}, g.Center())

	s := g.Slice(AxisZ, g.Center()[AxisZ])
	// Coordinate 1.0 falls in the upper z cell
	assert.InDelta(t, 1.5, s.Coord, 1e-12)
	assert.Equal(t, []float64{0.125, 0.375, 0.625, 0.875}, s.U)
	assert.Equal(t, []float64{0.25, 0.75, 1.25}, s.V)
	assert.Equal(t, 112.0, s.At(2, 1))

	s = g.Slice(AxisX, -5)
	assert.Len(t, s.U, 3)
	assert.Len(t, s.V, 2)
	assert.Equal(t, 120.0, s.At(2, 1))

	c, err := g.Slice(AxisZ, 0).Crop(0.5, 0.75, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.375, 0.625}, c.U)
	assert.Equal(t, []float64{0.75}, c.V)
	assert.Equal(t, []float64{11, 12}, c.Data)

	_, err = g.Slice(AxisZ, 0).Crop(10, 10, 0.1)
	assert.Error(t, err)

	same, err := s.Crop(0, 0, 0)
	require.NoError(t, err)
	assert.Same(t, s, same)
}
