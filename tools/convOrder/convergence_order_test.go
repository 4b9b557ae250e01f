package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvergenceStudy(t *testing.T) {
	cs := NewConvergenceStudy(2)
	cs.Add(0, "a", 0.4)
	cs.Add(1, "b", 0.1)
	cs.Add(2, "c", 0.0125)
	cs.Add(3, "d", 0)
	assert.True(t, math.IsNaN(cs.orders[0]))
	assert.InDelta(t, 2., cs.orders[1], 1e-12)
	assert.InDelta(t, 3., cs.orders[2], 1e-12)
	assert.True(t, math.IsNaN(cs.orders[3]))

	var buf bytes.Buffer
	cs.Print(&buf)
	assert.Contains(t, buf.String(), "1, b, 0.1,  2.00")
}

func TestReadCSV(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "norms.csv")
	require.NoError(t, os.WriteFile(fileName, []byte("index,path,relative_l2\n0,r0,0.09\n1,r1,0.01\n"), 0644))
	ratio = 3
	defer func() { ratio = 2 }()
	cs, err := readCSV(fileName)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, cs.index)
	assert.InDelta(t, 2., cs.orders[1], 1e-12)

	_, err = readCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
