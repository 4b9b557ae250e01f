package types

import (
	"fmt"
)

// Snapshot is one simulation output at a single instant. Implementations are
// immutable; field data is materialized on demand by CoveringGrid.
type Snapshot interface {
	Name() string
	Time() float64
	// DomainDimensions is the number of cells along each axis at level 0
	DomainDimensions() [3]int
	// LevelDimensions is the number of cells along each axis spanning the
	// domain at the given refinement level
	LevelDimensions(level int) ([3]int, error)
	ProbLo() [3]float64
	ProbHi() [3]float64
	FinestLevel() int
	Fields() []string
	// CoveringGrid samples field onto a uniform grid at the given refinement
	// level, starting at leftEdge and extending dims cells along each axis.
	CoveringGrid(field string, level int, leftEdge [3]float64, dims [3]int) (*Grid, error)
}

// Loader opens a snapshot given its path.
type Loader interface {
	Load(path string) (Snapshot, error)
}

type LoaderFunc func(path string) (Snapshot, error)

func (f LoaderFunc) Load(path string) (Snapshot, error) { return f(path) }

// Grid is a dense, cell-centred sampling of one field. Data is stored with
// x varying fastest, then y, then z.
type Grid struct {
	Field    string
	Dims     [3]int
	LeftEdge [3]float64
	Dx       [3]float64
	Data     []float64
}

func NewGrid(field string, dims [3]int, leftEdge, dx [3]float64) (g *Grid) {
	g = &Grid{
		Field:    field,
		Dims:     dims,
		LeftEdge: leftEdge,
		Dx:       dx,
		Data:     make([]float64, dims[0]*dims[1]*dims[2]),
	}
	return
}

func (g *Grid) Len() int { return len(g.Data) }

func (g *Grid) Index(i, j, k int) int { return i + g.Dims[0]*(j+g.Dims[1]*k) }

func (g *Grid) At(i, j, k int) float64 { return g.Data[g.Index(i, j, k)] }

func (g *Grid) Set(i, j, k int, val float64) { g.Data[g.Index(i, j, k)] = val }

func (g *Grid) SameShape(o *Grid) bool { return o != nil && g.Dims == o.Dims }

// CellCenter returns the physical coordinate of cell i along axis a.
func (g *Grid) CellCenter(a Axis, i int) float64 {
	return g.LeftEdge[a] + (float64(i)+0.5)*g.Dx[a]
}

// Center returns the physical centre of the grid extent.
func (g *Grid) Center() (c [3]float64) {
	for n := 0; n < 3; n++ {
		c[n] = g.LeftEdge[n] + 0.5*float64(g.Dims[n])*g.Dx[n]
	}
	return
}

// Slice is a 2D plane of a Grid. U and V hold the cell centre coordinates
// along the horizontal and vertical in-plane axes; Data is U-fastest.
type Slice struct {
	Field  string
	Normal Axis
	Coord  float64
	U, V   []float64
	Data   []float64
}

func (s *Slice) At(iu, iv int) float64 { return s.Data[iu+len(s.U)*iv] }

// Slice extracts the plane normal to axis a that contains coordinate coord.
// Coordinates outside the grid are clamped to the nearest boundary cell.
func (g *Grid) Slice(a Axis, coord float64) (s *Slice) {
	var (
		ua, va = a.PlaneAxes()
		nu, nv = g.Dims[ua], g.Dims[va]
		k      = int((coord - g.LeftEdge[a]) / g.Dx[a])
	)
	if k < 0 {
		k = 0
	}
	if k > g.Dims[a]-1 {
		k = g.Dims[a] - 1
	}
	s = &Slice{
		Field:  g.Field,
		Normal: a,
		Coord:  g.CellCenter(a, k),
		U:      make([]float64, nu),
		V:      make([]float64, nv),
		Data:   make([]float64, nu*nv),
	}
	for i := range s.U {
		s.U[i] = g.CellCenter(ua, i)
	}
	for j := range s.V {
		s.V[j] = g.CellCenter(va, j)
	}
	var ijk [3]int
	ijk[a] = k
	for j := 0; j < nv; j++ {
		ijk[va] = j
		for i := 0; i < nu; i++ {
			ijk[ua] = i
			s.Data[i+nu*j] = g.At(ijk[0], ijk[1], ijk[2])
		}
	}
	return
}

// Crop returns the part of the slice whose cell centres lie within a square
// window of the given width around (uc, vc). A non-positive width keeps
// everything.
func (s *Slice) Crop(uc, vc, width float64) (c *Slice, err error) {
	if width <= 0 {
		return s, nil
	}
	var (
		half   = 0.5 * width
		iu, iv []int
	)
	for i, u := range s.U {
		if u >= uc-half && u <= uc+half {
			iu = append(iu, i)
		}
	}
	for j, v := range s.V {
		if v >= vc-half && v <= vc+half {
			iv = append(iv, j)
		}
	}
	if len(iu) == 0 || len(iv) == 0 {
		err = fmt.Errorf("slice window of width %g around (%g, %g) contains no cells", width, uc, vc)
		return
	}
	c = &Slice{
		Field:  s.Field,
		Normal: s.Normal,
		Coord:  s.Coord,
		U:      make([]float64, len(iu)),
		V:      make([]float64, len(iv)),
		Data:   make([]float64, len(iu)*len(iv)),
	}
	for i, ii := range iu {
		c.U[i] = s.U[ii]
	}
	for j, jj := range iv {
		c.V[j] = s.V[jj]
		for i, ii := range iu {
			c.Data[i+len(iu)*j] = s.At(ii, jj)
		}
	}
	return
}
