package utils

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/wdmerger/types"
)

type ColorName uint8

const (
	White ColorName = iota
	Blue
	Red
	Green
	Black
)

func GetColor(name ColorName) (c color.RGBA) {
	switch name {
	case White:
		c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	case Blue:
		c = color.RGBA{R: 50, G: 0, B: 255, A: 255}
	case Red:
		c = color.RGBA{R: 255, G: 0, B: 50, A: 255}
	case Green:
		c = color.RGBA{R: 25, G: 255, B: 25, A: 255}
	case Black:
		c = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	}
	return
}

// Image formats plot.Save knows how to write, keyed by file extension.
var ImageFormats = map[string]bool{
	"eps": true, "jpg": true, "jpeg": true, "pdf": true,
	"png": true, "svg": true, "tif": true, "tiff": true,
}

func CheckImageFormat(fileName string) (err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if !ImageFormats[ext] {
		err = fmt.Errorf("unsupported image format %q for %s", ext, fileName)
	}
	return
}

type PlotMeta struct {
	Title         string
	XLabel        string
	YLabel        string
	Width, Height vg.Length
	Colors        int // number of palette entries used for heat maps
}

func NewPlotMeta(title string) *PlotMeta {
	return &PlotMeta{
		Title:  title,
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
		Colors: 256,
	}
}

// sliceXYZ satisfies plotter.GridXYZ for a types.Slice
type sliceXYZ struct {
	s *types.Slice
}

func (g sliceXYZ) Dims() (c, r int)   { return len(g.s.U), len(g.s.V) }
func (g sliceXYZ) Z(c, r int) float64 { return g.s.At(c, r) }
func (g sliceXYZ) X(c int) float64    { return g.s.U[c] }
func (g sliceXYZ) Y(r int) float64    { return g.s.V[r] }

// SlicePlot renders a slice as a heat map and writes it to fileName. The
// image format follows the file extension.
func SlicePlot(s *types.Slice, pm *PlotMeta, fileName string) (err error) {
	if err = CheckImageFormat(fileName); err != nil {
		return
	}
	if len(s.U) < 2 || len(s.V) < 2 {
		return fmt.Errorf("slice of %s is %dx%d cells, need at least 2x2 to render",
			s.Field, len(s.U), len(s.V))
	}
	var (
		ua, va = s.Normal.PlaneAxes()
		p      = plot.New()
		hm     = plotter.NewHeatMap(sliceXYZ{s}, palette.Heat(pm.Colors, 1))
	)
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Title.Text = pm.Title
	if len(p.Title.Text) == 0 {
		p.Title.Text = fmt.Sprintf("%s, %s = %g", s.Field, s.Normal, s.Coord)
	}
	p.X.Label.Text = pm.XLabel
	if len(p.X.Label.Text) == 0 {
		p.X.Label.Text = ua.String()
	}
	p.Y.Label.Text = pm.YLabel
	if len(p.Y.Label.Text) == 0 {
		p.Y.Label.Text = va.String()
	}
	p.Add(hm)
	if err = os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err = p.Save(pm.Width, pm.Height, fileName); err != nil {
		return fmt.Errorf("save slice plot: %w", err)
	}
	return
}

// TimeSeriesPlot draws y against x as a single line.
func TimeSeriesPlot(x, y []float64, name string, pm *PlotMeta, fileName string) (err error) {
	if err = CheckImageFormat(fileName); err != nil {
		return
	}
	if len(x) != len(y) {
		return fmt.Errorf("series %s has %d x values and %d y values", name, len(x), len(y))
	}
	var (
		p   = plot.New()
		pts = make(plotter.XYs, len(x))
	)
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = GetColor(Blue)
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	p.Legend.Top = true
	p.Title.Text = pm.Title
	p.X.Label.Text = pm.XLabel
	p.Y.Label.Text = pm.YLabel
	if err = os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err = p.Save(pm.Width, pm.Height, fileName); err != nil {
		return fmt.Errorf("save time series plot: %w", err)
	}
	return
}
