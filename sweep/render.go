package sweep

import (
	"fmt"

	"github.com/notargets/wdmerger/types"
	"github.com/notargets/wdmerger/utils"
)

// SliceRenderer plots the plane through the domain centre normal to Axis,
// cropped to Width around the centre.
type SliceRenderer struct {
	Field string
	Axis  types.Axis
	Width float64
	Level int
	Meta  *utils.PlotMeta
}

func NewSliceRenderer(field string, axis types.Axis, width float64, level int) *SliceRenderer {
	return &SliceRenderer{
		Field: field,
		Axis:  axis,
		Width: width,
		Level: level,
		Meta:  utils.NewPlotMeta(""),
	}
}

func (sr *SliceRenderer) Slice(snap types.Snapshot) (s *types.Slice, err error) {
	var (
		dims [3]int
		g    *types.Grid
	)
	if dims, err = snap.LevelDimensions(sr.Level); err != nil {
		return
	}
	if g, err = snap.CoveringGrid(sr.Field, sr.Level, snap.ProbLo(), dims); err != nil {
		return nil, fmt.Errorf("sampling %s from %s: %w", sr.Field, snap.Name(), err)
	}
	var (
		c      = g.Center()
		ua, va = sr.Axis.PlaneAxes()
	)
	return g.Slice(sr.Axis, c[sr.Axis]).Crop(c[ua], c[va], sr.Width)
}

func (sr *SliceRenderer) Render(snap types.Snapshot, output string) (err error) {
	var s *types.Slice
	if s, err = sr.Slice(snap); err != nil {
		return
	}
	pm := *sr.Meta
	if len(pm.Title) == 0 {
		pm.Title = fmt.Sprintf("%s, t = %s", sr.Field, FormatTime(snap.Time()))
	}
	return utils.SlicePlot(s, &pm, output)
}
