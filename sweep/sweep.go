package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/notargets/wdmerger/InputParameters"
	"github.com/notargets/wdmerger/types"
	"github.com/notargets/wdmerger/utils"
)

var ErrSnapshotOutOfRange = errors.New("snapshot index out of range")

// Point is one combination of the sweep
type Point struct {
	Problem  int
	Velocity int
	NCell    int
	Time     float64
	Interval float64 // simulated time between plotfiles
}

func (p Point) String() string {
	return fmt.Sprintf("problem %d velocity %d ncell %d time %s", p.Problem, p.Velocity, p.NCell, FormatTime(p.Time))
}

// SnapshotIndex is the position of the plotfile written at the point's time
func (p Point) SnapshotIndex() int { return utils.NearestIndex(p.Time, p.Interval) }

// Enumerate expands the sweep in problem, velocity, cell count, time order.
func Enumerate(sp *InputParameters.SweepParameters) (points []Point) {
	for _, pp := range sp.Problems {
		for _, v := range sp.Velocities {
			for _, n := range sp.NCells {
				for _, t := range pp.Times {
					points = append(points, Point{
						Problem:  pp.Problem,
						Velocity: v,
						NCell:    n,
						Time:     t,
						Interval: pp.Interval,
					})
				}
			}
		}
	}
	return
}

// FormatTime prints a time the way the study's file names always have: the
// shortest exact decimal, with at least one fractional digit.
func FormatTime(t float64) (s string) {
	s = strconv.FormatFloat(t, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return
}

// Namer maps a sweep point onto its input directory and output image.
type Namer interface {
	InputDir(p Point) string
	OutputPath(p Point) string
}

type DirectoryNamer struct {
	ResultsDir string
	PlotsDir   string
	Field      string
	Format     string
}

func NewDirectoryNamer(sp *InputParameters.SweepParameters) *DirectoryNamer {
	return &DirectoryNamer{
		ResultsDir: sp.ResultsDir,
		PlotsDir:   sp.PlotsDir,
		Field:      sp.Field,
		Format:     sp.Format,
	}
}

func (dn *DirectoryNamer) InputDir(p Point) string {
	return filepath.Join(dn.ResultsDir, fmt.Sprintf("problem%d", p.Problem),
		fmt.Sprintf("velocity%d", p.Velocity), strconv.Itoa(p.NCell))
}

func (dn *DirectoryNamer) OutputPath(p Point) string {
	return filepath.Join(dn.PlotsDir, fmt.Sprintf("%s_t%s_p%d_v%d_n%d.%s",
		dn.Field, FormatTime(p.Time), p.Problem, p.Velocity, p.NCell, dn.Format))
}

// ResumePolicy decides whether a point's output is already done.
type ResumePolicy interface {
	Done(output string) bool
}

// FileExists treats any existing output file as done.
type FileExists struct{}

func (FileExists) Done(output string) bool {
	fi, err := os.Stat(output)
	return err == nil && !fi.IsDir()
}

// Always redo every point.
type Always struct{}

func (Always) Done(string) bool { return false }

// Lister returns the snapshots of a directory in time order.
type Lister interface {
	List(dir string) ([]string, error)
}

type ListerFunc func(dir string) ([]string, error)

func (f ListerFunc) List(dir string) ([]string, error) { return f(dir) }

// Renderer draws a snapshot into an image file.
type Renderer interface {
	Render(snap types.Snapshot, output string) error
}

type Failure struct {
	Point  Point
	Output string
	Err    error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Point, f.Err) }

func (f Failure) Unwrap() error { return f.Err }

type Report struct {
	Rendered        int
	SkippedExisting int
	SkippedMissing  int
	Planned         []string // outputs a dry run would render
	Failures        []Failure
}

func (r *Report) Failed() int { return len(r.Failures) }

// Err joins the per-point failures, nil when every point succeeded.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	return fmt.Sprintf("rendered %d, already done %d, no data %d, planned %d, failed %d",
		r.Rendered, r.SkippedExisting, r.SkippedMissing, len(r.Planned), len(r.Failures))
}

type Runner struct {
	Points   []Point
	Namer    Namer
	Resume   ResumePolicy
	Lister   Lister
	Loader   types.Loader
	Renderer Renderer
	DryRun   bool
}

// Run visits every point in order. Failures of a point are recorded in the
// report and the sweep moves on; only cancellation ends it early.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{}
	for _, p := range r.Points {
		if err = ctx.Err(); err != nil {
			return
		}
		output := r.Namer.OutputPath(p)
		if r.Resume.Done(output) {
			report.SkippedExisting++
			continue
		}
		dir := r.Namer.InputDir(p)
		// Not every combination was run
		fi, serr := os.Stat(dir)
		switch {
		case errors.Is(serr, os.ErrNotExist) || (serr == nil && !fi.IsDir()):
			report.SkippedMissing++
			continue
		case serr != nil:
			report.Failures = append(report.Failures, Failure{Point: p, Output: output, Err: serr})
			continue
		}
		if r.DryRun {
			report.Planned = append(report.Planned, output)
			continue
		}
		utils.Logf("Generating plot with filename %s\n", output)
		if perr := r.point(p, dir, output); perr != nil {
			utils.Logf("error: %s: %v, skipping\n", p, perr)
			report.Failures = append(report.Failures, Failure{Point: p, Output: output, Err: perr})
			continue
		}
		report.Rendered++
	}
	return
}

func (r *Runner) point(p Point, dir, output string) (err error) {
	var (
		snaps []string
		snap  types.Snapshot
	)
	if snaps, err = r.Lister.List(dir); err != nil {
		return
	}
	index := p.SnapshotIndex()
	if index < 0 || index >= len(snaps) {
		return fmt.Errorf("%w: index %d for time %s, %s has %d plotfiles",
			ErrSnapshotOutOfRange, index, FormatTime(p.Time), dir, len(snaps))
	}
	if snap, err = r.Loader.Load(snaps[index]); err != nil {
		return
	}
	return r.Renderer.Render(snap, output)
}
