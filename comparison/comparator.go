package comparison

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/notargets/wdmerger/types"
	"github.com/notargets/wdmerger/utils"
)

var ErrShapeMismatch = errors.New("grid shape mismatch")

// IndexToken is replaced by the candidate index in a path template.
const IndexToken = "{index}"

type Result struct {
	Index      int
	Path       string
	RelativeL2 float64
	Err        error // set only when failures are kept going past
}

// Comparison holds the reference description and the error norm of each
// candidate, in index order.
type Comparison struct {
	Reference string
	Field     string
	Level     int
	Dims      [3]int
	Results   []Result
}

type Comparator struct {
	Loader    types.Loader
	Field     string
	Level     int
	KeepGoing bool // record NaN for a failed candidate and continue
}

func NewComparator(loader types.Loader, field string, level int) *Comparator {
	return &Comparator{
		Loader: loader,
		Field:  field,
		Level:  level,
	}
}

func CandidatePath(template string, index int) string {
	return strings.ReplaceAll(template, IndexToken, strconv.Itoa(index))
}

// sample returns the field on a grid spanning the whole domain at the
// comparator's level.
func (c *Comparator) sample(snap types.Snapshot) (g *types.Grid, err error) {
	var dims [3]int
	if dims, err = snap.LevelDimensions(c.Level); err != nil {
		return
	}
	return snap.CoveringGrid(c.Field, c.Level, snap.ProbLo(), dims)
}

func (c *Comparator) load(path string) (g *types.Grid, dims [3]int, err error) {
	var snap types.Snapshot
	if snap, err = c.Loader.Load(path); err != nil {
		return
	}
	dims = snap.DomainDimensions()
	if g, err = c.sample(snap); err != nil {
		err = fmt.Errorf("sampling %s from %s: %w", c.Field, path, err)
	}
	return
}

// Run compares candidates first..last against the reference. A candidate
// failure ends the run unless KeepGoing is set.
func (c *Comparator) Run(ctx context.Context, refPath, template string, first, last int) (cm *Comparison, err error) {
	if last < first {
		return nil, fmt.Errorf("empty index range %d..%d", first, last)
	}
	var (
		ref    *types.Grid
		refVec utils.Vector
	)
	cm = &Comparison{
		Reference: refPath,
		Field:     c.Field,
		Level:     c.Level,
	}
	if ref, cm.Dims, err = c.load(refPath); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	utils.Logf("reference %s domain dimensions %v\n", refPath, cm.Dims)
	refVec = utils.NewVector(ref.Len(), ref.Data)
	if refVec.Norm(2) == 0 {
		return nil, fmt.Errorf("reference %s has a zero %s field, relative error is undefined", refPath, c.Field)
	}
	for index := first; index <= last; index++ {
		if err = ctx.Err(); err != nil {
			return
		}
		r := Result{Index: index, Path: CandidatePath(template, index)}
		r.RelativeL2, r.Err = c.candidate(r.Path, ref, refVec)
		if r.Err != nil {
			if !c.KeepGoing {
				return nil, fmt.Errorf("candidate %d: %w", index, r.Err)
			}
			utils.Logf("candidate %d failed: %v\n", index, r.Err)
			r.RelativeL2 = math.NaN()
		} else {
			utils.Logf("candidate %d %s relative L2 = %g\n", index, r.Path, r.RelativeL2)
		}
		cm.Results = append(cm.Results, r)
	}
	return
}

func (c *Comparator) candidate(path string, ref *types.Grid, refVec utils.Vector) (e float64, err error) {
	var g *types.Grid
	if g, _, err = c.load(path); err != nil {
		return
	}
	if !ref.SameShape(g) {
		return 0, fmt.Errorf("%w: %s is %v, reference is %v", ErrShapeMismatch, path, g.Dims, ref.Dims)
	}
	e = utils.RelativeL2(refVec, utils.NewVector(g.Len(), g.Data))
	return
}

// Norms returns the relative L2 errors in index order.
func (cm *Comparison) Norms() (norms []float64) {
	norms = make([]float64, len(cm.Results))
	for i, r := range cm.Results {
		norms[i] = r.RelativeL2
	}
	return
}

func (cm *Comparison) Failed() (n int) {
	for _, r := range cm.Results {
		if r.Err != nil {
			n++
		}
	}
	return
}

// WriteCSV writes one index,path,relative_l2 record per candidate.
func (cm *Comparison) WriteCSV(w io.Writer) (err error) {
	cw := csv.NewWriter(w)
	if err = cw.Write([]string{"index", "path", "relative_l2"}); err != nil {
		return
	}
	for _, r := range cm.Results {
		rec := []string{
			strconv.Itoa(r.Index),
			r.Path,
			strconv.FormatFloat(r.RelativeL2, 'g', -1, 64),
		}
		if err = cw.Write(rec); err != nil {
			return
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads results written by WriteCSV.
func ReadCSV(r io.Reader) (results []Result, err error) {
	var records [][]string
	if records, err = csv.NewReader(r).ReadAll(); err != nil {
		return
	}
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "index" {
			continue
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("record %d has %d fields, want 3", i+1, len(rec))
		}
		var res Result
		if res.Index, err = strconv.Atoi(rec[0]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		res.Path = rec[1]
		if res.RelativeL2, err = strconv.ParseFloat(rec[2], 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return
}
