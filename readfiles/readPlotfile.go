package readfiles

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/notargets/wdmerger/types"
)

// From here: https://amrex-codes.github.io/amrex/docs_html/IO.html
// A plotfile is a directory holding a text Header, and per level a VisMF
// header (Level_<n>/Cell_H) pointing at binary FAB records in Cell_D_* files.

var ErrNoSuchField = errors.New("no such field")

// Box is an inclusive cell index range.
type Box struct {
	Lo, Hi [3]int
}

func (b Box) Size(d int) int { return b.Hi[d] - b.Lo[d] + 1 }

func (b Box) NumPts() int { return b.Size(0) * b.Size(1) * b.Size(2) }

func (b Box) Index(i, j, k int) int {
	return (i - b.Lo[0]) + b.Size(0)*((j-b.Lo[1])+b.Size(1)*(k-b.Lo[2]))
}

func (b Box) Intersect(o Box) (r Box, ok bool) {
	for d := 0; d < 3; d++ {
		r.Lo[d] = max(b.Lo[d], o.Lo[d])
		r.Hi[d] = min(b.Hi[d], o.Hi[d])
		if r.Lo[d] > r.Hi[d] {
			return r, false
		}
	}
	return r, true
}

func (b Box) Contains(o Box) bool {
	r, ok := b.Intersect(o)
	return ok && r == o
}

// Refine maps the box onto an index space r times finer.
func (b Box) Refine(r int) (f Box) {
	for d := 0; d < 3; d++ {
		f.Lo[d] = b.Lo[d] * r
		f.Hi[d] = (b.Hi[d]+1)*r - 1
	}
	return
}

func (b Box) String() string {
	return fmt.Sprintf("((%d,%d,%d) (%d,%d,%d) (0,0,0))",
		b.Lo[0], b.Lo[1], b.Lo[2], b.Hi[0], b.Hi[1], b.Hi[2])
}

type fabOnDisk struct {
	File   string
	Offset int64
}

type PlotfileLevel struct {
	Domain Box
	Dx     [3]float64
	Steps  int
	Boxes  []Box
	cellH  string // relative path of the VisMF header, e.g. Level_0/Cell
	fabs   []fabOnDisk
}

type Plotfile struct {
	Path        string
	Version     string
	VarNames    []string
	SpaceDim    int
	CoordSys    int
	RefRatio    []int
	Levels      []*PlotfileLevel
	time        float64
	finestLevel int
	probLo      [3]float64
	probHi      [3]float64
}

var _ types.Snapshot = &Plotfile{}

// NewLoader returns a types.Loader that opens AMReX plotfile directories.
func NewLoader() types.Loader {
	return types.LoaderFunc(func(path string) (types.Snapshot, error) {
		pf, err := ReadPlotfile(path)
		if err != nil {
			return nil, err
		}
		return pf, nil
	})
}

// ReadPlotfile parses the plotfile headers. Field data is read on demand by
// CoveringGrid.
func ReadPlotfile(path string) (pf *Plotfile, err error) {
	var (
		file *os.File
	)
	if file, err = os.Open(filepath.Join(path, "Header")); err != nil {
		return nil, fmt.Errorf("unable to open plotfile %s: %w", path, err)
	}
	defer file.Close()
	pf = &Plotfile{Path: path}
	if err = pf.readHeader(newLineReader(bufio.NewReader(file))); err != nil {
		return nil, fmt.Errorf("plotfile %s: %w", path, err)
	}
	for lev, pl := range pf.Levels {
		if err = pf.readCellH(pl); err != nil {
			return nil, fmt.Errorf("plotfile %s level %d: %w", path, lev, err)
		}
	}
	return
}

func (pf *Plotfile) Name() string             { return filepath.Base(pf.Path) }
func (pf *Plotfile) Time() float64            { return pf.time }
func (pf *Plotfile) FinestLevel() int         { return pf.finestLevel }
func (pf *Plotfile) ProbLo() [3]float64       { return pf.probLo }
func (pf *Plotfile) ProbHi() [3]float64       { return pf.probHi }
func (pf *Plotfile) Fields() []string         { return pf.VarNames }
func (pf *Plotfile) DomainDimensions() [3]int { return pf.levelDims(0) }

func (pf *Plotfile) LevelDimensions(level int) (dims [3]int, err error) {
	if level < 0 || level > pf.finestLevel {
		return dims, fmt.Errorf("level %d outside 0..%d", level, pf.finestLevel)
	}
	return pf.levelDims(level), nil
}

func (pf *Plotfile) levelDims(lev int) (dims [3]int) {
	for d := 0; d < 3; d++ {
		dims[d] = pf.Levels[lev].Domain.Size(d)
	}
	return
}

type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r *bufio.Reader) *lineReader { return &lineReader{r: r} }

func (lr *lineReader) next() (line string, err error) {
	line, err = lr.r.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("line %d: %w", lr.line+1, err)
	}
	lr.line++
	return strings.TrimRight(line, "\r\n"), nil
}

func (lr *lineReader) nextInt() (n int, err error) {
	var line string
	if line, err = lr.next(); err != nil {
		return
	}
	if n, err = strconv.Atoi(strings.TrimSpace(line)); err != nil {
		err = fmt.Errorf("line %d: expected an integer: %w", lr.line, err)
	}
	return
}

func (lr *lineReader) nextFloats() (v []float64, err error) {
	var line string
	if line, err = lr.next(); err != nil {
		return
	}
	for _, tok := range strings.Fields(line) {
		var f float64
		if f, err = strconv.ParseFloat(tok, 64); err != nil {
			return nil, fmt.Errorf("line %d: expected a number: %w", lr.line, err)
		}
		v = append(v, f)
	}
	return
}

func (lr *lineReader) nextInts() (v []int, err error) {
	var line string
	if line, err = lr.next(); err != nil {
		return
	}
	for _, tok := range strings.Fields(line) {
		var n int
		if n, err = strconv.Atoi(tok); err != nil {
			return nil, fmt.Errorf("line %d: expected an integer: %w", lr.line, err)
		}
		v = append(v, n)
	}
	return
}

var boxRE = regexp.MustCompile(`\(\(\s*([-\d,\s]+)\)\s*\(\s*([-\d,\s]+)\)\s*\(\s*([-\d,\s]+)\)\s*\)`)

func parseIntVect(s string, spaceDim int) (iv [3]int, err error) {
	toks := strings.Split(s, ",")
	if len(toks) != spaceDim {
		return iv, fmt.Errorf("expected %d components in (%s)", spaceDim, s)
	}
	for d, tok := range toks {
		if iv[d], err = strconv.Atoi(strings.TrimSpace(tok)); err != nil {
			return
		}
	}
	return
}

func parseBoxes(line string, spaceDim int) (boxes []Box, err error) {
	for _, m := range boxRE.FindAllStringSubmatch(line, -1) {
		var b Box
		if b.Lo, err = parseIntVect(m[1], spaceDim); err != nil {
			return
		}
		if b.Hi, err = parseIntVect(m[2], spaceDim); err != nil {
			return
		}
		boxes = append(boxes, b)
	}
	return
}

// pad3 copies up to three values into a fixed array, leaving unused axes at def.
func pad3(v []float64, def float64) (a [3]float64) {
	for d := 0; d < 3; d++ {
		a[d] = def
		if d < len(v) {
			a[d] = v[d]
		}
	}
	return
}

func (pf *Plotfile) readHeader(lr *lineReader) (err error) {
	var (
		line  string
		nVars int
		vals  []float64
	)
	if pf.Version, err = lr.next(); err != nil {
		return
	}
	if !strings.HasPrefix(pf.Version, "HyperCLaw") {
		return fmt.Errorf("unrecognized plotfile version %q", pf.Version)
	}
	if nVars, err = lr.nextInt(); err != nil {
		return
	}
	pf.VarNames = make([]string, nVars)
	for n := range pf.VarNames {
		if line, err = lr.next(); err != nil {
			return
		}
		pf.VarNames[n] = strings.TrimSpace(line)
	}
	if pf.SpaceDim, err = lr.nextInt(); err != nil {
		return
	}
	if pf.SpaceDim < 1 || pf.SpaceDim > 3 {
		return fmt.Errorf("unsupported dimensionality %d", pf.SpaceDim)
	}
	if vals, err = lr.nextFloats(); err != nil {
		return
	}
	if len(vals) != 1 {
		return fmt.Errorf("line %d: expected the time, have %d values %v", lr.line, len(vals), vals)
	}
	pf.time = vals[0]
	if pf.finestLevel, err = lr.nextInt(); err != nil {
		return
	}
	nLevels := pf.finestLevel + 1
	if vals, err = lr.nextFloats(); err != nil {
		return
	}
	pf.probLo = pad3(vals, 0)
	if vals, err = lr.nextFloats(); err != nil {
		return
	}
	pf.probHi = pad3(vals, 1)
	if pf.RefRatio, err = lr.nextInts(); err != nil {
		return
	}
	if len(pf.RefRatio) != pf.finestLevel {
		return fmt.Errorf("have %d refinement ratios for finest level %d", len(pf.RefRatio), pf.finestLevel)
	}
	if line, err = lr.next(); err != nil {
		return
	}
	var domains []Box
	if domains, err = parseBoxes(line, pf.SpaceDim); err != nil {
		return
	}
	if len(domains) != nLevels {
		return fmt.Errorf("have %d level domains, need %d", len(domains), nLevels)
	}
	var steps []int
	if steps, err = lr.nextInts(); err != nil {
		return
	}
	pf.Levels = make([]*PlotfileLevel, nLevels)
	for lev := range pf.Levels {
		pl := &PlotfileLevel{Domain: domains[lev]}
		if lev < len(steps) {
			pl.Steps = steps[lev]
		}
		if vals, err = lr.nextFloats(); err != nil {
			return
		}
		pl.Dx = pad3(vals, 0)
		for d := pf.SpaceDim; d < 3; d++ {
			pl.Dx[d] = pf.probHi[d] - pf.probLo[d]
		}
		pf.Levels[lev] = pl
	}
	if pf.CoordSys, err = lr.nextInt(); err != nil {
		return
	}
	// Boundary width
	if _, err = lr.nextInt(); err != nil {
		return
	}
	for lev, pl := range pf.Levels {
		var head []float64
		if head, err = lr.nextFloats(); err != nil {
			return
		}
		if len(head) != 3 || int(head[0]) != lev {
			return fmt.Errorf("bad level %d header at line %d", lev, lr.line)
		}
		nGrids := int(head[1])
		// Level steps
		if _, err = lr.next(); err != nil {
			return
		}
		// Physical box extents, one line per axis for each grid
		for n := 0; n < nGrids*pf.SpaceDim; n++ {
			if _, err = lr.next(); err != nil {
				return
			}
		}
		if line, err = lr.next(); err != nil {
			return
		}
		pl.cellH = strings.TrimSpace(line)
	}
	return
}

var fabOnDiskRE = regexp.MustCompile(`^FabOnDisk:\s+(\S+)\s+(\d+)`)

func (pf *Plotfile) readCellH(pl *PlotfileLevel) (err error) {
	var (
		file   *os.File
		line   string
		nBoxes int
	)
	if file, err = os.Open(filepath.Join(pf.Path, pl.cellH+"_H")); err != nil {
		return
	}
	defer file.Close()
	lr := newLineReader(bufio.NewReader(file))
	// Version, how, ncomp, ngrow
	for n := 0; n < 4; n++ {
		if _, err = lr.next(); err != nil {
			return
		}
	}
	if line, err = lr.next(); err != nil {
		return
	}
	if _, err = fmt.Sscanf(strings.TrimPrefix(strings.TrimSpace(line), "("), "%d", &nBoxes); err != nil {
		return fmt.Errorf("bad box array header %q: %w", line, err)
	}
	pl.Boxes = make([]Box, 0, nBoxes)
	for len(pl.Boxes) < nBoxes {
		var boxes []Box
		if line, err = lr.next(); err != nil {
			return
		}
		if boxes, err = parseBoxes(line, pf.SpaceDim); err != nil {
			return
		}
		pl.Boxes = append(pl.Boxes, boxes...)
	}
	pl.fabs = make([]fabOnDisk, 0, nBoxes)
	for len(pl.fabs) < nBoxes {
		if line, err = lr.next(); err != nil {
			return
		}
		m := fabOnDiskRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		var offset int64
		if offset, err = strconv.ParseInt(m[2], 10, 64); err != nil {
			return
		}
		pl.fabs = append(pl.fabs, fabOnDisk{
			File:   filepath.Join(filepath.Dir(pl.cellH), m[1]),
			Offset: offset,
		})
	}
	return
}

var fabHeaderRE = regexp.MustCompile(`^FAB\s*\(\(\s*(\d+)\s*,\s*\(([\d\s]+)\)\)\s*,\s*\(\s*(\d+)\s*,\s*\(([\d\s]+)\)\)\)\s*(.*)\s+(\d+)\s*$`)

type fabHeader struct {
	bytes int
	order binary.ByteOrder
	box   Box
	nComp int
	size  int64 // length of the header line including the newline
}

func parseFabHeader(line string, spaceDim int) (fh fabHeader, err error) {
	m := fabHeaderRE.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return fh, fmt.Errorf("bad FAB header %q", line)
	}
	fh.size = int64(len(line))
	if fh.bytes, err = strconv.Atoi(m[3]); err != nil {
		return
	}
	if fh.bytes != 4 && fh.bytes != 8 {
		return fh, fmt.Errorf("unsupported real size %d", fh.bytes)
	}
	order := strings.Fields(m[4])
	switch {
	case len(order) > 0 && order[0] == strconv.Itoa(fh.bytes):
		fh.order = binary.LittleEndian
	case len(order) > 0 && order[0] == "1":
		fh.order = binary.BigEndian
	default:
		return fh, fmt.Errorf("unsupported byte order (%s)", m[4])
	}
	var boxes []Box
	if boxes, err = parseBoxes(m[5], spaceDim); err != nil {
		return
	}
	if len(boxes) != 1 {
		return fh, fmt.Errorf("bad FAB box %q", m[5])
	}
	fh.box = boxes[0]
	if fh.nComp, err = strconv.Atoi(m[6]); err != nil {
		return
	}
	return
}

// readFab reads one component of the FAB record at fd.
func (pf *Plotfile) readFab(fd fabOnDisk, comp int) (box Box, data []float64, err error) {
	var (
		file *os.File
		line string
		fh   fabHeader
	)
	if file, err = os.Open(filepath.Join(pf.Path, fd.File)); err != nil {
		return
	}
	defer file.Close()
	if _, err = file.Seek(fd.Offset, io.SeekStart); err != nil {
		return
	}
	if line, err = bufio.NewReader(file).ReadString('\n'); err != nil {
		return box, nil, fmt.Errorf("%s: reading FAB header: %w", fd.File, err)
	}
	if fh, err = parseFabHeader(line, pf.SpaceDim); err != nil {
		return box, nil, fmt.Errorf("%s: %w", fd.File, err)
	}
	if comp >= fh.nComp {
		return box, nil, fmt.Errorf("%s: component %d out of %d", fd.File, comp, fh.nComp)
	}
	var (
		nPts = fh.box.NumPts()
		buf  = make([]byte, nPts*fh.bytes)
	)
	start := fd.Offset + fh.size + int64(comp*nPts*fh.bytes)
	if _, err = file.ReadAt(buf, start); err != nil {
		return box, nil, fmt.Errorf("%s: reading FAB data: %w", fd.File, err)
	}
	data = make([]float64, nPts)
	for i := range data {
		if fh.bytes == 8 {
			data[i] = math.Float64frombits(fh.order.Uint64(buf[8*i:]))
		} else {
			data[i] = float64(math.Float32frombits(fh.order.Uint32(buf[4*i:])))
		}
	}
	return fh.box, data, nil
}

func (pf *Plotfile) component(field string) (comp int, err error) {
	for n, name := range pf.VarNames {
		if name == field {
			return n, nil
		}
	}
	return -1, fmt.Errorf("%w: %q not in %s (have %s)", ErrNoSuchField, field,
		pf.Name(), strings.Join(pf.VarNames, ", "))
}

// CoveringGrid fills a uniform grid at level from the finest data available
// at or below that level. Coarser data is injected (piecewise constant) into
// cells not covered by finer boxes.
func (pf *Plotfile) CoveringGrid(field string, level int, leftEdge [3]float64, dims [3]int) (g *types.Grid, err error) {
	var comp int
	if comp, err = pf.component(field); err != nil {
		return
	}
	if level < 0 || level > pf.finestLevel {
		return nil, fmt.Errorf("level %d outside 0..%d", level, pf.finestLevel)
	}
	var (
		pl     = pf.Levels[level]
		target Box
	)
	for d := 0; d < 3; d++ {
		if dims[d] < 1 {
			return nil, fmt.Errorf("covering grid dims %v must be positive", dims)
		}
		target.Lo[d] = int(math.Round((leftEdge[d] - pf.probLo[d]) / pl.Dx[d]))
		target.Hi[d] = target.Lo[d] + dims[d] - 1
	}
	if !pl.Domain.Contains(target) {
		return nil, fmt.Errorf("covering grid %s extends outside level %d domain %s", target, level, pl.Domain)
	}
	var edge [3]float64
	for d := 0; d < 3; d++ {
		edge[d] = pf.probLo[d] + float64(target.Lo[d])*pl.Dx[d]
	}
	g = types.NewGrid(field, dims, edge, pl.Dx)
	var (
		ratio  = 1
		filled = make([]bool, g.Len())
	)
	for lev := level; lev >= 0; lev-- {
		if lev < level {
			ratio *= pf.RefRatio[lev]
		}
		if err = pf.inject(g, filled, target, lev, ratio, comp); err != nil {
			return nil, err
		}
		if pf.levelCovers(lev, target, ratio) {
			break
		}
	}
	return
}

// levelCovers reports whether the boxes of level lev refined by ratio tile
// target completely, in which case no coarser level can contribute.
func (pf *Plotfile) levelCovers(lev int, target Box, ratio int) bool {
	covered := 0
	for _, b := range pf.Levels[lev].Boxes {
		if r, ok := b.Refine(ratio).Intersect(target); ok {
			covered += r.NumPts()
		}
	}
	return covered == target.NumPts()
}

// inject copies level lev data into the cells of g not yet filled by a finer
// level.
func (pf *Plotfile) inject(g *types.Grid, filled []bool, target Box, lev, ratio, comp int) (err error) {
	pl := pf.Levels[lev]
	if len(pl.fabs) != len(pl.Boxes) {
		return fmt.Errorf("level %d has %d boxes and %d FABs", lev, len(pl.Boxes), len(pl.fabs))
	}
	for n, b := range pl.Boxes {
		r, ok := b.Refine(ratio).Intersect(target)
		if !ok {
			continue
		}
		var (
			fabBox Box
			data   []float64
		)
		if fabBox, data, err = pf.readFab(pl.fabs[n], comp); err != nil {
			return
		}
		for k := r.Lo[2]; k <= r.Hi[2]; k++ {
			for j := r.Lo[1]; j <= r.Hi[1]; j++ {
				for i := r.Lo[0]; i <= r.Hi[0]; i++ {
					ind := g.Index(i-target.Lo[0], j-target.Lo[1], k-target.Lo[2])
					if filled[ind] {
						continue
					}
					g.Data[ind] = data[fabBox.Index(floorDiv(i, ratio), floorDiv(j, ratio), floorDiv(k, ratio))]
					filled[ind] = true
				}
			}
		}
	}
	return
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
