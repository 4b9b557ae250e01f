package readfiles

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// PlotfileLayout describes a plotfile to be written by WritePlotfile. Level 0
// covers the whole domain and is chopped into boxes no larger than
// MaxGridSize; FineBoxes[n] lists the boxes of level n+1 in that level's
// index space.
type PlotfileLayout struct {
	VarNames    []string
	Time        float64
	Step        int
	ProbLo      [3]float64
	ProbHi      [3]float64
	Dims        [3]int
	MaxGridSize int
	RefRatio    int
	FineBoxes   [][]Box
}

// FieldFunc gives the value of a field at a physical cell centre on a level.
type FieldFunc func(field string, level int, x [3]float64) float64

// WritePlotfile writes a three dimensional, double precision, little endian
// plotfile in the HyperCLaw-V1.1 layout.
func WritePlotfile(path string, l *PlotfileLayout, f FieldFunc) (err error) {
	var (
		nLevels = len(l.FineBoxes) + 1
		domains = make([]Box, nLevels)
		dxs     = make([][3]float64, nLevels)
		boxes   = make([][]Box, nLevels)
		ratio   = 1
	)
	if l.RefRatio < 2 && nLevels > 1 {
		return fmt.Errorf("refinement ratio %d must be at least 2", l.RefRatio)
	}
	for lev := 0; lev < nLevels; lev++ {
		for d := 0; d < 3; d++ {
			domains[lev].Hi[d] = l.Dims[d]*ratio - 1
			dxs[lev][d] = (l.ProbHi[d] - l.ProbLo[d]) / float64(l.Dims[d]*ratio)
		}
		if lev == 0 {
			boxes[lev] = chopBox(domains[lev], l.MaxGridSize)
		} else {
			boxes[lev] = l.FineBoxes[lev-1]
		}
		for _, b := range boxes[lev] {
			if !domains[lev].Contains(b) {
				return fmt.Errorf("level %d box %s outside domain %s", lev, b, domains[lev])
			}
		}
		ratio *= l.RefRatio
	}
	if err = os.MkdirAll(path, 0755); err != nil {
		return
	}
	if err = writeHeader(path, l, domains, dxs, boxes); err != nil {
		return
	}
	for lev := 0; lev < nLevels; lev++ {
		if err = writeLevel(path, l, lev, dxs[lev], boxes[lev], f); err != nil {
			return
		}
	}
	return
}

func chopBox(domain Box, maxGrid int) (boxes []Box) {
	if maxGrid < 1 {
		return []Box{domain}
	}
	var (
		n [3]int
	)
	for d := 0; d < 3; d++ {
		n[d] = (domain.Size(d) + maxGrid - 1) / maxGrid
	}
	for k := 0; k < n[2]; k++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				var b Box
				for d, c := range [3]int{i, j, k} {
					b.Lo[d] = domain.Lo[d] + c*maxGrid
					b.Hi[d] = min(b.Lo[d]+maxGrid-1, domain.Hi[d])
				}
				boxes = append(boxes, b)
			}
		}
	}
	return
}

func writeHeader(path string, l *PlotfileLayout, domains []Box, dxs [][3]float64, boxes [][]Box) (err error) {
	var (
		file *os.File
	)
	if file, err = os.Create(filepath.Join(path, "Header")); err != nil {
		return
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "HyperCLaw-V1.1\n%d\n", len(l.VarNames))
	for _, name := range l.VarNames {
		fmt.Fprintf(w, "%s\n", name)
	}
	fmt.Fprintf(w, "3\n%.17g\n%d\n", l.Time, len(domains)-1)
	fmt.Fprintf(w, "%.17g %.17g %.17g \n", l.ProbLo[0], l.ProbLo[1], l.ProbLo[2])
	fmt.Fprintf(w, "%.17g %.17g %.17g \n", l.ProbHi[0], l.ProbHi[1], l.ProbHi[2])
	for lev := 1; lev < len(domains); lev++ {
		fmt.Fprintf(w, "%d ", l.RefRatio)
	}
	fmt.Fprintf(w, "\n")
	for _, d := range domains {
		fmt.Fprintf(w, "%s ", d)
	}
	fmt.Fprintf(w, "\n")
	for range domains {
		fmt.Fprintf(w, "%d ", l.Step)
	}
	fmt.Fprintf(w, "\n")
	for _, dx := range dxs {
		fmt.Fprintf(w, "%.17g %.17g %.17g \n", dx[0], dx[1], dx[2])
	}
	// Cartesian coordinates, no boundary data
	fmt.Fprintf(w, "0\n0\n")
	for lev := range domains {
		fmt.Fprintf(w, "%d %d %.17g\n%d\n", lev, len(boxes[lev]), l.Time, l.Step)
		for _, b := range boxes[lev] {
			for d := 0; d < 3; d++ {
				lo := l.ProbLo[d] + float64(b.Lo[d])*dxs[lev][d]
				hi := l.ProbLo[d] + float64(b.Hi[d]+1)*dxs[lev][d]
				fmt.Fprintf(w, "%.17g %.17g\n", lo, hi)
			}
		}
		fmt.Fprintf(w, "Level_%d/Cell\n", lev)
	}
	return w.Flush()
}

const fabRealDescriptor = "((8, (64 11 52 0 1 12 0 1023)),(8, (8 7 6 5 4 3 2 1)))"

func writeLevel(path string, l *PlotfileLayout, lev int, dx [3]float64, boxes []Box, f FieldFunc) (err error) {
	var (
		dir     = filepath.Join(path, fmt.Sprintf("Level_%d", lev))
		dataF   *os.File
		offsets = make([]int64, len(boxes))
		nComp   = len(l.VarNames)
		mins    = make([][]float64, len(boxes))
		maxs    = make([][]float64, len(boxes))
		offset  int64
	)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}
	if dataF, err = os.Create(filepath.Join(dir, "Cell_D_00000")); err != nil {
		return
	}
	defer dataF.Close()
	w := bufio.NewWriter(dataF)
	for n, b := range boxes {
		offsets[n] = offset
		head := fmt.Sprintf("FAB %s%s %d\n", fabRealDescriptor, b, nComp)
		if _, err = w.WriteString(head); err != nil {
			return
		}
		offset += int64(len(head))
		mins[n] = make([]float64, nComp)
		maxs[n] = make([]float64, nComp)
		buf := make([]byte, 8)
		for c, name := range l.VarNames {
			mins[n][c], maxs[n][c] = math.Inf(1), math.Inf(-1)
			for k := b.Lo[2]; k <= b.Hi[2]; k++ {
				for j := b.Lo[1]; j <= b.Hi[1]; j++ {
					for i := b.Lo[0]; i <= b.Hi[0]; i++ {
						var x [3]float64
						for d, ind := range [3]int{i, j, k} {
							x[d] = l.ProbLo[d] + (float64(ind)+0.5)*dx[d]
						}
						val := f(name, lev, x)
						mins[n][c] = math.Min(mins[n][c], val)
						maxs[n][c] = math.Max(maxs[n][c], val)
						binary.LittleEndian.PutUint64(buf, math.Float64bits(val))
						if _, err = w.Write(buf); err != nil {
							return
						}
					}
				}
			}
			offset += int64(8 * b.NumPts())
		}
	}
	if err = w.Flush(); err != nil {
		return
	}
	return writeCellH(filepath.Join(dir, "Cell_H"), nComp, boxes, offsets, mins, maxs)
}

func writeCellH(fileName string, nComp int, boxes []Box, offsets []int64, mins, maxs [][]float64) (err error) {
	var (
		file *os.File
	)
	if file, err = os.Create(fileName); err != nil {
		return
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "1\n0\n%d\n0\n", nComp)
	fmt.Fprintf(w, "(%d 0\n", len(boxes))
	for _, b := range boxes {
		fmt.Fprintf(w, "%s\n", b)
	}
	fmt.Fprintf(w, ")\n%d\n", len(boxes))
	for _, off := range offsets {
		fmt.Fprintf(w, "FabOnDisk: Cell_D_00000 %d\n", off)
	}
	fmt.Fprintf(w, "\n")
	for _, table := range [][][]float64{mins, maxs} {
		fmt.Fprintf(w, "%d,%d\n", len(boxes), nComp)
		for _, row := range table {
			var sb strings.Builder
			for _, v := range row {
				fmt.Fprintf(&sb, "%.17g,", v)
			}
			fmt.Fprintf(w, "%s\n", sb.String())
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}
