package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/notargets/wdmerger/comparison"
)

var (
	csvFile string
	ratio   = 2.0
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file of index,path,relative_l2 records written by wdmerger compare --csv")
	ratioPtr := flag.Float64("ratio", ratio, "refinement between consecutive entries")
	flag.Parse()
	csvFile = *csvFilePtr
	ratio = *ratioPtr
	if len(csvFile) == 0 || ratio <= 1 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	cs, err := readCSV(csvFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	cs.Print(os.Stdout)
}

type ConvergenceStudy struct {
	ratio  float64
	index  []int
	path   []string
	errL2  []float64
	orders []float64
}

func NewConvergenceStudy(ratio float64) *ConvergenceStudy {
	return &ConvergenceStudy{ratio: ratio}
}

// Add appends the next entry; the observed order against the previous one is
// log(e[i-1]/e[i]) / log(ratio).
func (cs *ConvergenceStudy) Add(index int, path string, errL2 float64) {
	order := math.NaN()
	if n := len(cs.errL2); n != 0 && errL2 > 0 && cs.errL2[n-1] > 0 {
		order = math.Log(cs.errL2[n-1]/errL2) / math.Log(cs.ratio)
	}
	cs.index = append(cs.index, index)
	cs.path = append(cs.path, path)
	cs.errL2 = append(cs.errL2, errL2)
	cs.orders = append(cs.orders, order)
}

func (cs *ConvergenceStudy) Print(w io.Writer) {
	fmt.Fprintf(w, "Refinement ratio = %g\n", cs.ratio)
	for i := range cs.index {
		fmt.Fprintf(w, "%d, %s, %v, %5.2f\n", cs.index[i], cs.path[i], cs.errL2[i], cs.orders[i])
	}
}

func readCSV(csvFile string) (cs *ConvergenceStudy, err error) {
	var (
		f       *os.File
		results []comparison.Result
	)
	if f, err = os.Open(csvFile); err != nil {
		return
	}
	defer f.Close()
	if results, err = comparison.ReadCSV(bufio.NewReader(f)); err != nil {
		return
	}
	cs = NewConvergenceStudy(ratio)
	for _, r := range results {
		cs.Add(r.Index, r.Path, r.RelativeL2)
	}
	return
}
