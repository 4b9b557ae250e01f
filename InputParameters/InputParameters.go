package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/wdmerger/types"
	"github.com/notargets/wdmerger/utils"
)

// Output times of one problem, and the simulated time between plotfiles
type ProblemParameters struct {
	Problem  int       `yaml:"Problem"`
	Times    []float64 `yaml:"Times"`
	Interval float64   `yaml:"Interval"`
}

// Parameters of a slice plot sweep, obtained from the YAML input file
type SweepParameters struct {
	Title      string              `yaml:"Title"`
	Problems   []ProblemParameters `yaml:"Problems"`
	Velocities []int               `yaml:"Velocities"`
	NCells     []int               `yaml:"NCells"`
	Field      string              `yaml:"Field"`
	Axis       string              `yaml:"Axis"`
	Width      float64             `yaml:"Width"` // Slice window width, <= 0 plots the whole domain
	Level      int                 `yaml:"Level"`
	ResultsDir string              `yaml:"ResultsDir"`
	PlotsDir   string              `yaml:"PlotsDir"`
	Format     string              `yaml:"Format"`
}

// DefaultSweepParameters is the Kelvin-Helmholtz resolution study
func DefaultSweepParameters() *SweepParameters {
	return &SweepParameters{
		Title: "Kelvin-Helmholtz",
		Problems: []ProblemParameters{
			{Problem: 1, Times: []float64{0.0, 2.0}, Interval: 0.05},
			{Problem: 2, Times: []float64{0.0, 2.0}, Interval: 0.05},
			{Problem: 3, Times: []float64{0.0, 1.5, 2.5, 4.7, 9.2}, Interval: 0.1},
		},
		Velocities: []int{0, 1, 3, 10, 30, 100},
		NCells:     []int{64, 128, 256, 1024, 2048, 4096},
		Field:      "density",
		Axis:       "z",
		Width:      1.0,
		ResultsDir: "results",
		PlotsDir:   "plots",
		Format:     "eps",
	}
}

// Parse overlays the YAML input on the receiver, keys not present keep
// their current values. A Problems list replaces the current one whole, its
// entries do not inherit from the problems they displace.
func (sp *SweepParameters) Parse(data []byte) (err error) {
	problems := sp.Problems
	sp.Problems = nil
	if err = yaml.Unmarshal(data, sp); err != nil {
		sp.Problems = problems
		return
	}
	if sp.Problems == nil {
		sp.Problems = problems
	}
	return sp.Validate()
}

func (sp *SweepParameters) Validate() (err error) {
	if len(sp.Problems) == 0 || len(sp.Velocities) == 0 || len(sp.NCells) == 0 {
		return fmt.Errorf("sweep needs at least one problem, velocity and cell count")
	}
	seen := make(map[int]bool)
	for _, pp := range sp.Problems {
		if seen[pp.Problem] {
			return fmt.Errorf("problem %d listed twice", pp.Problem)
		}
		seen[pp.Problem] = true
		if pp.Interval <= 0 {
			return fmt.Errorf("problem %d: output interval must be positive, have %g", pp.Problem, pp.Interval)
		}
		if len(pp.Times) == 0 {
			return fmt.Errorf("problem %d: no times to plot", pp.Problem)
		}
		for _, t := range pp.Times {
			if t < 0 {
				return fmt.Errorf("problem %d: negative time %g", pp.Problem, t)
			}
		}
	}
	if len(sp.Field) == 0 {
		return fmt.Errorf("sweep needs a field to plot")
	}
	if _, err = types.NewAxis(sp.Axis); err != nil {
		return
	}
	if sp.Level < 0 {
		return fmt.Errorf("level %d must not be negative", sp.Level)
	}
	return utils.CheckImageFormat("plot." + sp.Format)
}

func (sp *SweepParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	for _, pp := range sp.Problems {
		fmt.Printf("Problem[%d] = Times %v, Interval %g\n", pp.Problem, pp.Times, pp.Interval)
	}
	fmt.Printf("%v\t= Velocities\n", sp.Velocities)
	fmt.Printf("%v\t= NCells\n", sp.NCells)
	fmt.Printf("[%s]\t\t\t= Field\n", sp.Field)
	fmt.Printf("[%s]\t\t\t= Axis\n", sp.Axis)
	fmt.Printf("%8.5f\t\t= Width\n", sp.Width)
	fmt.Printf("[%d]\t\t\t\t= Level\n", sp.Level)
	fmt.Printf("[%s]\t\t= ResultsDir\n", sp.ResultsDir)
	fmt.Printf("[%s]\t\t\t= PlotsDir\n", sp.PlotsDir)
	fmt.Printf("[%s]\t\t\t= Format\n", sp.Format)
}

// Parameters of an error norm study, obtained from the YAML input file
type CompareParameters struct {
	Title     string `yaml:"Title"`
	Reference string `yaml:"Reference"`
	Template  string `yaml:"Template"` // {index} is replaced by the candidate index
	First     int    `yaml:"First"`
	Last      int    `yaml:"Last"`
	Field     string `yaml:"Field"`
	Level     int    `yaml:"Level"`
	CSVFile   string `yaml:"CSVFile"`
	KeepGoing bool   `yaml:"KeepGoing"`
	// Per-field reference overrides, keyed by field name
	References map[string]string `yaml:"References"`
}

// DefaultCompareParameters is the gravity boundary condition study
func DefaultCompareParameters() *CompareParameters {
	return &CompareParameters{
		Title:     "Boundary condition comparison",
		Reference: "results/true/plt00000",
		Template:  "results/{index}/plt00000",
		First:     0,
		Last:      20,
		Field:     "phiGrav",
	}
}

func (cp *CompareParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, cp); err != nil {
		return
	}
	return cp.Validate()
}

func (cp *CompareParameters) Validate() error {
	switch {
	case len(cp.Reference) == 0:
		return fmt.Errorf("comparison needs a reference plotfile")
	case len(cp.Template) == 0:
		return fmt.Errorf("comparison needs a candidate path template")
	case cp.Last < cp.First:
		return fmt.Errorf("empty index range %d..%d", cp.First, cp.Last)
	case len(cp.Field) == 0:
		return fmt.Errorf("comparison needs a field")
	case cp.Level < 0:
		return fmt.Errorf("level %d must not be negative", cp.Level)
	}
	return nil
}

// ReferenceFor returns the reference plotfile for field
func (cp *CompareParameters) ReferenceFor(field string) string {
	if ref, ok := cp.References[field]; ok {
		return ref
	}
	return cp.Reference
}

func (cp *CompareParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%s]\t= Reference\n", cp.Reference)
	fmt.Printf("[%s]\t= Template\n", cp.Template)
	fmt.Printf("[%d..%d]\t\t\t= Indices\n", cp.First, cp.Last)
	fmt.Printf("[%s]\t\t\t= Field\n", cp.Field)
	fmt.Printf("[%d]\t\t\t\t= Level\n", cp.Level)
	keys := make([]string, len(cp.References))
	i := 0
	for k := range cp.References {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("References[%s] = %v\n", key, cp.References[key])
	}
}
