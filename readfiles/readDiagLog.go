package readfiles

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Castro writes its integrated quantity logs (grid_diag.out, star_diag.out,
// species_diag.out, amr_diag.out) as fixed width text: a few "# ... git hash"
// lines, a header row whose first column is 12 characters and the rest 25,
// then one whitespace separated row per coarse timestep.
const (
	diagIntWidth = 12
	diagDatWidth = 25
)

type DiagLog struct {
	Path     string
	Preamble []string
	Columns  []string
	Rows     [][]float64
}

func ReadDiagLog(fileName string, verbose bool) (dl *DiagLog, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading diagnostic log named: %s\n", fileName)
	}
	if file, err = os.Open(fileName); err != nil {
		return nil, fmt.Errorf("unable to open diagnostic log %s: %w", fileName, err)
	}
	defer file.Close()
	dl = &DiagLog{Path: fileName}
	var (
		comments []string
		lineNum  int
		scanner  = bufio.NewScanner(file)
	)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if len(dl.Rows) != 0 {
				// A restart appends a fresh preamble and header, the header must match
				cols := splitDiagHeader(line)
				if cols[0] == dl.Columns[0] && !slices.Equal(cols, dl.Columns) {
					return nil, fmt.Errorf("%s:%d: header changes mid-file", fileName, lineNum)
				}
				continue
			}
			comments = append(comments, line)
			continue
		}
		if dl.Columns == nil {
			if len(comments) == 0 {
				return nil, fmt.Errorf("%s:%d: data before a header row", fileName, lineNum)
			}
			dl.Preamble = comments[:len(comments)-1]
			dl.Columns = splitDiagHeader(comments[len(comments)-1])
		}
		var row []float64
		if row, err = parseDiagRow(line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", fileName, lineNum, err)
		}
		if len(row) != len(dl.Columns) {
			return nil, fmt.Errorf("%s:%d: have %d values for %d columns", fileName, lineNum, len(row), len(dl.Columns))
		}
		dl.Rows = append(dl.Rows, row)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	if dl.Columns == nil {
		if len(comments) == 0 {
			return nil, fmt.Errorf("%s: no header row", fileName)
		}
		dl.Preamble = comments[:len(comments)-1]
		dl.Columns = splitDiagHeader(comments[len(comments)-1])
	}
	if verbose {
		fmt.Printf("Read %d rows of %d columns\n", len(dl.Rows), len(dl.Columns))
	}
	return
}

// splitDiagHeader cuts the header row at the fixed column widths.
func splitDiagHeader(line string) (cols []string) {
	line = strings.TrimRight(line, " \r")
	first := min(diagIntWidth, len(line))
	cols = append(cols, strings.TrimSpace(strings.TrimPrefix(line[:first], "#")))
	for start := first; start < len(line); start += diagDatWidth {
		end := min(start+diagDatWidth, len(line))
		cols = append(cols, strings.TrimSpace(line[start:end]))
	}
	return
}

func parseDiagRow(line string) (row []float64, err error) {
	for _, tok := range strings.Fields(line) {
		var f float64
		if f, err = strconv.ParseFloat(tok, 64); err != nil {
			return nil, fmt.Errorf("bad value %q", tok)
		}
		row = append(row, f)
	}
	return
}

// Column returns the named column, matched case-insensitively.
func (dl *DiagLog) Column(name string) (col []float64, err error) {
	for j, c := range dl.Columns {
		if strings.EqualFold(c, strings.TrimSpace(name)) {
			col = make([]float64, len(dl.Rows))
			for i, row := range dl.Rows {
				col[i] = row[j]
			}
			return
		}
	}
	return nil, fmt.Errorf("%w: column %q not in %s (have %s)", ErrNoSuchField, name, dl.Path,
		strings.Join(dl.Columns, ", "))
}
