package readfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Completed plotfiles are named plt<step>. Partially written ones carry a
// .temp suffix and superseded ones .old, neither of which match.
var plotfileRE = regexp.MustCompile(`^plt(\d+)$`)

// GetPlotfiles lists the plotfile directories in dir in step order.
func GetPlotfiles(dir string) (paths []string, err error) {
	var (
		entries []os.DirEntry
		steps   = make(map[string]int)
	)
	if entries, err = os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("unable to list plotfiles in %s: %w", dir, err)
	}
	for _, e := range entries {
		m := plotfileRE.FindStringSubmatch(e.Name())
		if m == nil || !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err = os.Stat(filepath.Join(path, "Header")); err != nil {
			err = nil
			continue
		}
		var step int
		if step, err = strconv.Atoi(m[1]); err != nil {
			return nil, err
		}
		steps[path] = step
		paths = append(paths, path)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return steps[paths[i]] < steps[paths[j]]
	})
	return
}
