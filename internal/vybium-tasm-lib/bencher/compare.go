package bencher

import (
	"fmt"
	"strings"
)

// Change is the difference in one height between two benchmark runs
type Change struct {
	Entrypoint string
	Case       BenchmarkCase
	Metric     string
	Old, New   uint64
}

// Regression reports whether the new run is more expensive
func (c Change) Regression() bool {
	return c.New > c.Old
}

// String renders the change with its relative size
func (c Change) String() string {
	direction := "improved"
	if c.Regression() {
		direction = "regressed"
	}
	var pct float64
	if c.Old != 0 {
		pct = 100 * (float64(c.New) - float64(c.Old)) / float64(c.Old)
	}
	return fmt.Sprintf("%s/%s %s %s: %d -> %d (%+.1f%%)",
		c.Entrypoint, c.Case, c.Metric, direction, c.Old, c.New, pct)
}

// Compare lists every height that differs between old and current. Cases that
// appear on one side only are ignored.
func Compare(old, current []BenchmarkResult) []Change {
	byCase := make(map[BenchmarkCase]BenchmarkResult, len(old))
	for _, r := range old {
		byCase[r.Case] = r
	}

	var changes []Change
	for _, n := range current {
		o, ok := byCase[n.Case]
		if !ok {
			continue
		}
		om := o.metrics()
		for i, m := range n.metrics() {
			if m.value != om[i].value {
				changes = append(changes, Change{
					Entrypoint: n.Name,
					Case:       n.Case,
					Metric:     m.name,
					Old:        om[i].value,
					New:        m.value,
				})
			}
		}
	}
	return changes
}

// Report renders a list of changes, one per line
func Report(changes []Change) string {
	lines := make([]string, len(changes))
	for i, c := range changes {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}
