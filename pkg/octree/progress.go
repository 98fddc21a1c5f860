package octree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cargorust/point-cloud-viewer/pkg/elog"
)

// Status is a progress update from a single node's worker.
type Status struct {
	Name    string
	Current int64
	Total   int64
}

// Done reports whether this status represents a finished node.
func (s Status) Done() bool {
	return s.Current >= s.Total
}

// ReportProgress drains statuses, one per update, logging a single summary
// line through log for every message received. It returns once ch is
// closed. The tag prefixes every rendered line, e.g. "Splitting:".
func ReportProgress(log elog.View, tag string, ch <-chan Status) {
	progress := make(map[string]float64)

	for status := range ch {
		pct := 100.0
		if status.Total > 0 {
			pct = float64(status.Current) / float64(status.Total) * 100
		}
		progress[status.Name] = pct

		if len(progress) > 0 {
			names := make([]string, 0, len(progress))
			for name := range progress {
				names = append(names, name)
			}
			sort.Strings(names)

			parts := make([]string, 0, len(names))
			for _, name := range names {
				parts = append(parts, fmt.Sprintf("%s(%.2f%%)", name, progress[name]))
			}
			log.Printf("%s %s", tag, strings.Join(parts, ", "))
		}

		if status.Done() {
			delete(progress, status.Name)
		}
	}
}
