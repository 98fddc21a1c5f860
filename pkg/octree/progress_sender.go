package octree

// UpdateCount is how many points a splitter batches before emitting a
// progress update, and also the cadence of the initial bounding-box scan.
const UpdateCount = 100000

// progressSender tracks one node's progress and emits Status messages on a
// shared channel as points are processed.
type progressSender struct {
	name    string
	ch      chan<- Status
	total   int64
	current int64
}

// newProgressSender sends the initial zero-progress status immediately, the
// same way the splitter's Rust ancestor did on construction.
func newProgressSender(name string, ch chan<- Status, total int64) *progressSender {
	s := &progressSender{name: name, ch: ch, total: total}
	s.send()
	return s
}

func (s *progressSender) send() {
	s.ch <- Status{Name: s.name, Current: s.current, Total: s.total}
}

// Add advances current by n points, capped at total, and sends an update.
func (s *progressSender) Add(n int64) {
	s.current += n
	if s.current > s.total {
		s.current = s.total
	}
	s.send()
}

// Finish marks the node fully processed.
func (s *progressSender) Finish() {
	s.current = s.total
	s.send()
}
