package octree

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// DefaultLeafThreshold is the point count below which a split child is
// declared a leaf instead of being split further.
const DefaultLeafThreshold = 100000

// DefaultWorkers is the size of the fixed worker pool the scheduler
// recurses splitting tasks across.
const DefaultWorkers = 10

// Scheduler drives the recursive parallel split phase: starting from the
// root, it repeatedly calls Split and, for every child at or above
// LeafThreshold, recurses into a new scoped task drawn from the same
// Workers-sized pool. Children below the threshold are reported as leaves.
type Scheduler struct {
	Dir           string
	Workers       int
	LeafThreshold int64
}

// NewScheduler returns a Scheduler configured with the package defaults.
func NewScheduler(dir string) *Scheduler {
	return &Scheduler{Dir: dir, Workers: DefaultWorkers, LeafThreshold: DefaultLeafThreshold}
}

// Run splits rootStream (the root node, whose stream comes from the input
// file rather than a node blob) and every child task it spawns, until no
// splittable node remains. It returns the flat list of leaf node names and
// closes progressCh once every task has completed - callers should drain
// progressCh concurrently (e.g. with ReportProgress) or pass nil to
// suppress progress reporting entirely.
func (s *Scheduler) Run(ctx context.Context, rootBBox pointcloud.BoundingBox, rootStream PointStream, numRootPoints int64, progressCh chan<- Status) ([]string, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	threshold := s.LeafThreshold
	if threshold <= 0 {
		threshold = DefaultLeafThreshold
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	var leavesMu sync.Mutex
	var leaves []string

	root := SplittedNode{Name: RootName, BoundingBox: rootBBox, NumPoints: numRootPoints}

	var splitNode func(node SplittedNode, stream PointStream) error
	splitNode = func(node SplittedNode, stream PointStream) error {
		children, err := Split(s.Dir, node.Name, node.BoundingBox, stream, progressCh)
		if err != nil {
			return err
		}

		for _, child := range children {
			child := child
			if child.NumPoints < threshold {
				leavesMu.Lock()
				leaves = append(leaves, child.Name)
				leavesMu.Unlock()
				continue
			}

			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return errors.Wrap(err, "scheduler")
				}
				defer sem.Release(1)
				childStream, err := FromBlob(NodePath(s.Dir, child.Name))
				if err != nil {
					return err
				}
				return splitNode(child, childStream)
			})
		}
		return nil
	}

	g.Go(func() error {
		if err := sem.Acquire(gctx, 1); err != nil {
			return errors.Wrap(err, "scheduler")
		}
		defer sem.Release(1)
		return splitNode(root, rootStream)
	})

	err := g.Wait()
	if progressCh != nil {
		close(progressCh)
	}
	if err != nil {
		return nil, err
	}

	return leaves, nil
}
