package octree

import (
	"context"
	"os"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cargorust/point-cloud-viewer/pkg/elog"
	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// Subsample walks the partial tree described by leaves (the flat list of
// leaf names the split phase produced) upward to the root, producing every
// interior node along the way by decimating its children 1-in-8. It
// processes one tree level at a time (level-synchronous): every node at
// depth d completes before any node at depth d-1 begins, though siblings
// within a level run concurrently, bounded by workers.
func Subsample(ctx context.Context, log elog.View, dir string, leaves []string, workers int) error {
	remaining := append([]string(nil), leaves...)

	sem := semaphore.NewWeighted(int64(workers))

	for len(remaining) > 0 {
		sort.Slice(remaining, func(i, j int) bool { return len(remaining[i]) > len(remaining[j]) })
		level := len(remaining[0])

		var same []string
		var rest []string
		for _, n := range remaining {
			if len(n) == level {
				same = append(same, n)
			} else {
				rest = append(rest, n)
			}
		}

		parents := make(map[string]struct{})
		for _, n := range same {
			p := ParentNodeName(n)
			if p == "" {
				continue
			}
			parents[p] = struct{}{}
		}

		for p := range parents {
			if ParentNodeName(p) != "" {
				rest = append(rest, p)
			}
		}
		remaining = rest

		g, gctx := errgroup.WithContext(ctx)
		for p := range parents {
			p := p
			if err := sem.Acquire(gctx, 1); err != nil {
				return errors.Wrap(err, "subsample")
			}
			g.Go(func() error {
				defer sem.Release(1)
				log.Debugf("creating %s from subsampling children", p)
				return subsampleChildrenInto(dir, p)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}

// subsampleChildrenInto builds node's file by taking every 8th point (in
// read order) from each existing child and writing the rest back to that
// child. The child's full contents are buffered in memory before its
// NodeWriter is opened for truncation - that NodeWriter aliases the same
// path the buffered read just came from, so the order matters.
func subsampleChildrenInto(dir, node string) (err error) {
	parent, err := NewNodeWriter(NodePath(dir, node))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := parent.Close(); err == nil {
			err = cerr
		}
	}()

	for i := uint8(0); i < 8; i++ {
		childName := ChildNodeName(node, i)
		childPath := NodePath(dir, childName)

		if _, statErr := os.Stat(childPath); statErr != nil {
			if os.IsNotExist(statErr) {
				continue
			}
			return errors.Wrapf(statErr, "stat child %s", childName)
		}

		points, readErr := readAllPoints(childPath)
		if readErr != nil {
			return readErr
		}

		child, werr := NewNodeWriter(childPath)
		if werr != nil {
			return werr
		}

		for idx, p := range points {
			var target *NodeWriter
			if idx%8 == 0 {
				target = parent
			} else {
				target = child
			}
			if err := target.Write(p); err != nil {
				child.Close()
				return err
			}
		}

		if err := child.Close(); err != nil {
			return err
		}
	}

	return err
}

func readAllPoints(path string) ([]pointcloud.Point, error) {
	stream, err := FromBlob(path)
	if err != nil {
		return nil, err
	}

	var points []pointcloud.Point
	for {
		p, ok, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		points = append(points, p)
	}
	return points, nil
}
