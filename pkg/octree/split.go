package octree

import (
	"os"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// SplittedNode describes one child produced by Split: its name, the cubic
// bounding box of its octant, and how many points it holds.
type SplittedNode struct {
	Name        string
	BoundingBox pointcloud.BoundingBox
	NumPoints   int64
}

// Split drains stream, distributing every point into up to 8 child files of
// name under dir by octant, and returns a descriptor for each child that
// received at least one point. If progress is non-nil and stream's size hint
// is known, it is sent an initial status, an update every UpdateCount points
// and a final one once the stream is drained; with an unknown size hint no
// status is sent.
//
// Split deletes name's own file once the stream has been consumed from it
// (the root's stream comes from the input file rather than a node blob, so
// that file never exists - its absence is tolerated).
func Split(dir, name string, bbox pointcloud.BoundingBox, stream PointStream, progress chan<- Status) ([]SplittedNode, error) {
	var sender *progressSender
	if progress != nil {
		total, known := stream.SizeHint()
		if known {
			sender = newProgressSender(name, progress, total)
		}
	}

	var children [8]*NodeWriter
	var numSeen int64

	for {
		p, ok, err := stream.Next()
		if err != nil {
			return nil, errors.Wrapf(err, "split %s", name)
		}
		if !ok {
			break
		}

		numSeen++
		if sender != nil && numSeen%UpdateCount == 0 {
			sender.Add(UpdateCount)
		}

		i := ChildIndex(bbox, p.Position)
		if children[i] == nil {
			childName := ChildNodeName(name, i)
			w, err := NewNodeWriter(NodePath(dir, childName))
			if err != nil {
				return nil, errors.Wrapf(err, "split %s", name)
			}
			children[i] = w
		}
		if err := children[i].Write(p); err != nil {
			return nil, errors.Wrapf(err, "split %s", name)
		}
	}

	// Best-effort: free disk space early. All surviving nodes get rewritten
	// by the subsample pass anyway. The root is never on disk when this
	// runs (its points come from the input file), so tolerate not-found.
	if err := os.Remove(NodePath(dir, name)); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "remove split parent %s", name)
	}

	var out []SplittedNode
	for i, w := range children {
		if w == nil {
			continue
		}
		childName := ChildNodeName(name, uint8(i))
		numPoints := w.NumPoints()
		if err := w.Close(); err != nil {
			return nil, errors.Wrapf(err, "split %s", name)
		}
		out = append(out, SplittedNode{
			Name:        childName,
			BoundingBox: ChildBoundingBox(bbox, uint8(i)),
			NumPoints:   numPoints,
		})
	}

	if sender != nil {
		sender.Finish()
	}

	return out, nil
}
