package octree

import "github.com/cargorust/point-cloud-viewer/pkg/pointcloud"

// sliceStream is an in-memory PointStream used by tests in place of a real
// node blob or input-file reader.
type sliceStream struct {
	points []pointcloud.Point
	pos    int
	sized  bool
}

func newSliceStream(points []pointcloud.Point) *sliceStream {
	return &sliceStream{points: points, sized: true}
}

// newUnsizedSliceStream behaves like newSliceStream but reports SizeHint as
// unknown, mirroring an input-file reader whose format doesn't expose a
// cheap point count up front.
func newUnsizedSliceStream(points []pointcloud.Point) *sliceStream {
	return &sliceStream{points: points}
}

func (s *sliceStream) Next() (pointcloud.Point, bool, error) {
	if s.pos >= len(s.points) {
		return pointcloud.Point{}, false, nil
	}
	p := s.points[s.pos]
	s.pos++
	return p, true, nil
}

func (s *sliceStream) SizeHint() (int64, bool) {
	if !s.sized {
		return 0, false
	}
	return int64(len(s.points)), true
}
