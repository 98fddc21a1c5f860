package octree

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// PointStream is a finite, single-pass, lazy sequence of points. A fresh
// construction is required to read the same source again. SizeHint reports
// a best-effort point count when the source makes one cheaply available.
type PointStream interface {
	// Next returns the next point. ok is false once the stream is
	// exhausted, at which point err is nil.
	Next() (p pointcloud.Point, ok bool, err error)

	// SizeHint returns a best-effort total point count and whether it is
	// known.
	SizeHint() (total int64, known bool)
}

type blobStream struct {
	file *os.File
	r    *bufio.Reader
	size int64
}

// FromBlob opens a node file and returns a PointStream over its contents.
// The size hint is derived from the file size divided by the wire record
// size.
func FromBlob(path string) (PointStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open node file %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat node file %s", path)
	}
	return &blobStream{
		file: f,
		r:    bufio.NewReader(f),
		size: fi.Size() / pointcloud.EncodedPointSize,
	}, nil
}

func (s *blobStream) Next() (pointcloud.Point, bool, error) {
	p, err := pointcloud.ReadPoint(s.r)
	if err != nil {
		closeErr := s.file.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if closeErr != nil {
				return pointcloud.Point{}, false, errors.Wrapf(closeErr, "close node file %s", s.file.Name())
			}
			return pointcloud.Point{}, false, nil
		}
		return pointcloud.Point{}, false, errors.Wrapf(err, "read point from %s", s.file.Name())
	}
	return p, true, nil
}

func (s *blobStream) SizeHint() (int64, bool) {
	return s.size, true
}
