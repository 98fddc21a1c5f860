package octree

import (
	"bufio"
	"os"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// NodeWriter owns the single file backing one node. Only one NodeWriter may
// exist for a given path at a time; the scheduler enforces that by
// construction, never by locking.
type NodeWriter struct {
	file      *os.File
	w         *bufio.Writer
	path      string
	numPoints int64
}

// NewNodeWriter creates (truncating if necessary) the file at path and
// returns a NodeWriter that buffers writes to it.
func NewNodeWriter(path string) (*NodeWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create node file %s", path)
	}
	return &NodeWriter{
		file: f,
		w:    bufio.NewWriter(f),
		path: path,
	}, nil
}

// Write appends p to the node file.
func (nw *NodeWriter) Write(p pointcloud.Point) error {
	if _, err := p.WriteTo(nw.w); err != nil {
		return errors.Wrapf(err, "write point to %s", nw.path)
	}
	nw.numPoints++
	return nil
}

// NumPoints returns the count of points written so far.
func (nw *NodeWriter) NumPoints() int64 {
	return nw.numPoints
}

// Close flushes and closes the underlying file. If no point was ever
// written, the file is removed instead of being left empty on disk;
// a missing file at that point is not an error.
func (nw *NodeWriter) Close() error {
	flushErr := nw.w.Flush()
	closeErr := nw.file.Close()

	if nw.numPoints == 0 {
		if err := os.Remove(nw.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove empty node file %s", nw.path)
		}
	}

	if flushErr != nil {
		return errors.Wrapf(flushErr, "flush node file %s", nw.path)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "close node file %s", nw.path)
	}
	return nil
}
