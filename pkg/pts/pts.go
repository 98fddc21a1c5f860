// Package pts implements a reader for the plain-text ".pts" point-cloud
// format used by several laser-scanning toolchains: one point per line,
// whitespace-separated "x y z [intensity] r g b", with an optional leading
// line holding just the point count.
package pts

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/octree"
	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// Stream reads points out of a .pts file, one line at a time.
type Stream struct {
	file        *os.File
	scanner     *bufio.Scanner
	total       int64
	known       bool
	done        bool
	pendingLine string
}

var _ octree.PointStream = (*Stream)(nil)

// Open opens a .pts file for reading. If the first line is a bare integer,
// it is treated as a point-count header and consumed; otherwise it is
// treated as the first point record and the size hint is left unknown.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open pts file %s", path)
	}

	s := &Stream{file: f, scanner: bufio.NewScanner(f)}
	s.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if s.scanner.Scan() {
		first := strings.TrimSpace(s.scanner.Text())
		if n, err := strconv.ParseInt(first, 10, 64); err == nil && !strings.ContainsAny(first, " \t") {
			s.total = n
			s.known = true
		} else {
			// not a header line - keep it so Next returns it as the first record.
			if err := s.rewindTo(first); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	return s, nil
}

// rewindTo stores a first line that turned out to be a data record rather
// than a count header, so that Next parses it before scanning further lines.
func (s *Stream) rewindTo(pending string) error {
	s.pendingLine = pending
	return nil
}

// Next implements octree.PointStream.
func (s *Stream) Next() (pointcloud.Point, bool, error) {
	if s.done {
		return pointcloud.Point{}, false, nil
	}

	line := s.pendingLine
	s.pendingLine = ""
	if line == "" {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return pointcloud.Point{}, false, errors.Wrap(err, "read pts line")
			}
			s.done = true
			if err := s.file.Close(); err != nil {
				return pointcloud.Point{}, false, errors.Wrap(err, "close pts file")
			}
			return pointcloud.Point{}, false, nil
		}
		line = s.scanner.Text()
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return pointcloud.Point{}, false, errors.Errorf("malformed pts line: %q", line)
	}

	p := pointcloud.Point{
		Position: pointcloud.Vector3{
			X: parseFloat(fields[0]),
			Y: parseFloat(fields[1]),
			Z: parseFloat(fields[2]),
		},
	}

	switch len(fields) {
	case 6: // x y z r g b
		p.R, p.G, p.B = parseByte(fields[3]), parseByte(fields[4]), parseByte(fields[5])
	case 7: // x y z intensity r g b
		p.R, p.G, p.B = parseByte(fields[4]), parseByte(fields[5]), parseByte(fields[6])
	}

	return p, true, nil
}

// SizeHint implements octree.PointStream.
func (s *Stream) SizeHint() (int64, bool) {
	return s.total, s.known
}

func parseFloat(s string) float32 {
	f, _ := strconv.ParseFloat(s, 32)
	return float32(f)
}

func parseByte(s string) uint8 {
	n, _ := strconv.ParseUint(s, 10, 8)
	return uint8(n)
}
