// Package ply implements a minimal reader for the Stanford PLY point-cloud
// format, exposing the stream as an octree.PointStream. Only a single
// "vertex" element with float position and uchar color properties is
// supported - exactly what the octree builder needs, and what every PLY
// point cloud in the wild actually contains.
package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/octree"
	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

type format int

const (
	formatASCII format = iota
	formatBinaryLittleEndian
)

// property describes one "property <type> <name>" header line, in the
// order they appear, so the reader can decode records field by field.
type property struct {
	name string
	size int // bytes, for binary records; unused for ascii
}

// Stream reads points out of a PLY file, one element at a time.
type Stream struct {
	file       *os.File
	r          *bufio.Reader
	format     format
	numVertex  int64
	properties []property
	read       int64

	// indices into properties for the fields we care about; -1 if absent.
	xi, yi, zi, ri, gi, bi int
}

var _ octree.PointStream = (*Stream)(nil)

// Open parses a PLY header and returns a Stream positioned at the first
// vertex record.
func Open(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ply file %s", path)
	}

	s := &Stream{file: f, r: bufio.NewReader(f), xi: -1, yi: -1, zi: -1, ri: -1, gi: -1, bi: -1}
	if err := s.parseHeader(); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "parse ply header of %s", path)
	}
	return s, nil
}

func (s *Stream) parseHeader() error {
	line, err := s.readLine()
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != "ply" {
		return errors.New("missing ply magic line")
	}

	inVertexElement := false
	for {
		line, err := s.readLine()
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment":
			continue
		case "format":
			switch fields[1] {
			case "ascii":
				s.format = formatASCII
			case "binary_little_endian":
				s.format = formatBinaryLittleEndian
			default:
				return errors.Errorf("unsupported ply format %q", fields[1])
			}
		case "element":
			if fields[1] == "vertex" {
				inVertexElement = true
				n, err := strconv.ParseInt(fields[2], 10, 64)
				if err != nil {
					return errors.Wrap(err, "parse vertex count")
				}
				s.numVertex = n
			} else {
				// Any other element (e.g. "face") ends the part of the
				// header we understand; point clouds don't carry faces.
				inVertexElement = false
			}
		case "property":
			if !inVertexElement {
				continue
			}
			typeName, propName := fields[1], fields[2]
			size, err := propertySize(typeName)
			if err != nil {
				return err
			}
			idx := len(s.properties)
			s.properties = append(s.properties, property{name: propName, size: size})
			switch propName {
			case "x":
				s.xi = idx
			case "y":
				s.yi = idx
			case "z":
				s.zi = idx
			case "red", "r", "diffuse_red":
				s.ri = idx
			case "green", "g", "diffuse_green":
				s.gi = idx
			case "blue", "b", "diffuse_blue":
				s.bi = idx
			}
		case "end_header":
			if s.xi < 0 || s.yi < 0 || s.zi < 0 {
				return errors.New("vertex element is missing x/y/z properties")
			}
			return nil
		}
	}
}

func propertySize(typeName string) (int, error) {
	switch typeName {
	case "char", "uchar", "int8", "uint8":
		return 1, nil
	case "short", "ushort", "int16", "uint16":
		return 2, nil
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64", "int64", "uint64":
		return 8, nil
	default:
		return 0, errors.Errorf("unsupported ply property type %q", typeName)
	}
}

func (s *Stream) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read ply header line")
	}
	return line, nil
}

// Next implements octree.PointStream.
func (s *Stream) Next() (pointcloud.Point, bool, error) {
	if s.read >= s.numVertex {
		if err := s.file.Close(); err != nil {
			return pointcloud.Point{}, false, errors.Wrap(err, "close ply file")
		}
		return pointcloud.Point{}, false, nil
	}

	var p pointcloud.Point
	var err error
	switch s.format {
	case formatBinaryLittleEndian:
		p, err = s.readBinaryRecord()
	default:
		p, err = s.readASCIIRecord()
	}
	if err != nil {
		return pointcloud.Point{}, false, errors.Wrap(err, "read ply vertex")
	}

	s.read++
	return p, true, nil
}

func (s *Stream) readBinaryRecord() (pointcloud.Point, error) {
	var p pointcloud.Point
	for i, prop := range s.properties {
		buf := make([]byte, prop.size)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			return p, err
		}

		switch i {
		case s.xi:
			p.Position.X = float32FromBytes(buf)
		case s.yi:
			p.Position.Y = float32FromBytes(buf)
		case s.zi:
			p.Position.Z = float32FromBytes(buf)
		case s.ri:
			p.R = buf[0]
		case s.gi:
			p.G = buf[0]
		case s.bi:
			p.B = buf[0]
		}
	}
	return p, nil
}

func float32FromBytes(buf []byte) float32 {
	if len(buf) != 4 {
		return 0
	}
	bits := binary.LittleEndian.Uint32(buf)
	return math.Float32frombits(bits)
}

func (s *Stream) readASCIIRecord() (pointcloud.Point, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && line == "" {
		return pointcloud.Point{}, err
	}
	fields := strings.Fields(line)
	if len(fields) < len(s.properties) {
		return pointcloud.Point{}, fmt.Errorf("short vertex record: got %d fields, want %d", len(fields), len(s.properties))
	}

	var p pointcloud.Point
	for i := range s.properties {
		switch i {
		case s.xi:
			p.Position.X = parseFloat(fields[i])
		case s.yi:
			p.Position.Y = parseFloat(fields[i])
		case s.zi:
			p.Position.Z = parseFloat(fields[i])
		case s.ri:
			p.R = parseByte(fields[i])
		case s.gi:
			p.G = parseByte(fields[i])
		case s.bi:
			p.B = parseByte(fields[i])
		}
	}
	return p, nil
}

func parseFloat(s string) float32 {
	f, _ := strconv.ParseFloat(s, 32)
	return float32(f)
}

func parseByte(s string) uint8 {
	n, _ := strconv.ParseUint(s, 10, 8)
	return uint8(n)
}

// SizeHint implements octree.PointStream: the vertex count is always known
// from the PLY header.
func (s *Stream) SizeHint() (int64, bool) {
	return s.numVertex, true
}
