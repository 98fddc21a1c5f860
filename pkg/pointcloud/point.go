// Package pointcloud holds the small, dependency-free data types shared by
// the octree builder and its input readers: a colored 3D point and the
// cubic bounding box machinery octant partitioning depends on.
package pointcloud

import (
	"encoding/binary"
	"io"
	"math"
)

// EncodedPointSize is the on-disk size in bytes of a single Point record:
// three little-endian float32 position components followed by three uint8
// color channels.
const EncodedPointSize = 15

// Vector3 is a position or direction in 3D space.
type Vector3 struct {
	X, Y, Z float32
}

// Add returns the component-wise sum of v and other.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Point is a single colored sample in the cloud.
type Point struct {
	Position Vector3
	R, G, B  uint8
}

type wireRecord struct {
	X, Y, Z float32
	R, G, B uint8
}

// WriteTo appends the point's 15-byte little-endian record to w.
func (p Point) WriteTo(w io.Writer) (int64, error) {
	rec := wireRecord{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z, R: p.R, G: p.G, B: p.B}
	if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
		return 0, err
	}
	return EncodedPointSize, nil
}

// ReadPoint decodes one 15-byte record from r. It returns io.EOF (unwrapped,
// so callers can test with errors.Is) when r is exhausted before any byte of
// a new record has been read.
func ReadPoint(r io.Reader) (Point, error) {
	var rec wireRecord
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return Point{}, err
	}
	return Point{Position: Vector3{X: rec.X, Y: rec.Y, Z: rec.Z}, R: rec.R, G: rec.G, B: rec.B}, nil
}

// NewBoundingBox returns an empty bounding box: a degenerate box whose
// bounds will be set by the first call to Update.
func NewBoundingBox() BoundingBox {
	inf := float32(math.Inf(1))
	return BoundingBox{
		Min: Vector3{X: inf, Y: inf, Z: inf},
		Max: Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

// BoundingBox is an axis-aligned box tracked by its min and max corners.
type BoundingBox struct {
	Min, Max Vector3
}

// Update grows the box, if needed, to contain v.
func (b *BoundingBox) Update(v Vector3) {
	b.Min.X = min32(b.Min.X, v.X)
	b.Min.Y = min32(b.Min.Y, v.Y)
	b.Min.Z = min32(b.Min.Z, v.Z)
	b.Max.X = max32(b.Max.X, v.X)
	b.Max.Y = max32(b.Max.Y, v.Y)
	b.Max.Z = max32(b.Max.Z, v.Z)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Vector3 {
	return Vector3{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Cubic returns a variant of b with all three axes expanded to the longest
// extent, centered on b's original center. Octant partitioning assumes a
// cube, so every node bbox in the tree must pass through this first.
func (b BoundingBox) Cubic() BoundingBox {
	c := b.Center()
	edge := b.Max.X - b.Min.X
	if e := b.Max.Y - b.Min.Y; e > edge {
		edge = e
	}
	if e := b.Max.Z - b.Min.Z; e > edge {
		edge = e
	}
	half := edge / 2
	return BoundingBox{
		Min: Vector3{X: c.X - half, Y: c.Y - half, Z: c.Z - half},
		Max: Vector3{X: c.X + half, Y: c.Y + half, Z: c.Z + half},
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
