package octree

import (
	"path/filepath"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// RootName is the name of the root node: the single character "r".
const RootName = "r"

// NodePath returns the path of a node's file inside the output directory.
// Node files have no extension; the file's base name is the node name
// itself.
func NodePath(dir, name string) string {
	return filepath.Join(dir, name)
}

// ChildNodeName returns the name of child i (0..7) of parent.
func ChildNodeName(parent string, i uint8) string {
	return parent + string(rune('0'+i))
}

// ParentNodeName returns the name of name's parent, or "" if name is the
// root (or empty). Name length equals depth+1, so the parent is simply
// name with its last character removed.
func ParentNodeName(name string) string {
	if len(name) <= 1 {
		return ""
	}
	return name[:len(name)-1]
}

// ChildIndex computes the octant of bbox that pos falls into, relative to
// bbox's center: bit 2 set if pos.X is on the high side, bit 1 for Y, bit 0
// for Z.
func ChildIndex(bbox pointcloud.BoundingBox, pos pointcloud.Vector3) uint8 {
	c := bbox.Center()
	var i uint8
	if pos.X > c.X {
		i |= 1 << 2
	}
	if pos.Y > c.Y {
		i |= 1 << 1
	}
	if pos.Z > c.Z {
		i |= 1 << 0
	}
	return i
}

// ChildBoundingBox returns the cubic bounding box of octant i of the cubic
// parent box. The 8 returned boxes, for i in [0,7], tile parent exactly.
func ChildBoundingBox(parent pointcloud.BoundingBox, i uint8) pointcloud.BoundingBox {
	c := parent.Center()

	var min, max pointcloud.Vector3
	if i&(1<<2) != 0 {
		min.X, max.X = c.X, parent.Max.X
	} else {
		min.X, max.X = parent.Min.X, c.X
	}
	if i&(1<<1) != 0 {
		min.Y, max.Y = c.Y, parent.Max.Y
	} else {
		min.Y, max.Y = parent.Min.Y, c.Y
	}
	if i&(1<<0) != 0 {
		min.Z, max.Z = c.Z, parent.Max.Z
	} else {
		min.Z, max.Z = parent.Min.Z, c.Z
	}

	return pointcloud.BoundingBox{Min: min, Max: max}
}
