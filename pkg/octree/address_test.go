package octree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

func TestParentNodeNameSentinel(t *testing.T) {
	assert.Equal(t, "", ParentNodeName("r"))
	assert.Equal(t, "r3", ParentNodeName("r37"))
	assert.Equal(t, "r", ParentNodeName("r3"))
	assert.Equal(t, "", ParentNodeName(""))
}

func TestAddressingRoundTrip(t *testing.T) {
	for _, n := range []string{"r", "r3", "r37", "r0123"} {
		for i := uint8(0); i < 8; i++ {
			child := ChildNodeName(n, i)
			assert.Equal(t, n, ParentNodeName(child))
		}
	}
}

func TestChildBoundingBoxTilesParent(t *testing.T) {
	parent := pointcloud.BoundingBox{
		Min: pointcloud.Vector3{X: -1, Y: -1, Z: -1},
		Max: pointcloud.Vector3{X: 1, Y: 1, Z: 1},
	}

	for i := uint8(0); i < 8; i++ {
		child := ChildBoundingBox(parent, i)

		// child bbox is half the parent's edge on every axis
		assert.InDelta(t, float32(1), child.Max.X-child.Min.X, 1e-6)
		assert.InDelta(t, float32(1), child.Max.Y-child.Min.Y, 1e-6)
		assert.InDelta(t, float32(1), child.Max.Z-child.Min.Z, 1e-6)

		// a point placed at the child's own center must hash back to i
		got := ChildIndex(parent, child.Center())
		assert.Equal(t, i, got)
	}
}

func TestChildIndexEncoding(t *testing.T) {
	bbox := pointcloud.BoundingBox{
		Min: pointcloud.Vector3{X: 0, Y: 0, Z: 0},
		Max: pointcloud.Vector3{X: 2, Y: 2, Z: 2},
	}
	// center is (1,1,1). point below center on every axis -> index 0.
	assert.Equal(t, uint8(0), ChildIndex(bbox, pointcloud.Vector3{X: 0.5, Y: 0.5, Z: 0.5}))
	// point above center on every axis -> index 0b111 == 7.
	assert.Equal(t, uint8(7), ChildIndex(bbox, pointcloud.Vector3{X: 1.5, Y: 1.5, Z: 1.5}))
	// above on X only -> bit 2 -> index 4.
	assert.Equal(t, uint8(4), ChildIndex(bbox, pointcloud.Vector3{X: 1.5, Y: 0.5, Z: 0.5}))
}
