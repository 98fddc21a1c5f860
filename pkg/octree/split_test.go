package octree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

func cubeBBox() pointcloud.BoundingBox {
	return pointcloud.BoundingBox{
		Min: pointcloud.Vector3{X: -10, Y: -10, Z: -10},
		Max: pointcloud.Vector3{X: 10, Y: 10, Z: 10},
	}
}

func TestSplitSinglePoint(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()
	pts := []pointcloud.Point{{Position: pointcloud.Vector3{X: 1, Y: 2, Z: 3}, R: 10, G: 20, B: 30}}

	children, err := Split(dir, RootName, bbox, newSliceStream(pts), nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.EqualValues(t, 1, children[0].NumPoints)

	wantIdx := ChildIndex(bbox, pts[0].Position)
	assert.Equal(t, ChildNodeName(RootName, wantIdx), children[0].Name)

	fi, err := os.Stat(filepath.Join(dir, children[0].Name))
	require.NoError(t, err)
	assert.EqualValues(t, pointcloud.EncodedPointSize, fi.Size())
}

func TestSplitEmptyOctantElimination(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()

	// every point lands in octant 7 (all positive octant).
	var pts []pointcloud.Point
	for i := 0; i < 1000; i++ {
		pts = append(pts, pointcloud.Point{Position: pointcloud.Vector3{X: 5, Y: 5, Z: 5}})
	}

	children, err := Split(dir, RootName, bbox, newSliceStream(pts), nil)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.EqualValues(t, 1000, children[0].NumPoints)

	for i := uint8(0); i < 8; i++ {
		name := ChildNodeName(RootName, i)
		if name == children[0].Name {
			continue
		}
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), "octant %s should never have been created", name)
	}
}

func TestSplitTwoOctants(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()

	var pts []pointcloud.Point
	for i := 0; i < 500; i++ {
		pts = append(pts, pointcloud.Point{Position: pointcloud.Vector3{X: -5, Y: -5, Z: -5}})
	}
	for i := 0; i < 500; i++ {
		pts = append(pts, pointcloud.Point{Position: pointcloud.Vector3{X: 5, Y: 5, Z: 5}})
	}

	children, err := Split(dir, RootName, bbox, newSliceStream(pts), nil)
	require.NoError(t, err)
	require.Len(t, children, 2)

	negIdx := ChildIndex(bbox, pointcloud.Vector3{X: -5, Y: -5, Z: -5})
	posIdx := ChildIndex(bbox, pointcloud.Vector3{X: 5, Y: 5, Z: 5})
	names := map[string]int64{}
	var total int64
	for _, c := range children {
		total += c.NumPoints
		names[c.Name] = c.NumPoints
		assert.Equal(t, ChildBoundingBox(bbox, ChildIndex(bbox, c.BoundingBox.Center())), c.BoundingBox)
	}
	assert.EqualValues(t, 500, names[ChildNodeName(RootName, negIdx)])
	assert.EqualValues(t, 500, names[ChildNodeName(RootName, posIdx)])
	assert.EqualValues(t, 1000, total)
}

func TestSplitConservesPointCount(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()

	var pts []pointcloud.Point
	positions := []pointcloud.Vector3{
		{X: -5, Y: -5, Z: -5}, {X: -5, Y: -5, Z: 5}, {X: -5, Y: 5, Z: -5}, {X: -5, Y: 5, Z: 5},
		{X: 5, Y: -5, Z: -5}, {X: 5, Y: -5, Z: 5}, {X: 5, Y: 5, Z: -5}, {X: 5, Y: 5, Z: 5},
	}
	for _, pos := range positions {
		for i := 0; i < 37; i++ {
			pts = append(pts, pointcloud.Point{Position: pos})
		}
	}

	children, err := Split(dir, RootName, bbox, newSliceStream(pts), nil)
	require.NoError(t, err)
	require.Len(t, children, 8)

	var total int64
	for _, c := range children {
		total += c.NumPoints
	}
	assert.EqualValues(t, len(pts), total)
}

func TestSplitRemovesParentFileAfterConsumingIt(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()

	parentPath := filepath.Join(dir, "r3")
	require.NoError(t, os.WriteFile(parentPath, []byte{}, 0o644))

	pts := []pointcloud.Point{{Position: pointcloud.Vector3{X: 1, Y: 1, Z: 1}}}
	_, err := Split(dir, "r3", bbox, newSliceStream(pts), nil)
	require.NoError(t, err)

	_, err = os.Stat(parentPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSplitToleratesMissingRootFile(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()
	pts := []pointcloud.Point{{Position: pointcloud.Vector3{X: 1, Y: 1, Z: 1}}}

	// the root's own file never exists on disk; Split must not fail.
	_, err := Split(dir, RootName, bbox, newSliceStream(pts), nil)
	require.NoError(t, err)
}

func TestSplitReportsProgress(t *testing.T) {
	dir := t.TempDir()
	bbox := cubeBBox()

	var pts []pointcloud.Point
	for i := 0; i < 5; i++ {
		pts = append(pts, pointcloud.Point{Position: pointcloud.Vector3{X: 1, Y: 1, Z: 1}})
	}

	ch := make(chan Status, 16)
	go func() {
		_, err := Split(dir, RootName, bbox, newSliceStream(pts), ch)
		require.NoError(t, err)
		close(ch)
	}()

	var last Status
	for s := range ch {
		last = s
		assert.Equal(t, RootName, s.Name)
	}
	assert.Equal(t, last.Total, last.Current)
	assert.EqualValues(t, 5, last.Total)
}
