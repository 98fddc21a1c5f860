package octree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargorust/point-cloud-viewer/pkg/elog"
	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

func writeNode(t *testing.T, dir, name string, n int) {
	t.Helper()
	nw, err := NewNodeWriter(NodePath(dir, name))
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, nw.Write(pointcloud.Point{Position: pointcloud.Vector3{X: float32(i)}}))
	}
	require.NoError(t, nw.Close())
}

func countPoints(t *testing.T, path string) int {
	t.Helper()
	pts, err := readAllPoints(path)
	require.NoError(t, err)
	return len(pts)
}

func TestSubsampleTwoChildren(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "r0", 500)
	writeNode(t, dir, "r7", 500)

	log := &elog.CLI{DisableTTY: true}
	require.NoError(t, Subsample(context.Background(), log, dir, []string{"r0", "r7"}, 4))

	// indices 0, 8, ..., 496 of each child move up: ceil(500/8) = 63 each.
	rootCount := countPoints(t, filepath.Join(dir, "r"))
	assert.Equal(t, (500+7)/8+(500+7)/8, rootCount)

	assert.Equal(t, 500-(500+7)/8, countPoints(t, filepath.Join(dir, "r0")))
	assert.Equal(t, 500-(500+7)/8, countPoints(t, filepath.Join(dir, "r7")))
}

func TestSubsampleClimbsMultipleLevels(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"r30", "r31", "r32", "r33", "r34", "r35", "r36", "r37"} {
		writeNode(t, dir, name, 1000)
	}

	log := &elog.CLI{DisableTTY: true}
	leaves := []string{"r30", "r31", "r32", "r33", "r34", "r35", "r36", "r37"}
	require.NoError(t, Subsample(context.Background(), log, dir, leaves, 4))

	for _, name := range []string{"r", "r3"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to exist after ascent", name)
	}
}

func TestSubsampleDecimationIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	nw, err := NewNodeWriter(NodePath(dir, "r0"))
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		require.NoError(t, nw.Write(pointcloud.Point{Position: pointcloud.Vector3{X: float32(i)}}))
	}
	require.NoError(t, nw.Close())

	log := &elog.CLI{DisableTTY: true}
	require.NoError(t, Subsample(context.Background(), log, dir, []string{"r0"}, 2))

	parentPts, err := readAllPoints(filepath.Join(dir, "r"))
	require.NoError(t, err)
	require.Len(t, parentPts, 2)
	assert.EqualValues(t, 0, parentPts[0].Position.X)
	assert.EqualValues(t, 8, parentPts[1].Position.X)

	childPts, err := readAllPoints(filepath.Join(dir, "r0"))
	require.NoError(t, err)
	require.Len(t, childPts, 14)
	for _, p := range childPts {
		assert.NotEqualValues(t, 0, int(p.Position.X)%8)
	}
}
