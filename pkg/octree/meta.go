package octree

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// MetaFileName is the name of the root descriptor file written alongside
// the node files in the output directory.
const MetaFileName = "meta.json"

// MetaVersion is the only meta.json schema version this package produces
// or understands.
const MetaVersion = 1

// Meta is the top-level root descriptor persisted to meta.json.
type Meta struct {
	Version int      `json:"version"`
	BBox    metaBBox `json:"bounding_box"`
}

type metaBBox struct {
	MinX float32 `json:"min_x"`
	MinY float32 `json:"min_y"`
	MinZ float32 `json:"min_z"`
	MaxX float32 `json:"max_x"`
	MaxY float32 `json:"max_y"`
	MaxZ float32 `json:"max_z"`
}

// NewMeta builds a Meta for the (already cubic) root bounding box.
func NewMeta(cubicRootBBox pointcloud.BoundingBox) Meta {
	return Meta{
		Version: MetaVersion,
		BBox: metaBBox{
			MinX: cubicRootBBox.Min.X,
			MinY: cubicRootBBox.Min.Y,
			MinZ: cubicRootBBox.Min.Z,
			MaxX: cubicRootBBox.Max.X,
			MaxY: cubicRootBBox.Max.Y,
			MaxZ: cubicRootBBox.Max.Z,
		},
	}
}

// BoundingBox converts the stored meta bounding box back into a
// pointcloud.BoundingBox.
func (m Meta) BoundingBox() pointcloud.BoundingBox {
	return pointcloud.BoundingBox{
		Min: pointcloud.Vector3{X: m.BBox.MinX, Y: m.BBox.MinY, Z: m.BBox.MinZ},
		Max: pointcloud.Vector3{X: m.BBox.MaxX, Y: m.BBox.MaxY, Z: m.BBox.MaxZ},
	}
}

// WriteMeta pretty-prints meta (indent 4, matching the format the upstream
// build_octree tool used) to <dir>/meta.json.
func WriteMeta(dir string, meta Meta) error {
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal meta.json")
	}
	path := NodePath(dir, MetaFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ReadMeta loads and parses <dir>/meta.json.
func ReadMeta(dir string) (Meta, error) {
	path := NodePath(dir, MetaFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, errors.Wrapf(err, "read %s", path)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, errors.Wrapf(err, "parse %s", path)
	}
	return meta, nil
}
