package octree

import (
	"context"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cargorust/point-cloud-viewer/pkg/elog"
	"github.com/cargorust/point-cloud-viewer/pkg/pointcloud"
)

// BuildArgs collects everything Build needs to run a full pipeline.
type BuildArgs struct {
	OutputDirectory string
	Workers         int
	LeafThreshold   int64
	Log             elog.View

	// NewInputStream must return a fresh PointStream over the same input
	// every time it is called: Build calls it once for the bounding-box
	// scan and once more for the root split, since streams are single-pass.
	NewInputStream func() (PointStream, error)
}

// Build runs the full two-phase pipeline described by the package: it
// scans the input for its cubic bounding box and writes meta.json, splits
// the tree in parallel down to leaves, then subsamples upward from those
// leaves back to the root.
func Build(ctx context.Context, args BuildArgs) error {
	runID := uuid.New().String()[:8]
	log := args.Log

	log.Debugf("build %s: scanning bounding box", runID)
	bbox, numPoints, err := ScanBoundingBox(args.NewInputStream, log)
	if err != nil {
		return errors.Wrap(err, "scan bounding box")
	}
	cubicBBox := bbox.Cubic()

	if err := os.MkdirAll(args.OutputDirectory, 0o755); err != nil {
		return errors.Wrapf(err, "create output directory %s", args.OutputDirectory)
	}

	if err := WriteMeta(args.OutputDirectory, NewMeta(cubicBBox)); err != nil {
		return err
	}

	log.Printf("build %s: creating octree structure", runID)

	rootStream, err := args.NewInputStream()
	if err != nil {
		return errors.Wrap(err, "open input for split")
	}

	sched := &Scheduler{Dir: args.OutputDirectory, Workers: args.Workers, LeafThreshold: args.LeafThreshold}

	progressCh := make(chan Status, 64)
	reportDone := make(chan struct{})
	go func() {
		ReportProgress(log, "Splitting:", progressCh)
		close(reportDone)
	}()

	leaves, err := sched.Run(ctx, cubicBBox, rootStream, numPoints, progressCh)
	<-reportDone
	if err != nil {
		return errors.Wrap(err, "split")
	}

	workers := args.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if err := Subsample(ctx, log, args.OutputDirectory, leaves, workers); err != nil {
		return errors.Wrap(err, "subsample")
	}

	log.Printf("build %s: done (%d leaves, %s of points read)", runID, len(leaves),
		bytefmt.ByteSize(uint64(numPoints*pointcloud.EncodedPointSize)))
	return nil
}

// ScanBoundingBox performs a full pass over a fresh input stream to
// determine the raw (non-cubic) bounding box and total point count. It
// never buffers points - Build opens a second, independent stream
// afterward for the actual split.
func ScanBoundingBox(newStream func() (PointStream, error), log elog.View) (pointcloud.BoundingBox, int64, error) {
	stream, err := newStream()
	if err != nil {
		return pointcloud.BoundingBox{}, 0, err
	}

	sizeHint, known := stream.SizeHint()

	var progress elog.Progress
	if known {
		progress = log.NewProgress("Determining bounding box", "%", sizeHint)
		defer progress.Finish(true)
	}

	bbox := pointcloud.NewBoundingBox()
	var n int64
	for {
		p, ok, err := stream.Next()
		if err != nil {
			return pointcloud.BoundingBox{}, 0, err
		}
		if !ok {
			break
		}
		bbox.Update(p.Position)
		n++
		if progress != nil && n%UpdateCount == 0 {
			progress.Increment(UpdateCount)
		}
	}

	return bbox, n, nil
}
