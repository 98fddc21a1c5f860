package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cargorust/point-cloud-viewer/pkg/elog"
	"github.com/cargorust/point-cloud-viewer/pkg/octree"
	"github.com/cargorust/point-cloud-viewer/pkg/ply"
	"github.com/cargorust/point-cloud-viewer/pkg/pts"
)

var log elog.View

var (
	flagVerbose       bool
	flagDebug         bool
	flagJSON          bool
	flagOutputDir     string
	flagWorkers       int
	flagLeafThreshold int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "build_octree <input.ply|input.pts>",
	Short: "Build an out-of-core octree from a point cloud",
	Long: `build_octree reads a point cloud in PLY or PTS format and writes an
out-of-core octree to the output directory: one binary node file per
octree node plus a meta.json describing the root bounding box.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := &elog.CLI{}

		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logrus.SetFormatter(logger)
		}
		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose {
			logger.IsVerbose = true
		}

		log = logger
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]

		outputDir, err := homedir.Expand(viper.GetString("output-directory"))
		if err != nil {
			return fmt.Errorf("expand output directory: %w", err)
		}
		if outputDir == "" {
			return fmt.Errorf("--output-directory is required")
		}

		newStream, err := inputStreamOpener(inputPath)
		if err != nil {
			return err
		}

		args2 := octree.BuildArgs{
			OutputDirectory: outputDir,
			Workers:         viper.GetInt("workers"),
			LeafThreshold:   viper.GetInt64("leaf-threshold"),
			Log:             log,
			NewInputStream:  newStream,
		}

		if err := octree.Build(context.Background(), args2); err != nil {
			return fmt.Errorf("build octree: %w", err)
		}
		return nil
	},
}

// inputStreamOpener picks the point-cloud reader for inputPath by its file
// extension and returns a PointStream factory suitable for
// octree.BuildArgs.NewInputStream, which must reopen the file from scratch
// on every call.
func inputStreamOpener(inputPath string) (func() (octree.PointStream, error), error) {
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".ply":
		return func() (octree.PointStream, error) { return ply.Open(inputPath) }, nil
	case ".pts":
		return func() (octree.PointStream, error) { return pts.Open(inputPath) }, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q: expected .ply or .pts", filepath.Ext(inputPath))
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagOutputDir, "output-directory", "o", "", "directory to write the octree into (required)")
	f.IntVar(&flagWorkers, "workers", octree.DefaultWorkers, "maximum number of concurrent split/subsample workers")
	f.Int64Var(&flagLeafThreshold, "leaf-threshold", octree.DefaultLeafThreshold, "maximum points per leaf node before splitting")

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "enable json output")

	viper.SetDefault("workers", octree.DefaultWorkers)
	viper.SetDefault("leaf-threshold", octree.DefaultLeafThreshold)

	_ = viper.BindPFlag("output-directory", f.Lookup("output-directory"))
	_ = viper.BindPFlag("workers", f.Lookup("workers"))
	_ = viper.BindPFlag("leaf-threshold", f.Lookup("leaf-threshold"))

	viper.SetEnvPrefix("octree")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
