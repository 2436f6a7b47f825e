package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tractoproj/pkg/config"
	"tractoproj/pkg/dataset"
	"tractoproj/pkg/projection"
	"tractoproj/pkg/visualization"
)

var (
	configPath  string
	verbose     bool
	datasetPath string
	signalPath  string
	synthOut    string
	synthParams = dataset.DefaultSynthParams()

	rootCmd = &cobra.Command{
		Use:   "tractoproj",
		Short: "Forward projection of microstructure-informed tractography dictionaries",
		Long: `tractoproj predicts the diffusion-weighted signal of a tractogram by
applying the dictionary operator Y = A·x to a coefficient vector.`,
		SilenceUsage: true,
	}

	projectCmd = &cobra.Command{
		Use:   "project",
		Short: "Compute the predicted signal of a dataset",
		RunE:  runProject,
	}

	synthCmd = &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic dataset with a voxel-disjoint partition",
		RunE:  runSynth,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("Default configuration written to %s\n", args[0])
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "tractoproj.yaml", "Configuration file (defaults are used if missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	projectCmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file to project")
	projectCmd.Flags().StringVar(&signalPath, "out", "", "Write the raw predicted signal (little-endian float64) to this file")
	_ = projectCmd.MarkFlagRequired("dataset")

	synthCmd.Flags().StringVar(&synthOut, "out", "dataset.yaml", "Output dataset file")
	synthCmd.Flags().IntVar(&synthParams.Fibers, "fibers", synthParams.Fibers, "Number of fibers")
	synthCmd.Flags().IntVar(&synthParams.SegmentsPerFiber, "segments", synthParams.SegmentsPerFiber, "Segments per fiber")
	synthCmd.Flags().IntVar(&synthParams.NumSamples, "samples", synthParams.NumSamples, "Signal samples per voxel")
	synthCmd.Flags().IntVar(&synthParams.NumOrientations, "orientations", synthParams.NumOrientations, "Discretized orientations")
	synthCmd.Flags().IntVar(&synthParams.Threads, "threads", synthParams.Threads, "Workers the partition is built for")
	synthCmd.Flags().IntVar(&synthParams.Counts.IC, "ic", synthParams.Counts.IC, "IC compartments")
	synthCmd.Flags().IntVar(&synthParams.Counts.EC, "ec", synthParams.Counts.EC, "EC compartments")
	synthCmd.Flags().IntVar(&synthParams.Counts.ISO, "iso", synthParams.Counts.ISO, "ISO compartments")
	synthCmd.Flags().Float64Var(&synthParams.Density, "density", synthParams.Density, "Probability of a positive coefficient")
	synthCmd.Flags().Uint64Var(&synthParams.Seed, "seed", synthParams.Seed, "Random seed")
	synthCmd.Flags().IntSliceVar(&synthDim, "dim", synthParams.Dim[:], "Volume dimensions x,y,z")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(projectCmd, synthCmd, configCmd)
}

var synthDim []int

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(verbose || cfg.Output.Verbose)
	slog.SetDefault(logger)

	problem, err := dataset.Load(datasetPath)
	if err != nil {
		return err
	}
	engineCfg, err := engineConfig(cfg, problem)
	if err != nil {
		return err
	}
	if problem.Counts != cfg.Counts() {
		logger.Info("using the compartment counts of the dataset",
			"dataset", fmt.Sprintf("%+v", problem.Counts),
			"config", fmt.Sprintf("%+v", cfg.Counts()))
	}

	opts := []projection.Option{projection.WithLogger(logger)}
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		metrics, err := projection.NewMetrics(registry)
		if err != nil {
			return err
		}
		opts = append(opts, projection.WithMetrics(metrics))
	}

	engine, err := projection.NewEngine(engineCfg, problem.Dictionary, problem.Kernels, problem.Partition, opts...)
	if err != nil {
		return err
	}

	logger.Info("starting projection",
		"dataset", datasetPath,
		"segments", problem.Dictionary.IC.Len(),
		"threads", engineCfg.Threads,
		"checked", engineCfg.Checked)

	start := time.Now()
	res, err := engine.ProjectWithStats(problem.X)
	if err != nil {
		return fmt.Errorf("projection failed: %w", err)
	}

	nS := problem.Kernels.NumSamples
	summary := projection.Summarize(res.Signal, nS)
	logger.Info("projection complete",
		"elapsed", time.Since(start),
		"ic_active", res.Stats.IC.Active,
		"ic_skipped", res.Stats.IC.Skipped,
		"ec_active", res.Stats.EC.Active,
		"iso_active", res.Stats.ISO.Active,
		"active_voxels", summary.ActiveVoxels,
		"voxels", summary.Voxels,
		"mean", summary.Mean,
		"stddev", summary.StdDev,
		"max", summary.Max)

	out := signalPath
	if out == "" {
		out = cfg.Output.SignalFile
	}
	if out != "" {
		if err := writeSignal(out, res.Signal); err != nil {
			return err
		}
		logger.Info("signal written", "path", out, "shape", []int{nS,
			problem.Dictionary.Dim[0], problem.Dictionary.Dim[1], problem.Dictionary.Dim[2]})
	}

	if cfg.Output.SlicesDir != "" {
		viewer := visualization.NewViewer(res.Signal, nS, problem.Dictionary.Dim)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(cfg.Output.SlicesDir, axis)
			if err := viewer.SaveSliceSequence(cfg.Output.SliceSample, axis, axisDir); err != nil {
				logger.Warn("failed to save slices", "axis", axis, "error", err)
			}
		}
		logger.Info("slices written", "dir", cfg.Output.SlicesDir, "sample", cfg.Output.SliceSample)
	}

	if registry != nil {
		if err := prometheus.WriteToTextfile(cfg.Metrics.File, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Info("metrics written", "path", cfg.Metrics.File)
	}
	return nil
}

// engineConfig pairs the configuration with a dataset. The coefficient
// layout and the partition belong to the dataset, so its compartment counts
// and thread count win; the configuration bounds the thread count and picks
// checked mode.
func engineConfig(cfg *config.Config, problem *dataset.Problem) (projection.Config, error) {
	threads := max(problem.Threads, dataset.RequiredThreads(problem.Partition))
	if threads > cfg.Processing.Threads {
		return projection.Config{}, fmt.Errorf("dataset partition needs %d workers, configuration allows %d",
			threads, cfg.Processing.Threads)
	}

	engineCfg := cfg.EngineConfig()
	engineCfg.Counts = problem.Counts
	engineCfg.Threads = threads
	return engineCfg, nil
}

func runSynth(cmd *cobra.Command, args []string) error {
	logger := newLogger(verbose)
	if len(synthDim) != 3 {
		return fmt.Errorf("--dim needs three values, got %d", len(synthDim))
	}
	copy(synthParams.Dim[:], synthDim)

	problem, err := dataset.Synthesize(synthParams)
	if err != nil {
		return err
	}
	if err := dataset.Save(problem, synthOut); err != nil {
		return err
	}

	logger.Info("synthetic dataset written",
		"path", synthOut,
		"segments", problem.Dictionary.IC.Len(),
		"ec", problem.Dictionary.EC.Len(),
		"iso", problem.Dictionary.ISO.Len(),
		"coefficients", len(problem.X))
	return nil
}

// writeSignal stores the signal as raw little-endian float64 values.
func writeSignal(path string, signal []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating signal directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating signal file: %w", err)
	}
	defer file.Close()

	if err := binary.Write(file, binary.LittleEndian, signal); err != nil {
		return fmt.Errorf("error writing signal: %w", err)
	}
	return file.Close()
}
