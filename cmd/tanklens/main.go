package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tanklens/tanklens/internal/calibration"
	"github.com/tanklens/tanklens/internal/config"
	"github.com/tanklens/tanklens/internal/detection"
	"github.com/tanklens/tanklens/internal/imaging"
	"github.com/tanklens/tanklens/internal/pipeline"
	"github.com/tanklens/tanklens/internal/server"
)

var logLevel = "info"

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return nil
}

// buildRegistry wires the detectors from the service configuration.
func buildRegistry(cfg *config.Config) *detection.Registry {
	houghCfg := detection.DefaultHoughConfig()
	houghCfg.AngleToleranceDeg = cfg.HoughAngleToleranceDeg
	houghCfg.MinVoteFrac = cfg.HoughMinVoteFrac

	edgeCfg := detection.DefaultEdgeConfig()
	edgeCfg.BandTop = cfg.EdgeBandTop
	edgeCfg.BandBottom = cfg.EdgeBandBottom

	return detection.NewRegistry(
		detection.NewHoughDetector(houghCfg),
		detection.NewClusterDetector(detection.DefaultClusterConfig()),
		detection.NewEdgeDetector(edgeCfg),
	)
}

func buildOrchestrator(cfg *config.Config, store calibration.Store, sink pipeline.Sink) *pipeline.Orchestrator {
	preOpts := imaging.DefaultOptions()
	preOpts.MaxDimension = cfg.MaxImageDimension

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.Timeout = cfg.RequestTimeout
	pipeCfg.DefaultMethod = detection.Method(cfg.DefaultMethod)
	pipeCfg.Ensemble.OutlierFrac = cfg.OutlierFrac

	return pipeline.New(
		imaging.NewPreprocessor(preOpts),
		buildRegistry(cfg),
		store,
		sink,
		pipeline.RealClock(),
		pipeCfg,
		logrus.StandardLogger(),
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the detection HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store := calibration.NewMemoryStore()
			history := pipeline.NewMemorySink(cfg.HistorySize)
			orch := buildOrchestrator(cfg, store, history)

			srv := server.New(orch, store, history, logrus.StandardLogger())
			logrus.Infof("listening on %s", cfg.ListenAddr)
			return srv.Router().Run(cfg.ListenAddr)
		},
	}
}

func newDetectCmd() *cobra.Command {
	var (
		method          string
		calibrationFile string
		noPreprocess    bool
	)

	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Detect the liquid level in a single image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.DefaultMethod = method

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			store := calibration.NewMemoryStore()
			calibrationID := ""
			if calibrationFile != "" {
				raw, err := os.ReadFile(calibrationFile)
				if err != nil {
					return fmt.Errorf("failed to read calibration: %w", err)
				}
				cal, err := calibration.Import(raw)
				if err != nil {
					return err
				}
				if err := store.Put(cal); err != nil {
					return err
				}
				calibrationID = cal.ID
			}

			orch := buildOrchestrator(cfg, store, nil)
			result, err := orch.Run(cmd.Context(), pipeline.Request{
				Image:         data,
				Method:        detection.Method(method),
				CalibrationID: calibrationID,
				Preprocess:    !noPreprocess,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "ensemble", "detection method: hough, clustering, edge, ensemble")
	cmd.Flags().StringVarP(&calibrationFile, "calibration", "c", "", "calibration JSON file (as produced by export)")
	cmd.Flags().BoolVar(&noPreprocess, "no-preprocess", false, "skip denoise and contrast normalization")

	return cmd
}

func main() {
	root := &cobra.Command{
		Use:   "tanklens",
		Short: "Liquid level detection from tank photographs",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newDetectCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
