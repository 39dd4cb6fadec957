// Package config loads service configuration from the environment. A .env
// file in the working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the service. All detection parameters the
// algorithms leave open (outlier distance, vote floors, search bands) surface
// here instead of being hard-coded.
type Config struct {
	ListenAddr string
	LogLevel   string

	// DefaultMethod is used when a request carries no method selector.
	DefaultMethod string

	// RequestTimeout bounds total processing of one detection request.
	RequestTimeout time.Duration

	// MaxImageDimension bounds the longest side of the working image.
	MaxImageDimension int

	// OutlierFrac is the ensemble outlier threshold as a fraction of frame
	// height.
	OutlierFrac float64

	// HoughAngleToleranceDeg restricts the Hough search to lines within this
	// many degrees of horizontal.
	HoughAngleToleranceDeg int

	// HoughMinVoteFrac is the Hough vote floor as a fraction of frame width.
	HoughMinVoteFrac float64

	// EdgeBandTop and EdgeBandBottom bound the edge detector's vertical search
	// band as fractions of frame height.
	EdgeBandTop    float64
	EdgeBandBottom float64

	// HistorySize is the number of recent results retained in memory.
	HistorySize int
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:             getString("TANKLENS_LISTEN_ADDR", ":8080"),
		LogLevel:               getString("TANKLENS_LOG_LEVEL", "info"),
		DefaultMethod:          getString("TANKLENS_DEFAULT_METHOD", "ensemble"),
		RequestTimeout:         10 * time.Second,
		MaxImageDimension:      1024,
		OutlierFrac:            0.3,
		HoughAngleToleranceDeg: 15,
		HoughMinVoteFrac:       0.3,
		EdgeBandTop:            0.05,
		EdgeBandBottom:         0.95,
		HistorySize:            100,
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("TANKLENS_REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxImageDimension, err = getInt("TANKLENS_MAX_IMAGE_DIMENSION", cfg.MaxImageDimension); err != nil {
		return nil, err
	}
	if cfg.OutlierFrac, err = getFloat("TANKLENS_OUTLIER_FRAC", cfg.OutlierFrac); err != nil {
		return nil, err
	}
	if cfg.HoughAngleToleranceDeg, err = getInt("TANKLENS_HOUGH_ANGLE_TOLERANCE", cfg.HoughAngleToleranceDeg); err != nil {
		return nil, err
	}
	if cfg.HoughMinVoteFrac, err = getFloat("TANKLENS_HOUGH_MIN_VOTE_FRAC", cfg.HoughMinVoteFrac); err != nil {
		return nil, err
	}
	if cfg.EdgeBandTop, err = getFloat("TANKLENS_EDGE_BAND_TOP", cfg.EdgeBandTop); err != nil {
		return nil, err
	}
	if cfg.EdgeBandBottom, err = getFloat("TANKLENS_EDGE_BAND_BOTTOM", cfg.EdgeBandBottom); err != nil {
		return nil, err
	}
	if cfg.HistorySize, err = getInt("TANKLENS_HISTORY_SIZE", cfg.HistorySize); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
