package config

import (
	"os"
	"strconv"
)

type Config struct {
	Dataset   DatasetConfig
	Inference InferenceConfig
	Matching  MatchingConfig
	Catalog   CatalogConfig
}

type DatasetConfig struct {
	GeometryPath   string // YAML geometry table keyed by image id
	InputsDir      string // preprocessed model input images (PNG per image)
	PredictionsDir string // cached model prediction surfaces (PNG per image)
	ImageCount     int    // number of images to process (0 = whole geometry table)
	ImageDim       int    // image side length in pixels (defaults to 256)
}

type InferenceConfig struct {
	URL   string // segmentation model server (defaults to http://localhost:8093)
	Model string // model name (defaults to deepmoon)
}

type MatchingConfig struct {
	ThreshLongLat2 float64 // squared scale-normalized positional threshold
	ThreshRad2     float64 // squared fractional radius threshold
}

type CatalogConfig struct {
	CSVPath      string // catalog CSV artifact path
	SQLitePath   string // SQLite catalog database path
	DatabaseURL  string // PostgreSQL connection URL (optional)
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Dataset: DatasetConfig{
			GeometryPath:   envStr("CRATERCAT_GEOMETRY", "data/geometry.yaml"),
			InputsDir:      envStr("CRATERCAT_INPUTS_DIR", "data/inputs"),
			PredictionsDir: envStr("CRATERCAT_PREDICTIONS_DIR", "data/predictions"),
			ImageCount:     envInt("CRATERCAT_IMAGE_COUNT", 0),
			ImageDim:       envInt("CRATERCAT_IMAGE_DIM", 256),
		},
		Inference: InferenceConfig{
			URL:   os.Getenv("INFERENCE_URL"),
			Model: os.Getenv("INFERENCE_MODEL"),
		},
		Matching: MatchingConfig{
			ThreshLongLat2: envFloat("CRATERCAT_THRESH_LONGLAT2", 1.8),
			ThreshRad2:     envFloat("CRATERCAT_THRESH_RAD2", 1.0),
		},
		Catalog: CatalogConfig{
			CSVPath:      envStr("CRATERCAT_CSV", "craters.csv"),
			SQLitePath:   envStr("CRATERCAT_SQLITE", "craters.db"),
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}
