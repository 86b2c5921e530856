package config

import (
	"os"
	"runtime"
	"strconv"

	"godla/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Search Search
	Prior  Prior
	Paths  Paths
	Sinks  Sinks
}

// Search holds the per-spectrum search and model-selection settings.
type Search struct {
	// Rest-frame search window (Angstrom). MinLam also bounds the fit mask.
	MinLam float64
	MaxLam float64

	// Chi-square improvement required to accept one more absorber.
	DeltaChi2Min float64

	// Absorber model settings.
	MaxAbsorbers int
	NumLines     int

	// Coarse-to-fine handoff: refine from the best RefinePoints coarse
	// seeds separated by at least MinSeedSeparation in redshift.
	RefinePoints      int
	MinSeedSeparation float64

	// Worker pool size across targets.
	Workers int
}

// Prior holds the absorber parameter prior settings. The loaded sample set
// must agree with these exactly.
type Prior struct {
	NumSamples       int
	Alpha            float64
	UniformMinLogNHI float64
	UniformMaxLogNHI float64
	FitMinLogNHI     float64
	FitMaxLogNHI     float64
}

// Paths holds input file locations.
type Paths struct {
	SpectraFile string
	CatalogFile string
	ModelFile   string
	SamplesFile string
}

// Sinks holds optional output destinations.
type Sinks struct {
	DatabaseURL string
	ExcelFile   string
	APIAddr     string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Search: Search{
			MinLam:            getEnvFloatOrDefault("DLA_SEARCH_MINLAM", 900.0),
			MaxLam:            getEnvFloatOrDefault("DLA_SEARCH_MAXLAM", 1346.0),
			DeltaChi2Min:      getEnvFloatOrDefault("DLA_DELTA_CHI2_MIN", 25.0),
			MaxAbsorbers:      getEnvIntOrDefault("DLA_MAX_ABSORBERS", 3),
			NumLines:          getEnvIntOrDefault("DLA_NUM_LINES", 3),
			RefinePoints:      getEnvIntOrDefault("DLA_REFINE_POINTS", 3),
			MinSeedSeparation: getEnvFloatOrDefault("DLA_MIN_SEED_SEPARATION", 0.05),
			Workers:           getEnvIntOrDefault("DLA_WORKERS", runtime.NumCPU()),
		},
		Prior: Prior{
			NumSamples:       getEnvIntOrDefault("DLA_NUM_SAMPLES", 10000),
			Alpha:            getEnvFloatOrDefault("DLA_ALPHA", 0.9),
			UniformMinLogNHI: getEnvFloatOrDefault("DLA_UNIFORM_MIN_LOG_NHI", 20.0),
			UniformMaxLogNHI: getEnvFloatOrDefault("DLA_UNIFORM_MAX_LOG_NHI", 23.0),
			FitMinLogNHI:     getEnvFloatOrDefault("DLA_FIT_MIN_LOG_NHI", 20.0),
			FitMaxLogNHI:     getEnvFloatOrDefault("DLA_FIT_MAX_LOG_NHI", 22.0),
		},
		Paths: Paths{
			SpectraFile: os.Getenv("DLA_SPECTRA_FILE"),
			CatalogFile: os.Getenv("DLA_CATALOG_FILE"),
			ModelFile:   os.Getenv("DLA_MODEL_FILE"),
			SamplesFile: os.Getenv("DLA_SAMPLES_FILE"),
		},
		Sinks: Sinks{
			DatabaseURL: os.Getenv("DLA_DATABASE_URL"),
			ExcelFile:   os.Getenv("DLA_EXCEL_FILE"),
			APIAddr:     getEnvOrDefault("DLA_API_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks internal consistency of the loaded configuration.
func (c *Config) Validate() error {
	if c.Search.MinLam <= 0 || c.Search.MaxLam <= c.Search.MinLam {
		return errors.ConfigInvalid("search window bounds must satisfy 0 < min < max")
	}
	if c.Search.DeltaChi2Min <= 0 {
		return errors.ConfigInvalid("DLA_DELTA_CHI2_MIN must be positive")
	}
	if c.Search.MaxAbsorbers < 1 || c.Search.MaxAbsorbers > 3 {
		return errors.ConfigInvalid("DLA_MAX_ABSORBERS must be 1..3")
	}
	if c.Search.NumLines < 0 {
		return errors.ConfigInvalid("DLA_NUM_LINES must be non-negative")
	}
	if c.Search.Workers < 1 {
		return errors.ConfigInvalid("DLA_WORKERS must be at least 1")
	}
	if c.Prior.Alpha < 0 || c.Prior.Alpha > 1 {
		return errors.ConfigInvalid("DLA_ALPHA must be in [0,1]")
	}
	if c.Prior.UniformMinLogNHI >= c.Prior.UniformMaxLogNHI {
		return errors.ConfigInvalid("uniform logNHI prior bounds must satisfy min < max")
	}
	if c.Prior.FitMinLogNHI >= c.Prior.FitMaxLogNHI {
		return errors.ConfigInvalid("fit logNHI range must satisfy min < max")
	}
	if c.Prior.NumSamples < 1 {
		return errors.ConfigInvalid("DLA_NUM_SAMPLES must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
