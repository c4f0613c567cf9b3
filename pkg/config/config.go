package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/andrew-torda/seqcons/pkg/consensus"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns a commented configuration file with the defaults.
func SampleConfig() string { return sampleConfig }

// Aligner says how to run the external aligner.
type Aligner struct {
	Binary         string   `toml:"binary"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"` // 0 means no limit
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json
}

// Report switches the optional outputs on and off.
type Report struct {
	Plot  bool `toml:"plot"`  // coverage png per species
	Table bool `toml:"table"` // summary table on the terminal
}

// Config is everything a run needs apart from the input file.
type Config struct {
	MinAgreement      float64 `toml:"min_agreement"`
	MinRepresentation float64 `toml:"min_representation"`
	Workers           int     `toml:"workers"`
	OutputDir         string  `toml:"output_dir"`
	IncludeUnknown    bool    `toml:"include_unknown"`
	Aligner           Aligner `toml:"aligner"`
	Logging           Logging `toml:"logging"`
	Report            Report  `toml:"report"`
}

// Default returns the settings used when there is no config file.
func Default() Config {
	return Config{
		MinAgreement:      consensus.DefaultMinAgreement,
		MinRepresentation: consensus.DefaultMinRepresentation,
		Workers:           0,
		OutputDir:         ".",
		Aligner: Aligner{
			Binary:         "mafft",
			Args:           []string{"--auto", "--quiet"},
			TimeoutSeconds: 600,
		},
		Logging: Logging{Level: "info", Format: "console"},
		Report:  Report{Plot: true, Table: true},
	}
}

// Load reads a TOML file over the defaults. An empty path gives the
// defaults. Keys which are not known are an error, since a misspelt
// threshold would otherwise be silently ignored.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("parse config %s: %s", path, strict.String())
			}
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Aligner.Binary = strings.TrimSpace(c.Aligner.Binary)
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

// Validate checks the settings are usable.
func (c *Config) Validate() error {
	if c.MinAgreement < 0 || c.MinAgreement > 1 {
		return errors.New("min_agreement must be between 0 and 1")
	}
	if c.MinRepresentation < 0 || c.MinRepresentation > 1 {
		return errors.New("min_representation must be between 0 and 1")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.Aligner.Binary == "" {
		return errors.New("aligner.binary must be set")
	}
	if c.Aligner.TimeoutSeconds < 0 {
		return errors.New("aligner.timeout_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// ConsensusOptions returns the thresholds for the consensus builder.
func (c *Config) ConsensusOptions() *consensus.Options {
	return &consensus.Options{
		MinAgreement:      c.MinAgreement,
		MinRepresentation: c.MinRepresentation,
	}
}

// AlignTimeout is the time limit for one aligner run, or 0 for none.
func (c *Config) AlignTimeout() time.Duration {
	return time.Duration(c.Aligner.TimeoutSeconds) * time.Second
}

// NWorkers is the number of species aligned at once.
func (c *Config) NWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
