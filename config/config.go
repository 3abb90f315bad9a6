package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goeda/boxplot"
	"github.com/sartorproj/goeda/store"
	"github.com/sartorproj/goeda/timeseries"
)

// Colorblind8 is the default chart palette.
var Colorblind8 = []string{
	"#0072B2", "#E69F00", "#F0E442", "#009E73",
	"#56B4E9", "#D55E00", "#CC79A7", "#000000",
}

// Database selects where runs are saved.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Config is the goeda configuration file.
type Config struct {
	Frequency    timeseries.Frequency `yaml:"frequency"`
	GroupingMode boxplot.Mode         `yaml:"grouping_mode"`

	// SigmaClip is the clip threshold in standard deviations. An explicit
	// null, "none", "off", or a value of zero or less disables clipping; an
	// absent key keeps the default.
	SigmaClip *Clip `yaml:"sigma_clip"`

	MaxLag   int      `yaml:"max_lag"`
	Period   int      `yaml:"period"`
	Database Database `yaml:"database"`
	LogLevel string   `yaml:"log_level"`

	// Palette is handed to chart renderers; nothing in the statistics
	// packages reads it.
	Palette []string `yaml:"palette"`
}

// Default returns the built-in configuration.
func Default() *Config {
	clip := Clip(boxplot.DefaultConfig().SigmaClip)
	return &Config{
		Frequency:    timeseries.Yearly,
		GroupingMode: boxplot.ModeTime,
		SigmaClip:    &clip,
		MaxLag:       40,
		Period:       12,
		Database:     Database{Driver: store.DriverSQLite, DSN: "goeda.db"},
		LogLevel:     "info",
		Palette:      append([]string(nil), Colorblind8...),
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if len(c.Palette) == 0 {
		c.Palette = append([]string(nil), Colorblind8...)
	}
	return c, nil
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides fields from GOEDA_* variables. A DSN found by
// DatabaseDSNFromEnv switches the database to PostgreSQL unless
// GOEDA_DB_DRIVER says otherwise.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("GOEDA_FREQUENCY"); v != "" {
		f, err := timeseries.ParseFrequency(v)
		if err != nil {
			return errors.Wrap(err, "GOEDA_FREQUENCY")
		}
		c.Frequency = f
	}
	if v := os.Getenv("GOEDA_GROUPING_MODE"); v != "" {
		m, err := boxplot.ParseMode(v)
		if err != nil {
			return errors.Wrap(err, "GOEDA_GROUPING_MODE")
		}
		c.GroupingMode = m
	}
	if v := os.Getenv("GOEDA_SIGMA_CLIP"); v != "" {
		k, err := ParseSigmaClip(v)
		if err != nil {
			return errors.Wrap(err, "GOEDA_SIGMA_CLIP")
		}
		clip := Clip(k)
		c.SigmaClip = &clip
	}
	if v := os.Getenv("GOEDA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if dsn, err := DatabaseDSNFromEnv(); err == nil {
		c.Database.Driver = store.DriverPostgres
		c.Database.DSN = dsn
	}
	if v := os.Getenv("GOEDA_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	return nil
}

// Clip is a sigma clip threshold as written in the configuration file. It
// accepts a number or the words accepted by ParseSigmaClip.
type Clip float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Clip) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: sigma clip must be a scalar", value.Line)
	}
	k, err := ParseSigmaClip(value.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*c = Clip(k)
	return nil
}

// ParseSigmaClip parses a clip threshold. "none" and "off" disable
// clipping and parse as zero.
func ParseSigmaClip(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Errorf("invalid sigma clip %q", s)
	}
	return v, nil
}

// DatabaseDSNFromEnv builds a PostgreSQL DSN from POSTGRES_HOST, _PORT,
// _USER, _PASSWORD and _DB, or returns DATABASE_URL when POSTGRES_DB is not
// set.
func DatabaseDSNFromEnv() (string, error) {
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	dbname := os.Getenv("POSTGRES_DB")
	if dbname == "" {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			return url, nil
		}
		return "", errors.New("POSTGRES_DB not set; set env vars or DATABASE_URL")
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, dbname), nil
}

// BoxplotConfig returns the aggregation settings. A nil SigmaClip disables
// clipping.
func (c *Config) BoxplotConfig() *boxplot.Config {
	cfg := boxplot.DefaultConfig()
	cfg.Mode = c.GroupingMode
	cfg.Frequency = c.Frequency
	cfg.SigmaClip = 0
	if c.SigmaClip != nil {
		cfg.SigmaClip = float64(*c.SigmaClip)
	}
	return cfg
}
