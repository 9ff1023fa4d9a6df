// Package config holds the movmedian configuration file format.
package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Value types accepted on input.
const (
	TypeInt   = "int"
	TypeFloat = "float"
	TypeText  = "text"
)

// Emit modes.
const (
	EmitEach  = "each"
	EmitFinal = "final"
)

// Config is the movmedian configuration.
type Config struct {
	// Window is the number of most recent values the median covers.
	// Zero means the whole stream.
	Window int `yaml:"window"`

	// Type selects how input values are parsed: int, float or text.
	Type string `yaml:"type"`

	// Locale is a BCP 47 tag used to collate text values.
	// Empty orders text bytewise.
	Locale string `yaml:"locale"`

	// Grouped input lines are key<TAB>value; each key gets its own median.
	Grouped bool `yaml:"grouped"`

	// Emit is "each" to print a median after every input line, or "final"
	// to print once at end of input.
	Emit string `yaml:"emit"`

	// Workers bounds the goroutines used to finalize groups. Zero means no bound.
	Workers int `yaml:"workers"`

	Approx ApproxConfig `yaml:"approx"`

	// MetricsFile, if set, receives the run's counters in the Prometheus
	// text format when input ends.
	MetricsFile string `yaml:"metrics_file"`

	Log LogConfig `yaml:"log"`
}

// ApproxConfig enables a DDSketch estimate next to the exact median.
type ApproxConfig struct {
	Enabled bool `yaml:"enabled"`

	// Accuracy is the sketch's relative accuracy, in (0, 1).
	Accuracy float64 `yaml:"accuracy"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load loads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Window: 0,
		Type:   TypeFloat,
		Emit:   EmitFinal,
		Approx: ApproxConfig{
			Accuracy: 0.01,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Window < 0 {
		errs = append(errs, errors.New("window must not be negative"))
	}

	switch c.Type {
	case TypeInt, TypeFloat, TypeText:
	default:
		errs = append(errs, fmt.Errorf("type must be %s, %s or %s, got %q", TypeInt, TypeFloat, TypeText, c.Type))
	}

	if _, err := c.LocaleTag(); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}

	switch c.Emit {
	case EmitEach, EmitFinal:
	default:
		errs = append(errs, fmt.Errorf("emit must be %s or %s, got %q", EmitEach, EmitFinal, c.Emit))
	}

	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}

	if err := c.Approx.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("approx: %w", err))
	}
	if c.Approx.Enabled && c.Type == TypeText {
		errs = append(errs, errors.New("approx needs a numeric type"))
	}
	if c.Approx.Enabled && c.Window > 0 {
		errs = append(errs, errors.New("approx covers the whole stream and needs window 0"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the approximation configuration.
func (c *ApproxConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Accuracy <= 0 || c.Accuracy >= 1 {
		return fmt.Errorf("accuracy must be in (0, 1), got %g", c.Accuracy)
	}
	return nil
}

// LocaleTag parses Locale. An empty locale yields language.Und.
func (c *Config) LocaleTag() (language.Tag, error) {
	if c.Locale == "" {
		return language.Und, nil
	}
	return language.Parse(c.Locale)
}
