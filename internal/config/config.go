// =============================================================================
// YPBank Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// PRECEDENCE (lowest to highest):
//   1. Built-in defaults (Default)
//   2. The YAML configuration file (default ypbank.yaml)
//   3. Environment variables, YPBANK_<KEY> with dots replaced by underscores,
//      e.g. YPBANK_LOG_LEVEL or YPBANK_VALIDATION_REQUIRE_UNIQUE_IDS
//   4. Command-line flags that were explicitly set
//
// The file is optional unless its path was given explicitly. All values are
// validated once the layers have been merged.
//
// =============================================================================

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "ypbank.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "YPBANK"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log encoding.
	// Valid values: "text", "json"
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where batch conversions and auto-named outputs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat defines the format for generated output file names.
	// Placeholders:
	//   {original}  - Input file name without extension
	//   {format}    - Output format name
	//   {ext}       - Output file extension, including the dot
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	// Default: "{original}_{timestamp}_{uuid}{ext}"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// FORMAT SETTINGS
	// =========================================================================

	// DefaultInputFormat is used when an input has no recognizable extension
	// and no format flag was given. Empty means detection must succeed.
	DefaultInputFormat string `yaml:"default_input_format"`

	// DefaultOutputFormat is used when convert is not told an output format
	// and cannot infer it from the output path.
	// Default: "text"
	DefaultOutputFormat string `yaml:"default_output_format"`

	// XLSXSheet is the worksheet name used by the xlsx format.
	// Default: "Transactions"
	XLSXSheet string `yaml:"xlsx_sheet"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once in
	// batch mode. Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// Validation configures the validate command.
	Validation ValidationConfig `yaml:"validation"`
}

// ValidationConfig holds the data-property checks of the validate command.
type ValidationConfig struct {
	// RequireUniqueIDs turns duplicate transaction ids into errors.
	RequireUniqueIDs bool `yaml:"require_unique_ids"`

	// RequireMonotonicTimestamps turns decreasing timestamps into errors.
	RequireMonotonicTimestamps bool `yaml:"require_monotonic_timestamps"`

	// EnforceCounterpartySentinel checks that deposits come from user 0,
	// withdrawals go to user 0 and transfers have two real parties.
	// Default: true
	EnforceCounterpartySentinel bool `yaml:"enforce_counterparty_sentinel"`

	// CurrencyExponent is the number of minor units per major unit, as a
	// power of ten (2 for cents).
	// Default: 2
	CurrencyExponent int `yaml:"currency_exponent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		OutputDir:           "./output",
		OutputNameFormat:    "{original}_{timestamp}_{uuid}{ext}",
		DefaultOutputFormat: "text",
		XLSXSheet:           "Transactions",
		MaxConcurrency:      4,
		Validation: ValidationConfig{
			EnforceCounterpartySentinel: true,
			CurrencyExponent:            2,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// Path is the configuration file. Empty means DefaultPath.
	Path string

	// Required makes a missing file an error. Set it when the path came
	// from the user.
	Required bool

	// Flags is the command's flag set. Only flags that were changed
	// override the file and the environment.
	Flags *pflag.FlagSet
}

// Load reads the configuration and merges all layers.
//
// RETURNS:
//   - The merged, validated configuration.
//   - An error if the file cannot be read or parsed, or a value is invalid.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path := opts.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !opts.Required:
		// No file: defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.overlay(opts.Flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decodeYAML merges a YAML document into cfg. Keys that are absent keep
// their current value; unknown keys are rejected.
func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyDefaults restores defaults for string values that were set to empty.
func applyDefaults(c *Config) {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.OutputNameFormat == "" {
		c.OutputNameFormat = d.OutputNameFormat
	}
	if c.DefaultOutputFormat == "" {
		c.DefaultOutputFormat = d.DefaultOutputFormat
	}
	if c.XLSXSheet == "" {
		c.XLSXSheet = d.XLSXSheet
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
}

// =============================================================================
// ENVIRONMENT AND FLAG OVERLAY
// =============================================================================

// binding ties a configuration key to the flag that can override it.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"log_level", "log-level"},
	{"log_format", "log-format"},
	{"output_dir", "output-dir"},
	{"output_name_format", "name-format"},
	{"default_input_format", ""},
	{"default_output_format", ""},
	{"xlsx_sheet", "xlsx-sheet"},
	{"max_concurrency", "jobs"},
	{"validation.require_unique_ids", "require-unique-ids"},
	{"validation.require_monotonic_timestamps", "require-monotonic-timestamps"},
	{"validation.enforce_counterparty_sentinel", "enforce-counterparty-sentinel"},
	{"validation.currency_exponent", "currency-exponent"},
}

// overlay applies environment variables and changed flags through viper.
func (c *Config) overlay(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for _, b := range bindings {
			if b.flag == "" {
				continue
			}
			if f := flags.Lookup(b.flag); f != nil {
				if err := v.BindPFlag(b.key, f); err != nil {
					return fmt.Errorf("failed to bind flag --%s: %w", b.flag, err)
				}
			}
		}
	}

	for _, b := range bindings {
		if !v.IsSet(b.key) {
			continue
		}
		if err := c.set(v, b.key); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) set(v *viper.Viper, key string) error {
	switch key {
	case "log_level":
		c.LogLevel = v.GetString(key)
	case "log_format":
		c.LogFormat = v.GetString(key)
	case "output_dir":
		c.OutputDir = v.GetString(key)
	case "output_name_format":
		c.OutputNameFormat = v.GetString(key)
	case "default_input_format":
		c.DefaultInputFormat = v.GetString(key)
	case "default_output_format":
		c.DefaultOutputFormat = v.GetString(key)
	case "xlsx_sheet":
		c.XLSXSheet = v.GetString(key)
	case "max_concurrency":
		c.MaxConcurrency = v.GetInt(key)
	case "validation.require_unique_ids":
		c.Validation.RequireUniqueIDs = v.GetBool(key)
	case "validation.require_monotonic_timestamps":
		c.Validation.RequireMonotonicTimestamps = v.GetBool(key)
	case "validation.enforce_counterparty_sentinel":
		c.Validation.EnforceCounterpartySentinel = v.GetBool(key)
	case "validation.currency_exponent":
		c.Validation.CurrencyExponent = v.GetInt(key)
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q is not one of text, json", c.LogFormat)
	}

	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}

	if e := c.Validation.CurrencyExponent; e < 0 || e > 18 {
		return fmt.Errorf("validation.currency_exponent must be between 0 and 18, got %d", e)
	}

	if strings.ContainsAny(c.OutputNameFormat, `/\`) {
		return fmt.Errorf("output_name_format %q must not contain path separators", c.OutputNameFormat)
	}
	return nil
}

// WriteYAML writes the configuration as YAML.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
