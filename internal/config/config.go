package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/rewind/internal/config/loader"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "rewind.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REWIND_"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the resolved configuration.
type Config struct {
	Logging LoggingConfig
	Script  ScriptConfig
	Output  OutputConfig
	Watch   WatchConfig

	// Source is the file the configuration was read from, or "" if none.
	Source string
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level  string
	Prefix string
}

// ScriptConfig bounds Lua script execution.
type ScriptConfig struct {
	Timeout time.Duration
	// CallLimit caps doc.* calls per run. Zero means unlimited.
	CallLimit int
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Format string
	Color  bool
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Prefix: "rewind"},
		Script:  ScriptConfig{Timeout: 5 * time.Second, CallLimit: 100_000},
		Output:  OutputConfig{Format: FormatText, Color: true},
		Watch:   WatchConfig{Debounce: 200 * time.Millisecond},
	}
}

// Load resolves the configuration from defaults, the TOML file at path and
// the environment. An empty path reads DefaultFile if it exists.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvPrefix), explicit)
}

// LoadFrom resolves the configuration from the given sources.
// When required is set a missing file is an error.
func LoadFrom(file *loader.TOMLLoader, env loader.Loader, required bool) (*Config, error) {
	cfg := Default()

	data, err := file.Load()
	if err != nil {
		return nil, err
	}
	if data == nil && required {
		return nil, fmt.Errorf("config file %s: not found", file.Path())
	}
	if data != nil {
		cfg.Source = file.Path()
	}

	overrides, err := env.Load()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	data = loader.DeepMerge(data, overrides)

	if err := cfg.apply(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, &SettingError{Path: "output.format", Value: c.Output.Format, Err: ErrInvalidValue})
	}
	if c.Script.Timeout < 0 {
		errs = append(errs, &SettingError{Path: "script.timeout", Value: c.Script.Timeout, Err: ErrInvalidValue})
	}
	if c.Script.CallLimit < 0 {
		errs = append(errs, &SettingError{Path: "script.call_limit", Value: c.Script.CallLimit, Err: ErrInvalidValue})
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, &SettingError{Path: "watch.debounce", Value: c.Watch.Debounce, Err: ErrInvalidValue})
	}
	return errors.Join(errs...)
}

func (c *Config) apply(data map[string]any) error {
	d := decoder{data: data}
	d.str("logging.level", &c.Logging.Level)
	d.str("logging.prefix", &c.Logging.Prefix)
	d.duration("script.timeout", &c.Script.Timeout)
	d.integer("script.call_limit", &c.Script.CallLimit)
	d.str("output.format", &c.Output.Format)
	d.flag("output.color", &c.Output.Color)

	var noColor bool
	d.flag("output.no_color", &noColor)
	if noColor {
		c.Output.Color = false
	}

	d.duration("watch.debounce", &c.Watch.Debounce)
	return errors.Join(d.errs...)
}

// decoder copies values out of a nested map, collecting type errors.
type decoder struct {
	data map[string]any
	errs []error
}

func (d *decoder) lookup(path string) (any, bool) {
	section, key, _ := strings.Cut(path, ".")
	m, ok := d.data[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (d *decoder) fail(path string, v any) {
	d.errs = append(d.errs, &SettingError{Path: path, Value: v, Err: ErrTypeMismatch})
}

func (d *decoder) str(path string, dst *string) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}
	s, ok := v.(string)
	if !ok {
		d.fail(path, v)
		return
	}
	*dst = s
}

func (d *decoder) flag(path string, dst *bool) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}
	switch b := v.(type) {
	case bool:
		*dst = b
	case int64:
		*dst = b != 0
	default:
		d.fail(path, v)
	}
}

func (d *decoder) integer(path string, dst *int) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}
	n, ok := v.(int64)
	if !ok {
		d.fail(path, v)
		return
	}
	*dst = int(n)
}

// duration accepts a Go duration string or a number of milliseconds.
func (d *decoder) duration(path string, dst *time.Duration) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}
	switch t := v.(type) {
	case time.Duration:
		*dst = t
	case int64:
		*dst = time.Duration(t) * time.Millisecond
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			d.errs = append(d.errs, &SettingError{Path: path, Value: v, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)})
			return
		}
		*dst = parsed
	default:
		d.fail(path, v)
	}
}

