package boltview

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the file form of engine and view settings.
//
//	home_dir: views
//	data_provider: Data::fetch
//	max_depth: 32
//	compress: true
//	validate_freq: 30s
//	storage:
//	  driver: filesystem
//	  dsn: /var/cache/views
//	  compress: true
type Config struct {
	HomeDir      string `yaml:"home_dir,omitempty" json:"home_dir,omitempty"`
	DataProvider string `yaml:"data_provider,omitempty" json:"data_provider,omitempty"`
	// MaxDepth is nil when the default depth applies.
	MaxDepth *int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
	Compress bool `yaml:"compress,omitempty" json:"compress,omitempty"`
	// ValidateFreq is a Go duration ("30s", "5m") or a whole number of
	// seconds. -1 never checks and -2 always compiles.
	ValidateFreq string        `yaml:"validate_freq,omitempty" json:"validate_freq,omitempty"`
	Storage      StorageConfig `yaml:"storage,omitempty" json:"storage,omitempty"`
}

// StorageConfig selects the artifact store of a View.
type StorageConfig struct {
	// Driver is a registered storage driver name. Empty means memory.
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	// Compress enables brotli documents for the filesystem driver.
	Compress bool `yaml:"compress,omitempty" json:"compress,omitempty"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigRead, path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigParse, path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML config data. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if _, err := cfg.Freq(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Freq returns the parsed validation frequency.
func (c *Config) Freq() (time.Duration, error) {
	raw := strings.TrimSpace(c.ValidateFreq)
	if raw == "" {
		return FreqCheckAlways, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		switch {
		case seconds == -1:
			return FreqNeverCheck, nil
		case seconds == -2:
			return FreqAlwaysCompile, nil
		case seconds >= 0:
			return time.Duration(seconds) * time.Second, nil
		}
		return 0, NewConfigError(ErrMsgConfigInvalidFreq, raw, nil)
	}
	freq, err := time.ParseDuration(raw)
	if err != nil {
		return 0, NewConfigError(ErrMsgConfigInvalidFreq, raw, err)
	}
	if freq < 0 {
		return 0, NewConfigError(ErrMsgConfigInvalidFreq, raw, nil)
	}
	return freq, nil
}

// Options converts the engine settings into functional options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.HomeDir != "" {
		opts = append(opts, WithHomeDir(c.HomeDir))
	}
	if c.DataProvider != "" {
		opts = append(opts, WithDataProvider(c.DataProvider))
	}
	if c.MaxDepth != nil {
		opts = append(opts, WithMaxDepth(*c.MaxDepth))
	}
	return opts
}

// NewFromConfig creates an engine from cfg. Options given here are applied
// after the config and take precedence.
func NewFromConfig(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	return New(append(cfg.Options(), opts...)...)
}

// NewViewFromConfig opens the configured store and wraps engine in a View.
func NewViewFromConfig(engine *Engine, cfg *Config, opts ...ViewOption) (*View, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	freq, err := cfg.Freq()
	if err != nil {
		return nil, err
	}

	driver := cfg.Storage.Driver
	if driver == "" {
		driver = StorageDriverNameMemory
	}
	dsn := cfg.Storage.DSN
	if driver == StorageDriverNameFilesystem && cfg.Storage.Compress {
		dsn = withCompressQuery(dsn)
	}
	store, err := OpenStore(driver, dsn)
	if err != nil {
		return nil, NewConfigError(ErrMsgConfigStorage, driver, err)
	}
	engine.Logger().Info(LogMsgStoreOpened, zap.String(LogFieldDriver, driver))

	viewOpts := []ViewOption{WithValidateFreq(freq), WithCompress(cfg.Compress)}
	return NewView(engine, store, append(viewOpts, opts...)...), nil
}

func withCompressQuery(dsn string) string {
	root, query, _ := strings.Cut(dsn, "?")
	values, err := url.ParseQuery(query)
	if err != nil {
		return dsn
	}
	values.Set(FilesystemDSNCompress, "true")
	return root + "?" + values.Encode()
}
