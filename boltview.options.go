package boltview

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	homeDir      string
	dataProvider string
	maxDepth     int
	resolvers    []PathResolver
	compilers    []TagCompiler
	logger       *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxDepth: DefaultMaxDepth,
		logger:   nil,
	}
}

// WithHomeDir sets the directory manifest paths are recorded relative to.
// The directory must exist.
func WithHomeDir(dir string) Option {
	return func(c *engineConfig) {
		c.homeDir = dir
	}
}

// WithDataProvider sets the host function invoked by {@name} data tags.
// Default: "" (data tags are left untouched)
func WithDataProvider(provider string) Option {
	return func(c *engineConfig) {
		c.dataProvider = provider
	}
}

// WithMaxDepth sets the maximum {template} include depth.
// Use 0 for unlimited depth.
// Default: 64
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithPathResolver adds a hook that may rewrite {template} values before the
// include path is resolved. Hooks run in the order they were added.
func WithPathResolver(resolver PathResolver) Option {
	return func(c *engineConfig) {
		if resolver != nil {
			c.resolvers = append(c.resolvers, resolver)
		}
	}
}

// WithCompiler registers a tag compiler when the engine is created.
func WithCompiler(compiler TagCompiler) Option {
	return func(c *engineConfig) {
		c.compilers = append(c.compilers, compiler)
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
