package yarara

import "github.com/garagon/yarara/internal/source"

// analyzeConfig holds the resolved configuration for an analysis.
type analyzeConfig struct {
	securityEnabled  bool
	structureEnabled bool
	maxArgs          int
	maxNestingDepth  int
	maxFileSize      int64
	ignorePatterns   []string
}

// Option configures an analysis operation.
type Option func(*analyzeConfig)

func applyOpts(opts []Option) *analyzeConfig {
	cfg := &analyzeConfig{
		securityEnabled:  true,
		structureEnabled: true,
		maxArgs:          6,
		maxNestingDepth:  8,
		maxFileSize:      source.DefaultMaxFileSize,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithoutSecurity disables the security analyzer.
func WithoutSecurity() Option {
	return func(c *analyzeConfig) {
		c.securityEnabled = false
	}
}

// WithoutStructure disables the structure analyzer.
func WithoutStructure() Option {
	return func(c *analyzeConfig) {
		c.structureEnabled = false
	}
}

// WithMaxArgs sets the argument count threshold for the structure analyzer.
func WithMaxArgs(n int) Option {
	return func(c *analyzeConfig) {
		c.maxArgs = n
	}
}

// WithMaxNestingDepth sets the nesting depth threshold for the structure
// analyzer.
func WithMaxNestingDepth(n int) Option {
	return func(c *analyzeConfig) {
		c.maxNestingDepth = n
	}
}

// WithMaxFileSize caps the size of files loaded by AnalyzePath.
func WithMaxFileSize(n int64) Option {
	return func(c *analyzeConfig) {
		c.maxFileSize = n
	}
}

// WithIgnorePatterns sets glob patterns skipped during directory discovery.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *analyzeConfig) {
		c.ignorePatterns = patterns
	}
}
