// Package config loads .yarara.yml configuration files covering the
// hosting-service connection, AI feedback, analysis limits, and review
// posting behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GitHubConfig configures the GitHub API connection.
type GitHubConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	Token   string `yaml:"token,omitempty"`
}

// ResolveToken returns the configured token, falling back to the
// GITHUB_TOKEN environment variable.
func (c GitHubConfig) ResolveToken() string {
	if c.Token != "" {
		return c.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// AIConfig configures the LLM feedback pass.
type AIConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Model     string `yaml:"model,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// AnalysisConfig configures the analyzers and the file loader.
type AnalysisConfig struct {
	Security        bool     `yaml:"security"`
	Structure       bool     `yaml:"structure"`
	MaxArgs         int      `yaml:"max_args,omitempty"`
	MaxNestingDepth int      `yaml:"max_nesting_depth,omitempty"`
	MaxFileSize     int64    `yaml:"max_file_size,omitempty"`
	Ignore          []string `yaml:"ignore,omitempty"`
}

// ReviewConfig configures what gets posted back to the pull request.
type ReviewConfig struct {
	PostReviews    bool `yaml:"post_reviews"`
	InlineComments bool `yaml:"inline_comments"`
	SummaryComment bool `yaml:"summary_comment"`
}

// Config represents the .yarara.yml configuration file.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github,omitempty"`
	AI       AIConfig       `yaml:"ai,omitempty"`
	Analysis AnalysisConfig `yaml:"analysis,omitempty"`
	Review   ReviewConfig   `yaml:"review,omitempty"`
	Format   string         `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is present. Explicit
// file values unmarshal over these.
func Default() Config {
	return Config{
		AI: AIConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1000,
		},
		Analysis: AnalysisConfig{
			Security:        true,
			Structure:       true,
			MaxArgs:         6,
			MaxNestingDepth: 8,
			MaxFileSize:     1 << 20,
		},
		Review: ReviewConfig{
			InlineComments: true,
			SummaryComment: true,
		},
		Format: "terminal",
	}
}

// Load reads the .yarara.yml or .yarara.yaml config file from the given
// path. If path is a file, its parent directory is used. If no config file
// is found, it returns Default() (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range []string{".yarara.yml", ".yarara.yaml"} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if info.Size() > 1<<20 {
			return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		cfg := Default()
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		return cfg, nil
	}
	return Default(), nil
}
