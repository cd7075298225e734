// Package config loads tokengate configuration from file, environment,
// and defaults, and validates check descriptors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/everstacklabs/tokengate/internal/content"
	"github.com/everstacklabs/tokengate/internal/tokenizer"
)

// Config holds all configuration for tokengate.
type Config struct {
	Model       string          `mapstructure:"model"`
	Root        string          `mapstructure:"root"`
	MaxFileSize int64           `mapstructure:"max_file_size"`
	LogLevel    string          `mapstructure:"log_level"`
	Pricing     PricingConfig   `mapstructure:"pricing"`
	Anthropic   AnthropicConfig `mapstructure:"anthropic"`
	Checks      []CheckConfig   `mapstructure:"checks"`
}

// PricingConfig controls the optional remote pricing feed.
type PricingConfig struct {
	FeedURL string `mapstructure:"feed_url"`
}

// AnthropicConfig holds settings for the remote count-tokens path.
type AnthropicConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// CheckConfig is one check descriptor as authored in the config file.
// Path accepts a string or a list; Limit accepts a number, a string, or a
// {tokens, cost} object.
type CheckConfig struct {
	Name          string  `mapstructure:"name"`
	Path          any     `mapstructure:"path"`
	Model         string  `mapstructure:"model"`
	Limit         any     `mapstructure:"limit"`
	WarnThreshold float64 `mapstructure:"warn_threshold"`
	ShowCost      bool    `mapstructure:"show_cost"`
}

// Paths normalizes the path field into a pattern list.
func (c CheckConfig) Paths() ([]string, error) {
	switch v := c.Path.(type) {
	case nil:
		return nil, fmt.Errorf("path is required")
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("path is empty")
		}
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("path list is empty")
		}
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("path list is empty")
		}
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("path entry %d is not a non-empty string", i)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("path must be a string or a list of strings")
	}
}

// DisplayName returns the check's name, falling back to its patterns.
func (c CheckConfig) DisplayName(idx int) string {
	if c.Name != "" {
		return c.Name
	}
	if paths, err := c.Paths(); err == nil {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("check #%d", idx+1)
}

// Load reads configuration from file, environment, and defaults. Viper
// discovers tokengate.{yaml,json,toml} when no explicit file is given; a
// missing config file is not an error (ad-hoc CLI mode).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model", tokenizer.DefaultModel)
	v.SetDefault("root", ".")
	v.SetDefault("max_file_size", int64(content.DefaultMaxFileSize))
	v.SetDefault("log_level", "info")
	v.SetDefault("anthropic.requests_per_minute", 40)
	v.SetDefault("anthropic.request_timeout", "10s")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tokengate")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tokengate")
	}

	v.SetEnvPrefix("TOKENGATE")
	v.AutomaticEnv()

	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("anthropic.base_url", "TOKENGATE_ANTHROPIC_BASE_URL")
	_ = v.BindEnv("pricing.feed_url", "TOKENGATE_PRICING_FEED_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
