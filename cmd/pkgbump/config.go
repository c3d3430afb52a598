package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/pkgbump/internal/domain-adapters/gateways"
	"github.com/ochairo/pkgbump/internal/external-adapters/logging"
	"github.com/spf13/viper"
)

// Configuration keys, shared by flags and PKGBUMP_* environment variables
const (
	KeyDefinition      = "definition"
	KeyDebug           = "debug"
	KeyLogFormat       = "log-format"
	KeyHTTPTimeout     = "http-timeout"
	KeyArtifactTimeout = "artifact-timeout"
	KeyRetryDelay      = "retry-delay"
	KeyRetries         = "retries"
	KeyGitHubAPI       = "github-api"
)

const (
	envPrefix         = "PKGBUMP"
	defaultDefinition = "pkgbump.yml"
)

// Config holds the settings shared by every subcommand
type Config struct {
	DefinitionPath  string
	Debug           bool
	LogFormat       logging.Format
	HTTPTimeout     time.Duration
	ArtifactTimeout time.Duration
	RetryDelay      time.Duration
	Retries         int
	GitHubAPI       string
}

// newViper creates a configuration instance with defaults and environment
// bindings. Precedence is defaults < environment < flags.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Plain DEBUG is honored as well, as CI runners set it for step debugging
	//nolint:errcheck // BindEnv only fails without a key
	v.BindEnv(KeyDebug, envPrefix+"_DEBUG", "DEBUG")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDefinition, defaultDefinition)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFormat, string(logging.FormatText))
	v.SetDefault(KeyHTTPTimeout, gateways.DefaultMetadataTimeout)
	v.SetDefault(KeyArtifactTimeout, gateways.DefaultArtifactTimeout)
	v.SetDefault(KeyRetryDelay, gateways.DefaultRetryDelay)
	v.SetDefault(KeyRetries, gateways.DefaultAttempts)
	v.SetDefault(KeyGitHubAPI, gateways.GitHubAPIURL)
}

// loadConfig reads and checks the effective configuration
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DefinitionPath:  v.GetString(KeyDefinition),
		Debug:           v.GetBool(KeyDebug),
		LogFormat:       logging.Format(strings.ToLower(v.GetString(KeyLogFormat))),
		HTTPTimeout:     v.GetDuration(KeyHTTPTimeout),
		ArtifactTimeout: v.GetDuration(KeyArtifactTimeout),
		RetryDelay:      v.GetDuration(KeyRetryDelay),
		Retries:         v.GetInt(KeyRetries),
		GitHubAPI:       v.GetString(KeyGitHubAPI),
	}

	switch cfg.LogFormat {
	case logging.FormatText, logging.FormatJSON, logging.FormatActions:
	default:
		return nil, fmt.Errorf("invalid --%s %q (want text, json or actions)", KeyLogFormat, cfg.LogFormat)
	}
	if cfg.DefinitionPath == "" {
		return nil, fmt.Errorf("--%s must not be empty", KeyDefinition)
	}
	if cfg.HTTPTimeout <= 0 || cfg.ArtifactTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("--%s must not be negative", KeyRetryDelay)
	}
	if cfg.Retries < 1 {
		return nil, fmt.Errorf("--%s must be at least 1", KeyRetries)
	}

	return cfg, nil
}
