package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	vitaerrors "vita/internal/errors"
)

const (
	DefaultListenAddr     = "127.0.0.1:8700"
	DefaultProvider       = "openai"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultReasoningModel = "gpt-4o"
	DefaultUtilityModel   = "gpt-4o-mini"
	DefaultVisionModel    = "gpt-4o"
	DefaultStorePath      = "vita.db"
	DefaultTimeoutSeconds = 120
)

// ProviderConfig selects and authenticates a model backend.
type ProviderConfig struct {
	Name           string
	BaseURL        string
	APIKey         string
	ReasoningModel string
	UtilityModel   string
	VisionModel    string
	TimeoutSeconds int
	MaxRetries     int
}

// TracingConfig controls the optional OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// Config captures user-configurable settings for the server binary.
type Config struct {
	ListenAddr    string
	LogLevel      string
	LogFormat     string
	StorePath     string
	EncryptionKey string
	Provider      ProviderConfig
	Tracing       TracingConfig
}

// Load reads configuration from vita-config.yaml (cwd or $HOME) layered under
// VITA_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("vita-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.SetEnvPrefix("VITA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("store_path", DefaultStorePath)
	v.SetDefault("provider.name", DefaultProvider)
	v.SetDefault("provider.base_url", DefaultBaseURL)
	v.SetDefault("provider.reasoning_model", DefaultReasoningModel)
	v.SetDefault("provider.utility_model", DefaultUtilityModel)
	v.SetDefault("provider.vision_model", DefaultVisionModel)
	v.SetDefault("provider.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("provider.max_retries", 2)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_rate", 1.0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:    v.GetString("listen_addr"),
		LogLevel:      v.GetString("log.level"),
		LogFormat:     v.GetString("log.format"),
		StorePath:     v.GetString("store_path"),
		EncryptionKey: v.GetString("encryption_key"),
		Provider: ProviderConfig{
			Name:           v.GetString("provider.name"),
			BaseURL:        v.GetString("provider.base_url"),
			APIKey:         v.GetString("provider.api_key"),
			ReasoningModel: v.GetString("provider.reasoning_model"),
			UtilityModel:   v.GetString("provider.utility_model"),
			VisionModel:    v.GetString("provider.vision_model"),
			TimeoutSeconds: v.GetInt("provider.timeout_seconds"),
			MaxRetries:     v.GetInt("provider.max_retries"),
		},
		Tracing: TracingConfig{
			Enabled:      v.GetBool("tracing.enabled"),
			OTLPEndpoint: v.GetString("tracing.otlp_endpoint"),
			SampleRate:   v.GetFloat64("tracing.sample_rate"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise fail deep inside a turn.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return vitaerrors.NewConfigError("listen_addr must not be empty")
	}
	if c.Provider.Name == "" {
		return vitaerrors.NewConfigError("provider.name must not be empty")
	}
	if c.Provider.ReasoningModel == "" || c.Provider.UtilityModel == "" {
		return vitaerrors.NewConfigError("provider reasoning and utility models must both be set")
	}
	return nil
}
