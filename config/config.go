// Package config assembles the service configuration once at startup from
// an optional .env file, an optional config.yaml and the process environment.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

// Config represents the complete service configuration
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig contains the upload endpoint settings
type HTTPConfig struct {
	Address           string `mapstructure:"address"`
	BodyLimit         int    `mapstructure:"body_limit"`
	LegacyErrorStatus bool   `mapstructure:"legacy_error_status"`
}

// OpenAIConfig describes the hosted transcription and chat capabilities.
// APIKey is not validated; a missing key surfaces as an upstream error on
// the first call.
type OpenAIConfig struct {
	Provider              string        `mapstructure:"provider"`
	Endpoint              string        `mapstructure:"endpoint"`
	APIKey                string        `mapstructure:"api_key"`
	APIVersion            string        `mapstructure:"api_version"`
	TranscriptionModel    string        `mapstructure:"transcription_model"`
	TranscriptionLanguage string        `mapstructure:"transcription_language"`
	TranscriptionFormat   string        `mapstructure:"transcription_format"`
	ChatModel             string        `mapstructure:"chat_model"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
}

// BreakerConfig configures the per-capability circuit breakers
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// AudioConfig contains upload staging settings
type AudioConfig struct {
	StagingDir string `mapstructure:"staging_dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.address", ":8000")
	v.SetDefault("http.body_limit", 25*1024*1024)
	v.SetDefault("http.legacy_error_status", false)

	v.SetDefault("openai.provider", ProviderOpenAI)
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_version", "2024-06-01")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.transcription_language", "")
	v.SetDefault("openai.transcription_format", "json")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.request_timeout", 60*time.Second)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_threshold", 5)

	v.SetDefault("audio.staging_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads .env (if present) into the environment, then resolves every
// setting from config.yaml in searchPaths (if present), APP_-prefixed
// environment variables and the conventional unprefixed names.
func Load(searchPaths ...string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"http.address":                  {"HTTP_ADDRESS"},
		"openai.provider":               {"OPENAI_PROVIDER"},
		"openai.endpoint":               {"OPENAI_ENDPOINT", "AZURE_OPENAI_ENDPOINT"},
		"openai.api_key":                {"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY"},
		"openai.api_version":            {"AZURE_OPENAI_API_VERSION"},
		"openai.transcription_model":    {"TRANSCRIPTION_MODEL"},
		"openai.transcription_language": {"TRANSCRIPTION_LANGUAGE"},
		"openai.transcription_format":   {"TRANSCRIPTION_FORMAT"},
		"openai.chat_model":             {"CHAT_MODEL"},
		"openai.request_timeout":        {"REQUEST_TIMEOUT"},
		"audio.staging_dir":             {"AUDIO_STAGING_DIR"},
		"logging.level":                 {"LOG_LEVEL"},
		"logging.format":                {"LOG_FORMAT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", key)
		}
	}

	if len(searchPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return errors.Wrap(err, "http config")
	}
	if err := c.OpenAI.Validate(); err != nil {
		return errors.Wrap(err, "openai config")
	}
	if err := c.Breaker.Validate(); err != nil {
		return errors.Wrap(err, "breaker config")
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Wrap(err, "logging config")
	}
	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Address == "" {
		return errors.New("address cannot be empty")
	}
	if h.BodyLimit <= 0 {
		return errors.Errorf("body_limit must be positive, got %d", h.BodyLimit)
	}
	return nil
}

// Validate validates the hosted model configuration
func (o *OpenAIConfig) Validate() error {
	switch o.Provider {
	case ProviderOpenAI, ProviderAzure:
	default:
		return errors.Errorf("provider must be 'openai' or 'azure', got '%s'", o.Provider)
	}

	if o.Endpoint == "" {
		return errors.New("endpoint cannot be empty")
	}
	if o.Provider == ProviderAzure && o.APIVersion == "" {
		return errors.New("api_version cannot be empty for azure")
	}
	if o.TranscriptionModel == "" {
		return errors.New("transcription_model cannot be empty")
	}
	if o.ChatModel == "" {
		return errors.New("chat_model cannot be empty")
	}

	validFormats := map[string]bool{"json": true, "verbose_json": true}
	if !validFormats[o.TranscriptionFormat] {
		return errors.Errorf("transcription_format must be 'json' or 'verbose_json', got '%s'", o.TranscriptionFormat)
	}

	if o.RequestTimeout < 0 {
		return errors.Errorf("request_timeout cannot be negative, got %s", o.RequestTimeout)
	}
	return nil
}

// Validate validates breaker configuration
func (b *BreakerConfig) Validate() error {
	if !b.Enabled {
		return nil
	}
	if b.FailureThreshold < 1 {
		return errors.Errorf("failure_threshold must be at least 1, got %d", b.FailureThreshold)
	}
	if b.Interval < 0 || b.Timeout < 0 {
		return errors.New("interval and timeout cannot be negative")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return errors.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return errors.Errorf("format must be 'json' or 'console', got '%s'", l.Format)
	}
	return nil
}
