package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ModelConfig describes the hosted language model and how to reach it.
type ModelConfig struct {
	ID             string `mapstructure:"id" json:"id"`
	BaseURL        string `mapstructure:"base_url" json:"base_url"`
	APIKey         string `mapstructure:"api_key" json:"-"`          // Name of the environment variable holding the API key
	FallbackAPIKey string `mapstructure:"fallback_api_key" json:"-"` // Env var of the shared credential tried once on MissingCredential
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the network timeout for one model call.
func (m ModelConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// QuotaConfig configures the usage quota calendar.
type QuotaConfig struct {
	Timezone string `mapstructure:"timezone" json:"timezone"`
}

// Location resolves the calendar used for daily resets. "Local" or an empty
// value means the server's local zone.
func (q QuotaConfig) Location() *time.Location {
	if q.Timezone == "" || strings.EqualFold(q.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		log.Printf("WARN: [Config] Unknown quota timezone '%s': %v. Falling back to local time.", q.Timezone, err)
		return time.Local
	}
	return loc
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port           string
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}
	Database struct {
		DSN string // Data Source Name (e.g., "memory" or file path for SQLite)
	}
	Model        ModelConfig `mapstructure:"model"`
	Quota        QuotaConfig `mapstructure:"quota"`
	SystemPrompt string      `mapstructure:"system_prompt" json:"system_prompt"` // Overrides the built-in therapist persona when set
}

// AppConfig is the global configuration instance.
var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("model.id", "mistralai/Mistral-7B-Instruct-v0.3")
	v.SetDefault("model.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("model.api_key", "HF_API_KEY")
	v.SetDefault("model.fallback_api_key", "HF_SHARED_API_KEY")
	v.SetDefault("model.timeout_seconds", 30)
	v.SetDefault("quota.timezone", "Local")
}

// LoadConfig loads configuration from file and environment variables into AppConfig.
func LoadConfig() {
	cfg, err := Load(viper.New(), "./config", ".", "../config")
	if err != nil {
		log.Fatalf("FATAL: [Config] %v", err)
	}
	AppConfig = *cfg
	log.Println("INFO: [Config] Configuration loading complete.")
}

// Load reads config.yaml from the first matching path, applies defaults and
// environment overrides and resolves API keys from their environment variables.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config") // Name of config file (without extension)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			return nil, fmt.Errorf("error reading configuration file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Environment variable overrides
	overrides := []struct {
		env    string
		target *string
	}{
		{"SERVER_PORT", &cfg.Server.Port},
		{"DATABASE_DSN", &cfg.Database.DSN},
		{"MODEL_ID", &cfg.Model.ID},
		{"MODEL_BASE_URL", &cfg.Model.BaseURL},
		{"QUOTA_TIMEZONE", &cfg.Quota.Timezone},
	}
	for _, o := range overrides {
		if val := os.Getenv(o.env); val != "" {
			*o.target = val
			log.Printf("INFO: [Config] '%s' overridden by environment variable.", o.env)
		}
	}

	cfg.Model.APIKey = resolveKey("model.api_key", cfg.Model.APIKey)
	cfg.Model.FallbackAPIKey = resolveKey("model.fallback_api_key", cfg.Model.FallbackAPIKey)
	return &cfg, nil
}

// resolveKey treats the configured value as the name of an environment
// variable and returns its value. An unset variable yields an empty key; the
// model client reports that as a missing credential.
func resolveKey(field, envVarName string) string {
	if envVarName == "" {
		log.Printf("WARN: [Config] No environment variable configured for '%s'.", field)
		return ""
	}
	if envValue := os.Getenv(envVarName); envValue != "" {
		log.Printf("INFO: [Config] Loaded '%s' from environment variable '%s'.", field, envVarName)
		return envValue
	}
	log.Printf("WARN: [Config] '%s' (env var '%s') is not set.", field, envVarName)
	return ""
}
