// Package config provides configuration loading and validation for the
// memora server. Values come from defaults, an optional config.yaml, and
// MEMORA_-prefixed environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Store backend names accepted by StoreConfig.Backend.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Config defines the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Store     StoreConfig     `mapstructure:"store"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend   string          `mapstructure:"backend" validate:"required,oneof=firestore sqlite"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
}

// FirestoreConfig configures the hosted Firestore backend.
type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SQLiteConfig configures the embedded SQLite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// GeminiConfig configures the generation client.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key" validate:"required"`
	Model       string  `mapstructure:"model"   validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"min=0,max=2"`
}

// SpeechConfig configures the MiniMax text-to-speech client. Synthesis is
// best-effort: a missing or invalid key makes every synthesis attempt fail,
// which the chat flow absorbs.
type SpeechConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
	VoiceID string `mapstructure:"voice_id"`
	Format  string `mapstructure:"format"`
}

// SchedulerConfig configures scheduled maintenance.
type SchedulerConfig struct {
	MaintenanceEnabled  bool   `mapstructure:"maintenance_enabled"`
	MaintenanceSchedule string `mapstructure:"maintenance_schedule"`
}

// Load reads configuration from the YAML file at path (optional; a missing
// file is not an error), applies MEMORA_* environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MEMORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Backend-conditional requirements that struct tags can't express across
	// nested structs.
	switch cfg.Store.Backend {
	case BackendFirestore:
		if cfg.Store.Firestore.ProjectID == "" {
			return nil, fmt.Errorf("store.firestore.project_id is required when store.backend is firestore")
		}
	case BackendSQLite:
		if cfg.Store.SQLite.Path == "" {
			return nil, fmt.Errorf("store.sqlite.path is required when store.backend is sqlite")
		}
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.credentials_file", "")
	v.SetDefault("store.sqlite.path", "storage.db")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.temperature", 1.0)

	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.base_url", "https://api.minimax.chat/v1/text_to_speech")
	v.SetDefault("speech.model", "speech-01")
	v.SetDefault("speech.voice_id", "moss_audio_733d9781-d687-11f0-b1f5-d622d05211d6")
	v.SetDefault("speech.format", "mp3")

	v.SetDefault("scheduler.maintenance_enabled", true)
	v.SetDefault("scheduler.maintenance_schedule", "0 4 * * *")
}
