// ABOUTME: Configuration for sam: defaults, YAML file via viper, .env and env overrides.
// ABOUTME: Also provides the XDG config and data directory helpers.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "sam"

type Config struct {
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Inference     InferenceConfig     `yaml:"inference" mapstructure:"inference"`
	Reminders     RemindersConfig     `yaml:"reminders" mapstructure:"reminders"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}

// StorageConfig selects the KV backend behind the record store.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"oneof=sqlite memory couch charm"`
	Path    string `yaml:"path" mapstructure:"path"`

	CouchURL string `yaml:"couch_url" mapstructure:"couch_url" validate:"required_if=Backend couch"`
	CouchDB  string `yaml:"couch_db" mapstructure:"couch_db"`

	CharmHost      string        `yaml:"charm_host" mapstructure:"charm_host"`
	AutoSync       bool          `yaml:"auto_sync" mapstructure:"auto_sync"`
	StaleThreshold time.Duration `yaml:"stale_threshold" mapstructure:"stale_threshold"`
}

type InferenceConfig struct {
	// APIKey is usually supplied through GEMINI_API_KEY. Empty means offline mode.
	APIKey             string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Model              string        `yaml:"model" mapstructure:"model" validate:"required"`
	MaxAttempts        int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1,max=10"`
	Backoff            time.Duration `yaml:"backoff" mapstructure:"backoff" validate:"min=0"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"min=0"`
	SearchContextLimit int           `yaml:"search_context_limit" mapstructure:"search_context_limit" validate:"min=1"`
	SearchBodyPrefix   int           `yaml:"search_body_prefix" mapstructure:"search_body_prefix" validate:"min=1"`
}

type RemindersConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	Window   time.Duration `yaml:"window" mapstructure:"window" validate:"gt=0"`
}

type NotificationsConfig struct {
	HistoryCap     int           `yaml:"history_cap" mapstructure:"history_cap" validate:"min=1"`
	BannerDuration time.Duration `yaml:"banner_duration" mapstructure:"banner_duration" validate:"gt=0"`
	Sound          bool          `yaml:"sound" mapstructure:"sound"`
	Desktop        bool          `yaml:"desktop" mapstructure:"desktop"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error fatal"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:        "sqlite",
			Path:           DefaultDBPath(),
			CouchDB:        appName,
			AutoSync:       true,
			StaleThreshold: 0,
		},
		Inference: InferenceConfig{
			BaseURL:            "https://generativelanguage.googleapis.com",
			Model:              "gemini-2.5-flash",
			MaxAttempts:        3,
			Backoff:            time.Second,
			Timeout:            30 * time.Second,
			SearchContextLimit: 50,
			SearchBodyPrefix:   200,
		},
		Reminders: RemindersConfig{
			Interval: 30 * time.Second,
			Window:   time.Minute,
		},
		Notifications: NotificationsConfig{
			HistoryCap:     50,
			BannerDuration: 5 * time.Second,
			Sound:          true,
			Desktop:        true,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration. An empty path means ConfigPath(); a missing
// file is not an error. Environment variables win over the file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = ConfigPath()
	}
	if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Inference.APIKey = v
	}
	if v := os.Getenv("SAM_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SAM_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SAM_COUCH_URL"); v != "" {
		cfg.Storage.CouchURL = v
	}
	if v := os.Getenv("SAM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SAM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CHARM_HOST"); v != "" {
		cfg.Storage.CharmHost = v
	}
}

var validate = validator.New()

// Validate checks field constraints and reports every failing field.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the data directory path.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}

// DefaultDBPath returns the default sqlite database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "sam.db")
}
