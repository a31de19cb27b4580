package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Buffer  BufferConfig  `mapstructure:"buffer"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port      string `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"` // sheets | postgres | csv
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	CSV      CSVConfig      `mapstructure:"csv"`
}

// SheetsConfig holds the Google Sheets backend settings. The credentials
// value is the raw service-account JSON blob, as deployed on the original
// hosting platform.
type SheetsConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	HandleTTL       int    `mapstructure:"handle_ttl"` // seconds
}

// PostgresConfig holds the Supabase/Postgres backend settings.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// CSVConfig holds the flat-file backend settings.
type CSVConfig struct {
	Directory string `mapstructure:"directory"`
}

// BufferConfig tunes the in-memory event buffer and flush scheduler.
type BufferConfig struct {
	FlushInterval  int `mapstructure:"flush_interval"`  // seconds
	FlushThreshold int `mapstructure:"flush_threshold"` // records
	MaxPending     int `mapstructure:"max_pending"`     // records
	MaxBackoff     int `mapstructure:"max_backoff"`     // seconds
}

// OpenAIConfig holds the writing-assistance settings.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // seconds
	Suggestions int     `mapstructure:"suggestions"`
	PromptsFile string  `mapstructure:"prompts_file"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory string `mapstructure:"directory"`
}

// setDefaults sets the default values for the configuration. Buffer and
// cache defaults match the original deployment (10s flush, threshold 15,
// 300s handle TTL).
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.static_dir", "public")

	// Store defaults
	v.SetDefault("store.backend", "csv")
	v.SetDefault("store.sheets.spreadsheet_id", "")
	v.SetDefault("store.sheets.handle_ttl", 300)
	v.SetDefault("store.csv.directory", "data")

	// Buffer defaults
	v.SetDefault("buffer.flush_interval", 10)
	v.SetDefault("buffer.flush_threshold", 15)
	v.SetDefault("buffer.max_pending", 5000)
	v.SetDefault("buffer.max_backoff", 300)

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", 10)
	v.SetDefault("openai.suggestions", 4)
	v.SetDefault("openai.prompts_file", "config/assist.yaml")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("SHADOWAI") // e.g., SHADOWAI_STORE_BACKEND
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment configured everything through these bare env
	// vars; keep honoring them so existing setups work unchanged.
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("store.sheets.credentials_json", "GOOGLE_SHEETS_CREDENTIALS")
	v.BindEnv("store.sheets.spreadsheet_id", "GOOGLE_SHEET_ID")
	v.BindEnv("store.postgres.dsn", "SUPABASE_DB_URL")

	// Read the initial configuration from the file. It's okay if the file
	// doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
