package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Overseerr (downstream request service)
	OverseerrURL    string
	OverseerrAPIKey string
	OverseerrUserID string

	// Provider credentials
	MDBListAPIKey string
	TraktClientID string
	TMDBAPIKey    string // used by the IMDb chart fetcher to resolve ids

	// Scheduling
	SyncSchedule      string // global cron expression
	Timezone          string
	FetchDelaySeconds int // pause between list fetches in a batch

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/listarr.db

	// Logging
	LogLevel string
}

// FetchDelay returns the inter-list fetch pause as a duration
func (c *Config) FetchDelay() time.Duration {
	return time.Duration(c.FetchDelaySeconds) * time.Second
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("SYNC_SCHEDULE", "0 */6 * * *")
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("FETCH_DELAY_SECONDS", 2)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "listarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		OverseerrURL:    viper.GetString("OVERSEERR_URL"),
		OverseerrAPIKey: viper.GetString("OVERSEERR_API_KEY"),
		OverseerrUserID: viper.GetString("OVERSEERR_USER_ID"),

		MDBListAPIKey: viper.GetString("MDBLIST_API_KEY"),
		TraktClientID: viper.GetString("TRAKT_CLIENT_ID"),
		TMDBAPIKey:    viper.GetString("TMDB_API_KEY"),

		SyncSchedule:      viper.GetString("SYNC_SCHEDULE"),
		Timezone:          viper.GetString("TIMEZONE"),
		FetchDelaySeconds: viper.GetInt("FETCH_DELAY_SECONDS"),

		ServerPort: viper.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "listarr.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Provider keys are optional: a missing one only disables that provider.
	// The downstream service is not.
	if config.OverseerrURL == "" {
		return nil, fmt.Errorf("OVERSEERR_URL is required")
	}
	if config.OverseerrAPIKey == "" {
		return nil, fmt.Errorf("OVERSEERR_API_KEY is required")
	}

	return config, nil
}
