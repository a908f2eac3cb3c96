package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variable.
type Config struct {
	// Database Configurations
	DBHost     string `mapstructure:"DB_HOST"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPort     string `mapstructure:"DB_PORT"`

	// Server Configurations
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	TLSCertFile   string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile    string `mapstructure:"TLS_KEY_FILE"`

	// Reachability Probe Configurations
	FpingPath                 string `mapstructure:"FPING_PATH"`
	FpingTimeoutMs            int    `mapstructure:"FPING_TIMEOUT_MS"`
	FpingRetryCount           int    `mapstructure:"FPING_RETRY_COUNT"`
	StatusPollIntervalSeconds int    `mapstructure:"STATUS_POLL_INTERVAL_SECONDS"`

	// Dispatch/Transport Configurations
	DispatchTimeoutSeconds  int    `mapstructure:"DISPATCH_TIMEOUT_SECONDS"`
	WSConnectTimeoutSeconds int    `mapstructure:"WS_CONNECT_TIMEOUT_SECONDS"`
	PairingTimeoutSeconds   int    `mapstructure:"PAIRING_TIMEOUT_SECONDS"`
	RemoteAppName           string `mapstructure:"REMOTE_APP_NAME"`
	WOLBroadcastIP          string `mapstructure:"WOL_BROADCAST_IP"`
	WOLPort                 int    `mapstructure:"WOL_PORT"`

	// Security/Encryption Configurations
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	EncryptionKey string `mapstructure:"TVFLEET_SECRET"`
	AdminUser     string `mapstructure:"TVFLEET_ADMIN_USER"`
	AdminHash     string `mapstructure:"TVFLEET_ADMIN_HASH"`

	// Health Monitor Configurations
	FailureWindowMinutes int `mapstructure:"FAILURE_WINDOW_MINUTES"`
	FailureThreshold     int `mapstructure:"FAILURE_THRESHOLD"`

	// Internal Queue Settings
	InternalQueueSize int `mapstructure:"INTERNAL_QUEUE_SIZE"`

	// Authentication
	SessionDurationHours int `mapstructure:"SESSION_DURATION_HOURS"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set Defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "tvfleet")
	v.SetDefault("DB_PASSWORD", "tvfleet")
	v.SetDefault("DB_NAME", "tvfleet")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("FPING_PATH", "/usr/bin/fping")
	v.SetDefault("FPING_TIMEOUT_MS", 500)
	v.SetDefault("FPING_RETRY_COUNT", 2)
	v.SetDefault("STATUS_POLL_INTERVAL_SECONDS", 15)
	v.SetDefault("DISPATCH_TIMEOUT_SECONDS", 45)
	v.SetDefault("WS_CONNECT_TIMEOUT_SECONDS", 5)
	v.SetDefault("PAIRING_TIMEOUT_SECONDS", 60)
	v.SetDefault("REMOTE_APP_NAME", "TVFleetController")
	v.SetDefault("WOL_BROADCAST_IP", "255.255.255.255")
	v.SetDefault("WOL_PORT", 9)
	v.SetDefault("JWT_SECRET", "default-insecure-secret-change-me")
	v.SetDefault("TVFLEET_SECRET", "1234567890123456789012345678901212345678901234567890123456789012")
	v.SetDefault("TVFLEET_ADMIN_USER", "admin")
	v.SetDefault("TVFLEET_ADMIN_HASH", "$2a$10$BST/uOdLLXUyqO4fN.b9cuwVwoXEJWWFzpc4iirHiu3GcgbuJqtdu")
	v.SetDefault("FAILURE_WINDOW_MINUTES", 10)
	v.SetDefault("FAILURE_THRESHOLD", 5)
	v.SetDefault("INTERNAL_QUEUE_SIZE", 100)
	v.SetDefault("SESSION_DURATION_HOURS", 24)

	// 2. Read app.yaml if exists
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 3. Read .env if exists (overriding app.yaml)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Ignore if .env is missing
		}
	}

	// 4. Allow Viper to read Environment Variables (highest priority)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
