// Package config loads, defaults, validates, and materializes the HarborFTP
// configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (HARBORFTP_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store configuration pattern: the user store and the filesystem backend
// each select an implementation through a Type field; only the map section
// matching the selected type is decoded, by the factory for that type.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	adapterftp "github.com/harborfs/harborftp/pkg/adapter/ftp"
)

// Config is the complete HarborFTP configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings.
	Server ServerConfig `mapstructure:"server"`

	// Users selects and configures the user store.
	Users UsersConfig `mapstructure:"users"`

	// VFS selects and configures the filesystem backend behind the views.
	VFS VFSConfig `mapstructure:"vfs"`

	// Limits holds the process-wide login ceilings.
	Limits LimitsConfig `mapstructure:"limits"`

	// Ftplets names the built-in extension hooks to enable, in order.
	Ftplets []string `mapstructure:"ftplets"`

	// Adapters contains protocol adapter configurations.
	Adapters AdaptersConfig `mapstructure:"adapters"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics controls the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig controls the metrics HTTP endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection and the /metrics endpoint on.
	Enabled bool `mapstructure:"enabled"`

	// Port for the metrics HTTP server. Default 9090.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// UsersConfig selects the user store implementation.
type UsersConfig struct {
	// Type is the store implementation: memory or badger.
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Admin is the administrator account name. Defaults to "admin".
	Admin string `mapstructure:"admin"`

	// Memory holds memory-store options. Only used when Type = "memory".
	Memory map[string]any `mapstructure:"memory"`

	// Badger holds BadgerDB options. Only used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`

	// Accounts seeds the store with declared accounts at startup.
	Accounts []AccountConfig `mapstructure:"accounts" validate:"dive"`
}

// AccountConfig declares one seeded user account.
type AccountConfig struct {
	// Name is the login name.
	Name string `mapstructure:"name" validate:"required"`

	// Password is the clear-text password, hashed before storage. Ignored
	// for the anonymous account.
	Password string `mapstructure:"password"`

	// HomeDir is the virtual filesystem root for the account.
	HomeDir string `mapstructure:"home_dir" validate:"required"`

	// Enabled controls whether the account can log in.
	Enabled bool `mapstructure:"enabled"`

	// Write grants write permission.
	Write bool `mapstructure:"write"`

	// MaxIdleTime is the per-session idle timeout applied at login.
	MaxIdleTime time.Duration `mapstructure:"max_idle_time" validate:"min=0"`

	// MaxConcurrentLogins and MaxLoginsPerIP bound the account's sessions.
	// 0 means unlimited.
	MaxConcurrentLogins int `mapstructure:"max_concurrent_logins" validate:"min=0"`
	MaxLoginsPerIP      int `mapstructure:"max_logins_per_ip" validate:"min=0"`

	// MaxUploadRate and MaxDownloadRate are transfer limits in bytes per
	// second. 0 means unlimited.
	MaxUploadRate   int `mapstructure:"max_upload_rate" validate:"min=0"`
	MaxDownloadRate int `mapstructure:"max_download_rate" validate:"min=0"`
}

// VFSConfig selects the filesystem backend.
type VFSConfig struct {
	// Type is the backend: native, memory, or s3.
	Type string `mapstructure:"type" validate:"required,oneof=native memory s3"`

	// Memory holds memory-backend options. Only used when Type = "memory".
	Memory map[string]any `mapstructure:"memory"`

	// S3 holds S3-backend options. Only used when Type = "s3".
	S3 map[string]any `mapstructure:"s3"`
}

// LimitsConfig holds the process-wide login ceilings. 0 means unlimited.
type LimitsConfig struct {
	MaxLogins          int `mapstructure:"max_logins" validate:"min=0"`
	MaxAnonymousLogins int `mapstructure:"max_anonymous_logins" validate:"min=0"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// FTP is the control-connection listener configuration. Uses the
	// adapter's own config type directly to avoid duplication.
	FTP adapterftp.FTPConfig `mapstructure:"ftp"`
}

// Load loads configuration from file, environment, and defaults, then
// validates it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and config file lookup.
// Environment variables use the HARBORFTP_ prefix with underscores, e.g.
// HARBORFTP_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("HARBORFTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the config file when present; a missing file just
// means defaults.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns $XDG_CONFIG_HOME/harborftp, falling back to
// ~/.config/harborftp, then to the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "harborftp")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "harborftp")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
