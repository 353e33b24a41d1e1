package config

import (
	"strings"
	"time"

	adapterftp "github.com/harborfs/harborftp/pkg/adapter/ftp"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyUsersDefaults(&cfg.Users)
	applyVFSDefaults(&cfg.VFS)
	applyAdaptersDefaults(&cfg.Adapters)

	// Limits default to 0 (unlimited); nothing to fill in.
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func applyUsersDefaults(cfg *UsersConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}
	if cfg.Admin == "" {
		cfg.Admin = "admin"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	for i := range cfg.Accounts {
		account := &cfg.Accounts[i]
		if account.HomeDir == "" {
			account.HomeDir = "/"
		}
		if account.MaxIdleTime == 0 {
			account.MaxIdleTime = 5 * time.Minute
		}
	}
}

func applyVFSDefaults(cfg *VFSConfig) {
	if cfg.Type == "" {
		cfg.Type = "native"
	}
	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}

func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the FTP adapter by default when nothing was configured, so a
	// fresh install with no config file serves connections.
	if !cfg.FTP.Enabled && cfg.FTP.Port == 0 {
		cfg.FTP.Enabled = true
	}
	applyFTPDefaults(&cfg.FTP)
}

func applyFTPDefaults(cfg *adapterftp.FTPConfig) {
	if cfg.Port == 0 {
		cfg.Port = 2121
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config with all defaults applied. Useful for
// sample config generation and tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Users: UsersConfig{
			Memory: make(map[string]any),
			Badger: make(map[string]any),
		},
		VFS: VFSConfig{
			Memory: make(map[string]any),
			S3:     make(map[string]any),
		},
		Adapters: AdaptersConfig{
			FTP: adapterftp.FTPConfig{Enabled: true},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
