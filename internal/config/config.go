// Package config reads the optional wellcheck.toml settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/logger"
)

// Config holds settings that command-line flags and environment variables
// may override.
type Config struct {
	DataFile    string        `toml:"data_file"`
	LockTimeout time.Duration `toml:"lock_timeout"`
	Debug       bool          `toml:"debug"`
	DefaultUser string        `toml:"default_user,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataFile:    ExpandPath(constants.DefaultDataPath),
		LockTimeout: constants.DefaultLockTimeout,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	path = ExpandPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		logger.Warn("Ignoring unknown config key", "file", path, "key", key.String())
	}

	cfg.DataFile = ExpandPath(strings.TrimSpace(cfg.DataFile))
	if cfg.DataFile == "" {
		cfg.DataFile = Default().DataFile
	} else if !filepath.IsAbs(cfg.DataFile) {
		// Relative data paths are relative to the config file
		cfg.DataFile = filepath.Join(filepath.Dir(path), cfg.DataFile)
	}
	if cfg.LockTimeout < 0 {
		return Config{}, fmt.Errorf("lock_timeout must not be negative (got %s)", cfg.LockTimeout)
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = constants.DefaultLockTimeout
	}
	cfg.DefaultUser = strings.TrimSpace(cfg.DefaultUser)

	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
