package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// UserConfigDir is the directory for user-level config, relative to home
	UserConfigDir = ".config/tasksync"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/tasksync/config.yaml), if present
// 3. explicitPath, if given (must exist)
// 4. Command-line overrides
func (l *Loader) Load(explicitPath string, overrides Overrides) (*Config, error) {
	config := DefaultConfig()

	if userPath, err := UserConfigPath(); err == nil {
		err := config.decodeFile(userPath)
		switch {
		case err == nil:
			l.logger.Debug("Loaded user config", slog.String("path", userPath))
		case errors.Is(err, fs.ErrNotExist):
		default:
			l.logger.Warn("Failed to load user config", slog.String("path", userPath), slog.String("error", err.Error()))
		}
	}

	if explicitPath != "" {
		path, err := homedir.Expand(explicitPath)
		if err != nil {
			return nil, err
		}
		if err := config.decodeFile(path); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", path))
	}

	config.Apply(overrides)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// UserConfigPath returns ~/.config/tasksync/config.yaml for the current user
func UserConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile), nil
}
