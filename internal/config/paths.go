package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the application name used for config directories.
	AppName = "nssmctl"
	// ConfigFileName is the default config file name.
	ConfigFileName = "config.toml"
	// LogFileName is the default log file name.
	LogFileName = "nssmctl.log"
	// TemplatesDirName is the directory under the config dir holding templates.
	TemplatesDirName = "templates"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "NSSMCTL"
)

// DefaultConfigDir returns the default configuration directory for the current OS.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		// Services run without a roaming profile, so prefer %ProgramData%.
		if programData := os.Getenv("ProgramData"); programData != "" {
			return filepath.Join(programData, AppName), nil
		}
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, AppName), nil

	default:
		// $XDG_CONFIG_HOME/nssmctl or ~/.config/nssmctl
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DefaultTemplatesDir returns the default template store directory.
func DefaultTemplatesDir() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TemplatesDirName), nil
}

// DefaultLogDir returns the default log directory for the current OS.
func DefaultLogDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir, err := DefaultConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "logs"), nil

	default:
		// $XDG_STATE_HOME/nssmctl or ~/.local/state/nssmctl
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			return filepath.Join(xdgState, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "state", AppName), nil
	}
}

// DefaultLogPath returns the full path to the default log file.
func DefaultLogPath() (string, error) {
	dir, err := DefaultLogDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogFileName), nil
}
