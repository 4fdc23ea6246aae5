// SPDX-License-Identifier: MPL-2.0

// Package config loads the CLI configuration: which API host to talk to,
// how to authenticate, and how to render output. Sources, in ascending
// precedence: config file, AUTOKIT_* environment variables, --conf.* flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "autokit"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
)

// Color output modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the resolved CLI configuration.
type Config struct {
	// Host is the API base URL, e.g. "https://tower.example.org".
	Host string `mapstructure:"host"`
	// Token is a bearer token; takes precedence over username/password.
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Color is one of "auto", "always", "never".
	Color string `mapstructure:"color"`
	// Insecure disables TLS certificate verification.
	Insecure bool `mapstructure:"insecure"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// dirOverride lets tests point at a temporary config directory.
var dirOverride string

// SetDirOverride overrides the config directory, primarily for tests. An
// empty value restores the platform default.
func SetDirOverride(dir string) {
	dirOverride = dir
}

// Dir returns the autokit configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application
// Support, and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
func Dir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the full path of the config file.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load resolves the configuration. A nil flag set skips flag binding; a
// missing config file is not an error, everything then comes from defaults,
// environment and flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Every key needs a default so environment-only values survive
	// unmarshalling.
	v.SetDefault("host", "https://127.0.0.1:443")
	v.SetDefault("token", "")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("color", ColorAuto)
	v.SetDefault("insecure", false)
	v.SetDefault("verbose", false)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)
	v.AddConfigPath(dir)

	v.SetEnvPrefix("AUTOKIT")
	v.AutomaticEnv()

	if flags != nil {
		for _, key := range []string{"host", "token", "username", "password", "color", "insecure", "verbose"} {
			if flag := flags.Lookup("conf." + key); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("binding conf.%s: %w", key, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if cfg.Color != ColorAuto && cfg.Color != ColorAlways && cfg.Color != ColorNever {
		return nil, fmt.Errorf("invalid color mode %q (use auto, always or never)", cfg.Color)
	}
	return &cfg, nil
}

// AddFlags registers the --conf.* override flags on a flag set.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("conf.host", "", "API host, e.g. https://tower.example.org")
	flags.String("conf.token", "", "OAuth2 or personal access token")
	flags.String("conf.username", "", "username for basic authentication")
	flags.String("conf.password", "", "password for basic authentication")
	flags.String("conf.color", "", "colored output: auto, always or never")
	flags.BoolP("conf.insecure", "k", false, "skip TLS certificate verification")
	flags.Bool("conf.verbose", false, "enable debug logging")
}
