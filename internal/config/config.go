// Package config loads CLI settings from ~/.negotiate/config.yaml and
// NEGOTIATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	dirName   = ".negotiate"
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "NEGOTIATE"
)

// Settings are the CLI's persistent options. Flags override them.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// Polyfills, when set, overrides the manifest's polyfills setting.
	Polyfills *bool `mapstructure:"polyfills"`

	// Manifest is the default declaration file for query commands.
	Manifest string `mapstructure:"manifest"`
}

// Dir returns the path to the config directory (~/.negotiate/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", dirName)
	}
	return filepath.Join(home, dirName)
}

// FilePath returns the full path to the default config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Load reads settings from path (FilePath if empty) and the environment.
// A missing file at the default location is not an error; a missing file
// that was asked for explicitly is.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = FilePath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "warn")
	v.SetDefault("manifest", "")
	// No default: nil means "leave it to the manifest".
	_ = v.BindEnv("polyfills")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := s.Level(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Level parses LogLevel.
func (s *Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return l, nil
}
