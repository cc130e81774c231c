package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/desk/pkg/auth"
)

// Config locates the store.
type Config interface {
	BasePath() string
}

// Settings is the full desk configuration read from .desk.yaml and DESK_*
// environment variables.
type Settings struct {
	Path             string        `mapstructure:"path"`
	Log              string        `mapstructure:"log"`
	LogLevel         string        `mapstructure:"log_level"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	ActivityThrottle time.Duration `mapstructure:"activity_throttle"`
	IdleCheck        time.Duration `mapstructure:"idle_check"`
	IngestInterval   time.Duration `mapstructure:"ingest_interval"`
	Users            []auth.User   `mapstructure:"users"`
}

// BasePath returns the expanded store directory.
func (s *Settings) BasePath() string {
	return s.Path
}

// LogPath returns the log file, defaulting to desk.log in the store.
func (s *Settings) LogPath() string {
	if s.Log != "" {
		return s.Log
	}
	return filepath.Join(s.Path, "desk.log")
}

// Directory returns the configured users, or the demo accounts when none
// are configured.
func (s *Settings) Directory() (*auth.Directory, error) {
	if len(s.Users) == 0 {
		return auth.Demo(), nil
	}
	return auth.NewDirectory(s.Users...)
}

// LoadConfig reads the configuration with the global viper instance.
func LoadConfig() (*Settings, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Settings, error) {
	v.SetDefault("path", "~/.desk")
	v.SetDefault("log", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("idle_timeout", "10m")
	v.SetDefault("activity_throttle", "30s")
	v.SetDefault("idle_check", "60s")
	v.SetDefault("ingest_interval", "30s")
	v.SetConfigName(".desk") // .yaml is implicit
	v.SetEnvPrefix("DESK")
	v.AutomaticEnv()

	if override := os.Getenv("DESK_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("store: decode config: %w", err)
	}
	path, err := homedir.Expand(s.Path)
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}
	s.Path = path
	if s.Log != "" {
		if s.Log, err = homedir.Expand(s.Log); err != nil {
			return nil, fmt.Errorf("store: expand log: %w", err)
		}
	}
	return s, nil
}
