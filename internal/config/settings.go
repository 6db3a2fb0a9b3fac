package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. BVC_LOG_LEVEL.
const EnvPrefix = "BVC"

// Settings holds the tunables stored in .bvc/config.json.
type Settings struct {
	Hash          string
	DefaultBranch string
	UserName      string
	LogLevel      string
	FetchRetries  int
	FetchTimeout  time.Duration
	CacheSyncs    bool
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Hash:          DefaultHash,
		DefaultBranch: DefaultBranch,
		LogLevel:      "info",
		FetchRetries:  3,
		FetchTimeout:  30 * time.Second,
	}
}

func newViper(path string) *viper.Viper {
	d := DefaultSettings()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("hash", d.Hash)
	v.SetDefault("default_branch", d.DefaultBranch)
	v.SetDefault("user.name", d.UserName)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("fetch.retries", d.FetchRetries)
	v.SetDefault("fetch.timeout", d.FetchTimeout.String())
	v.SetDefault("cache.sync_points", d.CacheSyncs)
	return v
}

// Load reads config.json (if present) and environment overrides into c.Settings.
func (c *RepoConfig) Load() error {
	v := newViper(c.SettingsFile())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config %q: %w", c.SettingsFile(), err)
		}
	}

	c.Settings = Settings{
		Hash:          v.GetString("hash"),
		DefaultBranch: v.GetString("default_branch"),
		UserName:      v.GetString("user.name"),
		LogLevel:      v.GetString("log.level"),
		FetchRetries:  v.GetInt("fetch.retries"),
		FetchTimeout:  v.GetDuration("fetch.timeout"),
		CacheSyncs:    v.GetBool("cache.sync_points"),
	}
	if c.Settings.Hash != DefaultHash {
		return fmt.Errorf("unsupported hash format %q", c.Settings.Hash)
	}
	if c.Settings.FetchRetries < 0 {
		c.Settings.FetchRetries = 0
	}
	return nil
}

// Save writes c.Settings to config.json.
func (c *RepoConfig) Save() error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("hash", c.Settings.Hash)
	v.Set("default_branch", c.Settings.DefaultBranch)
	v.Set("user.name", c.Settings.UserName)
	v.Set("log.level", c.Settings.LogLevel)
	v.Set("fetch.retries", c.Settings.FetchRetries)
	v.Set("fetch.timeout", c.Settings.FetchTimeout.String())
	v.Set("cache.sync_points", c.Settings.CacheSyncs)
	if err := v.WriteConfigAs(c.SettingsFile()); err != nil {
		return fmt.Errorf("write config %q: %w", c.SettingsFile(), err)
	}
	return nil
}
