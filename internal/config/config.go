// Package config loads pg settings from defaults, the project config file
// and PG_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ohare93/pg/internal/store"
	"github.com/ohare93/pg/internal/ticket"
)

const (
	// FileName is the config file inside the state directory
	FileName = "config.yaml"

	// EnvPrefix is prepended to every environment override, e.g. PG_PREFIX
	EnvPrefix = "PG"

	// EnvConfig points at an explicit config file
	EnvConfig = "PG_CONFIG"
)

// VCS selection values
const (
	VCSAuto = "auto"
	VCSGit  = "git"
	VCSJJ   = "jj"
	VCSNone = "none"
)

// Config holds pg settings
type Config struct {
	Prefix  string        `mapstructure:"prefix"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	VCS     string        `mapstructure:"vcs"`
}

// StorageConfig selects and tunes the ticket backend
type StorageConfig struct {
	Backend string        `mapstructure:"backend"`
	Path    string        `mapstructure:"path"` // Empty derives the path from the backend
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Prefix: store.DefaultPrefix,
		Storage: StorageConfig{
			Backend: string(store.BackendFile),
			Timeout: store.DefaultTimeout,
		},
		Log: LogConfig{Level: "warn"},
		VCS: VCSAuto,
	}
}

// Path returns the default config file location for a project
func Path(projectDir string) string {
	return filepath.Join(projectDir, store.StateDirName, FileName)
}

func newViper() *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetDefault("prefix", d.Prefix)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.timeout", d.Storage.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("vcs", d.VCS)
	return v
}

// Resolve picks the config file for projectDir: configPath when set, then
// PG_CONFIG, then .pg/config.yaml. explicit reports whether the file was
// named by the caller or the environment.
func Resolve(projectDir, configPath string) (path string, explicit bool) {
	if configPath != "" {
		return configPath, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	return Path(projectDir), false
}

// Load reads the configuration for projectDir. configPath, when set, names
// an explicit file that must exist; otherwise PG_CONFIG is consulted, then
// .pg/config.yaml is read if present.
func Load(projectDir, configPath string) (Config, error) {
	path, explicit := Resolve(projectDir, configPath)
	return load(path, explicit)
}

// LoadForWrite is Load for commands that create the config file. A missing
// file, explicit or not, yields the defaults. The returned path is where
// the config should be saved.
func LoadForWrite(projectDir, configPath string) (Config, string, error) {
	path, _ := Resolve(projectDir, configPath)
	c, err := load(path, false)
	return c, path, err
}

func load(path string, mustExist bool) (Config, error) {
	v := newViper()

	_, err := os.Stat(path)
	switch {
	case err == nil || mustExist:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &ticket.ValidationError{Field: "config", Reason: fmt.Sprintf("failed to read %s: %v", path, err)}
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("failed to stat config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, &ticket.ValidationError{Field: "config", Reason: fmt.Sprintf("failed to decode: %v", err)}
	}

	c.Prefix = strings.ToUpper(strings.TrimSpace(c.Prefix))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.VCS = strings.ToLower(strings.TrimSpace(c.VCS))
	if c.Storage.Timeout == 0 {
		c.Storage.Timeout = store.DefaultTimeout
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every setting, returning the first problem found
func (c Config) Validate() error {
	if err := ticket.ValidatePrefix(c.Prefix); err != nil {
		return err
	}
	if !store.ValidateBackendKind(c.Storage.Backend) {
		return &ticket.ValidationError{Field: "storage.backend", Reason: fmt.Sprintf("unknown backend %q (must be file or sqlite)", c.Storage.Backend)}
	}
	if c.Storage.Timeout < 0 {
		return &ticket.ValidationError{Field: "storage.timeout", Reason: "must be positive"}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.VCS {
	case VCSAuto, VCSGit, VCSJJ, VCSNone:
	default:
		return &ticket.ValidationError{Field: "vcs", Reason: fmt.Sprintf("unknown vcs %q (must be auto, git, jj or none)", c.VCS)}
	}
	return nil
}

// LogLevel parses log.level
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, &ticket.ValidationError{Field: "log.level", Reason: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	return level, nil
}

// StoreConfig converts the settings into a store configuration rooted at
// projectDir. Relative storage paths resolve against projectDir.
func (c Config) StoreConfig(projectDir string, logger *slog.Logger) store.Config {
	sc := store.DefaultConfig(projectDir)
	sc.Prefix = c.Prefix
	sc.Backend = store.BackendKind(c.Storage.Backend)
	sc.Timeout = c.Storage.Timeout
	sc.Logger = logger
	if p := c.Storage.Path; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(projectDir, p)
		}
		sc.Path = p
	}
	return sc
}

// Save writes c to path, creating the parent directory if needed
func Save(path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("prefix", c.Prefix)
	v.Set("storage.backend", c.Storage.Backend)
	if c.Storage.Path != "" {
		v.Set("storage.path", c.Storage.Path)
	}
	v.Set("storage.timeout", c.Storage.Timeout.String())
	v.Set("log.level", c.Log.Level)
	v.Set("vcs", c.VCS)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
