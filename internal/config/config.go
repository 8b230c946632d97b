// Package config loads issblh settings from defaults, an optional config
// file, ISSBLH_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/output"
	"github.com/star/issblh/internal/propagation"
	"github.com/star/issblh/internal/tle"
)

// EnvPrefix is prepended to every environment variable, e.g. ISSBLH_HTTP_ADDR.
const EnvPrefix = "ISSBLH"

// DefaultTLEURL is the catalog fetched when no TLE file is given.
const DefaultTLEURL = tle.DefaultSourceURL

// Config is the full set of settings.
type Config struct {
	TLE       TLEConfig       `yaml:"tle" mapstructure:"tle"`
	EOP       EOPConfig       `yaml:"eop" mapstructure:"eop"`
	Gravity   string          `yaml:"gravity" mapstructure:"gravity"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Workers   int             `yaml:"workers" mapstructure:"workers"`
	Ephemeris EphemerisConfig `yaml:"ephemeris" mapstructure:"ephemeris"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// TLEConfig locates the element sets.
type TLEConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	URL      string `yaml:"url" mapstructure:"url"`
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	MaxFiles int    `yaml:"max_files" mapstructure:"max_files"`
	NORADID  int    `yaml:"norad_id" mapstructure:"norad_id"` // satellite served from a mixed catalog
}

// EOPConfig locates the Earth orientation table. An empty file means zero
// polar motion, DUT1 and LOD.
type EOPConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

type EphemerisConfig struct {
	MaxCount int `yaml:"max_count" mapstructure:"max_count"`
}

type HTTPConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	TrustProxy bool   `yaml:"trust_proxy" mapstructure:"trust_proxy"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		TLE: TLEConfig{
			URL:      DefaultTLEURL,
			CacheDir: filepath.Join(os.TempDir(), "issblh", "tle"),
			MaxFiles: 5,
			NORADID:  ephemeris.ISSNoradID,
		},
		Gravity:   propagation.WGS84.Name,
		Output:    OutputConfig{Format: string(output.Text)},
		Workers:   runtime.NumCPU(),
		Ephemeris: EphemerisConfig{MaxCount: ephemeris.DefaultMaxCount},
		HTTP:      HTTPConfig{Addr: ":8080"},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// New returns a viper instance with every key defaulted and bound to its
// environment variable.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("tle.file", d.TLE.File)
	v.SetDefault("tle.url", d.TLE.URL)
	v.SetDefault("tle.cache_dir", d.TLE.CacheDir)
	v.SetDefault("tle.max_files", d.TLE.MaxFiles)
	v.SetDefault("tle.norad_id", d.TLE.NORADID)
	v.SetDefault("eop.file", d.EOP.File)
	v.SetDefault("gravity", d.Gravity)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("ephemeris.max_count", d.Ephemeris.MaxCount)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.trust_proxy", d.HTTP.TrustProxy)
	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.token", d.Auth.Token)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (when non-empty) into v and decodes the result. The file
// type follows the extension: yaml, toml or json.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate replaces bad values with their defaults, logging a warning for
// each. It fails only when auth is enabled without a token.
func (c *Config) Validate(logger *slog.Logger) error {
	d := Default()

	if _, err := propagation.GravityByName(c.Gravity); err != nil {
		logger.Warn("invalid gravity value, using default", "value", c.Gravity, "default", d.Gravity)
		c.Gravity = d.Gravity
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		logger.Warn("invalid output.format value, using default", "value", c.Output.Format, "default", d.Output.Format)
		c.Output.Format = d.Output.Format
	}
	if c.Workers < 1 {
		logger.Warn("invalid workers value, using default", "value", c.Workers, "default", d.Workers)
		c.Workers = d.Workers
	}
	if c.Ephemeris.MaxCount < 1 {
		logger.Warn("invalid ephemeris.max_count value, using default", "value", c.Ephemeris.MaxCount, "default", d.Ephemeris.MaxCount)
		c.Ephemeris.MaxCount = d.Ephemeris.MaxCount
	}
	if c.TLE.MaxFiles < 1 {
		logger.Warn("invalid tle.max_files value, using default", "value", c.TLE.MaxFiles, "default", d.TLE.MaxFiles)
		c.TLE.MaxFiles = d.TLE.MaxFiles
	}
	if c.TLE.NORADID < 1 {
		logger.Warn("invalid tle.norad_id value, using default", "value", c.TLE.NORADID, "default", d.TLE.NORADID)
		c.TLE.NORADID = d.TLE.NORADID
	}
	if c.HTTP.Addr == "" {
		logger.Warn("empty http.addr, using default", "default", d.HTTP.Addr)
		c.HTTP.Addr = d.HTTP.Addr
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		logger.Warn("invalid log.level value, using default", "value", c.Log.Level, "default", d.Log.Level)
		c.Log.Level = d.Log.Level
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		logger.Warn("invalid log.format value, using default", "value", c.Log.Format, "default", d.Log.Format)
		c.Log.Format = d.Log.Format
	}

	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("auth.token is required when auth is enabled")
	}
	return nil
}

// GravityModel returns the selected gravity constants.
func (c *Config) GravityModel() propagation.GravityModel {
	gm, err := propagation.GravityByName(c.Gravity)
	if err != nil {
		return propagation.WGS84
	}
	return gm
}

// WriteDefault writes the built-in settings to path as YAML.
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
