package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/moviedex/internal/api"
	"github.com/mesh-intelligence/moviedex/internal/logger"
	"github.com/mesh-intelligence/moviedex/internal/paths"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

const envPrefix = "MOVIEDEX"

// Config keys.
const (
	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyDSN             = "dsn"
	cfgKeyLogLevel        = "log.level"
	cfgKeyLogFormat       = "log.format"
	cfgKeyAddr            = "server.addr"
	cfgKeyCORSOrigins     = "server.cors_origins"
	cfgKeyRateLimit       = "server.rate_limit"
	cfgKeyRateLimitWindow = "server.rate_limit_window"
	cfgKeyReadTimeout     = "server.read_timeout"
	cfgKeyWriteTimeout    = "server.write_timeout"
	cfgKeyIdleTimeout     = "server.idle_timeout"
	cfgKeyShutdown        = "server.shutdown_timeout"
)

// envKeys are the keys MOVIEDEX_* variables override. data_dir is left out
// because MOVIEDEX_DATA_DIR ranks below config.yaml and is handled by
// paths.ResolveDataDir.
var envKeys = []string{
	cfgKeyBackend, cfgKeyDSN, cfgKeyLogLevel, cfgKeyLogFormat,
	cfgKeyAddr, cfgKeyCORSOrigins, cfgKeyRateLimit, cfgKeyRateLimitWindow,
	cfgKeyReadTimeout, cfgKeyWriteTimeout, cfgKeyIdleTimeout, cfgKeyShutdown,
}

// settings is the resolved configuration.
type settings struct {
	Backend string         `mapstructure:"backend"`
	DataDir string         `mapstructure:"data_dir"`
	DSN     string         `mapstructure:"dsn"`
	Log     logSettings    `mapstructure:"log"`
	Server  serverSettings `mapstructure:"server"`
}

type logSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type serverSettings struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s settings) backendConfig() types.Config {
	return types.Config{Backend: s.Backend, DataDir: s.DataDir, DSN: s.DSN}
}

func (s settings) apiConfig() api.Config {
	return api.Config{
		Addr:               s.Server.Addr,
		CORSAllowedOrigins: s.Server.CORSOrigins,
		RateLimitRequests:  s.Server.RateLimit,
		RateLimitWindow:    s.Server.RateLimitWindow,
		ReadTimeout:        s.Server.ReadTimeout,
		WriteTimeout:       s.Server.WriteTimeout,
		IdleTimeout:        s.Server.IdleTimeout,
		ShutdownTimeout:    s.Server.ShutdownTimeout,
	}
}

// loadSettings reads config.yaml from configDir using Viper, layering
// MOVIEDEX_* environment overrides on top. A missing config.yaml is not an
// error.
func loadSettings(configDir string) (settings, error) {
	d := api.DefaultConfig()

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, logger.FormatText)
	v.SetDefault(cfgKeyAddr, d.Addr)
	v.SetDefault(cfgKeyCORSOrigins, d.CORSAllowedOrigins)
	v.SetDefault(cfgKeyRateLimit, d.RateLimitRequests)
	v.SetDefault(cfgKeyRateLimitWindow, d.RateLimitWindow)
	v.SetDefault(cfgKeyReadTimeout, d.ReadTimeout)
	v.SetDefault(cfgKeyWriteTimeout, d.WriteTimeout)
	v.SetDefault(cfgKeyIdleTimeout, d.IdleTimeout)
	v.SetDefault(cfgKeyShutdown, d.ShutdownTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return settings{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend string           `yaml:"backend"`
	DataDir string           `yaml:"data_dir,omitempty"`
	DSN     string           `yaml:"dsn,omitempty"`
	Log     configFileLog    `yaml:"log"`
	Server  configFileServer `yaml:"server"`
}

type configFileLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type configFileServer struct {
	Addr            string   `yaml:"addr"`
	CORSOrigins     []string `yaml:"cors_origins"`
	RateLimit       int      `yaml:"rate_limit"`
	RateLimitWindow string   `yaml:"rate_limit_window"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	IdleTimeout     string   `yaml:"idle_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

func defaultConfigFile(dataDir string) configFile {
	d := api.DefaultConfig()
	return configFile{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Log:     configFileLog{Level: "info", Format: logger.FormatText},
		Server: configFileServer{
			Addr:            d.Addr,
			CORSOrigins:     d.CORSAllowedOrigins,
			RateLimit:       d.RateLimitRequests,
			RateLimitWindow: d.RateLimitWindow.String(),
			ReadTimeout:     d.ReadTimeout.String(),
			WriteTimeout:    d.WriteTimeout.String(),
			IdleTimeout:     d.IdleTimeout.String(),
			ShutdownTimeout: d.ShutdownTimeout.String(),
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether it wrote the file.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
