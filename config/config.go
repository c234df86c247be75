// Package config loads the device configuration from an optional YAML file,
// RONDO_* environment variables, and built-in defaults, in that order of
// precedence.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rondoware/rondo/logger"
)

// Config is the root of the device configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Display   DisplayConfig    `mapstructure:"display"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
	Audio     AudioConfig      `mapstructure:"audio"`
	Log       logger.LogConfig `mapstructure:"log"`
}

// ServerConfig points the device at its gateway.
type ServerConfig struct {
	URL              string `mapstructure:"url"`
	ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
}

func (c ServerConfig) ReconnectInterval() time.Duration {
	if c.ReconnectSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// DisplayConfig describes the panel.
type DisplayConfig struct {
	Width       int `mapstructure:"width"`
	Height      int `mapstructure:"height"`
	SafePadding int `mapstructure:"safe_padding"`
	IdleSeconds int `mapstructure:"idle_seconds"` // screen dim timeout, 0 disables
}

func (c DisplayConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleSeconds) * time.Second
}

// TelemetryConfig controls the heartbeat reporter.
type TelemetryConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func (c TelemetryConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// AudioConfig controls the capture pipeline.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	ChunkMS    int `mapstructure:"chunk_ms"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "ws://localhost:8080/ws")
	v.SetDefault("server.reconnect_seconds", 5)
	v.SetDefault("display.width", 466)
	v.SetDefault("display.height", 466)
	v.SetDefault("display.safe_padding", 40)
	v.SetDefault("display.idle_seconds", 30)
	v.SetDefault("telemetry.interval_seconds", 30)
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.chunk_ms", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration. A missing config file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RONDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) || os.IsNotExist(err) {
				// fall through to defaults and env
			} else {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
