// Package config loads vmidi settings from a config file, VMIDI_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shaban/virtualmidi"
	"github.com/shaban/virtualmidi/tevm"
)

// Modes understood by vmidi.
const (
	ModeLoopback = "loopback"
	ModeMonitor  = "monitor"
	ModeProbe    = "probe"
)

const envPrefix = "VMIDI"

// Config holds the settings of one vmidi run.
type Config struct {
	Mode         string `mapstructure:"mode"`
	Port         string `mapstructure:"port"`
	Library      string `mapstructure:"library"`
	MaxSysEx     uint32 `mapstructure:"max-sysex"`
	Flags        uint32 `mapstructure:"flags"`
	Manufacturer string `mapstructure:"manufacturer"`
	Product      string `mapstructure:"product"`
	QueueSize    int    `mapstructure:"queue-size"`
	MetricsAddr  string `mapstructure:"metrics-addr"`
	LogLevel     string `mapstructure:"log-level"`
	Strict       bool   `mapstructure:"strict"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeLoopback)
	v.SetDefault("port", "vmidi")
	v.SetDefault("library", "")
	v.SetDefault("max-sysex", tevm.DefaultMaxSysExSize)
	v.SetDefault("flags", 0)
	v.SetDefault("manufacturer", "")
	v.SetDefault("product", "")
	v.SetDefault("queue-size", 256)
	v.SetDefault("metrics-addr", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("strict", false)
}

// RegisterFlags adds one flag per setting to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("mode", "m", ModeLoopback, "loopback, monitor or probe")
	fs.StringP("port", "p", "vmidi", "virtual port name")
	fs.String("library", "", "driver library path (default: platform library name)")
	fs.Uint32("max-sysex", tevm.DefaultMaxSysExSize, "largest inbound message in bytes")
	fs.Uint32("flags", 0, "driver port flags")
	fs.String("manufacturer", "", "manufacturer UUID reported for the port")
	fs.String("product", "", "product UUID reported for the port")
	fs.Int("queue-size", 256, "inbound messages buffered per port")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	fs.String("log-level", "info", "logrus level")
	fs.Bool("strict", false, "crash on receiver panics and port close errors")
}

// Load reads file (optional), the environment and the flags in fs (may be
// nil) into a validated Config.
func Load(fs *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLoopback, ModeMonitor, ModeProbe:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.Mode != ModeProbe && c.Port == "" {
		return fmt.Errorf("config: port name is required")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("config: queue-size must be positive, got %d", c.QueueSize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.BindOptions(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// BindOptions turns the port settings into bind options.
func (c *Config) BindOptions() ([]virtualmidi.BindOption, error) {
	opts := []virtualmidi.BindOption{
		virtualmidi.WithMaxSysExSize(c.MaxSysEx),
		virtualmidi.WithFlags(tevm.Flags(c.Flags)),
	}
	if c.Manufacturer != "" {
		id, err := uuid.Parse(c.Manufacturer)
		if err != nil {
			return nil, fmt.Errorf("config: manufacturer: %w", err)
		}
		opts = append(opts, virtualmidi.WithManufacturer(id))
	}
	if c.Product != "" {
		id, err := uuid.Parse(c.Product)
		if err != nil {
			return nil, fmt.Errorf("config: product: %w", err)
		}
		opts = append(opts, virtualmidi.WithProduct(id))
	}
	return opts, nil
}
