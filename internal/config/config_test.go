package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/virtualmidi"
	"github.com/shaban/virtualmidi/internal/fakedriver"
	"github.com/shaban/virtualmidi/tevm"
)

func TestDefaults(t *testing.T) {
	c, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, ModeLoopback, c.Mode)
	assert.Equal(t, "vmidi", c.Port)
	assert.Equal(t, tevm.DefaultMaxSysExSize, c.MaxSysEx)
	assert.Equal(t, 256, c.QueueSize)
	assert.Equal(t, logrus.InfoLevel, c.Level())
	assert.False(t, c.Strict)
}

func TestFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "vmidi.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
mode: monitor
port: From File
max-sysex: 1024
manufacturer: 11111111-2222-3333-4444-555555555555
log-level: debug
`), 0o644))

	t.Setenv("VMIDI_QUEUE_SIZE", "32")
	t.Setenv("VMIDI_PORT", "From Env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--flags=12", "--strict"}))

	c, err := Load(fs, file)
	require.NoError(t, err)
	assert.Equal(t, ModeMonitor, c.Mode)
	assert.Equal(t, "From Env", c.Port, "env beats file")
	assert.Equal(t, uint32(1024), c.MaxSysEx)
	assert.Equal(t, uint32(12), c.Flags, "flag set explicitly")
	assert.Equal(t, 32, c.QueueSize)
	assert.Equal(t, logrus.DebugLevel, c.Level())
	assert.True(t, c.Strict)
}

func TestValidate(t *testing.T) {
	base := Config{Mode: ModeLoopback, Port: "p", QueueSize: 1, LogLevel: "info"}
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown mode", func(c *Config) { c.Mode = "dance" }, false},
		{"empty port", func(c *Config) { c.Port = "" }, false},
		{"probe needs no port", func(c *Config) { c.Mode = ModeProbe; c.Port = "" }, true},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad manufacturer", func(c *Config) { c.Manufacturer = "not-a-uuid" }, false},
		{"bad product", func(c *Config) { c.Product = "xyz" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBindOptionsReachDriver(t *testing.T) {
	c := Config{
		Mode: ModeLoopback, Port: "Opts", QueueSize: 1, LogLevel: "info",
		MaxSysEx: 2048, Flags: uint32(tevm.FlagParseRx),
		Product: "66666666-7777-8888-9999-aaaaaaaaaaaa",
	}
	opts, err := c.BindOptions()
	require.NoError(t, err)

	drv := fakedriver.New()
	reg := virtualmidi.NewRegistry(drv)
	defer reg.Close()
	_, err = reg.BindOutput(c.Port, opts...)
	require.NoError(t, err)

	cfg, ok := drv.Config("Opts")
	require.True(t, ok)
	assert.Equal(t, uint32(2048), cfg.MaxSysExSize)
	assert.Equal(t, tevm.FlagParseRx, cfg.Flags)
	assert.Nil(t, cfg.Manufacturer)
	require.NotNil(t, cfg.Product)
	assert.Equal(t, c.Product, cfg.Product.String())
}
