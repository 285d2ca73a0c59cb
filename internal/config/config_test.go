package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwtop/internal/errors"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("debug", false, "")
	flags.Bool("verbose", false, "")
	flags.String("log-level", DefaultLogLevel, "")
	flags.Bool("no-color", false, "")
	flags.Bool("session-stats", false, "")

	return flags
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HWTOP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load(testFlags())
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.SessionStats)
}

func TestLoadConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hwtop.toml")
	content := []byte(`
log_level = "debug"
no_color = true
session_stats = true
`)
	require.NoError(t, os.WriteFile(configPath, content, 0o600))
	t.Setenv("HWTOP_CONFIG", configPath)

	cfg, err := Load(testFlags())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.SessionStats)
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hwtop.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`log_level = "error"`), 0o600))
	t.Setenv("HWTOP_CONFIG", configPath)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "info"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hwtop.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`log_level = "loud"`), 0o600))
	t.Setenv("HWTOP_CONFIG", configPath)

	_, err := Load(testFlags())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, ErrInvalidLogLevel))
	assert.Equal(t, errors.ErrorCode("config_invalid_log_level"), ErrInvalidLogLevel)
}

func TestInvalidConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hwtop.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("not toml at all ["), 0o600))
	t.Setenv("HWTOP_CONFIG", configPath)

	_, err := Load(testFlags())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrReadConfig))
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"sensors", "info", "extra", "plain"} {
		mode, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, mode.String())
	}

	_, err := ParseMode("fancy")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidMode))
}

func TestModeBehavior(t *testing.T) {
	assert.True(t, ModeSensors.Live())
	assert.True(t, ModeSensors.Color())
	assert.True(t, ModeSensors.AltScreen())
	assert.False(t, ModeSensors.ShowExtra())

	assert.False(t, ModeInfo.Live())

	assert.True(t, ModeExtra.ShowExtra())
	assert.True(t, ModeExtra.AltScreen())

	assert.True(t, ModePlain.Live())
	assert.False(t, ModePlain.Color())
	assert.False(t, ModePlain.AltScreen())
}
