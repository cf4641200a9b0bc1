package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mastercactapus/cncwarmup/ramp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
	assert.Nil(t, cfg)

	empty := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	cfg, err = Load(empty)
	require.NoError(t, err)
	assert.Equal(t, ramp.DefaultSettings(), cfg.Settings)
	assert.Equal(t, ramp.LabelLoop, cfg.Dialect)
	assert.Equal(t, 200.0, cfg.SafeZ)
	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, 9600, cfg.Serial.Baud)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WARMUP_START_RPM", "800")
	t.Setenv("WARMUP_COOLANT", "false")
	t.Setenv("WARMUP_DIALECT", "fanuc")
	t.Setenv("WARMUP_STEPS", "20")

	t.Cleanup(func() { os.Unsetenv("WARMUP_FINISH_FEED") })

	name := filepath.Join(t.TempDir(), "warmup.env")
	require.NoError(t, os.WriteFile(name, []byte("WARMUP_FINISH_FEED=1200\nWARMUP_STEPS=99\n"), 0644))

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, 800.0, cfg.Settings.StartRPM)
	assert.False(t, cfg.Settings.Coolant)
	assert.Equal(t, ramp.WhileLoop, cfg.Dialect)
	assert.Equal(t, 1200.0, cfg.Settings.FinishFeed)
	// the environment wins over the file
	assert.Equal(t, 20, cfg.Settings.StepCount)
}

func TestLoad_Malformed(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	t.Setenv("WARMUP_TOOL", "one")
	_, err := Load(empty)
	assert.ErrorContains(t, err, "WARMUP_TOOL")

	t.Setenv("WARMUP_TOOL", "")
	t.Setenv("WARMUP_DIALECT", "mazak")
	_, err = Load(empty)
	var dialectErr *ramp.UnsupportedDialectError
	assert.ErrorAs(t, err, &dialectErr)
}
