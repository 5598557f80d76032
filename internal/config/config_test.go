package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.PollIntervalMS, cfg.PollIntervalMS)
	assert.Equal(t, want.PageSize, cfg.PageSize)
	assert.Equal(t, want.MaxItemSize, cfg.MaxItemSize)
	assert.Equal(t, want.MaxHistoryItems, cfg.MaxHistoryItems)
	assert.Equal(t, want.MaxHistoryDays, cfg.MaxHistoryDays)
	assert.Equal(t, want.LogFormat, cfg.LogFormat)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.DataDir = dir
	cfg.PageSize = 25
	cfg.PollIntervalMS = 250
	require.NoError(t, cfg.Save(path))

	v := viper.New()
	v.SetConfigFile(path)
	loaded, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 25, loaded.PageSize)
	assert.Equal(t, 250, loaded.PollIntervalMS)
	assert.Equal(t, dir, loaded.DataDir)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	v := viper.New()
	v.Set("page_size", -1)
	v.Set("poll_interval_ms", 0)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default().PageSize, cfg.PageSize)
	assert.Equal(t, Default().PollIntervalMS, cfg.PollIntervalMS)
}

func TestDatabasePath(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	assert.Equal(t, filepath.Join("/data", "history.db"), cfg.DatabasePath())
}
