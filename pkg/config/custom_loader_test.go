package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/config"
)

type RendererEnvConfig struct {
	Locale     string   `env:"NOTIFY_TEST_LOCALE"`
	CacheSize  int      `env:"NOTIFY_TEST_CACHE_SIZE"`
	CacheOn    bool     `env:"NOTIFY_TEST_CACHE_ENABLED"`
	Channels   []string `env:"NOTIFY_TEST_CHANNELS" envSeparator:","`
	SenderName string   `env:"NOTIFY_TEST_SENDER_NAME"`
	Empty      string   `env:"NOTIFY_TEST_EMPTY"`
}

type OverrideEnvConfig struct {
	Unique string `env:"NOTIFY_TEST_UNIQUE"`
	Locale string `env:"NOTIFY_TEST_LOCALE"`
}

type RequiredEnvConfig struct {
	Token string `env:"NOTIFY_TEST_REQUIRED_TOKEN,required"`
}

func clearTestEnv() {
	for _, key := range []string{
		"NOTIFY_TEST_LOCALE",
		"NOTIFY_TEST_CACHE_SIZE",
		"NOTIFY_TEST_CACHE_ENABLED",
		"NOTIFY_TEST_CHANNELS",
		"NOTIFY_TEST_SENDER_NAME",
		"NOTIFY_TEST_EMPTY",
		"NOTIFY_TEST_UNIQUE",
		"NOTIFY_TEST_REQUIRED_TOKEN",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadEnv_CustomPath(t *testing.T) {
	clearTestEnv()
	config.ResetCache()

	err := config.LoadEnv("testdata/.env.custom")
	require.NoError(t, err, "LoadEnv should not return error with valid file")

	var cfg RendererEnvConfig
	err = config.Load(&cfg)
	require.NoError(t, err, "Load should successfully parse config after LoadEnv")

	assert.Equal(t, "en-US", cfg.Locale)
	assert.Equal(t, 500, cfg.CacheSize)
	assert.Equal(t, true, cfg.CacheOn)
	assert.Equal(t, []string{"email", "push", "in_app"}, cfg.Channels)
	assert.Equal(t, "Acme Notifications", cfg.SenderName)
	assert.Equal(t, "", cfg.Empty)
}

func TestLoadEnv_MultiplePaths(t *testing.T) {
	clearTestEnv()
	config.ResetCache()

	// godotenv never overwrites variables that are already set, so when
	// multiple files are loaded in one call the first occurrence wins.
	err := config.LoadEnv("testdata/.env.custom", "testdata/.env.override")
	require.NoError(t, err, "LoadEnv should not return error with valid files")

	var overrideCfg OverrideEnvConfig
	err = config.Load(&overrideCfg)
	require.NoError(t, err)

	assert.Equal(t, "unique_to_override", overrideCfg.Unique)
	assert.Equal(t, "en-US", overrideCfg.Locale)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/non_existent_file.env")
	require.Error(t, err, "LoadEnv should return error with non-existent file")
}

func TestMustLoadEnv(t *testing.T) {
	assert.NotPanics(t, func() {
		config.MustLoadEnv("testdata/.env.custom")
	}, "MustLoadEnv should not panic with valid file")

	assert.Panics(t, func() {
		config.MustLoadEnv("testdata/non_existent_file.env")
	}, "MustLoadEnv should panic with non-existent file")
}

func TestLoadEnv_WithRequiredConfig(t *testing.T) {
	clearTestEnv()
	config.ResetCache()

	var requiredCfg RequiredEnvConfig
	err := config.Load(&requiredCfg)
	require.Error(t, err, "Load should error when required field is missing")

	t.Setenv("NOTIFY_TEST_REQUIRED_TOKEN", "tkn_123")

	var requiredCfg2 RequiredEnvConfig
	err = config.ForceReloadConfig(&requiredCfg2)
	require.NoError(t, err, "Load should succeed after setting required value")
	assert.Equal(t, "tkn_123", requiredCfg2.Token)
}
