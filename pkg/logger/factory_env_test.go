package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

func TestEnvironmentPresets(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		wantJSON bool
		wantEnv  string
	}{
		{name: "production", env: "production", wantJSON: true, wantEnv: "production"},
		{name: "prod shorthand", env: "prod", wantJSON: true, wantEnv: "production"},
		{name: "development", env: "development", wantJSON: false, wantEnv: "development"},
		{name: "unknown env falls back to development", env: "staging", wantJSON: false, wantEnv: "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := logger.New(
				logger.WithOutput(buf),
				logger.WithEnvironment(tt.env, "notifykit"),
			)
			require.NotNil(t, log)

			log.Info("dispatched")
			out := buf.String()
			if tt.wantJSON {
				entry := lastEntry(t, buf)
				assert.Equal(t, "notifykit", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
			} else {
				assert.Contains(t, out, "service=notifykit")
				assert.Contains(t, out, "env="+tt.wantEnv)
			}
		})
	}
}

func TestDevelopmentPreset(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithDevelopment("notifykit"),
		logger.WithOutput(buf),
	)

	// Development lowers the gate to debug.
	log.Debug("verbose detail")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "verbose detail")
}

func TestProductionPreset(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithProduction("notifykit"),
		logger.WithOutput(buf),
	)

	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("dispatched")
	entry := lastEntry(t, buf)
	assert.Equal(t, "notifykit", entry["service"])
	assert.Equal(t, "production", entry["env"])
}

func TestPresetIgnoresEmptyService(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithProduction(""),
		logger.WithOutput(buf),
	)

	log.Info("dispatched")
	entry := lastEntry(t, buf)
	_, present := entry["service"]
	assert.False(t, present)
}
