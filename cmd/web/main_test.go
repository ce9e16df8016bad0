package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n  max_upload_bytes: 1048576\n"), 0644))

	tests := []struct {
		name     string
		port     int
		wantPort int
	}{
		{"file port", 0, 9090},
		{"flag overrides file", 8181, 8181},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(path, tt.port)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, cfg.Server.Port)
			assert.Equal(t, int64(1<<20), cfg.Server.MaxUploadBytes)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  region_source: planet\n"), 0644))

	_, err := loadConfig(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}
