package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deeddraw/internal/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeddraw.log")
	log, err := New(config.LogConfig{
		Level:      "info",
		Format:     "json",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("certificate issued")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.True(t, strings.Contains(out, `"msg":"certificate issued"`), out)
	assert.False(t, strings.Contains(out, "hidden"))
}
