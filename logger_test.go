package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "warn"
	assert.Equal(t, logrus.WarnLevel, NewLogger(cfg).GetLevel())

	cfg.Debug = true
	assert.Equal(t, logrus.DebugLevel, NewLogger(cfg).GetLevel())
}

func TestNewLoggerWritesFile(t *testing.T) {
	cfg := testConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "quality.log")

	logger := NewLogger(cfg)
	logger.WithField(RequestIDKey, "req-1").Info("hello")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "req-1")
}
