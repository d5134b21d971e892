package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))
}

func TestResolveModelsSearchOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	touch(t, filepath.Join(first, "landmarks.onnx"))
	touch(t, filepath.Join(second, "landmarks.onnx"))
	touch(t, filepath.Join(second, "facefinder"))

	cfg := testConfig()
	cfg.ModelDirs = []string{first, second}
	cfg.LandmarkModel = "landmarks.onnx"
	cfg.CascadeFile = "facefinder"

	paths, err := resolveModels(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "landmarks.onnx"), paths.LandmarkModel)
	assert.Equal(t, filepath.Join(second, "facefinder"), paths.Cascade)
	assert.Empty(t, paths.DetectorModel)
}

func TestResolveModelsONNX(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "landmarks.onnx"))
	abs := filepath.Join(t.TempDir(), "yolo.onnx")
	touch(t, abs)

	cfg := testConfig()
	cfg.ModelDirs = []string{dir}
	cfg.Detector = DetectorONNX
	cfg.LandmarkModel = "landmarks.onnx"
	cfg.DetectorModel = abs

	paths, err := resolveModels(cfg)
	require.NoError(t, err)
	assert.Equal(t, abs, paths.DetectorModel)
	assert.Empty(t, paths.Cascade)
}

func TestResolveModelsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "facefinder"), 0o755))

	cfg := testConfig()
	cfg.ModelDirs = []string{dir}
	cfg.LandmarkModel = "landmarks.onnx"
	cfg.CascadeFile = "facefinder"

	_, err := resolveModels(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "  - landmarks.onnx")
	assert.Contains(t, err.Error(), "  - facefinder")
}
