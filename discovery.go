package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModelPaths holds the resolved location of every model file in use.
type ModelPaths struct {
	Cascade       string
	DetectorModel string
	LandmarkModel string
}

type modelFile struct {
	name string
	dst  *string
}

// resolveModels searches dirs in order for each model file the configuration
// needs. Absolute names are taken as they are.
func resolveModels(cfg *Config) (*ModelPaths, error) {
	var (
		paths   ModelPaths
		missing []string
	)

	want := []modelFile{{cfg.LandmarkModel, &paths.LandmarkModel}}
	switch cfg.Detector {
	case DetectorPigo:
		want = append(want, modelFile{cfg.CascadeFile, &paths.Cascade})
	case DetectorONNX:
		want = append(want, modelFile{cfg.DetectorModel, &paths.DetectorModel})
	}

	for _, w := range want {
		p, ok := findModelFile(cfg.ModelDirs, w.name)
		if !ok {
			missing = append(missing, "  - "+w.name)
			continue
		}
		*w.dst = p
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required model files not found in %s. Please ensure these files exist:\n%s",
			strings.Join(cfg.ModelDirs, ", "), strings.Join(missing, "\n"))
	}
	return &paths, nil
}

func findModelFile(dirs []string, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, fileExists(name)
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs, true
			}
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
