package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DetectorPigo = "pigo"
	DetectorONNX = "onnx"
)

type Config struct {
	Host          string        `validate:"required"`
	Port          int           `validate:"min=1,max=65535"`
	MaxUploadMB   int64         `validate:"min=1"`
	ModelDirs     []string      `validate:"min=1,dive,required"`
	Detector      string        `validate:"oneof=pigo onnx"`
	CascadeFile   string        `validate:"required"`
	DetectorModel string        `validate:"required_if=Detector onnx"`
	LandmarkModel string        `validate:"required"`
	ONNXRuntime   string
	PoolSize      int           `validate:"min=1,max=64"`
	ReadTimeout   time.Duration `validate:"gt=0"`
	WriteTimeout  time.Duration `validate:"gt=0"`
	LogLevel      string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile       string
	Debug         bool
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// LoadConfig reads .env when present, then the environment.
func LoadConfig(validate *validator.Validate) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configFromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		Host:          getEnv("QUALITY_SERVICE_HOST", "0.0.0.0"),
		ModelDirs:     splitList(getEnv("QUALITY_MODEL_DIRS", "./models,..")),
		Detector:      strings.ToLower(getEnv("QUALITY_DETECTOR", DetectorPigo)),
		CascadeFile:   getEnv("QUALITY_CASCADE_FILE", "facefinder"),
		DetectorModel: getEnv("QUALITY_DETECTOR_MODEL", "yolov8n-face.onnx"),
		LandmarkModel: getEnv("QUALITY_LANDMARK_MODEL", "face_landmarks_68.onnx"),
		ONNXRuntime:   getEnv("ONNXRUNTIME_LIB", ""),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:       getEnv("LOG_FILE", ""),
	}

	if cfg.Port, err = strconv.Atoi(getEnv("QUALITY_SERVICE_PORT", "6001")); err != nil {
		return nil, fmt.Errorf("QUALITY_SERVICE_PORT: %w", err)
	}
	if cfg.MaxUploadMB, err = strconv.ParseInt(getEnv("QUALITY_MAX_UPLOAD_MB", "32"), 10, 64); err != nil {
		return nil, fmt.Errorf("QUALITY_MAX_UPLOAD_MB: %w", err)
	}
	if cfg.PoolSize, err = strconv.Atoi(getEnv("QUALITY_POOL_SIZE", "4")); err != nil {
		return nil, fmt.Errorf("QUALITY_POOL_SIZE: %w", err)
	}
	if cfg.ReadTimeout, err = time.ParseDuration(getEnv("QUALITY_READ_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("QUALITY_READ_TIMEOUT: %w", err)
	}
	if cfg.WriteTimeout, err = time.ParseDuration(getEnv("QUALITY_WRITE_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("QUALITY_WRITE_TIMEOUT: %w", err)
	}
	if cfg.Debug, err = strconv.ParseBool(getEnv("DEBUG", "false")); err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
