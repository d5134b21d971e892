package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tutortoise/face-quality-service/detections"
	"github.com/Tutortoise/face-quality-service/quality"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// loadedModels bundles the process-wide detector and landmark predictor.
type loadedModels struct {
	detector  quality.FaceDetector
	predictor *detections.LandmarkPredictor
	pools     []*detections.ModelSessionPool
	closers   []func()
}

func (m *loadedModels) Close() {
	for i := len(m.closers) - 1; i >= 0; i-- {
		m.closers[i]()
	}
}

func loadModels(cfg *Config, paths *ModelPaths, log *logrus.Logger) (*loadedModels, error) {
	if err := detections.InitializeRuntime(cfg.ONNXRuntime); err != nil {
		return nil, err
	}

	m := &loadedModels{closers: []func(){func() {
		if err := detections.ShutdownRuntime(); err != nil {
			log.WithError(err).Warn("Failed to shut down ONNX runtime")
		}
	}}}

	predictor, err := detections.NewLandmarkPredictor(detections.LandmarkConfig{
		ModelPath: paths.LandmarkModel,
		PoolSize:  cfg.PoolSize,
	})
	if err != nil {
		m.Close()
		return nil, err
	}
	m.predictor = predictor
	m.pools = append(m.pools, predictor.Pool())
	m.closers = append(m.closers, predictor.Close)

	switch cfg.Detector {
	case DetectorONNX:
		yolo, err := detections.NewYoloDetector(detections.YoloConfig{
			ModelPath: paths.DetectorModel,
			PoolSize:  cfg.PoolSize,
		})
		if err != nil {
			m.Close()
			return nil, err
		}
		m.detector = yolo
		m.pools = append(m.pools, yolo.Pool())
		m.closers = append(m.closers, yolo.Close)
		log.WithField("model", paths.DetectorModel).Info("Using ONNX face detector")
	default:
		pigoDetector, err := detections.LoadPigoDetector(paths.Cascade, detections.DefaultPigoParams())
		if err != nil {
			m.Close()
			return nil, err
		}
		m.detector = pigoDetector
		log.WithField("cascade", paths.Cascade).Info("Using pigo face detector")
	}

	return m, nil
}

func main() {
	validate := validator.New()

	cfg, err := LoadConfig(validate)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := NewLogger(cfg)

	paths, err := resolveModels(cfg)
	if err != nil {
		log.Fatal(err)
	}

	loaded, err := loadModels(cfg, paths, log)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}
	defer loaded.Close()

	state := &AppState{
		Config: cfg,
		Log:    log,
		Assessor: quality.NewAssessor(
			loaded.detector,
			loaded.predictor,
			quality.WithLogger(log),
			quality.WithValidator(validate),
		),
		Pools: loaded.pools,
	}

	srv := &http.Server{
		Handler:      state.Router(),
		Addr:         cfg.Addr(),
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
	}

	go func() {
		log.Infof("Starting %s %s on %s", ServiceName, ServiceVersion, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
