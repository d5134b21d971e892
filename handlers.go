package main

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"time"

	"github.com/Tutortoise/face-quality-service/detections"
	"github.com/Tutortoise/face-quality-service/models"
	"github.com/Tutortoise/face-quality-service/quality"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	ServiceName    = "quality-service"
	ServiceVersion = "1.0.0"
)

type AppState struct {
	Config   *Config
	Log      *logrus.Logger
	Assessor *quality.Assessor
	Pools    []*detections.ModelSessionPool
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type FacesResponse struct {
	Faces []models.FaceAssessment `json:"faces"`
}

type MetricsResponse struct {
	Pools []detections.PoolStats `json:"pools"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *AppState) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware(), loggingMiddleware(s.Log))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/quality/assess", s.handleAssess).Methods(http.MethodPost)
	r.HandleFunc("/quality/detect", s.handleDetect).Methods(http.MethodPost)
	r.HandleFunc("/quality/preprocess", s.handlePreprocess).Methods(http.MethodPost)

	s.addMonitoringRoutes(r)
	return r
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
}

func (s *AppState) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: ServiceVersion,
	})
}

func (s *AppState) handleAssess(w http.ResponseWriter, r *http.Request) {
	startTotal := time.Now()
	ctx := r.Context()
	timings := &models.ProcessingTimings{RequestID: requestIDFrom(ctx)}

	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes())
	data, faces, err := readAssessRequest(r, s.Config.MaxUploadBytes())
	if err != nil {
		s.sendRequestError(w, err)
		return
	}

	img, ok := s.decode(w, data, timings)
	if !ok {
		return
	}

	assessStart := time.Now()
	results := s.Assessor.Assess(ctx, img, faces)
	timings.Assessment = time.Since(assessStart)

	encodeStart := time.Now()
	sendJSON(w, http.StatusOK, FacesResponse{Faces: results})
	timings.Encode = time.Since(encodeStart)

	timings.Total = time.Since(startTotal)
	s.logTimings(timings)
}

func (s *AppState) handleDetect(w http.ResponseWriter, r *http.Request) {
	startTotal := time.Now()
	ctx := r.Context()
	timings := &models.ProcessingTimings{RequestID: requestIDFrom(ctx)}

	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes())
	data, err := readImageUpload(r, s.Config.MaxUploadBytes())
	if err != nil {
		s.sendRequestError(w, err)
		return
	}

	img, ok := s.decode(w, data, timings)
	if !ok {
		return
	}

	assessStart := time.Now()
	results, err := s.Assessor.DetectEnhanced(ctx, img)
	timings.Assessment = time.Since(assessStart)
	if err != nil {
		s.Log.WithField(RequestIDKey, timings.RequestID).WithError(err).Error("Detection failed")
		sendErrorResponse(w, "processing_error", "Detection failed", err.Error(), http.StatusInternalServerError)
		return
	}

	encodeStart := time.Now()
	sendJSON(w, http.StatusOK, FacesResponse{Faces: results})
	timings.Encode = time.Since(encodeStart)

	timings.Total = time.Since(startTotal)
	s.logTimings(timings)
}

func (s *AppState) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	startTotal := time.Now()
	timings := &models.ProcessingTimings{RequestID: requestIDFrom(r.Context())}

	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes())
	data, err := readImageUpload(r, s.Config.MaxUploadBytes())
	if err != nil {
		s.sendRequestError(w, err)
		return
	}

	img, ok := s.decode(w, data, timings)
	if !ok {
		return
	}

	assessStart := time.Now()
	enhanced := quality.Equalize(img)
	timings.Assessment = time.Since(assessStart)

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, enhanced, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		sendErrorResponse(w, "encode_error", "Failed to encode result", err.Error(), http.StatusInternalServerError)
		return
	}
	timings.Encode = time.Since(encodeStart)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", `inline; filename="enhanced.jpg"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())

	timings.Total = time.Since(startTotal)
	s.logTimings(timings)
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	response := MetricsResponse{Pools: make([]detections.PoolStats, 0, len(s.Pools))}
	for _, pool := range s.Pools {
		response.Pools = append(response.Pools, pool.GetMetrics())
	}
	sendJSON(w, http.StatusOK, response)
}

// decode writes the 400 response itself when the image is unreadable.
func (s *AppState) decode(w http.ResponseWriter, data []byte, timings *models.ProcessingTimings) (image.Image, bool) {
	decodeStart := time.Now()
	img, err := decodeImage(data)
	timings.ImageDecode = time.Since(decodeStart)
	if err != nil {
		s.Log.WithField(RequestIDKey, timings.RequestID).WithError(err).Warn("Failed to load image")
		sendErrorResponse(w, "invalid_image", "Failed to load image", err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return img, true
}

func (s *AppState) sendRequestError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		sendErrorResponse(w, "payload_too_large", "Request body too large", err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
}

func (s *AppState) logTimings(t *models.ProcessingTimings) {
	if !s.Config.Debug {
		return
	}
	s.Log.WithFields(logrus.Fields{
		RequestIDKey:   t.RequestID,
		"image_decode": t.ImageDecode,
		"assessment":   t.Assessment,
		"encode":       t.Encode,
		"total":        t.Total,
	}).Debug("Processing times")
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendErrorResponse(w http.ResponseWriter, code, message, details string, status int) {
	sendJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
