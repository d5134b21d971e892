package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Tutortoise/face-quality-service/client"
	"github.com/Tutortoise/face-quality-service/models"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

func parseBox(s string) (*models.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("box must be x_min,y_min,x_max,y_max, got %q", s)
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("box value %q: %w", p, err)
		}
		v[i] = f
	}
	return &models.BoundingBox{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}, nil
}

func logFaces(log *logrus.Logger, faces []models.FaceAssessment) {
	log.Infof("Found %d face(s)", len(faces))
	for i, face := range faces {
		entry := log.WithFields(logrus.Fields{
			"face": i + 1,
			"box":  fmt.Sprintf("(%g, %g) to (%g, %g)", face.Box.XMin, face.Box.YMin, face.Box.XMax, face.Box.YMax),
			"size": fmt.Sprintf("%dx%d", face.CroppedSize[0], face.CroppedSize[1]),
		})
		if face.Confidence != nil {
			entry = entry.WithFields(logrus.Fields{
				"score": face.Confidence.Score,
				"type":  face.Confidence.PoseCategory,
			})
		}
		entry.Info("Face")
	}
}

func main() {
	defaultURL := os.Getenv("QUALITY_SERVICE_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:6001"
	}

	url := flag.String("url", defaultURL, "quality service base URL")
	imagePath := flag.String("image", "test_image.jpg", "image to send")
	boxArg := flag.String("box", "50,50,200,200", "face box for /quality/assess as x_min,y_min,x_max,y_max")
	output := flag.String("out", filepath.Join(os.TempDir(), "preprocessed_test.jpg"), "where to write the preprocessed image")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&formatter.Formatter{
		TimestampFormat: "15:04:05",
		HideKeys:        false,
	})

	box, err := parseBox(*boxArg)
	if err != nil {
		log.Fatal(err)
	}

	c := client.New(*url)
	c.SetTimeout(*timeout)
	ctx := context.Background()

	log.Infof("Service URL: %s", c.BaseURL)

	health, err := c.Health(ctx)
	if err != nil {
		log.WithError(err).Fatal("Service not healthy, aborting")
	}
	log.Infof("Health check passed: %s %s is %s", health.Service, health.Version, health.Status)

	imageData, err := os.ReadFile(*imagePath)
	if err != nil {
		log.WithError(err).Warn("No test image, skipping image-based checks")
		return
	}
	log.Infof("Using test image: %s", *imagePath)

	failed := false

	start := time.Now()
	if faces, err := c.Detect(ctx, imageData); err != nil {
		log.WithError(err).Error("Detection failed")
		failed = true
	} else {
		log.WithField("took", time.Since(start)).Info("Detection completed")
		logFaces(log, faces)
	}

	start = time.Now()
	if faces, err := c.Assess(ctx, imageData, []models.FaceRequest{{Box: box}}); err != nil {
		log.WithError(err).Error("Assessment failed")
		failed = true
	} else {
		log.WithField("took", time.Since(start)).Info("Assessment completed")
		logFaces(log, faces)
	}

	start = time.Now()
	if enhanced, err := c.Preprocess(ctx, imageData); err != nil {
		log.WithError(err).Error("Preprocessing failed")
		failed = true
	} else if err := os.WriteFile(*output, enhanced, 0o644); err != nil {
		log.WithError(err).Error("Failed to save preprocessed image")
		failed = true
	} else {
		log.WithFields(logrus.Fields{
			"took":  time.Since(start),
			"bytes": len(enhanced),
			"path":  *output,
		}).Info("Preprocessing completed")
	}

	if failed {
		os.Exit(1)
	}
}
