package detections

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Tutortoise/face-quality-service/models"

	"github.com/disintegration/imaging"
)

// YoloConfig describes a single-class YOLOv8 face model exported to ONNX.
type YoloConfig struct {
	ModelPath     string
	InputName     string
	OutputName    string
	InputSize     int
	ConfThreshold float64
	PoolSize      int
}

func (c YoloConfig) withDefaults() YoloConfig {
	if c.InputName == "" {
		c.InputName = "images"
	}
	if c.OutputName == "" {
		c.OutputName = "output0"
	}
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.ConfThreshold <= 0 {
		c.ConfThreshold = DefaultConfThreshold
	}
	return c
}

// numPredictions is the anchor count of a YOLOv8 head with strides 8, 16, 32.
func numPredictions(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := inputSize / stride
		n += side * side
	}
	return n
}

// YoloDetector runs a YOLO face model over a pool of ONNX sessions.
// Every detection it reports is frontal (pose index 0).
type YoloDetector struct {
	cfg  YoloConfig
	pool *ModelSessionPool
}

func NewYoloDetector(cfg YoloConfig) (*YoloDetector, error) {
	cfg = cfg.withDefaults()
	size := int64(cfg.InputSize)
	factory := NewSessionFactory(SessionConfig{
		ModelPath:   cfg.ModelPath,
		InputName:   cfg.InputName,
		OutputName:  cfg.OutputName,
		InputShape:  []int64{1, 3, size, size},
		OutputShape: []int64{1, predictionChannels, int64(numPredictions(cfg.InputSize))},
	})

	pool, err := NewModelSessionPool("face_detector", factory, cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return &YoloDetector{cfg: cfg, pool: pool}, nil
}

func (d *YoloDetector) Pool() *ModelSessionPool {
	return d.pool
}

func (d *YoloDetector) Close() {
	d.pool.Destroy()
}

// Detect returns the faces found in img sorted by descending score, in the
// coordinates of img's bounds.
func (d *YoloDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	session, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire detector session: %w", err)
	}

	resized := imaging.Resize(img, d.cfg.InputSize, d.cfg.InputSize, imaging.Linear)
	packCHW(resized, session.Input.GetData(), d.cfg.InputSize, d.cfg.InputSize)

	if err := session.Run(); err != nil {
		d.pool.Discard(session)
		return nil, fmt.Errorf("model inference: %w", err)
	}

	predictions := append([]float32(nil), session.Output.GetData()...)
	d.pool.Release(session)

	dets, err := decodePredictions(predictions, d.cfg.InputSize, d.cfg.ConfThreshold, b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	merged := clusterDetections(dets)
	if b.Min != (image.Point{}) {
		for i := range merged {
			merged[i].Box.XMin += float64(b.Min.X)
			merged[i].Box.XMax += float64(b.Min.X)
			merged[i].Box.YMin += float64(b.Min.Y)
			merged[i].Box.YMax += float64(b.Min.Y)
		}
	}
	return merged, nil
}

// decodePredictions reads a channel-major [cx, cy, w, h, score] x N output
// whose coordinates are in input pixels.
func decodePredictions(predictions []float32, inputSize int, threshold float64, origWidth, origHeight int) ([]models.Detection, error) {
	if len(predictions) == 0 || len(predictions)%predictionChannels != 0 {
		return nil, fmt.Errorf("unexpected predictions length: %d", len(predictions))
	}
	n := len(predictions) / predictionChannels

	const chunkSize = 512
	numWorkers := runtime.NumCPU()
	jobs := make(chan int, numWorkers)
	results := make(chan []models.Detection, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var local []models.Detection

			for start := range jobs {
				end := start + chunkSize
				if end > n {
					end = n
				}
				for i := start; i < end; i++ {
					score := float64(predictions[4*n+i])
					if score < threshold {
						continue
					}
					box := calculateBBox(
						[4]float32{predictions[i], predictions[n+i], predictions[2*n+i], predictions[3*n+i]},
						float64(inputSize), float64(origWidth), float64(origHeight),
					)
					if !box.Valid() {
						continue
					}
					local = append(local, models.Detection{Box: box, Score: score, PoseIndex: models.PoseFront})
				}
			}

			if len(local) > 0 {
				results <- local
			}
		}()
	}

	go func() {
		for i := 0; i < n; i += chunkSize {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var detections []models.Detection
	for chunk := range results {
		detections = append(detections, chunk...)
	}
	sortDetectionsByScore(detections)
	return detections, nil
}

func calculateBBox(coords [4]float32, inputSize, origWidth, origHeight float64) models.BoundingBox {
	scaleX := origWidth / inputSize
	scaleY := origHeight / inputSize

	cx, cy := float64(coords[0]), float64(coords[1])
	w, h := float64(coords[2]), float64(coords[3])

	return models.BoundingBox{
		XMin: max(0, (cx-w/2)*scaleX),
		YMin: max(0, (cy-h/2)*scaleY),
		XMax: min(origWidth, (cx+w/2)*scaleX),
		YMax: min(origHeight, (cy+h/2)*scaleY),
	}
}
