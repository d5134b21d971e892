package detections

const (
	// YOLO face model
	DefaultInputSize     = 640
	DefaultConfThreshold = 0.5
	predictionChannels   = 5

	// 68-point landmark model
	DefaultLandmarkInputSize = 112
	DefaultLandmarkCropScale = 1.2

	// pigo cascade
	DefaultMinFaceSize   = 20
	DefaultShiftFactor   = 0.1
	DefaultScaleFactor   = 1.1
	DefaultIoUThreshold  = 0.2
	DefaultMinQuality    = 5.0
	DefaultRotationAngle = 0.05
)
