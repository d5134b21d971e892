package models

// PoseCategories is the sub-detector table reported alongside a detection score.
// The last two slots are reserved.
var PoseCategories = [7]string{
	"front",
	"left",
	"right",
	"front-rotate-left",
	"front-rotate-right",
	"n/a",
	"n/a",
}

const (
	PoseFront            = 0
	PoseLeft             = 1
	PoseRight            = 2
	PoseFrontRotateLeft  = 3
	PoseFrontRotateRight = 4
)

// PoseCategory returns the table entry for idx, "n/a" when idx is out of range.
func PoseCategory(idx int) string {
	if idx < 0 || idx >= len(PoseCategories) {
		return "n/a"
	}
	return PoseCategories[idx]
}

// NewConfidenceResult builds the reported confidence for a detection.
func NewConfidenceResult(d Detection) *ConfidenceResult {
	return &ConfidenceResult{
		Score:        d.Score,
		PoseCategory: PoseCategory(d.PoseIndex),
		PoseIndex:    d.PoseIndex,
	}
}
