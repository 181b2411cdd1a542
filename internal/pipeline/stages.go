package pipeline

// Stage names the fixed checkpoints of the extraction pipeline.
type Stage string

const (
	StageReceived Stage = "received"
	StageDecide   Stage = "decide"
	StageOCR      Stage = "ocr"
	StageExtract  Stage = "extract"
	StageRender   Stage = "render"
)

var stageOrder = []Stage{StageReceived, StageDecide, StageOCR, StageExtract, StageRender}

// StageProgress maps a stage boundary to its progress checkpoint:
// five named stages evenly spaced over 0-100.
func StageProgress(stage Stage) int {
	step := 100 / (len(stageOrder) - 1)
	for i, s := range stageOrder {
		if s == stage {
			return i * step
		}
	}
	return 0
}
