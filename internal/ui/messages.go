package ui

import (
	"github.com/linuxmatters/jivescrub/internal/processor"
)

// ProgressMsg represents a progress update from the processor
type ProgressMsg struct {
	Stage        int     // 1-7: analysis, five chain stages, encoding
	StageName    string  // "Analysing", "Normalising", ..., "Encoding"
	Progress     float64 // 0.0 to 1.0 across the whole segment
	Level        float64 // Current audio level in dBFS
	Measurements *processor.AudioMeasurements
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex       int
	PeakBefore      float64 // dBFS
	PeakAfter       float64 // dBFS
	NoiseFloorAfter float64 // dBFS
	NoiseReduced    float64 // dB of noise floor improvement
	OutputPath      string
	Truncated       bool
	Error           error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
