// Package processor handles audio analysis and processing
package processor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/jivescrub/internal/audio"
	"github.com/linuxmatters/jivescrub/internal/capture"
	"github.com/linuxmatters/jivescrub/internal/mains"
)

// Result contains the outcome of cleaning one segment
type Result struct {
	InputPath  string
	OutputPath string
	Before     *AudioMeasurements // input analysis
	After      *AudioMeasurements // output analysis
	Config     *ChainConfig       // contains adaptive parameters used
	Truncated  bool               // input exceeded the segment cap; trailing window kept
	Elapsed    time.Duration
}

// ProcessFile cleans a recording from disk. The file is decoded to mono at
// the configured capture rate, bounded to the segment limits (audio under
// the minimum is rejected, audio over the maximum keeps only the most
// recent window), conditioned and written next to the input as
// <basename>-processed.wav.
//
// If progressCallback is not nil it receives updates through every step.
func ProcessFile(inputPath string, config *ChainConfig, progressCallback ProgressFunc) (*Result, error) {
	if config == nil {
		config = DefaultChainConfig()
	}

	wave, err := audio.DecodeFileAt(inputPath, config.CaptureRate)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(inputPath), err)
	}

	samples, truncated, err := boundSegment(wave.Samples, wave.SampleRate, config)
	if err != nil {
		return nil, err
	}
	wave = &audio.Waveform{Samples: samples, SampleRate: wave.SampleRate}

	result, err := ProcessSegment(wave, generateOutputPath(inputPath), config, progressCallback)
	if err != nil {
		return nil, err
	}
	result.InputPath = inputPath
	result.Truncated = truncated
	return result, nil
}

// ProcessSegment analyses, conditions and encodes a bounded segment.
// Capture mode calls this directly with the accumulator's output; file
// mode arrives via ProcessFile. The segment is assumed to already satisfy
// the length policy.
func ProcessSegment(wave *audio.Waveform, outputPath string, config *ChainConfig, progressCallback ProgressFunc) (*Result, error) {
	if config == nil {
		config = DefaultChainConfig()
	}
	start := time.Now()

	// Steps for progress reporting: analysis, the conditioning chain,
	// then encoding.
	totalSteps := float64(len(StageOrder) + 2)
	report := func(step int, name string, overall, level float64, m *AudioMeasurements) {
		if progressCallback != nil {
			progressCallback(step, name, overall, level, m)
		}
	}

	report(1, "Analysing", 0, signalLevelDb(wave.Samples), nil)
	mainsHz := mains.Frequency()
	before := AnalyzeWaveform(wave.Samples, wave.SampleRate, mainsHz)
	report(1, "Analysing", 1/totalSteps, before.RMSLevel, before)

	if config.AutoTune {
		AdaptConfig(config, before)
	}

	pipeline := NewPipeline(config)
	cleaned, err := pipeline.Run(wave.Samples, wave.SampleRate, func(stage int, name string, chainProgress, level float64, _ *AudioMeasurements) {
		overall := (1 + chainProgress*float64(len(StageOrder))) / totalSteps
		report(stage+1, name, overall, level, nil)
	})
	if err != nil {
		return nil, err
	}

	after := AnalyzeWaveform(cleaned, wave.SampleRate, mainsHz)
	lastStep := len(StageOrder) + 2
	report(lastStep, "Encoding", (totalSteps-1)/totalSteps, after.RMSLevel, nil)

	out := &audio.Waveform{Samples: cleaned, SampleRate: wave.SampleRate}
	if err := audio.EncodeFile(outputPath, out); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", filepath.Base(outputPath), err)
	}
	report(lastStep, "Encoding", 1.0, after.RMSLevel, after)

	return &Result{
		OutputPath: outputPath,
		Before:     before,
		After:      after,
		Config:     config,
		Elapsed:    time.Since(start),
	}, nil
}

// boundSegment applies the segment length policy to decoded audio: reject
// under the minimum, keep the trailing window over the maximum. It shares
// the capture package's sentinel so callers handle uploads and live takes
// with one check.
func boundSegment(samples []float64, sampleRate int, config *ChainConfig) ([]float64, bool, error) {
	need := int(config.MinSegmentSeconds * float64(sampleRate))
	if len(samples) < need {
		return nil, false, fmt.Errorf("%w: have %.2fs, need %.2fs",
			capture.ErrInsufficientAudio,
			float64(len(samples))/float64(sampleRate), config.MinSegmentSeconds)
	}

	maxSamples := int(config.MaxSegmentSeconds * float64(sampleRate))
	if maxSamples > 0 && len(samples) > maxSamples {
		return samples[len(samples)-maxSamples:], true, nil
	}
	return samples, false, nil
}

// generateOutputPath creates the output filename from the input filename
// Example: /path/to/clip.flac → /path/to/clip-processed.wav
func generateOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	filename := filepath.Base(inputPath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	return filepath.Join(dir, nameWithoutExt+"-processed.wav")
}
