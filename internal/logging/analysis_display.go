// Package logging renders analysis output and processing reports for
// cleaned speech segments. This file provides the console display for
// analysis-only mode.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/jivescrub/internal/processor"
)

// DisplayAnalysisResults writes segment measurements to the console.
// Used by --analyze mode for rapid inspection without processing.
// config carries the settings processing would use; pass the adapted
// config to preview what auto-tuning decided.
func DisplayAnalysisResults(w io.Writer, inputPath string, m *processor.AudioMeasurements, config *processor.ChainConfig) {
	// Header
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	// File info
	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(m.DurationSeconds))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", m.SampleRate)
	fmt.Fprintln(w)

	// Levels section
	writeAnalysisSection(w, "LEVELS")
	fmt.Fprintf(w, "  Peak Level:     %.1f dBFS\n", m.PeakLevel)
	fmt.Fprintf(w, "  RMS Level:      %.1f dBFS\n", m.RMSLevel)
	fmt.Fprintf(w, "  RMS Trough:     %.1f dBFS\n", m.RMSTrough)
	fmt.Fprintf(w, "  Crest Factor:   %.1f dB\n", m.PeakLevel-m.RMSLevel)
	fmt.Fprintf(w, "  Dynamic Range:  %.1f dB\n", m.DynamicRange)
	if m.ClippedRatio > 0 {
		fmt.Fprintf(w, "  Clipped:        %.2f%% of samples\n", m.ClippedRatio*100)
	}
	fmt.Fprintln(w)

	// Noise section
	writeAnalysisSection(w, "NOISE")
	fmt.Fprintf(w, "  Noise Floor:    %.1f dBFS\n", m.NoiseFloor)
	fmt.Fprintf(w, "  SNR:            %.1f dB (speech-to-noise gap)\n", m.RMSLevel-m.NoiseFloor)
	if m.MainsFrequency > 0 {
		fmt.Fprintf(w, "  Mains Hum:      %.1f dBFS (%dHz fundamental and harmonics)\n",
			m.HumLevel, m.MainsFrequency)
	} else {
		fmt.Fprintln(w, "  Mains Hum:      not measured")
	}
	fmt.Fprintln(w)

	// Spectrum section
	writeAnalysisSection(w, "SPECTRUM")
	fmt.Fprintf(w, "  Centroid:       %.0f Hz (%s)\n", m.SpectralCentroid, interpretCentroid(m.SpectralCentroid))
	fmt.Fprintf(w, "  Rolloff:        %.0f Hz (%s)\n", m.SpectralRolloff, interpretRolloff(m.SpectralRolloff))
	fmt.Fprintln(w)

	// Processing plan section
	if config != nil {
		writeAnalysisSection(w, "PROCESSING PLAN")
		fmt.Fprintf(w, "  Band-pass:      %.0f-%.0f Hz (order %d)\n", config.LowCut, config.HighCut, config.FilterOrder)
		tunedMark := ""
		if config.AutoTune {
			tunedMark = " (auto-tuned)"
		}
		fmt.Fprintf(w, "  Gate Strength:  %.1fx%s\n", config.DenoiseStrength, tunedMark)
		fmt.Fprintf(w, "  Gate Floor:     %.2f%s\n", config.DenoiseFloor, tunedMark)
		fmt.Fprintf(w, "  Gain:           %.1fx%s\n", config.Gain, tunedMark)
		fmt.Fprintf(w, "  Target Peak:    %.2f\n", config.NormTarget)
		fmt.Fprintln(w)
	}

	// Recording tips section
	tips := GenerateRecordingTips(m)
	writeAnalysisSection(w, "RECORDING TIPS")
	if len(tips) == 0 {
		fmt.Fprintln(w, "  No issues detected - recording levels look healthy.")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "  %d. %s\n", i+1, wrapText(tip.Message, 64, "     "))
	}
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}

// interpretCentroid describes spectral "brightness" based on centre of gravity.
//
// Centroid is the "centre of gravity" of the spectrum - where spectral
// energy is concentrated. Reference values for voiced speech sit between
// 500 Hz (male, dark) and 3500 Hz (female, bright); unvoiced consonants
// push higher. Measured against the 8kHz Nyquist of the working rate.
func interpretCentroid(hz float64) string {
	switch {
	case hz <= 0:
		return "not measured"
	case hz < 500:
		return "very dark, bass-heavy"
	case hz < 1500:
		return "warm, full-bodied"
	case hz < 2500:
		return "balanced, natural voice"
	case hz < 4000:
		return "present, forward"
	default:
		return "very bright, potentially harsh"
	}
}

// interpretRolloff describes effective bandwidth via the 85% energy
// threshold: the frequency below which 85% of spectral energy resides.
func interpretRolloff(hz float64) string {
	switch {
	case hz <= 0:
		return "not measured"
	case hz < 1500:
		return "dark, muffled, heavy filtering"
	case hz < 3000:
		return "warm, controlled high frequencies"
	case hz < 5000:
		return "balanced brightness, natural speech"
	case hz < 6500:
		return "bright, airy, good articulation"
	default:
		return "very bright, significant sibilance"
	}
}
