// This file generates the markdown processing report written next to the
// cleaned output when --report is set.

package logging

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/linuxmatters/jivescrub/internal/audio"
	"github.com/linuxmatters/jivescrub/internal/processor"
)

// ReportData contains the information needed to generate a processing report.
type ReportData struct {
	Result    *processor.Result
	StartTime time.Time
	EndTime   time.Time
}

// ReportPath returns the report location for a cleaned output file:
// <output>-processed.wav becomes <output>-processed-report.md.
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "-report.md"
}

// GenerateReport writes a markdown pre/post cleaning report next to the
// output file.
//
// Report structure:
//  1. Header - file info, duration, timing
//  2. Summary - quality verdict and headline improvements
//  3. Measurements - before/after/change table
//  4. Frequency Band Energy - spectral energy share per band
//  5. Noise Analysis - floor, speech-to-noise gap, hum
//  6. Pipeline Settings - the parameters processing actually used
//  7. Recording Tips - advice derived from the input measurements
func GenerateReport(data ReportData) error {
	if data.Result == nil {
		return fmt.Errorf("no processing result to report on")
	}

	path := ReportPath(data.Result.OutputPath)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return nil
}

// WriteReport renders the full report to w.
func WriteReport(w io.Writer, data ReportData) {
	r := data.Result

	writeReportHeader(w, data)
	writeReportSummary(w, r)
	writeMeasurementsTable(w, r.Before, r.After)
	writeBandEnergyTable(w, r)
	writeNoiseAnalysis(w, r.Before, r.After)
	writePipelineSettings(w, r.Config)
	writeReportTips(w, r.Before)
}

func writeReportHeader(w io.Writer, data ReportData) {
	r := data.Result

	endTime := data.EndTime
	if endTime.IsZero() {
		endTime = time.Now()
	}

	fmt.Fprintln(w, "# Jivescrub Processing Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Input:** %s\n", r.InputPath)
	fmt.Fprintf(w, "- **Output:** %s\n", r.OutputPath)
	fmt.Fprintf(w, "- **Date:** %s\n", endTime.Format("2006-01-02 15:04:05"))
	if r.After != nil {
		fmt.Fprintf(w, "- **Duration:** %s at %d Hz\n",
			formatDurationHMS(r.After.DurationSeconds), r.After.SampleRate)
	}
	fmt.Fprintf(w, "- **Processing Time:** %s\n", r.Elapsed.Round(time.Millisecond))
	if r.Truncated {
		fmt.Fprintln(w, "- **Note:** input exceeded the segment cap; only the most recent window was processed")
	}
	fmt.Fprintln(w)
}

func writeReportSummary(w io.Writer, r *processor.Result) {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintln(w)

	rating, description := assessQuality(r.After)
	fmt.Fprintf(w, "**Result: %s** - %s\n", rating, description)
	fmt.Fprintln(w)

	if r.Before == nil || r.After == nil {
		return
	}

	floorGain := r.Before.NoiseFloor - r.After.NoiseFloor
	if floorGain > 0.5 {
		fmt.Fprintf(w, "Noise floor improved by %.1f dB (%.1f to %.1f dBFS). ",
			floorGain, r.Before.NoiseFloor, r.After.NoiseFloor)
	}
	snrBefore := signalToNoise(r.Before)
	snrAfter := signalToNoise(r.After)
	if !math.IsNaN(snrBefore) && !math.IsNaN(snrAfter) && snrAfter > snrBefore+0.5 {
		fmt.Fprintf(w, "The speech-to-noise gap widened from %.1f to %.1f dB.",
			snrBefore, snrAfter)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// assessQuality rates the cleaned output. Ratings follow the same
// thresholds the tips engine warns at, so a "Poor" verdict always comes
// with a matching tip further down the report.
func assessQuality(m *processor.AudioMeasurements) (rating, description string) {
	if m == nil {
		return "Unknown", "the output could not be measured."
	}

	snr := signalToNoise(m)
	switch {
	case m.ClippedRatio > 0.001:
		return "Poor", "the output contains clipped samples; reduce the gain and reprocess."
	case m.RMSLevel < -40.0:
		return "Poor", "the output is still very quiet; the input level was too low to recover."
	case !math.IsNaN(snr) && snr < 15.0:
		return "Poor", "background noise still competes with the speech."
	case !math.IsNaN(snr) && snr < 25.0:
		return "Fair", "speech is clear but noise remains audible in pauses."
	case m.RMSLevel < -30.0:
		return "Fair", "levels are on the quiet side but the recording is clean."
	case !math.IsNaN(snr) && snr < 40.0:
		return "Good", "levels are healthy and the noise floor is low."
	default:
		return "Excellent", "strong speech level over a very quiet noise floor."
	}
}

// signalToNoise returns the speech-to-noise gap in dB, or NaN when the
// speech level was not measurable.
func signalToNoise(m *processor.AudioMeasurements) float64 {
	if m == nil || m.RMSLevel <= DigitalSilenceThreshold+1 {
		return math.NaN()
	}
	return m.RMSLevel - m.NoiseFloor
}

func writeMeasurementsTable(w io.Writer, before, after *processor.AudioMeasurements) {
	if before == nil || after == nil {
		return
	}

	fmt.Fprintln(w, "## Measurements")
	fmt.Fprintln(w)

	table := NewMetricTable()
	table.AddMetricDBRow("Peak Level", before.PeakLevel, after.PeakLevel, "dBFS", "")
	table.AddMetricDBRow("RMS Level", before.RMSLevel, after.RMSLevel, "dBFS", "")
	table.AddMetricDBRow("RMS Trough", before.RMSTrough, after.RMSTrough, "dBFS", "")
	table.AddMetricDBRow("Noise Floor", before.NoiseFloor, after.NoiseFloor, "dBFS", "")
	table.AddMetricDBRow("Dynamic Range", before.DynamicRange, after.DynamicRange, "dB", "")
	table.AddMetricDBRow("Speech-to-Noise", signalToNoise(before), signalToNoise(after), "dB", "")
	table.AddMetricDBRow("Mains Hum", before.HumLevel, after.HumLevel, "dBFS", "")
	table.AddMetricHzRow("Spectral Centroid", before.SpectralCentroid, after.SpectralCentroid,
		interpretCentroid(after.SpectralCentroid))
	table.AddMetricHzRow("Spectral Rolloff", before.SpectralRolloff, after.SpectralRolloff,
		interpretRolloff(after.SpectralRolloff))

	fmt.Fprintln(w, "```text")
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "```")
	fmt.Fprintln(w)
}

// frequencyBands partitions the working-rate spectrum for the energy
// table. The passband note marks bands the band-pass filter attenuates.
var frequencyBands = []struct {
	name        string
	lowFreq     float64
	highFreq    float64
	description string
}{
	{"Sub-bass", 20, 60, "rumble and mains fundamentals"},
	{"Bass", 60, 250, "room rumble and plosive energy below the voice"},
	{"Low-midrange", 250, 500, "vocal warmth and chest resonance"},
	{"Midrange", 500, 2000, "vowel energy, the core of speech"},
	{"Upper-midrange", 2000, 2800, "consonant definition and articulation"},
	{"Presence", 2800, 5000, "sibilance and attack, above the passband"},
	{"Brilliance", 5000, 8000, "air and hiss, above the passband"},
}

func writeBandEnergyTable(w io.Writer, r *processor.Result) {
	beforeShares := bandEnergySharesOfFile(r.InputPath, workingRate(r))
	afterShares := bandEnergySharesOfFile(r.OutputPath, 0)
	if beforeShares == nil && afterShares == nil {
		return
	}

	fmt.Fprintln(w, "## Frequency Band Energy")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Band | Range (Hz) | Before | After | Characteristic |")
	fmt.Fprintln(w, "|------|------------|-------:|------:|----------------|")
	for i, band := range frequencyBands {
		fmt.Fprintf(w, "| %s | %.0f-%.0f | %s | %s | %s |\n",
			band.name, band.lowFreq, band.highFreq,
			formatShare(beforeShares, i), formatShare(afterShares, i),
			band.description)
	}
	fmt.Fprintln(w)
}

func workingRate(r *processor.Result) int {
	if r.Config != nil && r.Config.CaptureRate > 0 {
		return r.Config.CaptureRate
	}
	if r.After != nil && r.After.SampleRate > 0 {
		return r.After.SampleRate
	}
	return 0
}

func formatShare(shares []float64, i int) string {
	if shares == nil || i >= len(shares) {
		return MissingValue
	}
	return fmt.Sprintf("%.1f%%", shares[i])
}

// bandEnergySharesOfFile decodes a file and measures its band energy
// distribution. targetRate resamples before measuring so the before and
// after columns cover the same spectrum; zero keeps the native rate.
// Returns nil when the file cannot be decoded, which skips the column.
func bandEnergySharesOfFile(path string, targetRate int) []float64 {
	var wave *audio.Waveform
	var err error
	if targetRate > 0 {
		wave, err = audio.DecodeFileAt(path, targetRate)
	} else {
		wave, err = audio.DecodeFile(path)
	}
	if err != nil {
		return nil
	}
	return bandEnergyShares(wave.Samples, wave.SampleRate)
}

// bandEnergyShares measures the percentage of spectral energy in each
// frequency band using windowed FFT power summed across the segment.
func bandEnergyShares(samples []float64, sampleRate int) []float64 {
	const windowSize = 1024
	if len(samples) < windowSize || sampleRate <= 0 {
		return nil
	}

	hopSize := windowSize / 2
	numWindows := (len(samples) - windowSize) / hopSize
	if numWindows < 1 {
		numWindows = 1
	}

	fft := fourier.NewFFT(windowSize)
	freqResolution := float64(sampleRate) / float64(windowSize)
	energies := make([]float64, len(frequencyBands))

	window := make([]float64, windowSize)
	for i := 0; i < numWindows; i++ {
		start := i * hopSize
		copy(window, samples[start:start+windowSize])
		for j := range window {
			window[j] *= 0.5 * (1 - math.Cos(2*math.Pi*float64(j)/float64(windowSize-1)))
		}

		spectrum := fft.Coefficients(nil, window)
		for bin := 1; bin < windowSize/2; bin++ {
			freq := freqResolution * float64(bin)
			magnitude := cmplx.Abs(spectrum[bin])
			power := magnitude * magnitude

			for b, band := range frequencyBands {
				if freq >= band.lowFreq && freq < band.highFreq {
					energies[b] += power
					break
				}
			}
		}
	}

	var total float64
	for _, e := range energies {
		total += e
	}
	if total <= 0 {
		return nil
	}

	shares := make([]float64, len(energies))
	for i, e := range energies {
		shares[i] = e / total * 100
	}
	return shares
}

func writeNoiseAnalysis(w io.Writer, before, after *processor.AudioMeasurements) {
	if before == nil || after == nil {
		return
	}

	fmt.Fprintln(w, "## Noise Analysis")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Before | After | Interpretation |")
	fmt.Fprintln(w, "|--------|-------:|------:|----------------|")
	fmt.Fprintf(w, "| Noise Floor | %s dBFS | %s dBFS | %s |\n",
		formatMetricDB(before.NoiseFloor, 1), formatMetricDB(after.NoiseFloor, 1),
		interpretNoiseFloor(after.NoiseFloor))
	fmt.Fprintf(w, "| Speech-to-Noise Gap | %s dB | %s dB | %s |\n",
		formatMetricDB(signalToNoise(before), 1), formatMetricDB(signalToNoise(after), 1),
		interpretSNR(signalToNoise(after)))
	if before.MainsFrequency > 0 {
		fmt.Fprintf(w, "| Mains Hum (%dHz) | %s dBFS | %s dBFS | %s |\n",
			before.MainsFrequency,
			formatMetricDB(before.HumLevel, 1), formatMetricDB(after.HumLevel, 1),
			interpretHum(after.HumLevel))
	}
	fmt.Fprintln(w)
}

// interpretNoiseFloor describes a noise floor reading against the
// thresholds the tips engine and adaptive tuner use.
func interpretNoiseFloor(db float64) string {
	switch {
	case db > -45:
		return "intrusive background noise"
	case db > -55:
		return "audible in pauses"
	case db > -70:
		return "quiet room"
	default:
		return "studio quiet"
	}
}

// interpretSNR describes the gap between speech and the noise floor.
func interpretSNR(db float64) string {
	switch {
	case math.IsNaN(db):
		return "not measured"
	case db < 15:
		return "noise competes with speech"
	case db < 25:
		return "noise noticeable behind speech"
	case db < 40:
		return "clean enough for speech"
	default:
		return "studio clean"
	}
}

// interpretHum describes a mains hum reading.
func interpretHum(db float64) string {
	switch {
	case db > -40:
		return "clearly audible"
	case db > -55:
		return "audible in pauses"
	case db > -80:
		return "barely perceptible"
	default:
		return "inaudible"
	}
}

func writePipelineSettings(w io.Writer, cfg *processor.ChainConfig) {
	if cfg == nil {
		return
	}

	autoTune := "off"
	if cfg.AutoTune {
		autoTune = "on"
	}

	fmt.Fprintln(w, "## Pipeline Settings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Parameter | Value | Description |")
	fmt.Fprintln(w, "|-----------|-------|-------------|")
	fmt.Fprintf(w, "| Band-pass | %.0f-%.0f Hz (order %d) | Butterworth passband around the speech core |\n",
		cfg.LowCut, cfg.HighCut, cfg.FilterOrder)
	fmt.Fprintf(w, "| Gate Strength | %.1fx | over-subtraction applied to the noise profile |\n",
		cfg.DenoiseStrength)
	fmt.Fprintf(w, "| Gate Floor | %.2f | spectral floor as a share of input magnitude |\n",
		cfg.DenoiseFloor)
	fmt.Fprintf(w, "| Gain | %.1fx | amplification into the hard clipper |\n", cfg.Gain)
	fmt.Fprintf(w, "| Target Peak | %.2f | normalisation target before encoding |\n", cfg.NormTarget)
	fmt.Fprintf(w, "| Auto-tune | %s | measurement-driven parameter adaptation |\n", autoTune)
	fmt.Fprintln(w)
}

func writeReportTips(w io.Writer, before *processor.AudioMeasurements) {
	fmt.Fprintln(w, "## Recording Tips")
	fmt.Fprintln(w)

	tips := GenerateRecordingTips(before)
	if len(tips) == 0 {
		fmt.Fprintln(w, "No recording issues detected.")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, tip.Message)
	}
}
