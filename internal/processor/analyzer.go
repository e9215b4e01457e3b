// Package processor handles audio analysis and processing
package processor

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/linuxmatters/jivescrub/internal/mains"
)

// Analysis parameters. The 50ms window is long enough for a stable RMS
// reading yet short enough to isolate pauses between words, which is where
// the noise floor shows itself.
const (
	// analysisWindowSeconds is the RMS measurement window length.
	analysisWindowSeconds = 0.05

	// noiseFloorPercentile selects the quiet end of the windowed RMS
	// distribution. The 20th percentile sits in the pauses without being
	// dragged down by a single dead window.
	noiseFloorPercentile = 0.20

	// rolloffFraction is the share of total spectral energy below the
	// reported rolloff frequency.
	rolloffFraction = 0.85

	// spectralWindowSize is the FFT length for centroid, rolloff and hum
	// measurements.
	spectralWindowSize = 1024

	// clipThreshold marks a sample as clipped. Slightly under full scale
	// catches codecs that round peaks to just below ±1.
	clipThreshold = 0.999
)

// AudioMeasurements contains the analysis results for a speech segment
type AudioMeasurements struct {
	PeakLevel    float64 `json:"peak_level"`    // Overall peak level (dBFS)
	RMSLevel     float64 `json:"rms_level"`     // Overall RMS level (dBFS)
	RMSTrough    float64 `json:"rms_trough"`    // RMS of the quietest 50ms window (dBFS)
	NoiseFloor   float64 `json:"noise_floor"`   // Estimated noise floor (dBFS)
	DynamicRange float64 `json:"dynamic_range"` // PeakLevel - RMSTrough (dB)

	// Spectral analysis for recording tips and adaptive tuning
	SpectralCentroid float64 `json:"spectral_centroid"` // Average spectral centroid (Hz) - where energy is concentrated
	SpectralRolloff  float64 `json:"spectral_rolloff"`  // Average spectral rolloff (Hz) - high-frequency energy dropoff point

	// Mains hum measurement
	HumLevel       float64 `json:"hum_level"`       // Estimated level at the mains fundamental and first harmonics (dBFS)
	MainsFrequency int     `json:"mains_frequency"` // Mains frequency used for the hum measurement (Hz)

	ClippedRatio    float64 `json:"clipped_ratio"`    // Fraction of samples at or beyond full scale
	DurationSeconds float64 `json:"duration_seconds"` // Segment length (s)
	SampleRate      int     `json:"sample_rate"`      // Hz
}

// AnalyzeWaveform measures a segment for display, recording tips and
// adaptive tuning. mainsHz selects the hum measurement frequency (50 or
// 60); a non-positive value skips the hum measurement.
func AnalyzeWaveform(samples []float64, sampleRate, mainsHz int) *AudioMeasurements {
	m := &AudioMeasurements{
		PeakLevel:      -120.0,
		RMSLevel:       -120.0,
		RMSTrough:      -120.0,
		NoiseFloor:     -60.0,
		HumLevel:       -120.0,
		MainsFrequency: mainsHz,
		SampleRate:     sampleRate,
	}
	if len(samples) == 0 || sampleRate <= 0 {
		return m
	}
	m.DurationSeconds = float64(len(samples)) / float64(sampleRate)

	// Time-domain statistics in one pass.
	var sumSquares float64
	peak := 0.0
	clipped := 0
	for _, s := range samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
		if a >= clipThreshold {
			clipped++
		}
		sumSquares += s * s
	}
	m.PeakLevel = LinearToDb(peak)
	m.RMSLevel = LinearToDb(math.Sqrt(sumSquares / float64(len(samples))))
	m.ClippedRatio = float64(clipped) / float64(len(samples))

	windowRMS := windowedRMS(samples, int(analysisWindowSeconds*float64(sampleRate)))
	if len(windowRMS) > 0 {
		m.RMSTrough = LinearToDb(windowRMS[0])
	}
	m.NoiseFloor = estimateNoiseFloor(windowRMS, m.RMSLevel)
	m.DynamicRange = m.PeakLevel - m.RMSTrough

	m.SpectralCentroid, m.SpectralRolloff, m.HumLevel =
		spectralMeasurements(samples, sampleRate, mainsHz)

	return m
}

// windowedRMS splits the signal into fixed windows and returns their RMS
// values sorted ascending. The tail shorter than one window is ignored.
func windowedRMS(samples []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	var values []float64
	for start := 0; start+window <= len(samples); start += window {
		var sum float64
		for _, s := range samples[start : start+window] {
			sum += s * s
		}
		values = append(values, math.Sqrt(sum/float64(window)))
	}
	sort.Float64s(values)
	return values
}

// estimateNoiseFloor derives the noise floor from the windowed RMS
// distribution, falling back progressively when the signal gives nothing
// usable. The result is clamped to [-90, -30] dBFS: below -90 is
// measurement noise, above -30 means the "floor" is really signal.
func estimateNoiseFloor(sortedRMS []float64, rmsLevel float64) float64 {
	floor := -60.0 // Tier 3: default when nothing can be measured

	if len(sortedRMS) > 0 {
		// Tier 1: quiet-percentile of the windowed RMS distribution
		idx := int(noiseFloorPercentile * float64(len(sortedRMS)-1))
		if db := LinearToDb(sortedRMS[idx]); db > -120.0 {
			floor = db
		} else if rmsLevel > -120.0 {
			// Tier 2: the quiet windows are digital silence; estimate from
			// the overall level instead
			floor = rmsLevel - 20.0
		}
	} else if rmsLevel > -120.0 {
		floor = rmsLevel - 20.0
	}

	// Safety clamp
	if floor < -90.0 {
		floor = -90.0
	}
	if floor > -30.0 {
		floor = -30.0
	}
	return floor
}

// spectralMeasurements computes the frame-averaged spectral centroid and
// rolloff plus the hum level at the mains fundamental and its first two
// harmonics. Near-silent frames are excluded from the averages.
func spectralMeasurements(samples []float64, sampleRate, mainsHz int) (centroid, rolloff, humDb float64) {
	w := spectralWindowSize
	humDb = -120.0
	if len(samples) < w {
		return 0, 0, humDb
	}

	window := hannWindow(w)
	fft := fourier.NewFFT(w)
	bins := w/2 + 1
	binWidth := float64(sampleRate) / float64(w)

	frame := make([]float64, w)
	coeffs := make([]complex128, bins)
	mags := make([]float64, bins)
	meanMag := make([]float64, bins)

	hop := w / 2
	var centroidSum, rolloffSum float64
	voiced := 0
	frames := 0

	for p := 0; p+w <= len(samples); p += hop {
		for i := 0; i < w; i++ {
			frame[i] = samples[p+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		var magSum, weighted, energy float64
		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			mags[k] = mag
			meanMag[k] += mag
			magSum += mag
			weighted += float64(k) * binWidth * mag
			energy += mag * mag
		}
		frames++

		if magSum < 1e-9 {
			continue
		}
		centroidSum += weighted / magSum

		target := rolloffFraction * energy
		var running float64
		for k, mag := range mags {
			running += mag * mag
			if running >= target {
				rolloffSum += float64(k) * binWidth
				break
			}
		}
		voiced++
	}

	if frames == 0 {
		return 0, 0, humDb
	}
	if voiced > 0 {
		centroid = centroidSum / float64(voiced)
		rolloff = rolloffSum / float64(voiced)
	}

	if mainsHz > 0 {
		for k := range meanMag {
			meanMag[k] /= float64(frames)
		}
		humDb = humLevel(meanMag, binWidth, float64(mainsHz), w)
	}
	return centroid, rolloff, humDb
}

// humLevel estimates the amplitude at the mains fundamental and its first
// two harmonics from the averaged magnitude spectrum. The peak bin in a
// ±1 bin neighbourhood absorbs frequency quantisation; the Hann window's
// coherent gain of half the window length converts bin magnitude back to
// sine amplitude.
func humLevel(meanMag []float64, binWidth, fundamental float64, windowSize int) float64 {
	var energy float64
	for _, freq := range mains.Harmonics(fundamental, 3) {
		bin := int(math.Round(freq / binWidth))
		if bin < 1 || bin >= len(meanMag) {
			continue
		}
		peak := meanMag[bin]
		if meanMag[bin-1] > peak {
			peak = meanMag[bin-1]
		}
		if bin+1 < len(meanMag) && meanMag[bin+1] > peak {
			peak = meanMag[bin+1]
		}
		amplitude := 4 * peak / float64(windowSize)
		energy += amplitude * amplitude
	}
	return LinearToDb(math.Sqrt(energy))
}
