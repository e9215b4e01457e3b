// Package processor handles audio analysis and processing
package processor

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// NoiseReducer removes stationary noise from a speech segment. Segments
// arrive without a separate noise reference, so the whole segment serves
// as its own. Implementations must be deterministic: the same input always
// yields the same output, and the returned slice always matches the input
// length.
type NoiseReducer interface {
	Reduce(samples []float64, sampleRate int) []float64
}

// SpectralGate implements NoiseReducer by spectral subtraction over a
// short-time Fourier transform. The per-bin noise profile is the mean
// magnitude across every frame of the segment; stationary components
// (hiss, hum, fan rumble) dominate that mean while transient speech
// energy spreads across time and survives the subtraction.
type SpectralGate struct {
	Window   int     // STFT window length in samples
	Overlap  float64 // window overlap fraction
	Strength float64 // over-subtraction factor applied to the profile
	Floor    float64 // minimum magnitude kept, as a fraction of the input
}

// NewSpectralGate builds a gate from the chain configuration.
func NewSpectralGate(config *ChainConfig) *SpectralGate {
	return &SpectralGate{
		Window:   config.DenoiseWindow,
		Overlap:  config.DenoiseOverlap,
		Strength: config.DenoiseStrength,
		Floor:    config.DenoiseFloor,
	}
}

// Reduce subtracts the segment's own stationary noise profile from every
// frame and resynthesises by overlap-add. Frame phases are preserved;
// only magnitudes change. Reconstruction divides by the accumulated
// window sum per sample, so the output length exactly matches the input
// and an identity configuration (Strength 0, Floor 1) reproduces the
// input to within floating point rounding.
func (g *SpectralGate) Reduce(samples []float64, sampleRate int) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}

	w := g.Window
	if w <= 0 {
		w = DefaultChainConfig().DenoiseWindow
	}
	hop := int(float64(w)*(1-g.Overlap) + 0.5)
	if hop < 1 {
		hop = 1
	}

	window := hannWindow(w)

	// Padding one window length on each side gives every input sample full
	// overlap coverage; the window tapers to zero at its edges, so samples
	// near the signal boundary would otherwise be under-weighted.
	padded := make([]float64, len(samples)+2*w)
	copy(padded[w:], samples)

	fft := fourier.NewFFT(w)
	bins := w/2 + 1
	frame := make([]float64, w)
	coeffs := make([]complex128, bins)

	// First pass: mean magnitude per bin over all frames.
	profile := make([]float64, bins)
	frames := 0
	for p := 0; p+w <= len(padded); p += hop {
		for i := 0; i < w; i++ {
			frame[i] = padded[p+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			profile[k] += cmplx.Abs(c)
		}
		frames++
	}
	for k := range profile {
		profile[k] /= float64(frames)
	}

	// Second pass: subtract the profile, keep phases, overlap-add.
	acc := make([]float64, len(padded))
	wsum := make([]float64, len(padded))
	seq := make([]float64, w)
	for p := 0; p+w <= len(padded); p += hop {
		for i := 0; i < w; i++ {
			frame[i] = padded[p+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			clean := mag - g.Strength*profile[k]
			if floorMag := g.Floor * mag; clean < floorMag {
				clean = floorMag
			}
			coeffs[k] = cmplx.Rect(clean, cmplx.Phase(c))
		}

		// Sequence returns the unnormalised inverse; dividing by the FFT
		// length restores scale.
		seq = fft.Sequence(seq, coeffs)
		for i := 0; i < w; i++ {
			acc[p+i] += seq[i] / float64(w)
			wsum[p+i] += window[i]
		}
	}

	for i := range out {
		if wsum[w+i] > 1e-12 {
			out[i] = acc[w+i] / wsum[w+i]
		}
	}
	return out
}

// hannWindow returns a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}
