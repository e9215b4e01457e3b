// Package audio provides WAV file I/O and sample rate conversion
package audio

// Waveform is a single-channel audio signal held as float64 samples.
// Samples are nominally in [-1, 1]; processing stages may transiently
// push values outside that range before renormalisation.
type Waveform struct {
	Samples    []float64
	SampleRate int // Hz
}

// Duration returns the waveform length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Clone returns a deep copy so callers can mutate freely.
func (w *Waveform) Clone() *Waveform {
	samples := make([]float64, len(w.Samples))
	copy(samples, w.Samples)
	return &Waveform{Samples: samples, SampleRate: w.SampleRate}
}
