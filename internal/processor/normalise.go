// Package processor handles audio analysis and processing
package processor

import "math"

// Normalise scales the signal so its absolute peak sits at target.
// An all-zero signal has no peak to scale, so it is returned as an
// unmodified copy rather than dividing by zero. The input is not mutated.
func Normalise(samples []float64, target float64) []float64 {
	out := make([]float64, len(samples))

	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		copy(out, samples)
		return out
	}

	gain := target / peak
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// Amplify applies a fixed linear gain and hard-clips the result to [-1, 1].
// With the default gain of 2.0 any sample beyond half scale saturates,
// which flattens plosive spikes while quieter speech gains headroom.
// The input is not mutated.
func Amplify(samples []float64, gain float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = clip(s * gain)
	}
	return out
}

// clip bounds a sample to the [-1, 1] range.
func clip(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
