// Package processor handles audio analysis and processing
package processor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFilterBand indicates band edges that cannot form a valid
// band-pass at the given sample rate.
var ErrInvalidFilterBand = errors.New("invalid filter band")

// butterworthQ holds the section Q distribution for Butterworth cascades,
// keyed by the number of biquad sections. Staggering the Qs keeps the
// combined passband flat where a repeated single Q would droop.
var butterworthQ = map[int][]float64{
	1: {0.7071},                         // 2nd order
	2: {0.5412, 1.3065},                 // 4th order
	3: {0.5176, 0.7071, 1.9319},         // 6th order
	4: {0.5098, 0.6013, 0.9000, 2.5629}, // 8th order
}

// DesignBandpass computes transfer function coefficients for a Butterworth
// band-pass with the given edges. The cutoffs are interpreted relative to
// the sample rate's Nyquist limit, so the same configuration adapts to any
// rate. The result is a single (b, a) polynomial pair of length order+1
// with a[0] == 1, built by convolving order/2 biquad sections.
//
// Each section is an RBJ constant-peak band-pass centred on the geometric
// mean of the edges. Section bandwidth comes from the Butterworth Q
// distribution, floored at the requested band width so wide bands are not
// narrowed into a resonator.
//
// Band edges must satisfy 0 < lowcut < highcut < sampleRate/2; anything
// else reports ErrInvalidFilterBand.
func DesignBandpass(sampleRate int, lowcut, highcut float64, order int) (b, a []float64, err error) {
	nyquist := float64(sampleRate) / 2.0
	if lowcut <= 0 {
		return nil, nil, fmt.Errorf("%w: lowcut %.1fHz must be positive", ErrInvalidFilterBand, lowcut)
	}
	if highcut <= lowcut {
		return nil, nil, fmt.Errorf("%w: highcut %.1fHz must exceed lowcut %.1fHz", ErrInvalidFilterBand, highcut, lowcut)
	}
	if highcut >= nyquist {
		return nil, nil, fmt.Errorf("%w: highcut %.1fHz must stay below Nyquist %.1fHz", ErrInvalidFilterBand, highcut, nyquist)
	}

	stages := order / 2
	qs, ok := butterworthQ[stages]
	if order < 2 || order%2 != 0 || !ok {
		return nil, nil, fmt.Errorf("unsupported filter order %d: want an even order between 2 and 8", order)
	}

	centre := math.Sqrt(lowcut * highcut)
	bandwidth := highcut - lowcut

	b = []float64{1}
	a = []float64{1}
	for _, q := range qs {
		bw := centre / q
		if bw < bandwidth {
			bw = bandwidth
		}
		sb, sa := bandpassSection(float64(sampleRate), centre, bw)
		b = convolve(b, sb)
		a = convolve(a, sa)
	}

	return b, a, nil
}

// bandpassSection designs one RBJ constant-peak band-pass biquad and
// returns its coefficients normalised so a[0] == 1.
func bandpassSection(sampleRate, centre, bandwidth float64) (b, a []float64) {
	q := centre / bandwidth
	omega := 2 * math.Pi * centre / sampleRate
	alpha := math.Sin(omega) / (2 * q)

	a0 := 1 + alpha
	b = []float64{alpha / a0, 0, -alpha / a0}
	a = []float64{1, -2 * math.Cos(omega) / a0, (1 - alpha) / a0}
	return b, a
}

// convolve multiplies two transfer function polynomials.
func convolve(p, q []float64) []float64 {
	out := make([]float64, len(p)+len(q)-1)
	for i, pi := range p {
		for j, qj := range q {
			out[i+j] += pi * qj
		}
	}
	return out
}

// applyFilter runs the IIR filter over the samples in a single causal
// forward pass (direct form II transposed) from zero initial state. The
// onset therefore carries the filter's phase delay; there is no
// forward-backward pass to cancel it. Requires len(b) == len(a) >= 2 and
// a[0] == 1, which DesignBandpass guarantees. The input is not mutated.
func applyFilter(b, a, samples []float64) []float64 {
	n := len(b)
	state := make([]float64, n-1)
	out := make([]float64, len(samples))

	for i, x := range samples {
		y := b[0]*x + state[0]
		for j := 1; j < n-1; j++ {
			state[j-1] = b[j]*x + state[j] - a[j]*y
		}
		state[n-2] = b[n-1]*x - a[n-1]*y
		out[i] = y
	}

	return out
}
