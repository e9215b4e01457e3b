// Package processor handles audio analysis and processing
package processor

import "math"

// Adaptive tuning constants. These thresholds and limits control how the
// conditioning chain adapts to input measurements.
const (
	// Noise floor quality thresholds
	noiseFloorClean   = -60.0 // dBFS - very clean recording
	noiseFloorTypical = -50.0 // dBFS - typical home recording
	noiseFloorNoisy   = -40.0 // dBFS - noisy recording

	// Spectral gate strength bounds (over-subtraction factor)
	denoiseStrengthMin   = 1.0 // clean input needs no over-subtraction
	denoiseStrengthMax   = 3.0 // beyond this speech starts to hollow out
	denoiseStrengthNoisy = 2.5 // for floors above noiseFloorNoisy

	// SNR thresholds for the spectral floor
	snrPoor = 20.0 // dB - noise close to speech level
	snrGood = 40.0 // dB - studio-grade separation

	// Spectral floor bounds (fraction of input magnitude kept)
	denoiseFloorMin  = 0.05 // good SNR can afford deep subtraction
	denoiseFloorMax  = 0.20 // poor SNR needs a high floor against musical noise
	denoiseFloorStep = 0.05 // adjustment per SNR band

	// Crest factor thresholds (peak minus RMS) for gain tuning
	crestDense = 10.0 // dB - dense/compressed speech, clipping would distort
	crestPeaky = 20.0 // dB - peaky speech, the clipper only trims spikes

	// Gain bounds around the 2.0 default
	gainMin   = 1.2 // still audibly lifts quiet speech
	gainMax   = 2.5 // more drives too much of the waveform into the clipper
	gainDense = 1.4 // for dense speech with little headroom
)

// AdaptConfig tunes the spectral gate and amplifier from segment
// measurements. This is the main entry point for adaptive configuration
// and updates config in place. Band edges, filter order and the stage
// order are contracts and are never touched.
//
// Order matters: the gate strength is set before the floor, because the
// floor compensates for artefacts the chosen strength may introduce.
func AdaptConfig(config *ChainConfig, measurements *AudioMeasurements) {
	if config == nil || measurements == nil {
		return
	}

	tuneDenoiseStrength(config, measurements)
	tuneDenoiseFloor(config, measurements)
	tuneGain(config, measurements)

	// Final safety checks
	sanitizeConfig(config)
}

// tuneDenoiseStrength adapts the over-subtraction factor to the measured
// noise floor.
//
// Strategy:
// - Clean recordings keep subtraction minimal so speech texture survives
// - Noisy recordings subtract harder; hiss residue is more objectionable
//   than the slight dulling over-subtraction causes
func tuneDenoiseStrength(config *ChainConfig, m *AudioMeasurements) {
	switch {
	case m.NoiseFloor <= noiseFloorClean:
		config.DenoiseStrength = denoiseStrengthMin
	case m.NoiseFloor <= noiseFloorTypical:
		// Interpolate between minimal and the default across the clean
		// to typical range
		span := (m.NoiseFloor - noiseFloorClean) / (noiseFloorTypical - noiseFloorClean)
		config.DenoiseStrength = denoiseStrengthMin + span*(2.0-denoiseStrengthMin)
	case m.NoiseFloor <= noiseFloorNoisy:
		config.DenoiseStrength = denoiseStrengthNoisy
	default:
		config.DenoiseStrength = denoiseStrengthMax
	}
	config.DenoiseStrength = clamp(config.DenoiseStrength, denoiseStrengthMin, denoiseStrengthMax)
}

// tuneDenoiseFloor adapts the spectral floor to the signal-to-noise ratio.
//
// Strategy:
// - Poor SNR: keep a high floor; aggressive subtraction at low SNR leaves
//   musical noise worse than the hiss it removes
// - Good SNR: lower the floor so the pauses go properly quiet
func tuneDenoiseFloor(config *ChainConfig, m *AudioMeasurements) {
	snr := m.RMSLevel - m.NoiseFloor
	switch {
	case snr < snrPoor:
		config.DenoiseFloor = denoiseFloorMax
	case snr < snrGood:
		config.DenoiseFloor = denoiseFloorMax - denoiseFloorStep*2
	default:
		config.DenoiseFloor = denoiseFloorMin
	}
	config.DenoiseFloor = clamp(config.DenoiseFloor, denoiseFloorMin, denoiseFloorMax)
}

// tuneGain adapts the amplifier gain to the segment's crest factor so the
// clipper flattens plosive spikes without mangling dense speech.
func tuneGain(config *ChainConfig, m *AudioMeasurements) {
	crest := m.PeakLevel - m.RMSLevel
	switch {
	case crest < crestDense:
		config.Gain = gainDense
	case crest > crestPeaky:
		config.Gain = gainMax
	default:
		config.Gain = 2.0
	}
	config.Gain = clamp(config.Gain, gainMin, gainMax)
}

// sanitizeConfig replaces NaN/Inf values that could propagate from
// degenerate measurements with the defaults.
func sanitizeConfig(config *ChainConfig) {
	defaults := DefaultChainConfig()
	config.DenoiseStrength = sanitizeFloat(config.DenoiseStrength, defaults.DenoiseStrength)
	config.DenoiseFloor = sanitizeFloat(config.DenoiseFloor, defaults.DenoiseFloor)
	config.Gain = sanitizeFloat(config.Gain, defaults.Gain)
}

// clamp constrains val to the [min, max] range.
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// sanitizeFloat replaces NaN or Inf values with a safe default.
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}
