// Package processor handles audio analysis and processing
package processor

import (
	"fmt"
	"math"
)

// StageID identifies a stage in the signal conditioning chain
type StageID string

// Stage identifiers for the signal conditioning chain
const (
	StageNormalise   StageID = "normalise"   // Peak normalisation to the configured target
	StageDenoise     StageID = "denoise"     // Spectral gate noise reduction
	StageBandpass    StageID = "bandpass"    // Butterworth band-pass for the speech band
	StageAmplify     StageID = "amplify"     // Fixed gain with hard clipping
	StageRenormalise StageID = "renormalise" // Restores the peak target after filtering
)

// StageOrder defines the signal conditioning chain. The order is a contract:
// callers and tests may rely on it, and reordering changes the output.
// Order rationale:
// - Normalise first: gives the noise reducer a consistent level to work from
// - Denoise before filtering: the gate sees the full spectrum, so broadband
//   hiss is estimated before the band edges remove context
// - Bandpass after denoising: isolates the speech band and strips gate
//   residue outside it
// - Amplify after bandpass: drives speech towards full scale; the clipper
//   bounds whatever the gain pushes past ±1
// - Renormalise last: clipping and filtering change the peak, so the target
//   is restored as the final step
var StageOrder = []StageID{
	StageNormalise,
	StageDenoise,
	StageBandpass,
	StageAmplify,
	StageRenormalise,
}

// stageLabels maps stage identifiers to progress display names.
var stageLabels = map[StageID]string{
	StageNormalise:   "Normalising",
	StageDenoise:     "Reducing noise",
	StageBandpass:    "Band-limiting",
	StageAmplify:     "Amplifying",
	StageRenormalise: "Renormalising",
}

// stageFunc runs one conditioning stage over the samples.
// Stages return a new slice; the input is never mutated.
type stageFunc func(*Pipeline, []float64, int) ([]float64, error)

// stageRunners maps StageID to its implementation.
// This registry centralises stage dispatch and keeps Run generic.
var stageRunners = map[StageID]stageFunc{
	StageNormalise:   (*Pipeline).runNormalise,
	StageDenoise:     (*Pipeline).runDenoise,
	StageBandpass:    (*Pipeline).runBandpass,
	StageAmplify:     (*Pipeline).runAmplify,
	StageRenormalise: (*Pipeline).runRenormalise,
}

// ChainConfig holds configuration for the signal conditioning chain
type ChainConfig struct {
	// Band-pass filter - isolates the core speech band
	LowCut      float64 // Hz, lower passband edge (must be > 0)
	HighCut     float64 // Hz, upper passband edge (must be < Nyquist)
	FilterOrder int     // Butterworth order; 6 = three cascaded biquad sections

	// Amplify - fixed gain into a hard clipper
	Gain float64 // linear gain (2.0 = +6dB); samples clip at ±1.0

	// Normalisation target for the first and final stages
	NormTarget float64 // peak amplitude target (0.9 leaves ~1dB headroom)

	// Segment bounds enforced by the capture accumulator
	MinSegmentSeconds float64 // segments shorter than this are rejected
	MaxSegmentSeconds float64 // only the most recent window this long is kept

	// CaptureRate is the pipeline's working sample rate. Uploads are
	// resampled to it and live capture records at it.
	CaptureRate int // Hz

	// Spectral gate (denoise stage)
	DenoiseWindow   int     // STFT window length in samples, power of two
	DenoiseOverlap  float64 // window overlap fraction (0.75 = 75%)
	DenoiseStrength float64 // over-subtraction factor applied to the noise profile
	DenoiseFloor    float64 // spectral floor as a fraction of the input magnitude

	// AutoTune adapts the gate and gain to the input measurements before
	// processing (see AdaptConfig). Band edges are never adapted.
	AutoTune bool
}

// DefaultChainConfig returns the default conditioning configuration for
// single-speaker speech segments.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		// Band-pass - core speech intelligibility band
		LowCut:      500.0,  // 500Hz removes rumble, hum harmonics and proximity boom
		HighCut:     2800.0, // 2.8kHz keeps the articulation band, drops hiss above
		FilterOrder: 6,      // 36dB/oct skirts; steep enough to matter at 500Hz

		// Amplify - push speech towards full scale after band-limiting
		Gain: 2.0, // +6dB; the clipper catches anything past ±1

		// Normalisation
		NormTarget: 0.9, // ~-0.9dBFS peak, headroom for the 16-bit encoder

		// Segment bounds
		MinSegmentSeconds: 2.0,  // too little audio for the noise profile below this
		MaxSegmentSeconds: 10.0, // trailing window keeps the most recent speech

		// Working sample rate
		CaptureRate: 16000, // wideband speech; Nyquist comfortably above HighCut

		// Spectral gate
		DenoiseWindow:   1024, // 64ms at 16kHz; resolves hum harmonics without smearing speech
		DenoiseOverlap:  0.75, // 75% overlap, constant-sum Hann reconstruction
		DenoiseStrength: 2.0,  // over-subtraction; hiss residue is worse than slight dulling
		DenoiseFloor:    0.1,  // keeps 10% of the original magnitude, avoids musical noise

		// AutoTune - off by default; enabled by the --auto flag
		AutoTune: false,
	}
}

// Pipeline runs the signal conditioning chain over bounded speech segments.
// The Denoiser is swappable; everything else is driven by Config.
type Pipeline struct {
	Config   *ChainConfig
	Denoiser NoiseReducer
}

// NewPipeline builds a pipeline with the spectral gate denoiser.
// A nil config gets the defaults.
func NewPipeline(config *ChainConfig) *Pipeline {
	if config == nil {
		config = DefaultChainConfig()
	}
	return &Pipeline{
		Config:   config,
		Denoiser: NewSpectralGate(config),
	}
}

// ProgressFunc receives stage progress updates during processing.
// progress is the fraction of the chain completed; level is the RMS level
// of the intermediate signal in dBFS. measurements is non-nil only on
// analysis updates.
type ProgressFunc func(stage int, stageName string, progress float64, level float64, measurements *AudioMeasurements)

// Clean runs the full conditioning chain over a segment and returns the
// cleaned samples. The input slice is not modified. Output length and
// sample rate always match the input; the only error is an invalid
// band-pass configuration.
func Clean(samples []float64, sampleRate int, config *ChainConfig) ([]float64, error) {
	return NewPipeline(config).Run(samples, sampleRate, nil)
}

// Run executes every stage in StageOrder, reporting progress after each.
func (p *Pipeline) Run(samples []float64, sampleRate int, progressCallback ProgressFunc) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	out := samples
	total := len(StageOrder)

	for i, id := range StageOrder {
		if progressCallback != nil {
			progressCallback(i+1, stageLabels[id], float64(i)/float64(total), signalLevelDb(out), nil)
		}

		runner, ok := stageRunners[id]
		if !ok {
			return nil, fmt.Errorf("no runner registered for stage %q", id)
		}

		var err error
		out, err = runner(p, out, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%s stage failed: %w", id, err)
		}

		if progressCallback != nil {
			progressCallback(i+1, stageLabels[id], float64(i+1)/float64(total), signalLevelDb(out), nil)
		}
	}

	return out, nil
}

func (p *Pipeline) runNormalise(samples []float64, _ int) ([]float64, error) {
	return Normalise(samples, p.Config.NormTarget), nil
}

func (p *Pipeline) runDenoise(samples []float64, sampleRate int) ([]float64, error) {
	if p.Denoiser == nil {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}
	return p.Denoiser.Reduce(samples, sampleRate), nil
}

func (p *Pipeline) runBandpass(samples []float64, sampleRate int) ([]float64, error) {
	b, a, err := DesignBandpass(sampleRate, p.Config.LowCut, p.Config.HighCut, p.Config.FilterOrder)
	if err != nil {
		return nil, err
	}
	return applyFilter(b, a, samples), nil
}

func (p *Pipeline) runAmplify(samples []float64, _ int) ([]float64, error) {
	return Amplify(samples, p.Config.Gain), nil
}

func (p *Pipeline) runRenormalise(samples []float64, _ int) ([]float64, error) {
	return Normalise(samples, p.Config.NormTarget), nil
}

// signalLevelDb calculates the RMS level of the signal in dBFS for VU
// meter display, clamped to [-60, 0].
func signalLevelDb(samples []float64) float64 {
	if len(samples) == 0 {
		return -60.0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return -60.0
	}
	db := 20.0 * math.Log10(rms)
	if db < -60.0 {
		return -60.0
	}
	if db > 0.0 {
		return 0.0
	}
	return db
}

// DbToLinear converts decibel value to linear amplitude.
// Inverse of LinearToDb.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to decibel value.
// Inverse of DbToLinear.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0 // Practical floor for audio
	}
	return 20.0 * math.Log10(linear)
}
