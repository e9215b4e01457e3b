// Package config loads and validates the optional YAML preset file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/jivescrub/internal/processor"
)

// Config represents a complete processing preset
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Capture  CaptureConfig  `yaml:"capture"`
}

// PipelineConfig contains the conditioning chain parameters
type PipelineConfig struct {
	LowCut          float64 `yaml:"lowcut"`           // Hz, lower passband edge
	HighCut         float64 `yaml:"highcut"`          // Hz, upper passband edge
	FilterOrder     int     `yaml:"filter_order"`     // Butterworth order, even 2-8
	Gain            float64 `yaml:"gain"`             // linear gain into the clipper
	NormTarget      float64 `yaml:"norm_target"`      // peak normalisation target
	DenoiseWindow   int     `yaml:"denoise_window"`   // STFT window, power of two
	DenoiseOverlap  float64 `yaml:"denoise_overlap"`  // window overlap fraction
	DenoiseStrength float64 `yaml:"denoise_strength"` // over-subtraction factor
	DenoiseFloor    float64 `yaml:"denoise_floor"`    // spectral floor fraction
	AutoTune        bool    `yaml:"auto_tune"`        // adapt gate and gain per segment
}

// CaptureConfig contains capture and segment bound parameters
type CaptureConfig struct {
	SampleRate        int     `yaml:"sample_rate"`         // Hz, the working rate
	MinSegmentSeconds float64 `yaml:"min_segment_seconds"` // reject shorter segments
	MaxSegmentSeconds float64 `yaml:"max_segment_seconds"` // trailing window cap, 0 = uncapped
}

// Default returns a preset mirroring the built-in chain defaults.
func Default() *Config {
	chain := processor.DefaultChainConfig()
	return &Config{
		Pipeline: PipelineConfig{
			LowCut:          chain.LowCut,
			HighCut:         chain.HighCut,
			FilterOrder:     chain.FilterOrder,
			Gain:            chain.Gain,
			NormTarget:      chain.NormTarget,
			DenoiseWindow:   chain.DenoiseWindow,
			DenoiseOverlap:  chain.DenoiseOverlap,
			DenoiseStrength: chain.DenoiseStrength,
			DenoiseFloor:    chain.DenoiseFloor,
			AutoTune:        chain.AutoTune,
		},
		Capture: CaptureConfig{
			SampleRate:        chain.CaptureRate,
			MinSegmentSeconds: chain.MinSegmentSeconds,
			MaxSegmentSeconds: chain.MaxSegmentSeconds,
		},
	}
}

// Load reads and parses the preset file at path. Keys absent from the
// file keep their default values; unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defer f.Close()

	config, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// LoadFromReader decodes a YAML preset from r on top of the defaults and
// validates the result. Useful in tests where presets are string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	config := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		// An empty file is a valid preset: all defaults
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate performs range validation of the preset
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	// The band must fit under the working rate's Nyquist limit
	nyquist := float64(c.Capture.SampleRate) / 2.0
	if c.Pipeline.HighCut >= nyquist {
		return fmt.Errorf("pipeline config: highcut %.1fHz must stay below Nyquist %.1fHz at a %dHz sample rate",
			c.Pipeline.HighCut, nyquist, c.Capture.SampleRate)
	}

	return nil
}

// Validate validates the conditioning chain parameters
func (p *PipelineConfig) Validate() error {
	if p.LowCut <= 0 {
		return fmt.Errorf("lowcut must be positive, got %.1f", p.LowCut)
	}

	if p.HighCut <= p.LowCut {
		return fmt.Errorf("highcut (%.1f) must be greater than lowcut (%.1f)", p.HighCut, p.LowCut)
	}

	if p.FilterOrder < 2 || p.FilterOrder > 8 || p.FilterOrder%2 != 0 {
		return fmt.Errorf("filter_order must be an even number between 2 and 8, got %d", p.FilterOrder)
	}

	if p.Gain <= 0 {
		return fmt.Errorf("gain must be positive, got %.2f", p.Gain)
	}

	if p.NormTarget <= 0 || p.NormTarget > 1 {
		return fmt.Errorf("norm_target must be between 0 and 1, got %.2f", p.NormTarget)
	}

	if !isPowerOfTwo(p.DenoiseWindow) || p.DenoiseWindow < 64 {
		return fmt.Errorf("denoise_window must be a power of two of at least 64 samples, got %d", p.DenoiseWindow)
	}

	if p.DenoiseOverlap < 0 || p.DenoiseOverlap > 0.95 {
		return fmt.Errorf("denoise_overlap must be between 0 and 0.95, got %.2f", p.DenoiseOverlap)
	}

	if p.DenoiseStrength < 0 {
		return fmt.Errorf("denoise_strength cannot be negative, got %.2f", p.DenoiseStrength)
	}

	if p.DenoiseFloor < 0 || p.DenoiseFloor > 1 {
		return fmt.Errorf("denoise_floor must be between 0 and 1, got %.2f", p.DenoiseFloor)
	}

	return nil
}

// Validate validates the capture parameters
func (c *CaptureConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample_rate must be at least 8000 Hz, got %d", c.SampleRate)
	}

	if c.MinSegmentSeconds <= 0 {
		return fmt.Errorf("min_segment_seconds must be positive, got %.2f", c.MinSegmentSeconds)
	}

	if c.MaxSegmentSeconds != 0 && c.MaxSegmentSeconds <= c.MinSegmentSeconds {
		return fmt.Errorf("max_segment_seconds (%.2f) must be greater than min_segment_seconds (%.2f)",
			c.MaxSegmentSeconds, c.MinSegmentSeconds)
	}

	return nil
}

// ChainConfig converts the preset into the processor's configuration.
func (c *Config) ChainConfig() *processor.ChainConfig {
	return &processor.ChainConfig{
		LowCut:            c.Pipeline.LowCut,
		HighCut:           c.Pipeline.HighCut,
		FilterOrder:       c.Pipeline.FilterOrder,
		Gain:              c.Pipeline.Gain,
		NormTarget:        c.Pipeline.NormTarget,
		DenoiseWindow:     c.Pipeline.DenoiseWindow,
		DenoiseOverlap:    c.Pipeline.DenoiseOverlap,
		DenoiseStrength:   c.Pipeline.DenoiseStrength,
		DenoiseFloor:      c.Pipeline.DenoiseFloor,
		AutoTune:          c.Pipeline.AutoTune,
		CaptureRate:       c.Capture.SampleRate,
		MinSegmentSeconds: c.Capture.MinSegmentSeconds,
		MaxSegmentSeconds: c.Capture.MaxSegmentSeconds,
	}
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
