// Package capture collects live audio frames into bounded speech segments
package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/linuxmatters/jivescrub/internal/audio"
)

var (
	// ErrNoFrames indicates finalisation was requested before any frame arrived.
	ErrNoFrames = errors.New("no audio frames available")
	// ErrInsufficientAudio indicates the captured audio is shorter than the
	// configured minimum segment length.
	ErrInsufficientAudio = errors.New("insufficient audio captured")
)

// Accumulator buffers capture frames until a segment is requested. Frames
// arrive from the audio callback goroutine while the UI polls progress, so
// every access synchronises on one mutex: appends extend the buffer in
// arrival order and finalisation snapshots it. Frames are never reordered,
// dropped or partially interleaved.
type Accumulator struct {
	mu      sync.RWMutex
	samples []float64
}

// NewAccumulator returns an empty accumulator ready for appends.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append converts one capture frame to float samples and appends it. The
// int16 range maps onto [-1, 1) by dividing by 32768, matching the scale
// the decoder produces for 16-bit files. The whole frame is appended under
// a single lock hold.
func (a *Accumulator) Append(frame []int16) {
	if len(frame) == 0 {
		return
	}

	converted := make([]float64, len(frame))
	for i, s := range frame {
		converted[i] = float64(s) / 32768
	}

	a.mu.Lock()
	a.samples = append(a.samples, converted...)
	a.mu.Unlock()
}

// Len returns the number of samples accumulated so far.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.samples)
}

// Duration returns the accumulated audio length in seconds at the given rate.
func (a *Accumulator) Duration(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(a.Len()) / float64(sampleRate)
}

// Reset discards all accumulated samples, starting a fresh take.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.samples = nil
	a.mu.Unlock()
}

// Finalize validates the accumulated audio and returns the segment to
// process: the most recent maxSeconds of audio, or everything when less has
// arrived. The returned waveform owns its samples; the accumulator is left
// untouched, so a retake needs an explicit Reset.
//
// Finalising with no frames at all reports ErrNoFrames; audio shorter than
// minSeconds reports ErrInsufficientAudio. The checks run in that order so
// callers can tell an idle capture from one that stopped too early.
// A non-positive maxSeconds applies no cap.
func (a *Accumulator) Finalize(sampleRate int, minSeconds, maxSeconds float64) (*audio.Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	total := len(a.samples)
	if total == 0 {
		return nil, ErrNoFrames
	}

	need := int(minSeconds * float64(sampleRate))
	if total < need {
		return nil, fmt.Errorf("%w: have %.2fs, need %.2fs",
			ErrInsufficientAudio, float64(total)/float64(sampleRate), minSeconds)
	}

	maxSamples := int(maxSeconds * float64(sampleRate))
	start := 0
	if maxSamples > 0 && total > maxSamples {
		start = total - maxSamples
	}

	segment := make([]float64, total-start)
	copy(segment, a.samples[start:])

	return &audio.Waveform{Samples: segment, SampleRate: sampleRate}, nil
}
