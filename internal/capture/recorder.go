package capture

import (
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"
)

// Recorder captures mono 16-bit audio from the default input device and
// feeds whole buffers to an Accumulator as frames.
type Recorder struct {
	stream     *portaudio.Stream
	buffer     []int16
	acc        *Accumulator
	sampleRate int
}

// Device describes an available capture device.
type Device struct {
	Index      int
	Name       string
	Channels   int     // max input channels
	SampleRate float64 // default sample rate in Hz
	IsDefault  bool
}

// LevelFunc receives a capture level update after each buffer: the buffer
// RMS in dBFS (clamped to [-60, 0]) and the total samples captured so far.
type LevelFunc func(levelDb float64, captured int)

// NewRecorder initialises portaudio and opens the default input stream.
// Callers must Close the recorder to release the device.
func NewRecorder(acc *Accumulator, sampleRate, framesPerBuffer int) (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialise audio subsystem: %w", err)
	}

	r := &Recorder{
		buffer:     make([]int16, framesPerBuffer),
		acc:        acc,
		sampleRate: sampleRate,
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, r.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	r.stream = stream

	return r, nil
}

// Record captures for the given number of seconds, appending each filled
// buffer to the accumulator as one frame. onLevel, when non-nil, is called
// after every buffer for live metering.
func (r *Recorder) Record(seconds float64, onLevel LevelFunc) error {
	if err := r.stream.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	iterations := int(seconds * float64(r.sampleRate) / float64(len(r.buffer)))
	for i := 0; i < iterations; i++ {
		if err := r.stream.Read(); err != nil {
			r.stream.Stop()
			return fmt.Errorf("failed to read capture buffer: %w", err)
		}
		r.acc.Append(r.buffer)
		if onLevel != nil {
			onLevel(bufferLevelDb(r.buffer), r.acc.Len())
		}
	}

	if err := r.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	return nil
}

// Close releases the stream and the audio subsystem.
func (r *Recorder) Close() error {
	var err error
	if r.stream != nil {
		err = r.stream.Close()
		r.stream = nil
	}
	portaudio.Terminate()
	return err
}

// ListDevices enumerates capture-capable devices. It manages its own
// portaudio session so it can run without an open recorder.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialise audio subsystem: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	defaultIn, _ := portaudio.DefaultInputDevice()

	var devices []Device
	for i, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			Index:      i,
			Name:       info.Name,
			Channels:   info.MaxInputChannels,
			SampleRate: info.DefaultSampleRate,
			IsDefault:  defaultIn != nil && info.Name == defaultIn.Name,
		})
	}
	return devices, nil
}

// bufferLevelDb computes the RMS level of one capture buffer in dBFS,
// clamped to [-60, 0] for display.
func bufferLevelDb(buf []int16) float64 {
	if len(buf) == 0 {
		return -60
	}
	var sum float64
	for _, s := range buf {
		f := float64(s) / 32768
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(buf)))
	if rms <= 0 {
		return -60
	}
	db := 20 * math.Log10(rms)
	if db < -60 {
		db = -60
	} else if db > 0 {
		db = 0
	}
	return db
}
