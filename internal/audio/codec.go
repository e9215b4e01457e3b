package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
)

var (
	// ErrUnsupportedFormat indicates the input is not a valid WAV container.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrDecode indicates a valid container whose PCM payload could not be read.
	ErrDecode = errors.New("audio decode failed")
)

// Decode reads a WAV stream into a mono Waveform at its native sample rate.
// Multi-channel input is downmixed by averaging. Integer PCM is scaled to
// [-1, 1] by the source bit depth.
func Decode(r io.ReadSeeker) (*Waveform, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupportedFormat)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if intBuf == nil || intBuf.Format == nil || len(intBuf.Data) == 0 {
		return nil, fmt.Errorf("%w: empty PCM payload", ErrDecode)
	}
	if intBuf.Format.SampleRate <= 0 || intBuf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: invalid format (rate %d, channels %d)",
			ErrDecode, intBuf.Format.SampleRate, intBuf.Format.NumChannels)
	}

	floatBuf := intBuf.AsFloatBuffer()
	if floatBuf.Format.NumChannels > 1 {
		if err := transforms.MonoDownmix(floatBuf); err != nil {
			return nil, fmt.Errorf("%w: downmix: %v", ErrDecode, err)
		}
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))
	samples := floatBuf.Data
	for i := range samples {
		samples[i] *= scale
	}

	return &Waveform{Samples: samples, SampleRate: floatBuf.Format.SampleRate}, nil
}

// DecodeAt decodes like Decode and then resamples to targetRate when the
// source rate differs. This is the upload path: every source converges on
// the pipeline's capture rate.
func DecodeAt(r io.ReadSeeker, targetRate int) (*Waveform, error) {
	wave, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if targetRate > 0 && wave.SampleRate != targetRate {
		wave.Samples = Resample(wave.Samples, wave.SampleRate, targetRate)
		wave.SampleRate = targetRate
	}
	return wave, nil
}

// DecodeFile opens and decodes a WAV file.
func DecodeFile(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// DecodeFileAt opens, decodes and resamples a WAV file to targetRate.
func DecodeFileAt(path string, targetRate int) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return DecodeAt(f, targetRate)
}

// Encode writes the waveform as 16-bit mono PCM WAV at its native rate.
// Samples outside [-1, 1] are clamped before quantisation, so encoding
// succeeds for any finite-valued waveform.
func Encode(w io.WriteSeeker, wave *Waveform) error {
	if wave == nil || wave.SampleRate <= 0 {
		return fmt.Errorf("failed to encode: waveform has no sample rate")
	}

	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: wave.SampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(wave.Samples)),
	}
	for i, s := range wave.Samples {
		buf.Data[i] = floatToPCM16(s)
	}

	enc := wav.NewEncoder(w, wave.SampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return nil
}

// EncodeFile writes the waveform to a new WAV file at path.
func EncodeFile(path string, wave *Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Encode(f, wave); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// floatToPCM16 clamps to [-1, 1] and quantises to a 16-bit sample value.
// The scale matches the capture path (1.0 maps the full int16 range).
func floatToPCM16(s float64) int {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	v := int(math.Round(s * 32768))
	if v > 32767 {
		v = 32767
	}
	return v
}
