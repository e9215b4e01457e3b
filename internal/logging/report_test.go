package logging

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/jivescrub/internal/processor"
)

func TestReportPath(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"episode-processed.wav", "episode-processed-report.md"},
		{"/tmp/take2-processed.wav", "/tmp/take2-processed-report.md"},
		{"noext", "noext-report.md"},
	}
	for _, tt := range tests {
		if got := ReportPath(tt.output); got != tt.want {
			t.Errorf("ReportPath(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestAssessQuality(t *testing.T) {
	tests := []struct {
		name       string
		m          *processor.AudioMeasurements
		wantRating string
	}{
		{
			name:       "nil measurements",
			m:          nil,
			wantRating: "Unknown",
		},
		{
			name: "clipping is poor",
			m: &processor.AudioMeasurements{
				RMSLevel: -15.0, NoiseFloor: -70.0, ClippedRatio: 0.01,
			},
			wantRating: "Poor",
		},
		{
			name: "very quiet output is poor",
			m: &processor.AudioMeasurements{
				RMSLevel: -48.0, NoiseFloor: -75.0,
			},
			wantRating: "Poor",
		},
		{
			name: "snr 12 is poor", // -25 - (-37)
			m: &processor.AudioMeasurements{
				RMSLevel: -25.0, NoiseFloor: -37.0,
			},
			wantRating: "Poor",
		},
		{
			name: "snr 20 is fair", // -25 - (-45)
			m: &processor.AudioMeasurements{
				RMSLevel: -25.0, NoiseFloor: -45.0,
			},
			wantRating: "Fair",
		},
		{
			name: "quiet but clean is fair", // snr 33
			m: &processor.AudioMeasurements{
				RMSLevel: -32.0, NoiseFloor: -65.0,
			},
			wantRating: "Fair",
		},
		{
			name: "snr 35 is good", // -15 - (-50)
			m: &processor.AudioMeasurements{
				RMSLevel: -15.0, NoiseFloor: -50.0,
			},
			wantRating: "Good",
		},
		{
			name: "strong level over quiet floor is excellent", // snr 60
			m: &processor.AudioMeasurements{
				RMSLevel: -15.0, NoiseFloor: -75.0,
			},
			wantRating: "Excellent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, description := assessQuality(tt.m)
			if rating != tt.wantRating {
				t.Errorf("assessQuality() rating = %q, want %q", rating, tt.wantRating)
			}
			if description == "" {
				t.Error("assessQuality() description should not be empty")
			}
		})
	}
}

func TestSignalToNoise(t *testing.T) {
	m := &processor.AudioMeasurements{RMSLevel: -20.0, NoiseFloor: -65.0}
	if got := signalToNoise(m); math.Abs(got-45.0) > 1e-9 {
		t.Errorf("signalToNoise() = %v, want 45.0", got)
	}

	silent := &processor.AudioMeasurements{RMSLevel: -120.0, NoiseFloor: -60.0}
	if got := signalToNoise(silent); !math.IsNaN(got) {
		t.Errorf("signalToNoise() on silence = %v, want NaN", got)
	}

	if got := signalToNoise(nil); !math.IsNaN(got) {
		t.Errorf("signalToNoise(nil) = %v, want NaN", got)
	}
}

func TestBandEnergyShares(t *testing.T) {
	const sampleRate = 16000

	t.Run("midrange tone dominates its band", func(t *testing.T) {
		// 1kHz sits in the 500-2000Hz Midrange band.
		samples := make([]float64, sampleRate)
		for i := range samples {
			samples[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/sampleRate)
		}

		shares := bandEnergyShares(samples, sampleRate)
		if shares == nil {
			t.Fatal("expected shares for a 1s tone")
		}
		if len(shares) != len(frequencyBands) {
			t.Fatalf("got %d shares, want %d", len(shares), len(frequencyBands))
		}

		var total, midrange float64
		for i, s := range shares {
			total += s
			if frequencyBands[i].name == "Midrange" {
				midrange = s
			}
		}
		if math.Abs(total-100.0) > 0.1 {
			t.Errorf("shares should sum to 100%%, got %.2f", total)
		}
		if midrange < 90.0 {
			t.Errorf("Midrange share = %.1f%%, want > 90%% for a 1kHz tone", midrange)
		}
	})

	t.Run("too short returns nil", func(t *testing.T) {
		if shares := bandEnergyShares(make([]float64, 512), sampleRate); shares != nil {
			t.Errorf("expected nil for input shorter than one window, got %v", shares)
		}
	})

	t.Run("silence returns nil", func(t *testing.T) {
		if shares := bandEnergyShares(make([]float64, 4096), sampleRate); shares != nil {
			t.Errorf("expected nil for digital silence, got %v", shares)
		}
	})
}

// reportResult builds a plausible Result with paths that do not exist, so
// the band energy section (which decodes the files) is skipped.
func reportResult() *processor.Result {
	return &processor.Result{
		InputPath:  "missing-input.wav",
		OutputPath: "missing-input-processed.wav",
		Before: &processor.AudioMeasurements{
			PeakLevel: -8.0, RMSLevel: -26.0, RMSTrough: -52.0,
			NoiseFloor: -48.0, DynamicRange: 44.0,
			SpectralCentroid: 1450.0, SpectralRolloff: 3100.0,
			HumLevel: -63.0, MainsFrequency: 50,
			DurationSeconds: 8.0, SampleRate: 16000,
		},
		After: &processor.AudioMeasurements{
			PeakLevel: -0.9, RMSLevel: -14.0, RMSTrough: -60.0,
			NoiseFloor: -72.0, DynamicRange: 59.1,
			SpectralCentroid: 1500.0, SpectralRolloff: 2700.0,
			HumLevel: -95.0, MainsFrequency: 50,
			DurationSeconds: 8.0, SampleRate: 16000,
		},
		Config:  processor.DefaultChainConfig(),
		Elapsed: 412 * time.Millisecond,
	}
}

func TestWriteReportSections(t *testing.T) {
	var sb strings.Builder
	WriteReport(&sb, ReportData{
		Result:  reportResult(),
		EndTime: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	output := sb.String()

	wantFragments := []string{
		"# Jivescrub Processing Report",
		"missing-input-processed.wav",
		"2026-03-14 09:30:00",
		"## Summary",
		"**Result: Excellent**", // snr 58, rms -14, no clipping
		"Noise floor improved by 24.0 dB",
		"## Measurements",
		"Noise Floor",
		"## Noise Analysis",
		"Mains Hum (50Hz)",
		"## Pipeline Settings",
		"500-2800 Hz (order 6)",
		"## Recording Tips",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(output, fragment) {
			t.Errorf("report missing %q", fragment)
		}
	}

	// Band energy needs the audio files; with missing paths the section
	// is skipped rather than failing the report.
	if strings.Contains(output, "## Frequency Band Energy") {
		t.Error("band energy section should be skipped when files cannot be decoded")
	}

	// The quiet input should produce at least one tip.
	if strings.Contains(output, "No recording issues detected") {
		t.Error("expected recording tips for a quiet, noisy input")
	}
}

func TestWriteReportTruncatedNote(t *testing.T) {
	r := reportResult()
	r.Truncated = true

	var sb strings.Builder
	WriteReport(&sb, ReportData{Result: r})

	if !strings.Contains(sb.String(), "segment cap") {
		t.Error("expected truncation note in report header")
	}
}

func TestGenerateReportWritesFile(t *testing.T) {
	dir := t.TempDir()
	r := reportResult()
	r.OutputPath = filepath.Join(dir, "take-processed.wav")

	if err := GenerateReport(ReportData{Result: r}); err != nil {
		t.Fatalf("GenerateReport() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "take-processed-report.md"))
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(data), "# Jivescrub Processing Report") {
		t.Error("report file missing header")
	}

	if err := GenerateReport(ReportData{}); err == nil {
		t.Error("GenerateReport() with no result should fail")
	}
}
