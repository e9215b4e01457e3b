package logging

import (
	"strings"
	"testing"

	"github.com/linuxmatters/jivescrub/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Try moving closer to your microphone for better results",
			maxWidth: 30,
			indent:   "  ",
			want:     "Try moving closer to your\n  microphone for better results",
		},
		{
			name:     "single_long_word",
			text:     "supercalifragilisticexpialidocious",
			maxWidth: 10,
			indent:   "  ",
			want:     "supercalifragilisticexpialidocious",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "exact_fit",
			text:     "exactly twenty chars",
			maxWidth: 20,
			indent:   "  ",
			want:     "exactly twenty chars",
		},
		{
			name:     "multiple_wraps",
			text:     "one two three four five six seven eight nine ten",
			maxWidth: 15,
			indent:   "    ",
			want:     "one two three\n    four five six\n    seven eight\n    nine ten",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTipLevelTooHot(t *testing.T) {
	tests := []struct {
		name         string
		peakLevel    float64
		clippedRatio float64
		wantTip      bool
		wantRuleID   string
	}{
		{"clipped samples present", -0.1, 0.01, true, "level_clipping"},
		{"clipped ratio at boundary falls to near clipping", -0.1, 0.001, true, "level_near_clipping"},
		{"hot peak without clipping", -0.5, 0, true, "level_near_clipping"},
		{"boundary -1 dBFS no tip", -1.0, 0, false, ""},
		{"safe -3 dBFS", -3.0, 0, false, ""},
		{"silence default", -120.0, 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.PeakLevel = tt.peakLevel
			m.ClippedRatio = tt.clippedRatio
			tip := tipLevelTooHot(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipLevelTooHot() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != tt.wantRuleID {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, tt.wantRuleID)
			}
		})
	}
}

func TestTipLevelTooQuiet(t *testing.T) {
	tests := []struct {
		name       string
		rmsLevel   float64
		wantTip    bool
		wantRuleID string
		wantGain   string // substring to check in message, empty to skip
	}{
		{"very quiet -48 dBFS", -48.0, true, "level_too_quiet", "24 dB"}, // -24 - (-48) = 24
		{"boundary -40 dBFS handled by quiet rule", -40.0, false, "", ""},
		{"moderately quiet -35 dBFS", -35.0, false, "", ""},
		{"normal -20 dBFS", -20.0, false, "", ""},
		{"unmeasured silence default", -120.0, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.RMSLevel = tt.rmsLevel
			tip := tipLevelTooQuiet(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipLevelTooQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil {
				if tip.RuleID != tt.wantRuleID {
					t.Errorf("RuleID = %q, want %q", tip.RuleID, tt.wantRuleID)
				}
				if tt.wantGain != "" && !strings.Contains(tip.Message, tt.wantGain) {
					t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
				}
			}
		})
	}
}

func TestTipLevelQuiet(t *testing.T) {
	tests := []struct {
		name       string
		rmsLevel   float64
		wantTip    bool
		wantRuleID string
		wantGain   string
	}{
		{"very quiet handled by too_quiet", -48.0, false, "", ""},
		{"boundary -40 dBFS triggers quiet", -40.0, true, "level_quiet", "16 dB"}, // -24 - (-40) = 16
		{"moderately quiet -35 dBFS", -35.0, true, "level_quiet", "11 dB"},        // -24 - (-35) = 11
		{"boundary -30 dBFS no tip", -30.0, false, "", ""},
		{"normal -20 dBFS", -20.0, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.RMSLevel = tt.rmsLevel
			tip := tipLevelQuiet(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipLevelQuiet() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil {
				if tip.RuleID != tt.wantRuleID {
					t.Errorf("RuleID = %q, want %q", tip.RuleID, tt.wantRuleID)
				}
				if tt.wantGain != "" && !strings.Contains(tip.Message, tt.wantGain) {
					t.Errorf("Message %q should contain %q", tip.Message, tt.wantGain)
				}
			}
		})
	}
}

func TestTipBackgroundNoise(t *testing.T) {
	tests := []struct {
		name       string
		noiseFloor float64
		wantTip    bool
		wantRuleID string
	}{
		{"high noise -42 dBFS", -42.0, true, "background_noise_high"},
		{"boundary -45 dBFS falls to moderate", -45.0, true, "background_noise_moderate"},
		{"moderate noise -50 dBFS", -50.0, true, "background_noise_moderate"},
		{"boundary -55 dBFS no tip", -55.0, false, ""},
		{"clean -70 dBFS", -70.0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.NoiseFloor = tt.noiseFloor
			tip := tipBackgroundNoise(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipBackgroundNoise() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != tt.wantRuleID {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, tt.wantRuleID)
			}
		})
	}
}

func TestTipMainsHum(t *testing.T) {
	tests := []struct {
		name      string
		humLevel  float64
		mainsHz   int
		wantTip   bool
		wantInMsg string
	}{
		{"loud 50Hz hum", -40.0, 50, true, "50Hz"},
		{"loud 60Hz hum", -40.0, 60, true, "60Hz"},
		{"boundary -55 dBFS no tip", -55.0, 50, false, ""},
		{"quiet hum", -70.0, 50, false, ""},
		{"hum measurement disabled", -40.0, 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.HumLevel = tt.humLevel
			m.MainsFrequency = tt.mainsHz
			tip := tipMainsHum(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipMainsHum() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil {
				if tip.RuleID != "mains_hum" {
					t.Errorf("RuleID = %q, want %q", tip.RuleID, "mains_hum")
				}
				if !strings.Contains(tip.Message, tt.wantInMsg) {
					t.Errorf("Message %q should contain %q", tip.Message, tt.wantInMsg)
				}
			}
		})
	}
}

func TestTipTooFarFromMic(t *testing.T) {
	tests := []struct {
		name       string
		rmsLevel   float64
		noiseFloor float64
		wantTip    bool
	}{
		{"quiet speech small gap", -35.0, -42.0, true}, // snr 7 dB
		{"quiet speech clean room", -35.0, -60.0, false},
		{"loud speech noisy room", -22.0, -30.0, false},
		{"boundary snr 15", -35.0, -50.0, false},
		{"boundary rms -30", -30.0, -40.0, false},
		{"unmeasured", -120.0, -60.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.RMSLevel = tt.rmsLevel
			m.NoiseFloor = tt.noiseFloor
			tip := tipTooFarFromMic(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipTooFarFromMic() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "too_far_from_mic" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "too_far_from_mic")
			}
		})
	}
}

func TestTipProximityEffect(t *testing.T) {
	tests := []struct {
		name     string
		centroid float64
		wantTip  bool
	}{
		{"very boomy voice", 250.0, true},
		{"boundary 400 Hz no tip", 400.0, false},
		{"normal speech centroid", 1200.0, false},
		{"unmeasured", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.SpectralCentroid = tt.centroid
			tip := tipProximityEffect(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipProximityEffect() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "proximity_effect" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "proximity_effect")
			}
		})
	}
}

func TestTipSibilance(t *testing.T) {
	tests := []struct {
		name     string
		centroid float64
		rolloff  float64
		wantTip  bool
	}{
		{"bright speech", 3500.0, 6800.0, true},
		{"boundary centroid 3000", 3000.0, 6800.0, false},
		{"boundary rolloff 6000", 3500.0, 6000.0, false},
		{"dark voice", 2000.0, 7000.0, false},
		{"unmeasured", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.SpectralCentroid = tt.centroid
			m.SpectralRolloff = tt.rolloff
			tip := tipSibilance(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipSibilance() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "sibilance" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "sibilance")
			}
		})
	}
}

func TestTipDynamicRange(t *testing.T) {
	tests := []struct {
		name         string
		rmsTrough    float64
		dynamicRange float64
		wantTip      bool
	}{
		{"very wide dynamics", -56.0, 50.0, true},
		{"boundary 45 dB no tip", -51.0, 45.0, false},
		{"steady speech", -40.0, 34.0, false},
		{"unmeasured trough", -120.0, 114.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.RMSTrough = tt.rmsTrough
			m.DynamicRange = tt.dynamicRange
			tip := tipDynamicRange(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipDynamicRange() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "dynamic_range" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "dynamic_range")
			}
		})
	}
}

func TestTipOverCompressed(t *testing.T) {
	tests := []struct {
		name      string
		peakLevel float64
		rmsLevel  float64
		wantTip   bool
	}{
		{"heavily compressed crest 4", -3.0, -7.0, true},
		{"boundary crest 6 no tip", -3.0, -9.0, false},
		{"natural speech crest 17", -3.0, -20.0, false},
		{"unmeasured", -120.0, -120.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.PeakLevel = tt.peakLevel
			m.RMSLevel = tt.rmsLevel
			tip := tipOverCompressed(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipOverCompressed() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "over_compressed" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "over_compressed")
			}
		})
	}
}

func TestTipPoorSNR(t *testing.T) {
	tests := []struct {
		name       string
		rmsLevel   float64
		noiseFloor float64
		wantTip    bool
	}{
		{"poor snr 7 dB", -25.0, -32.0, true},
		{"boundary snr 10 no tip", -25.0, -35.0, false},
		{"good snr", -25.0, -60.0, false},
		{"unmeasured", -120.0, -60.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &processor.AudioMeasurements{}
			m.RMSLevel = tt.rmsLevel
			m.NoiseFloor = tt.noiseFloor
			tip := tipPoorSNR(m)
			if (tip != nil) != tt.wantTip {
				t.Errorf("tipPoorSNR() returned tip=%v, want tip=%v", tip != nil, tt.wantTip)
			}
			if tip != nil && tip.RuleID != "poor_snr" {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, "poor_snr")
			}
		})
	}
}

// hasRuleID checks whether any tip in the slice has the given RuleID.
func hasRuleID(tips []RecordingTip, ruleID string) bool {
	for _, tip := range tips {
		if tip.RuleID == ruleID {
			return true
		}
	}
	return false
}

// ruleIDs extracts RuleIDs from tips for error messages.
func ruleIDs(tips []RecordingTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

// cleanMeasurements returns measurements for a healthy recording that
// fires no tips. Integration cases perturb individual fields from here.
func cleanMeasurements() *processor.AudioMeasurements {
	return &processor.AudioMeasurements{
		PeakLevel:        -6.0,
		RMSLevel:         -20.0,
		RMSTrough:        -45.0,
		NoiseFloor:       -70.0,
		DynamicRange:     39.0,
		SpectralCentroid: 1200.0,
		SpectralRolloff:  3200.0,
		HumLevel:         -120.0,
		MainsFrequency:   50,
		ClippedRatio:     0,
		DurationSeconds:  10.0,
		SampleRate:       16000,
	}
}

func TestGenerateRecordingTips(t *testing.T) {
	tests := []struct {
		name             string
		measurements     *processor.AudioMeasurements
		wantRuleIDs      []string // these RuleIDs must be present
		excludeRuleIDs   []string // these RuleIDs must NOT be present
		checkFirstRuleID string   // if set, first tip must have this RuleID
		maxTips          int      // if > 0, verify len(tips) <= this
		wantExact        int      // if > 0, verify len(tips) == this
		wantEmpty        bool     // if true, verify tips is nil or empty
	}{
		{
			name:         "nil measurements",
			measurements: nil,
			wantEmpty:    true,
		},
		{
			name:         "clean recording no tips",
			measurements: cleanMeasurements(),
			wantEmpty:    true,
		},
		{
			name: "mutual exclusion suppresses level_quiet and poor_snr",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.RMSLevel = -35.0   // quiet speech
				m.NoiseFloor = -42.0 // snr 7 dB: too far from mic
				return m
			}(),
			wantRuleIDs:    []string{"too_far_from_mic"},
			excludeRuleIDs: []string{"level_quiet", "poor_snr"},
		},
		{
			name: "implicit exclusion level_too_quiet not level_quiet",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.RMSLevel = -48.0 // snr 22 dB keeps too_far out
				return m
			}(),
			wantRuleIDs:    []string{"level_too_quiet"},
			excludeRuleIDs: []string{"level_quiet", "too_far_from_mic"},
		},
		{
			name: "clipping suppresses quiet advice",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.ClippedRatio = 0.02
				m.PeakLevel = -0.01
				m.RMSLevel = -35.0 // quiet on average but still clipping
				m.NoiseFloor = -60.0
				return m
			}(),
			wantRuleIDs:    []string{"level_clipping"},
			excludeRuleIDs: []string{"level_quiet", "level_too_quiet"},
		},
		{
			name: "hum suppresses moderate noise advice",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.NoiseFloor = -50.0
				m.HumLevel = -40.0
				return m
			}(),
			wantRuleIDs:    []string{"mains_hum"},
			excludeRuleIDs: []string{"background_noise_moderate"},
		},
		{
			name: "priority ordering highest first",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.RMSLevel = -48.0       // level_too_quiet, priority 10
				m.SpectralCentroid = 250 // proximity_effect, priority 5
				m.RMSTrough = -56.0
				m.DynamicRange = 50.0 // dynamic_range, priority 5
				return m
			}(),
			checkFirstRuleID: "level_too_quiet",
			wantExact:        3,
		},
		{
			name: "all bad recording caps at 5",
			measurements: func() *processor.AudioMeasurements {
				m := cleanMeasurements()
				m.ClippedRatio = 0.01 // level_clipping, 10
				m.PeakLevel = -0.1
				m.NoiseFloor = -33.0     // background_noise_high, 9
				m.HumLevel = -30.0       // mains_hum, 7
				m.RMSLevel = -25.0       // snr 8 dB: poor_snr, 7
				m.SpectralCentroid = 250 // proximity_effect, 5
				m.RMSTrough = -75.0
				m.DynamicRange = 74.9 // dynamic_range, 5
				return m
			}(),
			maxTips:   MaxRecordingTips,
			wantExact: 5,
			wantRuleIDs: []string{
				"level_clipping",
				"background_noise_high",
				"mains_hum",
				"poor_snr",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := GenerateRecordingTips(tt.measurements)

			if tt.wantEmpty {
				if len(tips) != 0 {
					t.Errorf("expected no tips, got %d: %v", len(tips), ruleIDs(tips))
				}
				return
			}

			for _, wantID := range tt.wantRuleIDs {
				if !hasRuleID(tips, wantID) {
					t.Errorf("expected RuleID %q in tips, got %v", wantID, ruleIDs(tips))
				}
			}

			for _, excludeID := range tt.excludeRuleIDs {
				if hasRuleID(tips, excludeID) {
					t.Errorf("RuleID %q should be excluded, got %v", excludeID, ruleIDs(tips))
				}
			}

			if tt.checkFirstRuleID != "" && len(tips) > 0 {
				if tips[0].RuleID != tt.checkFirstRuleID {
					t.Errorf("first tip RuleID = %q, want %q (tips: %v)", tips[0].RuleID, tt.checkFirstRuleID, ruleIDs(tips))
				}
			}

			if tt.maxTips > 0 && len(tips) > tt.maxTips {
				t.Errorf("got %d tips, want at most %d: %v", len(tips), tt.maxTips, ruleIDs(tips))
			}

			if tt.wantExact > 0 && len(tips) != tt.wantExact {
				t.Errorf("got %d tips, want exactly %d: %v", len(tips), tt.wantExact, ruleIDs(tips))
			}

			// Sorted by priority descending
			for i := 1; i < len(tips); i++ {
				if tips[i].Priority > tips[i-1].Priority {
					t.Errorf("tips not sorted by priority: %v", ruleIDs(tips))
				}
			}
		})
	}
}
