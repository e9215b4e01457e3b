package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/jivescrub/internal/processor"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from audio analysis measurements.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// unmeasured marks dB fields still at the analyser's silence default.
const unmeasured = -119.0

// GenerateRecordingTips analyses segment measurements and returns
// prioritised recording improvement suggestions.
func GenerateRecordingTips(m *processor.AudioMeasurements) []RecordingTip {
	if m == nil {
		return nil
	}

	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(*processor.AudioMeasurements) *RecordingTip{
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipBackgroundNoise,
		tipMainsHum,
		tipTooFarFromMic,
		tipProximityEffect,
		tipSibilance,
		tipDynamicRange,
		tipOverCompressed,
		tipPoorSNR,
	}

	for _, rule := range rules {
		if tip := rule(m); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, firedRules)

	// Sort by priority (descending)
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	// Cap at maximum
	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. For example, "level_quiet" is suppressed when
// "too_far_from_mic" fires because the latter already implies the former.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet", "level_quiet":
			if fired["level_clipping"] || fired["level_near_clipping"] || fired["too_far_from_mic"] {
				continue
			}
		case "poor_snr":
			if fired["too_far_from_mic"] {
				continue
			}
		case "background_noise_moderate":
			if fired["mains_hum"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipLevelTooHot fires when the segment peaks at or very near full scale.
// A ClippedRatio above 0.1% means audible distortion already happened;
// a peak above -1 dBFS means the next plosive will clip.
func tipLevelTooHot(m *processor.AudioMeasurements) *RecordingTip {
	if m.ClippedRatio > 0.001 {
		return &RecordingTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  "Your recording is clipping - turn your microphone gain down by 6-10 dB to prevent distortion.",
		}
	}
	if m.PeakLevel > -1.0 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "level_near_clipping",
			Message:  "Your recording is very close to clipping - turn your microphone gain down by 3-6 dB to give yourself some headroom.",
		}
	}
	return nil
}

// tipLevelTooQuiet fires when the overall speech level is very quiet
// (RMS below -40 dBFS). The gain suggestion targets -24 dBFS RMS, a
// comfortable level for speech into a 16-bit encoder.
func tipLevelTooQuiet(m *processor.AudioMeasurements) *RecordingTip {
	if m.RMSLevel <= unmeasured || m.RMSLevel >= -40.0 {
		return nil
	}
	gainNeeded := -24.0 - m.RMSLevel
	return &RecordingTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("Your microphone gain is too low - try increasing it by about %.0f dB.", gainNeeded),
	}
}

// tipLevelQuiet fires when the speech level is moderately quiet
// (RMS between -40 and -30 dBFS).
func tipLevelQuiet(m *processor.AudioMeasurements) *RecordingTip {
	if m.RMSLevel < -40.0 || m.RMSLevel >= -30.0 {
		return nil
	}
	gainNeeded := -24.0 - m.RMSLevel
	return &RecordingTip{
		Priority: 8,
		RuleID:   "level_quiet",
		Message:  fmt.Sprintf("Your recording is a bit quiet - increasing your microphone gain by about %.0f dB would improve quality.", gainNeeded),
	}
}

// tipBackgroundNoise fires when the noise floor is elevated. Thresholds
// match the adaptive tuner: above -45 dBFS the spectral gate is already
// at full strength, above -55 dBFS it is working harder than it should.
func tipBackgroundNoise(m *processor.AudioMeasurements) *RecordingTip {
	if m.NoiseFloor > -45.0 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "background_noise_high",
			Message:  fmt.Sprintf("Background noise is high (%.0f dBFS) - try turning off fans, air conditioning, or other appliances before recording.", m.NoiseFloor),
		}
	}
	if m.NoiseFloor > -55.0 {
		return &RecordingTip{
			Priority: 6,
			RuleID:   "background_noise_moderate",
			Message:  fmt.Sprintf("Background noise is slightly elevated (%.0f dBFS) - if possible, turn off any fans or appliances nearby.", m.NoiseFloor),
		}
	}
	return nil
}

// tipMainsHum fires when the measured level at the mains fundamental and
// its harmonics is loud enough to survive into the cleaned output.
func tipMainsHum(m *processor.AudioMeasurements) *RecordingTip {
	if m.MainsFrequency <= 0 || m.HumLevel <= -55.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message: fmt.Sprintf("There's a constant %dHz hum in your recording - check for nearby power supplies, monitors, or chargers and move them further from your microphone.",
			m.MainsFrequency),
	}
}

// tipTooFarFromMic fires when the speech level is low and the gap to the
// noise floor is small, the signature of a speaker working a distant
// microphone.
func tipTooFarFromMic(m *processor.AudioMeasurements) *RecordingTip {
	if m.RMSLevel <= unmeasured {
		return nil
	}
	snr := m.RMSLevel - m.NoiseFloor
	if m.RMSLevel >= -30.0 || snr >= 15.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "too_far_from_mic",
		Message:  "You sound quite far from your microphone. Try moving closer - about a hand's width (15-20cm) from the mic is ideal for most setups.",
	}
}

// tipProximityEffect fires when the spectral centroid sits unusually low
// for speech, the bass boost of a directional microphone worked too close.
func tipProximityEffect(m *processor.AudioMeasurements) *RecordingTip {
	if m.SpectralCentroid <= 0 || m.SpectralCentroid >= 400.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "proximity_effect",
		Message:  "Your voice sounds quite boomy - you may be too close to the microphone. Try moving back slightly or angling the mic to one side.",
	}
}

// tipSibilance fires when spectral energy is concentrated well above the
// speech band, the signature of harsh 's' sounds aimed straight at the
// capsule. Thresholds sit against the 8kHz Nyquist of the working rate.
func tipSibilance(m *processor.AudioMeasurements) *RecordingTip {
	if m.SpectralCentroid <= 3000.0 || m.SpectralRolloff <= 6000.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "sibilance",
		Message:  "Your recording has noticeable sibilance (harsh 's' and 'sh' sounds). Try angling your microphone slightly off-axis - point it at your chin rather than directly at your mouth.",
	}
}

// tipDynamicRange fires when the spread between the peak and the quietest
// speech window is very wide, indicating inconsistent speaking volume or
// microphone distance.
func tipDynamicRange(m *processor.AudioMeasurements) *RecordingTip {
	if m.RMSTrough <= unmeasured || m.DynamicRange <= 45.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "dynamic_range",
		Message:  "Your speaking volume varies quite a lot. Try to maintain a consistent distance from your microphone and a steady speaking level.",
	}
}

// tipOverCompressed fires when the crest factor is extremely low,
// indicating aggressive AGC or prior processing has flattened the audio.
// Speech below 6 dB of crest sounds brickwalled.
func tipOverCompressed(m *processor.AudioMeasurements) *RecordingTip {
	if m.PeakLevel <= unmeasured || m.RMSLevel <= unmeasured {
		return nil
	}
	crest := m.PeakLevel - m.RMSLevel
	if crest >= 6.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		RuleID:   "over_compressed",
		Message:  "Your recording sounds heavily compressed, possibly by automatic gain control. If your microphone software has an 'AGC' or 'auto-level' setting, try turning it off and setting the gain manually.",
	}
}

// tipPoorSNR fires when the noise-to-speech gap is critically small.
func tipPoorSNR(m *processor.AudioMeasurements) *RecordingTip {
	if m.RMSLevel <= unmeasured {
		return nil
	}
	if snr := m.RMSLevel - m.NoiseFloor; snr >= 10.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "poor_snr",
		Message:  "The gap between your voice and the background noise is very small. Move closer to your microphone and reduce background noise if possible.",
	}
}
