// This file contains the aligned-column table used by processing reports
// to compare segment measurements before and after cleaning.

package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow represents a single row in a comparison table. Values are
// pre-formatted strings so rows can mix precisions and placeholders.
type MetricRow struct {
	Label          string   // Row label, e.g., "RMS Level"
	Values         []string // One value per column (Before, After, Change)
	Unit           string   // Unit suffix, e.g., "dBFS", "Hz", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Before", "After", "Change"]
	Rows    []MetricRow // Data rows
}

// NewMetricTable creates a MetricTable with the standard Before/After/Change
// headers used by processing reports.
func NewMetricTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Before", "After", "Change"},
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricDBRow adds a dB-valued row with the change column computed as
// after minus before. Values at or below the measurement floor render as
// "< -120" and suppress the change column.
func (t *MetricTable) AddMetricDBRow(label string, before, after float64, unit string, interpretation string) {
	change := MissingValue
	if !isDigitalSilence(before) && !isDigitalSilence(after) {
		change = formatMetricSigned(after-before, 1)
	}
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         []string{formatMetricDB(before, 1), formatMetricDB(after, 1), change},
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMetricHzRow adds a frequency-valued row. Non-positive readings mean
// the spectrum was not measured and render as "n/a".
func (t *MetricTable) AddMetricHzRow(label string, before, after float64, interpretation string) {
	change := MissingValue
	if before > 0 && after > 0 {
		change = formatMetricSigned(after-before, 0)
	}
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         []string{formatMetricHz(before), formatMetricHz(after), change},
		Unit:           "Hz",
		Interpretation: interpretation,
	})
}

// String renders the table with aligned columns.
// Labels are left-aligned, values right-aligned within their column, the
// unit follows the last value column, and the interpretation column is
// only emitted when at least one row carries one.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
			break
		}
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	// Each value column is as wide as its header or its widest value.
	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	unitWidth := 0
	for _, row := range t.Rows {
		if len(row.Unit) > unitWidth {
			unitWidth = len(row.Unit)
		}
	}

	var sb strings.Builder

	// Header row
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	if unitWidth > 0 {
		sb.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	// Data rows
	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))

		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}

		if unitWidth > 0 {
			sb.WriteString(fmt.Sprintf("%-*s ", unitWidth, row.Unit))
		}

		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// MissingValue is the placeholder for unavailable measurements.
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level at or below which the signal
// is treated as digital silence. The analyser reports -120 for true zero.
const DigitalSilenceThreshold = -120.0

// isDigitalSilence reports whether a dB value represents digital silence.
func isDigitalSilence(value float64) bool {
	return math.IsInf(value, -1) || value <= DigitalSilenceThreshold
}

// formatMetric formats a numeric value to the given decimal places.
// Very small non-zero values switch to scientific notation; NaN and Inf
// render as the missing-value placeholder.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}

	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}

	format := fmt.Sprintf("%%.%df", decimals)
	return fmt.Sprintf(format, value)
}

// formatMetricDB formats a dB value, showing "< -120" at or below the
// measurement floor.
func formatMetricDB(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if isDigitalSilence(value) {
		return "< -120"
	}
	format := fmt.Sprintf("%%.%df", decimals)
	return fmt.Sprintf(format, value)
}

// formatMetricHz formats a frequency reading. Spectral measurements are
// undefined for silence or very short segments, which the analyser reports
// as zero; those render as "n/a".
func formatMetricHz(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f", value)
}

// formatMetricSigned formats a value with an explicit sign for positives,
// for change columns like "+2.5" or "-1.2".
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}

	format := fmt.Sprintf("%%+.%df", decimals)
	return fmt.Sprintf(format, value)
}
