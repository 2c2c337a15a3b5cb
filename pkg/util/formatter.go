package util

import (
	"fmt"
	"math"
)

var prefixes = []struct {
	scale  float64
	symbol string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValueFactor renders value with an SI prefix, e.g. 0.0025 "A" -> "2.500 mA".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	if absValue == 0 {
		return fmt.Sprintf("%.3f %s", value, unit)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return fmt.Sprintf("%v %s", value, unit)
	}
	for _, p := range prefixes {
		if absValue >= p.scale {
			return fmt.Sprintf("%.3f %s%s", value/p.scale, p.symbol, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatMagnitudePhase renders "name=mag<phase deg" with phase in degrees.
func FormatMagnitudePhase(name string, value, phase float64) string {
	return fmt.Sprintf("%s=%s<%sdeg", name, FormatMagnitude(value), FormatPhase(phase))
}

func FormatMagnitude(value float64) string {
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value) // "1.00e+03" or "5.43e-05"
	}
	return fmt.Sprintf("%8.3g", value) // "  732.5 "
}

func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value) // "  90.0"
}

// FormatPhasor renders a peak phasor, e.g. "2.500 V peak <   0.0deg".
func FormatPhasor(peak, phaseRad float64, unit string) string {
	return fmt.Sprintf("%s peak <%sdeg", FormatValueFactor(peak, unit), FormatPhase(RadiansToDegrees(phaseRad)))
}
