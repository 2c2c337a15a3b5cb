package util

import "math"

func HertzToRadians(freq float64) float64 { return 2 * math.Pi * freq }

func RadiansToHertz(omega float64) float64 { return omega / (2 * math.Pi) }

func DegreesToRadians(deg float64) float64 { return deg * math.Pi / 180.0 }

func RadiansToDegrees(rad float64) float64 { return rad * 180.0 / math.Pi }

func PeakToRMS(peak float64) float64 { return peak / math.Sqrt2 }

func RMSToPeak(rms float64) float64 { return rms * math.Sqrt2 }

// Decibels converts an amplitude ratio to dB.
func Decibels(ratio float64) float64 { return 20 * math.Log10(ratio) }
