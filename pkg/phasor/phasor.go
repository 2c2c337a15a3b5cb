// Package phasor describes a sinusoid by its peak complex amplitude and its
// angular frequency.
package phasor

import (
	"fmt"

	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/util"
)

type Phasor struct {
	Value cplx.Complex // peak amplitude and phase
	Omega float64      // rad/s
}

func New(value cplx.Complex, omega float64) Phasor {
	return Phasor{Value: value, Omega: omega}
}

func FromComplex128(value complex128, omega float64) Phasor {
	return Phasor{Value: cplx.FromComplex128(value), Omega: omega}
}

// FromPeak builds a phasor from a peak magnitude and a phase in radians.
func FromPeak(peak, phase, omega float64) Phasor {
	return Phasor{Value: cplx.Polar(peak, phase), Omega: omega}
}

// FromRMS builds a phasor from an RMS magnitude and a phase in radians.
func FromRMS(rms, phase, omega float64) Phasor {
	return FromPeak(util.RMSToPeak(rms), phase, omega)
}

func (p Phasor) Peak() float64 { return p.Value.Modulus() }

func (p Phasor) RMS() float64 { return util.PeakToRMS(p.Value.Modulus()) }

// Phase in radians.
func (p Phasor) Phase() float64 { return p.Value.Argument() }

func (p Phasor) Frequency() float64 { return util.RadiansToHertz(p.Omega) }

func (p Phasor) WithOmega(omega float64) Phasor {
	return Phasor{Value: p.Value, Omega: omega}
}

// Format renders the phasor with the given unit symbol, e.g. "V" or "A".
func (p Phasor) Format(unit string) string {
	return fmt.Sprintf("%s @ %s", util.FormatPhasor(p.Peak(), p.Phase(), unit), util.FormatFrequency(p.Frequency()))
}

func (p Phasor) String() string { return p.Format("") }
