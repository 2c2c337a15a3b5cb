package device

import (
	"github.com/edp1096/circuitkit/pkg/matrix"
	"github.com/edp1096/circuitkit/pkg/phasor"
)

// VoltageSource is an ideal sinusoidal source: V(A) - V(B) equals its phasor.
type VoltageSource struct {
	BaseDevice
	phasor phasor.Phasor
}

var _ Source = (*VoltageSource)(nil)

func NewVoltageSource(name string, p phasor.Phasor) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{Name: name}, phasor: p}
}

// NewACVoltageSource builds a source from a peak magnitude, a phase in
// degrees and a frequency in Hz.
func NewACVoltageSource(name string, acMag, acPhase, freq float64) *VoltageSource {
	return NewVoltageSource(name, phasorFromDegrees(acMag, acPhase, freq))
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) Phasor() phasor.Phasor { return v.phasor }

func (v *VoltageSource) SetPhasor(p phasor.Phasor) { v.phasor = p }

func (v *VoltageSource) SetOmega(omega float64) { v.phasor = v.phasor.WithOmega(omega) }

func (v *VoltageSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return stampConstraint(matrix, status, v, v.phasor.Value.Complex128())
}
