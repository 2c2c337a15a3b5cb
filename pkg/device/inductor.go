package device

import (
	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/impedance"
	"github.com/edp1096/circuitkit/pkg/matrix"
)

type Inductor struct {
	BaseDevice
	Value float64 // henry
}

var _ Passive = (*Inductor)(nil)

func NewInductor(name string, value float64) *Inductor {
	return &Inductor{BaseDevice: BaseDevice{Name: name}, Value: value}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) GetValue() float64 { return l.Value }

func (l *Inductor) SetValue(value float64) { l.Value = value }

// Impedance is jwL. At w = 0 the inductor is a short.
func (l *Inductor) Impedance(omega float64) impedance.Impedance {
	return impedance.NewImpedance(cplx.Imag(omega * l.Value))
}

func (l *Inductor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return stampPassive(matrix, status, l)
}
