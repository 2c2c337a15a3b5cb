package device

import (
	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/impedance"
	"github.com/edp1096/circuitkit/pkg/matrix"
)

type Resistor struct {
	BaseDevice
	Value float64 // ohm
}

var _ Passive = (*Resistor)(nil)

func NewResistor(name string, value float64) *Resistor {
	return &Resistor{BaseDevice: BaseDevice{Name: name}, Value: value}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) GetValue() float64 { return r.Value }

func (r *Resistor) SetValue(value float64) { r.Value = value }

func (r *Resistor) Impedance(omega float64) impedance.Impedance {
	return impedance.NewImpedance(cplx.Real(r.Value))
}

func (r *Resistor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return stampPassive(matrix, status, r)
}
