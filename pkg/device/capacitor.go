package device

import (
	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/impedance"
	"github.com/edp1096/circuitkit/pkg/matrix"
)

type Capacitor struct {
	BaseDevice
	Value float64 // farad
}

var _ Passive = (*Capacitor)(nil)

func NewCapacitor(name string, value float64) *Capacitor {
	return &Capacitor{BaseDevice: BaseDevice{Name: name}, Value: value}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) GetValue() float64 { return c.Value }

func (c *Capacitor) SetValue(value float64) { c.Value = value }

// Impedance is 1/(jwC). At w = 0 the capacitor is open.
func (c *Capacitor) Impedance(omega float64) impedance.Impedance {
	return impedance.NewAdmittance(cplx.Imag(omega * c.Value)).AsImpedance()
}

func (c *Capacitor) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	return stampPassive(matrix, status, c)
}
