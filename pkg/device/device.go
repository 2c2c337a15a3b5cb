package device

import (
	"github.com/edp1096/circuitkit/pkg/impedance"
	"github.com/edp1096/circuitkit/pkg/matrix"
	"github.com/edp1096/circuitkit/pkg/phasor"
)

// NodeID is a handle into a network's node arena. The zero value is not a
// node.
type NodeID int

type Pin int

const (
	PinA Pin = iota
	PinB
)

func (p Pin) String() string {
	if p == PinA {
		return "A"
	}
	return "B"
}

// Device is a two-terminal element. The set of implementations is closed:
// Resistor, Capacitor, Inductor, VoltageSource and CurrentSource.
type Device interface {
	GetName() string
	GetType() string
	GetNodes() [2]NodeID
	SetNodes(a, b NodeID)
	Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error
	bipole()
}

// Passive elements are described by their impedance at a given angular
// frequency.
type Passive interface {
	Device
	GetValue() float64
	SetValue(value float64)
	Impedance(omega float64) impedance.Impedance
}

// Source elements carry a sinusoidal excitation.
type Source interface {
	Device
	Phasor() phasor.Phasor
	SetPhasor(p phasor.Phasor)
	SetOmega(omega float64)
}

// NodeIndexer maps circuit nodes and constraint branches to equation rows.
type NodeIndexer interface {
	Row(n NodeID) int                  // 0 when the node is not an unknown
	Fixed(n NodeID) (complex128, bool) // known voltage, if any
	Branch(d Device) int               // 0 when the device has no branch row
}

type CircuitStatus struct {
	Omega float64 // rad/s
	Nodes NodeIndexer
}

type BaseDevice struct {
	Name  string
	Nodes [2]NodeID
}

func (d *BaseDevice) GetName() string { return d.Name }

func (d *BaseDevice) GetNodes() [2]NodeID { return d.Nodes }

func (d *BaseDevice) SetNodes(a, b NodeID) { d.Nodes = [2]NodeID{a, b} }

func (d *BaseDevice) bipole() {}

// IsShort reports whether a passive element is an ideal wire at omega.
func IsShort(p Passive, omega float64) bool {
	return p.Impedance(omega).IsShort()
}

// IsOpen reports whether a passive element carries no current at omega.
func IsOpen(p Passive, omega float64) bool {
	return p.Impedance(omega).AsAdmittance().IsOpen()
}
