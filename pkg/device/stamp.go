package device

import (
	"fmt"

	"github.com/edp1096/circuitkit/pkg/matrix"
)

// stampAdmittance loads y between the two nodes. Known neighbours are moved
// to the right-hand side.
func stampAdmittance(m matrix.DeviceMatrix, status *CircuitStatus, nodes [2]NodeID, y complex128) {
	idx := status.Nodes
	r1, r2 := idx.Row(nodes[0]), idx.Row(nodes[1])
	v1, fixed1 := idx.Fixed(nodes[0])
	v2, fixed2 := idx.Fixed(nodes[1])

	if r1 != 0 {
		m.AddComplexElement(r1, r1, real(y), imag(y))
		if r2 != 0 {
			m.AddComplexElement(r1, r2, -real(y), -imag(y))
		} else if fixed2 {
			i := y * v2
			m.AddComplexRHS(r1, real(i), imag(i))
		}
	}
	if r2 != 0 {
		m.AddComplexElement(r2, r2, real(y), imag(y))
		if r1 != 0 {
			m.AddComplexElement(r2, r1, -real(y), -imag(y))
		} else if fixed1 {
			i := y * v1
			m.AddComplexRHS(r2, real(i), imag(i))
		}
	}
}

// stampConstraint loads V(a) - V(b) = e with its branch current, flowing
// from a to b through the element, as an extra unknown.
func stampConstraint(m matrix.DeviceMatrix, status *CircuitStatus, d Device, e complex128) error {
	idx := status.Nodes
	k := idx.Branch(d)
	if k == 0 {
		return nil
	}

	nodes := d.GetNodes()
	sign := [2]float64{1, -1}
	rhs := e
	for p, n := range nodes {
		if r := idx.Row(n); r != 0 {
			m.AddElement(r, k, sign[p])
			m.AddElement(k, r, sign[p])
			continue
		}
		v, ok := idx.Fixed(n)
		if !ok {
			return fmt.Errorf("%s %s: pin %s is neither known nor an unknown", d.GetType(), d.GetName(), Pin(p))
		}
		rhs -= complex(sign[p], 0) * v
	}
	m.AddComplexRHS(k, real(rhs), imag(rhs))

	return nil
}

// stampInjection adds a current i entering the b node and leaving the a node.
func stampInjection(m matrix.DeviceMatrix, status *CircuitStatus, nodes [2]NodeID, i complex128) {
	if r := status.Nodes.Row(nodes[0]); r != 0 {
		m.AddComplexRHS(r, -real(i), -imag(i))
	}
	if r := status.Nodes.Row(nodes[1]); r != 0 {
		m.AddComplexRHS(r, real(i), imag(i))
	}
}

// stampPassive loads a passive element: open branches are skipped and ideal
// wires become 0 V constraints.
func stampPassive(m matrix.DeviceMatrix, status *CircuitStatus, p Passive) error {
	y := p.Impedance(status.Omega).AsAdmittance()
	switch {
	case y.IsOpen():
		return nil
	case y.IsShort():
		return stampConstraint(m, status, p, 0)
	}
	stampAdmittance(m, status, p.GetNodes(), y.Value.Complex128())
	return nil
}
