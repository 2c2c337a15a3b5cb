package circuit

import (
	"fmt"

	"github.com/edp1096/circuitkit/pkg/device"
)

// system numbers the unknowns of one solve. It implements
// device.NodeIndexer.
type system struct {
	fixed    map[NodeID]complex128
	rows     map[NodeID]int
	branches map[device.Device]int
	passive  map[device.Device]complex128 // admittance of every non-open, non-short passive
	opens    map[device.Device]struct{}
}

var _ device.NodeIndexer = (*system)(nil)

func (s *system) Row(n NodeID) int { return s.rows[n] }

func (s *system) Fixed(n NodeID) (complex128, bool) {
	v, ok := s.fixed[n]
	return v, ok
}

func (s *system) Branch(d device.Device) int { return s.branches[d] }

func (s *system) size() int { return len(s.rows) + len(s.branches) }

type constraint struct {
	dev device.Device
	e   complex128 // V(A) - V(B)
}

func (c *Circuit) assemble(omega float64) (*system, error) {
	sys := &system{
		fixed:    make(map[NodeID]complex128),
		rows:     make(map[NodeID]int),
		branches: make(map[device.Device]int),
		passive:  make(map[device.Device]complex128),
		opens:    make(map[device.Device]struct{}),
	}

	var (
		constraints []constraint
		injections  []*device.CurrentSource
	)
	for _, d := range c.devices {
		switch dev := d.(type) {
		case *device.VoltageSource:
			constraints = append(constraints, constraint{dev: dev, e: dev.Phasor().Value.Complex128()})
		case *device.CurrentSource:
			injections = append(injections, dev)
		case device.Passive:
			switch {
			case device.IsOpen(dev, omega):
				sys.opens[dev] = struct{}{}
			case device.IsShort(dev, omega):
				constraints = append(constraints, constraint{dev: dev})
			default:
				sys.passive[dev] = dev.Impedance(omega).AsAdmittance().Value.Complex128()
			}
		default:
			return nil, fmt.Errorf("%w: unsupported device %s", ErrUnsolvableNetwork, d.GetName())
		}
	}

	for _, id := range c.nodes {
		if v, ok := c.net.Known(id); ok {
			sys.fixed[id] = v.Complex128()
		}
	}

	if err := c.propagate(sys, constraints); err != nil {
		return nil, err
	}
	if len(sys.fixed) == 0 {
		return nil, fmt.Errorf("%w: no node with a known voltage", ErrUnsolvableNetwork)
	}

	anchored := c.anchor(sys, constraints)

	for _, id := range c.nodes {
		if _, ok := sys.fixed[id]; !ok && anchored[id] {
			sys.rows[id] = len(sys.rows) + 1
		}
	}
	next := len(sys.rows) + 1
	for _, k := range constraints {
		nodes := k.dev.GetNodes()
		_, fixedA := sys.fixed[nodes[0]]
		_, fixedB := sys.fixed[nodes[1]]
		if !fixedA && !fixedB && anchored[nodes[0]] {
			sys.branches[k.dev] = next
			next++
		}
	}

	for _, src := range injections {
		nodes := src.GetNodes()
		if anchored[nodes[0]] != anchored[nodes[1]] && !src.Phasor().Value.IsZero() {
			return nil, fmt.Errorf("%w: current source %s drives a floating node", ErrUnsolvableNetwork, src.GetName())
		}
	}

	return sys, nil
}

// propagate fixes the far terminal of every constraint with one known
// terminal until nothing changes.
func (c *Circuit) propagate(sys *system, constraints []constraint) error {
	for changed := true; changed; {
		changed = false
		for _, k := range constraints {
			nodes := k.dev.GetNodes()
			va, okA := sys.fixed[nodes[0]]
			vb, okB := sys.fixed[nodes[1]]
			switch {
			case okA && okB:
				if !c.close(va-vb, k.e) {
					return fmt.Errorf("%w: conflicting constraints at %s (%s - %s = %v, want %v)",
						ErrUnsolvableNetwork, k.dev.GetName(), c.net.Label(nodes[0]), c.net.Label(nodes[1]), va-vb, k.e)
				}
			case okA:
				sys.fixed[nodes[1]] = va - k.e
				changed = true
			case okB:
				sys.fixed[nodes[0]] = vb + k.e
				changed = true
			}
		}
	}
	return nil
}

// anchor marks the nodes tied to a known node through admittances or
// constraints.
func (c *Circuit) anchor(sys *system, constraints []constraint) map[NodeID]bool {
	adjacent := make(map[NodeID][]NodeID)
	link := func(d device.Device) {
		nodes := d.GetNodes()
		adjacent[nodes[0]] = append(adjacent[nodes[0]], nodes[1])
		adjacent[nodes[1]] = append(adjacent[nodes[1]], nodes[0])
	}
	for d := range sys.passive {
		link(d)
	}
	for _, k := range constraints {
		link(k.dev)
	}

	anchored := make(map[NodeID]bool)
	var queue []NodeID
	for _, id := range c.nodes {
		if _, ok := sys.fixed[id]; ok {
			anchored[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacent[id] {
			if !anchored[next] {
				anchored[next] = true
				queue = append(queue, next)
			}
		}
	}
	return anchored
}
