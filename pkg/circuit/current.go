package circuit

import (
	"fmt"

	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/phasor"
)

// resolveCurrents finds the current flowing from pin A to pin B through
// every device it can. Passives follow from their terminal voltages;
// ground-referenced constraints follow from current balance at a terminal
// whose other currents are all known.
func (c *Circuit) resolveCurrents(voltages map[NodeID]complex128, branch map[device.Device]complex128, sys *system) map[device.Device]complex128 {
	currents := make(map[device.Device]complex128, len(c.devices))

	for _, d := range c.devices {
		if _, ok := sys.opens[d]; ok {
			currents[d] = 0
			continue
		}
		if i, ok := branch[d]; ok {
			currents[d] = i
			continue
		}
		switch dev := d.(type) {
		case *device.CurrentSource:
			currents[d] = dev.Phasor().Value.Complex128()
		default:
			y, ok := sys.passive[d]
			if !ok {
				continue
			}
			nodes := d.GetNodes()
			va, okA := voltages[nodes[0]]
			vb, okB := voltages[nodes[1]]
			if okA && okB {
				currents[d] = (va - vb) * y
			}
		}
	}

	index := c.net.attachmentIndex()
	for progress := true; progress; {
		progress = false
		for _, id := range c.nodes {
			if _, ok := voltages[id]; !ok {
				continue
			}

			var (
				sum     complex128
				missing []Attachment
			)
			for _, att := range index[id] {
				nodes := att.Device.GetNodes()
				if nodes[0] == nodes[1] {
					continue
				}
				i, ok := currents[att.Device]
				if !ok {
					missing = append(missing, att)
					continue
				}
				if att.Pin == device.PinA {
					sum += i
				} else {
					sum -= i
				}
			}

			if len(missing) != 1 {
				continue
			}
			att := missing[0]
			if att.Pin == device.PinA {
				currents[att.Device] = -sum
			} else {
				currents[att.Device] = sum
			}
			progress = true
		}
	}

	return currents
}

// Current returns the current through a device from the last successful
// solve. Passives report the current flowing from pin A to pin B; sources
// report the current they deliver out of pin A.
func (c *Circuit) Current(d device.Device) (phasor.Phasor, error) {
	if _, ok := c.inCkt[d]; !ok {
		return phasor.Phasor{}, fmt.Errorf("%w: %v is not part of the circuit", ErrUnknownDevice, deviceName(d))
	}
	if !c.solved {
		return phasor.Phasor{}, fmt.Errorf("%w: circuit not solved", ErrMissingVoltage)
	}

	i, ok := c.currents[d]
	if !ok {
		nodes := d.GetNodes()
		_, okA := c.voltages[nodes[0]]
		_, okB := c.voltages[nodes[1]]
		if okA && okB {
			return phasor.Phasor{}, fmt.Errorf("%w: %s %s", ErrIndeterminateCurrent, d.GetType(), d.GetName())
		}
		return phasor.Phasor{}, fmt.Errorf("%w: terminal of %s %s", ErrMissingVoltage, d.GetType(), d.GetName())
	}

	if _, ok := d.(*device.VoltageSource); ok {
		i = -i
	}
	return phasor.FromComplex128(i, c.solvedOmega), nil
}

func deviceName(d device.Device) string {
	if d == nil {
		return "<nil>"
	}
	return d.GetName()
}
