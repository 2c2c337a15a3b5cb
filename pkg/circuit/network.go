package circuit

import (
	"fmt"

	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/phasor"
)

type NodeID = device.NodeID

type Attachment struct {
	Device device.Device
	Pin    device.Pin
}

type node struct {
	name    string
	known   bool
	fixed   cplx.Complex
	solved  bool
	voltage phasor.Phasor
}

// Network is an arena of nodes and the devices wired between them. Node
// handles start at 1.
type Network struct {
	nodes     []node
	devices   []device.Device
	connected map[device.Device]struct{}
}

func NewNetwork() *Network {
	return &Network{
		nodes:     make([]node, 1),
		connected: make(map[device.Device]struct{}),
	}
}

func (n *Network) add(nd node) NodeID {
	n.nodes = append(n.nodes, nd)
	return NodeID(len(n.nodes) - 1)
}

// AddNode creates a node whose voltage is found by solving.
func (n *Network) AddNode(name string) NodeID {
	return n.add(node{name: name})
}

// AddGround creates a new node fixed at 0 V. Every call returns a distinct
// node; keep the handle to share one ground.
func (n *Network) AddGround(name string) NodeID {
	return n.AddReference(name, cplx.Zero)
}

// AddReference creates a node fixed at the given peak phasor.
func (n *Network) AddReference(name string, value cplx.Complex) NodeID {
	return n.add(node{name: name, known: true, fixed: value})
}

func (n *Network) valid(id NodeID) bool {
	return id > 0 && int(id) < len(n.nodes)
}

func (n *Network) Connect(d device.Device, a, b NodeID) error {
	if d == nil {
		return fmt.Errorf("connect: nil device")
	}
	if _, ok := n.connected[d]; ok {
		return fmt.Errorf("%w: %s %s", ErrAlreadyConnected, d.GetType(), d.GetName())
	}
	for _, id := range []NodeID{a, b} {
		if !n.valid(id) {
			return fmt.Errorf("%w: %d (connecting %s)", ErrUnknownNode, id, d.GetName())
		}
	}

	d.SetNodes(a, b)
	n.devices = append(n.devices, d)
	n.connected[d] = struct{}{}
	return nil
}

func (n *Network) Len() int { return len(n.nodes) - 1 }

func (n *Network) Nodes() []NodeID {
	ids := make([]NodeID, 0, n.Len())
	for i := 1; i < len(n.nodes); i++ {
		ids = append(ids, NodeID(i))
	}
	return ids
}

func (n *Network) Devices() []device.Device {
	return append([]device.Device(nil), n.devices...)
}

func (n *Network) Name(id NodeID) string {
	if !n.valid(id) {
		return ""
	}
	return n.nodes[id].name
}

// Label is the node name, or its handle when the node is anonymous.
func (n *Network) Label(id NodeID) string {
	if name := n.Name(id); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// Known returns the voltage a node was fixed at construction.
func (n *Network) Known(id NodeID) (cplx.Complex, bool) {
	if !n.valid(id) || !n.nodes[id].known {
		return cplx.Zero, false
	}
	return n.nodes[id].fixed, true
}

// Attachments lists the device pins tied to a node, in wiring order.
func (n *Network) Attachments(id NodeID) []Attachment {
	var out []Attachment
	for _, d := range n.devices {
		nodes := d.GetNodes()
		for p, nid := range nodes {
			if nid == id {
				out = append(out, Attachment{Device: d, Pin: device.Pin(p)})
			}
		}
	}
	return out
}

func (n *Network) attachmentIndex() map[NodeID][]Attachment {
	index := make(map[NodeID][]Attachment)
	for _, d := range n.devices {
		for p, nid := range d.GetNodes() {
			index[nid] = append(index[nid], Attachment{Device: d, Pin: device.Pin(p)})
		}
	}
	return index
}

// Voltage returns the node voltage assigned by the last successful solve
// that included the node.
func (n *Network) Voltage(id NodeID) (phasor.Phasor, error) {
	if !n.valid(id) {
		return phasor.Phasor{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	nd := n.nodes[id]
	if !nd.solved {
		return phasor.Phasor{}, fmt.Errorf("%w: node %s", ErrMissingVoltage, n.Label(id))
	}
	return nd.voltage, nil
}
