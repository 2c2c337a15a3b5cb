package netlist

import (
	"fmt"
	"os"

	"github.com/edp1096/circuitkit/pkg/circuit"
	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/phasor"
	"github.com/edp1096/circuitkit/pkg/util"
)

// Design is a netlist wired into a network.
type Design struct {
	Title     string
	Network   *circuit.Network
	Ground    circuit.NodeID
	Nodes     map[string]circuit.NodeID
	NodeNames []string
	Devices   []device.Device
	ByName    map[string]device.Device
	Data      *NetlistData
}

// CreateDevice builds a device from a parsed element. AC sources run at
// freq (Hz); SIN sources carry their own frequency.
func CreateDevice(elem Element, freq float64) (device.Device, error) {
	switch elem.Type {
	case "R":
		return device.NewResistor(elem.Name, elem.Value), nil

	case "L":
		return device.NewInductor(elem.Name, elem.Value), nil

	case "C":
		return device.NewCapacitor(elem.Name, elem.Value), nil

	case "V", "I":
		p, err := sourcePhasor(elem, freq)
		if err != nil {
			return nil, err
		}
		if elem.Type == "V" {
			return device.NewVoltageSource(elem.Name, p), nil
		}
		return device.NewCurrentSource(elem.Name, p), nil
	}
	return nil, fmt.Errorf("unsupported device type: %s", elem.Type)
}

func sourcePhasor(elem Element, freq float64) (phasor.Phasor, error) {
	phase, err := ParseValue(elem.Params["phase"])
	if err != nil {
		return phasor.Phasor{}, fmt.Errorf("%s: invalid phase: %v", elem.Name, err)
	}

	switch elem.Params["type"] {
	case "ac":
	case "sin":
		freq, err = ParseValue(elem.Params["freq"])
		if err != nil {
			return phasor.Phasor{}, fmt.Errorf("%s: invalid SIN frequency: %v", elem.Name, err)
		}
	default:
		return phasor.Phasor{}, fmt.Errorf("%s: unsupported source type: %s", elem.Name, elem.Params["type"])
	}

	omega := util.HertzToRadians(freq)
	phaseRad := util.DegreesToRadians(phase)
	if elem.Params["rms"] == "true" {
		return phasor.FromRMS(elem.Value, phaseRad, omega), nil
	}
	return phasor.FromPeak(elem.Value, phaseRad, omega), nil
}

// Build creates one node per netlist node name, with "0" and "gnd" sharing
// a single ground, and connects every element.
func Build(data *NetlistData) (*Design, error) {
	d := &Design{
		Title:   data.Title,
		Network: circuit.NewNetwork(),
		Nodes:   make(map[string]circuit.NodeID),
		ByName:  make(map[string]device.Device),
		Data:    data,
	}

	d.Ground = d.Network.AddGround("0")
	d.Nodes["0"] = d.Ground
	for _, name := range data.NodeNames {
		if IsGround(name) {
			d.Nodes[name] = d.Ground
			continue
		}
		d.Nodes[name] = d.Network.AddNode(name)
		d.NodeNames = append(d.NodeNames, name)
	}

	for _, elem := range data.Elements {
		if _, exists := d.ByName[elem.Name]; exists {
			return nil, fmt.Errorf("duplicate element name: %s", elem.Name)
		}

		dev, err := CreateDevice(elem, data.Frequency)
		if err != nil {
			return nil, fmt.Errorf("creating device %s: %v", elem.Name, err)
		}

		err = d.Network.Connect(dev, d.Nodes[elem.Nodes[0]], d.Nodes[elem.Nodes[1]])
		if err != nil {
			return nil, fmt.Errorf("connecting device %s: %w", elem.Name, err)
		}
		d.Devices = append(d.Devices, dev)
		d.ByName[elem.Name] = dev
	}

	return d, nil
}

// Circuit discovers the part of the design reachable from the ground.
func (d *Design) Circuit(opts ...circuit.Option) (*circuit.Circuit, error) {
	return circuit.Discover(d.Network, d.Ground, opts...)
}

func Load(path string) (*Design, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading netlist: %v", err)
	}

	data, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing netlist: %v", err)
	}

	return Build(data)
}
