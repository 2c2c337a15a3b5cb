package circuit

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circuitkit/pkg/cplx"
	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/matrix"
	"github.com/edp1096/circuitkit/pkg/phasor"
	"github.com/edp1096/circuitkit/pkg/util"
)

const tol = 1e-9

type divider struct {
	net     *Network
	in, out NodeID
	gnd     NodeID
	r1, r2  *device.Resistor
	v1      *device.VoltageSource
}

func newDivider(t *testing.T) divider {
	t.Helper()
	d := divider{net: NewNetwork()}
	d.in, d.out = d.net.AddNode("IN"), d.net.AddNode("OUT")
	d.gnd = d.net.AddGround("GND")
	d.r1 = device.NewResistor("R1", 10)
	d.r2 = device.NewResistor("R2", 5)
	d.v1 = device.NewVoltageSource("V1", phasor.FromPeak(7.5, 0, util.HertzToRadians(440)))

	require.NoError(t, d.net.Connect(d.r1, d.in, d.out))
	require.NoError(t, d.net.Connect(d.r2, d.out, d.gnd))
	require.NoError(t, d.net.Connect(d.v1, d.in, d.gnd))
	return d
}

func mustVoltage(t *testing.T, c *Circuit, id NodeID) phasor.Phasor {
	t.Helper()
	v, err := c.Voltage(id)
	require.NoError(t, err)
	return v
}

func mustCurrent(t *testing.T, c *Circuit, d device.Device) phasor.Phasor {
	t.Helper()
	i, err := c.Current(d)
	require.NoError(t, err)
	return i
}

func TestVoltageDivider(t *testing.T) {
	d := newDivider(t)

	ckt, err := Discover(d.net, d.gnd)
	require.NoError(t, err)
	assert.Len(t, ckt.Nodes(), 3)
	assert.Len(t, ckt.Devices(), 3)

	require.NoError(t, ckt.Solve())

	out, err := d.net.Voltage(d.out)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, out.Peak(), tol)
	assert.InDelta(t, 0.0, out.Phase(), tol)
	assert.InDelta(t, util.HertzToRadians(440), out.Omega, tol)

	assert.InDelta(t, 7.5, mustVoltage(t, ckt, d.in).Peak(), tol)
	assert.InDelta(t, 0.0, mustVoltage(t, ckt, d.gnd).Peak(), tol)

	src := mustCurrent(t, ckt, d.v1)
	assert.InDelta(t, 0.5, src.Value.Real(), tol)
	assert.InDelta(t, 0.0, src.Value.Imag(), tol)

	assert.InDelta(t, 0.5, mustCurrent(t, ckt, d.r1).Value.Real(), tol)
	assert.InDelta(t, 0.5, mustCurrent(t, ckt, d.r2).Value.Real(), tol)
	assert.InDelta(t, util.HertzToRadians(440), ckt.AngularFrequency(), tol)
}

type highPass struct {
	net     *Network
	in, out NodeID
	gnd     NodeID
	v1      *device.VoltageSource
}

func newHighPass(t *testing.T, freq float64) highPass {
	t.Helper()
	h := highPass{net: NewNetwork()}
	h.in, h.out = h.net.AddNode("IN"), h.net.AddNode("OUT")
	h.gnd = h.net.AddGround("GND")
	h.v1 = device.NewVoltageSource("V1", phasor.FromPeak(5, 0, util.HertzToRadians(freq)))

	require.NoError(t, h.net.Connect(h.v1, h.in, h.gnd))
	require.NoError(t, h.net.Connect(device.NewCapacitor("C1", 470e-6), h.in, h.out))
	require.NoError(t, h.net.Connect(device.NewResistor("R1", 5), h.out, h.gnd))
	return h
}

func TestHighPass(t *testing.T) {
	h := newHighPass(t, 25)
	ckt, err := Discover(h.net, h.gnd)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	in := mustVoltage(t, ckt, h.in)
	out := mustVoltage(t, ckt, h.out)
	assert.Less(t, out.Peak(), in.Peak())

	xc := 1 / (util.HertzToRadians(25) * 470e-6)
	want := 5 * 5 / math.Hypot(5, xc)
	assert.InDelta(t, want, out.Peak(), 1e-9)
	assert.Greater(t, out.Phase(), 0.0) // output leads the input

	t.Run("gain approaches one above the corner", func(t *testing.T) {
		h.v1.SetOmega(util.HertzToRadians(10e3))
		require.NoError(t, ckt.Solve())
		gain := mustVoltage(t, ckt, h.out).Peak() / mustVoltage(t, ckt, h.in).Peak()
		assert.InDelta(t, 1.0, gain, 1e-3)
	})
}

func TestResolveOverwritesVoltages(t *testing.T) {
	h := newHighPass(t, 25)
	ckt, err := Discover(h.net, h.gnd)
	require.NoError(t, err)

	require.NoError(t, ckt.Solve())
	first := mustVoltage(t, ckt, h.out)

	h.v1.SetOmega(util.HertzToRadians(100))
	require.NoError(t, ckt.Solve())
	second, err := h.net.Voltage(h.out)
	require.NoError(t, err)

	assert.False(t, first.Value.ApproxEqual(second.Value, 1e-6))
	assert.InDelta(t, util.HertzToRadians(100), second.Omega, tol)
	assert.InDelta(t, util.HertzToRadians(100), ckt.AngularFrequency(), tol)
}

func TestMissingVoltage(t *testing.T) {
	t.Run("before any solve", func(t *testing.T) {
		d := newDivider(t)
		_, err := d.net.Voltage(d.out)
		assert.ErrorIs(t, err, ErrMissingVoltage)

		ckt, err := Discover(d.net, d.gnd)
		require.NoError(t, err)
		_, err = ckt.Current(d.r1)
		assert.ErrorIs(t, err, ErrMissingVoltage)
	})

	t.Run("open branch only", func(t *testing.T) {
		net := NewNetwork()
		gnd := net.AddGround("GND")
		x := net.AddNode("X")
		c1 := device.NewCapacitor("C1", 1e-6)
		require.NoError(t, net.Connect(c1, gnd, x))

		ckt, err := Discover(net, gnd, WithAngularFrequency(0))
		require.NoError(t, err)
		require.NoError(t, ckt.Solve())

		_, err = net.Voltage(x)
		assert.ErrorIs(t, err, ErrMissingVoltage)
		assert.InDelta(t, 0.0, mustCurrent(t, ckt, c1).Peak(), tol)
	})

	t.Run("unreachable island", func(t *testing.T) {
		d := newDivider(t)
		island := d.net.AddNode("ISLAND")
		other := d.net.AddGround("GND2")
		r := device.NewResistor("R9", 1)
		require.NoError(t, d.net.Connect(r, island, other))

		ckt, err := Discover(d.net, d.gnd)
		require.NoError(t, err)
		require.NoError(t, ckt.Solve())

		_, err = d.net.Voltage(island)
		assert.ErrorIs(t, err, ErrMissingVoltage)
		_, err = ckt.Current(r)
		assert.ErrorIs(t, err, ErrUnknownDevice)
		assert.NotContains(t, ckt.Devices(), device.Device(r))
	})
}

func TestFloatingSource(t *testing.T) {
	net := NewNetwork()
	gnd := net.AddGround("GND")
	in, a, b := net.AddNode("IN"), net.AddNode("A"), net.AddNode("B")

	v1 := device.NewVoltageSource("V1", phasor.FromPeak(10, 0, 1))
	v2 := device.NewVoltageSource("V2", phasor.FromPeak(2, 0, 1))
	r1 := device.NewResistor("R1", 1)
	r2 := device.NewResistor("R2", 1)
	require.NoError(t, net.Connect(v1, in, gnd))
	require.NoError(t, net.Connect(r1, in, a))
	require.NoError(t, net.Connect(v2, a, b))
	require.NoError(t, net.Connect(r2, b, gnd))

	ckt, err := Discover(net, in)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	assert.InDelta(t, 6.0, mustVoltage(t, ckt, a).Value.Real(), tol)
	assert.InDelta(t, 4.0, mustVoltage(t, ckt, b).Value.Real(), tol)
	assert.InDelta(t, 4.0, mustCurrent(t, ckt, r1).Value.Real(), tol)
	assert.InDelta(t, -4.0, mustCurrent(t, ckt, v2).Value.Real(), tol)
	assert.InDelta(t, 4.0, mustCurrent(t, ckt, v1).Value.Real(), tol)
}

func TestFloatingSourceOverStiffGround(t *testing.T) {
	net := NewNetwork()
	gnd := net.AddGround("GND")
	a, b := net.AddNode("A"), net.AddNode("B")

	v1 := device.NewVoltageSource("V1", phasor.FromPeak(1, 0, 1))
	ra := device.NewResistor("RA", 1e-7)
	rb := device.NewResistor("RB", 1e-7)
	require.NoError(t, net.Connect(v1, a, b))
	require.NoError(t, net.Connect(ra, a, gnd))
	require.NoError(t, net.Connect(rb, b, gnd))

	ckt, err := Discover(net, gnd)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	assert.InDelta(t, 0.5, mustVoltage(t, ckt, a).Value.Real(), 1e-6)
	assert.InDelta(t, -0.5, mustVoltage(t, ckt, b).Value.Real(), 1e-6)
	assert.InDelta(t, 5e6, mustCurrent(t, ckt, ra).Value.Real(), 1e-2)
	assert.InDelta(t, 5e6, mustCurrent(t, ckt, v1).Peak(), 1e-2)
}

func TestParallelSources(t *testing.T) {
	build := func(t *testing.T, second float64) (*Circuit, *device.VoltageSource) {
		net := NewNetwork()
		gnd := net.AddGround("GND")
		in := net.AddNode("IN")
		v1 := device.NewVoltageSource("V1", phasor.FromPeak(5, 0, 1))
		v2 := device.NewVoltageSource("V2", phasor.FromPeak(second, 0, 1))
		require.NoError(t, net.Connect(v1, in, gnd))
		require.NoError(t, net.Connect(v2, in, gnd))
		require.NoError(t, net.Connect(device.NewResistor("R1", 1), in, gnd))

		ckt, err := Discover(net, gnd)
		require.NoError(t, err)
		return ckt, v1
	}

	t.Run("conflicting", func(t *testing.T) {
		ckt, _ := build(t, 6)
		assert.ErrorIs(t, ckt.Solve(), ErrUnsolvableNetwork)
	})

	t.Run("consistent", func(t *testing.T) {
		ckt, v1 := build(t, 5)
		require.NoError(t, ckt.Solve())
		_, err := ckt.Current(v1)
		assert.ErrorIs(t, err, ErrIndeterminateCurrent)
	})
}

func TestResonanceIsUnsolvable(t *testing.T) {
	net := NewNetwork()
	gnd := net.AddGround("GND")
	in, mid := net.AddNode("IN"), net.AddNode("MID")
	v1 := device.NewVoltageSource("V1", phasor.FromPeak(1, 0, 2))
	require.NoError(t, net.Connect(v1, in, gnd))
	require.NoError(t, net.Connect(device.NewInductor("L1", 1), in, mid))
	require.NoError(t, net.Connect(device.NewCapacitor("C1", 1), mid, gnd))

	ckt, err := Discover(net, gnd)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())
	before := mustVoltage(t, ckt, mid)
	assert.InDelta(t, -1.0/3, before.Value.Real(), tol)

	v1.SetOmega(1)
	err = ckt.Solve()
	assert.ErrorIs(t, err, ErrUnsolvableNetwork)
	assert.ErrorIs(t, err, matrix.ErrSingular)

	after, err := net.Voltage(mid)
	require.NoError(t, err)
	assert.True(t, before.Value.Equal(after.Value))
	assert.Equal(t, 2.0, after.Omega)
	assert.Equal(t, 2.0, ckt.AngularFrequency())
}

func TestCurrentSource(t *testing.T) {
	net := NewNetwork()
	gnd := net.AddGround("GND")
	n := net.AddNode("N")
	i1 := device.NewCurrentSource("I1", phasor.FromPeak(1, 0, 1))
	r1 := device.NewResistor("R1", 2)
	require.NoError(t, net.Connect(i1, gnd, n))
	require.NoError(t, net.Connect(r1, n, gnd))

	ckt, err := Discover(net, gnd)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	assert.InDelta(t, 2.0, mustVoltage(t, ckt, n).Value.Real(), tol)
	assert.InDelta(t, 1.0, mustCurrent(t, ckt, i1).Value.Real(), tol)
	assert.InDelta(t, 1.0, mustCurrent(t, ckt, r1).Value.Real(), tol)
}

func TestShortAtZeroFrequency(t *testing.T) {
	net := NewNetwork()
	gnd := net.AddGround("GND")
	in, out := net.AddNode("IN"), net.AddNode("OUT")
	v1 := device.NewVoltageSource("V1", phasor.FromPeak(5, 0, 0))
	l1 := device.NewInductor("L1", 1e-3)
	require.NoError(t, net.Connect(v1, in, gnd))
	require.NoError(t, net.Connect(l1, in, out))
	require.NoError(t, net.Connect(device.NewResistor("R1", 5), out, gnd))

	ckt, err := Discover(net, gnd)
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	assert.InDelta(t, 5.0, mustVoltage(t, ckt, out).Value.Real(), tol)
	assert.InDelta(t, 1.0, mustCurrent(t, ckt, l1).Value.Real(), tol)
	assert.InDelta(t, 1.0, mustCurrent(t, ckt, v1).Value.Real(), tol)
}

func TestUnsolvable(t *testing.T) {
	t.Run("frequency mismatch", func(t *testing.T) {
		net := NewNetwork()
		gnd := net.AddGround("GND")
		a, b := net.AddNode("A"), net.AddNode("B")
		require.NoError(t, net.Connect(device.NewVoltageSource("V1", phasor.FromPeak(1, 0, 1)), a, gnd))
		require.NoError(t, net.Connect(device.NewVoltageSource("V2", phasor.FromPeak(1, 0, 2)), b, gnd))
		require.NoError(t, net.Connect(device.NewResistor("R1", 1), a, b))

		ckt, err := Discover(net, gnd)
		require.NoError(t, err)
		assert.ErrorIs(t, ckt.Solve(), ErrUnsolvableNetwork)
	})

	t.Run("no reference", func(t *testing.T) {
		net := NewNetwork()
		a, b := net.AddNode("A"), net.AddNode("B")
		require.NoError(t, net.Connect(device.NewVoltageSource("V1", phasor.FromPeak(1, 0, 1)), a, b))
		require.NoError(t, net.Connect(device.NewResistor("R1", 1), a, b))

		ckt, err := Discover(net, a)
		require.NoError(t, err)
		assert.ErrorIs(t, ckt.Solve(), ErrUnsolvableNetwork)
	})

	t.Run("current source into floating node", func(t *testing.T) {
		net := NewNetwork()
		gnd := net.AddGround("GND")
		x := net.AddNode("X")
		require.NoError(t, net.Connect(device.NewCurrentSource("I1", phasor.FromPeak(1, 0, 1)), gnd, x))

		ckt, err := Discover(net, gnd)
		require.NoError(t, err)
		assert.ErrorIs(t, ckt.Solve(), ErrUnsolvableNetwork)
	})
}

func TestReferenceNode(t *testing.T) {
	net := NewNetwork()
	ref := net.AddReference("REF", cplx.Polar(2, math.Pi/2))
	gnd := net.AddGround("GND")
	mid := net.AddNode("MID")
	require.NoError(t, net.Connect(device.NewResistor("R1", 1), ref, mid))
	require.NoError(t, net.Connect(device.NewResistor("R2", 1), mid, gnd))

	ckt, err := Discover(net, mid, WithAngularFrequency(3))
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())

	v := mustVoltage(t, ckt, mid)
	assert.InDelta(t, 1.0, v.Peak(), tol)
	assert.InDelta(t, math.Pi/2, v.Phase(), tol)
	assert.Equal(t, 3.0, v.Omega)
}

func TestNetworkWiring(t *testing.T) {
	net := NewNetwork()
	a := net.AddNode("")
	b := net.AddNode("B")
	r := device.NewResistor("R1", 1)

	assert.ErrorIs(t, net.Connect(r, a, NodeID(99)), ErrUnknownNode)
	require.NoError(t, net.Connect(r, a, b))
	assert.ErrorIs(t, net.Connect(r, a, b), ErrAlreadyConnected)

	assert.Equal(t, []Attachment{{Device: r, Pin: device.PinA}}, net.Attachments(a))
	assert.Equal(t, []Attachment{{Device: r, Pin: device.PinB}}, net.Attachments(b))
	assert.Equal(t, "#1", net.Label(a))
	assert.Equal(t, "B", net.Label(b))
	assert.Equal(t, 2, net.Len())

	_, err := Discover(net, NodeID(0))
	assert.ErrorIs(t, err, ErrUnknownNode)

	_, err = net.Voltage(NodeID(42))
	assert.ErrorIs(t, err, ErrUnknownNode)

	g1, g2 := net.AddGround("GND"), net.AddGround("GND")
	assert.NotEqual(t, g1, g2)
}

func TestEquationWriter(t *testing.T) {
	d := newDivider(t)
	var buf bytes.Buffer
	ckt, err := Discover(d.net, d.gnd, WithEquationWriter(&buf))
	require.NoError(t, err)
	require.NoError(t, ckt.Solve())
	assert.Contains(t, buf.String(), "Equation 1:")
}
