package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circuitkit/pkg/circuit"
	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/phasor"
	"github.com/edp1096/circuitkit/pkg/util"
)

func highPass(t *testing.T) (*circuit.Circuit, *device.VoltageSource) {
	t.Helper()
	net := circuit.NewNetwork()
	in, out := net.AddNode("IN"), net.AddNode("OUT")
	gnd := net.AddGround("GND")
	v1 := device.NewVoltageSource("V1", phasor.FromPeak(5, 0, util.HertzToRadians(25)))
	require.NoError(t, net.Connect(v1, in, gnd))
	require.NoError(t, net.Connect(device.NewCapacitor("C1", 470e-6), in, out))
	require.NoError(t, net.Connect(device.NewResistor("R1", 5), out, gnd))

	ckt, err := circuit.Discover(net, gnd)
	require.NoError(t, err)
	return ckt, v1
}

func TestSteadyState(t *testing.T) {
	ckt, _ := highPass(t)

	op := NewSteadyState()
	require.NoError(t, op.Setup(ckt))
	require.NoError(t, op.Execute())

	results := op.GetResults()
	require.Len(t, results["FREQ"], 1)
	assert.InDelta(t, 25.0, results["FREQ"][0], 1e-9)
	assert.InDelta(t, 5.0, results["V(IN)_MAG"][0], 1e-9)
	assert.Less(t, results["V(OUT)_MAG"][0], 5.0)
	assert.InDelta(t, 0.0, results["V(GND)_PHASE"][0], 1e-9)
	assert.Contains(t, results, "I(C1)_MAG")
}

func TestHighPassSweep(t *testing.T) {
	ckt, v1 := highPass(t)

	ac := NewAC(1, 10e3, 25, "DEC")
	require.NoError(t, ac.Setup(ckt))
	require.NoError(t, ac.Execute())
	assert.Empty(t, ac.Failures())

	freqs := ac.Frequencies()
	require.Len(t, freqs, 25)
	for k, f := range freqs {
		assert.InDelta(t, math.Pow(10, float64(k)/6), f, 1e-9*f)
	}

	gain, err := Gain(ac.GetResults(), "V(IN)", "V(OUT)")
	require.NoError(t, err)
	require.Len(t, gain, 25)
	for i := 1; i < len(gain); i++ {
		assert.Greater(t, gain[i], gain[i-1])
	}
	assert.Less(t, gain[0], 0.1)
	assert.Greater(t, gain[len(gain)-1], 0.99)

	// sources are retuned to their own frequency afterwards
	assert.InDelta(t, util.HertzToRadians(25), v1.Phasor().Omega, 1e-9)
}

func TestSweepWithoutSources(t *testing.T) {
	net := circuit.NewNetwork()
	gnd := net.AddGround("GND")
	mid := net.AddNode("MID")
	require.NoError(t, net.Connect(device.NewResistor("R1", 1), mid, gnd))

	ckt, err := circuit.Discover(net, gnd)
	require.NoError(t, err)

	ac := NewAC(10, 100, 10, "LIN")
	require.NoError(t, ac.Setup(ckt))
	require.NoError(t, ac.Execute())
	assert.InDelta(t, util.HertzToRadians(100), ckt.AngularFrequency(), 1e-9)
	assert.InDelta(t, 20.0, ac.Frequencies()[1], 1e-9)
}

func TestSweepThroughResonance(t *testing.T) {
	net := circuit.NewNetwork()
	gnd := net.AddGround("GND")
	in, mid := net.AddNode("IN"), net.AddNode("MID")
	require.NoError(t, net.Connect(device.NewVoltageSource("V1", phasor.FromPeak(1, 0, 1)), in, gnd))
	require.NoError(t, net.Connect(device.NewInductor("L1", 1), in, mid))
	require.NoError(t, net.Connect(device.NewCapacitor("C1", 1), mid, gnd))

	ckt, err := circuit.Discover(net, gnd)
	require.NoError(t, err)

	resonance := util.RadiansToHertz(1)
	ac := NewAC(resonance, 2*resonance, 2, "LIN")
	require.NoError(t, ac.Setup(ckt))
	require.NoError(t, ac.Execute())

	require.Len(t, ac.Failures(), 1)
	mag := ac.GetResults()["V(MID)_MAG"]
	require.Len(t, mag, 2)
	assert.True(t, math.IsNaN(mag[0]))
	assert.InDelta(t, 1.0/3, mag[1], 1e-9)

	t.Run("all points failing", func(t *testing.T) {
		only := NewAC(resonance, resonance, 1, "LIN")
		require.NoError(t, only.Setup(ckt))
		assert.ErrorIs(t, only.Execute(), circuit.ErrUnsolvableNetwork)
	})
}

func TestSetupValidation(t *testing.T) {
	ckt, _ := highPass(t)

	tests := []struct {
		name string
		ac   *ACAnalysis
	}{
		{"zero points", NewAC(1, 10, 0, "DEC")},
		{"reversed range", NewAC(10, 1, 5, "LIN")},
		{"log sweep from zero", NewAC(0, 10, 5, "OCT")},
		{"unknown type", NewAC(1, 10, 5, "LOG")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.ac.Setup(ckt))
		})
	}

	assert.Error(t, NewAC(1, 10, 5, "DEC").Setup(nil))
	assert.Error(t, NewSteadyState().Execute())
}

func TestVariablesAndGain(t *testing.T) {
	results := map[string][]float64{
		"FREQ":       {1, 2},
		"I(R1)_MAG":  {1, 1},
		"V(OUT)_MAG": {1, 3},
		"V(IN)_MAG":  {2, 4},
	}
	assert.Equal(t, []string{"V(IN)", "V(OUT)", "I(R1)"}, Variables(results))

	gain, err := Gain(results, "V(IN)", "V(OUT)")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.75}, gain)

	_, err = Gain(results, "V(X)", "V(OUT)")
	assert.Error(t, err)
}
