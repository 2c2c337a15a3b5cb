package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/pkg/circuit"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	results map[string][]float64 // key: variable name, value: result by frequency
	logger  *zap.Logger
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{
		results: make(map[string][]float64),
		logger:  zap.NewNop(),
	}
}

func (a *BaseAnalysis) SetLogger(logger *zap.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// collect reads every node voltage and device current of the circuit.
// Values the last solve could not determine are NaN.
func (a *BaseAnalysis) collect() map[string]complex128 {
	ckt := a.Circuit
	net := ckt.Network()
	solution := make(map[string]complex128)

	for _, id := range ckt.Nodes() {
		name := fmt.Sprintf("V(%s)", net.Label(id))
		v, err := ckt.Voltage(id)
		if err != nil {
			solution[name] = cmplx.NaN()
			continue
		}
		solution[name] = v.Value.Complex128()
	}

	for _, dev := range ckt.Devices() {
		name := fmt.Sprintf("I(%s)", dev.GetName())
		i, err := ckt.Current(dev)
		if err != nil {
			solution[name] = cmplx.NaN()
			continue
		}
		solution[name] = i.Value.Complex128()
	}

	return solution
}

func (a *BaseAnalysis) StoreACResult(freq float64, solution map[string]complex128) {
	a.results["FREQ"] = append(a.results["FREQ"], freq)

	for name, value := range solution {
		// Magnitude
		magName := name + "_MAG"
		a.results[magName] = append(a.results[magName], cmplx.Abs(value))

		// Phase - degree
		phaseName := name + "_PHASE"
		phase := cmplx.Phase(value) * 180.0 / math.Pi
		if cmplx.IsNaN(value) {
			phase = math.NaN()
		}
		a.results[phaseName] = append(a.results[phaseName], phase)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

// Variables lists the stored signal names, voltages first, in name order.
func Variables(results map[string][]float64) []string {
	var names []string
	for key := range results {
		if name, ok := strings.CutSuffix(key, "_MAG"); ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := strings.HasPrefix(names[i], "V("), strings.HasPrefix(names[j], "V(")
		if vi != vj {
			return vi
		}
		return names[i] < names[j]
	})
	return names
}

// Gain divides the magnitude of out by the magnitude of in at every point.
func Gain(results map[string][]float64, in, out string) ([]float64, error) {
	inMag, ok := results[in+"_MAG"]
	if !ok {
		return nil, fmt.Errorf("no results for %s", in)
	}
	outMag, ok := results[out+"_MAG"]
	if !ok {
		return nil, fmt.Errorf("no results for %s", out)
	}
	if len(inMag) != len(outMag) {
		return nil, fmt.Errorf("result length mismatch: %s has %d points, %s has %d", in, len(inMag), out, len(outMag))
	}

	gain := make([]float64, len(inMag))
	for i := range inMag {
		gain[i] = outMag[i] / inMag[i]
	}
	return gain, nil
}
