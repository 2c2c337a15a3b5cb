package analysis

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/pkg/circuit"
	"github.com/edp1096/circuitkit/pkg/util"
)

// ACAnalysis solves the circuit over a list of frequencies, retuning every
// source to each point in turn.
type ACAnalysis struct {
	BaseAnalysis
	startFreq   float64
	stopFreq    float64
	numPoints   int
	pointsType  string // "DEC", "OCT", "LIN"
	frequencies []float64
	failures    []float64
}

func NewAC(fStart, fStop float64, nPoints int, pType string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
		pointsType:   pType,
	}
}

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	if ckt == nil {
		return fmt.Errorf("circuit not set")
	}
	if ac.numPoints < 1 {
		return fmt.Errorf("invalid number of points: %d", ac.numPoints)
	}
	if ac.stopFreq < ac.startFreq {
		return fmt.Errorf("stop frequency %g below start frequency %g", ac.stopFreq, ac.startFreq)
	}

	switch ac.pointsType {
	case "DEC", "OCT":
		if ac.startFreq <= 0 {
			return fmt.Errorf("%s sweep needs a positive start frequency, got %g", ac.pointsType, ac.startFreq)
		}
	case "LIN":
		if ac.startFreq < 0 {
			return fmt.Errorf("negative start frequency %g", ac.startFreq)
		}
	default:
		return fmt.Errorf("unknown sweep type: %s", ac.pointsType)
	}

	ac.Circuit = ckt
	ac.generateFrequencyPoints()

	return nil
}

// Execute solves every point. A point the circuit cannot be solved at is
// stored as NaN and reported by Failures.
func (ac *ACAnalysis) Execute() error {
	if ac.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	sources := ac.Circuit.Sources()
	saved := make([]float64, len(sources))
	for i, s := range sources {
		saved[i] = s.Phasor().Omega
	}
	defer func() {
		for i, s := range sources {
			s.SetOmega(saved[i])
		}
	}()

	ac.failures = nil
	for _, freq := range ac.frequencies {
		omega := util.HertzToRadians(freq)
		for _, s := range sources {
			s.SetOmega(omega)
		}
		if len(sources) == 0 {
			ac.Circuit.SetAngularFrequency(omega)
		}

		err := ac.Circuit.Solve()
		if err != nil {
			if !errors.Is(err, circuit.ErrUnsolvableNetwork) {
				return fmt.Errorf("solve error at f=%g: %w", freq, err)
			}
			ac.logger.Warn("skipping unsolvable frequency", zap.Float64("freq", freq), zap.Error(err))
			ac.failures = append(ac.failures, freq)
			ac.StoreACResult(freq, ac.unavailable())
			continue
		}

		ac.StoreACResult(freq, ac.collect())
	}

	if len(ac.failures) == len(ac.frequencies) {
		return fmt.Errorf("%w: no frequency point could be solved", circuit.ErrUnsolvableNetwork)
	}
	return nil
}

func (ac *ACAnalysis) unavailable() map[string]complex128 {
	solution := ac.collect()
	nan := complex(math.NaN(), math.NaN())
	for name := range solution {
		solution[name] = nan
	}
	return solution
}

func (ac *ACAnalysis) Frequencies() []float64 { return ac.frequencies }

func (ac *ACAnalysis) Failures() []float64 { return ac.failures }

func (ac *ACAnalysis) generateFrequencyPoints() {
	ac.frequencies = make([]float64, ac.numPoints)
	if ac.numPoints == 1 {
		ac.frequencies[0] = ac.startFreq
		return
	}

	switch ac.pointsType {
	case "DEC": // Decade
		logStart := math.Log10(ac.startFreq)
		logStop := math.Log10(ac.stopFreq)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := range ac.numPoints {
			ac.frequencies[i] = math.Pow(10, logStart+float64(i)*step)
		}

	case "OCT": // Octave
		logStart := math.Log2(ac.startFreq)
		logStop := math.Log2(ac.stopFreq)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := range ac.numPoints {
			ac.frequencies[i] = math.Pow(2, logStart+float64(i)*step)
		}

	case "LIN": // Linear
		step := (ac.stopFreq - ac.startFreq) / float64(ac.numPoints-1)
		for i := range ac.numPoints {
			ac.frequencies[i] = ac.startFreq + float64(i)*step
		}
	}
}
