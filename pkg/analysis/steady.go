package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/pkg/circuit"
	"github.com/edp1096/circuitkit/pkg/util"
)

// SteadyState solves the circuit once at the frequency of its sources.
type SteadyState struct{ BaseAnalysis }

func NewSteadyState() *SteadyState {
	return &SteadyState{BaseAnalysis: *NewBaseAnalysis()}
}

func (op *SteadyState) Setup(ckt *circuit.Circuit) error {
	if ckt == nil {
		return fmt.Errorf("circuit not set")
	}
	op.Circuit = ckt
	return nil
}

func (op *SteadyState) Execute() error {
	if op.Circuit == nil {
		return fmt.Errorf("circuit not set")
	}

	if err := op.Circuit.Solve(); err != nil {
		return fmt.Errorf("steady state solve: %w", err)
	}

	freq := util.RadiansToHertz(op.Circuit.AngularFrequency())
	op.StoreACResult(freq, op.collect())
	op.logger.Debug("steady state solved", zap.Float64("freq", freq))

	return nil
}
