package device

import (
	"github.com/edp1096/circuitkit/pkg/matrix"
	"github.com/edp1096/circuitkit/pkg/phasor"
	"github.com/edp1096/circuitkit/pkg/util"
)

// CurrentSource drives its phasor from pin A through the source to pin B.
type CurrentSource struct {
	BaseDevice
	phasor phasor.Phasor
}

var _ Source = (*CurrentSource)(nil)

func NewCurrentSource(name string, p phasor.Phasor) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{Name: name}, phasor: p}
}

func NewACCurrentSource(name string, acMag, acPhase, freq float64) *CurrentSource {
	return NewCurrentSource(name, phasorFromDegrees(acMag, acPhase, freq))
}

func (i *CurrentSource) GetType() string { return "I" }

func (i *CurrentSource) Phasor() phasor.Phasor { return i.phasor }

func (i *CurrentSource) SetPhasor(p phasor.Phasor) { i.phasor = p }

func (i *CurrentSource) SetOmega(omega float64) { i.phasor = i.phasor.WithOmega(omega) }

func (i *CurrentSource) Stamp(matrix matrix.DeviceMatrix, status *CircuitStatus) error {
	stampInjection(matrix, status, i.Nodes, i.phasor.Value.Complex128())
	return nil
}

func phasorFromDegrees(mag, phaseDeg, freq float64) phasor.Phasor {
	return phasor.FromPeak(mag, util.DegreesToRadians(phaseDeg), util.HertzToRadians(freq))
}
