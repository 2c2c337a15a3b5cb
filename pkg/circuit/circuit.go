package circuit

import (
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/internal/consts"
	"github.com/edp1096/circuitkit/pkg/device"
	"github.com/edp1096/circuitkit/pkg/matrix"
	"github.com/edp1096/circuitkit/pkg/phasor"
)

// Circuit is the part of a network reachable from one anchor node.
type Circuit struct {
	net     *Network
	nodes   []NodeID
	devices []device.Device
	inCkt   map[device.Device]struct{}

	omega            float64 // used when no source sets the frequency
	tolerance        float64
	singularityRatio float64
	logger           *zap.Logger
	equations        io.Writer

	solved      bool
	solvedOmega float64
	voltages    map[NodeID]complex128
	currents    map[device.Device]complex128
}

type Option func(*Circuit)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Circuit) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithAngularFrequency(omega float64) Option {
	return func(c *Circuit) { c.omega = omega }
}

// WithTolerance sets the relative tolerance for source frequency matching
// and constraint consistency.
func WithTolerance(tol float64) Option {
	return func(c *Circuit) {
		if tol > 0 {
			c.tolerance = tol
		}
	}
}

func WithSingularityRatio(ratio float64) Option {
	return func(c *Circuit) {
		if ratio > 0 {
			c.singularityRatio = ratio
		}
	}
}

// WithEquationWriter prints every assembled system to w before solving.
func WithEquationWriter(w io.Writer) Option {
	return func(c *Circuit) { c.equations = w }
}

// Discover collects every node and device reachable from anchor.
func Discover(net *Network, anchor NodeID, opts ...Option) (*Circuit, error) {
	if net == nil || !net.valid(anchor) {
		return nil, fmt.Errorf("%w: anchor %d", ErrUnknownNode, anchor)
	}

	c := &Circuit{
		net:              net,
		inCkt:            make(map[device.Device]struct{}),
		tolerance:        consts.Tolerance,
		singularityRatio: consts.SingularityRatio,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	index := net.attachmentIndex()
	visited := map[NodeID]bool{anchor: true}
	queue := []NodeID{anchor}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		c.nodes = append(c.nodes, id)

		for _, att := range index[id] {
			if _, ok := c.inCkt[att.Device]; !ok {
				c.inCkt[att.Device] = struct{}{}
				c.devices = append(c.devices, att.Device)
			}
			other := att.Device.GetNodes()[1-int(att.Pin)]
			if !visited[other] {
				visited[other] = true
				queue = append(queue, other)
			}
		}
	}

	c.logger.Debug("circuit discovered",
		zap.String("anchor", net.Label(anchor)),
		zap.Int("nodes", len(c.nodes)),
		zap.Int("devices", len(c.devices)))

	return c, nil
}

func (c *Circuit) Network() *Network { return c.net }

func (c *Circuit) Nodes() []NodeID { return append([]NodeID(nil), c.nodes...) }

func (c *Circuit) Devices() []device.Device { return append([]device.Device(nil), c.devices...) }

func (c *Circuit) Sources() []device.Source {
	var sources []device.Source
	for _, d := range c.devices {
		if s, ok := d.(device.Source); ok {
			sources = append(sources, s)
		}
	}
	return sources
}

// SetAngularFrequency sets the frequency used when the circuit has no
// sources.
func (c *Circuit) SetAngularFrequency(omega float64) { c.omega = omega }

// AngularFrequency is the frequency of the last successful solve, or the
// configured one before any.
func (c *Circuit) AngularFrequency() float64 {
	if c.solved {
		return c.solvedOmega
	}
	return c.omega
}

func (c *Circuit) Solved() bool { return c.solved }

func (c *Circuit) close(a, b complex128) bool {
	scale := math.Max(1, math.Max(cmplx.Abs(a), cmplx.Abs(b)))
	return cmplx.Abs(a-b) <= c.tolerance*scale
}

func (c *Circuit) frequency() (float64, error) {
	var (
		omega float64
		from  device.Source
	)
	for _, s := range c.Sources() {
		w := s.Phasor().Omega
		if from == nil {
			omega, from = w, s
			continue
		}
		if math.Abs(w-omega) > c.tolerance*math.Max(1, math.Abs(omega)) {
			return 0, fmt.Errorf("%w: frequency mismatch between %s (%g rad/s) and %s (%g rad/s)",
				ErrUnsolvableNetwork, from.GetName(), omega, s.GetName(), w)
		}
	}
	if from == nil {
		return c.omega, nil
	}
	return omega, nil
}

// Solve computes every node voltage of the circuit. On failure no node is
// touched.
func (c *Circuit) Solve() error {
	omega, err := c.frequency()
	if err != nil {
		return err
	}

	sys, err := c.assemble(omega)
	if err != nil {
		return err
	}

	solution := make(map[NodeID]complex128, len(sys.fixed)+len(sys.rows))
	for id, v := range sys.fixed {
		solution[id] = v
	}
	branch := make(map[device.Device]complex128, len(sys.branches))

	size := sys.size()
	if size > 0 {
		x, err := c.solveSystem(sys, omega)
		if err != nil {
			return err
		}
		for id, r := range sys.rows {
			solution[id] = x.Solution(r)
		}
		for d, k := range sys.branches {
			branch[d] = x.Solution(k)
		}
		x.Destroy()
	}

	c.commit(omega, solution, branch, sys)

	c.logger.Debug("circuit solved",
		zap.Float64("omega", omega),
		zap.Int("known", len(sys.fixed)),
		zap.Int("unknowns", len(sys.rows)),
		zap.Int("branches", len(sys.branches)),
		zap.Int("unresolved", len(c.nodes)-len(solution)))

	return nil
}

func (c *Circuit) solveSystem(sys *system, omega float64) (*matrix.CircuitMatrix, error) {
	x, err := matrix.NewMatrix(sys.size(), c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsolvableNetwork, err)
	}
	x.SetSingularityRatio(c.singularityRatio)

	status := &device.CircuitStatus{Omega: omega, Nodes: sys}
	for _, d := range c.devices {
		if err := d.Stamp(x, status); err != nil {
			x.Destroy()
			return nil, fmt.Errorf("%w: stamping device %s: %w", ErrUnsolvableNetwork, d.GetName(), err)
		}
	}

	if c.equations != nil {
		x.PrintSystem(c.equations)
	}

	if err := x.Solve(); err != nil {
		x.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrUnsolvableNetwork, err)
	}
	return x, nil
}

func (c *Circuit) commit(omega float64, solution map[NodeID]complex128, branch map[device.Device]complex128, sys *system) {
	for _, id := range c.nodes {
		nd := &c.net.nodes[id]
		v, ok := solution[id]
		nd.solved = ok
		if ok {
			nd.voltage = phasor.FromComplex128(v, omega)
		} else {
			nd.voltage = phasor.Phasor{}
		}
	}

	c.voltages = solution
	c.currents = c.resolveCurrents(solution, branch, sys)
	c.solved = true
	c.solvedOmega = omega
}

// Voltage is the voltage of a circuit node from the last successful solve.
func (c *Circuit) Voltage(id NodeID) (phasor.Phasor, error) {
	if !c.net.valid(id) {
		return phasor.Phasor{}, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	v, ok := c.voltages[id]
	if !ok {
		return phasor.Phasor{}, fmt.Errorf("%w: node %s", ErrMissingVoltage, c.net.Label(id))
	}
	return phasor.FromComplex128(v, c.solvedOmega), nil
}
