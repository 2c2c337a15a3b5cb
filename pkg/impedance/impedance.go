// Package impedance provides the two network primitives, Impedance and
// Admittance, and their series and parallel reductions.
package impedance

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/circuitkit/pkg/cplx"
)

var ErrInvalidReduction = errors.New("invalid reduction")

// Primitive is implemented by Impedance and Admittance only.
type Primitive interface {
	AsImpedance() Impedance
	AsAdmittance() Admittance
	primitive()
}

type Impedance struct {
	Value cplx.Complex
}

type Admittance struct {
	Value cplx.Complex
}

var (
	_ Primitive = Impedance{}
	_ Primitive = Admittance{}
)

func NewImpedance(value cplx.Complex) Impedance { return Impedance{Value: value} }

func NewAdmittance(value cplx.Complex) Admittance { return Admittance{Value: value} }

// Open is the impedance of a broken branch.
func Open() Impedance { return Impedance{Value: cplx.Polar(math.Inf(1), 0)} }

// Short is the impedance of an ideal wire.
func Short() Impedance { return Impedance{Value: cplx.Zero} }

func (z Impedance) primitive()  {}
func (y Admittance) primitive() {}

func (z Impedance) AsImpedance() Impedance { return z }

func (z Impedance) AsAdmittance() Admittance { return Admittance{Value: z.Value.Inv()} }

func (y Admittance) AsAdmittance() Admittance { return y }

func (y Admittance) AsImpedance() Impedance { return Impedance{Value: y.Value.Inv()} }

func (z Impedance) IsShort() bool { return z.Value.IsZero() }

func (z Impedance) IsOpen() bool { return z.Value.IsInf() }

func (y Admittance) IsShort() bool { return y.Value.IsInf() }

func (y Admittance) IsOpen() bool { return y.Value.IsZero() }

func (z Impedance) String() string { return z.Value.String() + "Ω" }

func (y Admittance) String() string { return y.Value.String() + "S" }

func checkGroup(items []Primitive) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty group", ErrInvalidReduction)
	}
	for i, item := range items {
		if item == nil {
			return fmt.Errorf("%w: item %d is not a network primitive", ErrInvalidReduction, i)
		}
	}
	return nil
}

func seriesSum(items []Primitive) (cplx.Complex, error) {
	if err := checkGroup(items); err != nil {
		return cplx.Zero, err
	}
	total := cplx.Zero
	for _, item := range items {
		z := item.AsImpedance()
		if z.IsOpen() {
			return Open().Value, nil
		}
		total = total.Add(z.Value)
	}
	return total, nil
}

func parallelSum(items []Primitive) (cplx.Complex, error) {
	if err := checkGroup(items); err != nil {
		return cplx.Zero, err
	}
	total := cplx.Zero
	for _, item := range items {
		y := item.AsAdmittance()
		switch {
		case y.IsShort():
			return Short().AsAdmittance().Value, nil
		case y.IsOpen():
			continue
		}
		total = total.Add(y.Value)
	}
	return total, nil
}

// ImpedanceFromSeries adds the impedances of items.
func ImpedanceFromSeries(items ...Primitive) (Impedance, error) {
	sum, err := seriesSum(items)
	if err != nil {
		return Impedance{}, err
	}
	return Impedance{Value: sum}, nil
}

// ImpedanceFromParallel adds the admittances of items and inverts the sum.
// Open branches are skipped; a single short makes the whole group a short.
func ImpedanceFromParallel(items ...Primitive) (Impedance, error) {
	sum, err := parallelSum(items)
	if err != nil {
		return Impedance{}, err
	}
	return Admittance{Value: sum}.AsImpedance(), nil
}

func AdmittanceFromSeries(items ...Primitive) (Admittance, error) {
	sum, err := seriesSum(items)
	if err != nil {
		return Admittance{}, err
	}
	return Impedance{Value: sum}.AsAdmittance(), nil
}

func AdmittanceFromParallel(items ...Primitive) (Admittance, error) {
	sum, err := parallelSum(items)
	if err != nil {
		return Admittance{}, err
	}
	return Admittance{Value: sum}, nil
}
