// Package cplx implements an immutable complex value that keeps either its
// rectangular or its polar coordinates and derives the other pair on demand.
package cplx

import (
	"fmt"
	"math"
	"sync"
)

type form uint8

const (
	rectangular form = iota
	polar
)

// derived memoizes the coordinate pair a value was not built with.
type derived struct {
	once sync.Once
	x, y float64
}

// Complex is a complex number. The zero value is 0 in rectangular form.
type Complex struct {
	form form
	x, y float64 // (real, imag) or (modulus, argument)
	memo *derived
}

var (
	Zero = Rect(0, 0)
	One  = Rect(1, 0)
	J    = Rect(0, 1)
)

func Rect(re, im float64) Complex {
	return Complex{form: rectangular, x: re, y: im, memo: &derived{}}
}

// Polar builds a value from modulus and argument. A negative modulus is
// negated and the argument rotated by pi; the argument ends up in (-pi, pi].
func Polar(modulus, argument float64) Complex {
	if modulus < 0 {
		modulus = -modulus
		argument += math.Pi
	} else if modulus == 0 {
		modulus = 0 // drop a negative zero
	}
	return Complex{form: polar, x: modulus, y: normalize(argument), memo: &derived{}}
}

func Real(v float64) Complex { return Rect(v, 0) }

func Imag(v float64) Complex { return Rect(0, v) }

func FromComplex128(z complex128) Complex { return Rect(real(z), imag(z)) }

func normalize(arg float64) float64 {
	if math.IsNaN(arg) || math.IsInf(arg, 0) {
		return arg
	}
	if arg > -math.Pi && arg <= math.Pi {
		return arg
	}
	arg = math.Remainder(arg, 2*math.Pi)
	if arg <= -math.Pi {
		arg += 2 * math.Pi
	}
	return arg
}

func toPolar(re, im float64) (float64, float64) {
	if math.IsInf(re, 0) || math.IsInf(im, 0) {
		return math.Inf(1), normalize(math.Atan2(infSign(im), infSign(re)))
	}
	return math.Hypot(re, im), normalize(math.Atan2(im, re))
}

func infSign(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return 1
	case math.IsInf(v, -1):
		return -1
	}
	return 0
}

func toRect(mod, arg float64) (float64, float64) {
	c, s := math.Cos(arg), math.Sin(arg)
	if math.IsInf(mod, 0) {
		// Inf * 0 would be NaN; a vanishing component stays zero.
		return scaleInf(mod, c), scaleInf(mod, s)
	}
	return mod * c, mod * s
}

func scaleInf(mod, f float64) float64 {
	if math.Abs(f) < 1e-15 {
		return 0
	}
	return mod * f
}

func (c Complex) other() (float64, float64) {
	compute := func() (float64, float64) {
		if c.form == polar {
			return toRect(c.x, c.y)
		}
		return toPolar(c.x, c.y)
	}
	if c.memo == nil {
		return compute()
	}
	c.memo.once.Do(func() { c.memo.x, c.memo.y = compute() })
	return c.memo.x, c.memo.y
}

func (c Complex) rect() (float64, float64) {
	if c.form == rectangular {
		return c.x, c.y
	}
	return c.other()
}

func (c Complex) polar() (float64, float64) {
	if c.form == polar {
		return c.x, c.y
	}
	return c.other()
}

func (c Complex) Real() float64 {
	re, _ := c.rect()
	return re
}

func (c Complex) Imag() float64 {
	_, im := c.rect()
	return im
}

func (c Complex) Modulus() float64 {
	mod, _ := c.polar()
	return mod
}

// Argument is the angle in radians, in (-pi, pi].
func (c Complex) Argument() float64 {
	_, arg := c.polar()
	return arg
}

// Abs is an alias of Modulus.
func (c Complex) Abs() float64 { return c.Modulus() }

func (c Complex) IsPolar() bool { return c.form == polar }

// ToPolar returns the same number stored in polar form.
func (c Complex) ToPolar() Complex {
	if c.form == polar {
		return c
	}
	mod, arg := c.polar()
	return Polar(mod, arg)
}

// ToRect returns the same number stored in rectangular form.
func (c Complex) ToRect() Complex {
	if c.form == rectangular {
		return c
	}
	re, im := c.rect()
	return Rect(re, im)
}

func (c Complex) Complex128() complex128 {
	re, im := c.rect()
	return complex(re, im)
}

func (c Complex) IsZero() bool {
	if c.form == polar {
		return c.x == 0
	}
	return c.x == 0 && c.y == 0
}

func (c Complex) IsInf() bool {
	if c.form == polar {
		return math.IsInf(c.x, 0)
	}
	return math.IsInf(c.x, 0) || math.IsInf(c.y, 0)
}

func (c Complex) IsNaN() bool {
	if c.IsInf() {
		return false
	}
	return math.IsNaN(c.x) || math.IsNaN(c.y)
}

func (c Complex) Add(o Complex) Complex {
	if c.IsInf() || o.IsInf() {
		return addInf(c, o)
	}
	ar, ai := c.rect()
	br, bi := o.rect()
	return Rect(ar+br, ai+bi)
}

func addInf(a, b Complex) Complex {
	switch {
	case a.IsInf() && b.IsInf():
		return Rect(math.NaN(), math.NaN())
	case a.IsInf():
		return a
	}
	return b
}

func (c Complex) Sub(o Complex) Complex { return c.Add(o.Neg()) }

// Neg keeps the native representation of c.
func (c Complex) Neg() Complex {
	if c.form == polar {
		return Polar(-c.x, c.y)
	}
	return Rect(-c.x, -c.y)
}

func (c Complex) Mul(o Complex) Complex {
	am, aa := c.polar()
	bm, ba := o.polar()
	return Polar(am*bm, aa+ba)
}

func (c Complex) Div(o Complex) Complex {
	am, aa := c.polar()
	bm, ba := o.polar()
	return Polar(am/bm, aa-ba)
}

// MulReal scales c by s without leaving its native representation.
func (c Complex) MulReal(s float64) Complex {
	if c.form == polar {
		return Polar(c.x*s, c.y)
	}
	return Rect(c.x*s, c.y*s)
}

// DivReal divides c by s without leaving its native representation.
func (c Complex) DivReal(s float64) Complex {
	if c.form == polar {
		return Polar(c.x/s, c.y)
	}
	return Rect(c.x/s, c.y/s)
}

// RealDiv returns s / c.
func RealDiv(s float64, c Complex) Complex {
	mod, arg := c.polar()
	return Polar(s/mod, -arg)
}

// Inv returns 1 / c. Inv of 0 is +Inf and Inv of +Inf is 0.
func (c Complex) Inv() Complex { return RealDiv(1, c) }

// Pow raises c to a real exponent.
func (c Complex) Pow(e float64) Complex {
	mod, arg := c.polar()
	return Polar(math.Pow(mod, e), arg*e)
}

func (c Complex) Conj() Complex {
	if c.form == polar {
		return Polar(c.x, -c.y)
	}
	return Rect(c.x, -c.y)
}

// Equal reports whether either coordinate pair of c and o matches exactly.
func (c Complex) Equal(o Complex) bool {
	ar, ai := c.rect()
	br, bi := o.rect()
	if ar == br && ai == bi {
		return true
	}
	am, aa := c.polar()
	bm, ba := o.polar()
	return am == bm && aa == ba
}

// ApproxEqual compares |c-o| against tol scaled by the larger modulus
// (floored at 1).
func (c Complex) ApproxEqual(o Complex, tol float64) bool {
	if c.Equal(o) {
		return true
	}
	if c.IsInf() || o.IsInf() || c.IsNaN() || o.IsNaN() {
		return false
	}
	scale := math.Max(1, math.Max(c.Modulus(), o.Modulus()))
	ar, ai := c.rect()
	br, bi := o.rect()
	return math.Hypot(ar-br, ai-bi) <= tol*scale
}

func (c Complex) String() string {
	re, im := c.rect()
	mod, arg := c.polar()
	sign := "+"
	if im < 0 || (im == 0 && math.Signbit(im)) {
		sign = "-"
		im = -im
	}
	return fmt.Sprintf("%g%sj%g (%g∠%.4gπ)", re, sign, im, mod, arg/math.Pi)
}
