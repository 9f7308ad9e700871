// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fancy defines the minimal primitive vocabulary ("Fancy")
// over wires modulo some integer p, and the handful of one-line
// gadgets that are derived directly from it (negate, or, and, eq,
// a constant-bit mux, and the half/full adder). Every higher-level
// gadget in package bundle is expressed purely in terms of these.
//
// Fancy is parameterized over the backend's own wire type so that
// gadgets monomorphize per backend (dummy.Wire, informer.Wire, ...)
// instead of paying for dynamic dispatch on every gate.
package fancy

import (
	"errors"
	"fmt"
)

// Wire is the capability set every backend's wire type must satisfy:
// a read-only modulus tag. Wires are conceptually clonable for free;
// in Go that falls out of passing small value types (or read-only
// pointers) by value.
type Wire interface {
	Modulus() uint16
}

// Fancy is the primitive interface every backend (dummy, informer,
// garble, eval) implements. Semantics are modular: every binary
// result equals (operand result) mod p, and proj is the only
// primitive allowed to change modulus.
type Fancy[W Wire] interface {
	// GarblerInput records a new input wire owned by the garbler.
	GarblerInput(mod uint16) (W, error)
	// EvaluatorInput records a new input wire owned by the evaluator.
	EvaluatorInput(mod uint16) (W, error)
	// Constant returns a wire for a value known to both parties.
	Constant(val uint16, mod uint16) (W, error)
	// Add requires x and y share a modulus.
	Add(x, y W) (W, error)
	// Sub requires x and y share a modulus.
	Sub(x, y W) (W, error)
	// Cmul multiplies x by the scalar c, reduced mod the wire's modulus.
	Cmul(x W, c int) (W, error)
	// Mul's result modulus is the modulus of the larger-modulus argument.
	Mul(x, y W) (W, error)
	// Proj applies tt[x] mod mod; len(tt) must equal x's modulus and
	// every entry must be < mod.
	Proj(x W, mod uint16, tt []uint16) (W, error)
	// Output declares x part of the observable result vector, in order.
	Output(x W) error
}

// Sentinel errors, per the taxonomy in the design document. InvalidArgNum
// and InvalidTruthTable carry parameters so they are typed instead.
var (
	// ErrUnequalModuli is returned when operands tagged with
	// incompatible moduli are passed to an operation that requires
	// them to match (includes binary gadgets fed non-mod-2 wires).
	ErrUnequalModuli = errors.New("fancy: unequal moduli")
	// ErrInvalidInput is returned for out-of-range constants or CRT
	// encode calls with x >= q.
	ErrInvalidInput = errors.New("fancy: invalid input")
	// ErrNotImplemented is returned by gadgets intentionally left
	// unimplemented rather than silently behaving incorrectly.
	ErrNotImplemented = errors.New("fancy: not implemented")
	// ErrBackend is an opaque failure surfaced from a garbling backend.
	ErrBackend = errors.New("fancy: backend error")
)

// InvalidArgNum is returned when a gadget receives fewer arguments
// than its contract requires (e.g. bundle.BinMax with < 2 operands).
type InvalidArgNum struct {
	Got    int
	Needed int
}

func (e *InvalidArgNum) Error() string {
	return fmt.Sprintf("fancy: invalid argument count: got %d, needed %d", e.Got, e.Needed)
}

// InvalidTruthTable is returned when a projection's table length
// differs from the input modulus, or an entry is not less than the
// output modulus.
type InvalidTruthTable struct {
	Len         int
	WantLen     int
	OutModulus  uint16
	OffendingAt int
}

func (e *InvalidTruthTable) Error() string {
	return fmt.Sprintf("fancy: invalid truth table: len=%d want=%d outModulus=%d offendingIndex=%d",
		e.Len, e.WantLen, e.OutModulus, e.OffendingAt)
}

// Negate returns constant(0,p) - x. For p=2 it returns
// constant(1,2) - x instead, which is boolean NOT.
func Negate[W Wire](f Fancy[W], x W) (W, error) {
	var zero W
	var v uint16
	if x.Modulus() == 2 {
		v = 1
	}
	c, err := f.Constant(v, x.Modulus())
	if err != nil {
		return zero, err
	}
	return f.Sub(c, x)
}

// Or computes x+y-x*y, valid only for mod-2 wires.
func Or[W Wire](f Fancy[W], x, y W) (W, error) {
	var zero W
	if x.Modulus() != 2 || y.Modulus() != 2 {
		return zero, ErrUnequalModuli
	}
	s, err := f.Add(x, y)
	if err != nil {
		return zero, err
	}
	p, err := f.Mul(x, y)
	if err != nil {
		return zero, err
	}
	return f.Sub(s, p)
}

// And is mul restricted to mod-2 wires.
func And[W Wire](f Fancy[W], x, y W) (W, error) {
	var zero W
	if x.Modulus() != 2 || y.Modulus() != 2 {
		return zero, ErrUnequalModuli
	}
	return f.Mul(x, y)
}

// Eq returns a mod-2 indicator wire that is 1 iff x == y.
func Eq[W Wire](f Fancy[W], x, y W) (W, error) {
	var zero W
	if x.Modulus() != y.Modulus() {
		return zero, ErrUnequalModuli
	}
	d, err := f.Sub(x, y)
	if err != nil {
		return zero, err
	}
	tt := make([]uint16, x.Modulus())
	tt[0] = 1
	return f.Proj(d, 2, tt)
}

// MuxConstantBits selects the constant bit b1 when s=0, b2 when s=1,
// both known to both parties, via a single projection table lookup.
func MuxConstantBits[W Wire](f Fancy[W], s W, b1, b2 bool) (W, error) {
	var zero W
	if s.Modulus() != 2 {
		return zero, ErrUnequalModuli
	}
	tt := make([]uint16, 2)
	if b1 {
		tt[0] = 1
	}
	if b2 {
		tt[1] = 1
	}
	return f.Proj(s, 2, tt)
}

// Multiplex selects x when s=0, y when s=1, for mod-2 selector s and
// wires x,y sharing a modulus: s picks out one operand via
// mux_constant_bits-style blending, generalized to arbitrary moduli
// using wire-wise affine combination (1-s)*x + s*y.
func Multiplex[W Wire](f Fancy[W], s, x, y W) (W, error) {
	var zero W
	if s.Modulus() != 2 {
		return zero, ErrUnequalModuli
	}
	if x.Modulus() != y.Modulus() {
		return zero, ErrUnequalModuli
	}
	notS, err := Negate(f, s)
	if err != nil {
		return zero, err
	}
	// Negate on a mod-2 wire already yields 1-s; scale it up to the
	// target modulus via a fresh projection so the wire-wise mul
	// below operates in x's modulus.
	sIndicator, err := f.Proj(s, x.Modulus(), []uint16{0, 1})
	if err != nil {
		return zero, err
	}
	notSIndicator, err := f.Proj(notS, x.Modulus(), []uint16{0, 1})
	if err != nil {
		return zero, err
	}
	xPart, err := f.Mul(notSIndicator, x)
	if err != nil {
		return zero, err
	}
	yPart, err := f.Mul(sIndicator, y)
	if err != nil {
		return zero, err
	}
	return f.Add(xPart, yPart)
}

// Adder is a half adder when carryIn is nil, else a full adder.
// Returns (sum, carryOut).
func Adder[W Wire](f Fancy[W], x, y W, carryIn *W) (W, W, error) {
	var zero W
	if x.Modulus() != 2 || y.Modulus() != 2 {
		return zero, zero, ErrUnequalModuli
	}
	if carryIn == nil {
		sum, err := f.Add(x, y)
		if err != nil {
			return zero, zero, err
		}
		carryOut, err := And(f, x, y)
		if err != nil {
			return zero, zero, err
		}
		return sum, carryOut, nil
	}
	if carryIn.Modulus() != 2 {
		return zero, zero, ErrUnequalModuli
	}
	z1, err := f.Add(x, y)
	if err != nil {
		return zero, zero, err
	}
	sum, err := f.Add(z1, *carryIn)
	if err != nil {
		return zero, zero, err
	}
	and1, err := And(f, x, y)
	if err != nil {
		return zero, zero, err
	}
	and2, err := And(f, z1, *carryIn)
	if err != nil {
		return zero, zero, err
	}
	carryOut, err := Or(f, and1, and2)
	if err != nil {
		return zero, zero, err
	}
	return sum, carryOut, nil
}

// AddMany folds Add across xs, left to right.
func AddMany[W Wire](f Fancy[W], xs []W) (W, error) {
	var zero W
	if len(xs) == 0 {
		return zero, &InvalidArgNum{Got: 0, Needed: 1}
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		var err error
		acc, err = f.Add(acc, x)
		if err != nil {
			return zero, err
		}
	}
	return acc, nil
}

// OrMany folds Or across xs, left to right; requires every wire mod 2.
func OrMany[W Wire](f Fancy[W], xs []W) (W, error) {
	var zero W
	if len(xs) == 0 {
		return zero, &InvalidArgNum{Got: 0, Needed: 1}
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		var err error
		acc, err = Or(f, acc, x)
		if err != nil {
			return zero, err
		}
	}
	return acc, nil
}
