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

// Package bundle builds the higher-level gadgets (CRT arithmetic and
// binary two's-complement arithmetic) used to represent a single
// logical value as a group of fancy.Fancy wires. Every gadget here is
// expressed purely in terms of fancy.Fancy primitives, so it works
// unchanged over the dummy, informer, garble and eval backends.
package bundle

import (
	"math/big"

	"github.com/GaloisInc/fancy-garbling/fancy"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

// Bundle is an ordered group of wires representing one logical value,
// one residue or bit per wire. CRTBundle and BinaryBundle tag a Bundle
// with which encoding its wires carry; most gadgets below operate on
// the tagged types so a caller cannot accidentally mix encodings.
type Bundle[W fancy.Wire] struct {
	wires []W
}

// New wraps a wire slice as a Bundle.
func New[W fancy.Wire](wires []W) Bundle[W] {
	return Bundle[W]{wires: wires}
}

// Wires returns the underlying wires, in order.
func (b Bundle[W]) Wires() []W { return b.wires }

// Size returns the number of wires in the bundle.
func (b Bundle[W]) Size() int { return len(b.wires) }

// Moduli returns the modulus of each wire, in order.
func (b Bundle[W]) Moduli() []uint16 {
	m := make([]uint16, len(b.wires))
	for i, w := range b.wires {
		m[i] = w.Modulus()
	}
	return m
}

// CRTBundle is a Bundle whose wires are the residues of a value mod a
// set of (usually distinct) primes, one wire per prime.
type CRTBundle[W fancy.Wire] struct {
	Bundle[W]
}

// NewCRT wraps a wire slice as a CRTBundle.
func NewCRT[W fancy.Wire](wires []W) CRTBundle[W] {
	return CRTBundle[W]{Bundle[W]{wires: wires}}
}

// BinaryBundle is a Bundle whose wires are little-endian two's
// complement bits, all of modulus 2.
type BinaryBundle[W fancy.Wire] struct {
	Bundle[W]
}

// NewBinary wraps a wire slice as a BinaryBundle.
func NewBinary[W fancy.Wire](wires []W) BinaryBundle[W] {
	return BinaryBundle[W]{Bundle[W]{wires: wires}}
}

// ValueWire is the capability a backend's wire must additionally
// offer for bundle-level decode helpers that need a concrete value
// (only meaningful for plaintext-carrying backends such as dummy).
type ValueWire interface {
	fancy.Wire
	Value() uint16
}

// Values reads the concrete plaintext value of every wire in b. Only
// valid against a ValueWire-capable backend (dummy); a garbled circuit
// has no concrete values to read until the evaluator decrypts an
// Output wire.
func Values[W ValueWire](b Bundle[W]) []uint16 {
	out := make([]uint16, b.Size())
	for i, w := range b.wires {
		out[i] = w.Value()
	}
	return out
}

// GarblerInputBundle declares one garbler input wire per modulus, in
// order.
func GarblerInputBundle[W fancy.Wire](f fancy.Fancy[W], moduli []uint16) (Bundle[W], error) {
	ws := make([]W, len(moduli))
	for i, m := range moduli {
		w, err := f.GarblerInput(m)
		if err != nil {
			return Bundle[W]{}, err
		}
		ws[i] = w
	}
	return Bundle[W]{wires: ws}, nil
}

// EvaluatorInputBundle declares one evaluator input wire per modulus,
// in order.
func EvaluatorInputBundle[W fancy.Wire](f fancy.Fancy[W], moduli []uint16) (Bundle[W], error) {
	ws := make([]W, len(moduli))
	for i, m := range moduli {
		w, err := f.EvaluatorInput(m)
		if err != nil {
			return Bundle[W]{}, err
		}
		ws[i] = w
	}
	return Bundle[W]{wires: ws}, nil
}

// ConstantBundle builds a bundle of constants known to both parties.
func ConstantBundle[W fancy.Wire](f fancy.Fancy[W], vals, moduli []uint16) (Bundle[W], error) {
	if len(vals) != len(moduli) {
		return Bundle[W]{}, fancy.ErrInvalidInput
	}
	ws := make([]W, len(vals))
	for i := range vals {
		w, err := f.Constant(vals[i], moduli[i])
		if err != nil {
			return Bundle[W]{}, err
		}
		ws[i] = w
	}
	return Bundle[W]{wires: ws}, nil
}

// OutputBundle declares every wire of b an output, in order.
func OutputBundle[W fancy.Wire](f fancy.Fancy[W], b Bundle[W]) error {
	for _, w := range b.wires {
		if err := f.Output(w); err != nil {
			return err
		}
	}
	return nil
}

// AddBundles adds two bundles wire-wise; x and y must have the same
// length and matching per-position moduli.
func AddBundles[W fancy.Wire](f fancy.Fancy[W], x, y Bundle[W]) (Bundle[W], error) {
	return zipWith(f, x, y, f.Add)
}

// SubBundles subtracts two bundles wire-wise.
func SubBundles[W fancy.Wire](f fancy.Fancy[W], x, y Bundle[W]) (Bundle[W], error) {
	return zipWith(f, x, y, f.Sub)
}

// MulBundles multiplies two bundles wire-wise.
func MulBundles[W fancy.Wire](f fancy.Fancy[W], x, y Bundle[W]) (Bundle[W], error) {
	return zipWith(f, x, y, f.Mul)
}

func zipWith[W fancy.Wire](f fancy.Fancy[W], x, y Bundle[W], op func(W, W) (W, error)) (Bundle[W], error) {
	if x.Size() != y.Size() {
		return Bundle[W]{}, fancy.ErrUnequalModuli
	}
	out := make([]W, x.Size())
	for i := range x.wires {
		w, err := op(x.wires[i], y.wires[i])
		if err != nil {
			return Bundle[W]{}, err
		}
		out[i] = w
	}
	return Bundle[W]{wires: out}, nil
}

// CmulBundles scales every wire of x by the same scalar c.
func CmulBundles[W fancy.Wire](f fancy.Fancy[W], x Bundle[W], c int) (Bundle[W], error) {
	out := make([]W, x.Size())
	for i, w := range x.wires {
		o, err := f.Cmul(w, c)
		if err != nil {
			return Bundle[W]{}, err
		}
		out[i] = o
	}
	return Bundle[W]{wires: out}, nil
}

// EqBundles returns a mod-2 wire that is 1 iff every wire-position of
// x and y is equal (an AND-reduction over per-wire Eq).
func EqBundles[W fancy.Wire](f fancy.Fancy[W], x, y Bundle[W]) (W, error) {
	var zero W
	if x.Size() != y.Size() || x.Size() == 0 {
		return zero, fancy.ErrUnequalModuli
	}
	eqs := make([]W, x.Size())
	for i := range x.wires {
		e, err := fancy.Eq[W](f, x.wires[i], y.wires[i])
		if err != nil {
			return zero, err
		}
		eqs[i] = e
	}
	acc := eqs[0]
	for _, e := range eqs[1:] {
		var err error
		acc, err = fancy.And[W](f, acc, e)
		if err != nil {
			return zero, err
		}
	}
	return acc, nil
}

// EncodeCRT reduces x modulo each prime in ps; x must be in [0, q)
// where q = prod(ps).
func EncodeCRT(x *big.Int, ps []uint64) ([]uint16, error) {
	q := big.NewInt(1)
	for _, p := range ps {
		q.Mul(q, new(big.Int).SetUint64(p))
	}
	if x.Sign() < 0 || x.Cmp(q) >= 0 {
		return nil, fancy.ErrInvalidInput
	}
	residues := numbers.CRTFactor(x, ps)
	out := make([]uint16, len(residues))
	for i, r := range residues {
		out[i] = uint16(r)
	}
	return out, nil
}

// DecodeCRT reconstructs the unsigned value in [0, q) from residues.
func DecodeCRT(residues []uint16, ps []uint64) (*big.Int, error) {
	r64 := make([]uint64, len(residues))
	for i, r := range residues {
		r64[i] = uint64(r)
	}
	return numbers.CRTInvFactor(r64, ps)
}

// DecodeSignedCRT reconstructs a signed value, centered at 0, per the
// convention documented on numbers.FromModQ.
func DecodeSignedCRT(residues []uint16, ps []uint64) (int64, error) {
	x, err := DecodeCRT(residues, ps)
	if err != nil {
		return 0, err
	}
	q := uint64(1)
	for _, p := range ps {
		q *= p
	}
	return numbers.FromModQ(x.Uint64(), q), nil
}
