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

package bundle

import (
	"math/big"

	"github.com/GaloisInc/fancy-garbling/fancy"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

// GarblerInputCRT declares one garbler input wire per prime in ps.
func GarblerInputCRT[W fancy.Wire](f fancy.Fancy[W], ps []uint64) (CRTBundle[W], error) {
	b, err := GarblerInputBundle(f, u16s(ps))
	if err != nil {
		return CRTBundle[W]{}, err
	}
	return CRTBundle[W]{b}, nil
}

// EvaluatorInputCRT declares one evaluator input wire per prime in ps.
func EvaluatorInputCRT[W fancy.Wire](f fancy.Fancy[W], ps []uint64) (CRTBundle[W], error) {
	b, err := EvaluatorInputBundle(f, u16s(ps))
	if err != nil {
		return CRTBundle[W]{}, err
	}
	return CRTBundle[W]{b}, nil
}

// ConstantCRT builds a CRT bundle for x, known to both parties.
func ConstantCRT[W fancy.Wire](f fancy.Fancy[W], x *big.Int, ps []uint64) (CRTBundle[W], error) {
	residues, err := EncodeCRT(x, ps)
	if err != nil {
		return CRTBundle[W]{}, err
	}
	b, err := ConstantBundle(f, residues, u16s(ps))
	if err != nil {
		return CRTBundle[W]{}, err
	}
	return CRTBundle[W]{b}, nil
}

func u16s(ps []uint64) []uint16 {
	out := make([]uint16, len(ps))
	for i, p := range ps {
		out[i] = uint16(p)
	}
	return out
}

// StandardSgnSchedule returns the default ms schedule for exact sign
// detection against the given primes: every entry equal to q =
// prod(ps), so the reconstruction below recovers x exactly before the
// final comparison against q/2. q must fit in a uint16 (the modulus
// tag width every wire carries) — callers working with wider bundles
// need a schedule that keeps every intermediate accumulator under
// 2^16, which is outside this package's current scope.
func StandardSgnSchedule(ps []uint64) []uint16 {
	q, _ := numbers.CRTCoefficients(ps)
	ms := make([]uint16, len(ps))
	for i := range ms {
		ms[i] = uint16(q)
	}
	return ms
}

// Sgn decides whether the value x represents lies in [0,q/2) (wire
// value 0) or [q/2,q) (wire value 1), via CRT reconstruction: each
// residue is projected, using a precomputed per-prime coefficient,
// into one term of x mod m (m the shared accumulator modulus named by
// every entry of ms), the terms are summed, and a final projection
// compares the sum against m/2.
//
// ms must repeat a single accumulator modulus once per bundle wire.
// When that modulus equals q = prod(ps) the comparison is exact;
// StandardSgnSchedule builds that default. A caller may instead pass a
// smaller shared modulus to trade a bounded, residue-class-localized
// error rate for a cheaper schedule (fewer or smaller projections) —
// see Relu's accuracy tiers, which use exactly this knob.
func Sgn[W fancy.Wire](f fancy.Fancy[W], x CRTBundle[W], ms []uint16) (W, error) {
	var zero W
	n := x.Size()
	if n == 0 || len(ms) != n {
		return zero, fancy.ErrInvalidInput
	}
	m := ms[0]
	for _, mi := range ms {
		if mi != m {
			return zero, fancy.ErrInvalidInput
		}
	}

	ps := make([]uint64, n)
	for i, p := range x.Moduli() {
		ps[i] = uint64(p)
	}
	q, coeffs := numbers.CRTCoefficients(ps)

	terms := make([]W, n)
	for i, wire := range x.Wires() {
		p := ps[i]
		tt := make([]uint16, p)
		for v := range tt {
			val := (uint64(v) * coeffs[i]) % q
			tt[v] = uint16(val % uint64(m))
		}
		w, err := f.Proj(wire, m, tt)
		if err != nil {
			return zero, err
		}
		terms[i] = w
	}
	acc, err := fancy.AddMany[W](f, terms)
	if err != nil {
		return zero, err
	}

	tt := make([]uint16, m)
	half := uint64(m) / 2
	for k := range tt {
		if uint64(k) >= half {
			tt[k] = 1
		}
	}
	return f.Proj(acc, 2, tt)
}

// ReluTiers names the accuracy/cost tradeoff points Relu accepts.
const (
	ReluExact    = "100%"
	ReluTier999  = "99.9%"
	ReluTier99   = "99%"
)

// ReluSchedule builds the ms argument for Sgn matching the requested
// accuracy tier, by shrinking the shared accumulator modulus below q:
// a smaller accumulator aliases residue classes near the q/2 boundary
// together, causing Sgn (and so Relu) to disagree with the exact
// answer only for inputs in that aliased band. ReluExact uses the
// full product q (bit-exact); the relaxed tiers use a deliberately
// truncated accumulator, narrowing it further for the cheaper "99%"
// tier. This is a concrete, documented schedule table rather than an
// attempt to reproduce the original paper's exact probabilistic one.
func ReluSchedule(tier string, ps []uint64) []uint16 {
	q, _ := numbers.CRTCoefficients(ps)
	var m uint64
	switch tier {
	case ReluTier999:
		m = q - q/512
		if m == 0 {
			m = q
		}
	case ReluTier99:
		m = q - q/64
		if m == 0 {
			m = q
		}
	default:
		m = q
	}
	ms := make([]uint16, len(ps))
	for i := range ms {
		ms[i] = uint16(m)
	}
	return ms
}

// ZeroOneToOneNegativeOne maps a mod-2 wire r to the CRT encoding of
// +1 (r=0) or -1, i.e. q-1, (r=1).
func ZeroOneToOneNegativeOne[W fancy.Wire](f fancy.Fancy[W], r W, ps []uint64) (CRTBundle[W], error) {
	if r.Modulus() != 2 {
		return CRTBundle[W]{}, fancy.ErrUnequalModuli
	}
	q := uint64(1)
	for _, p := range ps {
		q *= p
	}
	one, err := ConstantCRT[W](f, big.NewInt(1), ps)
	if err != nil {
		return CRTBundle[W]{}, err
	}
	negOne, err := ConstantCRT[W](f, new(big.Int).SetUint64(q-1), ps)
	if err != nil {
		return CRTBundle[W]{}, err
	}
	return muxCRT(f, r, one, negOne)
}

// Relu computes an approximate ReLU over a CRT bundle: x when x
// represents a value in [0,q/2), 0 otherwise, using the named
// accuracy tier's Sgn schedule (see ReluSchedule).
func Relu[W fancy.Wire](f fancy.Fancy[W], tier string, x CRTBundle[W]) (CRTBundle[W], error) {
	ps := make([]uint64, x.Size())
	for i, p := range x.Moduli() {
		ps[i] = uint64(p)
	}
	sign, err := Sgn(f, x, ReluSchedule(tier, ps))
	if err != nil {
		return CRTBundle[W]{}, err
	}
	zero, err := ConstantCRT[W](f, big.NewInt(0), ps)
	if err != nil {
		return CRTBundle[W]{}, err
	}
	return muxCRT(f, sign, x.Bundle, zero)
}

// muxCRT selects x wire-wise when s=0, y wire-wise when s=1.
func muxCRT[W fancy.Wire](f fancy.Fancy[W], s W, x, y Bundle[W]) (CRTBundle[W], error) {
	if x.Size() != y.Size() {
		return CRTBundle[W]{}, fancy.ErrUnequalModuli
	}
	out := make([]W, x.Size())
	for i := range x.wires {
		w, err := fancy.Multiplex[W](f, s, x.wires[i], y.wires[i])
		if err != nil {
			return CRTBundle[W]{}, err
		}
		out[i] = w
	}
	return CRTBundle[W]{Bundle[W]{wires: out}}, nil
}
