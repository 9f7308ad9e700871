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

// Package numbers implements the modular-arithmetic, CRT and
// base-q-digit helpers used to represent a mixed-modulus bundle as
// either a product of small primes or a binary two's-complement
// width.
package numbers

import (
	"errors"
	"math/big"
)

// ErrInvalidInput is returned when a numeric helper receives an
// argument outside its domain.
var ErrInvalidInput = errors.New("invalid input")

// small primes table, smallest first. A CRT modulus q used by this
// package is always the product of a prefix of this table, so it is
// fully determined (and reconstructible) by how many primes it uses.
var smallPrimes = []uint64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61,
	67, 71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137,
	139, 149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199,
	211, 223, 227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277,
	281, 283, 293,
}

// PrimesUpTo returns a copy of the first n entries (or the whole table,
// if n exceeds its length) of the table of small primes this package
// draws CRT moduli from, in ascending order.
func PrimesUpTo(n int) []uint64 {
	if n > len(smallPrimes) {
		n = len(smallPrimes)
	}
	out := make([]uint64, n)
	copy(out, smallPrimes[:n])
	return out
}

// ModulusWithNPrimes returns the product of the first n entries of
// the small-prime table, and the primes themselves.
func ModulusWithNPrimes(n int) (uint64, []uint64) {
	ps := PrimesUpTo(n)
	q := uint64(1)
	for _, p := range ps {
		q *= p
	}
	return q, ps
}

// ModulusWithWidth returns the smallest product of a prefix of the
// small-prime table whose value exceeds 2^width, along with the
// primes used. Deterministic and table-driven, per design note.
func ModulusWithWidth(width int) (uint64, []uint64) {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(width))
	q := big.NewInt(1)
	n := 0
	for q.Cmp(bound) <= 0 {
		if n >= len(smallPrimes) {
			break
		}
		q.Mul(q, new(big.Int).SetUint64(smallPrimes[n]))
		n++
	}
	return ModulusWithNPrimes(n)
}

// CRTFactor decomposes x into its residues modulo each prime in ps.
func CRTFactor(x *big.Int, ps []uint64) []uint64 {
	out := make([]uint64, len(ps))
	tmp := new(big.Int)
	for i, p := range ps {
		tmp.Mod(x, new(big.Int).SetUint64(p))
		out[i] = tmp.Uint64()
	}
	return out
}

// CRTInvFactor reconstructs x in [0,q) from its residues mod each
// prime in ps, where q = prod(ps), via explicit CRT: the big.Int sum
// of r_i * (q/p_i) * inverse(q/p_i mod p_i), reduced mod q.
func CRTInvFactor(residues []uint64, ps []uint64) (*big.Int, error) {
	if len(residues) != len(ps) {
		return nil, ErrInvalidInput
	}
	q := big.NewInt(1)
	for _, p := range ps {
		q.Mul(q, new(big.Int).SetUint64(p))
	}
	x := new(big.Int)
	for i, p := range ps {
		pi := new(big.Int).SetUint64(p)
		qi := new(big.Int).Div(q, pi)
		qiInv := new(big.Int).ModInverse(qi, pi)
		if qiInv == nil {
			return nil, ErrInvalidInput
		}
		term := new(big.Int).SetUint64(residues[i])
		term.Mul(term, qi)
		term.Mul(term, qiInv)
		x.Add(x, term)
	}
	x.Mod(x, q)
	return x, nil
}

// Base2Digits decomposes x into nbits little-endian bits.
func Base2Digits(x *big.Int, nbits int) []uint16 {
	out := make([]uint16, nbits)
	for i := 0; i < nbits; i++ {
		out[i] = uint16(x.Bit(i))
	}
	return out
}

// DigitsToBig reconstructs an unsigned integer from little-endian
// base-2 digits.
func DigitsToBig(bits []uint16) *big.Int {
	x := new(big.Int)
	for i := len(bits) - 1; i >= 0; i-- {
		x.Lsh(x, 1)
		if bits[i] != 0 {
			x.SetBit(x, 0, 1)
		}
	}
	return x
}

// ToModQ maps a signed int64 into [0,q) using the positive
// representative, per the signed-encoding convention documented at
// every CRT API boundary.
func ToModQ(x int64, q uint64) uint64 {
	m := new(big.Int).SetUint64(q)
	v := new(big.Int).Mod(big.NewInt(x), m)
	return v.Uint64()
}

// CRTCoefficients returns q = prod(ps) and, for each prime p_i, the
// fixed CRT reconstruction coefficient c_i = (q/p_i) * inverse(q/p_i
// mod p_i) mod q, such that for any x in [0,q) with residues r_i,
// x = (sum_i r_i*c_i) mod q. Precomputing these lets a single
// projection per residue realize one term of the reconstruction.
func CRTCoefficients(ps []uint64) (uint64, []uint64) {
	q := big.NewInt(1)
	for _, p := range ps {
		q.Mul(q, new(big.Int).SetUint64(p))
	}
	coeffs := make([]uint64, len(ps))
	for i, p := range ps {
		pi := new(big.Int).SetUint64(p)
		qi := new(big.Int).Div(q, pi)
		qiInv := new(big.Int).ModInverse(new(big.Int).Mod(qi, pi), pi)
		c := new(big.Int).Mul(qi, qiInv)
		c.Mod(c, q)
		coeffs[i] = c.Uint64()
	}
	return q.Uint64(), coeffs
}

// Factor returns, in ascending order, the distinct entries of the
// small-prime table that divide q exactly. It assumes (as every
// modulus produced by this package guarantees) that q is square-free
// over that table.
func Factor(q uint64) []uint64 {
	var out []uint64
	rem := q
	for _, p := range smallPrimes {
		if rem == 1 {
			break
		}
		if rem%p == 0 {
			out = append(out, p)
			rem /= p
		}
	}
	return out
}

// FromModQ interprets an unsigned residue x in [0,q) as a signed
// value, centered around 0: [0,q/2) is non-negative, [q/2,q) is
// x-q (negative). q/2 itself is treated as negative (tie-breaker).
func FromModQ(x, q uint64) int64 {
	if x >= q/2 {
		return int64(x) - int64(q)
	}
	return int64(x)
}
