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

// GarblerInputBinary declares nbits mod-2 garbler input wires.
func GarblerInputBinary[W fancy.Wire](f fancy.Fancy[W], nbits int) (BinaryBundle[W], error) {
	b, err := GarblerInputBundle(f, repeat2(nbits))
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	return BinaryBundle[W]{b}, nil
}

// EvaluatorInputBinary declares nbits mod-2 evaluator input wires.
func EvaluatorInputBinary[W fancy.Wire](f fancy.Fancy[W], nbits int) (BinaryBundle[W], error) {
	b, err := EvaluatorInputBundle(f, repeat2(nbits))
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	return BinaryBundle[W]{b}, nil
}

// ConstantBinary builds a binary bundle for x, known to both parties,
// encoded little-endian two's complement over nbits.
func ConstantBinary[W fancy.Wire](f fancy.Fancy[W], x *big.Int, nbits int) (BinaryBundle[W], error) {
	bits := numbers.Base2Digits(x, nbits)
	b, err := ConstantBundle(f, bits, repeat2(nbits))
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	return BinaryBundle[W]{b}, nil
}

// DecodeBinary reconstructs the unsigned integer encoded by the given
// little-endian bits.
func DecodeBinary(bits []uint16) *big.Int {
	return numbers.DigitsToBig(bits)
}

// DecodeSignedBinary interprets the little-endian bits as a two's
// complement signed integer of that width.
func DecodeSignedBinary(bits []uint16) int64 {
	x := numbers.DigitsToBig(bits)
	nbits := len(bits)
	if nbits > 0 && bits[nbits-1] != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(nbits))
		x.Sub(x, mod)
	}
	return x.Int64()
}

func repeat2(n int) []uint16 {
	out := make([]uint16, n)
	for i := range out {
		out[i] = 2
	}
	return out
}

// BinXor, BinAnd, BinOr apply the named mod-2 gate wire-wise.
func BinXor[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], error) {
	b, err := zipWith(f, x.Bundle, y.Bundle, f.Add)
	return BinaryBundle[W]{b}, err
}

func BinAnd[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], error) {
	b, err := zipWith(f, x.Bundle, y.Bundle, func(a, c W) (W, error) { return fancy.And[W](f, a, c) })
	return BinaryBundle[W]{b}, err
}

func BinOr[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], error) {
	b, err := zipWith(f, x.Bundle, y.Bundle, func(a, c W) (W, error) { return fancy.Or[W](f, a, c) })
	return BinaryBundle[W]{b}, err
}

// BinAdditionNoCarry adds two equal-width binary bundles, discarding
// the final carry-out, via a ripple-carry chain of fancy.Adder calls.
func BinAdditionNoCarry[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], error) {
	sum, _, err := binAdditionChain(f, x, y)
	return sum, err
}

// BinAddition adds two equal-width binary bundles, returning the sum
// (same width) and the final carry-out bit.
func BinAddition[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], W, error) {
	return binAdditionChain(f, x, y)
}

func binAdditionChain[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], W, error) {
	var zero W
	if x.Size() != y.Size() || x.Size() == 0 {
		return BinaryBundle[W]{}, zero, fancy.ErrUnequalModuli
	}
	n := x.Size()
	sum := make([]W, n)
	var carry *W
	for i := 0; i < n; i++ {
		s, c, err := fancy.Adder[W](f, x.wires[i], y.wires[i], carry)
		if err != nil {
			return BinaryBundle[W]{}, zero, err
		}
		sum[i] = s
		carry = &c
	}
	return BinaryBundle[W]{Bundle[W]{wires: sum}}, *carry, nil
}

// BinTwosComplement computes -x = NOT(x) + 1 over x's width.
func BinTwosComplement[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W]) (BinaryBundle[W], error) {
	notX := make([]W, x.Size())
	for i, w := range x.wires {
		n, err := fancy.Negate[W](f, w)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		notX[i] = n
	}
	one, err := ConstantBinary[W](f, big.NewInt(1), x.Size())
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	return BinAdditionNoCarry(f, BinaryBundle[W]{Bundle[W]{wires: notX}}, one)
}

// BinSubtraction computes x-y as x + twos_complement(y), returning
// the difference and the borrow-out (the complement of the addition's
// carry-out, following the usual subtract-via-add convention).
func BinSubtraction[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], W, error) {
	var zero W
	negY, err := BinTwosComplement(f, y)
	if err != nil {
		return BinaryBundle[W]{}, zero, err
	}
	diff, carry, err := BinAddition(f, x, negY)
	if err != nil {
		return BinaryBundle[W]{}, zero, err
	}
	borrow, err := fancy.Negate[W](f, carry)
	if err != nil {
		return BinaryBundle[W]{}, zero, err
	}
	return diff, borrow, nil
}

// BinCmul multiplies x by the constant c via shift-and-add: for each
// set bit i of c, add x<<i into the accumulator.
func BinCmul[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W], c int, outputNbits int) (BinaryBundle[W], error) {
	if c == 0 {
		return ConstantBinary[W](f, big.NewInt(0), outputNbits)
	}
	cc := uint64(c)
	neg := c < 0
	if neg {
		cc = uint64(-c)
	}
	acc, err := ConstantBinary[W](f, big.NewInt(0), outputNbits)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	shifted, err := padTo(f, x, outputNbits)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	for bit := 0; cc>>uint(bit) != 0; bit++ {
		if cc&(1<<uint(bit)) != 0 {
			acc, err = BinAdditionNoCarry(f, acc, shifted)
			if err != nil {
				return BinaryBundle[W]{}, err
			}
		}
		shifted, err = shiftLeftOne(f, shifted)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
	}
	if neg {
		acc, err = BinTwosComplement(f, acc)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
	}
	return acc, nil
}

func padTo[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W], width int) (BinaryBundle[W], error) {
	if x.Size() >= width {
		return BinaryBundle[W]{Bundle[W]{wires: x.wires[:width]}}, nil
	}
	out := make([]W, width)
	copy(out, x.wires)
	zero, err := f.Constant(0, 2)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	for i := x.Size(); i < width; i++ {
		out[i] = zero
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

func shiftLeftOne[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W]) (BinaryBundle[W], error) {
	zero, err := f.Constant(0, 2)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	out := make([]W, x.Size())
	out[0] = zero
	copy(out[1:], x.wires[:x.Size()-1])
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

// BinLshrConstant right-shifts x by a compile-time-known constant
// amount, filling vacated high bits with 0 (a plain logical shift —
// valid regardless of sign since the amount is public).
func BinLshrConstant[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W], amount int) (BinaryBundle[W], error) {
	n := x.Size()
	if amount <= 0 {
		return x, nil
	}
	if amount >= n {
		return ConstantBinary[W](f, big.NewInt(0), n)
	}
	zero, err := f.Constant(0, 2)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	out := make([]W, n)
	copy(out, x.wires[amount:])
	for i := n - amount; i < n; i++ {
		out[i] = zero
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

// BinLogicalShr would right-shift x by an amount that is itself
// secret-shared across wires (a barrel shifter keyed on a runtime
// selector bundle rather than a public constant). The reference
// implementation this crate was ported from never finished this
// gadget either; it is left as an explicit stub rather than silently
// returning a wrong result.
func BinLogicalShr[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W], amount BinaryBundle[W]) (BinaryBundle[W], error) {
	return BinaryBundle[W]{}, fancy.ErrNotImplemented
}

// BinMultiplicationLowerHalf multiplies two equal-width binary
// bundles and returns only the low half of the product (same width as
// the operands), via shift-and-add conditioned on each bit of y.
func BinMultiplicationLowerHalf[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (BinaryBundle[W], error) {
	if x.Size() != y.Size() || x.Size() == 0 {
		return BinaryBundle[W]{}, fancy.ErrUnequalModuli
	}
	n := x.Size()
	acc, err := ConstantBinary[W](f, big.NewInt(0), n)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	shifted := x
	for i := 0; i < n; i++ {
		masked, err := bitMaskBundle(f, shifted, y.wires[i])
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		acc, err = BinAdditionNoCarry(f, acc, masked)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		if i != n-1 {
			shifted, err = shiftLeftOne(f, shifted)
			if err != nil {
				return BinaryBundle[W]{}, err
			}
		}
	}
	return acc, nil
}

// bitMaskBundle returns x wire-wise AND'd with the single selector
// bit s (broadcast), used by the shift-and-add multiplier.
func bitMaskBundle[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W], s W) (BinaryBundle[W], error) {
	out := make([]W, x.Size())
	for i, w := range x.wires {
		o, err := fancy.And[W](f, w, s)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		out[i] = o
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

// BinAbs returns |x| for x encoded as a two's complement bundle: the
// sign bit (the top wire) selects between x and its complement.
func BinAbs[W fancy.Wire](f fancy.Fancy[W], x BinaryBundle[W]) (BinaryBundle[W], error) {
	negX, err := BinTwosComplement(f, x)
	if err != nil {
		return BinaryBundle[W]{}, err
	}
	sign := x.wires[x.Size()-1]
	out := make([]W, x.Size())
	for i := range x.wires {
		w, err := fancy.Multiplex[W](f, sign, x.wires[i], negX.wires[i])
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		out[i] = w
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

// BinLt returns a mod-2 wire that is 1 iff signed(x) < signed(y),
// computed as the sign bit of x-y once the overflow case (differing
// operand signs) is corrected for.
func BinLt[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (W, error) {
	var zero W
	diff, _, err := BinSubtraction(f, x, y)
	if err != nil {
		return zero, err
	}
	diffSign := diff.wires[diff.Size()-1]
	xSign := x.wires[x.Size()-1]
	ySign := y.wires[y.Size()-1]
	// signs differ (XOR): the answer is x's own sign bit (a negative
	// x is always less than a non-negative y, and vice versa), since
	// x-y would silently overflow the representable range otherwise.
	signsDiffer, err := f.Add(xSign, ySign)
	if err != nil {
		return zero, err
	}
	return fancy.Multiplex[W](f, signsDiffer, diffSign, xSign)
}

// BinGeq is the complement of BinLt.
func BinGeq[W fancy.Wire](f fancy.Fancy[W], x, y BinaryBundle[W]) (W, error) {
	lt, err := BinLt(f, x, y)
	if err != nil {
		var zero W
		return zero, err
	}
	return fancy.Negate[W](f, lt)
}

// BinMax folds BinLt+multiplex across a non-empty slice of equal-width
// bundles, returning the signed maximum.
func BinMax[W fancy.Wire](f fancy.Fancy[W], xs []BinaryBundle[W]) (BinaryBundle[W], error) {
	if len(xs) < 2 {
		return BinaryBundle[W]{}, &fancy.InvalidArgNum{Got: len(xs), Needed: 2}
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		lt, err := BinLt(f, acc, x)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		out := make([]W, acc.Size())
		for i := range acc.wires {
			w, err := fancy.Multiplex[W](f, lt, acc.wires[i], x.wires[i])
			if err != nil {
				return BinaryBundle[W]{}, err
			}
			out[i] = w
		}
		acc = BinaryBundle[W]{Bundle[W]{wires: out}}
	}
	return acc, nil
}

// BinMuxMany selects xs[ix] by a runtime binary index bundle ix,
// computing sum_i eq(ix,i)*xs[i]: for each candidate i it derives the
// one-hot mask eq(ix, constant(i)) itself (the caller supplies only
// the index, not a pre-computed selector), then ANDs that mask across
// every wire of xs[i] and ORs the per-candidate terms together (valid
// since at most one mask is ever 1).
func BinMuxMany[W fancy.Wire](f fancy.Fancy[W], ix BinaryBundle[W], xs []BinaryBundle[W]) (BinaryBundle[W], error) {
	if len(xs) == 0 {
		return BinaryBundle[W]{}, &fancy.InvalidArgNum{Got: 0, Needed: 1}
	}
	nbits := ix.Size()
	width := xs[0].Size()
	masks := make([]W, len(xs))
	for i := range xs {
		if xs[i].Size() != width {
			return BinaryBundle[W]{}, fancy.ErrUnequalModuli
		}
		target, err := ConstantBinary[W](f, big.NewInt(int64(i)), nbits)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		mask, err := EqBundles[W](f, ix.Bundle, target.Bundle)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		masks[i] = mask
	}

	out := make([]W, width)
	for wi := 0; wi < width; wi++ {
		terms := make([]W, len(xs))
		for i := range xs {
			t, err := fancy.And[W](f, masks[i], xs[i].wires[wi])
			if err != nil {
				return BinaryBundle[W]{}, err
			}
			terms[i] = t
		}
		acc, err := fancy.OrMany[W](f, terms)
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		out[wi] = acc
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}

// BinMultiplexConstantBits selects, wire-wise, between two
// known-to-both-parties bit patterns b1 and b2 using the single
// selector wire s.
func BinMultiplexConstantBits[W fancy.Wire](f fancy.Fancy[W], s W, b1, b2 []bool) (BinaryBundle[W], error) {
	if len(b1) != len(b2) {
		return BinaryBundle[W]{}, &fancy.InvalidArgNum{Got: len(b1), Needed: len(b2)}
	}
	out := make([]W, len(b1))
	for i := range b1 {
		w, err := fancy.MuxConstantBits[W](f, s, b1[i], b2[i])
		if err != nil {
			return BinaryBundle[W]{}, err
		}
		out[i] = w
	}
	return BinaryBundle[W]{Bundle[W]{wires: out}}, nil
}
