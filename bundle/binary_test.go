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

package bundle_test

import (
	"math/big"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/fancy"
)

func bits(v int64, n int) []uint16 {
	x := big.NewInt(v)
	if v < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(n))
		x = new(big.Int).Add(x, mod)
	}
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(x.Bit(i))
	}
	return out
}

var _ = Describe("binary gadgets", func() {
	const width = 8

	DescribeTable("BinAddition matches signed integer addition", func(a, b int64) {
		e := dummy.NewEvaluator(append(bits(a, width), bits(b, width)...), nil)
		x, err := bundle.GarblerInputBinary[dummy.Wire](e, width)
		Expect(err).Should(BeNil())
		y, err := bundle.GarblerInputBinary[dummy.Wire](e, width)
		Expect(err).Should(BeNil())
		sum, _, err := bundle.BinAddition[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(bundle.DecodeSignedBinary(bundle.Values(sum.Bundle))).Should(Equal(a + b))
	},
		Entry("3+4", int64(3), int64(4)),
		Entry("-3+4", int64(-3), int64(4)),
		Entry("-10+-20", int64(-10), int64(-20)),
		Entry("0+0", int64(0), int64(0)),
	)

	It("BinMultiplicationLowerHalf matches low bits of the product", func() {
		e := dummy.NewEvaluator(append(bits(11, width), bits(5, width)...), nil)
		x, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
		y, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
		prod, err := bundle.BinMultiplicationLowerHalf[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		want := (11 * 5) % (1 << width)
		Expect(bundle.DecodeBinary(bundle.Values(prod.Bundle)).Int64()).Should(Equal(int64(want)))
	})

	It("bin_abs(bin_twos_complement(x)) == bin_abs(x)", func() {
		for _, v := range []int64{0, 1, 5, 127, -1, -5, -128} {
			e := dummy.NewEvaluator(bits(v, width), nil)
			x, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
			negX, err := bundle.BinTwosComplement[dummy.Wire](e, x)
			Expect(err).Should(BeNil())
			absX, err := bundle.BinAbs[dummy.Wire](e, x)
			Expect(err).Should(BeNil())
			absNegX, err := bundle.BinAbs[dummy.Wire](e, negX)
			Expect(err).Should(BeNil())
			Expect(bundle.Values(absX.Bundle)).Should(Equal(bundle.Values(absNegX.Bundle)))
		}
	})

	It("BinLt is monotone: a<b and b<c implies a<c", func() {
		triples := [][3]int64{{-5, 0, 5}, {-10, -3, 2}, {1, 2, 100}}
		for _, tr := range triples {
			e := dummy.NewEvaluator(append(append(bits(tr[0], width), bits(tr[1], width)...), bits(tr[2], width)...), nil)
			a, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
			b, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
			c, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
			ab, err := bundle.BinLt[dummy.Wire](e, a, b)
			Expect(err).Should(BeNil())
			Expect(ab.Value()).Should(Equal(uint16(1)))
			bc, err := bundle.BinLt[dummy.Wire](e, b, c)
			Expect(err).Should(BeNil())
			Expect(bc.Value()).Should(Equal(uint16(1)))
			ac, err := bundle.BinLt[dummy.Wire](e, a, c)
			Expect(err).Should(BeNil())
			Expect(ac.Value()).Should(Equal(uint16(1)))
		}
	})

	It("BinMax picks the largest of several signed values", func() {
		vals := []int64{-40, 17, 3, 126, -1}
		var seed []uint16
		for _, v := range vals {
			seed = append(seed, bits(v, width)...)
		}
		e := dummy.NewEvaluator(seed, nil)
		bundles := make([]bundle.BinaryBundle[dummy.Wire], len(vals))
		for i := range vals {
			b, err := bundle.GarblerInputBinary[dummy.Wire](e, width)
			Expect(err).Should(BeNil())
			bundles[i] = b
		}
		max, err := bundle.BinMax[dummy.Wire](e, bundles)
		Expect(err).Should(BeNil())
		Expect(bundle.DecodeSignedBinary(bundle.Values(max.Bundle))).Should(Equal(int64(126)))
	})

	It("BinLshrConstant zero-fills from the top", func() {
		e := dummy.NewEvaluator(bits(0b10110000, width), nil)
		x, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
		shifted, err := bundle.BinLshrConstant[dummy.Wire](e, x, 4)
		Expect(err).Should(BeNil())
		Expect(bundle.DecodeBinary(bundle.Values(shifted.Bundle)).Int64()).Should(Equal(int64(0b1011)))
	})

	It("BinLogicalShr is an explicit not-implemented stub", func() {
		e := dummy.NewEvaluator(append(bits(0, width), bits(0, width)...), nil)
		x, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
		amt, _ := bundle.GarblerInputBinary[dummy.Wire](e, width)
		_, err := bundle.BinLogicalShr[dummy.Wire](e, x, amt)
		Expect(err).Should(Equal(fancy.ErrNotImplemented))
	})

	DescribeTable("BinMuxMany selects xs[ix] for every candidate index", func(selected int) {
		const nbits = 2 // covers the 3 candidates below
		candidates := []int64{10, 20, 30}

		e := dummy.NewEvaluator(bits(int64(selected), nbits), nil)
		ix, err := bundle.GarblerInputBinary[dummy.Wire](e, nbits)
		Expect(err).Should(BeNil())

		xs := make([]bundle.BinaryBundle[dummy.Wire], len(candidates))
		for i, v := range candidates {
			xs[i], err = bundle.ConstantBinary[dummy.Wire](e, big.NewInt(v), width)
			Expect(err).Should(BeNil())
		}

		got, err := bundle.BinMuxMany[dummy.Wire](e, ix, xs)
		Expect(err).Should(BeNil())
		Expect(bundle.DecodeBinary(bundle.Values(got.Bundle)).Int64()).Should(Equal(candidates[selected]))
	},
		Entry("index 0", 0),
		Entry("index 1", 1),
		Entry("index 2", 2),
	)
})
