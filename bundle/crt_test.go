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
	"math/rand"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

// seedGarblerCRT pre-seeds a dummy evaluator's garbler input queue
// with the residues of x so that a subsequent GarblerInputCRT call
// produces a bundle that decodes back to x.
func seedGarblerCRT(x int64, ps []uint64) *dummy.Evaluator {
	residues, err := bundle.EncodeCRT(big.NewInt(x), ps)
	Expect(err).Should(BeNil())
	return dummy.NewEvaluator(residues, nil)
}

var _ = Describe("CRT gadgets", func() {
	It("Sgn with the exact schedule agrees with signed interpretation", func() {
		_, ps := numbers.ModulusWithNPrimes(5)
		q := uint64(1)
		for _, p := range ps {
			q *= p
		}
		cases := []int64{0, 1, 100, int64(q/2) - 1, int64(q / 2), int64(q - 1)}
		for _, v := range cases {
			e := seedGarblerCRT(v, ps)
			x, err := bundle.GarblerInputCRT[dummy.Wire](e, ps)
			Expect(err).Should(BeNil())
			sign, err := bundle.Sgn[dummy.Wire](e, x, bundle.StandardSgnSchedule(ps))
			Expect(err).Should(BeNil())
			want := uint16(0)
			if uint64(v) >= q/2 {
				want = 1
			}
			Expect(sign.Value()).Should(Equal(want))
		}
	})

	It("Relu(100%) matches exact ReLU semantics", func() {
		_, ps := numbers.ModulusWithNPrimes(5)
		q := uint64(1)
		for _, p := range ps {
			q *= p
		}
		for _, v := range []int64{0, 5, int64(q/2) - 1, int64(q / 2), int64(q - 1)} {
			e := seedGarblerCRT(v, ps)
			x, err := bundle.GarblerInputCRT[dummy.Wire](e, ps)
			Expect(err).Should(BeNil())
			out, err := bundle.Relu[dummy.Wire](e, bundle.ReluExact, x)
			Expect(err).Should(BeNil())
			got, err := bundle.DecodeCRT(bundle.Values(out.Bundle), ps)
			Expect(err).Should(BeNil())
			want := v
			if uint64(v) >= q/2 {
				want = 0
			}
			Expect(got.Int64()).Should(Equal(want))
		}
	})

	It("Relu(99.9%) disagrees with the exact answer on fewer than 0.1% of samples", func() {
		_, ps := numbers.ModulusWithNPrimes(5)
		q := uint64(1)
		for _, p := range ps {
			q *= p
		}
		rng := rand.New(rand.NewSource(1))
		const n = 2000
		mismatches := 0
		for i := 0; i < n; i++ {
			v := int64(rng.Int63n(int64(q)))
			e := seedGarblerCRT(v, ps)
			x, err := bundle.GarblerInputCRT[dummy.Wire](e, ps)
			Expect(err).Should(BeNil())
			out, err := bundle.Relu[dummy.Wire](e, bundle.ReluTier999, x)
			Expect(err).Should(BeNil())
			got, err := bundle.DecodeCRT(bundle.Values(out.Bundle), ps)
			Expect(err).Should(BeNil())
			want := v
			if uint64(v) >= q/2 {
				want = 0
			}
			if got.Int64() != want {
				mismatches++
			}
		}
		Expect(float64(mismatches) / float64(n)).Should(BeNumerically("<", 0.001))
	})

	It("ZeroOneToOneNegativeOne maps 0->+1 and 1->q-1", func() {
		_, ps := numbers.ModulusWithNPrimes(4)
		q := uint64(1)
		for _, p := range ps {
			q *= p
		}
		e := dummy.NewEvaluator([]uint16{0, 1}, nil)
		r0, _ := e.GarblerInput(2)
		r1, _ := e.GarblerInput(2)

		out0, err := bundle.ZeroOneToOneNegativeOne[dummy.Wire](e, r0, ps)
		Expect(err).Should(BeNil())
		got0, err := bundle.DecodeCRT(bundle.Values(out0.Bundle), ps)
		Expect(err).Should(BeNil())
		Expect(got0.Uint64()).Should(Equal(uint64(1)))

		out1, err := bundle.ZeroOneToOneNegativeOne[dummy.Wire](e, r1, ps)
		Expect(err).Should(BeNil())
		got1, err := bundle.DecodeCRT(bundle.Values(out1.Bundle), ps)
		Expect(err).Should(BeNil())
		Expect(got1.Uint64()).Should(Equal(q - 1))
	})
})
