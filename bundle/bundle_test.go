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
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

var _ = Describe("bundle wire-wise gadgets", func() {
	It("AddBundles/SubBundles/MulBundles operate position-wise mod p_i", func() {
		ps := []uint16{5, 7, 11}
		e := dummy.NewEvaluator([]uint16{2, 3, 4}, []uint16{1, 1, 1})
		x, err := bundle.GarblerInputBundle[dummy.Wire](e, ps)
		Expect(err).Should(BeNil())
		y, err := bundle.EvaluatorInputBundle[dummy.Wire](e, ps)
		Expect(err).Should(BeNil())

		sum, err := bundle.AddBundles[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(bundle.Values(sum)).Should(Equal([]uint16{3, 4, 5}))

		diff, err := bundle.SubBundles[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(bundle.Values(diff)).Should(Equal([]uint16{1, 2, 3}))

		prod, err := bundle.MulBundles[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(bundle.Values(prod)).Should(Equal([]uint16{2, 3, 4}))
	})

	It("CmulBundles scales every wire by the same scalar", func() {
		ps := []uint16{5, 7}
		e := dummy.NewEvaluator([]uint16{2, 3}, nil)
		x, _ := bundle.GarblerInputBundle[dummy.Wire](e, ps)
		scaled, err := bundle.CmulBundles[dummy.Wire](e, x, 3)
		Expect(err).Should(BeNil())
		Expect(bundle.Values(scaled)).Should(Equal([]uint16{1, 2}))
	})

	It("EqBundles is 1 iff every position matches", func() {
		ps := []uint16{5, 7}
		e := dummy.NewEvaluator([]uint16{2, 3, 2, 4}, nil)
		x, _ := bundle.GarblerInputBundle[dummy.Wire](e, ps)
		y, _ := bundle.GarblerInputBundle[dummy.Wire](e, ps)
		eq, err := bundle.EqBundles[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(eq.Value()).Should(Equal(uint16(0)))
	})

	It("rejects mismatched bundle lengths", func() {
		e := dummy.NewEvaluator([]uint16{1, 2, 3}, nil)
		x, _ := bundle.GarblerInputBundle[dummy.Wire](e, []uint16{5})
		y, _ := bundle.GarblerInputBundle[dummy.Wire](e, []uint16{5, 7})
		_, err := bundle.AddBundles[dummy.Wire](e, x, y)
		Expect(err).ShouldNot(BeNil())
	})

	It("EncodeCRT/DecodeCRT round-trip arbitrary values", func() {
		q, ps := numbers.ModulusWithNPrimes(5)
		for _, v := range []int64{0, 1, 17, 777, int64(q) - 1} {
			residues, err := bundle.EncodeCRT(big.NewInt(v), ps)
			Expect(err).Should(BeNil())
			back, err := bundle.DecodeCRT(residues, ps)
			Expect(err).Should(BeNil())
			Expect(back.Int64()).Should(Equal(v))
		}
	})

	It("EncodeCRT rejects x outside [0,q)", func() {
		_, ps := numbers.ModulusWithNPrimes(3)
		_, err := bundle.EncodeCRT(big.NewInt(-1), ps)
		Expect(err).ShouldNot(BeNil())
	})
})

func TestBundle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bundle Test")
}
