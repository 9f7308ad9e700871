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

package fancy_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/fancy"
)

var _ = Describe("derived gates over the dummy backend", func() {
	DescribeTable("Or/And truth table", func(a, b, wantOr, wantAnd uint16) {
		e := dummy.NewEvaluator([]uint16{a, b}, nil)
		x, _ := e.GarblerInput(2)
		y, _ := e.GarblerInput(2)

		or, err := fancy.Or[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(or.Value()).Should(Equal(wantOr))

		and, err := fancy.And[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(and.Value()).Should(Equal(wantAnd))
	},
		Entry("0,0", uint16(0), uint16(0), uint16(0), uint16(0)),
		Entry("0,1", uint16(0), uint16(1), uint16(1), uint16(0)),
		Entry("1,0", uint16(1), uint16(0), uint16(1), uint16(0)),
		Entry("1,1", uint16(1), uint16(1), uint16(1), uint16(1)),
	)

	It("Negate flips a mod-2 wire", func() {
		e := dummy.NewEvaluator([]uint16{1}, nil)
		x, _ := e.GarblerInput(2)
		n, err := fancy.Negate[dummy.Wire](e, x)
		Expect(err).Should(BeNil())
		Expect(n.Value()).Should(Equal(uint16(0)))
	})

	It("Eq is 1 iff the operands are equal", func() {
		e := dummy.NewEvaluator([]uint16{5, 5, 3}, nil)
		x, _ := e.GarblerInput(7)
		y, _ := e.GarblerInput(7)
		z, _ := e.GarblerInput(7)

		eq, err := fancy.Eq[dummy.Wire](e, x, y)
		Expect(err).Should(BeNil())
		Expect(eq.Value()).Should(Equal(uint16(1)))

		neq, err := fancy.Eq[dummy.Wire](e, x, z)
		Expect(err).Should(BeNil())
		Expect(neq.Value()).Should(Equal(uint16(0)))
	})

	It("Adder computes sum and carry for a full adder", func() {
		e := dummy.NewEvaluator([]uint16{1, 1}, nil)
		x, _ := e.GarblerInput(2)
		y, _ := e.GarblerInput(2)
		one, _ := e.Constant(1, 2)
		sum, carry, err := fancy.Adder[dummy.Wire](e, x, y, &one)
		Expect(err).Should(BeNil())
		// 1+1+1 = 3 = 0b11 -> sum=1, carry=1
		Expect(sum.Value()).Should(Equal(uint16(1)))
		Expect(carry.Value()).Should(Equal(uint16(1)))
	})

	It("Multiplex selects by the mod-2 selector", func() {
		e := dummy.NewEvaluator([]uint16{0, 3, 9}, nil)
		s, _ := e.GarblerInput(2)
		x, _ := e.GarblerInput(11)
		y, _ := e.GarblerInput(11)
		got, err := fancy.Multiplex[dummy.Wire](e, s, x, y)
		Expect(err).Should(BeNil())
		Expect(got.Value()).Should(Equal(uint16(3)))
	})

	It("AddMany rejects an empty slice", func() {
		e := dummy.NewEvaluator(nil, nil)
		_, err := fancy.AddMany[dummy.Wire](e, nil)
		Expect(err).ShouldNot(BeNil())
	})
})

func TestFancy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fancy Test")
}
