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

package dummy

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/GaloisInc/fancy-garbling/fancy"
)

var _ = Describe("dummy evaluator", func() {
	DescribeTable("add/sub/mul mod p", func(p uint16, a, b uint16) {
		e := NewEvaluator([]uint16{a}, []uint16{b})
		x, err := e.GarblerInput(p)
		Expect(err).Should(BeNil())
		y, err := e.EvaluatorInput(p)
		Expect(err).Should(BeNil())

		sum, err := e.Add(x, y)
		Expect(err).Should(BeNil())
		Expect(sum.Value()).Should(Equal((a + b) % p))

		diff, err := e.Sub(x, y)
		Expect(err).Should(BeNil())
		expected := (int(a) - int(b)) % int(p)
		if expected < 0 {
			expected += int(p)
		}
		Expect(int(diff.Value())).Should(Equal(expected))

		prod, err := e.Mul(x, y)
		Expect(err).Should(BeNil())
		Expect(prod.Value()).Should(Equal((a * b) % p))
	},
		Entry("7,3,5", uint16(7), uint16(3), uint16(5)),
		Entry("11,10,10", uint16(11), uint16(10), uint16(10)),
	)

	It("rejects mismatched moduli", func() {
		e := NewEvaluator([]uint16{1}, []uint16{1})
		x, _ := e.GarblerInput(5)
		y, _ := e.EvaluatorInput(7)
		_, err := e.Add(x, y)
		Expect(err).Should(Equal(fancy.ErrUnequalModuli))
	})

	It("Proj applies the truth table", func() {
		e := NewEvaluator([]uint16{3}, nil)
		x, _ := e.GarblerInput(5)
		tt := []uint16{0, 0, 0, 1, 1}
		out, err := e.Proj(x, 2, tt)
		Expect(err).Should(BeNil())
		Expect(out.Value()).Should(Equal(uint16(1)))
	})

	It("Proj rejects a mis-sized table", func() {
		e := NewEvaluator([]uint16{3}, nil)
		x, _ := e.GarblerInput(5)
		_, err := e.Proj(x, 2, []uint16{0, 1})
		Expect(err).ShouldNot(BeNil())
	})

	It("Output records values in declaration order", func() {
		e := NewEvaluator([]uint16{4, 9}, nil)
		x, _ := e.GarblerInput(11)
		y, _ := e.GarblerInput(11)
		Expect(e.Output(x)).Should(BeNil())
		Expect(e.Output(y)).Should(BeNil())
		Expect(e.GetOutputs()).Should(Equal([]uint16{4, 9}))
	})

	It("errors when the input queue is exhausted", func() {
		e := NewEvaluator(nil, nil)
		_, err := e.GarblerInput(5)
		Expect(err).Should(Equal(fancy.ErrInvalidInput))
	})
})

func TestDummy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dummy Test")
}
