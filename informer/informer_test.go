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

package informer

import (
	"strings"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("informer", func() {
	It("scenario 6: one proj(mod 7) + one mul(mod 5,mod 5)", func() {
		inf := New()
		x, err := inf.GarblerInput(7)
		Expect(err).Should(BeNil())
		_, err = inf.Proj(x, 3, []uint16{0, 1, 2, 0, 1, 2, 0})
		Expect(err).Should(BeNil())

		a, _ := inf.GarblerInput(5)
		b, _ := inf.GarblerInput(5)
		_, err = inf.Mul(a, b)
		Expect(err).Should(BeNil())

		Expect(inf.NumProjs()).Should(Equal(1))
		Expect(inf.NumMuls()).Should(Equal(1))
		Expect(inf.NumCiphertexts()).Should(Equal((7 - 1) + (5 + 5 - 2)))
	})

	It("mul canonicalization is idempotent under argument order", func() {
		inf1 := New()
		x, _ := inf1.GarblerInput(7)
		y, _ := inf1.GarblerInput(5)
		_, err := inf1.Mul(x, y)
		Expect(err).Should(BeNil())

		inf2 := New()
		x2, _ := inf2.GarblerInput(7)
		y2, _ := inf2.GarblerInput(5)
		_, err = inf2.Mul(y2, x2)
		Expect(err).Should(BeNil())

		Expect(inf1.NumCiphertexts()).Should(Equal(inf2.NumCiphertexts()))
	})

	It("is idempotent over 1e6 repeated additions", func() {
		inf := New()
		x, _ := inf.GarblerInput(5)
		y, _ := inf.GarblerInput(5)
		const n = 1000000
		for i := 0; i < n; i++ {
			_, err := inf.Add(x, y)
			Expect(err).Should(BeNil())
		}
		Expect(inf.NumAdds()).Should(Equal(n))
	})

	It("is safe for concurrent counter mutation", func() {
		inf := New()
		x, _ := inf.GarblerInput(5)
		y, _ := inf.GarblerInput(5)
		var wg sync.WaitGroup
		const perGoroutine = 1000
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perGoroutine; i++ {
					_, _ = inf.Add(x, y)
				}
			}()
		}
		wg.Wait()
		Expect(inf.NumAdds()).Should(Equal(8 * perGoroutine))
	})

	It("rejects operands with unequal moduli", func() {
		inf := New()
		x, _ := inf.GarblerInput(5)
		y, _ := inf.GarblerInput(7)
		_, err := inf.Add(x, y)
		Expect(err).ShouldNot(BeNil())
	})

	It("Report carries the stable labels", func() {
		inf := New()
		x, _ := inf.GarblerInput(5)
		Expect(inf.Output(x)).Should(BeNil())
		report := inf.Report()
		for _, label := range []string{
			"garbler inputs", "evaluator inputs", "outputs", "output ciphertexts",
			"constants", "additions", "subtractions", "cmuls", "projections",
			"multiplications", "ciphertexts", "total comms cost",
		} {
			Expect(strings.Contains(report, label)).Should(BeTrue())
		}
	})
})

func TestInformer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Informer Test")
}
