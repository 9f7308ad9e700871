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

// Package dummy implements fancy.Fancy as a plaintext ground-truth
// evaluator: wires carry a concrete integer in [0,p), primitives do
// literal modular arithmetic, and proj applies the truth table
// directly. Used by tests and demos as the reference result that the
// garble/eval backends must agree with.
package dummy

import (
	"github.com/getamis/sirius/log"

	"github.com/GaloisInc/fancy-garbling/fancy"
)

// Wire is the concrete plaintext wire: a value in [0, modulus).
type Wire struct {
	value   uint16
	modulus uint16
}

// Modulus implements fancy.Wire.
func (w Wire) Modulus() uint16 { return w.modulus }

// Value returns the plaintext value this wire carries.
func (w Wire) Value() uint16 { return w.value }

// Evaluator is a plaintext Fancy backend. Garbler/evaluator input
// values are pre-seeded at construction in two queues, consumed by
// GarblerInput/EvaluatorInput in declaration order.
type Evaluator struct {
	garblerInputs   []uint16
	evaluatorInputs []uint16
	gi, ei          int
	outputs         []uint16
}

// NewEvaluator seeds the two input queues.
func NewEvaluator(garblerInputs, evaluatorInputs []uint16) *Evaluator {
	return &Evaluator{
		garblerInputs:   garblerInputs,
		evaluatorInputs: evaluatorInputs,
	}
}

// GetOutputs returns the ordered output buffer.
func (e *Evaluator) GetOutputs() []uint16 {
	return e.outputs
}

// GarblerInput implements fancy.Fancy.
func (e *Evaluator) GarblerInput(mod uint16) (Wire, error) {
	if e.gi >= len(e.garblerInputs) {
		log.Warn("dummy: garbler input queue exhausted", "requested", e.gi+1, "have", len(e.garblerInputs))
		return Wire{}, fancy.ErrInvalidInput
	}
	v := e.garblerInputs[e.gi] % mod
	e.gi++
	return Wire{value: v, modulus: mod}, nil
}

// EvaluatorInput implements fancy.Fancy.
func (e *Evaluator) EvaluatorInput(mod uint16) (Wire, error) {
	if e.ei >= len(e.evaluatorInputs) {
		log.Warn("dummy: evaluator input queue exhausted", "requested", e.ei+1, "have", len(e.evaluatorInputs))
		return Wire{}, fancy.ErrInvalidInput
	}
	v := e.evaluatorInputs[e.ei] % mod
	e.ei++
	return Wire{value: v, modulus: mod}, nil
}

// Constant implements fancy.Fancy.
func (e *Evaluator) Constant(val, mod uint16) (Wire, error) {
	if val >= mod {
		return Wire{}, fancy.ErrInvalidInput
	}
	return Wire{value: val, modulus: mod}, nil
}

// Add implements fancy.Fancy.
func (e *Evaluator) Add(x, y Wire) (Wire, error) {
	if x.modulus != y.modulus {
		return Wire{}, fancy.ErrUnequalModuli
	}
	return Wire{value: (x.value + y.value) % x.modulus, modulus: x.modulus}, nil
}

// Sub implements fancy.Fancy.
func (e *Evaluator) Sub(x, y Wire) (Wire, error) {
	if x.modulus != y.modulus {
		return Wire{}, fancy.ErrUnequalModuli
	}
	v := (int(x.value) - int(y.value)) % int(x.modulus)
	if v < 0 {
		v += int(x.modulus)
	}
	return Wire{value: uint16(v), modulus: x.modulus}, nil
}

// Cmul implements fancy.Fancy; the scalar is reduced mod p before use.
func (e *Evaluator) Cmul(x Wire, c int) (Wire, error) {
	m := int(x.modulus)
	cc := c % m
	if cc < 0 {
		cc += m
	}
	v := (int(x.value) * cc) % m
	return Wire{value: uint16(v), modulus: x.modulus}, nil
}

// Mul implements fancy.Fancy; the result modulus is the larger of the
// two operand moduli.
func (e *Evaluator) Mul(x, y Wire) (Wire, error) {
	big, small := x, y
	if small.modulus > big.modulus {
		big, small = small, big
	}
	v := (int(big.value) * int(small.value)) % int(big.modulus)
	return Wire{value: uint16(v), modulus: big.modulus}, nil
}

// Proj implements fancy.Fancy: output = tt[x.value] mod outModulus.
func (e *Evaluator) Proj(x Wire, mod uint16, tt []uint16) (Wire, error) {
	if len(tt) != int(x.modulus) {
		return Wire{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod}
	}
	for i, v := range tt {
		if v >= mod {
			return Wire{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod, OffendingAt: i}
		}
	}
	return Wire{value: tt[x.value] % mod, modulus: mod}, nil
}

// Output implements fancy.Fancy: appends x's plaintext value to the
// ordered output buffer.
func (e *Evaluator) Output(x Wire) error {
	e.outputs = append(e.outputs, x.value)
	return nil
}

var _ fancy.Fancy[Wire] = (*Evaluator)(nil)
