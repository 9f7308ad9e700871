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

// Package informer implements fancy.Fancy with no cryptographic work:
// it only tallies garbler/evaluator inputs, constants, outputs, and
// per-op/ciphertext counters, so a circuit's communication cost can
// be estimated before any garbling happens.
package informer

import (
	"fmt"
	"sync"

	"github.com/getamis/sirius/log"

	"github.com/GaloisInc/fancy-garbling/fancy"
)

// Wire carries nothing but a modulus tag; the informer never computes
// on values.
type Wire struct {
	modulus uint16
}

// Modulus implements fancy.Wire.
func (w Wire) Modulus() uint16 { return w.modulus }

type constKey struct {
	val, mod uint16
}

// Informer accumulates cost counters for a Fancy construction. All
// mutation is guarded by a single coarse mutex: this is the one
// exception to the single-threaded-builder rule, so that a
// multi-threaded circuit constructor may share one Informer. Ordering
// between concurrent operations is unspecified; only the final totals
// (commutative sums/sets) are guaranteed deterministic.
type Informer struct {
	mu sync.Mutex

	garblerInputModuli   []uint16
	evaluatorInputModuli []uint16
	constants            map[constKey]struct{}
	outputs              []uint16

	nAdds        int
	nSubs        int
	nCmuls       int
	nMuls        int
	nProjs       int
	nCiphertexts int
}

// New returns an empty Informer.
func New() *Informer {
	return &Informer{
		constants: make(map[constKey]struct{}),
	}
}

var _ fancy.Fancy[Wire] = (*Informer)(nil)

// GarblerInput implements fancy.Fancy.
func (inf *Informer) GarblerInput(mod uint16) (Wire, error) {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.garblerInputModuli = append(inf.garblerInputModuli, mod)
	return Wire{modulus: mod}, nil
}

// EvaluatorInput implements fancy.Fancy.
func (inf *Informer) EvaluatorInput(mod uint16) (Wire, error) {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.evaluatorInputModuli = append(inf.evaluatorInputModuli, mod)
	return Wire{modulus: mod}, nil
}

// Constant implements fancy.Fancy.
func (inf *Informer) Constant(val, mod uint16) (Wire, error) {
	if val >= mod {
		return Wire{}, fancy.ErrInvalidInput
	}
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.constants[constKey{val: val, mod: mod}] = struct{}{}
	return Wire{modulus: mod}, nil
}

// Add implements fancy.Fancy; free in the garbling scheme.
func (inf *Informer) Add(x, y Wire) (Wire, error) {
	if x.modulus != y.modulus {
		return Wire{}, fancy.ErrUnequalModuli
	}
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.nAdds++
	return Wire{modulus: x.modulus}, nil
}

// Sub implements fancy.Fancy; free in the garbling scheme.
func (inf *Informer) Sub(x, y Wire) (Wire, error) {
	if x.modulus != y.modulus {
		return Wire{}, fancy.ErrUnequalModuli
	}
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.nSubs++
	return Wire{modulus: x.modulus}, nil
}

// Cmul implements fancy.Fancy; free in the garbling scheme.
func (inf *Informer) Cmul(x Wire, c int) (Wire, error) {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.nCmuls++
	return Wire{modulus: x.modulus}, nil
}

// Mul implements fancy.Fancy. Canonicalizes so x has the larger
// modulus; cost is p_x+p_y-2 ciphertexts, plus one more when the
// moduli differ (the asymmetric half-gate variant). Canonicalization
// makes the accounting idempotent under argument order.
func (inf *Informer) Mul(x, y Wire) (Wire, error) {
	if x.modulus < y.modulus {
		return inf.Mul(y, x)
	}
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.nMuls++
	inf.nCiphertexts += int(x.modulus) + int(y.modulus) - 2
	if x.modulus != y.modulus {
		inf.nCiphertexts++
	}
	return Wire{modulus: x.modulus}, nil
}

// Proj implements fancy.Fancy; costs p_x-1 ciphertexts (the
// point-and-permute free row trick).
func (inf *Informer) Proj(x Wire, mod uint16, tt []uint16) (Wire, error) {
	if len(tt) != int(x.modulus) {
		return Wire{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod}
	}
	for i, v := range tt {
		if v >= mod {
			return Wire{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod, OffendingAt: i}
		}
	}
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.nProjs++
	inf.nCiphertexts += int(x.modulus) - 1
	return Wire{modulus: mod}, nil
}

// Output implements fancy.Fancy; free, but its modulus contributes to
// the output-ciphertext estimate reported by Report.
func (inf *Informer) Output(x Wire) error {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	inf.outputs = append(inf.outputs, x.modulus)
	return nil
}

// NumGarblerInputs returns the count of declared garbler inputs.
func (inf *Informer) NumGarblerInputs() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	return len(inf.garblerInputModuli)
}

// NumEvaluatorInputs returns the count of declared evaluator inputs.
func (inf *Informer) NumEvaluatorInputs() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	return len(inf.evaluatorInputModuli)
}

// NumConsts returns the count of distinct (value,modulus) constants.
func (inf *Informer) NumConsts() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	return len(inf.constants)
}

// NumOutputs returns the count of declared outputs.
func (inf *Informer) NumOutputs() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	return len(inf.outputs)
}

// NumOutputCiphertexts sums the moduli of every declared output wire,
// counted as one ciphertext per output-modulus-unit.
func (inf *Informer) NumOutputCiphertexts() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	total := 0
	for _, m := range inf.outputs {
		total += int(m)
	}
	return total
}

// NumAdds returns the count of additions.
func (inf *Informer) NumAdds() int { inf.mu.Lock(); defer inf.mu.Unlock(); return inf.nAdds }

// NumSubs returns the count of subtractions.
func (inf *Informer) NumSubs() int { inf.mu.Lock(); defer inf.mu.Unlock(); return inf.nSubs }

// NumCmuls returns the count of scalar multiplications.
func (inf *Informer) NumCmuls() int { inf.mu.Lock(); defer inf.mu.Unlock(); return inf.nCmuls }

// NumMuls returns the count of multiplications.
func (inf *Informer) NumMuls() int { inf.mu.Lock(); defer inf.mu.Unlock(); return inf.nMuls }

// NumProjs returns the count of projections.
func (inf *Informer) NumProjs() int { inf.mu.Lock(); defer inf.mu.Unlock(); return inf.nProjs }

// NumCiphertexts returns the count of non-free-gate ciphertexts (proj
// and mul only; does not include output ciphertexts).
func (inf *Informer) NumCiphertexts() int {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	return inf.nCiphertexts
}

// Report renders the stable-labelled, multi-line cost report: garbler
// inputs cost 128 bits/label, evaluator inputs cost 256 bits (OT
// transport), constants and ciphertexts (including output
// ciphertexts) cost 128 bits each.
func (inf *Informer) Report() string {
	gi := inf.NumGarblerInputs()
	ei := inf.NumEvaluatorInputs()
	outs := inf.NumOutputs()
	outCs := inf.NumOutputCiphertexts()
	consts := inf.NumConsts()
	cs := inf.NumCiphertexts()

	commsBits := gi*128 + ei*256 + consts*128 + cs*128 + outCs*128
	kb := float64(commsBits) / 8.0 / 1024.0
	mb := kb / 1024.0

	return fmt.Sprintf(
		"computation info:\n"+
			"  garbler inputs:     %16d // comms cost: %dkb\n"+
			"  evaluator inputs:   %16d // OT cost: %dkb\n"+
			"  outputs:            %16d\n"+
			"  output ciphertexts: %16d // comms cost: %dkb\n"+
			"  constants:          %16d // comms cost: %dkb\n"+
			"  additions:          %16d\n"+
			"  subtractions:       %16d\n"+
			"  cmuls:              %16d\n"+
			"  projections:        %16d\n"+
			"  multiplications:    %16d\n"+
			"  ciphertexts:        %16d // comms cost: %.2fmb (%.2fkb)\n"+
			"  total comms cost:   %14.2fmb // %.2fkb\n",
		gi, gi*128/8/1024,
		ei, ei*256/8/1024,
		outs,
		outCs, outCs*128/8/1024,
		consts, consts*128/8/1024,
		inf.NumAdds(),
		inf.NumSubs(),
		inf.NumCmuls(),
		inf.NumProjs(),
		inf.NumMuls(),
		cs, float64(cs)*128.0/8.0/1024.0/1024.0, float64(cs)*128.0/8.0/1024.0,
		mb, kb,
	)
}

// PrintInfo logs the cost report at Info level.
func (inf *Informer) PrintInfo() {
	log.Info("computation info", "report", inf.Report())
}
