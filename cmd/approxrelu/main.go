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

// Package main ports examples/approx_activations.rs: sample random CRT
// values at varying prime-count widths, run all three Relu accuracy
// tiers over them via dummy.Evaluator, and report how often the
// relaxed tiers disagree with the exact one.
package main

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

func main() {
	var n int
	var minPrimes, maxPrimes int

	cmd := &cobra.Command{
		Use:   "approxrelu",
		Short: "measure how often the relaxed Relu accuracy tiers disagree with the exact one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(n, minPrimes, maxPrimes)
		},
	}
	cmd.Flags().IntVar(&n, "samples", 100000, "number of random CRT values to test")
	cmd.Flags().IntVar(&minPrimes, "min-primes", 5, "smallest CRT width to sample (inclusive)")
	cmd.Flags().IntVar(&maxPrimes, "max-primes", 9, "largest CRT width to sample (exclusive)")
	if err := cmd.Execute(); err != nil {
		log.Crit("approxrelu: command failed", "err", err)
	}
}

// sampleOnce draws one random CRT width/value pair and runs all three
// Relu tiers over it, returning 1/0 disagreement indicators for the
// two relaxed tiers against the exact one.
func sampleOnce(rng *rand.Rand, minPrimes, maxPrimes int) (err999, err99 float64, reterr error) {
	nprimes := minPrimes + rng.Intn(maxPrimes-minPrimes)
	q, ps := numbers.ModulusWithNPrimes(nprimes)
	x := new(big.Int).Mod(big.NewInt(rng.Int63()), new(big.Int).SetUint64(q))

	residues, err := bundle.EncodeCRT(x, ps)
	if err != nil {
		return 0, 0, err
	}
	e := dummy.NewEvaluator(residues, nil)

	xb, err := bundle.GarblerInputCRT[dummy.Wire](e, ps)
	if err != nil {
		return 0, 0, err
	}
	exact, err := bundle.Relu[dummy.Wire](e, bundle.ReluExact, xb)
	if err != nil {
		return 0, 0, err
	}
	tier999, err := bundle.Relu[dummy.Wire](e, bundle.ReluTier999, xb)
	if err != nil {
		return 0, 0, err
	}
	tier99, err := bundle.Relu[dummy.Wire](e, bundle.ReluTier99, xb)
	if err != nil {
		return 0, 0, err
	}
	for _, out := range []bundle.CRTBundle[dummy.Wire]{exact, tier999, tier99} {
		for _, w := range out.Wires() {
			if err := e.Output(w); err != nil {
				return 0, 0, err
			}
		}
	}

	wantVal, err := decodeWires(exact, ps)
	if err != nil {
		return 0, 0, err
	}
	got999, err := decodeWires(tier999, ps)
	if err != nil {
		return 0, 0, err
	}
	got99, err := decodeWires(tier99, ps)
	if err != nil {
		return 0, 0, err
	}

	if got999.Cmp(wantVal) != 0 {
		err999 = 1
	}
	if got99.Cmp(wantVal) != 0 {
		err99 = 1
	}
	return err999, err99, nil
}

func decodeWires(b bundle.CRTBundle[dummy.Wire], ps []uint64) (*big.Int, error) {
	wires := b.Wires()
	residues := make([]uint16, len(wires))
	for i, w := range wires {
		residues[i] = w.Value()
	}
	return bundle.DecodeCRT(residues, ps)
}

func run(n, minPrimes, maxPrimes int) error {
	rng := rand.New(rand.NewSource(1))
	series999 := make([]float64, n)
	series99 := make([]float64, n)

	for i := 0; i < n; i++ {
		e999, e99, err := sampleOnce(rng, minPrimes, maxPrimes)
		if err != nil {
			return err
		}
		series999[i] = e999
		series99[i] = e99
	}

	rate999 := stat.Mean(series999, nil)
	rate99 := stat.Mean(series99, nil)
	fmt.Printf("relu 99.9%% errors: %.0f/%d (%.2f%% agreement)\n", rate999*float64(n), n, 100*(1-rate999))
	fmt.Printf("relu 99%% errors: %.0f/%d (%.2f%% agreement)\n", rate99*float64(n), n, 100*(1-rate99))
	return nil
}
