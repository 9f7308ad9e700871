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

// Package main ports apps/dinn.rs's two-layer discretized neural
// network demo onto the bundle package: a hidden layer with a sign
// ("DiNN") activation, followed by a plain linear output layer. The
// model owner (garbler) supplies weights (baked in as cmul constants)
// and biases (garbler inputs); the data owner (evaluator) supplies the
// image to classify (evaluator input).
package main

import (
	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/fancy"
)

// signScheduleModulus is the original's own hardcoded accuracy/cost
// tradeoff for the hidden-layer sign activation (apps/dinn.rs: `let ms
// = vec![128];`), well below the q=2310 of the default 10-bit modulus — kept literally rather than
// routed through bundle.ReluSchedule's tiers, since this is the
// original demo's own concrete choice, not a derived one.
const signScheduleModulus = 128

// Network holds a built DiNN circuit's input/output handles for one
// evaluation.
type Network[W fancy.Wire] struct {
	Biases  [][]bundle.CRTBundle[W] // Biases[layer][neuron]
	Pixels  []bundle.CRTBundle[W]
	Outputs []bundle.CRTBundle[W]
}

// BuildNetwork declares the circuit's wires and gates against f,
// following topology (e.g. [256,30,10]) and the given weight matrices
// (weights[layer][i][j], already signed decimal values — Cmul handles
// the mod-q reduction).
func BuildNetwork[W fancy.Wire](f fancy.Fancy[W], ps []uint64, topology []int, weights [][][]int64) (*Network[W], error) {
	nLayers := len(topology) - 1
	biases := make([][]bundle.CRTBundle[W], nLayers)
	for layer := 0; layer < nLayers; layer++ {
		nout := topology[layer+1]
		biases[layer] = make([]bundle.CRTBundle[W], nout)
		for j := 0; j < nout; j++ {
			b, err := bundle.GarblerInputCRT[W](f, ps)
			if err != nil {
				return nil, err
			}
			biases[layer][j] = b
		}
	}

	pixels := make([]bundle.CRTBundle[W], topology[0])
	for i := range pixels {
		px, err := bundle.EvaluatorInputCRT[W](f, ps)
		if err != nil {
			return nil, err
		}
		pixels[i] = px
	}

	layerInputs := pixels
	var layerOutputs []bundle.CRTBundle[W]

	for layer := 0; layer < nLayers; layer++ {
		nin := topology[layer]
		nout := topology[layer+1]
		layerOutputs = make([]bundle.CRTBundle[W], nout)
		for j := 0; j < nout; j++ {
			acc := biases[layer][j]
			for i := 0; i < nin; i++ {
				scaled, err := bundle.CmulBundles[W](f, layerInputs[i].Bundle, int(weights[layer][i][j]))
				if err != nil {
					return nil, err
				}
				sum, err := bundle.AddBundles[W](f, acc.Bundle, scaled)
				if err != nil {
					return nil, err
				}
				acc = bundle.CRTBundle[W]{Bundle: sum}
			}
			layerOutputs[j] = acc
		}

		if layer == 0 {
			activated := make([]bundle.CRTBundle[W], nout)
			ms := make([]uint16, len(ps))
			for i := range ms {
				ms[i] = signScheduleModulus
			}
			for j, x := range layerOutputs {
				sign, err := bundle.Sgn[W](f, x, ms)
				if err != nil {
					return nil, err
				}
				signed, err := bundle.ZeroOneToOneNegativeOne[W](f, sign, ps)
				if err != nil {
					return nil, err
				}
				activated[j] = signed
			}
			layerOutputs = activated
		}

		layerInputs = layerOutputs
	}

	for _, out := range layerOutputs {
		for _, w := range out.Wires() {
			if err := f.Output(w); err != nil {
				return nil, err
			}
		}
	}

	return &Network[W]{Biases: biases, Pixels: pixels, Outputs: layerOutputs}, nil
}

// DecodeOutputs turns raw per-output residue values (one []uint16 per
// output neuron, in CRT order) back into signed integers mod q.
func DecodeOutputs(outputs [][]uint16, ps []uint64) ([]int64, error) {
	out := make([]int64, len(outputs))
	for i, residues := range outputs {
		v, err := bundle.DecodeSignedCRT(residues, ps)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Argmax returns the index of the largest entry in xs.
func Argmax(xs []int64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}
