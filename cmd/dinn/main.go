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

package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"

	"github.com/GaloisInc/fancy-garbling/bundle"
	"github.com/GaloisInc/fancy-garbling/dummy"
	"github.com/GaloisInc/fancy-garbling/eval"
	"github.com/GaloisInc/fancy-garbling/garble"
	"github.com/GaloisInc/fancy-garbling/informer"
	"github.com/GaloisInc/fancy-garbling/numbers"
)

func main() {
	root := &cobra.Command{
		Use:   "dinn",
		Short: "discretized neural network garbled-circuit demo, ported from apps/dinn.rs",
	}
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "report plaintext classification accuracy over the image set",
		RunE:  runTest,
	}
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "report garble/eval timing and ciphertext count for one image",
		RunE:  runBench,
	}
	defineFlags(testCmd)
	defineFlags(benchCmd)
	root.AddCommand(testCmd, benchCmd)
	if err := root.Execute(); err != nil {
		log.Crit("dinn: command failed", "err", err)
	}
}

func loadAll(cmd *cobra.Command) (*Config, []uint64, [][][]int64, [][]int64, [][]int64, []int, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	_, ps := numbers.ModulusWithWidth(cfg.ModulusBits)
	weights, err := readWeights(cfg.WeightsFile, cfg.Topology)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	biases, err := readBiases(cfg.BiasesFile, cfg.Topology)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	images, err := readImages(cfg.ImagesFile, cfg.NumImages, cfg.Topology[0])
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	labels, err := readLabels(cfg.LabelsFile, cfg.NumImages)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, err
	}
	return cfg, ps, weights, biases, images, labels, nil
}

// runTest evaluates the network against dummy.Evaluator, matching
// apps/dinn.rs's "test" argument: classify every image and report
// accuracy against the label file.
func runTest(cmd *cobra.Command, args []string) error {
	cfg, ps, weights, biases, images, labels, err := loadAll(cmd)
	if err != nil {
		return err
	}
	log.Info("dinn: loaded model", "topology", cfg.Topology, "images", len(images))

	errs := 0
	for n, img := range images {
		biasResidues, err := crtResidueQueue(biases, ps)
		if err != nil {
			return err
		}
		imgResidues, err := imageResidueQueue(img, ps)
		if err != nil {
			return err
		}
		e := dummy.NewEvaluator(biasResidues, imgResidues)
		net, err := BuildNetwork[dummy.Wire](e, ps, cfg.Topology, weights)
		if err != nil {
			return err
		}
		scores, err := decodeNetworkOutputs(net, ps)
		if err != nil {
			return err
		}
		winner := Argmax(scores)
		if winner != labels[n] {
			errs++
		}
	}
	accuracy := 100 * (1 - float64(errs)/float64(len(images)))
	fmt.Printf("errors: %d/%d. accuracy: %.2f%%\n", errs, len(images), accuracy)
	return nil
}

// runBench times one garble + eval pass and reports the ciphertext
// count via informer, matching apps/dinn.rs's "bench" argument.
func runBench(cmd *cobra.Command, args []string) error {
	cfg, ps, weights, biases, images, _, err := loadAll(cmd)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("dinn: bench needs at least one image")
	}

	inf := informer.New()
	if _, err := BuildNetwork[informer.Wire](inf, ps, cfg.Topology, weights); err != nil {
		return err
	}
	fmt.Print(inf.Report())

	biasResidues, err := crtResidueQueue(biases, ps)
	if err != nil {
		return err
	}
	imgResidues, err := imageResidueQueue(images[0], ps)
	if err != nil {
		return err
	}

	start := time.Now()
	g := garble.NewGarbler(biasResidues, imgResidues)
	gnet, err := BuildNetwork[garble.Label](g, ps, cfg.Topology, weights)
	if err != nil {
		return err
	}
	garbleTime := time.Since(start)

	gi := extractLabels(gnet.Biases)
	ei := extractLabels(wrapPixels(gnet.Pixels))

	start = time.Now()
	ev := eval.NewEvaluator(g.Tables(), gi.labels, gi.values, ei.labels, ei.values)
	if _, err := BuildNetwork[eval.Label](ev, ps, cfg.Topology, weights); err != nil {
		return err
	}
	evalTime := time.Since(start)

	fmt.Printf("garbling took %s\n", garbleTime)
	fmt.Printf("eval took %s\n", evalTime)
	fmt.Printf("size: %d ciphertexts\n", g.NumCiphertexts())
	return nil
}

// decodeNetworkOutputs reads the residues directly off each output
// bundle's wires (valid for the dummy backend, where every Wire still
// carries its plaintext value) and decodes them to signed integers.
func decodeNetworkOutputs(net *Network[dummy.Wire], ps []uint64) ([]int64, error) {
	raw := make([][]uint16, len(net.Outputs))
	for i, out := range net.Outputs {
		wires := out.Wires()
		residues := make([]uint16, len(wires))
		for k, w := range wires {
			residues[k] = w.Value()
		}
		raw[i] = residues
	}
	return DecodeOutputs(raw, ps)
}

// crtResidueQueue flattens every bias into its CRT residues, in
// GarblerInputCRT declaration order (layer, then neuron, then residue
// position), matching dummy.Evaluator's/garble.Garbler's FIFO queue
// convention. Negative biases are first mapped into [0,q) by
// numbers.ToModQ.
func crtResidueQueue(biases [][]int64, ps []uint64) ([]uint16, error) {
	q := uint64(1)
	for _, p := range ps {
		q *= p
	}
	var out []uint16
	for _, layer := range biases {
		for _, b := range layer {
			residues, err := bundle.EncodeCRT(new(big.Int).SetUint64(numbers.ToModQ(b, q)), ps)
			if err != nil {
				return nil, err
			}
			out = append(out, residues...)
		}
	}
	return out, nil
}

// imageResidueQueue flattens one image's pixels into CRT residues, in
// EvaluatorInputCRT declaration order.
func imageResidueQueue(img []int64, ps []uint64) ([]uint16, error) {
	var out []uint16
	for _, px := range img {
		residues, err := bundle.EncodeCRT(big.NewInt(px), ps)
		if err != nil {
			return nil, err
		}
		out = append(out, residues...)
	}
	return out, nil
}

type labelQueue struct {
	labels [][]byte
	values []uint16
}

// extractLabels reads the active label/value pair off every wire of
// every bundle, in declaration order, standing in for the OT transfer
// step a real two-party protocol would use to hand these to the
// evaluator.
func extractLabels(bundles [][]bundle.CRTBundle[garble.Label]) labelQueue {
	var q labelQueue
	for _, layer := range bundles {
		for _, b := range layer {
			for _, w := range b.Wires() {
				q.labels = append(q.labels, w.ActiveLabel())
				q.values = append(q.values, w.Value())
			}
		}
	}
	return q
}

func wrapPixels(pixels []bundle.CRTBundle[garble.Label]) [][]bundle.CRTBundle[garble.Label] {
	return [][]bundle.CRTBundle[garble.Label]{pixels}
}
