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
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/getamis/sirius/log"
)

// readDecimalLines reads n newline-delimited decimal integers from
// path, matching the teacher-style "one value per line" format
// apps/dinn.rs's weights/biases/images/labels files use.
func readDecimalLines(path string, n int) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make([]int64, 0, n)
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(out) < n {
		line := sc.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			log.Warn("dinn: skipping malformed line", "file", path, "line", line, "err", err)
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, fmt.Errorf("dinn: %s: wanted %d values, got %d", path, n, len(out))
	}
	return out, nil
}

// readWeights reads the flat weights file into weights[layer][i][j],
// row-major per layer (topology[l] rows of topology[l+1] columns).
func readWeights(path string, topology []int) ([][][]int64, error) {
	nLayers := len(topology) - 1
	total := 0
	for l := 0; l < nLayers; l++ {
		total += topology[l] * topology[l+1]
	}
	flat, err := readDecimalLines(path, total)
	if err != nil {
		return nil, err
	}

	weights := make([][][]int64, nLayers)
	pos := 0
	for l := 0; l < nLayers; l++ {
		nin, nout := topology[l], topology[l+1]
		layer := make([][]int64, nin)
		for i := 0; i < nin; i++ {
			layer[i] = make([]int64, nout)
			for j := 0; j < nout; j++ {
				layer[i][j] = flat[pos+i*nout+j]
			}
		}
		pos += nin * nout
		weights[l] = layer
	}
	return weights, nil
}

// readBiases reads the flat biases file into biases[layer][neuron].
func readBiases(path string, topology []int) ([][]int64, error) {
	nLayers := len(topology) - 1
	total := 0
	for l := 0; l < nLayers; l++ {
		total += topology[l+1]
	}
	flat, err := readDecimalLines(path, total)
	if err != nil {
		return nil, err
	}
	biases := make([][]int64, nLayers)
	pos := 0
	for l := 0; l < nLayers; l++ {
		nout := topology[l+1]
		biases[l] = flat[pos : pos+nout]
		pos += nout
	}
	return biases, nil
}

// readImages reads n images of topology[0] pixels each.
func readImages(path string, n, pixelsPerImage int) ([][]int64, error) {
	flat, err := readDecimalLines(path, n*pixelsPerImage)
	if err != nil {
		return nil, err
	}
	images := make([][]int64, n)
	for i := 0; i < n; i++ {
		images[i] = flat[i*pixelsPerImage : (i+1)*pixelsPerImage]
	}
	return images, nil
}

// readLabels reads n ground-truth labels.
func readLabels(path string, n int) ([]int, error) {
	vals, err := readDecimalLines(path, n)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i, v := range vals {
		out[i] = int(v)
	}
	return out, nil
}
