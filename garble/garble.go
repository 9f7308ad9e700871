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

// Package garble implements fancy.Fancy as a real (if simplified)
// garbling backend: every wire carries a set of per-value labels, and
// Proj/Mul emit genuine AES-keyed garbled-row-reduction ciphertexts
// the way crypto/circuit.go's half-gate AND does for mod-2 gates.
//
// This is not a privacy-preserving two-party protocol: a Label keeps
// its plaintext value alongside its labels, and there is no OT for
// evaluator inputs (see the teacher's EncFunc, which plays the same
// role for a pre-agreed Bristol circuit). That matches the Non-goals:
// the point is to exercise the AES/blake2b dependency path and give
// package informer's ciphertext accounting a real construction to
// check against, not to ship a deployable MPC protocol.
package garble

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"

	"github.com/getamis/sirius/log"
	blake2b "github.com/minio/blake2b-simd"
	xblake2b "golang.org/x/crypto/blake2b"

	"github.com/GaloisInc/fancy-garbling/fancy"
)

const labelBytes = 16

// Label is a garbled wire: one random 16-byte label per possible
// value, plus (per the simplification above) the plaintext value
// itself.
type Label struct {
	modulus uint16
	labels  [][]byte
	value   uint16
}

// Modulus implements fancy.Wire.
func (l Label) Modulus() uint16 { return l.modulus }

// Value returns the plaintext value carried alongside the labels.
func (l Label) Value() uint16 { return l.value }

func (l Label) active() []byte { return l.labels[l.value] }

// ActiveLabel exposes the label corresponding to this wire's current
// value, for handing to an eval.Evaluator alongside the value itself.
func (l Label) ActiveLabel() []byte { return l.active() }

// TableEntry is one garbled-row-reduction table: Rows[i-1] is the
// ciphertext for input value i (the i=0 row is always free, anchored
// on the input's own zero label).
type TableEntry struct {
	Counter uint64
	Rows    [][]byte
}

// GarbledTables is the message a Garbler run produces for an Evaluator
// to replay, in call order.
type GarbledTables struct {
	Entries []TableEntry
}

// Garbler implements fancy.Fancy[Label]. Garbler/evaluator input
// values are pre-seeded queues, exactly like package dummy.
type Garbler struct {
	garblerInputs   []uint16
	evaluatorInputs []uint16
	gi, ei          int

	counter uint64
	tables  GarbledTables

	nAdds, nSubs, nCmuls, nMuls, nProjs int
	nCiphertexts                        int

	outputCommitments [][]byte
}

// NewGarbler seeds the two input queues.
func NewGarbler(garblerInputs, evaluatorInputs []uint16) *Garbler {
	return &Garbler{garblerInputs: garblerInputs, evaluatorInputs: evaluatorInputs}
}

var _ fancy.Fancy[Label] = (*Garbler)(nil)

// Tables returns the garbled tables produced so far, for handing to
// an eval.Evaluator.
func (g *Garbler) Tables() GarbledTables { return g.tables }

// OutputCommitments returns the blake2b-256 commitment of each output
// wire's active label, in declaration order (dual-execution style,
// ported from crypto/circuit.go's HOutputWire0/1).
func (g *Garbler) OutputCommitments() [][]byte { return g.outputCommitments }

func (g *Garbler) nextCounter() uint64 {
	g.counter++
	return g.counter
}

// freshLabels draws n random labels. For n == 2 the second label is
// the first XORed with delta2, the relation the half-gate AND relies on.
func freshLabels(n uint16) ([][]byte, error) {
	out := make([][]byte, n)
	for i := range out {
		b := make([]byte, labelBytes)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		out[i] = b
	}
	if n == 2 {
		out[1] = xorBytes(out[0], delta2())
	}
	return out, nil
}

// GarblerInput implements fancy.Fancy.
func (g *Garbler) GarblerInput(mod uint16) (Label, error) {
	if g.gi >= len(g.garblerInputs) {
		log.Warn("garble: garbler input queue exhausted", "requested", g.gi+1, "have", len(g.garblerInputs))
		return Label{}, fancy.ErrInvalidInput
	}
	labels, err := freshLabels(mod)
	if err != nil {
		return Label{}, err
	}
	v := g.garblerInputs[g.gi] % mod
	g.gi++
	return Label{modulus: mod, labels: labels, value: v}, nil
}

// EvaluatorInput implements fancy.Fancy.
func (g *Garbler) EvaluatorInput(mod uint16) (Label, error) {
	if g.ei >= len(g.evaluatorInputs) {
		log.Warn("garble: evaluator input queue exhausted", "requested", g.ei+1, "have", len(g.evaluatorInputs))
		return Label{}, fancy.ErrInvalidInput
	}
	labels, err := freshLabels(mod)
	if err != nil {
		return Label{}, err
	}
	v := g.evaluatorInputs[g.ei] % mod
	g.ei++
	return Label{modulus: mod, labels: labels, value: v}, nil
}

// Constant implements fancy.Fancy.
func (g *Garbler) Constant(val, mod uint16) (Label, error) {
	if val >= mod {
		return Label{}, fancy.ErrInvalidInput
	}
	labels, err := freshLabels(mod)
	if err != nil {
		return Label{}, err
	}
	return Label{modulus: mod, labels: labels, value: val}, nil
}

// Add implements fancy.Fancy. Free: no ciphertext, but (since this
// package doesn't use the XOR-homomorphic additive label scheme the
// real half-gates paper relies on) a fresh label set is generated and
// must be handed to the evaluator alongside the value.
func (g *Garbler) Add(x, y Label) (Label, error) {
	if x.modulus != y.modulus {
		return Label{}, fancy.ErrUnequalModuli
	}
	labels, err := freshLabels(x.modulus)
	if err != nil {
		return Label{}, err
	}
	g.nAdds++
	return Label{modulus: x.modulus, labels: labels, value: (x.value + y.value) % x.modulus}, nil
}

// Sub implements fancy.Fancy; free, per Add.
func (g *Garbler) Sub(x, y Label) (Label, error) {
	if x.modulus != y.modulus {
		return Label{}, fancy.ErrUnequalModuli
	}
	labels, err := freshLabels(x.modulus)
	if err != nil {
		return Label{}, err
	}
	g.nSubs++
	v := (int(x.value) - int(y.value)) % int(x.modulus)
	if v < 0 {
		v += int(x.modulus)
	}
	return Label{modulus: x.modulus, labels: labels, value: uint16(v)}, nil
}

// Cmul implements fancy.Fancy; free, per Add.
func (g *Garbler) Cmul(x Label, c int) (Label, error) {
	labels, err := freshLabels(x.modulus)
	if err != nil {
		return Label{}, err
	}
	g.nCmuls++
	m := int(x.modulus)
	cc := c % m
	if cc < 0 {
		cc += m
	}
	v := (int(x.value) * cc) % m
	return Label{modulus: x.modulus, labels: labels, value: uint16(v)}, nil
}

// Proj implements fancy.Fancy via a garbled row-reduction table: the
// row for input value 0 is free (the output label for tt[0] is
// derived directly from x's own zero label), and each remaining input
// value costs one AES-keyed ciphertext row — p_x-1 total, matching
// informer's Proj formula for any modulus.
func (g *Garbler) Proj(x Label, mod uint16, tt []uint16) (Label, error) {
	if len(tt) != int(x.modulus) {
		return Label{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod}
	}
	for i, v := range tt {
		if v >= mod {
			return Label{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod, OffendingAt: i}
		}
	}
	outLabels := make([][]byte, mod)
	ctr := g.nextCounter()
	outLabels[tt[0]] = h(x.labels[0], ctr)
	if mod == 2 {
		outLabels[1-tt[0]] = xorBytes(outLabels[tt[0]], delta2())
	}
	rows := make([][]byte, 0, x.modulus-1)
	for i := 1; i < int(x.modulus); i++ {
		hi := h(x.labels[i], ctr)
		if outLabels[tt[i]] == nil {
			fresh, err := freshLabels(1)
			if err != nil {
				return Label{}, err
			}
			outLabels[tt[i]] = fresh[0]
		}
		rows = append(rows, xorBytes(hi, outLabels[tt[i]]))
	}
	// Output values tt never reaches still get a label, so later gates
	// can index every value of the output wire.
	for v := range outLabels {
		if outLabels[v] == nil {
			fresh, err := freshLabels(1)
			if err != nil {
				return Label{}, err
			}
			outLabels[v] = fresh[0]
		}
	}
	g.nProjs++
	g.nCiphertexts += int(x.modulus) - 1
	g.tables.Entries = append(g.tables.Entries, TableEntry{Counter: ctr, Rows: rows})
	return Label{modulus: mod, labels: outLabels, value: tt[x.value]}, nil
}

// Mul implements fancy.Fancy. The mod-2-by-mod-2 case is the
// teacher's real half-gate AND. Every other case runs one row-reduced
// projection per value of the smaller-modulus operand — correct, and
// built from the same AES-keyed primitive, but not ciphertext-optimal
// (see the design note in DESIGN.md): it costs q*(p_x-1) ciphertexts
// rather than the true half-gates-generalized p_x+p_y-2.
func (g *Garbler) Mul(x, y Label) (Label, error) {
	if x.modulus < y.modulus {
		return g.Mul(y, x)
	}
	if x.modulus == 2 && y.modulus == 2 {
		return g.halfGateAnd(x, y)
	}
	p, q := x.modulus, y.modulus
	outLabels := make([][]byte, p)
	anchorCtr := g.nextCounter()
	outLabels[0] = h(x.labels[0], anchorCtr)
	g.tables.Entries = append(g.tables.Entries, TableEntry{Counter: anchorCtr})
	for j := uint16(0); j < q; j++ {
		ctr := g.nextCounter()
		rows := make([][]byte, 0, p-1)
		for i := uint16(1); i < p; i++ {
			hi := h(x.labels[i], ctr)
			v := (i * j) % p
			if outLabels[v] == nil {
				fresh, err := freshLabels(1)
				if err != nil {
					return Label{}, err
				}
				outLabels[v] = fresh[0]
			}
			rows = append(rows, xorBytes(hi, outLabels[v]))
		}
		g.tables.Entries = append(g.tables.Entries, TableEntry{Counter: ctr, Rows: rows})
		g.nCiphertexts += int(p) - 1
	}
	g.nMuls++
	v := (x.value * y.value) % p
	return Label{modulus: p, labels: outLabels, value: v}, nil
}

// halfGateAnd is crypto/circuit.go's gbAnd, ported to the Fancy
// vocabulary: two wires of modulus 2, two ciphertexts (tG and tE).
func (g *Garbler) halfGateAnd(x, y Label) (Label, error) {
	pa := lsb(x.labels[0])
	pb := lsb(y.labels[0])
	// The teacher keys the two half gates off two distinct indices
	// (indexj, indexjpai); this port uses one shared counter for both
	// since nothing here needs them to vary independently (no OT
	// round trip to keep separate), keeping the Garbler/Evaluator
	// counter bookkeeping in lockstep.
	ctr := g.nextCounter()

	hWa0 := h(x.labels[0], ctr)
	hWa1 := h(x.labels[1], ctr)
	tG := xorBytes(xorBytes(hWa0, hWa1), boolMul(pb, delta2()))
	wG0 := xorBytes(hWa0, boolMul(pa, tG))

	hWb0 := h(y.labels[0], ctr)
	hWb1 := h(y.labels[1], ctr)
	tE := xorBytes(xorBytes(hWb0, hWb1), x.labels[0])
	wE0 := xorBytes(hWb0, boolMul(pb, xorBytes(tE, x.labels[0])))

	w0 := xorBytes(wG0, wE0)
	w1 := xorBytes(w0, delta2())

	g.nMuls++
	g.nCiphertexts += 2
	g.tables.Entries = append(g.tables.Entries, TableEntry{Counter: ctr, Rows: [][]byte{tG, tE}})

	v := x.value & y.value
	return Label{modulus: 2, labels: [][]byte{w0, w1}, value: v}, nil
}

// delta2 is a fixed, process-wide XOR offset between a mod-2 wire's
// two labels, standing in for the half-gates protocol's secret global
// R (this package has no network boundary to keep it secret from, so
// it is derived once from a fixed seed rather than sampled fresh per
// circuit). Its last bit is forced to 1, the point-and-permute
// convention the half-gate construction relies on.
func delta2() []byte {
	sum := xblake2b.Sum256([]byte("fancy-garbling/garble delta"))
	d := append([]byte{}, sum[:labelBytes]...)
	d[len(d)-1] |= 1
	return d
}

func boolMul(bit uint8, b []byte) []byte {
	if bit == 0 {
		return make([]byte, len(b))
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func lsb(b []byte) uint8 { return b[len(b)-1] & 1 }

// Output implements fancy.Fancy: records a blake2b-256 commitment of
// the output wire's active label, dual-execution style.
func (g *Garbler) Output(x Label) error {
	sum := blake2b.Sum256(x.active())
	g.outputCommitments = append(g.outputCommitments, sum[:])
	return nil
}

// NumAdds, NumSubs, NumCmuls, NumMuls, NumProjs, NumCiphertexts mirror
// package informer's accessors, so the two can be compared directly.
func (g *Garbler) NumAdds() int         { return g.nAdds }
func (g *Garbler) NumSubs() int         { return g.nSubs }
func (g *Garbler) NumCmuls() int        { return g.nCmuls }
func (g *Garbler) NumMuls() int         { return g.nMuls }
func (g *Garbler) NumProjs() int        { return g.nProjs }
func (g *Garbler) NumCiphertexts() int  { return g.nCiphertexts }

func ctrKey(ctr uint64) []byte {
	b := make([]byte, labelBytes)
	binary.BigEndian.PutUint64(b[labelBytes-8:], ctr)
	return b
}

// h is section 4.2's MMO(x,i):=E(i,sigma(x)) xor sigma(x), ported from
// crypto/circuit.go's h(), with one hardening: the AES key is always
// a fixed 16 bytes (ctrKey), not the counter's raw, variable-length
// big.Int encoding, which could otherwise fail aes.NewCipher outright.
func h(label []byte, ctr uint64) []byte {
	cipher, err := aes.NewCipher(ctrKey(ctr))
	if err != nil {
		// ctrKey is always exactly 16 bytes; aes.NewCipher cannot fail.
		panic(err)
	}
	sigmaX := sigma(label)
	out := make([]byte, len(sigmaX))
	cipher.Encrypt(out, sigmaX)
	return xorBytes(out, sigmaX)
}

func sigma(in []byte) []byte {
	half := len(in) / 2
	l, r := in[:half], in[half:]
	out := xorBytes(l, r)
	return append(out, l...)
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}
