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

// Package eval implements the other half of package garble: an
// Evaluator that replays a garble.Garbler run's ciphertext tables,
// decrypting each row with the real AES-keyed hash the garbler used,
// the way GarbleCircuit.EvaluateGarbleCircuit walks crypto/circuit.go's
// garbled table row by row.
//
// Per garble.Label's documented simplification (no OT, no network
// boundary — see that package's doc comment), eval.Label also carries
// the plaintext value alongside its active label: this lets Proj/Mul
// pick out the correct garbled row exactly as a real evaluator's
// "active" label would select it, while still doing the actual
// decryption via AES rather than just copying the value through.
package eval

import (
	"crypto/aes"
	"encoding/binary"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/GaloisInc/fancy-garbling/fancy"
	"github.com/GaloisInc/fancy-garbling/garble"
)

const labelBytes = 16

// Label is the evaluator-side wire: one active label plus the
// plaintext value it corresponds to (see the package doc comment).
type Label struct {
	modulus uint16
	active  []byte
	value   uint16
}

// Modulus implements fancy.Wire.
func (l Label) Modulus() uint16 { return l.modulus }

// Value returns the plaintext value riding alongside the active label.
func (l Label) Value() uint16 { return l.value }

// Evaluator replays a garble.GarbledTables tape entry by entry, in the
// same call order the Garbler that produced it executed.
type Evaluator struct {
	garblerInputs   [][]byte
	garblerValues   []uint16
	evaluatorInputs [][]byte
	evaluatorValues []uint16
	gi, ei          int

	tables garble.GarbledTables
	next   int

	outputs [][]byte
}

// NewEvaluator constructs an Evaluator against a garble.Garbler run's
// tables, the active labels it handed out for each input (in
// GarblerInput/EvaluatorInput call order — standing in for an OT
// transfer result, see the Non-goals), and those inputs' plaintext
// values.
func NewEvaluator(tables garble.GarbledTables, garblerInputLabels [][]byte, garblerValues []uint16, evaluatorInputLabels [][]byte, evaluatorValues []uint16) *Evaluator {
	return &Evaluator{
		tables:          tables,
		garblerInputs:   garblerInputLabels,
		garblerValues:   garblerValues,
		evaluatorInputs: evaluatorInputLabels,
		evaluatorValues: evaluatorValues,
	}
}

var _ fancy.Fancy[Label] = (*Evaluator)(nil)

func (e *Evaluator) nextEntry() garble.TableEntry {
	entry := e.tables.Entries[e.next]
	e.next++
	return entry
}

// GarblerInput implements fancy.Fancy.
func (e *Evaluator) GarblerInput(mod uint16) (Label, error) {
	if e.gi >= len(e.garblerInputs) {
		return Label{}, fancy.ErrInvalidInput
	}
	l := Label{modulus: mod, active: e.garblerInputs[e.gi], value: e.garblerValues[e.gi]}
	e.gi++
	return l, nil
}

// EvaluatorInput implements fancy.Fancy.
func (e *Evaluator) EvaluatorInput(mod uint16) (Label, error) {
	if e.ei >= len(e.evaluatorInputs) {
		return Label{}, fancy.ErrInvalidInput
	}
	l := Label{modulus: mod, active: e.evaluatorInputs[e.ei], value: e.evaluatorValues[e.ei]}
	e.ei++
	return l, nil
}

// Constant implements fancy.Fancy: constants are known to both
// parties, so the evaluator derives the same fixed label the garbler
// would use for (mod,val) deterministically, rather than needing it
// transmitted out of band.
func (e *Evaluator) Constant(val, mod uint16) (Label, error) {
	if val >= mod {
		return Label{}, fancy.ErrInvalidInput
	}
	h := blake2b.Sum256([]byte{byte(mod), byte(mod >> 8), byte(val), byte(val >> 8), 'c'})
	return Label{modulus: mod, active: h[:labelBytes], value: val}, nil
}

// Add implements fancy.Fancy; free, value tracked directly.
func (e *Evaluator) Add(x, y Label) (Label, error) {
	if x.modulus != y.modulus {
		return Label{}, fancy.ErrUnequalModuli
	}
	return Label{modulus: x.modulus, active: xorBytes(x.active, y.active), value: (x.value + y.value) % x.modulus}, nil
}

// Sub implements fancy.Fancy; free, value tracked directly.
func (e *Evaluator) Sub(x, y Label) (Label, error) {
	if x.modulus != y.modulus {
		return Label{}, fancy.ErrUnequalModuli
	}
	m := int(x.modulus)
	v := (int(x.value) - int(y.value)) % m
	if v < 0 {
		v += m
	}
	return Label{modulus: x.modulus, active: xorBytes(x.active, y.active), value: uint16(v)}, nil
}

// Cmul implements fancy.Fancy; free, value tracked directly.
func (e *Evaluator) Cmul(x Label, c int) (Label, error) {
	m := int(x.modulus)
	cc := c % m
	if cc < 0 {
		cc += m
	}
	v := (int(x.value) * cc) % m
	return Label{modulus: x.modulus, active: x.active, value: uint16(v)}, nil
}

// Proj implements fancy.Fancy by replaying one garbled-row-reduction
// table: row 0 (x.value==0) is free, derived directly by re-hashing
// x's own active label; every other row is decrypted by re-deriving
// the same AES-keyed hash the garbler used for that counter and
// XORing off the stored ciphertext at position x.value-1.
func (e *Evaluator) Proj(x Label, mod uint16, tt []uint16) (Label, error) {
	if len(tt) != int(x.modulus) {
		return Label{}, &fancy.InvalidTruthTable{Len: len(tt), WantLen: int(x.modulus), OutModulus: mod}
	}
	entry := e.nextEntry()
	h := hashLabel(x.active, entry.Counter)
	if x.value == 0 {
		return Label{modulus: mod, active: h, value: tt[0]}, nil
	}
	row := entry.Rows[x.value-1]
	return Label{modulus: mod, active: xorBytes(h, row), value: tt[x.value]}, nil
}

// Mul implements fancy.Fancy: mod-2-by-mod-2 replays the half-gate AND
// table exactly; any other modulus pair replays the sub-table the
// garbler built for y's value, selecting its x.value-1 row the same
// way Proj does.
func (e *Evaluator) Mul(x, y Label) (Label, error) {
	if x.modulus == 2 && y.modulus == 2 {
		entry := e.nextEntry()
		if len(entry.Rows) < 2 {
			return Label{}, fancy.ErrBackend
		}
		tg, te := entry.Rows[0], entry.Rows[1]
		// Point-and-permute: each active label's own LSB stands in for
		// the garbler-side permute bit (pa/pb in crypto/circuit.go's
		// gbAnd), since delta2's LSB is fixed to 1 and so flips it
		// between a wire's two labels.
		sa := lsb(x.active)
		sb := lsb(y.active)
		wg := xorBytes(hashLabel(x.active, entry.Counter), boolMul(sa, tg))
		we := xorBytes(hashLabel(y.active, entry.Counter), boolMul(sb, xorBytes(te, x.active)))
		return Label{modulus: 2, active: xorBytes(wg, we), value: x.value & y.value}, nil
	}
	if x.modulus < y.modulus {
		swapped, err := e.Mul(y, x)
		return swapped, err
	}
	p := x.modulus
	q := y.modulus
	anchor := e.nextEntry()
	h0 := hashLabel(x.active, anchor.Counter)
	// Advance past the q sub-tables the garbler emitted, selecting the
	// one matching y's actual value.
	var selected garble.TableEntry
	for j := uint16(0); j < q; j++ {
		entry := e.nextEntry()
		if j == y.value {
			selected = entry
		}
	}
	v := (x.value * y.value) % p
	if x.value == 0 {
		return Label{modulus: p, active: h0, value: v}, nil
	}
	h := hashLabel(x.active, selected.Counter)
	row := selected.Rows[x.value-1]
	return Label{modulus: p, active: xorBytes(h, row), value: v}, nil
}

// Output implements fancy.Fancy: records a blake2b-256 commitment of
// the wire's active label, to be checked against
// garble.Garbler.OutputCommitments.
func (e *Evaluator) Output(x Label) error {
	sum := blake2b.Sum256(x.active)
	e.outputs = append(e.outputs, sum[:])
	return nil
}

// OutputCommitments returns the blake2b-256 commitment computed for
// each Output call, in order.
func (e *Evaluator) OutputCommitments() [][]byte { return e.outputs }

func ctrKey(ctr uint64) []byte {
	b := make([]byte, labelBytes)
	binary.BigEndian.PutUint64(b[labelBytes-8:], ctr)
	return b
}

func hashLabel(label []byte, ctr uint64) []byte {
	cipher, err := aes.NewCipher(ctrKey(ctr))
	if err != nil {
		panic(err)
	}
	s := sigma(label)
	out := make([]byte, len(s))
	cipher.Encrypt(out, s)
	return xorBytes(out, s)
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

func lsb(b []byte) uint8 { return b[len(b)-1] & 1 }

func boolMul(bit uint8, b []byte) []byte {
	if bit == 0 {
		return make([]byte, len(b))
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
