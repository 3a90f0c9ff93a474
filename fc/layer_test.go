// Copyright 2026 go-innerproduct Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fc

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/nn"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// fillPattern writes a deterministic non-trivial pattern.
func fillPattern(s []float32, scale, shift float32) {
	for i := range s {
		s[i] = float32(i)*scale + shift
	}
}

func assertClose(t *testing.T, got, want []float32, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(float64(got[i] - want[i]))
		relTol := math.Max(1e-4, 1e-4*math.Abs(float64(want[i])))
		if diff > relTol {
			t.Errorf("%s[%d]: got %v, want %v (diff %v)", label, i, got[i], want[i], diff)
		}
	}
}

func TestForwardKnownValues(t *testing.T) {
	// weights [[1,0],[0,1],[1,1]], input [2,3] -> [2,3,5].
	w := FromSlice([]float32{1, 0, 0, 1, 1, 1}, 3, 2)

	layer, err := New(Config{NumOutputs: 3}, w, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := FromSlice([]float32{2, 3}, 1, 2)
	out := NewTensor(1, 3)
	if err := layer.Forward(nil, []*Tensor{in}, []*Tensor{out}); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	want := []float32{2, 3, 5}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestForwardKnownValuesWithBias(t *testing.T) {
	w := FromSlice([]float32{1, 0, 0, 1, 1, 1}, 3, 2)
	b := FromSlice([]float32{10, 20, 30}, 3)

	layer, err := New(Config{NumOutputs: 3, Bias: true}, w, b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := FromSlice([]float32{2, 3}, 1, 2)
	out := NewTensor(1, 3)
	if err := layer.Forward(nil, []*Tensor{in}, []*Tensor{out}); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	want := []float32{12, 23, 35}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestForwardMatchesScalarReference(t *testing.T) {
	pool := workerpool.New(0)
	defer pool.Close()

	tests := []struct {
		name           string
		batch, in, out int
		useBias        bool
	}{
		{"1x4x4/bias", 1, 4, 4, true},
		{"2x8x4/bias", 2, 8, 4, true},
		{"3x7x5/bias", 3, 7, 5, true}, // unaligned inner size
		{"3x10x6/no_bias", 3, 10, 6, false},
		{"8x64x32/bias", 8, 64, 32, true},
		{"1x128x64/bias", 1, 128, 64, true},
		{"16x33x17/bias", 16, 33, 17, true},
		{"5x1x9/bias", 5, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wData := make([]float32, tt.out*tt.in)
			xData := make([]float32, tt.batch*tt.in)
			fillPattern(wData, 0.005, -0.25)
			fillPattern(xData, 0.01, -0.5)

			var biasT *Tensor
			var biasData []float32
			if tt.useBias {
				biasData = make([]float32, tt.out)
				fillPattern(biasData, 0.1, 0)
				biasT = FromSlice(biasData, tt.out)
			}

			layer, err := New(Config{NumOutputs: tt.out, Bias: tt.useBias}, FromSlice(wData, tt.out, tt.in), biasT)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			in := FromSlice(xData, tt.batch, tt.in)
			out := NewTensor(tt.batch, tt.out)
			if err := layer.Forward(pool, []*Tensor{in}, []*Tensor{out}); err != nil {
				t.Fatalf("Forward: %v", err)
			}

			want := make([]float32, tt.batch*tt.out)
			nn.DenseScalar(xData, wData, biasData, want, tt.batch, tt.in, tt.out)
			assertClose(t, out.Data(), want, "out")
		})
	}
}

func TestForwardStripeCountInvariance(t *testing.T) {
	const batch, inF, outF = 7, 19, 11

	wData := make([]float32, outF*inF)
	xData := make([]float32, batch*inF)
	bData := make([]float32, outF)
	fillPattern(wData, 0.003, -0.1)
	fillPattern(xData, 0.02, -0.7)
	fillPattern(bData, 0.05, 0.1)

	layer, err := New(Config{NumOutputs: outF, Bias: true},
		FromSlice(wData, outF, inF), FromSlice(bData, outF))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := FromSlice(xData, batch, inF)

	ref := NewTensor(batch, outF)
	if err := layer.Forward(nil, []*Tensor{in}, []*Tensor{ref}); err != nil {
		t.Fatalf("Forward (serial): %v", err)
	}

	for _, workers := range []int{1, 2, 3, 8, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			pool := workerpool.New(workers)
			defer pool.Close()

			out := NewTensor(batch, outF)
			if err := layer.Forward(pool, []*Tensor{in}, []*Tensor{out}); err != nil {
				t.Fatalf("Forward: %v", err)
			}
			assertClose(t, out.Data(), ref.Data(), "out")
		})
	}

	// Explicit stripe counts, including exactly total (77) and far past it.
	pool := workerpool.New(4)
	defer pool.Close()
	for _, nstripes := range []int{1, 2, 5, batch * outF, 500} {
		t.Run(fmt.Sprintf("nstripes=%d", nstripes), func(t *testing.T) {
			out := NewTensor(batch, outF)
			if err := layer.ForwardStripes(pool, nstripes, []*Tensor{in}, []*Tensor{out}); err != nil {
				t.Fatalf("ForwardStripes: %v", err)
			}
			assertClose(t, out.Data(), ref.Data(), "out")
		})
	}
}

func TestForwardBiasDisabledEqualsZeroBias(t *testing.T) {
	const batch, inF, outF = 4, 12, 9

	wData := make([]float32, outF*inF)
	xData := make([]float32, batch*inF)
	fillPattern(wData, 0.004, -0.2)
	fillPattern(xData, 0.015, -0.3)

	noBias, err := New(Config{NumOutputs: outF}, FromSlice(wData, outF, inF), nil)
	if err != nil {
		t.Fatalf("New (no bias): %v", err)
	}
	zeroBias, err := New(Config{NumOutputs: outF, Bias: true},
		FromSlice(wData, outF, inF), FromSlice(make([]float32, outF), outF))
	if err != nil {
		t.Fatalf("New (zero bias): %v", err)
	}

	in := FromSlice(xData, batch, inF)
	a := NewTensor(batch, outF)
	b := NewTensor(batch, outF)

	if err := noBias.Forward(nil, []*Tensor{in}, []*Tensor{a}); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if err := zeroBias.Forward(nil, []*Tensor{in}, []*Tensor{b}); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	for i := range a.Data() {
		if a.Data()[i] != b.Data()[i] {
			t.Errorf("out[%d]: no-bias %v != zero-bias %v", i, a.Data()[i], b.Data()[i])
		}
	}
}

func TestForwardMultipleInputs(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	const inF, outF = 6, 5
	wData := make([]float32, outF*inF)
	fillPattern(wData, 0.01, -0.3)

	layer, err := New(Config{NumOutputs: outF}, FromSlice(wData, outF, inF), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	batches := []int{1, 3, 8}
	var inputs, outputs []*Tensor
	var refs [][]float32
	for _, batch := range batches {
		x := make([]float32, batch*inF)
		fillPattern(x, 0.02, float32(batch))
		inputs = append(inputs, FromSlice(x, batch, inF))
		outputs = append(outputs, NewTensor(batch, outF))

		want := make([]float32, batch*outF)
		nn.DenseScalar(x, wData, nil, want, batch, inF, outF)
		refs = append(refs, want)
	}

	if err := layer.Forward(pool, inputs, outputs); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := range outputs {
		assertClose(t, outputs[i].Data(), refs[i], fmt.Sprintf("batch %d", batches[i]))
	}
}

func TestForwardAxis(t *testing.T) {
	// A [2,3,4] input with axis 2 flattens to 6 samples of 4 features.
	const outF = 5
	wData := make([]float32, outF*4)
	fillPattern(wData, 0.01, 0.1)

	layer, err := New(Config{NumOutputs: outF, Axis: 2}, FromSlice(wData, outF, 4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	xData := make([]float32, 2*3*4)
	fillPattern(xData, 0.05, -1)
	in := FromSlice(xData, 2, 3, 4)
	out := NewTensor(6, outF)

	if err := layer.Forward(nil, []*Tensor{in}, []*Tensor{out}); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	want := make([]float32, 6*outF)
	nn.DenseScalar(xData, wData, nil, want, 6, 4, outF)
	assertClose(t, out.Data(), want, "out")

	// Negative axis counts from the end: -1 on a 3-d input is axis 2.
	neg, err := New(Config{NumOutputs: outF, Axis: -1}, FromSlice(wData, outF, 4), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out2 := NewTensor(6, outF)
	if err := neg.Forward(nil, []*Tensor{in}, []*Tensor{out2}); err != nil {
		t.Fatalf("Forward (negative axis): %v", err)
	}
	assertClose(t, out2.Data(), want, "out (negative axis)")
}

func TestForwardFailFast(t *testing.T) {
	const sentinel = float32(-9999)

	w := FromSlice(make([]float32, 3*4), 3, 4)
	layer, err := New(Config{NumOutputs: 3}, w, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	goodIn := FromSlice(make([]float32, 4), 1, 4)
	goodOut := NewTensor(1, 3)
	for i := range goodOut.Data() {
		goodOut.Data()[i] = sentinel
	}

	tests := []struct {
		name    string
		inputs  []*Tensor
		outputs []*Tensor
		want    any
	}{
		{"feature_mismatch", []*Tensor{FromSlice(make([]float32, 5), 1, 5)}, []*Tensor{goodOut}, &ShapeError{}},
		{"output_too_small", []*Tensor{goodIn}, []*Tensor{NewTensor(1, 2)}, &ShapeError{}},
		{"count_mismatch", []*Tensor{goodIn, goodIn}, []*Tensor{goodOut}, &ShapeError{}},
		{"half_input", []*Tensor{goodIn.WithDType(F16)}, []*Tensor{goodOut}, &TypeError{}},
		{"bad_axis", []*Tensor{goodIn}, []*Tensor{goodOut}, &ShapeError{}},
		// A bad second pair must prevent writes to the first as well.
		{"bad_second_pair",
			[]*Tensor{goodIn, FromSlice(make([]float32, 7), 1, 7)},
			[]*Tensor{goodOut, NewTensor(1, 3)},
			&ShapeError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := layer
			if tt.name == "bad_axis" {
				var err error
				l, err = New(Config{NumOutputs: 3, Axis: 5}, w, nil)
				if err != nil {
					t.Fatalf("New: %v", err)
				}
			}

			err := l.Forward(nil, tt.inputs, tt.outputs)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			switch tt.want.(type) {
			case *ShapeError:
				var se *ShapeError
				if !errors.As(err, &se) {
					t.Errorf("got %T (%v), want *ShapeError", err, err)
				}
			case *TypeError:
				var te *TypeError
				if !errors.As(err, &te) {
					t.Errorf("got %T (%v), want *TypeError", err, err)
				}
			}
			for i, v := range goodOut.Data() {
				if v != sentinel {
					t.Fatalf("output[%d] written to %v before validation finished", i, v)
				}
			}
		})
	}
}

func TestForwardConcurrent(t *testing.T) {
	const batch, inF, outF = 3, 16, 8

	wData := make([]float32, outF*inF)
	xData := make([]float32, batch*inF)
	fillPattern(wData, 0.002, 0.1)
	fillPattern(xData, 0.03, -0.4)

	layer, err := New(Config{NumOutputs: outF}, FromSlice(wData, outF, inF), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := make([]float32, batch*outF)
	nn.DenseScalar(xData, wData, nil, want, batch, inF, outF)

	pool := workerpool.New(4)
	defer pool.Close()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	outs := make([]*Tensor, 8)
	for g := range outs {
		outs[g] = NewTensor(batch, outF)
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			in := FromSlice(xData, batch, inF)
			errs[g] = layer.Forward(pool, []*Tensor{in}, []*Tensor{outs[g]})
		}(g)
	}
	wg.Wait()

	for g := range outs {
		if errs[g] != nil {
			t.Fatalf("goroutine %d: %v", g, errs[g])
		}
		assertClose(t, outs[g].Data(), want, fmt.Sprintf("goroutine %d", g))
	}
}

func TestOutShape(t *testing.T) {
	w := FromSlice(make([]float32, 6*4), 6, 4)
	layer, err := New(Config{NumOutputs: 6}, w, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	shape, err := layer.OutShape([]int{5, 4})
	if err != nil {
		t.Fatalf("OutShape: %v", err)
	}
	if shape[0] != 5 || shape[1] != 6 {
		t.Errorf("OutShape = %v, want [5 6]", shape)
	}

	if _, err := layer.OutShape([]int{4}); err != nil {
		t.Errorf("OutShape([4]): %v", err)
	}
}

func TestFLOPs(t *testing.T) {
	w := FromSlice(make([]float32, 10*32), 10, 32)
	layer, err := New(Config{NumOutputs: 10}, w, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outs := []*Tensor{NewTensor(4, 10), NewTensor(2, 10)}
	want := int64(3 * 32 * (4*10 + 2*10))
	if got := layer.FLOPs(outs); got != want {
		t.Errorf("FLOPs = %d, want %d", got, want)
	}
}
