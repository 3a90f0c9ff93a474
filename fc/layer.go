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
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Config holds the layer parameters supplied by the surrounding engine.
type Config struct {
	// NumOutputs is the number of output units (rows of the weight matrix).
	NumOutputs int

	// Bias enables the additive bias term. When enabled, New requires a
	// bias tensor of NumOutputs elements.
	Bias bool

	// Axis is the input dimension at which the batch ends: dimensions
	// before it multiply into the sample count, dimensions from it on
	// multiply into the feature vector. Zero means the default of 1
	// (first dimension is the batch). Negative values count from the
	// end of the input shape.
	Axis int

	// Align overrides the weight-row alignment boundary in elements.
	// Zero means VecAlign. Must be a power of two.
	Align int
}

// Layer is a prepared fully-connected layer. The weight matrix and bias
// vector are fixed at construction; Forward never mutates layer state, so
// one Layer may serve concurrent calls.
type Layer struct {
	cfg     Config
	weights *WeightMatrix
	bias    []float32

	// kernel is resolved once at construction and never re-evaluated,
	// keeping the instruction path and summation order stable across
	// calls for the life of the layer.
	kernel     dotKernel
	kernelName string
}

// New prepares a layer from raw weight and bias tensors. The weight
// tensor must hold NumOutputs*innerSize elements for some positive
// innerSize; it is reshaped to [NumOutputs x innerSize] and each row is
// padded to the alignment boundary with zeros. Ownership of the tensors
// passes to the layer: callers must not mutate them afterwards.
func New(cfg Config, weights, bias *Tensor) (*Layer, error) {
	if cfg.Axis == 0 {
		cfg.Axis = 1
	}
	if cfg.Align == 0 {
		cfg.Align = VecAlign
	}

	wm, b, err := prepareWeights(weights, bias, cfg)
	if err != nil {
		return nil, err
	}

	l := &Layer{cfg: cfg, weights: wm, bias: b}
	l.kernel, l.kernelName = selectKernel()
	return l, nil
}

// Config returns the layer configuration after defaults were applied.
func (l *Layer) Config() Config { return l.cfg }

// Weights returns the prepared weight matrix.
func (l *Layer) Weights() *WeightMatrix { return l.weights }

// Bias returns the bias vector (all zeros when the bias term is
// disabled). The returned slice must not be mutated.
func (l *Layer) Bias() []float32 { return l.bias }

// KernelName reports which dot-product path was selected at
// construction: "avx512", "avx2", "sse2", "neon", "sme" or "scalar".
func (l *Layer) KernelName() string { return l.kernelName }

// InnerSize returns the number of input features consumed per output.
func (l *Layer) InnerSize() int { return l.weights.cols }

// OutShape infers the output shape for one input shape: [outerSize,
// NumOutputs], where outerSize is the product of input dimensions before
// the batch axis.
func (l *Layer) OutShape(in []int) ([]int, error) {
	axis, err := clampAxis(l.cfg.Axis, len(in))
	if err != nil {
		return nil, err
	}
	outer := 1
	for _, d := range in[:axis] {
		outer *= d
	}
	return []int{outer, l.cfg.NumOutputs}, nil
}

// FLOPs estimates the floating-point operation count for filling the
// given outputs: one multiply, one add into the accumulator and one
// amortized load-combine per weight element, per output cell. The
// surrounding engine uses this for profiling and scheduling only.
func (l *Layer) FLOPs(outputs []*Tensor) int64 {
	var flops int64
	for _, out := range outputs {
		flops += 3 * int64(l.weights.cols) * int64(out.Total())
	}
	return flops
}

// forwardPlan is the validated per-tensor geometry for one Forward call.
type forwardPlan struct {
	src, dst []float32
	outer    int
}

// Forward computes out = in @ W^T + b for each input/output pair.
// Outputs are caller-allocated and written in place.
//
// Each input is viewed, without copying, as [outerSize x vecsize] where
// vecsize must equal the prepared inner size; the matching output must
// hold outerSize*NumOutputs elements. All shapes and dtypes across the
// whole batch are checked before any cell is written.
//
// The pool supplies the parallelism: the flattened output of each pair
// is cut into pool.NumWorkers() stripes executed fork-join style. A nil
// pool runs everything on the calling goroutine. Results are identical,
// up to floating-point summation order, for any worker count.
func (l *Layer) Forward(pool *workerpool.Pool, inputs, outputs []*Tensor) error {
	nstripes := 1
	if pool != nil {
		nstripes = pool.NumWorkers()
	}
	return l.ForwardStripes(pool, nstripes, inputs, outputs)
}

// ForwardStripes is Forward with an explicit stripe count. The count is
// purely a performance parameter: results are equivalent for any value
// from 1 up; counts beyond the cell count just leave trailing stripes
// empty.
func (l *Layer) ForwardStripes(pool *workerpool.Pool, nstripes int, inputs, outputs []*Tensor) error {
	if nstripes < 1 {
		nstripes = 1
	}
	if len(inputs) != len(outputs) {
		return shapeErrf("forward", "%d inputs but %d outputs", len(inputs), len(outputs))
	}

	plans := make([]forwardPlan, len(inputs))
	for i, in := range inputs {
		out := outputs[i]
		if in.DType() != F32 {
			return &TypeError{Op: "forward", DType: in.DType()}
		}
		if out.DType() != F32 {
			return &TypeError{Op: "forward", DType: out.DType()}
		}

		axis, err := clampAxis(l.cfg.Axis, in.Dims())
		if err != nil {
			return err
		}
		outer := in.TotalRange(0, axis)
		if outer == 0 || in.Total()%outer != 0 {
			return shapeErrf("forward", "input %d shape %v has no valid [outer x features] view at axis %d", i, in.Shape(), axis)
		}
		vecsize := in.Total() / outer
		if vecsize != l.weights.cols {
			return shapeErrf("forward", "input %d has %d features, layer expects %d", i, vecsize, l.weights.cols)
		}
		if out.Total() != outer*l.weights.rows {
			return shapeErrf("forward", "output %d has %d elements, want %d x %d", i, out.Total(), outer, l.weights.rows)
		}
		plans[i] = forwardPlan{src: in.Data(), dst: out.Data(), outer: outer}
	}

	for _, p := range plans {
		l.forwardOne(pool, p, nstripes)
	}
	return nil
}

// forwardOne scatters one input/output pair across nstripes stripes and
// joins. Stripes own disjoint output ranges, so the only synchronization
// is the final barrier inside the pool.
func (l *Layer) forwardOne(pool *workerpool.Pool, p forwardPlan, nstripes int) {
	total := p.outer * l.weights.rows
	if total == 0 {
		return
	}

	if pool == nil || nstripes <= 1 {
		l.runStripe(p.src, p.dst, 0, total)
		return
	}

	pool.ParallelForAtomic(nstripes, func(s int) {
		start, end := stripeBounds(s, nstripes, total)
		if start < end {
			l.runStripe(p.src, p.dst, start, end)
		}
	})
}

// clampAxis resolves a possibly negative batch axis against the input
// rank. The result may equal dims (every dimension is batch).
func clampAxis(axis, dims int) (int, error) {
	resolved := axis
	if resolved < 0 {
		resolved += dims
	}
	if resolved < 0 || resolved > dims {
		return 0, shapeErrf("forward", "axis %d out of range for %d-d input", axis, dims)
	}
	return resolved, nil
}
