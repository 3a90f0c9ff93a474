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

import "errors"

// ErrFallbackToCPU indicates an accelerator cannot take this layer. The
// caller should transparently run the CPU path instead.
var ErrFallbackToCPU = errors.New("fc: falling back to CPU execution")

// AcceleratedOp describes operation types for accelerator capability
// checking.
type AcceleratedOp uint32

const (
	// AccelInnerProduct is the fully-connected forward pass.
	AccelInnerProduct AcceleratedOp = 1 << iota

	// AccelBiasAdd is a standalone broadcast bias addition.
	AccelBiasAdd
)

// Node describes the affine computation independent of any backend: the
// dimensions, whether a bias term participates, and nothing else.
type Node struct {
	Op          AcceleratedOp
	OuterSize   int
	InFeatures  int
	OutFeatures int
	Bias        bool
}

// Schedule carries backend-neutral scheduling hints for the node.
type Schedule struct {
	// SplitChannels asks the backend to split the output-channel loop
	// into blocks of this many channels. Zero means no split.
	SplitChannels int

	// Vectorize is the requested inner vector width in elements. Zero
	// means leave vectorization to the backend.
	Vectorize int

	// Parallel marks the fused outer loop as safe to parallelize.
	Parallel bool
}

// Graph is the declarative description handed to a code-generating
// accelerator backend: one node plus its scheduling hints.
type Graph struct {
	Node     Node
	Schedule Schedule
}

// Accelerator is an optional external execution backend. Implementations
// live outside this package; the surrounding engine discovers support via
// CanAccelerate and hands over a Graph with Compile. An accelerated path
// must produce results numerically equivalent to the CPU kernels.
type Accelerator interface {
	// Name returns the backend name (e.g. "halide", "wgpu").
	Name() string

	// CanAccelerate reports whether the backend supports the operation.
	CanAccelerate(op AcceleratedOp) bool

	// Compile builds the backend's executable form of the graph.
	// Returns ErrFallbackToCPU when this particular graph cannot be
	// handled despite the op being generally supported.
	Compile(g *Graph) error
}

// Describe returns the declarative graph for this layer applied to
// outerSize samples. The schedule mirrors what the CPU path does: with
// more than 8 output channels the channel loop is split by 8 and the
// block vectorized; small outputs just get the parallel outer loop.
func (l *Layer) Describe(outerSize int) *Graph {
	g := &Graph{
		Node: Node{
			Op:          AccelInnerProduct,
			OuterSize:   outerSize,
			InFeatures:  l.weights.cols,
			OutFeatures: l.weights.rows,
			Bias:        l.cfg.Bias,
		},
		Schedule: Schedule{Parallel: true},
	}
	if l.weights.rows > VecAlign {
		g.Schedule.SplitChannels = VecAlign
		g.Schedule.Vectorize = VecAlign
	}
	return g
}

// TryAccelerate offers the layer to an accelerator backend. It returns
// (true, nil) when the backend compiled the layer and will execute it,
// and (false, nil) when the layer should run on the CPU path, either
// because the backend declined or because the layer's batch axis is not
// the plain leading-dimension layout backends expect. Any other compile
// failure is surfaced as an error.
func (l *Layer) TryAccelerate(a Accelerator, outerSize int) (bool, error) {
	if a == nil || l.cfg.Axis != 1 {
		return false, nil
	}
	if !a.CanAccelerate(AccelInnerProduct) {
		return false, nil
	}
	if err := a.Compile(l.Describe(outerSize)); err != nil {
		if errors.Is(err, ErrFallbackToCPU) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
