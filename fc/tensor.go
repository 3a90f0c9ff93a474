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

import "fmt"

// DType identifies the element type of a Tensor. Only F32 is accepted by
// the compute kernels; the other values exist so callers handing over
// half-precision tensors get a TypeError instead of silent garbage.
type DType int

const (
	// F32 is IEEE 754 single precision, the only supported compute type.
	F32 DType = iota

	// F16 is IEEE 754 half precision (storage only, not computable here).
	F16

	// BF16 is bfloat16 (storage only, not computable here).
	BF16
)

// String returns a human-readable name for the dtype.
func (d DType) String() string {
	switch d {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case BF16:
		return "bf16"
	default:
		return "unknown"
	}
}

// Tensor is a dense row-major float buffer with shape metadata. It is the
// exchange type at the boundary with the surrounding inference engine:
// raw weights and bias come in as Tensors, and Forward reads input
// Tensors and writes caller-allocated output Tensors in place.
type Tensor struct {
	data  []float32
	shape []int
	dtype DType
}

// NewTensor allocates a zero-filled F32 tensor with the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{
		data:  make([]float32, numElements(shape)),
		shape: append([]int(nil), shape...),
		dtype: F32,
	}
}

// FromSlice wraps data in an F32 tensor with the given shape. The slice
// is aliased, not copied. Panics if the element count does not match.
func FromSlice(data []float32, shape ...int) *Tensor {
	if len(data) != numElements(shape) {
		panic(fmt.Sprintf("fc: FromSlice: %d elements for shape %v", len(data), shape))
	}
	return &Tensor{
		data:  data,
		shape: append([]int(nil), shape...),
		dtype: F32,
	}
}

// WithDType returns a shallow view of t tagged with the given dtype.
// Used in tests to exercise the TypeError path.
func (t *Tensor) WithDType(d DType) *Tensor {
	return &Tensor{data: t.data, shape: t.shape, dtype: d}
}

// DType returns the tensor's element type.
func (t *Tensor) DType() DType { return t.dtype }

// Shape returns the tensor's dimensions. The returned slice must not be
// mutated.
func (t *Tensor) Shape() []int { return t.shape }

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int { return len(t.shape) }

// Total returns the total element count.
func (t *Tensor) Total() int { return numElements(t.shape) }

// TotalRange returns the product of dimensions in [from, to). Out-of-range
// bounds are clamped, so TotalRange(0, t.Dims()) == Total.
func (t *Tensor) TotalRange(from, to int) int {
	from = max(from, 0)
	to = min(to, len(t.shape))
	n := 1
	for i := from; i < to; i++ {
		n *= t.shape[i]
	}
	return n
}

// Data returns the flat element buffer.
func (t *Tensor) Data() []float32 { return t.data }

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
