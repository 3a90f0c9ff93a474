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

// VecAlign is the default alignment boundary, in elements, for prepared
// weight rows. Padding each row's storage width up to a multiple of this
// lets the vector kernels read full vectors from the weight side without
// a per-row tail branch.
const VecAlign = 8

// WeightMatrix is a prepared weight blob: a row-major [rows x cols]
// matrix whose physical row stride is cols rounded up to the alignment
// boundary. Columns in [cols, stride) are zero. It is immutable after
// preparation and safe to share across concurrent Forward calls.
type WeightMatrix struct {
	data   []float32
	rows   int // number of outputs
	cols   int // inner size (input features per output)
	stride int // physical row width, multiple of the alignment
}

// Rows returns the number of weight rows (layer outputs).
func (w *WeightMatrix) Rows() int { return w.rows }

// Cols returns the logical row width (input features).
func (w *WeightMatrix) Cols() int { return w.cols }

// Stride returns the physical row width in elements.
func (w *WeightMatrix) Stride() int { return w.stride }

// Row returns row i over the full padded width.
func (w *WeightMatrix) Row(i int) []float32 {
	return w.data[i*w.stride : (i+1)*w.stride]
}

// prepareWeights validates the raw weight and bias tensors against cfg,
// reshapes the weights to [NumOutputs x innerSize] and pads each row to
// the alignment boundary. The returned bias is always NumOutputs long;
// it is all zeros when the bias term is disabled.
//
// When innerSize is already a multiple of the alignment the raw buffer is
// aliased directly with no copy.
func prepareWeights(weights, bias *Tensor, cfg Config) (*WeightMatrix, []float32, error) {
	align := cfg.Align
	if align == 0 {
		align = VecAlign
	}
	if align < 0 || align&(align-1) != 0 {
		return nil, nil, configErrf("alignment %d is not a positive power of two", align)
	}
	if cfg.NumOutputs <= 0 {
		return nil, nil, configErrf("num outputs %d must be positive", cfg.NumOutputs)
	}
	if weights == nil {
		return nil, nil, configErrf("weight tensor is required")
	}
	if weights.DType() != F32 {
		return nil, nil, &TypeError{Op: "prepare", DType: weights.DType()}
	}

	total := weights.Total()
	if total == 0 || total%cfg.NumOutputs != 0 {
		return nil, nil, shapeErrf("prepare", "weight element count %d is not a positive multiple of %d outputs", total, cfg.NumOutputs)
	}
	innerSize := total / cfg.NumOutputs

	wm := &WeightMatrix{
		rows:   cfg.NumOutputs,
		cols:   innerSize,
		stride: ceilToMultiple(innerSize, align),
	}
	if wm.stride == innerSize {
		wm.data = weights.Data()
	} else {
		wm.data = make([]float32, wm.rows*wm.stride)
		src := weights.Data()
		for r := range wm.rows {
			copy(wm.data[r*wm.stride:r*wm.stride+innerSize], src[r*innerSize:(r+1)*innerSize])
		}
	}

	b := make([]float32, cfg.NumOutputs)
	if cfg.Bias {
		if bias == nil {
			return nil, nil, configErrf("bias term enabled but no bias tensor supplied")
		}
		if bias.DType() != F32 {
			return nil, nil, &TypeError{Op: "prepare", DType: bias.DType()}
		}
		if bias.Total() != cfg.NumOutputs {
			return nil, nil, shapeErrf("prepare", "bias has %d elements, want %d", bias.Total(), cfg.NumOutputs)
		}
		copy(b, bias.Data())
	}
	return wm, b, nil
}

// ceilToMultiple rounds n up to the next multiple of align (a power of two).
func ceilToMultiple(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
