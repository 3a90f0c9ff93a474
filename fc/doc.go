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

// Package fc implements the forward pass of a fully-connected (inner
// product) layer: Y = X @ W^T + b, computed with SIMD dot products and
// parallel output striping.
//
// The package splits the work into two stages:
//
//   - Weight preparation: New reshapes the raw weight tensor to
//     [outputs x inFeatures] and pads each row to a vector-alignment
//     boundary with zero columns, so kernels can read whole vectors from
//     any row without a tail branch on the weight side.
//
//   - Parallel affine engine: Forward flattens the (sample, output)
//     index space, splits it into contiguous stripes, and hands each
//     stripe to a worker from a hwy workerpool. Each stripe computes its
//     dot products with a kernel selected once at layer construction:
//     a wide unrolled path on AVX2/AVX-512 class hardware, a four-row
//     path on 128-bit SIMD, or a scalar fallback.
//
// Prepared weights and bias are immutable, so a single Layer may be
// shared by any number of concurrent Forward calls.
//
// # Example Usage
//
//	w := fc.FromSlice([]float32{1, 0, 0, 1, 1, 1}, 3, 2)
//	b := fc.FromSlice([]float32{0, 0, 0}, 3)
//
//	layer, err := fc.New(fc.Config{NumOutputs: 3, Bias: true}, w, b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	in := fc.FromSlice([]float32{2, 3}, 1, 2)
//	out := fc.NewTensor(1, 3)
//	if err := layer.Forward(pool, []*fc.Tensor{in}, []*fc.Tensor{out}); err != nil {
//	    log.Fatal(err)
//	}
//	// out.Data() == [2 3 5]
//
// Set HWY_NO_SIMD=1 to force the scalar kernel regardless of hardware.
package fc
