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

import "github.com/ajroetker/go-highway/hwy"

// dotKernel computes n output cells for one input row:
//
//	dst[i] = bias[i] + src . w[(wRow+i) * stride]   for i in [0, n)
//
// src is the input row (vecsize elements), w the prepared weight buffer
// with physical row stride wstep. Accumulation order is deterministic
// within a kernel; different kernels may differ in the last few ULPs.
type dotKernel func(src, w []float32, wstep int, bias, dst []float32, n, vecsize int)

// dotScalar is the portable fallback: plain left-to-right accumulation.
func dotScalar(src, w []float32, wstep int, bias, dst []float32, n, vecsize int) {
	for i := range n {
		wrow := w[i*wstep:]
		s := bias[i]
		for k := range vecsize {
			s += src[k] * wrow[k]
		}
		dst[i] = s
	}
}

// dotQuad processes four weight rows at a time against the same input
// vector, keeping four independent accumulators and reducing them after
// the k loop. This is the 128-bit SIMD path: with four rows in flight the
// multiply-add latency of one row hides behind the loads of the others.
func dotQuad(src, w []float32, wstep int, bias, dst []float32, n, vecsize int) {
	lanes := hwy.MaxLanes[float32]()

	var i int
	for i = 0; i+3 < n; i += 4 {
		w0 := w[i*wstep:]
		w1 := w[(i+1)*wstep:]
		w2 := w[(i+2)*wstep:]
		w3 := w[(i+3)*wstep:]

		acc0 := hwy.Zero[float32]()
		acc1 := hwy.Zero[float32]()
		acc2 := hwy.Zero[float32]()
		acc3 := hwy.Zero[float32]()

		var k int
		for ; k+lanes <= vecsize; k += lanes {
			v := hwy.Load(src[k:])
			acc0 = hwy.MulAdd(v, hwy.Load(w0[k:]), acc0)
			acc1 = hwy.MulAdd(v, hwy.Load(w1[k:]), acc1)
			acc2 = hwy.MulAdd(v, hwy.Load(w2[k:]), acc2)
			acc3 = hwy.MulAdd(v, hwy.Load(w3[k:]), acc3)
		}

		s0 := hwy.ReduceSum(acc0)
		s1 := hwy.ReduceSum(acc1)
		s2 := hwy.ReduceSum(acc2)
		s3 := hwy.ReduceSum(acc3)

		for ; k < vecsize; k++ {
			v := src[k]
			s0 += v * w0[k]
			s1 += v * w1[k]
			s2 += v * w2[k]
			s3 += v * w3[k]
		}

		dst[i] = s0 + bias[i]
		dst[i+1] = s1 + bias[i+1]
		dst[i+2] = s2 + bias[i+2]
		dst[i+3] = s3 + bias[i+3]
	}

	// Remaining 0-3 rows.
	for ; i < n; i++ {
		wrow := w[i*wstep:]
		acc := hwy.Zero[float32]()

		var k int
		for ; k+lanes <= vecsize; k += lanes {
			acc = hwy.MulAdd(hwy.Load(src[k:]), hwy.Load(wrow[k:]), acc)
		}
		s := hwy.ReduceSum(acc)
		for ; k < vecsize; k++ {
			s += src[k] * wrow[k]
		}
		dst[i] = s + bias[i]
	}
}

// dotWide is the wide-vector path for AVX2/AVX-512 class hardware. It
// walks one weight row at a time with a 4x unrolled multiply-add chain
// along vecsize, so the four partial vectors retire independently, then
// merges them in one horizontal reduction.
func dotWide(src, w []float32, wstep int, bias, dst []float32, n, vecsize int) {
	lanes := hwy.MaxLanes[float32]()
	step := lanes * 4

	for i := range n {
		wrow := w[i*wstep:]

		acc0 := hwy.Zero[float32]()
		acc1 := hwy.Zero[float32]()
		acc2 := hwy.Zero[float32]()
		acc3 := hwy.Zero[float32]()

		var k int
		for ; k+step <= vecsize; k += step {
			acc0 = hwy.MulAdd(hwy.Load(src[k:]), hwy.Load(wrow[k:]), acc0)
			acc1 = hwy.MulAdd(hwy.Load(src[k+lanes:]), hwy.Load(wrow[k+lanes:]), acc1)
			acc2 = hwy.MulAdd(hwy.Load(src[k+lanes*2:]), hwy.Load(wrow[k+lanes*2:]), acc2)
			acc3 = hwy.MulAdd(hwy.Load(src[k+lanes*3:]), hwy.Load(wrow[k+lanes*3:]), acc3)
		}
		for ; k+lanes <= vecsize; k += lanes {
			acc0 = hwy.MulAdd(hwy.Load(src[k:]), hwy.Load(wrow[k:]), acc0)
		}

		s := hwy.ReduceSum(hwy.Add(hwy.Add(acc0, acc1), hwy.Add(acc2, acc3)))
		for ; k < vecsize; k++ {
			s += src[k] * wrow[k]
		}
		dst[i] = s + bias[i]
	}
}
