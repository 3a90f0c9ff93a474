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

//go:build amd64

package fc

import (
	"github.com/ajroetker/go-highway/hwy"
	"golang.org/x/sys/cpu"
)

// selectKernel picks the dot-product kernel for this process. Called once
// per layer construction; the choice is stored on the layer and never
// re-evaluated, so path selection (and thus summation order) is stable
// for the layer's lifetime.
//
// Preference order: wide unrolled path when a 256-bit or wider vector
// unit is present, four-row path on plain SSE2, scalar otherwise. When
// hwy was forced to scalar via HWY_NO_SIMD the kernels degrade with it.
func selectKernel() (dotKernel, string) {
	if hwy.NoSimdEnv() {
		return dotScalar, "scalar"
	}

	switch hwy.CurrentLevel() {
	case hwy.DispatchAVX512:
		return dotWide, "avx512"
	case hwy.DispatchAVX2:
		return dotWide, "avx2"
	case hwy.DispatchSSE2:
		return dotQuad, "sse2"
	}

	// Without GOEXPERIMENT=simd hwy reports scalar even on AVX-capable
	// hardware; consult the CPU feature flags directly, the same way the
	// hwy fallback dispatch does.
	switch {
	case cpu.X86.HasAVX512 || cpu.X86.HasAVX2:
		return dotWide, "avx2"
	case cpu.X86.HasSSE2:
		return dotQuad, "sse2"
	default:
		return dotScalar, "scalar"
	}
}
