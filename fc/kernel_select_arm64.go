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

//go:build arm64

package fc

import "github.com/ajroetker/go-highway/hwy"

// selectKernel picks the dot-product kernel for this process. ARM64
// always has NEON (128-bit), so the four-row path is the floor; SVE/SME
// parts get the wide unrolled path.
func selectKernel() (dotKernel, string) {
	if hwy.NoSimdEnv() {
		return dotScalar, "scalar"
	}

	switch hwy.CurrentLevel() {
	case hwy.DispatchSVE, hwy.DispatchSME:
		return dotWide, hwy.CurrentName()
	case hwy.DispatchNEON:
		return dotQuad, "neon"
	default:
		return dotScalar, "scalar"
	}
}
