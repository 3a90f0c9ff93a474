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

// The output of one forward call is treated as a flat index space of
// total = outerSize * numOutputs cells, one per (sample, output column)
// pair. The space is cut into nstripes contiguous half-open ranges; each
// range is owned by exactly one worker, which is the only invariant
// protecting the shared output buffer. A 1-D cut over cells rather than
// samples keeps the load balanced when numOutputs is small relative to
// the worker count.

// stripeBounds returns the half-open range [start, end) of flattened
// output cells owned by the given stripe. Ranges of different stripes
// never overlap and together cover [0, total) exactly. Stripes past the
// end of a small index space come back empty.
func stripeBounds(stripe, nstripes, total int) (start, end int) {
	stripeSize := (total + nstripes - 1) / nstripes
	start = min(stripe*stripeSize, total)
	if stripe == nstripes-1 {
		end = total
	} else {
		end = min(start+stripeSize, total)
	}
	return start, end
}

// runStripe computes every output cell in [start, end). Offsets are
// decoded as (sample, output column) = divmod(ofs, numOutputs); the
// kernel is handed the longest contiguous run of columns that stays
// within both the sample's row and the stripe.
func (l *Layer) runStripe(src, dst []float32, start, end int) {
	nw0 := l.weights.rows
	vecsize := l.weights.cols
	wstep := l.weights.stride

	for ofs := start; ofs < end; {
		sample := ofs / nw0
		delta := ofs - sample*nw0
		nw := min(nw0-delta, end-ofs)

		sptr := src[sample*vecsize : (sample+1)*vecsize]
		dptr := dst[sample*nw0+delta:]
		l.kernel(sptr, l.weights.data[delta*wstep:], wstep, l.bias[delta:], dptr, nw, vecsize)

		ofs += nw
	}
}
