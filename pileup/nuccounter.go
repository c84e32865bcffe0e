// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/interval"
)

// NucCounterContent pairs a workload with its per-position counts;
// Counts[i] belongs to position Interval.Start + i.
type NucCounterContent struct {
	Interval interval.Interval
	Counts   []dna.NucCounts
}

// NucCounter is the Collider that tallies, for every position of the
// workload, the bases of all reads passing the filter chain.
//
// On a stranded workload, reads whose deduced strand is the opposite one are
// skipped.  Finalize complements every position of a StrandReverse workload,
// so the content is expressed on the workload's strand.
type NucCounter[R AlignedRead] struct {
	filter ReadsFilter[R]
	strand StrandDeductor[R]
	iv     interval.Interval
	counts []dna.NucCounts
}

// NewNucCounter returns a counter gated by filter.  strand may be nil, in
// which case no read is skipped for its strand.
func NewNucCounter[R AlignedRead](filter ReadsFilter[R], strand StrandDeductor[R]) *NucCounter[R] {
	return &NucCounter[R]{filter: filter, strand: strand}
}

// Reset implements Collider.
func (c *NucCounter[R]) Reset(w interval.Interval) {
	c.iv = w
	n := w.Len()
	if cap(c.counts) < n {
		c.counts = make([]dna.NucCounts, n)
		return
	}
	c.counts = c.counts[:n]
	for i := range c.counts {
		c.counts[i] = dna.NucCounts{}
	}
}

// Collide implements Collider.
func (c *NucCounter[R]) Collide(read R) {
	if !c.filter.IsReadOK(read) {
		return
	}
	if read.RefName() != c.iv.Contig {
		return
	}
	if c.iv.Strand != interval.StrandUnknown && c.strand != nil {
		if s := c.strand(read); s != interval.StrandUnknown && s != c.iv.Strand {
			return
		}
	}
	for _, b := range read.Blocks() {
		start, end := c.iv.Clip(b.RefStart, b.RefEnd())
		for pos := start; pos < end; pos++ {
			posInRead := b.ReadStart + int(pos-b.RefStart)
			if !c.filter.IsBaseOK(read, posInRead) {
				continue
			}
			c.counts[pos-c.iv.Start].Inc(read.Base(posInRead))
		}
	}
}

// Finalize implements Collider.
func (c *NucCounter[R]) Finalize() {
	if c.iv.Strand != interval.StrandReverse {
		return
	}
	for i := range c.counts {
		c.counts[i] = c.counts[i].Complementary()
	}
}

// Result implements Collider.
func (c *NucCounter[R]) Result() NucCounterContent {
	return NucCounterContent{Interval: c.iv, Counts: c.counts}
}
