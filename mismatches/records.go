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
package mismatches

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/interval"
	"github.com/grailbio/rnaedit/pileup"
)

// UnknownPolicy decides what happens to positions whose reference base is
// Unknown.
type UnknownPolicy int

const (
	// ExcludeUnknown drops such positions.
	ExcludeUnknown UnknownPolicy = iota
	// IncludeUnknown keeps them; every base observed there is a mismatch.
	IncludeUnknown
)

// Record is one entry of a Batch.
type Record interface {
	// Workload is the interval the record describes.
	Workload() interval.Interval
	Preview() Preview
	// Summary is the record's counts as a reference-indexed matrix.
	// Unknown-reference counts are not part of it.
	Summary() Summary
}

// ROI is the mismatch record of a region of interest.
type ROI struct {
	Interval interval.Interval
	Matrix   Summary
	// Unknown is the sum of the counts at Unknown-reference positions
	// (IncludeUnknown only).
	Unknown dna.Totals
}

// Workload implements Record.
func (r ROI) Workload() interval.Interval { return r.Interval }

// Preview implements Record.
func (r ROI) Preview() Preview { return ROIPreview{Summary: r.Matrix, Unknown: r.Unknown} }

// Summary implements Record.
func (r ROI) Summary() Summary { return r.Matrix }

// Merge returns r with the counts of other added.  The interval of r is
// kept; merging the ROIs of consecutive pieces of a region yields the ROI of
// the whole region.
func (r ROI) Merge(other ROI) ROI {
	r.Matrix = r.Matrix.Merge(other.Matrix)
	r.Unknown = r.Unknown.Add(other.Unknown)
	return r
}

// Site is the mismatch record of one position.
type Site struct {
	Interval interval.Interval
	Ref      dna.Nucleotide
	Counts   dna.NucCounts
}

// Workload implements Record.
func (s Site) Workload() interval.Interval { return s.Interval }

// Preview implements Record.
func (s Site) Preview() Preview { return SitePreview{Ref: s.Ref, Counts: s.Counts} }

// Summary implements Record.
func (s Site) Summary() Summary {
	var m Summary
	m.Add(s.Ref, s.Counts)
	return m
}

// Batch is the ordered set of records produced for one workload.  It has a
// single owner at a time.
type Batch[T Record] struct {
	Workload interval.Interval
	Items    []T
}

// Len returns the number of records.
func (b *Batch[T]) Len() int { return len(b.Items) }

// Retain keeps only the records for which keep returns true, preserving
// their order.
func (b *Batch[T]) Retain(keep func(T) bool) {
	n := 0
	for _, item := range b.Items {
		if keep(item) {
			b.Items[n] = item
			n++
		}
	}
	var zero T
	for i := n; i < len(b.Items); i++ {
		b.Items[i] = zero
	}
	b.Items = b.Items[:n]
}

// orient returns the reference of content.Interval in the orientation of the
// finalized counts: reverse workloads are complemented.
func orient(content pileup.NucCounterContent, ref []dna.Nucleotide) []dna.Nucleotide {
	if len(ref) != len(content.Counts) {
		log.Panicf("mismatches: %v: %d reference bases for %d positions", content.Interval, len(ref), len(content.Counts))
	}
	if content.Interval.Strand != interval.StrandReverse {
		return ref
	}
	oriented := make([]dna.Nucleotide, len(ref))
	for i, n := range ref {
		oriented[i] = n.Complement()
	}
	return oriented
}

// SummarizeROI reduces the content of one workload into a single ROI record.
// ref holds the forward-strand reference of content.Interval, one base per
// position.
func SummarizeROI(content pileup.NucCounterContent, ref []dna.Nucleotide, policy UnknownPolicy) ROI {
	ref = orient(content, ref)
	roi := ROI{Interval: content.Interval}
	for i, counts := range content.Counts {
		if !roi.Matrix.Add(ref[i], counts) && policy == IncludeUnknown {
			roi.Unknown.AddCounts(counts)
		}
	}
	return roi
}

// CollectSites returns one Site per covered position of content, in
// coordinate order.  ref holds the forward-strand reference of
// content.Interval.  If keep is non-nil, positions whose preview it rejects
// are dropped before the record is built.
func CollectSites(content pileup.NucCounterContent, ref []dna.Nucleotide, policy UnknownPolicy, keep func(SitePreview) bool) []Site {
	ref = orient(content, ref)
	var sites []Site
	for i, counts := range content.Counts {
		if counts.IsZero() {
			continue
		}
		if !ref[i].Known() && policy == ExcludeUnknown {
			continue
		}
		preview := SitePreview{Ref: ref[i], Counts: counts}
		if keep != nil && !keep(preview) {
			continue
		}
		pos := content.Interval.Start + interval.PosType(i)
		site := interval.Site(content.Interval.Contig, pos, content.Interval.Strand)
		site.Name = content.Interval.Name
		sites = append(sites, Site{
			Interval: site,
			Ref:      ref[i],
			Counts:   counts,
		})
	}
	return sites
}
