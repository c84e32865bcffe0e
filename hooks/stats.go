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
package hooks

import (
	"fmt"

	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/mismatches"
)

var reqNucleotides = [...]dna.ReqNucleotide{dna.ReqA, dna.ReqC, dna.ReqG, dna.ReqT}

// EditingIndex sums the summaries of the records it sees.
type EditingIndex[T mismatches.Record] struct {
	summary mismatches.Summary
}

// OnFinish implements Hook.
func (h *EditingIndex[T]) OnFinish(batch *mismatches.Batch[T]) {
	for _, r := range batch.Items {
		h.summary = h.summary.Merge(r.Summary())
	}
}

// Stats implements StatsHook.
func (h *EditingIndex[T]) Stats() []Stat {
	return []Stat{EditingIndexStat{Summary: h.summary}}
}

// EditingIndexStat reports, for every ref>alt substitution, its count and its
// share of the bases observed on ref.
type EditingIndexStat struct {
	Summary mismatches.Summary
}

// Name implements Stat.
func (s EditingIndexStat) Name() string { return "editing-index" }

// Merge implements Stat.
func (s EditingIndexStat) Merge(other Stat) (Stat, error) {
	o, ok := other.(EditingIndexStat)
	if !ok {
		return nil, mismatchedStat(s, other)
	}
	return EditingIndexStat{Summary: s.Summary.Merge(o.Summary)}, nil
}

// Index returns the ref>alt count divided by the coverage of row ref, or 0
// for an empty row.
func (s EditingIndexStat) Index(ref, alt dna.ReqNucleotide) float64 {
	cov := s.Summary.Row(ref).Coverage()
	if cov == 0 {
		return 0
	}
	return float64(s.Summary.Mismatch(ref, alt)) / float64(cov)
}

// Values implements Stat.
func (s EditingIndexStat) Values() []Value {
	values := []Value{
		{"coverage", float64(s.Summary.Coverage())},
		{"mismatches", float64(s.Summary.Mismatches())},
	}
	for _, ref := range reqNucleotides {
		for _, alt := range reqNucleotides {
			if ref == alt {
				continue
			}
			key := fmt.Sprintf("%v>%v", ref, alt)
			values = append(values,
				Value{key, float64(s.Summary.Mismatch(ref, alt))},
				Value{key + ".index", s.Index(ref, alt)})
		}
	}
	return values
}

// FrequencyHistogram bins the records it sees by mismatch frequency.  Bins
// are equally wide over [0, 1]; the last one is closed.
type FrequencyHistogram[T mismatches.Record] struct {
	counts []uint64
}

// NewFrequencyHistogram returns a histogram with nBins bins.  nBins < 1 is
// treated as 1.
func NewFrequencyHistogram[T mismatches.Record](nBins int) *FrequencyHistogram[T] {
	if nBins < 1 {
		nBins = 1
	}
	return &FrequencyHistogram[T]{counts: make([]uint64, nBins)}
}

// OnFinish implements Hook.
func (h *FrequencyHistogram[T]) OnFinish(batch *mismatches.Batch[T]) {
	n := len(h.counts)
	for _, r := range batch.Items {
		p := r.Preview()
		bin := int(Frequency(p.Mismatches(), p.Coverage()) * float32(n))
		if bin >= n {
			bin = n - 1
		}
		h.counts[bin]++
	}
}

// Stats implements StatsHook.
func (h *FrequencyHistogram[T]) Stats() []Stat {
	return []Stat{FrequencyHistogramStat{Counts: append([]uint64(nil), h.counts...)}}
}

// FrequencyHistogramStat is the snapshot of a FrequencyHistogram.
type FrequencyHistogramStat struct {
	Counts []uint64
}

// Name implements Stat.
func (s FrequencyHistogramStat) Name() string { return "frequency-histogram" }

// Merge implements Stat.
func (s FrequencyHistogramStat) Merge(other Stat) (Stat, error) {
	o, ok := other.(FrequencyHistogramStat)
	if !ok || len(o.Counts) != len(s.Counts) {
		return nil, mismatchedStat(s, other)
	}
	merged := FrequencyHistogramStat{Counts: make([]uint64, len(s.Counts))}
	for i := range s.Counts {
		merged.Counts[i] = s.Counts[i] + o.Counts[i]
	}
	return merged, nil
}

// Values implements Stat.  Keys are the bin ranges.
func (s FrequencyHistogramStat) Values() []Value {
	n := len(s.Counts)
	values := make([]Value, n)
	for i, c := range s.Counts {
		closing := ")"
		if i == n-1 {
			closing = "]"
		}
		values[i] = Value{
			Key:   fmt.Sprintf("[%g,%g%s", float64(i)/float64(n), float64(i+1)/float64(n), closing),
			Value: float64(c),
		}
	}
	return values
}

// RecordCounter counts batches, records and the bases and coverage they
// span.
type RecordCounter[T mismatches.Record] struct {
	stat RecordCountStat
}

// OnFinish implements Hook.
func (h *RecordCounter[T]) OnFinish(batch *mismatches.Batch[T]) {
	h.stat.Batches++
	for _, r := range batch.Items {
		h.stat.Records++
		h.stat.Bases += uint64(r.Workload().Len())
		h.stat.Coverage += r.Preview().Coverage()
	}
}

// Stats implements StatsHook.
func (h *RecordCounter[T]) Stats() []Stat {
	return []Stat{h.stat}
}

// RecordCountStat is the snapshot of a RecordCounter.
type RecordCountStat struct {
	Batches, Records, Bases, Coverage uint64
}

// Name implements Stat.
func (s RecordCountStat) Name() string { return "records" }

// Merge implements Stat.
func (s RecordCountStat) Merge(other Stat) (Stat, error) {
	o, ok := other.(RecordCountStat)
	if !ok {
		return nil, mismatchedStat(s, other)
	}
	return RecordCountStat{
		Batches:  s.Batches + o.Batches,
		Records:  s.Records + o.Records,
		Bases:    s.Bases + o.Bases,
		Coverage: s.Coverage + o.Coverage,
	}, nil
}

// Values implements Stat.
func (s RecordCountStat) Values() []Value {
	return []Value{
		{"batches", float64(s.Batches)},
		{"records", float64(s.Records)},
		{"bases", float64(s.Bases)},
		{"coverage", float64(s.Coverage)},
	}
}

// MinEditedRows drops records whose summary has mismatches on fewer than N
// reference bases.
type MinEditedRows[T mismatches.Record] struct {
	N int
}

// OnFinish implements Hook.
func (h MinEditedRows[T]) OnFinish(batch *mismatches.Batch[T]) {
	batch.Retain(func(r T) bool { return r.Summary().EditedRows() >= h.N })
}
