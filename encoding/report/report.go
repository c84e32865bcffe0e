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
// Package report serializes mismatch batches and editing statistics as
// tab-separated text.
//
// Workers write their rows to private snappy-compressed spill files; Concat
// then stitches the spills, in job order, into the final (optionally
// bgzf-compressed) report.
package report

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/hooks"
	"github.com/grailbio/rnaedit/mismatches"
)

// Format is the output file format.
type Format int

const (
	// TSV is plain tab-separated text.
	TSV Format = iota
	// TSVBGZ is tab-separated text compressed with bgzf.
	TSVBGZ
)

// ParseFormat parses "tsv" or "tsv-bgz".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "tsv", "":
		return TSV, nil
	case "tsv-bgz":
		return TSVBGZ, nil
	}
	return TSV, errors.E(errors.Invalid, fmt.Sprintf("report: unknown format %q", s))
}

// Suffix returns the file name suffix of f.
func (f Format) Suffix() string {
	if f == TSVBGZ {
		return ".tsv.gz"
	}
	return ".tsv"
}

// RecordWriter writes one record as one row.
type RecordWriter[T mismatches.Record] func(w *tsv.Writer, rec T)

var reqNucleotides = [...]dna.ReqNucleotide{dna.ReqA, dna.ReqC, dna.ReqG, dna.ReqT}

const (
	// SiteHeader is the header line of a site report.  POS is 1-based.
	SiteHeader = "#CHROM\tPOS\tSTRAND\tNAME\tREF\tA\tC\tG\tT\tCOV\tMISMATCHES\tFREQ"
	// ROIHeader is the header line of a ROI report.  START is 0-based and END
	// exclusive, as in BED.
	ROIHeader = "#CHROM\tSTART\tEND\tSTRAND\tNAME\tCOV\tMISMATCHES\tFREQ\tUNKNOWN_REF" +
		"\tA>C\tA>G\tA>T\tC>A\tC>G\tC>T\tG>A\tG>C\tG>T\tT>A\tT>C\tT>G"
)

func name(s string) string {
	if s == "" {
		return "."
	}
	return s
}

// writeCount writes a 64-bit count.  Counts stay far below 2^63.
func writeCount(w *tsv.Writer, n uint64) {
	w.WriteInt64(int64(n))
}

func writePreview(w *tsv.Writer, p mismatches.Preview) {
	cov, mm := p.Coverage(), p.Mismatches()
	writeCount(w, cov)
	writeCount(w, mm)
	w.WriteFloat64(float64(hooks.Frequency(mm, cov)), 'g', 6)
}

// WriteSite is the RecordWriter of sites.
func WriteSite(w *tsv.Writer, s mismatches.Site) {
	w.WriteString(s.Interval.Contig)
	w.WriteInt64(int64(s.Interval.Start) + 1)
	w.WriteByte(s.Interval.Strand.ASCII())
	w.WriteString(name(s.Interval.Name))
	w.WriteByte(s.Ref.ASCII())
	w.WriteUint32(s.Counts.A)
	w.WriteUint32(s.Counts.C)
	w.WriteUint32(s.Counts.G)
	w.WriteUint32(s.Counts.T)
	writePreview(w, s.Preview())
}

// WriteROI is the RecordWriter of regions of interest.
func WriteROI(w *tsv.Writer, r mismatches.ROI) {
	w.WriteString(r.Interval.Contig)
	w.WriteInt64(int64(r.Interval.Start))
	w.WriteInt64(int64(r.Interval.End))
	w.WriteByte(r.Interval.Strand.ASCII())
	w.WriteString(name(r.Interval.Name))
	writePreview(w, r.Preview())
	writeCount(w, r.Unknown.Coverage())
	for _, ref := range reqNucleotides {
		for _, alt := range reqNucleotides {
			if ref != alt {
				writeCount(w, r.Matrix.Mismatch(ref, alt))
			}
		}
	}
}

// WriteBatch writes every record of b.  Errors are reported by the
// writer's EndLine.
func WriteBatch[T mismatches.Record](w *tsv.Writer, b *mismatches.Batch[T], write RecordWriter[T]) error {
	for _, rec := range b.Items {
		write(w, rec)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// StatsHeader is the header line of a stats report.
const StatsHeader = "#STAT\tKEY\tVALUE"

// WriteStats writes one row per stat value.
func WriteStats(w *tsv.Writer, stats []hooks.Stat) error {
	w.WriteString(StatsHeader)
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, s := range stats {
		for _, v := range s.Values() {
			w.WriteString(s.Name())
			w.WriteString(v.Key)
			w.WriteFloat64(v.Value, 'f', -1)
			if err := w.EndLine(); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
