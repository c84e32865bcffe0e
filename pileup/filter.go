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
	"github.com/grailbio/hts/sam"
)

// ReadsFilter decides whether a read, and each of its bases, may contribute
// to a pileup.
type ReadsFilter[R AlignedRead] interface {
	// IsReadOK is the whole-read predicate.
	IsReadOK(record R) bool
	// IsBaseOK is the per-base predicate; base indexes the read sequence.
	IsBaseOK(record R, base int) bool
}

// DefaultFlagExclude skips unmapped, secondary, QC-failed, duplicate and
// supplementary records.
const DefaultFlagExclude = sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate | sam.Supplementary

// ByFlags rejects reads with any Exclude flag set, or with any Require flag
// unset.
type ByFlags[R AlignedRead] struct {
	Exclude sam.Flags
	Require sam.Flags
}

// IsReadOK implements ReadsFilter.
func (f ByFlags[R]) IsReadOK(record R) bool {
	flags := record.Flags()
	return flags&f.Exclude == 0 && flags&f.Require == f.Require
}

// IsBaseOK implements ReadsFilter.
func (f ByFlags[R]) IsBaseOK(record R, base int) bool {
	return true
}

// ByQuality enforces a mapping-quality floor on reads and a base-quality
// floor on bases.
type ByQuality[R AlignedRead] struct {
	MinMapQ     byte
	MinBaseQual byte
}

// IsReadOK implements ReadsFilter.
func (f ByQuality[R]) IsReadOK(record R) bool {
	return record.MapQ() >= f.MinMapQ
}

// IsBaseOK implements ReadsFilter.
func (f ByQuality[R]) IsBaseOK(record R, base int) bool {
	return record.Qual(base) >= f.MinBaseQual
}

// ByLength rejects reads with fewer than MinAlignedLen bases aligned to the
// reference.
type ByLength[R AlignedRead] struct {
	MinAlignedLen int
}

// IsReadOK implements ReadsFilter.
func (f ByLength[R]) IsReadOK(record R) bool {
	return f.MinAlignedLen <= 0 || AlignedLen(record) >= f.MinAlignedLen
}

// IsBaseOK implements ReadsFilter.
func (f ByLength[R]) IsBaseOK(record R, base int) bool {
	return true
}

// Sequential is the conjunction of two filters.  Both sub-filters are always
// evaluated, in order, even when the first one rejects, so filters with side
// effects (e.g. counters) observe every call.
type Sequential[R AlignedRead] struct {
	First  ReadsFilter[R]
	Second ReadsFilter[R]
}

// NewSequential returns Sequential{first, second}.
func NewSequential[R AlignedRead](first, second ReadsFilter[R]) Sequential[R] {
	return Sequential[R]{First: first, Second: second}
}

// IsReadOK implements ReadsFilter.
func (f Sequential[R]) IsReadOK(record R) bool {
	ok1 := f.First.IsReadOK(record)
	ok2 := f.Second.IsReadOK(record)
	return ok1 && ok2
}

// IsBaseOK implements ReadsFilter.
func (f Sequential[R]) IsBaseOK(record R, base int) bool {
	ok1 := f.First.IsBaseOK(record, base)
	ok2 := f.Second.IsBaseOK(record, base)
	return ok1 && ok2
}

// ChainOpts configures NewChain.
type ChainOpts struct {
	FlagExclude   sam.Flags
	FlagRequire   sam.Flags
	MinMapQ       byte
	MinBaseQual   byte
	MinAlignedLen int
}

// NewChain returns the standard filter chain: flags, then qualities, then
// aligned length.
func NewChain[R AlignedRead](opts ChainOpts) ReadsFilter[R] {
	return NewSequential[R](
		ByFlags[R]{Exclude: opts.FlagExclude, Require: opts.FlagRequire},
		NewSequential[R](
			ByQuality[R]{MinMapQ: opts.MinMapQ, MinBaseQual: opts.MinBaseQual},
			ByLength[R]{MinAlignedLen: opts.MinAlignedLen},
		),
	)
}
