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
package interval

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
)

// PosType is the coordinate type.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Strand describes which strand of the reference an interval (or a read's
// transcript of origin) belongs to.
type Strand int

const (
	// StrandUnknown means either no strand restriction, or an undeducible
	// strand.
	StrandUnknown Strand = iota
	// StrandForward is the reference ('+') strand.
	StrandForward
	// StrandReverse is the reverse-complement ('-') strand.
	StrandReverse
)

var strandToASCIITable = [...]byte{'.', '+', '-'}

// ASCII returns '.', '+' or '-'.
func (s Strand) ASCII() byte {
	return strandToASCIITable[s]
}

// String implements fmt.Stringer.
func (s Strand) String() string {
	return string(s.ASCII())
}

// ParseStrand parses a BED strand column.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return StrandForward, nil
	case "-":
		return StrandReverse, nil
	case ".", "":
		return StrandUnknown, nil
	}
	return StrandUnknown, errors.E(errors.Invalid, fmt.Sprintf("interval.ParseStrand: unrecognized strand %q", s))
}

// Interval is a half-open [Start, End) range on Contig, 0-based.  A Site is an
// Interval of length 1.
type Interval struct {
	Contig string
	Start  PosType
	End    PosType
	Strand Strand
	// Name is the optional BED name column.
	Name string
}

// Site returns the length-1 interval at pos.
func Site(contig string, pos PosType, strand Strand) Interval {
	return Interval{Contig: contig, Start: pos, End: pos + 1, Strand: strand}
}

// Len returns the number of positions covered.
func (iv Interval) Len() int {
	return int(iv.End - iv.Start)
}

// Validate returns an errors.Invalid error when iv can't be used as a
// workload: unnamed contig, negative start, or an empty or inverted range.
func (iv Interval) Validate() error {
	if iv.Contig == "" {
		return errors.E(errors.Invalid, "interval: empty contig name")
	}
	if iv.Start < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("interval: negative start in %v", iv))
	}
	if iv.End <= iv.Start {
		return errors.E(errors.Invalid, fmt.Sprintf("interval: degenerate range %v", iv))
	}
	return nil
}

// Contains reports whether pos lies in iv.
func (iv Interval) Contains(pos PosType) bool {
	return pos >= iv.Start && pos < iv.End
}

// Overlaps reports whether iv and other share at least one position.  Strand
// is ignored.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Contig == other.Contig && iv.Start < other.End && other.Start < iv.End
}

// Clip returns the intersection of [start, end) and iv's range; the result is
// empty (start >= end) when they don't intersect.
func (iv Interval) Clip(start, end PosType) (PosType, PosType) {
	if start < iv.Start {
		start = iv.Start
	}
	if end > iv.End {
		end = iv.End
	}
	return start, end
}

// String renders iv as contig:start1-end(strand), with a 1-based start.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d(%v)", iv.Contig, iv.Start+1, iv.End, iv.Strand)
}

// Split cuts iv into consecutive pieces of at most chunkSize positions.
func (iv Interval) Split(chunkSize int) []Interval {
	if chunkSize <= 0 || iv.Len() <= chunkSize {
		return []Interval{iv}
	}
	result := make([]Interval, 0, (iv.Len()+chunkSize-1)/chunkSize)
	for start := iv.Start; start < iv.End; {
		end := start + PosType(chunkSize)
		if end > iv.End || end < start {
			end = iv.End
		}
		piece := iv
		piece.Start, piece.End = start, end
		result = append(result, piece)
		start = end
	}
	return result
}
