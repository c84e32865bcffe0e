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
	"fmt"

	"github.com/grailbio/rnaedit/dna"
)

// Summary is a reference-indexed matrix of observed counts: row X holds what
// was sequenced at positions whose reference base is X.  Rows are 64-bit so
// that summaries of whole contigs or genomes do not wrap.
type Summary struct {
	A, C, G, T dna.Totals
}

// Add accumulates counts into the row selected by ref.  It reports false,
// leaving s unchanged, when ref is Unknown.
func (s *Summary) Add(ref dna.Nucleotide, counts dna.NucCounts) bool {
	switch ref {
	case dna.A:
		s.A.AddCounts(counts)
	case dna.C:
		s.C.AddCounts(counts)
	case dna.G:
		s.G.AddCounts(counts)
	case dna.T:
		s.T.AddCounts(counts)
	default:
		return false
	}
	return true
}

// Row returns the counts observed where the reference was ref.
func (s Summary) Row(ref dna.ReqNucleotide) dna.Totals {
	switch ref {
	case dna.ReqA:
		return s.A
	case dna.ReqC:
		return s.C
	case dna.ReqG:
		return s.G
	}
	return s.T
}

// Merge returns the elementwise sum of s and other.
func (s Summary) Merge(other Summary) Summary {
	return Summary{
		A: s.A.Add(other.A),
		C: s.C.Add(other.C),
		G: s.G.Add(other.G),
		T: s.T.Add(other.T),
	}
}

// Coverage is the total number of bases in the matrix.
func (s Summary) Coverage() uint64 {
	return s.A.Coverage() + s.C.Coverage() + s.G.Coverage() + s.T.Coverage()
}

// Mismatches is the number of bases that differ from their row's reference
// base.
func (s Summary) Mismatches() uint64 {
	return s.A.Mismatches(dna.A) + s.C.Mismatches(dna.C) + s.G.Mismatches(dna.G) + s.T.Mismatches(dna.T)
}

// Mismatch returns the number of ref->alt substitutions in the matrix.  It is
// zero when ref == alt.
func (s Summary) Mismatch(ref, alt dna.ReqNucleotide) uint64 {
	if ref == alt {
		return 0
	}
	return s.Row(ref).Count(alt.Nucleotide())
}

// EditedRows is the number of reference rows that carry at least one
// mismatch.
func (s Summary) EditedRows() int {
	n := 0
	for _, ref := range []dna.ReqNucleotide{dna.ReqA, dna.ReqC, dna.ReqG, dna.ReqT} {
		if s.Row(ref).Mismatches(ref.Nucleotide()) > 0 {
			n++
		}
	}
	return n
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("A[%v] C[%v] G[%v] T[%v]", s.A, s.C, s.G, s.T)
}
