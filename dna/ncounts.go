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
package dna

import "fmt"

// NucCounts holds one counter per concrete nucleotide.
//
// Counters are uint32 and arithmetic on them wraps modulo 2^32, like any Go
// unsigned integer.  NucCounts hold the bases of one position; sums over many
// positions go to Totals.
type NucCounts struct {
	A, C, G, T uint32
}

// Zeros returns the additive identity.
func Zeros() NucCounts {
	return NucCounts{}
}

// OnlyA returns counts with n A's and nothing else.  OnlyC, OnlyG and OnlyT
// behave the same way.
func OnlyA(n uint32) NucCounts { return NucCounts{A: n} }
func OnlyC(n uint32) NucCounts { return NucCounts{C: n} }
func OnlyG(n uint32) NucCounts { return NucCounts{G: n} }
func OnlyT(n uint32) NucCounts { return NucCounts{T: n} }

// Inc increments the counter for n.  Unknown is ignored.
func (x *NucCounts) Inc(n Nucleotide) {
	switch n {
	case A:
		x.A++
	case C:
		x.C++
	case G:
		x.G++
	case T:
		x.T++
	}
}

// Increment adds every base of sequence to the matching counter.
func (x *NucCounts) Increment(sequence []Nucleotide) {
	for _, n := range sequence {
		x.Inc(n)
	}
}

// Count returns the counter for n, or 0 for Unknown.
func (x NucCounts) Count(n Nucleotide) uint32 {
	switch n {
	case A:
		return x.A
	case C:
		return x.C
	case G:
		return x.G
	case T:
		return x.T
	}
	return 0
}

// Coverage returns the total number of bases tallied.
func (x NucCounts) Coverage() uint32 {
	return x.A + x.C + x.G + x.T
}

// Mismatches returns the number of bases that differ from reference.  Every
// base is a mismatch against an Unknown reference.
func (x NucCounts) Mismatches(reference Nucleotide) uint32 {
	switch reference {
	case A:
		return x.C + x.G + x.T
	case C:
		return x.A + x.G + x.T
	case G:
		return x.A + x.C + x.T
	case T:
		return x.A + x.C + x.G
	}
	return x.Coverage()
}

// MostFreq returns the most frequent base and its count.  Ties are broken in
// the fixed order A, C, G, T, so all-zero counts yield (A, 0).
func (x NucCounts) MostFreq() (ReqNucleotide, uint32) {
	maximum := x.A
	if x.C > maximum {
		maximum = x.C
	}
	if x.G > maximum {
		maximum = x.G
	}
	if x.T > maximum {
		maximum = x.T
	}
	switch maximum {
	case x.A:
		return ReqA, x.A
	case x.C:
		return ReqC, x.C
	case x.G:
		return ReqG, x.G
	}
	return ReqT, x.T
}

// Complementary returns the counts as seen from the opposite strand.
func (x NucCounts) Complementary() NucCounts {
	return NucCounts{A: x.T, C: x.G, G: x.C, T: x.A}
}

// Add returns the elementwise sum x + y.
func (x NucCounts) Add(y NucCounts) NucCounts {
	return NucCounts{A: x.A + y.A, C: x.C + y.C, G: x.G + y.G, T: x.T + y.T}
}

// AddAssign adds y to x in place.
func (x *NucCounts) AddAssign(y NucCounts) {
	x.A += y.A
	x.C += y.C
	x.G += y.G
	x.T += y.T
}

// Mul returns x with every counter multiplied by k.
func (x NucCounts) Mul(k uint32) NucCounts {
	return NucCounts{A: x.A * k, C: x.C * k, G: x.G * k, T: x.T * k}
}

// IsZero reports whether nothing has been tallied.
func (x NucCounts) IsZero() bool {
	return x == NucCounts{}
}

// String implements fmt.Stringer.
func (x NucCounts) String() string {
	return fmt.Sprintf("{A:%d C:%d G:%d T:%d}", x.A, x.C, x.G, x.T)
}

// Totals holds one uint64 counter per concrete nucleotide.  It accumulates
// NucCounts over whole regions or genomes.
type Totals struct {
	A, C, G, T uint64
}

// Widen returns x as Totals.
func (x NucCounts) Widen() Totals {
	return Totals{A: uint64(x.A), C: uint64(x.C), G: uint64(x.G), T: uint64(x.T)}
}

// AddCounts adds the counts of one position to x in place.
func (x *Totals) AddCounts(y NucCounts) {
	x.A += uint64(y.A)
	x.C += uint64(y.C)
	x.G += uint64(y.G)
	x.T += uint64(y.T)
}

// Add returns the elementwise sum x + y.
func (x Totals) Add(y Totals) Totals {
	return Totals{A: x.A + y.A, C: x.C + y.C, G: x.G + y.G, T: x.T + y.T}
}

// Count returns the counter for n, or 0 for Unknown.
func (x Totals) Count(n Nucleotide) uint64 {
	switch n {
	case A:
		return x.A
	case C:
		return x.C
	case G:
		return x.G
	case T:
		return x.T
	}
	return 0
}

// Coverage returns the total number of bases tallied.
func (x Totals) Coverage() uint64 {
	return x.A + x.C + x.G + x.T
}

// Mismatches returns the number of bases that differ from reference, or the
// coverage for an Unknown reference.
func (x Totals) Mismatches(reference Nucleotide) uint64 {
	return x.Coverage() - x.Count(reference)
}

// String implements fmt.Stringer.
func (x Totals) String() string {
	return fmt.Sprintf("{A:%d C:%d G:%d T:%d}", x.A, x.C, x.G, x.T)
}
