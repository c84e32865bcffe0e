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

// Package dna defines the nucleotide alphabet used by the pileup and mismatch
// code, and NucCounts, the per-position A/C/G/T tally everything else is built
// on.
package dna

// Nucleotide is a base observed in a read or declared by the reference.
// Unknown covers N and every IUPAC ambiguity code; it never contributes to a
// specific tally.
type Nucleotide byte

const (
	// A represents an A base.
	A Nucleotide = iota
	// C represents a C base.
	C
	// G represents a G base.
	G
	// T represents a T base.
	T
	// Unknown is the catch-all.
	Unknown
)

// ReqNucleotide is a Nucleotide that is guaranteed not to be Unknown.  It is
// the result type of NucCounts.MostFreq, since a definite winner always
// exists.
type ReqNucleotide byte

const (
	ReqA ReqNucleotide = ReqNucleotide(A)
	ReqC ReqNucleotide = ReqNucleotide(C)
	ReqG ReqNucleotide = ReqNucleotide(G)
	ReqT ReqNucleotide = ReqNucleotide(T)
)

// NBase is the number of concrete nucleotides.
const NBase = 4

// Nucleotide returns n as a (possibly Unknown) Nucleotide.
func (n ReqNucleotide) Nucleotide() Nucleotide {
	return Nucleotide(n)
}

// String implements fmt.Stringer.
func (n ReqNucleotide) String() string {
	return Nucleotide(n).String()
}

// Known reports whether n is one of A, C, G, T.
func (n Nucleotide) Known() bool {
	return n < Unknown
}

// Complement returns the Watson-Crick partner of n.  Unknown maps to itself.
func (n Nucleotide) Complement() Nucleotide {
	if n >= Unknown {
		return Unknown
	}
	// A=0 <-> T=3, C=1 <-> G=2.
	return T - n
}

// ASCII returns the upper-case letter for n, with Unknown rendered as 'N'.
func (n Nucleotide) ASCII() byte {
	if n > Unknown {
		n = Unknown
	}
	return enumToASCIITable[n]
}

// String implements fmt.Stringer.
func (n Nucleotide) String() string {
	return string(n.ASCII())
}

var enumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N'}

// Seq8ToNucTable is the .bam seq nibble -> Nucleotide mapping.  Every
// ambiguity code, including '=', decodes to Unknown.
var Seq8ToNucTable = [16]Nucleotide{Unknown, A, C, Unknown, G, Unknown, Unknown, Unknown, T, Unknown, Unknown, Unknown, Unknown, Unknown, Unknown, Unknown}

var asciiToNucTable [256]Nucleotide

func init() {
	for i := range asciiToNucTable {
		asciiToNucTable[i] = Unknown
	}
	for n, c := range enumToASCIITable[:NBase] {
		asciiToNucTable[c] = Nucleotide(n)
		asciiToNucTable[c+'a'-'A'] = Nucleotide(n)
	}
}

// FromASCII decodes a FASTA/SAM letter.  Lower-case (soft-masked) bases are
// accepted; anything other than ACGT is Unknown.
func FromASCII(c byte) Nucleotide {
	return asciiToNucTable[c]
}

// FromSeq8 decodes a single .bam 4-bit base.
func FromSeq8(nibble byte) Nucleotide {
	return Seq8ToNucTable[nibble&0xf]
}

// ASCIIToNucleotides decodes seq into dst, which is resized as needed, and
// returns it.
func ASCIIToNucleotides(dst []Nucleotide, seq string) []Nucleotide {
	if cap(dst) < len(seq) {
		dst = make([]Nucleotide, len(seq))
	}
	dst = dst[:len(seq)]
	for i := 0; i < len(seq); i++ {
		dst[i] = asciiToNucTable[seq[i]]
	}
	return dst
}
