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
	"fmt"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/interval"
)

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// AlignedBlock is a gapless stretch of a read aligned to the reference: read
// bases [ReadStart, ReadStart+Len) sit at reference positions
// [RefStart, RefStart+Len).
type AlignedBlock struct {
	RefStart  PosType
	ReadStart int
	Len       int
}

// RefEnd returns 1 + the last reference position covered by the block.
func (b AlignedBlock) RefEnd() PosType {
	return b.RefStart + PosType(b.Len)
}

// AlignedRead is what filters and colliders need to know about a read.
type AlignedRead interface {
	// RefName is the contig the read is aligned to, or "" if unmapped.
	RefName() string
	Flags() sam.Flags
	MapQ() byte
	// Len is the number of bases in the read sequence.
	Len() int
	// Base returns the i-th base of the read sequence.
	Base(i int) dna.Nucleotide
	// Qual returns the phred quality of the i-th base.
	Qual(i int) byte
	// Blocks returns the aligned segments, in increasing reference order.  The
	// caller must not modify the slice.
	Blocks() []AlignedBlock
}

// SAMRead adapts a *sam.Record to AlignedRead.  The alignment geometry is
// derived from the CIGAR once, in Reset; a SAMRead can be reused across
// records to avoid reallocating the block buffer.
type SAMRead struct {
	Rec    *sam.Record
	blocks []AlignedBlock
}

// NewSAMRead returns a SAMRead for rec.
func NewSAMRead(rec *sam.Record) (*SAMRead, error) {
	r := &SAMRead{}
	if err := r.Reset(rec); err != nil {
		return nil, err
	}
	return r, nil
}

// Reset points r at rec and recomputes its aligned blocks.
func (r *SAMRead) Reset(rec *sam.Record) error {
	r.Rec = rec
	r.blocks = r.blocks[:0]
	posInRef := PosType(rec.Pos)
	posInRead := 0
	for _, co := range rec.Cigar {
		cLen := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			// Merge with the previous block when adjacent (e.g. 5=1X4=).
			if n := len(r.blocks); n > 0 && r.blocks[n-1].RefEnd() == posInRef && r.blocks[n-1].ReadStart+r.blocks[n-1].Len == posInRead {
				r.blocks[n-1].Len += cLen
			} else {
				r.blocks = append(r.blocks, AlignedBlock{RefStart: posInRef, ReadStart: posInRead, Len: cLen})
			}
			posInRef += PosType(cLen)
			posInRead += cLen
		case sam.CigarInsertion, sam.CigarSoftClipped:
			posInRead += cLen
		case sam.CigarDeletion, sam.CigarSkipped:
			posInRef += PosType(cLen)
		case sam.CigarHardClipped, sam.CigarPadded:
			// do nothing
		default:
			return fmt.Errorf("pileup.SAMRead: unexpected CIGAR code %v in read %s", co, rec.Name)
		}
	}
	if len(r.blocks) != 0 && posInRead != rec.Seq.Length {
		return fmt.Errorf("pileup.SAMRead: CIGAR %v consumes %d bases, but read %s has %d", rec.Cigar, posInRead, rec.Name, rec.Seq.Length)
	}
	if len(rec.Qual) < rec.Seq.Length {
		return fmt.Errorf("pileup.SAMRead: read %s has %d bases but %d quality scores", rec.Name, rec.Seq.Length, len(rec.Qual))
	}
	return nil
}

// RefName implements AlignedRead.
func (r *SAMRead) RefName() string {
	if r.Rec.Ref == nil {
		return ""
	}
	return r.Rec.Ref.Name()
}

// Flags implements AlignedRead.
func (r *SAMRead) Flags() sam.Flags {
	return r.Rec.Flags
}

// MapQ implements AlignedRead.
func (r *SAMRead) MapQ() byte {
	return r.Rec.MapQ
}

// Len implements AlignedRead.
func (r *SAMRead) Len() int {
	return r.Rec.Seq.Length
}

// Base implements AlignedRead.  Bases are stored two per byte, high nibble
// first.
func (r *SAMRead) Base(i int) dna.Nucleotide {
	d := byte(r.Rec.Seq.Seq[i>>1])
	if i&1 == 0 {
		d >>= 4
	}
	return dna.FromSeq8(d)
}

// Qual implements AlignedRead.
func (r *SAMRead) Qual(i int) byte {
	return r.Rec.Qual[i]
}

// Blocks implements AlignedRead.
func (r *SAMRead) Blocks() []AlignedBlock {
	return r.blocks
}

// AlignedLen returns the number of read bases aligned to the reference.
func AlignedLen(r AlignedRead) int {
	n := 0
	for _, b := range r.Blocks() {
		n += b.Len
	}
	return n
}
