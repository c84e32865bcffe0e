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
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/dna"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, ref *sam.Reference, pos int, cigar []sam.CigarOp, seq string, qual byte) *sam.Record {
	quals := make([]byte, len(seq))
	for i := range quals {
		quals[i] = qual
	}
	return &sam.Record{
		Name:  "r",
		Ref:   ref,
		Pos:   pos,
		MapQ:  60,
		Cigar: cigar,
		Seq:   sam.NewSeq([]byte(seq)),
		Qual:  quals,
	}
}

func TestSAMReadBlocks(t *testing.T) {
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	rec := newTestRecord(t, ref, 100, []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 3),
		sam.NewCigarOp(sam.CigarInsertion, 1),
		sam.NewCigarOp(sam.CigarEqual, 2),
		sam.NewCigarOp(sam.CigarMismatch, 1),
		sam.NewCigarOp(sam.CigarDeletion, 4),
		sam.NewCigarOp(sam.CigarSkipped, 10),
		sam.NewCigarOp(sam.CigarMatch, 2),
		sam.NewCigarOp(sam.CigarHardClipped, 5),
	}, "NNACGTACGTA", 30)
	r, err := NewSAMRead(rec)
	require.NoError(t, err)
	assert.Equal(t, []AlignedBlock{
		{RefStart: 100, ReadStart: 2, Len: 3},
		{RefStart: 103, ReadStart: 6, Len: 3},
		{RefStart: 120, ReadStart: 9, Len: 2},
	}, r.Blocks())
	assert.Equal(t, 8, AlignedLen(r))
	assert.Equal(t, "chr1", r.RefName())
	assert.Equal(t, 11, r.Len())
	assert.Equal(t, dna.Unknown, r.Base(0))
	assert.Equal(t, dna.A, r.Base(2))
	assert.Equal(t, dna.C, r.Base(3))
	assert.Equal(t, dna.T, r.Base(5))
	assert.Equal(t, byte(30), r.Qual(7))

	rec = newTestRecord(t, ref, 0, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 5)}, "ACGT", 30)
	_, err = NewSAMRead(rec)
	assert.Error(t, err)
	rec = newTestRecord(t, ref, 0, []sam.CigarOp{sam.NewCigarOp(sam.CigarBack, 1)}, "A", 30)
	_, err = NewSAMRead(rec)
	assert.Error(t, err)
}

// countingFilter records how often it is consulted.
type countingFilter struct {
	readOK, baseOK bool
	nRead, nBase   *int
}

func (f countingFilter) IsReadOK(record *SAMRead) bool {
	*f.nRead++
	return f.readOK
}

func (f countingFilter) IsBaseOK(record *SAMRead, base int) bool {
	*f.nBase++
	return f.baseOK
}

func TestSequentialEvaluatesBoth(t *testing.T) {
	var nRead1, nBase1, nRead2, nBase2 int
	first := countingFilter{readOK: false, baseOK: false, nRead: &nRead1, nBase: &nBase1}
	second := countingFilter{readOK: true, baseOK: true, nRead: &nRead2, nBase: &nBase2}
	seq := NewSequential[*SAMRead](first, second)
	r := &SAMRead{}
	assert.False(t, seq.IsReadOK(r))
	assert.False(t, seq.IsBaseOK(r, 0))
	assert.Equal(t, 1, nRead1)
	assert.Equal(t, 1, nRead2)
	assert.Equal(t, 1, nBase1)
	assert.Equal(t, 1, nBase2)

	both := NewSequential[*SAMRead](second, second)
	assert.True(t, both.IsReadOK(r))
	assert.True(t, both.IsBaseOK(r, 0))
}

func TestFilters(t *testing.T) {
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	rec := newTestRecord(t, ref, 10, []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)}, "ACGT", 30)
	rec.Qual[2] = 10
	r, err := NewSAMRead(rec)
	require.NoError(t, err)

	byFlags := ByFlags[*SAMRead]{Exclude: DefaultFlagExclude, Require: sam.Paired}
	assert.False(t, byFlags.IsReadOK(r))
	rec.Flags = sam.Paired | sam.Read1
	assert.True(t, byFlags.IsReadOK(r))
	rec.Flags |= sam.Duplicate
	assert.False(t, byFlags.IsReadOK(r))
	rec.Flags = sam.Paired

	byQual := ByQuality[*SAMRead]{MinMapQ: 20, MinBaseQual: 20}
	assert.True(t, byQual.IsReadOK(r))
	assert.True(t, byQual.IsBaseOK(r, 1))
	assert.False(t, byQual.IsBaseOK(r, 2))
	rec.MapQ = 5
	assert.False(t, byQual.IsReadOK(r))
	rec.MapQ = 60

	assert.True(t, ByLength[*SAMRead]{MinAlignedLen: 4}.IsReadOK(r))
	assert.False(t, ByLength[*SAMRead]{MinAlignedLen: 5}.IsReadOK(r))

	chain := NewChain[*SAMRead](ChainOpts{FlagExclude: DefaultFlagExclude, MinMapQ: 20, MinBaseQual: 20, MinAlignedLen: 1})
	assert.True(t, chain.IsReadOK(r))
	assert.False(t, chain.IsBaseOK(r, 2))
	rec.Flags = sam.Secondary
	assert.False(t, chain.IsReadOK(r))
}

func TestStrandDeductor(t *testing.T) {
	r := &SAMRead{Rec: &sam.Record{}}
	assert.Nil(t, NewStrandDeductor[*SAMRead](Unstranded))
	second := NewStrandDeductor[*SAMRead](SecondStrand)
	first := NewStrandDeductor[*SAMRead](FirstStrand)

	tests := []struct {
		flags  sam.Flags
		second string
	}{
		{0, "+"},
		{sam.Reverse, "-"},
		{sam.Paired | sam.Read1, "+"},
		{sam.Paired | sam.Read1 | sam.Reverse, "-"},
		{sam.Paired | sam.Read2, "-"},
		{sam.Paired | sam.Read2 | sam.Reverse, "+"},
	}
	for _, tt := range tests {
		r.Rec.Flags = tt.flags
		assert.Equal(t, tt.second, second(r).String(), "flags %v", tt.flags)
		assert.NotEqual(t, tt.second, first(r).String(), "flags %v", tt.flags)
	}

	lt, err := ParseLibType("fr-firststrand")
	require.NoError(t, err)
	assert.Equal(t, FirstStrand, lt)
	_, err = ParseLibType("bogus")
	assert.Error(t, err)
}
