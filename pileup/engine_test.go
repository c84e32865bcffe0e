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
	"context"
	"fmt"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/interval"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// testRead is a minimal AlignedRead with a single aligned block.
type testRead struct {
	ref    string
	flags  sam.Flags
	mapq   byte
	bases  []dna.Nucleotide
	quals  []byte
	blocks []AlignedBlock
}

func newTestRead(ref string, pos PosType, seq string) *testRead {
	r := &testRead{
		ref:   ref,
		mapq:  60,
		bases: dna.ASCIIToNucleotides(nil, seq),
		quals: make([]byte, len(seq)),
	}
	for i := range r.quals {
		r.quals[i] = 30
	}
	r.blocks = []AlignedBlock{{RefStart: pos, ReadStart: 0, Len: len(seq)}}
	return r
}

func (r *testRead) RefName() string           { return r.ref }
func (r *testRead) Flags() sam.Flags          { return r.flags }
func (r *testRead) MapQ() byte                { return r.mapq }
func (r *testRead) Len() int                  { return len(r.bases) }
func (r *testRead) Base(i int) dna.Nucleotide { return r.bases[i] }
func (r *testRead) Qual(i int) byte           { return r.quals[i] }
func (r *testRead) Blocks() []AlignedBlock    { return r.blocks }

type sliceSource struct {
	reads []*testRead
	cur   *testRead
	err   error
}

func (s *sliceSource) Scan() bool {
	if len(s.reads) == 0 {
		return false
	}
	s.cur, s.reads = s.reads[0], s.reads[1:]
	return true
}

func (s *sliceSource) Read() *testRead { return s.cur }
func (s *sliceSource) Err() error      { return s.err }

func newTestEngine(minBaseQual byte, lt LibType) *Engine[*testRead, NucCounterContent] {
	chain := NewChain[*testRead](ChainOpts{FlagExclude: DefaultFlagExclude, MinMapQ: 20, MinBaseQual: minBaseQual})
	return NewEngine[*testRead, NucCounterContent](NewNucCounter[*testRead](chain, NewStrandDeductor[*testRead](lt)))
}

func sumCounts(counts []dna.NucCounts) dna.NucCounts {
	var total dna.NucCounts
	for _, c := range counts {
		total.AddAssign(c)
	}
	return total
}

func TestEngineStateMachine(t *testing.T) {
	e := newTestEngine(0, Unstranded)
	expect.EQ(t, e.State(), Idle)

	_, err := e.Result()
	expect.True(t, errors.Is(errors.Precondition, err))
	expect.True(t, errors.Is(errors.Precondition, e.Collide(newTestRead("chr1", 0, "A"))))
	expect.True(t, errors.Is(errors.Precondition, e.Finalize()))

	expect.True(t, errors.Is(errors.Invalid, e.Reset(interval.Interval{Contig: "chr1", Start: 5, End: 5})))
	expect.EQ(t, e.State(), Idle)

	w := interval.Interval{Contig: "chr1", Start: 10, End: 14}
	assert.NoError(t, e.Reset(w))
	expect.EQ(t, e.State(), Ready)
	_, err = e.Result()
	expect.True(t, errors.Is(errors.Precondition, err))
	assert.NoError(t, e.Collide(newTestRead("chr1", 9, "ACGTA")))
	assert.NoError(t, e.Finalize())
	expect.EQ(t, e.State(), Finalized)
	expect.True(t, errors.Is(errors.Precondition, e.Collide(newTestRead("chr1", 9, "A"))))
	expect.True(t, errors.Is(errors.Precondition, e.Finalize()))

	result, err := e.Result()
	assert.NoError(t, err)
	expect.EQ(t, result.Interval, w)
	expect.EQ(t, result.Counts, []dna.NucCounts{dna.OnlyC(1), dna.OnlyG(1), dna.OnlyT(1), dna.OnlyA(1)})

	// A new cycle starts from zero.
	assert.NoError(t, e.Reset(w))
	assert.NoError(t, e.Finalize())
	result, err = e.Result()
	assert.NoError(t, err)
	expect.EQ(t, sumCounts(result.Counts), dna.Zeros())

	assert.NoError(t, e.Reset(w))
	e.Abort()
	expect.EQ(t, e.State(), Aborted)
	expect.True(t, errors.Is(errors.Precondition, e.Collide(newTestRead("chr1", 10, "A"))))
	expect.True(t, errors.Is(errors.Precondition, e.Finalize()))
	assert.NoError(t, e.Reset(w))
	expect.EQ(t, e.State(), Ready)
}

func TestEngineEndToEnd(t *testing.T) {
	// Deposit A x7, C x10, N x5, G x3, T x2, N x5 one base at a time over a
	// 7-position interval.
	var seq []byte
	for _, part := range []struct {
		c byte
		n int
	}{{'A', 7}, {'C', 10}, {'N', 5}, {'G', 3}, {'T', 2}, {'N', 5}} {
		for i := 0; i < part.n; i++ {
			seq = append(seq, part.c)
		}
	}
	w := interval.Interval{Contig: "chr1", Start: 100, End: 107}
	src := &sliceSource{}
	for i, c := range seq {
		src.reads = append(src.reads, newTestRead("chr1", w.Start+PosType(i%7), string(c)))
	}
	e := newTestEngine(0, Unstranded)
	result, err := e.Run(context.Background(), w, src)
	assert.NoError(t, err)
	expect.EQ(t, len(result.Counts), 7)

	var want dna.NucCounts
	want.Increment(dna.ASCIIToNucleotides(nil, string(seq)))
	expect.EQ(t, want, dna.NucCounts{A: 7, C: 10, G: 3, T: 2})
	expect.EQ(t, sumCounts(result.Counts), want)
}

func TestNucCounterGating(t *testing.T) {
	w := interval.Interval{Contig: "chr1", Start: 100, End: 105}
	lowMapq := newTestRead("chr1", 100, "AAAAA")
	lowMapq.mapq = 5
	dup := newTestRead("chr1", 100, "AAAAA")
	dup.flags = sam.Duplicate
	lowQual := newTestRead("chr1", 100, "GGGGG")
	lowQual.quals[0] = 2
	src := &sliceSource{reads: []*testRead{
		newTestRead("chr1", 95, "CCCCCCCC"), // overhangs the start
		newTestRead("chr1", 104, "TTTT"),    // overhangs the end
		newTestRead("chr2", 100, "AAAAA"),   // wrong contig
		newTestRead("chr1", 200, "AAAAA"),   // outside
		lowMapq,
		dup,
		lowQual,
	}}
	e := newTestEngine(20, Unstranded)
	result, err := e.Run(context.Background(), w, src)
	assert.NoError(t, err)
	expect.EQ(t, result.Counts, []dna.NucCounts{
		{C: 1},
		{C: 1, G: 1},
		{C: 1, G: 1},
		{G: 1},
		{G: 1, T: 1},
	})
}

func TestNucCounterReverseWorkload(t *testing.T) {
	plus := newTestRead("chr1", 0, "AACG")
	plus.flags = sam.Paired | sam.Read1
	minus := newTestRead("chr1", 0, "AACG")
	minus.flags = sam.Paired | sam.Read1 | sam.Reverse

	// Second-strand library: the reverse-mapped read 1 belongs to the minus
	// strand; its counts are complemented.
	e := newTestEngine(0, SecondStrand)
	w := interval.Interval{Contig: "chr1", Start: 0, End: 4, Strand: interval.StrandReverse}
	result, err := e.Run(context.Background(), w, &sliceSource{reads: []*testRead{plus, minus}})
	assert.NoError(t, err)
	expect.EQ(t, result.Counts, []dna.NucCounts{dna.OnlyT(1), dna.OnlyT(1), dna.OnlyG(1), dna.OnlyC(1)})

	w.Strand = interval.StrandForward
	result, err = e.Run(context.Background(), w, &sliceSource{reads: []*testRead{plus, minus}})
	assert.NoError(t, err)
	expect.EQ(t, result.Counts, []dna.NucCounts{dna.OnlyA(1), dna.OnlyA(1), dna.OnlyC(1), dna.OnlyG(1)})

	// Unstranded libraries keep both reads.
	e = newTestEngine(0, Unstranded)
	w.Strand = interval.StrandReverse
	result, err = e.Run(context.Background(), w, &sliceSource{reads: []*testRead{plus, minus}})
	assert.NoError(t, err)
	expect.EQ(t, result.Counts[0], dna.OnlyT(2))
}

func TestEngineRunErrors(t *testing.T) {
	w := interval.Interval{Contig: "chr1", Start: 0, End: 10}
	e := newTestEngine(0, Unstranded)

	srcErr := fmt.Errorf("decode failure")
	_, err := e.Run(context.Background(), w, &sliceSource{reads: []*testRead{newTestRead("chr1", 0, "A")}, err: srcErr})
	expect.EQ(t, err, srcErr)
	expect.EQ(t, e.State(), Aborted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, w, &sliceSource{reads: []*testRead{newTestRead("chr1", 0, "A")}})
	expect.True(t, errors.Is(errors.Canceled, err))
	expect.EQ(t, e.State(), Aborted)

	_, err = e.Run(context.Background(), interval.Interval{Contig: "chr1"}, &sliceSource{})
	expect.True(t, errors.Is(errors.Invalid, err))
}
