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
package bamprovider_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/encoding/bamprovider"
	"github.com/grailbio/rnaedit/interval"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
)

type testRec struct {
	name string
	ref  int // index into refs, -1 for unmapped
	pos  int
	len  int
}

func newTestData(t *testing.T) (*sam.Header, []*sam.Record) {
	chr1, err := sam.NewReference("chr1", "", "", 10000, nil, nil)
	require.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 5000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	refs := []*sam.Reference{chr1, chr2}

	var recs []*sam.Record
	for _, r := range []testRec{
		{"a", 0, 10, 20},
		{"b", 0, 95, 10},
		{"c", 0, 100, 50},
		{"d", 0, 140, 5},
		{"e", 0, 9000, 30},
		{"f", 1, 0, 10},
		{"g", 1, 4990, 10},
		{"u", -1, -1, 4},
	} {
		seq := make([]byte, r.len)
		qual := make([]byte, r.len)
		for i := range seq {
			seq[i] = "ACGT"[i%4]
			qual[i] = 30
		}
		var (
			ref   *sam.Reference
			cigar []sam.CigarOp
			flags sam.Flags
		)
		if r.ref >= 0 {
			ref = refs[r.ref]
			cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, r.len)}
		} else {
			flags = sam.Unmapped
		}
		rec, err := sam.NewRecord(r.name, ref, nil, r.pos, -1, 0, 60, cigar, seq, qual, nil)
		require.NoError(t, err)
		rec.Flags = flags
		recs = append(recs, rec)
	}
	return header, recs
}

func writeBAM(t *testing.T, ctx context.Context, path string, header *sam.Header, recs []*sam.Record) {
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), header, 1)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close(ctx))
	require.NoError(t, bamprovider.WriteIndex(ctx, path, path+".bai"))
}

func readNames(t *testing.T, p bamprovider.Provider, iv interval.Interval) []string {
	iter := p.NewIterator(iv)
	names := []string{}
	for iter.Scan() {
		rec := iter.Record()
		names = append(names, rec.Name)
		sam.PutInFreePool(rec)
	}
	require.NoError(t, iter.Err())
	require.NoError(t, iter.Close())
	return names
}

var overlapTests = []struct {
	iv   interval.Interval
	want []string
}{
	{interval.Interval{Contig: "chr1", Start: 0, End: 10000}, []string{"a", "b", "c", "d", "e"}},
	{interval.Interval{Contig: "chr1", Start: 100, End: 101}, []string{"b", "c"}},
	{interval.Interval{Contig: "chr1", Start: 105, End: 141}, []string{"c", "d"}},
	{interval.Interval{Contig: "chr1", Start: 30, End: 95}, []string{}},
	{interval.Interval{Contig: "chr1", Start: 145, End: 8000}, []string{"c"}},
	{interval.Interval{Contig: "chr1", Start: 150, End: 8000}, []string{}},
	{interval.Interval{Contig: "chr2", Start: 0, End: 5000, Strand: interval.StrandReverse}, []string{"f", "g"}},
	{interval.Interval{Contig: "chr2", Start: 4995, End: 6000}, []string{"g"}},
}

func TestBAMProvider(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	header, recs := newTestData(t)
	path := filepath.Join(tmpDir, "test.bam")
	writeBAM(t, ctx, path, header, recs)

	p := bamprovider.NewProvider(path)
	h, err := p.GetHeader()
	require.NoError(t, err)
	require.Equal(t, 2, len(h.Refs()))
	// Repeat to exercise iterator reuse.
	for i := 0; i < 2; i++ {
		for _, tt := range overlapTests {
			require.Equal(t, tt.want, readNames(t, p, tt.iv), "%v", tt.iv)
		}
	}
	// Two iterators may be active at once.
	i1 := p.NewIterator(interval.Interval{Contig: "chr1", Start: 0, End: 50})
	i2 := p.NewIterator(interval.Interval{Contig: "chr2", Start: 0, End: 50})
	require.True(t, i1.Scan())
	require.True(t, i2.Scan())
	require.Equal(t, "a", i1.Record().Name)
	require.Equal(t, "f", i2.Record().Name)
	require.False(t, i1.Scan())
	require.NoError(t, i1.Close())
	require.NoError(t, i2.Close())
	require.NoError(t, p.Close())
}

func TestBAMProviderErrors(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	header, recs := newTestData(t)
	path := filepath.Join(tmpDir, "test.bam")
	writeBAM(t, ctx, path, header, recs)

	p := bamprovider.NewProvider(path)
	iter := p.NewIterator(interval.Interval{Contig: "chrX", Start: 0, End: 10})
	require.False(t, iter.Scan())
	require.True(t, errors.Is(errors.NotExist, iter.Close()))
	require.Error(t, p.Close())

	p = bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: filepath.Join(tmpDir, "missing.bai")})
	iter = p.NewIterator(interval.Interval{Contig: "chr1", Start: 0, End: 10})
	require.False(t, iter.Scan())
	require.Error(t, iter.Close())
	require.Error(t, p.Close())

	iter = bamprovider.NewErrorIterator(fmt.Errorf("boom"))
	require.False(t, iter.Scan())
	require.EqualError(t, iter.Err(), "boom")
}

func TestFakeProvider(t *testing.T) {
	header, recs := newTestData(t)
	p := bamprovider.NewFakeProvider(header, recs)
	h, err := p.GetHeader()
	require.NoError(t, err)
	require.Equal(t, header, h)
	for _, tt := range overlapTests {
		require.Equal(t, tt.want, readNames(t, p, tt.iv), "%v", tt.iv)
	}
	// Records handed out are copies.
	iter := p.NewIterator(interval.Interval{Contig: "chr1", Start: 0, End: 20})
	require.True(t, iter.Scan())
	iter.Record().Name = "changed"
	require.NoError(t, iter.Close())
	require.Equal(t, "a", recs[0].Name)
	require.NoError(t, p.Close())
}
