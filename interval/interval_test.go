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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region string
		contig string
		start  PosType
		end    PosType
	}{
		{"chr1:1-1000", "chr1", 0, 1000},
		{"chr1:1,001-2,000", "chr1", 1000, 2000},
		{"chr1:1000", "chr1", 999, 1000},
		{"chr1:10-10", "chr1", 9, 10},
		{"chr1", "chr1", 0, PosTypeMax - 1},
	}
	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, result.Contig, tt.contig)
		expect.EQ(t, result.Start, tt.start)
		expect.EQ(t, result.End, tt.end)
	}
	for _, bad := range []string{"", ":1-2", "chr1:0", "chr1:5-4", "chr1:x-4"} {
		_, err := ParseRegionString(bad)
		expect.True(t, errors.Is(errors.Invalid, err), "region %q", bad)
	}
}

func TestValidateAndSplit(t *testing.T) {
	expect.NoError(t, Interval{Contig: "chr1", Start: 0, End: 1}.Validate())
	for _, bad := range []Interval{
		{Contig: "", Start: 0, End: 1},
		{Contig: "chr1", Start: 5, End: 5},
		{Contig: "chr1", Start: -1, End: 5},
	} {
		expect.True(t, errors.Is(errors.Invalid, bad.Validate()))
	}

	iv := Interval{Contig: "chr1", Start: 10, End: 35, Strand: StrandReverse}
	pieces := iv.Split(10)
	expect.EQ(t, len(pieces), 3)
	expect.EQ(t, pieces[0], Interval{Contig: "chr1", Start: 10, End: 20, Strand: StrandReverse})
	expect.EQ(t, pieces[2], Interval{Contig: "chr1", Start: 30, End: 35, Strand: StrandReverse})
	expect.EQ(t, iv.Split(0), []Interval{iv})
	expect.EQ(t, iv.ClampTo(20).End, PosType(20))

	start, end := iv.Clip(0, 15)
	expect.EQ(t, start, PosType(10))
	expect.EQ(t, end, PosType(15))
	expect.EQ(t, Site("chr2", 7, StrandForward).Len(), 1)
}

const testBED = `track name=rois
chr1	100	200	roi1	0	+
chr1	300	310	roi2	0	-
# comment
chr2	0	50
`

func TestLoadBED(t *testing.T) {
	rois, err := LoadBED(strings.NewReader(testBED), BEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, rois, []Interval{
		{Contig: "chr1", Start: 100, End: 200, Strand: StrandForward, Name: "roi1"},
		{Contig: "chr1", Start: 300, End: 310, Strand: StrandReverse, Name: "roi2"},
		{Contig: "chr2", Start: 0, End: 50},
	})

	rois, err = LoadBED(strings.NewReader(testBED), BEDOpts{OneBasedInput: true, IgnoreStrand: true})
	assert.NoError(t, err)
	expect.EQ(t, rois[0].Start, PosType(99))
	expect.EQ(t, rois[1].Strand, StrandUnknown)

	_, err = LoadBED(strings.NewReader("chr1\t10\n"), BEDOpts{})
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = LoadBED(strings.NewReader("chr1\t10\t5\n"), BEDOpts{})
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = LoadBED(strings.NewReader("chr1\t1\t5\tx\t0\t*\n"), BEDOpts{})
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestLoadBEDFromPathGzip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	path := filepath.Join(tmpdir, "rois.bed.gz")
	f, err := os.Create(path)
	assert.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, f.Close())

	rois, err := LoadBEDFromPath(path, BEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, len(rois), 3)
	expect.EQ(t, rois[1].Name, "roi2")
}

func TestCheckDisjoint(t *testing.T) {
	ws := []Interval{
		{Contig: "chr1", Start: 0, End: 10},
		{Contig: "chr1", Start: 10, End: 20},
		{Contig: "chr2", Start: 5, End: 15},
	}
	expect.NoError(t, CheckDisjoint(ws))
	ws = append(ws, Interval{Contig: "chr1", Start: 19, End: 25})
	expect.True(t, errors.Is(errors.Invalid, CheckDisjoint(ws)))
	expect.True(t, errors.Is(errors.Invalid, CheckDisjoint([]Interval{{Contig: "chr1", Start: 3, End: 3}})))

	// Opposite strands may share positions; unstranded workloads may not.
	stranded := []Interval{
		{Contig: "chr1", Start: 0, End: 10, Strand: StrandForward},
		{Contig: "chr1", Start: 0, End: 10, Strand: StrandReverse},
		{Contig: "chr1", Start: 5, End: 15, Strand: StrandReverse},
	}
	expect.True(t, errors.Is(errors.Invalid, CheckDisjoint(stranded)))
	expect.NoError(t, CheckDisjoint(stranded[:2]))
	expect.True(t, errors.Is(errors.Invalid, CheckDisjoint(append(stranded[:2:2], Interval{Contig: "chr1", Start: 9, End: 12}))))
	expect.True(t, errors.Is(errors.Invalid, CheckDisjoint([]Interval{
		{Contig: "chr1", Start: 9, End: 12},
		{Contig: "chr1", Start: 0, End: 10, Strand: StrandReverse},
	})))
}

func TestSortAndPartition(t *testing.T) {
	ws := []Interval{
		{Contig: "chrX", Start: 0, End: 100},
		{Contig: "chr2", Start: 50, End: 60},
		{Contig: "chr1", Start: 100, End: 200},
		{Contig: "chr1", Start: 0, End: 100},
		{Contig: "chrUn", Start: 0, End: 10},
	}
	Sort(ws, map[string]int{"chr1": 0, "chr2": 1, "chrX": 2})
	expect.EQ(t, ws[0].Start, PosType(0))
	expect.EQ(t, ws[1].Start, PosType(100))
	expect.EQ(t, ws[2].Contig, "chr2")
	expect.EQ(t, ws[4].Contig, "chrUn")

	pair := []Interval{
		{Contig: "chr1", Start: 0, End: 10, Strand: StrandReverse},
		{Contig: "chr1", Start: 0, End: 10, Strand: StrandForward},
	}
	Sort(pair, map[string]int{"chr1": 0})
	expect.EQ(t, pair[0].Strand, StrandForward)

	for nJob := 1; nJob <= 7; nJob++ {
		jobs, err := Partition(ws, nJob)
		assert.NoError(t, err)
		want := nJob
		if want > len(ws) {
			want = len(ws)
		}
		expect.EQ(t, len(jobs), want)
		var flat []Interval
		for _, job := range jobs {
			expect.True(t, len(job) > 0)
			flat = append(flat, job...)
		}
		expect.EQ(t, flat, ws)
	}
	_, err := Partition(ws, 0)
	expect.True(t, errors.Is(errors.Invalid, err))
}
