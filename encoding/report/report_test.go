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
package report

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/hooks"
	"github.com/grailbio/rnaedit/interval"
	"github.com/grailbio/rnaedit/mismatches"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func testSite() mismatches.Site {
	return mismatches.Site{
		Interval: interval.Interval{Contig: "chr1", Start: 99, End: 100, Strand: interval.StrandForward},
		Ref:      dna.A,
		Counts:   dna.NucCounts{A: 6, G: 2},
	}
}

func testROI() mismatches.ROI {
	return mismatches.ROI{
		Interval: interval.Interval{Contig: "chr2", Start: 10, End: 20, Name: "alu1"},
		Matrix: mismatches.Summary{
			A: dna.Totals{A: 4, C: 1},
			C: dna.Totals{C: 2, G: 1},
			G: dna.Totals{G: 5, T: 1},
			T: dna.Totals{A: 10, T: 3},
		},
		Unknown: dna.Totals{C: 3},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tsv")
	assert.NoError(t, err)
	expect.EQ(t, f, TSV)
	expect.EQ(t, f.Suffix(), ".tsv")
	f, err = ParseFormat("tsv-bgz")
	assert.NoError(t, err)
	expect.EQ(t, f.Suffix(), ".tsv.gz")
	_, err = ParseFormat("vcf")
	expect.NotNil(t, err)
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	w := tsv.NewWriter(&buf)
	assert.NoError(t, WriteBatch(w, &mismatches.Batch[mismatches.Site]{Items: []mismatches.Site{testSite()}}, WriteSite))
	assert.NoError(t, WriteBatch(w, &mismatches.Batch[mismatches.ROI]{Items: []mismatches.ROI{testROI()}}, WriteROI))
	assert.NoError(t, w.Flush())
	expect.EQ(t, buf.String(),
		"chr1\t100\t+\t.\tA\t6\t0\t2\t0\t8\t2\t0.25\n"+
			"chr2\t10\t20\t.\talu1\t30\t16\t0.533333\t3\t1\t0\t0\t0\t1\t0\t0\t0\t1\t10\t0\t0\n")
}

func TestWriteDeepROI(t *testing.T) {
	roi := mismatches.ROI{
		Interval: interval.Interval{Contig: "chr1", Start: 0, End: 1000},
		Matrix:   mismatches.Summary{A: dna.Totals{A: 5000000000, G: 5000000000}},
	}
	var buf bytes.Buffer
	w := tsv.NewWriter(&buf)
	assert.NoError(t, WriteBatch(w, &mismatches.Batch[mismatches.ROI]{Items: []mismatches.ROI{roi}}, WriteROI))
	assert.NoError(t, w.Flush())
	expect.EQ(t, buf.String(),
		"chr1\t0\t1000\t.\t.\t10000000000\t5000000000\t0.5\t0\t0\t5000000000\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\n")
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	stats := []hooks.Stat{hooks.RecordCountStat{Batches: 2, Records: 3, Bases: 12, Coverage: 1234567}}
	assert.NoError(t, WriteStats(tsv.NewWriter(&buf), stats))
	expect.EQ(t, buf.String(),
		"#STAT\tKEY\tVALUE\n"+
			"records\tbatches\t2\n"+
			"records\trecords\t3\n"+
			"records\tbases\t12\n"+
			"records\tcoverage\t1234567\n")
}

func readAll(t *testing.T, path string, format Format) string {
	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close() // nolint: errcheck
	var r io.Reader = f
	if format == TSVBGZ {
		gz, err := gzip.NewReader(f)
		assert.NoError(t, err)
		r = gz
	}
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	return string(data)
}

func TestConcat(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	var spills []*Spill
	for job := 0; job < 3; job++ {
		s, err := NewSpill(tmpDir, job)
		assert.NoError(t, err)
		site := testSite()
		site.Interval.Start += interval.PosType(job)
		if job != 1 {
			// Job 1 produces no rows.
			assert.NoError(t, WriteBatch(s.Writer(), &mismatches.Batch[mismatches.Site]{Items: []mismatches.Site{site}}, WriteSite))
		}
		spills = append(spills, s)
	}
	want := SiteHeader + "\n" +
		"chr1\t100\t+\t.\tA\t6\t0\t2\t0\t8\t2\t0.25\n" +
		"chr1\t102\t+\t.\tA\t6\t0\t2\t0\t8\t2\t0.25\n"

	var sums []uint64
	for _, format := range []Format{TSV, TSVBGZ} {
		path := filepath.Join(tmpDir, "sites"+format.Suffix())
		sum, err := Concat(ctx, path, format, SiteHeader, spills, 2)
		assert.NoError(t, err)
		expect.EQ(t, readAll(t, path, format), want)
		sums = append(sums, sum)
	}
	expect.EQ(t, sums[0], sums[1])
	expect.True(t, sums[0] != 0)

	for _, s := range spills {
		assert.NoError(t, s.Remove())
		_, err := os.Stat(s.Path())
		expect.True(t, os.IsNotExist(err))
	}
}
