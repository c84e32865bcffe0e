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
package editing

import (
	"fmt"
	"math"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/encoding/report"
	"github.com/grailbio/rnaedit/hooks"
	"github.com/grailbio/rnaedit/mismatches"
	"github.com/grailbio/rnaedit/pileup"
)

// Opts holds the command-line options.
type Opts struct {
	// BedPath is a BED file of regions of interest.  Exactly one of BedPath
	// and Region must be set.
	BedPath string
	// Region is a samtools-style region, e.g. "chr1:1001-2000" or "chr1".
	Region string
	// BamIndexPath is the .bai path; defaults to the BAM path + ".bai".
	BamIndexPath string
	// Mode is "sites" (one record per position) or "rois" (one record per
	// region).
	Mode string
	// ChunkSize is the length of a pileup.  In sites mode it is the workload
	// length; in rois mode longer ROIs are piled up chunk by chunk.
	ChunkSize int

	FlagExclude int
	FlagRequire int
	Mapq        int
	MinBaseQual int
	// MinReadLen is the minimum number of aligned bases of a read.
	MinReadLen int
	// LibType is "unstranded", "fr-firststrand" or "fr-secondstrand".  With a
	// stranded library, regions without a strand are analysed once per strand.
	LibType string

	MinMismatches int
	MinFreq       float64
	MinCov        int
	// IncludeUnknownRef keeps positions without a reference call; every base
	// observed there counts as a mismatch.
	IncludeUnknownRef bool
	// MinEditedRows drops ROIs with mismatches on fewer reference bases
	// (rois mode only).
	MinEditedRows int
	// HistogramBins is the number of bins of the frequency histogram.
	HistogramBins int

	// Parallelism is the number of jobs; 0 means the number of CPUs.
	Parallelism int
	// TempDir holds the per-job spill files.
	TempDir string
	// Format is "tsv" or "tsv-bgz".
	Format string
}

// DefaultOpts are the default options.
var DefaultOpts = Opts{
	Mode:          "sites",
	ChunkSize:     100000,
	FlagExclude:   int(pileup.DefaultFlagExclude),
	Mapq:          20,
	MinBaseQual:   20,
	LibType:       "unstranded",
	HistogramBins: 20,
	Format:        "tsv",
}

type mode int

const (
	siteMode mode = iota
	roiMode
)

// config is Opts, validated and parsed.
type config struct {
	mode          mode
	chunkSize     int
	chain         pileup.ChainOpts
	libType       pileup.LibType
	prefilter     hooks.ByMismatches
	policy        mismatches.UnknownPolicy
	minEditedRows int
	histogramBins int
	parallelism   int
	tempDir       string
	format        report.Format
}

func invalidf(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf("editing: "+format, args...))
}

func checkRange(name string, v, max int) error {
	if v < 0 || v > max {
		return invalidf("%s=%d outside [0, %d]", name, v, max)
	}
	return nil
}

// parseOpts validates opts.  All errors are errors.Invalid.
func parseOpts(opts *Opts) (c config, err error) {
	if (opts.BedPath == "") == (opts.Region == "") {
		return c, invalidf("exactly one of bed and region must be set")
	}
	switch opts.Mode {
	case "sites":
		c.mode = siteMode
	case "rois":
		c.mode = roiMode
	default:
		return c, invalidf("unknown mode %q", opts.Mode)
	}
	if c.chunkSize = opts.ChunkSize; c.chunkSize <= 0 {
		return c, invalidf("chunk-size must be positive, got %d", opts.ChunkSize)
	}
	for _, r := range []struct {
		name string
		v    int
		max  int
	}{
		{"flag-exclude", opts.FlagExclude, 0xffff},
		{"flag-require", opts.FlagRequire, 0xffff},
		{"mapq", opts.Mapq, math.MaxUint8},
		{"min-base-qual", opts.MinBaseQual, math.MaxUint8},
		{"min-read-len", opts.MinReadLen, math.MaxInt32},
		{"min-mismatches", opts.MinMismatches, math.MaxInt32},
		{"min-cov", opts.MinCov, math.MaxInt32},
		{"min-edited-rows", opts.MinEditedRows, 4},
	} {
		if err = checkRange(r.name, r.v, r.max); err != nil {
			return
		}
	}
	if opts.FlagExclude&opts.FlagRequire != 0 {
		return c, invalidf("flags 0x%x are both required and excluded", opts.FlagExclude&opts.FlagRequire)
	}
	c.chain = pileup.ChainOpts{
		FlagExclude:   sam.Flags(opts.FlagExclude),
		FlagRequire:   sam.Flags(opts.FlagRequire),
		MinMapQ:       byte(opts.Mapq),
		MinBaseQual:   byte(opts.MinBaseQual),
		MinAlignedLen: opts.MinReadLen,
	}
	if c.libType, err = pileup.ParseLibType(opts.LibType); err != nil {
		return
	}
	if c.prefilter, err = hooks.NewByMismatches(uint32(opts.MinMismatches), float32(opts.MinFreq), uint32(opts.MinCov)); err != nil {
		return
	}
	if opts.IncludeUnknownRef {
		c.policy = mismatches.IncludeUnknown
	}
	c.minEditedRows = opts.MinEditedRows
	if c.histogramBins = opts.HistogramBins; c.histogramBins <= 0 {
		return c, invalidf("histogram-bins must be positive, got %d", opts.HistogramBins)
	}
	if c.parallelism = opts.Parallelism; c.parallelism <= 0 {
		c.parallelism = runtime.NumCPU()
	}
	c.tempDir = opts.TempDir
	if c.format, err = report.ParseFormat(opts.Format); err != nil {
		return
	}
	return c, nil
}
