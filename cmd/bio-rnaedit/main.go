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
package main

/*
bio-rnaedit detects RNA editing: it piles up the reads of a BAM file over a
region or a set of regions of interest, and reports the positions (sites
mode) or regions (rois mode) where the reads disagree with the reference,
along with editing-index statistics.

Outputs are <out>.sites.tsv or <out>.rois.tsv (".gz" appended with
-format=tsv-bgz), and <out>.stats.tsv.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rnaedit/editing"
)

var (
	bedPath           = flag.String("bed", editing.DefaultOpts.BedPath, "Input BED path of regions of interest; this xor -region required")
	region            = flag.String("region", editing.DefaultOpts.Region, "Restrict the analysis to the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; this xor -bed required")
	bamIndexPath      = flag.String("index", editing.DefaultOpts.BamIndexPath, "Input BAM index path. Defaults to bampath + .bai")
	mode              = flag.String("mode", editing.DefaultOpts.Mode, "'sites' reports every position passing the thresholds, 'rois' one summary per region")
	chunkSize         = flag.Int("chunk-size", editing.DefaultOpts.ChunkSize, "Length of the piled-up chunks; ROIs longer than this are piled up chunk by chunk")
	flagExclude       = flag.Int("flag-exclude", editing.DefaultOpts.FlagExclude, "Reads with a FLAG bit intersecting this value are skipped")
	flagRequire       = flag.Int("flag-require", editing.DefaultOpts.FlagRequire, "Reads missing any FLAG bit of this value are skipped")
	mapq              = flag.Int("mapq", editing.DefaultOpts.Mapq, "Reads with MAPQ below this level are skipped")
	minBaseQual       = flag.Int("min-base-qual", editing.DefaultOpts.MinBaseQual, "Lower bound on base quality in a single read")
	minReadLen        = flag.Int("min-read-len", editing.DefaultOpts.MinReadLen, "Reads with fewer aligned bases are skipped")
	libType           = flag.String("lib-type", editing.DefaultOpts.LibType, "Library type: 'unstranded', 'fr-firststrand' or 'fr-secondstrand'.  With a stranded library, regions without a strand are analysed once per strand")
	minMismatches     = flag.Int("min-mismatches", editing.DefaultOpts.MinMismatches, "Records with fewer mismatching bases are dropped")
	minFreq           = flag.Float64("min-freq", editing.DefaultOpts.MinFreq, "Records with a lower mismatch frequency are dropped")
	minCov            = flag.Int("min-cov", editing.DefaultOpts.MinCov, "Records with a lower coverage are dropped")
	includeUnknownRef = flag.Bool("include-unknown-ref", editing.DefaultOpts.IncludeUnknownRef, "Keep positions where the reference base is unknown; every base there counts as a mismatch")
	minEditedRows     = flag.Int("min-edited-rows", editing.DefaultOpts.MinEditedRows, "In rois mode, drop regions with mismatches on fewer reference bases")
	histogramBins     = flag.Int("histogram-bins", editing.DefaultOpts.HistogramBins, "Number of bins of the mismatch frequency histogram")
	format            = flag.String("format", editing.DefaultOpts.Format, "Output format; 'tsv' and 'tsv-bgz' supported")
	outPrefix         = flag.String("out", "bio-rnaedit", "Output path prefix")
	parallelism       = flag.Int("parallelism", 0, "Maximum number of simultaneous (local) jobs to launch; 0 = runtime.NumCPU()")
	tempDir           = flag.String("temp-dir", editing.DefaultOpts.TempDir, "Directory to write temporary files to (default os.TempDir())")
)

func bioRNAEditUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath fapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioRNAEditUsage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	nPositionalArgs := flag.NArg()
	positionalArgs := allArgs[len(allArgs)-nPositionalArgs:]
	if nPositionalArgs != 2 {
		if nPositionalArgs < 2 {
			log.Fatalf("Missing positional arguments (bampath and fapath required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		} else {
			log.Fatalf("Too many positional arguments (only bampath and fapath expected); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
		}
	}
	ctx := vcontext.Background()
	opts := editing.Opts{
		BedPath:           *bedPath,
		Region:            *region,
		BamIndexPath:      *bamIndexPath,
		Mode:              *mode,
		ChunkSize:         *chunkSize,
		FlagExclude:       *flagExclude,
		FlagRequire:       *flagRequire,
		Mapq:              *mapq,
		MinBaseQual:       *minBaseQual,
		MinReadLen:        *minReadLen,
		LibType:           *libType,
		MinMismatches:     *minMismatches,
		MinFreq:           *minFreq,
		MinCov:            *minCov,
		IncludeUnknownRef: *includeUnknownRef,
		MinEditedRows:     *minEditedRows,
		HistogramBins:     *histogramBins,
		Parallelism:       *parallelism,
		TempDir:           *tempDir,
		Format:            *format,
	}
	res, err := editing.Run(ctx, positionalArgs[0], positionalArgs[1], *outPrefix, &opts)
	if err != nil {
		log.Panicf("%v", err)
	}
	log.Printf("%d workloads, records in %s, stats in %s", res.Workloads, res.RecordsPath, res.StatsPath)
	log.Debug.Printf("exiting")
}
