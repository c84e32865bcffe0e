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
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/encoding/bamprovider"
	"github.com/grailbio/rnaedit/encoding/fasta"
	"github.com/grailbio/rnaedit/encoding/report"
	"github.com/grailbio/rnaedit/hooks"
	"github.com/grailbio/rnaedit/interval"
	"github.com/grailbio/rnaedit/mismatches"
	"github.com/grailbio/rnaedit/pileup"
)

// Reference serves reference bases.  *fasta.Reference implements it.
type Reference interface {
	Nucleotides(contig string, start, end interval.PosType) ([]dna.Nucleotide, error)
}

// Result describes the files written by Run.
type Result struct {
	// RecordsPath is the path of the site or ROI table.
	RecordsPath string
	// StatsPath is the path of the statistics table.
	StatsPath string
	// Checksum is the seahash of the uncompressed record table.
	Checksum uint64
	// Workloads is the number of workloads processed: chunks in sites mode,
	// ROIs in rois mode.
	Workloads int
	// Stats are the merged statistics.
	Stats []hooks.Stat
}

// Run detects mismatches between the reads of the BAM file at bamPath and
// the reference at fastaPath.  The records are written to
// <outPrefix>.sites.tsv or <outPrefix>.rois.tsv (".gz" appended for
// tsv-bgz), and the statistics to <outPrefix>.stats.tsv.
func Run(ctx context.Context, bamPath, fastaPath, outPrefix string, opts *Opts) (res Result, err error) {
	if _, err = parseOpts(opts); err != nil {
		return res, err
	}
	provider := bamprovider.NewProvider(bamPath, bamprovider.ProviderOpts{Index: opts.BamIndexPath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	ref, err := fasta.Open(ctx, fastaPath)
	if err != nil {
		return res, err
	}
	defer func() {
		if e := ref.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	return RunWith(ctx, provider, ref, outPrefix, opts)
}

// RunWith is Run on an open provider and reference.  The caller keeps the
// ownership of both.
func RunWith(ctx context.Context, provider bamprovider.Provider, ref Reference, outPrefix string, opts *Opts) (Result, error) {
	c, err := parseOpts(opts)
	if err != nil {
		return Result{}, err
	}
	header, err := provider.GetHeader()
	if err != nil {
		return Result{}, err
	}
	ws, err := workloads(opts, c, header)
	if err != nil {
		return Result{}, err
	}
	p := pipeline{
		c:         c,
		provider:  provider,
		ref:       ref,
		outPrefix: outPrefix,
	}
	switch c.mode {
	case roiMode:
		return runMode(ctx, p, ws, roiStage(c))
	default:
		return runMode(ctx, p, ws, siteStage(c))
	}
}

// workloads loads the regions named by opts, clamps them to the contigs of
// header, and orders them as the contigs of header.  With a stranded library,
// unstranded regions are replaced by one region per strand.
func workloads(opts *Opts, c config, header *sam.Header) ([]interval.Interval, error) {
	var regions []interval.Interval
	if opts.BedPath != "" {
		var err error
		if regions, err = interval.LoadBEDFromPath(opts.BedPath, interval.BEDOpts{IgnoreStrand: c.libType == pileup.Unstranded}); err != nil {
			return nil, err
		}
	} else {
		iv, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, err
		}
		regions = []interval.Interval{iv}
	}
	order := map[string]int{}
	lengths := map[string]int{}
	for i, ref := range header.Refs() {
		order[ref.Name()] = i
		lengths[ref.Name()] = ref.Len()
	}
	var ws []interval.Interval
	nSkipped := 0
	for _, iv := range regions {
		n, ok := lengths[iv.Contig]
		if !ok {
			log.Debug.Printf("editing: skipping %v: contig not in the BAM header", iv)
			nSkipped++
			continue
		}
		iv = iv.ClampTo(n)
		if iv.Validate() != nil {
			nSkipped++
			continue
		}
		if c.libType != pileup.Unstranded && iv.Strand == interval.StrandUnknown {
			fwd, rev := iv, iv
			fwd.Strand, rev.Strand = interval.StrandForward, interval.StrandReverse
			ws = append(ws, fwd, rev)
			continue
		}
		ws = append(ws, iv)
	}
	if nSkipped > 0 {
		log.Printf("editing: skipped %d of %d regions outside the BAM contigs", nSkipped, len(regions))
	}
	interval.Sort(ws, order)
	return ws, nil
}

type pipeline struct {
	c         config
	provider  bamprovider.Provider
	ref       Reference
	outPrefix string
}

// pileFunc piles up one workload and returns its content with the
// forward-strand reference of the workload.  The content is valid until the
// next call.
type pileFunc func(ctx context.Context, w interval.Interval) (pileup.NucCounterContent, []dna.Nucleotide, error)

// stage is the mode-specific part of the pipeline.
type stage[T mismatches.Record] struct {
	name   string
	header string
	// units turns regions into workloads, each yielding one Batch.
	units func(regions []interval.Interval) []interval.Interval
	// collect builds the records of one workload.
	collect func(ctx context.Context, pile pileFunc, w interval.Interval) ([]T, error)
	write   report.RecordWriter[T]
	hooks   hooks.Factory[T]
}

func siteStage(c config) stage[mismatches.Site] {
	keep := func(p mismatches.SitePreview) bool { return c.prefilter.IsOK(p) }
	return stage[mismatches.Site]{
		name:   "sites",
		header: report.SiteHeader,
		units: func(regions []interval.Interval) []interval.Interval {
			var ws []interval.Interval
			for _, r := range regions {
				ws = append(ws, r.Split(c.chunkSize)...)
			}
			return ws
		},
		collect: func(ctx context.Context, pile pileFunc, w interval.Interval) ([]mismatches.Site, error) {
			content, ref, err := pile(ctx, w)
			if err != nil {
				return nil, err
			}
			return mismatches.CollectSites(content, ref, c.policy, keep), nil
		},
		write: report.WriteSite,
		hooks: func() *hooks.Engine[mismatches.Site] {
			return hooks.NewEngine[mismatches.Site](c.prefilter,
				&hooks.EditingIndex[mismatches.Site]{},
				hooks.NewFrequencyHistogram[mismatches.Site](c.histogramBins),
				&hooks.RecordCounter[mismatches.Site]{})
		},
	}
}

// roiStage piles up every ROI chunk by chunk, so memory is bounded by the
// chunk size, and merges the chunk summaries into one record per ROI.
func roiStage(c config) stage[mismatches.ROI] {
	return stage[mismatches.ROI]{
		name:   "rois",
		header: report.ROIHeader,
		units:  func(regions []interval.Interval) []interval.Interval { return regions },
		collect: func(ctx context.Context, pile pileFunc, w interval.Interval) ([]mismatches.ROI, error) {
			roi := mismatches.ROI{Interval: w}
			for _, chunk := range w.Split(c.chunkSize) {
				content, ref, err := pile(ctx, chunk)
				if err != nil {
					return nil, err
				}
				roi = roi.Merge(mismatches.SummarizeROI(content, ref, c.policy))
			}
			return []mismatches.ROI{roi}, nil
		},
		write: report.WriteROI,
		hooks: func() *hooks.Engine[mismatches.ROI] {
			return hooks.NewEngine[mismatches.ROI](c.prefilter,
				hooks.MinEditedRows[mismatches.ROI]{N: c.minEditedRows},
				&hooks.EditingIndex[mismatches.ROI]{},
				hooks.NewFrequencyHistogram[mismatches.ROI](c.histogramBins),
				&hooks.RecordCounter[mismatches.ROI]{})
		},
	}
}

// job owns everything one worker needs to process a run of workloads.
type job[T mismatches.Record] struct {
	p      *pipeline
	s      *stage[T]
	engine *pileup.Engine[*pileup.SAMRead, pileup.NucCounterContent]
	hooks  *hooks.Engine[T]
	spill  *report.Spill
}

func newJob[T mismatches.Record](p *pipeline, s *stage[T], spill *report.Spill) *job[T] {
	c := p.c
	collider := pileup.NewNucCounter[*pileup.SAMRead](
		pileup.NewChain[*pileup.SAMRead](c.chain),
		pileup.NewStrandDeductor[*pileup.SAMRead](c.libType))
	return &job[T]{
		p:      p,
		s:      s,
		engine: pileup.NewEngine[*pileup.SAMRead, pileup.NucCounterContent](collider),
		hooks:  s.hooks(),
		spill:  spill,
	}
}

// pile runs the collision engine over w.
func (j *job[T]) pile(ctx context.Context, w interval.Interval) (pileup.NucCounterContent, []dna.Nucleotide, error) {
	iter := j.p.provider.NewIterator(w)
	content, err := j.engine.Run(ctx, w, pileup.NewSAMSource(iter))
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return content, nil, errors.E(err, fmt.Sprintf("editing: %v", w))
	}
	ref, err := j.p.ref.Nucleotides(w.Contig, w.Start, w.End)
	if err != nil {
		return content, nil, errors.E(err, fmt.Sprintf("editing: %v", w))
	}
	return content, ref, nil
}

// process reduces w to records and writes the records that pass the hooks
// to the spill file.
func (j *job[T]) process(ctx context.Context, w interval.Interval) error {
	items, err := j.s.collect(ctx, j.pile, w)
	if err != nil {
		return err
	}
	batch := &mismatches.Batch[T]{Workload: w, Items: items}
	j.hooks.OnFinish(batch)
	return report.WriteBatch(j.spill.Writer(), batch, j.s.write)
}

func runMode[T mismatches.Record](ctx context.Context, p pipeline, regions []interval.Interval, s stage[T]) (res Result, err error) {
	ws := s.units(regions)
	res.Workloads = len(ws)
	jobs, err := interval.Partition(ws, p.c.parallelism)
	if err != nil {
		return res, err
	}
	log.Printf("editing: %s mode, %d workloads, starting main loop (%d jobs)", s.name, len(ws), len(jobs))

	spills := make([]*report.Spill, len(jobs))
	defer func() {
		for _, sp := range spills {
			if sp == nil {
				continue
			}
			if e := sp.Remove(); e != nil {
				log.Error.Printf("editing: %v", e)
			}
		}
	}()
	stats := make([][]hooks.Stat, len(jobs))
	err = traverse.Each(len(jobs), func(jobIdx int) error {
		spill, err := report.NewSpill(p.c.tempDir, jobIdx)
		if err != nil {
			return err
		}
		spills[jobIdx] = spill
		j := newJob(&p, &s, spill)
		for _, w := range jobs[jobIdx] {
			if err := j.process(ctx, w); err != nil {
				return err
			}
		}
		stats[jobIdx] = j.hooks.Stats()
		return spill.Close()
	})
	if err != nil {
		return res, err
	}
	if len(jobs) == 0 {
		// Stats still carry the empty value of every hook.
		stats = append(stats, s.hooks().Stats())
	}
	if res.Stats, err = hooks.Merge(stats...); err != nil {
		return res, err
	}

	res.RecordsPath = p.outPrefix + "." + s.name + p.c.format.Suffix()
	if res.Checksum, err = report.Concat(ctx, res.RecordsPath, p.c.format, s.header, spills, p.c.parallelism); err != nil {
		return res, err
	}
	log.Printf("editing: wrote %s (seahash %016x)", res.RecordsPath, res.Checksum)
	res.StatsPath = p.outPrefix + ".stats.tsv"
	if err = writeStats(ctx, res.StatsPath, res.Stats); err != nil {
		return res, err
	}
	log.Printf("editing: wrote %s", res.StatsPath)
	return res, nil
}

func writeStats(ctx context.Context, path string, stats []hooks.Stat) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return report.WriteStats(tsv.NewWriter(out.Writer(ctx)), stats)
}
