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
	"fmt"
	"sort"

	bstore "github.com/biogo/store/interval"
	"github.com/grailbio/base/errors"
)

// treeEntry adapts an Interval to the biogo interval tree.
type treeEntry struct {
	iv  Interval
	idx int
}

func (e treeEntry) Overlap(b bstore.IntRange) bool {
	return int(e.iv.Start) < b.End && b.Start < int(e.iv.End)
}

func (e treeEntry) ID() uintptr {
	return uintptr(e.idx)
}

func (e treeEntry) Range() bstore.IntRange {
	return bstore.IntRange{Start: int(e.iv.Start), End: int(e.iv.End)}
}

// conflicting returns the strands whose workloads must not share a position
// with a workload on strand s.  Unstranded workloads collect the reads of
// both strands, so they conflict with everything.
func conflicting(s Strand) []Strand {
	if s == StrandUnknown {
		return []Strand{StrandUnknown, StrandForward, StrandReverse}
	}
	return []Strand{s, StrandUnknown}
}

type treeKey struct {
	contig string
	strand Strand
}

// CheckDisjoint returns an errors.Invalid error naming the first pair of
// workloads that share a position.  Forward and reverse workloads may cover
// the same positions; an unstranded one may not overlap any other.  Every
// workload is also validated.
func CheckDisjoint(ws []Interval) error {
	trees := make(map[treeKey]*bstore.IntTree)
	for i, w := range ws {
		if err := w.Validate(); err != nil {
			return err
		}
		e := treeEntry{iv: w, idx: i}
		for _, s := range conflicting(w.Strand) {
			tree := trees[treeKey{w.Contig, s}]
			if tree == nil {
				continue
			}
			if hits := tree.Get(e); len(hits) != 0 {
				other := hits[0].(treeEntry).iv
				return errors.E(errors.Invalid, fmt.Sprintf("interval.CheckDisjoint: workloads %v and %v overlap", other, w))
			}
		}
		key := treeKey{w.Contig, w.Strand}
		tree := trees[key]
		if tree == nil {
			tree = &bstore.IntTree{}
			trees[key] = tree
		}
		if err := tree.Insert(e, false); err != nil {
			return err
		}
	}
	return nil
}

// Sort orders ws by contig rank, then start, then strand.  Contigs absent from
// contigOrder sort after all ranked ones, by name.
func Sort(ws []Interval, contigOrder map[string]int) {
	rank := func(contig string) int {
		if r, ok := contigOrder[contig]; ok {
			return r
		}
		return len(contigOrder)
	}
	sort.SliceStable(ws, func(i, j int) bool {
		ri, rj := rank(ws[i].Contig), rank(ws[j].Contig)
		if ri != rj {
			return ri < rj
		}
		if ws[i].Contig != ws[j].Contig {
			return ws[i].Contig < ws[j].Contig
		}
		if ws[i].Start != ws[j].Start {
			return ws[i].Start < ws[j].Start
		}
		return ws[i].Strand < ws[j].Strand
	})
}

// Partition checks that ws are disjoint and splits them into at most nJob
// contiguous, nonempty groups carrying roughly the same number of bases.
// Concatenating the groups gives back ws.
func Partition(ws []Interval, nJob int) ([][]Interval, error) {
	if err := CheckDisjoint(ws); err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, nil
	}
	if nJob <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("interval.Partition: invalid job count %d", nJob))
	}
	if nJob > len(ws) {
		nJob = len(ws)
	}
	totBases := 0
	for _, w := range ws {
		totBases += w.Len()
	}
	jobs := make([][]Interval, 0, nJob)
	startIdx := 0
	cumBases := 0
	for i, w := range ws {
		cumBases += w.Len()
		nRemainingJob := nJob - len(jobs) - 1
		nRemainingWork := len(ws) - i - 1
		// Cut once this job has its share, or when every remaining workload is
		// needed to keep the remaining jobs nonempty.
		if nRemainingJob > 0 && nRemainingWork >= nRemainingJob && (cumBases*nJob >= totBases*(len(jobs)+1) || nRemainingWork == nRemainingJob) {
			jobs = append(jobs, ws[startIdx:i+1])
			startIdx = i + 1
		}
	}
	jobs = append(jobs, ws[startIdx:])
	return jobs, nil
}
