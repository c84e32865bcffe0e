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
package fasta

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// IndexEntry is one line of a .fai index.
type IndexEntry struct {
	Name string
	// Length is the number of bases in the sequence.
	Length uint64
	// Offset is the byte offset of the first base.
	Offset uint64
	// LineBases is the number of bases per line.
	LineBases uint64
	// LineWidth is the number of bytes per line, terminator included.
	LineWidth uint64
}

// faiRecord is the on-disk layout of a .fai line.
type faiRecord struct {
	Name      string
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

// ReadIndex parses a .fai index.
func ReadIndex(in io.Reader) ([]IndexEntry, error) {
	r := tsv.NewReader(in)
	var entries []IndexEntry
	for {
		var rec faiRecord
		if err := r.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "fasta: read index")
		}
		if rec.Length < 0 || rec.Offset < 0 || rec.LineBases <= 0 || rec.LineWidth < rec.LineBases {
			return nil, errors.Errorf("fasta: index entry %+v: bad geometry", rec)
		}
		entries = append(entries, IndexEntry{
			Name:      rec.Name,
			Length:    uint64(rec.Length),
			Offset:    uint64(rec.Offset),
			LineBases: uint64(rec.LineBases),
			LineWidth: uint64(rec.LineWidth),
		})
	}
	return entries, nil
}

type indexedFasta struct {
	entries  map[string]IndexEntry
	seqNames []string

	mu  sync.Mutex
	in  io.ReadSeeker
	buf []byte
}

// NewIndexed returns a Fasta that reads bases from in on demand, using the
// .fai index read from index.
func NewIndexed(in io.ReadSeeker, index io.Reader) (Fasta, error) {
	entries, err := ReadIndex(index)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	f := &indexedFasta{entries: make(map[string]IndexEntry, len(entries)), in: in}
	for _, e := range entries {
		f.entries[e.Name] = e
		f.seqNames = append(f.seqNames, e.Name)
	}
	return f, nil
}

// Get implements Fasta.
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return "", errors.Errorf("fasta: sequence not found in index: %s", seqName)
	}
	if err := checkRange(seqName, start, end, e.Length); err != nil {
		return "", err
	}
	// File offsets of the first base and one past the last base.
	fileOff := func(pos uint64) uint64 {
		return e.Offset + pos/e.LineBases*e.LineWidth + pos%e.LineBases
	}
	from, to := fileOff(start), fileOff(end-1)+1

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.in.Seek(int64(from), io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "fasta: seek %s:%d", seqName, start)
	}
	if n := int(to - from); cap(f.buf) < n {
		f.buf = make([]byte, n)
	} else {
		f.buf = f.buf[:n]
	}
	if _, err := io.ReadFull(f.in, f.buf); err != nil {
		return "", errors.Wrapf(err, "fasta: read %s:%d-%d (bad index?)", seqName, start, end)
	}
	var seq strings.Builder
	seq.Grow(int(end - start))
	col := (from - e.Offset) % e.LineWidth
	for _, b := range f.buf {
		if col < e.LineBases {
			seq.WriteByte(b)
		}
		if col++; col == e.LineWidth {
			col = 0
		}
	}
	return seq.String(), nil
}

// Len implements Fasta.
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	e, ok := f.entries[seqName]
	if !ok {
		return 0, errors.Errorf("fasta: sequence not found in index: %s", seqName)
	}
	return e.Length, nil
}

// SeqNames implements Fasta.
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
