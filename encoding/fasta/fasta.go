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
// Package fasta reads reference sequences from FASTA files, optionally
// indexed with a samtools-style .fai (http://www.htslib.org/doc/faidx.html).
//
// A sequence name is the text after '>' up to the first space, so
// ">chr1 assembled" names "chr1".
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxLineLen bounds the length of a single FASTA line.
const maxLineLen = 1 << 28

// Fasta is a set of named sequences.  Implementations are safe for
// concurrent use.
type Fasta interface {
	// Get returns bases [start, end) of sequence seqName.
	Get(seqName string, start, end uint64) (string, error)
	// Len returns the length of sequence seqName.
	Len(seqName string) (uint64, error)
	// SeqNames returns the sequence names in file order.
	SeqNames() []string
}

type memFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads all of r into memory.
func New(r io.Reader) (Fasta, error) {
	f := &memFasta{seqs: map[string]string{}}
	var (
		name    string
		started bool
		seq     strings.Builder
	)
	add := func() error {
		if !started {
			if seq.Len() > 0 {
				return errors.New("fasta: sequence data before the first header")
			}
			return nil
		}
		if _, ok := f.seqs[name]; ok {
			return errors.Errorf("fasta: duplicate sequence %s", name)
		}
		f.seqs[name] = seq.String()
		f.seqNames = append(f.seqNames, name)
		seq.Reset()
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] != '>' {
			seq.WriteString(line)
			continue
		}
		if err := add(); err != nil {
			return nil, err
		}
		name = seqName(line)
		started = true
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fasta: read")
	}
	if err := add(); err != nil {
		return nil, err
	}
	if len(f.seqNames) == 0 {
		return nil, errors.New("fasta: no sequences")
	}
	return f, nil
}

func seqName(header string) string {
	return strings.SplitN(header[1:], " ", 2)[0]
}

func checkRange(seqName string, start, end, length uint64) error {
	if end <= start {
		return errors.Errorf("fasta: %s: empty range [%d, %d)", seqName, start, end)
	}
	if end > length {
		return errors.Errorf("fasta: %s: range [%d, %d) past the end of the sequence (%d)", seqName, start, end, length)
	}
	return nil
}

// Get implements Fasta.
func (f *memFasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("fasta: sequence not found: %s", seqName)
	}
	if err := checkRange(seqName, start, end, uint64(len(s))); err != nil {
		return "", err
	}
	return s[start:end], nil
}

// Len implements Fasta.
func (f *memFasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("fasta: sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.
func (f *memFasta) SeqNames() []string {
	return f.seqNames
}
