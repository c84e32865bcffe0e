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
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rnaedit/dna"
	"github.com/grailbio/rnaedit/interval"
)

// Reference serves reference bases as dna.Nucleotides.
type Reference struct {
	Fasta
	in file.File
}

// NewReference wraps f.
func NewReference(f Fasta) *Reference {
	return &Reference{Fasta: f}
}

// Open opens the FASTA file at path, local or remote.  If path+".fai" exists
// bases are read on demand; otherwise the whole file, possibly compressed, is
// loaded into memory.
func Open(ctx context.Context, path string) (*Reference, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if idx, err := file.Open(ctx, path+".fai"); err == nil {
		f, err := NewIndexed(in.Reader(ctx), idx.Reader(ctx))
		if cerr := idx.Close(ctx); err == nil {
			err = cerr
		}
		if err != nil {
			in.Close(ctx) // nolint: errcheck
			return nil, errors.E(err, path)
		}
		log.Debug.Printf("fasta: %s: using index, %d sequences", path, len(f.SeqNames()))
		return &Reference{Fasta: f, in: in}, nil
	}
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, path); u != nil {
		r = u
	}
	f, err := New(r)
	if cerr := in.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.E(err, path)
	}
	log.Debug.Printf("fasta: %s: loaded %d sequences", path, len(f.SeqNames()))
	return &Reference{Fasta: f}, nil
}

// Close releases the underlying file, if any.
func (r *Reference) Close(ctx context.Context) error {
	if r.in == nil {
		return nil
	}
	err := r.in.Close(ctx)
	r.in = nil
	return err
}

// Nucleotides returns the forward-strand reference of [start, end) on contig.
func (r *Reference) Nucleotides(contig string, start, end interval.PosType) ([]dna.Nucleotide, error) {
	if start < 0 || end <= start {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("fasta.Nucleotides: bad range %s:%d-%d", contig, start, end))
	}
	seq, err := r.Get(contig, uint64(start), uint64(end))
	if err != nil {
		return nil, err
	}
	return dna.ASCIIToNucleotides(nil, seq), nil
}

// Lengths returns the length of every sequence.
func (r *Reference) Lengths() (map[string]interval.PosType, error) {
	lengths := make(map[string]interval.PosType, len(r.SeqNames()))
	for _, name := range r.SeqNames() {
		n, err := r.Len(name)
		if err != nil {
			return nil, err
		}
		lengths[name] = interval.PosType(n)
	}
	return lengths, nil
}
