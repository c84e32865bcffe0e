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
package bamprovider

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/interval"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for indexed BAM files.  Both the BAM and
// the index may live on any filesystem known to grailbio/base/file.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of the *.bam.bai file. If "", Path + ".bai".
	Index string
	err   errors.Once

	mu        sync.Mutex
	nActive   int
	freeIters []*bamIterator
	header    *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	index    *bam.Index

	ref        *sam.Reference
	start, end interval.PosType

	active bool
	err    error
	rec    *sam.Record
}

func (b *BAMProvider) indexPath() string {
	if b.Index == "" {
		return b.Path + ".bai"
	}
	return b.Index
}

// GetHeader implements Provider.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer r.Close() // nolint: errcheck
	b.header = r.Header()
	return b.header, nil
}

// Close implements Provider.
func (b *BAMProvider) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %s", b.nActive, b.Path)
	}
	for _, iter := range b.freeIters {
		iter.internalClose()
	}
	b.freeIters = nil
	return b.err.Err()
}

func (b *BAMProvider) freeIterator(i *bamIterator) {
	if !i.active {
		vlog.Fatalf("%s: iterator closed twice", b.Path)
	}
	i.active = false
	if i.Err() != nil {
		// The reader may be in a bad state. Don't reuse it.
		i.internalClose()
		i = nil
	}
	b.mu.Lock()
	if i != nil {
		b.freeIters = append(b.freeIters, i)
	}
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("%s: negative active iterator count", b.Path)
	}
	b.mu.Unlock()
}

// allocateIterator returns a pooled iterator if there is one, or opens the
// BAM and its index.  On error, the returned iterator has a non-nil err.
func (b *BAMProvider) allocateIterator() *bamIterator {
	b.mu.Lock()
	b.nActive++
	if n := len(b.freeIters); n > 0 {
		iter := b.freeIters[n-1]
		b.freeIters = b.freeIters[:n-1]
		b.mu.Unlock()
		iter.active = true
		iter.err = nil
		iter.rec = nil
		return iter
	}
	b.mu.Unlock()

	iter := &bamIterator{provider: b, active: true}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	var indexIn file.File
	if indexIn, iter.err = file.Open(ctx, b.indexPath()); iter.err != nil {
		return iter
	}
	defer indexIn.Close(ctx) // nolint: errcheck
	if iter.index, iter.err = bam.ReadIndex(indexIn.Reader(ctx)); iter.err != nil {
		iter.err = errors.E(iter.err, b.indexPath())
		return iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		return iter
	}
	vlog.VI(1).Infof("%s: opened new iterator", b.Path)
	return iter
}

// NewIterator implements Provider.
func (b *BAMProvider) NewIterator(iv interval.Interval) Iterator {
	iter := b.allocateIterator()
	if iter.err == nil {
		iter.reset(iv)
	}
	return iter
}

// reset positions the iterator at the first index chunk overlapping iv.
func (i *bamIterator) reset(iv interval.Interval) {
	if err := iv.Validate(); err != nil {
		i.err = err
		return
	}
	i.ref = nil
	for _, ref := range i.reader.Header().Refs() {
		if ref.Name() == iv.Contig {
			i.ref = ref
			break
		}
	}
	if i.ref == nil {
		i.err = errors.E(errors.NotExist, fmt.Sprintf("%s: contig %s not in header", i.provider.Path, iv.Contig))
		return
	}
	i.start, i.end = iv.Start, iv.End
	if refLen := interval.PosType(i.ref.Len()); i.end > refLen {
		i.end = refLen
	}
	if i.start >= i.end {
		i.err = io.EOF
		return
	}
	chunks, err := i.index.Chunks(i.ref, int(i.start), int(i.end))
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		// No reads for this interval.
		i.err = io.EOF
		return
	}
	if err != nil {
		i.err = err
		return
	}
	i.err = i.reader.Seek(chunks[0].Begin)
}

// Scan implements Iterator.
func (i *bamIterator) Scan() bool {
	if !i.active {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	for {
		if i.rec, i.err = i.reader.Read(); i.err != nil {
			return false
		}
		rec := i.rec
		if rec.Ref == nil || rec.Ref.ID() > i.ref.ID() ||
			(rec.Ref.ID() == i.ref.ID() && interval.PosType(rec.Pos) >= i.end) {
			sam.PutInFreePool(rec)
			i.rec = nil
			i.err = io.EOF
			return false
		}
		if overlaps(rec, i.ref.Name(), i.start, i.end) {
			return true
		}
		sam.PutInFreePool(rec)
	}
}

// Record implements Iterator.
func (i *bamIterator) Record() *sam.Record {
	return i.rec
}

// Err implements Iterator.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements Iterator.
func (i *bamIterator) Close() error {
	err := i.Err()
	i.provider.freeIterator(i)
	return err
}

func (i *bamIterator) internalClose() {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
	i.provider.err.Set(i.Err())
}
