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
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/interval"
)

// overlaps reports whether rec is a mapped record of contig overlapping
// [start, end).
func overlaps(rec *sam.Record, contig string, start, end interval.PosType) bool {
	if rec.Ref == nil || rec.Flags&sam.Unmapped != 0 || rec.Ref.Name() != contig {
		return false
	}
	recEnd := rec.End()
	if recEnd == rec.Pos {
		// No reference-consuming operation; count the start position.
		recEnd++
	}
	return interval.PosType(rec.Pos) < end && interval.PosType(recEnd) > start
}

type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
}

type fakeIterator struct {
	iv   interval.Interval
	recs []*sam.Record
	rec  *sam.Record
}

// NewFakeProvider returns a provider serving header and recs, which must be
// sorted by coordinate.  It is meant for tests.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	return &fakeProvider{header: header, recs: recs}
}

// GetHeader implements Provider.
func (p *fakeProvider) GetHeader() (*sam.Header, error) {
	return p.header, nil
}

// NewIterator implements Provider.
func (p *fakeProvider) NewIterator(iv interval.Interval) Iterator {
	return &fakeIterator{iv: iv, recs: p.recs}
}

// Close implements Provider.
func (p *fakeProvider) Close() error {
	return nil
}

// Scan implements Iterator.
func (i *fakeIterator) Scan() bool {
	for len(i.recs) > 0 {
		i.rec, i.recs = i.recs[0], i.recs[1:]
		if overlaps(i.rec, i.iv.Contig, i.iv.Start, i.iv.End) {
			return true
		}
	}
	return false
}

// Record implements Iterator.  It returns a copy, so the caller can neither
// alter nor recycle the provider's records.
func (i *fakeIterator) Record() *sam.Record {
	rec := sam.GetFromFreePool()
	*rec = *i.rec
	return rec
}

// Err implements Iterator.
func (i *fakeIterator) Err() error { return nil }

// Close implements Iterator.
func (i *fakeIterator) Close() error { return nil }
