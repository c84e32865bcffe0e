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
package pileup

import (
	"github.com/grailbio/hts/sam"
)

// RecordIterator is the subset of bamprovider.Iterator that SAMSource needs.
type RecordIterator interface {
	Scan() bool
	Record() *sam.Record
	Err() error
}

// SAMSource adapts a record iterator to ReadSource[*SAMRead].  Records are
// returned to the sam free pool once the next one is scanned, so callers
// must not retain them.
type SAMSource struct {
	iter RecordIterator
	read SAMRead
	prev *sam.Record
	err  error
}

// NewSAMSource returns a SAMSource reading from iter.
func NewSAMSource(iter RecordIterator) *SAMSource {
	return &SAMSource{iter: iter}
}

// Scan implements ReadSource.
func (s *SAMSource) Scan() bool {
	if s.prev != nil {
		sam.PutInFreePool(s.prev)
		s.prev = nil
	}
	if s.err != nil || !s.iter.Scan() {
		return false
	}
	rec := s.iter.Record()
	s.prev = rec
	if err := s.read.Reset(rec); err != nil {
		s.err = err
		return false
	}
	return true
}

// Read implements ReadSource.
func (s *SAMSource) Read() *SAMRead {
	return &s.read
}

// Err implements ReadSource.
func (s *SAMSource) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.iter.Err()
}
