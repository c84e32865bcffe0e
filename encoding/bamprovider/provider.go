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

// ProviderOpts configures NewProvider.
type ProviderOpts struct {
	// Index is the path of the .bai file.  If "", it defaults to path + ".bai".
	Index string
}

// Provider serves the alignments of one BAM file.
type Provider interface {
	// GetHeader returns the BAM header.  The caller must not modify it.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over the mapped records of iv.Contig
	// whose alignment overlaps [iv.Start, iv.End).  iv.Strand is ignored.
	//
	// REQUIRES: Close has not been called.
	NewIterator(iv interval.Interval) Iterator

	// Close must be called exactly once, after every iterator has been
	// closed.  It returns any error encountered by the provider or by its
	// iterators.
	Close() error
}

// Iterator iterates over sam.Records in coordinate order.  Thread
// compatible.
type Iterator interface {
	// Scan advances to the next record.  It returns false at the end of the
	// range or on error.
	Scan() bool

	// Record returns the current record.  The record belongs to the caller,
	// which may return it to the sam free pool.
	Record() *sam.Record

	// Err returns the error encountered during iteration, if any.  io.EOF is
	// reported as nil.
	Err() error

	// Close must be called exactly once.  It returns the value of Err().
	Close() error
}

// NewProvider returns a Provider for the BAM file at path, which may be
// local or remote.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	p := &BAMProvider{Path: path}
	for _, o := range optList {
		if o.Index != "" {
			p.Index = o.Index
		}
	}
	return p
}
