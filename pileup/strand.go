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
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/rnaedit/interval"
)

// StrandDeductor returns the strand of the transcript a read came from, or
// interval.StrandUnknown when it can't tell.
type StrandDeductor[R AlignedRead] func(read R) interval.Strand

// LibType is the strandedness protocol of the sequencing library.
type LibType int

const (
	// Unstranded libraries carry no strand information.
	Unstranded LibType = iota
	// FirstStrand (e.g. dUTP, "fr-firststrand"): read 1 is antisense to the
	// transcript.
	FirstStrand
	// SecondStrand (e.g. ligation, "fr-secondstrand"): read 1 is sense.
	SecondStrand
)

// ParseLibType parses "unstranded", "fr-firststrand" or "fr-secondstrand".
func ParseLibType(s string) (LibType, error) {
	switch s {
	case "unstranded", "":
		return Unstranded, nil
	case "fr-firststrand":
		return FirstStrand, nil
	case "fr-secondstrand":
		return SecondStrand, nil
	}
	return Unstranded, errors.E(errors.Invalid, fmt.Sprintf("pileup.ParseLibType: unrecognized library type %q", s))
}

// readStrand returns the strand of the read-pair's first read: the strand the
// read maps to when it is read 1 (or unpaired), and the opposite one for read
// 2.
func readStrand(flags sam.Flags) interval.Strand {
	reverse := flags&sam.Reverse != 0
	if flags&(sam.Paired|sam.Read2) == (sam.Paired | sam.Read2) {
		reverse = !reverse
	}
	if reverse {
		return interval.StrandReverse
	}
	return interval.StrandForward
}

// NewStrandDeductor returns the deductor for lt, or nil for Unstranded.
func NewStrandDeductor[R AlignedRead](lt LibType) StrandDeductor[R] {
	switch lt {
	case SecondStrand:
		return func(read R) interval.Strand {
			return readStrand(read.Flags())
		}
	case FirstStrand:
		return func(read R) interval.Strand {
			if readStrand(read.Flags()) == interval.StrandForward {
				return interval.StrandReverse
			}
			return interval.StrandForward
		}
	}
	return nil
}
