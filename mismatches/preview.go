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
package mismatches

import (
	"github.com/grailbio/rnaedit/dna"
)

// Preview is the minimal view the pre-filters need.
type Preview interface {
	Coverage() uint64
	Mismatches() uint64
}

// ROIPreview is the preview of a region of interest.  Unknown holds the
// counts observed at positions without a reference call; it is zero unless
// the ROI was built with IncludeUnknown.  Every such base is a mismatch.
type ROIPreview struct {
	Summary Summary
	Unknown dna.Totals
}

// Coverage implements Preview.
func (p ROIPreview) Coverage() uint64 {
	return p.Summary.Coverage() + p.Unknown.Coverage()
}

// Mismatches implements Preview.
func (p ROIPreview) Mismatches() uint64 {
	return p.Summary.Mismatches() + p.Unknown.Coverage()
}

// SitePreview is the preview of a single position: its reference call and
// the counts observed there.
type SitePreview struct {
	Ref    dna.Nucleotide
	Counts dna.NucCounts
}

// Coverage implements Preview.
func (p SitePreview) Coverage() uint64 {
	return uint64(p.Counts.Coverage())
}

// Mismatches implements Preview.
func (p SitePreview) Mismatches() uint64 {
	return uint64(p.Counts.Mismatches(p.Ref))
}
