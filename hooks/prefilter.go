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
package hooks

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/rnaedit/mismatches"
)

// PreFilter decides, from a preview alone, whether a record is worth
// keeping.
type PreFilter interface {
	IsOK(p mismatches.Preview) bool
}

// ByMismatches accepts records with enough coverage, enough mismatches and a
// high enough mismatch frequency.
type ByMismatches struct {
	MinMismatches uint32
	MinFreq       float32
	MinCov        uint32
}

// NewByMismatches returns a validated ByMismatches.  minFreq must lie in
// [0, 1].
func NewByMismatches(minMismatches uint32, minFreq float32, minCov uint32) (ByMismatches, error) {
	if math.IsNaN(float64(minFreq)) || minFreq < 0 || minFreq > 1 {
		return ByMismatches{}, errors.E(errors.Invalid, fmt.Sprintf("hooks.NewByMismatches: minimum frequency %v outside [0, 1]", minFreq))
	}
	return ByMismatches{MinMismatches: minMismatches, MinFreq: minFreq, MinCov: minCov}, nil
}

// Frequency returns mismatch/cov, or 0 when cov is 0.
func Frequency(mismatch, cov uint64) float32 {
	if cov == 0 {
		return 0
	}
	return float32(float64(mismatch) / float64(cov))
}

// OK is the threshold predicate.
func (f ByMismatches) OK(cov, mismatch uint64) bool {
	return cov >= uint64(f.MinCov) && mismatch >= uint64(f.MinMismatches) && Frequency(mismatch, cov) >= f.MinFreq
}

// IsOK implements PreFilter.
func (f ByMismatches) IsOK(p mismatches.Preview) bool {
	return f.OK(p.Coverage(), p.Mismatches())
}

// String implements fmt.Stringer.
func (f ByMismatches) String() string {
	return fmt.Sprintf("mismatches>=%d freq>=%v cov>=%d", f.MinMismatches, f.MinFreq, f.MinCov)
}
