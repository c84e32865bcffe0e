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
package interval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning an unstranded Interval with 0-based boundaries.  The range
// [0, PosTypeMax - 1) is returned if there is no positional restriction; use
// ClampTo to cut it down to the contig length.
func ParseRegionString(region string) (result Interval, err error) {
	if len(region) == 0 {
		err = errors.E(errors.Invalid, "interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.Contig = region
		result.Start = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = errors.E(errors.Invalid, "interval.ParseRegionString: empty contig ID")
		return
	}
	result.Contig = region[0:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			err = errors.E(errors.Invalid, err)
			return
		}
		if pos1 <= 0 {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: position %v in region string out of range", rangeStr))
			return
		}
		result.Start = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1, end0 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		err = errors.E(errors.Invalid, err)
		return
	}
	if start1 <= 0 {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: position %v in region string out of range", start1Str))
		return
	}
	if end0, err = strconv.Atoi(endStr); err != nil {
		err = errors.E(errors.Invalid, err)
		return
	}
	// A single-base region written as chr:10-10 is accepted.
	if end0 < start1 || end0 >= PosTypeMax {
		err = errors.E(errors.Invalid, fmt.Sprintf("interval.ParseRegionString: invalid range string %v", rangeStr))
		return
	}
	result.Start = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// ClampTo cuts iv down to a contig of the given length.  The result may be
// degenerate; call Validate afterwards.
func (iv Interval) ClampTo(contigLen int) Interval {
	if int(iv.End) > contigLen {
		iv.End = PosType(contigLen)
	}
	return iv
}
