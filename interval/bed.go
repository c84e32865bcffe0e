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
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Tabs delimit; runs of spaces inside
// a column (e.g. in the name column) are preserved.
func getTokens(tokens [][]byte, curLine []byte) int {
	nToken := 0
	start := 0
	for pos := 0; pos <= len(curLine) && nToken < len(tokens); pos++ {
		if pos == len(curLine) || curLine[pos] == '\t' {
			tokens[nToken] = curLine[start:pos]
			nToken++
			start = pos + 1
		}
	}
	return nToken
}

// BEDOpts defines behavior of LoadBED.
type BEDOpts struct {
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
	// IgnoreStrand forces every interval to StrandUnknown even when the BED has
	// a strand column.
	IgnoreStrand bool
}

// LoadBED reads regions of interest from a BED stream.  Unlike a BED union,
// every line stays a separate Interval: column 4, when present, becomes the
// Name and column 6 the Strand.  Header, track and comment lines are skipped.
func LoadBED(reader io.Reader, opts BEDOpts) (rois []Interval, err error) {
	scanner := bufio.NewScanner(reader)
	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}
	var tokens [6][]byte
	lineIdx := 0
	totBases := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if len(curLine) == 0 || curLine[0] == '#' || hasPrefix(curLine, "track") || hasPrefix(curLine, "browser") {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken < 3 {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.LoadBED: line %d has fewer tokens than expected", lineIdx))
			return
		}
		var parsedStart, parsedEnd int
		if parsedStart, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.LoadBED: line %d", lineIdx), err)
			return
		}
		parsedStart -= startSubtract
		if parsedEnd, err = strconv.Atoi(gunsafe.BytesToString(tokens[2])); err != nil {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.LoadBED: line %d", lineIdx), err)
			return
		}
		if parsedStart < 0 || parsedEnd <= parsedStart || parsedEnd >= PosTypeMax {
			err = errors.E(errors.Invalid, fmt.Sprintf("interval.LoadBED: invalid coordinate pair on line %d", lineIdx))
			return
		}
		roi := Interval{
			// Copies, since tokens point into the scanner's buffer.
			Contig: string(tokens[0]),
			Start:  PosType(parsedStart),
			End:    PosType(parsedEnd),
		}
		if nToken >= 4 {
			roi.Name = string(tokens[3])
		}
		if nToken >= 6 && !opts.IgnoreStrand {
			if roi.Strand, err = ParseStrand(string(tokens[5])); err != nil {
				return
			}
		}
		totBases += roi.Len()
		rois = append(rois, roi)
	}
	if err = scanner.Err(); err != nil {
		return
	}
	log.Printf("BED loaded, %d interval(s), %d base(s) covered.", len(rois), totBases)
	return
}

func hasPrefix(line []byte, prefix string) bool {
	return len(line) >= len(prefix) && gunsafe.BytesToString(line[:len(prefix)]) == prefix
}

// LoadBEDFromPath is a wrapper for LoadBED that takes a path instead of an
// io.Reader.  Gzipped files are detected from the extension.
func LoadBEDFromPath(path string, opts BEDOpts) (rois []Interval, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer func() {
			if cerr := gz.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		reader = gz
	}
	return LoadBED(reader, opts)
}
