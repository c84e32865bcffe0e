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
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// GenerateIndex writes the .fai index of the FASTA data read from in.  Every
// line of a sequence but the last must have the same length.
func GenerateIndex(out io.Writer, in io.Reader) error {
	var (
		w       = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		cur     *IndexEntry
		off     uint64
		lastLen uint64 // bases on the previous line of cur
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		w.WriteString(cur.Name)
		w.WriteInt64(int64(cur.Length))
		w.WriteInt64(int64(cur.Offset))
		w.WriteInt64(int64(cur.LineBases))
		w.WriteInt64(int64(cur.LineWidth))
		return w.EndLine()
	}
	for {
		raw, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "fasta: generate index")
		}
		off += uint64(len(raw))
		line := bytes.TrimRight(raw, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if err := flush(); err != nil {
				return err
			}
			cur = &IndexEntry{Name: seqName(string(line)), Offset: off}
			lastLen = 0
		case cur == nil:
			return errors.New("fasta: sequence data before the first header")
		default:
			n := uint64(len(line))
			if cur.LineBases == 0 {
				cur.LineBases, cur.LineWidth = n, uint64(len(raw))
			} else if lastLen != cur.LineBases || n > cur.LineBases {
				return errors.Errorf("fasta: %s: uneven line lengths", cur.Name)
			}
			cur.Length += n
			lastLen = n
		}
		if err == io.EOF {
			break
		}
	}
	if cur == nil {
		return errors.New("fasta: no sequences")
	}
	if err := flush(); err != nil {
		return err
	}
	return w.Flush()
}
