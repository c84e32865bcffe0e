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
package report

import (
	"context"
	"fmt"
	"io"
	"os"

	"blainsmith.com/go/seahash"
	"github.com/golang/snappy"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
)

// Spill is a job-private temporary file holding snappy-compressed rows.
type Spill struct {
	f    *os.File
	sw   *snappy.Writer
	w    *tsv.Writer
	open bool
}

// NewSpill creates a spill file in dir ("" means the system default).
func NewSpill(dir string, jobIdx int) (*Spill, error) {
	f, err := os.CreateTemp(dir, fmt.Sprintf("rnaedit-job%04d-*.tsv.sz", jobIdx))
	if err != nil {
		return nil, errors.E(err, "report.NewSpill")
	}
	sw := snappy.NewBufferedWriter(f)
	return &Spill{f: f, sw: sw, w: tsv.NewWriter(sw), open: true}, nil
}

// Writer returns the writer rows are appended to.
func (s *Spill) Writer() *tsv.Writer {
	return s.w
}

// Path returns the path of the spill file.
func (s *Spill) Path() string {
	return s.f.Name()
}

// Close flushes and closes the file.  The file stays on disk until Remove.
func (s *Spill) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	err := s.w.Flush()
	if e := s.sw.Close(); err == nil {
		err = e
	}
	if e := s.f.Close(); err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, "report: close spill", s.f.Name())
	}
	return nil
}

// Remove closes the spill if needed and deletes it.
func (s *Spill) Remove() error {
	err := s.Close()
	if e := os.Remove(s.f.Name()); err == nil {
		err = e
	}
	return err
}

// Concat writes header followed by the rows of every spill, in order, to the
// file at path.  It returns the seahash of the uncompressed output.
func Concat(ctx context.Context, path string, format Format, header string, spills []*Spill, parallelism int) (csum uint64, err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return 0, err
	}
	defer file.CloseAndReport(ctx, out, &err)

	var dst io.Writer = out.Writer(ctx)
	if format == TSVBGZ {
		bw := bgzf.NewWriter(dst, parallelism)
		defer func() {
			if e := bw.Close(); e != nil && err == nil {
				err = e
			}
		}()
		dst = bw
	}
	h := seahash.New()
	dst = io.MultiWriter(dst, h)

	w := tsv.NewWriter(dst)
	w.WriteString(header)
	if err = w.EndLine(); err != nil {
		return 0, err
	}
	if err = w.Flush(); err != nil {
		return 0, err
	}
	for _, s := range spills {
		if err = s.Close(); err != nil {
			return 0, err
		}
		var in *os.File
		if in, err = os.Open(s.Path()); err != nil {
			return 0, errors.E(err, "report.Concat")
		}
		n, cerr := io.Copy(dst, snappy.NewReader(in))
		if e := in.Close(); cerr == nil {
			cerr = e
		}
		if cerr != nil {
			return 0, errors.E(cerr, "report.Concat", s.Path())
		}
		log.Debug.Printf("report: %s: copied %d bytes from %s", path, n, s.Path())
	}
	return h.Sum64(), nil
}
