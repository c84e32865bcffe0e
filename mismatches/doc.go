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
// Package mismatches reduces per-position nucleotide counts against a
// reference sequence.  A Summary is a 4x4 matrix whose rows are keyed by the
// reference base and whose columns are the observed bases; ROI and Site are
// the records produced for a region of interest and for a single position,
// respectively.
//
// Records expose a Preview, which carries only the coverage and mismatch
// totals.  Threshold filters (see package hooks) evaluate previews so they
// can reject positions before a full record is built.
package mismatches
