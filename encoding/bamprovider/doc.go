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
// Package bamprovider reads the alignments overlapping a genomic interval
// from an indexed BAM file.
//
// A Provider hands out Iterators, one per interval.  Several iterators may be
// active at once, each owned by one goroutine, so a pipeline can scan
// disjoint intervals in parallel.
package bamprovider
