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

/*Package interval describes the units of work the pileup engine is bound to:
  half-open genomic intervals on a named contig, with an optional strand.

  Intervals come from a BED file of regions of interest or from a region
  string; whole-contig regions are split into fixed-size chunks.  Workloads
  handed to parallel jobs must be pairwise disjoint, which Partition checks.
  Positions fit in a PosType, int32, since that's what BAM files are limited
  to.
*/
package interval
