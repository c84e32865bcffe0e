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

/*
Package pileup turns a stream of aligned reads into per-position nucleotide
counts over one workload interval at a time.

The pieces, leaves first:

  - AlignedRead is the read capability everything else consumes; SAMRead
    implements it on top of *sam.Record.
  - ReadsFilter decides which reads, and which bases of a read, may be
    counted.  ByFlags, ByQuality and ByLength are combined with Sequential.
  - Collider is a per-workload accumulator; NucCounter is the one that
    tallies dna.NucCounts per position.
  - Engine drives a Collider through Reset -> Collide* -> Finalize -> Result,
    rejecting calls made in the wrong state.

An Engine and its collider are owned by exactly one goroutine; parallelism
comes from running one Engine per job over disjoint workloads.
*/
package pileup
