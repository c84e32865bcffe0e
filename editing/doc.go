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
// Package editing is the mismatch-detection pipeline: it cuts the requested
// regions into workloads, piles up the reads of each workload, reduces the
// counts against the reference, filters the result, and writes the surviving
// records and the editing statistics.
//
// Workloads are processed in parallel.  Each job owns its own collision
// engine, filter chain and hooks engine; per-job statistics are merged once
// every job is done, and per-job outputs are concatenated in workload order,
// so the output does not depend on the degree of parallelism.
package editing
