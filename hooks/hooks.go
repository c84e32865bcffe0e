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
// Package hooks runs post-filter computations over finished mismatch
// batches.  An Engine first drops the records rejected by its PreFilter and
// then calls its hooks in order, so hooks only ever observe accepted
// records.  Hooks that implement StatsHook contribute editing statistics;
// statistics computed by independent engines are combined with Merge.
package hooks

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/rnaedit/mismatches"
)

// Hook observes, and may modify, a finished batch.
type Hook[T mismatches.Record] interface {
	OnFinish(batch *mismatches.Batch[T])
}

// StatsHook is a Hook that accumulates statistics across the batches it
// sees.
type StatsHook[T mismatches.Record] interface {
	Hook[T]
	Stats() []Stat
}

// Value is one named number of a Stat.
type Value struct {
	Key   string
	Value float64
}

// Stat is a derived editing statistic.  Merge must be associative and
// commutative, and combines stats of the same concrete type only.
type Stat interface {
	Name() string
	Merge(other Stat) (Stat, error)
	Values() []Value
}

// Engine applies a pre-filter and then a list of hooks to each batch.  An
// Engine is not safe for concurrent use; build one per worker with a
// Factory.
type Engine[T mismatches.Record] struct {
	prefilter PreFilter
	hooks     []Hook[T]
}

// Factory builds a fresh Engine.  Every call must return an engine that
// shares no mutable state with the others.
type Factory[T mismatches.Record] func() *Engine[T]

// NewEngine returns an engine.  prefilter may be nil, in which case every
// record is accepted.
func NewEngine[T mismatches.Record](prefilter PreFilter, hooks ...Hook[T]) *Engine[T] {
	return &Engine[T]{prefilter: prefilter, hooks: hooks}
}

// OnFinish implements Hook.
func (e *Engine[T]) OnFinish(batch *mismatches.Batch[T]) {
	if e.prefilter != nil {
		batch.Retain(func(r T) bool { return e.prefilter.IsOK(r.Preview()) })
	}
	for _, h := range e.hooks {
		h.OnFinish(batch)
	}
}

// Stats returns the statistics of every StatsHook, in hook order.
func (e *Engine[T]) Stats() []Stat {
	var stats []Stat
	for _, h := range e.hooks {
		if sh, ok := h.(StatsHook[T]); ok {
			stats = append(stats, sh.Stats()...)
		}
	}
	return stats
}

// Merge combines the statistics of several engines built by the same
// Factory.  Stats are merged position by position.
func Merge(perWorker ...[]Stat) ([]Stat, error) {
	var merged []Stat
	for i, stats := range perWorker {
		if i == 0 {
			merged = append(merged, stats...)
			continue
		}
		if len(stats) != len(merged) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("hooks.Merge: worker %d has %d stats, want %d", i, len(stats), len(merged)))
		}
		for j := range stats {
			m, err := merged[j].Merge(stats[j])
			if err != nil {
				return nil, err
			}
			merged[j] = m
		}
	}
	return merged, nil
}

func mismatchedStat(s, other Stat) error {
	return errors.E(errors.Invalid, fmt.Sprintf("hooks: cannot merge %s with %T", s.Name(), other))
}
