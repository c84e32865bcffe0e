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
package pileup

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/rnaedit/interval"
)

// Collider accumulates reads over one workload interval.  Implementations
// don't check call order; Engine does.
type Collider[R AlignedRead, T any] interface {
	// Reset clears the collider and binds it to w.
	Reset(w interval.Interval)
	// Collide adds one read.
	Collide(read R)
	// Finalize performs any postprocessing needed before Result.
	Finalize()
	// Result returns the accumulated content.  It may alias internal buffers
	// and is only valid until the next Reset.
	Result() T
}

// State is an Engine's position in its Reset -> Collide -> Finalize cycle.
type State int

const (
	// Idle means no workload has been bound yet.
	Idle State = iota
	// Ready means a workload is bound and reads may be collided.
	Ready
	// Finalized means Result is available.
	Finalized
	// Aborted means the cycle was abandoned; only Reset leaves this state.
	Aborted
)

var stateNames = [...]string{"idle", "ready", "finalized", "aborted"}

// String implements fmt.Stringer.
func (s State) String() string {
	return stateNames[s]
}

// ReadSource yields the reads for one workload.
type ReadSource[R AlignedRead] interface {
	// Scan advances to the next read, returning false at the end or on error.
	Scan() bool
	// Read returns the current read; it is only valid until the next Scan.
	Read() R
	// Err returns the error that stopped Scan, if any.
	Err() error
}

// Engine binds a Collider to one workload at a time and enforces the
// Reset -> Collide* -> Finalize -> Result protocol.  Misuse is reported as an
// errors.Precondition error instead of returning stale data.  An Engine is not
// safe for concurrent use.
type Engine[R AlignedRead, T any] struct {
	collider Collider[R, T]
	state    State
	workload interval.Interval
}

// NewEngine returns an Idle engine driving collider.
func NewEngine[R AlignedRead, T any](collider Collider[R, T]) *Engine[R, T] {
	return &Engine[R, T]{collider: collider}
}

// State returns the current state.
func (e *Engine[R, T]) State() State {
	return e.state
}

// Workload returns the bound interval.  It is meaningless while Idle.
func (e *Engine[R, T]) Workload() interval.Interval {
	return e.workload
}

func (e *Engine[R, T]) notReady(op string, want State) error {
	return errors.E(errors.Precondition, fmt.Sprintf("pileup.Engine.%s: engine not ready (state %v, want %v)", op, e.state, want))
}

// Reset binds the engine to w, discarding any previous content.  Degenerate
// workloads are rejected with errors.Invalid and leave the engine Idle.
func (e *Engine[R, T]) Reset(w interval.Interval) error {
	if err := w.Validate(); err != nil {
		e.state = Idle
		return err
	}
	e.workload = w
	e.collider.Reset(w)
	e.state = Ready
	return nil
}

// Collide feeds one read to the collider.
func (e *Engine[R, T]) Collide(read R) error {
	if e.state != Ready {
		return e.notReady("Collide", Ready)
	}
	e.collider.Collide(read)
	return nil
}

// Finalize ends the collide phase.
func (e *Engine[R, T]) Finalize() error {
	if e.state != Ready {
		return e.notReady("Finalize", Ready)
	}
	e.collider.Finalize()
	e.state = Finalized
	return nil
}

// Result returns the finalized content, valid until the next Reset.
func (e *Engine[R, T]) Result() (result T, err error) {
	if e.state != Finalized {
		err = e.notReady("Result", Finalized)
		return
	}
	return e.collider.Result(), nil
}

// Abort abandons the current cycle.  It has no effect unless the engine is
// Ready.
func (e *Engine[R, T]) Abort() {
	if e.state == Ready {
		e.state = Aborted
	}
}

// ctxCheckInterval is the number of reads collided between context checks.
const ctxCheckInterval = 1024

// Run performs a full cycle over w with the reads from src.  Errors from src
// are returned unchanged; cancellation of ctx aborts the cycle with an
// errors.Canceled error.
func (e *Engine[R, T]) Run(ctx context.Context, w interval.Interval, src ReadSource[R]) (result T, err error) {
	if err = e.Reset(w); err != nil {
		return
	}
	for n := 0; src.Scan(); n++ {
		if n%ctxCheckInterval == 0 {
			if cerr := ctx.Err(); cerr != nil {
				e.Abort()
				err = errors.E(errors.Canceled, fmt.Sprintf("pileup.Engine.Run: %v", w), cerr)
				return
			}
		}
		if err = e.Collide(src.Read()); err != nil {
			return
		}
	}
	if err = src.Err(); err != nil {
		e.Abort()
		return
	}
	if err = e.Finalize(); err != nil {
		return
	}
	return e.Result()
}
