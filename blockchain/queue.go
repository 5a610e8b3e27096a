// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package blockchain

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/consensus"
)

// queueFullRetryDelay is spec.md §5's "while queue.is_full: sleep 1s".
const queueFullRetryDelay = time.Second

// verifyJob is one header submitted for basic+unordered verification.
type verifyJob struct {
	header *types.Header
	result chan error
}

// VerificationQueue runs verify_block_basic and verify_block_unordered for
// queued headers on a worker pool sized CPU/2..CPU, spec.md §4.5 step 2
// and §5 "OS threads for the verification worker pool (one pool sized to
// CPU/2-CPU)".
type VerificationQueue struct {
	engine consensus.Engine
	jobs   chan *verifyJob
	done   chan struct{}
}

func workerCount() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// NewVerificationQueue builds and starts a queue of capacity backlog.
func NewVerificationQueue(engine consensus.Engine, backlog int) *VerificationQueue {
	q := &VerificationQueue{
		engine: engine,
		jobs:   make(chan *verifyJob, backlog),
		done:   make(chan struct{}),
	}
	for i := 0; i < workerCount(); i++ {
		go q.worker()
	}
	return q
}

func (q *VerificationQueue) worker() {
	for {
		select {
		case <-q.done:
			return
		case job := <-q.jobs:
			job.result <- q.verify(job.header)
		}
	}
}

// verify runs the cheap and costly checks concurrently: they're
// independent pure functions of header, so there's no reason to
// serialize them within one job.
func (q *VerificationQueue) verify(header *types.Header) error {
	var eg errgroup.Group
	eg.Go(func() error { return q.engine.VerifyBlockBasic(header) })
	eg.Go(func() error { return q.engine.VerifyBlockUnordered(header) })
	return eg.Wait()
}

// Submit enqueues header and blocks for its verification result,
// retrying the enqueue itself (not the verification) while the queue is
// full, spec.md §5's backpressure policy. ctx cancellation aborts the
// wait.
func (q *VerificationQueue) Submit(ctx context.Context, header *types.Header) error {
	job := &verifyJob{header: header, result: make(chan error, 1)}
	for {
		select {
		case q.jobs <- job:
			select {
			case err := <-job.result:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		default:
			select {
			case <-time.After(queueFullRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Stop terminates every worker goroutine.
func (q *VerificationQueue) Stop() { close(q.done) }
