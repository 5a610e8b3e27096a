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

package work

import (
	"sync"
	"sync/atomic"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/crypto"
)

// Task wraps a Locked ExecutedBlock awaiting a seal.
type Task struct {
	Block *ExecutedBlock
}

// Result is what the agent hands back once sealing finishes (or nil on
// failure/preemption), mirroring the teacher's work.Result shape.
type Result struct {
	Task   *Task
	Sealed *types.Header
}

// PoWSolver is the external mining-hardware capability boundary: this
// core never runs a generalized-birthday Equihash search itself (spec.md
// §1 Non-goal "stratum mining server"), it only consumes a solution
// supplied by one, the same way real nodes hand sealing hashes to
// dedicated mining hardware or pools.
type PoWSolver interface {
	// Solve searches for (nonce, solution) over preimage, returning ok
	// false if stop fires before a solution is found.
	Solve(preimage []byte, stop <-chan struct{}) (nonce, solution []byte, ok bool)
}

// PoSSigner is the subset of accounts.AccountProvider the PoS sealing
// path needs: sign a digest under a validator key already unlocked in
// the provider.
type PoSSigner interface {
	SignWithPublicKey(pub []byte, digest []byte) ([]byte, error)
}

// CpuAgent drives sealing of queued Tasks, grounded on the teacher's
// work/agent.go CpuAgent: a single-slot work channel, a cancellable
// in-flight seal per tick, and a return channel the worker publishes
// results to.
type CpuAgent struct {
	mu sync.Mutex

	workCh        chan *Task
	stop          chan struct{}
	quitCurrentOp chan struct{}
	returnCh      chan<- *Result

	solver       PoWSolver
	signer       PoSSigner
	validatorPub []byte

	isMining int32
}

func NewCpuAgent(solver PoWSolver, signer PoSSigner, validatorPub []byte) *CpuAgent {
	return &CpuAgent{
		solver:       solver,
		signer:       signer,
		validatorPub: validatorPub,
		stop:         make(chan struct{}, 1),
		workCh:       make(chan *Task, 1),
	}
}

func (a *CpuAgent) Work() chan<- *Task            { return a.workCh }
func (a *CpuAgent) SetReturnCh(ch chan<- *Result) { a.returnCh = ch }

func (a *CpuAgent) Stop() {
	if !atomic.CompareAndSwapInt32(&a.isMining, 1, 0) {
		return // agent already stopped
	}
	a.stop <- struct{}{}
done:
	for {
		select {
		case <-a.workCh:
		default:
			break done
		}
	}
}

func (a *CpuAgent) Start() {
	if !atomic.CompareAndSwapInt32(&a.isMining, 0, 1) {
		return // agent already started
	}
	go a.update()
}

func (a *CpuAgent) update() {
out:
	for {
		select {
		case task := <-a.workCh:
			a.mu.Lock()
			if a.quitCurrentOp != nil {
				close(a.quitCurrentOp)
			}
			a.quitCurrentOp = make(chan struct{})
			go a.mine(task, a.quitCurrentOp)
			a.mu.Unlock()
		case <-a.stop:
			a.mu.Lock()
			if a.quitCurrentOp != nil {
				close(a.quitCurrentOp)
				a.quitCurrentOp = nil
			}
			a.mu.Unlock()
			break out
		}
	}
}

func (a *CpuAgent) mine(task *Task, stop <-chan struct{}) {
	header := task.Block.Header()

	var sealFields [][]byte
	switch header.SealType {
	case types.SealPoW:
		nonce, solution, ok := a.solver.Solve(header.HashNoSeal().Bytes(), stop)
		if !ok {
			a.returnCh <- nil
			return
		}
		sealFields = [][]byte{nonce, solution}
	case types.SealPoS:
		seed := crypto.VRF(a.validatorPub, task.Block.previousSeed)
		seedHash := crypto.Blake2b256(seed.Bytes())
		preimage := crypto.Blake2b256(seedHash.Bytes(), header.ParentHash.Bytes())
		sig, err := a.signer.SignWithPublicKey(a.validatorPub, preimage.Bytes())
		if err != nil {
			logger.Warn("pos signing failed", "err", err)
			a.returnCh <- nil
			return
		}
		sealFields = [][]byte{seed.Bytes(), sig, a.validatorPub}
	}

	if err := task.Block.Seal(sealFields); err != nil {
		logger.Warn("block sealing failed", "err", err)
		a.returnCh <- nil
		return
	}

	sealed := task.Block.Header()
	logger.Info("successfully sealed new block", "number", sealed.Number, "hash", sealed.Hash())
	a.returnCh <- &Result{Task: task, Sealed: sealed}
}
