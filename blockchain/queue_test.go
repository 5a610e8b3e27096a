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
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
)

func TestVerificationQueueSubmitRunsBothChecks(t *testing.T) {
	q := NewVerificationQueue(&fakeEngine{}, 4)
	t.Cleanup(q.Stop)

	header := &types.Header{Number: 1, Difficulty: big.NewInt(1)}
	require.NoError(t, q.Submit(context.Background(), header))
}

func TestVerificationQueuePropagatesBasicCheckError(t *testing.T) {
	boom := errors.New("boom")
	engine := &basicFailEngine{fakeEngine: fakeEngine{}, err: boom}
	q := NewVerificationQueue(engine, 4)
	t.Cleanup(q.Stop)

	err := q.Submit(context.Background(), &types.Header{Number: 1, Difficulty: big.NewInt(1)})
	require.ErrorIs(t, err, boom)
}

func TestVerificationQueueSubmitHonorsContextCancellation(t *testing.T) {
	// Occupy every worker with a check that blocks until released, then
	// submit one more job against a backlog-0 queue with an
	// already-canceled context: Submit must return ctx.Err() instead of
	// blocking forever on the backpressure retry loop.
	release := make(chan struct{})
	engine := &blockingEngine{fakeEngine: fakeEngine{}, release: release}
	q := NewVerificationQueue(engine, 0)
	t.Cleanup(func() { close(release); q.Stop() })

	for i := 0; i < workerCount(); i++ {
		go q.Submit(context.Background(), &types.Header{Number: uint64(i + 1), Difficulty: big.NewInt(1)})
	}
	time.Sleep(20 * time.Millisecond) // let every worker pick up a job and block

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Submit(ctx, &types.Header{Number: 999, Difficulty: big.NewInt(1)})
	require.ErrorIs(t, err, context.Canceled)
}

// blockingEngine's VerifyBlockBasic blocks until release is closed, used
// to keep a verification worker busy on demand.
type blockingEngine struct {
	fakeEngine
	release chan struct{}
}

func (e *blockingEngine) VerifyBlockBasic(*types.Header) error {
	<-e.release
	return nil
}

// basicFailEngine fails VerifyBlockBasic while leaving every other
// consensus.Engine method as fakeEngine's no-op.
type basicFailEngine struct {
	fakeEngine
	err error
}

func (e *basicFailEngine) VerifyBlockBasic(*types.Header) error { return e.err }
