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

package sync

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/consensus"
)

// fakeChain is a minimal Chain stub that lets tests script the outcome
// of ImportBlock per call.
type fakeChain struct {
	mu       sync.Mutex
	known    map[common.Hash]bool
	imported []common.Hash
	results  map[common.Hash]error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		known:   make(map[common.Hash]bool),
		results: make(map[common.Hash]error),
	}
}

func (c *fakeChain) HasBlock(hash common.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.known[hash]
}

func (c *fakeChain) CurrentHeader() *types.Header { return &types.Header{Number: 1} }
func (c *fakeChain) GenesisHash() common.Hash      { return common.Hash{} }
func (c *fakeChain) TotalDifficulty() *big.Int     { return big.NewInt(1) }

func (c *fakeChain) ImportBlock(block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.results[block.Hash()]
	if err == nil {
		c.known[block.Hash()] = true
		c.imported = append(c.imported, block.Hash())
	}
	return err
}

func TestImportOneSuccessDrainsStagedDependents(t *testing.T) {
	chain := newFakeChain()
	s := NewSyncer(chain, 1)

	parent := blockWithParent(1, common.Hash{})
	child := blockWithParent(2, parent.Hash())
	s.staged.Stage(child)

	s.importOne(parent)

	require.True(t, chain.HasBlock(parent.Hash()))
	select {
	case dep := <-s.importQueue:
		require.Equal(t, child.Hash(), dep.Hash())
	default:
		t.Fatal("expected drained dependent on importQueue")
	}
}

func TestImportOneUnknownParentStagesBlock(t *testing.T) {
	chain := newFakeChain()
	orphan := blockWithParent(5, common.BytesToHash([]byte("missing-parent")))
	chain.results[orphan.Hash()] = consensus.ErrUnknownParent

	s := NewSyncer(chain, 1)
	s.importOne(orphan)

	require.Equal(t, 1, s.staged.Len())
	require.False(t, chain.HasBlock(orphan.Hash()))
}

func TestImportOneOtherErrorIsCountedNotStaged(t *testing.T) {
	chain := newFakeChain()
	bad := blockWithParent(5, common.Hash{})
	chain.results[bad.Hash()] = errBoom

	before := metricImportErrors.Count()
	s := NewSyncer(chain, 1)
	s.importOne(bad)

	require.Equal(t, 0, s.staged.Len())
	require.Equal(t, before+1, metricImportErrors.Count())
}

func TestImportOneSkipsAlreadyKnownBlock(t *testing.T) {
	chain := newFakeChain()
	block := blockWithParent(1, common.Hash{})
	chain.known[block.Hash()] = true

	s := NewSyncer(chain, 1)
	s.importOne(block)

	require.Empty(t, chain.imported)
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
