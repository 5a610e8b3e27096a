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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/params"
)

func blockWithParent(number uint64, parent common.Hash) *types.Block {
	h := &types.Header{Number: number, ParentHash: parent, Difficulty: big.NewInt(1)}
	return types.NewBlock(h, nil)
}

func TestStagedBufferDrainReturnsDependentsInOrder(t *testing.T) {
	buf := NewStagedBuffer()
	parent := common.BytesToHash([]byte("parent"))

	first := blockWithParent(2, parent)
	second := blockWithParent(3, parent)
	buf.Stage(first)
	buf.Stage(second)
	require.Equal(t, 1, buf.Len())

	got := buf.Drain(parent)
	require.Equal(t, []*types.Block{first, second}, got)
	require.Equal(t, 0, buf.Len())
	require.Nil(t, buf.Drain(parent))
}

func TestStagedBufferDedupsRepeatedBlock(t *testing.T) {
	buf := NewStagedBuffer()
	parent := common.BytesToHash([]byte("parent"))
	block := blockWithParent(2, parent)

	buf.Stage(block)
	buf.Stage(block)

	got := buf.Drain(parent)
	require.Len(t, got, 1)
}

func TestStagedBufferEvictsOldestParentAtCapacity(t *testing.T) {
	buf := NewStagedBuffer()

	for i := 0; i < params.StagedBlockBufferLimit; i++ {
		parent := common.BytesToHash([]byte{byte(i)})
		buf.Stage(blockWithParent(uint64(i)+1, parent))
	}
	require.Equal(t, params.StagedBlockBufferLimit, buf.Len())

	oldestParent := common.BytesToHash([]byte{0})
	newParent := common.BytesToHash([]byte("brand-new"))
	buf.Stage(blockWithParent(999, newParent))

	require.Equal(t, params.StagedBlockBufferLimit, buf.Len())
	require.Nil(t, buf.Drain(oldestParent))
	require.Len(t, buf.Drain(newParent), 1)
}
