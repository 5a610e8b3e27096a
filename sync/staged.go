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
	"container/list"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/params"
)

// StagedBuffer holds blocks whose parent is not yet known, keyed by
// parent hash, bounded to params.StagedBlockBufferLimit distinct
// parents, spec.md §4.6 "Staged-block buffer".
type StagedBuffer struct {
	mu sync.Mutex

	byParent map[common.Hash][]*types.Block
	known    mapset.Set[common.Hash] // block hashes currently buffered, for dedup
	order    *list.List              // parent hashes, oldest first, for eviction
	elems    map[common.Hash]*list.Element
}

func NewStagedBuffer() *StagedBuffer {
	return &StagedBuffer{
		byParent: make(map[common.Hash][]*types.Block),
		known:    mapset.NewSet[common.Hash](),
		order:    list.New(),
		elems:    make(map[common.Hash]*list.Element),
	}
}

// Stage buffers block under its parent hash. If the buffer is already at
// capacity and block's parent isn't an existing key, the oldest parent
// bucket is evicted to make room.
func (s *StagedBuffer) Stage(block *types.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.Hash()
	if s.known.Contains(hash) {
		return
	}
	parent := block.ParentHash()
	if _, exists := s.byParent[parent]; !exists {
		if s.order.Len() >= params.StagedBlockBufferLimit {
			s.evictOldestLocked()
		}
		s.elems[parent] = s.order.PushBack(parent)
	}
	s.byParent[parent] = append(s.byParent[parent], block)
	s.known.Add(hash)
}

func (s *StagedBuffer) evictOldestLocked() {
	front := s.order.Front()
	if front == nil {
		return
	}
	parent := front.Value.(common.Hash)
	s.order.Remove(front)
	delete(s.elems, parent)
	for _, b := range s.byParent[parent] {
		s.known.Remove(b.Hash())
	}
	delete(s.byParent, parent)
}

// Drain removes and returns every block staged under parentHash, in
// insertion order, for the caller to attempt import on — spec.md §4.6:
// "On successful import of a block hash, the cache is probed for
// dependents and they are drained into import in order."
func (s *StagedBuffer) Drain(parentHash common.Hash) []*types.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks, ok := s.byParent[parentHash]
	if !ok {
		return nil
	}
	delete(s.byParent, parentHash)
	if elem, ok := s.elems[parentHash]; ok {
		s.order.Remove(elem)
		delete(s.elems, parentHash)
	}
	for _, b := range blocks {
		s.known.Remove(b.Hash())
	}
	return blocks
}

// Len reports the number of distinct parent hashes currently staged.
func (s *StagedBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
