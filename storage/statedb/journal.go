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

// Package statedb implements the journaled overlay over the columnar KV
// store (OverlayRecentDB, spec.md §4.1) and the secure Merkle-Patricia
// trie built on top of it (spec.md §4.2). It is the Go analogue of
// klaytn's storage/statedb package (referenced as the `Trie`/`Database`
// types in blockchain/state/database.go).
package statedb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/log"
	"github.com/unitynet/unity/rlp"
	"github.com/unitynet/unity/storage/database"
)

var logger = log.NewModuleLogger(log.JournalDB)

// cleanCacheSize bounds the off-heap cache of trie nodes already resolved
// to the backing store, sized the way klaytn's trie "clean cache" is:
// large enough to absorb re-reads of hot upper-trie nodes across blocks.
const cleanCacheSize = 32 * 1024 * 1024

// JournalEntry is one record of a journal_under call: the era id plus the
// set of node hashes it inserted and deleted, spec.md §3.
type JournalEntry struct {
	ID         common.Hash
	Insertions []common.Hash
	Deletions  []common.Hash
}

// ErrNegativelyReferenced is fatal per spec.md §4.1/§7: a delete with no
// backing value during Inject.
var ErrNegativelyReferenced = fmt.Errorf("journaldb: negatively referenced hash")

type refValue struct {
	value []byte
	count int32
}

type pendingOp struct {
	value   []byte
	deleted bool
}

// OverlayRecentDB is the journaled key/value overlay described in
// spec.md §4.1. It keeps a bounded in-memory history of recent eras so a
// losing fork can be rolled back without ever having touched the
// underlying KV store, and commits the canonical branch's insertions
// (pruning the rest) once an era is finalized.
type OverlayRecentDB struct {
	mu sync.RWMutex

	backing database.Database // ColumnState

	transactionOverlay map[common.Hash]*pendingOp
	backingOverlay     map[common.Hash]*refValue
	pendingOverlay     map[common.Hash][]byte

	journal map[uint64][]*JournalEntry

	latestEra      *uint64
	earliestEra    *uint64
	cumulativeSize int

	// cleanCache fronts reads that fall all the way through to backing:
	// once a node is known-committed (no longer in any overlay), it never
	// changes under that hash, so it's safe to cache off-heap.
	cleanCache *fastcache.Cache
}

func NewOverlayRecentDB(backing database.Database) *OverlayRecentDB {
	db := &OverlayRecentDB{
		backing:            backing,
		transactionOverlay: make(map[common.Hash]*pendingOp),
		backingOverlay:     make(map[common.Hash]*refValue),
		pendingOverlay:     make(map[common.Hash][]byte),
		journal:            make(map[uint64][]*JournalEntry),
		cleanCache:         fastcache.New(cleanCacheSize),
	}
	db.recover()
	return db
}

// Insert stages a value for the next journal_under call.
func (db *OverlayRecentDB) Insert(hash common.Hash, value []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := append([]byte(nil), value...)
	db.transactionOverlay[hash] = &pendingOp{value: cp}
}

// Delete records a staged deletion.
func (db *OverlayRecentDB) Delete(hash common.Hash) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.transactionOverlay[hash] = &pendingOp{deleted: true}
}

// Get resolves a hash through transaction overlay -> pending overlay ->
// backing overlay -> KV store, spec.md §4.1.
func (db *OverlayRecentDB) Get(hash common.Hash) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.getLocked(hash)
}

func (db *OverlayRecentDB) getLocked(hash common.Hash) ([]byte, error) {
	if op, ok := db.transactionOverlay[hash]; ok {
		if op.deleted {
			return nil, database.ErrKeyNotFound
		}
		return op.value, nil
	}
	if v, ok := db.pendingOverlay[hash]; ok {
		return v, nil
	}
	if rv, ok := db.backingOverlay[hash]; ok {
		return rv.value, nil
	}
	if v, ok := db.cleanCache.HasGet(nil, hash.Bytes()); ok {
		return v, nil
	}
	v, err := db.backing.Get(stateKey(hash))
	if err == nil {
		db.cleanCache.Set(hash.Bytes(), v)
	}
	return v, err
}

// JournalUnder drains the transaction overlay into the backing overlay,
// incrementing reference counts on insertions, recording deletions, and
// appends the resulting JournalEntry under (era, id), spec.md §4.1.
func (db *OverlayRecentDB) JournalUnder(era uint64, id common.Hash) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry := &JournalEntry{ID: id}
	for hash, op := range db.transactionOverlay {
		if op.deleted {
			entry.Deletions = append(entry.Deletions, hash)
			continue
		}
		entry.Insertions = append(entry.Insertions, hash)
		if rv, ok := db.backingOverlay[hash]; ok {
			rv.count++
		} else {
			db.backingOverlay[hash] = &refValue{value: op.value, count: 1}
			db.cumulativeSize += len(op.value)
		}
	}
	// deterministic ordering so serialization (and tests) are stable.
	sort.Slice(entry.Insertions, func(i, j int) bool { return less(entry.Insertions[i], entry.Insertions[j]) })
	sort.Slice(entry.Deletions, func(i, j int) bool { return less(entry.Deletions[i], entry.Deletions[j]) })

	db.transactionOverlay = make(map[common.Hash]*pendingOp)
	db.journal[era] = append(db.journal[era], entry)

	if err := db.persistJournalEntry(era, len(db.journal[era])-1, entry); err != nil {
		return err
	}
	if db.latestEra == nil || era > *db.latestEra {
		e := era
		db.latestEra = &e
	}
	if db.earliestEra == nil || era < *db.earliestEra {
		e := era
		db.earliestEra = &e
	}
	return db.writeEraMarkers()
}

// MarkCanonical finalizes era endEra: the record whose id matches canonID
// is persisted to the backing KV store (insertions not already pending,
// deletions batched out when no longer referenced); every record's
// insertions are decref'd regardless of canonicity, spec.md §4.1.
func (db *OverlayRecentDB) MarkCanonical(endEra uint64, canonID common.Hash) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	records := db.journal[endEra]
	batch := db.backing.NewBatch()
	for _, record := range records {
		if record.ID == canonID {
			for _, h := range record.Insertions {
				if _, pending := db.pendingOverlay[h]; pending {
					continue
				}
				rv, ok := db.backingOverlay[h]
				if !ok {
					continue
				}
				if err := batch.Put(stateKey(h), rv.value); err != nil {
					return err
				}
				db.pendingOverlay[h] = rv.value
			}
			for _, h := range record.Deletions {
				if _, stillHeld := db.backingOverlay[h]; !stillHeld {
					if err := batch.Delete(stateKey(h)); err != nil {
						return err
					}
					db.cleanCache.Del(h.Bytes())
				}
			}
		}
		for _, h := range record.Insertions {
			db.decref(h)
		}
	}
	delete(db.journal, endEra)
	if err := batch.Write(); err != nil {
		return err
	}
	if db.earliestEra == nil || endEra >= *db.earliestEra {
		next := endEra + 1
		db.earliestEra = &next
	}
	return db.writeEraMarkers()
}

func (db *OverlayRecentDB) decref(h common.Hash) {
	rv, ok := db.backingOverlay[h]
	if !ok {
		return
	}
	rv.count--
	if rv.count <= 0 {
		db.cumulativeSize -= len(rv.value)
		delete(db.backingOverlay, h)
	}
}

// Inject applies the transaction overlay directly to the backing KV
// store, bypassing the era history. Used outside history scope (e.g.
// genesis load). A delete with no backing value is fatal corruption,
// spec.md §4.1/§7.
func (db *OverlayRecentDB) Inject() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	batch := db.backing.NewBatch()
	for hash, op := range db.transactionOverlay {
		if op.deleted {
			has, err := db.backing.Has(stateKey(hash))
			if err != nil {
				return err
			}
			if !has {
				logger.Crit("negatively referenced hash on inject", "hash", hash)
				return ErrNegativelyReferenced
			}
			if err := batch.Delete(stateKey(hash)); err != nil {
				return err
			}
			continue
		}
		if err := batch.Put(stateKey(hash), op.value); err != nil {
			return err
		}
	}
	db.transactionOverlay = make(map[common.Hash]*pendingOp)
	return batch.Write()
}

func (db *OverlayRecentDB) LatestEra() (uint64, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.latestEra == nil {
		return 0, false
	}
	return *db.latestEra, true
}

func (db *OverlayRecentDB) CumulativeSize() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.cumulativeSize
}

// --- persistence helpers ---

func stateKey(h common.Hash) []byte {
	return append([]byte("s:"), h.Bytes()...)
}

func journalKey(era uint64, index int) []byte {
	return []byte(fmt.Sprintf("jnl:%020d:%020d", era, index))
}

var (
	latestEraKey   = []byte("meta:latest_era")
	earliestEraKey = []byte("meta:earliest_era")
)

func (db *OverlayRecentDB) persistJournalEntry(era uint64, index int, e *JournalEntry) error {
	items := [][]byte{rlp.EncodeBytes(e.ID.Bytes())}
	var ins, del [][]byte
	for _, h := range e.Insertions {
		ins = append(ins, rlp.EncodeBytes(h.Bytes()))
	}
	for _, h := range e.Deletions {
		del = append(del, rlp.EncodeBytes(h.Bytes()))
	}
	items = append(items, rlp.EncodeList(ins...), rlp.EncodeList(del...))
	return db.backing.Put(journalKey(era, index), rlp.EncodeList(items...))
}

func (db *OverlayRecentDB) writeEraMarkers() error {
	if db.latestEra != nil {
		if err := db.backing.Put(latestEraKey, rlp.EncodeUint(*db.latestEra)); err != nil {
			return err
		}
	}
	if db.earliestEra != nil {
		if err := db.backing.Put(earliestEraKey, rlp.EncodeUint(*db.earliestEra)); err != nil {
			return err
		}
	}
	return nil
}

// recover replays era/index records on open, reconstructing the
// in-memory backing overlay and journal, spec.md §4.1 "Recovery".
func (db *OverlayRecentDB) recover() {
	latestRaw, err := db.backing.Get(latestEraKey)
	if err != nil {
		return // fresh database, nothing to replay
	}
	latestItem, err := rlp.DecodeExact(latestRaw)
	if err != nil {
		return
	}
	latest, err := latestItem.Uint64()
	if err != nil {
		return
	}
	earliest := uint64(0)
	if earliestRaw, err := db.backing.Get(earliestEraKey); err == nil {
		if item, err := rlp.DecodeExact(earliestRaw); err == nil {
			if v, err := item.Uint64(); err == nil {
				earliest = v
			}
		}
	}

	for era := latest; ; era-- {
		found := false
		for index := 0; ; index++ {
			raw, err := db.backing.Get(journalKey(era, index))
			if err != nil {
				break
			}
			entry, err := decodeJournalEntry(raw)
			if err != nil {
				logger.Warn("corrupt journal entry during recovery", "era", era, "index", index, "err", err)
				break
			}
			found = true
			db.journal[era] = append(db.journal[era], entry)
			for _, h := range entry.Insertions {
				if rv, ok := db.backingOverlay[h]; ok {
					rv.count++
				} else {
					db.backingOverlay[h] = &refValue{count: 1}
				}
			}
		}
		if !found && era <= earliest {
			break
		}
		if era == 0 {
			break
		}
	}
	db.latestEra = &latest
	db.earliestEra = &earliest
}

func decodeJournalEntry(raw []byte) (*JournalEntry, error) {
	item, err := rlp.DecodeExact(raw)
	if err != nil {
		return nil, err
	}
	if !item.IsList || len(item.List) != 3 {
		return nil, rlp.ErrExpectedList
	}
	e := &JournalEntry{ID: common.BytesToHash(item.List[0].Bytes)}
	for _, it := range item.List[1].List {
		e.Insertions = append(e.Insertions, common.BytesToHash(it.Bytes))
	}
	for _, it := range item.List[2].List {
		e.Deletions = append(e.Deletions, common.BytesToHash(it.Bytes))
	}
	return e, nil
}

func less(a, b common.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
