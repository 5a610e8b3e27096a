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

package database

import (
	"sort"
	"strings"
	"sync"
)

// MemDatabase is an in-memory Database, used by tests and MemManager.
// Mirrors klaytn's MemDatabase referenced throughout db_manager.go.
type MemDatabase struct {
	mu sync.RWMutex
	kv map[string][]byte
}

func NewMemDatabase() *MemDatabase {
	return &MemDatabase{kv: make(map[string][]byte)}
}

func (d *MemDatabase) Put(key, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	d.kv[string(key)] = cp
	return nil
}

func (d *MemDatabase) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.kv[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (d *MemDatabase) Has(key []byte) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.kv[string(key)]
	return ok, nil
}

func (d *MemDatabase) Delete(key []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.kv, string(key))
	return nil
}

func (d *MemDatabase) Close() error { return nil }

func (d *MemDatabase) NewBatch() Batch {
	return &memBatch{db: d}
}

func (d *MemDatabase) NewIteratorWithPrefix(prefix []byte) Iterator {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var keys []string
	for k := range d.kv {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return &memIterator{db: d, keys: keys, pos: -1}
}

type memOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	db   *MemDatabase
	ops  []memOp
	size int
}

func (b *memBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, memOp{key: key, value: value})
	b.size += len(key) + len(value)
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memOp{key: key, delete: true})
	b.size += len(key)
	return nil
}

func (b *memBatch) ValueSize() int { return b.size }

func (b *memBatch) Reset() {
	b.ops = nil
	b.size = 0
}

func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.kv, string(op.key))
			continue
		}
		cp := make([]byte, len(op.value))
		copy(cp, op.value)
		b.db.kv[string(op.key)] = cp
	}
	return nil
}

type memIterator struct {
	db   *MemDatabase
	keys []string
	pos  int
}

func (it *memIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memIterator) Key() []byte {
	return []byte(it.keys[it.pos])
}

func (it *memIterator) Value() []byte {
	it.db.mu.RLock()
	defer it.db.mu.RUnlock()
	return it.db.kv[it.keys[it.pos]]
}

func (it *memIterator) Release() {}
