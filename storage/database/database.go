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

// Package database implements the columnar, byte-keyed KV store that every
// higher layer (journal DB, headers, bodies, receipts, node info) persists
// through. It mirrors klaytn's storage/database: a DBManager facade in
// front of one physical engine per named column, each with atomic write
// batches.
package database

import (
	"errors"
	"sync"

	"github.com/unitynet/unity/log"
)

var logger = log.NewModuleLogger(log.StorageDB)

var ErrKeyNotFound = errors.New("database: key not found")

// Putter is the minimal write surface the state trie's Prove path and the
// journal DB's direct KV-store writes both need.
type Putter interface {
	Put(key, value []byte) error
}

// Database is a single physical-engine handle: get/put/delete plus
// iteration and batch construction. Both the LevelDB and Badger backends
// implement it.
type Database interface {
	Putter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewBatch() Batch
	NewIteratorWithPrefix(prefix []byte) Iterator
	Close() error
}

// Batch accumulates writes for atomic application, spec.md §4.1 "atomic
// write batches".
type Batch interface {
	Putter
	Delete(key []byte) error
	Write() error
	ValueSize() int
	Reset()
}

// Iterator walks key/value pairs in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Column names the logical partitions a DBManager exposes, spec.md §6
// "Persisted column layout".
type Column int

const (
	ColumnHeaders Column = iota
	ColumnBodies
	ColumnReceipts
	ColumnState
	ColumnExtras
	ColumnNodeInfo
	ColumnAvmGraph
	columnCount
)

var columnDirs = [columnCount]string{
	"headers", "bodies", "receipts", "state", "extras", "node_info", "avm_graph",
}

// Engine selects the physical storage backend for a data directory.
type Engine string

const (
	EngineLevelDB Engine = "leveldb"
	EngineBadger  Engine = "badger"
)

// Manager is the facade used by every consumer of persistent storage: one
// Database per column, each independently batchable, matching klaytn's
// DBManager split across headerDB/BodyDB/StateTrieDB/etc.
type Manager struct {
	mu   sync.RWMutex
	dbs  [columnCount]Database
	path string
}

// MemManager builds an all-in-memory Manager, used by tests.
func MemManager() *Manager {
	m := &Manager{}
	for i := range m.dbs {
		m.dbs[i] = NewMemDatabase()
	}
	return m
}

// OpenManager opens (or creates) one physical engine per column under
// path, using the requested backend.
func OpenManager(path string, engine Engine) (*Manager, error) {
	m := &Manager{path: path}
	for i := Column(0); i < columnCount; i++ {
		dir := path + "/" + columnDirs[i]
		var db Database
		var err error
		switch engine {
		case EngineBadger:
			db, err = OpenBadgerDB(dir)
		default:
			db, err = OpenLevelDB(dir)
		}
		if err != nil {
			return nil, err
		}
		m.dbs[i] = db
	}
	return m, nil
}

func (m *Manager) Column(c Column) Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dbs[c]
}

func (m *Manager) NewBatch(c Column) Batch {
	return m.Column(c).NewBatch()
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, db := range m.dbs {
		if db != nil {
			if err := db.Close(); err != nil {
				logger.Warn("error closing column database", "err", err)
			}
		}
	}
}
