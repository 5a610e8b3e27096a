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

// Badger is the alternate KV engine column databases may select, next to
// LevelDB. Grounded on klaytn's storage/database/badger_database.go (the
// teacher ships both backends behind the same DBManager facade).
package database

import (
	badger "github.com/dgraph-io/badger"
	"github.com/pkg/errors"
)

type badgerDB struct {
	db *badger.DB
}

func OpenBadgerDB(path string) (Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger db at %s", path)
	}
	return &badgerDB{db: db}, nil
}

func (b *badgerDB) Put(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrKeyNotFound
	}
	return out, err
}

func (b *badgerDB) Has(key []byte) (bool, error) {
	_, err := b.Get(key)
	if err == ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

func (b *badgerDB) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}

func (b *badgerDB) NewBatch() Batch {
	return &badgerBatch{db: b.db, wb: b.db.NewWriteBatch()}
}

func (b *badgerDB) NewIteratorWithPrefix(prefix []byte) Iterator {
	txn := b.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(prefix)
	return &badgerIterator{txn: txn, it: it, prefix: prefix, started: false}
}

type badgerBatch struct {
	wb   *badger.WriteBatch
	db   *badger.DB
	size int
	ops  []func(txn *badger.Txn) error
}

func (b *badgerBatch) Put(key, value []byte) error {
	b.size += len(key) + len(value)
	return b.wb.Set(append([]byte(nil), key...), append([]byte(nil), value...))
}

func (b *badgerBatch) Delete(key []byte) error {
	b.size += len(key)
	return b.wb.Delete(append([]byte(nil), key...))
}

func (b *badgerBatch) ValueSize() int { return b.size }

func (b *badgerBatch) Reset() {
	b.wb.Cancel()
	b.wb = b.db.NewWriteBatch()
	b.size = 0
}

func (b *badgerBatch) Write() error {
	return b.wb.Flush()
}

type badgerIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
}

func (it *badgerIterator) Next() bool {
	if !it.started {
		it.started = true
	} else {
		it.it.Next()
	}
	return it.it.ValidForPrefix(it.prefix)
}

func (it *badgerIterator) Key() []byte {
	return it.it.Item().KeyCopy(nil)
}

func (it *badgerIterator) Value() []byte {
	v, _ := it.it.Item().ValueCopy(nil)
	return v
}

func (it *badgerIterator) Release() {
	it.it.Close()
	it.txn.Discard()
}
