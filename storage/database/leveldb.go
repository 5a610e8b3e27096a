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
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// OpenFileLimit bounds the number of OS file handles LevelDB may hold
// open per column, matching klaytn's package-level OpenFileLimit.
var OpenFileLimit = 64

type levelDB struct {
	fn string
	db *leveldb.DB
}

func getLDBOptions() *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: OpenFileLimit,
		BlockCacheCapacity:     8 * opt.MiB,
		WriteBuffer:            4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

func OpenLevelDB(path string) (Database, error) {
	db, err := leveldb.OpenFile(path, getLDBOptions())
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelDB{fn: path, db: db}, nil
}

func (l *levelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *levelDB) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrKeyNotFound
	}
	return v, err
}

func (l *levelDB) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *levelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *levelDB) Close() error {
	return l.db.Close()
}

func (l *levelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, b: new(leveldb.Batch)}
}

func (l *levelDB) NewIteratorWithPrefix(prefix []byte) Iterator {
	return &levelIterator{iter: l.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

type levelBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *levelBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size += len(key)
	return nil
}

func (b *levelBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *levelBatch) ValueSize() int { return b.size }

func (b *levelBatch) Reset() {
	b.b.Reset()
	b.size = 0
}

type levelIterator struct {
	iter iterator.Iterator
}

func (it *levelIterator) Next() bool      { return it.iter.Next() }
func (it *levelIterator) Key() []byte     { return it.iter.Key() }
func (it *levelIterator) Value() []byte   { return it.iter.Value() }
func (it *levelIterator) Release()        { it.iter.Release() }
