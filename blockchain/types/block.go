// Copyright 2018 The klaytn Authors
// Copyright 2014 The go-ethereum Authors
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

package types

import (
	"errors"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/rlp"
)

// Block is Header + ordered transactions, spec.md §3.
type Block struct {
	header       *Header
	transactions Transactions
}

func NewBlock(header *Header, txs Transactions) *Block {
	return &Block{header: header.Copy(), transactions: txs}
}

func (b *Block) Header() *Header          { return b.header }
func (b *Block) Number() uint64           { return b.header.Number }
func (b *Block) Hash() common.Hash        { return b.header.Hash() }
func (b *Block) ParentHash() common.Hash  { return b.header.ParentHash }
func (b *Block) Difficulty() interface{}  { return b.header.Difficulty }
func (b *Block) Transactions() Transactions {
	return b.transactions
}

func (b *Block) Body() *Body {
	return &Body{Transactions: b.transactions}
}

// Body is the non-header portion of a block, the unit the sync protocol
// exchanges separately from headers (spec.md §4.6 BodiesReq/BodiesRes).
type Body struct {
	Transactions Transactions
}

func (b *Block) encode() []byte {
	var txs [][]byte
	for _, tx := range b.transactions {
		txs = append(txs, tx.encode())
	}
	return rlp.EncodeList(b.header.encode(true), rlp.EncodeList(txs...))
}

// Encode returns the RLP list of [header, transactions], spec.md §6
// "Block encoding".
func (b *Block) Encode() []byte { return b.encode() }

var ErrMalformedBlockRLP = errors.New("types: malformed block RLP")

// IsGoodBlock reports whether bytes decode as a well-formed block, spec.md
// §6 "is_good(bytes)".
func IsGoodBlock(enc []byte) bool {
	_, err := DecodeBlock(enc)
	return err == nil
}

// DecodeBlock decodes the RLP list of 2 elements produced by Encode.
func DecodeBlock(enc []byte) (*Block, error) {
	item, err := rlp.DecodeExact(enc)
	if err != nil {
		return nil, err
	}
	if !item.IsList || len(item.List) != 2 {
		return nil, ErrMalformedBlockRLP
	}
	header, err := decodeHeader(item.List[0])
	if err != nil {
		return nil, err
	}
	if !item.List[1].IsList {
		return nil, ErrMalformedBlockRLP
	}
	var txs Transactions
	for _, txItem := range item.List[1].List {
		tx, err := decodeTransaction(txItem)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &Block{header: header, transactions: txs}, nil
}

// DecodeHeader decodes a single RLP-encoded header, the unit the sync
// protocol's HeadersRes carries one-per-entry (spec.md §4.6).
func DecodeHeader(enc []byte) (*Header, error) {
	item, err := rlp.DecodeExact(enc)
	if err != nil {
		return nil, err
	}
	return decodeHeader(item)
}

func decodeHeader(item rlp.Item) (*Header, error) {
	if !item.IsList || len(item.List) < 13 {
		return nil, ErrMalformedBlockRLP
	}
	f := item.List
	h := &Header{}
	h.ParentHash = common.BytesToHash(f[0].Bytes)
	n, err := f[1].Uint64()
	if err != nil {
		return nil, err
	}
	h.Number = n
	h.Author = common.BytesToAddress(f[2].Bytes)
	ts, err := f[3].Uint64()
	if err != nil {
		return nil, err
	}
	h.Timestamp = ts
	diff, err := f[4].BigInt()
	if err != nil {
		return nil, err
	}
	h.Difficulty = diff
	if h.GasLimit, err = f[5].Uint64(); err != nil {
		return nil, err
	}
	if h.GasUsed, err = f[6].Uint64(); err != nil {
		return nil, err
	}
	h.TransactionsRoot = common.BytesToHash(f[7].Bytes)
	h.StateRoot = common.BytesToHash(f[8].Bytes)
	h.ReceiptsRoot = common.BytesToHash(f[9].Bytes)
	copy(h.LogBloom[:], f[10].Bytes)
	h.ExtraData = f[11].Bytes
	st, err := f[12].Uint64()
	if err != nil {
		return nil, err
	}
	h.SealType = SealType(st)

	var sealFields [][]byte
	for _, it := range f[13:] {
		sealFields = append(sealFields, it.Bytes)
	}
	seal, err := SealFromFields(h.SealType, sealFields)
	if err != nil && len(sealFields) > 0 {
		return nil, err
	}
	h.Seal = seal
	return h, nil
}

// DecodeTransactionList decodes a list of already-parsed RLP items each
// representing one transaction, the shape sync.BodiesRes carries inside
// each body entry.
func DecodeTransactionList(items []rlp.Item) (Transactions, error) {
	txs := make(Transactions, 0, len(items))
	for _, it := range items {
		tx, err := decodeTransaction(it)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func decodeTransaction(item rlp.Item) (*SignedTransaction, error) {
	if !item.IsList || len(item.List) != 3 {
		return nil, ErrMalformedBlockRLP
	}
	baseItem := item.List[0]
	if !baseItem.IsList || len(baseItem.List) != 9 {
		return nil, ErrMalformedBlockRLP
	}
	bf := baseItem.List
	tx := &SignedTransaction{}
	var e error
	if tx.Nonce, e = bf[0].Uint64(); e != nil {
		return nil, e
	}
	if tx.GasPrice, e = bf[1].BigInt(); e != nil {
		return nil, e
	}
	if tx.Gas, e = bf[2].Uint64(); e != nil {
		return nil, e
	}
	action, e := bf[3].Uint64()
	if e != nil {
		return nil, e
	}
	tx.Kind = ActionKind(action)
	tx.To = common.BytesToAddress(bf[4].Bytes)
	if tx.Value, e = bf[5].BigInt(); e != nil {
		return nil, e
	}
	tx.Data = bf[6].Bytes
	txType, e := bf[7].Uint64()
	if e != nil {
		return nil, e
	}
	tx.TxType = TxType(txType)
	if tx.Timestamp, e = bf[8].Uint64(); e != nil {
		return nil, e
	}
	tx.Signature = item.List[1].Bytes
	tx.PublicKey = item.List[2].Bytes
	return tx, nil
}
