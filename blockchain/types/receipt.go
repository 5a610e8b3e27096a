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
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/rlp"
)

// Log is a single VM-emitted event, the unit the header's LogBloom is
// built from.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

func (l *Log) encode() []byte {
	var topics [][]byte
	for _, t := range l.Topics {
		topics = append(topics, rlp.EncodeBytes(t.Bytes()))
	}
	return rlp.EncodeList(
		rlp.EncodeBytes(l.Address.Bytes()),
		rlp.EncodeList(topics...),
		rlp.EncodeBytes(l.Data),
	)
}

// Receipt records the outcome of executing one transaction, spec.md §3
// ("gas_used = Σ receipt.gas_used").
type Receipt struct {
	TxHash          common.Hash
	Status          bool // true = success
	GasUsed         uint64
	CumulativeGas   uint64
	Logs            []*Log
	ContractAddress common.Address // set only for successful Create actions
}

func (r *Receipt) encode() []byte {
	status := uint64(0)
	if r.Status {
		status = 1
	}
	var logs [][]byte
	for _, l := range r.Logs {
		logs = append(logs, l.encode())
	}
	return rlp.EncodeList(
		rlp.EncodeBytes(r.TxHash.Bytes()),
		rlp.EncodeUint(status),
		rlp.EncodeUint(r.GasUsed),
		rlp.EncodeUint(r.CumulativeGas),
		rlp.EncodeList(logs...),
		rlp.EncodeBytes(r.ContractAddress.Bytes()),
	)
}

func (r *Receipt) GetRlp(_ int) []byte { return r.encode() }

// Bloom computes a simple presence bitmap over the receipt's log
// addresses and topics, folded into the header's LogBloom by the block
// lifecycle on close.
func (r *Receipt) Bloom() [256]byte {
	var bloom [256]byte
	add := func(b []byte) {
		for i := 0; i < 3; i++ {
			idx := (int(b[i*2])<<8 | int(b[i*2+1])) % 2048
			bloom[idx/8] |= 1 << uint(idx%8)
		}
	}
	for _, l := range r.Logs {
		h := common.BytesToHash(append([]byte(nil), l.Address.Bytes()...))
		add(h.Bytes())
		for _, t := range l.Topics {
			add(t.Bytes())
		}
	}
	return bloom
}

type Receipts []*Receipt

func (r Receipts) Len() int            { return len(r) }
func (r Receipts) GetRlp(i int) []byte { return r[i].encode() }

func (r Receipts) GasUsed() uint64 {
	var sum uint64
	for _, rec := range r {
		sum += rec.GasUsed
	}
	return sum
}

// MergedBloom ORs every receipt's bloom into a single header-level
// filter, spec.md §3 header field log_bloom.
func (r Receipts) MergedBloom() [256]byte {
	var out [256]byte
	for _, rec := range r {
		b := rec.Bloom()
		for i := range out {
			out[i] |= b[i]
		}
	}
	return out
}
