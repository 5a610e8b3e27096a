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
	"math/big"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/params"
	"github.com/unitynet/unity/rlp"
)

// SealType distinguishes the two sealing algorithms a header may carry,
// spec.md §3.
type SealType uint8

const (
	SealPoW SealType = iota
	SealPoS
)

func (s SealType) String() string {
	if s == SealPoS {
		return "PoS"
	}
	return "PoW"
}

// Seal holds the unverified seal fields appended to a header at sealing
// time. The variant shape is kept explicit (design note in spec.md §9)
// rather than a bare [][]byte so arity mismatches are caught at
// construction instead of deep inside verification.
type Seal struct {
	Type SealType

	// PoW fields.
	Nonce    []byte
	Solution []byte

	// PoS fields.
	Seed      []byte
	Signature []byte
	PublicKey []byte
}

var ErrInvalidSealArity = errors.New("types: invalid seal arity")

// Fields returns the seal as the wire-level list of byte strings, spec.md
// §3 "seal (list of byte strings)".
func (s Seal) Fields() [][]byte {
	if s.Type == SealPoS {
		return [][]byte{s.Seed, s.Signature, s.PublicKey}
	}
	return [][]byte{s.Nonce, s.Solution}
}

// SealFromFields reconstructs a Seal from its wire fields, validating
// arity against the declared type.
func SealFromFields(t SealType, fields [][]byte) (Seal, error) {
	switch t {
	case SealPoW:
		if len(fields) != params.PowSealFields {
			return Seal{}, ErrInvalidSealArity
		}
		return Seal{Type: SealPoW, Nonce: fields[0], Solution: fields[1]}, nil
	case SealPoS:
		if len(fields) != params.PosSealFields {
			return Seal{}, ErrInvalidSealArity
		}
		return Seal{Type: SealPoS, Seed: fields[0], Signature: fields[1], PublicKey: fields[2]}, nil
	default:
		return Seal{}, ErrInvalidSealArity
	}
}

func (s Seal) IsEmpty() bool {
	return len(s.Fields()[0]) == 0
}

// Header is the block header, spec.md §3.
type Header struct {
	ParentHash       common.Hash
	Number           uint64
	Author           common.Address
	Timestamp        uint64
	Difficulty       *big.Int
	GasLimit         uint64
	GasUsed          uint64
	TransactionsRoot common.Hash
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	LogBloom         [256]byte
	ExtraData        []byte
	SealType         SealType
	Seal             Seal
}

// encode returns the canonical encoding of every header field, with the
// seal fields appended when withSeal is set. Without the seal it is the
// mining preimage (spec.md §3: "Hash = deterministic canonical encoding of
// all fields except the seal when used for mining").
func (h *Header) encode(withSeal bool) []byte {
	items := [][]byte{
		rlp.EncodeBytes(h.ParentHash.Bytes()),
		rlp.EncodeUint(h.Number),
		rlp.EncodeBytes(h.Author.Bytes()),
		rlp.EncodeUint(h.Timestamp),
		rlp.EncodeBigInt(h.Difficulty),
		rlp.EncodeUint(h.GasLimit),
		rlp.EncodeUint(h.GasUsed),
		rlp.EncodeBytes(h.TransactionsRoot.Bytes()),
		rlp.EncodeBytes(h.StateRoot.Bytes()),
		rlp.EncodeBytes(h.ReceiptsRoot.Bytes()),
		rlp.EncodeBytes(h.LogBloom[:]),
		rlp.EncodeBytes(h.ExtraData),
		rlp.EncodeUint(uint64(h.SealType)),
	}
	if withSeal {
		for _, f := range h.Seal.Fields() {
			items = append(items, rlp.EncodeBytes(f))
		}
	}
	return rlp.EncodeList(items...)
}

// Encode returns the canonical RLP encoding of the header including its
// seal, the wire representation sync.HeadersRes carries per entry.
func (h *Header) Encode() []byte { return h.encode(true) }

// HashNoSeal is the mining preimage: every field except the seal.
func (h *Header) HashNoSeal() common.Hash {
	return crypto.Blake2b256(h.encode(false))
}

// Hash is the block identity hash: every field including the seal.
func (h *Header) Hash() common.Hash {
	return crypto.Blake2b256(h.encode(true))
}

func (h *Header) Copy() *Header {
	cp := *h
	cp.Difficulty = new(big.Int).Set(h.Difficulty)
	cp.ExtraData = append([]byte(nil), h.ExtraData...)
	cp.Seal = h.Seal
	return &cp
}
