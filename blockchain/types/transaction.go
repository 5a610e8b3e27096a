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
	"math/big"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/rlp"
)

// ActionKind distinguishes contract creation from a call to an existing
// address, spec.md §3 "action ∈ {Create | Call(addr)}".
type ActionKind uint8

const (
	ActionCall ActionKind = iota
	ActionCreate
)

// TxType separates FVM calls from AVM calls, referenced by the block
// lifecycle's batching rule (spec.md §4.4: "AVM-typed transactions are
// grouped into contiguous batches").
type TxType uint8

const (
	TxTypeFVM TxType = iota
	TxTypeAVM
)

// SignedTransaction is the wire/storage representation of a transaction,
// spec.md §3.
type SignedTransaction struct {
	Nonce     uint64
	GasPrice  *big.Int
	Gas       uint64
	Kind      ActionKind
	To        common.Address // zero when Kind == ActionCreate
	Value     *big.Int
	Data      []byte
	TxType    TxType
	Timestamp uint64

	Signature []byte
	PublicKey []byte
}

// signingPayload encodes every field except the signature, with the
// timestamp included, matching spec.md §3: "Hash is deterministic over
// all fields including the timestamp appended at signing."
func (tx *SignedTransaction) signingPayload() []byte {
	action := uint64(0)
	if tx.Kind == ActionCreate {
		action = 1
	}
	return rlp.EncodeList(
		rlp.EncodeUint(tx.Nonce),
		rlp.EncodeBigInt(tx.GasPrice),
		rlp.EncodeUint(tx.Gas),
		rlp.EncodeUint(action),
		rlp.EncodeBytes(tx.To.Bytes()),
		rlp.EncodeBigInt(tx.Value),
		rlp.EncodeBytes(tx.Data),
		rlp.EncodeUint(uint64(tx.TxType)),
		rlp.EncodeUint(tx.Timestamp),
	)
}

func (tx *SignedTransaction) encode() []byte {
	return rlp.EncodeList(
		tx.signingPayload(),
		rlp.EncodeBytes(tx.Signature),
		rlp.EncodeBytes(tx.PublicKey),
	)
}

// Hash is the transaction identity hash, over the base fields, the
// timestamp, and the signature — spec.md §3.
func (tx *SignedTransaction) Hash() common.Hash {
	return crypto.Blake2b256(tx.encode())
}

// SigningHash is the preimage signed at construction time, before the
// signature itself exists.
func (tx *SignedTransaction) SigningHash() common.Hash {
	return crypto.Blake2b256(tx.signingPayload())
}

// Sign fills in Signature/PublicKey for tx using priv.
func (tx *SignedTransaction) Sign(pub []byte, priv []byte) {
	h := tx.SigningHash()
	tx.PublicKey = append([]byte(nil), pub...)
	tx.Signature = signEd25519(priv, h.Bytes())
}

// VerifySignature checks tx.Signature against tx.PublicKey over the
// signing hash.
func (tx *SignedTransaction) VerifySignature() bool {
	if len(tx.PublicKey) == 0 || len(tx.Signature) == 0 {
		return false
	}
	return crypto.VerifySignature(tx.PublicKey, tx.SigningHash().Bytes(), tx.Signature)
}

// From returns the sender address derived from the transaction's public
// key (the secure trie key, blake2b(pubkey)), matching how account
// addresses are derived from key material in accounts/keystore.
func (tx *SignedTransaction) From() common.Address {
	return common.BytesToAddress(crypto.Blake2b256(tx.PublicKey).Bytes())
}

func (tx *SignedTransaction) GetRlp(_ int) []byte { return tx.encode() }

// Encode returns the canonical RLP encoding of tx, the wire
// representation sync.BodiesRes carries per transaction.
func (tx *SignedTransaction) Encode() []byte { return tx.encode() }

// signEd25519 is a small indirection so transaction.go doesn't need the
// crypto/ed25519 type directly; crypto.Sign already accepts the raw key
// bytes.
func signEd25519(priv, digest []byte) []byte {
	return crypto.Sign(priv, digest)
}

// Transactions is a DerivableList of transaction RLP encodings, spec.md
// §3 "transactions_root = ordered_root(rlp(tx_i))".
type Transactions []*SignedTransaction

func (t Transactions) Len() int            { return len(t) }
func (t Transactions) GetRlp(i int) []byte { return t[i].encode() }

// Hashes returns the list of transaction hashes, used by transactions_set
// membership checks (spec.md §3 "transactions_set is the hash index of
// accepted transactions").
func (t Transactions) Hashes() []common.Hash {
	out := make([]common.Hash, len(t))
	for i, tx := range t {
		out[i] = tx.Hash()
	}
	return out
}
