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

package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/rlp"
)

func sampleTx(t *testing.T, nonce uint64) *SignedTransaction {
	pub, priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := &SignedTransaction{
		Nonce:     nonce,
		GasPrice:  big.NewInt(1),
		Gas:       21000,
		Kind:      ActionCall,
		To:        common.BytesToAddress([]byte("recipient")),
		Value:     big.NewInt(1000),
		Data:      []byte("payload"),
		TxType:    TxTypeFVM,
		Timestamp: 1234567890,
	}
	tx.Sign(pub, priv)
	return tx
}

func sampleHeader() *Header {
	return &Header{
		ParentHash:       common.BytesToHash([]byte("parent")),
		Number:           7,
		Author:           common.BytesToAddress([]byte("author")),
		Timestamp:        42,
		Difficulty:       big.NewInt(1000000),
		GasLimit:         8000000,
		GasUsed:          21000,
		TransactionsRoot: common.BytesToHash([]byte("txroot")),
		StateRoot:        common.BytesToHash([]byte("stateroot")),
		ReceiptsRoot:     common.BytesToHash([]byte("receiptsroot")),
		ExtraData:        []byte("extra"),
		SealType:         SealPoW,
		Seal:             Seal{Type: SealPoW, Nonce: []byte("nonce"), Solution: []byte("solution")},
	}
}

func TestTransactionSignRoundTrip(t *testing.T) {
	tx := sampleTx(t, 1)
	require.True(t, tx.VerifySignature())

	enc := tx.encode()
	item, err := rlp.DecodeExact(enc)
	require.NoError(t, err)
	decoded, err := decodeTransaction(item)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), decoded.Hash())
	require.True(t, decoded.VerifySignature())
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	header := sampleHeader()
	txs := Transactions{sampleTx(t, 0), sampleTx(t, 1)}
	block := NewBlock(header, txs)

	enc := block.Encode()
	require.True(t, IsGoodBlock(enc))

	decoded, err := DecodeBlock(enc)
	require.NoError(t, err)
	require.Equal(t, block.Hash(), decoded.Hash())
	require.Equal(t, len(txs), len(decoded.Transactions()))
	for i := range txs {
		require.Equal(t, txs[i].Hash(), decoded.Transactions()[i].Hash())
	}
}

func TestIsGoodBlockRejectsGarbage(t *testing.T) {
	require.False(t, IsGoodBlock([]byte{0xff, 0xff, 0xff}))
}

func TestHeaderHashChangesWithSeal(t *testing.T) {
	h := sampleHeader()
	noSeal := h.HashNoSeal()
	withSeal := h.Hash()
	require.NotEqual(t, noSeal, withSeal)
}

func TestReceiptsGasUsedAndBloom(t *testing.T) {
	receipts := Receipts{
		{TxHash: common.BytesToHash([]byte("t1")), Status: true, GasUsed: 100},
		{TxHash: common.BytesToHash([]byte("t2")), Status: true, GasUsed: 200,
			Logs: []*Log{{Address: common.BytesToAddress([]byte("c1")), Topics: []common.Hash{common.BytesToHash([]byte("evt"))}}}},
	}
	require.Equal(t, uint64(300), receipts.GasUsed())

	bloom := receipts.MergedBloom()
	var zero [256]byte
	require.NotEqual(t, zero, bloom)
}
