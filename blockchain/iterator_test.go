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

package blockchain

import (
	"bytes"
	"encoding/hex"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
)

func testBlock(t *testing.T, number uint64) *types.Block {
	t.Helper()
	header := &types.Header{
		Number:     number,
		Author:     common.BytesToAddress([]byte("author")),
		Difficulty: big.NewInt(int64(number) + 1),
		GasLimit:   21000,
		SealType:   types.SealPoW,
		Seal:       types.Seal{Type: types.SealPoW, Nonce: []byte{1}, Solution: []byte{2}},
	}
	return types.NewBlock(header, nil)
}

func TestBlockIteratorDetectsBinaryStream(t *testing.T) {
	b1, b2 := testBlock(t, 1), testBlock(t, 2)
	var buf bytes.Buffer
	buf.Write(b1.Encode())
	buf.Write(b2.Encode())
	require.Equal(t, byte(binaryLeadByte), buf.Bytes()[0])

	it, err := NewBlockIterator(&buf)
	require.NoError(t, err)
	require.True(t, it.binary)

	got1, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, b1.Hash(), got1.Hash())

	got2, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, b2.Hash(), got2.Hash())

	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestBlockIteratorDetectsHexStream(t *testing.T) {
	b1, b2 := testBlock(t, 1), testBlock(t, 2)
	lines := []string{
		hex.EncodeToString(b1.Encode()),
		"",
		hex.EncodeToString(b2.Encode()),
	}
	r := strings.NewReader(strings.Join(lines, "\n"))

	it, err := NewBlockIterator(r)
	require.NoError(t, err)
	require.False(t, it.binary)

	got1, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, b1.Hash(), got1.Hash())

	got2, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, b2.Hash(), got2.Hash())

	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestBlockIteratorEmptyStreamYieldsEOF(t *testing.T) {
	it, err := NewBlockIterator(strings.NewReader(""))
	require.NoError(t, err)
	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}
