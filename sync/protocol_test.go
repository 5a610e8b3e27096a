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

package sync

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
)

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	f := Frame{Version: 1, Control: ControlSync, Action: ActionStatusReq, Body: []byte("hello")}
	buf := bytes.NewBuffer(EncodeFrame(f))

	got, err := DecodeFrame(buf)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestDecodeFrameRejectsInvalidAction(t *testing.T) {
	f := Frame{Version: 1, Control: ControlSync, Action: 99, Body: []byte("x")}
	buf := bytes.NewBuffer(EncodeFrame(f))

	_, err := DecodeFrame(buf)
	require.ErrorIs(t, err, ErrInvalidFrame)
}

func TestDecodeFrameRejectsInvalidVersion(t *testing.T) {
	f := Frame{Version: MaxVersion + 1, Control: ControlSync, Action: ActionStatusReq, Body: []byte("x")}
	buf := bytes.NewBuffer(EncodeFrame(f))

	_, err := DecodeFrame(buf)
	require.ErrorIs(t, err, ErrInvalidFrame)
}

func TestStatusRoundTrip(t *testing.T) {
	s := StatusData{
		BestNumber:      42,
		BestHash:        common.BytesToHash([]byte("besthash")),
		TotalDifficulty: big.NewInt(123456),
		GenesisHash:     common.BytesToHash([]byte("genesis")),
	}
	got, err := DecodeStatus(EncodeStatus(s))
	require.NoError(t, err)
	require.Equal(t, s.BestNumber, got.BestNumber)
	require.Equal(t, s.BestHash, got.BestHash)
	require.Equal(t, 0, s.TotalDifficulty.Cmp(got.TotalDifficulty))
	require.Equal(t, s.GenesisHash, got.GenesisHash)
}

func TestHeadersRequestRoundTrip(t *testing.T) {
	req := HeadersRequest{From: 10, Count: 96}
	got, err := DecodeHeadersRequest(EncodeHeadersRequest(req))
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestHeadersRoundTrip(t *testing.T) {
	headers := []*types.Header{
		{Number: 1, Difficulty: big.NewInt(10)},
		{Number: 2, Difficulty: big.NewInt(20)},
	}
	got, err := DecodeHeaders(EncodeHeaders(headers))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(1), got[0].Number)
	require.Equal(t, uint64(2), got[1].Number)
}

func TestBodiesRequestRoundTrip(t *testing.T) {
	hashes := []common.Hash{common.BytesToHash([]byte("a")), common.BytesToHash([]byte("b"))}
	got, err := DecodeBodiesRequest(EncodeBodiesRequest(hashes))
	require.NoError(t, err)
	require.Equal(t, hashes, got)
}

func TestBodiesRoundTripEmpty(t *testing.T) {
	bodies := []*types.Body{{}, {}}
	got, err := DecodeBodies(EncodeBodies(bodies))
	require.NoError(t, err)
	require.Len(t, got, 2)
}
