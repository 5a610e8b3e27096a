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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeerStatusExchangeTransitionsToAlive(t *testing.T) {
	p := NewPeerNode("node-1", "127.0.0.1:0", &bytes.Buffer{})
	require.Equal(t, Disconnected, p.State)

	p.ApplyStatus(StatusData{BestNumber: 10, TotalDifficulty: big.NewInt(100)})
	require.Equal(t, Alive, p.State)
	require.Equal(t, uint64(10), p.BestBlockNumber)
}

func TestPeerSendReadFrameOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientPeer := NewPeerNode("client", "", client)
	serverDone := make(chan Frame, 1)
	go func() {
		f, err := DecodeFrame(server)
		require.NoError(t, err)
		serverDone <- f
	}()

	require.NoError(t, clientPeer.Send(ControlSync, ActionStatusReq, []byte("payload")))
	select {
	case f := <-serverDone:
		require.Equal(t, ActionStatusReq, f.Action)
		require.Equal(t, []byte("payload"), f.Body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestPeerIdleDetection(t *testing.T) {
	p := NewPeerNode("node-1", "", &bytes.Buffer{})
	require.False(t, p.Idle())

	original := timeNow
	timeNow = func() time.Time { return original().Add(2 * time.Minute) }
	defer func() { timeNow = original }()

	require.True(t, p.Idle())
}

func TestSelectModeLightningWhenFarAheadAndStrongTD(t *testing.T) {
	mode := SelectMode(ModeInputs{
		LocalBest:          100,
		NetworkBest:        10_000,
		PeerBest:           10_000,
		PeerSynced:         100,
		PeerTD:             big.NewInt(1000),
		NetworkTD:          big.NewInt(1000),
		NormalPeerCount:    1,
		LightningPeerCount: 0,
	})
	require.Equal(t, Lightning, mode)
}

func TestSelectModeNormalWhenCloseToTip(t *testing.T) {
	mode := SelectMode(ModeInputs{
		LocalBest:   100,
		NetworkBest: 110,
		PeerBest:    110,
		PeerSynced:  100,
	})
	require.Equal(t, Normal, mode)
}

func TestSelectModeBackwardOnParentUnknown(t *testing.T) {
	mode := SelectMode(ModeInputs{
		LocalBest:     100,
		NetworkBest:   10_000,
		PeerSynced:    0,
		ParentUnknown: true,
	})
	require.Equal(t, Backward, mode)
}

func TestSelectModeForwardAfterAncestorFound(t *testing.T) {
	mode := SelectMode(ModeInputs{
		LocalBest:     100,
		NetworkBest:   10_000,
		PeerSynced:    0,
		CurrentMode:   Backward,
		FoundAncestor: true,
	})
	require.Equal(t, Forward, mode)
}

func TestSelectModeThunderFallback(t *testing.T) {
	mode := SelectMode(ModeInputs{
		LocalBest:   100,
		NetworkBest: 10_000,
		PeerSynced:  500,
		CurrentMode: Forward,
	})
	require.Equal(t, Thunder, mode)
}
