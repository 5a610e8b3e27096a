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
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/params"
)

// State is a peer session's connection lifecycle, spec.md §4.6: "After
// the transport handshake, the peer enters Connected; upon exchanging a
// valid Status message it becomes Alive."
type State int

const (
	Disconnected State = iota
	Connected
	Alive
)

// Mode governs how aggressively a peer is pulled from, spec.md §4.6
// "Peer mode selection".
type Mode int

const (
	Normal Mode = iota
	Backward
	Forward
	Thunder
	Lightning
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	case Thunder:
		return "thunder"
	case Lightning:
		return "lightning"
	default:
		return "unknown"
	}
}

// idleTimeout is the statistics loop's prune threshold, spec.md §4.6
// "prune idle peers exceeding 60 s".
const idleTimeout = 60 * time.Second

// PeerNode is the per-connection bookkeeping record spec.md's GLOSSARY
// names directly: "{node_id, addr, best_block_number, best_hash,
// total_difficulty, pow_td, pos_td, mode, last_request_number,
// synced_block_num, repeated_count, state}".
type PeerNode struct {
	mu sync.Mutex

	NodeID string
	Addr   string
	rw     io.ReadWriter

	BestBlockNumber uint64
	BestHash        common.Hash
	TotalDifficulty *big.Int
	PowTD           *big.Int
	PosTD           *big.Int

	Mode              Mode
	LastRequestNumber uint64
	SyncedBlockNum    uint64
	RepeatedCount     int
	State             State

	lastActivity time.Time
}

// NewPeerNode creates a session in Disconnected state for the connection
// rw identified by nodeID/addr. The caller transitions it to Connected
// once the transport handshake completes.
func NewPeerNode(nodeID, addr string, rw io.ReadWriter) *PeerNode {
	return &PeerNode{
		NodeID:          nodeID,
		Addr:            addr,
		rw:              rw,
		TotalDifficulty: big.NewInt(0),
		PowTD:           big.NewInt(0),
		PosTD:           big.NewInt(0),
		State:           Disconnected,
		lastActivity:    timeNow(),
	}
}

// Send writes a framed message to the peer.
func (p *PeerNode) Send(control Control, action Action, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.rw.Write(EncodeFrame(Frame{Version: MaxVersion, Control: control, Action: action, Body: body}))
	return err
}

// ReadFrame blocks for the next frame from the peer.
func (p *PeerNode) ReadFrame() (Frame, error) {
	return DecodeFrame(p.rw)
}

// ApplyStatus records a validated Status exchange and transitions the
// peer to Alive, spec.md §4.6.
func (p *PeerNode) ApplyStatus(s StatusData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BestBlockNumber = s.BestNumber
	p.BestHash = s.BestHash
	p.TotalDifficulty = s.TotalDifficulty
	p.State = Alive
	p.lastActivity = timeNow()
}

func (p *PeerNode) touch() {
	p.mu.Lock()
	p.lastActivity = timeNow()
	p.mu.Unlock()
}

// Idle reports whether the peer hasn't produced traffic within
// idleTimeout, spec.md §4.6's statistics-loop prune condition.
func (p *PeerNode) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return timeNow().Sub(p.lastActivity) > idleTimeout
}

func (p *PeerNode) snapshot() (best uint64, synced uint64, mode Mode, td, powTD *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.BestBlockNumber, p.SyncedBlockNum, p.Mode, p.TotalDifficulty, p.PowTD
}

// ModeInputs is the condition set spec.md §4.6's mode-selection table
// reads: local/network bests, this peer's reported best/synced state,
// and fleet-wide context (how many Normal/Lightning peers already exist).
type ModeInputs struct {
	LocalBest   uint64
	NetworkBest uint64
	PeerBest    uint64
	PeerSynced  uint64
	PeerTD      *big.Int
	NetworkTD   *big.Int

	NormalPeerCount    int
	LightningPeerCount int

	ParentUnknown bool
	FoundAncestor bool
	CurrentMode   Mode
}

// SelectMode implements spec.md §4.6's peer mode-selection table,
// evaluated top-to-bottom (first matching row wins).
func SelectMode(in ModeInputs) Mode {
	farAhead := in.PeerBest > in.LocalBest+uint64(params.StagedBlockBufferLimit)
	tdAtLeastNetwork := in.PeerTD != nil && in.NetworkTD != nil && in.PeerTD.Cmp(in.NetworkTD) >= 0
	fewLightningPeers := in.LightningPeerCount < 1

	switch {
	case farAhead && tdAtLeastNetwork && in.NormalPeerCount > 0 && fewLightningPeers:
		return Lightning
	case in.PeerSynced+32 > in.NetworkBest:
		return Normal
	case in.ParentUnknown:
		return Backward
	case in.CurrentMode == Backward && in.FoundAncestor:
		return Forward
	case in.CurrentMode == Forward && in.PeerSynced >= in.NetworkBest:
		return Normal
	default:
		return Thunder
	}
}

// timeNow is indirected so tests can exercise idle-pruning without
// sleeping.
var timeNow = time.Now
