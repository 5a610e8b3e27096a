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

// Package sync implements the peer-to-peer sync protocol: per-peer
// state machine, the status/headers/bodies wire exchange, per-peer
// mode selection, the staged-block buffer for out-of-order arrivals,
// and the cooperative scheduling loops that drive it (spec.md §4.6).
package sync

import (
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/rlp"
)

// Frame header layout, spec.md §6 "Wire framing (P2P)":
//   [version:1][control:1][action:1][reserved:1][length:4 big-endian][body:length]
const frameHeaderSize = 8

// MaxVersion is the highest negotiated wire version (spec.md §6: "version
// in {0, 1, 2}").
const MaxVersion = 2

type Control uint8

const (
	ControlNet Control = iota
	ControlSync
)

type Action uint8

const (
	ActionStatusReq Action = iota + 1
	ActionStatusRes
	ActionHeadersReq
	ActionHeadersRes
	ActionBodiesReq
	ActionBodiesRes
	ActionBroadcastTx
	ActionBroadcastBlock
)

var (
	// ErrInvalidFrame means the whole buffer must be silently dropped,
	// spec.md §6: "Invalid version/control/action ⇒ silent drop of the
	// whole buffer."
	ErrInvalidFrame  = errors.New("sync: invalid frame, dropped")
	ErrFrameTooShort = errors.New("sync: frame shorter than header")
)

// Frame is one decoded wire message.
type Frame struct {
	Version uint8
	Control Control
	Action  Action
	Body    []byte
}

// EncodeFrame serializes f per the spec.md §6 layout.
func EncodeFrame(f Frame) []byte {
	out := make([]byte, frameHeaderSize+len(f.Body))
	out[0] = f.Version
	out[1] = byte(f.Control)
	out[2] = byte(f.Action)
	out[3] = 0 // reserved
	binary.BigEndian.PutUint32(out[4:8], uint32(len(f.Body)))
	copy(out[8:], f.Body)
	return out
}

// DecodeFrame parses a single frame from the front of r, silently
// dropping (returning ErrInvalidFrame) on any header field it doesn't
// recognize rather than treating it as a fatal transport error — the
// spec's disposition for a malformed peer is "drop the buffer", not
// "crash the session".
func DecodeFrame(r io.Reader) (Frame, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	version := hdr[0]
	control := Control(hdr[1])
	action := Action(hdr[2])
	length := binary.BigEndian.Uint32(hdr[4:8])

	if version > MaxVersion || (control != ControlNet && control != ControlSync) || !validAction(action) {
		// Drain the stated body length (best-effort) so the stream stays
		// framed, then report the drop.
		io.CopyN(io.Discard, r, int64(length))
		return Frame{}, ErrInvalidFrame
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, err
	}
	return Frame{Version: version, Control: control, Action: action, Body: body}, nil
}

func validAction(a Action) bool {
	return a >= ActionStatusReq && a <= ActionBroadcastBlock
}

// StatusData is the handshake payload, spec.md §4.6 "StatusReq / StatusRes".
type StatusData struct {
	BestNumber       uint64
	BestHash         common.Hash
	TotalDifficulty  *big.Int
	GenesisHash      common.Hash
}

func EncodeStatus(s StatusData) []byte {
	return rlp.EncodeList(
		rlp.EncodeUint(s.BestNumber),
		rlp.EncodeBytes(s.BestHash.Bytes()),
		rlp.EncodeBigInt(s.TotalDifficulty),
		rlp.EncodeBytes(s.GenesisHash.Bytes()),
	)
}

func DecodeStatus(b []byte) (StatusData, error) {
	item, err := rlp.DecodeExact(b)
	if err != nil {
		return StatusData{}, err
	}
	if !item.IsList || len(item.List) != 4 {
		return StatusData{}, ErrInvalidFrame
	}
	var s StatusData
	if s.BestNumber, err = item.List[0].Uint64(); err != nil {
		return StatusData{}, err
	}
	s.BestHash = common.BytesToHash(item.List[1].Bytes)
	if s.TotalDifficulty, err = item.List[2].BigInt(); err != nil {
		return StatusData{}, err
	}
	s.GenesisHash = common.BytesToHash(item.List[3].Bytes)
	return s, nil
}

// HeadersRequest is spec.md §4.6 "HeadersReq(from, count)", count capped
// at params.HeadersPerRequest (96).
type HeadersRequest struct {
	From  uint64
	Count uint64
}

func EncodeHeadersRequest(r HeadersRequest) []byte {
	return rlp.EncodeList(rlp.EncodeUint(r.From), rlp.EncodeUint(r.Count))
}

func DecodeHeadersRequest(b []byte) (HeadersRequest, error) {
	item, err := rlp.DecodeExact(b)
	if err != nil {
		return HeadersRequest{}, err
	}
	if !item.IsList || len(item.List) != 2 {
		return HeadersRequest{}, ErrInvalidFrame
	}
	var r HeadersRequest
	if r.From, err = item.List[0].Uint64(); err != nil {
		return HeadersRequest{}, err
	}
	if r.Count, err = item.List[1].Uint64(); err != nil {
		return HeadersRequest{}, err
	}
	return r, nil
}

// EncodeHeaders / DecodeHeaders carry spec.md §4.6 "HeadersRes(headers[])".
func EncodeHeaders(headers []*types.Header) []byte {
	items := make([][]byte, len(headers))
	for i, h := range headers {
		items[i] = rlp.EncodeBytes(h.Encode())
	}
	return rlp.EncodeList(items...)
}

func DecodeHeaders(b []byte) ([]*types.Header, error) {
	item, err := rlp.DecodeExact(b)
	if err != nil {
		return nil, err
	}
	if !item.IsList {
		return nil, ErrInvalidFrame
	}
	headers := make([]*types.Header, 0, len(item.List))
	for _, it := range item.List {
		h, err := types.DecodeHeader(it.Bytes)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// EncodeBodiesRequest / DecodeBodiesRequest carry spec.md §4.6
// "BodiesReq(hashes[])".
func EncodeBodiesRequest(hashes []common.Hash) []byte {
	items := make([][]byte, len(hashes))
	for i, h := range hashes {
		items[i] = rlp.EncodeBytes(h.Bytes())
	}
	return rlp.EncodeList(items...)
}

func DecodeBodiesRequest(b []byte) ([]common.Hash, error) {
	item, err := rlp.DecodeExact(b)
	if err != nil {
		return nil, err
	}
	if !item.IsList {
		return nil, ErrInvalidFrame
	}
	hashes := make([]common.Hash, len(item.List))
	for i, it := range item.List {
		hashes[i] = common.BytesToHash(it.Bytes)
	}
	return hashes, nil
}

// EncodeBodies / DecodeBodies carry spec.md §4.6 "BodiesRes(bodies[])",
// "ordered reply, same cardinality" as the request.
func EncodeBodies(bodies []*types.Body) []byte {
	items := make([][]byte, len(bodies))
	for i, body := range bodies {
		txItems := make([][]byte, len(body.Transactions))
		for j, tx := range body.Transactions {
			txItems[j] = rlp.EncodeBytes(tx.Encode())
		}
		items[i] = rlp.EncodeBytes(rlp.EncodeList(txItems...))
	}
	return rlp.EncodeList(items...)
}

func DecodeBodies(b []byte) ([]*types.Body, error) {
	item, err := rlp.DecodeExact(b)
	if err != nil {
		return nil, err
	}
	if !item.IsList {
		return nil, ErrInvalidFrame
	}
	bodies := make([]*types.Body, 0, len(item.List))
	for _, it := range item.List {
		inner, err := rlp.DecodeExact(it.Bytes)
		if err != nil {
			return nil, err
		}
		if !inner.IsList {
			return nil, ErrInvalidFrame
		}
		txs, err := types.DecodeTransactionList(inner.List)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, &types.Body{Transactions: txs})
	}
	return bodies, nil
}
