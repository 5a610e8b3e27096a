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

// Package rlp implements a minimal canonical Recursive Length Prefix codec,
// following klaytn's "ser/rlp" naming convention (a fork of go-ethereum's
// rlp package). Only the subset the wire and storage formats need is
// implemented: byte strings, lists of byte strings, and uints encoded as
// minimal big-endian byte strings.
package rlp

import (
	"errors"
	"fmt"
	"math/big"
)

// RawValue represents an already rlp-encoded value, for call sites that
// need to store or forward bytes without re-decoding.
type RawValue []byte

var (
	ErrUnexpectedEOF  = errors.New("rlp: unexpected end of stream")
	ErrExpectedList   = errors.New("rlp: expected list")
	ErrExpectedString = errors.New("rlp: expected string")
	ErrTrailingData   = errors.New("rlp: trailing data after item")
)

// --- Encoding ---

// EncodeBytes encodes a single byte string per the RLP byte-string rules.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(encodeLength(len(b), 0x80, 0xb7, 0xf7), b...)
}

// EncodeUint encodes v as a minimal big-endian byte string (no leading
// zero bytes), matching RLP's canonical integer representation.
func EncodeUint(v uint64) []byte {
	if v == 0 {
		return EncodeBytes(nil)
	}
	b := big.NewInt(0).SetUint64(v).Bytes()
	return EncodeBytes(b)
}

// EncodeBigInt encodes a non-negative big.Int the same way.
func EncodeBigInt(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return EncodeBytes(nil)
	}
	return EncodeBytes(v.Bytes())
}

// EncodeList concatenates already-encoded items under an RLP list header.
func EncodeList(items ...[]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	return append(encodeLength(len(body), 0xc0, 0xf7, 0xff), body...)
}

func encodeLength(n int, short, longBase, _ byte) []byte {
	if n < 56 {
		return []byte{short + byte(n)}
	}
	lenBytes := big.NewInt(int64(n)).Bytes()
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}

// --- Decoding ---

// Item is a decoded RLP value: either a byte string (IsList=false) or a
// list of sub-items (IsList=true).
type Item struct {
	IsList bool
	Bytes  []byte // valid when !IsList
	List   []Item // valid when IsList
}

// Decode parses exactly one RLP item from b, returning it and the number
// of bytes consumed.
func Decode(b []byte) (Item, int, error) {
	if len(b) == 0 {
		return Item{}, 0, ErrUnexpectedEOF
	}
	prefix := b[0]
	switch {
	case prefix < 0x80:
		return Item{Bytes: b[0:1]}, 1, nil
	case prefix < 0xb8:
		n := int(prefix - 0x80)
		if len(b) < 1+n {
			return Item{}, 0, ErrUnexpectedEOF
		}
		return Item{Bytes: b[1 : 1+n]}, 1 + n, nil
	case prefix < 0xc0:
		lenOfLen := int(prefix - 0xb7)
		if len(b) < 1+lenOfLen {
			return Item{}, 0, ErrUnexpectedEOF
		}
		n := int(big.NewInt(0).SetBytes(b[1 : 1+lenOfLen]).Int64())
		start := 1 + lenOfLen
		if len(b) < start+n {
			return Item{}, 0, ErrUnexpectedEOF
		}
		return Item{Bytes: b[start : start+n]}, start + n, nil
	case prefix < 0xf8:
		n := int(prefix - 0xc0)
		if len(b) < 1+n {
			return Item{}, 0, ErrUnexpectedEOF
		}
		list, err := decodeList(b[1 : 1+n])
		return Item{IsList: true, List: list}, 1 + n, err
	default:
		lenOfLen := int(prefix - 0xf7)
		if len(b) < 1+lenOfLen {
			return Item{}, 0, ErrUnexpectedEOF
		}
		n := int(big.NewInt(0).SetBytes(b[1 : 1+lenOfLen]).Int64())
		start := 1 + lenOfLen
		if len(b) < start+n {
			return Item{}, 0, ErrUnexpectedEOF
		}
		list, err := decodeList(b[start : start+n])
		return Item{IsList: true, List: list}, start + n, err
	}
}

func decodeList(b []byte) ([]Item, error) {
	var items []Item
	for len(b) > 0 {
		it, n, err := Decode(b)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		b = b[n:]
	}
	return items, nil
}

// DecodeExact decodes b as a single top-level item and fails if any bytes
// remain afterward, matching the strictness go-ethereum's Decode applies
// at the outermost call.
func DecodeExact(b []byte) (Item, error) {
	it, n, err := Decode(b)
	if err != nil {
		return Item{}, err
	}
	if n != len(b) {
		return Item{}, ErrTrailingData
	}
	return it, nil
}

func (it Item) Uint64() (uint64, error) {
	if it.IsList {
		return 0, ErrExpectedString
	}
	if len(it.Bytes) > 8 {
		return 0, fmt.Errorf("rlp: uint64 overflow, %d bytes", len(it.Bytes))
	}
	return big.NewInt(0).SetBytes(it.Bytes).Uint64(), nil
}

func (it Item) BigInt() (*big.Int, error) {
	if it.IsList {
		return nil, ErrExpectedString
	}
	return big.NewInt(0).SetBytes(it.Bytes), nil
}
