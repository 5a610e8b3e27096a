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

// Package common holds the fixed-size value types shared across every
// subsystem of the node: 32-byte hashes and 32-byte addresses.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 32
)

// Hash represents a 32-byte blake2b/sha3 digest.
type Hash [HashLength]byte

// BytesToHash converts b to a Hash, left-padding or truncating from the left
// as needed to fit HashLength, matching go-ethereum's common.BytesToHash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) IsZero() bool   { return h == Hash{} }

// Address represents a 32-byte Unity account address (the protocol uses
// wide addresses, unlike 20-byte Ethereum-style addresses).
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) IsZero() bool   { return a == Address{} }

// reserved precompile addresses, SPEC_FULL.md "SUPPLEMENTED FEATURES" #1.
var (
	BridgeContractAddress   = addrFromLastByte(0x01, 0x00)
	TotalCurrencyAddress    = addrFromLastByte(0x02, 0x00)
)

func addrFromLastByte(b ...byte) Address {
	var a Address
	copy(a[AddressLength-len(b):], b)
	return a
}

// EmptyCodeHash / EmptyRootHash are filled in by the crypto package at
// init time (crypto depends on common, so the constants live here and are
// assigned from crypto.init to avoid an import cycle).
var (
	EmptyCodeHash Hash
	EmptyRootHash Hash
)

func (a Address) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "%s", a.String())
}

func (h Hash) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "%s", h.String())
}
