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
	"bufio"
	"encoding/hex"
	"errors"
	"io"
	"math/big"

	"github.com/unitynet/unity/blockchain/types"
)

// binaryLeadByte is spec.md §6's import/export format marker: a stream
// whose first byte is 0xf9 (an RLP long-list prefix) is binary
// concatenated blocks; otherwise it's treated as hex, one block per line.
const binaryLeadByte = 0xf9

var ErrUnrecognizedBlockStream = errors.New("blockchain: unrecognized block stream format")

// BlockIterator walks a block export stream, decoding one types.Block at
// a time, grounded on aionr's aion/blockchain.rs import_file (SPEC_FULL.md
// supplemented feature 4): the read-side half of import/export, without a
// CLI front end.
type BlockIterator struct {
	r       *bufio.Reader
	binary  bool
	scanner *bufio.Scanner
}

// NewBlockIterator detects the stream's encoding from its first byte and
// returns an iterator positioned at the first block.
func NewBlockIterator(r io.Reader) (*BlockIterator, error) {
	br := bufio.NewReader(r)
	lead, err := br.Peek(1)
	if err != nil {
		if err == io.EOF {
			return &BlockIterator{r: br, binary: true}, nil
		}
		return nil, err
	}
	it := &BlockIterator{r: br}
	if lead[0] == binaryLeadByte {
		it.binary = true
		return it, nil
	}
	it.scanner = bufio.NewScanner(br)
	it.scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return it, nil
}

// Next returns the next decoded block, or io.EOF when the stream is
// exhausted.
func (it *BlockIterator) Next() (*types.Block, error) {
	if it.binary {
		return it.nextBinary()
	}
	return it.nextHex()
}

func (it *BlockIterator) nextBinary() (*types.Block, error) {
	enc, err := readRLPItem(it.r)
	if err != nil {
		return nil, err
	}
	return types.DecodeBlock(enc)
}

func (it *BlockIterator) nextHex() (*types.Block, error) {
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if line == "" {
			continue
		}
		enc, err := hex.DecodeString(line)
		if err != nil {
			return nil, err
		}
		return types.DecodeBlock(enc)
	}
	if err := it.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// readRLPItem reads exactly one top-level RLP-encoded item (prefix plus
// body) off r without decoding its contents, so the concatenated-block
// binary stream can be split one block at a time. It mirrors rlp.Decode's
// length rules but consumes from a reader instead of a byte slice, since
// the rlp package only decodes from an already-sized []byte.
func readRLPItem(r *bufio.Reader) ([]byte, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case first < 0x80:
		return []byte{first}, nil
	case first < 0xb8:
		n := int(first - 0x80)
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return append([]byte{first}, body...), nil
	case first < 0xc0:
		lenOfLen := int(first - 0xb7)
		body, err := readPrefixedBody(r, first, lenOfLen)
		if err != nil {
			return nil, err
		}
		return body, nil
	case first < 0xf8:
		n := int(first - 0xc0)
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return append([]byte{first}, body...), nil
	default:
		lenOfLen := int(first - 0xf7)
		body, err := readPrefixedBody(r, first, lenOfLen)
		if err != nil {
			return nil, err
		}
		return body, nil
	}
}

// readPrefixedBody reads the lenOfLen length bytes following a long-form
// RLP prefix, then the body they describe, returning prefix+lenBytes+body.
func readPrefixedBody(r *bufio.Reader, first byte, lenOfLen int) ([]byte, error) {
	lenBytes := make([]byte, lenOfLen)
	if _, err := io.ReadFull(r, lenBytes); err != nil {
		return nil, err
	}
	n := int(new(big.Int).SetBytes(lenBytes).Int64())
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	out := append([]byte{first}, lenBytes...)
	return append(out, body...), nil
}
