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

// Package keystore implements the on-disk secret representation for the
// Account Provider (spec.md §4.7), grounded on aionr's
// keystore/keychain/src/ethstore.rs format (itself geth-compatible):
// scrypt-KDF-derived key, AES-CTR encrypted private key, versioned JSON,
// identified by a UUID (SPEC_FULL.md "SUPPLEMENTED FEATURES" #3).
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
)

const (
	version = 3

	scryptN     = 1 << 18
	scryptP     = 1
	scryptR     = 8
	scryptDKLen = 32
)

var (
	ErrDecrypt        = errors.New("keystore: could not decrypt key with given passphrase")
	ErrAddressMismatch = errors.New("keystore: key file address does not match requested address")
)

// Key is a decrypted account key: the ed25519 keypair plus the address
// derived from the public key the same way transaction senders are
// recovered (blake2b(pubkey)).
type Key struct {
	ID         uuid.UUID
	Address    common.Address
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewKey generates a fresh keypair and wraps it as a Key ready to store.
func NewKey() (*Key, error) {
	pub, priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{
		ID:         uuid.New(),
		Address:    common.BytesToAddress(crypto.Blake2b256(pub).Bytes()),
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

type cipherParamsJSON struct {
	IV string `json:"iv"`
}

type kdfParamsJSON struct {
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

type cryptoJSON struct {
	Cipher       string            `json:"cipher"`
	CipherText   string            `json:"ciphertext"`
	CipherParams cipherParamsJSON  `json:"cipherparams"`
	KDF          string            `json:"kdf"`
	KDFParams    kdfParamsJSON     `json:"kdfparams"`
	MAC          string            `json:"mac"`
}

// encryptedKeyJSON is the versioned on-disk schema, modeled on ethstore's
// geth-compatible V3 keystore format.
type encryptedKeyJSON struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

// EncryptKey derives a scrypt key from passphrase, encrypts key.PrivateKey
// under AES-CTR, and returns the versioned JSON encoding.
func EncryptKey(key *Key, passphrase string) ([]byte, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}
	encryptKey := derivedKey[:16]

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(encryptKey)
	if err != nil {
		return nil, err
	}
	cipherText := make([]byte, len(key.PrivateKey))
	cipher.NewCTR(block, iv).XORKeyStream(cipherText, key.PrivateKey)

	mac := crypto.Blake2b256(derivedKey[16:32], cipherText)

	encJSON := encryptedKeyJSON{
		Address: key.Address.String(),
		ID:      key.ID.String(),
		Version: version,
		Crypto: cryptoJSON{
			Cipher:       "aes-128-ctr",
			CipherText:   hex.EncodeToString(cipherText),
			CipherParams: cipherParamsJSON{IV: hex.EncodeToString(iv)},
			KDF:          "scrypt",
			KDFParams: kdfParamsJSON{
				N: scryptN, R: scryptR, P: scryptP, DKLen: scryptDKLen,
				Salt: hex.EncodeToString(salt),
			},
			MAC: mac.String()[2:],
		},
	}
	return json.Marshal(encJSON)
}

// DecryptKey reverses EncryptKey, returning ErrDecrypt on passphrase or
// MAC mismatch.
func DecryptKey(keyJSON []byte, passphrase string) (*Key, error) {
	var encJSON encryptedKeyJSON
	if err := json.Unmarshal(keyJSON, &encJSON); err != nil {
		return nil, err
	}
	c := encJSON.Crypto
	salt, err := hex.DecodeString(c.KDFParams.Salt)
	if err != nil {
		return nil, err
	}
	derivedKey, err := scrypt.Key([]byte(passphrase), salt, c.KDFParams.N, c.KDFParams.R, c.KDFParams.P, c.KDFParams.DKLen)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(c.CipherText)
	if err != nil {
		return nil, err
	}
	wantMAC := crypto.Blake2b256(derivedKey[16:32], cipherText).String()[2:]
	if wantMAC != c.MAC {
		return nil, ErrDecrypt
	}

	iv, err := hex.DecodeString(c.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, err
	}
	privBytes := make([]byte, len(cipherText))
	cipher.NewCTR(block, iv).XORKeyStream(privBytes, cipherText)
	priv := ed25519.PrivateKey(privBytes)
	pub := priv.Public().(ed25519.PublicKey)

	id, err := uuid.Parse(encJSON.ID)
	if err != nil {
		return nil, err
	}
	addr := common.BytesToAddress(crypto.Blake2b256(pub).Bytes())
	if addr.String() != encJSON.Address {
		return nil, ErrAddressMismatch
	}
	return &Key{ID: id, Address: addr, PublicKey: pub, PrivateKey: priv}, nil
}

func fileName(addr common.Address, id uuid.UUID) string {
	return "UTC--" + id.String() + "--" + hex.EncodeToString(addr.Bytes())
}

// StoreKey encrypts key under passphrase and writes it to dir, returning
// the full file path, the same layout klaytn/geth use (one file per
// account named by UUID and address).
func StoreKey(dir string, key *Key, passphrase string) (string, error) {
	enc, err := EncryptKey(key, passphrase)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName(key.Address, key.ID))
	if err := os.WriteFile(path, enc, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// LoadKeyFile reads and decrypts the key at path, verifying it matches
// want.
func LoadKeyFile(path string, want common.Address, passphrase string) (*Key, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := DecryptKey(raw, passphrase)
	if err != nil {
		return nil, err
	}
	if key.Address != want {
		return nil, ErrAddressMismatch
	}
	return key, nil
}

// AddressOf reads just the plaintext address field of the key file at
// path, without decrypting — used to index a keystore directory.
func AddressOf(path string) (common.Address, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, err
	}
	var encJSON encryptedKeyJSON
	if err := json.Unmarshal(raw, &encJSON); err != nil {
		return common.Address{}, err
	}
	b, err := hex.DecodeString(trimHexPrefix(encJSON.Address))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// ListKeyFiles indexes every key file directly under dir by address.
func ListKeyFiles(dir string) (map[common.Address]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[common.Address]string{}, nil
		}
		return nil, err
	}
	out := make(map[common.Address]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		addr, err := AddressOf(path)
		if err != nil {
			continue // skip unrelated/corrupt files
		}
		out[addr] = path
	}
	return out, nil
}
