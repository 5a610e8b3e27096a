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

// Package accounts implements the Account Provider, spec.md §4.7: a
// signing-key gate whose unlock lifetime is OneTime, Permanent, or
// Timed, plus a stateless sign_with_token side channel.
package accounts

import (
	"errors"
	"sync"
	"time"

	"github.com/unitynet/unity/accounts/keystore"
	"github.com/unitynet/unity/common"
	"github.com/unitynet/unity/crypto"
	"github.com/unitynet/unity/log"
)

var logger = log.NewModuleLogger(log.Accounts)

var (
	ErrNotUnlocked        = errors.New("accounts: not unlocked")
	ErrNotFound           = errors.New("accounts: account not found")
	ErrInappropriateChain = errors.New("accounts: signing request targets a different chain")
)

// Lifetime selects how long an unlock grant remains usable, spec.md §4.7.
type Lifetime int

const (
	OneTime Lifetime = iota
	Permanent
	Timed
)

type unlockEntry struct {
	lifetime   Lifetime
	passphrase string
	file       string
	expiry     time.Time

	keepSecret bool
	secret     *keystore.Key // cached only when keepSecret
}

type tokenEntry struct {
	key    *keystore.Key
	expiry time.Time
}

const tokenTTL = 5 * time.Minute

// AccountProvider is the signing-key gate described in spec.md §4.7. It
// indexes a keystore directory by address and tracks, per address, at
// most one active unlock grant.
type AccountProvider struct {
	mu sync.Mutex

	dir       string
	networkID uint64

	files    map[common.Address]string
	unlocked map[common.Address]*unlockEntry
	tokens   map[string]tokenEntry
}

func NewAccountProvider(dir string, networkID uint64) (*AccountProvider, error) {
	files, err := keystore.ListKeyFiles(dir)
	if err != nil {
		return nil, err
	}
	return &AccountProvider{
		dir:       dir,
		networkID: networkID,
		files:     files,
		unlocked:  make(map[common.Address]*unlockEntry),
		tokens:    make(map[string]tokenEntry),
	}, nil
}

// NewAccount generates a fresh key, stores it encrypted under dir, and
// indexes it for future unlock calls.
func (p *AccountProvider) NewAccount(passphrase string) (common.Address, error) {
	key, err := keystore.NewKey()
	if err != nil {
		return common.Address{}, err
	}
	file, err := keystore.StoreKey(p.dir, key, passphrase)
	if err != nil {
		return common.Address{}, err
	}
	p.mu.Lock()
	p.files[key.Address] = file
	p.mu.Unlock()
	return key.Address, nil
}

func (p *AccountProvider) fileFor(addr common.Address) (string, error) {
	file, ok := p.files[addr]
	if !ok {
		return "", ErrNotFound
	}
	return file, nil
}

// UnlockOneTime grants a single Sign call before the entry evicts itself,
// spec.md §4.7 "OneTime".
func (p *AccountProvider) UnlockOneTime(addr common.Address, passphrase string) error {
	return p.unlock(addr, passphrase, OneTime, false, 0)
}

// UnlockPermanent grants unlimited signing until explicitly locked.
// keepSecret caches the decrypted key for speed instead of re-decrypting
// the keystore file on every Sign call, spec.md §4.7 "unlock_keep_secret".
func (p *AccountProvider) UnlockPermanent(addr common.Address, passphrase string, keepSecret bool) error {
	return p.unlock(addr, passphrase, Permanent, keepSecret, 0)
}

// UnlockTimed grants signing until ttl elapses; expired entries are
// swept lazily on the next Sign call, spec.md §4.7 "Timed(expiry)".
func (p *AccountProvider) UnlockTimed(addr common.Address, passphrase string, ttl time.Duration) error {
	return p.unlock(addr, passphrase, Timed, false, ttl)
}

func (p *AccountProvider) unlock(addr common.Address, passphrase string, lifetime Lifetime, keepSecret bool, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.fileFor(addr)
	if err != nil {
		return err
	}
	key, err := keystore.LoadKeyFile(file, addr, passphrase)
	if err != nil {
		return err
	}

	entry := &unlockEntry{lifetime: lifetime, passphrase: passphrase, file: file, keepSecret: keepSecret}
	if lifetime == Timed {
		entry.expiry = timeNow().Add(ttl)
	}
	if keepSecret {
		entry.secret = key
	}
	p.unlocked[addr] = entry
	return nil
}

// Lock evicts any active unlock grant for addr.
func (p *AccountProvider) Lock(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.unlocked, addr)
}

func (p *AccountProvider) sweepExpiredLocked() {
	now := timeNow()
	for addr, entry := range p.unlocked {
		if entry.lifetime == Timed && now.After(entry.expiry) {
			delete(p.unlocked, addr)
		}
	}
}

// Sign signs digest under addr's key, gated by the active unlock grant.
// networkID must match the provider's configured chain, or the request
// is rejected as InappropriateChain, spec.md §4.7.
func (p *AccountProvider) Sign(addr common.Address, digest []byte, networkID uint64) ([]byte, error) {
	if networkID != p.networkID {
		return nil, ErrInappropriateChain
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepExpiredLocked()

	entry, ok := p.unlocked[addr]
	if !ok {
		return nil, ErrNotUnlocked
	}

	key := entry.secret
	if key == nil {
		loaded, err := keystore.LoadKeyFile(entry.file, addr, entry.passphrase)
		if err != nil {
			return nil, err
		}
		key = loaded
	}
	sig := crypto.Sign(key.PrivateKey, digest)

	if entry.lifetime == OneTime {
		delete(p.unlocked, addr)
	}
	return sig, nil
}

// SignWithPublicKey signs digest under the key whose public key is pub,
// deriving the address the same way transaction senders are recovered.
// It satisfies work.PoSSigner without either package importing the
// other.
func (p *AccountProvider) SignWithPublicKey(pub []byte, digest []byte) ([]byte, error) {
	addr := common.BytesToAddress(crypto.Blake2b256(pub).Bytes())
	return p.Sign(addr, digest, p.networkID)
}

// NewSigningToken verifies passphrase decrypts addr's key and opens a
// stateless, transient signing session keyed by a fresh 16-character
// token, spec.md §4.7 "sign_with_token".
func (p *AccountProvider) NewSigningToken(addr common.Address, passphrase string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.fileFor(addr)
	if err != nil {
		return "", err
	}
	key, err := keystore.LoadKeyFile(file, addr, passphrase)
	if err != nil {
		return "", err
	}
	token := crypto.RandomToken()
	p.tokens[token] = tokenEntry{key: key, expiry: timeNow().Add(tokenTTL)}
	return token, nil
}

// SignWithToken consumes token, signs digest, and returns a fresh token
// bound to the same key for the next call — each token is single-use,
// spec.md §4.7 "each call returns a fresh token to use on the next call".
func (p *AccountProvider) SignWithToken(token string, digest []byte) (sig []byte, nextToken string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.tokens[token]
	if !ok {
		return nil, "", ErrNotUnlocked
	}
	delete(p.tokens, token)
	if timeNow().After(entry.expiry) {
		return nil, "", ErrNotUnlocked
	}

	sig = crypto.Sign(entry.key.PrivateKey, digest)
	nextToken = crypto.RandomToken()
	p.tokens[nextToken] = tokenEntry{key: entry.key, expiry: timeNow().Add(tokenTTL)}
	return sig, nextToken, nil
}

// timeNow is indirected so tests can exercise expiry without sleeping.
var timeNow = time.Now
