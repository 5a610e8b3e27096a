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

package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unitynet/unity/crypto"
)

const networkID = 7

func newProvider(t *testing.T) *AccountProvider {
	t.Helper()
	p, err := NewAccountProvider(t.TempDir(), networkID)
	require.NoError(t, err)
	return p
}

func TestSignRequiresUnlock(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.ErrorIs(t, err, ErrNotUnlocked)
}

func TestUnlockOneTimeRejectsUnknownAddress(t *testing.T) {
	p := newProvider(t)
	err := p.UnlockOneTime(addrFromSeed("nope"), "pw")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOneTimeUnlockEvictsAfterFirstSign(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockOneTime(addr, "pw"))

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.NoError(t, err)

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.ErrorIs(t, err, ErrNotUnlocked)
}

func TestPermanentUnlockAllowsRepeatedSigning(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockPermanent(addr, "pw", false))

	for i := 0; i < 3; i++ {
		_, err = p.Sign(addr, []byte("digest"), networkID)
		require.NoError(t, err)
	}
}

func TestPermanentUnlockKeepSecretAvoidsReDecrypt(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockPermanent(addr, "pw", true))

	entry := p.unlocked[addr]
	require.NotNil(t, entry.secret, "keepSecret should cache the decrypted key")

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.NoError(t, err)
}

func TestLockRevokesAccess(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockPermanent(addr, "pw", false))
	p.Lock(addr)

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.ErrorIs(t, err, ErrNotUnlocked)
}

func TestTimedUnlockExpires(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockTimed(addr, "pw", time.Minute))

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.NoError(t, err)

	original := timeNow
	timeNow = func() time.Time { return original().Add(2 * time.Minute) }
	defer func() { timeNow = original }()

	_, err = p.Sign(addr, []byte("digest"), networkID)
	require.ErrorIs(t, err, ErrNotUnlocked)
}

func TestSignRejectsInappropriateChain(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockPermanent(addr, "pw", false))

	_, err = p.Sign(addr, []byte("digest"), networkID+1)
	require.ErrorIs(t, err, ErrInappropriateChain)
}

func TestSignWithPublicKeySatisfiesPoSSigner(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	require.NoError(t, p.UnlockPermanent(addr, "pw", true))

	pub := p.unlocked[addr].secret.PublicKey
	sig, err := p.SignWithPublicKey(pub, []byte("digest"))
	require.NoError(t, err)
	require.True(t, crypto.VerifySignature(pub, []byte("digest"), sig))
}

func TestSignWithTokenRollsToFreshToken(t *testing.T) {
	p := newProvider(t)
	addr, err := p.NewAccount("pw")
	require.NoError(t, err)
	token, err := p.NewSigningToken(addr, "pw")
	require.NoError(t, err)

	sig1, next1, err := p.SignWithToken(token, []byte("digest-1"))
	require.NoError(t, err)
	require.NotEmpty(t, sig1)
	require.NotEqual(t, token, next1)

	// the original token is single-use
	_, _, err = p.SignWithToken(token, []byte("digest-2"))
	require.ErrorIs(t, err, ErrNotUnlocked)

	sig2, _, err := p.SignWithToken(next1, []byte("digest-2"))
	require.NoError(t, err)
	require.NotEmpty(t, sig2)
}

func addrFromSeed(s string) (a [32]byte) {
	copy(a[:], s)
	return a
}
