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

package keystore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	enc, err := EncryptKey(key, "correct horse battery staple")
	require.NoError(t, err)

	decrypted, err := DecryptKey(enc, "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, key.Address, decrypted.Address)
	require.Equal(t, key.PrivateKey, decrypted.PrivateKey)
	require.Equal(t, key.ID, decrypted.ID)
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	enc, err := EncryptKey(key, "right")
	require.NoError(t, err)

	_, err = DecryptKey(enc, "wrong")
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestStoreLoadKeyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key, err := NewKey()
	require.NoError(t, err)

	path, err := StoreKey(dir, key, "pw")
	require.NoError(t, err)

	loaded, err := LoadKeyFile(path, key.Address, "pw")
	require.NoError(t, err)
	require.Equal(t, key.PrivateKey, loaded.PrivateKey)
}

func TestLoadKeyFileRejectsAddressMismatch(t *testing.T) {
	dir := t.TempDir()
	key, err := NewKey()
	require.NoError(t, err)
	path, err := StoreKey(dir, key, "pw")
	require.NoError(t, err)

	other, err := NewKey()
	require.NoError(t, err)
	_, err = LoadKeyFile(path, other.Address, "pw")
	require.ErrorIs(t, err, ErrAddressMismatch)
}

func TestListKeyFilesIndexesDirectory(t *testing.T) {
	dir := t.TempDir()
	k1, err := NewKey()
	require.NoError(t, err)
	k2, err := NewKey()
	require.NoError(t, err)
	_, err = StoreKey(dir, k1, "pw")
	require.NoError(t, err)
	_, err = StoreKey(dir, k2, "pw")
	require.NoError(t, err)

	files, err := ListKeyFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Contains(t, files, k1.Address)
	require.Contains(t, files, k2.Address)
}

func TestListKeyFilesMissingDirReturnsEmpty(t *testing.T) {
	files, err := ListKeyFiles("/nonexistent/keystore/dir")
	require.NoError(t, err)
	require.Empty(t, files)
}
