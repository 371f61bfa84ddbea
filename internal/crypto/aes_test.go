// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		length  int
		wantLen int // hex doubles the byte count
	}{
		{
			name:    "key file length",
			length:  32,
			wantLen: 64,
		},
		{
			name:    "16 bytes produces 32 char hex",
			length:  16,
			wantLen: 32,
		},
		{
			name:    "1 byte produces 2 char hex",
			length:  1,
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := GenerateSecureToken(tt.length)
			require.NoError(t, err)
			assert.Len(t, token, tt.wantLen)

			// The key file is parsed with hex.DecodeString on load.
			_, err = hex.DecodeString(token)
			assert.NoError(t, err)
		})
	}
}

func TestGenerateSecureTokenUniqueness(t *testing.T) {
	t.Parallel()

	tokens := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSecureToken(32)
		require.NoError(t, err)
		assert.False(t, tokens[token], "duplicate key material generated")
		tokens[token] = true
	}
}

func TestNewAESEncryptorRejectsBadKeySizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		keyLen  int
		wantErr error
	}{
		{
			name:   "valid 32 byte key",
			keyLen: 32,
		},
		{
			name:    "too short key",
			keyLen:  16,
			wantErr: ErrInvalidKeySize,
		},
		{
			name:    "too long key",
			keyLen:  64,
			wantErr: ErrInvalidKeySize,
		},
		{
			name:    "empty key",
			keyLen:  0,
			wantErr: ErrInvalidKeySize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encryptor, err := NewAESEncryptor(make([]byte, tt.keyLen))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, encryptor)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, encryptor)
			}
		})
	}
}

func TestAESEncryptorRoundTripsAPIKeys(t *testing.T) {
	t.Parallel()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	encryptor, err := NewAESEncryptor(key)
	require.NoError(t, err)

	tests := []struct {
		name   string
		apiKey string
	}{
		{
			name:   "sonarr style hex key",
			apiKey: "1c5a8f04d3be47f2a6e909d1f3b2c7d4",
		},
		{
			name:   "radarr style hex key",
			apiKey: "ffeeddccbbaa99887766554433221100",
		},
		{
			name:   "empty key still round-trips",
			apiKey: "",
		},
		{
			name:   "token with separators",
			apiKey: "api_key-with.separators:and/slashes",
		},
		{
			name:   "long opaque token",
			apiKey: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.longer-opaque-bearer-style-token-material-used-by-some-proxied-setups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ciphertext, err := encryptor.Encrypt(tt.apiKey)
			require.NoError(t, err)
			assert.NotEqual(t, tt.apiKey, ciphertext)

			decrypted, err := encryptor.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.apiKey, decrypted)
		})
	}
}

func TestAESEncryptorNeverReusesNonces(t *testing.T) {
	t.Parallel()

	encryptor, err := NewAESEncryptor(make([]byte, 32))
	require.NoError(t, err)

	// The same API key stored for two instances must not produce equal
	// rows, or the database would leak which instances share credentials.
	apiKey := "1c5a8f04d3be47f2a6e909d1f3b2c7d4"
	ciphertexts := make(map[string]bool)

	for i := 0; i < 10; i++ {
		ciphertext, err := encryptor.Encrypt(apiKey)
		require.NoError(t, err)
		assert.False(t, ciphertexts[ciphertext], "nonce reuse")
		ciphertexts[ciphertext] = true
	}
}

func TestAESEncryptorDecryptErrors(t *testing.T) {
	t.Parallel()

	encryptor, err := NewAESEncryptor(make([]byte, 32))
	require.NoError(t, err)

	tests := []struct {
		name       string
		ciphertext string
		wantErr    error
	}{
		{
			name:       "not base64",
			ciphertext: "not-valid-base64!@#$",
		},
		{
			name:       "shorter than the nonce",
			ciphertext: "YWJj",
			wantErr:    ErrMalformedCiphertext,
		},
		{
			name:       "empty column value",
			ciphertext: "",
			wantErr:    ErrMalformedCiphertext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := encryptor.Decrypt(tt.ciphertext)
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAESEncryptorRejectsTamperedCiphertext(t *testing.T) {
	t.Parallel()

	encryptor, err := NewAESEncryptor(make([]byte, 32))
	require.NoError(t, err)

	ciphertext, err := encryptor.Encrypt("1c5a8f04d3be47f2a6e909d1f3b2c7d4")
	require.NoError(t, err)

	tampered := []byte(ciphertext)
	tampered[10] ^= 0xFF

	_, err = encryptor.Decrypt(string(tampered))
	assert.Error(t, err)
}

func TestAESEncryptorRejectsForeignKey(t *testing.T) {
	t.Parallel()

	// A regenerated key file must not silently decrypt old rows.
	oldKey := make([]byte, 32)
	newKey := make([]byte, 32)
	newKey[0] = 1

	oldEncryptor, err := NewAESEncryptor(oldKey)
	require.NoError(t, err)

	newEncryptor, err := NewAESEncryptor(newKey)
	require.NoError(t, err)

	ciphertext, err := oldEncryptor.Encrypt("1c5a8f04d3be47f2a6e909d1f3b2c7d4")
	require.NoError(t, err)

	_, err = newEncryptor.Decrypt(ciphertext)
	assert.Error(t, err)
}
