// Package aescodec implements the archive format's whole-body symmetric
// cipher: AES-256-CBC with PKCS#7 padding, keyed by PBKDF2-HMAC-SHA256 over
// the caller's password. This mirrors the original BackupManager's AES
// module (src/aes.cpp), which used OpenSSL's EVP_aes_256_cbc directly; here
// the primitive comes from crypto/aes + crypto/cipher and the key
// derivation from golang.org/x/crypto/pbkdf2.
package aescodec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// salt is fixed by the wire format for backward compatibility with
// archives written by the original tool. It is a known weakness (it
// enables a rainbow-table attack against common passwords) and must not be
// changed without a format version bump — see spec.md §9.
const salt = "BackupManagerSalt"

const (
	iterations = 10000
	keyLen     = 32
	ivLen      = 16
	derivedLen = keyLen + ivLen
)

// ErrBadKeyOrCorrupt is returned by Decrypt when the final PKCS#7 padding
// check fails to validate. Since CBC provides no integrity, this is the
// only observable signal that the supplied password was wrong (or the
// ciphertext was corrupted) — see spec.md §9 on unauthenticated encryption.
var ErrBadKeyOrCorrupt = errors.New("aescodec: bad key or corrupt ciphertext")

// deriveKeyIV runs PBKDF2-HMAC-SHA256 against the fixed salt, producing 48
// bytes split into a 32-byte AES-256 key and a 16-byte IV.
func deriveKeyIV(password []byte) (key, iv []byte) {
	derived := pbkdf2.Key(password, []byte(salt), iterations, derivedLen, sha256.New)
	return derived[:keyLen], derived[keyLen:]
}

func pad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrBadKeyOrCorrupt
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, ErrBadKeyOrCorrupt
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrBadKeyOrCorrupt
		}
	}
	return data[:len(data)-padLen], nil
}

// Encrypt derives a key and IV from password via PBKDF2 and returns the
// AES-256-CBC ciphertext of data with PKCS#7 padding applied. Encrypt never
// fails on well-formed input.
func Encrypt(password, data []byte) ([]byte, error) {
	key, iv := deriveKeyIV(password)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescodec: new cipher: %w", err)
	}
	padded := pad(data)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt. It returns ErrBadKeyOrCorrupt when the final
// PKCS#7 padding check does not validate, which is how a wrong password is
// detected.
func Decrypt(password, data []byte) ([]byte, error) {
	key, iv := deriveKeyIV(password)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescodec: new cipher: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrBadKeyOrCorrupt
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return unpad(out)
}

// randomPassword is exposed only for tests that need an unrelated password
// to exercise the wrong-key path without hardcoding a second literal.
func randomPassword(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}
