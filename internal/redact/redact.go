// Package redact encrypts sensitive request payloads before they are written
// to log lines, so that rejected input and bad tokens never appear in the
// logs in the clear.
package redact

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
)

// Cipher applies AES-256-CBC with a fixed key and IV. The output is hex so
// it can be pasted back for offline decryption when investigating an
// incident.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// New builds a Cipher from a 32-byte key and a 16-byte IV.
func New(key, iv string) (*Cipher, error) {
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("redact: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("redact: %w", err)
	}
	return &Cipher{block: block, iv: []byte(iv)}, nil
}

// Encrypt returns the hex-encoded AES-CBC ciphertext of text. A nil Cipher
// (redaction not configured) degrades to a placeholder rather than leaking
// the value.
func (c *Cipher) Encrypt(text string) string {
	if c == nil {
		return "<redacted>"
	}
	padded := pad([]byte(text), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// Decrypt reverses Encrypt. It exists for operators decoding redacted log
// lines and for tests.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("redact: cipher not configured")
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("redact: %w", err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("redact: ciphertext length %d is not a block multiple", len(raw))
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)
	return string(unpad(out)), nil
}

// PKCS#7
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) []byte {
	n := int(data[len(data)-1])
	if n == 0 || n > len(data) {
		return data
	}
	return data[:len(data)-n]
}
