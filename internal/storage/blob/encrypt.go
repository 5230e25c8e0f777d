package blob

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	encryptionMetadataKey = "blob-encryption"
	encryptionMethod      = "aes-gcm"
)

// encryptor seals objects with AES-GCM. The object key is bound as additional
// data, so a ciphertext copied under another key fails to open.
type encryptor struct {
	aead cipher.AEAD
}

func newEncryptor(raw string) (*encryptor, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("logs.encryption_key must be base64: %w", err)
	}
	switch len(decoded) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("logs.encryption_key must be 16/24/32 bytes after decoding")
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &encryptor{aead: aead}, nil
}

func (e *encryptor) encrypt(key string, r io.Reader) (io.Reader, map[string]string, error) {
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	sealed := e.aead.Seal(nonce, nonce, plain, []byte(key))
	meta := map[string]string{encryptionMetadataKey: encryptionMethod}
	return bytes.NewReader(sealed), meta, nil
}

func (e *encryptor) decrypt(key string, r io.Reader) (io.ReadCloser, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, 0, errors.New("encrypted payload too short")
	}
	plain, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(key))
	if err != nil {
		return nil, 0, fmt.Errorf("decrypt blob: %w", err)
	}
	return io.NopCloser(bytes.NewReader(plain)), int64(len(plain)), nil
}
