package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

var ErrInvalidHash = errors.New("invalid token hash format")

// HashToken returns an encoded argon2id hash for the supplied secret.
func HashToken(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("token required")
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// VerifyToken compares a secret against an encoded argon2id hash.
func VerifyToken(secret, encoded string) (bool, error) {
	if secret == "" {
		return false, nil
	}
	params, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	calculated := argon2.IDKey([]byte(secret), params.salt, params.time, params.memory, params.threads, uint32(len(params.hash)))
	return subtle.ConstantTimeCompare(calculated, params.hash) == 1, nil
}

type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	hash    []byte
}

func parseHash(encoded string) (hashParams, error) {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return hashParams{}, ErrInvalidHash
	}
	var p hashParams
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return hashParams{}, fmt.Errorf("%w: parse params: %v", ErrInvalidHash, err)
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[3]); err != nil {
		return hashParams{}, fmt.Errorf("%w: decode salt: %v", ErrInvalidHash, err)
	}
	if p.hash, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return hashParams{}, fmt.Errorf("%w: decode hash: %v", ErrInvalidHash, err)
	}
	if len(p.hash) == 0 {
		return hashParams{}, ErrInvalidHash
	}
	return p, nil
}
