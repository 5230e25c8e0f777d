package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	adminTokenPrefix = "fleet_"
	adminTokenLength = 40
	alphabet         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	verifiedCacheSize = 64
	verifiedCacheTTL  = 10 * time.Minute
)

var (
	ErrAdminDisabled = errors.New("admin api disabled: admin.token_hash not configured")
	ErrUnauthorized  = errors.New("invalid admin token")
)

// AdminAuthenticator checks bearer tokens against the configured argon2id hash.
// Verified tokens are remembered by digest so argon2 runs once per token per TTL.
type AdminAuthenticator struct {
	hash     string
	verified *expirable.LRU[string, struct{}]
}

func NewAdminAuthenticator(tokenHash string) (*AdminAuthenticator, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash != "" {
		if _, err := parseHash(tokenHash); err != nil {
			return nil, fmt.Errorf("admin.token_hash: %w", err)
		}
	}
	return &AdminAuthenticator{
		hash:     tokenHash,
		verified: expirable.NewLRU[string, struct{}](verifiedCacheSize, nil, verifiedCacheTTL),
	}, nil
}

func (a *AdminAuthenticator) Enabled() bool {
	return a != nil && a.hash != ""
}

func (a *AdminAuthenticator) Authenticate(token string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUnauthorized
	}
	digest := tokenDigest(token)
	if _, ok := a.verified.Get(digest); ok {
		return nil
	}
	ok, err := VerifyToken(token, a.hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	a.verified.Add(digest, struct{}{})
	return nil
}

// GenerateAdminToken returns a new random admin bearer token.
func GenerateAdminToken() (string, error) {
	secret, err := randomString(adminTokenLength)
	if err != nil {
		return "", err
	}
	return adminTokenPrefix + secret, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
