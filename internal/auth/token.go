package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// TokenSigner issues and verifies bearer tokens of the form
// "userID.expiryUnix.signature", where the signature is HMAC-SHA256 over
// "userID.expiryUnix" encoded as URL-safe base64.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner creates a TokenSigner with the given shared secret and token
// lifetime.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token for the user, valid for the configured TTL.
func (s *TokenSigner) Issue(userID string, now time.Time) string {
	expiry := strconv.FormatInt(now.Add(s.ttl).Unix(), 10)
	payload := userID + "." + expiry
	return payload + "." + s.sign(payload)
}

// Verify checks the signature and expiry and returns the embedded user id.
// Any malformed, tampered, or expired token maps to domain.ErrInvalidToken.
func (s *TokenSigner) Verify(token string, now time.Time) (string, error) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return "", domain.ErrInvalidToken
	}
	payload, sig := token[:idx], token[idx+1:]

	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return "", domain.ErrInvalidToken
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 2 {
		return "", domain.ErrInvalidToken
	}
	userID, expiryRaw := parts[0], parts[1]

	expiry, err := strconv.ParseInt(expiryRaw, 10, 64)
	if err != nil || userID == "" {
		return "", domain.ErrInvalidToken
	}
	if now.Unix() >= expiry {
		return "", domain.ErrInvalidToken
	}
	return userID, nil
}

// sign computes HMAC-SHA256 of the payload and returns URL-safe base64.
func (s *TokenSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
