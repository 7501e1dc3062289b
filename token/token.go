// Package token implements the signed credential format shared by the
// ModernNav server and sync client.
//
// A token is base64(JSON{exp, type}) + "." + base64(HMAC-SHA256(payload)),
// keyed by the currently stored access code. Rotating the code changes the
// signing key and therefore invalidates every outstanding token without any
// server-side revocation state.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Kind discriminates the two credential lifetimes.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	// AccessTTL is the advertised lifetime of an access token.
	AccessTTL = 60 * time.Minute
	// RefreshTTL is the lifetime of the refresh credential cookie.
	RefreshTTL = 7 * 24 * time.Hour
)

type payload struct {
	Exp  int64 `json:"exp"` // epoch milliseconds
	Type Kind  `json:"type"`
}

// TTL returns the lifetime for the given token kind.
func TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return RefreshTTL
	}
	return AccessTTL
}

// Generate creates a signed token of the given kind, keyed by secret.
func Generate(kind Kind, secret string, now time.Time) (string, error) {
	raw, err := json.Marshal(payload{
		Exp:  now.Add(TTL(kind)).UnixMilli(),
		Type: kind,
	})
	if err != nil {
		return "", errors.Wrap(err, "[token.Generate] marshal payload")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded + "." + sign(encoded, secret), nil
}

// Verify checks the token's signature against secret and its expiry against
// now. Any malformed token is simply invalid.
func Verify(tok, secret string, now time.Time) bool {
	payloadB64, signatureB64, ok := strings.Cut(tok, ".")
	if !ok {
		return false
	}
	if !hmac.Equal([]byte(signatureB64), []byte(sign(payloadB64, secret))) {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(payloadB64)
	if err != nil {
		return false
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	return now.UnixMilli() < p.Exp
}

func sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
