package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScopeIngestOffers allows pushing scraped offer terms.
const ScopeIngestOffers = "offers:ingest"

// IngestToken is the payload of a scoped token issued to scraper clients.
type IngestToken struct {
	Sub    string   `json:"sub"`
	Scopes []string `json:"scopes"`
	Exp    int64    `json:"exp"`
	Iat    int64    `json:"iat"`
	Jti    string   `json:"jti"`
}

// HasScope reports whether the token grants scope.
func (t *IngestToken) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IngestTokenManager issues and verifies HMAC-SHA256 scoped tokens.
// Format: base64(payload).base64(signature)
type IngestTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewIngestTokenManager creates a token manager.
func NewIngestTokenManager(secret string, ttl time.Duration) *IngestTokenManager {
	return &IngestTokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate creates a token for client with the given scopes.
func (m *IngestTokenManager) Generate(client string, scopes []string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	tok := IngestToken{
		Sub:    client,
		Scopes: scopes,
		Exp:    exp.Unix(),
		Iat:    now.Unix(),
		Jti:    uuid.New().String(),
	}

	payloadJSON, err := json.Marshal(tok)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal ingest token: %w", err)
	}

	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadJSON)
	sigB64 := base64.RawURLEncoding.EncodeToString(m.sign(payloadB64))
	return payloadB64 + "." + sigB64, exp, nil
}

// Validate verifies the signature and expiry of a token.
func (m *IngestTokenManager) Validate(tokenString string) (*IngestToken, error) {
	i := strings.LastIndexByte(tokenString, '.')
	if i < 0 {
		return nil, fmt.Errorf("invalid ingest token format")
	}
	payloadB64, sigB64 := tokenString[:i], tokenString[i+1:]

	actualSig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if !hmac.Equal(m.sign(payloadB64), actualSig) {
		return nil, fmt.Errorf("invalid signature")
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var tok IngestToken
	if err := json.Unmarshal(payloadJSON, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}

	if time.Now().Unix() > tok.Exp {
		return nil, fmt.Errorf("token expired")
	}

	return &tok, nil
}

func (m *IngestTokenManager) sign(data string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
