package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret-key", 8*time.Hour)
}

func TestGenerateAndValidateAdminToken(t *testing.T) {
	mgr := newTestJWTManager()
	adminID := uuid.New()

	token, err := mgr.GenerateToken(RealmAdmin, adminID, "admin@test.com", RoleSuperAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := mgr.ValidateTokenForRealm(token, RealmAdmin)
	require.NoError(t, err)
	assert.Equal(t, adminID.String(), claims.Subject)
	assert.Equal(t, RealmAdmin, claims.Realm)
	assert.Equal(t, RoleSuperAdmin, claims.Role)
	assert.Equal(t, "admin@test.com", claims.Email)
}

func TestUnknownRealmRejected(t *testing.T) {
	_, err := newTestJWTManager().GenerateToken("player", uuid.New(), "", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown realm")
}

func TestRealmMismatchRejected(t *testing.T) {
	mgr := newTestJWTManager()
	token, err := mgr.GenerateToken(RealmAdmin, uuid.New(), "", RoleViewer)
	require.NoError(t, err)

	_, err = mgr.ValidateTokenForRealm(token, "partner")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected realm partner")
}

func TestInvalidSecretRejected(t *testing.T) {
	mgr1 := NewJWTManager("secret-1", time.Hour)
	mgr2 := NewJWTManager("secret-2", time.Hour)

	token, err := mgr1.GenerateToken(RealmAdmin, uuid.New(), "", RoleAdmin)
	require.NoError(t, err)

	_, err = mgr2.ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := NewJWTManager("secret", -time.Minute)

	token, err := mgr.GenerateToken(RealmAdmin, uuid.New(), "", RoleAdmin)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.Error(t, err)
}

func TestForeignIssuerRejected(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Realm: RealmAdmin,
		Role:  RoleSuperAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = newTestJWTManager().ValidateToken(token)
	assert.Error(t, err)
}

func TestNonHS256Rejected(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Realm: RealmAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = newTestJWTManager().ValidateToken(token)
	assert.Error(t, err)
}

func TestRoles(t *testing.T) {
	assert.True(t, IsAdminRole(RoleViewer))
	assert.True(t, IsAdminRole(RoleSuperAdmin))
	assert.False(t, IsAdminRole("owner"))
	assert.NotContains(t, WriteRoles(), RoleViewer)
}

// --- Ingest Token Tests ---

func TestIngestTokenRoundtrip(t *testing.T) {
	mgr := NewIngestTokenManager("ingest-secret", time.Hour)

	token, exp, err := mgr.Generate("scraper-1", []string{ScopeIngestOffers})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	parsed, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "scraper-1", parsed.Sub)
	assert.True(t, parsed.HasScope(ScopeIngestOffers))
	assert.False(t, parsed.HasScope("offers:delete"))
}

func TestIngestTokenInvalidSignature(t *testing.T) {
	token, _, err := NewIngestTokenManager("secret-1", time.Hour).Generate("s", nil)
	require.NoError(t, err)

	_, err = NewIngestTokenManager("secret-2", time.Hour).Validate(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestIngestTokenExpired(t *testing.T) {
	mgr := NewIngestTokenManager("secret", -time.Minute)
	token, _, err := mgr.Generate("s", []string{ScopeIngestOffers})
	require.NoError(t, err)

	_, err = mgr.Validate(token)
	assert.EqualError(t, err, "token expired")
}

func TestIngestTokenMalformed(t *testing.T) {
	_, err := NewIngestTokenManager("secret", time.Hour).Validate("no-dot-here")
	assert.Error(t, err)
}
