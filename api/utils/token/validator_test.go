package token

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oauth2-proxy/mockoidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "shapeblock"
	testAudience = "shapeblock-api"
)

var testSecret = []byte("not-so-secret")

func claims(issuer, audience, subject string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":                issuer,
		"aud":                audience,
		"sub":                subject,
		"exp":                time.Now().Add(time.Hour).Unix(),
		"iat":                time.Now().Unix(),
		"preferred_username": subject + "-name",
	}
}

func signHS256(t *testing.T, secret []byte, c jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestSecretValidator_ValidUser(t *testing.T) {
	v, err := NewSecretValidator(testSecret, testIssuer, testAudience)
	require.NoError(t, err)

	principal, err := v.ValidateToken(context.Background(), signHS256(t, testSecret, claims(testIssuer, testAudience, "user1")))
	require.NoError(t, err)
	assert.True(t, principal.IsAuthenticated())
	assert.Equal(t, "user1", principal.Id())
	assert.Equal(t, "user1-name", principal.Name())
}

func TestSecretValidator_InvalidTokens(t *testing.T) {
	v, err := NewSecretValidator(testSecret, testIssuer, testAudience)
	require.NoError(t, err)

	scenarios := map[string]string{
		"wrong secret":   signHS256(t, []byte("other"), claims(testIssuer, testAudience, "user1")),
		"wrong audience": signHS256(t, testSecret, claims(testIssuer, "invalid audience", "user1")),
		"wrong issuer":   signHS256(t, testSecret, claims("someone else", testAudience, "user1")),
		"garbage":        "not a token",
	}
	for name, token := range scenarios {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateToken(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

func TestSecretValidator_RequiresSecret(t *testing.T) {
	_, err := NewSecretValidator(nil, testIssuer, testAudience)
	assert.Error(t, err)
}

func createServer(t *testing.T) url.URL {
	m, err := mockoidc.Run()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Shutdown()
	})

	issuer, err := url.Parse(m.Issuer())
	require.NoError(t, err)
	return *issuer
}

func createUser(t *testing.T, issuer url.URL, audience, subject string) string {
	user := mockoidc.DefaultUser()
	key, err := mockoidc.DefaultKeypair()
	require.NoError(t, err)

	claims, err := user.Claims([]string{"profile", "email"}, &mockoidc.IDTokenClaims{
		RegisteredClaims: &jwt.RegisteredClaims{
			Issuer:    issuer.String(),
			Subject:   subject,
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	signed, err := key.SignJWT(claims)
	require.NoError(t, err)
	return signed
}

func TestValidator_OidcIssuer(t *testing.T) {
	issuer := createServer(t)
	v, err := NewValidator(issuer, testAudience)
	require.NoError(t, err)

	principal, err := v.ValidateToken(context.Background(), createUser(t, issuer, testAudience, "user1"))
	require.NoError(t, err)
	assert.Equal(t, "user1", principal.Id())
	assert.Equal(t, mockoidc.DefaultUser().PreferredUsername, principal.Name())

	_, err = v.ValidateToken(context.Background(), createUser(t, issuer, "invalid audience", "user1"))
	assert.Error(t, err)
}

func TestValidator_MultipleOidcIssuers(t *testing.T) {
	issuer1 := createServer(t)
	issuer2 := createServer(t)
	v1, err := NewValidator(issuer1, testAudience)
	require.NoError(t, err)
	v2, err := NewValidator(issuer2, testAudience)
	require.NoError(t, err)
	v := NewChainedValidator(v1, v2)

	principal, err := v.ValidateToken(context.Background(), createUser(t, issuer2, testAudience, "user1"))
	require.NoError(t, err)
	assert.Equal(t, "user1", principal.Id())

	_, err = v.ValidateToken(context.Background(), createUser(t, issuer1, "invalid audience", "user1"))
	assert.Error(t, err)

	unknown, err := url.Parse("http://unknown-issuer/")
	require.NoError(t, err)
	_, err = v.ValidateToken(context.Background(), createUser(t, *unknown, testAudience, "user1"))
	assert.Error(t, err)
}

func TestUncheckedValidator(t *testing.T) {
	v := NewUncheckedValidator()

	principal, err := v.ValidateToken(context.Background(), signHS256(t, []byte("anything"), claims("anyone", "anything", "user1")))
	require.NoError(t, err)
	assert.Equal(t, "user1", principal.Id())
	assert.Equal(t, "unverified: user1-name", principal.Name())

	_, err = v.ValidateToken(context.Background(), "not a token")
	assert.Error(t, err)
}

func TestChainedValidator(t *testing.T) {
	first, err := NewSecretValidator([]byte("first"), testIssuer, testAudience)
	require.NoError(t, err)
	second, err := NewSecretValidator([]byte("second"), testIssuer, testAudience)
	require.NoError(t, err)
	v := NewChainedValidator(first, second)

	principal, err := v.ValidateToken(context.Background(), signHS256(t, []byte("second"), claims(testIssuer, testAudience, "user2")))
	require.NoError(t, err)
	assert.Equal(t, "user2", principal.Id())

	_, err = v.ValidateToken(context.Background(), signHS256(t, []byte("third"), claims(testIssuer, testAudience, "user2")))
	assert.Error(t, err)
}
