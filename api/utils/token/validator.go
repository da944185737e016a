package token

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/equinor/radix-common/net/http"
)

type ValidatorInterface interface {
	// ValidateToken will return a TokenPrincipal object if token payload and signature is validated agains issuer. It will return nil principal and a error if it fails.
	ValidateToken(context.Context, string) (TokenPrincipal, error)
}

type Validator struct {
	validator *validator.Validator
}

var _ ValidatorInterface = &Validator{}

// NewValidator verifies RS256 tokens against the signing keys published by
// an OIDC issuer.
func NewValidator(issuerUrl url.URL, audience string) (*Validator, error) {
	provider := jwks.NewCachingProvider(&issuerUrl, 5*time.Hour)
	return newValidator(provider.KeyFunc, validator.RS256, issuerUrl.String(), audience)
}

// NewSecretValidator verifies HS256 tokens signed with a shared secret.
func NewSecretValidator(secret []byte, issuer, audience string) (*Validator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	keyFunc := func(context.Context) (interface{}, error) {
		return secret, nil
	}
	return newValidator(keyFunc, validator.HS256, issuer, audience)
}

func newValidator(keyFunc func(context.Context) (interface{}, error), algorithm validator.SignatureAlgorithm, issuer, audience string) (*Validator, error) {
	v, err := validator.New(
		keyFunc,
		algorithm,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &userClaims{}
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Validator{validator: v}, nil
}

func (v *Validator) ValidateToken(ctx context.Context, token string) (TokenPrincipal, error) {
	validateToken, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, http.ForbiddenError("invalid token")
	}

	claims, ok := validateToken.(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return nil, http.ForbiddenError("invalid token")
	}

	custom, ok := claims.CustomClaims.(*userClaims)
	if !ok || custom == nil {
		return nil, http.ForbiddenError("invalid token")
	}

	return &principal{token: token, subject: claims.RegisteredClaims.Subject, claims: *custom, verified: true}, nil
}
