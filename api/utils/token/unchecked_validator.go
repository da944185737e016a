package token

import (
	"context"
	"fmt"

	"github.com/equinor/radix-common/net/http"
	"github.com/golang-jwt/jwt/v5"
)

// UncheckedValidator accepts any well-formed token without checking its
// signature. Development only.
type UncheckedValidator struct{}

var _ ValidatorInterface = &UncheckedValidator{}

func NewUncheckedValidator() *UncheckedValidator {
	return &UncheckedValidator{}
}

type uncheckedClaims struct {
	jwt.RegisteredClaims
	userClaims
}

func (v *UncheckedValidator) ValidateToken(_ context.Context, token string) (TokenPrincipal, error) {
	var claims uncheckedClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, http.ForbiddenError(fmt.Sprintf("failed to extract JWT claims: %s", err.Error()))
	}
	if claims.Subject == "" {
		return nil, http.ForbiddenError("token has no subject")
	}

	return &principal{token: token, subject: claims.Subject, claims: claims.userClaims}, nil
}
