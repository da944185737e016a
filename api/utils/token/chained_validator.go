package token

import (
	"context"
	"errors"
)

// ChainedValidator accepts a token when any of its validators does, in order.
type ChainedValidator struct{ validators []ValidatorInterface }

var _ ValidatorInterface = &ChainedValidator{}

var errNoValidators = errors.New("no token validators configured")

func NewChainedValidator(validators ...ValidatorInterface) *ChainedValidator {
	return &ChainedValidator{validators}
}

// ValidateToken returns the principal of the first validator accepting token,
// or the error of the last one.
func (v *ChainedValidator) ValidateToken(ctx context.Context, token string) (TokenPrincipal, error) {
	err := errNoValidators
	for _, validator := range v.validators {
		var principal TokenPrincipal
		if principal, err = validator.ValidateToken(ctx, token); err == nil {
			return principal, nil
		}
	}
	return nil, err
}
