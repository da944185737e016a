package token

import (
	"context"
	"fmt"
)

type TokenPrincipal interface {
	IsAuthenticated() bool
	Token() string
	// Id is the subject of the token. It owns the records created with it.
	Id() string
	Name() string
}

type userClaims struct {
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

func (c *userClaims) Validate(_ context.Context) error {
	return nil
}

type principal struct {
	token    string
	subject  string
	claims   userClaims
	verified bool
}

func (p *principal) Token() string         { return p.token }
func (p *principal) IsAuthenticated() bool { return true }
func (p *principal) Id() string            { return p.subject }

func (p *principal) Name() string {
	name := p.subject
	switch {
	case p.claims.PreferredUsername != "":
		name = p.claims.PreferredUsername
	case p.claims.Email != "":
		name = p.claims.Email
	}
	if !p.verified {
		return fmt.Sprintf("unverified: %s", name)
	}
	return name
}

type anonPrincipal struct{}

func NewAnonymousPrincipal() TokenPrincipal { return &anonPrincipal{} }

func (p *anonPrincipal) Token() string         { return "" }
func (p *anonPrincipal) Id() string            { return "anonymous" }
func (p *anonPrincipal) Name() string          { return "anonymous" }
func (p *anonPrincipal) IsAuthenticated() bool { return false }
