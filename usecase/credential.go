package usecase

import (
	"context"
	"fmt"

	"github.com/classtream/lectures-client/domain"
)

// CredentialProvider produces a fresh credential for the current principal
// on every call. It never caches: token lifetime is the issuer's problem.
type CredentialProvider struct {
	identity domain.IdentityProvider
}

func NewCredentialProvider(identity domain.IdentityProvider) *CredentialProvider {
	return &CredentialProvider{identity: identity}
}

// Credential returns (nil, nil) when no session is active. A nil credential
// is an expected outcome callers must branch on, distinct from a transient
// fetch failure, which is returned as an error.
func (p *CredentialProvider) Credential(ctx context.Context) (*domain.Credential, error) {
	principal := p.identity.CurrentPrincipal()
	if principal == nil {
		return nil, nil
	}
	cred, err := p.identity.Credential(ctx, *principal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credential: %w", err)
	}
	return &cred, nil
}
