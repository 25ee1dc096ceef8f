package auth

import (
	"context"

	"github.com/mmynk/chitfund/internal/models"
)

// Authenticator binds a wallet address to an account. The address it returns
// on the user is the member identifier used in every group.
type Authenticator interface {
	// Register creates an account for address. Addresses are normalized first,
	// so "0xABC" and " 0xabc" register the same member.
	Register(ctx context.Context, address, displayName, credential string) (*models.User, error)

	// Authenticate returns the account for address if credential matches.
	Authenticate(ctx context.Context, address, credential string) (*models.User, error)

	// ValidateCredential rejects credentials too weak to register with.
	ValidateCredential(credential string) error
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
