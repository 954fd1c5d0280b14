// Package identity manages the wallet links that tie on-chain addresses to
// internal user identities. Counterparty resolution during reconciliation
// looks users up through these links.
package identity

import "context"

// Service registers and removes wallet links for internal users.
//
// Implementations validate input and delegate persistence to the configured
// WalletStorage.
type Service interface {
	// LinkWallet records that the given wallet address on the given
	// network belongs to userID. Linking the same wallet again is
	// idempotent.
	LinkWallet(ctx context.Context, userID, network, address string) error

	// UnlinkWallet removes the wallet link for userID on the given
	// network. After this call the address no longer resolves to the user.
	UnlinkWallet(ctx context.Context, userID, network, address string) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	walletStorage WalletStorage
}

var _ Service = (*service)(nil)

// New creates an identity service backed by the provided WalletStorage.
func New(ws WalletStorage) *service {
	return &service{
		walletStorage: ws,
	}
}
