package identity

import (
	"context"
	"strings"

	"github.com/luminapay/txrecon/internal/pkg/validator"
)

// WalletLink ties an on-chain address on a specific network to an internal
// user. Addresses are normalized to lower case before persistence so that
// lookups stay case-insensitive.
type WalletLink struct {
	UserID  string `validate:"required"`                             // internal user identifier
	Network string `validate:"required"`                             // canonical network name (e.g. "ethereum")
	Address string `validate:"required,hexadecimal,startswith=0x"`   // wallet address on that network
}

// WalletStorage persists wallet links and serves address lookups.
type WalletStorage interface {
	// SaveWalletLink stores the link. Saving the same link twice must be
	// idempotent.
	SaveWalletLink(ctx context.Context, link WalletLink) error

	// DeleteWalletLink removes the link if present.
	DeleteWalletLink(ctx context.Context, link WalletLink) error
}

// buildWalletLink constructs and validates a WalletLink, normalizing the
// address to lower case.
func buildWalletLink(userID, network, address string) (WalletLink, error) {
	link := WalletLink{
		UserID:  userID,
		Network: network,
		Address: strings.ToLower(address),
	}

	return link, validator.Validate(link)
}

// LinkWallet validates the input and persists the wallet link.
func (s *service) LinkWallet(ctx context.Context, userID, network, address string) error {
	link, err := buildWalletLink(userID, network, address)
	if err != nil {
		return err
	}

	return s.walletStorage.SaveWalletLink(ctx, link)
}

// UnlinkWallet validates the input and removes the wallet link.
func (s *service) UnlinkWallet(ctx context.Context, userID, network, address string) error {
	link, err := buildWalletLink(userID, network, address)
	if err != nil {
		return err
	}

	return s.walletStorage.DeleteWalletLink(ctx, link)
}
