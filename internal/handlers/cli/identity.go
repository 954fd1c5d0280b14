package cli

import (
	"context"

	"github.com/luminapay/txrecon/internal/identity"

	"github.com/urfave/cli/v3"
)

// linkWalletCommand returns the CLI command that links a wallet address to
// an internal user, making the user resolvable during counterparty
// classification.
//
// Usage example:
//
//	txrecon link-wallet --user usr_123 --network ethereum --address 0xABC123...
func linkWalletCommand(id identity.Service) *cli.Command {
	return &cli.Command{
		Name:        "link-wallet",
		Description: "Link a wallet address to a user on a specific network.",
		Usage:       "Registers a wallet address for a user. Must provide user, network, and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Internal user identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "network",
				Usage:    "Canonical network name (e.g. ethereum, sepolia, bsc)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to link",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return id.LinkWallet(ctx, c.String("user"), c.String("network"), c.String("address"))
		},
	}
}

// unlinkWalletCommand returns the CLI command that removes a user's wallet
// link on a specific network.
//
// Usage example:
//
//	txrecon unlink-wallet --user usr_123 --network ethereum --address 0xABC123...
func unlinkWalletCommand(id identity.Service) *cli.Command {
	return &cli.Command{
		Name:        "unlink-wallet",
		Description: "Remove a wallet link from a user on a specific network.",
		Usage:       "Unregisters a wallet address. Must provide user, network, and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Internal user identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "network",
				Usage:    "Canonical network name (e.g. ethereum, sepolia, bsc)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to unlink",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return id.UnlinkWallet(ctx, c.String("user"), c.String("network"), c.String("address"))
		},
	}
}
