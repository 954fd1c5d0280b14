// Package cli wires the reconciliation and identity services into a
// command-line interface. HTTP handlers of the wider platform call the same
// service entry points; this surface exists for operations and local use.
package cli

import (
	"context"
	"os"

	"github.com/luminapay/txrecon/internal/identity"
	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the txrecon CLI application.
//
// Registered commands:
//
//   - `submit`: submits a transaction hash for reconciliation.
//   - `status`: checks a transaction's on-chain status.
//   - `networks`: lists the supported networks.
//   - `link-wallet` / `unlink-wallet`: manage user wallet links.
//
// The drain callback blocks until all background polling has finished; the
// submit command invokes it when asked to wait for reconciliation.
func Run(ctx context.Context, rc reconcile.Service, id identity.Service, drain func()) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "txrecon",
		Description:           "Command-line interface for the transaction reconciliation service.",
		Usage:                 "txrecon [command] [flags]",
		Commands: []*cli.Command{
			submitTransactionCommand(rc, drain),
			transactionStatusCommand(rc),
			supportedNetworksCommand(rc),
			linkWalletCommand(id),
			unlinkWalletCommand(id),
		},
	}

	return app.Run(ctx, os.Args)
}
