package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/urfave/cli/v3"
)

// printJSON renders a command result as indented JSON on stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}

// submitTransactionCommand returns the CLI command that submits a
// transaction hash for reconciliation on behalf of a user.
//
// Usage example:
//
//	txrecon submit --user usr_123 --hash 0xabc... --network 1 --meta source=checkout
//
// The command returns as soon as the hash is accepted. With --wait, it
// blocks until background polling has driven the record to a terminal
// state (or exhausted its retry budget) before exiting.
func submitTransactionCommand(rc reconcile.Service, drain func()) *cli.Command {
	return &cli.Command{
		Name:        "submit",
		Description: "Submit a transaction hash so its on-chain outcome is reconciled against user records.",
		Usage:       "Submits a hash for tracking. The final outcome is visible through the status command.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Internal id of the submitting user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Transaction hash to track (0x-prefixed)",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "network",
				Usage: "Numeric chain id (e.g. 1 for ethereum)",
				Value: 1,
			},
			&cli.StringMapFlag{
				Name:  "meta",
				Usage: "Metadata entries attached to the record (key=value)",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Block until background reconciliation has finished",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			receipt, err := rc.ProcessTransactionHash(ctx,
				c.String("user"),
				c.String("hash"),
				c.Int64("network"),
				c.StringMap("meta"),
			)
			if err != nil {
				return err
			}

			if err := printJSON(receipt); err != nil {
				return err
			}

			if c.Bool("wait") {
				drain()
			}
			return nil
		},
	}
}

// transactionStatusCommand returns the CLI command that queries a
// transaction's status directly from the chain, without touching stored
// records.
//
// Usage example:
//
//	txrecon status --hash 0xabc... --network 1 --retries 5
func transactionStatusCommand(rc reconcile.Service) *cli.Command {
	return &cli.Command{
		Name:        "status",
		Description: "Check the on-chain status of a transaction.",
		Usage:       "Queries the chain directly. With --retries, re-queries until the transaction is terminal.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "hash",
				Usage:    "Transaction hash to check (0x-prefixed)",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "network",
				Usage: "Numeric chain id (e.g. 1 for ethereum)",
				Value: 1,
			},
			&cli.UintFlag{
				Name:  "retries",
				Usage: "Maximum status queries before giving up on a pending transaction",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				hash    = c.String("hash")
				network = c.Int64("network")
				retries = c.Uint("retries")
			)

			var (
				report reconcile.StatusReport
				err    error
			)
			if retries > 1 {
				report, err = rc.GetTransactionStatusWithRetry(ctx, hash, network, retries)
			} else {
				report, err = rc.CheckTransactionStatus(ctx, hash, network)
			}
			if err != nil {
				return err
			}

			return printJSON(report)
		},
	}
}

// supportedNetworksCommand returns the CLI command listing the networks
// this deployment can observe.
func supportedNetworksCommand(rc reconcile.Service) *cli.Command {
	return &cli.Command{
		Name:        "networks",
		Description: "List the canonical names of supported networks.",
		Usage:       "Prints the networks a transaction hash can be submitted against.",
		Action: func(ctx context.Context, c *cli.Command) error {
			return printJSON(rc.SupportedNetworks())
		},
	}
}
