// Package ethereum implements the reconcile.ChainReader contract for
// Ethereum-compatible networks using a JSON-RPC client.
package ethereum

import (
	"github.com/luminapay/txrecon/internal/pkg/transport/jsonrpc"
	"github.com/luminapay/txrecon/internal/reconcile"
)

// client implements reconcile.ChainReader for EVM networks. It talks to a
// node of a single network through the underlying JSON-RPC client.
type client struct {
	conn jsonrpc.Client // JSON-RPC connection to the node provider
}

// Ensure client implements the reconcile.ChainReader interface at compile time.
var _ reconcile.ChainReader = (*client)(nil)

// NewClient creates a chain reader over the provided JSON-RPC connection.
func NewClient(conn jsonrpc.Client) *client {
	return &client{
		conn: conn,
	}
}
