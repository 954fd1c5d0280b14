package reconcile

import (
	"context"
	"errors"
	"time"
)

// NativeTokenAddress is the sentinel token address recorded for transfers
// of a network's native asset.
const NativeTokenAddress = "0x0"

// ErrTransactionNotFound is returned by a ChainReader when the node does
// not know the requested hash yet. During discovery polling this is a
// normal, expected outcome rather than a failure.
var ErrTransactionNotFound = errors.New("transaction not found on chain")

// ChainStatus is the coarse execution status a ChainReader reports for a
// transaction. Values outside the known constants are tolerated and treated
// as pending by the engine.
type ChainStatus string

const (
	// ChainStatusPending means the transaction is known but not yet mined,
	// or its receipt is not yet available.
	ChainStatusPending ChainStatus = "pending"

	// ChainStatusConfirmed means the transaction was mined and executed
	// successfully.
	ChainStatusConfirmed ChainStatus = "confirmed"

	// ChainStatusFailed means the transaction was mined but its execution
	// reverted.
	ChainStatusFailed ChainStatus = "failed"
)

// TransactionEnvelope carries the raw on-chain fields of a transaction as
// reported by a node, plus the decoded ERC-20 transfer data when the
// envelope's To address is a token contract. Absence of a transaction is
// signaled through ErrTransactionNotFound, never through a zero envelope.
type TransactionEnvelope struct {
	Hash          string      // transaction hash
	From          string      // sender address
	To            string      // recipient address as seen by the node (token contract for ERC-20 calls)
	Value         string      // native amount in wei, decimal string ("0" for token transfers)
	Gas           uint64      // gas limit
	GasPrice      string      // gas price in wei, decimal string
	Nonce         uint64      // sender account nonce
	BlockNumber   int64       // block the transaction was mined in (0 while unmined)
	Confirmations int64       // blocks mined on top of it, inclusive (0 while unmined)
	Timestamp     time.Time   // mined block timestamp (zero while unmined)
	Status        ChainStatus // coarse execution status

	IsERC20Transfer bool   // true when the call data encodes an ERC-20 transfer
	ActualRecipient string // decoded token recipient (empty unless IsERC20Transfer)
	TokenAddress    string // token contract address (empty unless IsERC20Transfer)
	TokenAmount     string // decoded token amount, decimal string (empty unless IsERC20Transfer)
}

// EffectiveTransfer returns the recipient, amount, and token address of the
// value movement this envelope represents. For ERC-20 transfers these come
// from the decoded call data; the envelope's To/Value describe only the
// contract invocation and must never be recorded as the transfer itself.
func (e TransactionEnvelope) EffectiveTransfer() (to, amount, tokenAddress string) {
	if e.IsERC20Transfer && e.ActualRecipient != "" {
		return e.ActualRecipient, e.TokenAmount, e.TokenAddress
	}

	return e.To, e.Value, NativeTokenAddress
}

// ChainReader is the per-network client the engine observes transactions
// through. Implementations talk to a single network; the engine holds one
// reader per canonical network name.
type ChainReader interface {
	// GetTransactionDetails looks up the transaction by hash and returns
	// its envelope. It returns ErrTransactionNotFound when the node does
	// not know the hash. The call is a read and must be safe to repeat.
	GetTransactionDetails(ctx context.Context, txHash string) (TransactionEnvelope, error)

	// IsTransactionConfirmed reports whether the transaction executed
	// successfully and has accumulated at least threshold confirmations.
	IsTransactionConfirmed(ctx context.Context, txHash string, threshold int64) (bool, error)
}
