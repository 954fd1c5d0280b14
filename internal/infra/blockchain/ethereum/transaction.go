package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/luminapay/txrecon/internal/pkg/types"
	"github.com/luminapay/txrecon/internal/reconcile"
)

type (
	// transactionResponse is the raw object returned by
	// eth_getTransactionByHash. Numeric fields are hex quantities; a
	// pending transaction has null blockNumber, which decodes to "".
	transactionResponse struct {
		Hash        string `json:"hash"`
		From        string `json:"from"`
		To          string `json:"to"`
		Value       string `json:"value"`
		Gas         string `json:"gas"`
		GasPrice    string `json:"gasPrice"`
		Input       string `json:"input"`
		Nonce       string `json:"nonce"`
		BlockHash   string `json:"blockHash"`
		BlockNumber string `json:"blockNumber"`
	}

	// receiptResponse is the subset of eth_getTransactionReceipt this
	// reader needs: the post-execution status flag.
	receiptResponse struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
	}

	// blockHeaderResponse is the subset of eth_getBlockByNumber used to
	// timestamp mined transactions.
	blockHeaderResponse struct {
		Timestamp string `json:"timestamp"`
	}
)

// isNullResult reports whether a JSON-RPC result is absent. Nodes answer
// eth_getTransactionByHash with a literal null for unknown hashes.
func isNullResult(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// getTransactionByHash fetches the raw transaction object, translating an
// absent result into reconcile.ErrTransactionNotFound.
func (c *client) getTransactionByHash(ctx context.Context, txHash string) (transactionResponse, error) {
	data, err := c.conn.Fetch(ctx, "eth_getTransactionByHash", txHash)
	if err != nil {
		return transactionResponse{}, err
	}

	if isNullResult(data) {
		return transactionResponse{}, reconcile.ErrTransactionNotFound
	}

	var tx transactionResponse
	return tx, json.Unmarshal(data, &tx)
}

// getTransactionReceipt fetches the execution receipt. Mined transactions
// always have one; for a transaction that got mined between our two calls
// it may still be absent, which is reported as ok=false.
func (c *client) getTransactionReceipt(ctx context.Context, txHash string) (receiptResponse, bool, error) {
	data, err := c.conn.Fetch(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return receiptResponse{}, false, err
	}

	if isNullResult(data) {
		return receiptResponse{}, false, nil
	}

	var receipt receiptResponse
	return receipt, true, json.Unmarshal(data, &receipt)
}

// getLatestBlockNumber fetches the node's current head block number.
func (c *client) getLatestBlockNumber(ctx context.Context) (types.Hex, error) {
	data, err := c.conn.Fetch(ctx, "eth_blockNumber")
	if err != nil {
		return "", err
	}

	var blockNumber types.Hex
	return blockNumber, json.Unmarshal(data, &blockNumber)
}

// getBlockTimestamp fetches the timestamp of the block with the given
// number. Transaction bodies are not needed, so they are not requested.
func (c *client) getBlockTimestamp(ctx context.Context, blockNumber string) (time.Time, error) {
	data, err := c.conn.Fetch(ctx, "eth_getBlockByNumber", blockNumber, false)
	if err != nil {
		return time.Time{}, err
	}

	var header blockHeaderResponse
	if err := json.Unmarshal(data, &header); err != nil {
		return time.Time{}, err
	}

	return time.Unix(types.Hex(header.Timestamp).Int(), 0).UTC(), nil
}

// toEnvelope converts the raw transaction object into a
// reconcile.TransactionEnvelope, decoding ERC-20 transfer call data when
// present. Confirmation fields are filled in separately once the mined
// state is known.
func (t transactionResponse) toEnvelope() reconcile.TransactionEnvelope {
	env := reconcile.TransactionEnvelope{
		Hash:     t.Hash,
		From:     t.From,
		To:       t.To,
		Value:    types.Hex(t.Value).Big().String(),
		Gas:      uint64(types.Hex(t.Gas).Int()),
		GasPrice: types.Hex(t.GasPrice).Big().String(),
		Nonce:    uint64(types.Hex(t.Nonce).Int()),
		Status:   reconcile.ChainStatusPending,
	}

	if transfer, ok := decodeERC20Transfer(t.Input); ok {
		env.IsERC20Transfer = true
		env.ActualRecipient = transfer.Recipient
		env.TokenAmount = transfer.Amount
		env.TokenAddress = t.To
		if transfer.Sender != "" {
			// transferFrom moves tokens owned by a third party; the real
			// sender is the decoded owner, not the envelope signer.
			env.From = transfer.Sender
		}
	}

	return env
}

// GetTransactionDetails implements the reconcile.ChainReader interface.
//
// The envelope is assembled from up to four node queries: the transaction
// itself, its receipt, the current head (for the confirmation count), and
// the mined block header (for the timestamp). Unmined transactions skip
// the last three and report a pending status with zero confirmations.
func (c *client) GetTransactionDetails(ctx context.Context, txHash string) (reconcile.TransactionEnvelope, error) {
	tx, err := c.getTransactionByHash(ctx, txHash)
	if err != nil {
		return reconcile.TransactionEnvelope{}, err
	}

	env := tx.toEnvelope()
	if tx.BlockNumber == "" {
		return env, nil
	}

	receipt, mined, err := c.getTransactionReceipt(ctx, txHash)
	if err != nil {
		return reconcile.TransactionEnvelope{}, err
	}
	if !mined {
		return env, nil
	}

	latest, err := c.getLatestBlockNumber(ctx)
	if err != nil {
		return reconcile.TransactionEnvelope{}, err
	}

	timestamp, err := c.getBlockTimestamp(ctx, tx.BlockNumber)
	if err != nil {
		return reconcile.TransactionEnvelope{}, err
	}

	env.BlockNumber = types.Hex(tx.BlockNumber).Int()
	env.Confirmations = latest.Int() - env.BlockNumber + 1
	env.Timestamp = timestamp

	switch receipt.Status {
	case "0x1":
		env.Status = reconcile.ChainStatusConfirmed
	case "0x0":
		env.Status = reconcile.ChainStatusFailed
	default:
		env.Status = reconcile.ChainStatusPending
	}

	return env, nil
}

// IsTransactionConfirmed implements the reconcile.ChainReader interface.
func (c *client) IsTransactionConfirmed(ctx context.Context, txHash string, threshold int64) (bool, error) {
	env, err := c.GetTransactionDetails(ctx, txHash)
	if err != nil {
		return false, err
	}

	return env.Status == reconcile.ChainStatusConfirmed && env.Confirmations >= threshold, nil
}
