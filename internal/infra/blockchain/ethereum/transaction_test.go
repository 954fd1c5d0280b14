package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub answers JSON-RPC calls from a canned method table and records the
// call order.
type rpcStub struct {
	calls     []string
	responses map[string]json.RawMessage
	errs      map[string]error
}

func (s *rpcStub) Fetch(_ context.Context, method string, _ ...any) (json.RawMessage, error) {
	s.calls = append(s.calls, method)
	if err, ok := s.errs[method]; ok {
		return nil, err
	}

	return s.responses[method], nil
}

func TestGetTransactionDetails(t *testing.T) {
	t.Run("unknown hash", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`null`),
		}}

		_, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xmissing")

		assert.ErrorIs(t, err, reconcile.ErrTransactionNotFound)
		assert.Equal(t, []string{"eth_getTransactionByHash"}, rpc.calls)
	})

	t.Run("unmined transaction stops after one query", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xAAA",
				"to": "0xBBB",
				"value": "0xde0b6b3a7640000",
				"gas": "0x5208",
				"gasPrice": "0x3b9aca00",
				"nonce": "0x7",
				"blockHash": null,
				"blockNumber": null
			}`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.Equal(t, reconcile.ChainStatusPending, env.Status)
		assert.Zero(t, env.Confirmations)
		assert.Zero(t, env.BlockNumber)
		assert.Equal(t, "1000000000000000000", env.Value)
		assert.Equal(t, uint64(21000), env.Gas)
		assert.Equal(t, "1000000000", env.GasPrice)
		assert.Equal(t, uint64(7), env.Nonce)
		assert.Equal(t, []string{"eth_getTransactionByHash"}, rpc.calls)
	})

	t.Run("mined native transfer", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xAAA",
				"to": "0xBBB",
				"value": "0xde0b6b3a7640000",
				"gas": "0x5208",
				"gasPrice": "0x3b9aca00",
				"nonce": "0x7",
				"blockNumber": "0x10"
			}`),
			"eth_getTransactionReceipt": json.RawMessage(`{"status": "0x1", "blockNumber": "0x10"}`),
			"eth_blockNumber":           json.RawMessage(`"0x12"`),
			"eth_getBlockByNumber":      json.RawMessage(`{"timestamp": "0x68b5a000"}`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.Equal(t, reconcile.ChainStatusConfirmed, env.Status)
		assert.Equal(t, int64(16), env.BlockNumber)
		assert.Equal(t, int64(3), env.Confirmations)
		assert.Equal(t, time.Unix(0x68b5a000, 0).UTC(), env.Timestamp)
		assert.False(t, env.IsERC20Transfer)
		assert.Equal(t, []string{
			"eth_getTransactionByHash",
			"eth_getTransactionReceipt",
			"eth_blockNumber",
			"eth_getBlockByNumber",
		}, rpc.calls)
	})

	t.Run("reverted transaction", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xAAA",
				"to": "0xBBB",
				"value": "0x0",
				"blockNumber": "0x10"
			}`),
			"eth_getTransactionReceipt": json.RawMessage(`{"status": "0x0", "blockNumber": "0x10"}`),
			"eth_blockNumber":           json.RawMessage(`"0x11"`),
			"eth_getBlockByNumber":      json.RawMessage(`{"timestamp": "0x68b5a000"}`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.Equal(t, reconcile.ChainStatusFailed, env.Status)
		assert.Equal(t, int64(2), env.Confirmations)
	})

	t.Run("mined transaction without a receipt yet stays pending", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xAAA",
				"to": "0xBBB",
				"value": "0x1",
				"blockNumber": "0x10"
			}`),
			"eth_getTransactionReceipt": json.RawMessage(`null`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.Equal(t, reconcile.ChainStatusPending, env.Status)
		assert.Zero(t, env.Confirmations)
		assert.Equal(t, []string{"eth_getTransactionByHash", "eth_getTransactionReceipt"}, rpc.calls)
	})

	t.Run("erc20 transfer call data is decoded into the envelope", func(t *testing.T) {
		input := "0xa9059cbb" +
			pad("1111111111111111111111111111111111111111") +
			pad("f4240")

		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xAAA",
				"to": "0xT0KEN",
				"value": "0x0",
				"input": "` + input + `",
				"blockNumber": "0x10"
			}`),
			"eth_getTransactionReceipt": json.RawMessage(`{"status": "0x1", "blockNumber": "0x10"}`),
			"eth_blockNumber":           json.RawMessage(`"0x10"`),
			"eth_getBlockByNumber":      json.RawMessage(`{"timestamp": "0x68b5a000"}`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.True(t, env.IsERC20Transfer)
		assert.Equal(t, "0x1111111111111111111111111111111111111111", env.ActualRecipient)
		assert.Equal(t, "1000000", env.TokenAmount)
		assert.Equal(t, "0xT0KEN", env.TokenAddress)
		assert.Equal(t, "0xAAA", env.From)
		assert.Equal(t, int64(1), env.Confirmations)
	})

	t.Run("transferFrom overrides the envelope sender", func(t *testing.T) {
		input := "0x23b872dd" +
			pad("2222222222222222222222222222222222222222") +
			pad("3333333333333333333333333333333333333333") +
			pad("1")

		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`{
				"hash": "0xabc",
				"from": "0xSPENDER",
				"to": "0xT0KEN",
				"value": "0x0",
				"input": "` + input + `"
			}`),
		}}

		env, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		require.NoError(t, err)

		assert.Equal(t, "0x2222222222222222222222222222222222222222", env.From)
		assert.Equal(t, "0x3333333333333333333333333333333333333333", env.ActualRecipient)
	})

	t.Run("rpc failure propagates", func(t *testing.T) {
		rpcErr := errors.New("connection refused")
		rpc := &rpcStub{errs: map[string]error{"eth_getTransactionByHash": rpcErr}}

		_, err := NewClient(rpc).GetTransactionDetails(t.Context(), "0xabc")
		assert.ErrorIs(t, err, rpcErr)
	})
}

func TestIsTransactionConfirmed(t *testing.T) {
	responses := map[string]json.RawMessage{
		"eth_getTransactionByHash": json.RawMessage(`{
			"hash": "0xabc",
			"from": "0xAAA",
			"to": "0xBBB",
			"value": "0x1",
			"blockNumber": "0x10"
		}`),
		"eth_getTransactionReceipt": json.RawMessage(`{"status": "0x1", "blockNumber": "0x10"}`),
		"eth_blockNumber":           json.RawMessage(`"0x12"`),
		"eth_getBlockByNumber":      json.RawMessage(`{"timestamp": "0x68b5a000"}`),
	}

	t.Run("meets threshold", func(t *testing.T) {
		confirmed, err := NewClient(&rpcStub{responses: responses}).IsTransactionConfirmed(t.Context(), "0xabc", 3)
		require.NoError(t, err)
		assert.True(t, confirmed)
	})

	t.Run("below threshold", func(t *testing.T) {
		confirmed, err := NewClient(&rpcStub{responses: responses}).IsTransactionConfirmed(t.Context(), "0xabc", 6)
		require.NoError(t, err)
		assert.False(t, confirmed)
	})

	t.Run("unknown hash is an error", func(t *testing.T) {
		rpc := &rpcStub{responses: map[string]json.RawMessage{
			"eth_getTransactionByHash": json.RawMessage(`null`),
		}}

		_, err := NewClient(rpc).IsTransactionConfirmed(t.Context(), "0xabc", 1)
		assert.ErrorIs(t, err, reconcile.ErrTransactionNotFound)
	})
}
