package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingDirectory returns the same error for every lookup.
type failingDirectory struct {
	err error
}

func (d failingDirectory) WalletAddress(context.Context, string, string) (string, error) {
	return "", d.err
}

func (d failingDirectory) UserIDByWallet(context.Context, string, string) (string, error) {
	return "", d.err
}

func TestResolveCounterparties(t *testing.T) {
	t.Run("submitter is the sender, recipient known", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{"alice": "0xAAA"},
			owners:  map[string]string{"0xbbb": "bob"},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "alice", "0xaaa", "0xBBB")
		require.NoError(t, err)

		assert.Equal(t, "alice", cp.fromUserID)
		assert.Equal(t, "bob", cp.toUserID)
	})

	t.Run("submitter is the sender, recipient unknown falls back to submitter", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{"alice": "0xaaa"},
			owners:  map[string]string{},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "alice", "0xAAA", "0xBBB")
		require.NoError(t, err)

		assert.Equal(t, "alice", cp.fromUserID)
		assert.Equal(t, "alice", cp.toUserID)
	})

	t.Run("submitter is the recipient, sender known", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{"bob": "0xBBB"},
			owners:  map[string]string{"0xaaa": "alice"},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "bob", "0xAaA", "0xbBb")
		require.NoError(t, err)

		assert.Equal(t, "alice", cp.fromUserID)
		assert.Equal(t, "bob", cp.toUserID)
	})

	t.Run("submitter is the recipient, sender unknown stays unset", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{"bob": "0xbbb"},
			owners:  map[string]string{},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "bob", "0xAAA", "0xBBB")
		require.NoError(t, err)

		assert.Empty(t, cp.fromUserID)
		assert.Equal(t, "bob", cp.toUserID)
	})

	t.Run("submitter has no wallet on file, tracking only", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{},
			owners:  map[string]string{"0xaaa": "alice", "0xbbb": "bob"},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "carol", "0xAAA", "0xBBB")
		require.NoError(t, err)

		// Ownership is never guessed from the directory when the submitter
		// has no wallet to match against.
		assert.Empty(t, cp.fromUserID)
		assert.Equal(t, "carol", cp.toUserID)
	})

	t.Run("submitter wallet matches neither side, tracking only", func(t *testing.T) {
		directory := &directoryStub{
			wallets: map[string]string{"carol": "0xccc"},
			owners:  map[string]string{"0xaaa": "alice"},
		}

		cp, err := resolveCounterparties(t.Context(), directory, "ethereum", "carol", "0xAAA", "0xBBB")
		require.NoError(t, err)

		assert.Empty(t, cp.fromUserID)
		assert.Equal(t, "carol", cp.toUserID)
	})

	t.Run("directory failure propagates", func(t *testing.T) {
		storeErr := errors.New("directory unavailable")

		_, err := resolveCounterparties(t.Context(), failingDirectory{err: storeErr}, "ethereum", "alice", "0xAAA", "0xBBB")
		assert.ErrorIs(t, err, storeErr)
	})
}
