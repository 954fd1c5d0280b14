package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/luminapay/txrecon/internal/identity"
	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/redis/go-redis/v9"
)

// identityKeyPrefix is the namespace for all wallet link keys.
const identityKeyPrefix = "identity"

// walletsByAddressKey returns the hash key mapping lowercased wallet
// addresses to user ids for one network.
//
// Format: "identity:wallets:{network}"
func walletsByAddressKey(network string) string {
	return fmt.Sprintf("%s:wallets:%s", identityKeyPrefix, network)
}

// walletsByUserKey returns the hash key mapping user ids to their wallet
// address for one network.
//
// Format: "identity:users:{network}"
func walletsByUserKey(network string) string {
	return fmt.Sprintf("%s:users:%s", identityKeyPrefix, network)
}

// SaveWalletLink implements the identity.WalletStorage interface. Both
// directions of the link are written in one pipeline so lookups by address
// and by user stay consistent.
func (c *client) SaveWalletLink(ctx context.Context, link identity.WalletLink) error {
	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, walletsByAddressKey(link.Network), strings.ToLower(link.Address), link.UserID)
		pipe.HSet(ctx, walletsByUserKey(link.Network), link.UserID, strings.ToLower(link.Address))
		return nil
	})

	return err
}

// DeleteWalletLink implements the identity.WalletStorage interface.
func (c *client) DeleteWalletLink(ctx context.Context, link identity.WalletLink) error {
	_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, walletsByAddressKey(link.Network), strings.ToLower(link.Address))
		pipe.HDel(ctx, walletsByUserKey(link.Network), link.UserID)
		return nil
	})

	return err
}

// WalletAddress implements the reconcile.UserDirectory interface.
func (c *client) WalletAddress(ctx context.Context, network, userID string) (string, error) {
	address, err := c.conn.HGet(ctx, walletsByUserKey(network), userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = reconcile.ErrUserNotFound
		}

		return "", err
	}

	return address, nil
}

// UserIDByWallet implements the reconcile.UserDirectory interface. The
// lookup is case-insensitive since addresses are stored lowercased.
func (c *client) UserIDByWallet(ctx context.Context, network, address string) (string, error) {
	userID, err := c.conn.HGet(ctx, walletsByAddressKey(network), strings.ToLower(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = reconcile.ErrUserNotFound
		}

		return "", err
	}

	return userID, nil
}

// Compile-time assertions for the interfaces this client satisfies.
var (
	_ identity.WalletStorage  = (*client)(nil)
	_ reconcile.UserDirectory = (*client)(nil)
)
