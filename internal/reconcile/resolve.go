package reconcile

import (
	"context"
	"errors"
	"strings"
)

// ErrUserNotFound is returned by a UserDirectory when no user matches the
// given wallet address or user id. The resolver treats it as a miss, never
// as a failure.
var ErrUserNotFound = errors.New("user not found")

// UserDirectory maps internal user identities to their wallet addresses
// and back. Address lookups must be case-insensitive.
type UserDirectory interface {
	// WalletAddress returns the wallet address linked to the user on the
	// given network, or ErrUserNotFound.
	WalletAddress(ctx context.Context, network, userID string) (string, error)

	// UserIDByWallet returns the user that owns the given wallet address
	// on the given network, or ErrUserNotFound.
	UserIDByWallet(ctx context.Context, network, address string) (string, error)
}

// counterparties is the outcome of role resolution: which internal users,
// if any, sit on either side of a transfer. Either side may be empty.
type counterparties struct {
	fromUserID string
	toUserID   string
}

// resolveCounterparties classifies the submitting user against the
// effective sender and recipient addresses of a transfer.
//
// Three outcomes are possible:
//
//   - the submitter's wallet is the sender: the recipient is looked up by
//     address, falling back to the submitter when no user matches;
//   - the submitter's wallet is the recipient: the sender is looked up by
//     address and left unset when no user matches;
//   - neither address matches (or the submitter has no wallet on file):
//     the record is tracking-only, with the submitter recorded as the
//     interested party on the recipient side and the sender unset.
//
// Address comparison is case-insensitive. Ownership is only ever resolved
// by address matching, never guessed. Directory misses are not errors;
// any other directory error is returned as-is.
func resolveCounterparties(ctx context.Context, directory UserDirectory, network, submitterID, from, to string) (counterparties, error) {
	wallet, err := directory.WalletAddress(ctx, network, submitterID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return counterparties{toUserID: submitterID}, nil
		}

		return counterparties{}, err
	}

	switch {
	case strings.EqualFold(wallet, from):
		cp := counterparties{fromUserID: submitterID}

		recipientID, err := directory.UserIDByWallet(ctx, network, strings.ToLower(to))
		switch {
		case err == nil:
			cp.toUserID = recipientID
		case errors.Is(err, ErrUserNotFound):
			cp.toUserID = submitterID
		default:
			return counterparties{}, err
		}

		return cp, nil

	case strings.EqualFold(wallet, to):
		cp := counterparties{toUserID: submitterID}

		senderID, err := directory.UserIDByWallet(ctx, network, strings.ToLower(from))
		switch {
		case err == nil:
			cp.fromUserID = senderID
		case errors.Is(err, ErrUserNotFound):
			// sender stays unset
		default:
			return counterparties{}, err
		}

		return cp, nil

	default:
		return counterparties{toUserID: submitterID}, nil
	}
}
