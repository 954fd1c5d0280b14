package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/redis/go-redis/v9"
)

// recordKeyPrefix is the namespace for all transaction record keys.
const recordKeyPrefix = "reconcile"

// casAttempts bounds how often a conditional update is replayed when the
// watched key changes underneath the transaction.
const casAttempts = 3

// recordKey returns the key storing the record document for the given id.
//
// Format: "reconcile:record:{id}"
func recordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", recordKeyPrefix, id)
}

// recordHashIndexKey returns the key mapping a network-scoped transaction
// hash to its record id. Hashes are lowercased so the index is
// case-insensitive.
//
// Format: "reconcile:hash:{network}:{txhash}"
func recordHashIndexKey(network, txHash string) string {
	return fmt.Sprintf("%s:hash:%s:%s", recordKeyPrefix, network, strings.ToLower(txHash))
}

// transactionRecordDocument is the JSON shape of a persisted record.
// Keeping it separate from the domain struct pins the storage format
// independently of domain refactors.
type transactionRecordDocument struct {
	ID          string `json:"id"`
	TxHash      string `json:"txHash"`
	NetworkID   int64  `json:"networkId"`
	NetworkName string `json:"networkName"`

	Status    string `json:"status"`
	IsPending bool   `json:"isPending"`

	SubmittedBy string `json:"submittedBy"`
	FromUserID  string `json:"fromUserId,omitempty"`
	ToUserID    string `json:"toUserId,omitempty"`

	FromAddress  string `json:"fromAddress,omitempty"`
	ToAddress    string `json:"toAddress,omitempty"`
	Amount       string `json:"amount"`
	TokenAddress string `json:"tokenAddress"`

	Details  blockchainDetailsDocument `json:"blockchainDetails"`
	Metadata map[string]string         `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type blockchainDetailsDocument struct {
	Gas             uint64    `json:"gas"`
	GasPrice        string    `json:"gasPrice"`
	Nonce           uint64    `json:"nonce"`
	BlockNumber     int64     `json:"blockNumber"`
	Confirmations   int64     `json:"confirmations"`
	Timestamp       time.Time `json:"timestamp"`
	IsERC20Transfer bool      `json:"isERC20Transfer"`
}

// toRecordDocument converts a domain record into its storage shape.
func toRecordDocument(rec reconcile.TransactionRecord) transactionRecordDocument {
	return transactionRecordDocument{
		ID:          rec.ID,
		TxHash:      rec.TxHash,
		NetworkID:   rec.NetworkID,
		NetworkName: rec.NetworkName,
		Status:      string(rec.Status),
		IsPending:   rec.IsPending,
		SubmittedBy: rec.SubmittedBy,
		FromUserID:  rec.FromUserID,
		ToUserID:    rec.ToUserID,
		FromAddress: rec.FromAddress,
		ToAddress:   rec.ToAddress,
		Amount:      rec.Amount,
		TokenAddress: rec.TokenAddress,
		Details: blockchainDetailsDocument{
			Gas:             rec.Details.Gas,
			GasPrice:        rec.Details.GasPrice,
			Nonce:           rec.Details.Nonce,
			BlockNumber:     rec.Details.BlockNumber,
			Confirmations:   rec.Details.Confirmations,
			Timestamp:       rec.Details.Timestamp,
			IsERC20Transfer: rec.Details.IsERC20Transfer,
		},
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// toDomainRecord converts a storage document back into the domain shape.
func (d transactionRecordDocument) toDomainRecord() reconcile.TransactionRecord {
	return reconcile.TransactionRecord{
		ID:          d.ID,
		TxHash:      d.TxHash,
		NetworkID:   d.NetworkID,
		NetworkName: d.NetworkName,
		Status:      reconcile.Status(d.Status),
		IsPending:   d.IsPending,
		SubmittedBy: d.SubmittedBy,
		FromUserID:  d.FromUserID,
		ToUserID:    d.ToUserID,
		FromAddress: d.FromAddress,
		ToAddress:   d.ToAddress,
		Amount:      d.Amount,
		TokenAddress: d.TokenAddress,
		Details: reconcile.BlockchainDetails{
			Gas:             d.Details.Gas,
			GasPrice:        d.Details.GasPrice,
			Nonce:           d.Details.Nonce,
			BlockNumber:     d.Details.BlockNumber,
			Confirmations:   d.Details.Confirmations,
			Timestamp:       d.Details.Timestamp,
			IsERC20Transfer: d.Details.IsERC20Transfer,
		},
		Metadata:  d.Metadata,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// CreateRecord implements the reconcile.RecordStorage interface.
//
// Hash uniqueness is enforced through a SETNX on the hash index key: the
// first writer owns the hash, every later attempt gets
// reconcile.ErrRecordExists. The record document itself is written after
// the index claim succeeds.
func (c *client) CreateRecord(ctx context.Context, rec reconcile.TransactionRecord) error {
	ok, err := c.conn.SetNX(ctx, recordHashIndexKey(rec.NetworkName, rec.TxHash), rec.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return reconcile.ErrRecordExists
	}

	payload, err := json.Marshal(toRecordDocument(rec))
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, recordKey(rec.ID), payload, 0).Err()
}

// getRecordByKey loads and decodes a record document.
func (c *client) getRecordByKey(ctx context.Context, key string) (reconcile.TransactionRecord, error) {
	payload, err := c.conn.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = reconcile.ErrRecordNotFound
		}

		return reconcile.TransactionRecord{}, err
	}

	var doc transactionRecordDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return reconcile.TransactionRecord{}, err
	}

	return doc.toDomainRecord(), nil
}

// GetRecord implements the reconcile.RecordStorage interface.
func (c *client) GetRecord(ctx context.Context, id string) (reconcile.TransactionRecord, error) {
	return c.getRecordByKey(ctx, recordKey(id))
}

// FindRecordByHash implements the reconcile.RecordStorage interface.
func (c *client) FindRecordByHash(ctx context.Context, network, txHash string) (reconcile.TransactionRecord, error) {
	id, err := c.conn.Get(ctx, recordHashIndexKey(network, txHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = reconcile.ErrRecordNotFound
		}

		return reconcile.TransactionRecord{}, err
	}

	return c.GetRecord(ctx, id)
}

// UpdatePendingRecord implements the reconcile.RecordStorage interface.
//
// The status check and the write run inside a WATCH transaction so that the
// update only lands while the stored record is still pending. When another
// actor has already transitioned the record, reconcile.ErrRecordTransitioned
// is returned. A transaction aborted by a plain concurrent write (stored
// record still pending) is replayed a bounded number of times.
func (c *client) UpdatePendingRecord(ctx context.Context, rec reconcile.TransactionRecord) error {
	key := recordKey(rec.ID)

	payload, err := json.Marshal(toRecordDocument(rec))
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return reconcile.ErrRecordNotFound
			}

			return err
		}

		var stored transactionRecordDocument
		if err := json.Unmarshal(raw, &stored); err != nil {
			return err
		}

		if reconcile.Status(stored.Status).IsTerminal() {
			return reconcile.ErrRecordTransitioned
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for range casAttempts {
		err := c.conn.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return redis.TxFailedErr
}

// Compile-time assertion that *client satisfies the RecordStorage interface.
var _ reconcile.RecordStorage = (*client)(nil)
