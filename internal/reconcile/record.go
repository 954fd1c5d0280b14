package reconcile

import (
	"context"
	"errors"
	"time"
)

// Status is the coarse externally visible state of a transaction record.
// Both the not-yet-observed and the awaiting-confirmations phases surface
// as StatusPending; the IsPending flag on the record tells them apart.
type Status string

const (
	// StatusPending covers every non-terminal state.
	StatusPending Status = "pending"

	// StatusCompleted means the confirmation threshold was met. Terminal.
	StatusCompleted Status = "completed"

	// StatusFailed means the chain reported a failure or a retry budget
	// was exhausted. Terminal.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
// Records in a terminal status are never polled again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MetadataFailureReason is the metadata key under which a human-readable
// reason is recorded when a record transitions to StatusFailed.
const MetadataFailureReason = "failureReason"

// BlockchainDetails is the on-chain snapshot carried by a record. It is
// refreshed on every successful poll.
type BlockchainDetails struct {
	Gas             uint64    // gas limit of the transaction
	GasPrice        string    // gas price in wei, decimal string
	Nonce           uint64    // sender account nonce
	BlockNumber     int64     // block the transaction was mined in (0 while unmined)
	Confirmations   int64     // confirmation count at the last poll
	Timestamp       time.Time // mined block timestamp (zero while unmined)
	IsERC20Transfer bool      // whether the transfer was decoded from ERC-20 call data
}

// TransactionRecord is the durable unit being reconciled. It is created on
// first submission of a hash, mutated in place by polls, and never deleted
// by this subsystem.
//
// For ERC-20 transfers, ToAddress, Amount, and TokenAddress always hold the
// decoded transfer fields, never the contract envelope's recipient or the
// (zero) native value.
type TransactionRecord struct {
	ID          string // opaque identifier assigned at creation, immutable
	TxHash      string // externally supplied transaction hash, unique per network
	NetworkID   int64  // numeric chain id, kept alongside the name for auditability
	NetworkName string // canonical network name resolved from NetworkID

	Status    Status // coarse lifecycle status
	IsPending bool   // true until the hash has been observed in a chain query

	SubmittedBy string // user that submitted the hash for tracking
	FromUserID  string // resolved sender identity (empty when unknown)
	ToUserID    string // resolved recipient identity (empty when unknown)

	FromAddress  string // effective sender address
	ToAddress    string // effective recipient address (decoded for ERC-20)
	Amount       string // effective amount, decimal string (decoded for ERC-20)
	TokenAddress string // NativeTokenAddress or the ERC-20 contract address

	Details  BlockchainDetails // on-chain snapshot from the last successful poll
	Metadata map[string]string // caller-supplied metadata plus engine annotations

	CreatedAt time.Time // when the record was created
	UpdatedAt time.Time // when the record was last written
}

var (
	// ErrRecordNotFound is returned when no record exists for the given
	// id or hash.
	ErrRecordNotFound = errors.New("transaction record not found")

	// ErrRecordExists is returned by CreateRecord when a record for the
	// same network and hash already exists. Intake treats this as the
	// idempotent re-submission case.
	ErrRecordExists = errors.New("transaction record already exists")

	// ErrRecordTransitioned is returned by UpdatePendingRecord when the
	// stored record is no longer pending. It means another actor already
	// moved the record to a terminal state and the poll chain must stop.
	ErrRecordTransitioned = errors.New("transaction record no longer pending")
)

// RecordStorage is the persistence contract for transaction records. The
// engine always reads and writes single records by id or hash and relies on
// the store for per-record atomicity; it never takes locks of its own.
type RecordStorage interface {
	// CreateRecord persists a new record. It must enforce hash uniqueness
	// per network and return ErrRecordExists on a duplicate.
	CreateRecord(ctx context.Context, rec TransactionRecord) error

	// GetRecord returns the record with the given id, or ErrRecordNotFound.
	GetRecord(ctx context.Context, id string) (TransactionRecord, error)

	// FindRecordByHash returns the record tracking the given hash on the
	// given network, or ErrRecordNotFound.
	FindRecordByHash(ctx context.Context, network, txHash string) (TransactionRecord, error)

	// UpdatePendingRecord overwrites the stored record, but only while its
	// stored status is still StatusPending. It returns
	// ErrRecordTransitioned when the record has already left the pending
	// state, and ErrRecordNotFound when it does not exist. The check and
	// the write must be atomic.
	UpdatePendingRecord(ctx context.Context, rec TransactionRecord) error
}

// TransitionNotifier is informed whenever a record changes state: first
// observation on chain, completion, or failure. Delivery semantics are the
// implementation's concern; the engine logs and continues when a
// notification fails.
type TransitionNotifier interface {
	NotifyTransition(ctx context.Context, rec TransactionRecord) error
}

// nopTransitionNotifier is the default notifier. It drops all transitions.
type nopTransitionNotifier struct{}

func (nopTransitionNotifier) NotifyTransition(_ context.Context, _ TransactionRecord) error {
	return nil
}
