// Package reconcile implements blockchain transaction reconciliation: a
// client submits a transaction hash, the engine locates it on chain
// (possibly before it is mined), classifies the counterparties against
// internal user identities, distinguishes native transfers from ERC-20
// token transfers, and converges a durable record through a
// pending → completed/failed lifecycle purely by polling.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/luminapay/txrecon/internal/networks"
	"github.com/luminapay/txrecon/internal/pkg/logger"
	"github.com/luminapay/txrecon/internal/pkg/scheduler"
	"github.com/luminapay/txrecon/internal/pkg/validator"

	"github.com/google/uuid"
)

const (
	defaultPollInterval            = 2 * time.Second
	defaultDiscoveryMaxAttempts    = 30
	defaultConfirmationMaxAttempts = 10
	defaultConfirmationThreshold   = 1
)

// ErrNoReaderForNetwork is returned when a network id resolves to a known
// network but no chain reader has been configured for it.
var ErrNoReaderForNetwork = errors.New("no chain reader configured for network")

// IntakeReceipt is the synchronous answer to a hash submission. The caller
// always receives it immediately; the final outcome of reconciliation is
// only visible through later status queries.
type IntakeReceipt struct {
	TransactionID  string // id of the record tracking this hash
	AlreadyTracked bool   // true when the hash was already submitted before
	Message        string // informational note about the intake outcome
}

// Service is the reconciliation engine's entry point, invoked by request
// handlers that own the actual HTTP (de)serialization.
type Service interface {
	// ProcessTransactionHash takes a transaction hash submitted by userID
	// for tracking on the given network and returns a receipt right away.
	//
	// The network id is validated before any chain query or record
	// creation. Re-submitting a known hash is idempotent and returns the
	// existing record's id. When the hash is not yet visible on chain, a
	// pending record is created and discovery polling continues in the
	// background; the caller is never blocked on chain discovery.
	ProcessTransactionHash(ctx context.Context, userID, txHash string, networkID int64, metadata map[string]string) (IntakeReceipt, error)

	// CheckTransactionStatus performs a one-shot read-through status query
	// against the chain. It never touches stored records.
	CheckTransactionStatus(ctx context.Context, txHash string, networkID int64) (StatusReport, error)

	// GetTransactionStatusWithRetry behaves like CheckTransactionStatus
	// but re-queries until the transaction is confirmed or failed, or the
	// attempt budget runs out, in which case the last pending report is
	// returned.
	GetTransactionStatusWithRetry(ctx context.Context, txHash string, networkID int64, maxAttempts uint) (StatusReport, error)

	// SupportedNetworks lists the canonical names of networks this engine
	// can observe, in stable order.
	SupportedNetworks() []string
}

// service is the concrete reconciliation engine.
type service struct {
	readers   map[string]ChainReader // chain readers keyed by canonical network name
	records   RecordStorage
	directory UserDirectory
	notifier  TransitionNotifier
	scheduler scheduler.Scheduler

	pollInterval            time.Duration
	discoveryMaxAttempts    int
	confirmationMaxAttempts int
	confirmationThreshold   int64
}

var _ Service = (*service)(nil)

// config holds the tunable parameters of the engine.
type config struct {
	pollInterval            time.Duration
	discoveryMaxAttempts    int
	confirmationMaxAttempts int
	confirmationThreshold   int64
	notifier                TransitionNotifier
}

// Option is a functional option for configuring the engine.
type Option func(*config)

// New creates a reconciliation engine over the given per-network chain
// readers, record storage, user directory, and task scheduler.
func New(readers map[string]ChainReader, records RecordStorage, directory UserDirectory, sched scheduler.Scheduler, opts ...Option) *service {
	cfg := config{
		pollInterval:            defaultPollInterval,
		discoveryMaxAttempts:    defaultDiscoveryMaxAttempts,
		confirmationMaxAttempts: defaultConfirmationMaxAttempts,
		confirmationThreshold:   defaultConfirmationThreshold,
		notifier:                nopTransitionNotifier{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		readers:                 readers,
		records:                 records,
		directory:               directory,
		notifier:                cfg.notifier,
		scheduler:               sched,
		pollInterval:            cfg.pollInterval,
		discoveryMaxAttempts:    cfg.discoveryMaxAttempts,
		confirmationMaxAttempts: cfg.confirmationMaxAttempts,
		confirmationThreshold:   cfg.confirmationThreshold,
	}
}

// WithPollInterval sets the fixed delay between polls. Default: 2 seconds.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithDiscoveryMaxAttempts bounds how many times an unseen hash is
// re-queried before the record fails. Default: 30.
func WithDiscoveryMaxAttempts(n int) Option {
	return func(c *config) {
		c.discoveryMaxAttempts = n
	}
}

// WithConfirmationMaxAttempts bounds how many times an observed transaction
// is re-queried for confirmations before the record fails. Default: 10.
func WithConfirmationMaxAttempts(n int) Option {
	return func(c *config) {
		c.confirmationMaxAttempts = n
	}
}

// WithConfirmationThreshold sets the minimum confirmation count required to
// complete a record. Single-confirmation finality is the default; networks
// with weaker finality assumptions should raise it.
func WithConfirmationThreshold(n int64) Option {
	return func(c *config) {
		c.confirmationThreshold = n
	}
}

// WithTransitionNotifier installs a notifier for record state transitions.
// The default drops them.
func WithTransitionNotifier(n TransitionNotifier) Option {
	return func(c *config) {
		c.notifier = n
	}
}

// intakeInput carries the validated fields of a hash submission.
type intakeInput struct {
	UserID string `validate:"required"`
	TxHash string `validate:"required,hexadecimal,startswith=0x"`
}

// readerForNetwork resolves the chain id against the network registry and
// returns the matching reader. This gate runs before any chain query or
// record creation on every entry point.
func (s *service) readerForNetwork(networkID int64) (string, ChainReader, error) {
	name, err := networks.Resolve(networkID)
	if err != nil {
		return "", nil, err
	}

	reader, ok := s.readers[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrNoReaderForNetwork, name)
	}

	return name, reader, nil
}

// ProcessTransactionHash implements the intake transition of the record
// state machine. See the Service interface for the contract.
func (s *service) ProcessTransactionHash(ctx context.Context, userID, txHash string, networkID int64, metadata map[string]string) (IntakeReceipt, error) {
	input := intakeInput{UserID: userID, TxHash: txHash}
	if err := validator.Validate(input); err != nil {
		return IntakeReceipt{}, err
	}

	networkName, reader, err := s.readerForNetwork(networkID)
	if err != nil {
		return IntakeReceipt{}, err
	}

	existing, err := s.records.FindRecordByHash(ctx, networkName, txHash)
	switch {
	case err == nil:
		return IntakeReceipt{
			TransactionID:  existing.ID,
			AlreadyTracked: true,
			Message:        "transaction already tracked",
		}, nil
	case !errors.Is(err, ErrRecordNotFound):
		return IntakeReceipt{}, err
	}

	now := time.Now().UTC()
	rec := TransactionRecord{
		ID:           uuid.Must(uuid.NewV7()).String(),
		TxHash:       txHash,
		NetworkID:    networkID,
		NetworkName:  networkName,
		Status:       StatusPending,
		SubmittedBy:  userID,
		TokenAddress: NativeTokenAddress,
		Amount:       "0",
		Metadata:     cloneMetadata(metadata),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Exactly one synchronous chain query happens on the request path.
	// Transient reader errors are treated like an absent transaction so
	// the caller still gets an immediate answer and discovery polling
	// picks the hash up.
	env, err := reader.GetTransactionDetails(ctx, txHash)
	if err != nil {
		if !errors.Is(err, ErrTransactionNotFound) {
			logger.Warn(ctx, "chain query failed during intake, deferring to discovery polling",
				"tx.hash", txHash,
				"tx.network", networkName,
				"error", err,
			)
		}

		rec.IsPending = true
		return s.createAndSchedule(ctx, rec, newDiscoveryState(s.discoveryMaxAttempts, s.pollInterval),
			"transaction submitted, status pending")
	}

	cp, err := resolveCounterparties(ctx, s.directory, networkName, userID, env.From, effectiveRecipient(env))
	if err != nil {
		return IntakeReceipt{}, err
	}

	applyEnvelope(&rec, env)
	rec.FromUserID = cp.fromUserID
	rec.ToUserID = cp.toUserID
	rec.IsPending = false

	return s.createAndSchedule(ctx, rec, newConfirmationState(s.confirmationMaxAttempts, s.pollInterval),
		"transaction observed on chain, awaiting confirmations")
}

// createAndSchedule persists a freshly built record and kicks off its
// polling chain. A duplicate-hash race with a concurrent intake resolves to
// the already stored record, keeping intake idempotent.
func (s *service) createAndSchedule(ctx context.Context, rec TransactionRecord, st pollState, message string) (IntakeReceipt, error) {
	if err := s.records.CreateRecord(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordExists) {
			existing, err := s.records.FindRecordByHash(ctx, rec.NetworkName, rec.TxHash)
			if err != nil {
				return IntakeReceipt{}, err
			}

			return IntakeReceipt{
				TransactionID:  existing.ID,
				AlreadyTracked: true,
				Message:        "transaction already tracked",
			}, nil
		}

		return IntakeReceipt{}, err
	}

	s.schedulePoll(ctx, rec.ID, st)

	return IntakeReceipt{
		TransactionID: rec.ID,
		Message:       message,
	}, nil
}

// SupportedNetworks implements the Service interface.
func (s *service) SupportedNetworks() []string {
	names := make([]string, 0, len(s.readers))
	for name := range s.readers {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// effectiveRecipient returns the address counterparty resolution should
// treat as the transfer's recipient.
func effectiveRecipient(env TransactionEnvelope) string {
	to, _, _ := env.EffectiveTransfer()
	return to
}

// applyEnvelope refreshes a record's transfer fields and on-chain snapshot
// from a freshly fetched envelope. ERC-20 fields are re-derived on every
// call, so a transaction may be re-classified when decoding improves.
func applyEnvelope(rec *TransactionRecord, env TransactionEnvelope) {
	to, amount, tokenAddress := env.EffectiveTransfer()

	rec.FromAddress = env.From
	rec.ToAddress = to
	rec.Amount = amount
	rec.TokenAddress = tokenAddress
	rec.Details = BlockchainDetails{
		Gas:             env.Gas,
		GasPrice:        env.GasPrice,
		Nonce:           env.Nonce,
		BlockNumber:     env.BlockNumber,
		Confirmations:   env.Confirmations,
		Timestamp:       env.Timestamp,
		IsERC20Transfer: env.IsERC20Transfer,
	}
	rec.UpdatedAt = time.Now().UTC()
}

// cloneMetadata copies caller-supplied metadata so later engine annotations
// never alias the caller's map.
func cloneMetadata(metadata map[string]string) map[string]string {
	cloned := make(map[string]string, len(metadata))
	for k, v := range metadata {
		cloned[k] = v
	}

	return cloned
}
