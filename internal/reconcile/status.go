package reconcile

import (
	"context"
	"errors"

	"github.com/luminapay/txrecon/internal/pkg/resilience/retry"
	"github.com/luminapay/txrecon/internal/pkg/validator"
)

// StatusReport is the answer to a direct, non-persisting status query.
type StatusReport struct {
	IsConfirmed   bool   // whether the confirmation threshold is met
	Status        Status // mapped coarse status
	Confirmations int64  // confirmation count at query time
	BlockNumber   int64  // block the transaction was mined in (0 while unmined)
}

// errStatusStillPending drives the retry loop in
// GetTransactionStatusWithRetry; it never escapes to callers.
var errStatusStillPending = errors.New("transaction status still pending")

// mapChainStatus reduces a chain-reported status to the engine's coarse
// three-way status. The mapping is total: anything that is not explicitly
// confirmed or failed, including values this engine has never heard of,
// maps to pending. Finer chain-specific states live only in the record's
// blockchain details, never in the primary status.
func mapChainStatus(cs ChainStatus) Status {
	switch cs {
	case ChainStatusConfirmed:
		return StatusCompleted
	case ChainStatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

// statusQueryInput carries the validated fields of a status query.
type statusQueryInput struct {
	TxHash string `validate:"required,hexadecimal,startswith=0x"`
}

// CheckTransactionStatus implements the Service interface. It is a pure
// read-through to the chain reader: stored records are never consulted and
// never mutated. An absent transaction is reported as pending, not as an
// error.
func (s *service) CheckTransactionStatus(ctx context.Context, txHash string, networkID int64) (StatusReport, error) {
	if err := validator.Validate(statusQueryInput{TxHash: txHash}); err != nil {
		return StatusReport{}, err
	}

	_, reader, err := s.readerForNetwork(networkID)
	if err != nil {
		return StatusReport{}, err
	}

	env, err := reader.GetTransactionDetails(ctx, txHash)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return StatusReport{Status: StatusPending}, nil
		}

		return StatusReport{}, err
	}

	return StatusReport{
		IsConfirmed:   env.Status == ChainStatusConfirmed && env.Confirmations >= s.confirmationThreshold,
		Status:        mapChainStatus(env.Status),
		Confirmations: env.Confirmations,
		BlockNumber:   env.BlockNumber,
	}, nil
}

// GetTransactionStatusWithRetry implements the Service interface. It polls
// CheckTransactionStatus up to maxAttempts times with the engine's poll
// interval between attempts. Exhausting the budget on a still-pending
// transaction is not an error; the last pending report is returned.
func (s *service) GetTransactionStatusWithRetry(ctx context.Context, txHash string, networkID int64, maxAttempts uint) (StatusReport, error) {
	if err := validator.Validate(statusQueryInput{TxHash: txHash}); err != nil {
		return StatusReport{}, err
	}

	if _, _, err := s.readerForNetwork(networkID); err != nil {
		return StatusReport{}, err
	}

	var report StatusReport

	r := retry.New(
		retry.WithAttempts(maxAttempts),
		retry.WithDelay(s.pollInterval),
		retry.WithMaxDelay(s.pollInterval),
	)

	err := r.Execute(ctx, func() error {
		rep, err := s.CheckTransactionStatus(ctx, txHash, networkID)
		if err != nil {
			return err
		}

		report = rep
		if rep.Status == StatusPending {
			return errStatusStillPending
		}

		return nil
	})
	if err != nil && !errors.Is(err, errStatusStillPending) {
		return StatusReport{}, err
	}

	return report, nil
}
