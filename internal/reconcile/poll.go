package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/luminapay/txrecon/internal/pkg/logger"
)

// Human-readable reasons recorded in metadata when a record fails.
const (
	reasonNotFoundAfterRetries  = "transaction not found after maximum retries"
	reasonConfirmationExhausted = "confirmation threshold not reached after maximum retries"
	reasonChainReportedFailure  = "transaction failed on chain"
)

// pollPhase identifies which half of the lifecycle a poll chain is in.
type pollPhase int

const (
	// phaseDiscovery: the hash has never been seen in a chain query.
	phaseDiscovery pollPhase = iota

	// phaseConfirmation: the transaction is observed, awaiting confirmations.
	phaseConfirmation
)

// pollState is the explicit state threaded through a polling chain. Each
// poll receives it by value and derives the next state, so a single step is
// a pure function of (state, chain result) with no hidden counters.
type pollState struct {
	phase       pollPhase
	attempt     int           // polls already consumed in this phase
	maxAttempts int           // retry budget for this phase
	interval    time.Duration // fixed delay before each poll
}

// newDiscoveryState returns the initial state for discovery polling.
func newDiscoveryState(maxAttempts int, interval time.Duration) pollState {
	return pollState{phase: phaseDiscovery, maxAttempts: maxAttempts, interval: interval}
}

// newConfirmationState returns the initial state for confirmation polling.
func newConfirmationState(maxAttempts int, interval time.Duration) pollState {
	return pollState{phase: phaseConfirmation, maxAttempts: maxAttempts, interval: interval}
}

// next returns the state after consuming one poll attempt.
func (st pollState) next() pollState {
	st.attempt++
	return st
}

// exhausted reports whether the retry budget is spent.
func (st pollState) exhausted() bool {
	return st.attempt >= st.maxAttempts
}

// pollOutcome is the decision derived from one poll step.
type pollOutcome int

const (
	outcomeRetry     pollOutcome = iota // schedule another poll with the returned state
	outcomeObserved                     // discovery succeeded, hand off to confirmation polling
	outcomeCompleted                    // confirmation threshold met
	outcomeFailed                       // terminal failure, reason attached
)

// evalDiscoveryPoll is the pure step function for the discovery phase. Any
// reader error, including ErrTransactionNotFound, consumes one attempt;
// the distinction only matters for logging, not for the state machine.
func evalDiscoveryPoll(st pollState, readErr error) (pollState, pollOutcome, string) {
	if readErr != nil {
		nst := st.next()
		if nst.exhausted() {
			return nst, outcomeFailed, reasonNotFoundAfterRetries
		}

		return nst, outcomeRetry, ""
	}

	return st, outcomeObserved, ""
}

// evalConfirmationPoll is the pure step function for the confirmation
// phase. Chain-reported failure is terminal regardless of the remaining
// budget; reader errors and insufficient confirmations each consume one
// attempt.
func evalConfirmationPoll(st pollState, env TransactionEnvelope, readErr error, threshold int64) (pollState, pollOutcome, string) {
	if readErr != nil {
		nst := st.next()
		if nst.exhausted() {
			return nst, outcomeFailed, reasonConfirmationExhausted
		}

		return nst, outcomeRetry, ""
	}

	if env.Status == ChainStatusFailed {
		return st, outcomeFailed, reasonChainReportedFailure
	}

	if env.Confirmations >= threshold {
		return st, outcomeCompleted, ""
	}

	nst := st.next()
	if nst.exhausted() {
		return nst, outcomeFailed, reasonConfirmationExhausted
	}

	return nst, outcomeRetry, ""
}

// schedulePoll arranges the next poll of a record. The task closes over the
// record id and the poll state only; everything else is re-read from the
// store when the poll runs.
func (s *service) schedulePoll(ctx context.Context, recordID string, st pollState) {
	s.scheduler.Schedule(ctx, st.interval, func(ctx context.Context) {
		s.executePoll(ctx, recordID, st)
	})
}

// executePoll runs one step of a record's polling chain. Errors are never
// propagated to a caller (there is none); they are logged and folded into
// the retry budget, and the chain ends only in a terminal record state or
// silence when another actor got there first.
func (s *service) executePoll(ctx context.Context, recordID string, st pollState) {
	rec, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		logger.Error(ctx, "failed to load record for polling",
			"record.id", recordID,
			"poll.attempt", st.attempt,
			"error", err,
		)

		nst := st.next()
		if !nst.exhausted() {
			s.schedulePoll(ctx, recordID, nst)
		}
		return
	}

	// Terminal states stop polling unconditionally.
	if rec.Status.IsTerminal() {
		return
	}

	switch st.phase {
	case phaseDiscovery:
		s.pollDiscovery(ctx, rec, st)
	case phaseConfirmation:
		s.pollConfirmation(ctx, rec, st)
	}
}

// pollDiscovery re-queries the chain for a hash that has not been observed
// yet. On first success it resolves counterparties, rewrites the record in
// place, and hands the chain off to confirmation polling.
func (s *service) pollDiscovery(ctx context.Context, rec TransactionRecord, st pollState) {
	reader, ok := s.readers[rec.NetworkName]
	if !ok {
		// Readers are validated at intake; losing one mid-flight means a
		// misconfigured restart. Nothing sensible to do but fail the record.
		s.failRecord(ctx, rec, reasonNotFoundAfterRetries)
		return
	}

	env, readErr := reader.GetTransactionDetails(ctx, rec.TxHash)
	nst, outcome, reason := evalDiscoveryPoll(st, readErr)

	switch outcome {
	case outcomeRetry:
		if readErr != nil && !errors.Is(readErr, ErrTransactionNotFound) {
			logger.Warn(ctx, "chain query failed during discovery polling",
				"record.id", rec.ID,
				"tx.hash", rec.TxHash,
				"poll.attempt", nst.attempt,
				"error", readErr,
			)
		}

		s.schedulePoll(ctx, rec.ID, nst)

	case outcomeFailed:
		s.failRecord(ctx, rec, reason)

	case outcomeObserved:
		cp, err := resolveCounterparties(ctx, s.directory, rec.NetworkName, rec.SubmittedBy, env.From, effectiveRecipient(env))
		if err != nil {
			logger.Error(ctx, "counterparty resolution failed during discovery polling",
				"record.id", rec.ID,
				"tx.hash", rec.TxHash,
				"poll.attempt", st.attempt,
				"error", err,
			)

			nst := st.next()
			if nst.exhausted() {
				s.failRecord(ctx, rec, reasonNotFoundAfterRetries)
				return
			}

			s.schedulePoll(ctx, rec.ID, nst)
			return
		}

		applyEnvelope(&rec, env)
		rec.FromUserID = cp.fromUserID
		rec.ToUserID = cp.toUserID
		rec.IsPending = false

		if !s.updatePending(ctx, rec, st) {
			return
		}

		s.notifyTransition(ctx, rec)
		s.schedulePoll(ctx, rec.ID, newConfirmationState(s.confirmationMaxAttempts, s.pollInterval))
	}
}

// pollConfirmation re-queries an observed transaction until the
// confirmation threshold is met, the chain reports failure, or the budget
// runs out. Every successful query refreshes the on-chain snapshot and
// re-derives the ERC-20 fields.
func (s *service) pollConfirmation(ctx context.Context, rec TransactionRecord, st pollState) {
	reader, ok := s.readers[rec.NetworkName]
	if !ok {
		s.failRecord(ctx, rec, reasonConfirmationExhausted)
		return
	}

	env, readErr := reader.GetTransactionDetails(ctx, rec.TxHash)
	nst, outcome, reason := evalConfirmationPoll(st, env, readErr, s.confirmationThreshold)

	if readErr == nil {
		applyEnvelope(&rec, env)
	}

	switch outcome {
	case outcomeRetry:
		if readErr != nil {
			logger.Warn(ctx, "chain query failed during confirmation polling",
				"record.id", rec.ID,
				"tx.hash", rec.TxHash,
				"poll.attempt", nst.attempt,
				"error", readErr,
			)
		} else if !s.updatePending(ctx, rec, st) {
			return
		}

		s.schedulePoll(ctx, rec.ID, nst)

	case outcomeFailed:
		s.failRecord(ctx, rec, reason)

	case outcomeCompleted:
		rec.Status = StatusCompleted
		if !s.updatePending(ctx, rec, st) {
			return
		}

		logger.Info(ctx, "transaction completed",
			"record.id", rec.ID,
			"tx.hash", rec.TxHash,
			"tx.network", rec.NetworkName,
			"tx.confirmations", rec.Details.Confirmations,
		)
		s.notifyTransition(ctx, rec)
	}
}

// failRecord transitions a record to its terminal failed state, recording
// the reason in metadata. The original submitter already got a success
// response, so the failure is only surfaced to later status reads.
func (s *service) failRecord(ctx context.Context, rec TransactionRecord, reason string) {
	rec.Status = StatusFailed
	if rec.Metadata == nil {
		rec.Metadata = make(map[string]string, 1)
	}
	rec.Metadata[MetadataFailureReason] = reason
	rec.UpdatedAt = time.Now().UTC()

	if err := s.records.UpdatePendingRecord(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordTransitioned) {
			logger.Info(ctx, "record already transitioned, dropping failure",
				"record.id", rec.ID,
				"tx.hash", rec.TxHash,
			)
			return
		}

		logger.Error(ctx, "failed to persist record failure",
			"record.id", rec.ID,
			"tx.hash", rec.TxHash,
			"failure.reason", reason,
			"error", err,
		)
		return
	}

	logger.Warn(ctx, "transaction reconciliation failed",
		"record.id", rec.ID,
		"tx.hash", rec.TxHash,
		"tx.network", rec.NetworkName,
		"failure.reason", reason,
	)
	s.notifyTransition(ctx, rec)
}

// updatePending writes the record back while it is still pending. A failed
// compare-and-swap means another actor already transitioned the record; the
// poll chain stops silently rather than overwrite that decision.
func (s *service) updatePending(ctx context.Context, rec TransactionRecord, st pollState) bool {
	if err := s.records.UpdatePendingRecord(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordTransitioned) {
			logger.Info(ctx, "record transitioned by another actor, stopping poll chain",
				"record.id", rec.ID,
				"tx.hash", rec.TxHash,
			)
			return false
		}

		logger.Error(ctx, "failed to update record during polling",
			"record.id", rec.ID,
			"tx.hash", rec.TxHash,
			"poll.attempt", st.attempt,
			"error", err,
		)
		return false
	}

	return true
}

// notifyTransition informs the configured notifier of a state change.
// Notification failures are logged and otherwise ignored.
func (s *service) notifyTransition(ctx context.Context, rec TransactionRecord) {
	if err := s.notifier.NotifyTransition(ctx, rec); err != nil {
		logger.Error(ctx, "failed to notify record transition",
			"record.id", rec.ID,
			"tx.hash", rec.TxHash,
			"record.status", rec.Status,
			"error", err,
		)
	}
}
