package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvalDiscoveryPoll(t *testing.T) {
	base := newDiscoveryState(3, time.Second)

	t.Run("absent transaction consumes one attempt", func(t *testing.T) {
		nst, outcome, reason := evalDiscoveryPoll(base, ErrTransactionNotFound)

		assert.Equal(t, outcomeRetry, outcome)
		assert.Empty(t, reason)
		assert.Equal(t, 1, nst.attempt)
		assert.Equal(t, phaseDiscovery, nst.phase)
	})

	t.Run("transient reader error consumes one attempt like a miss", func(t *testing.T) {
		nst, outcome, _ := evalDiscoveryPoll(base, errors.New("rpc timeout"))

		assert.Equal(t, outcomeRetry, outcome)
		assert.Equal(t, 1, nst.attempt)
	})

	t.Run("last attempt exhausts the budget", func(t *testing.T) {
		st := base
		st.attempt = 2

		nst, outcome, reason := evalDiscoveryPoll(st, ErrTransactionNotFound)

		assert.Equal(t, outcomeFailed, outcome)
		assert.Equal(t, reasonNotFoundAfterRetries, reason)
		assert.True(t, nst.exhausted())
	})

	t.Run("observation does not consume an attempt", func(t *testing.T) {
		nst, outcome, _ := evalDiscoveryPoll(base, nil)

		assert.Equal(t, outcomeObserved, outcome)
		assert.Equal(t, base.attempt, nst.attempt)
	})
}

func TestEvalConfirmationPoll(t *testing.T) {
	const threshold = 2

	base := newConfirmationState(3, time.Second)

	t.Run("insufficient confirmations retries", func(t *testing.T) {
		env := TransactionEnvelope{Status: ChainStatusConfirmed, Confirmations: 1}

		nst, outcome, _ := evalConfirmationPoll(base, env, nil, threshold)

		assert.Equal(t, outcomeRetry, outcome)
		assert.Equal(t, 1, nst.attempt)
	})

	t.Run("threshold met completes without consuming the attempt", func(t *testing.T) {
		env := TransactionEnvelope{Status: ChainStatusConfirmed, Confirmations: 2}

		nst, outcome, _ := evalConfirmationPoll(base, env, nil, threshold)

		assert.Equal(t, outcomeCompleted, outcome)
		assert.Equal(t, base.attempt, nst.attempt)
	})

	t.Run("chain failure is terminal regardless of remaining budget", func(t *testing.T) {
		env := TransactionEnvelope{Status: ChainStatusFailed, Confirmations: 99}

		_, outcome, reason := evalConfirmationPoll(base, env, nil, threshold)

		assert.Equal(t, outcomeFailed, outcome)
		assert.Equal(t, reasonChainReportedFailure, reason)
	})

	t.Run("reader error consumes one attempt", func(t *testing.T) {
		nst, outcome, _ := evalConfirmationPoll(base, TransactionEnvelope{}, errors.New("rpc timeout"), threshold)

		assert.Equal(t, outcomeRetry, outcome)
		assert.Equal(t, 1, nst.attempt)
	})

	t.Run("budget exhaustion on a pending transaction fails the record", func(t *testing.T) {
		st := base
		st.attempt = 2
		env := TransactionEnvelope{Status: ChainStatusPending}

		_, outcome, reason := evalConfirmationPoll(st, env, nil, threshold)

		assert.Equal(t, outcomeFailed, outcome)
		assert.Equal(t, reasonConfirmationExhausted, reason)
	})
}

func TestPollState(t *testing.T) {
	st := newDiscoveryState(2, 5*time.Millisecond)
	assert.False(t, st.exhausted())

	st = st.next()
	assert.False(t, st.exhausted())

	st = st.next()
	assert.True(t, st.exhausted())
}
