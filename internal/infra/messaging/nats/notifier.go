// Package nats publishes transaction record transitions to NATS subjects so
// downstream systems (notification fan-out, analytics) can react without
// polling the record store.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/luminapay/txrecon/internal/reconcile"

	"github.com/nats-io/nats.go"
)

// subjectPrefix namespaces every subject this notifier publishes to.
// Transitions land on "txrecon.transactions.{status}".
const subjectPrefix = "txrecon.transactions"

// transitionEvent is the JSON payload published for each record transition.
type transitionEvent struct {
	TransactionID string            `json:"transactionId"`
	TxHash        string            `json:"txHash"`
	Network       string            `json:"network"`
	Status        string            `json:"status"`
	IsPending     bool              `json:"isPending"`
	FromUserID    string            `json:"fromUserId,omitempty"`
	ToUserID      string            `json:"toUserId,omitempty"`
	Amount        string            `json:"amount"`
	TokenAddress  string            `json:"tokenAddress"`
	Confirmations int64             `json:"confirmations"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// notifier implements reconcile.TransitionNotifier over a NATS connection.
type notifier struct {
	conn *nats.Conn
}

var _ reconcile.TransitionNotifier = (*notifier)(nil)

// NewNotifier connects to the NATS server at the given URL and returns a
// transition notifier publishing on it.
func NewNotifier(url string) (*notifier, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	return &notifier{
		conn: conn,
	}, nil
}

// Close drains and closes the underlying connection.
func (n *notifier) Close() {
	n.conn.Close()
}

// NotifyTransition implements the reconcile.TransitionNotifier interface.
func (n *notifier) NotifyTransition(_ context.Context, rec reconcile.TransactionRecord) error {
	event := transitionEvent{
		TransactionID: rec.ID,
		TxHash:        rec.TxHash,
		Network:       rec.NetworkName,
		Status:        string(rec.Status),
		IsPending:     rec.IsPending,
		FromUserID:    rec.FromUserID,
		ToUserID:      rec.ToUserID,
		Amount:        rec.Amount,
		TokenAddress:  rec.TokenAddress,
		Confirmations: rec.Details.Confirmations,
		Metadata:      rec.Metadata,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s.%s", subjectPrefix, rec.Status)
	return n.conn.Publish(subject, payload)
}
