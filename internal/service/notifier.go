package queue_publisher

import (
	"context"
	"time"

	"github.com/iliyamo/booking-pipeline/internal/model"
	q "github.com/iliyamo/booking-pipeline/internal/queue"
)

// Notifier adapts the RabbitMQ publisher to the pipeline's change
// notifier contract. Publish is fire-and-forget: the publisher already
// logs failures and the orchestrator never inspects the result.
type Notifier struct{}

// NewNotifier returns a broker-backed change notifier.
func NewNotifier() *Notifier { return &Notifier{} }

// Publish sends one TransactionCreatedEvent for a stored transaction.
// Called only after storage and aggregation have succeeded.
func (n *Notifier) Publish(ctx context.Context, txn *model.Transaction) {
	ev := q.TransactionCreatedEvent{
		TransactionID: txn.ID,
		MessageID:     txn.MessageID,
		Location:      txn.Location,
		Unit:          txn.Unit,
		CheckoutTime:  txn.CheckoutTime,
		DurationLabel: txn.DurationLabel,
		PaymentMethod: txn.PaymentMethod,
		AgentName:     txn.AgentName,
		Amount:        txn.Amount,
		Commission:    txn.Commission,
		NetAmount:     txn.NetAmount,
		BookingDate:   txn.BookingDate,
		CreatedAt:     txn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if txn.SourceChannelID != nil {
		ev.SourceChannelID = *txn.SourceChannelID
	}
	_ = PublishTransactionCreated(ctx, ev)
}
