package rabbit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/model"
)

const (
	EventOrderPlaced    = "order.placed"
	EventPaymentUpdated = "order.payment_updated"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher publica eventos de órdenes y pedidos de reconciliación.
type Publisher struct {
	mu     sync.Mutex
	ch     channel
	logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(ch channel, logger *slog.Logger) *Publisher {
	return &Publisher{
		ch:     ch,
		logger: logger.With("component", "publisher"),
		now:    time.Now,
	}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *model.Order) error {
	ev := dto.OrderPlacedEvent{
		EventID:       uuid.NewString(),
		Type:          EventOrderPlaced,
		OrderID:       o.ID.Hex(),
		UserID:        o.UserID.Hex(),
		TotalPrice:    o.TotalPrice,
		PaymentMethod: string(o.PaymentMethod),
		Items:         len(o.LineItems),
		OccurredAt:    p.now().UTC(),
	}
	return p.publish(ctx, ExchangeOrderPlaced, "", ev.EventID, ev.Type, ev)
}

func (p *Publisher) PublishPaymentUpdated(ctx context.Context, o *model.Order, t model.PaymentTransition) error {
	ev := dto.PaymentUpdatedEvent{
		EventID:               uuid.NewString(),
		Type:                  EventPaymentUpdated,
		OrderID:               o.ID.Hex(),
		UserID:                o.UserID.Hex(),
		MerchantTransactionID: o.MerchantTransactionID,
		GatewayTransactionID:  t.GatewayTransactionID,
		PaymentStatus:         string(t.PaymentStatus),
		Status:                string(t.Status),
		OccurredAt:            p.now().UTC(),
	}
	return p.publish(ctx, ExchangeOrderPayment, "", ev.EventID, ev.Type, ev)
}

// EnqueueReconcile deja un pedido de barrido en la cola (default exchange).
func (p *Publisher) EnqueueReconcile(ctx context.Context, req dto.ReconcileRequest) error {
	return p.publish(ctx, "", QueuePaymentReconcile, uuid.NewString(), "payment.reconcile", req)
}

func (p *Publisher) publish(ctx context.Context, exchange, key, id, typ string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    id,
		Type:         typ,
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		p.logger.Error("publish failed", "exchange", exchange, "type", typ, "error", err)
		return err
	}
	p.logger.Debug("event published", "exchange", exchange, "type", typ, "message_id", id)
	return nil
}
