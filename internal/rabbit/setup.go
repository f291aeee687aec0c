// setup.go
package rabbit

import (
	"context"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"

	"tasty-burger-backend/internal/config"
)

const (
	ExchangeOrderPlaced   = "order_placed"
	ExchangeOrderPayment  = "order_payment"
	QueuePaymentReconcile = "payment_reconcile"
)

// Declare crea los exchanges fanout y la cola de reconciliación. Es idempotente.
func Declare(ch *amqp091.Channel) error {
	for _, ex := range []string{ExchangeOrderPlaced, ExchangeOrderPayment} {
		if err := ch.ExchangeDeclare(ex, "fanout", true, false, false, false, nil); err != nil {
			return err
		}
	}
	_, err := ch.QueueDeclare(
		QueuePaymentReconcile,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// SetupConsumers se suscribe a payment_reconcile. Los mensajes se confirman
// a mano: un barrido que falla vuelve a la cola una sola vez.
func SetupConsumers(ctx context.Context, ch *amqp091.Channel, reconciler Reconciler, sweep config.SweepConfig, logger *slog.Logger) error {
	consumer := NewReconcileConsumer(reconciler, sweep, logger)

	// 1. Un mensaje a la vez: cada barrido pega contra el gateway
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	// 2. Consumir
	msgs, err := ch.Consume(
		QueuePaymentReconcile,
		"",
		false, // auto-ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for m := range msgs {
			if err := consumer.Handle(ctx, m.Body); err != nil {
				_ = m.Nack(false, !m.Redelivered)
				continue
			}
			_ = m.Ack(false)
		}
		logger.Info("reconcile consumer stopped")
	}()

	logger.Info("subscribed to queue", "queue", QueuePaymentReconcile)
	return nil
}
