package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/rabbit"
	"tasty-burger-backend/internal/repository"
	"tasty-burger-backend/internal/service"
)

func reconcileCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Consulta al gateway las órdenes en pending y aplica el estado terminal",
		Long: `Busca órdenes pagadas por gateway que siguen en pending hace más de
--older-than, consulta su estado en PhonePe y aplica la transición.

Examples:
  deliveryctl reconcile
  deliveryctl reconcile --older-than 30m --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if !cmd.Flags().Changed("older-than") {
				olderThan = cfg.Sweep.OlderThan
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Sweep.Limit
			}

			logger := newLogger()
			ctx := cmd.Context()
			return withDB(ctx, cfg, func(db *mongo.Database) error {
				signer := phonepe.NewSigner(&cfg.PhonePe)
				payments := service.NewPaymentService(
					repository.NewMongoOrderRepository(db),
					phonepe.NewClient(cfg, signer, logger),
					nil, service.NewTxnIDGenerator(), signer, false, logger,
				)

				report, err := payments.ReconcileStale(ctx, olderThan, limit)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 15*time.Minute, "antigüedad mínima de la orden en pending")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "máximo de órdenes a revisar")

	return cmd
}

func enqueueReconcileCmd() *cobra.Command {
	var req dto.ReconcileRequest

	cmd := &cobra.Command{
		Use:   "enqueue-reconcile",
		Short: "Publica un pedido de barrido en la cola payment_reconcile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			conn, err := amqp091.Dial(cfg.RabbitURL)
			if err != nil {
				return fmt.Errorf("rabbitmq dial: %w", err)
			}
			defer conn.Close()

			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("rabbitmq channel: %w", err)
			}
			defer ch.Close()

			if err := rabbit.Declare(ch); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := rabbit.NewPublisher(ch, newLogger()).EnqueueReconcile(ctx, req); err != nil {
				return err
			}
			fmt.Println("reconcile request enqueued")
			return nil
		},
	}

	cmd.Flags().IntVar(&req.OlderThanSeconds, "older-than-seconds", 0, "antigüedad mínima (0 = la del worker)")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "máximo de órdenes (0 = el del worker)")

	return cmd
}
