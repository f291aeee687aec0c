package rabbit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/service"
)

type Reconciler interface {
	ReconcileStale(ctx context.Context, olderThan time.Duration, limit int) (*service.ReconcileReport, error)
}

type ReconcileConsumer struct {
	reconciler Reconciler
	defaults   config.SweepConfig
	logger     *slog.Logger
}

func NewReconcileConsumer(r Reconciler, defaults config.SweepConfig, logger *slog.Logger) *ReconcileConsumer {
	return &ReconcileConsumer{
		reconciler: r,
		defaults:   defaults,
		logger:     logger.With("component", "reconcile-consumer"),
	}
}

// Handle corre un barrido. Un body vacío o campos en cero usan la configuración.
// Los mensajes ilegibles se descartan (no vuelven a la cola).
func (c *ReconcileConsumer) Handle(ctx context.Context, body []byte) error {
	var req dto.ReconcileRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			c.logger.Warn("discarding malformed reconcile request", "error", err)
			return nil
		}
	}

	olderThan := c.defaults.OlderThan
	if req.OlderThanSeconds > 0 {
		olderThan = time.Duration(req.OlderThanSeconds) * time.Second
	}
	limit := c.defaults.Limit
	if req.Limit > 0 {
		limit = req.Limit
	}

	report, err := c.reconciler.ReconcileStale(ctx, olderThan, limit)
	if err != nil {
		c.logger.Error("reconcile sweep failed", "error", err)
		return err
	}
	c.logger.Info("reconcile request processed", "checked", report.Checked, "older_than", olderThan.String())
	return nil
}
