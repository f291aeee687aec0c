package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/metrics"
	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/repository"
)

// Resultado de procesar un callback o una consulta de status.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeFailed          Outcome = "failed"
	OutcomeAlreadyTerminal Outcome = "already_terminal"
	OutcomeOrphan          Outcome = "orphan"
	OutcomeUnrecognized    Outcome = "unrecognized"
	OutcomeError           Outcome = "error"
)

// cuántas veces se reintenta si el merchantTransactionId generado ya existe
const maxStampAttempts = 3

type CallbackVerifier interface {
	Verify(payload, apiPath, token string) bool
}

type InitiatePaymentInput struct {
	OrderID string
	Amount  decimal.Decimal
	Mobile  string
	Name    string
}

type PaymentInitiation struct {
	MerchantTransactionID string
	RedirectURL           string
	Data                  json.RawMessage
}

type CallbackResult struct {
	Outcome               Outcome
	Code                  string
	MerchantTransactionID string
}

type ReconcileReport struct {
	Checked int             `json:"checked"`
	Results map[Outcome]int `json:"results"`
}

type PaymentService struct {
	orders         OrderRepository
	gateway        PaymentGateway
	events         EventPublisher
	txnIDs         *TxnIDGenerator
	verifier       CallbackVerifier
	verifyCallback bool
	logger         *slog.Logger
	now            func() time.Time
}

// NewPaymentService: verifier puede ser nil si no se verifica la firma del callback.
func NewPaymentService(orders OrderRepository, gateway PaymentGateway, events EventPublisher, txnIDs *TxnIDGenerator, verifier CallbackVerifier, verifyCallback bool, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orders:         orders,
		gateway:        gateway,
		events:         events,
		txnIDs:         txnIDs,
		verifier:       verifier,
		verifyCallback: verifyCallback && verifier != nil,
		logger:         logger.With("component", "payments"),
		now:            time.Now,
	}
}

// InitiatePayment estampa un nuevo merchantTransactionId en la orden (pending)
// y recién después llama al gateway. Si el gateway falla, la orden queda
// pending con ese id y la levanta el barrido de reconciliación.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID primitive.ObjectID, in InitiatePaymentInput) (*PaymentInitiation, error) {
	orderID, err := parseID(in.OrderID, "orderId")
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, validationf("amount debe ser mayor a cero")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.PaymentStatus.Terminal() {
		return nil, ErrPaymentFinalized
	}
	total := decimal.NewFromFloat(order.TotalPrice).Round(2)
	if !in.Amount.Round(2).Equal(total) {
		return nil, validationf("amount %s no coincide con el total de la orden %s", in.Amount.StringFixed(2), total.StringFixed(2))
	}

	var merchantTxnID string
	for attempt := 1; ; attempt++ {
		merchantTxnID = s.txnIDs.Next()
		err = s.orders.StampPaymentAttempt(ctx, orderID, merchantTxnID)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < maxStampAttempts {
			s.logger.Warn("merchant transaction id collision, retrying", "merchant_transaction_id", merchantTxnID)
			continue
		}
		if errors.Is(err, ErrConflict) {
			return nil, ErrPaymentFinalized
		}
		return nil, err
	}

	s.logger.Info("payment attempt stamped",
		"order_id", order.ID.Hex(),
		"merchant_transaction_id", merchantTxnID,
	)

	resp, err := s.gateway.Initiate(ctx, phonepe.PayRequest{
		OrderID:               order.ID.Hex(),
		MerchantTransactionID: merchantTxnID,
		MerchantUserID:        userID.Hex(),
		Amount:                in.Amount,
		Phone:                 in.Mobile,
		Name:                  in.Name,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentInitiation{
		MerchantTransactionID: merchantTxnID,
		RedirectURL:           resp.RedirectURL,
		Data:                  resp.Data,
	}, nil
}

// HandleCallback procesa la notificación asíncrona del gateway.
// Sólo devuelve error si el payload no se puede leer o la firma no valida;
// huérfanos y códigos desconocidos se reconocen sin escribir nada.
func (s *PaymentService) HandleCallback(ctx context.Context, encoded, signature string) (*CallbackResult, error) {
	if s.verifyCallback && !s.verifier.Verify(encoded, "", signature) {
		metrics.PaymentCallbacks.WithLabelValues("bad_signature").Inc()
		s.logger.Warn("callback signature mismatch")
		return nil, ErrInvalidSignature
	}

	result, err := phonepe.DecodeCallback(encoded)
	if err != nil {
		metrics.PaymentCallbacks.WithLabelValues("unparseable").Inc()
		s.logger.Warn("unparseable payment callback", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCallbackUnparseable, err)
	}

	outcome, err := s.apply(ctx, result, "callback")
	if err != nil {
		metrics.PaymentCallbacks.WithLabelValues(string(OutcomeError)).Inc()
		return nil, err
	}
	metrics.PaymentCallbacks.WithLabelValues(string(outcome)).Inc()

	return &CallbackResult{
		Outcome:               outcome,
		Code:                  result.StatusCode(),
		MerchantTransactionID: result.MerchantTransactionID,
	}, nil
}

// CheckStatus consulta al proveedor. No modifica la orden.
func (s *PaymentService) CheckStatus(ctx context.Context, merchantTxnID string) (*phonepe.StatusResponse, error) {
	if merchantTxnID == "" {
		return nil, validationf("merchantTransactionId es obligatorio")
	}
	return s.gateway.CheckStatus(ctx, merchantTxnID)
}

// OrderPaymentStatus devuelve la orden para el endpoint de estado de pago.
func (s *PaymentService) OrderPaymentStatus(ctx context.Context, userID primitive.ObjectID, isAdmin bool, rawOrderID string) (*model.Order, error) {
	orderID, err := parseID(rawOrderID, "orderId")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ReconcileStale revisa las órdenes por gateway que siguen pending hace más de
// olderThan y les aplica el estado que informe el proveedor.
func (s *PaymentService) ReconcileStale(ctx context.Context, olderThan time.Duration, limit int) (*ReconcileReport, error) {
	cutoff := s.now().Add(-olderThan)
	stale, err := s.orders.FindStalePending(ctx, cutoff, int64(limit))
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Results: map[Outcome]int{}}
	for _, o := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		outcome := s.reconcileOne(ctx, o)
		report.Results[outcome]++
		metrics.PaymentReconciled.WithLabelValues(string(outcome)).Inc()
	}

	s.logger.Info("reconcile sweep finished",
		"checked", report.Checked,
		"completed", report.Results[OutcomeCompleted],
		"failed", report.Results[OutcomeFailed],
		"errors", report.Results[OutcomeError],
	)
	return report, nil
}

func (s *PaymentService) reconcileOne(ctx context.Context, o *model.Order) Outcome {
	status, err := s.gateway.CheckStatus(ctx, o.MerchantTransactionID)
	if err != nil {
		s.logger.Warn("status check failed during reconcile",
			"merchant_transaction_id", o.MerchantTransactionID,
			"error", err,
		)
		return OutcomeError
	}

	result := status.Result
	if result.MerchantTransactionID == "" {
		result.MerchantTransactionID = o.MerchantTransactionID
	}
	outcome, err := s.apply(ctx, result, "reconcile")
	if err != nil {
		return OutcomeError
	}
	return outcome
}

// apply lleva una orden pending a su estado terminal. La transición es un
// compare-and-set sobre paymentStatus=pending: la primera gana.
func (s *PaymentService) apply(ctx context.Context, result phonepe.PaymentResult, source string) (Outcome, error) {
	log := s.logger.With(
		"source", source,
		"merchant_transaction_id", result.MerchantTransactionID,
		"code", result.StatusCode(),
	)

	order, err := s.orders.FindByMerchantTxnID(ctx, result.MerchantTransactionID)
	if errors.Is(err, ErrNotFound) {
		log.Warn("payment result for unknown transaction")
		return OutcomeOrphan, nil
	}
	if err != nil {
		log.Error("order lookup failed", "error", err)
		return OutcomeError, err
	}

	var (
		t       model.PaymentTransition
		outcome Outcome
	)
	switch result.Kind() {
	case phonepe.ResultSuccess:
		t = model.SuccessTransition(result.TransactionID, s.now().UTC())
		outcome = OutcomeCompleted
	case phonepe.ResultFailure:
		t = model.FailureTransition()
		outcome = OutcomeFailed
	default:
		log.Info("unrecognized payment code, leaving order untouched", "order_id", order.ID.Hex())
		return OutcomeUnrecognized, nil
	}

	applied, err := s.orders.ApplyPaymentTransition(ctx, result.MerchantTransactionID, t)
	if err != nil {
		log.Error("payment transition failed", "order_id", order.ID.Hex(), "error", err)
		return OutcomeError, err
	}
	if !applied {
		log.Info("payment already terminal, ignoring", "order_id", order.ID.Hex())
		return OutcomeAlreadyTerminal, nil
	}

	log.Info("payment transition applied",
		"order_id", order.ID.Hex(),
		"payment_status", t.PaymentStatus,
		"status", t.Status,
	)

	order.PaymentStatus = t.PaymentStatus
	order.Status = t.Status
	if t.PaymentStatus == model.PaymentCompleted {
		order.IsPaid = true
		order.GatewayTransactionID = t.GatewayTransactionID
		order.PaidAt = t.PaidAt
	}
	if s.events != nil {
		if err := s.events.PublishPaymentUpdated(ctx, order, t); err != nil {
			log.Warn("publish payment event failed", "error", err)
		}
	}
	return outcome, nil
}
