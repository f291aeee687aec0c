package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/service"
)

type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, req dto.ReconcileRequest) error
}

type PaymentController struct {
	Service  *service.PaymentService
	Enqueuer ReconcileEnqueuer
	Sweep    config.SweepConfig
}

// q puede ser nil: el barrido se corre en el request.
func NewPaymentController(s *service.PaymentService, q ReconcileEnqueuer, sweep config.SweepConfig) *PaymentController {
	return &PaymentController{Service: s, Enqueuer: q, Sweep: sweep}
}

// POST /phonepe/pay
func (ctl *PaymentController) Pay(c *gin.Context) {
	var req dto.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Order ID and amount are required")
		return
	}
	userID, _ := currentUser(c)

	res, err := ctl.Service.InitiatePayment(c.Request.Context(), userID, service.InitiatePaymentInput{
		OrderID: req.OrderID,
		Amount:  decimal.NewFromFloat(req.Amount),
		Mobile:  req.Mobile,
		Name:    req.Name,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"data":                  res.Data,
		"redirectUrl":           res.RedirectURL,
		"merchantTransactionId": res.MerchantTransactionID,
	})
}

// POST /phonepe/check-status (sólo lectura)
func (ctl *PaymentController) CheckStatus(c *gin.Context) {
	var req dto.CheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	res, err := ctl.Service.CheckStatus(c.Request.Context(), req.MerchantTransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res.Raw})
}

// POST /phonepe/callback: lo llama PhonePe, sin token.
// Huérfanos y códigos desconocidos igual reciben 200.
func (ctl *PaymentController) Callback(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Response == "" {
		fail(c, http.StatusBadRequest, "No response data received")
		return
	}

	res, err := ctl.Service.HandleCallback(c.Request.Context(), req.Response, c.GetHeader("X-VERIFY"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Callback processed successfully",
		"code":    res.Code,
	})
}

// GET /phonepe/order-status/:orderId
func (ctl *PaymentController) OrderStatus(c *gin.Context) {
	userID, isAdmin := currentUser(c)
	order, err := ctl.Service.OrderPaymentStatus(c.Request.Context(), userID, isAdmin, c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := dto.PaymentStatusResponse{
		PaymentStatus:         string(order.PaymentStatus),
		Status:                string(order.Status),
		PaymentMethod:         string(order.PaymentMethod),
		MerchantTransactionID: order.MerchantTransactionID,
	}
	// Con el pago completo se agregan los datos financieros
	if order.PaymentStatus == model.PaymentCompleted {
		out.ID = order.ID.Hex()
		out.TotalPrice = &order.TotalPrice
		out.IsPaid = &order.IsPaid
		out.PaidAt = order.PaidAt
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: out})
}

// POST /admin/payments/reconcile: encola un barrido; sin cola lo corre en línea.
func (ctl *PaymentController) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	if ctl.Enqueuer != nil {
		if err := ctl.Enqueuer.EnqueueReconcile(c.Request.Context(), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.Response{Success: true, Message: "Reconcile sweep enqueued"})
		return
	}

	olderThan := ctl.Sweep.OlderThan
	if req.OlderThanSeconds > 0 {
		olderThan = time.Duration(req.OlderThanSeconds) * time.Second
	}
	limit := ctl.Sweep.Limit
	if req.Limit > 0 {
		limit = req.Limit
	}
	report, err := ctl.Service.ReconcileStale(c.Request.Context(), olderThan, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: report})
}
