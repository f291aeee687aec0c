package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/metrics"
)

var (
	ErrGatewayUnavailable = errors.New("gateway de pagos no disponible")
	ErrGatewayRejected    = errors.New("gateway de pagos rechazó la operación")
)

// GatewayError lleva el mensaje del proveedor para devolverlo al cliente.
type GatewayError struct {
	Kind       error
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *GatewayError) Unwrap() error { return e.Kind }

const (
	defaultPayerName  = "Food Order"
	defaultPayerPhone = "9999999999"
)

type PayRequest struct {
	OrderID               string
	MerchantTransactionID string
	MerchantUserID        string
	Amount                decimal.Decimal
	Phone                 string
	Name                  string
}

type PayResponse struct {
	MerchantTransactionID string          `json:"merchantTransactionId"`
	ExternalRef           string          `json:"externalRef"`
	RedirectURL           string          `json:"redirectUrl"`
	Data                  json.RawMessage `json:"data"`
}

type StatusResponse struct {
	Raw    json.RawMessage
	Result PaymentResult
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId,omitempty"`
	Name                  string            `json:"name"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type providerResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	InstrumentResponse    struct {
		RedirectInfo struct {
			URL string `json:"url"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

// Client habla con la API PG de PhonePe.
type Client struct {
	cfg         *config.PhonePeConfig
	frontendURL string
	backendURL  string
	signer      *Signer
	http        *http.Client
	logger      *slog.Logger
}

func NewClient(cfg *config.Config, signer *Signer, logger *slog.Logger) *Client {
	return &Client{
		cfg:         &cfg.PhonePe,
		frontendURL: cfg.FrontendURL,
		backendURL:  cfg.BackendURL,
		signer:      signer,
		http: &http.Client{
			Timeout: cfg.PhonePe.Timeout,
		},
		logger: logger.With("component", "phonepe"),
	}
}

// ToPaise convierte rupias a la unidad mínima, redondeando al entero más cercano.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Initiate crea un pago PAY_PAGE. La orden ya debe estar marcada como pending
// con MerchantTransactionID antes de llamar.
func (c *Client) Initiate(ctx context.Context, req PayRequest) (*PayResponse, error) {
	name := req.Name
	if name == "" {
		name = defaultPayerName
	}
	phone := req.Phone
	if phone == "" {
		phone = defaultPayerPhone
	}

	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Name:                  name,
		Amount:                ToPaise(req.Amount),
		RedirectURL:           fmt.Sprintf("%s/payment-status?orderId=%s", c.frontendURL, url.QueryEscape(req.OrderID)),
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.backendURL + "/phonepe/callback",
		MobileNumber:          phone,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+PayPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.signer.Sign(encoded, PayPath))

	c.logger.Debug("initiating payment",
		"order_id", req.OrderID,
		"merchant_transaction_id", req.MerchantTransactionID,
		"amount_paise", payload.Amount,
	)

	status, respBody, err := c.do(httpReq, "pay")
	if err != nil {
		return nil, err
	}

	var pr providerResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		metrics.GatewayRequests.WithLabelValues("pay", "invalid_response").Inc()
		return nil, &GatewayError{Kind: ErrGatewayUnavailable, StatusCode: status, Message: "invalid response from payment gateway"}
	}
	if !pr.Success {
		metrics.GatewayRequests.WithLabelValues("pay", "rejected").Inc()
		msg := pr.Message
		if msg == "" {
			msg = "Payment initiation failed"
		}
		c.logger.Warn("payment rejected by provider",
			"merchant_transaction_id", req.MerchantTransactionID,
			"code", pr.Code,
			"message", pr.Message,
		)
		return nil, &GatewayError{Kind: ErrGatewayRejected, StatusCode: status, Code: pr.Code, Message: msg}
	}
	metrics.GatewayRequests.WithLabelValues("pay", "ok").Inc()

	out := &PayResponse{
		MerchantTransactionID: req.MerchantTransactionID,
		ExternalRef:           req.MerchantTransactionID,
		Data:                  pr.Data,
	}
	var pd payData
	if len(pr.Data) > 0 && json.Unmarshal(pr.Data, &pd) == nil {
		if pd.MerchantTransactionID != "" {
			out.ExternalRef = pd.MerchantTransactionID
		}
		out.RedirectURL = pd.InstrumentResponse.RedirectInfo.URL
	}
	return out, nil
}

// CheckStatus consulta el estado de una transacción. No modifica ninguna orden.
func (c *Client) CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error) {
	path := fmt.Sprintf(statusPathFmt, c.cfg.MerchantID, merchantTransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.signer.Sign("", path))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	_, respBody, err := c.do(httpReq, "status")
	if err != nil {
		return nil, err
	}
	if !json.Valid(respBody) {
		metrics.GatewayRequests.WithLabelValues("status", "invalid_response").Inc()
		return nil, &GatewayError{Kind: ErrGatewayUnavailable, Message: "invalid response from payment gateway"}
	}
	metrics.GatewayRequests.WithLabelValues("status", "ok").Inc()

	out := &StatusResponse{Raw: respBody}
	if res, err := ParseResult(respBody); err == nil {
		out.Result = res
	} else {
		out.Result = PaymentResult{MerchantTransactionID: merchantTransactionID}
	}
	return out, nil
}

// mensaje fijo para fallas de red: el error crudo sólo va al log
const msgGatewayUnavailable = "payment gateway unavailable"

// do ejecuta la request y devuelve el body de respuestas 2xx. Cualquier otra
// cosa (red, timeout, no-2xx) es ErrGatewayUnavailable; en no-2xx se conserva
// el mensaje del proveedor.
func (c *Client) do(req *http.Request, op string) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(op, "network_error").Inc()
		c.logger.Error("gateway request failed", "operation", op, "error", err)
		return 0, nil, &GatewayError{Kind: ErrGatewayUnavailable, Message: msgGatewayUnavailable}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(op, "network_error").Inc()
		c.logger.Error("gateway response read failed", "operation", op, "error", err)
		return resp.StatusCode, nil, &GatewayError{Kind: ErrGatewayUnavailable, StatusCode: resp.StatusCode, Message: msgGatewayUnavailable}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayRequests.WithLabelValues(op, "http_error").Inc()
		ge := &GatewayError{
			Kind:       ErrGatewayUnavailable,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("payment gateway returned status %d", resp.StatusCode),
		}
		var pr providerResponse
		if json.Unmarshal(body, &pr) == nil && pr.Message != "" {
			ge.Code = pr.Code
			ge.Message = pr.Message
		}
		c.logger.Error("gateway returned error",
			"operation", op,
			"status_code", resp.StatusCode,
			"code", ge.Code,
			"message", ge.Message,
		)
		return resp.StatusCode, nil, ge
	}
	return resp.StatusCode, body, nil
}
