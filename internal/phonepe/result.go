package phonepe

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrMalformedPayload = errors.New("payload de phonepe inválido")

type ResultKind int

const (
	ResultUnknown ResultKind = iota
	ResultSuccess
	ResultFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	default:
		return "unknown"
	}
}

var failureCodes = map[string]bool{
	"PAYMENT_ERROR":    true,
	"PAYMENT_DECLINED": true,
	"TIMED_OUT":        true,
}

// PaymentResult es la forma normalizada de un callback o de una respuesta de status.
type PaymentResult struct {
	Success               bool   `json:"success"`
	Code                  string `json:"code"`
	Message               string `json:"message,omitempty"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId,omitempty"`
	State                 string `json:"state,omitempty"`
	Amount                int64  `json:"amount,omitempty"`
}

func (r PaymentResult) Kind() ResultKind {
	switch {
	case r.Code == "PAYMENT_SUCCESS" || r.State == "COMPLETED":
		return ResultSuccess
	case failureCodes[r.Code] || r.State == "FAILED":
		return ResultFailure
	default:
		return ResultUnknown
	}
}

// StatusCode devuelve el código a reportar (code o, si falta, state).
func (r PaymentResult) StatusCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.State
}

type resultFields struct {
	MerchantTransactionID string  `json:"merchantTransactionId"`
	TransactionID         string  `json:"transactionId"`
	Amount                float64 `json:"amount"`
	State                 string  `json:"state"`
	Code                  string  `json:"code"`
}

type envelope struct {
	Success bool          `json:"success"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    *resultFields `json:"data"`
	resultFields
}

// ParseResult acepta los campos en el nivel superior o dentro de "data";
// los de "data" tienen prioridad.
func ParseResult(raw []byte) (PaymentResult, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PaymentResult{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	f := env.resultFields
	f.Code = env.Code
	if d := env.Data; d != nil {
		f.MerchantTransactionID = firstNonEmpty(d.MerchantTransactionID, f.MerchantTransactionID)
		f.TransactionID = firstNonEmpty(d.TransactionID, f.TransactionID)
		f.State = firstNonEmpty(d.State, f.State)
		f.Code = firstNonEmpty(d.Code, f.Code)
		if d.Amount != 0 {
			f.Amount = d.Amount
		}
	}

	res := PaymentResult{
		Success:               env.Success,
		Code:                  strings.TrimSpace(f.Code),
		Message:               env.Message,
		MerchantTransactionID: strings.TrimSpace(f.MerchantTransactionID),
		TransactionID:         f.TransactionID,
		State:                 strings.TrimSpace(f.State),
		Amount:                int64(math.Round(f.Amount)),
	}
	if res.MerchantTransactionID == "" {
		return PaymentResult{}, fmt.Errorf("%w: falta merchantTransactionId", ErrMalformedPayload)
	}
	return res, nil
}

// DecodeCallback decodifica el campo "response" (base64 de un JSON).
func DecodeCallback(encoded string) (PaymentResult, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return PaymentResult{}, fmt.Errorf("%w: response vacío", ErrMalformedPayload)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("%w: base64: %v", ErrMalformedPayload, err)
	}
	return ParseResult(raw)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
