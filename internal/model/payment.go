package model

import "time"

// PaymentTransition describe un paso pending -> completed|failed.
type PaymentTransition struct {
	PaymentStatus        PaymentStatus
	Status               OrderStatus
	GatewayTransactionID string
	PaidAt               *time.Time
}

func SuccessTransition(gatewayTxnID string, at time.Time) PaymentTransition {
	return PaymentTransition{
		PaymentStatus:        PaymentCompleted,
		Status:               StatusConfirmed,
		GatewayTransactionID: gatewayTxnID,
		PaidAt:               &at,
	}
}

func FailureTransition() PaymentTransition {
	return PaymentTransition{
		PaymentStatus: PaymentFailed,
		Status:        StatusPaymentFailed,
	}
}
