// dto.go
package dto

import "time"

// Envoltorio estándar de respuestas {success, message, data}
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ShippingDTO: todos los campos se validan en el service (trim + no vacío)
type ShippingDTO struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

type LineItemDTO struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"qty"`
}

// CreateOrderRequest: sin lineItems se toma el carrito
type CreateOrderRequest struct {
	LineItems       []LineItemDTO `json:"lineItems"`
	TotalPrice      *float64      `json:"totalPrice"`
	ShippingDetails ShippingDTO   `json:"shippingDetails"`
	PaymentMethod   string        `json:"paymentMethod"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type PayRequest struct {
	OrderID string  `json:"orderId" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Mobile  string  `json:"mobile"`
	Name    string  `json:"name"`
}

type CheckStatusRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId" binding:"required"`
}

// CallbackRequest es lo que postea PhonePe: {response: base64(JSON)}
type CallbackRequest struct {
	Response string `json:"response"`
}

type PaymentStatusResponse struct {
	ID                    string     `json:"_id,omitempty"`
	PaymentStatus         string     `json:"paymentStatus"`
	Status                string     `json:"status"`
	PaymentMethod         string     `json:"paymentMethod"`
	MerchantTransactionID string     `json:"merchantTransactionId,omitempty"`
	TotalPrice            *float64   `json:"totalPrice,omitempty"`
	IsPaid                *bool      `json:"isPaid,omitempty"`
	PaidAt                *time.Time `json:"paidAt,omitempty"`
}

type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type CartRemoveRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type WishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type ProfileRequest struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

type AddressRequest struct {
	Type      string `json:"type"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

type ProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"gte=0"`
	Images       []string `json:"images"`
	Rating       float64  `json:"rating"`
	CountInStock int      `json:"countInStock" binding:"gte=0"`
	Category     string   `json:"category"`
}

// ReconcileRequest viaja por la cola payment_reconcile y también llega por API admin.
type ReconcileRequest struct {
	OlderThanSeconds int `json:"olderThanSeconds"`
	Limit            int `json:"limit"`
}

// Eventos publicados en RabbitMQ

type OrderPlacedEvent struct {
	EventID       string    `json:"eventId"`
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	TotalPrice    float64   `json:"totalPrice"`
	PaymentMethod string    `json:"paymentMethod"`
	Items         int       `json:"items"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type PaymentUpdatedEvent struct {
	EventID               string    `json:"eventId"`
	Type                  string    `json:"type"`
	OrderID               string    `json:"orderId"`
	UserID                string    `json:"userId"`
	MerchantTransactionID string    `json:"merchantTransactionId"`
	GatewayTransactionID  string    `json:"gatewayTransactionId,omitempty"`
	PaymentStatus         string    `json:"paymentStatus"`
	Status                string    `json:"status"`
	OccurredAt            time.Time `json:"occurredAt"`
}
