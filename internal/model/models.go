// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentGateway        PaymentMethod = "GATEWAY"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGateway
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal: una vez completed o failed no se vuelve a pending.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

type OrderStatus string

const (
	StatusPending       OrderStatus = "pending"
	StatusProcessing    OrderStatus = "processing"
	StatusConfirmed     OrderStatus = "confirmed"
	StatusShipped       OrderStatus = "shipped"
	StatusDelivered     OrderStatus = "delivered"
	StatusCancelled     OrderStatus = "cancelled"
	StatusPaymentFailed OrderStatus = "payment_failed"
)

// Estados válidos (por nombre). No hay catálogo en BD.
var validStatuses = map[OrderStatus]bool{
	StatusPending:       true,
	StatusProcessing:    true,
	StatusConfirmed:     true,
	StatusShipped:       true,
	StatusDelivered:     true,
	StatusCancelled:     true,
	StatusPaymentFailed: true,
}

func (s OrderStatus) Valid() bool {
	return validStatuses[s]
}

type Order struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID                primitive.ObjectID `bson:"user" json:"user"`
	LineItems             []LineItem         `bson:"orderItems" json:"orderItems"`
	TotalPrice            float64            `bson:"totalPrice" json:"totalPrice"`
	ShippingDetails       ShippingDetails    `bson:"shippingAddress" json:"shippingAddress"`
	Status                OrderStatus        `bson:"status" json:"status"`
	PaymentStatus         PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod         PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	MerchantTransactionID string             `bson:"merchantTransactionId,omitempty" json:"merchantTransactionId,omitempty"`
	GatewayTransactionID  string             `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`
	IsPaid                bool               `bson:"isPaid" json:"isPaid"`
	PaidAt                *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LineItem es una copia inmutable de una entrada del carrito.
type LineItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Quantity  int                `bson:"qty" json:"qty"`
	UnitPrice float64            `bson:"price" json:"price"`
}

type ShippingDetails struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Email      string `bson:"email" json:"email"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"pincode" json:"pincode"`
	Phone      string `bson:"phone" json:"phone"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Cart         []CartItem         `bson:"cart" json:"cart"`
	Wishlist     Wishlist           `bson:"wishlist" json:"wishlist"`
	Addresses    []Address          `bson:"addresses" json:"addresses"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	DateOfBirth  *time.Time         `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Avatar       string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

type Address struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Type      AddressType        `bson:"type" json:"type"`
	Street    string             `bson:"street" json:"street"`
	City      string             `bson:"city" json:"city"`
	State     string             `bson:"state" json:"state"`
	ZipCode   string             `bson:"zipCode" json:"zipCode"`
	Country   string             `bson:"country" json:"country"`
	IsDefault bool               `bson:"isDefault" json:"isDefault"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Images       []string           `bson:"images" json:"images"`
	Rating       float64            `bson:"rating" json:"rating"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
