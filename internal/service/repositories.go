package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/repository"
)

// Interfaces que debe implementar repository
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	FindByMerchantTxnID(ctx context.Context, merchantTxnID string) (*model.Order, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*model.Order, error)
	CountByUserID(ctx context.Context, userID primitive.ObjectID, status model.OrderStatus) (int64, error)
	FindAll(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error)
	StampPaymentAttempt(ctx context.Context, id primitive.ObjectID, merchantTxnID string) error
	ApplyPaymentTransition(ctx context.Context, merchantTxnID string, t model.PaymentTransition) (bool, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int64) ([]*model.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p repository.ProfileUpdate) (*model.User, error)
	AddToCart(ctx context.Context, id, productID primitive.ObjectID, qty int) error
	RemoveFromCart(ctx context.Context, id, productID primitive.ObjectID) error
	ClearCart(ctx context.Context, id primitive.ObjectID) error
	SetWishlist(ctx context.Context, id primitive.ObjectID, w model.Wishlist) error
	SetAddresses(ctx context.Context, id primitive.ObjectID, addrs []model.Address) error
	MigrateWishlists(ctx context.Context) (int, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Product, error)
	FindAll(ctx context.Context) ([]*model.Product, error)
	Update(ctx context.Context, p *model.Product) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductCache: un miss es (nil, nil).
type ProductCache interface {
	Get(ctx context.Context, id string) (*model.Product, error)
	Set(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
}

type PaymentGateway interface {
	Initiate(ctx context.Context, req phonepe.PayRequest) (*phonepe.PayResponse, error)
	CheckStatus(ctx context.Context, merchantTransactionID string) (*phonepe.StatusResponse, error)
}

// EventPublisher publica eventos de órdenes. Las fallas no cortan el flujo.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *model.Order) error
	PublishPaymentUpdated(ctx context.Context, o *model.Order, t model.PaymentTransition) error
}

func parseID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, validationf("%s inválido", field)
	}
	return id, nil
}
