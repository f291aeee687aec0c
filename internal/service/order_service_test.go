package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
)

type orderFixture struct {
	orders    *memOrders
	users     *memUsers
	products  *memProducts
	publisher *recordingPublisher
	svc       *OrderService
	user      *model.User
	p1, p2    *model.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:    newMemOrders(),
		users:     newMemUsers(),
		publisher: &recordingPublisher{},
		p1:        &model.Product{ID: primitive.NewObjectID(), Name: "Classic Burger", Price: 5.0},
		p2:        &model.Product{ID: primitive.NewObjectID(), Name: "Fries", Price: 3.0},
	}
	f.products = newMemProducts(f.p1, f.p2)
	f.user = f.users.put(&model.User{
		Email: "ana@example.com",
		Cart: []model.CartItem{
			{ProductID: f.p1.ID, Quantity: 2},
			{ProductID: f.p2.ID, Quantity: 1},
		},
	})
	f.svc = NewOrderService(f.orders, f.users, f.products, f.publisher, discardLogger())
	return f
}

func validShipping() model.ShippingDetails {
	return model.ShippingDetails{
		FullName:   "Ana Pérez",
		Email:      "ana@example.com",
		Address:    "MG Road 12",
		City:       "Pune",
		PostalCode: "411001",
		Phone:      "9876543210",
	}
}

func TestCreateOrder_FromCart(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		ShippingDetails: validShipping(),
	})
	require.NoError(t, err)

	assert.Equal(t, 13.0, order.TotalPrice)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, model.PaymentCashOnDelivery, order.PaymentMethod)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "Classic Burger", order.LineItems[0].Name)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, 5.0, order.LineItems[0].UnitPrice)

	u, err := f.users.FindByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, u.Cart)

	require.Len(t, f.publisher.placed, 1)
	assert.Equal(t, order.ID, f.publisher.placed[0].ID)
}

func TestCreateOrder_ExplicitItemsUseCatalogPrice(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		LineItems:       []LineItemInput{{ProductID: f.p2.ID.Hex(), Quantity: 3}},
		ShippingDetails: validShipping(),
		PaymentMethod:   model.PaymentGateway,
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, order.TotalPrice)
	assert.Equal(t, model.PaymentGateway, order.PaymentMethod)
}

func TestCreateOrder_SuppliedTotalWins(t *testing.T) {
	f := newOrderFixture(t)
	total := 11.5

	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		TotalPrice:      &total,
		ShippingDetails: validShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, 11.5, order.TotalPrice)
}

func TestCreateOrder_DecimalTotal(t *testing.T) {
	f := newOrderFixture(t)
	cheap := &model.Product{ID: primitive.NewObjectID(), Name: "Soda", Price: 0.1}
	f.products.byID[cheap.ID] = cheap

	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{
		LineItems:       []LineItemInput{{ProductID: cheap.ID.Hex(), Quantity: 3}},
		ShippingDetails: validShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.3, order.TotalPrice)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	empty := f.users.put(&model.User{Email: "empty@example.com", Cart: []model.CartItem{}})

	_, err := f.svc.CreateOrder(context.Background(), empty.ID, CreateOrderInput{ShippingDetails: validShipping()})
	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.Zero(t, f.orders.writes)
}

func TestCreateOrder_InvalidShippingDetails(t *testing.T) {
	f := newOrderFixture(t)

	blanks := []func(*model.ShippingDetails){
		func(s *model.ShippingDetails) { s.FullName = "" },
		func(s *model.ShippingDetails) { s.Email = "  " },
		func(s *model.ShippingDetails) { s.Address = "" },
		func(s *model.ShippingDetails) { s.City = "\t" },
		func(s *model.ShippingDetails) { s.PostalCode = "" },
		func(s *model.ShippingDetails) { s.Phone = " " },
	}
	for _, blank := range blanks {
		sd := validShipping()
		blank(&sd)
		_, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{ShippingDetails: sd})
		assert.True(t, errors.Is(err, ErrInvalidShippingDetails))
	}
	assert.Zero(t, f.orders.writes)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	negative := -1.0

	tests := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{"zero quantity", CreateOrderInput{LineItems: []LineItemInput{{ProductID: f.p1.ID.Hex(), Quantity: 0}}, ShippingDetails: validShipping()}, ErrValidation},
		{"bad product id", CreateOrderInput{LineItems: []LineItemInput{{ProductID: "x", Quantity: 1}}, ShippingDetails: validShipping()}, ErrValidation},
		{"unknown product", CreateOrderInput{LineItems: []LineItemInput{{ProductID: primitive.NewObjectID().Hex(), Quantity: 1}}, ShippingDetails: validShipping()}, ErrNotFound},
		{"negative total", CreateOrderInput{TotalPrice: &negative, ShippingDetails: validShipping()}, ErrValidation},
		{"unknown payment method", CreateOrderInput{PaymentMethod: "BITCOIN", ShippingDetails: validShipping()}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), f.user.ID, tt.in)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCreateOrder_CartClearFailureDoesNotFailRequest(t *testing.T) {
	f := newOrderFixture(t)
	f.users.clearErr = errors.New("mongo timeout")

	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{ShippingDetails: validShipping()})
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 1, f.users.clearCall)
	assert.Equal(t, 1, f.orders.writes)
}

func TestCreateOrder_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.err = errors.New("channel closed")

	_, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{ShippingDetails: validShipping()})
	assert.NoError(t, err)
}

func TestOrderService_GetByID_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	order, err := f.svc.CreateOrder(context.Background(), f.user.ID, CreateOrderInput{ShippingDetails: validShipping()})
	require.NoError(t, err)

	_, err = f.svc.GetByID(context.Background(), f.user.ID, false, order.ID.Hex())
	assert.NoError(t, err)

	_, err = f.svc.GetByID(context.Background(), primitive.NewObjectID(), false, order.ID.Hex())
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.svc.GetByID(context.Background(), primitive.NewObjectID(), true, order.ID.Hex())
	assert.NoError(t, err)
}

func TestOrderService_ListMinePaged(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 3; i++ {
		f.orders.put(&model.Order{UserID: f.user.ID, Status: model.StatusPending})
	}

	page, err := f.svc.ListMinePaged(context.Background(), f.user.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalOrders)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Orders, 1)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.orders.put(&model.Order{UserID: f.user.ID, Status: model.StatusPending, PaymentStatus: model.PaymentPending})

	got, err := f.svc.UpdateStatus(context.Background(), order.ID.Hex(), "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, got.Status)
	assert.Equal(t, model.PaymentPending, got.PaymentStatus)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID.Hex(), "teleported")
	assert.True(t, errors.Is(err, ErrValidation))
}
