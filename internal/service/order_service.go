package service

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/metrics"
	"tasty-burger-backend/internal/model"
)

type LineItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput: si LineItems viene vacío se usa el carrito del usuario.
// TotalPrice nil significa que se calcula.
type CreateOrderInput struct {
	LineItems       []LineItemInput
	TotalPrice      *float64
	ShippingDetails model.ShippingDetails
	PaymentMethod   model.PaymentMethod
}

type OrderPage struct {
	Orders      []*model.Order `json:"orders"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalOrders int64          `json:"totalOrders"`
}

type OrderService struct {
	orders   OrderRepository
	users    UserRepository
	products ProductRepository
	events   EventPublisher
	logger   *slog.Logger
}

func NewOrderService(orders OrderRepository, users UserRepository, products ProductRepository, events EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		products: products,
		events:   events,
		logger:   logger.With("component", "orders"),
	}
}

// CreateOrder arma la orden a partir del carrito (o de los items explícitos),
// con precios del catálogo, la persiste y después vacía el carrito.
func (s *OrderService) CreateOrder(ctx context.Context, userID primitive.ObjectID, in CreateOrderInput) (*model.Order, error) {
	shipping, err := normalizeShipping(in.ShippingDetails)
	if err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentCashOnDelivery
	}
	if !method.Valid() {
		return nil, validationf("paymentMethod %q no soportado", method)
	}

	wanted, err := s.requestedItems(ctx, userID, in.LineItems)
	if err != nil {
		return nil, err
	}
	if len(wanted) == 0 {
		return nil, ErrEmptyCart
	}

	items, total, err := s.priceItems(ctx, wanted)
	if err != nil {
		return nil, err
	}
	if in.TotalPrice != nil {
		if *in.TotalPrice < 0 || math.IsNaN(*in.TotalPrice) {
			return nil, validationf("totalPrice no puede ser negativo")
		}
		total = decimal.NewFromFloat(*in.TotalPrice)
	}

	order := &model.Order{
		UserID:          userID,
		LineItems:       items,
		TotalPrice:      total.Round(2).InexactFloat64(),
		ShippingDetails: shipping,
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentPending,
		PaymentMethod:   method,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreated.WithLabelValues(string(method)).Inc()

	s.logger.Info("order created",
		"order_id", order.ID.Hex(),
		"user_id", userID.Hex(),
		"items", len(items),
		"total", order.TotalPrice,
		"payment_method", method,
	)

	// La orden ya existe: si falla el vaciado del carrito sólo se loguea.
	if err := s.users.ClearCart(ctx, userID); err != nil {
		s.logger.Error("clear cart after order failed", "order_id", order.ID.Hex(), "error", err)
	}
	if s.events != nil {
		if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
			s.logger.Warn("publish order placed failed", "order_id", order.ID.Hex(), "error", err)
		}
	}

	return order, nil
}

type wantedItem struct {
	productID primitive.ObjectID
	quantity  int
}

func (s *OrderService) requestedItems(ctx context.Context, userID primitive.ObjectID, explicit []LineItemInput) ([]wantedItem, error) {
	if len(explicit) > 0 {
		out := make([]wantedItem, 0, len(explicit))
		for _, li := range explicit {
			id, err := parseID(li.ProductID, "product")
			if err != nil {
				return nil, err
			}
			out = append(out, wantedItem{productID: id, quantity: li.Quantity})
		}
		return out, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]wantedItem, 0, len(user.Cart))
	for _, ci := range user.Cart {
		out = append(out, wantedItem{productID: ci.ProductID, quantity: ci.Quantity})
	}
	return out, nil
}

func (s *OrderService) priceItems(ctx context.Context, wanted []wantedItem) ([]model.LineItem, decimal.Decimal, error) {
	ids := make([]primitive.ObjectID, 0, len(wanted))
	for _, w := range wanted {
		if w.quantity < 1 {
			return nil, decimal.Zero, validationf("la cantidad de %s debe ser al menos 1", w.productID.Hex())
		}
		ids = append(ids, w.productID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]model.LineItem, 0, len(wanted))
	total := decimal.Zero
	for _, w := range wanted {
		p, ok := catalog[w.productID]
		if !ok {
			return nil, decimal.Zero, ErrNotFound
		}
		price := decimal.NewFromFloat(p.Price)
		items = append(items, model.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  w.quantity,
			UnitPrice: p.Price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(w.quantity))))
	}
	return items, total, nil
}

func normalizeShipping(in model.ShippingDetails) (model.ShippingDetails, error) {
	out := model.ShippingDetails{
		FullName:   strings.TrimSpace(in.FullName),
		Email:      strings.TrimSpace(in.Email),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Phone:      strings.TrimSpace(in.Phone),
	}
	for _, v := range []string{out.FullName, out.Email, out.Address, out.City, out.PostalCode, out.Phone} {
		if v == "" {
			return model.ShippingDetails{}, ErrInvalidShippingDetails
		}
	}
	return out, nil
}

// Getters
func (s *OrderService) GetByID(ctx context.Context, userID primitive.ObjectID, isAdmin bool, rawID string) (*model.Order, error) {
	id, err := parseID(rawID, "orderId")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]*model.Order, error) {
	return s.orders.FindByUserID(ctx, userID, 0, 0)
}

// ListMinePaged: page y limit por defecto 1 y 10.
func (s *OrderService) ListMinePaged(ctx context.Context, userID primitive.ObjectID, page, limit int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	orders, err := s.orders.FindByUserID(ctx, userID, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, err
	}
	total, err := s.orders.CountByUserID(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Orders:      orders,
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		TotalOrders: total,
	}, nil
}

// ListAll es para admin; status vacío no filtra.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]*model.Order, error) {
	st := model.OrderStatus(status)
	if st != "" && !st.Valid() {
		return nil, validationf("status %q inválido", status)
	}
	return s.orders.FindAll(ctx, st)
}

// UpdateStatus cambia el estado logístico. El estado de pago no se toca acá.
func (s *OrderService) UpdateStatus(ctx context.Context, rawID, status string) (*model.Order, error) {
	id, err := parseID(rawID, "orderId")
	if err != nil {
		return nil, err
	}
	st := model.OrderStatus(status)
	if !st.Valid() {
		return nil, validationf("status %q inválido", status)
	}
	order, err := s.orders.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", "order_id", order.ID.Hex(), "status", st)
	return order, nil
}
