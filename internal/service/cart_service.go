package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
)

// CartLine es un item del carrito con el producto resuelto.
type CartLine struct {
	Product  *model.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type CartService struct {
	users    UserRepository
	products ProductRepository
}

func NewCartService(users UserRepository, products ProductRepository) *CartService {
	return &CartService{users: users, products: products}
}

// Get devuelve el carrito con los productos cargados. Items cuyo producto ya
// no existe se devuelven con Product nil.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) ([]CartLine, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(user.Cart))
	for _, ci := range user.Cart {
		ids = append(ids, ci.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, 0, len(user.Cart))
	for _, ci := range user.Cart {
		lines = append(lines, CartLine{Product: catalog[ci.ProductID], Quantity: ci.Quantity})
	}
	return lines, nil
}

// Add suma quantity (1 si viene en cero) al item del producto.
func (s *CartService) Add(ctx context.Context, userID primitive.ObjectID, rawProductID string, quantity int) ([]CartLine, error) {
	productID, err := parseID(rawProductID, "productId")
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, validationf("quantity no puede ser negativa")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.users.AddToCart(ctx, userID, productID, quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID primitive.ObjectID, rawProductID string) ([]CartLine, error) {
	productID, err := parseID(rawProductID, "productId")
	if err != nil {
		return nil, err
	}
	if err := s.users.RemoveFromCart(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.users.ClearCart(ctx, userID)
}
