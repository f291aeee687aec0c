package service

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
)

type ProductInput struct {
	Name         string
	Description  string
	Price        float64
	Images       []string
	Rating       float64
	CountInStock int
	Category     string
}

// CatalogService sirve productos con cache read-through en Redis.
// Si el cache falla se lee directo de Mongo.
type CatalogService struct {
	products ProductRepository
	cache    ProductCache
	logger   *slog.Logger
}

func NewCatalogService(products ProductRepository, cache ProductCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		cache:    cache,
		logger:   logger.With("component", "catalog"),
	}
}

func (s *CatalogService) List(ctx context.Context) ([]*model.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *CatalogService) Get(ctx context.Context, rawID string) (*model.Product, error) {
	id, err := parseID(rawID, "productId")
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if p, err := s.cache.Get(ctx, id.Hex()); err == nil && p != nil {
			return p, nil
		}
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.logger.Warn("product cache set failed", "product_id", id.Hex(), "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p := productFromInput(in)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created", "product_id", p.ID.Hex(), "name", p.Name)
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, rawID string, in ProductInput) (*model.Product, error) {
	id, err := parseID(rawID, "productId")
	if err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p := productFromInput(in)
	p.ID = id

	updated, err := s.products.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "productId")
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("product deleted", "product_id", id.Hex())
	return nil
}

// invalidate borra la entrada con la misma clave que usa Get (hex en minúsculas).
func (s *CatalogService) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id.Hex()); err != nil {
		s.logger.Warn("product cache invalidation failed", "product_id", id.Hex(), "error", err)
	}
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("name es obligatorio")
	}
	if in.Price < 0 {
		return validationf("price no puede ser negativo")
	}
	if in.CountInStock < 0 {
		return validationf("countInStock no puede ser negativo")
	}
	return nil
}

func productFromInput(in ProductInput) *model.Product {
	return &model.Product{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		Images:       in.Images,
		Rating:       in.Rating,
		CountInStock: in.CountInStock,
		Category:     in.Category,
	}
}
