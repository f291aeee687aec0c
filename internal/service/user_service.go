package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/repository"
)

const recentOrdersOnDashboard = 5

type DashboardStats struct {
	TotalOrders     int64 `json:"totalOrders"`
	PendingOrders   int64 `json:"pendingOrders"`
	CompletedOrders int64 `json:"completedOrders"`
	WishlistCount   int   `json:"wishlistCount"`
}

type Dashboard struct {
	User         *model.User    `json:"user"`
	Stats        DashboardStats `json:"stats"`
	RecentOrders []*model.Order `json:"recentOrders"`
}

type ProfileInput struct {
	Name        *string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
}

type AddressInput struct {
	Type      model.AddressType
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault bool
}

type UserService struct {
	users    UserRepository
	orders   OrderRepository
	products ProductRepository
	logger   *slog.Logger
}

func NewUserService(users UserRepository, orders OrderRepository, products ProductRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		orders:   orders,
		products: products,
		logger:   logger.With("component", "users"),
	}
}

func (s *UserService) Dashboard(ctx context.Context, userID primitive.ObjectID) (*Dashboard, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.CountByUserID(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	pending, err := s.orders.CountByUserID(ctx, userID, model.StatusPending)
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.FindByUserID(ctx, userID, 0, recentOrdersOnDashboard)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User: user,
		Stats: DashboardStats{
			TotalOrders:     total,
			PendingOrders:   pending,
			CompletedOrders: total - pending,
			WishlistCount:   len(user.Wishlist),
		},
		RecentOrders: recent,
	}, nil
}

func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*model.User, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, validationf("name no puede estar vacío")
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return nil, validationf("email inválido")
	}
	u, err := s.users.UpdateProfile(ctx, userID, repository.ProfileUpdate{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		DateOfBirth: in.DateOfBirth,
	})
	if isDuplicate(err) {
		return nil, ErrEmailTaken
	}
	return u, err
}

// Direcciones

func (s *UserService) Addresses(ctx context.Context, userID primitive.ObjectID) ([]model.Address, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []model.Address{}, nil
	}
	return user.Addresses, nil
}

// AddAddress agrega la dirección; si es default, las demás dejan de serlo.
func (s *UserService) AddAddress(ctx context.Context, userID primitive.ObjectID, in AddressInput) ([]model.Address, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	addr := model.Address{
		ID:        primitive.NewObjectID(),
		Type:      addressType(in.Type, model.AddressHome),
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
	}
	addrs := append(clearDefaults(user.Addresses, in.IsDefault, primitive.NilObjectID), addr)
	if err := s.users.SetAddresses(ctx, userID, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (s *UserService) UpdateAddress(ctx context.Context, userID primitive.ObjectID, rawID string, in AddressInput) ([]model.Address, error) {
	addrID, err := parseID(rawID, "addressId")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	addrs := clearDefaults(user.Addresses, in.IsDefault, addrID)
	found := false
	for i := range addrs {
		if addrs[i].ID != addrID {
			continue
		}
		found = true
		addrs[i] = model.Address{
			ID:        addrID,
			Type:      addressType(in.Type, addrs[i].Type),
			Street:    in.Street,
			City:      in.City,
			State:     in.State,
			ZipCode:   in.ZipCode,
			Country:   in.Country,
			IsDefault: in.IsDefault,
		}
	}
	if !found {
		return nil, ErrNotFound
	}
	if err := s.users.SetAddresses(ctx, userID, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (s *UserService) DeleteAddress(ctx context.Context, userID primitive.ObjectID, rawID string) ([]model.Address, error) {
	addrID, err := parseID(rawID, "addressId")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	addrs := make([]model.Address, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		if a.ID != addrID {
			addrs = append(addrs, a)
		}
	}
	if err := s.users.SetAddresses(ctx, userID, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func addressType(t, fallback model.AddressType) model.AddressType {
	switch t {
	case model.AddressHome, model.AddressWork, model.AddressOther:
		return t
	}
	if fallback == "" {
		return model.AddressHome
	}
	return fallback
}

// clearDefaults copia la lista y, si hace falta, apaga isDefault en todas menos keep.
func clearDefaults(in []model.Address, newIsDefault bool, keep primitive.ObjectID) []model.Address {
	out := make([]model.Address, len(in))
	copy(out, in)
	if !newIsDefault {
		return out
	}
	for i := range out {
		if out[i].ID != keep {
			out[i].IsDefault = false
		}
	}
	return out
}

// Wishlist

// Wishlist devuelve los productos del wishlist; los que ya no existen se omiten.
func (s *UserService) Wishlist(ctx context.Context, userID primitive.ObjectID) ([]*model.Product, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.populateWishlist(ctx, user.Wishlist)
}

func (s *UserService) AddToWishlist(ctx context.Context, userID primitive.ObjectID, rawProductID string) ([]*model.Product, error) {
	productID, err := parseID(rawProductID, "productId")
	if err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Wishlist.Contains(productID) {
		return nil, ErrAlreadyInWishlist
	}

	w := append(user.Wishlist, productID)
	if err := s.users.SetWishlist(ctx, userID, w); err != nil {
		return nil, err
	}
	return s.populateWishlist(ctx, w)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID primitive.ObjectID, rawProductID string) ([]*model.Product, error) {
	productID, err := parseID(rawProductID, "productId")
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	w := user.Wishlist.Without(productID)
	if err := s.users.SetWishlist(ctx, userID, w); err != nil {
		return nil, err
	}
	return s.populateWishlist(ctx, w)
}

func (s *UserService) InWishlist(ctx context.Context, userID primitive.ObjectID, rawProductID string) (bool, error) {
	productID, err := parseID(rawProductID, "productId")
	if err != nil {
		return false, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Wishlist.Contains(productID), nil
}

func (s *UserService) populateWishlist(ctx context.Context, w model.Wishlist) ([]*model.Product, error) {
	catalog, err := s.products.FindByIDs(ctx, w)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Product, 0, len(w))
	for _, id := range w {
		if p, ok := catalog[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// MigrateWishlists reescribe los wishlists guardados con la forma vieja.
func (s *UserService) MigrateWishlists(ctx context.Context) (int, error) {
	n, err := s.users.MigrateWishlists(ctx)
	if err != nil {
		return n, err
	}
	s.logger.Info("wishlists migrated", "users", n)
	return n, nil
}

// Admin

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.FindAll(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, "userId")
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", rawID)
	return nil
}
