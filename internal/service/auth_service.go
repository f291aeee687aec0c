package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"tasty-burger-backend/internal/config"
	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/repository"
)

const minPasswordLength = 6

// AuthUser es lo que el middleware guarda en el contexto.
type AuthUser struct {
	ID      primitive.ObjectID
	Role    model.Role
	IsAdmin bool
}

type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService emite y valida JWT firmados con HS256.
type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, cfg config.JWTConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		logger: logger.With("component", "auth"),
		now:    time.Now,
	}
}

func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, validationf("name, email y password son obligatorios")
	}
	if !strings.Contains(email, "@") {
		return nil, validationf("email inválido")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationf("password debe tener al menos %d caracteres", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Cart:         []model.CartItem{},
		Wishlist:     model.Wishlist{},
		Addresses:    []model.Address{},
	}
	if err := a.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	a.logger.Info("user registered", "user_id", user.ID.Hex())

	token, err := a.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := a.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (a *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*model.User, error) {
	return a.users.FindByID(ctx, userID)
}

// ValidateToken verifica la firma y recarga el usuario: el rol sale de la base,
// no del token. Un usuario borrado ya no autentica.
func (a *AuthService) ValidateToken(ctx context.Context, token string) (*AuthUser, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := a.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &AuthUser{
		ID:      user.ID,
		Role:    user.Role,
		IsAdmin: user.IsAdmin(),
	}, nil
}

func (a *AuthService) issue(u *model.User) (string, error) {
	now := a.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}
