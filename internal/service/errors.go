package service

import (
	"errors"
	"fmt"

	"tasty-burger-backend/internal/repository"
)

// Errores de negocio exportados (los usa el controller)
var (
	ErrValidation             = errors.New("datos inválidos")
	ErrEmptyCart              = errors.New("el carrito está vacío")
	ErrInvalidShippingDetails = errors.New("faltan datos de envío")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("forbidden")
	ErrCallbackUnparseable    = errors.New("callback de pago ilegible")

	// Mismos valores que en repository para que errors.Is funcione en ambos sentidos.
	ErrNotFound = repository.ErrNotFound
	ErrConflict = repository.ErrConflict

	ErrInvalidCredentials = fmt.Errorf("%w: email o contraseña incorrectos", ErrUnauthorized)
	ErrInvalidSignature   = fmt.Errorf("%w: firma de callback inválida", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: el email ya está registrado", ErrConflict)
	ErrAlreadyInWishlist  = fmt.Errorf("%w: el producto ya está en el wishlist", ErrConflict)
	ErrPaymentFinalized   = fmt.Errorf("%w: el pago de la orden ya finalizó", ErrConflict)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
