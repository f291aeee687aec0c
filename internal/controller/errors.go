package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tasty-burger-backend/internal/middleware"
	"tasty-burger-backend/internal/phonepe"
	"tasty-burger-backend/internal/service"
)

const genericErrorMessage = "Something went wrong"

// respondError traduce errores de negocio a status HTTP. Lo inesperado es un
// 500 genérico; el detalle sólo se muestra fuera de release.
func respondError(c *gin.Context, err error) {
	var gwErr *phonepe.GatewayError

	switch {
	case errors.Is(err, service.ErrAlreadyInWishlist):
		fail(c, http.StatusBadRequest, "Product already in wishlist")
	case errors.Is(err, service.ErrEmptyCart):
		fail(c, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrInvalidShippingDetails):
		fail(c, http.StatusBadRequest, "Please provide complete shipping details")
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrCallbackUnparseable):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "Not authorized to access this resource")
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	case errors.As(err, &gwErr):
		status := http.StatusBadGateway
		if errors.Is(err, phonepe.ErrGatewayRejected) {
			status = http.StatusInternalServerError
		}
		fail(c, status, gwErr.Error())
	default:
		_ = c.Error(err)
		body := gin.H{"success": false, "message": genericErrorMessage}
		if gin.Mode() != gin.ReleaseMode {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error())
}

// currentUser lee lo que dejó AuthMiddleware.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	v, _ := c.Get(middleware.ContextUserID)
	id, _ := v.(primitive.ObjectID)
	return id, c.GetBool(middleware.ContextIsAdmin)
}
