package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/service"
)

type CartController struct {
	Service *service.CartService
}

func NewCartController(s *service.CartService) *CartController {
	return &CartController{Service: s}
}

// GET /cart
func (ctl *CartController) Get(c *gin.Context) {
	userID, _ := currentUser(c)
	lines, err := ctl.Service.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lines})
}

// POST /cart {productId, quantity}
func (ctl *CartController) Add(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Product ID is required")
		return
	}
	userID, _ := currentUser(c)
	lines, err := ctl.Service.Add(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lines})
}

// POST /cart/remove {productId}
func (ctl *CartController) Remove(c *gin.Context) {
	var req dto.CartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Product ID is required")
		return
	}
	userID, _ := currentUser(c)
	lines, err := ctl.Service.Remove(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lines})
}

// POST /cart/clear
func (ctl *CartController) Clear(c *gin.Context) {
	userID, _ := currentUser(c)
	if err := ctl.Service.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully", "data": []any{}})
}
