package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/service"
)

type UserController struct {
	Service *service.UserService
}

func NewUserController(s *service.UserService) *UserController {
	return &UserController{Service: s}
}

// GET /user/dashboard/overview
func (ctl *UserController) Dashboard(c *gin.Context) {
	userID, _ := currentUser(c)
	d, err := ctl.Service.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: d})
}

// GET /user/profile
func (ctl *UserController) Profile(c *gin.Context) {
	userID, _ := currentUser(c)
	u, err := ctl.Service.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: u})
}

// PUT /user/profile
func (ctl *UserController) UpdateProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := currentUser(c)
	u, err := ctl.Service.UpdateProfile(c.Request.Context(), userID, service.ProfileInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Profile updated successfully", Data: u})
}

// GET /user/addresses
func (ctl *UserController) Addresses(c *gin.Context) {
	userID, _ := currentUser(c)
	addrs, err := ctl.Service.Addresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: addrs})
}

// POST /user/addresses
func (ctl *UserController) AddAddress(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := currentUser(c)
	addrs, err := ctl.Service.AddAddress(c.Request.Context(), userID, addressInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Address added successfully", Data: addrs})
}

// PUT /user/addresses/:id
func (ctl *UserController) UpdateAddress(c *gin.Context) {
	var req dto.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := currentUser(c)
	addrs, err := ctl.Service.UpdateAddress(c.Request.Context(), userID, c.Param("id"), addressInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Address updated successfully", Data: addrs})
}

// DELETE /user/addresses/:id
func (ctl *UserController) DeleteAddress(c *gin.Context) {
	userID, _ := currentUser(c)
	addrs, err := ctl.Service.DeleteAddress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Address deleted successfully", Data: addrs})
}

// GET /user/wishlist
func (ctl *UserController) Wishlist(c *gin.Context) {
	userID, _ := currentUser(c)
	list, err := ctl.Service.Wishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: list})
}

// POST /user/wishlist {productId}
func (ctl *UserController) AddToWishlist(c *gin.Context) {
	var req dto.WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := currentUser(c)
	list, err := ctl.Service.AddToWishlist(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Product added to wishlist successfully", Data: list})
}

// DELETE /user/wishlist/:productId
func (ctl *UserController) RemoveFromWishlist(c *gin.Context) {
	userID, _ := currentUser(c)
	list, err := ctl.Service.RemoveFromWishlist(c.Request.Context(), userID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Product removed from wishlist successfully", Data: list})
}

// GET /user/wishlist/check/:productId
func (ctl *UserController) CheckWishlist(c *gin.Context) {
	userID, _ := currentUser(c)
	in, err := ctl.Service.InWishlist(c.Request.Context(), userID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: gin.H{"isInWishlist": in}})
}

// GET /admin/users
func (ctl *UserController) ListUsers(c *gin.Context) {
	users, err := ctl.Service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// DELETE /admin/users/:id
func (ctl *UserController) DeleteUser(c *gin.Context) {
	if err := ctl.Service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed"})
}

func addressInput(req dto.AddressRequest) service.AddressInput {
	return service.AddressInput{
		Type:      model.AddressType(req.Type),
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}
}
