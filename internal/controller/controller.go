package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/model"
	"tasty-burger-backend/internal/service"
)

type OrderController struct {
	Service *service.OrderService
}

func NewOrderController(s *service.OrderService) *OrderController {
	return &OrderController{Service: s}
}

// POST /orders
func (ctl *OrderController) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	userID, _ := currentUser(c)

	in := service.CreateOrderInput{
		TotalPrice: req.TotalPrice,
		ShippingDetails: model.ShippingDetails{
			FullName:   req.ShippingDetails.FullName,
			Email:      req.ShippingDetails.Email,
			Address:    req.ShippingDetails.Address,
			City:       req.ShippingDetails.City,
			PostalCode: req.ShippingDetails.Pincode,
			Phone:      req.ShippingDetails.Phone,
		},
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
	}
	for _, li := range req.LineItems {
		in.LineItems = append(in.LineItems, service.LineItemInput{ProductID: li.Product, Quantity: li.Quantity})
	}

	order, err := ctl.Service.CreateOrder(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Response{Success: true, Message: "Order created successfully", Data: order})
}

// GET /orders y /orders/me
func (ctl *OrderController) ListMine(c *gin.Context) {
	userID, _ := currentUser(c)
	orders, err := ctl.Service.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: orders})
}

// GET /orders/:id (dueño o admin)
func (ctl *OrderController) Get(c *gin.Context) {
	userID, isAdmin := currentUser(c)
	order, err := ctl.Service.GetByID(c.Request.Context(), userID, isAdmin, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: order})
}

// GET /user/orders?page&limit
func (ctl *OrderController) ListMinePaged(c *gin.Context) {
	userID, _ := currentUser(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	res, err := ctl.Service.ListMinePaged(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: res})
}

// GET /admin/orders?status=
func (ctl *OrderController) ListAll(c *gin.Context) {
	orders, err := ctl.Service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: orders})
}

// PUT /admin/orders/:id
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := ctl.Service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Message: "Order status updated", Data: order})
}
