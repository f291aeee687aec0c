package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasty-burger-backend/internal/dto"
	"tasty-burger-backend/internal/service"
)

type ProductController struct {
	Service *service.CatalogService
}

func NewProductController(s *service.CatalogService) *ProductController {
	return &ProductController{Service: s}
}

// GET /products
func (ctl *ProductController) List(c *gin.Context) {
	products, err := ctl.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GET /products/:id
func (ctl *ProductController) Get(c *gin.Context) {
	p, err := ctl.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /admin/products
func (ctl *ProductController) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.Create(c.Request.Context(), productInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /admin/products/:id
func (ctl *ProductController) Update(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := ctl.Service.Update(c.Request.Context(), c.Param("id"), productInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /admin/products/:id
func (ctl *ProductController) Delete(c *gin.Context) {
	if err := ctl.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

func productInput(req dto.ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Images:       req.Images,
		Rating:       req.Rating,
		CountInStock: req.CountInStock,
		Category:     req.Category,
	}
}
