package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tasty-burger-backend/internal/controller"
	"tasty-burger-backend/internal/middleware"
)

// Checker se usa en /ready: mongo y redis.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapta una función a Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Auth     *controller.AuthController
	Products *controller.ProductController
	Cart     *controller.CartController
	Orders   *controller.OrderController
	Users    *controller.UserController
	Payments *controller.PaymentController

	Tokens  middleware.TokenValidator
	Limiter *middleware.RateLimiter
	Checks  map[string]Checker
	Logger  *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readyHandler(d.Checks))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := d.Limiter.Middleware()
	authRequired := middleware.AuthMiddleware(d.Tokens)

	// Rutas públicas
	auth := r.Group("/auth")
	auth.POST("/register", limited, d.Auth.Register)
	auth.POST("/login", limited, d.Auth.Login)
	auth.GET("/me", authRequired, d.Auth.Me)

	r.GET("/products", d.Products.List)
	r.GET("/products/:id", d.Products.Get)

	// PhonePe: pay y check-status con token. El callback queda abierto y sin
	// límite por IP: el gateway manda todo desde pocas IPs.
	for _, prefix := range []string{"/phonepe", "/payment"} {
		pg := r.Group(prefix)
		pg.POST("/callback", d.Payments.Callback)
		pg.POST("/pay", authRequired, d.Payments.Pay)
		pg.POST("/check-status", authRequired, d.Payments.CheckStatus)
		pg.GET("/order-status/:orderId", authRequired, d.Payments.OrderStatus)
	}

	// Rutas protegidas (requieren token)
	cart := r.Group("/cart", authRequired)
	cart.GET("", d.Cart.Get)
	cart.POST("", d.Cart.Add)
	cart.POST("/remove", d.Cart.Remove)
	cart.POST("/clear", d.Cart.Clear)

	orders := r.Group("/orders", authRequired)
	orders.POST("", d.Orders.Create)
	orders.GET("", d.Orders.ListMine)
	orders.GET("/me", d.Orders.ListMine)
	orders.GET("/:id", d.Orders.Get)

	user := r.Group("/user", authRequired)
	user.GET("/dashboard/overview", d.Users.Dashboard)
	user.GET("/profile", d.Users.Profile)
	user.PUT("/profile", d.Users.UpdateProfile)
	user.GET("/orders", d.Orders.ListMinePaged)
	user.GET("/addresses", d.Users.Addresses)
	user.POST("/addresses", d.Users.AddAddress)
	user.PUT("/addresses/:id", d.Users.UpdateAddress)
	user.DELETE("/addresses/:id", d.Users.DeleteAddress)
	user.GET("/wishlist", d.Users.Wishlist)
	user.POST("/wishlist", d.Users.AddToWishlist)
	user.DELETE("/wishlist/:productId", d.Users.RemoveFromWishlist)
	user.GET("/wishlist/check/:productId", d.Users.CheckWishlist)

	// Rutas admin
	admin := r.Group("/admin", authRequired, middleware.AdminOnly())
	admin.GET("/users", d.Users.ListUsers)
	admin.DELETE("/users/:id", d.Users.DeleteUser)
	admin.GET("/products", d.Products.List)
	admin.POST("/products", d.Products.Create)
	admin.PUT("/products/:id", d.Products.Update)
	admin.DELETE("/products/:id", d.Products.Delete)
	admin.GET("/orders", d.Orders.ListAll)
	admin.PUT("/orders/:id", d.Orders.UpdateStatus)
	admin.POST("/payments/reconcile", d.Payments.Reconcile)

	return r
}

func readyHandler(checks map[string]Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := gin.H{}
		for name, chk := range checks {
			if err := chk.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": out})
	}
}
