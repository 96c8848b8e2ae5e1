// Package httpapi exposes the storefront over HTTP/JSON using gin.
//
// Route map:
//
//	POST   /auth/signup            register
//	POST   /auth/login             login, returns token pair
//	POST   /auth/refresh           rotate refresh token
//	POST   /auth/logout            revoke refresh token
//	POST   /auth/reset             request password reset mail
//	POST   /auth/reset/confirm     set new password with reset token
//	GET    /products?page=N        public catalog page
//	GET    /products/:id           public product detail
//	GET    /cart                   resolved cart        (auth)
//	POST   /cart/items             add product          (auth)
//	DELETE /cart/items/:productID  remove line          (auth)
//	DELETE /cart                   clear cart           (auth)
//	POST   /checkout               run checkout         (auth, Idempotency-Key)
//	GET    /orders                 order history        (auth)
//	GET    /orders/:id             order detail         (auth)
//	GET    /orders/:id/invoice     PDF invoice          (auth)
//	GET    /admin/products         own listings         (admin)
//	POST   /admin/products         create product       (admin, multipart)
//	PUT    /admin/products/:id     update product       (admin, multipart)
//	DELETE /admin/products/:id     delete product       (admin)
//	GET    /metrics                Prometheus scrape
//	GET    /healthz                liveness
package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/metrics"
	"github.com/ritvika/paintshop/internal/services"
)

type Router struct {
	users     *services.UserService
	catalog   *services.CatalogService
	carts     *services.CartService
	checkout  *services.CheckoutService
	orders    *services.OrderService
	logger    logging.Logger
	jwtSecret []byte
}

func NewRouter(users *services.UserService, catalog *services.CatalogService,
	carts *services.CartService, checkout *services.CheckoutService,
	orders *services.OrderService, logger logging.Logger, cfg *config.Config) *Router {
	return &Router{
		users:     users,
		catalog:   catalog,
		carts:     carts,
		checkout:  checkout,
		orders:    orders,
		logger:    logger,
		jwtSecret: []byte(cfg.SecretKey),
	}
}

// Handler builds the gin engine with all routes attached.
func (r *Router) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/signup", r.handleSignup)
		authGroup.POST("/login", r.handleLogin)
		authGroup.POST("/refresh", r.handleRefresh)
		authGroup.POST("/logout", r.handleLogout)
		authGroup.POST("/reset", r.handleRequestReset)
		authGroup.POST("/reset/confirm", r.handleConfirmReset)
	}

	engine.GET("/products", r.handleListProducts)
	engine.GET("/products/:id", r.handleGetProduct)

	user := engine.Group("/", r.authRequired())
	{
		user.GET("/cart", r.handleGetCart)
		user.POST("/cart/items", r.handleAddCartItem)
		user.DELETE("/cart/items/:productID", r.handleRemoveCartItem)
		user.DELETE("/cart", r.handleClearCart)
		user.POST("/checkout", r.handleCheckout)
		user.GET("/orders", r.handleListOrders)
		user.GET("/orders/:id", r.handleGetOrder)
		user.GET("/orders/:id/invoice", r.handleInvoice)
	}

	admin := engine.Group("/admin", r.authRequired(), r.adminRequired())
	{
		admin.GET("/products", r.handleAdminListProducts)
		admin.POST("/products", r.handleAdminCreateProduct)
		admin.PUT("/products/:id", r.handleAdminUpdateProduct)
		admin.DELETE("/products/:id", r.handleAdminDeleteProduct)
	}

	return engine
}
