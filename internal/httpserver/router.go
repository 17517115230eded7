package httpserver

import (
	"context"
	"log"
	"strings"

	"partsmarket/internal/domain"
	authsvc "partsmarket/internal/service/auth"
	cartsvc "partsmarket/internal/service/cart"
	ordersvc "partsmarket/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthService resolves credentials and tokens to users.
type AuthService interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	AccessTTLSeconds() int
}

// CartService is the cart engine surface the handlers consume.
type CartService interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, ownerID string, in cartsvc.ItemInput) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, ownerID string, in cartsvc.ItemInput) (*domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID, productID string, kind domain.ProductKind) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) error
	VerifyStock(ctx context.Context, items []cartsvc.ItemInput) (*cartsvc.StockReport, error)
}

// OrderService is the order engine surface the handlers consume.
type OrderService interface {
	Checkout(ctx context.Context, ownerID string, in ordersvc.CheckoutInput) (*domain.Order, error)
	History(ctx context.Context, ownerID string) ([]domain.Order, error)
	Get(ctx context.Context, actor ordersvc.Actor, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	ListByProvider(ctx context.Context, providerID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	UpdateProviderStatus(ctx context.Context, providerID, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

// CatalogService is the read-only product surface.
type CatalogService interface {
	List(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error)
	Get(ctx context.Context, kind domain.ProductKind, id string) (*domain.Product, error)
}

// Deps bundles the services the router needs.
type Deps struct {
	AuthSvc    AuthService
	CartSvc    CartService
	OrderSvc   OrderService
	CatalogSvc CatalogService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if corsOrigins == "" || corsOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(corsOrigins, ",")
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/auth/signup", signupHandler(deps.AuthSvc))
	router.POST("/auth/login", loginHandler(deps.AuthSvc))

	router.GET("/products", listProductsHandler(deps.CatalogSvc))
	router.GET("/products/:kind/:id", getProductHandler(deps.CatalogSvc))

	authed := router.Group("", authRequired(deps.AuthSvc))

	authed.GET("/cart", getCartHandler(deps.CartSvc))
	authed.POST("/cart/items", addCartItemHandler(deps.CartSvc))
	authed.PUT("/cart/items", setCartItemHandler(deps.CartSvc))
	authed.DELETE("/cart/items", removeCartItemHandler(deps.CartSvc))
	authed.DELETE("/cart", clearCartHandler(deps.CartSvc))
	authed.POST("/cart/verify-stock", verifyStockHandler(deps.CartSvc))

	authed.POST("/orders", checkoutHandler(deps.OrderSvc))
	authed.GET("/orders", orderHistoryHandler(deps.OrderSvc))
	authed.GET("/orders/:id", getOrderHandler(deps.OrderSvc))

	admin := authed.Group("/admin", requireRole(domain.RoleAdmin))
	admin.GET("/orders", adminListOrdersHandler(deps.OrderSvc))
	admin.PUT("/orders/:id/status", adminOrderStatusHandler(deps.OrderSvc))

	provider := authed.Group("/provider", requireRole(domain.RoleProvider))
	provider.GET("/orders", providerListOrdersHandler(deps.OrderSvc))
	provider.PUT("/orders/:id/status", providerOrderStatusHandler(deps.OrderSvc))

	return router, nil
}
