package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anayakapoor/luxethreads-backend/api/controllers"
	"github.com/anayakapoor/luxethreads-backend/api/middleware"
	authsvc "github.com/anayakapoor/luxethreads-backend/internal/auth"
	cartsvc "github.com/anayakapoor/luxethreads-backend/internal/cart"
	chatsvc "github.com/anayakapoor/luxethreads-backend/internal/chat"
	checkoutsvc "github.com/anayakapoor/luxethreads-backend/internal/checkout"
	ordersvc "github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
	productsvc "github.com/anayakapoor/luxethreads-backend/internal/products"
	userssvc "github.com/anayakapoor/luxethreads-backend/internal/users"
	"github.com/anayakapoor/luxethreads-backend/pkg/auth/session"
	"github.com/anayakapoor/luxethreads-backend/pkg/config"
	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
	pkgredis "github.com/anayakapoor/luxethreads-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	HealthDeps     map[string]controllers.Pinger
	Idempotency    pkgredis.IdempotencyStore
	SessionChecker session.AccessSessionChecker

	Auth     authsvc.Service
	Users    userssvc.Service
	Products productsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Chat     chatsvc.Service
	Gateway  payments.Gateway
}

// NewRouter assembles the full HTTP surface. Catalog reads are public;
// everything under the authed group requires a bearer token, and the admin
// subtree additionally requires the admin flag on the token.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.Products, logg))
		r.Get("/{id}", controllers.ProductsGet(deps.Products, logg))
	})

	r.Get("/api/v1/payment-methods", controllers.PaymentMethodsList(deps.Gateway))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/auth/me", controllers.AuthMe(deps.Users, logg))
		r.Put("/auth/me", controllers.AuthUpdateProfile(deps.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Get("/checkout-preview", controllers.CheckoutPreview(deps.Checkout, logg))
			r.Post("/checkout", controllers.CheckoutExecute(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{id}", controllers.OrdersGet(deps.Orders, logg))
			r.Post("/{id}/pay", controllers.OrdersPay(deps.Orders, logg))
			r.Post("/{id}/cancel", controllers.OrdersCancel(deps.Orders, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", controllers.ChatSendMessage(deps.Chat, logg))
			r.Get("/sessions", controllers.ChatListSessions(deps.Chat, logg))
			r.Get("/sessions/{id}", controllers.ChatHistory(deps.Chat, logg))
			r.Post("/sessions/{id}/end", controllers.ChatEndSession(deps.Chat, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminProductsCreate(deps.Products, logg))
				r.Put("/{id}", controllers.AdminProductsUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.AdminProductsDelete(deps.Products, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(deps.Orders, logg))
				r.Get("/{id}", controllers.AdminOrdersGet(deps.Orders, logg))
				r.Put("/{id}/status", controllers.AdminOrdersUpdateStatus(deps.Orders, logg))
			})
		})
	})

	return r
}
