package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spinshelf/spinshelf-backend/api/controllers"
	"github.com/spinshelf/spinshelf-backend/api/middleware"
	"github.com/spinshelf/spinshelf-backend/internal/cart"
	"github.com/spinshelf/spinshelf-backend/internal/catalog"
	checkoutsvc "github.com/spinshelf/spinshelf-backend/internal/checkout"
	"github.com/spinshelf/spinshelf-backend/internal/notifications"
	"github.com/spinshelf/spinshelf-backend/internal/orders"
	"github.com/spinshelf/spinshelf-backend/internal/payments"
	"github.com/spinshelf/spinshelf-backend/internal/promotions"
	"github.com/spinshelf/spinshelf-backend/internal/users"
	"github.com/spinshelf/spinshelf-backend/internal/wishlist"
	"github.com/spinshelf/spinshelf-backend/pkg/config"
	"github.com/spinshelf/spinshelf-backend/pkg/logger"
	"github.com/spinshelf/spinshelf-backend/pkg/metrics"
	pkgredis "github.com/spinshelf/spinshelf-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. The zero value is not
// usable; cmd/api wires a fully populated one.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Idempotency pkgredis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics

	ReadyChecks map[string]controllers.Pinger

	Users         users.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Promotions    promotions.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Payments      payments.Service
	Wishlist      wishlist.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	r.Method(http.MethodGet, "/metrics", deps.HTTPMetrics.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(deps.Idempotency, logg)).Post("/register", controllers.AuthRegister(deps.Users, cfg.JWT, logg))
		r.Post("/login", controllers.AuthLogin(deps.Users, cfg.JWT, logg))
	})

	// Catalog browsing is public.
	r.Route("/api/v1/articles", func(r chi.Router) {
		r.Get("/", controllers.ArticleList(deps.Catalog, logg))
		r.Get("/{articleId}", controllers.ArticleDetail(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/users/me", controllers.UserProfile(deps.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{lineId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Post("/apply-promotion", controllers.CartApplyPromotion(deps.Promotions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CheckoutExecute(deps.Checkout, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			r.Get("/{orderId}/invoice", controllers.OrderInvoice(deps.Orders, logg))
		})

		r.Post("/payments/process", controllers.PaymentProcess(deps.Payments, logg))

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/{articleId}", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Delete("/{articleId}", controllers.WishlistRemove(deps.Wishlist, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(deps.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(deps.Users, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", controllers.AdminArticleCreate(deps.Catalog, logg))
			r.Patch("/{articleId}", controllers.AdminArticleUpdate(deps.Catalog, logg))
			r.Post("/{articleId}/stock", controllers.AdminStockAdjust(deps.Catalog, logg))
			r.Get("/{articleId}/stock-movements", controllers.AdminStockMovements(deps.Catalog, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.AdminPromotionList(deps.Promotions, logg))
			r.Post("/", controllers.AdminPromotionCreate(deps.Promotions, logg))
			r.Get("/{promotionId}", controllers.AdminPromotionDetail(deps.Promotions, logg))
			r.Patch("/{promotionId}", controllers.AdminPromotionUpdate(deps.Promotions, logg))
		})

		r.Put("/orders/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
	})

	return r
}
