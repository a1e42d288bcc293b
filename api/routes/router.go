package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcastellan/terravia-backend/api/controllers"
	"github.com/mcastellan/terravia-backend/api/middleware"
	"github.com/mcastellan/terravia-backend/internal/auth"
	"github.com/mcastellan/terravia-backend/internal/cart"
	"github.com/mcastellan/terravia-backend/internal/catalog"
	checkoutsvc "github.com/mcastellan/terravia-backend/internal/checkout"
	"github.com/mcastellan/terravia-backend/internal/coupons"
	"github.com/mcastellan/terravia-backend/internal/notifications"
	"github.com/mcastellan/terravia-backend/internal/orders"
	"github.com/mcastellan/terravia-backend/internal/payments"
	"github.com/mcastellan/terravia-backend/internal/users"
	"github.com/mcastellan/terravia-backend/internal/wishlist"
	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/db"
	"github.com/mcastellan/terravia-backend/pkg/logger"
	"github.com/mcastellan/terravia-backend/pkg/redis"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Coupons       coupons.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Payments      payments.Service
	Notifications notifications.Service
	Wishlist      wishlist.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(svcs.Auth, logg))
		r.Post("/login", controllers.Login(svcs.Auth, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svcs.Catalog, logg))
		r.Get("/packages", controllers.ListPackages(svcs.Catalog, logg))
		r.Get("/packages/{packageId}", controllers.GetPackage(svcs.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.GetProfile(svcs.Users, logg))
			r.Put("/me", controllers.UpdateProfile(svcs.Users, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Delete("/", controllers.ClearCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Put("/items/{lineId}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/items/{lineId}", controllers.RemoveCartItem(svcs.Cart, logg))
		})

		r.Post("/coupons/validate", controllers.ValidateCoupon(svcs.Coupons, svcs.Cart, logg))

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Post("/{orderId}/coupon", controllers.ApplyOrderCoupon(svcs.Checkout, logg))
			r.Get("/{orderId}/payments", controllers.ListOrderPayments(svcs.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.ProcessPayment(svcs.Payments, logg))
			r.Get("/{paymentId}", controllers.GetPayment(svcs.Payments, logg))
			r.Post("/{paymentId}/cancel", controllers.CancelPayment(svcs.Payments, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.ListWishlist(svcs.Wishlist, logg))
			r.Post("/{productId}", controllers.AddWishlistItem(svcs.Wishlist, logg))
			r.Delete("/{productId}", controllers.RemoveWishlistItem(svcs.Wishlist, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CreateProduct(svcs.Catalog, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(svcs.Catalog, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(svcs.Catalog, logg))
			})
			r.Route("/packages", func(r chi.Router) {
				r.Post("/", controllers.CreatePackage(svcs.Catalog, logg))
				r.Patch("/{packageId}", controllers.UpdatePackage(svcs.Catalog, logg))
				r.Delete("/{packageId}", controllers.DeletePackage(svcs.Catalog, logg))
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Post("/", controllers.CreateCoupon(svcs.Coupons, logg))
				r.Get("/", controllers.ListCoupons(svcs.Coupons, logg))
				r.Get("/{code}", controllers.GetCoupon(svcs.Coupons, logg))
				r.Patch("/{couponId}", controllers.UpdateCoupon(svcs.Coupons, logg))
				r.Post("/{couponId}/deactivate", controllers.DeactivateCoupon(svcs.Coupons, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
			})
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.ListPayments(svcs.Payments, logg))
				r.Post("/{paymentId}/refund", controllers.RefundPayment(svcs.Payments, logg))
			})
		})
	})

	return r
}
