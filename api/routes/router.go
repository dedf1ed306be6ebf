package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meadowcart/storefront-backend/api/controllers"
	cartcontrollers "github.com/meadowcart/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/meadowcart/storefront-backend/api/controllers/orders"
	"github.com/meadowcart/storefront-backend/api/middleware"
	cartsvc "github.com/meadowcart/storefront-backend/internal/cart"
	checkoutsvc "github.com/meadowcart/storefront-backend/internal/checkout"
	orderssvc "github.com/meadowcart/storefront-backend/internal/orders"
	"github.com/meadowcart/storefront-backend/pkg/config"
	"github.com/meadowcart/storefront-backend/pkg/db"
	"github.com/meadowcart/storefront-backend/pkg/enums"
	"github.com/meadowcart/storefront-backend/pkg/logger"
	"github.com/meadowcart/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService orderssvc.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireIdentity(logg))
			r.Get("/", cartcontrollers.Fetch(cartService, logg))
			r.Delete("/", cartcontrollers.Clear(cartService, logg))
			r.Post("/items", cartcontrollers.AddItem(cartService, logg))
			r.Put("/items/{productID}", cartcontrollers.UpdateItem(cartService, logg))
			r.Delete("/items/{productID}", cartcontrollers.RemoveItem(cartService, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", cartcontrollers.Merge(cartService, logg))
		})

		r.With(middleware.RequireUser(logg)).Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleProductManager), logg)).
				Put("/{orderID}/status", ordercontrollers.SetStatus(ordersService, logg))
		})
	})

	return r
}
