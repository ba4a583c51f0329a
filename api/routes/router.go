package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/silkmall/silkmall-backend/api/controllers"
	"github.com/silkmall/silkmall-backend/api/middleware"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/internal/returns"
	"github.com/silkmall/silkmall-backend/internal/reviews"
	"github.com/silkmall/silkmall-backend/internal/wallet"
	"github.com/silkmall/silkmall-backend/pkg/config"
	"github.com/silkmall/silkmall-backend/pkg/db"
	"github.com/silkmall/silkmall-backend/pkg/enums"
	"github.com/silkmall/silkmall-backend/pkg/logger"
	"github.com/silkmall/silkmall-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Orders  *orders.Service
	Returns *returns.Service
	Reviews *reviews.Service
	Wallet  *wallet.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": pinger(dbP),
			"redis":    pinger(redisClient),
		}))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Get("/api/v1/products/{productID}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Post("/{orderID}/pay", controllers.PayOrder(svcs.Orders, logg))
			r.Post("/{orderID}/confirm-receipt", controllers.ConfirmReceipt(svcs.Orders, logg))
			r.Patch("/{orderID}/contact", controllers.UpdateOrderContact(svcs.Orders, logg))
		})

		r.Route("/order-items", func(r chi.Router) {
			r.Post("/{itemID}/returns", controllers.CreateReturn(svcs.Returns, logg))
			r.Post("/{itemID}/reviews", controllers.CreateReview(svcs.Reviews, logg))
		})

		r.Get("/returns", controllers.ListReturns(svcs.Returns, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(svcs.Wallet, logg))
			r.Post("/redeem", controllers.RedeemWalletCode(svcs.Wallet, logg))
		})

		r.Route("/supplier", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.AccountRoleSupplier), logg))
			r.Get("/orders", controllers.ListSupplierOrders(svcs.Orders, logg))
			r.Post("/orders/{orderID}/ship", controllers.SupplierShipOrder(svcs.Orders, logg))
			r.Get("/returns", controllers.ListSupplierReturns(svcs.Returns, logg))
			r.Post("/returns/{requestID}/process", controllers.ProcessReturn(svcs.Returns, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.AccountRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
			r.Post("/{orderID}/ship", controllers.AdminShipOrder(svcs.Orders, logg))
			r.Post("/{orderID}/in-transit", controllers.AdminMarkInTransit(svcs.Orders, logg))
			r.Post("/{orderID}/deliver", controllers.AdminDeliverOrder(svcs.Orders, logg))
			r.Post("/{orderID}/approve-payout", controllers.AdminApprovePayout(svcs.Orders, logg))
			r.Post("/{orderID}/revoke", controllers.AdminRevokeOrder(svcs.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.AdminListReturnQueue(svcs.Returns, logg))
			r.Post("/{requestID}/process", controllers.ProcessReturn(svcs.Returns, logg))
		})
	})

	return r
}

func pinger(p db.Pinger) controllers.Pinger {
	if p == nil {
		return nil
	}
	return controllers.PingerFunc(func(r *http.Request) error {
		return p.Ping(r.Context())
	})
}
