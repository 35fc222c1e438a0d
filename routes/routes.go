package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/league-buysell/docs" // swagger spec
	"github.com/Dosada05/league-buysell/handlers"
	"github.com/Dosada05/league-buysell/middleware"
)

type Handlers struct {
	Session     *handlers.SessionHandler
	Marketplace *handlers.MarketplaceHandler
	LockerRoom  *handlers.LockerRoomHandler
	WebSocket   *handlers.WebSocketHandler
	Health      *handlers.HealthHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.LivenessHandler)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)

	// websocket живёт дольше обычного запроса, поэтому без Timeout
	router.With(authenticate).Get("/ws/sessions/{sessionID}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.Session.ListHandler)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.Session.GetByIDHandler)
				r.Get("/buysells", h.Marketplace.ListSessionBuySellsHandler)
				r.Get("/statuses", h.Session.StatusesHandler)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Get("/window", h.Marketplace.WindowHandler)
					r.Post("/buy", h.Marketplace.SubmitBuyHandler)
					r.Post("/sell", h.Marketplace.SubmitSellHandler)
				})
			})
		})

		r.Route("/buysells/{buySellID}", func(r chi.Router) {
			r.Get("/", h.Marketplace.GetBuySellHandler)
			r.Get("/queue-position", h.Marketplace.QueuePositionHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Put("/payment-sent", h.Marketplace.ConfirmPaymentSentHandler)
				r.Delete("/payment-sent", h.Marketplace.UnconfirmPaymentSentHandler)
				r.Put("/payment-received", h.Marketplace.ConfirmPaymentReceivedHandler)
				r.Delete("/payment-received", h.Marketplace.UnconfirmPaymentReceivedHandler)
				r.Delete("/buy", h.Marketplace.CancelBuyHandler)
				r.Delete("/sell", h.Marketplace.CancelSellHandler)
			})
		})

		r.With(authenticate).Get("/lockerroom13", h.LockerRoom.ViewHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleAdmin))
			r.Post("/lockerroom13/snapshot", h.LockerRoom.SnapshotHandler)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
