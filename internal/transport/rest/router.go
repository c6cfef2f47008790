package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/kitenge/shop-backend/internal/order"
	"github.com/kitenge/shop-backend/internal/payment"
	"github.com/kitenge/shop-backend/internal/transport/middleware"
	"github.com/kitenge/shop-backend/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, orderHandler *order.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Carrier callback is unauthenticated by contract; Daraja signs
		// nothing, the unguessable request ids are the only correlation.
		if webhookHandler != nil {
			r.Post("/callbacks/mpesa", webhookHandler.HandleMpesaCallback)
		}

		if orderHandler != nil {
			r.Route("/orders", func(or chi.Router) {
				or.Post("/", orderHandler.CreateOrder)
				or.Get("/{orderNumber}", orderHandler.GetOrder)
			})
		}

		if paymentHandler != nil {
			r.Route("/payments/mpesa", func(pr chi.Router) {
				pr.Post("/", paymentHandler.InitiateSTKPush)
				pr.Get("/status", paymentHandler.Status)
			})
		}
	})
}
