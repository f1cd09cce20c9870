// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Finatrades/finatradesgold-sub015/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Per-user ledger routes
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/balance", ledgerHandler.GetBalance)
		r.Get("/batches", ledgerHandler.ListBatches)
		r.Get("/transfers", ledgerHandler.GetTransferHistory)
		r.Post("/spend-validations", ledgerHandler.ValidateSpend)
		r.Post("/transfers", ledgerHandler.Transfer)
	})

	// Batch routes used by the purchase, BNSL and trade collaborators
	r.Route("/batches", func(r chi.Router) {
		r.Post("/", ledgerHandler.CreateBatch)
		r.Post("/{batchID}/retag", ledgerHandler.RetagBucket)
	})

	return r
}
