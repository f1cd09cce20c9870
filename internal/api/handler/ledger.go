// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/internal/api/types"
	"github.com/Finatrades/finatradesgold-sub015/internal/domain"
	"github.com/Finatrades/finatradesgold-sub015/internal/service"
	"github.com/Finatrades/finatradesgold-sub015/internal/util"
)

// DefaultTimeout bounds request handling time at the router level.
const DefaultTimeout = 60 * time.Second

// LedgerHandler handles HTTP requests for the dual-wallet gold ledger.
type LedgerHandler struct {
	service service.LedgerService
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		logger:  logger,
	}
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidQuantity),
		util.IsError(err, util.ErrInvalidPrice),
		util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrSameWalletTransfer):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrBatchNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrInsufficientBatchBalance):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient batch balance"
	case util.IsError(err, util.ErrBatchNotActive):
		statusCode = http.StatusConflict
		message = "Batch is not active"
	case util.IsError(err, util.ErrConcurrencyConflict):
		statusCode = http.StatusConflict
		message = "Conflicting concurrent operation, retry the request"
	case util.IsError(err, util.ErrStorageUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Storage unavailable"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// GetBalance handles the wallet snapshot request.
// GET /users/{userID}/balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	snapshot, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, snapshot)
}

// ListBatches handles the batch listing request.
// GET /users/{userID}/batches?bucket=
func (h *LedgerHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var bucket *domain.Bucket
	if bucketStr := r.URL.Query().Get("bucket"); bucketStr != "" {
		b := domain.Bucket(bucketStr)
		if !b.Valid() {
			h.respondWithError(w, util.ErrInvalidInput)
			return
		}
		bucket = &b
	}

	batches, err := h.service.ListBatches(r.Context(), userID, bucket)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"batches": batches,
	})
}

// GetTransferHistory handles the transfer history request.
// GET /users/{userID}/transfers
func (h *LedgerHandler) GetTransferHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, totalCount, err := h.service.GetTransferHistory(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.TransferRecord]{
		Data:       records,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}

// SpendValidationRequest represents the request body for spend validation.
type SpendValidationRequest struct {
	Grams  decimal.Decimal `json:"grams"`
	Wallet string          `json:"wallet"`
}

// ValidateSpend handles the spend eligibility request.
// POST /users/{userID}/spend-validations
func (h *LedgerHandler) ValidateSpend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var req SpendValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	check, err := h.service.ValidateSpend(r.Context(), userID, req.Grams, domain.WalletType(req.Wallet))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, check)
}

// TransferRequest represents the request body for an internal transfer.
type TransferRequest struct {
	Grams      decimal.Decimal `json:"grams"`
	FromWallet string          `json:"from_wallet"`
	ToWallet   string          `json:"to_wallet"`
	Notes      *string         `json:"notes"`
}

// Transfer handles the internal transfer request.
// POST /users/{userID}/transfers
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	record, err := h.service.Transfer(
		r.Context(),
		userID,
		req.Grams,
		domain.WalletType(req.FromWallet),
		domain.WalletType(req.ToWallet),
		req.Notes,
	)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Transfer successful",
		"transfer": record,
	})
}

// CreateBatchRequest represents the request body for minting a batch.
type CreateBatchRequest struct {
	OwnerID             string          `json:"owner_id"`
	Grams               decimal.Decimal `json:"grams"`
	LockedPriceUsd      decimal.Decimal `json:"locked_price_usd"`
	Bucket              string          `json:"bucket"`
	SourceTransactionID *string         `json:"source_transaction_id"`
	SourceType          string          `json:"source_type"`
}

// CreateBatch handles the batch creation request from purchase/BNSL/trade flows.
// POST /batches
func (h *LedgerHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	batch, err := h.service.CreateBatch(r.Context(), service.CreateBatchInput{
		OwnerID:             req.OwnerID,
		Grams:               req.Grams,
		LockedPriceUsd:      req.LockedPriceUsd,
		Bucket:              domain.Bucket(req.Bucket),
		SourceTransactionID: req.SourceTransactionID,
		SourceType:          domain.SourceType(req.SourceType),
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, batch)
}

// RetagBucketRequest represents the request body for a bucket retag.
type RetagBucketRequest struct {
	Bucket string `json:"bucket"`
}

// RetagBucket handles the bucket retag request from the BNSL/trade engines.
// POST /batches/{batchID}/retag
func (h *LedgerHandler) RetagBucket(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	var req RetagBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	batch, err := h.service.RetagBucket(r.Context(), batchID, domain.Bucket(req.Bucket))
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, batch)
}
