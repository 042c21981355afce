package handlers

import (
	"math"
	"net/http"
	"strings"

	"finmec/internal/services"
	"finmec/internal/store"
	"finmec/internal/validator"

	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	Title           string          `json:"title"`
	Description     *string         `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	TransactionDate string          `json:"transaction_date"`
	CategoryID      *int64          `json:"category_id"`
	PaymentMethodID *int64          `json:"payment_method_id"`
	WalletID        *int64          `json:"wallet_id"`
	Notes           *string         `json:"notes"`
	ReceiptURL      *string         `json:"receipt_url"`
	Tags            *string         `json:"tags"`
	IsRecurring     bool            `json:"is_recurring"`
	IsConfirmed     *bool           `json:"is_confirmed"`
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	txType, err := validator.ParseTransactionType(req.TransactionType)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	date := h.today()
	if strings.TrimSpace(req.TransactionDate) != "" {
		date, err = validator.ParseDate(req.TransactionDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	confirmed := true
	if req.IsConfirmed != nil {
		confirmed = *req.IsConfirmed
	}
	created, err := h.transactions.Create(r.Context(), services.CreateTransactionInput{
		UserID:          user.ID,
		Title:           strings.TrimSpace(req.Title),
		Description:     optionalString(req.Description),
		Amount:          req.Amount,
		Type:            txType,
		Date:            date,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		WalletID:        req.WalletID,
		Notes:           optionalString(req.Notes),
		ReceiptURL:      optionalString(req.ReceiptURL),
		Tags:            optionalString(req.Tags),
		IsRecurring:     req.IsRecurring,
		IsConfirmed:     confirmed,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to create transaction")
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r.URL.Query(), "limit", 10, 1, 100)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.transactions.GetRecent(r.Context(), user.ID, limit)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	start, end, err := queryRange(query, "data_inicio", "data_fim")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, err := queryID(query, "categoria_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txType, err := queryType(query, "tipo")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(query, "limit", 100, 1, 1000)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(query, "offset", 0, 0, math.MaxInt32)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.transactions.List(r.Context(), user.ID, store.TransactionFilter{
		Start:      start,
		End:        end,
		CategoryID: categoryID,
		Type:       txType,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.transactions.GetByID(r.Context(), user.ID, id)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to load transaction")
		return
	}
	respondJSON(w, http.StatusOK, row)
}

type updateTransactionRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionType *string          `json:"transaction_type"`
	TransactionDate *string          `json:"transaction_date"`
	CategoryID      *int64           `json:"category_id"`
	PaymentMethodID *int64           `json:"payment_method_id"`
	WalletID        *int64           `json:"wallet_id"`
	Notes           *string          `json:"notes"`
	ReceiptURL      *string          `json:"receipt_url"`
	Tags            *string          `json:"tags"`
	IsRecurring     *bool            `json:"is_recurring"`
	IsConfirmed     *bool            `json:"is_confirmed"`
}

func (req updateTransactionRequest) patch() (store.TransactionPatch, error) {
	patch := store.TransactionPatch{
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		WalletID:        req.WalletID,
		Description:     req.Description,
		Amount:          req.Amount,
		Notes:           req.Notes,
		ReceiptURL:      req.ReceiptURL,
		Tags:            req.Tags,
		IsRecurring:     req.IsRecurring,
		IsConfirmed:     req.IsConfirmed,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return patch, services.ErrInvalidTitle
		}
		patch.Title = &title
	}
	if req.TransactionType != nil {
		txType, err := validator.ParseTransactionType(*req.TransactionType)
		if err != nil {
			return patch, err
		}
		patch.Type = &txType
	}
	if req.TransactionDate != nil {
		date, err := validator.ParseDate(*req.TransactionDate)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	return patch, nil
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.transactions.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to update transaction")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.transactions.Delete(r.Context(), user.ID, id); err != nil {
		h.respondServiceError(w, r, err, "unable to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
