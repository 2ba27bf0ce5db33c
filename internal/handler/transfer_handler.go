package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"money-transfer/internal/errors"
	"money-transfer/internal/metrics"
	"money-transfer/internal/middleware"
	"money-transfer/internal/service"
)

type TransferHandler struct {
	transferService *service.TransferService
	historyService  *service.HistoryService
}

func NewTransferHandler(transferService *service.TransferService, historyService *service.HistoryService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		historyService:  historyService,
	}
}

type TransferRequest struct {
	To      string      `json:"to"`
	Amount  json.Number `json:"amount"`
	Message string      `json:"message,omitempty"`
}

func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	record, err := h.transferService.Transfer(r.Context(), &service.TransferRequest{
		SenderAccountID:  identity.AccountID,
		ReceiverUsername: req.To,
		Amount:           req.Amount.String(),
		Message:          req.Message,
	})
	if err != nil {
		metrics.TransfersTotal.WithLabelValues(transferOutcome(err)).Inc()
		writeServiceError(w, err)
		return
	}

	metrics.TransfersTotal.WithLabelValues("completed").Inc()
	writeJSON(w, http.StatusCreated, record)
}

func transferOutcome(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrInsufficientFunds):
		return "insufficient_funds"
	case stderrors.Is(err, errors.ErrTransferFailed):
		return "failed"
	default:
		return "rejected"
	}
}

func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	records, err := h.historyService.GetHistory(r.Context(), identity.AccountID, page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = service.DefaultPageSize
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transfers": records,
		"page":      page,
		"page_size": pageSize,
	})
}
