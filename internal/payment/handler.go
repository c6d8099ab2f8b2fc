package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport"
	"github.com/mir-ashiq/Travelers-sub001/pkg/logger"
)

type ServiceAPI interface {
	CreatePaymentIntent(ctx context.Context, dto CreateIntentDTO) (*IntentResponseDTO, error)
	Refund(ctx context.Context, actorID int64, dto RefundDTO) (*RefundResponseDTO, error)
	GetTransactions(bookingID int64) ([]*Transaction, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreatePaymentIntent is reachable without a token. The booking id is the
// only input; amount and currency always come from the stored booking.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var dto CreateIntentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.CreatePaymentIntent(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreatePaymentIntent: service error", "error", err, "booking_id", dto.BookingID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto RefundDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Refund(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Error("Refund: service error", "error", err, "booking_id", dto.BookingID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid booking ID")
		return
	}

	txs, err := h.Service.GetTransactions(id)
	if err != nil {
		h.Logger.Error("GetTransactions: service error", "error", err, "booking_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.Logger.Error("payment handler: principal not in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return principal, true
}
