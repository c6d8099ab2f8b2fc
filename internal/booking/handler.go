package booking

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
	GetBooking(id int64) (*Booking, error)
	ListBookings(params ListParams) ([]*Booking, error)
	Assign(ctx context.Context, actorID int64, dto AssignBookingDTO) (*Booking, error)
	Update(ctx context.Context, actorID int64, id int64, dto UpdateBookingDTO) (*Booking, error)
	Cancel(ctx context.Context, actorID int64, id int64) (*Booking, error)
	UpdatePaymentStatus(ctx context.Context, actorID int64, dto UpdatePaymentStatusDTO) (*Booking, error)
	BulkUpdateStatus(ctx context.Context, actorID int64, dto BulkStatusDTO) (*BulkResponseDTO, error)
	BulkDelete(ctx context.Context, actorID int64, dto BulkDeleteDTO) (*BulkResponseDTO, error)
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

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Status:        r.URL.Query().Get("status"),
		PaymentStatus: r.URL.Query().Get("payment_status"),
	}
	if v := r.URL.Query().Get("assigned_to"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.AssignedTo = &id
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	bookings, err := h.Service.ListBookings(params)
	if err != nil {
		h.Logger.Error("ListBookings: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}

	b, err := h.Service.GetBooking(id)
	if err != nil {
		h.Logger.Error("GetBooking: service error", "error", err, "booking_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) AssignBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto AssignBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Service.Assign(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Error("AssignBooking: service error", "error", err, "booking_id", dto.BookingID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}

	var dto UpdateBookingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Service.Update(r.Context(), principal.ID, id, dto)
	if err != nil {
		h.Logger.Error("UpdateBooking: service error", "error", err, "booking_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}

	b, err := h.Service.Cancel(r.Context(), principal.ID, id)
	if err != nil {
		h.Logger.Error("CancelBooking: service error", "error", err, "booking_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdatePaymentStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.Service.UpdatePaymentStatus(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Error("UpdatePaymentStatus: service error", "error", err, "booking_id", dto.BookingID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto BulkStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.BulkUpdateStatus(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Error("BulkUpdateStatus: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto BulkDeleteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.BulkDelete(r.Context(), principal.ID, dto)
	if err != nil {
		h.Logger.Error("BulkDelete: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.Logger.Error("booking handler: principal not in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return principal, true
}

func (h *Handler) bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid booking ID")
		return 0, false
	}
	return id, true
}
