package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mir-ashiq/Travelers-sub001/internal/transport"
	"github.com/mir-ashiq/Travelers-sub001/pkg/logger"
)

type ServiceAPI interface {
	List(params ListParams) ([]*Entry, error)
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

// ListEntries handles GET /audit. The route sits behind the admin guard.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Action:      r.URL.Query().Get("action"),
		SubjectType: r.URL.Query().Get("subject_type"),
	}
	if v := r.URL.Query().Get("subject_id"); v != "" {
		params.SubjectID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("actor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.ActorID = &id
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	entries, err := h.Service.List(params)
	if err != nil {
		h.Logger.Error("ListEntries: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
