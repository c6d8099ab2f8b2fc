package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/paymentgateway"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport"
)

const maxWebhookBodySize = 1 << 20

// WebhookServiceAPI is the slice of the payment service the webhook
// processor drives.
type WebhookServiceAPI interface {
	ApplyGatewayEvent(ctx context.Context, event GatewayEvent) error
	RecordUnknownEvent(ctx context.Context, eventType, gatewayRef string)
}

// WebhookHandler terminates the gateway's webhook deliveries. The endpoint
// carries no user token; the HMAC signature over the raw body is the only
// authentication.
type WebhookHandler struct {
	*transport.BaseHandler
	service WebhookServiceAPI
	secret  []byte
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service WebhookServiceAPI, webhookSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		secret:      []byte(webhookSecret),
		logger:      logger,
	}
}

type webhookAckResponse struct {
	Status string `json:"status"`
}

// ProcessWebhook verifies, parses, and applies one gateway event.
// Status codes follow the sender's retry contract: 400 means the payload
// will never succeed, 503 means redeliver later.
func (h *WebhookHandler) ProcessWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		h.HandleError(w, internal.NewValidationError("unreadable request body", internal.ErrCodeValidationFailed))
		return
	}

	signature := r.Header.Get(paymentgateway.SignatureHeader)
	if !paymentgateway.Verify(h.secret, body, signature) {
		h.logger.Warn("webhook signature verification failed",
			"remote_addr", r.RemoteAddr,
			"has_signature", signature != "")
		h.HandleError(w, internal.ErrInvalidSignature)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Warn("malformed webhook payload", "error", err)
		h.HandleError(w, internal.NewValidationError("malformed webhook payload", internal.ErrCodeValidationFailed))
		return
	}

	var data webhookEventData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			h.logger.Warn("malformed webhook event data", "error", err, "event_type", envelope.Type)
			h.HandleError(w, internal.NewValidationError("malformed webhook payload", internal.ErrCodeValidationFailed))
			return
		}
	}

	event := GatewayEvent{
		Type:           envelope.Type,
		GatewayRef:     data.GatewayRef,
		Amount:         data.Amount,
		Currency:       data.Currency,
		AmountRefunded: data.AmountRefunded,
		FailureReason:  data.FailureReason,
		Raw:            body,
	}

	if event.ImpliedStatus() == "" {
		// Acknowledge so the sender stops retrying, but leave a trace.
		h.service.RecordUnknownEvent(r.Context(), envelope.Type, data.GatewayRef)
		h.WriteJSON(w, http.StatusOK, webhookAckResponse{Status: "ignored"})
		return
	}

	if event.GatewayRef == "" {
		h.HandleError(w, internal.NewValidationError("gateway_ref is required", internal.ErrCodeValidationFailed))
		return
	}

	h.logger.Info("processing webhook event",
		"event_type", event.Type,
		"gateway_ref", event.GatewayRef)

	if err := h.service.ApplyGatewayEvent(r.Context(), event); err != nil {
		h.logger.Error("webhook event processing failed",
			"event_type", event.Type,
			"gateway_ref", event.GatewayRef,
			"error", err,
			"retryable", internal.IsRetryable(err))
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, webhookAckResponse{Status: "processed"})
}
