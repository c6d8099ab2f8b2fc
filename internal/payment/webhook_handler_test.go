package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/paymentgateway"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport"
)

type mockWebhookService struct {
	mu       sync.Mutex
	applied  []GatewayEvent
	unknown  []string
	applyErr error
}

func (m *mockWebhookService) ApplyGatewayEvent(ctx context.Context, event GatewayEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, event)
	return nil
}

func (m *mockWebhookService) RecordUnknownEvent(ctx context.Context, eventType, gatewayRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unknown = append(m.unknown, eventType)
}

var _ = ginkgo.Describe("Webhook Handler", func() {
	const secret = "whsec_test"

	var (
		service *mockWebhookService
		handler *WebhookHandler
	)

	ginkgo.BeforeEach(func() {
		service = &mockWebhookService{}
		handler = NewWebhookHandler(transport.NewBaseHandler(discardLogger()), service, secret, discardLogger())
	})

	deliver := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set(paymentgateway.SignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		handler.ProcessWebhook(rec, req)
		return rec
	}

	signed := func(body []byte) string {
		return paymentgateway.Sign([]byte(secret), body)
	}

	ginkgo.It("applies a correctly signed succeeded event", func() {
		body := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_42","amount":125000,"currency":"INR"}}`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(service.applied).To(gomega.HaveLen(1))
		gomega.Expect(service.applied[0].Type).To(gomega.Equal(EventIntentSucceeded))
		gomega.Expect(service.applied[0].GatewayRef).To(gomega.Equal("pi_42"))
		gomega.Expect(service.applied[0].Amount).To(gomega.Equal(int64(125000)))
	})

	ginkgo.It("rejects a missing signature without touching state", func() {
		body := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_42"}}`)

		rec := deliver(body, "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(service.applied).To(gomega.BeEmpty())
	})

	ginkgo.It("rejects a signature computed over a different body", func() {
		body := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_42"}}`)
		tampered := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_43"}}`)

		rec := deliver(tampered, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(service.applied).To(gomega.BeEmpty())
	})

	ginkgo.It("rejects a malformed payload as permanent", func() {
		body := []byte(`{"type": not json`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(service.applied).To(gomega.BeEmpty())
	})

	ginkgo.It("acknowledges an unknown event type without applying it", func() {
		body := []byte(`{"type":"payment_intent.created","data":{"gateway_ref":"pi_42"}}`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(service.applied).To(gomega.BeEmpty())
		gomega.Expect(service.unknown).To(gomega.ConsistOf("payment_intent.created"))
	})

	ginkgo.It("rejects a known event missing its gateway reference", func() {
		body := []byte(`{"type":"payment_intent.succeeded","data":{"amount":125000}}`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(service.applied).To(gomega.BeEmpty())
	})

	ginkgo.It("answers 503 when processing fails with a retryable error", func() {
		service.applyErr = internal.NewStorageError("failed to update booking", nil)
		body := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_42"}}`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusServiceUnavailable))
	})

	ginkgo.It("answers 404 for an event referencing no known transaction", func() {
		service.applyErr = internal.ErrTransactionNotFound
		body := []byte(`{"type":"payment_intent.succeeded","data":{"gateway_ref":"pi_missing"}}`)

		rec := deliver(body, signed(body))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
	})
})
