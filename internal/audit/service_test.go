package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
)

func TestAudit(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Audit Module Suite")
}

type mockAuditRepo struct {
	mu        sync.Mutex
	entries   []*Entry
	createErr error
}

func (m *mockAuditRepo) Create(entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) List(params ListParams) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Entry
	for _, e := range m.entries {
		if params.Action != "" && e.Action != params.Action {
			continue
		}
		out = append(out, e)
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (m *mockAuditRepo) last() *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[len(m.entries)-1]
}

var _ = ginkgo.Describe("Audit Service", func() {
	var (
		repo    *mockAuditRepo
		service *Service
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &mockAuditRepo{}
		service = NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("Record", func() {
		ginkgo.It("appends an entry with the encoded detail", func() {
			actorID := int64(7)
			service.Record(ctx, &actorID, "booking.cancel", "booking", 42, map[string]interface{}{
				"previous_status": "confirmed",
			})

			entry := repo.last()
			gomega.Expect(entry).NotTo(gomega.BeNil())
			gomega.Expect(entry.Action).To(gomega.Equal("booking.cancel"))
			gomega.Expect(entry.SubjectID).To(gomega.Equal(int64(42)))
			gomega.Expect(*entry.ActorID).To(gomega.Equal(int64(7)))

			var detail map[string]interface{}
			gomega.Expect(json.Unmarshal(entry.Detail, &detail)).To(gomega.Succeed())
			gomega.Expect(detail).To(gomega.HaveKeyWithValue("previous_status", "confirmed"))
		})

		ginkgo.It("records system actions with a nil actor", func() {
			service.Record(ctx, nil, "webhook.unknown_event", "webhook", 0, nil)

			entry := repo.last()
			gomega.Expect(entry).NotTo(gomega.BeNil())
			gomega.Expect(entry.ActorID).To(gomega.BeNil())
			gomega.Expect(entry.Detail).To(gomega.BeEmpty())
		})

		ginkgo.It("swallows repository failures", func() {
			repo.createErr = errors.New("connection refused")

			gomega.Expect(func() {
				service.Record(ctx, nil, "booking.cancel", "booking", 42, nil)
			}).NotTo(gomega.Panic())
			gomega.Expect(repo.last()).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("RecordDenial", func() {
		ginkgo.It("captures the actor, role, and required capabilities", func() {
			principal := &auth.Principal{ID: 9, Role: auth.RoleGuide}
			service.RecordDenial(ctx, principal, []auth.Capability{auth.CapBookingsDelete})

			entry := repo.last()
			gomega.Expect(entry).NotTo(gomega.BeNil())
			gomega.Expect(entry.Action).To(gomega.Equal(ActionAccessDenied))
			gomega.Expect(*entry.ActorID).To(gomega.Equal(int64(9)))

			var detail map[string]interface{}
			gomega.Expect(json.Unmarshal(entry.Detail, &detail)).To(gomega.Succeed())
			gomega.Expect(detail).To(gomega.HaveKeyWithValue("role", string(auth.RoleGuide)))
			gomega.Expect(detail["required_capabilities"]).To(gomega.ContainElement(string(auth.CapBookingsDelete)))
		})

		ginkgo.It("handles a missing principal", func() {
			service.RecordDenial(ctx, nil, []auth.Capability{auth.CapBookingsView})

			entry := repo.last()
			gomega.Expect(entry).NotTo(gomega.BeNil())
			gomega.Expect(entry.ActorID).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("defaults the page size", func() {
			for i := 0; i < 60; i++ {
				service.Record(ctx, nil, "booking.cancel", "booking", int64(i), nil)
			}

			entries, err := service.List(ListParams{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(50))
		})

		ginkgo.It("filters by action", func() {
			service.Record(ctx, nil, "booking.cancel", "booking", 1, nil)
			service.Record(ctx, nil, "payment.refund", "booking", 1, nil)

			entries, err := service.List(ListParams{Action: "payment.refund"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(1))
			gomega.Expect(entries[0].Action).To(gomega.Equal("payment.refund"))
		})
	})
})
