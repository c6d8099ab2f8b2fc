package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/locks"
)

func TestBooking(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Booking Module Suite")
}

// Mock repository keeping bookings in memory. UpdateFields merges columns
// the way the SQL UPDATE does.
type mockBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*Booking
	failIDs  map[int64]error
}

func newMockBookingRepo(bookings ...*Booking) *mockBookingRepo {
	m := &mockBookingRepo{
		bookings: make(map[int64]*Booking),
		failIDs:  make(map[int64]error),
	}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingRepo) Create(b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingRepo) GetByID(id int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, internal.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) List(params ListParams) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockBookingRepo) UpdateFields(id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	b, ok := m.bookings[id]
	if !ok {
		return internal.ErrBookingNotFound
	}
	for col, val := range fields {
		switch col {
		case "status":
			b.Status = val.(string)
		case "payment_status":
			b.PaymentStatus = val.(string)
		case "assigned_to":
			if val == nil {
				b.AssignedTo = nil
			} else {
				b.AssignedTo = val.(*int64)
			}
		case "customer_name":
			b.CustomerName = val.(string)
		case "customer_email":
			b.CustomerEmail = val.(string)
		case "customer_phone":
			b.CustomerPhone = val.(string)
		case "package_ref":
			b.PackageRef = val.(string)
		case "updated_at":
			b.UpdatedAt = val.(time.Time)
		}
	}
	return nil
}

func (m *mockBookingRepo) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	if _, ok := m.bookings[id]; !ok {
		return internal.ErrBookingNotFound
	}
	delete(m.bookings, id)
	return nil
}

type mockLedger struct {
	completed map[int64]bool
	err       error
}

func (m *mockLedger) HasCompletedTransaction(bookingID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.completed[bookingID], nil
}

type auditEntry struct {
	actorID *int64
	action  string
	subject int64
	detail  map[string]interface{}
}

type mockAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditor) Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{actorID: actorID, action: action, subject: subjectID, detail: detail})
}

func (m *mockAuditor) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.action
	}
	return out
}

func pendingBooking(id int64) *Booking {
	return &Booking{
		ID:            id,
		CustomerName:  "Asha Verma",
		CustomerEmail: "asha@example.com",
		PackageRef:    "GOA-5D",
		Amount:        125000,
		Currency:      "INR",
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
	}
}

var _ = ginkgo.Describe("BookingService", func() {
	var (
		service *Service
		repo    *mockBookingRepo
		ledger  *mockLedger
		auditor *mockAuditor
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newMockBookingRepo(pendingBooking(1), pendingBooking(2))
		ledger = &mockLedger{completed: make(map[int64]bool)}
		auditor = &mockAuditor{}
		service = NewService(repo, ledger, locks.NewKeyMutex(), auditor, slog.Default())
		ctx = context.Background()
	})

	ginkgo.Describe("Assign", func() {
		ginkgo.It("should set the assignment on an active booking", func() {
			staff := int64(7)
			b, err := service.Assign(ctx, 99, AssignBookingDTO{BookingID: 1, AssignedTo: &staff})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(*b.AssignedTo).To(gomega.Equal(int64(7)))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionAssign))
		})

		ginkgo.It("should clear the assignment when assigned_to is nil", func() {
			staff := int64(7)
			_, err := service.Assign(ctx, 99, AssignBookingDTO{BookingID: 1, AssignedTo: &staff})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			b, err := service.Assign(ctx, 99, AssignBookingDTO{BookingID: 1, AssignedTo: nil})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(b.AssignedTo).To(gomega.BeNil())
		})

		ginkgo.It("should refuse to assign a cancelled booking", func() {
			_, err := service.Cancel(ctx, 99, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			staff := int64(7)
			_, err = service.Assign(ctx, 99, AssignBookingDTO{BookingID: 1, AssignedTo: &staff})
			gomega.Expect(err).To(gomega.Equal(internal.ErrBookingCancelled))
		})

		ginkgo.It("should return not found for an unknown booking", func() {
			staff := int64(7)
			_, err := service.Assign(ctx, 99, AssignBookingDTO{BookingID: 404, AssignedTo: &staff})
			gomega.Expect(err).To(gomega.Equal(internal.ErrBookingNotFound))
		})

		ginkgo.It("should not lose a concurrent payment-status write to the same booking", func() {
			staff := int64(7)
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = service.Assign(ctx, 99, AssignBookingDTO{BookingID: 1, AssignedTo: &staff})
			}()
			go func() {
				defer wg.Done()
				_ = repo.UpdateFields(1, map[string]interface{}{"payment_status": PaymentStatusPaid})
			}()
			wg.Wait()

			b, err := repo.GetByID(1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(*b.AssignedTo).To(gomega.Equal(int64(7)))
			gomega.Expect(b.PaymentStatus).To(gomega.Equal(PaymentStatusPaid))
		})
	})

	ginkgo.Describe("Update", func() {
		ginkgo.It("should apply only the provided fields", func() {
			name := "Asha V."
			b, err := service.Update(ctx, 99, 1, UpdateBookingDTO{CustomerName: &name})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(b.CustomerName).To(gomega.Equal("Asha V."))
			gomega.Expect(b.CustomerEmail).To(gomega.Equal("asha@example.com"))
			gomega.Expect(b.PackageRef).To(gomega.Equal("GOA-5D"))
		})

		ginkgo.It("should reject an empty update", func() {
			_, err := service.Update(ctx, 99, 1, UpdateBookingDTO{})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Cancel", func() {
		ginkgo.It("should cancel a pending booking", func() {
			b, err := service.Cancel(ctx, 99, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(b.Status).To(gomega.Equal(StatusCancelled))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionCancel))
		})

		ginkgo.It("should cancel a confirmed booking", func() {
			gomega.Expect(repo.UpdateFields(1, map[string]interface{}{"status": StatusConfirmed})).To(gomega.Succeed())

			b, err := service.Cancel(ctx, 99, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(b.Status).To(gomega.Equal(StatusCancelled))
		})

		ginkgo.It("should conflict on an already cancelled booking", func() {
			_, err := service.Cancel(ctx, 99, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Cancel(ctx, 99, 1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrBookingCancelled))
		})
	})

	ginkgo.Describe("UpdatePaymentStatus", func() {
		ginkgo.Context("setting paid without a completed transaction", func() {
			ginkgo.It("should conflict without the override flag", func() {
				_, err := service.UpdatePaymentStatus(ctx, 99, UpdatePaymentStatusDTO{
					BookingID:     1,
					PaymentStatus: PaymentStatusPaid,
				})

				gomega.Expect(err).To(gomega.Equal(internal.ErrNoCompletedPayment))
				b, _ := repo.GetByID(1)
				gomega.Expect(b.PaymentStatus).To(gomega.Equal(PaymentStatusPending))
			})

			ginkgo.It("should apply and audit the change with the override flag", func() {
				b, err := service.UpdatePaymentStatus(ctx, 99, UpdatePaymentStatusDTO{
					BookingID:     1,
					PaymentStatus: PaymentStatusPaid,
					Override:      true,
					Reason:        "bank transfer received offline",
				})

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(b.PaymentStatus).To(gomega.Equal(PaymentStatusPaid))
				gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionPaymentOverride))
			})
		})

		ginkgo.It("should set paid without override when the ledger has a completed transaction", func() {
			ledger.completed[1] = true

			b, err := service.UpdatePaymentStatus(ctx, 99, UpdatePaymentStatusDTO{
				BookingID:     1,
				PaymentStatus: PaymentStatusPaid,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(b.PaymentStatus).To(gomega.Equal(PaymentStatusPaid))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionPaymentEdit))
			gomega.Expect(auditor.actions()).ToNot(gomega.ContainElement(AuditActionPaymentOverride))
		})

		ginkgo.It("should reject an unknown payment status", func() {
			_, err := service.UpdatePaymentStatus(ctx, 99, UpdatePaymentStatusDTO{
				BookingID:     1,
				PaymentStatus: "settled",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("BulkUpdateStatus", func() {
		ginkgo.It("should report per-id outcomes and keep going past failures", func() {
			ledger.completed[1] = true
			ledger.completed[2] = true

			resp, err := service.BulkUpdateStatus(ctx, 99, BulkStatusDTO{
				BookingIDs: []int64{1, 404, 2},
				Status:     StatusConfirmed,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Results).To(gomega.HaveLen(3))
			gomega.Expect(resp.Succeeded).To(gomega.Equal(2))
			gomega.Expect(resp.Failed).To(gomega.Equal(1))
			gomega.Expect(resp.Results[1].BookingID).To(gomega.Equal(int64(404)))
			gomega.Expect(resp.Results[1].Success).To(gomega.BeFalse())

			b1, _ := repo.GetByID(1)
			b2, _ := repo.GetByID(2)
			gomega.Expect(b1.Status).To(gomega.Equal(StatusConfirmed))
			gomega.Expect(b2.Status).To(gomega.Equal(StatusConfirmed))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionBulkStatus))
			gomega.Expect(auditor.actions()).ToNot(gomega.ContainElement(AuditActionConfirmOverride))
		})

		ginkgo.It("should refuse to confirm a booking with no completed transaction", func() {
			resp, err := service.BulkUpdateStatus(ctx, 99, BulkStatusDTO{
				BookingIDs: []int64{1},
				Status:     StatusConfirmed,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Failed).To(gomega.Equal(1))
			gomega.Expect(resp.Results[0].Error).To(gomega.ContainSubstring("no completed payment"))

			b, _ := repo.GetByID(1)
			gomega.Expect(b.Status).To(gomega.Equal(StatusPending))
			gomega.Expect(auditor.actions()).To(gomega.BeEmpty())
		})

		ginkgo.It("should confirm without a transaction only under the override flag and audit it", func() {
			ledger.completed[2] = true

			resp, err := service.BulkUpdateStatus(ctx, 99, BulkStatusDTO{
				BookingIDs: []int64{1, 2},
				Status:     StatusConfirmed,
				Override:   true,
				Reason:     "paid by bank transfer",
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Succeeded).To(gomega.Equal(2))

			b1, _ := repo.GetByID(1)
			gomega.Expect(b1.Status).To(gomega.Equal(StatusConfirmed))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionBulkStatus))
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionConfirmOverride))

			// Only the booking with no ledger backing is in the override entry.
			for _, e := range auditor.entries {
				if e.action == AuditActionConfirmOverride {
					gomega.Expect(e.detail["booking_ids"]).To(gomega.Equal([]int64{1}))
				}
			}
		})

		ginkgo.It("should cancel in bulk without consulting the ledger", func() {
			ledger.err = errors.New("ledger down")

			resp, err := service.BulkUpdateStatus(ctx, 99, BulkStatusDTO{
				BookingIDs: []int64{1, 2},
				Status:     StatusCancelled,
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Succeeded).To(gomega.Equal(2))
		})
	})

	ginkgo.Describe("BulkDelete", func() {
		ginkgo.It("should delete the known ids and report the unknown one", func() {
			resp, err := service.BulkDelete(ctx, 99, BulkDeleteDTO{BookingIDs: []int64{1, 404, 2}})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.Succeeded).To(gomega.Equal(2))
			gomega.Expect(resp.Failed).To(gomega.Equal(1))

			_, err = repo.GetByID(1)
			gomega.Expect(err).To(gomega.Equal(internal.ErrBookingNotFound))
			_, err = repo.GetByID(2)
			gomega.Expect(err).To(gomega.Equal(internal.ErrBookingNotFound))
		})

		ginkgo.It("should audit the deleted ids", func() {
			_, err := service.BulkDelete(ctx, 99, BulkDeleteDTO{BookingIDs: []int64{1}})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(auditor.actions()).To(gomega.ContainElement(AuditActionBulkDelete))
		})

		ginkgo.It("should reject an empty id list", func() {
			_, err := service.BulkDelete(ctx, 99, BulkDeleteDTO{})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
