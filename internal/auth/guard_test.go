package auth

import (
	"context"
	"log/slog"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mir-ashiq/Travelers-sub001/internal"
)

type recordedDenial struct {
	principal *Principal
	required  []Capability
}

type mockDenialRecorder struct {
	denials []recordedDenial
}

func (m *mockDenialRecorder) RecordDenial(ctx context.Context, principal *Principal, required []Capability) {
	m.denials = append(m.denials, recordedDenial{principal: principal, required: required})
}

var _ = ginkgo.Describe("Guard", func() {
	var (
		guard    *Guard
		recorder *mockDenialRecorder
		manager  *Principal
		guide    *Principal
		admin    *Principal
	)

	ginkgo.BeforeEach(func() {
		recorder = &mockDenialRecorder{}
		guard = NewGuard(NewPermissionTable(), recorder, slog.Default())
		admin = &Principal{ID: 1, Email: "admin@travelers.test", Role: RoleAdmin}
		manager = &Principal{ID: 2, Email: "manager@travelers.test", Role: RoleManager}
		guide = &Principal{ID: 3, Email: "guide@travelers.test", Role: RoleGuide}
	})

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("should allow a role holding the capability", func() {
			err := guard.Authorize(context.Background(), manager, RequireAll, CapBookingsEdit)
			gomega.Expect(err).To(gomega.BeNil())
		})

		ginkgo.It("should deny a role lacking the capability", func() {
			err := guard.Authorize(context.Background(), guide, RequireAll, CapBookingsEdit)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("should decide allow or deny purely from the permission table", func() {
			table := NewPermissionTable()
			for _, role := range AllRoles() {
				for _, cap := range AllCapabilities() {
					p := &Principal{ID: 99, Role: role}
					err := guard.Authorize(context.Background(), p, RequireAll, cap)
					granted, _ := table.Allows(role, cap)
					if granted {
						gomega.Expect(err).To(gomega.BeNil(), "%s/%s", role, cap)
					} else {
						gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden), "%s/%s", role, cap)
					}
				}
			}
		})

		ginkgo.It("should require every capability under RequireAll", func() {
			err := guard.Authorize(context.Background(), manager, RequireAll, CapBookingsEdit, CapBookingsDelete)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("should require only one capability under RequireAny", func() {
			err := guard.Authorize(context.Background(), manager, RequireAny, CapBookingsEdit, CapBookingsDelete)
			gomega.Expect(err).To(gomega.BeNil())
		})

		ginkgo.It("should deny a principal with an unknown role", func() {
			stranger := &Principal{ID: 42, Role: "contractor"}
			err := guard.Authorize(context.Background(), stranger, RequireAll, CapBookingsView)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})

		ginkgo.It("should treat a missing principal as unauthenticated", func() {
			err := guard.Authorize(context.Background(), nil, RequireAll, CapBookingsView)
			gomega.Expect(err).To(gomega.Equal(internal.ErrMissingToken))
		})

		ginkgo.It("should record denials for the audit trail", func() {
			_ = guard.Authorize(context.Background(), guide, RequireAll, CapBookingsRefund)

			gomega.Expect(recorder.denials).To(gomega.HaveLen(1))
			gomega.Expect(recorder.denials[0].principal.ID).To(gomega.Equal(int64(3)))
			gomega.Expect(recorder.denials[0].required).To(gomega.Equal([]Capability{CapBookingsRefund}))
		})

		ginkgo.It("should not record anything on allow", func() {
			_ = guard.Authorize(context.Background(), admin, RequireAll, CapBookingsRefund)
			gomega.Expect(recorder.denials).To(gomega.BeEmpty())
		})

		ginkgo.It("should not name the missing capability in the error", func() {
			err := guard.Authorize(context.Background(), guide, RequireAll, CapBookingsRefund)
			gomega.Expect(err.Message).ToNot(gomega.ContainSubstring(string(CapBookingsRefund)))
		})
	})

	ginkgo.Describe("AuthorizeAnyOfSets", func() {
		ginkgo.It("should allow when one set is fully held", func() {
			err := guard.AuthorizeAnyOfSets(context.Background(), manager,
				[]Capability{CapBookingsDelete},
				[]Capability{CapBookingsEdit, CapBookingsReassign},
			)
			gomega.Expect(err).To(gomega.BeNil())
		})

		ginkgo.It("should deny when every set has a gap", func() {
			err := guard.AuthorizeAnyOfSets(context.Background(), guide,
				[]Capability{CapBookingsDelete},
				[]Capability{CapBookingsEdit},
			)
			gomega.Expect(err).To(gomega.Equal(internal.ErrForbidden))
		})
	})
})
