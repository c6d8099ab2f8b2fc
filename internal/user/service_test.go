package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockUserRepo struct {
	users     map[int64]*User
	updateErr error
}

func (m *mockUserRepo) GetByID(userID int64) (*User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) List() ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockUserRepo) UpdateRole(userID int64, role auth.Role) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Role = role
	return nil
}

type mockUserAuditor struct {
	actions []string
}

func (a *mockUserAuditor) Record(ctx context.Context, actorID *int64, action, subjectType string, subjectID int64, detail map[string]interface{}) {
	a.actions = append(a.actions, action)
}

var _ = ginkgo.Describe("User Service", func() {
	var (
		repo    *mockUserRepo
		auditor *mockUserAuditor
		service *Service
		ctx     context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &mockUserRepo{users: map[int64]*User{
			1: {ID: 1, Email: "priya@wanderly.example", Name: "Priya Nair", Role: auth.RoleAdmin, IsActive: true},
			2: {ID: 2, Email: "dev@wanderly.example", Name: "Dev Kapoor", Role: auth.RoleGuide, IsActive: true},
		}}
		auditor = &mockUserAuditor{}
		service = NewService(repo, auth.NewPermissionTable(), auditor, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("Profile", func() {
		ginkgo.It("resolves the capability set from the role", func() {
			profile, err := service.Profile(2)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(profile.Role).To(gomega.Equal(auth.RoleGuide))
			gomega.Expect(profile.Capabilities).To(gomega.ConsistOf(auth.CapBookingsView))
		})

		ginkgo.It("fails for an unknown user", func() {
			_, err := service.Profile(99)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("ChangeRole", func() {
		ginkgo.It("updates the role and audits the transition", func() {
			u, err := service.ChangeRole(ctx, 1, 2, ChangeRoleDTO{Role: "support"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleSupport))
			gomega.Expect(repo.users[2].Role).To(gomega.Equal(auth.RoleSupport))
			gomega.Expect(auditor.actions).To(gomega.ConsistOf(AuditActionChangeRole))
		})

		ginkgo.It("rejects a role outside the enumeration", func() {
			_, err := service.ChangeRole(ctx, 1, 2, ChangeRoleDTO{Role: "superuser"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(repo.users[2].Role).To(gomega.Equal(auth.RoleGuide))
		})

		ginkgo.It("is a no-op when the role is unchanged", func() {
			u, err := service.ChangeRole(ctx, 1, 2, ChangeRoleDTO{Role: "guide"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleGuide))
			gomega.Expect(auditor.actions).To(gomega.BeEmpty())
		})

		ginkgo.It("surfaces a retryable error when the write fails", func() {
			repo.updateErr = errors.New("connection refused")

			_, err := service.ChangeRole(ctx, 1, 2, ChangeRoleDTO{Role: "support"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(auditor.actions).To(gomega.BeEmpty())
		})
	})
})
