package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("PermissionTable", func() {
	var table *PermissionTable

	ginkgo.BeforeEach(func() {
		table = NewPermissionTable()
	})

	ginkgo.Describe("Validate", func() {
		ginkgo.It("should accept the production matrix", func() {
			gomega.Expect(table.Validate()).To(gomega.Succeed())
		})

		ginkgo.It("should reject a matrix missing a role", func() {
			delete(table.grants, RoleSupport)
			gomega.Expect(table.Validate()).ToNot(gomega.Succeed())
		})

		ginkgo.It("should reject a matrix with an absent cell", func() {
			delete(table.grants[RoleGuide], CapBookingsRefund)
			err := table.Validate()
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("missing explicit cell"))
		})

		ginkgo.It("should reject a matrix naming an unknown capability", func() {
			table.grants[RoleAdmin]["teleport"] = true
			gomega.Expect(table.Validate()).ToNot(gomega.Succeed())
		})

		ginkgo.It("should reject a matrix naming an unknown role", func() {
			table.grants["intern"] = map[Capability]bool{}
			gomega.Expect(table.Validate()).ToNot(gomega.Succeed())
		})
	})

	ginkgo.Describe("Allows", func() {
		ginkgo.It("should grant admin every capability", func() {
			for _, cap := range AllCapabilities() {
				granted, modeled := table.Allows(RoleAdmin, cap)
				gomega.Expect(modeled).To(gomega.BeTrue())
				gomega.Expect(granted).To(gomega.BeTrue(), string(cap))
			}
		})

		ginkgo.It("should deny manager delete and role changes but grant the rest", func() {
			granted, _ := table.Allows(RoleManager, CapBookingsDelete)
			gomega.Expect(granted).To(gomega.BeFalse())
			granted, _ = table.Allows(RoleManager, CapUsersChangeRole)
			gomega.Expect(granted).To(gomega.BeFalse())
			granted, _ = table.Allows(RoleManager, CapBookingsRefund)
			gomega.Expect(granted).To(gomega.BeTrue())
		})

		ginkgo.It("should restrict guide to view only", func() {
			for _, cap := range AllCapabilities() {
				granted, modeled := table.Allows(RoleGuide, cap)
				gomega.Expect(modeled).To(gomega.BeTrue())
				gomega.Expect(granted).To(gomega.Equal(cap == CapBookingsView), string(cap))
			}
		})

		ginkgo.It("should give support view and edit only", func() {
			for _, cap := range AllCapabilities() {
				granted, _ := table.Allows(RoleSupport, cap)
				want := cap == CapBookingsView || cap == CapBookingsEdit
				gomega.Expect(granted).To(gomega.Equal(want), string(cap))
			}
		})

		ginkgo.It("should report an unknown role as unmodeled", func() {
			granted, modeled := table.Allows("contractor", CapBookingsView)
			gomega.Expect(granted).To(gomega.BeFalse())
			gomega.Expect(modeled).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CapabilitiesOf", func() {
		ginkgo.It("should list only granted capabilities, sorted", func() {
			caps := table.CapabilitiesOf(RoleSupport)
			gomega.Expect(caps).To(gomega.Equal([]Capability{CapBookingsEdit, CapBookingsView}))
		})

		ginkgo.It("should return the empty set for an unknown role", func() {
			gomega.Expect(table.CapabilitiesOf("contractor")).To(gomega.BeEmpty())
		})
	})
})
