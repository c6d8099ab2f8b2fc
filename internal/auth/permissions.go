package auth

import (
	"fmt"
	"sort"
)

// Capability is a single named permission bit checked by the guard.
type Capability string

const (
	CapBookingsView          Capability = "bookings_view"
	CapBookingsEdit          Capability = "bookings_edit"
	CapBookingsDelete        Capability = "bookings_delete"
	CapBookingsReassign      Capability = "bookings_reassign"
	CapBookingsUpdatePayment Capability = "bookings_update_payment"
	CapBookingsRefund        Capability = "bookings_refund"
	CapUsersChangeRole       Capability = "users_change_role"
)

func AllCapabilities() []Capability {
	return []Capability{
		CapBookingsView,
		CapBookingsEdit,
		CapBookingsDelete,
		CapBookingsReassign,
		CapBookingsUpdatePayment,
		CapBookingsRefund,
		CapUsersChangeRole,
	}
}

// PermissionTable is the loaded-once role-to-capability matrix. Every cell
// is stated explicitly, true or false: an absent cell is an authoring error
// caught by Validate at startup, never an implicit deny at request time.
type PermissionTable struct {
	grants map[Role]map[Capability]bool
}

// NewPermissionTable returns the static production matrix.
func NewPermissionTable() *PermissionTable {
	return &PermissionTable{
		grants: map[Role]map[Capability]bool{
			RoleAdmin: {
				CapBookingsView:          true,
				CapBookingsEdit:          true,
				CapBookingsDelete:        true,
				CapBookingsReassign:      true,
				CapBookingsUpdatePayment: true,
				CapBookingsRefund:        true,
				CapUsersChangeRole:       true,
			},
			RoleManager: {
				CapBookingsView:          true,
				CapBookingsEdit:          true,
				CapBookingsDelete:        false,
				CapBookingsReassign:      true,
				CapBookingsUpdatePayment: true,
				CapBookingsRefund:        true,
				CapUsersChangeRole:       false,
			},
			RoleGuide: {
				CapBookingsView:          true,
				CapBookingsEdit:          false,
				CapBookingsDelete:        false,
				CapBookingsReassign:      false,
				CapBookingsUpdatePayment: false,
				CapBookingsRefund:        false,
				CapUsersChangeRole:       false,
			},
			RoleSupport: {
				CapBookingsView:          true,
				CapBookingsEdit:          true,
				CapBookingsDelete:        false,
				CapBookingsReassign:      false,
				CapBookingsUpdatePayment: false,
				CapBookingsRefund:        false,
				CapUsersChangeRole:       false,
			},
		},
	}
}

// Validate asserts the matrix is complete: every known role has an explicit
// entry for every known capability and no unknown roles or capabilities
// appear. Run from cmd wiring; a failure aborts startup.
func (t *PermissionTable) Validate() error {
	for _, role := range AllRoles() {
		cells, ok := t.grants[role]
		if !ok {
			return fmt.Errorf("permission table: role %q has no entries", role)
		}
		for _, cap := range AllCapabilities() {
			if _, ok := cells[cap]; !ok {
				return fmt.Errorf("permission table: role %q missing explicit cell for %q", role, cap)
			}
		}
		for cap := range cells {
			if !knownCapability(cap) {
				return fmt.Errorf("permission table: role %q grants unknown capability %q", role, cap)
			}
		}
	}
	for role := range t.grants {
		if !ValidRole(role) {
			return fmt.Errorf("permission table: unknown role %q", role)
		}
	}
	return nil
}

func knownCapability(c Capability) bool {
	for _, known := range AllCapabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// CapabilitiesOf is total: an unknown role yields the empty set (deny-all).
func (t *PermissionTable) CapabilitiesOf(role Role) []Capability {
	cells, ok := t.grants[role]
	if !ok {
		return nil
	}
	var caps []Capability
	for cap, granted := range cells {
		if granted {
			caps = append(caps, cap)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// Allows reports whether role holds cap. modeled distinguishes an explicit
// false cell from a lookup outside the matrix, so tests and logs can tell
// "denied" from "not modeled".
func (t *PermissionTable) Allows(role Role, cap Capability) (granted bool, modeled bool) {
	cells, ok := t.grants[role]
	if !ok {
		return false, false
	}
	granted, modeled = cells[cap]
	return granted, modeled
}
