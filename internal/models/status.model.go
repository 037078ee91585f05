package models

// ReservationStatus is the lifecycle state of a reservation. Transitions
// between statuses are governed by the transition graph and may only be
// performed through the transition coordinator.
type ReservationStatus string

const (
	StatusConfirmationPending ReservationStatus = "CONFIRMATION_PENDING"
	StatusConfirmed           ReservationStatus = "CONFIRMED"
	StatusCheckinDue          ReservationStatus = "CHECKIN_DUE"
	StatusInHouse             ReservationStatus = "IN_HOUSE"
	StatusCheckoutDue         ReservationStatus = "CHECKOUT_DUE"
	StatusCheckedOut          ReservationStatus = "CHECKED_OUT"
	StatusNoShow              ReservationStatus = "NO_SHOW"
	StatusCancelled           ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status has no outgoing edges other than the
// explicit undo/reactivate edges handled by the transition graph.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentRefunded      PaymentStatus = "REFUNDED"
)

// Role is the normalized property-level role an actor holds. Org-level roles
// are mapped onto these before any rule evaluation happens.
type Role string

const (
	RoleFrontDesk   Role = "FRONT_DESK"
	RoleHousekeeper Role = "HOUSEKEEPER"
	RolePropertyMgr Role = "PROPERTY_MGR"
	RoleOrgAdmin    Role = "ORG_ADMIN"
	RoleSystem      Role = "SYSTEM"
)

// roleLevels orders roles by authority. Higher wins.
var roleLevels = map[Role]int{
	RoleHousekeeper: 1,
	RoleFrontDesk:   2,
	RolePropertyMgr: 3,
	RoleOrgAdmin:    4,
	RoleSystem:      4,
}

// Level returns the authority level of the role, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r carries at least the authority of other.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// orgRoleEquivalents maps organization-level roles onto their property-role
// equivalents so rule logic never branches on raw org role strings.
var orgRoleEquivalents = map[string]Role{
	"OWNER":       RoleOrgAdmin,
	"ORG_ADMIN":   RoleOrgAdmin,
	"SUPER_ADMIN": RoleOrgAdmin,
	"ADMIN":       RolePropertyMgr,
}

// EffectiveRole resolves the single normalized role for an actor from their
// org-level and property-level memberships. The stronger of the two wins;
// actors with no recognized role resolve to FRONT_DESK-below authority
// (level 0) and fail every elevated-role gate.
func EffectiveRole(orgRole string, propertyRole Role) Role {
	resolved := propertyRole

	if mapped, ok := orgRoleEquivalents[orgRole]; ok {
		if mapped.Level() > resolved.Level() {
			resolved = mapped
		}
	}

	return resolved
}
