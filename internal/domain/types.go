package domain

type Phase string

const (
	PhasePending Phase = "PENDING"
	PhaseOpen    Phase = "OPEN"
	PhaseClosed  Phase = "CLOSED"
)

type MessageKind string

const (
	MessageKindText      MessageKind = "TEXT"
	MessageKindFile      MessageKind = "FILE"
	MessageKindSystem    MessageKind = "SYSTEM"
	MessageKindAutomated MessageKind = "AUTOMATED"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleAgent    UserRole = "AGENT"
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleSystem   UserRole = "SYSTEM"
)

// Side distinguishes the two parties of a support conversation when
// bookkeeping unread counters and read receipts. System and automated
// senders count as the agent side.
type Side string

const (
	SideCustomer Side = "CUSTOMER"
	SideAgent    Side = "AGENT"
)

// Opposite returns the counterpart side, the one whose unread counter a
// message from this side bumps.
func (s Side) Opposite() Side {
	if s == SideCustomer {
		return SideAgent
	}
	return SideCustomer
}
