package domain

// Role identifies which side of the workflow an actor operates on. Members
// own applications and respond to guarantee requests, admins amend and
// approve, and the disbursement ledger moves approved applications to
// Disbursed.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleLedger Role = "ledger"
)

// Actor is the authenticated caller of an operation. Identity is established
// upstream by the session service; the engine only enforces role and
// ownership.
type Actor struct {
	MemberNo string
	Role     Role
}

func (a Actor) IsMember() bool { return a.Role == RoleMember }
func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsLedger() bool { return a.Role == RoleLedger }
