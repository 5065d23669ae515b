package entity

import "fmt"

// Role is the closed set of actors that take part in conversations.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin, RoleDriver:
		return true
	}
	return false
}

// Actor identifies one side of a conversation: a role plus the id that role's
// backend table assigned. Ids are only unique within a role, so the pair is
// the identity, never the id alone.
type Actor struct {
	Role Role   `json:"role"`
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

func (a Actor) Ref() ActorRef {
	return ActorRef{Role: a.Role, ID: a.ID}
}

func (a Actor) String() string {
	return fmt.Sprintf("%s/%d", a.Role, a.ID)
}

// ActorRef is the comparable identity of an actor, used as a map key for
// read cursors and alert channels.
type ActorRef struct {
	Role Role  `json:"role"`
	ID   int64 `json:"id"`
}

func (r ActorRef) String() string {
	return fmt.Sprintf("%s/%d", r.Role, r.ID)
}
