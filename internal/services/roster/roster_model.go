package roster

import (
	"time"

	"github.com/curaious/tasky/internal/services/user"
	"github.com/google/uuid"
)

// RosterEdge links a user into an admin's team. The pair (UserID, AdminID) is unique.
type RosterEdge struct {
	ID      uuid.UUID `db:"id" json:"id"`
	UserID  uuid.UUID `db:"user_id" json:"user_id"`
	AdminID uuid.UUID `db:"admin_id" json:"admin_id"`
	AddedAt time.Time `db:"added_at" json:"added_at"`
}

// Member is a roster edge with the member's public details resolved
type Member struct {
	ID      uuid.UUID     `json:"id"`
	AddedAt time.Time     `json:"added_at"`
	User    *user.Summary `json:"user"`
}

// AddMemberRequest captures payload for adding an existing user to the caller's roster
type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
}
