package auth

import (
	"time"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// Staff represents a back-office account.
type Staff struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         shared.Role `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Session converts the staff record into the request-scoped identity handed
// to services.
func (s Staff) Session() shared.Session {
	return shared.NewSession(s.ID, s.Name, s.Role)
}
