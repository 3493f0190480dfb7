package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

// SubmitterKey holds the uuid.UUID of the user acting on a request.
const SubmitterKey ContextKey = "submitter"

type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
