// Package client owns client profiles and the transports through which other
// services read them: the request listener on the broker side and the
// Directory implementations on the caller side.
package client

import (
	"context"

	"github.com/google/uuid"
)

// Profile is owned by the client subsystem. It is read-only from the account
// subsystem's perspective.
type Profile struct {
	ID             uuid.UUID `json:"clientId" gorm:"type:uuid;primaryKey;column:client_id"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender"`
	Age            int       `json:"age"`
	Identification string    `json:"identification"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Active         bool      `json:"status" gorm:"column:status"`
}

func (Profile) TableName() string { return "clients" }

// Patch is the allow-listed set of profile fields a partial update may touch.
// It replaces the reflection-by-name patching of arbitrary fields; nothing
// outside this set can be written through a patch.
type Patch struct {
	Name           *string `json:"name"`
	Gender         *string `json:"gender"`
	Age            *int    `json:"age"`
	Identification *string `json:"identification"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Active         *bool   `json:"status"`
}

// Store is the local, keyed persistence of client profiles. A missing client
// is reported with errors.ErrNotFound (contract/errors).
type Store interface {
	List(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*Profile, error)
	Create(ctx context.Context, profiles []Profile) error
	Update(ctx context.Context, p Profile) error
	Patch(ctx context.Context, id uuid.UUID, p Patch) (*Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}
