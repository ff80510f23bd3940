// internal/models/identity.go
package models

import "github.com/google/uuid"

// Identity is the externally provided player identity. It is stable across
// reconnects; the identity service mints it once per user and this server
// only ever references it by value.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	IsAdmin     bool      `json:"-"`
}
