// internal/domain/models/passwordreset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PasswordReset stores a hashed single-use reset token with an expiry.
// Only the SHA-256 of the token leaves the process; the raw token goes
// to the user out of band.
type PasswordReset struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	TokenHash string             `bson:"token_hash"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Used      bool               `bson:"used"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Expired reports whether the token can no longer be redeemed.
func (p *PasswordReset) Expired(now time.Time) bool {
	return p.Used || now.After(p.ExpiresAt)
}
