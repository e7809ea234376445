// internal/app/system/auth/userctx.go
package auth

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the current user's ObjectID, name, and a found flag.
// ok=true guarantees a valid, authenticated user with a parseable ID;
// a malformed ID in context fails closed.
func UserCtx(r *http.Request) (userID primitive.ObjectID, name string, ok bool) {
	u, ok := CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	return oid, u.Name, true
}

// ViewerID returns the current user's ObjectID, or NilObjectID for
// anonymous requests. For handlers behind OptionalAuth.
func ViewerID(r *http.Request) primitive.ObjectID {
	oid, _, ok := UserCtx(r)
	if !ok {
		return primitive.NilObjectID
	}
	return oid
}
