// internal/domain/models/passwordreset_test.go
package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// A fresh token must marshal with an explicit used:false so the store's
// {"used": false} filters match it. An omitted field would not.
func TestPasswordReset_MarshalKeepsUsedField(t *testing.T) {
	pr := PasswordReset{
		ID:        primitive.NewObjectID(),
		UserID:    primitive.NewObjectID(),
		TokenHash: "abc123",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	raw, err := bson.Marshal(pr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	used, ok := doc["used"]
	if !ok {
		t.Fatal("expected marshaled document to carry a used field")
	}
	if used != false {
		t.Fatalf("used = %v, want false", used)
	}
}

func TestPasswordReset_Expired(t *testing.T) {
	now := time.Now()
	pr := PasswordReset{ExpiresAt: now.Add(time.Minute)}
	if pr.Expired(now) {
		t.Fatal("unexpired unused token reported expired")
	}
	pr.Used = true
	if !pr.Expired(now) {
		t.Fatal("used token should report expired")
	}
	pr = PasswordReset{ExpiresAt: now.Add(-time.Minute)}
	if !pr.Expired(now) {
		t.Fatal("past-expiry token should report expired")
	}
}
