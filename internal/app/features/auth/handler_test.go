package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authfeature "github.com/gatherhq/gatherhub/internal/app/features/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/indexes"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testJWTSecret = "test-secret-0123456789abcdefghijklmnop"

func newTestHandler(t *testing.T) (*authfeature.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	tokens, err := auth.NewTokenManager(testJWTSecret, "gatherhub-test", 15*time.Minute, 24*time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	return authfeature.NewHandler(db, zap.NewNop(), tokens), db
}

func TestHandleRegister(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewJSONRequest("POST", "/auth/register", map[string]string{
		"name":     "Alice Example",
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Tier  string `json:"tier"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	testutil.DecodeJSON(t, rec, &resp)

	if resp.User.ID == "" {
		t.Error("expected user ID in response")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("email: got %q", resp.User.Email)
	}
	if resp.User.Tier != "free" {
		t.Errorf("tier: got %q, want free", resp.User.Tier)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("expected a token pair in response")
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	h, db := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	body := map[string]string{
		"name":     "Alice Example",
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}

	rec := httptest.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest("POST", "/auth/register", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: got %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest("POST", "/auth/register", body))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewJSONRequest("POST", "/auth/register", map[string]string{
		"name":     "A",
		"email":    "not-an-email",
		"password": "short",
	})
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp struct {
		Errors []string `json:"errors"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Errors) != 3 {
		t.Errorf("expected 3 validation errors, got %v", resp.Errors)
	}
}

func TestHandleLogin(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUserWithPassword(ctx, "Bob", "bob@example.com", "hunter2hunter2")

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", map[string]string{
		"email":    "BOB@example.com",
		"password": "hunter2hunter2",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_GenericFailureMessage(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUserWithPassword(ctx, "Bob", "bob@example.com", "hunter2hunter2")

	// Unknown email and wrong password must be indistinguishable.
	cases := []map[string]string{
		{"email": "nobody@example.com", "password": "hunter2hunter2"},
		{"email": "bob@example.com", "password": "wrong password"},
	}
	var messages []string
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", body))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		var resp struct {
			Error string `json:"error"`
		}
		testutil.DecodeJSON(t, rec, &resp)
		messages = append(messages, resp.Error)
	}
	if messages[0] != messages[1] {
		t.Errorf("failure messages differ: %q vs %q", messages[0], messages[1])
	}
}

func TestHandleLogin_DeactivatedAccount(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUserWithPassword(ctx, "Gone", "gone@example.com", "hunter2hunter2")
	if err := h.Users.Deactivate(ctx, user.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", map[string]string{
		"email":    "gone@example.com",
		"password": "hunter2hunter2",
	}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeMe(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Carol", "carol@example.com")

	req := testutil.WithUser(httptest.NewRequest("GET", "/auth/me", nil), user)
	rec := httptest.NewRecorder()
	h.ServeMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Email string `json:"email"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Email != "carol@example.com" {
		t.Errorf("expected own email in self view, got %q", resp.Email)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUserWithPassword(ctx, "Dora", "dora@example.com", "old password 1")

	// The forgot endpoint answers 202 whether or not the email exists.
	for _, email := range []string{"dora@example.com", "nobody@example.com"} {
		rec := httptest.NewRecorder()
		h.HandleForgotPassword(rec, testutil.NewJSONRequest("POST", "/auth/forgot-password", map[string]string{
			"email": email,
		}))
		if rec.Code != http.StatusAccepted {
			t.Errorf("forgot %s: got %d, want %d", email, rec.Code, http.StatusAccepted)
		}
	}

	// Resetting with a made-up token fails closed.
	rec := httptest.NewRecorder()
	h.HandleResetPassword(rec, testutil.NewJSONRequest("POST", "/auth/reset-password", map[string]string{
		"token":       "not-a-real-token",
		"newPassword": "brand new password",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reset with bogus token: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
