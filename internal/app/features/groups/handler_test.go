package groups_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherhq/gatherhub/internal/app/features/groups"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return groups.NewHandler(db, zap.NewNop(), nil), db
}

func TestHandleCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/groups", map[string]any{
		"name":        "Garden Society",
		"description": "We grow things.",
		"privacy":     "public",
	}), creator)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Name        string `json:"name"`
		MemberCount int    `json:"memberCount"`
		ViewerRole  string `json:"viewerRole"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.MemberCount != 1 {
		t.Errorf("memberCount: got %d, want 1", resp.MemberCount)
	}
	if resp.ViewerRole != models.RoleAdmin {
		t.Errorf("viewerRole: got %q, want admin", resp.ViewerRole)
	}
}

func TestServeGroup_SecretHiddenFromNonMembers(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@example.com")
	secret := fixtures.CreateGroup(ctx, creator.ID, "Hidden Circle", models.GroupSecret)

	// Non-members get a 404, never a 403, so the group's existence
	// leaks nothing.
	req := testutil.WithUser(httptest.NewRequest("GET", "/groups/"+secret.ID.Hex(), nil), outsider)
	req = testutil.WithChiURLParam(req, "id", secret.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeGroup(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("outsider: got %d, want %d", rec.Code, http.StatusNotFound)
	}

	req = testutil.WithUser(httptest.NewRequest("GET", "/groups/"+secret.ID.Hex(), nil), creator)
	req = testutil.WithChiURLParam(req, "id", secret.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeGroup(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("member: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleJoin_PublicAndPrivate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	joiner := fixtures.CreateUser(ctx, "Joiner", "joiner@example.com")
	public := fixtures.CreateGroup(ctx, creator.ID, "Open Door", models.GroupPublic)
	private := fixtures.CreateGroup(ctx, creator.ID, "By Request", models.GroupPrivate)

	join := func(groupID string) *httptest.ResponseRecorder {
		req := testutil.WithUser(httptest.NewRequest("POST", "/groups/"+groupID+"/join", nil), joiner)
		req = testutil.WithChiURLParam(req, "id", groupID)
		rec := httptest.NewRecorder()
		h.HandleJoin(rec, req)
		return rec
	}

	if rec := join(public.ID.Hex()); rec.Code != http.StatusOK {
		t.Errorf("public join: got %d (body %s)", rec.Code, rec.Body.String())
	}
	// Private groups queue the request instead of admitting directly.
	if rec := join(private.ID.Hex()); rec.Code != http.StatusAccepted {
		t.Errorf("private join: got %d (body %s)", rec.Code, rec.Body.String())
	}
	if rec := join(private.ID.Hex()); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate private join: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	got, err := h.Groups.GetByID(ctx, private.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.PendingRequests) != 1 {
		t.Errorf("expected 1 pending request, got %d", len(got.PendingRequests))
	}
}

func TestServeGroupFeed_MembersOnly(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@example.com")
	private := fixtures.CreateGroup(ctx, creator.ID, "Inner Circle", models.GroupPrivate)
	fixtures.CreateGroupPost(ctx, creator.ID, private.ID, "members news")

	req := testutil.WithUser(httptest.NewRequest("GET", "/groups/"+private.ID.Hex()+"/posts", nil), outsider)
	req = testutil.WithChiURLParam(req, "id", private.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeGroupFeed(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.WithUser(httptest.NewRequest("GET", "/groups/"+private.ID.Hex()+"/posts", nil), creator)
	req = testutil.WithChiURLParam(req, "id", private.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeGroupFeed(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("member: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLeave_CreatorBlocked(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Founders", models.GroupPublic)

	req := testutil.WithUser(httptest.NewRequest("POST", "/groups/"+group.ID.Hex()+"/leave", nil), creator)
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleLeave(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("creator leave: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
