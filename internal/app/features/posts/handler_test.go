package posts_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherhq/gatherhub/internal/app/features/posts"
	"github.com/gatherhq/gatherhub/internal/domain/models"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*posts.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return posts.NewHandler(db, zap.NewNop(), nil), db
}

func TestHandleCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Author", "author@example.com")

	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/posts", map[string]any{
		"content":    "my first post",
		"visibility": "public",
		"tags":       []string{"intro"},
	}), author)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID       string `json:"id"`
		AuthorID string `json:"authorId"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.AuthorID != author.ID.Hex() {
		t.Errorf("authorId: got %q, want %q", resp.AuthorID, author.ID.Hex())
	}
}

func TestServePost_PublicVisibleToAnonymous(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	post := fixtures.CreatePost(ctx, author.ID, "public post", models.VisibilityPublic)

	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/posts/"+post.ID.Hex(), nil), "id", post.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServePost(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestServePost_FollowersOnlyHiddenFromStrangers(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	follower := fixtures.CreateUser(ctx, "Follower", "follower@example.com")
	stranger := fixtures.CreateUser(ctx, "Stranger", "stranger@example.com")
	if err := h.Users.Follow(ctx, follower.ID, author.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	post := fixtures.CreatePost(ctx, author.ID, "for my followers", models.VisibilityFollowers)

	// Restricted posts answer 404, not 403, so existence leaks nothing.
	req := testutil.WithUser(httptest.NewRequest("GET", "/posts/"+post.ID.Hex(), nil), stranger)
	req = testutil.WithChiURLParam(req, "id", post.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServePost(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger: got %d, want %d", rec.Code, http.StatusNotFound)
	}

	req = testutil.WithUser(httptest.NewRequest("GET", "/posts/"+post.ID.Hex(), nil), follower)
	req = testutil.WithChiURLParam(req, "id", post.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServePost(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("follower: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestServePost_GroupPostRequiresMembership(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := fixtures.CreateUser(ctx, "Creator", "creator@example.com")
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@example.com")
	group := fixtures.CreateGroup(ctx, creator.ID, "Members Only", models.GroupPrivate)
	post := fixtures.CreateGroupPost(ctx, creator.ID, group.ID, "internal news")

	// Group posts answer 403: the group's existence is not a secret,
	// its content is.
	req := testutil.WithUser(httptest.NewRequest("GET", "/posts/"+post.ID.Hex(), nil), outsider)
	req = testutil.WithChiURLParam(req, "id", post.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServePost(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.WithUser(httptest.NewRequest("GET", "/posts/"+post.ID.Hex(), nil), creator)
	req = testutil.WithChiURLParam(req, "id", post.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServePost(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("member: got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleToggleLike(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	liker := fixtures.CreateUser(ctx, "Liker", "liker@example.com")
	post := fixtures.CreatePost(ctx, author.ID, "like this", models.VisibilityPublic)

	like := func() (bool, int) {
		req := testutil.WithUser(httptest.NewRequest("POST", "/posts/"+post.ID.Hex()+"/like", nil), liker)
		req = testutil.WithChiURLParam(req, "id", post.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleToggleLike(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
		}
		var resp struct {
			Liked     bool `json:"liked"`
			LikeCount int  `json:"likeCount"`
		}
		testutil.DecodeJSON(t, rec, &resp)
		return resp.Liked, resp.LikeCount
	}

	if liked, count := like(); !liked || count != 1 {
		t.Errorf("first like: got liked=%v count=%d", liked, count)
	}
	if liked, count := like(); liked || count != 0 {
		t.Errorf("second like: got liked=%v count=%d", liked, count)
	}
}

func TestServeGlobalFeed(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Author", "author@example.com")
	fixtures.CreatePost(ctx, author.ID, "public one", models.VisibilityPublic)
	fixtures.CreatePost(ctx, author.ID, "private one", models.VisibilityPrivate)

	rec := httptest.NewRecorder()
	h.ServeGlobalFeed(rec, httptest.NewRequest("GET", "/posts/feed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Posts   []struct{ Content string } `json:"posts"`
		Page    int                        `json:"page"`
		HasMore bool                       `json:"hasMore"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Posts) != 1 {
		t.Errorf("expected 1 public post in the feed, got %d", len(resp.Posts))
	}
	if resp.Page != 1 {
		t.Errorf("page: got %d, want 1", resp.Page)
	}
	if resp.HasMore {
		t.Error("expected hasMore=false for a single page")
	}
}
