// internal/app/features/posts/feed.go
package posts

import (
	"context"
	"net/http"
	"strconv"
	"time"

	sysauth "github.com/gatherhq/gatherhub/internal/app/system/auth"
	"github.com/gatherhq/gatherhub/internal/app/system/paging"
	"github.com/gatherhq/gatherhub/internal/app/system/respond"
	"github.com/gatherhq/gatherhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// trendingWindow is how far back engagement counts toward the
// trending ranking.
const trendingWindow = 24 * time.Hour

const (
	defaultTrendingLimit = 20
	maxTrendingLimit     = 50
)

type feedResponse struct {
	Posts   []postView `json:"posts"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
	HasMore bool       `json:"hasMore"`
}

// ServeGlobalFeed handles GET /posts/feed: public, ungrouped posts,
// pinned first, then newest.
func (h *Handler) ServeGlobalFeed(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fetched, err := h.Posts.GlobalFeed(ctx, page.Skip(), page.LimitPlusOne())
	if err != nil {
		h.Log.Error("posts: global feed", zap.Error(err))
		respond.ServerError(w)
		return
	}

	hasMore, shown := page.Feed(len(fetched))
	respond.JSON(w, http.StatusOK, feedResponse{
		Posts:   viewsOf(fetched[:shown], sysauth.ViewerID(r)),
		Page:    page.Page,
		PerPage: page.Limit,
		HasMore: hasMore,
	})
}

// ServePersonalFeed handles GET /posts/feed/me: the viewer's own posts
// plus posts from accounts they follow, with follower-only posts
// included.
func (h *Handler) ServePersonalFeed(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("posts: load user for feed", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	fetched, err := h.Posts.PersonalFeed(ctx, userID, user.Following, page.Skip(), page.LimitPlusOne())
	if err != nil {
		h.Log.Error("posts: personal feed", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	hasMore, shown := page.Feed(len(fetched))
	respond.JSON(w, http.StatusOK, feedResponse{
		Posts:   viewsOf(fetched[:shown], userID),
		Page:    page.Page,
		PerPage: page.Limit,
		HasMore: hasMore,
	})
}

// ServeTrending handles GET /posts/trending. Ranking weighs comments
// double and shares triple against likes over the last day.
func (h *Handler) ServeTrending(w http.ResponseWriter, r *http.Request) {
	limit := defaultTrendingLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	fetched, err := h.Posts.Trending(ctx, time.Now().Add(-trendingWindow), int64(limit))
	if err != nil {
		h.Log.Error("posts: trending", zap.Error(err))
		respond.ServerError(w)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"posts": viewsOf(fetched, sysauth.ViewerID(r)),
	})
}

// ServeBookmarks handles GET /posts/bookmarks: the viewer's saved
// posts, most recently saved last since the user record keeps insert
// order.
func (h *Handler) ServeBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := sysauth.UserCtx(r)
	if !ok {
		respond.Unauthorized(w, "authentication required")
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("posts: load user for bookmarks", zap.Error(err), zap.String("user_id", userID.Hex()))
		respond.ServerError(w)
		return
	}

	ids := user.Bookmarks
	start := int(page.Skip())
	if start > len(ids) {
		start = len(ids)
	}
	end := start + page.Limit
	if end > len(ids) {
		end = len(ids)
	}

	views := make([]postView, 0, end-start)
	for _, postID := range ids[start:end] {
		p, err := h.Posts.GetByID(ctx, postID)
		if err != nil {
			// Deleted posts quietly drop out of the bookmark list.
			continue
		}
		views = append(views, viewOf(p, userID))
	}

	respond.JSON(w, http.StatusOK, feedResponse{
		Posts:   views,
		Page:    page.Page,
		PerPage: page.Limit,
		HasMore: end < len(ids),
	})
}
