package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherhq/gatherhub/internal/app/features/health"
	"github.com/gatherhq/gatherhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("body: got %+v", resp)
	}
}
