package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/config"
	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/hub"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, hub.Deps{})
	t.Cleanup(func() { h.Inbox() <- hub.ShutdownHub{} })
	return SetupRoutes(h, zap.NewNop(), config.Config{AllowedOrigins: []string{"*"}})
}

const validDef = `{
	"mode": "captains-mode",
	"pool": [1, 2, 3, 4, 5],
	"actors": [{"id": "alice"}, {"id": "bob"}]
}`

func TestCreateDraftReturnsCode(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/drafts", strings.NewReader(validDef)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Code) != 6 {
		t.Fatalf("want 6-char join code, got %q", out.Code)
	}
}

func TestCreateDraftRejectsInvalidDefinition(t *testing.T) {
	router := testRouter(t)

	cases := map[string]string{
		"bad json":        `{`,
		"empty pool":      `{"mode": "captains-mode", "pool": [], "actors": [{"id": "a"}, {"id": "b"}]}`,
		"single captain":  `{"mode": "captains-mode", "pool": [1, 2], "actors": [{"id": "a"}]}`,
		"snake, no teams": `{"mode": "snake", "pool": [1, 2], "actors": [{"id": "a", "team_id": "t1"}]}`,
		"shuffle, pool short of capacity": `{"mode": "shuffle", "pool": [1, 2],
			"actors": [{"id": "a", "team_id": "t1"}, {"id": "b", "team_id": "t2"}],
			"teams": [{"id": "t1", "capacity": 2}, {"id": "t2", "capacity": 2}]}`,
	}
	for name, body := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/drafts", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestGetDraftRoundTrip(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/drafts", strings.NewReader(validDef)))
	var created struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drafts/"+created.Code, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Version int          `json:"version"`
		State   engine.State `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State.Phase != engine.PhaseWaiting {
		t.Fatalf("fresh draft phase = %s", got.State.Phase)
	}
	if got.Version != 0 {
		t.Fatalf("fresh draft version = %d", got.Version)
	}
}

func TestCreateDraftAppliesClockDefaults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, hub.Deps{})
	t.Cleanup(func() { h.Inbox() <- hub.ShutdownHub{} })
	router := SetupRoutes(h, zap.NewNop(), config.Config{
		AllowedOrigins: []string{"*"},
		ReserveMs:      120_000,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/drafts", strings.NewReader(validDef)))
	var created struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drafts/"+created.Code, nil))
	var got struct {
		State engine.State `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State.Rules.ReserveMs != 120_000 {
		t.Fatalf("reserve default = %d, want 120000", got.State.Rules.ReserveMs)
	}
	if got.State.Rules.GraceMs != engine.DefaultRules().GraceMs {
		t.Fatalf("grace should keep the engine default")
	}
}

func TestGetDraftUnknownCode(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drafts/ZZZZZZ", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
