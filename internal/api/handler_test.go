package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/corkboard/internal/client"
	"github.com/kalambet/corkboard/internal/listedit"
	"github.com/kalambet/corkboard/internal/model"
	"github.com/kalambet/corkboard/internal/storage"
	"github.com/kalambet/corkboard/internal/telemetry"
)

func setupHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewHandler(Deps{
		Store:   store,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: telemetry.New(),
	})
	return handler, store
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decodeInto(t, rec, &body)
	return body.Error.Type
}

func TestHealth(t *testing.T) {
	h, _ := setupHandler(t)

	rec := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListLabels_EmptyEnvelope(t *testing.T) {
	h, _ := setupHandler(t)

	rec := do(t, h, "GET", "/api/labels", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"labels":[]}` {
		t.Errorf("body = %s, want {\"labels\":[]}", got)
	}
}

func TestCreateLabel(t *testing.T) {
	h, store := setupHandler(t)

	rec := do(t, h, "POST", "/api/labels", `{"text":"Hello!","target":"dog"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var l model.Label
	decodeInto(t, rec, &l)
	if l.ID == 0 || l.Text != "Hello!" || l.Target != "dog" {
		t.Errorf("created = %+v", l)
	}

	stored, err := store.GetLabel(l.ID)
	if err != nil {
		t.Fatalf("GetLabel: %v", err)
	}
	if stored != l {
		t.Errorf("stored = %+v, response = %+v", stored, l)
	}
}

func TestCreateLabel_RequiresTextAndTarget(t *testing.T) {
	h, _ := setupHandler(t)

	for _, body := range []string{`{"text":"only text"}`, `{"target":"only target"}`, `{}`, `not json`} {
		rec := do(t, h, "POST", "/api/labels", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s: status = %d, want 400", body, rec.Code)
			continue
		}
		if typ := errorType(t, rec); typ != "invalid_request_error" {
			t.Errorf("POST %s: error type = %q", body, typ)
		}
	}
}

func TestCreatePost_AllowsEmptyMessage(t *testing.T) {
	h, _ := setupHandler(t)

	rec := do(t, h, "POST", "/api/posts", `{}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}

func TestListPosts_ReturnsEveryRecordInOrder(t *testing.T) {
	h, _ := setupHandler(t)
	const n = defaultListLimit + 5
	for i := 1; i <= n; i++ {
		rec := do(t, h, "POST", "/api/posts", fmt.Sprintf(`{"message":"post %d"}`, i))
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST #%d: status = %d", i, rec.Code)
		}
	}

	rec := do(t, h, "GET", "/api/posts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp model.PostsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Posts) != n {
		t.Fatalf("got %d posts, want %d", len(resp.Posts), n)
	}
	for i, p := range resp.Posts {
		if want := fmt.Sprintf("post %d", i+1); p.Message != want {
			t.Errorf("posts[%d].Message = %q, want %q", i, p.Message, want)
		}
	}
}

func TestListLabels_ReturnsEveryRecord(t *testing.T) {
	h, store := setupHandler(t)
	const n = defaultListLimit + 1
	for i := 0; i < n; i++ {
		if _, err := store.CreateLabel(model.Label{Text: fmt.Sprintf("l%d", i), Target: "t"}); err != nil {
			t.Fatal(err)
		}
	}

	rec := do(t, h, "GET", "/api/labels", "")
	var resp model.LabelsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Labels) != n {
		t.Fatalf("got %d labels, want %d", len(resp.Labels), n)
	}
}

func TestEditorReload_KeepsRecordsPastMCPLimit(t *testing.T) {
	h, _ := setupHandler(t)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ed := listedit.New(listedit.Posts, client.Posts(client.New(srv.URL)), quiet)
	ctx := context.Background()

	const n = defaultListLimit + 1
	for i := 1; i <= n; i++ {
		if _, err := ed.Create(ctx, model.Post{Message: fmt.Sprintf("post %d", i)}); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}
	if err := ed.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	items := ed.Items()
	if len(items) != n {
		t.Fatalf("reloaded %d posts, want %d", len(items), n)
	}
	if last := items[n-1]; last.Message != fmt.Sprintf("post %d", n) {
		t.Errorf("last post = %+v", last)
	}
}

func TestGetLabel_NotFoundAndBadID(t *testing.T) {
	h, _ := setupHandler(t)

	rec := do(t, h, "GET", "/api/labels/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	} else if typ := errorType(t, rec); typ != "not_found" {
		t.Errorf("error type = %q", typ)
	}

	for _, id := range []string{"abc", "0", "-3"} {
		rec := do(t, h, "GET", "/api/labels/"+id, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET /api/labels/%s: status = %d, want 400", id, rec.Code)
		}
	}
}

func TestUpdateLabel_PartialKeepsTarget(t *testing.T) {
	h, store := setupHandler(t)
	l, err := store.CreateLabel(model.Label{Text: "old", Target: "dog"})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, "PUT", "/api/labels/"+itoa(l.ID), `{"text":"new"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got model.Label
	decodeInto(t, rec, &got)
	want := model.Label{ID: l.ID, Text: "new", Target: "dog"}
	if got != want {
		t.Errorf("updated = %+v, want %+v", got, want)
	}
}

func TestUpdateLabel_FullRecordBody(t *testing.T) {
	h, store := setupHandler(t)
	l, err := store.CreateLabel(model.Label{Text: "old", Target: "dog"})
	if err != nil {
		t.Fatal(err)
	}

	// The list editor sends the whole record, id included.
	rec := do(t, h, "PUT", "/api/labels/"+itoa(l.ID), `{"id":`+itoa(l.ID)+`,"text":"new","target":"dog"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	h, _ := setupHandler(t)

	rec := do(t, h, "PUT", "/api/posts/5", `{"message":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeletePost(t *testing.T) {
	h, store := setupHandler(t)
	p, err := store.CreatePost(model.Post{Message: "bye"})
	if err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, "DELETE", "/api/posts/"+itoa(p.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := store.GetPost(p.ID); err != storage.ErrNotFound {
		t.Errorf("GetPost after delete: %v, want ErrNotFound", err)
	}

	rec = do(t, h, "DELETE", "/api/posts/"+itoa(p.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	h, _ := setupHandler(t)

	big := `{"message":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	rec := do(t, h, "POST", "/api/posts", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setupHandler(t)

	req := httptest.NewRequest("OPTIONS", "/api/labels", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Errorf("Access-Control-Allow-Methods = %q, want PUT", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := setupHandler(t)

	do(t, h, "GET", "/api/labels", "")
	rec := do(t, h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/api/labels`) {
		t.Errorf("metrics missing labels route:\n%s", rec.Body.String())
	}
}

func TestRequestIDEchoedIntoLogs(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	var buf strings.Builder
	h := NewHandler(Deps{Store: store, Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	req := httptest.NewRequest("GET", "/api/posts", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "request_id=req-abc") {
		t.Errorf("log = %q, want request_id=req-abc", buf.String())
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
