package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/events"
	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/testutil"
)

type fakePublisher struct {
	events []events.Event
	items  int
}

func (f *fakePublisher) Publish(e events.Event) { f.events = append(f.events, e) }

func (f *fakePublisher) MigrationProgress(string) func(models.MigrationResult) {
	return func(models.MigrationResult) { f.items++ }
}

// testEnv sets up a temp content tree, SQLite index, services and router.
func testEnv(t *testing.T) (http.Handler, *testutil.Env, *fakePublisher) {
	t.Helper()
	env := testutil.TestEnv(t)
	db := testutil.TestDB(t)
	content := contentservice.New(env.Store, env.Paths, nil,
		contentservice.WithIndex(db), contentservice.WithLogger(testutil.Logger()))
	migrator, err := migration.New(env.Store, env.Paths, migration.Config{DataDir: env.DataDir}, testutil.Logger())
	if err != nil {
		t.Fatalf("migration.New: %v", err)
	}
	pub := &fakePublisher{}
	router := NewRouter(Deps{
		Content:   content,
		Migration: migrator,
		Dirs:      env.Dirs,
		Publisher: pub,
		Logger:    testutil.Logger(),
	})
	return router, env, pub
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errResponse {
	t.Helper()
	var e errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return e
}

func TestCreateAndGetFile(t *testing.T) {
	router, _, _ := testEnv(t)

	w := do(t, router, http.MethodPost, "/files", map[string]any{
		"id": "hello", "contentType": "blog", "content": "# Hello\nWorld",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/files/blog/hello.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var file FileDetail
	_ = json.Unmarshal(w.Body.Bytes(), &file)
	if file.Path != "blog/hello.md" {
		t.Errorf("path = %q", file.Path)
	}
	if file.Title != "Hello" {
		t.Errorf("title = %q, want Hello", file.Title)
	}

	w = do(t, router, http.MethodGet, "/files/blog%2Fhello.md", nil)
	if w.Code != http.StatusOK {
		t.Errorf("encoded slash get = %d", w.Code)
	}
}

func TestCreateDuplicate(t *testing.T) {
	router, _, _ := testEnv(t)
	body := map[string]any{"id": "dup", "contentType": "page", "content": "a"}

	if w := do(t, router, http.MethodPost, "/files", body); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w := do(t, router, http.MethodPost, "/files", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate create = %d, want 409", w.Code)
	}
	if e := decodeError(t, w); e.Type != apperr.KindAlreadyExists || e.Suggestion == "" {
		t.Errorf("error body = %+v", e)
	}
}

func TestCreateValidation(t *testing.T) {
	router, _, _ := testEnv(t)
	tests := []struct {
		name string
		body map[string]any
		want int
		kind apperr.Kind
	}{
		{"unknown type", map[string]any{"id": "x", "contentType": "video", "content": "a"}, http.StatusBadRequest, apperr.KindValidation},
		{"missing content", map[string]any{"id": "x", "contentType": "blog"}, http.StatusBadRequest, apperr.KindValidation},
		{"bad id", map[string]any{"id": "a b", "contentType": "blog", "content": "a"}, http.StatusBadRequest, apperr.KindValidation},
		{"script", map[string]any{"id": "x", "contentType": "blog", "content": "<script>x</script>"}, http.StatusUnprocessableEntity, apperr.KindInvalidContent},
		{"embed out of range", map[string]any{
			"id": "x", "contentType": "blog", "content": "![image:3]",
			"media": map[string]any{"images": []string{"a.png"}},
		}, http.StatusUnprocessableEntity, apperr.KindEmbed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/files", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
			if e := decodeError(t, w); e.Type != tt.kind {
				t.Errorf("type = %q, want %q", e.Type, tt.kind)
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	router, _, _ := testEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/files", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateAndDeleteFile(t *testing.T) {
	router, _, _ := testEnv(t)
	do(t, router, http.MethodPost, "/files", map[string]any{"id": "bye", "contentType": "tool", "content": "v1"})

	w := do(t, router, http.MethodPut, "/files/tool/bye.md", map[string]any{"content": "v2", "backup": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	var file FileDetail
	_ = json.Unmarshal(w.Body.Bytes(), &file)
	if file.Content != "v2" {
		t.Errorf("content = %q, want v2", file.Content)
	}

	if w := do(t, router, http.MethodHead, "/files/tool/bye.md", nil); w.Code != http.StatusOK {
		t.Errorf("head = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/files/tool/bye.md", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/files/tool/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodHead, "/files/tool/bye.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("head after delete = %d, want 404", w.Code)
	}
}

func TestUpdateMissingFile(t *testing.T) {
	router, _, _ := testEnv(t)
	w := do(t, router, http.MethodPut, "/files/blog/none.md", map[string]any{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestTraversalRejected(t *testing.T) {
	router, _, _ := testEnv(t)
	w := do(t, router, http.MethodGet, "/files/blog%2F..%2F..%2Fsecret.md", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("traversal = %d, want 400", w.Code)
	}
	if e := decodeError(t, w); e.Type != apperr.KindInvalidPath {
		t.Errorf("type = %q, want InvalidPath", e.Type)
	}
}

func TestGeneratePathEndpoint(t *testing.T) {
	router, _, _ := testEnv(t)
	w := do(t, router, http.MethodPost, "/paths", map[string]any{
		"id": "My Post!", "contentType": "blog", "sanitizeNames": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var info contentservice.PathInfo
	_ = json.Unmarshal(w.Body.Bytes(), &info)
	if info.Path != "blog/MyPost.md" || info.Exists {
		t.Errorf("info = %+v", info)
	}
}

func TestListFiles(t *testing.T) {
	router, _, _ := testEnv(t)
	for _, id := range []string{"b", "a"} {
		do(t, router, http.MethodPost, "/files", map[string]any{"id": id, "contentType": "portfolio", "content": "# " + id})
	}

	w := do(t, router, http.MethodGet, "/types/portfolio/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp FileListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Files) != 2 || resp.Files[0].ID != "a" {
		t.Errorf("files = %+v", resp.Files)
	}

	if w := do(t, router, http.MethodGet, "/types/nope/files", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", w.Code)
	}
}

func TestValidateEmbedsEndpoint(t *testing.T) {
	router, _, _ := testEnv(t)
	w := do(t, router, http.MethodPost, "/embeds/validate", map[string]any{
		"content": "![image:0]\n[link:1]",
		"media":   map[string]any{"images": []string{"a.png"}, "externalLinks": []map[string]string{{"url": "https://x", "title": "x"}}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		IsValid bool             `json:"isValid"`
		Errors  []map[string]any `json:"errors"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.IsValid || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchAndEmbedUsage(t *testing.T) {
	router, _, _ := testEnv(t)
	do(t, router, http.MethodPost, "/files", map[string]any{"id": "find", "contentType": "blog", "content": "uniquetoken\n![video:1]"})

	w := do(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string][]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp["results"]) != 1 {
		t.Errorf("search results = %d, want 1", len(resp["results"]))
	}

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty query = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/search?q=uniquetoken&type=nope", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodGet, "/search?q=uniquetoken&type=page", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp["results"]) != 0 {
		t.Errorf("page search = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/embeds/usage?type=video&index=1", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || len(resp["uses"]) != 1 {
		t.Errorf("usage = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/embeds/usage?type=audio&index=1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind = %d, want 400", w.Code)
	}
}

func TestDirectories(t *testing.T) {
	router, _, _ := testEnv(t)
	do(t, router, http.MethodPost, "/files", map[string]any{"id": "s", "contentType": "asset", "content": "12345"})

	w := do(t, router, http.MethodGet, "/directories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp DirectoriesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Missing) != 0 {
		t.Errorf("missing = %v", resp.Missing)
	}
	if st := resp.Stats[models.ContentTypeAsset]; st.FileCount != 1 || st.TotalSize != 5 {
		t.Errorf("asset stats = %+v", st)
	}
}

func TestMigrationEndpoints(t *testing.T) {
	router, env, pub := testEnv(t)
	env.WriteLegacy(t, "blog.json", `[{"id": "b1", "content": "# B1"}, {"id": "b2", "content": "second"}]`)

	w := do(t, router, http.MethodGet, "/migration/status", nil)
	var st models.MigrationStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.PendingItems != 2 {
		t.Fatalf("status before = %d %+v", w.Code, st)
	}

	w = do(t, router, http.MethodPost, "/migration/run", map[string]any{"backupOriginal": true})
	if w.Code != http.StatusOK {
		t.Fatalf("run = %d, body = %s", w.Code, w.Body.String())
	}
	var sum models.MigrationSummary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.SuccessCount != 2 || sum.FailureCount != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if pub.items != 2 || len(pub.events) != 2 {
		t.Errorf("published items = %d, events = %d", pub.items, len(pub.events))
	}
	if pub.events[0].Type != events.TypeMigrationStarted || pub.events[1].Type != events.TypeMigrationFinished {
		t.Errorf("event types = %q, %q", pub.events[0].Type, pub.events[1].Type)
	}

	if w := do(t, router, http.MethodGet, "/files/blog/b1.md", nil); w.Code != http.StatusOK {
		t.Errorf("migrated file get = %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/migration/rollback", map[string]any{"ids": []string{"b1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("rollback = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/files/blog/b1.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("rolled back file get = %d, want 404", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/migration/rollback", map[string]any{"ids": []string{}}); w.Code != http.StatusBadRequest {
		t.Errorf("empty rollback = %d, want 400", w.Code)
	}
}

func TestMigrateSingleFileRejectsBadName(t *testing.T) {
	router, _, _ := testEnv(t)
	w := do(t, router, http.MethodPost, "/migration/run", map[string]any{"file": "../etc.json"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestMigrationSummaryHidesOSErrors(t *testing.T) {
	router, env, _ := testEnv(t)
	env.WriteLegacy(t, "blog.json", `[{"id": "b1", "markdownMigr`)

	w := do(t, router, http.MethodPost, "/migration/rollback", map[string]any{"ids": []string{"b1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("rollback = %d %s", w.Code, w.Body.String())
	}
	assertNoOSText(t, env, w.Body.String())

	if err := os.RemoveAll(env.DataDir); err != nil {
		t.Fatal(err)
	}
	w = do(t, router, http.MethodPost, "/migration/run", map[string]any{"dryRun": true})
	if w.Code != http.StatusOK {
		t.Fatalf("run = %d %s", w.Code, w.Body.String())
	}
	var sum models.MigrationSummary
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.State != models.StateFailed || len(sum.Errors) != 1 {
		t.Errorf("summary = %+v", sum)
	}
	assertNoOSText(t, env, w.Body.String())
}

func assertNoOSText(t *testing.T, env *testutil.Env, body string) {
	t.Helper()
	for _, leak := range []string{env.DataDir, "no such file or directory", "unexpected end of JSON input"} {
		if strings.Contains(body, leak) {
			t.Errorf("response contains %q: %s", leak, body)
		}
	}
}
