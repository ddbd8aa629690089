package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/itscooked/internal/auth"
	"github.com/jmylchreest/itscooked/internal/store"
	"github.com/jmylchreest/itscooked/pkg/importer"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

type stubImporter struct {
	result   importer.ImportResult
	calls    atomic.Int32
	lastReq  platform.ImportRequest
	deadline bool
}

func (s *stubImporter) Import(ctx context.Context, req platform.ImportRequest) importer.ImportResult {
	s.calls.Add(1)
	s.lastReq = req
	_, s.deadline = ctx.Deadline()
	return s.result
}

type testEnv struct {
	t        *testing.T
	engine   *gin.Engine
	store    *store.Store
	importer *stubImporter
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	v, err := auth.NewVerifier("test-secret", "itscooked")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	imp := &stubImporter{result: importer.ImportResult{
		Title:           "Garlic noodles",
		Ingredients:     []string{"200g noodles", "4 cloves garlic"},
		Instructions:    []string{"Boil noodles", "Toss with garlic"},
		OriginalCreator: "chef",
		ThumbnailURL:    "https://p16.tiktokcdn.com/a.jpg",
		Warnings:        []string{},
	}}

	return &testEnv{
		t:        t,
		engine:   NewServer(NewHandler(s, imp, time.Second), v),
		store:    s,
		importer: imp,
		verifier: v,
	}
}

func (e *testEnv) token(userID string) string {
	e.t.Helper()
	tok, err := e.verifier.Issue(userID, time.Hour)
	if err != nil {
		e.t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

// do sends a request as userID; an empty userID sends no token.
func (e *testEnv) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(userID))
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type createdResponse struct {
	Recipe     store.Recipe `json:"recipe"`
	Extraction struct {
		Status   importer.Status `json:"status"`
		Warnings []string        `json:"warnings"`
	} `json:"extraction"`
}

func (e *testEnv) create(userID, url string) store.Recipe {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/recipes", userID, map[string]string{"url": url})
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("POST /api/recipes = %d: %s", rec.Code, rec.Body.String())
	}
	return decode[createdResponse](e.t, rec).Recipe
}

// --- Auth Tests ---

func TestAuth_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/recipes", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	got := decode[errorResponse](t, rec)
	if got.Error.Code != CodeUnauthorized || !strings.Contains(got.Message, "Bearer") {
		t.Errorf("unexpected error body: %+v", got)
	}
}

func TestAuth_RejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_PublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["status"] != "ok" {
		t.Errorf("GET /health = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodGet, "/version", "", nil)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["name"] != "itscooked" {
		t.Errorf("GET /version = %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_RequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("%s = %q, want req-42", requestIDHeader, got)
	}

	rec = env.do(http.MethodGet, "/health", "", nil)
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestServer_NoRoute(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || decode[errorResponse](t, rec).Error.Code != CodeNotFound {
		t.Errorf("GET /nope = %d %s", rec.Code, rec.Body.String())
	}
}

// --- Create Tests ---

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/recipes", "u1", map[string]string{
		"url":   " https://www.tiktok.com/@chef/video/123/?is_from_webapp=1#top ",
		"title": "  My noodles  ",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[createdResponse](t, rec)
	if got.Recipe.ID == "" || got.Recipe.SourcePlatform != platform.TikTok {
		t.Errorf("unexpected recipe: %+v", got.Recipe)
	}
	if got.Recipe.SourceURL != "https://www.tiktok.com/@chef/video/123" {
		t.Errorf("SourceURL = %q", got.Recipe.SourceURL)
	}
	if got.Extraction.Status != importer.StatusSuccess || got.Extraction.Warnings == nil {
		t.Errorf("unexpected extraction: %+v", got.Extraction)
	}

	if env.importer.lastReq.FallbackTitle != "My noodles" {
		t.Errorf("importer FallbackTitle = %q", env.importer.lastReq.FallbackTitle)
	}
	if !env.importer.deadline {
		t.Error("import should run with a deadline")
	}

	saved, err := env.store.Get(context.Background(), "u1", got.Recipe.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(saved.Ingredients, env.importer.result.Ingredients) {
		t.Errorf("saved ingredients = %q", saved.Ingredients)
	}
}

func TestCreateRecipe_PartialImportIsStillSaved(t *testing.T) {
	env := newTestEnv(t)
	env.importer.result = importer.ImportResult{
		Ingredients:  []string{},
		Instructions: []string{},
		Warnings:     []string{"TikTok oEmbed failed (404).", importer.WarnNoCaption},
	}

	rec := env.do(http.MethodPost, "/api/recipes", "u1", map[string]string{"url": "https://www.instagram.com/reel/abc/"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[createdResponse](t, rec)
	if got.Extraction.Status != importer.StatusFailed {
		t.Errorf("status = %s, want failed", got.Extraction.Status)
	}
	if len(got.Extraction.Warnings) != 2 {
		t.Errorf("warnings = %q", got.Extraction.Warnings)
	}
	if got.Recipe.Ingredients == nil || len(got.Recipe.Ingredients) != 0 {
		t.Errorf("Ingredients = %#v, want empty", got.Recipe.Ingredients)
	}
}

func TestCreateRecipe_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    any
		code    ErrorCode
		message string
	}{
		{"not json", "{", CodeBadRequest, "Request body must be a JSON object."},
		{"missing url", map[string]string{}, CodeValidation, "Recipe URL is required."},
		{"bad scheme", map[string]string{"url": "ftp://tiktok.com/x"}, CodeValidation, "Recipe URL must start with http or https."},
		{"unsupported", map[string]string{"url": "https://youtube.com/watch?v=1"}, CodeValidation, "Only Instagram or TikTok links are supported right now."},
		{"long title", map[string]string{"url": "https://tiktok.com/v/1", "title": strings.Repeat("a", 141)}, CodeValidation, "Title must be 140 characters or fewer."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/recipes", "u1", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			got := decode[errorResponse](t, rec)
			if got.Error.Code != tt.code || got.Message != tt.message {
				t.Errorf("error = %+v, want %s %q", got, tt.code, tt.message)
			}
		})
	}

	if n := env.importer.calls.Load(); n != 0 {
		t.Errorf("importer called %d times for invalid input", n)
	}
}

func TestCreateRecipe_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	first := env.create("u1", "https://www.tiktok.com/@chef/video/1")

	rec := env.do(http.MethodPost, "/api/recipes", "u1", map[string]string{"url": "https://www.tiktok.com/@chef/video/1/#again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	got := decode[errorResponse](t, rec)
	if got.Error.Code != CodeConflict || got.ExistingRecipe == nil || got.ExistingRecipe.ID != first.ID {
		t.Errorf("unexpected conflict body: %s", rec.Body.String())
	}
	if got.ExistingRecipe.Title == nil || *got.ExistingRecipe.Title != "Garlic noodles" {
		t.Errorf("existing title = %v", got.ExistingRecipe.Title)
	}
	if n := env.importer.calls.Load(); n != 1 {
		t.Errorf("importer called %d times, want 1", n)
	}

	// A different user can save the same link.
	env.create("u2", "https://www.tiktok.com/@chef/video/1")
}

// --- Read Tests ---

func TestGetRecipe(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	rec := env.do(http.MethodGet, "/api/recipes/"+r.ID, "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Recipe store.Recipe `json:"recipe"`
	}](t, rec)
	if got.Recipe.ID != r.ID || got.Recipe.Title != "Garlic noodles" {
		t.Errorf("unexpected recipe: %+v", got.Recipe)
	}

	if rec := env.do(http.MethodGet, "/api/recipes/"+r.ID, "u2", nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user status = %d, want 404", rec.Code)
	}
}

func TestListRecipes(t *testing.T) {
	env := newTestEnv(t)
	env.create("u1", "https://tiktok.com/v/1")
	env.importer.result.Title = "Apple pie"
	env.importer.result.OriginalCreator = "baker"
	env.create("u1", "https://www.instagram.com/p/abc")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Apple pie", "Garlic noodles"}},
		{"?sort=title", []string{"Apple pie", "Garlic noodles"}},
		{"?sort=oldest", []string{"Garlic noodles", "Apple pie"}},
		{"?platform=tiktok", []string{"Garlic noodles"}},
		{"?platform=ALL&q=BAKER", []string{"Apple pie"}},
		{"?q=instagram.com", []string{"Apple pie"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/recipes"+tt.query, "u1", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			got := decode[struct {
				Recipes []store.Recipe `json:"recipes"`
			}](t, rec)
			var titles []string
			for _, r := range got.Recipes {
				titles = append(titles, r.Title)
			}
			if !reflect.DeepEqual(titles, tt.want) {
				t.Errorf("titles = %q, want %q", titles, tt.want)
			}
		})
	}
}

func TestListRecipes_InvalidParams(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"?platform=youtube", "?sort=rating"} {
		rec := env.do(http.MethodGet, "/api/recipes"+q, "u1", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", q, rec.Code)
		}
	}

	rec := env.do(http.MethodGet, "/api/recipes", "nobody", nil)
	if !strings.Contains(rec.Body.String(), `"recipes":[]`) {
		t.Errorf("empty library body = %s", rec.Body.String())
	}
}

// --- Update Tests ---

func TestUpdateRecipe(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	rec := env.do(http.MethodPut, "/api/recipes/"+r.ID, "u1", map[string]any{
		"title":        "  Better noodles ",
		"ingredients":  "noodles\n\n  garlic  \r\nchili",
		"instructions": []any{" Boil ", "", 7, "Serve"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Recipe store.Recipe `json:"recipe"`
	}](t, rec).Recipe

	if got.Title != "Better noodles" {
		t.Errorf("Title = %q", got.Title)
	}
	if want := []string{"noodles", "garlic", "chili"}; !reflect.DeepEqual(got.Ingredients, want) {
		t.Errorf("Ingredients = %q, want %q", got.Ingredients, want)
	}
	if want := []string{"Boil", "Serve"}; !reflect.DeepEqual(got.Instructions, want) {
		t.Errorf("Instructions = %q, want %q", got.Instructions, want)
	}
	if got.OriginalCreator != "chef" {
		t.Errorf("OriginalCreator should be untouched, got %q", got.OriginalCreator)
	}
}

func TestUpdateRecipe_ClearAndOmit(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	rec := env.do(http.MethodPut, "/api/recipes/"+r.ID, "u1", `{"ingredients": [], "instructions": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Recipe store.Recipe `json:"recipe"`
	}](t, rec).Recipe

	if len(got.Ingredients) != 0 {
		t.Errorf("Ingredients = %q, want cleared", got.Ingredients)
	}
	if len(got.Instructions) != 2 {
		t.Errorf("Instructions = %q, want untouched", got.Instructions)
	}
	if got.Title != "Garlic noodles" {
		t.Errorf("Title = %q, want untouched", got.Title)
	}
}

func TestUpdateRecipe_Errors(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	tests := []struct {
		name   string
		id     string
		body   any
		status int
		code   ErrorCode
	}{
		{"invalid json", r.ID, "{", http.StatusBadRequest, CodeBadRequest},
		{"long title", r.ID, map[string]string{"title": strings.Repeat("é", 141)}, http.StatusBadRequest, CodeValidation},
		{"wrong list type", r.ID, map[string]any{"ingredients": 12}, http.StatusBadRequest, CodeValidation},
		{"missing recipe", "nope", map[string]string{"title": "x"}, http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPut, "/api/recipes/"+tt.id, "u1", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decode[errorResponse](t, rec); got.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Error.Code, tt.code)
			}
		})
	}
}

// --- Delete Tests ---

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	if rec := env.do(http.MethodDelete, "/api/recipes/"+r.ID, "u2", nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user delete = %d, want 404", rec.Code)
	}

	rec := env.do(http.MethodDelete, "/api/recipes/"+r.ID, "u1", nil)
	if rec.Code != http.StatusOK || decode[map[string]any](t, rec)["deleted"] != true {
		t.Fatalf("DELETE = %d %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(http.MethodDelete, "/api/recipes/"+r.ID, "u1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

// --- Reimport Tests ---

func TestReimportRecipe(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	env.importer.result = importer.ImportResult{
		Title:        "Garlic noodles",
		Ingredients:  []string{"noodles"},
		Instructions: []string{},
		Warnings:     []string{importer.WarnNoInstructions},
	}

	rec := env.do(http.MethodPost, "/api/recipes/"+r.ID+"/reimport", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[createdResponse](t, rec)
	if got.Extraction.Status != importer.StatusPartial {
		t.Errorf("status = %s, want partial", got.Extraction.Status)
	}
	if !reflect.DeepEqual(got.Recipe.Ingredients, []string{"noodles"}) || len(got.Recipe.Instructions) != 0 {
		t.Errorf("lists = %q / %q", got.Recipe.Ingredients, got.Recipe.Instructions)
	}
	if got.Recipe.OriginalCreator != "chef" {
		t.Errorf("creator should be kept when none was fetched, got %q", got.Recipe.OriginalCreator)
	}
	if env.importer.lastReq.URL != r.SourceURL || env.importer.lastReq.FallbackTitle != r.Title {
		t.Errorf("reimport request = %+v", env.importer.lastReq)
	}
}

func TestReimportRecipe_FailedKeepsLists(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	env.importer.result = importer.ImportResult{
		Ingredients:  []string{},
		Instructions: []string{},
		Warnings:     []string{"TikTok oEmbed failed (500).", importer.WarnNoCaption},
	}

	rec := env.do(http.MethodPost, "/api/recipes/"+r.ID+"/reimport", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[createdResponse](t, rec)
	if got.Extraction.Status != importer.StatusFailed {
		t.Errorf("status = %s, want failed", got.Extraction.Status)
	}
	if !reflect.DeepEqual(got.Recipe.Ingredients, r.Ingredients) {
		t.Errorf("Ingredients = %q, want kept %q", got.Recipe.Ingredients, r.Ingredients)
	}

	if rec := env.do(http.MethodPost, "/api/recipes/missing/reimport", "u1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing reimport = %d, want 404", rec.Code)
	}
}

// --- Grocery Tests ---

func TestGetGroceryList(t *testing.T) {
	env := newTestEnv(t)
	r := env.create("u1", "https://tiktok.com/v/1")

	rec := env.do(http.MethodGet, "/api/recipes/"+r.ID+"/grocery", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[groceryResponse](t, rec)
	if got.RecipeID != r.ID || len(got.Items) != 2 {
		t.Errorf("unexpected list: %+v", got)
	}
	if want := "Garlic noodles\n- 200g noodles\n- 4 cloves garlic"; got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

// --- parseStringList Tests ---

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *[]string
		wantErr bool
	}{
		{"absent", "", nil, false},
		{"null", "null", nil, false},
		{"string", `"a\n b \n\n"`, &[]string{"a", "b"}, false},
		{"array", `["a", " ", 3, "b"]`, &[]string{"a", "b"}, false},
		{"empty array", `[]`, &[]string{}, false},
		{"object", `{"a":1}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStringList("ingredients", json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStringList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseStringList() = %v, want %v", got, tt.want)
			}
		})
	}
}
