package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/dropfeed/pkg/dropfeed"
	"github.com/tendant/dropfeed/pkg/dropfeed/auth"
	"github.com/tendant/dropfeed/pkg/dropfeed/repo/memory"
)

const testToken = "test-admin-token"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

// setupHandlerTest builds the full router over an in-memory repository
func setupHandlerTest(t *testing.T, opts ...HandlerOption) (http.Handler, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	clock := &testClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}

	svc, err := dropfeed.New(
		dropfeed.WithPostRepository(repo),
		dropfeed.WithAirdropRepository(repo),
		dropfeed.WithClock(clock.Now),
	)
	require.NoError(t, err)

	h := NewHandler(svc, auth.NewBearerAuthenticator(testToken), opts...)
	return NewRouter(h, RouterOptions{}), repo
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func upsertContent(t *testing.T, router http.Handler, body map[string]interface{}) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/admin/content", body, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[IDResponse](t, w)
	require.NotNil(t, resp.ID)
	return *resp.ID
}

func latest(t *testing.T, router http.Handler) LatestResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, "/content/latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	return decode[LatestResponse](t, w)
}

func TestHealth(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestLatestContent_EmptyStore(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodGet, "/content/latest", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"item":null}`, w.Body.String())
}

func TestUpsertContent_DraftThenPublish(t *testing.T) {
	router, _ := setupHandlerTest(t)

	id := upsertContent(t, router, map[string]interface{}{"title": "Brief", "body_md": "Markets"})
	assert.Nil(t, latest(t, router).Item)

	got := upsertContent(t, router, map[string]interface{}{"id": id, "title": "Brief", "body_md": "Markets", "publish": true})
	assert.Equal(t, id, got)

	item := latest(t, router).Item
	require.NotNil(t, item)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, "Brief", item.Title)
	assert.Equal(t, "Markets", item.Excerpt)
	assert.False(t, item.PublishedAt.IsZero())
}

func TestUpsertContent_EditKeepsPublishedAt(t *testing.T) {
	router, _ := setupHandlerTest(t)

	id := upsertContent(t, router, map[string]interface{}{"title": "v1", "body_md": "one", "publish": true})
	before := latest(t, router).Item
	require.NotNil(t, before)

	upsertContent(t, router, map[string]interface{}{"id": id, "title": "v2", "body_md": "two"})
	after := latest(t, router).Item
	require.NotNil(t, after)
	assert.Equal(t, "v2", after.Title)
	assert.True(t, before.PublishedAt.Equal(after.PublishedAt))

	upsertContent(t, router, map[string]interface{}{"id": id, "title": "v3", "body_md": "three", "publish": false})
	after = latest(t, router).Item
	require.NotNil(t, after)
	assert.True(t, before.PublishedAt.Equal(after.PublishedAt))
}

func TestUpsertContent_RepublishMovesPublishedAt(t *testing.T) {
	router, _ := setupHandlerTest(t)

	id := upsertContent(t, router, map[string]interface{}{"title": "v1", "body_md": "one", "publish": true})
	before := latest(t, router).Item
	require.NotNil(t, before)

	upsertContent(t, router, map[string]interface{}{"id": id, "title": "v1", "body_md": "one", "publish": true})
	after := latest(t, router).Item
	require.NotNil(t, after)
	assert.True(t, after.PublishedAt.After(before.PublishedAt))
}

func TestLatestContent_PicksMostRecentlyPublished(t *testing.T) {
	router, _ := setupHandlerTest(t)

	upsertContent(t, router, map[string]interface{}{"title": "first", "body_md": "a", "publish": true})
	second := upsertContent(t, router, map[string]interface{}{"title": "second", "body_md": "b", "publish": true})
	upsertContent(t, router, map[string]interface{}{"title": "draft", "body_md": "c"})

	item := latest(t, router).Item
	require.NotNil(t, item)
	assert.Equal(t, second, item.ID)
}

func TestLatestContent_Excerpt(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"shorter than limit", "short body", "short body"},
		{"exactly limit", strings.Repeat("x", 80), strings.Repeat("x", 80)},
		{"longer than limit", strings.Repeat("y", 80) + "tail", strings.Repeat("y", 80)},
		{"multibyte", strings.Repeat("空", 100), strings.Repeat("空", 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupHandlerTest(t)
			upsertContent(t, router, map[string]interface{}{"title": "t", "body_md": tt.body, "publish": true})

			item := latest(t, router).Item
			require.NotNil(t, item)
			assert.Equal(t, tt.want, item.Excerpt)
		})
	}
}

func TestUpsertContent_Validation(t *testing.T) {
	router, repo := setupHandlerTest(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"body_md": "b"}},
		{"missing body", map[string]interface{}{"title": "t"}},
		{"empty title", map[string]interface{}{"title": "", "body_md": "b"}},
		{"empty body", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/admin/content", tt.body, testToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"title/body_md required"}`, w.Body.String())
		})
	}

	posts, err := repo.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestUpsertContent_InvalidInput(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/admin/content", map[string]interface{}{"id": "not-a-uuid", "title": "t", "body_md": "b"}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid id"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/admin/content", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertContent_UnknownID(t *testing.T) {
	body := map[string]interface{}{"id": uuid.New().String(), "title": "t", "body_md": "b"}

	t.Run("lenient", func(t *testing.T) {
		router, _ := setupHandlerTest(t)
		w := doJSON(t, router, http.MethodPost, "/admin/content", body, testToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":null}`, w.Body.String())
	})

	t.Run("strict", func(t *testing.T) {
		router, _ := setupHandlerTest(t, WithStrictUpdates(true))
		w := doJSON(t, router, http.MethodPost, "/admin/content", body, testToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
	})
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	router, repo := setupHandlerTest(t)

	routes := []struct {
		path string
		body map[string]interface{}
	}{
		{"/admin/content", map[string]interface{}{"title": "t", "body_md": "b", "publish": true}},
		{"/admin/content/preview", map[string]interface{}{"body_md": "# hi"}},
		{"/admin/airdrop", map[string]interface{}{"category": "today", "name": "n", "publish": true}},
		{"/admin/airdrop/clear", map[string]interface{}{}},
	}
	headers := []struct {
		name  string
		value string
	}{
		{"absent", ""},
		{"scheme only", "Bearer"},
		{"wrong scheme", "Basic " + testToken},
		{"mismatch", "Bearer nope"},
		{"prefix", "Bearer " + testToken[:len(testToken)-1]},
	}

	for _, rt := range routes {
		for _, hd := range headers {
			t.Run(rt.path+"/"+hd.name, func(t *testing.T) {
				data, err := json.Marshal(rt.body)
				require.NoError(t, err)
				req := httptest.NewRequest(http.MethodPost, rt.path, bytes.NewReader(data))
				if hd.value != "" {
					req.Header.Set("Authorization", hd.value)
				}
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			})
		}
	}

	posts, err := repo.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
	airdrops, err := repo.ListAirdrops(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, airdrops)
}

func TestAdminRoutes_LowercaseScheme(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/content", strings.NewReader(`{"title":"t","body_md":"b"}`))
	req.Header.Set("Authorization", "bearer   "+testToken+"  ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPreviewContent(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/admin/content/preview", map[string]interface{}{"body_md": "**bold**"}, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[PreviewResponse](t, w)
	assert.Contains(t, resp.HTML, "<strong>bold</strong>")

	w = doJSON(t, router, http.MethodPost, "/admin/content/preview", map[string]interface{}{}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	router, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/admin/content", nil)
	req.Header.Set("Origin", "https://client.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodGet, "/airdrops/later", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// failingService returns storage errors from every call
type failingService struct {
	dropfeed.Service
}

var errStorage = errors.New("connection refused")

func (failingService) LatestPost(context.Context) (*dropfeed.Post, error) { return nil, errStorage }
func (failingService) ListAirdrops(context.Context, dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	return nil, errStorage
}
func (failingService) ClearAirdrops(context.Context, dropfeed.ClearAirdropsRequest) error {
	return errStorage
}
func (failingService) Ping(context.Context) error { return errStorage }

func TestStorageFailures(t *testing.T) {
	router := NewRouter(NewHandler(failingService{}, auth.NewBearerAuthenticator(testToken)), RouterOptions{})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"latest", http.MethodGet, "/content/latest", http.StatusInternalServerError},
		{"airdrops", http.MethodGet, "/airdrops/today", http.StatusInternalServerError},
		{"clear", http.MethodPost, "/admin/airdrop/clear", http.StatusInternalServerError},
		{"ready", http.MethodGet, "/health/ready", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, nil, testToken)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
