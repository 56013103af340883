package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"org-messaging/internal/api"
	"org-messaging/internal/auth"
	"org-messaging/internal/config"
	"org-messaging/internal/logic"
	"org-messaging/internal/model"
	"org-messaging/internal/storage"
)

type fakeOrgs struct {
	added   []uuid.UUID
	removed []uuid.UUID
	workers map[uuid.UUID]int
}

func newFakeOrgs() *fakeOrgs {
	return &fakeOrgs{workers: make(map[uuid.UUID]int)}
}

func (f *fakeOrgs) AddOrganization(orgID uuid.UUID, _ string, workers int) error {
	f.added = append(f.added, orgID)
	f.workers[orgID] = workers
	return nil
}

func (f *fakeOrgs) RemoveOrganization(orgID uuid.UUID) error {
	f.removed = append(f.removed, orgID)
	return nil
}

func (f *fakeOrgs) SetWorkerCount(orgID uuid.UUID, n int) error {
	if _, ok := f.workers[orgID]; !ok {
		return fmt.Errorf("organization not found: %s", orgID)
	}
	f.workers[orgID] = n
	return nil
}

type testServer struct {
	srv   *httptest.Server
	store *storage.Memory
	orgs  *fakeOrgs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.SetSecret("test-secret")

	store := storage.NewMemory()
	orgs := newFakeOrgs()
	cfg := &config.Config{Workers: 2}

	l := logic.NewMessageLogic(store, nil, func() time.Time {
		return time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	})
	a := api.NewAPI(l, orgs, store, cfg)

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, orgs: orgs}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func authToken(t *testing.T, orgID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(orgID.String())
	require.NoError(t, err)
	return token
}

func TestCreateOrganizationIssuesToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/organizations", "", api.CreateOrganizationRequest{Name: "acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[map[string]string](t, resp)
	orgID, err := uuid.Parse(body["organization_id"])
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{orgID}, ts.orgs.added)

	claims, err := auth.ValidateToken(body["token"])
	require.NoError(t, err)
	require.Equal(t, orgID.String(), claims.OrganizationID)
}

func TestMessagesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/messages", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageCRUDStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	orgID := uuid.New()
	token := authToken(t, orgID)

	// Empty list first
	resp := ts.do(t, http.MethodGet, "/messages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listBody := decode[map[string][]model.Message](t, resp)
	require.NotNil(t, listBody["data"])
	require.Empty(t, listBody["data"])

	// Create -> 201 with payload
	resp = ts.do(t, http.MethodPost, "/messages", token, logic.CreateMessageRequest{
		Title:   "Launch checklist",
		Content: "verify the deploy pipeline",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Message](t, resp)
	require.True(t, created.IsActive)
	require.Equal(t, orgID, created.OrganizationID)

	// Duplicate title -> 409
	resp = ts.do(t, http.MethodPost, "/messages", token, logic.CreateMessageRequest{
		Title:   "Launch checklist",
		Content: "totally different content",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Validation failure -> 400 with field errors
	resp = ts.do(t, http.MethodPost, "/messages", token, logic.CreateMessageRequest{
		Title:   "ok",
		Content: "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decode[map[string][]logic.FieldError](t, resp)
	require.Len(t, errBody["errors"], 2)

	// Get -> 200
	resp = ts.do(t, http.MethodGet, "/messages/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Message](t, resp)
	require.Equal(t, created.ID, got.ID)

	// Get missing -> 404
	resp = ts.do(t, http.MethodGet, "/messages/"+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Update -> 204
	resp = ts.do(t, http.MethodPut, "/messages/"+created.ID.String(), token, logic.UpdateMessageRequest{
		Title:   "Launch checklist v2",
		Content: "verify the deploy pipeline twice",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deactivate -> 204, further update -> 400
	resp = ts.do(t, http.MethodPatch, "/messages/"+created.ID.String()+"/deactivate", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/messages/"+created.ID.String(), token, logic.UpdateMessageRequest{
		Title:   "Launch checklist v3",
		Content: "this message is frozen now",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Inactive delete -> 400
	resp = ts.do(t, http.MethodDelete, "/messages/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Delete missing -> 404
	resp = ts.do(t, http.MethodDelete, "/messages/"+uuid.NewString(), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteActiveMessage(t *testing.T) {
	ts := newTestServer(t)
	orgID := uuid.New()
	token := authToken(t, orgID)

	resp := ts.do(t, http.MethodPost, "/messages", token, logic.CreateMessageRequest{
		Title:   "Disposable",
		Content: "gone after this test",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Message](t, resp)

	resp = ts.do(t, http.MethodDelete, "/messages/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/messages/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessagesScopedByOrganization(t *testing.T) {
	ts := newTestServer(t)
	tokenA := authToken(t, uuid.New())
	tokenB := authToken(t, uuid.New())

	resp := ts.do(t, http.MethodPost, "/messages", tokenA, logic.CreateMessageRequest{
		Title:   "Only for A",
		Content: "organization A's message",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Message](t, resp)

	// B cannot see A's message
	resp = ts.do(t, http.MethodGet, "/messages/"+created.ID.String(), tokenB, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// B can reuse the title
	resp = ts.do(t, http.MethodPost, "/messages", tokenB, logic.CreateMessageRequest{
		Title:   "Only for A",
		Content: "organization B's message",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestListEvents(t *testing.T) {
	ts := newTestServer(t)
	orgID := uuid.New()
	token := authToken(t, orgID)

	resp := ts.do(t, http.MethodGet, "/events", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string][]model.MessageEvent](t, resp)
	require.NotNil(t, body["data"])
	require.Empty(t, body["data"])
}

func TestUpdateConcurrency(t *testing.T) {
	ts := newTestServer(t)
	orgID := uuid.New()
	token := authToken(t, orgID)

	// Unknown organization -> 404
	resp := ts.do(t, http.MethodPut, "/config/concurrency", token, api.ConcurrencyConfig{Workers: 3})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, ts.orgs.AddOrganization(orgID, "", 2))
	resp = ts.do(t, http.MethodPut, "/config/concurrency", token, api.ConcurrencyConfig{Workers: 3})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, 3, ts.orgs.workers[orgID])

	// Non-positive worker count -> 400
	resp = ts.do(t, http.MethodPut, "/config/concurrency", token, api.ConcurrencyConfig{Workers: 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
