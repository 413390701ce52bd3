package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach/internal/auth"
	"github.com/ignite/outreach/internal/compose"
	"github.com/ignite/outreach/internal/config"
	"github.com/ignite/outreach/internal/delivery"
	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/generate"
	"github.com/ignite/outreach/internal/service/batch"
	"github.com/ignite/outreach/internal/service/outreach"
	"github.com/ignite/outreach/internal/tracking"
)

const uploadCSV = `Country,States/City,Name,Designation,Mail,University
USA,California,Jane Doe,Dean,jane@stanford.edu,Stanford University
India,Mumbai,Raj Patel,Counselor,raj@iitb.ac.in,IIT Bombay
`

// fakeRepo backs both the batch service and the send pipeline.
type fakeRepo struct {
	batches   map[string]*domain.Batch
	records   map[string][]domain.TrackingRecord
	delivered map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		batches:   make(map[string]*domain.Batch),
		records:   make(map[string][]domain.TrackingRecord),
		delivered: make(map[string]int),
	}
}

func (f *fakeRepo) Create(_ context.Context, b *domain.Batch) error {
	copied := *b
	f.batches[b.ID] = &copied
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*domain.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, batch.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeRepo) List(_ context.Context) ([]domain.Batch, error) {
	var out []domain.Batch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTime.After(out[j].UploadTime) })
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.batches[id]; !ok {
		return batch.ErrNotFound
	}
	delete(f.batches, id)
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) Records(_ context.Context, batchID string) ([]domain.TrackingRecord, error) {
	return f.records[batchID], nil
}

func (f *fakeRepo) UpdateDelivered(_ context.Context, batchID string, delivered int) error {
	b, ok := f.batches[batchID]
	if !ok {
		return batch.ErrNotFound
	}
	b.Delivered = delivered
	f.delivered[batchID] = delivered
	return nil
}

func (f *fakeRepo) CreateRecord(_ context.Context, rec *domain.TrackingRecord) error {
	f.records[rec.BatchID] = append(f.records[rec.BatchID], *rec)
	return nil
}

type fakeSettings struct {
	settings domain.Settings
	saved    *domain.Settings
}

func (f *fakeSettings) Get(_ context.Context) (*domain.Settings, error) {
	copied := f.settings
	return &copied, nil
}

func (f *fakeSettings) Save(_ context.Context, s *domain.Settings) error {
	f.settings = *s
	f.saved = s
	return nil
}

type fakeEvents struct {
	events []domain.TrackingEvent
	since  time.Time
	limit  int
}

func (f *fakeEvents) RecentEvents(_ context.Context, since time.Time, limit int) ([]domain.TrackingEvent, error) {
	f.since = since
	f.limit = limit
	return f.events, nil
}

type fakeGenerator struct {
	result *generate.Result
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, contact generate.ContactData, _ string) *generate.Result {
	if f.result == nil {
		return nil
	}
	copied := *f.result
	copied.Body = fmt.Sprintf("Dear %s,\n\n%s", contact.Name, f.result.Body)
	return &copied
}

type fakeSender struct {
	verifyErr error
	sent      []*delivery.Message
}

func (f *fakeSender) Verify(_ context.Context, _ delivery.Credentials) error { return f.verifyErr }

func (f *fakeSender) Send(_ context.Context, _ delivery.Credentials, msg *delivery.Message) bool {
	f.sent = append(f.sent, msg)
	return true
}

type testEnv struct {
	repo     *fakeRepo
	settings *fakeSettings
	events   *fakeEvents
	sender   *fakeSender
	handler  http.Handler
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepo()
	repo.batches["b1"] = &domain.Batch{
		ID:          "b1",
		UploadTime:  time.Now().UTC(),
		CSVName:     "prospects.csv",
		TotalEmails: 2,
		Contacts: []domain.Contact{
			{Name: "Jane Doe", Email: "jane@stanford.edu", University: "Stanford University"},
			{Name: "Raj Patel", Email: "raj@iitb.ac.in", University: "IIT Bombay"},
		},
	}

	settings := &fakeSettings{settings: domain.Settings{
		OpenAIAPIKey: "sk-test",
		Email:        "amit@foreignadmits.com",
		AppPassword:  "app-pass",
		Sender:       domain.SenderIdentity{Name: "Amit Shah", Company: "ForeignAdmits"},
	}}
	events := &fakeEvents{}
	sender := &fakeSender{}

	injector, err := tracking.NewInjector("http://localhost:8080")
	require.NoError(t, err)

	pipeline := outreach.NewService(
		repo, settings, repo,
		compose.NewComposer(),
		&fakeGenerator{result: &generate.Result{
			SubjectOptions: []string{"Partnering with your office"},
			Body:           "I would love to connect about study-abroad support.\n\nBest,\nAmit",
		}},
		injector, sender, 0,
	)

	h := NewHandlers(batch.NewService(repo), pipeline, settings, events)
	trk := tracking.NewHandler(tracking.NewCollector(&noopTrackingStore{}))

	return &testEnv{
		repo:     repo,
		settings: settings,
		events:   events,
		sender:   sender,
		handler:  SetupRoutes(h, nil, trk),
	}
}

// noopTrackingStore satisfies the collector for routing tests.
type noopTrackingStore struct{}

func (noopTrackingStore) Record(context.Context, string) (*domain.TrackingRecord, error) {
	return nil, tracking.ErrRecordNotFound
}
func (noopTrackingStore) UpdateRecord(context.Context, *domain.TrackingRecord) error { return nil }
func (noopTrackingStore) AppendEvent(context.Context, *domain.TrackingEvent) error   { return nil }
func (noopTrackingStore) BatchRecords(context.Context, string) ([]domain.TrackingRecord, error) {
	return nil, nil
}
func (noopTrackingStore) UpdateBatchEngagement(context.Context, string, int, int, float64, float64) error {
	return nil
}
func (noopTrackingStore) BatchDelivered(context.Context, string) (int, error) { return 0, nil }

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestProcessBatchMultipart(t *testing.T) {
	env := setupTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "prospects.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(uploadCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/batch/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "prospects.csv", body["csv_name"])
	assert.Equal(t, float64(2), body["total_contacts"])
	assert.NotEmpty(t, body["batch_id"])
	assert.Contains(t, env.repo.batches, body["batch_id"].(string))
}

func TestProcessBatchRawBody(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/batch/process", bytes.NewBufferString(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProcessBatchRejectsBadCSV(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/batch/process", bytes.NewBufferString("Name,Mail\n"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateEmails(t *testing.T) {
	env := setupTestServer(t)

	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/generate", map[string]string{"batch_id": "b1"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["generated"])
	emails := body["generated_emails"].([]interface{})
	require.Len(t, emails, 2)
	first := emails[0].(map[string]interface{})
	assert.Equal(t, "Partnering with your office", first["subject"])
	assert.Contains(t, first["text_content"], "Dear Jane Doe")
}

func TestGenerateEmailsRequiresAPIKey(t *testing.T) {
	env := setupTestServer(t)
	env.settings.settings.OpenAIAPIKey = ""

	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/generate", map[string]string{"batch_id": "b1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateEmailsUnknownBatch(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/generate", map[string]string{"batch_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func testEmails() []domain.GeneratedEmail {
	return []domain.GeneratedEmail{
		{
			ID: "e1", ContactName: "Jane Doe", Email: "jane@stanford.edu",
			Subject: "Hello Stanford", TextContent: "Dear Jane,\n\nHello.\n\nBest,\nAmit",
			TrackingID: "t1",
		},
		{
			ID: "e2", ContactName: "Raj Patel", Email: "raj@iitb.ac.in",
			Subject: "Hello IIT", TextContent: "Dear Raj,\n\nHello.\n\nBest,\nAmit",
			TrackingID: "t2",
		},
	}
}

func TestSendEmails(t *testing.T) {
	env := setupTestServer(t)

	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/send", map[string]interface{}{
		"batch_id":         "b1",
		"generated_emails": testEmails(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["delivered"])
	assert.Len(t, env.sender.sent, 2)
	assert.Len(t, env.repo.records["b1"], 2)
	assert.Equal(t, 2, env.repo.delivered["b1"])
}

func TestSendEmailsVerifyFailure(t *testing.T) {
	env := setupTestServer(t)
	env.sender.verifyErr = fmt.Errorf("535 bad credentials")

	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/send", map[string]interface{}{
		"batch_id":         "b1",
		"generated_emails": testEmails(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.sender.sent)
}

func TestSendEmailsRequiresEmails(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodPost, "/api/batch/send", map[string]interface{}{"batch_id": "b1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHistory(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodGet, "/api/batch/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["batches"], 1)
}

func TestBatchDetails(t *testing.T) {
	env := setupTestServer(t)
	env.repo.records["b1"] = []domain.TrackingRecord{{TrackingID: "t1", BatchID: "b1", Email: "jane@stanford.edu"}}

	w := doJSON(t, env.handler, http.MethodGet, "/api/batch/b1/details", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "b1", body["batch"].(map[string]interface{})["id"])
	assert.Len(t, body["records"], 1)
}

func TestBatchDetailsNotFound(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodGet, "/api/batch/missing/details", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteBatch(t *testing.T) {
	env := setupTestServer(t)

	w := doJSON(t, env.handler, http.MethodDelete, "/api/batch/b1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.handler, http.MethodDelete, "/api/batch/b1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsOverview(t *testing.T) {
	env := setupTestServer(t)
	env.repo.batches["b1"].Delivered = 2
	env.repo.batches["b1"].Opened = 1

	w := doJSON(t, env.handler, http.MethodGet, "/api/stats/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total_sent"])
	assert.Equal(t, float64(1), body["total_opened"])
}

func TestStatsMonthly(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodGet, "/api/stats/monthly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["months"], 1)
}

func TestRecentEvents(t *testing.T) {
	env := setupTestServer(t)
	env.events.events = []domain.TrackingEvent{{ID: "e1", TrackingID: "t1", EventType: "open"}}

	w := doJSON(t, env.handler, http.MethodGet, "/api/events?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["events"], 1)
	assert.Equal(t, 10, env.events.limit)
}

func TestRecentEventsSinceCursor(t *testing.T) {
	env := setupTestServer(t)
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	w := doJSON(t, env.handler, http.MethodGet, "/api/events?since=2026-08-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.events.since.Equal(since))
}

func TestRecentEventsRejectsBadCursor(t *testing.T) {
	env := setupTestServer(t)
	w := doJSON(t, env.handler, http.MethodGet, "/api/events?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSettingsMasksSecrets(t *testing.T) {
	env := setupTestServer(t)

	w := doJSON(t, env.handler, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["openai_api_key_set"])
	assert.Equal(t, true, body["app_password_set"])
	assert.Equal(t, "amit@foreignadmits.com", body["email"])
	assert.NotContains(t, w.Body.String(), "sk-test")
	assert.NotContains(t, w.Body.String(), "app-pass")
}

func TestSaveSettingsKeepsBlankSecrets(t *testing.T) {
	env := setupTestServer(t)

	w := doJSON(t, env.handler, http.MethodPut, "/api/settings", map[string]interface{}{
		"email":  "new@foreignadmits.com",
		"sender": map[string]string{"sender_name": "Amit Shah"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "new@foreignadmits.com", env.settings.settings.Email)
	assert.Equal(t, "sk-test", env.settings.settings.OpenAIAPIKey)
	assert.Equal(t, "app-pass", env.settings.settings.AppPassword)
}

func TestRequireAuthGuardsAPI(t *testing.T) {
	env := setupTestServer(t)
	authCfg := config.AuthConfig{
		Email:        "amit@foreignadmits.com",
		Password:     "secret-password",
		CookieName:   "email-outreach-session",
		CookieMaxAge: 3600,
	}
	manager := auth.NewManager(authCfg, auth.NewFixedProvider(authCfg.Email, authCfg.Password))
	repoTrk := tracking.NewHandler(tracking.NewCollector(&noopTrackingStore{}))

	h := NewHandlers(batch.NewService(env.repo), nil, env.settings, env.events)
	guarded := SetupRoutes(h, manager, repoTrk)

	w := doJSON(t, guarded, http.MethodGet, "/api/batch/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// tracking and health stay public
	w = doJSON(t, guarded, http.MethodGet, "/track/open?id=unknown", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, guarded, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// login issues a cookie that unlocks the API
	w = doJSON(t, guarded, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    authCfg.Email,
		"password": authCfg.Password,
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/batch/history", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
