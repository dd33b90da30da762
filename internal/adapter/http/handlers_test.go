package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapthttp "weightlog/internal/adapter/http"
	"weightlog/internal/adapter/memory"
	"weightlog/internal/app"
	"weightlog/internal/domain"
	"weightlog/internal/instrumentation"
)

type testEnv struct {
	db     *memory.DB
	server *httptest.Server
}

func newTestEnv(t *testing.T, user *domain.User) *testEnv {
	t.Helper()

	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html>weightlog</html>"), 0o644))

	db := memory.New()
	cache := app.NewChartCache(1<<20, time.Minute)
	records := app.NewRecordsService(db, cache)
	charts := app.NewChartsService(db, cache)
	authSvc := app.NewAuthService(db.NewUserRepo(), db.NewSessionRepo(), 24*time.Hour)

	srv := adapthttp.New(records, charts, authSvc, adapthttp.OIDCConfig{}, instrumentation.NewTestInstrumentation(), webDir)
	if user != nil {
		srv = srv.WithoutAuth(user)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{db: db, server: ts}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedRecord(t *testing.T, db *memory.DB, ownerID int64, date, timeOfDay string, kg float64) int64 {
	t.Helper()
	weight, err := domain.NewWeight(kg)
	require.NoError(t, err)
	id, err := db.Create(context.Background(), domain.WeightRecord{
		UserID:   ownerID,
		Date:     date,
		Time:     timeOfDay,
		WeightKg: weight,
	})
	require.NoError(t, err)
	return id
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["ok"])
}

func TestCreateRecord(t *testing.T) {
	env := newTestEnv(t, &domain.User{ID: 1, Username: "serj"})

	t.Run("created", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/weight-records", map[string]any{
			"date":      "2024-03-10",
			"time":      "08:15",
			"weight_kg": 85.5,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Weight record added successfully.", body["message"])

		rec := body["record"].(map[string]any)
		assert.Equal(t, "2024-03-10", rec["date"])
		assert.Equal(t, "08:15:00", rec["time"])
		assert.InDelta(t, 85.5, rec["weight_kg"], 0.001)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/weight-records", map[string]any{})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		errs := decodeBody(t, resp)["errors"].(map[string]any)
		assert.Contains(t, errs, "date")
		assert.Contains(t, errs, "time")
		assert.Contains(t, errs, "weight_kg")
	})

	t.Run("invalid weight", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/weight-records", map[string]any{
			"date":      "2024-03-10",
			"time":      "08:15",
			"weight_kg": 1234.5,
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		errs := decodeBody(t, resp)["errors"].(map[string]any)
		assert.Contains(t, errs, "weight_kg")
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/weight-records", map[string]any{
			"date":   "2024-03-10",
			"bogus":  true,
			"weight": 80,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateRecord(t *testing.T) {
	user := &domain.User{ID: 1, Username: "serj"}

	t.Run("updates own record", func(t *testing.T) {
		env := newTestEnv(t, user)
		id := seedRecord(t, env.db, 1, "2024-03-10", "08:00:00", 85.5)

		resp := env.request(t, http.MethodPut, fmt.Sprintf("/api/weight-records/%d", id), map[string]any{
			"weight_kg": 84.2,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Weight record updated successfully.", body["message"])

		rec := body["record"].(map[string]any)
		assert.InDelta(t, 84.2, rec["weight_kg"], 0.001)
		assert.Equal(t, "2024-03-10", rec["date"])
	})

	t.Run("forbidden on another owner's record", func(t *testing.T) {
		env := newTestEnv(t, user)
		id := seedRecord(t, env.db, 2, "2024-03-10", "08:00:00", 85.5)

		resp := env.request(t, http.MethodPut, fmt.Sprintf("/api/weight-records/%d", id), map[string]any{
			"weight_kg": 84.2,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t, user)

		resp := env.request(t, http.MethodPut, "/api/weight-records/99", map[string]any{
			"weight_kg": 84.2,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid partial value", func(t *testing.T) {
		env := newTestEnv(t, user)
		id := seedRecord(t, env.db, 1, "2024-03-10", "08:00:00", 85.5)

		resp := env.request(t, http.MethodPut, fmt.Sprintf("/api/weight-records/%d", id), map[string]any{
			"date": "not-a-date",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestDeleteRecord(t *testing.T) {
	user := &domain.User{ID: 1, Username: "serj"}

	t.Run("deletes own record", func(t *testing.T) {
		env := newTestEnv(t, user)
		id := seedRecord(t, env.db, 1, "2024-03-10", "08:00:00", 85.5)

		resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/weight-records/%d", id), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Weight record deleted successfully.", decodeBody(t, resp)["message"])

		gone, err := env.db.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("forbidden on another owner's record", func(t *testing.T) {
		env := newTestEnv(t, user)
		id := seedRecord(t, env.db, 2, "2024-03-10", "08:00:00", 85.5)

		resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/weight-records/%d", id), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		still, err := env.db.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t, user)
		resp := env.request(t, http.MethodDelete, "/api/weight-records/99", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, &domain.User{ID: 1, Username: "serj"})
	seedRecord(t, env.db, 1, "2024-03-09", "08:00:00", 85.0)
	seedRecord(t, env.db, 1, "2024-03-10", "08:00:00", 84.5)
	seedRecord(t, env.db, 2, "2024-03-10", "08:00:00", 70.0)

	resp := env.request(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	records := decodeBody(t, resp)["weightRecords"].([]any)
	require.Len(t, records, 2)

	// newest first
	first := records[0].(map[string]any)
	second := records[1].(map[string]any)
	assert.Equal(t, "2024-03-10", first["date"])
	assert.Equal(t, "2024-03-09", second["date"])
}

func TestWeightChart(t *testing.T) {
	env := newTestEnv(t, &domain.User{ID: 1, Username: "serj"})
	seedRecord(t, env.db, 1, "2024-03-01", "08:00:00", 80.0)
	seedRecord(t, env.db, 1, "2024-03-03", "08:00:00", 82.0)

	t.Run("gap filled series", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=all", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "all", body["mode"])

		items := body["items"].([]any)
		require.Len(t, items, 3)
		middle := items[1].(map[string]any)
		assert.Equal(t, "2024-03-02", middle["date"])
		assert.Nil(t, middle["weight"])
	})

	t.Run("mode defaults to all", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "all", decodeBody(t, resp)["mode"])
	})

	t.Run("bad mode", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=decade", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("custom bounds", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=custom&start=2024-03-02&end=2024-03-03", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		items := decodeBody(t, resp)["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "2024-03-03", items[0].(map[string]any)["date"])
	})

	t.Run("malformed custom bound", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=custom&start=not-a-date", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/weight-records"},
		{http.MethodPut, "/api/weight-records/1"},
		{http.MethodDelete, "/api/weight-records/1"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/charts/weight"},
	} {
		resp := env.request(t, tc.method, tc.path, nil)
		assert.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	do := func(method, path string, body any) *http.Response {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, env.server.URL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := do(http.MethodPost, "/api/setup", map[string]string{"username": "serj", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodPost, "/api/login", map[string]string{"username": "serj", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(http.MethodPost, "/api/login", map[string]string{"username": "serj", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForwardAuthHeader(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("Remote-User", "proxy-user")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSPAFallback(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, http.MethodGet, "/some/client/route", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "weightlog")
}

type failingRecordRepo struct{}

func (failingRecordRepo) Create(context.Context, domain.WeightRecord) (int64, error) {
	return 0, errors.New("db down")
}

func (failingRecordRepo) GetByID(context.Context, int64) (*domain.WeightRecord, error) {
	return nil, errors.New("db down")
}

func (failingRecordRepo) Update(context.Context, domain.WeightRecord) error {
	return errors.New("db down")
}

func (failingRecordRepo) Delete(context.Context, int64) error {
	return errors.New("db down")
}

func (failingRecordRepo) ListByOwner(context.Context, int64) ([]domain.WeightRecord, error) {
	return nil, errors.New("db down")
}

func TestRepoFailureIsServerError(t *testing.T) {
	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o644))

	db := memory.New()
	records := app.NewRecordsService(failingRecordRepo{}, nil)
	charts := app.NewChartsService(failingRecordRepo{}, nil)
	authSvc := app.NewAuthService(db.NewUserRepo(), db.NewSessionRepo(), 24*time.Hour)

	srv := adapthttp.New(records, charts, authSvc, adapthttp.OIDCConfig{}, instrumentation.NewTestInstrumentation(), webDir).
		WithoutAuth(&domain.User{ID: 1, Username: "serj"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	env := &testEnv{db: db, server: ts}

	t.Run("chart series", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=all", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("bad mode still a client error", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/charts/weight?mode=decade", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("dashboard", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/dashboard", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("create", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/weight-records", map[string]any{
			"date":      "2024-03-10",
			"time":      "08:15",
			"weight_kg": 85.5,
		})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestSessionCookieLifetimeMatchesTTL(t *testing.T) {
	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o644))

	const ttl = 2 * time.Hour

	db := memory.New()
	cache := app.NewChartCache(1<<20, time.Minute)
	authSvc := app.NewAuthService(db.NewUserRepo(), db.NewSessionRepo(), ttl)
	srv := adapthttp.New(
		app.NewRecordsService(db, cache),
		app.NewChartsService(db, cache),
		authSvc,
		adapthttp.OIDCConfig{},
		instrumentation.NewTestInstrumentation(),
		webDir,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	env := &testEnv{db: db, server: ts}

	resp := env.request(t, http.MethodPost, "/api/setup", map[string]string{"username": "serj", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/login", map[string]string{"username": "serj", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, int(ttl.Seconds()), session.MaxAge)
}

func TestConfigEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.request(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["sso_enabled"])
}
