package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lostfound/internal/lf"
	"lostfound/internal/testutil"
	"lostfound/internal/vault"
)

type testServer struct {
	srv   *Server
	store *testutil.FaultyStore
	vault *vault.MemoryVault
	clock *testutil.StubClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := testutil.FixedClock()
	store := testutil.NewFaultyStore(testutil.NewTestStore(t))
	v := testutil.NewTestVault(clock)
	svc := lf.NewLFService(store, v, lf.NewNopLogger(), clock, testutil.NewStubIDGenerator(), lf.Options{
		DatabaseName: "brz_test",
		Location:     time.UTC,
	})
	return &testServer{srv: New(svc, lf.NewNopLogger()), store: store, vault: v, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func phone(lp string) map[string]any {
	return map[string]any{
		"lp":                lp,
		"kategoria":         "Telefony",
		"opis":              "czarny smartfon",
		"marka":             "Nokia",
		"osoba_przyjmujaca": "Anna",
	}
}

func (ts *testServer) createItem(t *testing.T, body map[string]any) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/items", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode(t, rec)["item"].(map[string]any)
	return int64(item["id"].(float64))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	ts.store.FailPing = true
	rec = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodOptions, "/api/items", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestItemsLifecycle(t *testing.T) {
	ts := newTestServer(t)

	id := ts.createItem(t, phone("T1"))

	rec := ts.do(t, http.MethodGet, "/api/items/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode(t, rec)["item"].(map[string]any)
	assert.Equal(t, "T1", item["lp"])
	assert.Equal(t, "Znaleziony", item["status"])
	assert.Equal(t, "2025-06-01 10:00:00", item["data_utworzenia"])

	rec = ts.do(t, http.MethodPut, "/api/items/"+itoa(id), map[string]any{"opis": "pęknięty ekran"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pęknięty ekran", decode(t, rec)["item"].(map[string]any)["opis"])

	rec = ts.do(t, http.MethodPost, "/api/items/"+itoa(id)+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wydany", decode(t, rec)["item"].(map[string]any)["status"])

	rec = ts.do(t, http.MethodGet, "/api/items?status=Wydany", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = ts.do(t, http.MethodGet, "/api/items?category=Klucze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 0)

	rec = ts.do(t, http.MethodDelete, "/api/items/"+itoa(id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/items/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateItem_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.createItem(t, phone("T1"))

	tests := []struct {
		name string
		body any
		want int
	}{
		{"duplicate lp", phone("T1"), http.StatusConflict},
		{"missing brand", map[string]any{"lp": "T2", "kategoria": "Telefony", "opis": "x", "osoba_przyjmujaca": "Anna"}, http.StatusBadRequest},
		{"unknown category", map[string]any{"lp": "X1", "kategoria": "Parasole", "opis": "x", "osoba_przyjmujaca": "Anna"}, http.StatusBadRequest},
		{"not an object", "T1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/items", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestItemIDParam(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/items/abc", "/api/items/0", "/api/export/label/-1"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestNextLPAndStats(t *testing.T) {
	ts := newTestServer(t)
	ts.createItem(t, phone("T4"))

	rec := ts.do(t, http.MethodGet, "/api/items/next-lp?category=Telefony", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T5", decode(t, rec)["lp"])

	rec = ts.do(t, http.MethodGet, "/api/items/next-lp?category=Parasole", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["by_category"].(map[string]any)["Telefony"])
}

func TestBackups(t *testing.T) {
	ts := newTestServer(t)
	ts.createItem(t, phone("T1"))
	ts.createItem(t, phone("T2"))

	rec := ts.do(t, http.MethodPost, "/api/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "backup_2025-06-01_10-00-00.json", body["filename"])
	assert.Equal(t, float64(2), body["records"])

	rec = ts.do(t, http.MethodPost, "/api/backups/auto", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode(t, rec)["created"])

	rec = ts.do(t, http.MethodPost, "/api/backups/auto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["created"])

	rec = ts.do(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backups := decode(t, rec)["backups"].([]any)
	require.Len(t, backups, 2)
	first := backups[0].(map[string]any)
	assert.Equal(t, "backup_2025-06-01_10-00-00.json", first["filename"])
	assert.Equal(t, "2025-06-01 10:00:00", first["created"])

	ts.do(t, http.MethodDelete, "/api/items/1", nil)

	rec = ts.do(t, http.MethodPost, "/api/backups/backup_2025-06-01_10-00-00.json/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), decode(t, rec)["records"])

	rec = ts.do(t, http.MethodGet, "/api/items", nil)
	assert.Len(t, decode(t, rec)["items"], 2)

	rec = ts.do(t, http.MethodDelete, "/api/backups/auto_backup_2025-06-01_10-00.json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode(t, rec)["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "DeleteSnapshot", history[0].(map[string]any)["operation"])
}

func TestListBackups_CreatedIsModificationTime(t *testing.T) {
	ts := newTestServer(t)

	content := `{"version":"1.0","data":[]}`
	ts.clock.Advance(90 * time.Minute)
	require.NoError(t, ts.vault.PutSnapshot(context.Background(), "backup_2025-01-01_00-00-00.json",
		strings.NewReader(content), int64(len(content))))

	rec := ts.do(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backups := decode(t, rec)["backups"].([]any)
	require.Len(t, backups, 1)
	assert.Equal(t, "2025-06-01 11:30:00", backups[0].(map[string]any)["created"])
}

func TestBackupErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"restore missing", http.MethodPost, "/api/backups/backup_2020-01-01_00-00-00.json/restore", http.StatusNotFound},
		{"restore unknown name", http.MethodPost, "/api/backups/missing.json/restore", http.StatusNotFound},
		{"restore impossible timestamp", http.MethodPost, "/api/backups/backup_2025-13-40_99-99-99.json/restore", http.StatusNotFound},
		{"restore dotfile", http.MethodPost, "/api/backups/.hidden.json/restore", http.StatusBadRequest},
		{"delete unknown name", http.MethodDelete, "/api/backups/backup_latest.json", http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/backups/backup_2020-01-01_00-00-00.json", http.StatusNotFound},
		{"history bad limit", http.MethodGet, "/api/history?limit=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("store unreadable", func(t *testing.T) {
		ts.store.FailFetch = true
		defer func() { ts.store.FailFetch = false }()
		rec := ts.do(t, http.MethodPost, "/api/backups", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createItem(t, phone("T1"))

	rec := ts.do(t, http.MethodGet, "/api/export/excel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="BRZ_export_2025-06-01_10-00-00.xlsx"`, rec.Header().Get("Content-Disposition"))
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Telefony"}, f.GetSheetList())

	rec = ts.do(t, http.MethodGet, "/api/export/label/"+itoa(id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "T1 - Telefony")

	rec = ts.do(t, http.MethodGet, "/api/export/label/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{lf.ErrNotFound, http.StatusNotFound},
		{lf.ErrInvalidFormat, http.StatusBadRequest},
		{lf.ErrValidation, http.StatusBadRequest},
		{lf.ErrConflict, http.StatusConflict},
		{lf.ErrTimeout, http.StatusGatewayTimeout},
		{lf.ErrConfiguration, http.StatusServiceUnavailable},
		{lf.ErrWriteFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := errors.Wrap(errors.Mark(errors.New("boom"), tt.kind), "handler")
		assert.Equal(t, tt.want, statusFor(err), tt.kind.Error())
	}
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("plain")))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
