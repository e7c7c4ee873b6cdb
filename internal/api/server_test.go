package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/pipeline"
	"github.com/crewledger/crewledger/internal/reconcile"
	"github.com/crewledger/crewledger/internal/store"
)

const header = "Date,Transaction type,Name,Account full name,Amount\n"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.SeedMappings(ctx, categories.DefaultMappings())
	require.NoError(t, err)
	require.NoError(t, st.UpsertEntity(ctx, model.Entity{ID: "v-hd", Pool: model.PoolVendors, DisplayName: "Home Depot"}))
	require.NoError(t, st.UpsertEntity(ctx, model.Entity{ID: "c-smith", Pool: model.PoolClients, DisplayName: "Smith Family"}))

	srv := httptest.NewServer(NewServer(pipeline.New(st, pipeline.DefaultConfig()), opts).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/imports", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, srv *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
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

func fixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/export.csv")
	require.NoError(t, err)
	return data
}

func TestImportLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := upload(t, srv, "export.csv", fixture(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[pipeline.Preview](t, resp)
	require.NotEmpty(t, p.ID)
	assert.Len(t, p.UniqueRows, 5)
	assert.Len(t, p.Errors, 1)

	resp = get(t, srv, "/api/imports/"+p.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/commit", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sum := decode[batch.Summary](t, resp)
	assert.Equal(t, 5, sum.ImportedCount)
	assert.Equal(t, 1, sum.ErrorCount)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/commit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "a preview commits once")

	resp = get(t, srv, "/api/batches")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.ImportBatch](t, resp), 1)

	resp = get(t, srv, "/api/batches/"+sum.BatchID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[batchDetail](t, resp)
	assert.Len(t, detail.Rows, 5)
	assert.NotEmpty(t, detail.MatchLog)

	resp = postJSON(t, srv, "/api/batches/"+sum.BatchID+"/rollback", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rb := decode[batch.RollbackResult](t, resp)
	assert.Equal(t, 5, rb.RowsReverted)
	assert.Equal(t, model.BatchRolledBack, rb.Status)

	resp = postJSON(t, srv, "/api/batches/imp-20250101-deadbeef/rollback", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, srv, "/api/batches/not-a-batch/rollback", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = get(t, srv, "/api/batches/not-a-batch")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommit_MismatchIsConflict(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := upload(t, srv, "a.csv", []byte(header+"01/15/2025,Expense,Home Depot,Expenses:Tools,100.00\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[pipeline.Preview](t, resp)
	resp = postJSON(t, srv, "/api/imports/"+first.ID+"/commit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = upload(t, srv, "b.csv", []byte(header+"01/15/2025,Expense,Home Depot,Expenses:Tools,-100.00\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[pipeline.Preview](t, resp)
	assert.False(t, second.Reconciliation.IsAligned)

	resp = postJSON(t, srv, "/api/imports/"+second.ID+"/commit", map[string]any{"override": false})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[mismatchResponse](t, resp)
	assert.Equal(t, "200.00", body.Reconciliation.Difference.StringFixed(2))

	resp = postJSON(t, srv, "/api/imports/"+second.ID+"/commit", map[string]any{"override": true})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCommit_BadOverrideIsBadRequest(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := upload(t, srv, "a.csv", []byte(header+"01/15/2025,Expense,Lowes,Expenses:Tools,10.00\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[pipeline.Preview](t, resp)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/commit", map[string]any{
		"entityOverrides": map[string]map[string]string{"2": {"vendor": "c-smith"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/commit", map[string]any{
		"entityOverrides": map[string]map[string]string{"2": {"vendor": "v-hd"}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCommit_SubCentAmountIsRowError(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := upload(t, srv, "a.csv", []byte(header+
		"01/15/2025,Expense,Home Depot,Expenses:Tools,10.005\n"+
		"01/16/2025,Expense,Home Depot,Expenses:Tools,12.50\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[pipeline.Preview](t, resp)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "Amount", p.Errors[0].Field)
	assert.Len(t, p.UniqueRows, 1)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/commit", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sum := decode[batch.Summary](t, resp)
	assert.Equal(t, 1, sum.ImportedCount)
	assert.Equal(t, 1, sum.ErrorCount)
}

func TestWriteDomainError_InvariantViolationIsUnprocessable(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/imports/x/commit", nil)
	writeDomainError(rec, req, &pipeline.ValidationFailedError{Errors: []reconcile.ValidationError{
		{Invariant: 6, Line: 2, Description: `unknown entity "v-gone"`},
	}})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body validationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Violations, 1)
	assert.Equal(t, 6, body.Violations[0].Invariant)
}

func TestResolveCategory(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := upload(t, srv, "export.csv", fixture(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[pipeline.Preview](t, resp)
	require.Len(t, p.UnmappedCategories, 1)

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/mappings", mappingRequest{
		AccountPath: p.UnmappedCategories[0].AccountPath,
		Category:    "Dumpster & Waste",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decode[pipeline.Preview](t, resp)
	assert.Empty(t, next.UnmappedCategories)

	resp = get(t, srv, "/api/imports/"+p.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[pipeline.Preview](t, resp).UnmappedCategories, "cached preview replaced")

	resp = postJSON(t, srv, "/api/imports/"+p.ID+"/mappings", mappingRequest{AccountPath: "", Category: "Materials"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_Rejections(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := upload(t, srv, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, srv, "a.csv", []byte("Date,Amount\n01/15/2025,10.00\n"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "missing required column")

	resp, err := http.Post(srv.URL+"/api/imports", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, srv, "/api/imports/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 1, RateBurst: 1})

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv, "/healthz").StatusCode)
}
