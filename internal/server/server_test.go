package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/comments/internal/api"
	"github.com/idilsaglam/comments/internal/model"
	"github.com/idilsaglam/comments/internal/store/jsonstore"
)

func newEcho(t *testing.T, opt Options) *echo.Echo {
	t.Helper()
	store, err := jsonstore.Open("")
	require.NoError(t, err)
	h, err := NewHandler(store, opt)
	require.NoError(t, err)
	opt.Quiet = true
	return New(h, opt)
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	e := newEcho(t, Options{})

	rec := do(e, http.MethodGet, "/comments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, jsonstore.Seed(), got)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestListByPost(t *testing.T) {
	e := newEcho(t, Options{})

	rec := do(e, http.MethodGet, "/comments?postId=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = do(e, http.MethodGet, "/comments?postId=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePatchDelete(t *testing.T) {
	e := newEcho(t, Options{})

	rec := do(e, http.MethodPost, "/comments", `{"id":0,"name":"n","body":"b"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 6, created.ID)

	rec = do(e, http.MethodPatch, "/comments/6", `{"id":6,"body":"b COMMENT UPDATED!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/comments/6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.Comment{ID: 6, Name: "n", Body: "b COMMENT UPDATED!"}, got)

	rec = do(e, http.MethodDelete, "/comments/6", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/comments/6", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadID(t *testing.T) {
	e := newEcho(t, Options{})

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/comments/x", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/comments/99", "").Code)
}

func TestForcedFailures(t *testing.T) {
	e := newEcho(t, Options{Fail: []string{"create", " Delete "}})

	assert.Equal(t, http.StatusInternalServerError,
		do(e, http.MethodPost, "/comments", `{"name":"n"}`).Code)
	assert.Equal(t, http.StatusInternalServerError,
		do(e, http.MethodDelete, "/comments/1", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/comments", "").Code)
	assert.Equal(t, http.StatusOK,
		do(e, http.MethodPatch, "/comments/1", `{"body":"z"}`).Code)
}

func TestUnknownFailOp(t *testing.T) {
	store, err := jsonstore.Open("")
	require.NoError(t, err)

	_, err = NewHandler(store, Options{Fail: []string{"explode"}})
	assert.Error(t, err)
}

func TestLatency(t *testing.T) {
	e := newEcho(t, Options{Latency: 30 * time.Millisecond})

	start := time.Now()
	rec := do(e, http.MethodGet, "/comments", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// The API client and the dev server agree on the wire format.
func TestClientAgainstServer(t *testing.T) {
	srv := httptest.NewServer(newEcho(t, Options{Fail: []string{"update"}}))
	t.Cleanup(srv.Close)
	client := api.New(srv.URL)
	ctx := context.Background()

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	require.NoError(t, client.Create(ctx, model.Comment{Name: "n", Body: "b"}))
	require.NoError(t, client.Delete(ctx, 1))

	err = client.Update(ctx, list[1])
	assert.EqualError(t, err, "request failed with status code 500")

	list, err = client.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 6, list[4].ID)
}
