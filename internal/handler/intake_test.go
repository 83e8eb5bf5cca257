package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/service"
)

func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const validBody = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"phone": "(555) 123-4567",
	"product": "Laptop X1",
	"issue": "Screen flickers on boot and then goes black."
}`

func TestSubmit_Valid(t *testing.T) {
	store := &fakeRequestStore{}
	h := NewIntakeHandler(store, &fakeChecker{}, nil)

	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", validBody)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, true, body["persisted"])
	id, _ := body["submissionId"].(string)
	assert.True(t, strings.HasPrefix(id, "REP-"))

	require.Len(t, store.items, 1)
	saved := store.items[0]
	assert.Equal(t, model.StatusPending, saved.Status)
	assert.Equal(t, model.PaymentPending, saved.Payment)
	assert.Equal(t, "5551234567", saved.Phone)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	store := &fakeRequestStore{}
	h := NewIntakeHandler(store, &fakeChecker{}, nil)

	bad := strings.Replace(validBody, "(555) 123-4567", "12345", 1)
	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", bad)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, errs, 1, "exactly the invalid fields must be named")
	assert.Contains(t, errs, "phone")
	assert.Empty(t, store.items, "nothing persisted on validation failure")
}

func TestSubmit_DuplicateDetected(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	checker := &fakeChecker{match: &service.DuplicateMatch{
		ID: "REP-100", Product: "Laptop X1", Status: model.StatusPending, CreatedAt: created,
	}}
	store := &fakeRequestStore{}
	h := NewIntakeHandler(store, checker, nil)

	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", validBody)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	dup, ok := body["duplicate"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "REP-100", dup["id"])
	assert.Equal(t, "Laptop X1", dup["product"])
	assert.Equal(t, model.StatusPending, dup["status"])
	assert.Empty(t, store.items)
}

func TestSubmit_ForceDuplicateBypassesCheck(t *testing.T) {
	checker := &fakeChecker{match: &service.DuplicateMatch{ID: "REP-100"}}
	store := &fakeRequestStore{}
	h := NewIntakeHandler(store, checker, nil)

	forced := strings.Replace(validBody, `"name"`, `"forceDuplicate": true, "name"`, 1)
	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", forced)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, checker.called, "override must bypass the check entirely")
	require.Len(t, store.items, 1)
	assert.NotEqual(t, "REP-100", store.items[0].ID, "forced record is independent")
}

func TestSubmit_StoreUnavailableStillAcknowledges(t *testing.T) {
	store := &fakeRequestStore{unavailable: true}
	h := NewIntakeHandler(store, &fakeChecker{}, nil)

	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", validBody)
	require.NoError(t, h.Submit(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, false, body["persisted"], "missing persistence must be signalled")
}

func TestSubmit_InvalidBody(t *testing.T) {
	h := NewIntakeHandler(&fakeRequestStore{}, &fakeChecker{}, nil)
	c, rec := jsonContext(t, http.MethodPost, "/api/repair-request", `{"name":`)
	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
