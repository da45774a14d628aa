package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/etl"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
)

func newTestServer(staging etl.Staging) *echo.Echo {
	e := echo.New()
	NewHandler(staging).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTransform(t *testing.T) {
	body := `{
		"headers": ["txn", "client", "name", "price"],
		"rows": [["T1", "c1", "Pen", 1.5], ["T1", "c1", "Cup", "3"]],
		"mapping": [
			{"sourceColumn": "txn", "targetPath": "events.params.transaction_id"},
			{"sourceColumn": "client", "targetPath": "client_id"},
			{"sourceColumn": "name", "targetPath": "events.params.items.item_name"},
			{"sourceColumn": "price", "targetPath": "events.params.items.price"}
		],
		"schema": [
			{"path": "events.params.transaction_id", "type": "string"},
			{"path": "client_id", "type": "string"},
			{"path": "events.params.items.item_name", "type": "string"},
			{"path": "events.params.items.price", "type": "float"}
		],
		"eventName": "purchase",
		"appStream": true
	}`

	rec := do(newTestServer(nil), http.MethodPost, "/v1/transform", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"app_instance_id": "c1",
		"events": [{
			"name": "purchase",
			"params": {
				"transaction_id": "T1",
				"items": [
					{"item_name": "Pen", "price": 1.5},
					{"item_name": "Cup", "price": 3}
				]
			}
		}]
	}]`, rec.Body.String())
}

func TestTransformRejectsBadMapping(t *testing.T) {
	body := `{"mapping": [
		{"sourceColumn": "a", "targetPath": "client_id"},
		{"sourceColumn": "b", "targetPath": "client_id"}
	]}`
	rec := do(newTestServer(nil), http.MethodPost, "/v1/transform", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(newTestServer(nil), http.MethodPost, "/v1/transform", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStaging(t *testing.T) {
	ctx := context.Background()
	staging := &etl.MemoryStaging{}
	require.NoError(t, staging.Restart(ctx, "u"))
	require.NoError(t, staging.Append(ctx, []*payload.Payload{payload.New(), payload.New(), payload.New()}))

	rec := do(newTestServer(staging), http.MethodGet, "/v1/staging?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Position   int    `json:"position"`
			Validation string `json:"validation"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 1, resp.Data[1].Position)
	assert.Equal(t, "UNVALIDATED", resp.Data[0].Validation)
}

func TestGetStagingUnavailable(t *testing.T) {
	rec := do(newTestServer(nil), http.MethodGet, "/v1/staging", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTransformRejectsNonScalarCells(t *testing.T) {
	body := `{
		"headers": ["txn"],
		"rows": [[["a"]], [{"k": "v"}]],
		"mapping": [{"sourceColumn": "txn", "targetPath": "events.params.transaction_id"}],
		"schema": [{"path": "events.params.transaction_id", "type": "string"}]
	}`
	rec := do(newTestServer(nil), http.MethodPost, "/v1/transform", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "row 0, column 0")
}
