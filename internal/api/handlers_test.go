package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosistoocommon/ReoCamara/pkg/models"
)

type stubDeliveries struct {
	items []*models.Delivery
}

func (s *stubDeliveries) GetDelivery(id string) (*models.Delivery, error) {
	for _, d := range s.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("delivery not found")
}

func (s *stubDeliveries) ListDeliveries(status models.DeliveryStatus) []*models.Delivery {
	var out []*models.Delivery
	for _, d := range s.items {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

type stubTokens struct {
	tok   models.Token
	valid bool
}

func (s stubTokens) Cached() (models.Token, bool) { return s.tok, s.valid }

type stubArtifacts int

func (s stubArtifacts) Count() int { return int(s) }

func newTestRouter(deliveries *stubDeliveries, tokens stubTokens) http.Handler {
	routes := []models.Route{
		{Name: "getSalseo", Description: "salseo", Presets: []int{0, 1, 0}},
	}
	h := NewHandler(routes, deliveries, tokens, stubArtifacts(2))
	return h.SetupRoutes(nil)
}

func TestHealth(t *testing.T) {
	expiry := time.Now().Add(time.Minute).UTC().Truncate(time.Second)
	router := newTestRouter(&stubDeliveries{}, stubTokens{tok: models.Token{Value: "t", ExpiresAt: expiry}, valid: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp HealthResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.TokenValid)
	assert.True(t, expiry.Equal(resp.TokenExpiry))
	assert.Equal(t, 2, resp.Artifacts)
}

func TestListRoutes(t *testing.T) {
	router := newTestRouter(&stubDeliveries{}, stubTokens{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/routes", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var routes []models.Route
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, "getSalseo", routes[0].Name)
	assert.Equal(t, []int{0, 1, 0}, routes[0].Presets)
}

func TestListDeliveriesFiltersByStatus(t *testing.T) {
	deliveries := &stubDeliveries{items: []*models.Delivery{
		{ID: "a", ChatID: 1, Status: models.StatusDestroyed},
		{ID: "b", ChatID: 1, Status: models.StatusAwaitingDestruct},
	}}
	router := newTestRouter(deliveries, stubTokens{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries?status=AWAITING_DESTRUCT", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Delivery
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestListDeliveriesEmptyIsArray(t *testing.T) {
	router := newTestRouter(&stubDeliveries{}, stubTokens{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetDelivery(t *testing.T) {
	deliveries := &stubDeliveries{items: []*models.Delivery{{ID: "abc", ChatID: 7, Status: models.StatusSent}}}
	router := newTestRouter(deliveries, stubTokens{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries/abc", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Delivery
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.ChatID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/deliveries/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreflight(t *testing.T) {
	router := newTestRouter(&stubDeliveries{}, stubTokens{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Body.String())
}
