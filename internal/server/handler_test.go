package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/pkg/models"
)

type stubService struct {
	snap *models.PortfolioSnapshot
	err  error
}

func (s *stubService) GetOrBuild(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	return s.snap, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(h *Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.Router().ServeHTTP(w, req)
	return w
}

func TestGetPortfolio_OK(t *testing.T) {
	svc := &stubService{snap: &models.PortfolioSnapshot{UserID: "u1", TotalInvestment: 35000}}
	h := NewHandler(svc, zap.NewNop(), time.Second, nil)

	w := doRequest(h, "/api/portfolio/u1")
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, 35000.0, snap.TotalInvestment)
}

func TestGetPortfolio_TimeoutReportsBuilding(t *testing.T) {
	svc := &stubService{err: context.DeadlineExceeded}
	h := NewHandler(svc, zap.NewNop(), time.Second, nil)

	w := doRequest(h, "/api/portfolio/u1")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "building")
}

func TestGetPortfolio_StoreFailureIsBadGateway(t *testing.T) {
	svc := &stubService{err: errors.New("mongo down")}
	h := NewHandler(svc, zap.NewNop(), time.Second, nil)

	w := doRequest(h, "/api/portfolio/u1")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthz(t *testing.T) {
	checks := map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
		"mongo": func(ctx context.Context) error { return errors.New("no reachable servers") },
	}
	h := NewHandler(&stubService{}, zap.NewNop(), time.Second, checks)

	w := doRequest(h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.Contains(t, w.Body.String(), "no reachable servers")
}
