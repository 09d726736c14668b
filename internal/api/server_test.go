package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quantfolio/quantfolio/internal/api/job"
	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/core"
	"github.com/quantfolio/quantfolio/internal/metrics"
	"github.com/quantfolio/quantfolio/internal/storage/signal"
	"github.com/quantfolio/quantfolio/internal/strategy"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) FetchDaily(ctx context.Context, ticker string, start, end time.Time) (core.PriceSeries, error) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.PriceBar, 60)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = core.PriceBar{Date: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return core.NewPriceSeries(ticker, bars), nil
}

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.APIKey = apiKey

	return NewServer(cfg, Deps{
		Signals:    signal.NewMemoryStore(100),
		Jobs:       job.NewStore(100, time.Hour),
		Provider:   stubProvider{},
		Engine:     strategy.NewEngine(zap.NewNop()),
		Strategies: strategy.NewRegistry(),
		Metrics:    metrics.NewRegistry(),
		Logger:     zap.NewNop(),
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, "sekret")

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestServer_HealthNeedsNoAuth(t *testing.T) {
	s := newTestServer(t, "sekret")

	// No API key header at all.
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("healthz must not require auth, got %d", w.Code)
	}
}

func TestServer_APIRequiresKey(t *testing.T) {
	s := newTestServer(t, "sekret")

	req := httptest.NewRequest("GET", "/api/v1/strategies", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/strategies", nil)
	req.Header.Set("X-API-Key", "sekret")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(w.Body.Bytes()) == 0 {
		t.Error("expected metric exposition output")
	}
}

func TestServer_Recommend(t *testing.T) {
	s := newTestServer(t, "")

	body := bytes.NewBufferString(`{"horizonYears":5,"riskTolerance":"high","portfolioSize":10000}`)
	req := httptest.NewRequest("POST", "/api/v1/recommend", body)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			StrategyName string `json:"strategyName"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.StrategyName != strategy.TrendFollowing {
		t.Errorf("strategy = %s, want %s", resp.Data.StrategyName, strategy.TrendFollowing)
	}
}

func TestServer_MethodMismatch(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest("DELETE", "/api/v1/strategies", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
