package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danquah/ratefeed/internal/api/sample"
	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/logger"
)

type fakeReader struct {
	latest  []contracts.PersistedRate
	history []contracts.PersistedRate
	err     error
}

func (f *fakeReader) LatestRates(_ context.Context) ([]contracts.PersistedRate, error) {
	return f.latest, f.err
}

func (f *fakeReader) RateHistory(_ context.Context, _ string, _, _ time.Time) ([]contracts.PersistedRate, error) {
	return f.history, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func testGenerator() *sample.Generator {
	return sample.NewGenerator([]string{"USD", "EUR"}, "GHS")
}

func storedRate(pair string, day time.Time) contracts.PersistedRate {
	return contracts.PersistedRate{
		RateDate:     day,
		CurrencyPair: pair,
		Rate:         decimal.RequireFromString("12.5"),
	}
}

func decodeRates(t *testing.T, rec *httptest.ResponseRecorder) RatesResponse {
	t.Helper()
	var resp RatesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestGetLatestFromStore(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{latest: []contracts.PersistedRate{storedRate("USD/GHS", day)}}
	h := NewRatesHandler(reader, nil, testGenerator(), testLogger(t))

	rec := httptest.NewRecorder()
	h.GetLatest(rec, httptest.NewRequest("GET", "/api/rates/latest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeRates(t, rec)
	assert.Equal(t, "store", resp.Source)
	assert.Equal(t, 1, resp.Count)
}

func TestGetLatestFallsBackToSample(t *testing.T) {
	tests := []struct {
		name   string
		reader *fakeReader
	}{
		{"empty store", &fakeReader{}},
		{"store error", &fakeReader{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRatesHandler(tt.reader, nil, testGenerator(), testLogger(t))

			rec := httptest.NewRecorder()
			h.GetLatest(rec, httptest.NewRequest("GET", "/api/rates/latest", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			resp := decodeRates(t, rec)
			assert.Equal(t, "sample", resp.Source)
			assert.Equal(t, 2, resp.Count)
		})
	}
}

func TestGetLatestWithoutReader(t *testing.T) {
	h := NewRatesHandler(nil, nil, testGenerator(), testLogger(t))

	rec := httptest.NewRecorder()
	h.GetLatest(rec, httptest.NewRequest("GET", "/api/rates/latest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sample", decodeRates(t, rec).Source)
}

func TestGetHistoryRequiresPair(t *testing.T) {
	h := NewRatesHandler(&fakeReader{}, nil, testGenerator(), testLogger(t))

	for _, target := range []string{"/api/rates/history", "/api/rates/history?pair=USDGHS"} {
		rec := httptest.NewRecorder()
		h.GetHistory(rec, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestGetHistoryRejectsBadDates(t *testing.T) {
	h := NewRatesHandler(&fakeReader{}, nil, testGenerator(), testLogger(t))

	tests := []string{
		"/api/rates/history?pair=USD/GHS&from=January",
		"/api/rates/history?pair=USD/GHS&to=2024-13-99",
		"/api/rates/history?pair=USD/GHS&from=2024-02-01&to=2024-01-01",
	}
	for _, target := range tests {
		rec := httptest.NewRecorder()
		h.GetHistory(rec, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetHistoryFromStore(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{history: []contracts.PersistedRate{
		storedRate("USD/GHS", day),
		storedRate("USD/GHS", day.AddDate(0, 0, 1)),
	}}
	h := NewRatesHandler(reader, nil, testGenerator(), testLogger(t))

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest("GET", "/api/rates/history?pair=usd/ghs&from=2024-01-01&to=2024-01-05", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeRates(t, rec)
	assert.Equal(t, "store", resp.Source)
	assert.Equal(t, 2, resp.Count)
}

func TestGetHistorySampleFallback(t *testing.T) {
	h := NewRatesHandler(&fakeReader{}, nil, testGenerator(), testLogger(t))

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest("GET", "/api/rates/history?pair=USD/GHS&from=2024-01-01&to=2024-01-07", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeRates(t, rec)
	assert.Equal(t, "sample", resp.Source)
	assert.Equal(t, 7, resp.Count)
}
