package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/danquah/ratefeed/internal/api/sample"
	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/logger"
	"github.com/danquah/ratefeed/pkg/redis"
)

const (
	latestCacheKey = "rates:latest"
	latestCacheTTL = 5 * time.Minute

	defaultHistoryDays = 30
)

// RatesHandler handles rate-related API endpoints. When the store is
// unavailable or still empty it falls back to generated placeholder
// data so the dashboard always has something to draw.
type RatesHandler struct {
	reader contracts.RateReader
	cache  *redis.Cache
	sample *sample.Generator
	logger *logger.Logger
}

// NewRatesHandler creates a new rates handler. reader and cache may be
// nil; gen must not be.
func NewRatesHandler(reader contracts.RateReader, cache *redis.Cache, gen *sample.Generator, log *logger.Logger) *RatesHandler {
	return &RatesHandler{
		reader: reader,
		cache:  cache,
		sample: gen,
		logger: log,
	}
}

// RatesResponse wraps a rate list with its provenance
type RatesResponse struct {
	Source string                    `json:"source"` // "store" or "sample"
	Count  int                       `json:"count"`
	Rates  []contracts.PersistedRate `json:"rates"`
}

// GetLatest returns the most recent rate per currency pair
// GET /api/rates/latest
func (h *RatesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached RatesResponse
		if hit, err := h.cache.Get(ctx, latestCacheKey, &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp := RatesResponse{Source: "sample"}
	if h.reader != nil {
		rates, err := h.reader.LatestRates(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to read latest rates")
		} else if len(rates) > 0 {
			resp.Source = "store"
			resp.Rates = rates
		}
	}
	if resp.Source == "sample" {
		resp.Rates = h.sample.Latest(time.Now().UTC())
	}
	resp.Count = len(resp.Rates)

	if h.cache != nil && resp.Source == "store" {
		if err := h.cache.Set(ctx, latestCacheKey, resp, latestCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache latest rates")
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetHistory returns one pair's daily series within a date range
// GET /api/rates/history?pair=USD/GHS&from=2024-01-01&to=2024-01-31
func (h *RatesHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pair := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("pair")))
	if pair == "" || !strings.Contains(pair, "/") {
		respondError(w, http.StatusBadRequest, "Query parameter 'pair' is required, e.g. pair=USD/GHS")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -defaultHistoryDays)
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "'to' must not precede 'from'")
		return
	}

	resp := RatesResponse{Source: "sample"}
	if h.reader != nil {
		rates, err := h.reader.RateHistory(ctx, pair, from, to)
		if err != nil {
			h.logger.WithError(err).Error("Failed to read rate history")
		} else if len(rates) > 0 {
			resp.Source = "store"
			resp.Rates = rates
		}
	}
	if resp.Source == "sample" {
		base := strings.SplitN(pair, "/", 2)[0]
		resp.Rates = h.sample.History(base, from, to)
	}
	resp.Count = len(resp.Rates)

	respondJSON(w, http.StatusOK, resp)
}
