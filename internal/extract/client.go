package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/httputil"
	"github.com/danquah/ratefeed/pkg/logger"
)

// Client talks to the exchange-rate source API and adapts its responses
// into canonical RawRate records. Retry is owned by the pipeline, not by
// this client, so wire it with an httputil client that has retry disabled.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger

	apiKey  string
	baseURL string

	baseCurrencies []string
	targetCurrency string

	now func() time.Time
}

// NewClient creates a new rates API client
func NewClient(httpClient *httputil.Client, cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		logger:         log.WithField("module", "extract"),
		apiKey:         cfg.RatesAPI.APIKey,
		baseURL:        strings.TrimRight(cfg.RatesAPI.BaseURL, "/"),
		baseCurrencies: cfg.RatesAPI.BaseCurrencies,
		targetCurrency: cfg.RatesAPI.TargetCurrency,
		now:            time.Now,
	}
}

// apiResponse is the provider's wire shape for rate lookups
type apiResponse struct {
	Success bool               `json:"success"`
	Date    string             `json:"date"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *apiError          `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// Provider error codes that indicate throttling rather than a broken request
func isThrottleCode(code int) bool {
	return code == 104 || code == 106 || code == 429
}

// FetchLatest fetches the latest rates for every configured base currency
// against the target currency. All pairs come from a single request with
// USD as the quote base; non-USD bases are derived via USD cross rates.
func (c *Client) FetchLatest(ctx context.Context) ([]contracts.RawRate, error) {
	symbols := []string{c.targetCurrency}
	for _, base := range c.baseCurrencies {
		if base != "USD" {
			symbols = append(symbols, base)
		}
	}

	params := url.Values{}
	params.Set("base", "USD")
	params.Set("symbols", strings.Join(symbols, ","))

	data, err := c.request(ctx, "/latest", params)
	if err != nil {
		return nil, err
	}

	observedAt, err := time.Parse("2006-01-02", data.Date)
	if err != nil {
		return nil, Fatalf("unexpected response shape: bad date %q: %w", data.Date, err)
	}
	fetchedAt := c.now()

	usdToTarget, ok := data.Rates[c.targetCurrency]
	if !ok {
		return nil, Fatalf("unexpected response shape: missing rate for %s", c.targetCurrency)
	}

	var raws []contracts.RawRate
	for _, base := range c.baseCurrencies {
		var rate float64
		if base == "USD" {
			rate = usdToTarget
		} else {
			usdToBase, ok := data.Rates[base]
			if !ok || usdToBase == 0 {
				c.logger.WithFields(map[string]interface{}{
					"base":   base,
					"target": c.targetCurrency,
				}).Warn("Missing cross rate, skipping pair")
				continue
			}
			rate = usdToTarget / usdToBase
		}

		raws = append(raws, contracts.RawRate{
			BaseCurrency:   base,
			TargetCurrency: c.targetCurrency,
			Rate:           strconv.FormatFloat(rate, 'f', -1, 64),
			ObservedAt:     observedAt,
			FetchedAt:      fetchedAt,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"pairs": len(raws),
		"date":  data.Date,
	}).Info("Fetched latest rates")

	return raws, nil
}

// FetchHistorical fetches the rate of one pair for a specific date
func (c *Client) FetchHistorical(ctx context.Context, date time.Time, base, target string) (*contracts.RawRate, error) {
	params := url.Values{}
	params.Set("base", base)
	params.Set("symbols", target)

	data, err := c.request(ctx, "/historical/"+date.Format("2006-01-02"), params)
	if err != nil {
		return nil, err
	}

	rate, ok := data.Rates[target]
	if !ok {
		return nil, Fatalf("unexpected response shape: missing rate for %s", target)
	}

	return &contracts.RawRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           strconv.FormatFloat(rate, 'f', -1, 64),
		ObservedAt:     date,
		FetchedAt:      c.now(),
	}, nil
}

// request performs one API call and classifies every failure mode
func (c *Client) request(ctx context.Context, path string, params url.Values) (*apiResponse, error) {
	params.Set("access_key", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case httputil.IsRetryableStatus(resp.StatusCode):
		return nil, Transientf("rates API returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, Fatalf("rates API returned status %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, Fatalf("unexpected response shape: %w", err)
	}

	if !data.Success {
		if data.Error != nil {
			if isThrottleCode(data.Error.Code) {
				return nil, Transientf("rates API throttled: %s (code %d)", data.Error.Type, data.Error.Code)
			}
			return nil, Fatalf("rates API error: %s (code %d)", data.Error.Type, data.Error.Code)
		}
		return nil, Fatalf("rates API reported failure without error detail")
	}

	if len(data.Rates) == 0 {
		return nil, Fatalf("unexpected response shape: empty rates")
	}

	return &data, nil
}
