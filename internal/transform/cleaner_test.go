package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func rawRate(base, target, rate string, observed, fetched time.Time) contracts.RawRate {
	return contracts.RawRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
		ObservedAt:     observed,
		FetchedAt:      fetched,
	}
}

func TestCleanNormalizesCodesAndRates(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fetched := day.Add(10 * time.Hour)

	cleaner := NewCleaner(testLogger(t))
	clean, report := cleaner.Clean([]contracts.RawRate{
		rawRate(" usd ", "ghs", "12.50", day, fetched),
	})

	require.Len(t, clean, 1)
	assert.Equal(t, 0, report.Dropped)

	rec := clean[0]
	assert.Equal(t, "USD", rec.BaseCurrency)
	assert.Equal(t, "GHS", rec.TargetCurrency)
	assert.Equal(t, "USD/GHS", rec.Pair())
	assert.Equal(t, "12.5", rec.Rate.String())
}

func TestCleanRoundsToFourDigits(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cleaner := NewCleaner(testLogger(t))
	clean, _ := cleaner.Clean([]contracts.RawRate{
		rawRate("EUR", "GHS", "13.58695652173913", day, day),
	})

	require.Len(t, clean, 1)
	assert.Equal(t, "13.587", clean[0].Rate.String())
}

func TestCleanDropsMalformedRecords(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  contracts.RawRate
	}{
		{"short base code", rawRate("US", "GHS", "12.5", day, day)},
		{"numeric code", rawRate("U5D", "GHS", "12.5", day, day)},
		{"long target code", rawRate("USD", "CEDI", "12.5", day, day)},
		{"empty rate", rawRate("USD", "GHS", "", day, day)},
		{"non-numeric rate", rawRate("USD", "GHS", "abc", day, day)},
		{"negative rate", rawRate("USD", "GHS", "-1", day, day)},
		{"zero rate", rawRate("USD", "GHS", "0", day, day)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := NewCleaner(testLogger(t))
			clean, report := cleaner.Clean([]contracts.RawRate{tt.raw})

			assert.Empty(t, clean)
			assert.Equal(t, 1, report.Dropped)
		})
	}
}

func TestCleanDedupLatestFetchedWins(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	early := day.Add(8 * time.Hour)
	late := day.Add(16 * time.Hour)

	cleaner := NewCleaner(testLogger(t))
	clean, report := cleaner.Clean([]contracts.RawRate{
		rawRate("USD", "GHS", "12.10", day, late),
		rawRate("USD", "GHS", "12.90", day, early),
	})

	require.Len(t, clean, 1)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, "12.1", clean[0].Rate.String(), "record with the later fetched_at must survive")
	assert.Equal(t, late, clean[0].FetchedAt)
}

func TestCleanDedupTieLastInputWins(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fetched := day.Add(8 * time.Hour)

	cleaner := NewCleaner(testLogger(t))
	clean, report := cleaner.Clean([]contracts.RawRate{
		rawRate("USD", "GHS", "12.10", day, fetched),
		rawRate("USD", "GHS", "12.90", day, fetched),
	})

	require.Len(t, clean, 1)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, "12.9", clean[0].Rate.String(), "equal fetched_at resolves to input order, last wins")
}

func TestCleanDistinctDatesAreNotDuplicates(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	cleaner := NewCleaner(testLogger(t))
	clean, report := cleaner.Clean([]contracts.RawRate{
		rawRate("USD", "GHS", "12.10", day1, day1),
		rawRate("USD", "GHS", "12.20", day2, day2),
	})

	assert.Len(t, clean, 2)
	assert.Equal(t, 0, report.Duplicates)
}

func TestCleanEmptyInput(t *testing.T) {
	cleaner := NewCleaner(testLogger(t))
	clean, report := cleaner.Clean(nil)

	assert.Empty(t, clean)
	assert.Equal(t, CleanReport{}, report)
}
