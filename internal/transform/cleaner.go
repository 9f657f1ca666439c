package transform

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/logger"
)

// Cleaner normalizes raw observations into CleanRate records. It never
// fails: malformed records are dropped and counted, never mixed into
// the output.
type Cleaner struct {
	logger *logger.Logger
}

// NewCleaner creates a new Cleaner
func NewCleaner(log *logger.Logger) *Cleaner {
	return &Cleaner{logger: log.WithField("module", "cleaner")}
}

// CleanReport counts what cleaning removed from the batch
type CleanReport struct {
	Dropped    int // malformed records excluded from the output
	Duplicates int // records collapsed by the dedup key
}

// Clean normalizes, filters and deduplicates one batch of raw records.
// Codes are trimmed and upper-cased and must be exactly 3 letters; rates
// are coerced to positive fixed-precision decimals; duplicate
// (base, target, observed_at) tuples collapse to the one with the latest
// fetched_at, ties broken by input order (last one wins). Output order
// follows first appearance of each key.
func (c *Cleaner) Clean(raw []contracts.RawRate) ([]contracts.CleanRate, CleanReport) {
	var report CleanReport

	clean := make([]contracts.CleanRate, 0, len(raw))
	seen := make(map[contracts.DedupKey]int, len(raw))

	for _, r := range raw {
		rec, ok := c.normalize(r)
		if !ok {
			report.Dropped++
			continue
		}

		key := rec.Key()
		if idx, dup := seen[key]; dup {
			report.Duplicates++
			// Latest fetched_at wins; on equal timestamps the later
			// input record replaces the earlier one.
			if !rec.FetchedAt.Before(clean[idx].FetchedAt) {
				clean[idx] = rec
			}
			continue
		}

		seen[key] = len(clean)
		clean = append(clean, rec)
	}

	if report.Dropped > 0 || report.Duplicates > 0 {
		c.logger.WithFields(map[string]interface{}{
			"input":      len(raw),
			"output":     len(clean),
			"dropped":    report.Dropped,
			"duplicates": report.Duplicates,
		}).Info("Cleaned batch")
	}

	return clean, report
}

// normalize standardizes one record, reporting whether it is usable
func (c *Cleaner) normalize(r contracts.RawRate) (contracts.CleanRate, bool) {
	base := strings.ToUpper(strings.TrimSpace(r.BaseCurrency))
	target := strings.ToUpper(strings.TrimSpace(r.TargetCurrency))

	if !isCurrencyCode(base) || !isCurrencyCode(target) {
		c.logger.WithFields(map[string]interface{}{
			"base":   r.BaseCurrency,
			"target": r.TargetCurrency,
		}).Warn("Dropping record with malformed currency code")
		return contracts.CleanRate{}, false
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(r.Rate))
	if err != nil || rate.Sign() <= 0 {
		c.logger.WithFields(map[string]interface{}{
			"pair": base + "/" + target,
			"rate": r.Rate,
		}).Warn("Dropping record with unusable rate")
		return contracts.CleanRate{}, false
	}

	return contracts.CleanRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate.Round(contracts.RatePrecision),
		ObservedAt:     r.ObservedAt,
		FetchedAt:      r.FetchedAt,
	}, true
}

// isCurrencyCode reports whether s is exactly 3 ASCII letters
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, ch := range s {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}
