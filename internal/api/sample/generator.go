package sample

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danquah/ratefeed/internal/contracts"
)

// Generator produces deterministic placeholder rates so the dashboard
// renders before the first pipeline run has populated the store. The
// same pair and date always yield the same value.
type Generator struct {
	bases  []string
	target string
}

// NewGenerator creates a generator for the configured pairs
func NewGenerator(bases []string, target string) *Generator {
	return &Generator{bases: bases, target: target}
}

// Latest returns one rate per configured pair for the given date
func (g *Generator) Latest(date time.Time) []contracts.PersistedRate {
	day := truncateDay(date)

	rates := make([]contracts.PersistedRate, 0, len(g.bases))
	for _, base := range g.bases {
		if base == g.target {
			continue
		}
		rates = append(rates, g.rateFor(base, day))
	}
	return rates
}

// History returns a daily series for one pair, oldest first
func (g *Generator) History(base string, from, to time.Time) []contracts.PersistedRate {
	if base == g.target {
		return nil
	}

	var rates []contracts.PersistedRate
	for day := truncateDay(from); !day.After(truncateDay(to)); day = day.AddDate(0, 0, 1) {
		rates = append(rates, g.rateFor(base, day))
	}
	return rates
}

// rateFor derives a pair's rate from a seed built out of the pair and
// the date. A level between 1 and 20 anchors each pair; the daily
// offset wiggles it by up to 2 percent.
func (g *Generator) rateFor(base string, day time.Time) contracts.PersistedRate {
	pair := base + "/" + g.target

	level := 1.0 + float64(seedOf(pair)%1900)/100.0
	rng := rand.New(rand.NewSource(int64(seedOf(pair + day.Format("2006-01-02")))))
	value := level * (1.0 + (rng.Float64()-0.5)*0.04)

	return contracts.PersistedRate{
		RateDate:       day,
		CurrencyPair:   pair,
		Rate:           decimal.NewFromFloat(value).Round(contracts.RatePrecision),
		BaseCurrency:   base,
		TargetCurrency: g.target,
	}
}

func seedOf(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
