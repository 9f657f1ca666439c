package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RatePrecision is the number of fractional digits every stored rate carries.
const RatePrecision = 4

// RawRate is one exchange-rate observation exactly as received from
// extraction. Nothing about it is guaranteed: the codes may be malformed,
// the rate may be empty or non-numeric. It is immutable and discarded
// after transformation.
type RawRate struct {
	BaseCurrency   string
	TargetCurrency string
	Rate           string // unparsed; empty means missing
	ObservedAt     time.Time
	FetchedAt      time.Time
}

// CleanRate is a RawRate after normalization: codes upper-cased and
// verified as 3 letters, rate coerced to a positive fixed-precision
// decimal, duplicates collapsed.
type CleanRate struct {
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency"`
	Rate           decimal.Decimal `json:"rate"`
	ObservedAt     time.Time       `json:"observed_at"`
	FetchedAt      time.Time       `json:"fetched_at"`
}

// Pair returns the currency pair in BASE/TARGET form
func (r CleanRate) Pair() string {
	return fmt.Sprintf("%s/%s", r.BaseCurrency, r.TargetCurrency)
}

// DedupKey identifies duplicates within one batch
type DedupKey struct {
	Base     string
	Target   string
	Observed string // date in ISO form
}

// Key returns the batch dedup key (base, target, observed date)
func (r CleanRate) Key() DedupKey {
	return DedupKey{
		Base:     r.BaseCurrency,
		Target:   r.TargetCurrency,
		Observed: r.ObservedAt.Format("2006-01-02"),
	}
}

// PersistedRate is a row as handed to the persistence capability.
// The store enforces uniqueness on (RateDate, CurrencyPair) via upsert.
type PersistedRate struct {
	RateDate       time.Time       `json:"date"`
	CurrencyPair   string          `json:"currency_pair"`
	Rate           decimal.Decimal `json:"rate"`
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency"`
}

// ToPersisted converts a clean rate into its storage row
func (r CleanRate) ToPersisted() PersistedRate {
	return PersistedRate{
		RateDate:       r.ObservedAt,
		CurrencyPair:   r.Pair(),
		Rate:           r.Rate,
		BaseCurrency:   r.BaseCurrency,
		TargetCurrency: r.TargetCurrency,
	}
}
