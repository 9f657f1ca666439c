package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danquah/ratefeed/internal/contracts"
)

// RateRepository implements contracts.RateStore and contracts.RateReader
// on top of the exchange_rates table.
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository creates a new rate repository
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// UpsertBatch writes all rows in one transaction. The unique constraint
// on (rate_date, currency_pair) makes replays overwrite in place, so
// re-running a day's pipeline never duplicates rows.
func (r *RateRepository) UpsertBatch(ctx context.Context, rows []contracts.PersistedRate) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO exchange_rates (rate_date, currency_pair, rate, base_currency, target_currency, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (rate_date, currency_pair) DO UPDATE SET
			rate = EXCLUDED.rate,
			base_currency = EXCLUDED.base_currency,
			target_currency = EXCLUDED.target_currency,
			updated_at = NOW()
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.RateDate, row.CurrencyPair, row.Rate, row.BaseCurrency, row.TargetCurrency,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LatestRates returns the most recent row per currency pair
func (r *RateRepository) LatestRates(ctx context.Context) ([]contracts.PersistedRate, error) {
	query := `
		SELECT DISTINCT ON (currency_pair)
			rate_date, currency_pair, rate, base_currency, target_currency
		FROM exchange_rates
		ORDER BY currency_pair, rate_date DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRates(rows)
}

// RateHistory returns one pair's rows within the date range, oldest first
func (r *RateRepository) RateHistory(ctx context.Context, pair string, from, to time.Time) ([]contracts.PersistedRate, error) {
	query := `
		SELECT rate_date, currency_pair, rate, base_currency, target_currency
		FROM exchange_rates
		WHERE currency_pair = $1 AND rate_date BETWEEN $2 AND $3
		ORDER BY rate_date ASC
	`

	rows, err := r.pool.Query(ctx, query, pair, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRates(rows)
}

// Coverage reports how much data the table holds
type Coverage struct {
	RowCount  int64
	PairCount int64
	FirstDate time.Time
	LastDate  time.Time
}

// Coverage summarizes the table for the status command
func (r *RateRepository) Coverage(ctx context.Context) (*Coverage, error) {
	query := `
		SELECT COUNT(*),
			COUNT(DISTINCT currency_pair),
			COALESCE(MIN(rate_date), 'epoch'::timestamptz),
			COALESCE(MAX(rate_date), 'epoch'::timestamptz)
		FROM exchange_rates
	`

	var c Coverage
	err := r.pool.QueryRow(ctx, query).Scan(&c.RowCount, &c.PairCount, &c.FirstDate, &c.LastDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanRates(rows pgx.Rows) ([]contracts.PersistedRate, error) {
	var rates []contracts.PersistedRate
	for rows.Next() {
		var p contracts.PersistedRate
		if err := rows.Scan(&p.RateDate, &p.CurrencyPair, &p.Rate, &p.BaseCurrency, &p.TargetCurrency); err != nil {
			return nil, err
		}
		rates = append(rates, p)
	}
	return rates, rows.Err()
}
