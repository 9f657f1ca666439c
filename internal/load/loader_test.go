package load

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/config"
	"github.com/danquah/ratefeed/pkg/logger"
)

// fakeStore keeps rows in a map keyed like the real table's unique
// constraint and can be told to fail specific calls.
type fakeStore struct {
	rows    map[string]contracts.PersistedRate
	calls   int
	failOn  map[int]error // 1-based call number -> error
	batches [][]contracts.PersistedRate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:   make(map[string]contracts.PersistedRate),
		failOn: make(map[int]error),
	}
}

func (s *fakeStore) UpsertBatch(_ context.Context, rows []contracts.PersistedRate) error {
	s.calls++
	if err, ok := s.failOn[s.calls]; ok {
		return err
	}
	s.batches = append(s.batches, rows)
	for _, row := range rows {
		s.rows[row.RateDate.Format("2006-01-02")+"|"+row.CurrencyPair] = row
	}
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func makeBatch(n int) []contracts.CleanRate {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	codes := []string{"USD", "EUR", "GBP", "CHF", "JPY", "CAD", "AUD", "NZD", "SEK"}

	batch := make([]contracts.CleanRate, n)
	for i := 0; i < n; i++ {
		batch[i] = contracts.CleanRate{
			BaseCurrency:   codes[i%len(codes)],
			TargetCurrency: "GHS",
			Rate:           decimal.NewFromInt(int64(i + 1)),
			ObservedAt:     day.AddDate(0, 0, i/len(codes)),
			FetchedAt:      day.Add(12 * time.Hour),
		}
	}
	return batch
}

func TestLoadChunksAtBatchSize(t *testing.T) {
	store := newFakeStore()
	loader := NewLoader(store, 2, testLogger(t))

	report, err := loader.Load(context.Background(), makeBatch(5))
	require.NoError(t, err)

	assert.Equal(t, 3, report.ChunkCount)
	assert.Equal(t, 5, report.SuccessCount)
	assert.Equal(t, 0, report.ErrorCount)
	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[1], 2)
	assert.Len(t, store.batches[2], 1)
}

func TestLoadFailedChunkDoesNotSinkBatch(t *testing.T) {
	store := newFakeStore()
	store.failOn[2] = errors.New("connection reset")
	loader := NewLoader(store, 2, testLogger(t))

	report, err := loader.Load(context.Background(), makeBatch(6))
	require.NoError(t, err)

	assert.Equal(t, 3, report.ChunkCount)
	assert.Equal(t, 4, report.SuccessCount, "chunks 1 and 3 still persist")
	assert.Equal(t, 2, report.ErrorCount)
	require.Len(t, report.Errors, 2)
	for _, le := range report.Errors {
		assert.Equal(t, "connection reset", le.Reason)
	}
	assert.Len(t, store.rows, 4)
}

func TestLoadEveryRecordAppearsOnce(t *testing.T) {
	store := newFakeStore()
	store.failOn[1] = errors.New("down")
	loader := NewLoader(store, 3, testLogger(t))

	batch := makeBatch(7)
	report, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, len(batch), report.SuccessCount+report.ErrorCount)
	assert.Len(t, report.Errors, report.ErrorCount)
}

func TestLoadIdempotentReplay(t *testing.T) {
	store := newFakeStore()
	loader := NewLoader(store, 100, testLogger(t))

	batch := makeBatch(4)
	_, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), batch)
	require.NoError(t, err)

	assert.Len(t, store.rows, 4, "replaying the same batch must not grow the table")
}

func TestLoadEmptyBatch(t *testing.T) {
	store := newFakeStore()
	loader := NewLoader(store, 100, testLogger(t))

	report, err := loader.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, contracts.LoadReport{}, report)
	assert.Equal(t, 0, store.calls)
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newFakeStore()
	loader := NewLoader(store, 2, testLogger(t))

	report, err := loader.Load(ctx, makeBatch(4))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.SuccessCount)
}
