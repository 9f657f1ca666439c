package load

import (
	"context"

	"github.com/danquah/ratefeed/internal/contracts"
	"github.com/danquah/ratefeed/pkg/logger"
)

// Loader writes validated records to a RateStore in idempotent chunks.
// A failed chunk is recorded and skipped; the remaining chunks still
// get their chance, so one bad chunk never sinks the whole batch.
type Loader struct {
	store     contracts.RateStore
	logger    *logger.Logger
	batchSize int
}

// NewLoader creates a new Loader. batchSize below 1 falls back to 1.
func NewLoader(store contracts.RateStore, batchSize int, log *logger.Logger) *Loader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Loader{
		store:     store,
		logger:    log.WithField("module", "loader"),
		batchSize: batchSize,
	}
}

// Load upserts the batch chunk by chunk. Every record lands in the
// report exactly once, either as a success or as an error carrying
// the chunk's failure reason. The error return is reserved for a
// cancelled context; store failures surface through the report.
func (l *Loader) Load(ctx context.Context, records []contracts.CleanRate) (contracts.LoadReport, error) {
	report := contracts.LoadReport{}
	if len(records) == 0 {
		return report, nil
	}

	rows := make([]contracts.PersistedRate, len(records))
	for i, rec := range records {
		rows[i] = rec.ToPersisted()
	}

	for start := 0; start < len(rows); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := start + l.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		report.ChunkCount++

		if err := l.store.UpsertBatch(ctx, chunk); err != nil {
			l.logger.WithFields(map[string]interface{}{
				"chunk": report.ChunkCount,
				"rows":  len(chunk),
			}).WithError(err).Error("Chunk upsert failed")

			report.ErrorCount += len(chunk)
			for _, row := range chunk {
				report.Errors = append(report.Errors, contracts.LoadError{
					Record: row,
					Reason: err.Error(),
				})
			}
			continue
		}

		report.SuccessCount += len(chunk)
	}

	l.logger.WithFields(map[string]interface{}{
		"records": len(rows),
		"chunks":  report.ChunkCount,
		"loaded":  report.SuccessCount,
		"failed":  report.ErrorCount,
	}).Info("Load finished")

	return report, nil
}
