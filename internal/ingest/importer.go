// Package ingest loads disaster event records from CSV drops into the
// store, predicting a severity tier for rows that arrive without one.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tmarks/go-relief-allocator/internal/classifier"
	"github.com/tmarks/go-relief-allocator/internal/models"
	"github.com/tmarks/go-relief-allocator/internal/repository"
	"github.com/tmarks/go-relief-allocator/internal/worker"
)

type Importer struct {
	repo       repository.EventRepository
	predictor  classifier.Predictor
	numWorkers int
	bufferSize int
}

func NewImporter(repo repository.EventRepository, predictor classifier.Predictor, numWorkers, bufferSize int) *Importer {
	return &Importer{
		repo:       repo,
		predictor:  predictor,
		numWorkers: numWorkers,
		bufferSize: bufferSize,
	}
}

// Result counts what happened to one imported file.
type Result struct {
	Added      int64
	Duplicates int64
	Skipped    []models.SkippedEvent
}

// ImportFile parses one CSV file and pushes the records through a worker
// pool: dedupe on event ID, then store. Records without a severity get one
// from the predictor first.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	records, skipped, err := ParseEvents(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}

	res := &Result{Skipped: skipped}

	processor := func(ctx context.Context, rec Record) error {
		exists, err := im.repo.EventExists(ctx, rec.Event.ID)
		if err != nil {
			slog.Error("error checking event existence", "id", rec.Event.ID, "error", err)
			return err
		}
		if exists {
			atomic.AddInt64(&res.Duplicates, 1)
			return nil
		}

		if err := im.repo.AddEvent(ctx, &rec.Event); err != nil {
			slog.Error("error adding event", "id", rec.Event.ID, "error", err)
			return err
		}

		atomic.AddInt64(&res.Added, 1)
		slog.Info("imported event", "id", rec.Event.ID, "type", rec.Event.Type, "severity", rec.Event.Severity)
		return nil
	}

	pool := worker.NewPool(im.numWorkers, im.bufferSize, processor)
	pool.Start(ctx)

	for _, rec := range records {
		if rec.Event.ID == "" {
			rec.Event.ID = uuid.NewString()
		}
		if rec.SeverityMissing {
			tier, confidence, err := im.predictor.Predict(rec.Features)
			if err != nil {
				slog.Error("severity prediction failed", "id", rec.Event.ID, "error", err)
				res.Skipped = append(res.Skipped, models.SkippedEvent{ID: rec.Event.ID, Reason: models.SkipEmptyRecord})
				continue
			}
			rec.Event.Severity = tier
			slog.Debug("predicted severity", "id", rec.Event.ID, "tier", tier, "confidence", confidence)
		}
		pool.Submit(rec)
	}

	pool.Stop()
	return res, nil
}
