// relief-import loads disaster event records from CSV files into the store
// and can run a one-shot allocation over everything imported, printing the
// batch report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/tmarks/go-relief-allocator/internal/allocation"
	"github.com/tmarks/go-relief-allocator/internal/classifier"
	"github.com/tmarks/go-relief-allocator/internal/config"
	"github.com/tmarks/go-relief-allocator/internal/ingest"
	"github.com/tmarks/go-relief-allocator/internal/inventory"
	"github.com/tmarks/go-relief-allocator/internal/logging"
	"github.com/tmarks/go-relief-allocator/internal/models"
	"github.com/tmarks/go-relief-allocator/internal/repository"
)

func main() {
	allocate := flag.Bool("allocate", false, "run an allocation over all stored events after importing")
	flag.Parse()

	if flag.NArg() == 0 && !*allocate {
		logging.Fatalf("usage: relief-import [-allocate] <events.csv> [more.csv ...]")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, "text")

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	importer := ingest.NewImporter(db, classifier.NewHeuristic(), cfg.Worker.Count, cfg.Worker.BufferSize)
	for _, path := range flag.Args() {
		res, err := importer.ImportFile(ctx, path)
		if err != nil {
			logging.Fatalf("Import of %s failed: %v", path, err)
		}
		slog.Info("import complete", "file", path,
			"added", res.Added, "duplicates", res.Duplicates, "skipped", len(res.Skipped))
		for _, s := range res.Skipped {
			slog.Warn("skipped record", "id", s.ID, "reason", s.Reason)
		}
	}

	if !*allocate {
		return
	}

	engine, err := allocation.NewEngine(allocation.DefaultConfig())
	if err != nil {
		logging.Fatalf("Failed to initialize allocation engine: %v", err)
	}

	store, err := inventory.NewStore(ctx, db, cfg.Inventory.Initial)
	if err != nil {
		logging.Fatalf("Failed to initialize inventory: %v", err)
	}

	events, err := db.ListEvents(ctx, repository.Filter{})
	if err != nil {
		logging.Fatalf("Failed to load stored events: %v", err)
	}
	if len(events) == 0 {
		logging.Fatalf("No stored events to allocate")
	}

	coord := allocation.NewCoordinator(engine)
	var result models.BatchResult
	err = store.Run(ctx, func(pool models.ResourcePool) (models.ResourcePool, error) {
		r, err := coord.Run(events, pool)
		if err != nil {
			return nil, err
		}
		result = r

		spent := make(models.ResourcePool, len(models.AllResourceKinds))
		for _, kind := range models.AllResourceKinds {
			spent[kind] = pool[kind] - r.Summary.Remaining[kind]
		}
		return spent, nil
	})
	if err != nil {
		logging.Fatalf("Allocation failed: %v", err)
	}
	if err := db.SaveBatch(ctx, &result); err != nil {
		logging.Fatalf("Failed to persist batch: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logging.Fatalf("Failed to encode report: %v", err)
	}

	slog.Info("allocation complete", "batch", result.ID,
		"events", result.Summary.TotalEvents, "skipped", len(result.Skipped))
}
