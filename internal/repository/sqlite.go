package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			people_affected INTEGER NOT NULL,
			location TEXT,
			reported_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			run_at DATETIME NOT NULL,
			total_events INTEGER NOT NULL,
			total_people_affected INTEGER NOT NULL,
			report BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS inventory (
			resource TEXT PRIMARY KEY,
			quantity INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
		CREATE INDEX IF NOT EXISTS idx_events_severity ON events(severity);
		CREATE INDEX IF NOT EXISTS idx_batches_run_at ON batches(run_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) AddEvent(ctx context.Context, e *models.DisasterEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, type, severity, people_affected, location, reported_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), string(e.Severity), e.PeopleAffected, e.Location, e.ReportedAt)
	if err != nil {
		return fmt.Errorf("error inserting event %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteDB) EventExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking event %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) ListEvents(ctx context.Context, opts Filter) ([]models.DisasterEvent, error) {
	query := `SELECT id, type, severity, people_affected, location, reported_at FROM events`

	var conds []string
	var args []any
	if opts.Type != nil {
		conds = append(conds, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.Severity != nil {
		conds = append(conds, "severity = ?")
		args = append(args, string(*opts.Severity))
	}
	if opts.MinPeople != nil {
		conds = append(conds, "people_affected >= ?")
		args = append(args, *opts.MinPeople)
	}
	if opts.Since != nil {
		conds = append(conds, "reported_at >= ?")
		args = append(args, *opts.Since)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	var events []models.DisasterEvent
	for rows.Next() {
		var e models.DisasterEvent
		var typ, sev string
		if err := rows.Scan(&e.ID, &typ, &sev, &e.PeopleAffected, &e.Location, &e.ReportedAt); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		e.Type = models.DisasterType(typ)
		e.Severity = models.Severity(sev)
		events = append(events, e)
	}

	return events, rows.Err()
}

func (s *SQLiteDB) SaveBatch(ctx context.Context, b *models.BatchResult) error {
	report, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("error encoding batch %s: %w", b.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (id, run_at, total_events, total_people_affected, report)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.RunAt, b.Summary.TotalEvents, b.Summary.TotalPeopleAffected, report)
	if err != nil {
		return fmt.Errorf("error inserting batch %s: %w", b.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetBatch(ctx context.Context, id string) (*models.BatchResult, error) {
	var report []byte
	err := s.db.QueryRowContext(ctx, `SELECT report FROM batches WHERE id = ?`, id).Scan(&report)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching batch %s: %w", id, err)
	}

	var b models.BatchResult
	if err := json.Unmarshal(report, &b); err != nil {
		return nil, fmt.Errorf("error decoding batch %s: %w", id, err)
	}
	return &b, nil
}

func (s *SQLiteDB) ListBatches(ctx context.Context, opts Filter) ([]models.BatchResult, error) {
	query := `SELECT report FROM batches`
	var args []any
	if opts.Since != nil {
		query += " WHERE run_at >= ?"
		args = append(args, *opts.Since)
	}
	query += " ORDER BY run_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing batches: %w", err)
	}
	defer rows.Close()

	var batches []models.BatchResult
	for rows.Next() {
		var report []byte
		if err := rows.Scan(&report); err != nil {
			return nil, fmt.Errorf("error scanning batch row: %w", err)
		}
		var b models.BatchResult
		if err := json.Unmarshal(report, &b); err != nil {
			return nil, fmt.Errorf("error decoding batch report: %w", err)
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

func (s *SQLiteDB) GetInventory(ctx context.Context) (models.ResourcePool, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT resource, quantity FROM inventory`)
	if err != nil {
		return nil, false, fmt.Errorf("error fetching inventory: %w", err)
	}
	defer rows.Close()

	pool := make(models.ResourcePool)
	for rows.Next() {
		var resource string
		var quantity int64
		if err := rows.Scan(&resource, &quantity); err != nil {
			return nil, false, fmt.Errorf("error scanning inventory row: %w", err)
		}
		pool[models.ResourceKind(resource)] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return pool, len(pool) > 0, nil
}

func (s *SQLiteDB) SetInventory(ctx context.Context, pool models.ResourcePool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting inventory tx: %w", err)
	}
	defer tx.Rollback()

	for _, kind := range models.AllResourceKinds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (resource, quantity) VALUES (?, ?)
			 ON CONFLICT(resource) DO UPDATE SET quantity = excluded.quantity`,
			string(kind), pool[kind])
		if err != nil {
			return fmt.Errorf("error upserting inventory %s: %w", kind, err)
		}
	}

	return tx.Commit()
}
