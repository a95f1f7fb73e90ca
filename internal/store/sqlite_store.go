// Package store persists generated reports in SQLite. The pipeline treats
// persistence as best-effort; only the caller-facing report management API
// depends on reads from here.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/astralhq/astral/internal/interfaces"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore implements interfaces.ReportStore on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ interfaces.ReportStore = (*SQLiteStore)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" style DSNs in tests.
func Open(path string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening report store %s: %w", path, err)
	}
	s, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and applies the schema.
func New(db *sql.DB, logger logging.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save stores the report under ownerID, overwriting any previous record with
// the same id.
func (s *SQLiteStore) Save(ctx context.Context, ownerID string, report *model.GeneratedReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if ownerID == "" {
		return fmt.Errorf("ownerID is required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", report.Fingerprint, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (id, owner_id, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, report.Fingerprint, ownerID, string(report.Kind), string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert report %s: %w", report.Fingerprint, err)
	}

	if s.logger != nil {
		s.logger.Debug("persisted report",
			logging.Field{Key: "report_id", Value: report.Fingerprint},
			logging.Field{Key: "owner_id", Value: ownerID})
	}
	return nil
}

// LoadByOwner returns all reports for an owner, newest first.
func (s *SQLiteStore) LoadByOwner(ctx context.Context, ownerID string) ([]*model.GeneratedReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM reports WHERE owner_id = ? ORDER BY created_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query reports for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var out []*model.GeneratedReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		var r model.GeneratedReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			// A corrupt row should not hide the rest of the owner's reports.
			if s.logger != nil {
				s.logger.Warn("skipping unreadable report row",
					logging.Field{Key: "owner_id", Value: ownerID},
					logging.Field{Key: "error", Value: err.Error()})
			}
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Delete removes a report scoped to its owner. Returns true when a row was
// removed.
func (s *SQLiteStore) Delete(ctx context.Context, reportID, ownerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reports WHERE id = ? AND owner_id = ?
	`, reportID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete report %s: %w", reportID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
