package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"patient-dashboard/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Repository is the fetch journal: one row per request sent to the patient API.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	repo := &Repository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) initSchema() error {
	createFetchesTable := `
    CREATE TABLE IF NOT EXISTS fetch_journal (
        id TEXT PRIMARY KEY,
        operation TEXT NOT NULL,
        url TEXT NOT NULL,
        status_code INTEGER NOT NULL,
        duration_ms INTEGER NOT NULL,
        error TEXT,
        started_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_fetch_journal_started_at ON fetch_journal (started_at);`
	_, err := r.db.Exec(createFetchesTable)
	return err
}

func (r *Repository) RecordFetch(rec models.FetchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	query := `INSERT INTO fetch_journal (id, operation, url, status_code, duration_ms, error, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, rec.ID, rec.Operation, rec.URL, rec.StatusCode, rec.Duration.Milliseconds(), errText, rec.StartedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert fetch record: %w", err)
	}
	return nil
}

// RecentFetches returns up to limit records, newest first.
func (r *Repository) RecentFetches(limit int) ([]models.FetchRecord, error) {
	query := `SELECT id, operation, url, status_code, duration_ms, error, started_at FROM fetch_journal ORDER BY started_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.FetchRecord{}
	for rows.Next() {
		var rec models.FetchRecord
		var durationMs, startedAtMs int64
		var errText sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.Operation,
			&rec.URL,
			&rec.StatusCode,
			&durationMs,
			&errText,
			&startedAtMs,
		); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.StartedAt = time.UnixMilli(startedAtMs)
		if errText.Valid {
			rec.Error = errText.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneBefore deletes records that started before cutoff and returns how many went.
func (r *Repository) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM fetch_journal WHERE started_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunHousekeepingCycle prunes records older than retention once an hour
// until ctx is done.
func (r *Repository) RunHousekeepingCycle(ctx context.Context, retention time.Duration) {
	log.Printf("Journal housekeeping started. Keeping %s of fetch history.", retention)
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Journal housekeeping stopping.")
			return
		case <-ticker.C:
			n, err := r.PruneBefore(time.Now().Add(-retention))
			if err != nil {
				log.Printf("ERROR during journal housekeeping: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Housekeeping: pruned %d fetch journal record(s).", n)
			}
		}
	}
}

func (r *Repository) Close() {
	r.db.Close()
}
