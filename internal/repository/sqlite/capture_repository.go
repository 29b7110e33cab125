package sqlite

import (
	"database/sql"
	"fmt"

	"depthcapture/internal/model"
)

const upsertCapture = `
	INSERT INTO captures (filename, source, original_name, filesize, checksum, captured_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(filename) DO UPDATE SET
		source = excluded.source,
		original_name = excluded.original_name,
		filesize = excluded.filesize,
		checksum = excluded.checksum,
		captured_at = excluded.captured_at
	RETURNING id
`

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture journal.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Upsert records an ingestion, replacing the row of an overwritten artifact.
func (r *CaptureRepository) Upsert(rec *model.CaptureRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	var id int64
	err := r.db.Conn().QueryRow(upsertCapture,
		rec.Filename, rec.Source, rec.OriginalName, rec.Size, rec.Checksum, rec.CapturedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert capture: %w", err)
	}

	rec.ID = id
	return id, nil
}

// BulkUpsert records many ingestions in a single transaction.
func (r *CaptureRepository) BulkUpsert(recs []model.CaptureRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertCapture)
	if err != nil {
		return fmt.Errorf("failed to prepare capture statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		var id int64
		if err := stmt.QueryRow(
			rec.Filename, rec.Source, rec.OriginalName, rec.Size, rec.Checksum, rec.CapturedAt.UTC(),
		).Scan(&id); err != nil {
			return fmt.Errorf("failed to upsert capture %s: %w", rec.Filename, err)
		}
	}

	return tx.Commit()
}

// GetByFilename retrieves a journal row by artifact name. Returns nil when
// the artifact was never journaled.
func (r *CaptureRepository) GetByFilename(filename string) (*model.CaptureRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var rec model.CaptureRecord
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, source, original_name, filesize, checksum, captured_at
		FROM captures WHERE filename = ?
	`, filename).Scan(&rec.ID, &rec.Filename, &rec.Source, &rec.OriginalName, &rec.Size, &rec.Checksum, &rec.CapturedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return &rec, nil
}

// GetRecent returns up to limit journal rows, newest first.
func (r *CaptureRepository) GetRecent(limit int) ([]model.CaptureRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, filename, source, original_name, filesize, checksum, captured_at
		FROM captures
		ORDER BY captured_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	records := []model.CaptureRecord{}
	for rows.Next() {
		var rec model.CaptureRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Source, &rec.OriginalName, &rec.Size, &rec.Checksum, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStats returns statistics about journaled captures.
func (r *CaptureRepository) GetStats() (*model.CaptureStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.CaptureStats{
		PerSource: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM captures`).
		Scan(&stats.TotalCaptures, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to count captures: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT source, COUNT(*) FROM captures GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to group captures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		stats.PerSource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalCaptures > 0 {
		var last model.CaptureRecord
		err := r.db.Conn().QueryRow(`SELECT captured_at FROM captures ORDER BY captured_at DESC LIMIT 1`).
			Scan(&last.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to get last capture: %w", err)
		}
		stats.LastCaptureAt = &last.CapturedAt
	}

	return stats, nil
}
