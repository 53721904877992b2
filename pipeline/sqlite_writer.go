package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aluiziolira/go-novel-spider/models"
)

// SQLiteWriter appends manifest records to a SQLite database. Rows from
// every run accumulate in the same file; the spider itself never reads them.
type SQLiteWriter struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	title TEXT NOT NULL,
	author TEXT,
	detail_url TEXT NOT NULL,
	download_url TEXT,
	strategy TEXT,
	file TEXT,
	charset TEXT,
	lossy INTEGER NOT NULL DEFAULT 0,
	bytes INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error TEXT,
	at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_downloads_session ON downloads(session_id);
CREATE INDEX IF NOT EXISTS idx_downloads_detail ON downloads(detail_url);
`

// NewSQLiteWriter opens or creates the database at filename.
func NewSQLiteWriter(filename string) (*SQLiteWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filename+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite manifest: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}
	return &SQLiteWriter{db: db, path: filename}, nil
}

// Write inserts records in one transaction.
func (sw *SQLiteWriter) Write(records []models.DownloadRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx := context.Background()

	tx, err := sw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin manifest tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO downloads
		(session_id, title, author, detail_url, download_url, strategy, file, charset, lossy, bytes, status, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare manifest insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.SessionID, rec.Title, rec.Author, rec.DetailURL, rec.DownloadURL, rec.Strategy,
			rec.File, rec.Charset, rec.Lossy, rec.Bytes, rec.Status, rec.Error, rec.At.UTC(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert manifest record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit manifest tx: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (sw *SQLiteWriter) Close() error {
	return sw.db.Close()
}

// Validate ensures the manifest table is readable.
func (sw *SQLiteWriter) Validate() error {
	var n int
	if err := sw.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM downloads").Scan(&n); err != nil {
		return fmt.Errorf("query sqlite manifest: %w", err)
	}
	return nil
}

// CountByStatus returns the number of rows per status for a session.
func (sw *SQLiteWriter) CountByStatus(sessionID string) (map[string]int, error) {
	rows, err := sw.db.QueryContext(context.Background(),
		"SELECT status, COUNT(*) FROM downloads WHERE session_id = ? GROUP BY status", sessionID)
	if err != nil {
		return nil, fmt.Errorf("query manifest counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan manifest count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
