package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"audio-converter/internal/logging"
)

// defaultTimeout bounds individual database operations.
const defaultTimeout = 5 * time.Second

// Record is one completed conversion.
type Record struct {
	ID                int64     `json:"id"`
	Filename          string    `json:"filename"`
	SourceName        string    `json:"sourceName"`
	DurationSeconds   int       `json:"durationSeconds"`
	BitrateKbps       int       `json:"bitrateKbps"`
	SizeBytes         int64     `json:"sizeBytes"`
	OriginalSizeBytes int64     `json:"originalSizeBytes"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Store persists conversion records.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the history database at dbPath. The parent
// directory must exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Info("History database ready at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		source_name TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		bitrate_kbps INTEGER NOT NULL,
		size_bytes INTEGER NOT NULL,
		original_size_bytes INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts one conversion record.
func (s *Store) Add(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(opCtx,
		`INSERT INTO conversions (filename, source_name, duration_seconds, bitrate_kbps, size_bytes, original_size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Filename, rec.SourceName, rec.DurationSeconds, rec.BitrateKbps,
		rec.SizeBytes, rec.OriginalSizeBytes, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(opCtx,
		`SELECT id, filename, source_name, duration_seconds, bitrate_kbps, size_bytes, original_size_bytes, created_at
		 FROM conversions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("failed to close history rows: %v", err)
		}
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.SourceName, &rec.DurationSeconds,
			&rec.BitrateKbps, &rec.SizeBytes, &rec.OriginalSizeBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion record: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the total number of recorded conversions.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(opCtx, "SELECT COUNT(*) FROM conversions").Scan(&n)
	return n, err
}
