// internal/journal/journal.go
//
// SQLite journal of served rounds.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Recording round starts/finishes and listing recent rounds for diagnostics.
//
// The journal is write-mostly diagnostics. Deduplication never reads it and
// tallies are not restored from it.

package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var migrations embed.FS

// Journal wraps the SQLite handle.
type Journal struct {
	db *sql.DB
}

// Round is one journal row.
type Round struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"sessionId"`
	PlayerID       string     `json:"playerId,omitempty"`
	QuoteID        string     `json:"quoteId"`
	Author         string     `json:"author"`
	UsedFallback   bool       `json:"usedFallback"`
	UpstreamStatus *int       `json:"upstreamStatus,omitempty"`
	UpstreamError  *string    `json:"upstreamError,omitempty"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	ElapsedMs      *int64     `json:"elapsedMs,omitempty"`
}

/**
 * Open opens (and creates if missing) the SQLite journal and migrates it.
 *
 * - Ensures parent directory exists for relative DSNs (e.g. ./data/beauquote.db).
 * - Configures busy timeout and WAL journaling mode.
 */
func Open(dsn string) (*Journal, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

/**
 * migrate applies the embedded sql/*.sql files in lexical order.
 *
 * - Uses a _migrations table to track applied files.
 * - Each file runs inside its own transaction.
 */
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// RecordRound inserts a freshly started round. Duplicate ids are ignored.
func (j *Journal) RecordRound(ctx context.Context, r Round) error {
	if r.Status == "" {
		r.Status = "active"
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO rounds
            (id, session_id, player_id, quote_id, author, used_fallback,
             upstream_status, upstream_error, status, started_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.PlayerID, r.QuoteID, r.Author, r.UsedFallback,
		r.UpstreamStatus, r.UpstreamError, r.Status, r.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", r.ID, err)
	}
	return nil
}

// FinishRound marks a round complete, gave_up or skipped.
func (j *Journal) FinishRound(ctx context.Context, id, status string, elapsed time.Duration) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE rounds SET status=?, finished_at=?, elapsed_ms=?
        WHERE id=? AND finished_at IS NULL`,
		status, time.Now().UTC().Format(time.RFC3339Nano), elapsed.Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("finish round %s: %w", id, err)
	}
	return nil
}

// Recent lists the newest rounds first. Default limit is 20.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, session_id, player_id, quote_id, author, used_fallback,
               upstream_status, upstream_error, status, started_at,
               finished_at, elapsed_ms
        FROM rounds
        ORDER BY started_at DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Round, 0, limit)
	for rows.Next() {
		var (
			r        Round
			status   sql.NullInt64
			upErr    sql.NullString
			started  string
			finished sql.NullString
			elapsed  sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.PlayerID, &r.QuoteID, &r.Author, &r.UsedFallback,
			&status, &upErr, &r.Status, &started, &finished, &elapsed); err != nil {
			return nil, err
		}
		if status.Valid {
			c := int(status.Int64)
			r.UpstreamStatus = &c
		}
		if upErr.Valid {
			s := upErr.String
			r.UpstreamError = &s
		}
		r.StartedAt = parseTime(started)
		if finished.Valid && strings.TrimSpace(finished.String) != "" {
			t := parseTime(finished.String)
			r.FinishedAt = &t
		}
		if elapsed.Valid {
			ms := elapsed.Int64
			r.ElapsedMs = &ms
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
