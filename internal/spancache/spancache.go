// Package spancache persists located image spans in SQLite, keyed by
// a file signature (path, size, mtime), so unchanged session files
// are never rescanned. The scanning core never imports this package;
// it is the persistence collaborator sitting next to it.
package spancache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentlens/agentlens/internal/imagescan"
)

//go:embed schema.sql
var schemaSQL string

// Signature identifies one version of a file's contents. A size or
// mtime change invalidates every cached span for the file.
type Signature struct {
	Path  string
	Size  int64
	Mtime int64 // nanoseconds
}

// SignatureFor stats the file and builds its current signature.
func SignatureFor(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Signature{
		Path:  path,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	}, nil
}

// DB manages a write connection and a read-only pool, following the
// same single-writer discipline the rest of the app uses for SQLite.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex // serializes writes
}

func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates or opens the span cache at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if _, err := writer.Exec(schemaSQL); err != nil {
		writer.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	return &DB{writer: writer, reader: reader}, nil
}

func (db *DB) Close() error {
	rerr := db.reader.Close()
	werr := db.writer.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

// Put replaces the cached spans for the file under this signature
// and dialect.
func (db *DB) Put(
	sig Signature,
	dialect imagescan.Dialect,
	spans []imagescan.LocatedSpan,
) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM files WHERE path = ? AND dialect = ?`,
		sig.Path, string(dialect),
	); err != nil {
		return fmt.Errorf("clearing %s: %w", sig.Path, err)
	}

	res, err := tx.Exec(`
		INSERT INTO files (path, dialect, size, mtime, scanned_at)
		VALUES (?, ?, ?, ?, ?)
	`, sig.Path, string(dialect), sig.Size, sig.Mtime,
		time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", sig.Path, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("file id for %s: %w", sig.Path, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO spans (
			file_id, start_offset, end_offset,
			payload_offset, payload_length, media_type,
			line_index, item_index, message_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing span insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range spans {
		if _, err := stmt.Exec(
			fileID, int64(s.StartOffset), int64(s.EndOffset),
			int64(s.PayloadOffset), s.PayloadLength, s.MediaType,
			s.LineIndex, s.ItemIndex, s.MessageID,
		); err != nil {
			return fmt.Errorf(
				"inserting span for %s: %w", sig.Path, err,
			)
		}
	}

	return tx.Commit()
}

// Get returns the cached spans for the file, or ok=false when the
// cache has no entry matching the signature exactly.
func (db *DB) Get(
	sig Signature, dialect imagescan.Dialect,
) ([]imagescan.LocatedSpan, bool, error) {
	var fileID int64
	err := db.reader.QueryRow(`
		SELECT id FROM files
		WHERE path = ? AND dialect = ? AND size = ? AND mtime = ?
	`, sig.Path, string(dialect), sig.Size, sig.Mtime).Scan(&fileID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up %s: %w", sig.Path, err)
	}

	rows, err := db.reader.Query(`
		SELECT start_offset, end_offset, payload_offset,
		       payload_length, media_type,
		       line_index, item_index, message_id
		FROM spans
		WHERE file_id = ?
		ORDER BY start_offset, id
	`, fileID)
	if err != nil {
		return nil, false, fmt.Errorf("loading spans for %s: %w", sig.Path, err)
	}
	defer rows.Close()

	var spans []imagescan.LocatedSpan
	for rows.Next() {
		var (
			s                      imagescan.LocatedSpan
			start, end, payloadOff int64
		)
		if err := rows.Scan(
			&start, &end, &payloadOff,
			&s.PayloadLength, &s.MediaType,
			&s.LineIndex, &s.ItemIndex, &s.MessageID,
		); err != nil {
			return nil, false, fmt.Errorf(
				"scanning span row for %s: %w", sig.Path, err,
			)
		}
		s.StartOffset = uint64(start)
		s.EndOffset = uint64(end)
		s.PayloadOffset = uint64(payloadOff)
		spans = append(spans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("reading spans for %s: %w", sig.Path, err)
	}
	return spans, true, nil
}

// Invalidate drops every cached entry for the path, across dialects.
func (db *DB) Invalidate(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.writer.Exec(
		`DELETE FROM files WHERE path = ?`, path,
	); err != nil {
		return fmt.Errorf("invalidating %s: %w", path, err)
	}
	return nil
}

// Stats reports cache-wide counts, used by the CLI status output.
func (db *DB) Stats() (files, spans int64, err error) {
	if err := db.reader.QueryRow(
		`SELECT COUNT(*) FROM files`,
	).Scan(&files); err != nil {
		return 0, 0, fmt.Errorf("counting files: %w", err)
	}
	if err := db.reader.QueryRow(
		`SELECT COUNT(*) FROM spans`,
	).Scan(&spans); err != nil {
		return 0, 0, fmt.Errorf("counting spans: %w", err)
	}
	return files, spans, nil
}
