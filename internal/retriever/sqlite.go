// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retriever implements a concrete research.Retriever backed by a
// local SQLite FTS5 passage index, scoped by a caller-supplied user ID.
package retriever

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

// Store is a SQLite-backed passage index implementing research.Retriever.
// It is scoped to one user at construction time; the core research loop
// depends only on the Retrieve method.
type Store struct {
	db     *sql.DB
	userID string
	maxK   int
}

// Open opens or creates the SQLite database at path and returns a Store
// scoped to userID. It creates the passages table, the FTS5 index, and
// the sync triggers if they do not already exist.
func Open(path, userID string, maxResults int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening passage database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, userID: userID, maxK: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating passage schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS passages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			title TEXT,
			filename TEXT,
			text TEXT NOT NULL,
			score REAL,
			metadata_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_user_id ON passages(user_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(text, title, content=passages, content_rowid=rowid)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, text, title) VALUES (new.rowid, new.text, new.title);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, text, title) VALUES('delete', old.rowid, old.text, old.title);
			END`,
			`CREATE TRIGGER passages_au AFTER UPDATE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, text, title) VALUES('delete', old.rowid, old.text, old.title);
				INSERT INTO passages_fts(rowid, text, title) VALUES (new.rowid, new.text, new.title);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IngestBatch inserts or replaces a batch of passages for this store's
// user in one transaction.
func (s *Store) IngestBatch(ctx context.Context, passages []types.Passage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO passages (id, user_id, title, filename, text, score, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range passages {
		metaJSON, _ := json.Marshal(p.Metadata)
		if _, err := stmt.ExecContext(ctx, p.ID, s.userID, p.Title, p.Filename, p.Text, p.Score, string(metaJSON)); err != nil {
			return fmt.Errorf("inserting passage %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Retrieve implements research.Retriever. It runs an FTS5 MATCH query
// scoped to this store's user, falling back to a LIKE-based scan when the
// query has no tokens FTS5 can index (empty or punctuation-only), and
// returns passages ordered by score descending. It never returns an error
// for "no results" — only for a genuine I/O or query failure.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]types.Passage, error) {
	if topK <= 0 {
		topK = s.maxK
	}

	ftsQuery := sanitizeFTSQuery(query)

	var (
		rows *sql.Rows
		err  error
	)
	if ftsQuery != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT p.id, p.title, p.filename, p.text, p.score, p.metadata_json
			 FROM passages_fts
			 JOIN passages p ON p.rowid = passages_fts.rowid
			 WHERE p.user_id = ? AND passages_fts MATCH ?
			 ORDER BY p.score DESC
			 LIMIT ?`, s.userID, ftsQuery, topK)
	} else {
		likePattern := "%" + strings.TrimSpace(query) + "%"
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, title, filename, text, score, metadata_json
			 FROM passages
			 WHERE user_id = ? AND (text LIKE ? OR title LIKE ?)
			 ORDER BY score DESC
			 LIMIT ?`, s.userID, likePattern, likePattern, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var out []types.Passage
	for rows.Next() {
		var (
			p        types.Passage
			metaJSON sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Filename, &p.Text, &p.Score, &metaJSON); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		if metaJSON.Valid && metaJSON.String != "" {
			json.Unmarshal([]byte(metaJSON.String), &p.Metadata)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passage rows: %w", err)
	}
	return out, nil
}

// sanitizeFTSQuery strips FTS5 syntax characters a raw natural-language
// sub-query might contain and drops to empty (triggering the LIKE
// fallback) if nothing indexable remains.
func sanitizeFTSQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		// Every ASCII rune other than a letter or digit is FTS5 syntax or a
		// separator ("self-attention" would otherwise parse as a column
		// filter); non-ASCII runes are valid inside FTS5 barewords.
		return r < 0x80 && !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	var kept []string
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
		})
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
