/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"panelcanvas/internal/domain"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// librarySchemaVersion tracks the layout library schema. Bump it together
// with a new step in runLibraryMigrations.
const librarySchemaVersion = 2

// ErrLayoutNotFound is returned when no layout has the requested name.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutInfo describes a stored layout without its document body.
type LayoutInfo struct {
	Name      string    `json:"name"`
	Panels    int       `json:"panels"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Snippet is set by Search and marks the matching text with [ ].
	Snippet string `json:"snippet,omitempty"`
}

// Library is a local sqlite shelf of named documents.
type Library struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// OpenLibrary opens or creates the library database at path, enables WAL and
// brings the schema up to date.
func OpenLibrary(ctx context.Context, path string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureLibraryVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := runLibraryMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("library ready")
	return &Library{db: db, path: path, log: applog.WithComponent("library")}, nil
}

func (lib *Library) Close() error { return lib.db.Close() }

// Path returns the database file location.
func (lib *Library) Path() string { return lib.path }

// SchemaVersion reports the schema version recorded in the database.
func (lib *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := lib.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func ensureLibraryVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS layouts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			doc         TEXT NOT NULL,
			panels      INTEGER NOT NULL,
			text        TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh databases start at 1 and migrate forward like existing ones.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runLibraryMigrations applies incremental steps up to librarySchemaVersion.
func runLibraryMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < librarySchemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Full-text search over panel text.
			stmts = []string{
				`CREATE VIRTUAL TABLE IF NOT EXISTS fts_layouts USING fts5(text, content='layouts', content_rowid='id');`,
				`CREATE TRIGGER IF NOT EXISTS layouts_ai AFTER INSERT ON layouts BEGIN
					INSERT INTO fts_layouts(rowid, text) VALUES (new.id, new.text);
				END;`,
				`CREATE TRIGGER IF NOT EXISTS layouts_ad AFTER DELETE ON layouts BEGIN
					INSERT INTO fts_layouts(fts_layouts, rowid, text) VALUES ('delete', old.id, old.text);
				END;`,
				`CREATE TRIGGER IF NOT EXISTS layouts_au AFTER UPDATE ON layouts BEGIN
					INSERT INTO fts_layouts(fts_layouts, rowid, text) VALUES ('delete', old.id, old.text);
					INSERT INTO fts_layouts(rowid, text) VALUES (new.id, new.text);
				END;`,
				`INSERT INTO fts_layouts(fts_layouts) VALUES ('rebuild');`,
				`CREATE INDEX IF NOT EXISTS idx_layouts_updated ON layouts(updated_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// language=SQL
// dialect=SQLite
const upsertLayoutSQL = `INSERT INTO layouts(name, doc, panels, text, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET doc=excluded.doc, panels=excluded.panels, text=excluded.text, updated_at=excluded.updated_at`

// Put stores doc under name, replacing any layout with the same name.
func (lib *Library) Put(ctx context.Context, name string, doc domain.Document) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("layout name is required")
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := lib.db.ExecContext(ctx, upsertLayoutSQL, name, string(data), len(doc.Panels), panelText(doc), now, now); err != nil {
		return fmt.Errorf("put layout %q: %w", name, err)
	}
	lib.log.Debug("layout stored", slog.String("name", name), slog.Int("panels", len(doc.Panels)))
	return nil
}

// Get loads the layout stored under name.
func (lib *Library) Get(ctx context.Context, name string) (domain.Document, error) {
	var data string
	err := lib.db.QueryRowContext(ctx, `SELECT doc FROM layouts WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("%q: %w", name, ErrLayoutNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("get layout %q: %w", name, err)
	}
	return UnmarshalDocument([]byte(data))
}

// List returns every stored layout, most recently updated first.
func (lib *Library) List(ctx context.Context) ([]LayoutInfo, error) {
	rows, err := lib.db.QueryContext(ctx, `SELECT name, panels, updated_at FROM layouts ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []LayoutInfo
	for rows.Next() {
		var li LayoutInfo
		var ts string
		if err := rows.Scan(&li.Name, &li.Panels, &ts); err != nil {
			return nil, err
		}
		li.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, li)
	}
	return out, rows.Err()
}

// Search finds layouts whose panel text matches an FTS5 query.
func (lib *Library) Search(ctx context.Context, query string, limit int) ([]LayoutInfo, error) {
	if strings.TrimSpace(query) == "" {
		return lib.List(ctx)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := lib.db.QueryContext(ctx, `SELECT l.name, l.panels, l.updated_at, snippet(fts_layouts, 0, '[', ']', '...', 10)
FROM fts_layouts JOIN layouts l ON fts_layouts.rowid = l.id
WHERE fts_layouts MATCH ?
ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search layouts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []LayoutInfo
	for rows.Next() {
		var li LayoutInfo
		var ts string
		if err := rows.Scan(&li.Name, &li.Panels, &ts, &li.Snippet); err != nil {
			return nil, err
		}
		li.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, li)
	}
	return out, rows.Err()
}

// Delete removes a layout. Deleting an unknown name is ErrLayoutNotFound.
func (lib *Library) Delete(ctx context.Context, name string) error {
	res, err := lib.db.ExecContext(ctx, `DELETE FROM layouts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete layout %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrLayoutNotFound)
	}
	return nil
}

// panelText joins panel text for the search index.
func panelText(doc domain.Document) string {
	var parts []string
	for _, p := range doc.Panels {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
