// Package snapshot persists a point-in-time copy of the index to a
// SQLite database. The export is a full rewrite inside one transaction;
// readers of the file always see either the previous snapshot or the new
// one.
package snapshot

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"rubyscope/internal/fqn"
	"rubyscope/internal/index"
)

// Store is the SQLite layer for snapshot exports.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a snapshot database at dbPath with WAL
// mode enabled.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS symbols (
  id         INTEGER PRIMARY KEY,
  file       TEXT NOT NULL,
  fqn        TEXT NOT NULL,
  kind       TEXT NOT NULL,
  entry_kind TEXT NOT NULL,
  visibility TEXT,
  superclass TEXT,
  start_line INTEGER,
  start_col  INTEGER,
  end_line   INTEGER,
  end_col    INTEGER
);

CREATE TABLE IF NOT EXISTS mixins (
  id        INTEGER PRIMARY KEY,
  symbol_id INTEGER NOT NULL REFERENCES symbols(id),
  kind      TEXT NOT NULL,
  operand   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS constant_refs (
  id         INTEGER PRIMARY KEY,
  fqn        TEXT NOT NULL,
  file       TEXT NOT NULL,
  start_line INTEGER,
  start_col  INTEGER
);

CREATE TABLE IF NOT EXISTS method_refs (
  id         INTEGER PRIMARY KEY,
  name       TEXT NOT NULL,
  file       TEXT NOT NULL,
  start_line INTEGER,
  start_col  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file);
CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(fqn);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_mixins_symbol ON mixins(symbol_id);
CREATE INDEX IF NOT EXISTS idx_constant_refs_fqn ON constant_refs(fqn);
CREATE INDEX IF NOT EXISTS idx_method_refs_name ON method_refs(name);
`

// Export replaces the snapshot's contents with snap inside one
// transaction.
func (s *Store) Export(snap index.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM mixins",
		"DELETE FROM symbols",
		"DELETE FROM constant_refs",
		"DELETE FROM method_refs",
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	}

	insertSymbol, err := tx.Prepare(`INSERT INTO symbols
		(file, fqn, kind, entry_kind, visibility, superclass, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare symbols: %w", err)
	}
	defer insertSymbol.Close()

	insertMixin, err := tx.Prepare("INSERT INTO mixins (symbol_id, kind, operand) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare mixins: %w", err)
	}
	defer insertMixin.Close()

	for file, entries := range snap.Files {
		for _, e := range entries {
			entryKind, visibility, superclass := entryColumns(e)
			res, err := insertSymbol.Exec(
				file, e.FQN.String(), e.FQN.Kind.String(), entryKind, visibility, superclass,
				e.Location.StartLine, e.Location.StartCol, e.Location.EndLine, e.Location.EndCol,
			)
			if err != nil {
				return fmt.Errorf("insert symbol %s: %w", e.FQN, err)
			}
			symbolID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("symbol id: %w", err)
			}
			if err := insertMixins(insertMixin, symbolID, e); err != nil {
				return err
			}
		}
	}

	if err := insertRefs(tx, snap); err != nil {
		return err
	}
	return tx.Commit()
}

func entryColumns(e *index.Entry) (entryKind, visibility, superclass string) {
	switch k := e.Kind.(type) {
	case index.ClassEntry:
		entryKind = "class"
		if k.Superclass != nil {
			superclass = k.Superclass.String()
		}
	case index.ModuleEntry:
		entryKind = "module"
	case index.MethodEntry:
		entryKind = "method"
		visibility = string(k.Visibility)
	case index.ConstantEntry:
		entryKind = "constant"
		visibility = string(k.Visibility)
	}
	return entryKind, visibility, superclass
}

func insertMixins(stmt *sql.Stmt, symbolID int64, e *index.Entry) error {
	emit := func(kind index.MixinKind, refs []fqn.MixinRef) error {
		for _, r := range refs {
			if _, err := stmt.Exec(symbolID, string(kind), r.String()); err != nil {
				return fmt.Errorf("insert mixin: %w", err)
			}
		}
		return nil
	}
	switch k := e.Kind.(type) {
	case index.ClassEntry:
		if err := emit(index.Include, k.Includes); err != nil {
			return err
		}
		if err := emit(index.Extend, k.Extends); err != nil {
			return err
		}
		return emit(index.Prepend, k.Prepends)
	case index.ModuleEntry:
		if err := emit(index.Include, k.Includes); err != nil {
			return err
		}
		if err := emit(index.Extend, k.Extends); err != nil {
			return err
		}
		return emit(index.Prepend, k.Prepends)
	}
	return nil
}

func insertRefs(tx *sql.Tx, snap index.Snapshot) error {
	insertConst, err := tx.Prepare("INSERT INTO constant_refs (fqn, file, start_line, start_col) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare constant refs: %w", err)
	}
	defer insertConst.Close()
	for f, locs := range snap.ConstantRefs {
		for _, l := range locs {
			if _, err := insertConst.Exec(f.String(), l.File, l.StartLine, l.StartCol); err != nil {
				return fmt.Errorf("insert constant ref: %w", err)
			}
		}
	}

	insertMethod, err := tx.Prepare("INSERT INTO method_refs (name, file, start_line, start_col) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare method refs: %w", err)
	}
	defer insertMethod.Close()
	for name, locs := range snap.MethodRefs {
		for _, l := range locs {
			if _, err := insertMethod.Exec(name, l.File, l.StartLine, l.StartCol); err != nil {
				return fmt.Errorf("insert method ref: %w", err)
			}
		}
	}
	return nil
}
