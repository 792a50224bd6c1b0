// Store wraps the relational edge backend behind database/sql, using the
// pure-Go github.com/ncruces/go-sqlite3 driver (no cgo), matching
// KittClouds-Go-Machine-n/GoKitt/internal/store's sqlite_store.go
// NewXWithDSN constructor and schema-as-const-string conventions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/orneryd/edgescript/pkg/auth"
)

// schema is the bit-exact table shape of spec §6.
const schema = `
CREATE TABLE IF NOT EXISTS edge (
	source TEXT NOT NULL,
	code   TEXT NOT NULL,
	target TEXT NOT NULL,
	paper  TEXT NOT NULL DEFAULT '',
	pen    TEXT NOT NULL DEFAULT '',
	id     INTEGER PRIMARY KEY AUTOINCREMENT
);

CREATE INDEX IF NOT EXISTS idx_edge_source_code ON edge(source, code, id);
CREATE INDEX IF NOT EXISTS idx_edge_code_target ON edge(code, target, id);
CREATE INDEX IF NOT EXISTS idx_edge_paper ON edge(paper);
CREATE INDEX IF NOT EXISTS idx_edge_pen ON edge(pen);
`

// Store is the durable edge backend. It is safe for concurrent use: all
// methods go through database/sql's own connection pool.
type Store struct {
	db *sql.DB
}

// Open creates a Store backed by the given DSN ("" or ":memory:" for an
// ephemeral database, a file path for persistent storage).
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", dsn, err)
	}
	if dsn == ":memory:" {
		// A ":memory:" database is private to the connection that opened
		// it; database/sql's pool would otherwise hand out a second,
		// independent connection (and database) to the next concurrent
		// caller. Pin the pool to one connection so the whole process
		// shares a single in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetTargetV runs the single-fibre query backing DM.get_target_v for a
// persistent (source, code) fibre, scoped by auth, ordered by insertion
// id.
func (s *Store) GetTargetV(ctx context.Context, source, code string, a auth.Auth) ([]string, error) {
	q := fmt.Sprintf("SELECT target FROM edge WHERE source = ? AND code = ? %s ORDER BY id", a.ReadPredicate())
	return s.queryColumn(ctx, q, source, code)
}

// GetSourceV is the (code, target)-fibre symmetric counterpart of
// GetTargetV.
func (s *Store) GetSourceV(ctx context.Context, code, target string, a auth.Auth) ([]string, error) {
	q := fmt.Sprintf("SELECT source FROM edge WHERE code = ? AND target = ? %s ORDER BY id", a.ReadPredicate())
	return s.queryColumn(ctx, q, code, target)
}

func (s *Store) queryColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RunCompiledGet executes a query produced by CompileGet and returns the
// ordered root column, resolving a whole path in one round-trip. The DM
// resolves paths step by step and does not call it; tests use it to check
// the step-by-step resolver against the compiled SQL (spec §8 invariant 2).
func (s *Store) RunCompiledGet(ctx context.Context, query string, args []any) ([]string, error) {
	if query == "" {
		return nil, nil
	}
	// CompileGet's SELECT list is "<alias>.id, <alias>.root"; the root
	// column is what the resolver wants, so scan both and keep the second.
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id int64
		var root string
		if err := rows.Scan(&id, &root); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		out = append(out, root)
	}
	return out, rows.Err()
}

// BulkInsert inserts every edge in a single multi-row INSERT, matching
// original_source/src/data/dao.rs::insert_edge_mp. A nil or empty slice is
// a no-op.
func (s *Store) BulkInsert(ctx context.Context, edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}
	var placeholders strings.Builder
	args := make([]any, 0, len(edges)*5)
	for i, e := range edges {
		if i > 0 {
			placeholders.WriteByte(',')
		}
		placeholders.WriteString("(?,?,?,?,?)")
		args = append(args, e.Source, e.Code, e.Target, e.Paper, e.Pen)
	}
	q := "INSERT INTO edge (source, code, target, paper, pen) VALUES " + placeholders.String()
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("storage: bulk insert: %w", err)
	}
	return nil
}

// DeleteFibreSourceCode deletes every row in the (source, code) fibre that
// the given auth may write (spec §4.8's writer-scope-by-paper /
// printer-scope-by-pen split, rendered via auth.DeletePredicate — kept as
// its own code path rather than reusing ReadPredicate's call site so the
// two concerns can diverge without cross-contamination, per spec §9).
func (s *Store) DeleteFibreSourceCode(ctx context.Context, source, code string, a auth.Auth) error {
	q := fmt.Sprintf("DELETE FROM edge WHERE source = ? AND code = ? %s", a.DeletePredicate())
	_, err := s.db.ExecContext(ctx, q, source, code)
	if err != nil {
		return fmt.Errorf("storage: delete source/code fibre: %w", err)
	}
	return nil
}

// DeleteFibreCodeTarget is the (code, target)-fibre symmetric counterpart
// of DeleteFibreSourceCode.
func (s *Store) DeleteFibreCodeTarget(ctx context.Context, code, target string, a auth.Auth) error {
	q := fmt.Sprintf("DELETE FROM edge WHERE code = ? AND target = ? %s", a.DeletePredicate())
	_, err := s.db.ExecContext(ctx, q, code, target)
	if err != nil {
		return fmt.Errorf("storage: delete code/target fibre: %w", err)
	}
	return nil
}

// ClearAuth deletes every row the given auth may write: all rows for
// Root, rows matching paper for Writer, rows matching pen for Printer.
func (s *Store) ClearAuth(ctx context.Context, a auth.Auth) error {
	pred := a.DeletePredicate()
	q := "DELETE FROM edge"
	if pred != "" {
		q += " WHERE 1=1 " + pred
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("storage: clear: %w", err)
	}
	return nil
}
