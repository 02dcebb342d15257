package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/topology"
)

type pendingInsert struct {
	table string
	query string
	args  []any
}

// Insert writes one row into table. The row must carry an id of the table's
// id kind; every other key must be a column of the table with a matching
// kind or null. In batch mode the insert is queued until Flush.
func (s *Store) Insert(ctx context.Context, table string, row ir.IRObject) error {
	query, args, err := s.insertStatement(table, row)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}

	if s.batchMode {
		s.pending = append(s.pending, pendingInsert{table: table, query: query, args: args})
		return nil
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *Store) insertStatement(table string, row ir.IRObject) (string, []any, error) {
	t, ok := s.tables[table]
	if !ok {
		return "", nil, fmt.Errorf("unknown table")
	}

	id, ok := row[topology.IDColumn]
	if !ok {
		return "", nil, fmt.Errorf("row has no %s", topology.IDColumn)
	}
	if kind := ir.KindOf(id); kind != t.IDKind {
		return "", nil, fmt.Errorf("id is %s, table ids are %s", kind, t.IDKind)
	}

	kinds := make(map[string]ir.Kind, len(t.Columns))
	for _, c := range t.Columns {
		kinds[c.Name] = c.Kind
	}

	var cols []string
	var args []any
	for _, key := range row.SortedKeys() {
		v := row[key]
		if key != topology.IDColumn {
			want, ok := kinds[key]
			if !ok {
				return "", nil, fmt.Errorf("unknown column %q", key)
			}
			if got := ir.KindOf(v); got != ir.KindNull && got != want {
				return "", nil, fmt.Errorf("column %q is %s, got %s", key, want, got)
			}
		}
		param, err := ir.ToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("column %q: %w", key, err)
		}
		cols = append(cols, key)
		args = append(args, param)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)
	return query, args, nil
}

// BeginBatch switches the store into buffered-write mode.
func (s *Store) BeginBatch() {
	s.batchMode = true
}

// InBatchMode reports whether inserts are being buffered.
func (s *Store) InBatchMode() bool {
	return s.batchMode
}

// Pending returns the number of buffered inserts.
func (s *Store) Pending() int {
	return len(s.pending)
}

// Flush writes every buffered insert in one transaction. The store stays in
// batch mode. Nothing is written if any insert fails.
func (s *Store) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flush: begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	tables := make(map[string]int)
	for _, p := range s.pending {
		if _, err := tx.ExecContext(ctx, p.query, p.args...); err != nil {
			return fmt.Errorf("flush: insert into %s: %w", p.table, err)
		}
		tables[p.table]++
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO sqlgraph_flushes (rows) VALUES (?)", len(s.pending)); err != nil {
		return fmt.Errorf("flush: record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush: commit: %w", err)
	}

	rows := len(s.pending)
	s.pending = nil

	if s.collector != nil {
		data := map[string]any{"rows": rows}
		for table, n := range tables {
			data["table."+table] = n
		}
		s.collector.AddTiming(diag.StoreFlushed, start, data)
	}
	return nil
}

// EndBatch flushes buffered inserts and leaves batch mode.
func (s *Store) EndBatch(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return err
	}
	s.batchMode = false
	return nil
}

// FlushCount returns how many flushes have been committed to the database.
func (s *Store) FlushCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlgraph_flushes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count flushes: %w", err)
	}
	return n, nil
}
