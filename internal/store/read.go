package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/topology"
)

// Record is one row read from a table.
type Record struct {
	Table  string
	Values ir.IRObject
}

// ID returns the record's id.
func (r Record) ID() ir.IRValue {
	return r.Values[topology.IDColumn]
}

// ScanTable returns every row of table ordered by id.
func (s *Store) ScanTable(ctx context.Context, table string) ([]Record, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("scan %s: unknown table", table)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC COLLATE BINARY",
		strings.Join(columnList(t), ", "), table, topology.IDColumn)
	return s.QueryTable(ctx, table, query)
}

// ScanLinked returns the rows of table whose column equals value, ordered
// by id.
func (s *Store) ScanLinked(ctx context.Context, table, column string, value ir.IRValue) ([]Record, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("scan %s: unknown table", table)
	}
	if !hasColumn(t, column) {
		return nil, fmt.Errorf("scan %s: unknown column %q", table, column)
	}
	param, err := ir.ToParam(value)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC COLLATE BINARY",
		strings.Join(columnList(t), ", "), table, column, topology.IDColumn)
	return s.QueryTable(ctx, table, query, param)
}

// QueryTable runs query against table and decodes each row using the
// table's column kinds. Every selected column must belong to the table.
func (s *Store) QueryTable(ctx context.Context, table, query string, args ...any) ([]Record, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("query %s: unknown table", table)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: columns: %w", table, err)
	}
	kinds := make([]ir.Kind, len(cols))
	for i, c := range cols {
		kind, ok := columnKind(t, c)
		if !ok {
			return nil, fmt.Errorf("query %s: unknown column %q", table, c)
		}
		kinds[i] = kind
	}

	records := []Record{}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query %s: scan: %w", table, err)
		}
		values := make(ir.IRObject, len(cols))
		for i, c := range cols {
			v, err := decode(raw[i], kinds[i])
			if err != nil {
				return nil, fmt.Errorf("query %s: column %q: %w", table, c, err)
			}
			values[c] = v
		}
		records = append(records, Record{Table: table, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: iterate: %w", table, err)
	}
	return records, nil
}

// decode converts a SQLite value to the column's kind.
func decode(raw any, kind ir.Kind) (ir.IRValue, error) {
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, err
	}
	if kind == ir.KindBool {
		if n, ok := v.(ir.IRInt); ok {
			return ir.IRBool(n != 0), nil
		}
	}
	return v, nil
}

func columnList(t topology.Table) []string {
	cols := []string{topology.IDColumn}
	for _, c := range t.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

func columnKind(t topology.Table, name string) (ir.Kind, bool) {
	if name == topology.IDColumn {
		return t.IDKind, true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return "", false
}

func hasColumn(t topology.Table, name string) bool {
	_, ok := columnKind(t, name)
	return ok
}
