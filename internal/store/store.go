package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/topology"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - metadata table only
// 1 - added sqlgraph_flushes log
const currentSchemaVersion = 1

const topologyKey = "topology_fingerprint"

// Store is a SQLite database laid out by a topology.
type Store struct {
	db        *sql.DB
	topo      *topology.Topology
	tables    map[string]topology.Table
	collector *diag.Collector

	batchMode bool
	pending   []pendingInsert
}

// Option configures a Store.
type Option func(*Store)

// WithCollector reports flushes to c.
func WithCollector(c *diag.Collector) Option {
	return func(s *Store) {
		s.collector = c
	}
}

// Open creates or opens a SQLite database at path and creates the tables
// topo describes. A database created for a different topology is rejected.
func Open(path string, topo *topology.Topology, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, topo: topo, tables: make(map[string]topology.Table)}
	for _, opt := range opts {
		opt(s)
	}
	for _, t := range topo.PhysicalTables() {
		s.tables[t.Name] = t
	}

	if err := s.applyTopology(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply topology: %w", err)
	}

	return s, nil
}

// Close closes the database connection. Pending batched inserts are
// discarded.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Topology returns the topology the store was opened with.
func (s *Store) Topology() *topology.Topology {
	return s.topo
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the flush log.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sqlgraph_flushes (
			seq  INTEGER PRIMARY KEY AUTOINCREMENT,
			rows INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// applyTopology records the topology fingerprint and creates its tables.
func (s *Store) applyTopology() error {
	fp, err := s.topo.Fingerprint()
	if err != nil {
		return err
	}

	var existing string
	err = s.db.QueryRow("SELECT value FROM sqlgraph_meta WHERE key = ?", topologyKey).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO sqlgraph_meta (key, value) VALUES (?, ?)", topologyKey, fp); err != nil {
			return fmt.Errorf("record topology: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read topology: %w", err)
	case existing != fp:
		return fmt.Errorf("database was created for topology %s, not %s", shortHash(existing), shortHash(fp))
	}

	for _, t := range s.topo.PhysicalTables() {
		if _, err := s.db.Exec(tableDDL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	for _, stmt := range s.linkIndexes() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func tableDDL(t topology.Table) string {
	cols := []string{fmt.Sprintf("%s %s PRIMARY KEY", topology.IDColumn, sqlType(t.IDKind))}
	for _, c := range t.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", c.Name, sqlType(c.Kind)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(cols, ", "))
}

// linkIndexes returns an index statement for every link column, on every
// table of the link's target.
func (s *Store) linkIndexes() []string {
	seen := make(map[string]bool)
	var stmts []string
	for _, name := range s.topo.EntityNames() {
		e, _ := s.topo.Entity(name)
		for _, linkName := range sortedLinkNames(e) {
			link := e.Links[linkName]
			target, err := s.topo.Entity(link.Target)
			if err != nil {
				continue
			}
			for _, table := range target.Tables {
				idx := fmt.Sprintf("idx_%s_%s", table, link.Column)
				if seen[idx] {
					continue
				}
				seen[idx] = true
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx, table, link.Column))
			}
		}
	}
	return stmts
}

func sortedLinkNames(e *topology.Entity) []string {
	names := make([]string, 0, len(e.Links))
	for name := range e.Links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sqlType(k ir.Kind) string {
	switch k {
	case ir.KindString:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
