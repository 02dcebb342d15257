package topology

import (
	"fmt"
	"sort"

	"github.com/roach88/sqlgraph/internal/ir"
)

// IDColumn is the identifier column present in every table.
const IDColumn = "id"

// Link connects an entity to related entities of another type.
type Link struct {
	Name   string
	Target string
	Column string
}

// Entity is one entity type.
type Entity struct {
	Name    string
	IDKind  ir.Kind
	Tables  []string
	Columns map[string]ir.Kind
	Links   map[string]Link
}

// ColumnNames returns the entity's property columns in sorted order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, 0, len(e.Columns))
	for name := range e.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table is the physical layout of one table, merged across every entity
// that declares it.
type Table struct {
	Name    string
	IDKind  ir.Kind
	Columns []Column
}

// Column is one property column of a table.
type Column struct {
	Name string
	Kind ir.Kind
}

// Topology maps entity types to tables.
type Topology struct {
	entities map[string]*Entity
	tables   []Table
}

// New validates entities and builds a topology from them.
func New(entities ...*Entity) (*Topology, error) {
	t := &Topology{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if _, dup := t.entities[e.Name]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("entity %q declared twice", e.Name)}
		}
		t.entities[e.Name] = e
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	tables, err := t.mergeTables()
	if err != nil {
		return nil, err
	}
	t.tables = tables
	return t, nil
}

func (t *Topology) validate() error {
	for _, name := range t.EntityNames() {
		e := t.entities[name]
		if len(e.Tables) == 0 {
			return &LoadError{Code: ErrCodeNoTables, Message: fmt.Sprintf("entity %q: at least one table is required", name)}
		}
		if e.IDKind != ir.KindInt && e.IDKind != ir.KindString {
			return &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("entity %q: id must be int or string, got %s", name, e.IDKind)}
		}
		if _, ok := e.Columns[IDColumn]; ok {
			return &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("entity %q: %q is reserved", name, IDColumn)}
		}
		for _, link := range e.Links {
			target, ok := t.entities[link.Target]
			if !ok {
				return &LoadError{Code: ErrCodeInvalidLink, Message: fmt.Sprintf("entity %q: link %q targets unknown entity %q", name, link.Name, link.Target)}
			}
			kind, ok := target.Columns[link.Column]
			if !ok {
				return &LoadError{Code: ErrCodeInvalidLink, Message: fmt.Sprintf("entity %q: link %q column %q is not a column of %q", name, link.Name, link.Column, link.Target)}
			}
			if kind != e.IDKind {
				return &LoadError{Code: ErrCodeInvalidLink, Message: fmt.Sprintf("entity %q: link %q column %q is %s but ids are %s", name, link.Name, link.Column, kind, e.IDKind)}
			}
		}
	}
	return nil
}

// mergeTables unions the columns of every entity sharing a table. A column
// declared with two different kinds is an error.
func (t *Topology) mergeTables() ([]Table, error) {
	type merged struct {
		idKind  ir.Kind
		columns map[string]ir.Kind
	}
	byName := make(map[string]*merged)
	for _, name := range t.EntityNames() {
		e := t.entities[name]
		for _, table := range e.Tables {
			m, ok := byName[table]
			if !ok {
				m = &merged{idKind: e.IDKind, columns: make(map[string]ir.Kind)}
				byName[table] = m
			}
			if m.idKind != e.IDKind {
				return nil, &LoadError{Code: ErrCodeConflict, Message: fmt.Sprintf("table %q: id kind conflict (%s vs %s)", table, m.idKind, e.IDKind)}
			}
			for col, kind := range e.Columns {
				if prev, ok := m.columns[col]; ok && prev != kind {
					return nil, &LoadError{Code: ErrCodeConflict, Message: fmt.Sprintf("table %q: column %q kind conflict (%s vs %s)", table, col, prev, kind)}
				}
				m.columns[col] = kind
			}
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		m := byName[name]
		cols := make([]string, 0, len(m.columns))
		for col := range m.columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		table := Table{Name: name, IDKind: m.idKind}
		for _, col := range cols {
			table.Columns = append(table.Columns, Column{Name: col, Kind: m.columns[col]})
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// EntityNames returns all entity names, sorted.
func (t *Topology) EntityNames() []string {
	names := make([]string, 0, len(t.entities))
	for name := range t.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity looks up an entity type.
func (t *Topology) Entity(name string) (*Entity, error) {
	e, ok := t.entities[name]
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnknownEntity, Message: fmt.Sprintf("unknown entity %q", name)}
	}
	return e, nil
}

// Tables returns the tables holding an entity's rows, in declaration order.
func (t *Topology) Tables(entity string) ([]string, error) {
	e, err := t.Entity(entity)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), e.Tables...), nil
}

// Column resolves a property key to its column. The id pseudo-property
// resolves to the id column.
func (t *Topology) Column(entity, key string) (string, bool) {
	e, ok := t.entities[entity]
	if !ok {
		return "", false
	}
	if key == IDColumn {
		return IDColumn, true
	}
	if _, ok := e.Columns[key]; ok {
		return key, true
	}
	return "", false
}

// Link resolves a named link from an entity.
func (t *Topology) Link(entity, name string) (Link, error) {
	e, err := t.Entity(entity)
	if err != nil {
		return Link{}, err
	}
	link, ok := e.Links[name]
	if !ok {
		return Link{}, &LoadError{Code: ErrCodeInvalidLink, Message: fmt.Sprintf("entity %q has no link %q", entity, name)}
	}
	return link, nil
}

// LinkTarget returns the entity type reached through a link.
func (t *Topology) LinkTarget(entity, name string) (string, error) {
	link, err := t.Link(entity, name)
	if err != nil {
		return "", err
	}
	return link.Target, nil
}

// PhysicalTables returns every table with its merged column layout.
func (t *Topology) PhysicalTables() []Table {
	return append([]Table(nil), t.tables...)
}

// Describe returns the topology as an IRObject, for fingerprints and the
// validate command.
func (t *Topology) Describe() ir.IRObject {
	entities := ir.IRObject{}
	for _, name := range t.EntityNames() {
		e := t.entities[name]
		tables := make(ir.IRArray, len(e.Tables))
		for i, table := range e.Tables {
			tables[i] = ir.IRString(table)
		}
		columns := ir.IRObject{}
		for col, kind := range e.Columns {
			columns[col] = ir.IRString(kind)
		}
		links := ir.IRObject{}
		for lname, link := range e.Links {
			links[lname] = ir.IRObject{
				"entity": ir.IRString(link.Target),
				"column": ir.IRString(link.Column),
			}
		}
		entities[name] = ir.IRObject{
			"id":      ir.IRString(e.IDKind),
			"tables":  tables,
			"columns": columns,
			"links":   links,
		}
	}
	return ir.IRObject{"entities": entities}
}

// Fingerprint identifies the topology's content.
func (t *Topology) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainTopology, t.Describe())
}
