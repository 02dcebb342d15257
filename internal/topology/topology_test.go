package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlgraph/internal/ir"
)

const personAddress = `
entity: Person: {
	id: int
	tables: ["person"]
	columns: { name: string, age: int, city: string }
	links: address: { entity: "Address", column: "person_id" }
}
entity: Address: {
	id: int
	tables: ["address_home", "address_work"]
	columns: { street: string, person_id: int }
}
`

func TestParseTopology(t *testing.T) {
	topo, err := Parse(personAddress)
	require.NoError(t, err)

	assert.Equal(t, []string{"Address", "Person"}, topo.EntityNames())

	person, err := topo.Entity("Person")
	require.NoError(t, err)
	assert.Equal(t, ir.KindInt, person.IDKind)
	assert.Equal(t, []string{"age", "city", "name"}, person.ColumnNames())
	assert.Equal(t, ir.KindString, person.Columns["name"])

	tables, err := topo.Tables("Address")
	require.NoError(t, err)
	assert.Equal(t, []string{"address_home", "address_work"}, tables)

	link, err := topo.Link("Person", "address")
	require.NoError(t, err)
	assert.Equal(t, Link{Name: "address", Target: "Address", Column: "person_id"}, link)
}

func TestColumnResolution(t *testing.T) {
	topo, err := Parse(personAddress)
	require.NoError(t, err)

	col, ok := topo.Column("Person", "name")
	assert.True(t, ok)
	assert.Equal(t, "name", col)

	col, ok = topo.Column("Person", "id")
	assert.True(t, ok)
	assert.Equal(t, IDColumn, col)

	_, ok = topo.Column("Person", "nickname")
	assert.False(t, ok)

	_, ok = topo.Column("Robot", "name")
	assert.False(t, ok)
}

func TestPhysicalTablesMergeColumns(t *testing.T) {
	topo, err := Parse(`
entity: Cat: { tables: ["animal"], columns: { name: string } }
entity: Dog: { tables: ["animal"], columns: { name: string, barks: bool } }
`)
	require.NoError(t, err)

	tables := topo.PhysicalTables()
	require.Len(t, tables, 1)
	assert.Equal(t, "animal", tables[0].Name)
	assert.Equal(t, ir.KindInt, tables[0].IDKind)
	assert.Equal(t, []Column{{Name: "barks", Kind: ir.KindBool}, {Name: "name", Kind: ir.KindString}}, tables[0].Columns)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "no entities",
			src:  `other: 1`,
			code: ErrCodeNoEntities,
		},
		{
			name: "missing tables",
			src:  `entity: A: { id: int }`,
			code: ErrCodeNoTables,
		},
		{
			name: "empty tables",
			src:  `entity: A: { tables: [] }`,
			code: ErrCodeNoTables,
		},
		{
			name: "float column",
			src:  `entity: A: { tables: ["a"], columns: { score: float } }`,
			code: ErrCodeInvalidType,
		},
		{
			name: "bool id",
			src:  `entity: A: { id: bool, tables: ["a"] }`,
			code: ErrCodeInvalidType,
		},
		{
			name: "reserved id column",
			src:  `entity: A: { tables: ["a"], columns: { id: string } }`,
			code: ErrCodeInvalidType,
		},
		{
			name: "link to unknown entity",
			src:  `entity: A: { tables: ["a"], links: b: { entity: "B", column: "a_id" } }`,
			code: ErrCodeInvalidLink,
		},
		{
			name: "link column missing",
			src: `
entity: A: { tables: ["a"], links: b: { entity: "B", column: "a_id" } }
entity: B: { tables: ["b"] }`,
			code: ErrCodeInvalidLink,
		},
		{
			name: "link column kind differs from ids",
			src: `
entity: A: { id: string, tables: ["a"], links: b: { entity: "B", column: "a_id" } }
entity: B: { tables: ["b"], columns: { a_id: int } }`,
			code: ErrCodeInvalidLink,
		},
		{
			name: "link missing column field",
			src:  `entity: A: { tables: ["a"], links: b: { entity: "A" } }`,
			code: ErrCodeInvalidLink,
		},
		{
			name: "shared table conflict",
			src: `
entity: A: { tables: ["t"], columns: { x: int } }
entity: B: { tables: ["t"], columns: { x: string } }`,
			code: ErrCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestParseSyntaxErrorHasPosition(t *testing.T) {
	_, err := Parse("entity: A: {\n  tables: [\n")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
	assert.Contains(t, err.Error(), "topology.cue")
}

func TestNewRejectsDuplicateEntity(t *testing.T) {
	a := &Entity{Name: "A", IDKind: ir.KindInt, Tables: []string{"a"}}
	_, err := New(a, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeDuplicate)
}

func TestEntityUnknown(t *testing.T) {
	topo, err := Parse(personAddress)
	require.NoError(t, err)

	_, err = topo.Entity("Robot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUnknownEntity)

	_, err = topo.Link("Person", "friends")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidLink)
}

func TestLoadDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "topology.cue"), []byte("package schema\n"+personAddress), 0644)
	require.NoError(t, err)

	topo, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Address", "Person"}, topo.EntityNames())
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestLoadEmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestFingerprintStable(t *testing.T) {
	a, err := Parse(personAddress)
	require.NoError(t, err)
	b, err := Parse(personAddress)
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	c, err := Parse(`entity: Person: { tables: ["people"] }`)
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}

func TestLinkTarget(t *testing.T) {
	topo, err := Parse(personAddress)
	require.NoError(t, err)

	target, err := topo.LinkTarget("Person", "address")
	require.NoError(t, err)
	assert.Equal(t, "Address", target)

	_, err = topo.LinkTarget("Address", "person")
	require.Error(t, err)
}
