package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/ir"
)

func TestInsert_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		table string
		row   ir.IRObject
		want  string
	}{
		{"unknown table", "robot", ir.IRObject{"id": ir.IRInt(1)}, "unknown table"},
		{"missing id", "person", ir.IRObject{"name": ir.IRString("a")}, "no id"},
		{"wrong id kind", "tag", ir.IRObject{"id": ir.IRInt(1)}, "id is int"},
		{"unknown column", "person", ir.IRObject{"id": ir.IRInt(1), "shoe": ir.IRInt(9)}, "unknown column"},
		{"wrong column kind", "person", ir.IRObject{"id": ir.IRInt(1), "age": ir.IRString("old")}, `column "age" is int`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Insert(ctx, tt.table, tt.row)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInsert_AllowsNullColumns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1), "name": ir.IRNull{}}))
	records, err := s.ScanTable(ctx, "person")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ir.IRNull{}, records[0].Values["name"])
}

func TestInsert_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1)}))
	assert.Error(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1)}))
}

func TestBatch_InvisibleUntilFlush(t *testing.T) {
	collector := diag.NewCollector(nil)
	s := createTestStore(t, WithCollector(collector))
	ctx := context.Background()

	s.BeginBatch()
	assert.True(t, s.InBatchMode())

	require.NoError(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1), "name": ir.IRString("ann")}))
	require.NoError(t, s.Insert(ctx, "address_home", ir.IRObject{"id": ir.IRInt(10), "person_id": ir.IRInt(1)}))
	assert.Equal(t, 2, s.Pending())

	records, err := s.ScanTable(ctx, "person")
	require.NoError(t, err)
	assert.Empty(t, records, "buffered rows are not visible")

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 0, s.Pending())
	assert.True(t, s.InBatchMode(), "flush keeps batch mode")

	records, err = s.ScanTable(ctx, "person")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	events := collector.Named(diag.StoreFlushed)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Data["rows"])
	assert.Equal(t, 1, events[0].Data["table.person"])

	n, err := s.FlushCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFlush_EmptyIsNoop(t *testing.T) {
	collector := diag.NewCollector(nil)
	s := createTestStore(t, WithCollector(collector))
	ctx := context.Background()

	s.BeginBatch()
	require.NoError(t, s.Flush(ctx))
	assert.Empty(t, collector.Events())

	n, err := s.FlushCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFlush_AtomicOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.BeginBatch()
	require.NoError(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1)}))
	require.NoError(t, s.Insert(ctx, "person", ir.IRObject{"id": ir.IRInt(1)}))

	require.Error(t, s.Flush(ctx))

	records, err := s.ScanTable(ctx, "person")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEndBatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.BeginBatch()
	require.NoError(t, s.Insert(ctx, "tag", ir.IRObject{"id": ir.IRString("t1"), "label": ir.IRString("x")}))
	require.NoError(t, s.EndBatch(ctx))
	assert.False(t, s.InBatchMode())

	require.NoError(t, s.Insert(ctx, "tag", ir.IRObject{"id": ir.IRString("t2")}))
	records, err := s.ScanTable(ctx, "tag")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
