package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "fedstat.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable() *dataprocessing.Table {
	t := dataprocessing.NewTable("Субъект", "Возраст", "Тип поселения", "2020end", "2021mid", "2021end")
	t.Append(
		dataprocessing.Text("Омская область"), dataprocessing.Text("0"), dataprocessing.Text("Все население"),
		dataprocessing.Number(100), dataprocessing.Number(105.5), dataprocessing.Number(111),
	)
	t.Append(
		dataprocessing.Text("Томская область"), dataprocessing.Text("0-4"), dataprocessing.Text("Все население"),
		dataprocessing.Number(50), dataprocessing.Null(), dataprocessing.Null(),
	)
	return t
}

func TestWriteAndReadTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTable(ctx, "population", "31548", sampleTable()))

	got, err := s.ReadTable(ctx, "population")
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), got)
}

func TestWriteTableReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTable(ctx, "population", "31548", sampleTable()))

	smaller := sampleTable()
	smaller.Rows = smaller.Rows[:1]
	require.NoError(t, s.WriteTable(ctx, "population", "31548+31549", smaller))

	got, err := s.ReadTable(ctx, "population")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	infos, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "population", infos[0].Name)
	assert.Equal(t, "31548+31549", infos[0].Source)
	assert.Equal(t, 1, infos[0].Rows)
	assert.False(t, infos[0].CreatedAt.IsZero())
}

func TestTablesSortedByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteTable(ctx, "women", "2", sampleTable()))
	require.NoError(t, s.WriteTable(ctx, "men", "1", sampleTable()))

	infos, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "men", infos[0].Name)
	assert.Equal(t, "women", infos[1].Name)
}

func TestReadMissingTable(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadTable(context.Background(), "absent")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"population", true},
		{"_tmp_2021", true},
		{"Population2", true},
		{"", false},
		{"2021", false},
		{"drop table x", false},
		{`a"b`, false},
		{"население", false},
		{catalogTable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			}
		})
	}
}

func TestWriteTableRejectsBadName(t *testing.T) {
	s := openTestStore(t)
	err := s.WriteTable(context.Background(), "bad name", "1", sampleTable())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Тип поселения"`, quoteIdent("Тип поселения"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
