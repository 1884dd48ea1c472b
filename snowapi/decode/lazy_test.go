package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyRows(t *testing.T) {
	rows := NewRows(
		[]string{"ID", "NAME", "DETAILS"},
		[][]*string{
			cells("1", "alpha", `{"size":3}`),
			cells("2", nil, `not json`),
		},
	)
	assert.Equal(t, 2, rows.Len())

	idx, ok := rows.ColumnIndex("NAME")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = rows.At(2)
	assert.False(t, ok)

	first, ok := rows.At(0)
	require.True(t, ok)

	id, err := Get(first, "ID", Int64)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	name, err := GetAt(first, 1, String)
	require.NoError(t, err)
	assert.Equal(t, "alpha", name)

	type details struct {
		Size int `json:"size"`
	}
	d, err := GetJSON[details](first, "DETAILS")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Size)

	second, _ := rows.At(1)
	missing, err := Get(second, "NAME", Nullable(String))
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = GetJSONAt[details](second, 2)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindJSON, fe.Kind)
	assert.Equal(t, "DETAILS", fe.Field)
	assert.Equal(t, 1, fe.Row)
}

func TestLazyLookupErrors(t *testing.T) {
	rows := NewRows([]string{"ID"}, [][]*string{cells("x")})
	row, _ := rows.At(0)

	_, err := Get(row, "NOPE", Int64)
	var unknown *UnknownColumnError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "NOPE", unknown.Name)

	_, err = GetAt(row, 5, Int64)
	var idx *ColumnIndexError
	require.ErrorAs(t, err, &idx)
	assert.Equal(t, 5, idx.Index)

	_, err = Get(row, "ID", Int64)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "x", fe.RawValue())
}

func TestLazyDuplicateColumnsFirstWins(t *testing.T) {
	rows := NewRows([]string{"A", "A"}, [][]*string{cells("1", "2")})
	row, _ := rows.At(0)
	v, err := Get(row, "A", Int64)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
