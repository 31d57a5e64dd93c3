package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factorTagsColumn = 6

// binaryFactorRow hands scanFactor a tags column in the binary format
// pgx uses for text[] results.
type binaryFactorRow struct {
	m    *pgtype.Map
	tags []byte
}

func (r binaryFactorRow) Scan(dest ...interface{}) error {
	return r.m.Scan(pgtype.TextArrayOID, pgtype.BinaryFormatCode, r.tags, dest[factorTagsColumn])
}

func encodeTags(t *testing.T, m *pgtype.Map, value any) []byte {
	t.Helper()
	buf, err := m.Encode(pgtype.TextArrayOID, pgtype.BinaryFormatCode, value, nil)
	require.NoError(t, err)
	return buf
}

func TestScanFactorDecodesBinaryTags(t *testing.T) {
	m := pgtype.NewMap()
	require.Equal(t, int16(pgtype.BinaryFormatCode), m.FormatCodeForOID(pgtype.TextArrayOID))

	row := binaryFactorRow{m: m, tags: encodeTags(t, m, []string{"small", "efficient"})}
	f, err := scanFactor(row)
	require.NoError(t, err)
	assert.Equal(t, []string{"small", "efficient"}, f.Tags)
}

func TestScanFactorEmptyTags(t *testing.T) {
	m := pgtype.NewMap()

	row := binaryFactorRow{m: m, tags: encodeTags(t, m, []string{})}
	f, err := scanFactor(row)
	require.NoError(t, err)
	assert.NotNil(t, f.Tags)
	assert.Empty(t, f.Tags)

	f, err = scanFactor(binaryFactorRow{m: m})
	require.NoError(t, err)
	assert.Equal(t, []string{}, f.Tags)
}

func TestFactorTagsArgEncodesAsBinary(t *testing.T) {
	m := pgtype.NewMap()

	buf := encodeTags(t, m, pq.Array([]string{"fleet", "ev"}))

	var got []string
	require.NoError(t, m.Scan(pgtype.TextArrayOID, pgtype.BinaryFormatCode, buf, &got))
	assert.Equal(t, []string{"fleet", "ev"}, got)
}
