package dbgen_test

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/ghazalfamilyusa/dbgen"
	"github.com/ghazalfamilyusa/dbgen/template"
	"github.com/ghazalfamilyusa/dbgen/value"
	"github.com/stretchr/testify/require"
)

func TestSQLWriter(t *testing.T) {
	table := &dbgen.Table{Name: template.NewQName(`"result"`)}

	var buf bytes.Buffer
	bufw := bufio.NewWriter(&buf)
	w := dbgen.NewSQLWriter(bufw)

	require.NoError(t, w.WriteFileHeader(table))
	require.NoError(t, w.WriteRowGroupHeader(table))

	writeRow := func(values ...value.Value) {
		for i, v := range values {
			if i > 0 {
				require.NoError(t, w.WriteValueSeparator())
			}
			require.NoError(t, w.WriteValue(v))
		}
	}

	writeRow(value.MakeInt64(1), value.MakeBytes([]byte("it's")), value.Null)
	require.NoError(t, w.WriteRowSeparator())
	writeRow(
		value.MakeInt64(2),
		value.MakeBytes([]byte("two")),
		value.MakeTimestamp(time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC)),
	)
	require.NoError(t, w.WriteRowGroupTrailer())
	require.NoError(t, bufw.Flush())

	expected := `INSERT INTO "result" VALUES
(1, 'it''s', NULL),
(2, 'two', '2020-01-01 01:00:00');
`
	require.Equal(t, expected, buf.String())
}

func TestSQLWriterBinaryBytes(t *testing.T) {
	var buf bytes.Buffer
	bufw := bufio.NewWriter(&buf)
	w := dbgen.NewSQLWriter(bufw)

	require.NoError(t, w.WriteValue(value.MakeBytes([]byte{0xff, 0x00, 0x01})))
	require.NoError(t, bufw.Flush())
	require.Equal(t, "X'ff0001'", buf.String())
}
