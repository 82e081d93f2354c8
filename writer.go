package dbgen

import (
	"bufio"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ghazalfamilyusa/dbgen/template"
	"github.com/ghazalfamilyusa/dbgen/value"
)

// Writer specifies how to write a generated table's content to a file.
// Content/Parquet/CSV output is out of scope (see DESIGN.md): every
// generated table is rendered as a sequence of multi-row INSERT
// statements, which is what the row/table driver produces with a single
// Writer implementation, SQLWriter.
type Writer interface {
	// WriteValue writes a single value.
	WriteValue(v value.Value) error
	// WriteFileHeader writes the content at the beginning of the file.
	WriteFileHeader(table *Table) error
	// WriteRowGroupHeader writes the content before a row group (a batch
	// of rows sharing one INSERT statement).
	WriteRowGroupHeader(table *Table) error
	// WriteValueHeader is called before each value; SQLWriter ignores it,
	// since the VALUES(...) form carries no per-value column name.
	WriteValueHeader(column template.Name) error
	// WriteValueSeparator writes the separator between every value.
	WriteValueSeparator() error
	// WriteRowSeparator writes the separator between every row.
	WriteRowSeparator() error
	// WriteRowGroupTrailer writes the content after a row group.
	WriteRowGroupTrailer() error
}

// SQLWriter renders rows as `INSERT INTO ... VALUES (...), (...);`
// statements, batching every row passed between WriteRowGroupHeader and
// WriteRowGroupTrailer into one statement.
type SQLWriter struct {
	bufw *bufio.Writer
}

func NewSQLWriter(bufw *bufio.Writer) *SQLWriter {
	return &SQLWriter{bufw: bufw}
}

func (w *SQLWriter) WriteFileHeader(_ *Table) error {
	return nil
}

func (w *SQLWriter) WriteRowGroupHeader(table *Table) error {
	_, err := fmt.Fprintf(w.bufw, "INSERT INTO %s VALUES\n(", table.Name.String())
	return err
}

func (w *SQLWriter) WriteValueHeader(_ template.Name) error {
	return nil
}

func (w *SQLWriter) WriteValue(v value.Value) error {
	lit, err := sqlLiteral(v)
	if err != nil {
		return err
	}
	_, err = w.bufw.WriteString(lit)
	return err
}

func (w *SQLWriter) WriteValueSeparator() error {
	_, err := w.bufw.WriteString(", ")
	return err
}

func (w *SQLWriter) WriteRowSeparator() error {
	_, err := w.bufw.WriteString("),\n(")
	return err
}

func (w *SQLWriter) WriteRowGroupTrailer() error {
	_, err := w.bufw.WriteString(");\n")
	return err
}

// sqlLiteral renders v as a SQL literal. Arrays never reach output:
// they are an intermediate value used only while evaluating
// expressions such as rand.shuffle(array[...]) and are always
// subscripted down to a scalar before being assigned to a column.
func sqlLiteral(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "NULL", nil
	case value.KindInt, value.KindUint, value.KindFloat:
		return v.String(), nil
	case value.KindBytes:
		b, err := value.AsBytes(v)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(b) {
			return fmt.Sprintf("X'%x'", b), nil
		}
		return quoteSQLString(string(b)), nil
	case value.KindTimestamp:
		t, err := value.AsTimestamp(v)
		if err != nil {
			return "", err
		}
		return quoteSQLString(t.UTC().Format("2006-01-02 15:04:05.999999")), nil
	case value.KindInterval:
		us, err := value.AsIntervalMicros(v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("INTERVAL %d MICROSECOND", us), nil
	default:
		return "", &UnexpectedValueTypeError{Expected: "SQL scalar literal", Value: v.String()}
	}
}

func quoteSQLString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
