// Package schemagen synthesizes random CREATE TABLE schemas annotated
// with dbgen column-generator expressions, and emits a shell script
// that pipes each table's schema into cmd/dbgen. It ports the
// dbschemagen algorithm: a Pareto draw for relative table sizes, a
// log-normal draw for a table's column count, a 9-generator column
// palette, and weighted-alias sampling for primary/secondary index
// selection.
package schemagen

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"math/rand"
	"sort"
	"strings"
)

// Dialect is the target SQL dialect a schema is synthesized for.
type Dialect int

const (
	MySQL Dialect = iota
	PostgreSQL
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgresql"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect parses a --dialect flag value.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "mysql":
		return MySQL, nil
	case "postgresql":
		return PostgreSQL, nil
	case "sqlite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported SQL dialect %q", s)
	}
}

// column is one synthesized column: its SQL type, the dbgen expression
// that generates its values, and the statistics used to decide which
// columns make good index candidates.
type column struct {
	Type string
	Expr string
	// NegLog2Prob is -log2(collision probability) of two random values
	// of this column, used to judge whether a column set makes a
	// plausible unique index.
	NegLog2Prob float64
	// AverageLen estimates the formatted byte length of a generated
	// value, used to size a table to its target byte budget.
	AverageLen float64
	Nullable   bool
}

type columnGenerator func(Dialect, *rand.Rand) column

func genIntColumn(dialect Dialect, rng *rand.Rand) column {
	bytes := rng.Intn(8)
	unsigned := rng.Intn(2) == 1

	var ty string
	switch {
	case dialect == MySQL && !unsigned:
		ty = []string{"tinyint", "smallint", "mediumint", "int"}[min(bytes, 3)]
		if bytes > 3 {
			ty = "bigint"
		}
	case dialect == MySQL && unsigned:
		ty = []string{"tinyint unsigned", "smallint unsigned", "mediumint unsigned", "int unsigned"}[min(bytes, 3)]
		if bytes > 3 {
			ty = "bigint unsigned"
		}
	case dialect == PostgreSQL && !unsigned:
		switch {
		case bytes <= 1:
			ty = "smallint"
		case bytes <= 3:
			ty = "int"
		default:
			ty = "bigint"
		}
	case dialect == PostgreSQL && unsigned:
		switch {
		case bytes == 0:
			ty = "smallint"
		case bytes <= 2:
			ty = "int"
		case bytes <= 6:
			ty = "bigint"
		default:
			ty = "numeric(20)"
		}
	default: // SQLite
		ty = "integer"
	}
	ty += " not null"

	shift := uint(8 * bytes)
	var minV, maxV *big.Int
	if unsigned {
		minV = big.NewInt(0)
		maxV = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(256), shift), big.NewInt(1))
	} else {
		base := new(big.Int).Lsh(big.NewInt(128), shift)
		minV = new(big.Int).Neg(base)
		maxV = new(big.Int).Sub(base, big.NewInt(1))
	}
	negLog2Prob := float64(bytes+1) * 8.0

	end := new(big.Float).SetInt(new(big.Int).Add(maxV, big.NewInt(1)))
	endF, _ := end.Float64()
	digits := math.Ceil(math.Log10(endF))
	averageLen := digits - (math.Pow(10, digits)-10)/(9*endF)
	if !unsigned {
		averageLen = averageLen*2 + 1
	}

	return column{
		Type:        ty,
		Expr:        fmt.Sprintf("rand.range_inclusive(%s, %s)", minV.String(), maxV.String()),
		NegLog2Prob: negLog2Prob,
		AverageLen:  averageLen,
		Nullable:    false,
	}
}

func genSerialColumn(dialect Dialect, _ *rand.Rand) column {
	ty := map[Dialect]string{
		MySQL:      "bigint unsigned not null",
		PostgreSQL: "bigserial",
		SQLite:     "integer not null",
	}[dialect]
	return column{Type: ty, Expr: "rownum", NegLog2Prob: 64.0, AverageLen: 6.0}
}

func genDecimalColumn(_ Dialect, rng *rand.Rand) column {
	before := 1 + rng.Intn(18) // 1..18
	after := rng.Intn(31)      // 0..30
	limit := strings.Repeat("9", before)
	return column{
		Type:        fmt.Sprintf("decimal(%d, %d) not null", before+after, after),
		Expr:        fmt.Sprintf(`rand.range_inclusive(-%s, %s) || rand.regex('\.[0-9]{%d}')`, limit, limit, after),
		NegLog2Prob: log2_10*float64(before+after) + 1.0,
		AverageLen:  float64(before+after) + 17.0/9.0,
	}
}

const log2_10 = 3.321928094887362

// averageLenPerChar and validCharsCount model each rand.regex('.')
// character as uniform over the 1112064 valid Unicode scalar values,
// whose UTF-8 encodings average about 3.94 bytes. The '.' generator in
// regexgen.go draws only the ASCII letters 'a' to 'z', one byte each.
const (
	averageLenPerChar = 3.940954837131676
	validCharsCount   = 1112064.0
)

func genVarcharColumn(_ Dialect, rng *rand.Rand) column {
	length := 1 + rng.Intn(255)
	residue := math.Log2(validCharsCount / (validCharsCount - 1))
	return column{
		Type:        fmt.Sprintf("varchar(%d) not null", length),
		Expr:        fmt.Sprintf("rand.regex('.{0,%d}', 's')", length),
		NegLog2Prob: math.Log2(float64(length+1)) - residue,
		AverageLen:  averageLenPerChar*0.5*float64(length) + 2.0,
	}
}

func genCharColumn(_ Dialect, rng *rand.Rand) column {
	length := 1 + rng.Intn(255)
	factor := math.Log2(validCharsCount)
	return column{
		Type:        fmt.Sprintf("char(%d) not null", length),
		Expr:        fmt.Sprintf("rand.regex('.{%d}', 's')", length),
		NegLog2Prob: factor * float64(length),
		AverageLen:  averageLenPerChar*float64(length) + 2.0,
	}
}

func genTimestampColumn(dialect Dialect, _ *rand.Rand) column {
	ty := "timestamp not null"
	if dialect == SQLite {
		ty = "text not null"
	}
	return column{Type: ty, Expr: "rand.u31_timestamp()", NegLog2Prob: 31.0, AverageLen: 21.0}
}

const datetimeSeconds = 284012524800.0

func genDatetimeColumn(dialect Dialect, _ *rand.Rand) column {
	var ty string
	switch dialect {
	case SQLite:
		ty = "text not null"
	case MySQL:
		ty = "datetime not null"
	default:
		ty = "timestamp not null"
	}
	return column{
		Type:        ty,
		Expr:        "TIMESTAMP '1000-01-01 00:00:00' + INTERVAL rand.range(0, 284012524800) SECOND",
		NegLog2Prob: math.Log2(datetimeSeconds),
		AverageLen:  21.0,
	}
}

func genNullableBoolColumn(_ Dialect, rng *rand.Rand) column {
	p := rng.Float64()
	return column{
		Type:        "boolean",
		Expr:        fmt.Sprintf("CASE WHEN rand.bool(%v) THEN '' || rand.bool(0.5) END", p),
		NegLog2Prob: -math.Log2((1.5*p-2.0)*p + 1.0),
		AverageLen:  4.0 - p,
		Nullable:    true,
	}
}

const (
	negLog2ProbFiniteF32 = 31.99435343685886
	negLog2ProbFiniteF64 = 63.99929538702341
)

func genFloatColumn(dialect Dialect, rng *rand.Rand) column {
	bits := (1 + rng.Intn(2)) * 32
	var ty string
	switch {
	case bits == 32 && dialect == MySQL:
		ty = "float not null"
	case bits == 64 && dialect == MySQL:
		ty = "double not null"
	case bits == 64 && dialect == PostgreSQL:
		ty = "double precision not null"
	default:
		ty = "real not null"
	}
	negLog2Prob := negLog2ProbFiniteF64
	if bits == 32 {
		negLog2Prob = negLog2ProbFiniteF32
	}
	return column{
		Type:        ty,
		Expr:        fmt.Sprintf("rand.finite_f%d()", bits),
		NegLog2Prob: negLog2Prob,
		AverageLen:  21.966,
	}
}

var generators = [9]columnGenerator{
	genIntColumn,
	genSerialColumn,
	genVarcharColumn,
	genCharColumn,
	genTimestampColumn,
	genDatetimeColumn,
	genNullableBoolColumn,
	genDecimalColumn,
	genFloatColumn,
}

func genColumn(dialect Dialect, rng *rand.Rand) column {
	return generators[rng.Intn(len(generators))](dialect, rng)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// indexCountWeights is the truncated, differenced Pareto(1.0, 1.6) mass
// function over {0..12} built the same way schemagen_cli.rs's
// scan-and-chain does: entry c holds P(count == c), with the zero-weight
// first entry making a zero-column index unreachable and the final entry
// absorbing the distribution's truncated tail. The sampled index IS the
// index column count.
func indexCountWeights() []float64 {
	weights := make([]float64, 0, 13)
	prev := 1.0
	for i := 1; i <= 12; i++ {
		pdf := math.Pow(float64(i), -1.6)
		weights = append(weights, prev-pdf)
		prev = pdf
	}
	return append(weights, math.Pow(12.0, -1.6))
}

// indexAppender picks random column sets to promote into PRIMARY KEY,
// UNIQUE, or plain KEY index clauses, weighting column choice by how
// collision-resistant (high NegLog2Prob) each column is, the same way
// schemagen_cli.rs's IndexAppender does via two WeightedAliasIndex draws.
type indexAppender struct {
	indexCountDistr *weightedAliasIndex
	indexDistr      *weightedAliasIndex
	columns         []column
	indexSets       map[string]struct{}
}

func newIndexAppender(columns []column) *indexAppender {
	weights := make([]float64, len(columns))
	for i, c := range columns {
		weights[i] = math.Min(c.NegLog2Prob, 32.0)
	}
	return &indexAppender{
		indexCountDistr: newWeightedAliasIndex(indexCountWeights()),
		indexDistr:      newWeightedAliasIndex(weights),
		columns:         columns,
		indexSets:       make(map[string]struct{}),
	}
}

func (a *indexAppender) appendTo(schema *strings.Builder, dialect Dialect, rng *rand.Rand, uniqueCutoff float64, isPrimaryKey bool) {
	indexCount := a.indexCountDistr.sample(rng)
	picked := make(map[int]struct{}, indexCount)
	for i := 0; i < indexCount; i++ {
		picked[a.indexDistr.sample(rng)] = struct{}{}
	}

	indices := make([]int, 0, len(picked))
	for i := range picked {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	totalNegLog2Prob := 0.0
	isNullable := false
	for _, i := range indices {
		totalNegLog2Prob += a.columns[i].NegLog2Prob
		if a.columns[i].Nullable {
			isNullable = true
		}
	}
	isUnique := totalNegLog2Prob > uniqueCutoff
	if isPrimaryKey && (!isUnique || isNullable) {
		return
	}

	if len(indices) == 0 {
		return
	}
	key := make([]string, len(indices))
	names := make([]string, len(indices))
	for j, i := range indices {
		key[j] = fmt.Sprintf("%d", i)
		names[j] = fmt.Sprintf("c%d", i)
	}
	setKey := strings.Join(key, ",")
	if _, seen := a.indexSets[setKey]; seen {
		return
	}
	a.indexSets[setKey] = struct{}{}

	switch {
	case isPrimaryKey:
		schema.WriteString(",\nPRIMARY KEY (")
	case isUnique:
		schema.WriteString(",\nUNIQUE (")
	case dialect == MySQL:
		schema.WriteString(",\nKEY (")
	default:
		return
	}
	schema.WriteString(strings.Join(names, ", "))
	schema.WriteByte(')')
}

// Table is one synthesized table: its schema (with embedded dbgen
// expressions), target row count, and the per-table seed its dbgen
// invocation should use.
type Table struct {
	Schema     string
	TargetSize float64
	RowsCount  uint64
	Seed       uint64
}

const logNormalColumnCountMean = 2.354259469228055
const logNormalColumnCountStddev = 0.75

// uniqueCutoffBase is -log2(~0.01) folded into the "2*log2(N) + k"
// uniqueness-cutoff formula documented in schemagen_cli.rs.
const uniqueCutoffBase = 6.736593289427474

func genTable(dialect Dialect, rng *rand.Rand, targetSize float64) Table {
	var schema strings.Builder
	schema.WriteString("CREATE TABLE _ (\n")

	columnsCount := int(logNormal(rng, logNormalColumnCountMean, logNormalColumnCountStddev))
	if columnsCount < 1 {
		columnsCount = 1
	}
	columns := make([]column, columnsCount)
	for i := range columns {
		columns[i] = genColumn(dialect, rng)
	}

	for i, c := range columns {
		if i > 0 {
			schema.WriteString(",\n")
		}
		fmt.Fprintf(&schema, "c%d %s {{%s}}", i, c.Type, c.Expr)
	}

	averageLenPerRow := 0.0
	for _, c := range columns {
		averageLenPerRow += c.AverageLen + 2.0
	}
	rowsCount := math.Ceil(targetSize / averageLenPerRow)

	uniqueCutoff := math.Log2(rowsCount)*2.0 + uniqueCutoffBase

	appender := newIndexAppender(columns)
	appender.appendTo(&schema, dialect, rng, uniqueCutoff, true)
	p := float64(len(appender.indexSets)) / float64(columnsCount+len(appender.indexSets))
	secondaryKeysCount := geometric(rng, p)
	for i := 0; i < secondaryKeysCount; i++ {
		appender.appendTo(&schema, dialect, rng, uniqueCutoff, false)
	}
	schema.WriteString("\n);")

	finalRowsCount := uint64(rowsCount)
	if finalRowsCount < 1 {
		finalRowsCount = 1
	}

	return Table{
		Schema:     schema.String(),
		TargetSize: targetSize,
		RowsCount:  finalRowsCount,
		Seed:       uint64(rng.Int63()),
	}
}

const tableSizeParetoShape = 1.16

// genTables splits totalTargetSize across tablesCount tables using a
// Pareto(1.0, 1.16) draw for each table's relative share, the same
// heavy-tailed "a few big tables, many small ones" shape
// schemagen_cli.rs uses.
func genTables(dialect Dialect, rng *rand.Rand, totalTargetSize float64, tablesCount int) []Table {
	relativeSizes := make([]float64, tablesCount)
	totalRelativeSize := 0.0
	for i := range relativeSizes {
		relativeSizes[i] = pareto(rng, 1.0, tableSizeParetoShape) - 1.0
		totalRelativeSize += relativeSizes[i]
	}
	ratio := totalTargetSize / totalRelativeSize

	tables := make([]Table, tablesCount)
	for i, relSize := range relativeSizes {
		tables[i] = genTable(dialect, rng, relSize*ratio)
	}
	return tables
}

// ToHumanSize formats a byte count using binary (KiB/MiB/GiB/TiB) units,
// matching the thresholds schemagen_cli.rs's to_human_size uses.
func ToHumanSize(s float64) string {
	switch {
	case s < 1_043_333.12:
		return fmt.Sprintf("%.2f KiB", s/1024.0)
	case s < 1_068_373_114.88:
		return fmt.Sprintf("%.2f MiB", s/1_048_576.0)
	case s < 1_094_014_069_637.12:
		return fmt.Sprintf("%.2f GiB", s/1_073_741_824.0)
	default:
		return fmt.Sprintf("%.2f TiB", s/1_099_511_627_776.0)
	}
}

// ScriptOptions configures PrintScript's emitted shell script.
type ScriptOptions struct {
	SchemaName    string
	Size          float64
	TablesCount   int
	Dialect       Dialect
	InsertsCount  uint64
	RowsCount     uint64
	Seed          int64
	ExtraArgs     []string
	DbgenExeName  string
	VersionString string
}

// PrintScript writes a POSIX shell script that creates opts.SchemaName
// and, for each synthesized table, pipes its CREATE TABLE schema (with
// embedded dbgen column expressions) into a dbgen invocation sized to
// hit the table's share of opts.Size. It mirrors schemagen_cli.rs's
// print_script line for line, replacing Rust's shlex/clap glue with
// Go string quoting.
func PrintScript(w io.Writer, opts ScriptOptions) error {
	metaSeed := opts.Seed
	rng := rand.New(rand.NewSource(metaSeed))

	quotedSchemaName := shellQuote(opts.SchemaName)
	uniqueSchemaName := opts.SchemaName

	fmt.Fprintf(w, "#!/bin/sh\n# generated by dbschemagen %s, using seed %d\n\nset -eu\necho 'CREATE SCHEMA '%s';' > %s-schema-create.sql\n\n",
		opts.VersionString, metaSeed, quotedSchemaName, uniqueSchemaName)

	exeName := opts.DbgenExeName
	if exeName == "" {
		exeName = "dbgen"
	}

	extraArgs := make([]string, len(opts.ExtraArgs))
	for i, a := range opts.ExtraArgs {
		extraArgs[i] = shellQuote(a)
	}
	extraArgsStr := strings.Join(extraArgs, " ")

	rowsCountPerFile := opts.RowsCount * opts.InsertsCount
	tables := genTables(opts.Dialect, rng, opts.Size, opts.TablesCount)
	for i, table := range tables {
		fmt.Fprintf(w, "# table: s%d, rows count: %d, estimated size: %s\n%s -i - -o . -s %d -t %s.s%d -R %d -r %d -N %d %s <<SCHEMAEOF\n%s\nSCHEMAEOF\n\n",
			i, table.RowsCount, ToHumanSize(table.TargetSize),
			exeName, table.Seed, quotedSchemaName, i, rowsCountPerFile, opts.RowsCount, table.RowsCount,
			extraArgsStr, table.Schema)
	}
	return nil
}

// shellQuote produces a POSIX sh single-quoted token, matching what
// shlex::try_quote does for the ordinary identifiers/paths a schema
// name or extra dbgen argument holds.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
