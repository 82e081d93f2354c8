package dbgen_test

import (
	"math/rand"
	"testing"

	"github.com/ghazalfamilyusa/dbgen"
	"github.com/ghazalfamilyusa/dbgen/template"
	"github.com/ghazalfamilyusa/dbgen/value"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	testCases := []struct {
		input  string
		result value.Value
	}{
		{
			"generate_series(1, 5, 2)",
			value.MakeArray([]value.Value{
				value.MakeInt64(1),
				value.MakeInt64(3),
				value.MakeInt64(5),
			}),
		},
		{"greatest(1, NULL, 3)", value.MakeInt64(3)},
		{"greatest(NULL, NULL)", value.Null},
		{"round(2.5, 0)", value.MakeFloat(3)},
		{"round(-2.5, 0)", value.MakeFloat(-3)},
		{"round(1.2345, 2)", value.MakeFloat(1.23)},
		{"div(7, -2)", value.MakeInt64(-3)},
		{"mod(7, -2)", value.MakeInt64(1)},
		{"coalesce(NULL, NULL, 'x', 1)", value.MakeBytes([]byte("x"))},
		{"'a' || NULL || 'b'", value.Null},
		{"'a' || 1 || 'b'", value.MakeBytes([]byte("a1b"))},
		{"1 + 2 * 3", value.MakeInt64(7)},
		{"1 < 2 AND 3 < 4", value.MakeInt64(1)},
		{"NULL OR 1", value.MakeInt64(1)},
		{"NULL OR 0", value.Null},
		{"NULL AND 0", value.MakeInt64(0)},
		{"CASE 2 WHEN 1 THEN 'a' WHEN 2 THEN 'b' ELSE 'c' END", value.MakeBytes([]byte("b"))},
		{"CASE WHEN 0 THEN 'a' WHEN 1 THEN 'b' ELSE 'c' END", value.MakeBytes([]byte("b"))},
		{"CASE WHEN 0 THEN 'a' END", value.Null},
		{"1; 2; 3", value.MakeInt64(3)},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			expr, err := template.ParseExpr(tc.input)
			require.NoError(t, err)
			ctx := dbgen.NewCompileContext()
			compiled, err := ctx.CompileExpr(expr)
			require.NoError(t, err)
			result, err := compiled.Eval(&dbgen.State{})
			require.NoError(t, err)
			require.Equal(t, tc.result, result)
		})
	}
}

func TestEvalConstantFolding(t *testing.T) {
	expr, err := template.ParseExpr("1 + 2 * 3")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileExpr(expr)
	require.NoError(t, err)
	require.True(t, dbgen.IsConstant(compiled))
}

func TestEvalRandNotFolded(t *testing.T) {
	// rand.range has two constant arguments, but folding it would freeze
	// a single draw for every row.
	expr, err := template.ParseExpr("rand.range(0, 1000000)")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileExpr(expr)
	require.NoError(t, err)
	require.False(t, dbgen.IsConstant(compiled))
}

func TestEvalVariables(t *testing.T) {
	expr, err := template.ParseExpr("@x := 7; @x * 2")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileExpr(expr)
	require.NoError(t, err)

	state := dbgen.NewState(ctx, rand.New(rand.NewSource(1)))
	result, err := compiled.Eval(state)
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(14), result)
}

func TestEvalRowNum(t *testing.T) {
	expr, err := template.ParseExpr("rownum * 10")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileExpr(expr)
	require.NoError(t, err)

	state := dbgen.NewState(ctx, rand.New(rand.NewSource(1)))
	for _, rowNum := range []int64{1, 2, 5} {
		state.RowNum = rowNum
		result, err := compiled.Eval(state)
		require.NoError(t, err)
		require.Equal(t, value.MakeInt64(rowNum*10), result)
	}
}

func TestEvalDeterminism(t *testing.T) {
	expr, err := template.ParseExpr("rand.range_inclusive(0, 1000000) || '-' || rand.regex('[a-z]{8}')")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileExpr(expr)
	require.NoError(t, err)

	evalSeq := func(seed int64) []value.Value {
		state := dbgen.NewState(ctx, rand.New(rand.NewSource(seed)))
		results := make([]value.Value, 0, 10)
		for i := 1; i <= 10; i++ {
			state.RowNum = int64(i)
			v, err := compiled.Eval(state)
			require.NoError(t, err)
			results = append(results, v)
		}
		return results
	}

	require.Equal(t, evalSeq(42), evalSeq(42))
	require.NotEqual(t, evalSeq(42), evalSeq(43))
}

func TestEvalUnknownFunction(t *testing.T) {
	expr, err := template.ParseExpr("no.such.function(1)")
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	_, err = ctx.CompileExpr(expr)
	require.Error(t, err)
}

func TestCompileTemplate(t *testing.T) {
	src := `CREATE TABLE "result" (
	"id" BIGINT NOT NULL {{ rownum }},
	"name" VARCHAR(40) NOT NULL {{ rand.regex('[a-zA-Z]{40}') }}
);`
	tmpl, err := template.Parse(src)
	require.NoError(t, err)
	ctx := dbgen.NewCompileContext()
	compiled, err := ctx.CompileTemplate(tmpl)
	require.NoError(t, err)
	require.Len(t, compiled.Tables, 1)
	require.Len(t, compiled.Tables[0].Row, 2)

	state := dbgen.NewState(ctx, rand.New(rand.NewSource(7)))
	state.RowNum = 3
	row, err := compiled.Tables[0].Row.Eval(state)
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(3), row[0])
	name, err := value.AsBytes(row[1])
	require.NoError(t, err)
	require.Len(t, name, 40)
}
