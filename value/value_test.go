package value_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ghazalfamilyusa/dbgen/value"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	testCases := []struct {
		val value.Value
		str string
	}{
		{value.Null, "NULL"},
		{value.MakeBytes([]byte("abc")), "abc"},
		{value.MakeInt64(123), "123"},
		{value.MakeFloat(123.456), "123.456"},
		{value.MakeTimestamp(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)), "2019-01-01 00:00:00"},
		{value.MakeInterval(time.Hour), "1h0m0s"},
		{value.MakeArray([]value.Value{value.MakeInt64(1), value.MakeInt64(2)}), "[1, 2]"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.str, tc.val.String())
	}
}

func TestMakeNumericFromLiteral(t *testing.T) {
	testCases := []struct {
		lit string
		val value.Value
	}{
		{"123", value.MakeInt64(123)},
		{"123.456", value.MakeFloat(123.456)},
		{"123.456e7", value.MakeFloat(123.456e7)},
	}

	for _, tc := range testCases {
		val, err := value.MakeNumberFromLiteral(tc.lit)
		require.NoError(t, err)
		require.Equal(t, tc.val, val)
	}
}

func TestMakeNumberFromLiteralOverflow(t *testing.T) {
	_, err := value.MakeNumberFromLiteral("123456789012345678901234567890123456789012345678901234567890")
	require.Error(t, err)
	var overflow *value.IntegerOverflowError
	require.ErrorAs(t, err, &overflow)
}

func TestIsSQLTrue(t *testing.T) {
	truth, err := value.IsSQLTrue(value.MakeInt64(1))
	require.NoError(t, err)
	require.True(t, truth)

	truth, err = value.IsSQLTrue(value.MakeInt64(0))
	require.NoError(t, err)
	require.False(t, truth)

	truth, err = value.IsSQLTrue(value.Null)
	require.NoError(t, err)
	require.False(t, truth)

	_, err = value.IsSQLTrue(value.MakeBytes([]byte("x")))
	require.Error(t, err)
}

func TestConcat(t *testing.T) {
	v, err := value.Concat([]value.Value{value.MakeBytes([]byte("a")), value.Null, value.MakeBytes([]byte("b"))})
	require.NoError(t, err)
	require.Equal(t, value.Null, v)

	v, err = value.Concat([]value.Value{value.MakeBytes([]byte("a")), value.MakeInt64(1), value.MakeBytes([]byte("b"))})
	require.NoError(t, err)
	b, err := value.AsBytes(v)
	require.NoError(t, err)
	require.Equal(t, "a1b", string(b))
}

func TestModSign(t *testing.T) {
	v, err := value.Mod(value.MakeInt64(7), value.MakeInt64(-2))
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(1), v)

	v, err = value.Mod(value.MakeInt64(7), value.MakeInt64(-1))
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(0), v)
}

func TestDivTruncation(t *testing.T) {
	v, err := value.Div(value.MakeInt64(7), value.MakeInt64(-2))
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(-3), v)
}

func TestCmpNullPropagation(t *testing.T) {
	values := []value.Value{
		value.Null,
		value.MakeInt64(1),
		value.MakeFloat(2.5),
		value.MakeBytes([]byte("abc")),
		value.MakeTimestamp(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
		value.MakeInterval(time.Second),
		value.MakeArray([]value.Value{value.MakeInt64(1)}),
	}
	for _, v := range values {
		_, isNull, err := value.Cmp(v, value.Null)
		require.NoError(t, err)
		require.True(t, isNull)

		_, isNull, err = value.Cmp(value.Null, v)
		require.NoError(t, err)
		require.True(t, isNull)
	}
}

func TestCmpCrossTypeError(t *testing.T) {
	_, _, err := value.Cmp(value.MakeInt64(1), value.MakeBytes([]byte("1")))
	require.Error(t, err)
	var cmpErr *value.CompareError
	require.ErrorAs(t, err, &cmpErr)

	_, _, err = value.Cmp(value.MakeTimestamp(time.Now().UTC()), value.MakeInterval(time.Second))
	require.Error(t, err)
}

func TestCmpNumeric(t *testing.T) {
	cmp, isNull, err := value.Cmp(value.MakeInt64(1), value.MakeFloat(1.5))
	require.NoError(t, err)
	require.False(t, isNull)
	require.Equal(t, -1, cmp)

	cmp, _, err = value.Cmp(value.MakeInt64(2), value.MakeFloat(2.0))
	require.NoError(t, err)
	require.Equal(t, 0, cmp)
}

func TestCmpArrays(t *testing.T) {
	a := value.MakeArray([]value.Value{value.MakeInt64(1), value.MakeInt64(2)})
	b := value.MakeArray([]value.Value{value.MakeInt64(1), value.MakeInt64(3)})
	cmp, isNull, err := value.Cmp(a, b)
	require.NoError(t, err)
	require.False(t, isNull)
	require.Equal(t, -1, cmp)

	// Missing trailing elements compare shorter-first.
	short := value.MakeArray([]value.Value{value.MakeInt64(1)})
	cmp, _, err = value.Cmp(short, a)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestArithmeticCommutativity(t *testing.T) {
	pairs := [][2]value.Value{
		{value.MakeInt64(3), value.MakeInt64(-7)},
		{value.MakeInt64(1 << 62), value.MakeInt64(1 << 62)},
		{value.MakeFloat(1.5), value.MakeInt64(2)},
		{value.MakeFloat(0.1), value.MakeFloat(0.2)},
	}
	for _, p := range pairs {
		ab, err := value.Add(p[0], p[1])
		require.NoError(t, err)
		ba, err := value.Add(p[1], p[0])
		require.NoError(t, err)
		require.Equal(t, ab, ba)

		ab, err = value.Mul(p[0], p[1])
		require.NoError(t, err)
		ba, err = value.Mul(p[1], p[0])
		require.NoError(t, err)
		require.Equal(t, ab, ba)
	}
}

func TestNegInvolution(t *testing.T) {
	values := []value.Value{
		value.MakeInt64(42),
		value.MakeInt64(-42),
		value.MakeFloat(1.25),
		value.MakeInterval(3 * time.Second),
	}
	for _, v := range values {
		neg, err := value.Neg(v)
		require.NoError(t, err)
		back, err := value.Neg(neg)
		require.NoError(t, err)
		require.Equal(t, v, back)
	}

	_, err := value.Neg(value.MakeBytes([]byte("x")))
	require.Error(t, err)
}

func TestNullArithmetic(t *testing.T) {
	one := value.MakeInt64(1)
	for _, op := range []func(value.Value, value.Value) (value.Value, error){
		value.Add, value.Sub, value.Mul, value.Div, value.FloatDiv, value.Mod,
	} {
		v, err := op(one, value.Null)
		require.NoError(t, err)
		require.Equal(t, value.Null, v)

		v, err = op(value.Null, one)
		require.NoError(t, err)
		require.Equal(t, value.Null, v)
	}
}

func TestDivideByZeroYieldsNull(t *testing.T) {
	zero := value.MakeInt64(0)
	one := value.MakeInt64(1)

	v, err := value.FloatDiv(one, zero)
	require.NoError(t, err)
	require.Equal(t, value.Null, v)

	v, err = value.Div(one, zero)
	require.NoError(t, err)
	require.Equal(t, value.Null, v)

	v, err = value.Mod(one, zero)
	require.NoError(t, err)
	require.Equal(t, value.Null, v)
}

func TestTimestampArithmetic(t *testing.T) {
	ts := value.MakeTimestamp(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	hour := value.MakeInterval(time.Hour)

	sum, err := value.Add(ts, hour)
	require.NoError(t, err)
	got, err := value.AsTimestamp(sum)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC), got)

	sum2, err := value.Add(hour, ts)
	require.NoError(t, err)
	require.Equal(t, sum, sum2)

	diff, err := value.Sub(sum, ts)
	require.NoError(t, err)
	d, err := value.AsInterval(diff)
	require.NoError(t, err)
	require.Equal(t, time.Hour, d)
}

func TestIntervalArithmetic(t *testing.T) {
	two := value.MakeInterval(2 * time.Second)
	three := value.MakeInterval(3 * time.Second)

	sum, err := value.Add(two, three)
	require.NoError(t, err)
	require.Equal(t, value.MakeInterval(5*time.Second), sum)

	scaled, err := value.Mul(two, value.MakeInt64(3))
	require.NoError(t, err)
	require.Equal(t, value.MakeInterval(6*time.Second), scaled)

	ratio, err := value.FloatDiv(three, two)
	require.NoError(t, err)
	require.Equal(t, value.MakeFloat(1.5), ratio)

	quot, err := value.Div(three, two)
	require.NoError(t, err)
	require.Equal(t, value.MakeInt64(1), quot)

	rem, err := value.Mod(three, two)
	require.NoError(t, err)
	require.Equal(t, value.MakeInterval(time.Second), rem)

	rem, err = value.Mod(three, value.MakeInterval(0))
	require.NoError(t, err)
	require.Equal(t, value.Null, rem)

	rem, err = value.Mod(three, value.MakeInterval(-time.Microsecond))
	require.NoError(t, err)
	require.Equal(t, value.MakeInterval(0), rem)
}

func TestConcatInterval(t *testing.T) {
	v, err := value.Concat([]value.Value{value.MakeInterval(time.Hour)})
	require.NoError(t, err)
	b, err := value.AsBytes(v)
	require.NoError(t, err)
	require.Equal(t, "INTERVAL 3600000000 MICROSECOND", string(b))
}

func TestConcatIntegerRoundTrip(t *testing.T) {
	for _, i := range []int64{0, 1, -1, 123456789, -987654321} {
		v, err := value.Concat([]value.Value{value.MakeInt64(i)})
		require.NoError(t, err)
		b, err := value.AsBytes(v)
		require.NoError(t, err)
		parsed, err := value.MakeNumberFromLiteral(string(b))
		require.NoError(t, err)
		require.Equal(t, value.MakeInt64(i), parsed)
	}
}

func TestSign(t *testing.T) {
	require.Equal(t, 0, value.Sign(value.Null))
	require.Equal(t, 1, value.Sign(value.MakeInt64(5)))
	require.Equal(t, -1, value.Sign(value.MakeInt64(-5)))
	require.Equal(t, 0, value.Sign(value.MakeInt64(0)))
	require.Equal(t, 1, value.Sign(value.MakeBytes([]byte("x"))))
	require.Equal(t, 0, value.Sign(value.MakeBytes(nil)))
	require.Equal(t, 1, value.Sign(value.MakeTimestamp(time.Now().UTC())))
	require.Equal(t, -1, value.Sign(value.MakeInterval(-time.Second)))
}

func TestIntegerOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 127) // 2^127, one past the signed max
	_, err := value.MakeInt(huge)
	var overflow *value.IntegerOverflowError
	require.ErrorAs(t, err, &overflow)

	max, err := value.MakeInt(new(big.Int).Sub(huge, big.NewInt(1)))
	require.NoError(t, err)
	_, err = value.Add(max, value.MakeInt64(1))
	require.ErrorAs(t, err, &overflow)
}
