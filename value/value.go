// Package value implements the scalar value model shared by the
// expression compiler and the row evaluator: a six-variant tagged union
// (Null, Number, Bytes, Timestamp, Interval, Array) plus the SQL-flavored
// comparison and arithmetic semantics used to evaluate compiled
// expressions against generated rows.
package value

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// Kind specifies the kind of value represented by a Value.
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind int

const (
	KindNull Kind = iota
	KindBytes
	KindInt
	KindUint
	KindFloat
	KindTimestamp
	KindInterval
	KindArray
)

// Value is a scalar value flowing through a compiled row expression.
// There is no boolean variant: SQL truth values are represented as the
// number 0 (false) or 1 (true), matching is_sql_true below.
type Value interface {
	Kind() Kind
	String() string
}

var Null Value = nullVal{}

type (
	nullVal      struct{}
	bytesVal     []byte
	intVal       struct{ val *big.Int } // arbitrary-precision signed integer, range-checked to 128 bits at construction
	int64Val     int64
	uintVal      struct{ val *big.Int } // arbitrary-precision unsigned integer, range-checked to 128 bits at construction
	floatVal     float64                // always finite; NaN/Inf never observable as a Value
	timestampVal struct{ val time.Time }
	intervalVal  struct{ us int64 } // signed count of microseconds; wider than time.Duration's nanosecond range
	arrayVal     []Value
)

// Int128Bits is the bit width enforced for the signed/unsigned integer
// tower. Literals and arithmetic results outside this range produce an
// IntegerOverflowError.
const Int128Bits = 128

var (
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), Int128Bits-1))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Int128Bits-1), big.NewInt(1))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Int128Bits), big.NewInt(1))
)

func (nullVal) Kind() Kind      { return KindNull }
func (bytesVal) Kind() Kind     { return KindBytes }
func (intVal) Kind() Kind       { return KindInt }
func (int64Val) Kind() Kind     { return KindInt }
func (uintVal) Kind() Kind      { return KindUint }
func (floatVal) Kind() Kind     { return KindFloat }
func (timestampVal) Kind() Kind { return KindTimestamp }
func (intervalVal) Kind() Kind  { return KindInterval }
func (arrayVal) Kind() Kind     { return KindArray }

func (nullVal) String() string {
	return "NULL"
}

func (b bytesVal) String() string {
	return string(b)
}

func (i int64Val) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i intVal) String() string {
	return i.val.String()
}

func (u uintVal) String() string {
	return u.val.String()
}

func (f floatVal) String() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func (t timestampVal) String() string {
	return t.val.Format("2006-01-02 15:04:05.999")
}

func (i intervalVal) String() string {
	if i.us >= math.MinInt64/1000 && i.us <= math.MaxInt64/1000 {
		return (time.Duration(i.us) * time.Microsecond).String()
	}
	return fmt.Sprintf("INTERVAL %d MICROSECOND", i.us)
}

func (a arrayVal) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}

// IntegerOverflowError reports that an integer literal or arithmetic
// result does not fit the 128-bit signed/unsigned integer tower.
type IntegerOverflowError struct {
	Context string
}

func (e *IntegerOverflowError) Error() string {
	return fmt.Sprintf("integer overflow: %s does not fit in %d bits", e.Context, Int128Bits)
}

func MakeBytes(b []byte) Value {
	return bytesVal(b)
}

func MakeInt64(i int64) Value {
	return int64Val(i)
}

// MakeInt makes a signed-integer value, range-checking it against the
// 128-bit tower.
func MakeInt(i *big.Int) (Value, error) {
	if i.IsInt64() {
		return int64Val(i.Int64()), nil
	}
	if i.Cmp(minInt128) < 0 || i.Cmp(maxInt128) > 0 {
		return nil, &IntegerOverflowError{Context: i.String()}
	}
	return intVal{new(big.Int).Set(i)}, nil
}

// MakeUint makes an unsigned-integer value, range-checking it against the
// 128-bit tower.
func MakeUint(i *big.Int) (Value, error) {
	if i.Sign() < 0 || i.Cmp(maxUint128) > 0 {
		return nil, &IntegerOverflowError{Context: i.String()}
	}
	return uintVal{new(big.Int).Set(i)}, nil
}

// MakeFloat makes a finite floating-point value. NaN or infinite inputs
// degrade to Null, matching the numeric tower's "NaN collapses to
// unknown" promotion rule instead of ever surfacing a non-finite Value.
func MakeFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return floatVal(f)
}

func MakeTimestamp(t time.Time) Value {
	return timestampVal{t}
}

func MakeInterval(d time.Duration) Value {
	return intervalVal{d.Microseconds()}
}

// MakeIntervalMicros makes an interval value directly from a signed
// microsecond count. Unlike MakeInterval, the full int64 microsecond
// range is representable, beyond what time.Duration can hold.
func MakeIntervalMicros(us int64) Value {
	return intervalVal{us}
}

func MakeArray(a []Value) Value {
	if len(a) == 0 {
		return arrayVal(nil)
	}
	return arrayVal(a)
}

// MakeNumberFromLiteral makes a numeric value from a string literal.
// The string literal may be a decimal integer, a hexadecimal integer, or
// a floating-point number. Integer literals that overflow the 128-bit
// signed tower are reported as an IntegerOverflowError.
func MakeNumberFromLiteral(s string) (Value, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return MakeInt64(i), nil
	}

	bi := new(big.Int)
	if _, ok := bi.SetString(s, 0); ok {
		return MakeInt(bi)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return MakeFloat(f), nil
}

type ConvertError struct {
	From Value
	To   string
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("cannot convert %s(%s) to %s", e.From.Kind(), e.From.String(), e.To)
}

func AsBytes(v Value) ([]byte, error) {
	switch v := v.(type) {
	case bytesVal:
		return v, nil
	default:
		return nil, &ConvertError{v, "[]byte"}
	}
}

// IsInt64 reports whether v can be represented as a signed int64.
func IsInt64(v Value) bool {
	switch v := v.(type) {
	case intVal:
		return v.val.IsInt64()
	case int64Val:
		return true
	default:
		return false
	}
}

func AsInt64(v Value) (int64, error) {
	switch v := v.(type) {
	case intVal:
		if !v.val.IsInt64() {
			return 0, &ConvertError{v, "int64"}
		}
		return v.val.Int64(), nil
	case int64Val:
		return int64(v), nil
	default:
		return 0, &ConvertError{v, "int64"}
	}
}

// AsInt returns the value's signed-integer representation, converting
// unsigned-integer values that fit the signed range too.
func AsInt(v Value) (*big.Int, error) {
	switch v := v.(type) {
	case intVal:
		return v.val, nil
	case int64Val:
		return big.NewInt(int64(v)), nil
	case uintVal:
		return v.val, nil
	default:
		return nil, &ConvertError{v, "*big.Int"}
	}
}

func AsFloat(v Value) (float64, error) {
	switch v := v.(type) {
	case floatVal:
		return float64(v), nil
	case intVal:
		f, _ := new(big.Float).SetInt(v.val).Float64()
		return f, nil
	case int64Val:
		return float64(v), nil
	case uintVal:
		f, _ := new(big.Float).SetInt(v.val).Float64()
		return f, nil
	default:
		return 0, &ConvertError{v, "float64"}
	}
}

func AsTimestamp(v Value) (time.Time, error) {
	switch v := v.(type) {
	case timestampVal:
		return v.val, nil
	default:
		return time.Time{}, &ConvertError{v, "time.Time"}
	}
}

// AsInterval returns the interval as a time.Duration. Intervals beyond
// the +/-292 year Duration range saturate; use AsIntervalMicros when the
// full range matters.
func AsInterval(v Value) (time.Duration, error) {
	us, err := AsIntervalMicros(v)
	if err != nil {
		return 0, err
	}
	switch {
	case us > math.MaxInt64/1000:
		return time.Duration(math.MaxInt64), nil
	case us < math.MinInt64/1000:
		return time.Duration(math.MinInt64), nil
	}
	return time.Duration(us) * time.Microsecond, nil
}

func AsIntervalMicros(v Value) (int64, error) {
	switch v := v.(type) {
	case intervalVal:
		return v.us, nil
	default:
		return 0, &ConvertError{v, "interval"}
	}
}

func AsArray(v Value) ([]Value, error) {
	switch v := v.(type) {
	case arrayVal:
		return v, nil
	default:
		return nil, &ConvertError{v, "[]Value"}
	}
}

// Sign compares v against the zero value of its own kind (sql_sign):
// Null compares equal, numbers/intervals compare by value, and
// bytes/arrays compare empty-vs-nonempty. Timestamps are always
// "greater than zero".
func Sign(v Value) int {
	switch v := v.(type) {
	case nullVal:
		return 0
	case intVal:
		return v.val.Sign()
	case int64Val:
		return numberCmp(v, 0)
	case uintVal:
		return v.val.Sign()
	case floatVal:
		return numberCmp(v, 0)
	case intervalVal:
		return numberCmp(v.us, 0)
	case bytesVal:
		if len(v) == 0 {
			return 0
		}
		return 1
	case arrayVal:
		if len(v) == 0 {
			return 0
		}
		return 1
	default:
		return 1
	}
}

// IsSQLTrue reports whether v is truthy in the SQL sense used by WHEN
// clauses and the logical operators: every nonzero number is true, NULL
// is false, and every other kind is an error (undefined truth value).
func IsSQLTrue(v Value) (bool, error) {
	switch v.(type) {
	case nullVal:
		return false, nil
	case intVal, int64Val, uintVal, floatVal:
		return Sign(v) != 0, nil
	default:
		return false, fmt.Errorf("truth value of %s(%s) is undefined", v.Kind(), v.String())
	}
}

type CompareError struct {
	Left, Right Value
}

func (e *CompareError) Error() string {
	return fmt.Sprintf("cannot compare %s(%s) with %s(%s)", e.Left.Kind(), e.Left.String(), e.Right.Kind(), e.Right.String())
}

func Cmp(a, b Value) (_ int, isNull bool, retErr error) {
	if a == Null || b == Null {
		return 0, true, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*CompareError); !ok {
				retErr = &CompareError{a, b}
			}
		}
	}()

	switch a := a.(type) {
	case bytesVal:
		b, err := AsBytes(b)
		if err != nil {
			return 0, false, err
		}
		return bytes.Compare(a, b), false, nil
	case intVal:
		switch b.Kind() {
		case KindInt, KindUint:
			b, err := AsInt(b)
			if err != nil {
				return 0, false, err
			}
			return a.val.Cmp(b), false, nil
		case KindFloat:
			a1, _ := new(big.Float).SetInt(a.val).Float64()
			b, err := AsFloat(b)
			if err != nil {
				return 0, false, err
			}
			return numberCmp(a1, b), false, nil
		}
	case int64Val:
		if IsInt64(b) {
			b, err := AsInt64(b)
			if err != nil {
				return 0, false, err
			}
			return numberCmp(int64(a), b), false, nil
		}
		switch b.Kind() {
		case KindInt, KindUint:
			a1 := big.NewInt(int64(a))
			b, err := AsInt(b)
			if err != nil {
				return 0, false, err
			}
			return a1.Cmp(b), false, nil
		case KindFloat:
			b, err := AsFloat(b)
			if err != nil {
				return 0, false, err
			}
			return numberCmp(float64(a), b), false, nil
		}
	case uintVal:
		switch b.Kind() {
		case KindInt, KindUint:
			b, err := AsInt(b)
			if err != nil {
				return 0, false, err
			}
			return a.val.Cmp(b), false, nil
		case KindFloat:
			a1, _ := new(big.Float).SetInt(a.val).Float64()
			b, err := AsFloat(b)
			if err != nil {
				return 0, false, err
			}
			return numberCmp(a1, b), false, nil
		}
	case floatVal:
		b, err := AsFloat(b)
		if err != nil {
			return 0, false, err
		}
		return numberCmp(float64(a), b), false, nil
	case timestampVal:
		b, err := AsTimestamp(b)
		if err != nil {
			return 0, false, err
		}
		return a.val.Compare(b), false, nil
	case intervalVal:
		b, err := AsIntervalMicros(b)
		if err != nil {
			return 0, false, err
		}
		return numberCmp(a.us, b), false, nil
	case arrayVal:
		b, err := AsArray(b)
		if err != nil {
			return 0, false, err
		}
		l := len(a)
		if len(b) < l {
			l = len(b)
		}
		for i := 0; i < l; i++ {
			if r, isNull, err := Cmp(a[i], b[i]); err != nil || isNull {
				return 0, isNull, err
			} else if r != 0 {
				return r, false, nil
			}
		}
		return numberCmp(len(a), len(b)), false, nil
	}
	return 0, false, &CompareError{a, b}
}

func numberCmp[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type BinaryOpError struct {
	Op    string
	Left  Value
	Right Value
	Cause error
}

func (e *BinaryOpError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot perform %s on %s(%s) and %s(%s): %v", e.Op, e.Left.Kind(), e.Left.String(), e.Right.Kind(), e.Right.String(), e.Cause)
	}
	return fmt.Sprintf("cannot perform %s on %s(%s) and %s(%s)", e.Op, e.Left.Kind(), e.Left.String(), e.Right.Kind(), e.Right.String())
}

func (e *BinaryOpError) Unwrap() error {
	return e.Cause
}

func MakeBinaryOpError(op string, left, right Value, cause error) error {
	return &BinaryOpError{op, left, right, cause}
}

func Add(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("add", a, b, retErr)
			}
		}
	}()

	switch a := a.(type) {
	case timestampVal:
		b, err := AsIntervalMicros(b)
		if err != nil {
			return nil, err
		}
		t, err := timestampAddMicros(a.val, b)
		if err != nil {
			return nil, err
		}
		return timestampVal{t}, nil
	case intervalVal:
		if t, ok := b.(timestampVal); ok {
			t2, err := timestampAddMicros(t.val, a.us)
			if err != nil {
				return nil, err
			}
			return timestampVal{t2}, nil
		}
		b, err := AsIntervalMicros(b)
		if err != nil {
			return nil, err
		}
		sum, ok := addInt64(a.us, b)
		if !ok {
			return nil, &IntegerOverflowError{Context: fmt.Sprintf("%dus + %dus", a.us, b)}
		}
		return intervalVal{sum}, nil
	}

	if isNumberKind(a) && isNumberKind(b) {
		return numberArith(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) }, func(x, y float64) float64 { return x + y })
	}
	return nil, MakeBinaryOpError("add", a, b, nil)
}

func Sub(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("sub", a, b, retErr)
			}
		}
	}()

	switch a := a.(type) {
	case timestampVal:
		if t, ok := b.(timestampVal); ok {
			us, err := timestampDiffMicros(a.val, t.val)
			if err != nil {
				return nil, err
			}
			return intervalVal{us}, nil
		}
		b, err := AsIntervalMicros(b)
		if err != nil {
			return nil, err
		}
		if b == math.MinInt64 {
			return nil, &IntegerOverflowError{Context: fmt.Sprintf("- %dus", b)}
		}
		t, err := timestampAddMicros(a.val, -b)
		if err != nil {
			return nil, err
		}
		return timestampVal{t}, nil
	case intervalVal:
		b, err := AsIntervalMicros(b)
		if err != nil {
			return nil, err
		}
		diff, ok := subInt64(a.us, b)
		if !ok {
			return nil, &IntegerOverflowError{Context: fmt.Sprintf("%dus - %dus", a.us, b)}
		}
		return intervalVal{diff}, nil
	}

	if isNumberKind(a) && isNumberKind(b) {
		return numberArith(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) }, func(x, y float64) float64 { return x - y })
	}
	return nil, MakeBinaryOpError("sub", a, b, nil)
}

func Mul(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("mul", a, b, retErr)
			}
		}
	}()

	if iv, ok := a.(intervalVal); ok {
		return scaleInterval(iv, b)
	}
	if iv, ok := b.(intervalVal); ok {
		return scaleInterval(iv, a)
	}

	if isNumberKind(a) && isNumberKind(b) {
		return numberArith(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) }, func(x, y float64) float64 { return x * y })
	}
	return nil, MakeBinaryOpError("mul", a, b, nil)
}

func Div(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("div", a, b, retErr)
			}
		}
	}()

	if ai, ok := a.(intervalVal); ok {
		bi, ok := b.(intervalVal)
		if !ok {
			return nil, MakeBinaryOpError("div", a, b, nil)
		}
		if bi.us == 0 {
			return Null, nil
		}
		return MakeInt64(ai.us / bi.us), nil
	}
	if !isNumberKind(a) || !isNumberKind(b) {
		return nil, MakeBinaryOpError("div", a, b, nil)
	}
	if a.Kind() != KindFloat && b.Kind() != KindFloat {
		ai, err := AsInt(a)
		if err != nil {
			return nil, err
		}
		bi, err := AsInt(b)
		if err != nil {
			return nil, err
		}
		if bi.Sign() == 0 {
			return Null, nil
		}
		return MakeInt(euclideanDiv(ai, bi))
	}
	af, err := AsFloat(a)
	if err != nil {
		return nil, err
	}
	bf, err := AsFloat(b)
	if err != nil {
		return nil, err
	}
	if bf == 0 {
		return Null, nil
	}
	return MakeFloat(math.Trunc(af / bf)), nil
}

// euclideanDiv implements SQL-style truncating integer division
// ("div(a, b)" rounds toward zero), matching the original function's
// definition via big.Int.Quo.
func euclideanDiv(a, b *big.Int) *big.Int {
	return new(big.Int).Quo(a, b)
}

func FloatDiv(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("float_div", a, b, retErr)
			}
		}
	}()

	switch a.Kind() {
	case KindInt, KindUint, KindFloat:
		a1, err := AsFloat(a)
		if err != nil {
			return nil, err
		}
		b1, err := AsFloat(b)
		if err != nil {
			return nil, err
		}
		if b1 == 0 {
			return Null, nil
		}
		return MakeFloat(a1 / b1), nil
	case KindInterval:
		a1, err := AsIntervalMicros(a)
		if err != nil {
			return nil, err
		}
		if iv, ok := b.(intervalVal); ok {
			if iv.us == 0 {
				return Null, nil
			}
			return MakeFloat(float64(a1) / float64(iv.us)), nil
		}
		b1, err := AsFloat(b)
		if err != nil {
			return nil, err
		}
		if b1 == 0 {
			return Null, nil
		}
		return microsToInterval(float64(a1) / b1)
	}
	return nil, MakeBinaryOpError("float_div", a, b, nil)
}

// Mod computes the SQL mod(a, b) remainder. The sign of the result
// follows the dividend, matching Go's and big.Int's truncated-division
// remainder (mod(7, -2) == 1, mod(-7, 2) == -1). Dividing by -1 always
// yields 0, even for the minimum representable integer.
func Mod(a, b Value) (_ Value, retErr error) {
	if a == Null || b == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*BinaryOpError); !ok {
				retErr = MakeBinaryOpError("mod", a, b, retErr)
			}
		}
	}()

	if ai, ok := a.(intervalVal); ok {
		bi, ok := b.(intervalVal)
		if !ok {
			return nil, MakeBinaryOpError("mod", a, b, nil)
		}
		switch bi.us {
		case 0:
			return Null, nil
		case -1:
			return intervalVal{0}, nil
		}
		return intervalVal{ai.us % bi.us}, nil
	}
	if !isNumberKind(a) || !isNumberKind(b) {
		return nil, MakeBinaryOpError("mod", a, b, nil)
	}
	if a.Kind() != KindFloat && b.Kind() != KindFloat {
		ai, err := AsInt(a)
		if err != nil {
			return nil, err
		}
		bi, err := AsInt(b)
		if err != nil {
			return nil, err
		}
		if bi.Sign() == 0 {
			return Null, nil
		}
		if bi.CmpAbs(big.NewInt(1)) == 0 {
			return MakeInt64(0), nil
		}
		return MakeInt(new(big.Int).Rem(ai, bi))
	}
	af, err := AsFloat(a)
	if err != nil {
		return nil, err
	}
	bf, err := AsFloat(b)
	if err != nil {
		return nil, err
	}
	if bf == 0 {
		return Null, nil
	}
	return MakeFloat(math.Mod(af, bf)), nil
}

type UnaryOpError struct {
	Op    string
	Value Value
	Cause error
}

func (e *UnaryOpError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot perform %s on %s(%s): %s", e.Op, e.Value.Kind(), e.Value.String(), e.Cause)
	}
	return fmt.Sprintf("cannot perform %s on %s(%s)", e.Op, e.Value.Kind(), e.Value.String())
}

func MakeUnaryOpError(op string, val Value, cause error) error {
	return &UnaryOpError{op, val, cause}
}

func Neg(a Value) (_ Value, retErr error) {
	if a == Null {
		return Null, nil
	}

	defer func() {
		if retErr != nil {
			if _, ok := retErr.(*UnaryOpError); !ok {
				retErr = MakeUnaryOpError("neg", a, retErr)
			}
		}
	}()

	switch a := a.(type) {
	case intVal:
		return MakeInt(new(big.Int).Neg(a.val))
	case int64Val:
		if a == math.MinInt64 {
			return MakeInt(new(big.Int).Neg(big.NewInt(int64(a))))
		}
		return -a, nil
	case uintVal:
		return MakeInt(new(big.Int).Neg(a.val))
	case floatVal:
		return -a, nil
	case intervalVal:
		if a.us == math.MinInt64 {
			return nil, &IntegerOverflowError{Context: fmt.Sprintf("-%dus", a.us)}
		}
		return intervalVal{-a.us}, nil
	}
	return nil, MakeUnaryOpError("neg", a, nil)
}

// Concat renders every value as SQL text and concatenates the results.
// As soon as any operand is Null, the whole expression is Null. Arrays
// cannot be concatenated.
func Concat(values []Value) (Value, error) {
	var b bytes.Buffer
	for _, v := range values {
		switch v := v.(type) {
		case nullVal:
			return Null, nil
		case bytesVal:
			b.Write(v)
		case intervalVal:
			fmt.Fprintf(&b, "INTERVAL %d MICROSECOND", v.us)
		case arrayVal:
			return nil, fmt.Errorf("cannot concatenate arrays using || operator")
		default:
			b.WriteString(v.String())
		}
	}
	return MakeBytes(b.Bytes()), nil
}

func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func subInt64(a, b int64) (int64, bool) {
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return 0, false
	}
	return diff, true
}

// timestampAddMicros shifts a timestamp by a microsecond count wider
// than time.Duration can represent, going through Unix seconds so that
// multi-millennium intervals (e.g. the datetime column generator's
// 9000-year range) stay exact.
func timestampAddMicros(t time.Time, us int64) (time.Time, error) {
	secs, ok := addInt64(t.Unix(), us/1_000_000)
	if !ok {
		return time.Time{}, &IntegerOverflowError{Context: fmt.Sprintf("%s + %dus", t, us)}
	}
	nsec := int64(t.Nanosecond()) + us%1_000_000*1000
	return time.Unix(secs, nsec).UTC(), nil
}

func timestampDiffMicros(a, b time.Time) (int64, error) {
	overflow := &IntegerOverflowError{Context: fmt.Sprintf("%s - %s", a, b)}
	secs, ok := subInt64(a.Unix(), b.Unix())
	if !ok || secs > math.MaxInt64/1_000_000 || secs < math.MinInt64/1_000_000 {
		return 0, overflow
	}
	us, ok := addInt64(secs*1_000_000, int64(a.Nanosecond()-b.Nanosecond())/1000)
	if !ok {
		return 0, overflow
	}
	return us, nil
}

// scaleInterval multiplies an interval by a number: exactly for integer
// scales, in float64 for fractional ones. A non-finite result degrades
// to Null and an out-of-range one overflows, the same promotion rules
// the numeric tower applies.
func scaleInterval(iv intervalVal, scale Value) (Value, error) {
	if !isNumberKind(scale) {
		return nil, MakeBinaryOpError("mul", iv, scale, nil)
	}
	if scale.Kind() != KindFloat {
		m, err := AsInt(scale)
		if err != nil {
			return nil, err
		}
		r := new(big.Int).Mul(big.NewInt(iv.us), m)
		if !r.IsInt64() {
			return nil, &IntegerOverflowError{Context: fmt.Sprintf("%dus * %s", iv.us, m)}
		}
		return intervalVal{r.Int64()}, nil
	}
	f, err := AsFloat(scale)
	if err != nil {
		return nil, err
	}
	return microsToInterval(float64(iv.us) * f)
}

func microsToInterval(f float64) (Value, error) {
	if math.IsNaN(f) {
		return Null, nil
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return nil, &IntegerOverflowError{Context: fmt.Sprintf("%vus", f)}
	}
	return intervalVal{int64(f)}, nil
}

func isNumberKind(v Value) bool {
	switch v.Kind() {
	case KindInt, KindUint, KindFloat:
		return true
	}
	return false
}

// numberArith applies intOp when both operands are integral (promoting
// the narrower fast-path int64 representation through big.Int only when
// needed), or floatOp after promoting both operands to float64.
func numberArith(a, b Value, intOp func(x, y *big.Int) *big.Int, floatOp func(x, y float64) float64) (Value, error) {
	if a.Kind() == KindFloat || b.Kind() == KindFloat {
		af, err := AsFloat(a)
		if err != nil {
			return nil, err
		}
		bf, err := AsFloat(b)
		if err != nil {
			return nil, err
		}
		return MakeFloat(floatOp(af, bf)), nil
	}
	if a.Kind() == KindInt && IsInt64(a) && b.Kind() == KindInt && IsInt64(b) {
		ai, _ := AsInt64(a)
		bi, _ := AsInt64(b)
		r := intOp(big.NewInt(ai), big.NewInt(bi))
		return MakeInt(r)
	}
	ai, err := AsInt(a)
	if err != nil {
		return nil, err
	}
	bi, err := AsInt(b)
	if err != nil {
		return nil, err
	}
	r := intOp(ai, bi)
	if a.Kind() == KindUint && b.Kind() == KindUint {
		if u, err := MakeUint(r); err == nil {
			return u, nil
		}
	}
	return MakeInt(r)
}
