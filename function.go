package dbgen

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"regexp/syntax"
	"strings"
	"time"
	"unicode"

	"github.com/ghazalfamilyusa/dbgen/template"
	"github.com/ghazalfamilyusa/dbgen/value"
)

// Arguments is a list of arguments to a function.
type Arguments []value.Value

// Function is a function that can be compiled.
type Function interface {
	// NumArgs returns the number of arguments the function accepts.
	// If the function accepts a variable number of arguments, it returns -1.
	NumArgs() int
	// IsPure reports whether the function is deterministic given its
	// arguments alone - i.e. it never reads State.Rng or any other
	// per-row state. Only pure functions may be constant-folded at
	// compile time when every argument is itself constant.
	IsPure() bool
	// Compile compiles or evaluates the function.
	Compile(ctx *CompileContext, args Arguments) (Compiled, error)
}

var GenericFuncs = map[string]Function{
	"generate_series":        GenerateSeriesFunc{},
	"encode.hex":             EncodeFunc{Encoding: HexEncoding},
	"encode.base64":          EncodeFunc{Encoding: Base64Encoding},
	"decode.hex":             DecodeFunc{Encoding: HexEncoding},
	"decode.base64":          DecodeFunc{Encoding: Base64Encoding},
	"debug.panic":            PanicFunc{},
	"least":                  LeastFunc{},
	"greatest":               GreatestFunc{},
	"round":                  RoundFunc{},
	"div":                    ArithFunc{Op: value.Div},
	"mod":                    ArithFunc{Op: value.Mod},
	"coalesce":               CoalesceFunc{},
	"rand.range":             RandRangeFunc{},
	"rand.range_inclusive":   RandRangeInclusiveFunc{},
	"rand.uniform":           RandUniformFunc{},
	"rand.uniform_inclusive": RandUniformInclusiveFunc{},
	"rand.zipf":              RandZipfFunc{},
	"rand.log_normal":        RandLogNormalFunc{},
	"rand.bool":              RandBoolFunc{},
	"rand.finite_f32":        RandFiniteF32Func{},
	"rand.finite_f64":        RandFiniteF64Func{},
	"rand.u31_timestamp":     RandU31TimestampFunc{},
	"rand.uuid":              RandUuidFunc{},
	"rand.regex":             RandRegexFunc{},
	"rand.shuffle":           RandShuffleFunc{},
	"char_length":            CharLengthFunc{},
	"octet_length":           OctetLengthFunc{},
}

var UnaryFuncs = map[template.Op]Function{
	template.OpSub:    NegFunc{},
	template.OpNot:    NotFunc{},
	template.OpBitNot: BitNotFunc{},
}

var BinaryFuncs = map[template.Op]Function{
	template.OpLT:        CompareFunc{LT: true},
	template.OpLE:        CompareFunc{LT: true, EQ: true},
	template.OpEQ:        CompareFunc{EQ: true},
	template.OpNE:        CompareFunc{LT: true, GT: true},
	template.OpGT:        CompareFunc{GT: true},
	template.OpGE:        CompareFunc{GT: true, EQ: true},
	template.OpIs:        IsFunc{},
	template.OpIsNot:     IsNotFunc{},
	template.OpBitAnd:    BitwiseFunc{Op: template.OpBitAnd},
	template.OpBitOr:     BitwiseFunc{Op: template.OpBitOr},
	template.OpBitXor:    BitwiseFunc{Op: template.OpBitXor},
	template.OpAnd:       LogicalAndFunc{},
	template.OpOr:        LogicalOrFunc{},
	template.OpAdd:       ArithFunc{Op: value.Add},
	template.OpSub:       ArithFunc{Op: value.Sub},
	template.OpMul:       ArithFunc{Op: value.Mul},
	template.OpFloatDiv:  ArithFunc{Op: value.FloatDiv},
	template.OpConcat:    ConcatFunc{},
	template.OpSemicolon: LastFunc{},
}

type noArg struct{}

func (noArg) NumArgs() int { return 0 }

type oneArg struct{}

func (oneArg) NumArgs() int { return 1 }

type twoArgs struct{}

func (twoArgs) NumArgs() int { return 2 }

type varArgs struct{}

func (varArgs) NumArgs() int { return -1 }

// Pure is embedded by functions whose result depends only on their
// arguments, enabling constant folding.
type Pure struct{}

func (Pure) IsPure() bool { return true }

// Impure is embedded by functions that draw from State.Rng or otherwise
// depend on per-row state; such calls must never be constant-folded even
// when every argument happens to be a compile-time constant.
type Impure struct{}

func (Impure) IsPure() bool { return false }

// ArrayFunc constructs a array.
type ArrayFunc struct {
	varArgs
	Pure
}

func (ArrayFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	return &Constant{value.MakeArray(args)}, nil
}

// SubscriptFunc subscript a array.
type SubscriptFunc struct {
	twoArgs
	Pure
}

func (SubscriptFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	base, err := value.AsArray(args[0])
	if err != nil {
		return nil, err
	}
	if args[1].Kind() != value.KindInt {
		return nil, &UnexpectedValueTypeError{Expected: "integer subscript", Value: args[1].String()}
	}
	if !value.IsInt64(args[1]) {
		return &Constant{value.Null}, nil
	}
	index, err := value.AsInt64(args[1])
	if err != nil {
		return nil, err
	}
	if index <= 0 || index > int64(len(base)) {
		return &Constant{value.Null}, nil
	}
	return &Constant{base[index-1]}, nil
}

// GenerateSeriesFunc implements the `generate_series` SQL function.
type GenerateSeriesFunc struct {
	varArgs
	Pure
}

func (GenerateSeriesFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) < 2 {
		return nil, &NotEnoughArgumentsError{Function: "generate_series", Want: 2, Got: len(args)}
	}
	if len(args) > 3 {
		return nil, &InvalidArgumentsError{Message: fmt.Sprintf("generate_series requires at most 3 arguments, got %d", len(args))}
	}
	start, stop := args[0], args[1]

	var (
		step     value.Value
		stepSign int
	)
	if len(args) == 3 {
		step = args[2]
		stepSign = value.Sign(step)
		if stepSign == 0 {
			return nil, fmt.Errorf("generate_series step cannot be zero")
		}
	} else {
		step = value.MakeInt64(1)
		stepSign = 1
	}

	var result []value.Value
	cur := start
	for {
		cmp, isNull, err := value.Cmp(cur, stop)
		if err != nil {
			return nil, err
		}
		if isNull || cmp == stepSign {
			break
		}
		result = append(result, cur)
		cur, err = value.Add(cur, step)
		if err != nil {
			return nil, err
		}
	}
	return &Constant{value.MakeArray(result)}, nil
}

// Encoding is an interface for encoding and decoding byte slices.
type Encoding interface {
	// Encode encodes src into EncodedLen(len(src)) bytes of dst.
	Encode(dst, src []byte)
	// EncodedLen returns the length of an encoding of n source bytes.
	EncodedLen(n int) int
	// Decode decodes src into DecodedLen(len(src)) bytes,
	// returning the actual number of bytes written to dst.
	Decode(dst, src []byte) (n int, err error)
	// DecodedLen returns the maximum length in bytes of the decoded data
	// corresponding to n bytes of encoded data.
	DecodedLen(n int) int
}

var (
	HexEncoding    Encoding = hexEncoding{}
	Base64Encoding Encoding = base64.StdEncoding
)

type hexEncoding struct{}

func (hexEncoding) Encode(dst, src []byte) {
	hex.Encode(dst, src)
}

func (hexEncoding) EncodedLen(n int) int {
	return hex.EncodedLen(n)
}

func (hexEncoding) Decode(dst, src []byte) (int, error) {
	return hex.Decode(dst, src)
}

func (hexEncoding) DecodedLen(n int) int {
	return hex.DecodedLen(n)
}

// EncodeFunc implements the `encode.*` SQL function.
type EncodeFunc struct {
	oneArg
	Pure
	Encoding Encoding
}

func (enc EncodeFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	src, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	dst := make([]byte, enc.Encoding.EncodedLen(len(src)))
	enc.Encoding.Encode(dst, src)
	return &Constant{value.MakeBytes(dst)}, nil
}

// DecodeFunc implements the `decode.*` SQL function.
type DecodeFunc struct {
	oneArg
	Pure
	Encoding Encoding
}

func (dec DecodeFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	src, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	dst := make([]byte, dec.Encoding.DecodedLen(len(src)))
	n, err := dec.Encoding.Decode(dst, src)
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	return &Constant{value.MakeBytes(dst[:n])}, nil
}

type PanicFunc struct {
	varArgs
	Pure
}

func (PanicFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d. %s", i, arg)
	}
	return nil, &PanicError{Message: sb.String()}
}

type NegFunc struct {
	oneArg
	Pure
}

func (NegFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	result, err := value.Neg(args[0])
	if err != nil {
		return nil, err
	}
	return &Constant{result}, nil
}

// CompareFunc implements the value comparison (`<`, `=`, `>`, `<=`, `<>`, `>=`) SQL functions.
type CompareFunc struct {
	twoArgs
	Pure
	/// Whether a less-than result is considered TRUE.
	LT bool
	/// Whether an equals result is considered TRUE.
	EQ bool
	/// Whether a greater-than result is considered TRUE.
	GT bool
}

func (c CompareFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	cmp, isNull, err := value.Cmp(args[0], args[1])
	if err != nil {
		return nil, err
	}
	if isNull {
		return &Constant{value.Null}, nil
	}
	switch cmp {
	case -1:
		return &Constant{boolValue(c.LT)}, nil
	case 0:
		return &Constant{boolValue(c.EQ)}, nil
	default:
		return &Constant{boolValue(c.GT)}, nil
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.MakeInt64(1)
	}
	return value.MakeInt64(0)
}

// IsFunc implements the 'IS' SQL function: equality that never produces
// NULL (NULL IS NULL is true).
type IsFunc struct {
	twoArgs
	Pure
}

func (IsFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null || args[1] == value.Null {
		return &Constant{boolValue(args[0] == value.Null && args[1] == value.Null)}, nil
	}
	cmp, isNull, err := value.Cmp(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &Constant{boolValue(!isNull && cmp == 0)}, nil
}

// IsNotFunc implements the 'IS NOT' SQL function.
type IsNotFunc struct {
	twoArgs
	Pure
}

func (IsNotFunc) Compile(ctx *CompileContext, args Arguments) (Compiled, error) {
	compiled, err := (IsFunc{}).Compile(ctx, args)
	if err != nil {
		return nil, err
	}
	truth, err := value.AsInt64(compiled.(*Constant).Value)
	if err != nil {
		return nil, err
	}
	return &Constant{boolValue(truth == 0)}, nil
}

// NotFunc implements the 'NOT' SQL function.
type NotFunc struct {
	oneArg
	Pure
}

func (NotFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	truth, err := value.IsSQLTrue(args[0])
	if err != nil {
		return nil, err
	}
	return &Constant{boolValue(!truth)}, nil
}

// BitNotFunc implements the '~' SQL function.
type BitNotFunc struct {
	oneArg
	Pure
}

func (BitNotFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	if value.IsInt64(args[0]) {
		x, _ := value.AsInt64(args[0])
		return &Constant{value.MakeInt64(^x)}, nil
	}
	x, err := value.AsInt(args[0])
	if err != nil {
		return nil, err
	}
	result, err := value.MakeInt(new(big.Int).Not(x))
	if err != nil {
		return nil, err
	}
	return &Constant{result}, nil
}

// BitwiseFunc implements the bitwise ('&', '|', '^') SQL functions.
type BitwiseFunc struct {
	twoArgs
	Pure
	Op template.Op
}

func (b BitwiseFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null || args[1] == value.Null {
		return &Constant{value.Null}, nil
	}
	if value.IsInt64(args[0]) && value.IsInt64(args[1]) {
		x, _ := value.AsInt64(args[0])
		y, _ := value.AsInt64(args[1])
		switch b.Op {
		case template.OpBitAnd:
			return &Constant{value.MakeInt64(x & y)}, nil
		case template.OpBitOr:
			return &Constant{value.MakeInt64(x | y)}, nil
		case template.OpBitXor:
			return &Constant{value.MakeInt64(x ^ y)}, nil
		default:
			return nil, fmt.Errorf("unknown bitwise operator: %v", b.Op)
		}
	}
	x, err := value.AsInt(args[0])
	if err != nil {
		return nil, err
	}
	y, err := value.AsInt(args[1])
	if err != nil {
		return nil, err
	}
	var r *big.Int
	switch b.Op {
	case template.OpBitAnd:
		r = new(big.Int).And(x, y)
	case template.OpBitOr:
		r = new(big.Int).Or(x, y)
	case template.OpBitXor:
		r = new(big.Int).Xor(x, y)
	default:
		return nil, fmt.Errorf("unknown bitwise operator: %v", b.Op)
	}
	result, err := value.MakeInt(r)
	if err != nil {
		return nil, err
	}
	return &Constant{result}, nil
}

// LogicalAndFunc implements the 'AND' SQL function. Both operands are
// always evaluated (no short-circuiting), so side effects such as
// variable assignment or RNG draws on either side are deterministic
// regardless of the other operand's truth value.
type LogicalAndFunc struct {
	twoArgs
	Pure
}

func (LogicalAndFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	return logicalCombine(args[0], args[1], false)
}

// LogicalOrFunc implements the 'OR' SQL function, also without
// short-circuiting.
type LogicalOrFunc struct {
	twoArgs
	Pure
}

func (LogicalOrFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	return logicalCombine(args[0], args[1], true)
}

// logicalCombine applies three-valued AND (decisive=false) or OR
// (decisive=true): a decisive operand determines the result even when
// the other is NULL, otherwise any NULL makes the result NULL.
func logicalCombine(a, b value.Value, decisive bool) (Compiled, error) {
	var (
		at, bt       bool
		aNull, bNull bool
	)
	if a == value.Null {
		aNull = true
	} else {
		t, err := value.IsSQLTrue(a)
		if err != nil {
			return nil, err
		}
		at = t
	}
	if b == value.Null {
		bNull = true
	} else {
		t, err := value.IsSQLTrue(b)
		if err != nil {
			return nil, err
		}
		bt = t
	}
	if (!aNull && at == decisive) || (!bNull && bt == decisive) {
		return &Constant{boolValue(decisive)}, nil
	}
	if aNull || bNull {
		return &Constant{value.Null}, nil
	}
	return &Constant{boolValue(!decisive)}, nil
}

// ArithFunc implements the arithmetic (`+`, `-`, `*`, `/`, div, mod) SQL functions.
type ArithFunc struct {
	twoArgs
	Pure
	Op func(value.Value, value.Value) (value.Value, error)
}

func (a ArithFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	result, err := a.Op(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &Constant{result}, nil
}

// GreatestFunc implements the 'greatest' SQL function: the largest
// non-NULL argument, or NULL if every argument is NULL.
type GreatestFunc struct {
	varArgs
	Pure
}

func (GreatestFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	return extremum(args, 1)
}

// LeastFunc implements the 'least' SQL function.
type LeastFunc struct {
	varArgs
	Pure
}

func (LeastFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	return extremum(args, -1)
}

func extremum(args Arguments, wantSign int) (Compiled, error) {
	var best value.Value
	for _, arg := range args {
		if arg == value.Null {
			continue
		}
		if best == nil {
			best = arg
			continue
		}
		cmp, isNull, err := value.Cmp(arg, best)
		if err != nil {
			return nil, err
		}
		if !isNull && cmp == wantSign {
			best = arg
		}
	}
	if best == nil {
		return &Constant{value.Null}, nil
	}
	return &Constant{best}, nil
}

// RoundFunc implements the 'round' SQL function. Rounding is
// away-from-zero on ties (round(2.5, 0) == 3, round(-2.5, 0) == -3), not
// banker's rounding.
type RoundFunc struct {
	varArgs
	Pure
}

func (RoundFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) < 1 {
		return nil, &NotEnoughArgumentsError{Function: "round", Want: 1, Got: len(args)}
	}
	if len(args) > 2 {
		return nil, &InvalidArgumentsError{Message: fmt.Sprintf("round requires at most 2 arguments, got %d", len(args))}
	}
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	precision := int64(0)
	if len(args) == 2 {
		if args[1] == value.Null {
			return &Constant{value.Null}, nil
		}
		p, err := value.AsInt64(args[1])
		if err != nil {
			return nil, err
		}
		precision = p
	}
	if args[0].Kind() == value.KindInt || args[0].Kind() == value.KindUint {
		if precision >= 0 {
			return &Constant{args[0]}, nil
		}
		f, err := value.AsFloat(args[0])
		if err != nil {
			return nil, err
		}
		return &Constant{value.MakeFloat(roundAwayFromZero(f, precision))}, nil
	}
	f, err := value.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	return &Constant{value.MakeFloat(roundAwayFromZero(f, precision))}, nil
}

func roundAwayFromZero(f float64, precision int64) float64 {
	scale := math.Pow(10, float64(precision))
	scaled := f * scale
	var rounded float64
	if scaled >= 0 {
		rounded = math.Floor(scaled + 0.5)
	} else {
		rounded = math.Ceil(scaled - 0.5)
	}
	return rounded / scale
}

// CoalesceFunc implements the 'coalesce' SQL function: the first
// non-NULL argument, or NULL if every argument is NULL.
type CoalesceFunc struct {
	varArgs
	Pure
}

func (CoalesceFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	for _, arg := range args {
		if arg != value.Null {
			return &Constant{arg}, nil
		}
	}
	return &Constant{value.Null}, nil
}

// LastFunc is a function that returns the last value in a list of
// arguments, backing the `;` statement-separator operator.
type LastFunc struct {
	varArgs
	Pure
}

func (LastFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) == 0 {
		return &Constant{value.Null}, nil
	}
	return &Constant{args[len(args)-1]}, nil
}

// RandRangeFunc implements the 'rand.range' SQL function: a uniform
// integer in [min, max).
type RandRangeFunc struct {
	twoArgs
	Impure
}

func (RandRangeFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	min, max, err := asIntBounds(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &RandIntRange{Min: min, Max: max}, nil
}

// RandRangeInclusiveFunc implements the 'rand.range_inclusive' SQL function.
type RandRangeInclusiveFunc struct {
	twoArgs
	Impure
}

func (RandRangeInclusiveFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	min, max, err := asIntBounds(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &RandIntRange{Min: min, Max: max, Inclusive: true}, nil
}

func asIntBounds(a, b value.Value) (*big.Int, *big.Int, error) {
	min, err := value.AsInt(a)
	if err != nil {
		return nil, nil, err
	}
	max, err := value.AsInt(b)
	if err != nil {
		return nil, nil, err
	}
	return min, max, nil
}

// RandUniformFunc implements the 'rand.uniform' SQL function: a uniform
// float64 in [min, max).
type RandUniformFunc struct {
	twoArgs
	Impure
}

func (RandUniformFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	min, max, err := asFloatBounds(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &RandFloatRange{Min: min, Max: max}, nil
}

// RandUniformInclusiveFunc implements the 'rand.uniform_inclusive' SQL function.
type RandUniformInclusiveFunc struct {
	twoArgs
	Impure
}

func (RandUniformInclusiveFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	min, max, err := asFloatBounds(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return &RandFloatRange{Min: min, Max: max, Inclusive: true}, nil
}

func asFloatBounds(a, b value.Value) (float64, float64, error) {
	min, err := value.AsFloat(a)
	if err != nil {
		return 0, 0, err
	}
	max, err := value.AsFloat(b)
	if err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// RandZipfFunc implements the 'rand.zipf' SQL function: rand.zipf(n,
// exponent) draws from a Zipf distribution over [0, n] with the given
// exponent (s > 1).
type RandZipfFunc struct {
	twoArgs
	Impure
}

func (RandZipfFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	n, err := value.AsInt64(args[0])
	if err != nil {
		return nil, err
	}
	exponent, err := value.AsFloat(args[1])
	if err != nil {
		return nil, err
	}
	if exponent <= 1 {
		return nil, fmt.Errorf("rand.zipf exponent must be > 1, got %v", exponent)
	}
	if n < 0 {
		return nil, fmt.Errorf("rand.zipf n must be >= 0, got %d", n)
	}
	return &RandZipf{Exponent: exponent, N: uint64(n)}, nil
}

// RandLogNormalFunc implements the 'rand.log_normal' SQL function:
// rand.log_normal(mean, stddev) where mean/stddev parameterize the
// underlying normal distribution.
type RandLogNormalFunc struct {
	twoArgs
	Impure
}

func (RandLogNormalFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	mean, err := value.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	stddev, err := value.AsFloat(args[1])
	if err != nil {
		return nil, err
	}
	return &RandLogNormal{Mean: mean, StdDev: stddev}, nil
}

// RandBoolFunc implements the 'rand.bool' SQL function: rand.bool(p)
// draws 1 with probability p and 0 otherwise.
type RandBoolFunc struct {
	oneArg
	Impure
}

func (RandBoolFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	p, err := value.AsFloat(args[0])
	if err != nil {
		return nil, err
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("rand.bool probability must be in [0, 1], got %v", p)
	}
	return &RandBool{P: p}, nil
}

// RandFiniteF32Func implements the 'rand.finite_f32' SQL function.
type RandFiniteF32Func struct {
	noArg
	Impure
}

func (RandFiniteF32Func) Compile(_ *CompileContext, _ Arguments) (Compiled, error) {
	return &RandFinite32{}, nil
}

// RandFiniteF64Func implements the 'rand.finite_f64' SQL function.
type RandFiniteF64Func struct {
	noArg
	Impure
}

func (RandFiniteF64Func) Compile(_ *CompileContext, _ Arguments) (Compiled, error) {
	return &RandFinite64{}, nil
}

// RandU31TimestampFunc implements the 'rand.u31_timestamp' SQL function.
type RandU31TimestampFunc struct {
	noArg
	Impure
}

func (RandU31TimestampFunc) Compile(_ *CompileContext, _ Arguments) (Compiled, error) {
	return &RandU31Timestamp{}, nil
}

// RandUuidFunc implements the 'rand.uuid' SQL function.
type RandUuidFunc struct {
	noArg
	Impure
}

func (RandUuidFunc) Compile(_ *CompileContext, _ Arguments) (Compiled, error) {
	return &RandUuid{}, nil
}

// RandRegexFunc implements the 'rand.regex' SQL function:
// rand.regex(pattern [, flags [, max_repeat]]). Flags are single
// characters from "ismU"; max_repeat bounds how many extra repetitions
// an unbounded repeat operator (`*`, `+`, `{n,}`) may draw. A max_repeat
// of 0 selects the default bound of 8, the same as omitting it.
type RandRegexFunc struct {
	varArgs
	Impure
}

func (RandRegexFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("rand.regex requires 1 to 3 arguments, got %d", len(args))
	}
	pattern, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	syntaxFlags := syntax.Perl
	if len(args) >= 2 {
		flags, err := value.AsBytes(args[1])
		if err != nil {
			return nil, err
		}
		for _, f := range string(flags) {
			switch f {
			case 'i':
				syntaxFlags |= syntax.FoldCase
			case 's':
				syntaxFlags |= syntax.DotNL
			case 'm':
				// Accepted and ignored: anchors produce no output, so
				// multi-line mode does not change what is generated.
			case 'U':
				syntaxFlags |= syntax.NonGreedy
			default:
				return nil, &UnknownRegexFlagError{Flag: f}
			}
		}
	}
	maxRepeat := int64(defaultMaxRepeat)
	if len(args) == 3 {
		maxRepeat, err = value.AsInt64(args[2])
		if err != nil {
			return nil, err
		}
		if maxRepeat < 0 {
			return nil, fmt.Errorf("rand.regex max_repeat must be >= 0, got %d", maxRepeat)
		}
	}
	parsed, err := syntax.Parse(string(pattern), syntaxFlags)
	if err != nil {
		return nil, &InvalidRegexError{Pattern: string(pattern), Cause: err}
	}
	return &RandRegex{Regex: parsed, MaxRepeat: int(maxRepeat)}, nil
}

// RandShuffleFunc implements the 'rand.shuffle' SQL function. Compile
// receives the already-evaluated array argument and wraps it in a
// RandShuffle node over a Constant: once at compile time when the
// argument is constant, otherwise on every row through a RawFunction.
// The permutation is drawn when that node is evaluated, so it differs on
// every row either way.
type RandShuffleFunc struct {
	oneArg
	Impure
}

func (RandShuffleFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if _, err := value.AsArray(args[0]); err != nil {
		return nil, err
	}
	return &RandShuffle{Array: &Constant{Value: args[0]}}, nil
}

// SubstringFunc implements the 'substring' SQL function.
type SubstringFunc struct {
	varArgs
	Pure
	Unit template.StringUnit
}

func (s SubstringFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) < 1 {
		return nil, &NotEnoughArgumentsError{Function: "substring", Want: 1, Got: len(args)}
	}
	if len(args) > 3 {
		return nil, &InvalidArgumentsError{Message: fmt.Sprintf("substring requires at most 3 arguments, got %d", len(args))}
	}
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	input, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	units := stringUnits(input, s.Unit)
	length := int64(len(units))

	from := int64(1)
	if len(args) >= 2 && args[1] != value.Null {
		from, err = value.AsInt64(args[1])
		if err != nil {
			return nil, err
		}
	} else if len(args) >= 2 {
		return &Constant{value.Null}, nil
	}

	to := length + 1
	if len(args) == 3 {
		if args[2] == value.Null {
			return &Constant{value.Null}, nil
		}
		count, err := value.AsInt64(args[2])
		if err != nil {
			return nil, err
		}
		to = from + count
	}

	if from < 1 {
		from = 1
	}
	if to > length+1 {
		to = length + 1
	}
	if to <= from {
		return &Constant{value.MakeBytes(nil)}, nil
	}
	return &Constant{value.MakeBytes(joinUnits(units[from-1 : to-1]))}, nil
}

func stringUnits(b []byte, unit template.StringUnit) [][]byte {
	if unit == template.StringUnitOctets {
		units := make([][]byte, len(b))
		for i := range b {
			units[i] = b[i : i+1]
		}
		return units
	}
	var units [][]byte
	for _, r := range string(b) {
		units = append(units, []byte(string(r)))
	}
	return units
}

func joinUnits(units [][]byte) []byte {
	var buf bytes.Buffer
	for _, u := range units {
		buf.Write(u)
	}
	return buf.Bytes()
}

// CharLengthFunc implements the 'char_length' SQL function.
type CharLengthFunc struct {
	oneArg
	Pure
}

func (CharLengthFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	b, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	n := 0
	for range string(b) {
		n++
	}
	return &Constant{value.MakeInt64(int64(n))}, nil
}

// OctetLengthFunc implements the 'octet_length' SQL function.
type OctetLengthFunc struct {
	oneArg
	Pure
}

func (OctetLengthFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if args[0] == value.Null {
		return &Constant{value.Null}, nil
	}
	b, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	return &Constant{value.MakeInt64(int64(len(b)))}, nil
}

// OverlayFunc implements the 'overlay' SQL function: replace a
// substring of Input, starting at From (1-based), For units long (or to
// the end, if omitted), with Placing.
type OverlayFunc struct {
	varArgs
	Pure
	Unit template.StringUnit
}

func (o OverlayFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	if len(args) < 3 {
		return nil, &NotEnoughArgumentsError{Function: "overlay", Want: 3, Got: len(args)}
	}
	if len(args) > 4 {
		return nil, &InvalidArgumentsError{Message: fmt.Sprintf("overlay requires at most 4 arguments, got %d", len(args))}
	}
	if args[0] == value.Null || args[1] == value.Null || args[2] == value.Null {
		return &Constant{value.Null}, nil
	}
	input, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	placing, err := value.AsBytes(args[1])
	if err != nil {
		return nil, err
	}
	from, err := value.AsInt64(args[2])
	if err != nil {
		return nil, err
	}
	units := stringUnits(input, o.Unit)
	length := int64(len(units))

	count := int64(len(stringUnits(placing, o.Unit)))
	if len(args) == 4 {
		if args[3] == value.Null {
			return &Constant{value.Null}, nil
		}
		count, err = value.AsInt64(args[3])
		if err != nil {
			return nil, err
		}
	}

	if from < 1 {
		from = 1
	}
	to := from + count
	if to > length+1 {
		to = length + 1
	}
	var buf bytes.Buffer
	if from-1 <= length {
		buf.Write(joinUnits(units[:from-1]))
	} else {
		buf.Write(input)
	}
	buf.Write(placing)
	if to-1 <= length {
		buf.Write(joinUnits(units[to-1:]))
	}
	return &Constant{value.MakeBytes(buf.Bytes())}, nil
}

// ConcatFunc implements the '||' SQL function.
type ConcatFunc struct {
	twoArgs
	Pure
}

func (ConcatFunc) Compile(_ *CompileContext, args Arguments) (Compiled, error) {
	result, err := value.Concat(args)
	if err != nil {
		return nil, err
	}
	return &Constant{result}, nil
}

const timestampFormat = "2006-01-02 15:04:05.999"

// TimestampFunc implements the 'timestamp' SQL function.
type TimestampFunc struct {
	oneArg
	Pure
}

func (TimestampFunc) Compile(ctx *CompileContext, args Arguments) (Compiled, error) {
	input, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	t, err := time.ParseInLocation(timestampFormat, string(input), ctx.TimeZone)
	if err != nil {
		return nil, &InvalidTimestampStringError{Input: string(input), Cause: err}
	}
	return &Constant{value.MakeTimestamp(t)}, nil
}

// TimestampWithTimeZoneFunc implements the 'timestamp with time zone' SQL function.
type TimestampWithTimeZoneFunc struct {
	oneArg
	Pure
}

func (TimestampWithTimeZoneFunc) Compile(ctx *CompileContext, args Arguments) (Compiled, error) {
	input, err := value.AsBytes(args[0])
	if err != nil {
		return nil, err
	}
	tz := ctx.TimeZone
	if tzIdx := bytes.IndexFunc(input, unicode.IsLetter); tzIdx != -1 {
		tz, err = ctx.ParseTimeZone(string(input[tzIdx:]))
		if err != nil {
			return nil, err
		}
		input = input[:tzIdx]
	}
	t, err := time.ParseInLocation(timestampFormat, strings.TrimSpace(string(input)), tz)
	if err != nil {
		return nil, &InvalidTimestampStringError{Input: string(input), Cause: err}
	}
	return &Constant{value.MakeTimestamp(t)}, nil
}
