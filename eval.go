package dbgen

import (
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"regexp/syntax"
	"time"

	"github.com/ghazalfamilyusa/dbgen/template"
	"github.com/ghazalfamilyusa/dbgen/value"
	"github.com/samber/lo"
)

// State is the mutable state used during evaluation of one row. The
// row/table driver keeps one State per chunk and resets every variable
// to NULL before each row (see driver.go), since the template grammar has
// no syntax for declaring a variable persistent across rows. A derived
// table's sub-row starts instead from a copy of its parent row's
// variables.
type State struct {
	RowNum     int64
	SubRowNum  int64
	Rng        *rand.Rand
	CompileCtx *CompileContext
	Variables  []value.Value
}

// NewState creates per-row evaluation state bound to rng, with every
// declared variable reset to NULL.
func NewState(ctx *CompileContext, rng *rand.Rand) *State {
	vars := make([]value.Value, ctx.NumVariables)
	for i := range vars {
		vars[i] = value.Null
	}
	return &State{CompileCtx: ctx, Rng: rng, Variables: vars}
}

type Template struct {
	GlobalExprs Row
	Tables      []*Table
}

type Table struct {
	Name    *template.QName
	Content string
	Columns []template.Name
	Row     Row
	Derived []lo.Tuple2[int, Compiled]
}

// CompileContext is the environment information shared by all compilations.
type CompileContext struct {
	// The time zone used to interpret strings into timestamps.
	TimeZone *time.Location
	// The current timestamp in UTC.
	CurrentTimestamp time.Time
	// LoadLocation is the function used to load the Location with the given name.
	LoadLocation func(name string) (*time.Location, error)
	// variableNames resolves a declared variable's name to its slot index
	// in every State.Variables slice. Unlike the variable's value, this
	// mapping is compile-time and shared.
	variableNames []string
	// NumVariables is the number of distinct variables referenced by the
	// compiled template; State allocates a Variables slice of this size.
	NumVariables int
	tzCache      map[string]*time.Location
}

func NewCompileContext() *CompileContext {
	return &CompileContext{
		TimeZone:         time.UTC,
		CurrentTimestamp: time.Now().UTC(),
		LoadLocation:     time.LoadLocation,
		tzCache:          make(map[string]*time.Location),
	}
}

func (ctx *CompileContext) ParseTimeZone(tz string) (*time.Location, error) {
	if loc, ok := ctx.tzCache[tz]; ok {
		return loc, nil
	}
	loc, err := ctx.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	ctx.tzCache[tz] = loc
	return loc, nil
}

func (ctx *CompileContext) variableIndex(name string) int {
	for i, n := range ctx.variableNames {
		if n == name {
			return i
		}
	}
	index := len(ctx.variableNames)
	ctx.variableNames = append(ctx.variableNames, name)
	ctx.NumVariables = len(ctx.variableNames)
	return index
}

func (ctx *CompileContext) CompileTemplate(t *template.Template) (*Template, error) {
	row, err := ctx.CompileRow(t.GlobalExprs)
	if err != nil {
		return nil, err
	}
	tables := make([]*Table, 0, len(t.Tables))
	for _, t := range t.Tables {
		table, err := ctx.CompileTable(t)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return &Template{
		GlobalExprs: row,
		Tables:      tables,
	}, nil
}

func (ctx *CompileContext) CompileTable(t *template.Table) (*Table, error) {
	exprs := lo.Map(t.Columns, func(col *template.Column, _ int) template.Expr {
		return col.Expr
	})
	row, err := ctx.CompileRow(exprs)
	if err != nil {
		return nil, err
	}
	derived := make([]lo.Tuple2[int, Compiled], 0, len(t.Derived))
	for _, d := range t.Derived {
		index, count := d.Unpack()
		compiled, err := ctx.CompileExpr(count)
		if err != nil {
			return nil, err
		}
		derived = append(derived, lo.T2(index, compiled))
	}
	return &Table{
		Name:    t.Name,
		Content: t.Content,
		Columns: lo.Map(t.Columns, func(col *template.Column, _ int) template.Name {
			return col.Name
		}),
		Row:     row,
		Derived: derived,
	}, nil
}

func (ctx *CompileContext) CompileRow(exprs []template.Expr) (Row, error) {
	row := make(Row, 0, len(exprs))
	for _, expr := range exprs {
		compiled, err := ctx.CompileExpr(expr)
		if err != nil {
			return nil, err
		}
		row = append(row, compiled)
	}
	return row, nil
}

func (ctx *CompileContext) CompileExpr(expr template.Expr) (Compiled, error) {
	switch expr := expr.(type) {
	case *template.RowNum:
		return &RowNum{}, nil
	case *template.SubRowNum:
		return &SubRowNum{}, nil
	case *template.CurrentTimestamp:
		return &Constant{value.MakeTimestamp(ctx.CurrentTimestamp)}, nil
	case *template.Constant:
		return &Constant{expr.Value}, nil
	case *template.GetVariable:
		return &GetVariable{Index: ctx.variableIndex(expr.Name)}, nil
	case *template.SetVariable:
		child, err := ctx.CompileExpr(expr.Value)
		if err != nil {
			return nil, err
		}
		return &SetVariable{Index: ctx.variableIndex(expr.Name), Value: child}, nil
	case *template.UnaryExpr:
		fn, ok := UnaryFuncs[expr.Op]
		if !ok {
			return nil, fmt.Errorf("unknown unary operator: %s", expr.Op)
		}
		return ctx.compileRawFunction(fn, expr.Expr)
	case *template.BinaryExpr:
		fn, ok := BinaryFuncs[expr.Op]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator: %s", expr.Op)
		}
		return ctx.compileRawFunction(fn, expr.Left, expr.Right)
	case *template.ParenExpr:
		return ctx.CompileExpr(expr.Expr)
	case *template.FuncExpr:
		fn, ok := GenericFuncs[expr.Name.UniqueName()]
		if !ok {
			return nil, fmt.Errorf("unknown function: %s", expr.Name)
		}
		if want := fn.NumArgs(); want >= 0 && len(expr.Args) != want {
			if len(expr.Args) < want {
				return nil, &NotEnoughArgumentsError{Function: expr.Name.String(), Want: want, Got: len(expr.Args)}
			}
			return nil, &InvalidArgumentsError{Message: fmt.Sprintf("too many arguments for function %s: expected %d, got %d", expr.Name, want, len(expr.Args))}
		}
		return ctx.compileRawFunction(fn, expr.Args...)
	case *template.CaseValueWhen:
		return ctx.compileCaseValueWhen(expr)
	case *template.Timestamp:
		var fn Function
		if expr.WithTimezone {
			fn = &TimestampWithTimeZoneFunc{}
		} else {
			fn = &TimestampFunc{}
		}
		return ctx.compileRawFunction(fn, expr.Value)
	case *template.Interval:
		fn := BinaryFuncs[template.OpMul]
		unit := value.MakeInterval(time.Duration(expr.Unit))
		return ctx.compileRawFunction(fn, expr.Value, &template.Constant{Value: unit})
	case *template.Array:
		fn := &ArrayFunc{}
		return ctx.compileRawFunction(fn, expr.Elems...)
	case *template.Subscript:
		fn := &SubscriptFunc{}
		return ctx.compileRawFunction(fn, expr.Base, expr.Index)
	case *template.Substring:
		fn := &SubstringFunc{Unit: expr.Unit}
		return ctx.compileRawFunction(fn, expr.Input, expr.From, expr.For)
	case *template.Overlay:
		fn := &OverlayFunc{Unit: expr.Unit}
		return ctx.compileRawFunction(fn, expr.Input, expr.Placing, expr.From, expr.For)
	default:
		return nil, fmt.Errorf("unknown expression: %T", expr)
	}
}

// compileRawFunction compiles a function call. When every argument is a
// compile-time constant the function is invoked immediately: a pure
// function folds to a Constant, while an impure one (anything that draws
// from State.Rng or other per-row state) compiles to its dedicated
// Rand* node, validating its arguments once instead of on every row -
// e.g. rand.range(1, 10) has two constant arguments but must still draw
// a fresh value per call, so it becomes a RandIntRange node, never a
// Constant.
func (ctx *CompileContext) compileRawFunction(fn Function, args ...template.Expr) (Compiled, error) {
	isConst := true
	compiledArgs := make([]Compiled, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			compiledArgs = append(compiledArgs, &Constant{value.Null})
			continue
		}
		compiled, err := ctx.CompileExpr(arg)
		if err != nil {
			return nil, err
		}
		compiledArgs = append(compiledArgs, compiled)
		isConst = isConst && IsConstant(compiled)
	}
	if isConst {
		constArgs := make([]value.Value, 0, len(args))
		for _, arg := range compiledArgs {
			constArgs = append(constArgs, arg.(*Constant).Value)
		}
		compiled, err := fn.Compile(ctx, constArgs)
		if err != nil {
			return nil, err
		}
		return compiled, nil
	}
	return &RawFunction{Fn: fn, Args: compiledArgs}, nil
}

func (ctx *CompileContext) compileCaseValueWhen(expr *template.CaseValueWhen) (Compiled, error) {
	var (
		value_ Compiled
		else_  Compiled
		err    error
	)
	if expr.Value != nil {
		value_, err = ctx.CompileExpr(expr.Value)
		if err != nil {
			return nil, err
		}
	}
	whens := make([]*When, 0, len(expr.Whens))
	for _, when := range expr.Whens {
		cond, err := ctx.CompileExpr(when.Cond)
		if err != nil {
			return nil, err
		}
		then, err := ctx.CompileExpr(when.Then)
		if err != nil {
			return nil, err
		}
		whens = append(whens, &When{Cond: cond, Then: then})
	}
	if expr.Else != nil {
		else_, err = ctx.CompileExpr(expr.Else)
		if err != nil {
			return nil, err
		}
	} else {
		else_ = &Constant{value.Null}
	}

	compiled := &CaseValueWhen{Value: value_, Whens: whens, Else: else_}
	isConstWhen := func(w *When) bool {
		return IsConstant(w.Cond) && IsConstant(w.Then)
	}
	if (value_ == nil || IsConstant(value_)) && lo.EveryBy(whens, isConstWhen) && IsConstant(else_) {
		result, err := compiled.Eval(nil)
		if err != nil {
			return nil, err
		}
		return &Constant{Value: result}, nil
	}
	return compiled, nil
}

// Row represents a row of compiled values.
type Row []Compiled

func (r Row) Eval(state *State) ([]value.Value, error) {
	result := make([]value.Value, 0, len(r))
	for _, compiled := range r {
		v, err := compiled.Eval(state)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// Compiled is a compiled expression.
type Compiled interface {
	// Eval evaluates a compiled expression and updates the state. Returns the evaluated value.
	Eval(state *State) (value.Value, error)
}

// Compiled expression types.
type (
	// RowNum is the row number.
	RowNum struct{}
	// SubRowNum is the derived row number.
	SubRowNum struct{}
	// Constant is a evaluated constant.
	Constant struct{ Value value.Value }
	// RawFunction is a function that has not been compiled.
	RawFunction struct {
		Fn   Function
		Args []Compiled
	}
	// GetVariable is a local variable reference.
	GetVariable struct{ Index int }
	// SetVariable assigns a value to a local variable.
	SetVariable struct {
		Index int
		Value Compiled
	}
	// CaseValueWhen is a `CASE [value] WHEN` expression. A nil Value is
	// the searched form: each WHEN condition is tested for SQL truth
	// instead of being compared against an operand.
	CaseValueWhen struct {
		Value Compiled
		Whens []*When
		Else  Compiled
	}
	// RandRegex generates a random byte string matching the parsed
	// pattern, bounding unbounded repeat operators at MaxRepeat extra
	// repetitions.
	RandRegex struct {
		Regex     *syntax.Regexp
		MaxRepeat int
	}
	// RandIntRange draws a uniform signed integer in [Min, Max) or,
	// when Inclusive is set, [Min, Max].
	RandIntRange struct {
		Min, Max  *big.Int
		Inclusive bool
	}
	// RandFloatRange draws a uniform float64 in [Min, Max) or, when
	// Inclusive is set, [Min, Max].
	RandFloatRange struct {
		Min, Max  float64
		Inclusive bool
	}
	// RandZipf draws from a Zipf distribution over [0, N] with the
	// given exponent (s > 1).
	RandZipf struct {
		Exponent float64
		N        uint64
	}
	// RandLogNormal draws from a log-normal distribution parameterized
	// by the underlying normal distribution's mean and standard
	// deviation.
	RandLogNormal struct {
		Mean, StdDev float64
	}
	// RandBool draws 1 with probability P, 0 otherwise.
	RandBool struct{ P float64 }
	// RandFinite32 draws a finite float64 representable as a float32.
	RandFinite32 struct{}
	// RandFinite64 draws an arbitrary finite float64.
	RandFinite64 struct{}
	// RandU31Timestamp draws a timestamp within the 31-bit unsigned
	// Unix-seconds range [0, 2^31), matching the int32 timestamp
	// columns a generated schema's "timestamp" generator produces.
	RandU31Timestamp struct{}
	// RandShuffle evaluates Array and returns a randomly permuted copy.
	RandShuffle struct{ Array Compiled }
	// RandUuid draws a random version-4 UUID, rendered as text.
	RandUuid struct{}
)

// IsConstant returns true if the compiled expression is a constant.
func IsConstant(compiled Compiled) bool {
	_, ok := compiled.(*Constant)
	return ok
}

type When struct {
	Cond Compiled
	Then Compiled
}

func (*RowNum) Eval(state *State) (value.Value, error) {
	return value.MakeInt64(state.RowNum), nil
}

func (*SubRowNum) Eval(state *State) (value.Value, error) {
	return value.MakeInt64(state.SubRowNum), nil
}

func (c *Constant) Eval(_ *State) (value.Value, error) {
	return c.Value, nil
}

func (r *RawFunction) Eval(state *State) (value.Value, error) {
	args := make([]value.Value, 0, len(r.Args))
	for _, arg := range r.Args {
		v, err := arg.Eval(state)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	c, err := r.Fn.Compile(state.CompileCtx, args)
	if err != nil {
		return nil, err
	}
	return c.Eval(state)
}

func (g *GetVariable) Eval(state *State) (value.Value, error) {
	return state.Variables[g.Index], nil
}

func (s *SetVariable) Eval(state *State) (value.Value, error) {
	v, err := s.Value.Eval(state)
	if err != nil {
		return nil, err
	}
	state.Variables[s.Index] = v
	return v, nil
}

func (c *CaseValueWhen) Eval(state *State) (value.Value, error) {
	if c.Value == nil {
		for _, when := range c.Whens {
			condValue, err := when.Cond.Eval(state)
			if err != nil {
				return nil, err
			}
			truth, err := value.IsSQLTrue(condValue)
			if err != nil {
				return nil, err
			}
			if truth {
				return when.Then.Eval(state)
			}
		}
		return c.Else.Eval(state)
	}
	caseValue, err := c.Value.Eval(state)
	if err != nil {
		return nil, err
	}
	for _, when := range c.Whens {
		condValue, err := when.Cond.Eval(state)
		if err != nil {
			return nil, err
		}
		cmp, isNull, err := value.Cmp(caseValue, condValue)
		if err != nil {
			return nil, err
		}
		if !isNull && cmp == 0 {
			return when.Then.Eval(state)
		}
	}
	return c.Else.Eval(state)
}

func (r *RandRegex) Eval(state *State) (value.Value, error) {
	s, err := generateRandomString(state.Rng, r.Regex, r.MaxRepeat)
	if err != nil {
		return nil, err
	}
	return value.MakeBytes(s), nil
}

func (r *RandIntRange) Eval(state *State) (value.Value, error) {
	width := new(big.Int).Sub(r.Max, r.Min)
	if r.Inclusive {
		width.Add(width, big.NewInt(1))
	}
	if width.Sign() <= 0 {
		return nil, fmt.Errorf("rand range is empty: [%s, %s)", r.Min, r.Max)
	}
	offset := new(big.Int).Rand(state.Rng, width)
	return value.MakeInt(offset.Add(offset, r.Min))
}

func (r *RandFloatRange) Eval(state *State) (value.Value, error) {
	if r.Max < r.Min || (r.Max == r.Min && !r.Inclusive) {
		return nil, fmt.Errorf("rand range is empty: [%v, %v)", r.Min, r.Max)
	}
	span := r.Max - r.Min
	return value.MakeFloat(r.Min + state.Rng.Float64()*span), nil
}

func (r *RandZipf) Eval(state *State) (value.Value, error) {
	z := rand.NewZipf(state.Rng, r.Exponent, 1, r.N)
	return value.MakeInt64(int64(z.Uint64())), nil
}

func (r *RandLogNormal) Eval(state *State) (value.Value, error) {
	normal := state.Rng.NormFloat64()*r.StdDev + r.Mean
	return value.MakeFloat(math.Exp(normal)), nil
}

func (r *RandBool) Eval(state *State) (value.Value, error) {
	if state.Rng.Float64() < r.P {
		return value.MakeInt64(1), nil
	}
	return value.MakeInt64(0), nil
}

func (*RandFinite32) Eval(state *State) (value.Value, error) {
	return value.MakeFloat(randFiniteFloat32(state.Rng)), nil
}

func (*RandFinite64) Eval(state *State) (value.Value, error) {
	return value.MakeFloat(randFiniteFloat64(state.Rng)), nil
}

func (*RandU31Timestamp) Eval(state *State) (value.Value, error) {
	secs := state.Rng.Int63n(1 << 31)
	return value.MakeTimestamp(time.Unix(secs, 0).UTC()), nil
}

func (r *RandShuffle) Eval(state *State) (value.Value, error) {
	v, err := r.Array.Eval(state)
	if err != nil {
		return nil, err
	}
	arr, err := value.AsArray(v)
	if err != nil {
		return nil, err
	}
	shuffled := make([]value.Value, len(arr))
	copy(shuffled, arr)
	state.Rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return value.MakeArray(shuffled), nil
}

func (*RandUuid) Eval(state *State) (value.Value, error) {
	return value.MakeBytes([]byte(randomUUID(state.Rng).String())), nil
}
