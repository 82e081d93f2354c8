package dbgen

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/ghazalfamilyusa/dbgen/value"
)

// GenerateOptions configures how GenerateTable splits and parallelizes a
// table's row range.
type GenerateOptions struct {
	// Seed is the meta-seed every chunk's substream is derived from. Two
	// runs with the same Seed, ChunkSize, and table produce the same
	// values for every row regardless of Concurrency, since chunk
	// boundaries (not scheduling order) determine each chunk's substream.
	// With Concurrency above 1, the order in which rows of different
	// chunks arrive on the result channel can differ between runs.
	Seed int64
	// ChunkSize is the number of rows handed to one goroutine at a time.
	// Defaults to 1000.
	ChunkSize int64
	// Concurrency bounds how many chunks are generated in parallel.
	// Defaults to 1 (sequential).
	Concurrency int
}

func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// RowResult is one generated row, or an error that stopped generation.
// TableIndex identifies which of Template.Tables the row belongs to,
// since a derived table's rows are interleaved with their parent's.
type RowResult struct {
	TableIndex int
	RowNum     int64
	SubRowNum  int64
	Values     []value.Value
	Err        error
}

type rowRange struct{ start, end int64 }

func chunkRanges(count, size int64) []rowRange {
	if count <= 0 {
		return nil
	}
	ranges := make([]rowRange, 0, (count+size-1)/size)
	for start := int64(1); start <= count; start += size {
		end := start + size - 1
		if end > count {
			end = count
		}
		ranges = append(ranges, rowRange{start, end})
	}
	return ranges
}

// deriveSubstreamSeed computes a chunk-local PRNG seed from the run's
// meta-seed and the chunk's index, so each chunk's random draws form an
// independent, reproducible substream regardless of goroutine scheduling
// order. This is a SplitMix64-style mixing step (no substream-splitting
// RNG exists anywhere in the retrieved pack; the construction is a
// standard, widely used avalanche mix applied to stdlib math/rand's
// int64 seed space).
func deriveSubstreamSeed(metaSeed int64, chunkIndex int64) int64 {
	z := uint64(metaSeed) + uint64(chunkIndex)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z)
}

// GenerateTable drives generation of Template.Tables[tableIndex] over
// [1, rowsCount], chunked across opts.Concurrency goroutines, each chunk
// owning its own *rand.Rand substream and its own per-row State. Derived
// tables (FOR EACH ROW OF) are generated inline as each parent row is
// produced, recursively, and interleaved into the same result stream
// tagged with their own TableIndex.
//
// Cancellation via ctx is cooperative: it is checked between rows, never
// in the middle of evaluating one row.
func GenerateTable(ctx context.Context, tmpl *Template, compileCtx *CompileContext, tableIndex int, rowsCount int64, opts GenerateOptions) (<-chan RowResult, error) {
	if tableIndex < 0 || tableIndex >= len(tmpl.Tables) {
		return nil, fmt.Errorf("table index %d out of range (template has %d tables)", tableIndex, len(tmpl.Tables))
	}
	if rowsCount < 0 {
		return nil, fmt.Errorf("rowsCount must be >= 0, got %d", rowsCount)
	}
	opts = opts.withDefaults()
	table := tmpl.Tables[tableIndex]

	out := make(chan RowResult, opts.Concurrency)
	ranges := chunkRanges(rowsCount, opts.ChunkSize)

	go func() {
		defer close(out)
		sem := make(chan struct{}, opts.Concurrency)
		var wg sync.WaitGroup
		for chunkIndex, r := range ranges {
			if err := ctx.Err(); err != nil {
				out <- RowResult{TableIndex: tableIndex, Err: &ContextCanceledError{Table: table.Name.String(), Cause: err}}
				break
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(chunkIndex int, r rowRange) {
				defer wg.Done()
				defer func() { <-sem }()
				generateChunk(ctx, tmpl, compileCtx, tableIndex, r, opts.Seed, chunkIndex, out)
			}(chunkIndex, r)
		}
		wg.Wait()
	}()
	return out, nil
}

func generateChunk(ctx context.Context, tmpl *Template, compileCtx *CompileContext, tableIndex int, r rowRange, metaSeed int64, chunkIndex int, out chan<- RowResult) {
	table := tmpl.Tables[tableIndex]
	rng := rand.New(rand.NewSource(deriveSubstreamSeed(metaSeed, int64(chunkIndex))))
	state := NewState(compileCtx, rng)

	for rowNum := r.start; rowNum <= r.end; rowNum++ {
		if err := ctx.Err(); err != nil {
			out <- RowResult{TableIndex: tableIndex, RowNum: rowNum, Err: &ContextCanceledError{Table: table.Name.String(), RowNum: rowNum, Cause: err}}
			return
		}
		state.RowNum = rowNum
		state.SubRowNum = 0
		for i := range state.Variables {
			state.Variables[i] = value.Null
		}

		values, err := table.Row.Eval(state)
		if err != nil {
			out <- RowResult{TableIndex: tableIndex, RowNum: rowNum, Err: fmt.Errorf("table %s row %d: %w", table.Name, rowNum, err)}
			return
		}
		out <- RowResult{TableIndex: tableIndex, RowNum: rowNum, Values: values}

		if err := generateDerivedRows(ctx, tmpl, table, state, rowNum, out); err != nil {
			out <- RowResult{TableIndex: tableIndex, RowNum: rowNum, Err: err}
			return
		}
	}
}

// generateDerivedRows evaluates every `FOR EACH ROW OF` child of table
// against the just-produced parent row's State (the child's count
// expression is evaluated on that State, and each sub-row starts from a
// copy of the parent row's variables), emitting SubRowNum 1..count
// rows for each child, recursively handling the child's own derived
// tables in turn.
func generateDerivedRows(ctx context.Context, tmpl *Template, table *Table, parentState *State, rowNum int64, out chan<- RowResult) error {
	for _, d := range table.Derived {
		childIndex, countExpr := d.Unpack()
		if childIndex < 0 || childIndex >= len(tmpl.Tables) {
			return fmt.Errorf("derived table index %d out of range", childIndex)
		}
		child := tmpl.Tables[childIndex]

		countValue, err := countExpr.Eval(parentState)
		if err != nil {
			return fmt.Errorf("table %s row %d: derived row count for %s: %w", table.Name, rowNum, child.Name, err)
		}
		count, err := value.AsInt64(countValue)
		if err != nil {
			return fmt.Errorf("table %s row %d: derived row count for %s: %w", table.Name, rowNum, child.Name, err)
		}

		childRng := rand.New(rand.NewSource(parentState.Rng.Int63()))
		childState := NewState(parentState.CompileCtx, childRng)
		childState.RowNum = rowNum

		for sub := int64(1); sub <= count; sub++ {
			if err := ctx.Err(); err != nil {
				return &ContextCanceledError{Table: child.Name.String(), RowNum: rowNum, Cause: err}
			}
			childState.SubRowNum = sub
			copy(childState.Variables, parentState.Variables)

			values, err := child.Row.Eval(childState)
			if err != nil {
				return fmt.Errorf("table %s row %d sub-row %d: %w", child.Name, rowNum, sub, err)
			}
			out <- RowResult{TableIndex: childIndex, RowNum: rowNum, SubRowNum: sub, Values: values}

			if err := generateDerivedRows(ctx, tmpl, child, childState, rowNum, out); err != nil {
				return err
			}
		}
	}
	return nil
}
