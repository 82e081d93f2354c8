// Command dbgen compiles a row-generation template and writes the
// generated INSERT statements for one table to stdout or a file.
//
// File-splitting across --rows-per-file/--inserts-per-file boundaries
// and the multi-file/thread-pool output layer that the upstream tool
// offers are explicitly out of scope for this port (spec.md marks
// "file and thread-pool I/O" as an external collaborator); this command
// exists to exercise the compiler, evaluator, and SQLWriter end to end,
// not to reproduce the original's file-chunking CLI surface.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ghazalfamilyusa/dbgen"
	"github.com/ghazalfamilyusa/dbgen/template"
)

var cli struct {
	Input         string `short:"i" default:"-" help:"Template file to read, or - for stdin."`
	Output        string `short:"o" default:"-" help:"File or directory to write generated INSERTs to, or - for stdout."`
	Seed          int64  `short:"s" default:"0" help:"Meta-seed for the random number generator."`
	Table         string `short:"t" help:"Name of the table to generate, required when the template declares more than one."`
	RowsCount     int64  `short:"N" default:"1" help:"Number of rows to generate."`
	RowsPerInsert int64  `short:"r" default:"1" help:"Number of rows batched per INSERT statement."`
	RowsPerFile   int64  `short:"R" default:"0" help:"Accepted for compatibility with dbschemagen scripts; all rows are written to a single file."`
	ChunkSize     int64  `default:"1000" help:"Number of rows generated per goroutine chunk."`
	Concurrency   int    `short:"c" default:"1" help:"Number of chunks generated in parallel."`
}

func main() {
	kong.Parse(&cli, kong.Description("Generate deterministic synthetic SQL INSERT statements from a template."))
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dbgen:", err)
		os.Exit(1)
	}
}

func run() error {
	src, err := readInput(cli.Input)
	if err != nil {
		return &dbgen.IOError{Action: "read", Path: cli.Input, Cause: err}
	}

	tmpl, err := template.Parse(src)
	if err != nil {
		return &dbgen.ParseTemplateError{Cause: err}
	}

	compileCtx := dbgen.NewCompileContext()
	compiled, err := compileCtx.CompileTemplate(tmpl)
	if err != nil {
		return err
	}

	tableIndex, err := resolveTableIndex(compiled, cli.Table)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cli.Output, compiled.Tables[tableIndex])
	if err != nil {
		return &dbgen.IOError{Action: "write", Path: cli.Output, Cause: err}
	}
	defer closeOut()

	bufw := bufio.NewWriter(out)
	defer bufw.Flush()
	writer := dbgen.NewSQLWriter(bufw)

	return generate(compiled, compileCtx, tableIndex, writer)
}

func generate(compiled *dbgen.Template, compileCtx *dbgen.CompileContext, tableIndex int, writer *dbgen.SQLWriter) error {
	table := compiled.Tables[tableIndex]
	if err := writer.WriteFileHeader(table); err != nil {
		return err
	}

	opts := dbgen.GenerateOptions{Seed: cli.Seed, ChunkSize: cli.ChunkSize, Concurrency: cli.Concurrency}
	rows, err := dbgen.GenerateTable(context.Background(), compiled, compileCtx, tableIndex, cli.RowsCount, opts)
	if err != nil {
		return err
	}

	inGroup := false
	rowInGroup := int64(0)
	for r := range rows {
		if r.Err != nil {
			return r.Err
		}
		if r.TableIndex != tableIndex {
			// A derived (FOR EACH ROW OF) row belonging to a different
			// table; this command only renders the requested table.
			continue
		}
		if !inGroup {
			if err := writer.WriteRowGroupHeader(table); err != nil {
				return err
			}
			inGroup = true
			rowInGroup = 0
		} else {
			if err := writer.WriteRowSeparator(); err != nil {
				return err
			}
		}
		for i, v := range r.Values {
			if i > 0 {
				if err := writer.WriteValueSeparator(); err != nil {
					return err
				}
			}
			if err := writer.WriteValueHeader(table.Columns[i]); err != nil {
				return err
			}
			if err := writer.WriteValue(v); err != nil {
				return err
			}
		}
		rowInGroup++
		if rowInGroup >= cli.RowsPerInsert {
			if err := writer.WriteRowGroupTrailer(); err != nil {
				return err
			}
			inGroup = false
		}
	}
	if inGroup {
		if err := writer.WriteRowGroupTrailer(); err != nil {
			return err
		}
	}
	return nil
}

func resolveTableIndex(compiled *dbgen.Template, name string) (int, error) {
	if len(compiled.Tables) == 1 {
		if name != "" && compiled.Tables[0].Name.UniqueName() != name && compiled.Tables[0].Name.Name(false) != name {
			return -1, fmt.Errorf("table %q not found in template", name)
		}
		return 0, nil
	}
	if name == "" {
		return -1, &dbgen.CannotUseTableNameForMultipleTablesError{}
	}
	for i, t := range compiled.Tables {
		if t.Name.UniqueName() == name || t.Name.Name(false) == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("table %q not found in template", name)
}

func readInput(path string) (string, error) {
	var r io.Reader
	if path == "-" || path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// openOutput opens path for writing. When path is an existing directory
// (as in the `-o .` form dbschemagen scripts emit), the table's rows go
// to <dir>/<table>.1.sql.
func openOutput(path string, table *dbgen.Table) (io.Writer, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name := strings.ReplaceAll(table.Name.UniqueName(), `"`, "")
		path = filepath.Join(path, name+".1.sql")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
