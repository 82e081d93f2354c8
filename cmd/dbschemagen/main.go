// Command dbschemagen synthesizes a random database schema and emits a
// shell script that invokes dbgen once per table to populate it, per
// the algorithm in spec.md §4.5.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ghazalfamilyusa/dbgen/schemagen"
)

var cli struct {
	SchemaName   string   `short:"s" required:"" help:"Schema name."`
	Size         float64  `short:"z" required:"" help:"Estimated total database dump size in bytes."`
	TablesCount  int      `short:"t" required:"" help:"Number of tables to generate."`
	Dialect      string   `short:"d" required:"" help:"SQL dialect: mysql, postgresql, or sqlite."`
	InsertsCount uint64   `short:"n" default:"1000" help:"Number of INSERT statements per file."`
	RowsCount    uint64   `short:"r" default:"100" help:"Number of rows per INSERT statement."`
	Seed         int64    `help:"Random number generator seed."`
	DbgenExe     string   `name:"dbgen-exe" default:"dbgen" help:"Name of the dbgen executable to invoke."`
	Args         []string `arg:"" optional:"" help:"Additional arguments passed to every dbgen invocation."`
}

const versionString = "0.1.0"

func main() {
	kong.Parse(&cli, kong.Description("Synthesize a random database schema and a dbgen invocation script for it."))
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dbschemagen:", err)
		os.Exit(1)
	}
}

func run() error {
	dialect, err := schemagen.ParseDialect(cli.Dialect)
	if err != nil {
		return err
	}

	opts := schemagen.ScriptOptions{
		SchemaName:    cli.SchemaName,
		Size:          cli.Size,
		TablesCount:   cli.TablesCount,
		Dialect:       dialect,
		InsertsCount:  cli.InsertsCount,
		RowsCount:     cli.RowsCount,
		Seed:          cli.Seed,
		ExtraArgs:     cli.Args,
		DbgenExeName:  cli.DbgenExe,
		VersionString: versionString,
	}
	return schemagen.PrintScript(os.Stdout, opts)
}
