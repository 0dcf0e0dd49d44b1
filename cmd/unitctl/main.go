// Command unitctl is the command-line front door onto the unit
// resolver engine, in the shape of the teacher's cmd/mysqldef: a
// go-flags options struct plus subcommands for the engine's three
// external operations.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/unitsys/resolver/audit"
	auditmssql "github.com/unitsys/resolver/audit/mssql"
	auditmysql "github.com/unitsys/resolver/audit/mysql"
	auditpostgres "github.com/unitsys/resolver/audit/postgres"
	auditsqlite3 "github.com/unitsys/resolver/audit/sqlite3"
	"github.com/unitsys/resolver/cache"
	"github.com/unitsys/resolver/unit"
	"github.com/unitsys/resolver/util"
)

var version string

// auditOptions mirrors the teacher's per-driver connection flags and
// its --password-prompt -> term.ReadPassword flow.
type auditOptions struct {
	Driver         string `long:"audit-driver" description:"Audit sink driver (mysql, postgres, mssql, sqlite3); omit for no auditing" value-name:"driver"`
	DSN            string `long:"audit-dsn" description:"Audit sink DSN (sqlite3: a file path)" value-name:"dsn"`
	PasswordPrompt bool   `long:"audit-password-prompt" description:"Force an audit sink password prompt, appended to --audit-dsn"`
}

func (o *auditOptions) buildSink(ctx context.Context) (audit.Sink, error) {
	if o.Driver == "" {
		return audit.NullSink{}, nil
	}

	dsn := o.DSN
	if o.PasswordPrompt {
		fmt.Print("Enter audit sink password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		dsn += string(pass)
	}

	switch strings.ToLower(o.Driver) {
	case "mysql":
		return auditmysql.NewSinkDSN(ctx, dsn)
	case "postgres", "postgresql":
		return auditpostgres.NewSinkDSN(ctx, dsn)
	case "mssql", "sqlserver":
		return auditmssql.NewSinkDSN(ctx, dsn)
	case "sqlite3", "sqlite":
		return auditsqlite3.NewSink(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", o.Driver)
	}
}

type commonOptions struct {
	Config string `long:"config" description:"Unit system configuration file (.json, .yaml or .yml)" required:"true" value-name:"file"`
	Debug  bool   `long:"debug" description:"Pretty-print the result via k0kubun/pp (resolve: the UnitInfo; convert: factor, offset and result)"`
	auditOptions
}

func (o *commonOptions) buildSystem(ctx context.Context) (*unit.System, audit.Sink, error) {
	cfg, err := unit.LoadConfigFile(o.Config)
	if err != nil {
		return nil, nil, err
	}
	sink, err := o.buildSink(ctx)
	if err != nil {
		return nil, nil, err
	}
	sys, err := unit.NewSystem(cfg, unit.WithAuditSink(sink))
	if err != nil {
		sink.Close()
		return nil, nil, err
	}
	return sys, sink, nil
}

type resolveCommand struct {
	commonOptions
	Args struct {
		Expression string `positional-arg-name:"expression" required:"true"`
	} `positional-args:"yes"`
}

func (c *resolveCommand) Execute(args []string) error {
	ctx := context.Background()
	sys, sink, err := c.buildSystem(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	u, err := sys.Create(c.Args.Expression)
	if err != nil {
		return err
	}
	if c.Debug {
		pp.Println(u.Info())
	} else {
		fmt.Printf("%s -> exponents=%v factor=%g offset=%g\n", u, u.Info().Exponents, u.Info().Factor, u.Info().Offset)
	}
	return nil
}

type convertCommand struct {
	commonOptions
	Args struct {
		Value float64 `positional-arg-name:"value" required:"true"`
		From  string  `positional-arg-name:"from" required:"true"`
		To    string  `positional-arg-name:"to" required:"true"`
	} `positional-args:"yes"`
}

func (c *convertCommand) Execute(args []string) error {
	ctx := context.Background()
	sys, sink, err := c.buildSystem(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	from, err := sys.Create(c.Args.From)
	if err != nil {
		return err
	}
	to, err := sys.Create(c.Args.To)
	if err != nil {
		return err
	}
	factor, offset, err := from.ConversionTo(to)
	if err != nil {
		return err
	}
	result := c.Args.Value*factor + offset
	if c.Debug {
		pp.Println(map[string]float64{"factor": factor, "offset": offset, "result": result})
	} else {
		fmt.Printf("%g %s = %g %s\n", c.Args.Value, from, result, to)
	}
	return nil
}

type prewarmCommand struct {
	commonOptions
	Concurrency int `long:"concurrency" description:"Bounded concurrency for the prewarm pass (0 = serial, negative = unlimited)" default:"4"`
	Args        struct {
		File string `positional-arg-name:"file" required:"true" description:"File of newline-separated expressions"`
	} `positional-args:"yes"`
}

func (c *prewarmCommand) Execute(args []string) error {
	ctx := context.Background()
	sys, sink, err := c.buildSystem(ctx)
	if err != nil {
		return err
	}
	defer sink.Close()

	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Args.File, err)
	}
	var expressions []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			expressions = append(expressions, line)
		}
	}

	failures := cache.Prewarm(expressions, c.Concurrency, func(expr string) (*unit.Unit, error) {
		return sys.Create(expr)
	})
	fmt.Printf("prewarmed %d/%d expressions (%d failed)\n", len(expressions)-len(failures), len(expressions), len(failures))
	for expr, err := range failures {
		fmt.Printf("  %s: %v\n", expr, err)
	}
	slog.Info("prewarm complete", "total", len(expressions), "failed", len(failures), "cached", sys.CacheLen())
	return nil
}

type options struct {
	Version bool `long:"version" description:"Show this version"`
}

func main() {
	util.InitSlog()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[options] <resolve|convert|prewarm> ..."

	if _, err := parser.AddCommand("resolve", "Resolve a unit expression", "Parses and resolves a single unit expression against a configured dictionary.", &resolveCommand{}); err != nil {
		log.Fatal(err)
	}
	if _, err := parser.AddCommand("convert", "Convert a value between units", "Resolves both units and applies the affine conversion to a value.", &convertCommand{}); err != nil {
		log.Fatal(err)
	}
	if _, err := parser.AddCommand("prewarm", "Resolve a batch of expressions into the cache", "Drives the concurrent cache prewarmer over a file of newline-separated expressions.", &prewarmCommand{}); err != nil {
		log.Fatal(err)
	}

	args, err := parser.Parse()
	if err != nil {
		if opts.Version {
			fmt.Println(version)
			os.Exit(0)
		}
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatal(err)
	}

	if opts.Version {
		fmt.Println(version)
		return
	}
	_ = args
}
