package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/logging"
	"github.com/hpungsan/shrule/internal/mcp"
	"github.com/hpungsan/shrule/internal/ops"
	"github.com/hpungsan/shrule/internal/web"
)

// env carries the dependencies shared by all commands. The logger is replaced by
// the --log-level flag before any command runs.
type env struct {
	db  *sql.DB
	cfg *config.Config
	log *zap.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &env{db: db, cfg: cfg, log: log}

	app := &cli.App{
		Name:  "shrule",
		Usage: "Turn shournal command history into Snakemake rules",
		UsageText: "shournal --query --output-format json --history 5 | shrule [options]\n" +
			"shrule <command> [options]",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warning|error (default from config)"},
		},
		Before: func(c *cli.Context) error {
			if !c.IsSet("log-level") {
				return nil
			}
			logger, err := logging.NewWriter(c.String("log-level"), c.App.ErrWriter)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			e.log = logger
			return nil
		},
		Commands: []*cli.Command{
			convertCmd(e),
			tokenizeCmd(e),
			rewriteCmd(e),
			listCmd(e),
			showCmd(e),
			exportCmd(e),
			deleteCmd(e),
			mcpCmd(e),
			uiCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// convertCmd creates the convert command, the default when no command is given.
func convertCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert shournal JSON output (file or stdin) into a Snakefile",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rfiles-outside-cwd", Usage: "Keep read files outside the working directory (default from config: on)"},
			&cli.BoolFlag{Name: "no-rfiles-outside-cwd", Usage: "Drop read files outside the working directory"},
			&cli.BoolFlag{Name: "wfiles-outside-cwd", Usage: "Keep written files outside the working directory (default from config: off)"},
			&cli.BoolFlag{Name: "no-wfiles-outside-cwd", Usage: "Drop written files outside the working directory"},
			&cli.StringFlag{Name: "rule-prefix", Aliases: []string{"p"}, Usage: "Prefix of generated rule names"},
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Store the rules as a rule set"},
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Value: "default", Usage: "Workspace of the stored rule set"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title of the stored rule set"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full result as JSON instead of the Snakefile"},
		},
		Action: func(c *cli.Context) error {
			keepReads, err := yesNoFlag(c, "rfiles-outside-cwd")
			if err != nil {
				return outputError(err)
			}
			keepWrites, err := yesNoFlag(c, "wfiles-outside-cwd")
			if err != nil {
				return outputError(err)
			}

			in, err := openInput(c)
			if err != nil {
				return outputError(err)
			}
			defer in.Close()

			input := ops.ConvertInput{
				Input:                in,
				KeepReadsOutsideCwd:  keepReads,
				KeepWritesOutsideCwd: keepWrites,
				RulePrefix:           c.String("rule-prefix"),
				Save:                 c.Bool("save"),
				Workspace:            c.String("workspace"),
			}
			if title := c.String("title"); title != "" {
				input.Title = &title
			}

			output, err := ops.Convert(c.Context, e.db, e.cfg, e.log, input)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			if output.ID != "" {
				fmt.Fprintf(c.App.ErrWriter, "saved rule set %s\n", output.ID)
			}
			_, err = io.WriteString(c.App.Writer, output.Snakefile)
			return err
		},
	}
}

// tokenizeCmd creates the tokenize command.
func tokenizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "tokenize",
		Usage:     "Print the tokens of a shell command as JSON",
		ArgsUsage: "<command>",
		Action: func(c *cli.Context) error {
			output, err := ops.Tokenize(e.cfg, ops.TokenizeInput{Command: joinArgs(c)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// rewriteCmd creates the rewrite command.
func rewriteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Rewrite one shell command into a Snakemake rule",
		ArgsUsage: "<command>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cwd", Usage: "Directory the command ran in (default: current directory)"},
			&cli.StringSliceFlag{Name: "read", Aliases: []string{"r"}, Usage: "Path the command read (repeatable)"},
			&cli.StringSliceFlag{Name: "write", Aliases: []string{"o"}, Usage: "Path the command wrote (repeatable)"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Rule name"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full result as JSON instead of the rule"},
		},
		Action: func(c *cli.Context) error {
			cwd := c.String("cwd")
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				cwd = wd
			}

			output, err := ops.Rewrite(e.cfg, e.log, ops.RewriteInput{
				Command:    joinArgs(c),
				WorkingDir: cwd,
				Reads:      c.StringSlice("read"),
				Writes:     c.StringSlice("write"),
				Name:       c.String("name"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			_, err = io.WriteString(c.App.Writer, output.Snakefile)
			return err
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored rule sets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Only this workspace (default: all)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
			&cli.IntFlag{Name: "offset", Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.db, ops.ListInput{
				Workspace: c.String("workspace"),
				Limit:     c.Int("limit"),
				Offset:    c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a stored rule set as a Snakefile",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the rule set as JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, e.db, e.cfg, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			_, err = io.WriteString(c.App.Writer, output.Snakefile)
			return err
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a stored rule set to a Snakefile",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Destination named Snakefile or *.smk (default: ~/.shrule/exports/<workspace>-<id>.smk)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.db, e.cfg, ops.ExportInput{
				ID:   c.Args().First(),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a stored rule set",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, e.db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the shrule tools over MCP (stdio)",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(e.db, e.cfg, e.log, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Browse stored rule sets in a web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8743, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(e.db, e.cfg, e.log, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(c.Context, srv, e.log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// openInput opens the file named by the first argument, or stdin when there is
// none or it is "-".
func openInput(c *cli.Context) (io.ReadCloser, error) {
	path := c.Args().First()
	if path == "" || path == "-" {
		if c.App.Reader == os.Stdin && !stdinHasData() {
			return nil, errors.NewInvalidRequest(
				"no input: pipe shournal output (shournal --query --output-format json ...) or pass a file")
		}
		return io.NopCloser(c.App.Reader), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewInternal(err)
	}
	return f, nil
}

// yesNoFlag resolves the --name / --no-name pair. It returns nil when neither is
// given.
func yesNoFlag(c *cli.Context, name string) (*bool, error) {
	yes, no := c.IsSet(name), c.IsSet("no-"+name)
	switch {
	case yes && no:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("--%s and --no-%s cannot be combined", name, name))
	case yes:
		v := c.Bool(name)
		return &v, nil
	case no:
		v := !c.Bool("no-" + name)
		return &v, nil
	}
	return nil, nil
}

// joinArgs joins the positional arguments into one command line.
func joinArgs(c *cli.Context) string {
	return strings.Join(c.Args().Slice(), " ")
}

// outputJSON marshals v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	var sErr *errors.ShruleError
	if stderrors.As(err, &sErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
