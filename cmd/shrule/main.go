package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/db"
	"github.com/hpungsan/shrule/internal/logging"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"convert": true, "tokenize": true, "rewrite": true,
	"list": true, "show": true, "export": true, "delete": true,
	"mcp": true, "ui": true,
	"help": true, "h": true,
}

// globalValueFlags are app-level flags that take a separate value.
var globalValueFlags = map[string]bool{"--log-level": true}

// withDefaultCommand inserts "convert" when no known command is given, so that
// `shournal ... | shrule` and `shrule history.json` work.
func withDefaultCommand(args []string) []string {
	i := 1
	for i < len(args) {
		arg := args[i]
		if globalValueFlags[arg] {
			i += 2
			continue
		}
		if strings.HasPrefix(arg, "--log-level=") {
			i++
			continue
		}
		break
	}
	if i < len(args) && (cliCommands[args[i]] || isHelpOrVersionArg(args[i])) {
		return args
	}

	out := make([]string, 0, len(args)+1)
	out = append(out, args[:min(i, len(args))]...)
	out = append(out, "convert")
	if i < len(args) {
		out = append(out, args[i:]...)
	}
	return out
}

func isHelpOrVersionArg(arg string) bool {
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return isHelpOrVersionArg(args[1]) || args[1] == "help"
}

func main() {
	args := withDefaultCommand(os.Args)

	// Handle --help/--version before config and DB init
	if isHelpOrVersion(args) {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	app := newCLIApp(database, cfg, log)
	runErr := app.Run(args)
	database.Close()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
