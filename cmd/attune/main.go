package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hpungsan/attune/internal/config"
	"github.com/hpungsan/attune/internal/db"
	"github.com/hpungsan/attune/internal/logging"
	"github.com/hpungsan/attune/internal/mcp"
	"github.com/hpungsan/attune/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"profile": true, "state": true, "questions": true,
	"theme": true, "reset": true, "onboard": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func printBanner() {
	fmt.Println(`
         _   _
    __ _| |_| |_ _   _ _ __   ___
   / _' | __| __| | | | '_ \ / _ \
  | (_| | |_| |_| |_| | | | |  __/
   \__,_|\__|\__|\__,_|_| |_|\___|

  Visitor personalization engine

  Usage: attune <command> [options]
         attune --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// No DB needed for help or version.
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".attune")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	// MCP mode owns stdout, so logs always go to stderr.
	log, err := logging.New(cfg.LogLevel, isCLIMode() && isTerminal())
	if err != nil {
		fatal("%v", err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	svc := ops.NewService(database, cfg, ops.Options{Logger: log})
	defer svc.Close()

	if isCLIMode() {
		app := newCLIApp(svc, cfg, log)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument on a terminal is a typo, not an MCP client.
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'attune --help' for usage.\n")
		os.Exit(1)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	if err := mcp.Run(svc, cfg, Version, log); err != nil {
		fatal("%v", err)
	}
}
