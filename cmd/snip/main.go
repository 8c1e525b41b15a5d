package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/logging"
	"github.com/hpungsan/snip/internal/mcp"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "update": true, "delete": true, "clone": true, "show": true,
	"list": true, "search": true, "compose": true,
	"categories": true, "labels": true, "cleanup": true, "refresh": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
// Global flags may precede the subcommand, so every argument is checked.
func isCLIMode() bool {
	for _, arg := range os.Args[1:] {
		if cliCommands[arg] {
			return true
		}
		if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false // Default → MCP server
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
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _ __  (_)_ __
  / __| '_ \ | | '_ \
  \__ \ | | || | |_) |
  |___/_| |_||_| .__/
               |_|

  Prompt snippet manager

  Usage: snip <command> [options]
         snip --help

  MCP server mode requires piped input.`)
}

// env is everything a command needs once the data directory is open.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Session
}

// envOptions are the global flags that affect how env is built.
type envOptions struct {
	globalDir string // ~/.snip
	startDir  string // where the repo config search starts
	dataDir   string // --data-dir override
	verbose   bool
}

// openEnv loads config, builds the logger and opens the data directory.
func openEnv(opts envOptions) (*env, error) {
	cfg, err := config.LoadWithRepo(opts.globalDir, opts.startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	dataDir := cfg.ResolveDataDir(opts.globalDir)
	r, err := repo.Open(dataDir, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open data directory %s: %w", dataDir, err)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		session: session.New(r, logger.Named("session")),
	}, nil
}

// close flushes buffered log entries.
func (e *env) close() {
	_ = e.logger.Sync()
}

// serve runs the MCP server over stdio.
func (e *env) serve() error {
	if unknown := mcp.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
		e.logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(e.cfg.DisabledTypes); len(unknown) > 0 {
		e.logger.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}
	e.logger.Info("mcp server starting", zap.String("version", Version))
	return mcp.Run(e.session, e.cfg, Version, e.logger.Named("mcp"))
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	cwd, _ := os.Getwd()
	opts := envOptions{
		globalDir: filepath.Join(homeDir, config.RepoDirName),
		startDir:  cwd,
	}

	// CLI mode: known subcommand, help or version
	if isCLIMode() || isHelpOrVersion() {
		app := newCLIApp(opts)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'snip --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	e, err := openEnv(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer e.close()

	if err := e.serve(); err != nil {
		e.logger.Error("mcp server stopped", zap.Error(err))
		e.close()
		os.Exit(1)
	}
}
