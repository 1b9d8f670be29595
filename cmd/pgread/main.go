package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/willibrandon/pgread/internal/config"
	"github.com/willibrandon/pgread/internal/db"
	"github.com/willibrandon/pgread/internal/db/queries"
	"github.com/willibrandon/pgread/internal/logger"
	"github.com/willibrandon/pgread/internal/output"
	"github.com/willibrandon/pgread/internal/reader"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitConfigError      = 2
	ExitConnectionFailed = 3
	ExitQueryFailed      = 4
)

var (
	// Version info (set by ldflags)
	version = "dev"
)

// options holds the command line flags.
type options struct {
	envFile string
	format  string
	logFile string
	debug   bool
	quiet   bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	code := ExitSuccess
	rootCmd := newRootCmd(stdout, stderr, &code)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// flag and argument errors; cobra already printed them
		return ExitFailure
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "pgread",
		Short: "Print every row of the users table",
		Long: `pgread connects to PostgreSQL, runs SELECT id, name, age FROM users and
prints one line per row to standard output.

Connection settings are read from the environment, with ./.env as a fallback:
  DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD   required
  DB_SSLMODE                                         optional
  DB_DRIVER        pgx (default), postgres or sqlx
  PGREAD_FORMAT    text (default), json, yaml or table
  PGREAD_LOG_FILE  log file (default ~/.config/pgread/pgread.log)

Exit codes:
  0  success
  1  unexpected failure
  2  configuration error
  3  connection failed
  4  query failed`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*code = run(cmd, opts, stdout, stderr)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "env file with connection settings (default ./.env)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: text, json, yaml or table")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "log file path (default ~/.config/pgread/pgread.log)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress messages on stderr")

	return cmd
}

// run loads configuration, reads the users table and reports the outcome.
func run(cmd *cobra.Command, opts options, stdout, stderr io.Writer) int {
	status := output.NewStatus(stderr, opts.quiet)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		status.Failed(err, "")
		return exitCode(err)
	}

	// Initialize logger
	logLevel := logger.LevelInfo
	if cfg.Debug {
		logLevel = logger.LevelDebug
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = config.DefaultLogPath()
	}
	logger.InitLogger(logLevel, logFile)
	defer logger.Close()
	if logger.IsDebugEnabled() {
		fmt.Fprintf(stderr, "Debug mode: Logs written to %s\n", logFile)
		logger.Debug("pgread starting", "version", version, "env_file", opts.envFile, "format", cfg.Format)
	}

	formatter, err := output.New(cfg.Format)
	if err != nil {
		status.Failed(err, "")
		return ExitConfigError
	}

	// Handle signals so an interrupted run still closes its connection
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := reader.New(cfg.Connection,
		reader.WithFormatter(formatter),
		reader.WithOutput(stdout),
		reader.WithStatus(status),
	)

	if _, err := r.Run(ctx); err != nil {
		status.Failed(err, db.Hint(err))
		return exitCode(err)
	}

	return ExitSuccess
}

// loadConfig reads the environment and env file, then applies flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if opts.envFile != "" {
		cfg, err = config.LoadFromPath(opts.envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if flags.Changed("quiet") {
		cfg.Quiet = opts.quiet
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, db.ErrConnectionFailed):
		return ExitConnectionFailed
	case errors.Is(err, queries.ErrQueryFailed):
		return ExitQueryFailed
	default:
		return ExitFailure
	}
}
