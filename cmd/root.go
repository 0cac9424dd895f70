// =============================================================================
// YPBank Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ypbank)
//   ├── convertCmd  (ypbank convert)
//   ├── compareCmd  (ypbank compare)
//   ├── validateCmd (ypbank validate)
//   ├── formatsCmd  (ypbank formats)
//   ├── configCmd   (ypbank config show|validate)
//   └── versionCmd  (ypbank version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration (file, environment, flags)
//   2. Sets up logging on stderr
//
// EXIT CODES:
//   See errors.go.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ginjaninja78/ypbank-converter/internal/config"
	"github.com/ginjaninja78/ypbank-converter/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg is the merged configuration, loaded before any subcommand runs.
var cfg = config.Default()

// logger is the process logger, set up before any subcommand runs.
var logger = slog.Default()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ypbank",
	Short: "YPBank Converter - convert and compare bank transaction histories",
	Long: `YPBank Converter reads and writes bank transaction histories in several
formats and compares histories across formats.

Formats:
  csv   - comma-separated table with a header row
  bin   - compact little-endian binary frames
  text  - human-readable KEY: VALUE blocks
  xlsx  - Excel workbook, one row per transaction
  xml   - <transactions> document

Example Usage:
  ypbank convert -i history.csv -o history.bin
  ypbank convert --input-dir ./in --output-format xml --output-dir ./out
  ypbank compare --file1 history.csv --file2 history.bin
  ypbank validate -i history.txt --strict`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits with the code of its error.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line args and returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// initConfig loads the configuration and sets up logging.
func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(config.LoadOptions{
		Path:     cfgFile,
		Required: cmd.Flags().Changed("config"),
		Flags:    cmd.Flags(),
	})
	if err != nil {
		return usageError(err)
	}
	if verbose {
		loaded.LogLevel = "debug"
	}

	l, err := logging.Setup(logging.Options{
		Level:  loaded.LogLevel,
		Format: loaded.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError(err)
	}

	cfg = loaded
	logger = l.With(slog.String("command", cmd.Name()))
	logger.Debug("configuration loaded", slog.String("config", cfgFile))
	return nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.
	// Flags named after configuration keys override the file and the
	// environment when they are set.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (optional unless set)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().String("xlsx-sheet", "Transactions", "Worksheet used by the xlsx format")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
}
