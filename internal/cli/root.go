package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/alyx-executor/internal/builtin"
	"github.com/watzon/alyx-executor/internal/config"
	"github.com/watzon/alyx-executor/internal/functions"
	"github.com/watzon/alyx-executor/internal/sdk"
)

var (
	cfgFile      string
	verbose      bool
	functionsDir string

	cfg *config.Config
)

// version is set at build time with -ldflags.
var version = "0.1.0-dev"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "alyx-executor",
	Short: "Function executor for Alyx",
	Long: `alyx-executor runs Alyx serverless functions.

Functions live in a directory, one per manifest:

  functions/
    echo/function.yaml     # directory-style function
    greet.yaml             # single-file function

A manifest binds a function either to a built-in Go handler or to a CEL
expression, and may declare an input schema that is checked before the
function runs.

Start the executor:
  alyx-executor serve

Run a function once without the HTTP listener:
  alyx-executor invoke echo --input '{"name":"Ann"}'`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("functions") {
			loaded.Functions.Path = functionsDir
		}
		cfg = loaded
		setupLogging(cfg.Logging, os.Stderr)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./alyx-executor.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&functionsDir, "functions", "", "functions directory (overrides functions.path)")
}

// setupLogging configures the global zerolog logger.
func setupLogging(lc config.LoggingConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}

	ctx := zerolog.New(out).With()
	if lc.Timestamp {
		ctx = ctx.Timestamp()
	}
	if lc.Caller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}

// newService wires the builtin handlers into a function service for cfg.
func newService(cfg *config.Config) (*functions.Service, error) {
	handlers := functions.NewHandlerSet()
	if err := builtin.Register(handlers); err != nil {
		return nil, fmt.Errorf("registering builtin handlers: %w", err)
	}

	return functions.NewService(functions.ServiceConfig{
		Root:     cfg.Functions.Path,
		Handlers: handlers,
		Ignore:   cfg.Functions.Ignore,
		Client:   sdk.NewHTTPClient(cfg.InternalAPI.Timeout),
	})
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("alyx-executor version %s", version)
}
