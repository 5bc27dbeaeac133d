package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries state shared by every subcommand once PersistentPreRunE has run
type app struct {
	configFile  string
	logLevel    string
	logFormat   string
	scenarioDir string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// Execute runs the prodplan CLI and exits with a code derived from the error
func Execute() {
	root := newRootCommand(os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}
	cmd := &cobra.Command{
		Use:           "prodplan",
		Short:         "Specification explosion and production stage planning",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file path (default: prodplan.yaml in ./configs or .)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: json or console")
	flags.StringVar(&a.scenarioDir, "scenario", "", "Serve the catalog from a CSV scenario directory instead of the database")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newTreeCommand(a))
	cmd.AddCommand(newStagesCommand(a))
	cmd.AddCommand(newPlanCommand(a))
	cmd.AddCommand(newImportCommand(a))
	cmd.AddCommand(newValidateCommand(a))
	cmd.AddCommand(newGenerateCommand(a))
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeInvalidArgument {
			return err
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load configuration").
			WithCause(err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid logging configuration").
			WithCause(err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodeNotFound:
		return 5
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
