package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hexarch/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

// errCheckFailed reports a completed run that found violations. The
// violations are already printed, so nothing else is written for it.
var errCheckFailed = errors.New("check failed")

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errCheckFailed):
		return exitFailed
	}

	if errorOutputFormat(rootCmd) == config.OutputJSON {
		_ = printJSON(stdout, map[string]any{"error": err.Error()})
	} else {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitError
}

// rootFlags holds persistent flag values. A flag only overrides the
// environment when it was set explicitly.
type rootFlags struct {
	dir          string
	configPath   string
	output       string
	logLevel     string
	loader       string
	workers      int
	includeTests bool
	envFile      string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "hexarch",
		Short:         "Hexagonal architecture checker for Go modules",
		Long:          "Checks that a Go module's import graph follows its declared hexagonal architecture.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolve(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "C", ".", "module root to analyse")
	pf.StringVarP(&flags.configPath, "config", "c", "", "architecture declaration (env HEXARCH_CONFIG, default hexarch.yaml)")
	pf.StringVarP(&flags.output, "output", "o", "", "output format: text, json (env HEXARCH_OUTPUT)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (env HEXARCH_LOG_LEVEL)")
	pf.StringVar(&flags.loader, "loader", "", "package loader: source, packages (env HEXARCH_LOADER)")
	pf.IntVar(&flags.workers, "workers", 0, "parallel workers (env HEXARCH_WORKERS, default GOMAXPROCS)")
	pf.BoolVar(&flags.includeTests, "include-tests", false, "include _test.go files (env HEXARCH_INCLUDE_TESTS)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file read before the environment, relative to --dir")

	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newRulesCmd(a))
	rootCmd.AddCommand(newGraphCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newGovernCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve resolves configuration: flag > environment (.env included) > default.
func (a *app) resolve(cmd *cobra.Command, flags rootFlags) error {
	a.dir = flags.dir
	if flags.envFile != "" {
		if err := config.LoadDotEnv(a.path(flags.envFile)); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	applyFlagOverrides(cmd.Flags(), flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}
	return nil
}

func applyFlagOverrides(fs *pflag.FlagSet, flags rootFlags, cfg *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			cfg.ConfigPath = flags.configPath
		case "output":
			cfg.Output = flags.output
		case "log-level":
			cfg.LogLevel = flags.logLevel
		case "loader":
			cfg.Loader = flags.loader
		case "workers":
			cfg.Workers = flags.workers
		case "include-tests":
			cfg.IncludeTests = flags.includeTests
		}
	})
}

// errorOutputFormat picks the format for reporting a failed command, which
// may have failed before configuration was resolved.
func errorOutputFormat(rootCmd *cobra.Command) string {
	if v, err := rootCmd.PersistentFlags().GetString("output"); err == nil && v != "" {
		return v
	}
	return os.Getenv("HEXARCH_OUTPUT")
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
