package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/comments/internal/api"
	"github.com/idilsaglam/comments/internal/auth"
	"github.com/idilsaglam/comments/internal/config"
	"github.com/idilsaglam/comments/internal/controller"
	"github.com/idilsaglam/comments/internal/tui"
	"github.com/idilsaglam/comments/internal/ui"
)

// Options wire the runner to its environment. Zero values mean the process's
// standard streams.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// usageError marks errors that should exit with code 2.
type usageError struct{ error }

func usagef(format string, a ...any) error {
	return usageError{fmt.Errorf(format, a...)}
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{fmt.Errorf("%w (usage: %s)", err, cmd.UseLine())}
		}
		return nil
	}
}

type app struct {
	opt Options

	configPath string
	baseURL    string
	theme      string
	color      bool
	noColor    bool

	cfg     *config.Config
	logFile io.Closer
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	ui.SetOutput(opt.Stdout, opt.Stderr)

	a := &app{opt: opt}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(opt.Stdin)
	root.SetOut(opt.Stdout)
	root.SetErr(opt.Stderr)

	err := root.ExecuteContext(context.Background())
	a.closeLog()
	if err == nil {
		return 0
	}

	var ue usageError
	if errors.As(err, &ue) {
		ui.Fail(err.Error())
		fmt.Fprintln(opt.Stderr, "Run `comments --help` for usage.")
		return 2
	}
	ui.Fail(err.Error())
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "comments",
		Short: "Browse and edit a remote comment list",
		Long: `comments - a tiny client for a /comments REST endpoint

Without a subcommand it opens the interactive list:
  a add   e update   d delete   / filter   q quit

Changes show up at once and are rolled back if the server refuses them.`,
		Example: `  comments
  comments ls --limit 5
  comments update 3
  comments rm 3
  comments serve --fail delete
  comments --base-url http://127.0.0.1:3000`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runInteractive,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.comments/config.yaml)")
	pf.StringVar(&a.baseURL, "base-url", "", "endpoint root, e.g. https://jsonplaceholder.typicode.com")
	pf.StringVar(&a.theme, "theme", "", "output theme: classic, neon or mono")
	pf.BoolVar(&a.color, "color", false, "force colored output")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.lsCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.rmCmd(),
		a.openCmd(),
		a.serveCmd(),
		a.authCmd(),
	)
	return root
}

// setup loads configuration and routes the standard logger before any
// command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Override(a.baseURL, a.theme); err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetColorForcing(a.color, a.noColor)
	ui.SetTheme(cfg.Theme)

	if cfg.DebugLog != "" {
		f, err := tea.LogToFile(cfg.DebugLog, "comments")
		if err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		a.logFile = f
	} else {
		log.SetOutput(io.Discard)
	}
	return nil
}

func (a *app) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) newClient() *api.Client {
	opts := []api.Option{api.WithTimeout(a.cfg.RequestTimeout)}
	ti, err := auth.GetToken()
	if err != nil {
		log.Printf("comments: ignoring unreadable credentials: %v", err)
	}
	if ti != nil {
		opts = append(opts, api.WithToken(ti.Token))
	}
	return api.New(a.cfg.BaseURL, opts...)
}

func (a *app) runInteractive(cmd *cobra.Command, _ []string) error {
	ctrl := controller.New(a.newClient())
	err := tui.Run(cmd.Context(), ctrl,
		tea.WithAltScreen(),
		tea.WithInput(a.opt.Stdin),
		tea.WithOutput(a.opt.Stdout),
	)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	fmt.Fprintln(a.opt.Stdout, tui.Summary(ctrl))
	return nil
}

// await runs a controller command on the calling goroutine and folds its
// result back in.
func await(ctrl *controller.List, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	ctrl.Apply(cmd())
}
