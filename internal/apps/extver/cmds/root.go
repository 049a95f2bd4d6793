package extver

import (
	appconfig "github.com/0xa1bed0/extver/internal/apps/extver/config"
	"github.com/0xa1bed0/extver/internal/fsops"
	"github.com/0xa1bed0/extver/internal/logs"
	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/ui"
	"github.com/0xa1bed0/extver/internal/versions"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	Verbosity  int
	Quiet      bool
	LogFile    string
	ConfigFile string
}

// app carries what the subcommands share once flags are parsed.
type app struct {
	ops  fsops.Ops
	opts globalOptions

	// selectOpts backs the select flags on the root command.
	selectOpts selectOptions

	unmute func()
}

func (a *app) resolver() *versions.Resolver {
	return versions.NewResolver(versions.WithOps(a.ops), versions.WithLogger(logs.Facade{}))
}

func (a *app) loadConfig() (*appconfig.Config, error) {
	return appconfig.Load(a.opts.ConfigFile)
}

func Execute(rt *runtime.Runtime) error {
	return execute(rt, fsops.DefaultOps(), nil)
}

// execute runs the command tree. A nil args uses os.Args.
func execute(rt *runtime.Runtime, ops fsops.Ops, args []string) error {
	a := &app{ops: ops}
	defer a.teardownLogging()

	rootCmd := newRootCmd(a)
	rootCmd.SetOut(rt.Stdout())
	rootCmd.SetErr(rt.Stderr())
	if args != nil {
		rootCmd.SetArgs(args)
	}
	return rootCmd.ExecuteContext(rt.Ctx())
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "extver [PATH...]",
		Short: "Select extension versions matching a Galaxy version",
		Long: `extver picks, for each extension directory, the version subdirectory
that matches a requested Galaxy version.

Each PATH holds one subdirectory per supported version (e.g. PATH/24.1/).
"latest" picks the newest one; a numeric version picks the closest version
at or below it, falling back to the oldest when every version is newer.

By default, 'extver' is equivalent to 'extver select [PATH...]'.`,
		Args: cobra.ArbitraryArgs,
		// Default behavior is the same as 'select'
		RunE: newSelectRunE(a, &a.selectOpts),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging(cmd)
		},
		// we will handle that
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.opts.Verbosity, "verbose", "v", "increase verbosity level")
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "do not print log lines to the terminal")
	flags.StringVar(&a.opts.LogFile, "log-file", "", "append a full timestamped log to this file")
	flags.StringVar(&a.opts.ConfigFile, "config", appconfig.ConfigFile(), "path to the TOML config file")

	// Root should accept the same flags as `select`
	attachSelectFlags(rootCmd, &a.selectOpts)

	rootCmd.AddCommand(newSelectCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newModuleCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (a *app) setupLogging(cmd *cobra.Command) error {
	logs.SetDebugVerbosity(a.opts.Verbosity)

	component := cmd.Name()
	if !cmd.HasParent() {
		component = "select"
	}
	logs.SetComponent(component)

	if a.opts.Quiet {
		a.unmute = logs.Mute()
	}

	if a.opts.LogFile != "" {
		f, err := appconfig.OpenLogFile(a.opts.LogFile)
		if err != nil {
			return err
		}
		// Closed by logs.Close when the runtime finalizes, after the last
		// error line is written.
		logs.SetFullLogWriter(ui.NewTimestampWriter(ui.NewSyncWriter(f, 0)))
	}

	logs.Debugf("running %s with args %v", cmd.CommandPath(), cmd.Flags().Args())
	return nil
}

func (a *app) teardownLogging() {
	if a.unmute != nil {
		a.unmute()
		a.unmute = nil
	}
}
