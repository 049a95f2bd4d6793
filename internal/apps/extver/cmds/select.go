package extver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	appconfig "github.com/0xa1bed0/extver/internal/apps/extver/config"
	"github.com/0xa1bed0/extver/internal/logs"
	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/state"
	"github.com/0xa1bed0/extver/internal/ui"
	"github.com/0xa1bed0/extver/internal/versions"
	"github.com/spf13/cobra"
)

const galaxyVersionFlag = "galaxy-version"

var errNoPaths = errors.New("no extension paths given: pass PATH arguments or set 'paths' in the config file")

type selectOptions struct {
	GalaxyVersion string
	JSON          bool
	Record        bool
	StateDB       string
}

// attachSelectFlags attaches the "select" flags to the given command.
func attachSelectFlags(cmd *cobra.Command, opts *selectOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.GalaxyVersion, galaxyVersionFlag, "g", "", `requested Galaxy version: "latest" or a float-like version (e.g. 24.1)`)
	flags.BoolVar(&opts.JSON, "json", false, "print the resolutions as JSON")
	flags.BoolVar(&opts.Record, "record", false, "record the resolutions in the state database")
	flags.StringVar(&opts.StateDB, "state-db", "", "state database path (default from config)")
}

func newSelectCmd(a *app) *cobra.Command {
	opts := &selectOptions{}

	cmd := &cobra.Command{
		Use:     "select [PATH...]",
		Aliases: []string{"s"},
		Short:   "Print the version directory selected for each PATH",
		Long: `Resolve every PATH to its version subdirectory and print one resolved
path per line, in the order given.

If no PATH is given, the 'paths' from the config file are used. The Galaxy
version comes from --galaxy-version, then 'galaxy_version' in the config file.
When neither is set and stdin is a terminal, extver asks for it.`,
		Args: cobra.ArbitraryArgs,
		RunE: newSelectRunE(a, opts),
	}

	attachSelectFlags(cmd, opts)

	return cmd
}

func newSelectRunE(a *app, opts *selectOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt := runtime.FromContextOrPanic(cmd.Context())

		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			paths = cfg.Paths
		}
		if len(paths) == 0 {
			return errNoPaths
		}

		resolver := a.resolver()

		requested, err := requestedVersion(cmd, rt, resolver, opts.GalaxyVersion, cfg, paths[0])
		if err != nil {
			return err
		}

		results, err := resolver.ResolveAll(paths, requested)
		if err != nil {
			return err
		}

		if opts.Record || cfg.Record {
			dbPath := opts.StateDB
			if dbPath == "" {
				dbPath = cfg.StateDB
			}
			if err := recordHistory(rt.Ctx(), dbPath, results); err != nil {
				return err
			}
		}

		if opts.JSON {
			return writeResolutionsJSON(rt.Stdout(), results)
		}
		for _, r := range results {
			fmt.Fprintln(rt.Stdout(), r.Path)
		}
		return nil
	}
}

// requestedVersion picks the Galaxy version from the flag, then the config
// file, then an interactive prompt.
func requestedVersion(cmd *cobra.Command, rt *runtime.Runtime, resolver *versions.Resolver, flagValue string, cfg *appconfig.Config, firstPath string) (any, error) {
	if cmd.Flags().Changed(galaxyVersionFlag) {
		return flagValue, nil
	}
	if cfg.GalaxyVersion != nil {
		logs.Debugf("using galaxy_version %v from config", cfg.GalaxyVersion)
		return cfg.GalaxyVersion, nil
	}
	if !rt.Interactive() {
		return nil, fmt.Errorf("galaxy version is required: pass --%s or set 'galaxy_version' in the config file", galaxyVersionFlag)
	}
	return promptVersion(resolver, firstPath)
}

func promptVersion(resolver *versions.Resolver, path string) (string, error) {
	available, err := resolver.ListAvailable(path)
	if err != nil {
		return "", err
	}

	options := []ui.SelectOption{logs.NewSelectOption("latest", versions.Latest)}
	for _, c := range available {
		options = append(options, logs.NewSelectOption(c.Name, c.Name))
	}

	chosen, err := logs.PromptSelectOne(fmt.Sprintf("Galaxy version for %s", path), options)
	if err != nil {
		return "", fmt.Errorf("galaxy version prompt: %w", err)
	}
	return chosen.OptionID(), nil
}

type resolutionOutput struct {
	BasePath  string `json:"base_path"`
	Requested string `json:"requested"`
	Selected  string `json:"selected"`
	Path      string `json:"path"`
	Fallback  bool   `json:"fallback"`
}

func writeResolutionsJSON(w io.Writer, results []versions.Resolution) error {
	out := make([]resolutionOutput, 0, len(results))
	for _, r := range results {
		out = append(out, resolutionOutput{
			BasePath:  r.BasePath,
			Requested: r.Request.String(),
			Selected:  r.Version.String(),
			Path:      r.Path,
			Fallback:  r.Fallback,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func openHistory(ctx context.Context, dbPath string) (*state.History, func() error, error) {
	db, err := state.Open(ctx, state.Config{Path: dbPath})
	if err != nil {
		return nil, nil, err
	}
	kv, err := state.NewKVStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return state.NewHistory(kv), db.Close, nil
}

func recordHistory(ctx context.Context, dbPath string, results []versions.Resolution) error {
	history, closeDB, err := openHistory(ctx, dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	for _, r := range results {
		basePath, err := filepath.Abs(r.BasePath)
		if err != nil {
			return err
		}
		prev, changed, err := history.Record(ctx, state.Resolution{
			BasePath:   basePath,
			Requested:  r.Request.String(),
			Selected:   r.Version.String(),
			OutputPath: filepath.Join(basePath, r.Version.Name),
			Fallback:   r.Fallback,
		})
		if err != nil {
			return err
		}
		if changed {
			logs.Infof("%s now resolves to %s (was %s)", basePath, r.Version, prev.Selected)
		}
	}
	return nil
}
