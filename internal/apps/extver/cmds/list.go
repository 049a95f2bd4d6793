package extver

import (
	"fmt"

	"github.com/0xa1bed0/extver/internal/logs"
	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/ui"
	"github.com/0xa1bed0/extver/internal/versions"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var galaxyVersion string

	cmd := &cobra.Command{
		Use:     "list [PATH...]",
		Aliases: []string{"ls"},
		Short:   "List the available versions under each PATH.",
		Long: `List the version subdirectories found under each PATH, newest first.
With --galaxy-version, the version that would be selected is marked with '*'.
If no PATH is given, the 'paths' from the config file are used.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs.Debugf("running list...")

			rt := runtime.FromContextOrPanic(cmd.Context())

			paths := args
			if len(paths) == 0 {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				paths = cfg.Paths
			}
			if len(paths) == 0 {
				return errNoPaths
			}

			withSelection := cmd.Flags().Changed(galaxyVersionFlag)
			resolver := a.resolver()

			table := ui.NewTable(
				ui.Column{Header: "Path", MaxWidth: 60},
				ui.Column{Header: "Version"},
				ui.Column{Header: "Selected"},
			)

			for _, p := range paths {
				available, err := resolver.ListAvailable(p)
				if err != nil {
					return err
				}
				if len(available) == 0 {
					table.AddRow(p, "(none)")
					continue
				}

				var selected versions.Candidate
				if withSelection {
					selected, err = resolver.Select(p, galaxyVersion)
					if err != nil {
						return err
					}
				}

				for i, c := range available {
					label := ""
					if i == 0 {
						label = p
					}
					mark := ""
					if withSelection && c.Name == selected.Name {
						mark = "*"
					}
					table.AddRow(label, c.Name, mark)
				}
			}

			if err := table.Render(rt.Stdout()); err != nil {
				return err
			}
			if withSelection {
				fmt.Fprintf(rt.Stdout(), "\n'*' marks the version selected for galaxy_version %q\n", galaxyVersion)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&galaxyVersion, galaxyVersionFlag, "g", "", "mark the version selected for this Galaxy version")

	return cmd
}
