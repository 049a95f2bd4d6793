package extver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var stateDB string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the resolutions recorded with --record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime.FromContextOrPanic(cmd.Context())

			if stateDB == "" {
				cfg, err := a.loadConfig()
				if err != nil {
					return err
				}
				stateDB = cfg.StateDB
			}

			history, closeDB, err := openHistory(rt.Ctx(), stateDB)
			if err != nil {
				return err
			}
			defer closeDB()

			all, err := history.All(rt.Ctx())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(rt.Stdout(), "No resolutions recorded")
				return nil
			}

			table := ui.NewTable(
				ui.Column{Header: "Path", MaxWidth: 60},
				ui.Column{Header: "Requested"},
				ui.Column{Header: "Selected"},
				ui.Column{Header: "Fallback"},
				ui.Column{Header: "Resolved"},
			)
			for _, r := range all {
				table.AddRow(r.BasePath, r.Requested, r.Selected, strconv.FormatBool(r.Fallback), r.ResolvedAt.Local().Format(time.DateTime))
			}
			return table.Render(rt.Stdout())
		},
	}

	cmd.Flags().StringVar(&stateDB, "state-db", "", "state database path (default from config)")

	return cmd
}
