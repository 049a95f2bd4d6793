package extver

import (
	"fmt"

	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of extver",
		Long:  `Display the current version of extver.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := runtime.FromContextOrPanic(cmd.Context()).Stdout()
			fmt.Fprintf(out, "extver %s\n", version.Get())
			if v, ok := version.Semver(); ok {
				fmt.Fprintf(out, "semver %s\n", v.String())
			}
		},
	}

	return cmd
}
