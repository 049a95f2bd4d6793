package extver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/0xa1bed0/extver/internal/logs"
	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/versions"
	"github.com/spf13/cobra"
)

// pathList accepts a JSON array of strings or a single comma separated
// string, the two forms automation tools send for list arguments.
type pathList []string

func (p *pathList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("paths must be a list of strings")
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*p = out
	return nil
}

type moduleArgs struct {
	Paths         pathList `json:"paths"`
	GalaxyVersion any      `json:"galaxy_version"`
}

type moduleResult struct {
	Changed  bool     `json:"changed"`
	Result   []string `json:"result,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Failed   bool     `json:"failed,omitempty"`
	Msg      string   `json:"msg,omitempty"`
}

// warningCollector forwards to the global logger and keeps warnings so they
// can be returned in the module result.
type warningCollector struct {
	logs.Facade
	warnings []string
}

func (w *warningCollector) Warnf(format string, args ...any) {
	w.Facade.Warnf(format, args...)
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
}

func newModuleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module ARGS_FILE",
		Short: "Run as an automation module reading JSON arguments",
		Long: `Read module arguments from ARGS_FILE as a JSON object:

  {"paths": ["/srv/ext/a", "/srv/ext/b"], "galaxy_version": "24.1"}

and print the result as JSON on stdout:

  {"changed": false, "result": ["/srv/ext/a/24.1", "/srv/ext/b/23.0"]}

On failure it prints {"failed": true, "msg": "..."} and exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtime.FromContextOrPanic(cmd.Context())

			res := a.runModule(args[0])
			if err := writeModuleResult(rt.Stdout(), res); err != nil {
				return err
			}
			if res.Failed {
				logs.Debugf("module failed: %s", res.Msg)
				return &runtime.ExitError{Code: 1}
			}
			return nil
		},
	}

	return cmd
}

func (a *app) runModule(argsFile string) moduleResult {
	data, err := os.ReadFile(argsFile)
	if err != nil {
		return failModule(fmt.Sprintf("failed to read module arguments: %v", err))
	}

	args, err := parseModuleArgs(data)
	if err != nil {
		return failModule(err.Error())
	}

	collector := &warningCollector{}
	resolver := versions.NewResolver(versions.WithOps(a.ops), versions.WithLogger(collector))

	paths, err := resolver.ResolvePaths(args.Paths, args.GalaxyVersion)
	if err != nil {
		return failModule(err.Error())
	}
	return moduleResult{Changed: false, Result: paths, Warnings: collector.warnings}
}

func parseModuleArgs(data []byte) (moduleArgs, error) {
	var args moduleArgs
	dec := json.NewDecoder(bytes.NewReader(data))
	// keep numbers as written so 22.10 is not reformatted before parsing
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return moduleArgs{}, fmt.Errorf("failed to parse module arguments: %v", err)
	}

	var missing []string
	if args.Paths == nil {
		missing = append(missing, "paths")
	}
	if args.GalaxyVersion == nil {
		missing = append(missing, "galaxy_version")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return moduleArgs{}, fmt.Errorf("missing required arguments: %s", strings.Join(missing, ", "))
	}
	return args, nil
}

func failModule(msg string) moduleResult {
	return moduleResult{Failed: true, Msg: msg}
}

func writeModuleResult(w io.Writer, res moduleResult) error {
	// result is always present on success, even for an empty path list
	if !res.Failed && res.Result == nil {
		res.Result = []string{}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
