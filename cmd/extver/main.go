package main

import (
	extver "github.com/0xa1bed0/extver/internal/apps/extver/cmds"
	"github.com/0xa1bed0/extver/internal/runtime"
)

func main() {
	var execErr error

	rt := runtime.NewRuntime()
	defer rt.Finalize("extver", "Type 'extver help' to get help.", &execErr)

	execErr = extver.Execute(rt)
}
