package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/0xa1bed0/extver/internal/logs"
	"github.com/moby/term"
)

// ExitError carries a process exit code. Commands return it when they have
// already reported the failure themselves (e.g. as JSON on stdout), so
// Finalize exits with Code without logging again.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

type Runtime struct {
	ctx        context.Context    // global context, cancelled on SIGINT/SIGTERM
	cancelFunc context.CancelFunc // cancelFunc of global context

	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	exit func(code int)
}

func (rt *Runtime) Ctx() context.Context {
	return rt.ctx
}

func (rt *Runtime) CancelCtx() {
	rt.cancelFunc()
}

func (rt *Runtime) Stdout() io.Writer {
	return rt.stdout
}

func (rt *Runtime) Stderr() io.Writer {
	return rt.stderr
}

// Interactive reports whether stdin is a terminal, i.e. whether prompting
// the user is possible.
func (rt *Runtime) Interactive() bool {
	if rt.stdin == nil {
		return false
	}
	_, isTerm := term.GetFdInfo(rt.stdin)
	return isTerm
}

type runtimeKey struct{}

func NewRuntime() *Runtime {
	return newRuntime(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Exit)
}

func newRuntime(parent context.Context, stdin *os.File, stdout, stderr io.Writer, exit func(int)) *Runtime {
	baseCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	rt := &Runtime{
		cancelFunc: cancel,
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
		exit:       exit,
	}
	// The runtime rides in the context so command handlers can load it once
	// at the top of RunE. Nothing below the cmd layer reads it from there.
	rt.ctx = context.WithValue(baseCtx, runtimeKey{}, rt)
	return rt
}

// WithIO returns a runtime writing to the given streams and never
// prompting. Used by tests and embedding callers.
func WithIO(ctx context.Context, stdout, stderr io.Writer) *Runtime {
	return newRuntime(ctx, nil, stdout, stderr, func(int) {})
}

func FromContext(ctx context.Context) *Runtime {
	v := ctx.Value(runtimeKey{})
	if v == nil {
		return nil
	}
	rt, _ := v.(*Runtime)
	return rt
}

func FromContextOrPanic(ctx context.Context) *Runtime {
	rt := FromContext(ctx)
	if rt == nil {
		panic(errors.New("runtime not found in this context"))
	}
	return rt
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Finalize handles both panic and normal exit.
// Call it in a defer at the top of main.
func (rt *Runtime) Finalize(appName, helpHint string, execErr *error) {
	if r := recover(); r != nil {
		fmt.Fprintf(rt.stderr, "%s panic: %v\n", appName, r)
		fmt.Fprintf(rt.stderr, "%s\n", debug.Stack())
		if helpHint != "" {
			fmt.Fprintln(rt.stderr, helpHint)
		}
		rt.CancelCtx()
		logs.Close()
		rt.exit(1)
		return
	}

	rt.CancelCtx()

	var err error
	if execErr != nil {
		err = *execErr
	}

	var exitErr *ExitError
	if err != nil && !errors.As(err, &exitErr) {
		logs.Errorf("%s error: %v", appName, err)
		if helpHint != "" {
			fmt.Fprintln(rt.stderr, helpHint)
		}
	}

	logs.Close()
	if code := ExitCode(err); code != 0 {
		rt.exit(code)
	}
}
