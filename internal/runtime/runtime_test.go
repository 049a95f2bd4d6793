package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	rt := WithIO(context.Background(), &bytes.Buffer{}, &bytes.Buffer{})
	if FromContext(rt.Ctx()) != rt {
		t.Fatal("FromContext did not return the runtime stored in its context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("FromContext on a bare context should return nil")
	}
	if rt.Interactive() {
		t.Fatal("runtime without stdin must not be interactive")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	if ExitCode(nil) != 0 {
		t.Fatal("nil error should exit 0")
	}
	if ExitCode(errors.New("boom")) != 1 {
		t.Fatal("plain error should exit 1")
	}
	wrapped := fmt.Errorf("module: %w", &ExitError{Code: 3})
	if ExitCode(wrapped) != 3 {
		t.Fatalf("ExitCode(%v) = %d, want 3", wrapped, ExitCode(wrapped))
	}
}

func TestFinalizeExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: -1},
		{name: "error", err: errors.New("no versions"), want: 1},
		{name: "reported", err: &ExitError{Code: 1}, want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			code := -1
			rt := newRuntime(context.Background(), nil, &bytes.Buffer{}, &stderr, func(c int) { code = c })

			err := tt.err
			rt.Finalize("extver", "", &err)

			if code != tt.want {
				t.Fatalf("exit code = %d, want %d", code, tt.want)
			}
			if rt.Ctx().Err() == nil {
				t.Fatal("Finalize should cancel the runtime context")
			}
		})
	}
}

func TestFinalizeRecoversPanic(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	code := -1
	rt := newRuntime(context.Background(), nil, &bytes.Buffer{}, &stderr, func(c int) { code = c })

	func() {
		var err error
		defer rt.Finalize("extver", "Type 'extver help' to get help.", &err)
		panic("kaboom")
	}()

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("extver panic: kaboom")) {
		t.Fatalf("stderr missing panic message: %q", stderr.String())
	}
}
