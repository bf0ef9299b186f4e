// Package crashlog reports recovered panics and unexpected errors with
// enough context for the user to act on them.
package crashlog

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/neboloop/oauthsetup/internal/logging"
)

var (
	out   io.Writer = os.Stdout
	outMu sync.Mutex
)

// SetOutput redirects reports to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func writer() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// LogPanic records a recovered panic with a full stack trace.
func LogPanic(module string, r any, ctx map[string]string) {
	msg := fmt.Sprintf("%v", r)
	stack := string(debug.Stack())

	// Always print for immediate visibility
	fmt.Fprintf(writer(), "[PANIC] %s: %s\n%s\n", module, msg, stack)
	logging.Error("panic recovered", append([]any{"module", module, "panic", msg}, attrs(ctx)...)...)
}

// LogError records an error with optional context.
func LogError(module string, err error, ctx map[string]string) {
	if err == nil {
		return
	}
	fmt.Fprintf(writer(), "[ERROR] %s: %+v\n", module, err)
	logging.Error("unexpected error", append([]any{"module", module, "error", err}, attrs(ctx)...)...)
}

// LogWarn records a warning.
func LogWarn(module string, msg string, ctx map[string]string) {
	fmt.Fprintf(writer(), "[WARN] %s: %s\n", module, msg)
	logging.Warn(msg, append([]any{"module", module}, attrs(ctx)...)...)
}

func attrs(ctx map[string]string) []any {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, ctx[k])
	}
	return out
}
