// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records a single command invocation.
type Call struct {
	Name string
	Args []string
}

// Line returns the call as a single command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is the scripted outcome for one command line.
type Response struct {
	Stdout string
	Err    error
	// Block makes the call wait for ctx to be done before returning ctx.Err().
	Block bool
}

// Runner answers commands from a table keyed by the full command line.
// Unscripted commands fail.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// New returns an empty Runner.
func New() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On scripts the response for a command line such as "zoneadm list -cp".
func (r *Runner) On(line string, resp Response) *Runner {
	r.mu.Lock()
	r.responses[line] = resp
	r.mu.Unlock()
	return r
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	resp, ok := r.responses[call.Line()]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("commandtest: unscripted command %q", call.Line())
	}
	if resp.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return []byte(resp.Stdout), nil
}

// Calls returns recorded calls whose command name matches name.
// If name is "", returns all calls.
func (r *Runner) Calls(name string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if name == "" || c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
