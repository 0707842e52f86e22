package command

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with stderr",
			err:  &ExitError{Name: "zonecfg", Args: []string{"-z", "web", "info", "attr"}, Code: 1, Stderr: "No such zone configured"},
			want: "zonecfg -z web info attr: exit status 1: No such zone configured",
		},
		{
			name: "without stderr",
			err:  &ExitError{Name: "zonename", Code: 2},
			want: "zonename : exit status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStderrOf(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &ExitError{Name: "svcprop", Stderr: "boom"})
	assert.Equal(t, "boom", StderrOf(wrapped))
	assert.Empty(t, StderrOf(errors.New("plain")))
}

func TestExecNotInstalled(t *testing.T) {
	r := NewExec(0, nil)
	_, err := r.Run(context.Background(), "zutil-definitely-not-a-binary")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestNewExecDefaults(t *testing.T) {
	r := NewExec(-1, nil)
	assert.Equal(t, DefaultTimeout, r.Timeout)
	assert.NotNil(t, r.Logger)
}

func requireShell(t *testing.T) {
	t.Helper()
	for _, name := range []string{"sh", "sleep"} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
	}
}

func TestExecOutput(t *testing.T) {
	requireShell(t)

	out, err := NewExec(time.Second, nil).Run(context.Background(), "sh", "-c", "echo global")
	require.NoError(t, err)
	assert.Equal(t, "global\n", string(out))
}

func TestExecExitError(t *testing.T) {
	requireShell(t)

	_, err := NewExec(time.Second, nil).Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "sh", exitErr.Name)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "boom", exitErr.Stderr)
	assert.Equal(t, "boom", StderrOf(err))
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecTimeout(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "direct child", args: []string{"sleep", "5"}},
		{name: "background child holds stderr", args: []string{"sh", "-c", "sleep 5 & sleep 5; wait"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := NewExec(50*time.Millisecond, nil).Run(context.Background(), tt.args[0], tt.args[1:]...)
			took := time.Since(start)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTimeout)
			assert.Less(t, took, 50*time.Millisecond+waitDelay+time.Second)
		})
	}
}
