package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Argv(t *testing.T) {
	cmd := NewCommand(SubcommandSet, "Foo", "AppParameters", "--port 80")

	assert.Equal(t, []string{"set", "Foo", "AppParameters", "--port 80"}, cmd.Argv())
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "install with windows path",
			cmd:  NewCommand(SubcommandInstall, "Foo", `C:\Program Files\app.exe`),
			want: `install Foo "C:\Program Files\app.exe"`,
		},
		{
			name: "empty value",
			cmd:  NewCommand(SubcommandSet, "Foo", "Description", ""),
			want: `set Foo Description ""`,
		},
		{
			name: "value with quoted segment is not wrapped again",
			cmd:  NewCommand(SubcommandSet, "Foo", "AppParameters", `-c "C:\my dir\x.ini"`),
			want: `set Foo AppParameters -c "C:\my dir\x.ini"`,
		},
		{
			name: "lifecycle",
			cmd:  NewCommand(SubcommandRemove, "Foo", "confirm"),
			want: "remove Foo confirm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestSubcommand_Mutating(t *testing.T) {
	assert.True(t, SubcommandInstall.Mutating())
	assert.True(t, SubcommandSet.Mutating())
	assert.True(t, SubcommandRemove.Mutating())
	assert.False(t, SubcommandStart.Mutating())
	assert.False(t, SubcommandDump.Mutating())
}

func TestCommandResult_Err(t *testing.T) {
	ok := &CommandResult{Command: NewCommand(SubcommandStart, "Foo"), ExitCode: 0}
	assert.True(t, ok.Success())
	assert.NoError(t, ok.Err())

	failed := &CommandResult{
		Command:    NewCommand(SubcommandSet, "Foo", "Start", "BOGUS"),
		ExitCode:   3,
		Diagnostic: "Error setting parameter \"Start\" for service \"Foo\"!\r\n",
	}
	assert.False(t, failed.Success())

	err := failed.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.False(t, errors.Is(err, ErrTransport))

	var cmdErr *CommandError
	require.True(t, errors.As(fmt.Errorf("apply: %w", err), &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, `set Foo Start BOGUS: exit code 3: Error setting parameter "Start" for service "Foo"!`, err.Error())
}

func TestApplyResult_Remaining(t *testing.T) {
	cmds := []Command{
		NewCommand(SubcommandInstall, "Foo", `C:\app.exe`),
		NewCommand(SubcommandSet, "Foo", "AppParameters", "--x"),
		NewCommand(SubcommandSet, "Foo", "Start", "SERVICE_DEMAND_START"),
	}

	result := NewApplyResult("Foo", cmds)
	result.Applied = append(result.Applied, cmds[0])
	result.Failed = &cmds[1]
	result.Err = errors.New("boom")
	result.Complete()

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.False(t, result.Success())
	assert.Equal(t, cmds[1:], result.Remaining())
	assert.Equal(t, "boom", result.Error())
}

func TestApplyResult_Complete(t *testing.T) {
	noop := NewApplyResult("Foo", nil)
	noop.Complete()
	assert.Equal(t, OutcomeNoop, noop.Outcome)
	assert.True(t, noop.Success())
	assert.Nil(t, noop.Remaining())

	cmds := []Command{NewCommand(SubcommandStart, "Foo")}
	applied := NewApplyResult("Foo", cmds)
	applied.Applied = append(applied.Applied, cmds...)
	applied.Complete()
	assert.Equal(t, OutcomeApplied, applied.Outcome)
	assert.Nil(t, applied.Remaining())
	assert.False(t, applied.EndTime.Before(applied.StartTime))
}

func TestReconcileResult(t *testing.T) {
	r := NewReconcileResult(false)

	ok := NewApplyResult("a", nil)
	ok.Complete()
	r.Add(ok)

	bad := NewApplyResult("b", []Command{NewCommand(SubcommandStart, "b")})
	bad.Err = errors.New("boom")
	bad.Complete()
	r.Add(bad)
	r.Add(nil)

	r.Complete()

	assert.False(t, r.Success)
	assert.Len(t, r.Services, 2)
	assert.Equal(t, map[Outcome]int{OutcomeApplied: 0, OutcomeNoop: 1, OutcomeFailed: 1}, r.Counts())
}
