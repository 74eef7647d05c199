package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// fakeNSSM writes a shell script standing in for nssm.
func fakeNSSM(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "nssm")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNSSMExecutor_Run_Success(t *testing.T) {
	path := fakeNSSM(t, `echo "$@"`)
	e := NewNSSMExecutor(WithBinaryPath(path))

	cmd := domain.NewCommand(domain.SubcommandSet, "Foo", "AppParameters", "--a b")
	result, err := e.Run(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, "set Foo AppParameters --a b\n", result.Stdout)
	assert.Empty(t, result.Diagnostic)
	assert.Equal(t, cmd, result.Command)
}

func TestNSSMExecutor_Run_NonZeroExit(t *testing.T) {
	path := fakeNSSM(t, `echo "Can't open service!" >&2; exit 3`)
	e := NewNSSMExecutor(WithBinaryPath(path))

	result, err := e.Run(context.Background(), domain.NewCommand(domain.SubcommandStart, "Missing"))
	require.NoError(t, err, "a non-zero exit is not a transport failure")

	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "Can't open service!\n", result.Diagnostic)
	assert.ErrorIs(t, result.Err(), domain.ErrCommandFailed)
}

func TestNSSMExecutor_Run_DiagnosticFromStdout(t *testing.T) {
	path := fakeNSSM(t, `echo "Usage: nssm set <servicename> <parameter> <value>"; exit 1`)
	e := NewNSSMExecutor(WithBinaryPath(path))

	result, err := e.Run(context.Background(), domain.NewCommand(domain.SubcommandSet, "Foo", "Bogus", "x"))
	require.NoError(t, err)
	assert.Contains(t, result.Diagnostic, "Usage:")
}

func TestNSSMExecutor_Run_MissingBinary(t *testing.T) {
	e := NewNSSMExecutor(WithBinaryPath(filepath.Join(t.TempDir(), "does-not-exist")))

	_, err := e.Run(context.Background(), domain.NewCommand(domain.SubcommandStart, "Foo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.False(t, errors.Is(err, domain.ErrCommandFailed))
}

func TestNSSMExecutor_Run_Timeout(t *testing.T) {
	path := fakeNSSM(t, `exec sleep 5`)
	e := NewNSSMExecutor(WithBinaryPath(path), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := e.Run(context.Background(), domain.NewCommand(domain.SubcommandStop, "Foo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNSSMExecutor_Version(t *testing.T) {
	path := fakeNSSM(t, `printf 'NSSM: The non-sucking service manager\nVersion 2.24 64-bit, 2014-08-31\nUsage: nssm <option> [<args> ...]\n' >&2; exit 1`)
	e := NewNSSMExecutor(WithBinaryPath(path))

	v, err := e.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Version 2.24 64-bit, 2014-08-31", v)
}

func TestNSSMExecutor_Validate(t *testing.T) {
	e := NewNSSMExecutor(WithBinaryPath(fakeNSSM(t, "exit 0")))
	assert.NoError(t, e.Validate(context.Background()))

	dir := NewNSSMExecutor(WithBinaryPath(t.TempDir()))
	assert.Error(t, dir.Validate(context.Background()))

	missing := NewNSSMExecutor(WithBinaryPath(filepath.Join(t.TempDir(), "nope")))
	assert.Error(t, missing.Validate(context.Background()))
}

func TestNSSMExecutor_GetCommonPaths(t *testing.T) {
	e := NewNSSMExecutor()

	assert.NotEmpty(t, e.getCommonPaths())
}

func TestNewNSSMExecutor_Options(t *testing.T) {
	e := NewNSSMExecutor(WithBinaryPath(`C:\tools\nssm.exe`), WithTimeout(time.Minute))

	assert.Equal(t, `C:\tools\nssm.exe`, e.binaryPath)
	assert.Equal(t, time.Minute, e.timeout)
	assert.NotNil(t, e.logger)
}

func TestMockExecutor(t *testing.T) {
	m := &MockExecutor{Dumps: map[string]string{"Foo": "nssm install Foo C:\\foo.exe\n"}}
	ctx := context.Background()

	r, err := m.Run(ctx, domain.NewCommand(domain.SubcommandDump, "Foo"))
	require.NoError(t, err)
	assert.True(t, r.Success())
	assert.Contains(t, r.Stdout, "install Foo")

	r, err = m.Run(ctx, domain.NewCommand(domain.SubcommandDump, "Bar"))
	require.NoError(t, err)
	assert.False(t, r.Success())

	_, err = m.Run(ctx, domain.NewCommand(domain.SubcommandSet, "Foo", "Start", "SERVICE_DISABLED"))
	require.NoError(t, err)

	assert.Len(t, m.Calls(), 3)
	assert.Equal(t, []domain.Command{domain.NewCommand(domain.SubcommandSet, "Foo", "Start", "SERVICE_DISABLED")}, m.Mutations())
}
