package svcconfig

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFields() Fields {
	f := DefaultFields()
	f.Identifier = "web-api_1.0"
	f.ExecutablePath = `C:\apps\web\web.exe`
	f.Arguments = "--port 8080 --verbose"
	f.WorkingDirectory = `C:\apps\web`
	f.ExitAction = ExitIgnore
	f.DisplayName = "Web API"
	f.Description = "Serves the public API"
	f.LogonIdentity = `CORP\svc-web`
	f.StartMode = StartDelayedAuto
	f.ProcessType = ProcessInteractive
	f.Dependencies = []string{"Tcpip", "Dnscache", "Tcpip"}
	f.PriorityClass = PriorityAboveNormal
	f.StdoutPath = `C:\logs\web.out.log`
	f.StderrPath = `C:\logs\web.err.log`
	f.Environment = []EnvVar{{Name: "PORT", Value: "8080"}, {Name: "MODE", Value: "a=b"}}
	f.KillConsoleDelay = 1500
	f.KillWindowDelay = 1500
	f.KillThreadsDelay = 1500
	f.KillProcessTree = true
	f.ThrottleDelay = 5000
	f.RestartDelay = 100
	f.RotateFiles = true
	f.RotateOnline = true
	f.RotateSeconds = 86400
	f.RotateBytesLow = 1048576
	f.HookShareOutputHandles = true
	f.Hooks = []Hook{{Event: "Start_Pre", Action: `cmd /c echo starting`}}
	return f
}

func TestNew_Defaults(t *testing.T) {
	cfg, err := Default("svc")
	require.NoError(t, err)

	assert.Equal(t, "svc", cfg.Identifier())
	assert.Equal(t, "", cfg.ExecutablePath())
	assert.Equal(t, ExitRestart, cfg.ExitAction())
	assert.Equal(t, LogonLocalSystem, cfg.LogonIdentity())
	assert.Equal(t, StartAuto, cfg.StartMode())
	assert.Equal(t, ProcessOwn, cfg.ProcessType())
	assert.Equal(t, PriorityNormal, cfg.PriorityClass())
	assert.Empty(t, cfg.Dependencies())
	assert.Empty(t, cfg.Environment())
	assert.Empty(t, cfg.Hooks())
}

func TestNew_RoundTrip(t *testing.T) {
	f := fullFields()

	cfg, err := New(f)
	require.NoError(t, err)

	assert.Equal(t, f, cfg.Fields())
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	f := fullFields()
	cfg, err := New(f)
	require.NoError(t, err)

	f.Dependencies[0] = "changed"
	f.Environment[0].Value = "changed"

	assert.Equal(t, "Tcpip", cfg.Dependencies()[0])
	assert.Equal(t, "8080", cfg.Environment()[0].Value)

	deps := cfg.Dependencies()
	deps[0] = "changed"
	assert.Equal(t, "Tcpip", cfg.Dependencies()[0])
}

func TestNew_ExitActionQualifier(t *testing.T) {
	f := fullFields()
	f.ExitAction = "Default Exit"

	cfg, err := New(f)
	require.NoError(t, err)
	assert.Equal(t, ExitExit, cfg.ExitAction())
}

func TestNew_Identifier(t *testing.T) {
	valid := []string{"valid-name", "valid_name", "valid.name", "valid123", strings.Repeat("a", MaxIdentifierLength)}
	for _, name := range valid {
		t.Run("valid "+name[:min(len(name), 12)], func(t *testing.T) {
			_, err := Default(name)
			assert.NoError(t, err)
		})
	}

	invalid := []string{"", "invalid name", "invalid/name", `invalid\name`, "invalid$name", "ünicode", strings.Repeat("a", MaxIdentifierLength+1)}
	for _, name := range invalid {
		t.Run("invalid "+name[:min(len(name), 12)], func(t *testing.T) {
			_, err := Default(name)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, verr.Has("identifier"))
		})
	}
}

func TestNew_LogonIdentity(t *testing.T) {
	tests := []struct {
		identity string
		want     bool
	}{
		{LogonLocalSystem, true},
		{LogonLocalService, true},
		{LogonNetworkService, true},
		{`CORP\alice`, true},
		{`.\alice`, true},
		{`CORP\`, false},
		{`\alice`, false},
		{"alice", false},
		{"", false},
		{"localsystem", false},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			f := fullFields()
			f.LogonIdentity = tt.identity
			_, err := New(f)
			if tt.want {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has("logon_identity"))
		})
	}
}

func TestNew_Enums(t *testing.T) {
	t.Run("start mode", func(t *testing.T) {
		for _, m := range []StartMode{StartAuto, StartDelayedAuto, StartDemand, StartDisabled} {
			assert.True(t, m.IsValid(), m)
		}
		f := fullFields()
		f.StartMode = "INVALID_VALUE"
		_, err := New(f)
		assert.ErrorContains(t, err, "start_mode")
	})

	t.Run("priority class", func(t *testing.T) {
		f := fullFields()
		f.PriorityClass = "VERY_HIGH"
		_, err := New(f)
		assert.ErrorContains(t, err, "priority_class")
	})

	t.Run("process type", func(t *testing.T) {
		f := fullFields()
		f.ProcessType = ""
		_, err := New(f)
		assert.ErrorContains(t, err, "process_type")
	})

	t.Run("exit action", func(t *testing.T) {
		f := fullFields()
		f.ExitAction = "Reboot"
		_, err := New(f)
		assert.ErrorContains(t, err, "exit_action")
	})
}

func TestNew_ReportsEveryViolation(t *testing.T) {
	f := fullFields()
	f.Identifier = "bad name"
	f.StartMode = "NOPE"
	f.LogonIdentity = "nobody"
	f.RestartDelay = -1
	f.Dependencies = []string{"ok", "not ok"}
	f.Environment = []EnvVar{{Name: "1BAD", Value: "x"}, {Name: "A", Value: "1"}, {Name: "A", Value: "2"}}
	f.Hooks = []Hook{{Event: "", Action: "x"}}

	_, err := New(f)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0)
	for _, fe := range verr.Fields() {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"identifier",
		"logon_identity",
		"start_mode",
		"dependencies[1]",
		"environment[1BAD]",
		"environment[A]",
		"restart_delay",
		"hooks[]",
	}, fields)

	var fe *FieldError
	assert.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "identifier:")
	assert.Contains(t, err.Error(), "restart_delay:")
}

func TestNew_RejectsControlCharactersInPaths(t *testing.T) {
	f := fullFields()
	f.StdoutPath = "C:\\logs\nout.log"
	_, err := New(f)
	assert.ErrorContains(t, err, "stdout_path")
}

func TestConfig_With(t *testing.T) {
	base, err := New(fullFields())
	require.NoError(t, err)

	next, err := base.With(func(f *Fields) {
		f.Description = "changed"
		f.SetEnv("PORT", "9090")
		f.SetHook("Stop_Post", "cleanup.cmd")
	})
	require.NoError(t, err)

	assert.Equal(t, "Serves the public API", base.Description())
	assert.Equal(t, "changed", next.Description())
	assert.Equal(t, []EnvVar{{Name: "PORT", Value: "9090"}, {Name: "MODE", Value: "a=b"}}, next.Environment())
	assert.Len(t, next.Hooks(), 2)

	_, err = base.With(func(f *Fields) { f.Identifier = "" })
	assert.Error(t, err)
}

func TestConfig_Equal(t *testing.T) {
	a, err := New(fullFields())
	require.NoError(t, err)
	b, err := New(fullFields())
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	reordered, err := a.With(func(f *Fields) {
		f.Environment[0], f.Environment[1] = f.Environment[1], f.Environment[0]
	})
	require.NoError(t, err)
	assert.True(t, a.Equal(reordered), "environment compares as a mapping")

	depsReordered, err := a.With(func(f *Fields) {
		f.Dependencies[0], f.Dependencies[1] = f.Dependencies[1], f.Dependencies[0]
	})
	require.NoError(t, err)
	assert.False(t, a.Equal(depsReordered), "dependencies are ordered")

	changed, err := a.With(func(f *Fields) { f.RotateOnline = false })
	require.NoError(t, err)
	assert.False(t, a.Equal(changed))
}

func TestDocument_RoundTrip(t *testing.T) {
	cfg, err := New(fullFields())
	require.NoError(t, err)

	doc := cfg.Document()
	assert.Equal(t, "web-api_1.0", doc["identifier"])
	assert.Equal(t, []string{"PORT=8080", "MODE=a=b"}, doc["environment"])

	back, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, cfg.Fields(), back.Fields())
}

func TestFromDocument_Defaults(t *testing.T) {
	cfg, err := FromDocument(map[string]any{
		"identifier":      "svc",
		"executable_path": `C:\svc.exe`,
	})
	require.NoError(t, err)

	assert.Equal(t, StartAuto, cfg.StartMode())
	assert.Equal(t, LogonLocalSystem, cfg.LogonIdentity())
}

func TestFromDocument_WeakTypesAndMappings(t *testing.T) {
	cfg, err := FromDocument(map[string]any{
		"identifier":     "svc",
		"restart_delay":  "250",
		"rotate_files":   1,
		"dependencies":   []any{"a", "b"},
		"environment":    map[string]any{"ZED": "1", "ALPHA": "2"},
		"hooks":          map[string]any{"Start_Pre": "pre.cmd"},
		"priority_class": "IDLE_PRIORITY_CLASS",
	})
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Fields().RestartDelay)
	assert.True(t, cfg.Fields().RotateFiles)
	assert.Equal(t, []string{"a", "b"}, cfg.Dependencies())
	assert.Equal(t, []EnvVar{{Name: "ALPHA", Value: "2"}, {Name: "ZED", Value: "1"}}, cfg.Environment())
	assert.Equal(t, []Hook{{Event: "Start_Pre", Action: "pre.cmd"}}, cfg.Hooks())
}

func TestFromDocument_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := FromDocument(map[string]any{"identifier": "svc", "colour": "blue"})
		assert.ErrorContains(t, err, "colour")
	})

	t.Run("malformed environment entry", func(t *testing.T) {
		_, err := FromDocument(map[string]any{"identifier": "svc", "environment": []any{"NOEQUALS"}})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("environment[0]"))
	})

	t.Run("malformed entries reported with other violations", func(t *testing.T) {
		_, err := FromDocument(map[string]any{
			"identifier":  "bad name!",
			"start_mode":  "SOMETIMES",
			"environment": []any{"NOEQUALS", "OK=1"},
			"hooks":       []any{"Start_Pre"},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("identifier"))
		assert.True(t, verr.Has("start_mode"))
		assert.True(t, verr.Has("environment[0]"))
		assert.True(t, verr.Has("hooks[0]"))
		assert.Len(t, verr.Fields(), 4)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := FromDocument(map[string]any{"identifier": "bad name"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("identifier"))
	})
}

func TestCheckEnvironment(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(`C:\apps\web`, 0o755))
	require.NoError(t, fs.MkdirAll(`C:\logs`, 0o755))

	cfg, err := New(fullFields())
	require.NoError(t, err)
	assert.NoError(t, CheckEnvironment(fs, cfg))

	missing, err := cfg.With(func(f *Fields) {
		f.WorkingDirectory = `C:\nowhere`
		f.StderrPath = `D:\missing\err.log`
	})
	require.NoError(t, err)

	err = CheckEnvironment(fs, missing)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("working_directory"))
	assert.True(t, verr.Has("stderr_path"))
	assert.False(t, verr.Has("stdout_path"))
}

func TestCheckEnvironment_BareFileName(t *testing.T) {
	cfg, err := New(Fields{
		Identifier:    "svc",
		ExitAction:    ExitRestart,
		LogonIdentity: LogonLocalSystem,
		StartMode:     StartAuto,
		ProcessType:   ProcessOwn,
		PriorityClass: PriorityNormal,
		StdoutPath:    "out.log",
	})
	require.NoError(t, err)
	assert.NoError(t, CheckEnvironment(afero.NewMemMapFs(), cfg))
}

func TestCanonicalSetting(t *testing.T) {
	assert.Equal(t, SettingThrottleDelay, CanonicalSetting("AppThrottle"))
	assert.Equal(t, SettingRotateBytesLow, CanonicalSetting("AppRotateBytes"))
	assert.Equal(t, SettingAppParameters, CanonicalSetting(SettingAppParameters))

	event, ok := HookEvent("Hook_Start_Pre")
	assert.True(t, ok)
	assert.Equal(t, "Start_Pre", event)
	_, ok = HookEvent("Hook_")
	assert.False(t, ok)
	assert.Equal(t, "Hook_Exit_Post", HookSetting("Exit_Post"))
}
