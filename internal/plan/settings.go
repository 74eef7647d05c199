package plan

import (
	"strconv"

	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

// setting maps one model field onto the wrapper setting that persists it.
type setting struct {
	name    string
	differs func(target, baseline *svcconfig.Fields) bool
	// emit returns the arguments of every set command, setting name first.
	emit func(target *svcconfig.Fields) [][]string
}

// settings is the fixed emission order. The executable path is handled
// separately because it always goes first.
var settings = []setting{
	text(svcconfig.SettingAppParameters, func(f *svcconfig.Fields) string { return f.Arguments }),
	text(svcconfig.SettingAppDirectory, func(f *svcconfig.Fields) string { return f.WorkingDirectory }),
	{
		name: svcconfig.SettingAppExit,
		differs: func(t, b *svcconfig.Fields) bool {
			return t.ExitAction != b.ExitAction
		},
		emit: func(t *svcconfig.Fields) [][]string {
			return [][]string{{svcconfig.SettingAppExit, svcconfig.ExitActionQualifier, string(t.ExitAction)}}
		},
	},
	text(svcconfig.SettingDisplayName, func(f *svcconfig.Fields) string { return f.DisplayName }),
	text(svcconfig.SettingDescription, func(f *svcconfig.Fields) string { return f.Description }),
	text(svcconfig.SettingObjectName, func(f *svcconfig.Fields) string { return f.LogonIdentity }),
	text(svcconfig.SettingStart, func(f *svcconfig.Fields) string { return string(f.StartMode) }),
	text(svcconfig.SettingType, func(f *svcconfig.Fields) string { return string(f.ProcessType) }),
	{
		name: svcconfig.SettingDependOnService,
		differs: func(t, b *svcconfig.Fields) bool {
			return !svcconfig.EqualStrings(t.Dependencies, b.Dependencies)
		},
		emit: func(t *svcconfig.Fields) [][]string {
			out := make([][]string, 0, len(t.Dependencies))
			for _, dep := range t.Dependencies {
				out = append(out, []string{svcconfig.SettingDependOnService, "+", dep})
			}
			return out
		},
	},
	text(svcconfig.SettingAppPriority, func(f *svcconfig.Fields) string { return string(f.PriorityClass) }),
	text(svcconfig.SettingAppStdout, func(f *svcconfig.Fields) string { return f.StdoutPath }),
	text(svcconfig.SettingAppStderr, func(f *svcconfig.Fields) string { return f.StderrPath }),
	{
		name: svcconfig.SettingAppEnvironmentExtra,
		differs: func(t, b *svcconfig.Fields) bool {
			return !svcconfig.EqualEnvironment(t.Environment, b.Environment)
		},
		emit: func(t *svcconfig.Fields) [][]string {
			out := make([][]string, 0, len(t.Environment))
			for _, e := range t.Environment {
				out = append(out, []string{svcconfig.SettingAppEnvironmentExtra, e.Name + "=" + e.Value})
			}
			return out
		},
	},
	number(svcconfig.SettingKillConsoleDelay, func(f *svcconfig.Fields) int { return f.KillConsoleDelay }),
	number(svcconfig.SettingKillWindowDelay, func(f *svcconfig.Fields) int { return f.KillWindowDelay }),
	number(svcconfig.SettingKillThreadsDelay, func(f *svcconfig.Fields) int { return f.KillThreadsDelay }),
	flag(svcconfig.SettingKillProcessTree, func(f *svcconfig.Fields) bool { return f.KillProcessTree }),
	number(svcconfig.SettingThrottleDelay, func(f *svcconfig.Fields) int { return f.ThrottleDelay }),
	number(svcconfig.SettingRestartDelay, func(f *svcconfig.Fields) int { return f.RestartDelay }),
	flag(svcconfig.SettingRotateFiles, func(f *svcconfig.Fields) bool { return f.RotateFiles }),
	flag(svcconfig.SettingRotateOnline, func(f *svcconfig.Fields) bool { return f.RotateOnline }),
	number(svcconfig.SettingRotateSeconds, func(f *svcconfig.Fields) int { return f.RotateSeconds }),
	number(svcconfig.SettingRotateBytesLow, func(f *svcconfig.Fields) int { return f.RotateBytesLow }),
	flag(svcconfig.SettingHookShareOutputHandles, func(f *svcconfig.Fields) bool { return f.HookShareOutputHandles }),
	{
		name: svcconfig.HookSettingPrefix,
		differs: func(t, b *svcconfig.Fields) bool {
			return !svcconfig.EqualHooks(t.Hooks, b.Hooks)
		},
		emit: func(t *svcconfig.Fields) [][]string {
			out := make([][]string, 0, len(t.Hooks))
			for _, h := range t.Hooks {
				out = append(out, []string{svcconfig.HookSetting(h.Event), h.Action})
			}
			return out
		},
	},
}

func text(name string, get func(*svcconfig.Fields) string) setting {
	return setting{
		name: name,
		differs: func(t, b *svcconfig.Fields) bool {
			return get(t) != get(b)
		},
		emit: func(t *svcconfig.Fields) [][]string {
			return [][]string{{name, get(t)}}
		},
	}
}

func number(name string, get func(*svcconfig.Fields) int) setting {
	return text(name, func(f *svcconfig.Fields) string { return strconv.Itoa(get(f)) })
}

func flag(name string, get func(*svcconfig.Fields) bool) setting {
	return text(name, func(f *svcconfig.Fields) string {
		if get(f) {
			return "1"
		}
		return "0"
	})
}
