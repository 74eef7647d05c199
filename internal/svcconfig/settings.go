package svcconfig

import "strings"

// Wrapper setting names.
const (
	SettingApplication            = "Application"
	SettingAppParameters          = "AppParameters"
	SettingAppDirectory           = "AppDirectory"
	SettingAppExit                = "AppExit"
	SettingDisplayName            = "DisplayName"
	SettingDescription            = "Description"
	SettingObjectName             = "ObjectName"
	SettingStart                  = "Start"
	SettingType                   = "Type"
	SettingDependOnService        = "DependOnService"
	SettingAppPriority            = "AppPriority"
	SettingAppStdout              = "AppStdout"
	SettingAppStderr              = "AppStderr"
	SettingAppEnvironmentExtra    = "AppEnvironmentExtra"
	SettingKillConsoleDelay       = "KillConsoleDelay"
	SettingKillWindowDelay        = "KillWindowDelay"
	SettingKillThreadsDelay       = "KillThreadsDelay"
	SettingKillProcessTree        = "KillProcessTree"
	SettingThrottleDelay          = "ThrottleDelay"
	SettingRestartDelay           = "RestartDelay"
	SettingRotateFiles            = "RotateFiles"
	SettingRotateOnline           = "RotateOnline"
	SettingRotateSeconds          = "RotateSeconds"
	SettingRotateBytesLow         = "RotateBytesLow"
	SettingHookShareOutputHandles = "HookShareOutputHandles"

	// HookSettingPrefix prefixes the event name in hook settings, e.g. Hook_Start_Pre.
	HookSettingPrefix = "Hook_"
)

// settingAliases maps the wrapper's native long-form names onto the
// canonical names above.
var settingAliases = map[string]string{
	"AppStopMethodConsole": SettingKillConsoleDelay,
	"AppStopMethodWindow":  SettingKillWindowDelay,
	"AppStopMethodThreads": SettingKillThreadsDelay,
	"AppKillProcessTree":   SettingKillProcessTree,
	"AppThrottle":          SettingThrottleDelay,
	"AppRestartDelay":      SettingRestartDelay,
	"AppRotateFiles":       SettingRotateFiles,
	"AppRotateOnline":      SettingRotateOnline,
	"AppRotateSeconds":     SettingRotateSeconds,
	"AppRotateBytes":       SettingRotateBytesLow,
	"AppRedirectHook":      SettingHookShareOutputHandles,
}

// CanonicalSetting resolves a setting name as it appears in a dump to the
// canonical name. Unknown names are returned unchanged.
func CanonicalSetting(name string) string {
	if c, ok := settingAliases[name]; ok {
		return c
	}
	return name
}

// HookSetting returns the setting name for a hook event.
func HookSetting(event string) string {
	return HookSettingPrefix + event
}

// HookEvent extracts the event from a hook setting name.
func HookEvent(setting string) (string, bool) {
	if !strings.HasPrefix(setting, HookSettingPrefix) {
		return "", false
	}
	event := strings.TrimPrefix(setting, HookSettingPrefix)
	return event, event != ""
}
