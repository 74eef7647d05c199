package svcconfig

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// document is the structural form of a Config used for templates and
// exports. Environment and hooks are NAME=value lists so their order
// survives formats that sort mapping keys.
type document struct {
	Identifier             string   `mapstructure:"identifier"`
	ExecutablePath         string   `mapstructure:"executable_path"`
	Arguments              string   `mapstructure:"arguments"`
	WorkingDirectory       string   `mapstructure:"working_directory"`
	ExitAction             string   `mapstructure:"exit_action"`
	DisplayName            string   `mapstructure:"display_name"`
	Description            string   `mapstructure:"description"`
	LogonIdentity          string   `mapstructure:"logon_identity"`
	StartMode              string   `mapstructure:"start_mode"`
	ProcessType            string   `mapstructure:"process_type"`
	Dependencies           []string `mapstructure:"dependencies"`
	PriorityClass          string   `mapstructure:"priority_class"`
	StdoutPath             string   `mapstructure:"stdout_path"`
	StderrPath             string   `mapstructure:"stderr_path"`
	Environment            []string `mapstructure:"environment"`
	KillConsoleDelay       int      `mapstructure:"kill_console_delay"`
	KillWindowDelay        int      `mapstructure:"kill_window_delay"`
	KillThreadsDelay       int      `mapstructure:"kill_threads_delay"`
	KillProcessTree        bool     `mapstructure:"kill_process_tree"`
	ThrottleDelay          int      `mapstructure:"throttle_delay"`
	RestartDelay           int      `mapstructure:"restart_delay"`
	RotateFiles            bool     `mapstructure:"rotate_files"`
	RotateOnline           bool     `mapstructure:"rotate_online"`
	RotateSeconds          int      `mapstructure:"rotate_seconds"`
	RotateBytesLow         int      `mapstructure:"rotate_bytes_low"`
	HookShareOutputHandles bool     `mapstructure:"hook_share_output_handles"`
	Hooks                  []string `mapstructure:"hooks"`
}

// Document returns the configuration as a generic key/value document
// suitable for YAML or TOML encoding. FromDocument reverses it.
func (c *Config) Document() map[string]any {
	f := c.f
	env := make([]string, 0, len(f.Environment))
	for _, e := range f.Environment {
		env = append(env, e.Name+"="+e.Value)
	}
	hooks := make([]string, 0, len(f.Hooks))
	for _, h := range f.Hooks {
		hooks = append(hooks, h.Event+"="+h.Action)
	}
	deps := append(make([]string, 0, len(f.Dependencies)), f.Dependencies...)

	return map[string]any{
		"identifier":                f.Identifier,
		"executable_path":           f.ExecutablePath,
		"arguments":                 f.Arguments,
		"working_directory":         f.WorkingDirectory,
		"exit_action":               string(f.ExitAction),
		"display_name":              f.DisplayName,
		"description":               f.Description,
		"logon_identity":            f.LogonIdentity,
		"start_mode":                string(f.StartMode),
		"process_type":              string(f.ProcessType),
		"dependencies":              deps,
		"priority_class":            string(f.PriorityClass),
		"stdout_path":               f.StdoutPath,
		"stderr_path":               f.StderrPath,
		"environment":               env,
		"kill_console_delay":        f.KillConsoleDelay,
		"kill_window_delay":         f.KillWindowDelay,
		"kill_threads_delay":        f.KillThreadsDelay,
		"kill_process_tree":         f.KillProcessTree,
		"throttle_delay":            f.ThrottleDelay,
		"restart_delay":             f.RestartDelay,
		"rotate_files":              f.RotateFiles,
		"rotate_online":             f.RotateOnline,
		"rotate_seconds":            f.RotateSeconds,
		"rotate_bytes_low":          f.RotateBytesLow,
		"hook_share_output_handles": f.HookShareOutputHandles,
		"hooks":                     hooks,
	}
}

// FromDocument decodes a document produced by Document (or written by
// hand) into a validated Config. Missing keys take their default value;
// unknown keys are rejected. Environment and hooks may also be given as
// mappings, in which case they are ordered by key.
func FromDocument(doc map[string]any) (*Config, error) {
	f, err := FieldsFromDocument(doc)
	var shape *ValidationError
	if err != nil && !errors.As(err, &shape) {
		return nil, err
	}

	cfg, err := New(f)
	if shape == nil {
		return cfg, err
	}
	// Malformed entries were left out of f; report them with the rest.
	return nil, mergeValidation(shape, err)
}

// FieldsFromDocument decodes a document into unvalidated Fields. Templates
// use it to fill in an identifier before validation. Malformed environment
// or hook entries are reported as a *ValidationError alongside the Fields
// decoded from the rest of the document.
func FieldsFromDocument(doc map[string]any) (Fields, error) {
	d := toDocument(DefaultFields())

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mappingToPairs,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err != nil {
		return Fields{}, fmt.Errorf("failed to create document decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return Fields{}, fmt.Errorf("failed to decode service document: %w", err)
	}

	return d.fields()
}

func toDocument(f Fields) document {
	return document{
		Identifier:             f.Identifier,
		ExecutablePath:         f.ExecutablePath,
		Arguments:              f.Arguments,
		WorkingDirectory:       f.WorkingDirectory,
		ExitAction:             string(f.ExitAction),
		DisplayName:            f.DisplayName,
		Description:            f.Description,
		LogonIdentity:          f.LogonIdentity,
		StartMode:              string(f.StartMode),
		ProcessType:            string(f.ProcessType),
		PriorityClass:          string(f.PriorityClass),
		StdoutPath:             f.StdoutPath,
		StderrPath:             f.StderrPath,
		KillConsoleDelay:       f.KillConsoleDelay,
		KillWindowDelay:        f.KillWindowDelay,
		KillThreadsDelay:       f.KillThreadsDelay,
		KillProcessTree:        f.KillProcessTree,
		ThrottleDelay:          f.ThrottleDelay,
		RestartDelay:           f.RestartDelay,
		RotateFiles:            f.RotateFiles,
		RotateOnline:           f.RotateOnline,
		RotateSeconds:          f.RotateSeconds,
		RotateBytesLow:         f.RotateBytesLow,
		HookShareOutputHandles: f.HookShareOutputHandles,
	}
}

func (d document) fields() (Fields, error) {
	f := Fields{
		Identifier:             d.Identifier,
		ExecutablePath:         d.ExecutablePath,
		Arguments:              d.Arguments,
		WorkingDirectory:       d.WorkingDirectory,
		ExitAction:             ExitAction(d.ExitAction),
		DisplayName:            d.DisplayName,
		Description:            d.Description,
		LogonIdentity:          d.LogonIdentity,
		StartMode:              StartMode(d.StartMode),
		ProcessType:            ProcessType(d.ProcessType),
		Dependencies:           d.Dependencies,
		PriorityClass:          PriorityClass(d.PriorityClass),
		StdoutPath:             d.StdoutPath,
		StderrPath:             d.StderrPath,
		KillConsoleDelay:       d.KillConsoleDelay,
		KillWindowDelay:        d.KillWindowDelay,
		KillThreadsDelay:       d.KillThreadsDelay,
		KillProcessTree:        d.KillProcessTree,
		ThrottleDelay:          d.ThrottleDelay,
		RestartDelay:           d.RestartDelay,
		RotateFiles:            d.RotateFiles,
		RotateOnline:           d.RotateOnline,
		RotateSeconds:          d.RotateSeconds,
		RotateBytesLow:         d.RotateBytesLow,
		HookShareOutputHandles: d.HookShareOutputHandles,
	}

	v := &validator{}
	for i, entry := range d.Environment {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			v.fail(fmt.Sprintf("environment[%d]", i), "%q must have the form NAME=value", entry)
			continue
		}
		f.Environment = append(f.Environment, EnvVar{Name: name, Value: value})
	}
	for i, entry := range d.Hooks {
		event, action, ok := strings.Cut(entry, "=")
		if !ok {
			v.fail(fmt.Sprintf("hooks[%d]", i), "%q must have the form EVENT=action", entry)
			continue
		}
		f.Hooks = append(f.Hooks, Hook{Event: event, Action: action})
	}
	return f, v.err()
}

// mappingToPairs lets documents spell environment and hooks as mappings.
func mappingToPairs(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Map || to != reflect.TypeOf([]string(nil)) {
		return data, nil
	}
	rv := reflect.ValueOf(data)
	keys := make([]string, 0, rv.Len())
	values := make(map[string]string, rv.Len())
	for _, k := range rv.MapKeys() {
		key := fmt.Sprint(k.Interface())
		keys = append(keys, key)
		values[key] = fmt.Sprint(rv.MapIndex(k).Interface())
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+values[k])
	}
	return out, nil
}
