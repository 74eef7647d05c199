package svcconfig

import "reflect"

// Config is a validated, immutable service configuration. It is a
// snapshot of the wrapper's persisted settings or a target to reconcile
// toward, never the store of truth.
type Config struct {
	f Fields
}

// New validates f and returns the configuration it describes. On failure
// the returned error is a *ValidationError listing every violated field.
func New(f Fields) (*Config, error) {
	f = f.clone()
	if err := validate(&f); err != nil {
		return nil, err
	}
	return &Config{f: f}, nil
}

// Default returns a default-valued configuration for the named service.
func Default(identifier string) (*Config, error) {
	f := DefaultFields()
	f.Identifier = identifier
	return New(f)
}

// With returns a new configuration with mutate applied to a copy of the
// receiver's fields. The receiver is left untouched.
func (c *Config) With(mutate func(*Fields)) (*Config, error) {
	f := c.Fields()
	mutate(&f)
	return New(f)
}

// Fields returns a copy of the configuration's field values.
func (c *Config) Fields() Fields { return c.f.clone() }

func (c *Config) Identifier() string           { return c.f.Identifier }
func (c *Config) ExecutablePath() string       { return c.f.ExecutablePath }
func (c *Config) Arguments() string            { return c.f.Arguments }
func (c *Config) WorkingDirectory() string     { return c.f.WorkingDirectory }
func (c *Config) ExitAction() ExitAction       { return c.f.ExitAction }
func (c *Config) DisplayName() string          { return c.f.DisplayName }
func (c *Config) Description() string          { return c.f.Description }
func (c *Config) LogonIdentity() string        { return c.f.LogonIdentity }
func (c *Config) StartMode() StartMode         { return c.f.StartMode }
func (c *Config) ProcessType() ProcessType     { return c.f.ProcessType }
func (c *Config) PriorityClass() PriorityClass { return c.f.PriorityClass }
func (c *Config) StdoutPath() string           { return c.f.StdoutPath }
func (c *Config) StderrPath() string           { return c.f.StderrPath }

// Dependencies returns a copy of the dependency list.
func (c *Config) Dependencies() []string {
	return append([]string(nil), c.f.Dependencies...)
}

// Environment returns a copy of the environment overrides in insertion order.
func (c *Config) Environment() []EnvVar {
	return append([]EnvVar(nil), c.f.Environment...)
}

// Hooks returns a copy of the hook bindings in insertion order.
func (c *Config) Hooks() []Hook {
	return append([]Hook(nil), c.f.Hooks...)
}

// Equal reports whether two configurations describe the same service
// state. Environment overrides and hooks compare as mappings.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	a, b := c.f, o.f
	if !EqualStrings(a.Dependencies, b.Dependencies) ||
		!EqualEnvironment(a.Environment, b.Environment) ||
		!EqualHooks(a.Hooks, b.Hooks) {
		return false
	}
	a.Dependencies, b.Dependencies = nil, nil
	a.Environment, b.Environment = nil, nil
	a.Hooks, b.Hooks = nil, nil
	return reflect.DeepEqual(a, b)
}

// EqualStrings compares two ordered string lists; nil and empty are equal.
func EqualStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EqualEnvironment compares two environment override sets as mappings.
func EqualEnvironment(a, b []EnvVar) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]string, len(a))
	for _, v := range a {
		m[v.Name] = v.Value
	}
	for _, v := range b {
		if got, ok := m[v.Name]; !ok || got != v.Value {
			return false
		}
	}
	return true
}

// EqualHooks compares two hook binding sets as mappings.
func EqualHooks(a, b []Hook) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]string, len(a))
	for _, h := range a {
		m[h.Event] = h.Action
	}
	for _, h := range b {
		if got, ok := m[h.Event]; !ok || got != h.Action {
			return false
		}
	}
	return true
}
