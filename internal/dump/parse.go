package dump

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

var (
	// ErrNoService is returned when a dump names no service at all.
	ErrNoService = errors.New("dump does not describe a service")

	errTooFewTokens     = errors.New("too few tokens")
	errUnknownCommand   = errors.New("unknown subcommand")
	errUnknownSetting   = errors.New("unknown setting")
	errOtherService     = errors.New("line belongs to another service")
	errExitCodeAction   = errors.New("per-exit-code actions are not modelled")
	errMalformedEnvPair = errors.New("environment entry must have the form NAME=value")
)

// LineError describes a dump line that was skipped. The whole line is
// discarded; none of its values reach the configuration.
type LineError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the raw line.
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ParseError rejects a whole dump. It wraps ErrNoService or the
// *svcconfig.ValidationError produced from the accumulated fields.
type ParseError struct {
	Err     error
	Skipped []LineError
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse dump: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is a successfully parsed dump.
type Result struct {
	Config  *svcconfig.Config
	Skipped []LineError
}

// Parse reconstructs a service configuration from dump text. Lines that
// cannot be tokenized or understood are recorded in Result.Skipped and
// parsing continues. Fields never mentioned keep their default value. If
// the accumulated fields do not validate, Parse returns a *ParseError and
// no configuration.
func Parse(text string) (*Result, error) {
	p := &parser{f: svcconfig.DefaultFields()}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := p.line(line); err != nil {
			p.skipped = append(p.skipped, LineError{Line: i + 1, Text: line, Err: err})
		}
	}

	if p.f.Identifier == "" {
		return nil, &ParseError{Err: ErrNoService, Skipped: p.skipped}
	}

	cfg, err := svcconfig.New(p.f)
	if err != nil {
		return nil, &ParseError{Err: err, Skipped: p.skipped}
	}
	return &Result{Config: cfg, Skipped: p.skipped}, nil
}

type parser struct {
	f       svcconfig.Fields
	skipped []LineError
}

func (p *parser) line(line string) error {
	tokens, err := Tokenize(line)
	if err != nil {
		return err
	}

	// Dumps written by hand often leave out the program path.
	if len(tokens) > 0 && isSubcommand(tokens[0]) {
		tokens = append([]string{""}, tokens...)
	}
	if len(tokens) < 4 {
		return errTooFewTokens
	}

	sub, service, rest := domain.Subcommand(tokens[1]), Unquote(tokens[2]), tokens[3:]
	known := sub == domain.SubcommandInstall || sub == domain.SubcommandSet
	if p.f.Identifier == "" && known {
		// The first install or set line names the service, even when
		// its setting is then rejected.
		p.f.Identifier = service
	}
	if p.f.Identifier != "" && service != p.f.Identifier {
		return fmt.Errorf("%w: %s", errOtherService, service)
	}

	switch sub {
	case domain.SubcommandInstall:
		p.f.ExecutablePath = Unquote(rest[0])
		p.f.Arguments = Unquote(strings.Join(rest[1:], " "))
	case domain.SubcommandSet:
		if len(rest) < 2 {
			return errTooFewTokens
		}
		if err := p.set(Unquote(rest[0]), Unquote(strings.Join(rest[1:], " "))); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, sub)
	}
	return nil
}

func isSubcommand(s string) bool {
	return s == string(domain.SubcommandInstall) || s == string(domain.SubcommandSet)
}

// set assigns one setting. It returns an error without touching the
// fields when the line has to be discarded.
func (p *parser) set(name, value string) error {
	f := &p.f

	if event, ok := svcconfig.HookEvent(name); ok {
		f.SetHook(event, value)
		return nil
	}

	switch svcconfig.CanonicalSetting(name) {
	case svcconfig.SettingApplication:
		f.ExecutablePath = value
	case svcconfig.SettingAppParameters:
		f.Arguments = value
	case svcconfig.SettingAppDirectory:
		f.WorkingDirectory = value
	case svcconfig.SettingAppExit:
		if code, _, ok := strings.Cut(value, " "); ok {
			if _, err := strconv.Atoi(code); err == nil {
				return errExitCodeAction
			}
		}
		f.ExitAction = svcconfig.ExitAction(strings.TrimPrefix(value, svcconfig.ExitActionQualifier+" "))
	case svcconfig.SettingDisplayName:
		f.DisplayName = value
	case svcconfig.SettingDescription:
		f.Description = value
	case svcconfig.SettingObjectName:
		f.LogonIdentity = value
	case svcconfig.SettingStart:
		f.StartMode = svcconfig.StartMode(value)
	case svcconfig.SettingType:
		f.ProcessType = svcconfig.ProcessType(value)
	case svcconfig.SettingDependOnService:
		// Service names cannot contain spaces, so a line may carry several.
		f.Dependencies = append(f.Dependencies, strings.Fields(strings.TrimPrefix(value, "+"))...)
	case svcconfig.SettingAppPriority:
		f.PriorityClass = svcconfig.PriorityClass(value)
	case svcconfig.SettingAppStdout:
		f.StdoutPath = value
	case svcconfig.SettingAppStderr:
		f.StderrPath = value
	case svcconfig.SettingAppEnvironmentExtra:
		k, v, ok := strings.Cut(value, "=")
		if !ok {
			return errMalformedEnvPair
		}
		f.SetEnv(k, v)
	case svcconfig.SettingKillConsoleDelay:
		setInt(&f.KillConsoleDelay, value)
	case svcconfig.SettingKillWindowDelay:
		setInt(&f.KillWindowDelay, value)
	case svcconfig.SettingKillThreadsDelay:
		setInt(&f.KillThreadsDelay, value)
	case svcconfig.SettingKillProcessTree:
		f.KillProcessTree = value == "1"
	case svcconfig.SettingThrottleDelay:
		setInt(&f.ThrottleDelay, value)
	case svcconfig.SettingRestartDelay:
		setInt(&f.RestartDelay, value)
	case svcconfig.SettingRotateFiles:
		f.RotateFiles = value == "1"
	case svcconfig.SettingRotateOnline:
		f.RotateOnline = value == "1"
	case svcconfig.SettingRotateSeconds:
		setInt(&f.RotateSeconds, value)
	case svcconfig.SettingRotateBytesLow:
		setInt(&f.RotateBytesLow, value)
	case svcconfig.SettingHookShareOutputHandles:
		f.HookShareOutputHandles = value == "1"
	default:
		return fmt.Errorf("%w: %s", errUnknownSetting, name)
	}
	return nil
}

// setInt leaves dst untouched when value is not an integer.
func setInt(dst *int, value string) {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		*dst = n
	}
}
