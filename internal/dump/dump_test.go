package dump

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/plan"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "nssm set Foo Start SERVICE_AUTO_START", []string{"nssm", "set", "Foo", "Start", "SERVICE_AUTO_START"}},
		{"quoted path keeps backslashes", `nssm install Foo "C:\Program Files\app.exe"`, []string{"nssm", "install", "Foo", `"C:\Program Files\app.exe"`}},
		{"empty quoted token", `nssm set Foo Description ""`, []string{"nssm", "set", "Foo", "Description", `""`}},
		{"quotes inside a token", `C:\"Program Files"\nssm.exe dump`, []string{`C:\"Program Files"\nssm.exe`, "dump"}},
		{"quoted segment inside a value", `set Foo AppParameters -c "C:\my dir\x.ini"`, []string{"set", "Foo", "AppParameters", "-c", `"C:\my dir\x.ini"`}},
		{"tabs and runs of spaces", "a \t  b\t\tc   ", []string{"a", "b", "c"}},
		{"trailing backslash", `set Foo AppDirectory C:\`, []string{"set", "Foo", "AppDirectory", `C:\`}},
		{"blank", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"C:\Program Files"`, `C:\Program Files`},
		{`""`, ""},
		{`plain`, "plain"},
		{`-c "C:\my dir\x.ini"`, `-c "C:\my dir\x.ini"`},
		{`"a" "b"`, `"a" "b"`},
		{`"`, `"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Unquote(tt.in), "Unquote(%s)", tt.in)
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`nssm set Foo AppDirectory "C:\oops`)
	assert.ErrorIs(t, err, ErrUnterminatedQuote)
}

func TestParse_Scenario(t *testing.T) {
	text := "install Foo \"C:\\app.exe\"\n" +
		"set Foo AppParameters \"--x\"\n" +
		"set Foo Start SERVICE_DEMAND_START\n"

	result, err := Parse(text)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, "Foo", cfg.Identifier())
	assert.Equal(t, `C:\app.exe`, cfg.ExecutablePath())
	assert.Equal(t, "--x", cfg.Arguments())
	assert.Equal(t, svcconfig.StartDemand, cfg.StartMode())
	assert.Empty(t, result.Skipped)
}

func TestParse_RealDump(t *testing.T) {
	text := `C:\tools\nssm.exe install web "C:\Program Files\Web\web.exe"` + "\r\n" +
		`C:\tools\nssm.exe set web AppParameters --port 8080 --verbose` + "\r\n" +
		`C:\tools\nssm.exe set web AppDirectory "C:\Program Files\Web"` + "\r\n" +
		`C:\tools\nssm.exe set web AppExit Default Restart` + "\r\n" +
		`C:\tools\nssm.exe set web AppExit 2 Exit` + "\r\n" +
		`C:\tools\nssm.exe set web DisplayName "Web Server"` + "\r\n" +
		`C:\tools\nssm.exe set web ObjectName "CORP\svc-web"` + "\r\n" +
		`C:\tools\nssm.exe set web Type SERVICE_WIN32_OWN_PROCESS` + "\r\n" +
		`C:\tools\nssm.exe set web DependOnService Tcpip Dnscache` + "\r\n" +
		`C:\tools\nssm.exe set web DependOnService +Tcpip` + "\r\n" +
		`C:\tools\nssm.exe set web AppEnvironmentExtra PORT=8080` + "\r\n" +
		`C:\tools\nssm.exe set web AppEnvironmentExtra "QUERY=a=b c"` + "\r\n" +
		`C:\tools\nssm.exe set web AppEnvironmentExtra PORT=9090` + "\r\n" +
		`C:\tools\nssm.exe set web AppThrottle 2500` + "\r\n" +
		`C:\tools\nssm.exe set web AppRotateFiles 1` + "\r\n" +
		`C:\tools\nssm.exe set web RotateOnline 0` + "\r\n" +
		`C:\tools\nssm.exe set web RotateBytesLow lots` + "\r\n" +
		`C:\tools\nssm.exe set web Hook_Start_Pre "cmd /c echo hi"` + "\r\n" +
		"\r\n"

	result, err := Parse(text)
	require.NoError(t, err)

	f := result.Config.Fields()
	assert.Equal(t, "web", f.Identifier)
	assert.Equal(t, `C:\Program Files\Web\web.exe`, f.ExecutablePath)
	assert.Equal(t, "--port 8080 --verbose", f.Arguments)
	assert.Equal(t, `C:\Program Files\Web`, f.WorkingDirectory)
	assert.Equal(t, svcconfig.ExitRestart, f.ExitAction)
	assert.Equal(t, "Web Server", f.DisplayName)
	assert.Equal(t, `CORP\svc-web`, f.LogonIdentity)
	assert.Equal(t, []string{"Tcpip", "Dnscache", "Tcpip"}, f.Dependencies)
	assert.Equal(t, []svcconfig.EnvVar{{Name: "PORT", Value: "9090"}, {Name: "QUERY", Value: "a=b c"}}, f.Environment)
	assert.Equal(t, 2500, f.ThrottleDelay)
	assert.True(t, f.RotateFiles)
	assert.False(t, f.RotateOnline)
	assert.Equal(t, 0, f.RotateBytesLow, "unparseable integers keep the default")
	assert.Equal(t, []svcconfig.Hook{{Event: "Start_Pre", Action: "cmd /c echo hi"}}, f.Hooks)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 5, result.Skipped[0].Line)
	assert.ErrorIs(t, &result.Skipped[0], errExitCodeAction)
}

func TestParse_SkipsBadLines(t *testing.T) {
	text := `nssm install Foo C:\app.exe` + "\n" +
		`nssm set Foo AppDirectory "C:\unterminated` + "\n" +
		`nssm set Foo Description` + "\n" +
		`nssm set Foo Colour blue` + "\n" +
		`nssm set Foo AppEnvironmentExtra NOVALUE` + "\n" +
		`nssm frobnicate Foo now` + "\n" +
		`nssm set Bar Description other` + "\n" +
		`nssm set Foo Description kept` + "\n"

	result, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "", result.Config.WorkingDirectory())
	assert.Equal(t, "kept", result.Config.Description())
	assert.Empty(t, result.Config.Environment())

	lines := make([]int, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		lines = append(lines, s.Line)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, lines)
	assert.ErrorIs(t, &result.Skipped[0], ErrUnterminatedQuote)
	assert.ErrorIs(t, &result.Skipped[5], errOtherService)
}

func TestParse_KeepsInteriorQuotes(t *testing.T) {
	text := `nssm.exe install Foo "C:\Program Files\Foo\foo.exe"` + "\r\n" +
		`nssm.exe set Foo AppParameters -c "C:\my dir\x.ini" --verbose` + "\r\n" +
		`nssm.exe set Foo Description "Foo Service"` + "\r\n" +
		`nssm.exe set Foo AppEnvironmentExtra OPTS="-Xmx1g -Xms1g"` + "\r\n"

	result, err := Parse(text)
	require.NoError(t, err)

	f := result.Config.Fields()
	assert.Equal(t, `C:\Program Files\Foo\foo.exe`, f.ExecutablePath)
	assert.Equal(t, `-c "C:\my dir\x.ini" --verbose`, f.Arguments)
	assert.Equal(t, "Foo Service", f.Description)
	assert.Equal(t, []svcconfig.EnvVar{{Name: "OPTS", Value: `"-Xmx1g -Xms1g"`}}, f.Environment)

	// A manifest carrying the same quoted arguments is already in sync.
	target, err := result.Config.With(func(f *svcconfig.Fields) {
		f.Arguments = `-c "C:\my dir\x.ini" --verbose`
	})
	require.NoError(t, err)
	p, err := plan.Synthesize(target, result.Config)
	require.NoError(t, err)
	assert.True(t, p.IsNoop(), "unexpected commands: %v", p.Commands)
}

func TestParse_IdentifierFromFirstLine(t *testing.T) {
	text := "nssm set Foo Bogus x\n" +
		"nssm set Bar Description y\n" +
		"nssm set Foo Description z\n"

	result, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "Foo", result.Config.Identifier())
	assert.Equal(t, "z", result.Config.Description())
	require.Len(t, result.Skipped, 2)
	assert.ErrorIs(t, &result.Skipped[0], errUnknownSetting)
	assert.ErrorIs(t, &result.Skipped[1], errOtherService)
}

func TestParse_RejectsInvalidResult(t *testing.T) {
	text := "nssm install Foo C:\\app.exe\n" +
		"nssm set Foo Start SOMETIMES\n" +
		"nssm set Foo ObjectName nobody\n"

	result, err := Parse(text)
	assert.Nil(t, result)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)

	var verr *svcconfig.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("start_mode"))
	assert.True(t, verr.Has("logon_identity"))
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "\r\n\r\n", `nssm "broken`} {
		_, err := Parse(text)
		assert.True(t, errors.Is(err, ErrNoService), "text %q", text)
	}
}

func TestParse_ReplayIsIdempotent(t *testing.T) {
	original := "nssm.exe install Foo \"C:\\Program Files\\Foo\\foo.exe\"\n" +
		"nssm.exe set Foo AppParameters \"-c  C:\\cfg\\foo.yml\"\n" +
		"nssm.exe set Foo AppParameters -c \"C:\\my dir\\x.ini\" --log \"C:\\log dir\"\n" +
		"nssm.exe set Foo AppDirectory \"C:\\Program Files\\Foo\"\n" +
		"nssm.exe set Foo AppExit Default Ignore\n" +
		"nssm.exe set Foo DisplayName \"Foo Service\"\n" +
		"nssm.exe set Foo Description \"\"\n" +
		"nssm.exe set Foo Description say \"hello there\"\n" +
		"nssm.exe set Foo ObjectName NetworkService\n" +
		"nssm.exe set Foo Start SERVICE_DELAYED_AUTO_START\n" +
		"nssm.exe set Foo DependOnService + svcA\n" +
		"nssm.exe set Foo DependOnService + svcB\n" +
		"nssm.exe set Foo AppPriority BELOW_NORMAL_PRIORITY_CLASS\n" +
		"nssm.exe set Foo AppStdout C:\\logs\\foo.log\n" +
		"nssm.exe set Foo AppEnvironmentExtra \"GREETING=hello world\"\n" +
		"nssm.exe set Foo AppEnvironmentExtra EMPTY=\n" +
		"nssm.exe set Foo KillConsoleDelay 3000\n" +
		"nssm.exe set Foo KillProcessTree 1\n" +
		"nssm.exe set Foo RotateSeconds 86400\n" +
		"nssm.exe set Foo Hook_Stop_Post \"cmd /c cleanup.cmd\"\n"

	first, err := Parse(original)
	require.NoError(t, err)

	p, err := plan.Synthesize(first.Config, nil)
	require.NoError(t, err)

	replayed := Render(`C:\tools\nssm.exe`, p.Commands)
	second, err := Parse(replayed)
	require.NoError(t, err)
	assert.Empty(t, second.Skipped)

	if diff := cmp.Diff(first.Config.Fields(), second.Config.Fields()); diff != "" {
		t.Errorf("replayed dump differs (-first +second):\n%s", diff)
	}
	assert.True(t, first.Config.Equal(second.Config))
	assert.Equal(t, `-c "C:\my dir\x.ini" --log "C:\log dir"`, second.Config.Arguments())
	assert.Equal(t, `say "hello there"`, second.Config.Description())
}

func TestRender(t *testing.T) {
	cmds := []domain.Command{
		domain.NewCommand(domain.SubcommandInstall, "Foo", `C:\app.exe`),
		domain.NewCommand(domain.SubcommandSet, "Foo", "AppParameters", "--a b"),
	}

	got := Render(`C:\Program Files\nssm.exe`, cmds)
	want := `"C:\Program Files\nssm.exe" install Foo C:\app.exe` + "\r\n" +
		`"C:\Program Files\nssm.exe" set Foo AppParameters "--a b"` + "\r\n"
	assert.Equal(t, want, got)

	quoted := Render("nssm.exe", []domain.Command{
		domain.NewCommand(domain.SubcommandSet, "Foo", "AppParameters", `-c "C:\my dir\x.ini"`),
	})
	assert.Equal(t, `nssm.exe set Foo AppParameters -c "C:\my dir\x.ini"`+"\r\n", quoted)

	assert.Equal(t, "start Foo\r\n", Render("", []domain.Command{domain.NewCommand(domain.SubcommandStart, "Foo")}))
}

func TestDecode(t *testing.T) {
	text := "nssm.exe set Foo Description \"Grüße\"\r\n"

	t.Run("utf-8 passes through", func(t *testing.T) {
		assert.Equal(t, text, Decode([]byte(text)))
	})

	t.Run("utf-16le without bom", func(t *testing.T) {
		raw, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, text, Decode(raw))
	})

	t.Run("utf-16le with bom", func(t *testing.T) {
		raw, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
		require.NoError(t, err)
		assert.Equal(t, text, Decode(raw))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", Decode(nil))
	})
}
