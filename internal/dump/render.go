package dump

import (
	"strings"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// Render writes commands as dump text, one line per command, prefixed
// with program. An empty program omits the program token.
func Render(program string, cmds []domain.Command) string {
	var b strings.Builder
	for _, c := range cmds {
		if program != "" {
			b.WriteString(domain.QuoteArg(program))
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
		b.WriteString("\r\n")
	}
	return b.String()
}
