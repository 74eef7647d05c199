package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/dump"
)

var (
	logsStderr bool
	logsTail   int
)

// NewLogsCmd creates the logs command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Print a service's output log",
		Long: `Print the file NSSM redirects a service's stdout to, or its stderr
file with --stderr. The paths are read from the service's live
configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: runLogs,
	}

	cmd.Flags().BoolVar(&logsStderr, "stderr", false, "read the stderr file instead of stdout")
	cmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "print only the last n lines (0 prints everything)")

	return cmd
}

func runLogs(cmd *cobra.Command, args []string) error {
	_, reconciler, _, err := setup()
	if err != nil {
		return err
	}

	cfg, err := reconciler.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	stream, path := "stdout", cfg.StdoutPath()
	if logsStderr {
		stream, path = "stderr", cfg.StderrPath()
	}
	if path == "" {
		return fmt.Errorf("%s does not redirect %s to a file", cfg.Identifier(), stream)
	}

	data, err := afero.ReadFile(hostFs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s log: %w", stream, err)
	}

	return writeTail(cmd.OutOrStdout(), dump.Decode(data), logsTail)
}

// writeTail writes the last n lines of text, or all of it when n <= 0.
func writeTail(w io.Writer, text string, n int) error {
	if n <= 0 {
		_, err := io.WriteString(w, text)
		return err
	}

	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
