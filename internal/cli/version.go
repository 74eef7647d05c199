package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/pkg/version"
)

var (
	versionJSON  bool
	versionShort bool
)

// versioner is implemented by executors that can report the wrapper's
// version.
type versioner interface {
	Version(ctx context.Context) (string, error)
}

// wrapperVersion asks the executor for the NSSM version line. It returns
// an empty string when the executor cannot tell.
func wrapperVersion(ctx context.Context, exec domain.Executor) string {
	v, ok := exec.(versioner)
	if !ok {
		return ""
	}
	line, err := v.Version(ctx)
	if err != nil {
		return ""
	}
	return line
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display build information for nssmctl and, when the NSSM binary can be
found, the NSSM version it drives.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}

	cmd.Flags().BoolVar(&versionJSON, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&versionShort, "short", false, "print only the nssmctl version")

	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := version.Get()

	if versionShort {
		fmt.Fprintln(out, info.Version)
		return nil
	}

	// A missing config still yields defaults; the NSSM line is best effort.
	if cfg, err := loadConfig(); err == nil {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if line := wrapperVersion(ctx, newExecutor(cfg, slog.Default())); line != "" {
			info = info.WithNSSM(line)
		}
	}

	if versionJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, info.String())
	return nil
}
