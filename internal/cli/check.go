package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.yaml>...",
		Short: "Check manifests without touching any service",
		Long: `Validate service manifests.

This checks:
- Manifest syntax and field values
- Referenced templates exist
- The working directory exists on this host
- The directories for the stdout and stderr files exist on this host`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store := newStore(cfg)
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range args {
		fmt.Fprintf(out, "%s:\n", path)

		services, err := store.LoadFile(path)
		if err != nil {
			fmt.Fprintf(out, "  ✗ %v\n", err)
			failed++
			continue
		}

		for _, svc := range services {
			if err := svcconfig.CheckEnvironment(hostFs, svc); err != nil {
				writeCheckFailure(out, svc.Identifier(), err)
				failed++
				continue
			}
			fmt.Fprintf(out, "  ✓ %s\n", svc.Identifier())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func writeCheckFailure(w io.Writer, id string, err error) {
	fmt.Fprintf(w, "  ✗ %s\n", id)

	var verr *svcconfig.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(w, "      %v\n", err)
		return
	}
	for _, f := range verr.Fields() {
		fmt.Fprintf(w, "      %s\n", f.Error())
	}
}
