package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/platform"
)

var statusJSON bool

// newServiceManager builds the platform service manager. Tests replace it.
var newServiceManager = func() platform.ServiceManager {
	return platform.NewServiceManager(platform.WithLogger(slog.Default()))
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <service>...",
		Short: "Show service status",
		Long: `Query the service control manager for the state and process ID of
each service.

Outside Windows the state is always reported as unknown.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runStatus,
	}

	cmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	mgr := newServiceManager()

	var statuses []*platform.ServiceStatus
	for _, name := range args {
		status, err := mgr.Status(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to get status of %s: %w", name, err)
		}
		statuses = append(statuses, status)
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for i, status := range statuses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeStatus(out, status)
	}
	return nil
}

func writeStatus(w io.Writer, status *platform.ServiceStatus) {
	fmt.Fprintf(w, "Service: %s\n", status.Name)
	fmt.Fprintf(w, "  State: %s\n", status.State)
	if status.PID > 0 {
		fmt.Fprintf(w, "  PID: %d\n", status.PID)
	}
	if status.DisplayName != "" {
		fmt.Fprintf(w, "  Display name: %s\n", status.DisplayName)
	}
	if status.BinaryPath != "" {
		fmt.Fprintf(w, "  Binary: %s\n", status.BinaryPath)
	}
	if status.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", status.Message)
	}
}
