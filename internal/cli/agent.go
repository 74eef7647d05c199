package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/platform"
)

var (
	agentName     string
	agentUsername string
	agentPassword string
	agentManual   bool
)

// NewAgentCmd creates the agent command group.
func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the nssmctl agent service",
		Long: `Install and control nssmctl itself as a Windows service that runs
"nssmctl serve".`,
	}

	cmd.PersistentFlags().StringVar(&agentName, "name", platform.AgentServiceName, "agent service name")

	cmd.AddCommand(newAgentInstallCmd())
	cmd.AddCommand(newAgentUninstallCmd())
	cmd.AddCommand(newAgentStartCmd())
	cmd.AddCommand(newAgentStopCmd())
	cmd.AddCommand(newAgentStatusCmd())

	return cmd
}

func supportedManager() (platform.ServiceManager, error) {
	mgr := newServiceManager()
	if !mgr.IsSupported() {
		return nil, fmt.Errorf("service management is not supported on this platform")
	}
	return mgr, nil
}

func newAgentInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the agent as a Windows service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := supportedManager()
			if err != nil {
				return err
			}

			opts := platform.InstallOptions{
				Name:       agentName,
				Username:   agentUsername,
				Password:   agentPassword,
				ConfigPath: cfgFile,
				AutoStart:  !agentManual,
			}
			if err := mgr.Install(cmd.Context(), opts); err != nil {
				return fmt.Errorf("failed to install agent: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Agent service installed successfully.")
			fmt.Fprintln(out, "Use 'nssmctl agent start' to start it.")
			return nil
		},
	}

	cmd.Flags().StringVar(&agentUsername, "username", "", "account to run the agent as")
	cmd.Flags().StringVar(&agentPassword, "password", "", "password for --username")
	cmd.Flags().BoolVar(&agentManual, "manual", false, "do not start the agent at boot")

	return cmd
}

func newAgentUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the agent service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := supportedManager()
			if err != nil {
				return err
			}
			if err := mgr.Uninstall(cmd.Context(), agentName); err != nil {
				return fmt.Errorf("failed to uninstall agent: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agent service uninstalled successfully.")
			return nil
		},
	}
}

func newAgentStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the agent service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := supportedManager()
			if err != nil {
				return err
			}
			if err := mgr.Start(cmd.Context(), agentName); err != nil {
				return fmt.Errorf("failed to start agent: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agent started.")
			return nil
		},
	}
}

func newAgentStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the agent service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := supportedManager()
			if err != nil {
				return err
			}
			if err := mgr.Stop(cmd.Context(), agentName); err != nil {
				return fmt.Errorf("failed to stop agent: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Agent stopped.")
			return nil
		},
	}
}

func newAgentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the agent service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newServiceManager().Status(cmd.Context(), agentName)
			if err != nil {
				return fmt.Errorf("failed to get agent status: %w", err)
			}
			writeStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}
