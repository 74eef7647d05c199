package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/app"
	"github.com/sharkusmanch/nssmctl/internal/plan"
)

var (
	installTemplate string
	installName     string
	applyInstall    bool
	planInstall     bool
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [file.yaml]",
		Short: "Install services from a manifest or template",
		Long: `Install new services with NSSM.

The services are read from a YAML manifest, which may hold several
documents separated by "---". With --template, a single service is
created from a stored template under the name given by --name.

Only settings that differ from NSSM's defaults are written after the
install command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInstall,
	}

	cmd.Flags().StringVarP(&installTemplate, "template", "t", "", "create the service from a stored template")
	cmd.Flags().StringVarP(&installName, "name", "n", "", "service name, overriding the manifest")

	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	_, reconciler, store, err := setup()
	if err != nil {
		return err
	}

	targets, err := loadTargets(store, args, installTemplate, installName)
	if err != nil {
		return err
	}

	var (
		reports []*app.Report
		errs    []error
	)
	for _, target := range targets {
		rep, err := reconciler.Install(cmd.Context(), target)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target.Identifier(), err))
			continue
		}
		reports = append(reports, rep)
	}

	errs = append(errs, printReports(cmd.OutOrStdout(), reports))
	return errors.Join(errs...)
}

// NewApplyCmd creates the apply command.
func NewApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <file.yaml>",
		Short: "Bring existing services in line with a manifest",
		Long: `Compare each service in the manifest with its live configuration and
write only the settings that differ.

Services that do not exist are an error unless --install is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runApply,
	}

	cmd.Flags().BoolVar(&applyInstall, "install", false, "install services that do not exist yet")

	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	_, reconciler, store, err := setup()
	if err != nil {
		return err
	}

	targets, err := loadTargets(store, args, "", "")
	if err != nil {
		return err
	}

	var (
		reports []*app.Report
		errs    []error
	)
	for _, target := range targets {
		p, err := reconciler.Plan(cmd.Context(), target, applyInstall)
		if err != nil {
			if errors.Is(err, app.ErrServiceNotFound) {
				err = fmt.Errorf("%w (use --install to create it)", err)
			}
			errs = append(errs, err)
			continue
		}
		reports = append(reports, reconciler.Apply(cmd.Context(), p))
	}

	errs = append(errs, printReports(cmd.OutOrStdout(), reports))
	return errors.Join(errs...)
}

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <file.yaml>",
		Short: "Show the commands apply would run",
		Long: `Compute the NSSM commands needed to bring each service in the manifest
in line with it, without running them.`,
		Args: cobra.ExactArgs(1),
		RunE: runPlan,
	}

	cmd.Flags().BoolVar(&planInstall, "install", false, "plan an install for services that do not exist yet")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	_, reconciler, store, err := setup()
	if err != nil {
		return err
	}

	targets, err := loadTargets(store, args, "", "")
	if err != nil {
		return err
	}

	var errs []error
	for _, target := range targets {
		p, err := reconciler.Plan(cmd.Context(), target, planInstall)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		writePlan(cmd.OutOrStdout(), p)
	}
	return errors.Join(errs...)
}

func writePlan(w io.Writer, p *plan.Plan) {
	if p.IsNoop() {
		fmt.Fprintf(w, "%s: no changes\n", p.Service)
		return
	}
	fmt.Fprintf(w, "%s: %d commands (%s)\n", p.Service, len(p.Commands), p.Mode)
	for _, c := range p.Commands {
		fmt.Fprintf(w, "  nssm %s\n", c)
	}
}
