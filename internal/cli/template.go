package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sharkusmanch/nssmctl/internal/app"
	"github.com/sharkusmanch/nssmctl/internal/templates"
)

var (
	templateDescription string
	templateForce       bool
	templateOutput      string
	templateInstall     bool
)

// NewTemplateCmd creates the template command group.
func NewTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage service templates",
		Long: `Templates are service configurations without a name. They are stored
as TOML files in templates_dir and can be used by install --template or
referenced from a manifest with "template: <name>".`,
	}

	cmd.AddCommand(newTemplateSaveCmd())
	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateShowCmd())
	cmd.AddCommand(newTemplateDeleteCmd())
	cmd.AddCommand(newTemplateExportCmd())
	cmd.AddCommand(newTemplateImportCmd())
	cmd.AddCommand(newTemplateInstantiateCmd())

	return cmd
}

func newTemplateSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <service> <template>",
		Short: "Save a service's live configuration as a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reconciler, store, err := setup()
			if err != nil {
				return err
			}

			cfg, err := reconciler.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t, err := store.Save(args[1], templateDescription, cfg, templateForce)
			if errors.Is(err, templates.ErrExists) {
				return fmt.Errorf("%w (use --force to replace it)", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as template %s\n", cfg.Identifier(), t.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateDescription, "description", "d", "", "template description")
	cmd.Flags().BoolVar(&templateForce, "force", false, "replace an existing template")

	return cmd
}

func newTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := setup()
			if err != nil {
				return err
			}

			list, listErr := store.List()
			if len(list) == 0 && listErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No templates in %s\n", store.Dir())
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCREATED\tDESCRIPTION")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Created.Format("2006-01-02 15:04"), t.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return listErr
		},
	}
}

func newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template>",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := setup()
			if err != nil {
				return err
			}

			t, err := store.Get(args[0])
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(t); err != nil {
				return fmt.Errorf("failed to encode template: %w", err)
			}
			return enc.Close()
		},
	}
}

func newTemplateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template>...",
		Short: "Delete stored templates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := setup()
			if err != nil {
				return err
			}

			var errs []error
			for _, name := range args {
				if err := store.Delete(name); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", name)
			}
			return errors.Join(errs...)
		},
	}
}

func newTemplateExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [template]...",
		Short: "Export templates to a YAML bundle",
		Long:  `Export the named templates, or all of them, as one YAML document that template import reads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := setup()
			if err != nil {
				return err
			}

			if templateOutput == "" {
				return store.Export(cmd.OutOrStdout(), args...)
			}

			f, err := hostFs.OpenFile(templateOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", templateOutput, err)
			}
			if err := store.Export(f, args...); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&templateOutput, "output", "o", "", "output file (default stdout)")

	return cmd
}

func newTemplateImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import templates from a YAML bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := setup()
			if err != nil {
				return err
			}

			f, err := hostFs.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			names, err := store.Import(f, templateForce)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported template %s\n", name)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&templateForce, "force", false, "replace existing templates")

	return cmd
}

func newTemplateInstantiateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instantiate <template> <service>",
		Short: "Create a service manifest from a template",
		Long: `Print the manifest for a new service built from a template, or install
the service directly with --install.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reconciler, store, err := setup()
			if err != nil {
				return err
			}

			cfg, err := store.Instantiate(args[0], args[1])
			if err != nil {
				return err
			}
			if !templateInstall {
				return templates.EncodeConfig(cmd.OutOrStdout(), cfg)
			}

			rep, err := reconciler.Install(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printReports(cmd.OutOrStdout(), []*app.Report{rep})
		},
	}

	cmd.Flags().BoolVar(&templateInstall, "install", false, "install the service instead of printing it")

	return cmd
}
