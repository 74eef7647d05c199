package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/dump"
	"github.com/sharkusmanch/nssmctl/internal/plan"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
	"github.com/sharkusmanch/nssmctl/internal/templates"
)

// scriptProgram is the program token written at the start of script lines.
const scriptProgram = "nssm.exe"

var (
	showFormat   string
	exportOutput string
	exportScript bool
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <service>",
		Short: "Show a service's live configuration",
		Long: `Read a service's configuration from "nssm dump" and print it.

Formats:
  yaml  a manifest document that apply and install accept (default)
  json  the same document as JSON
  dump  the NSSM commands that recreate the service`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().StringVarP(&showFormat, "format", "f", "yaml", "output format (yaml, json, dump)")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	_, reconciler, _, err := setup()
	if err != nil {
		return err
	}

	cfg, err := reconciler.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeService(cmd.OutOrStdout(), cfg, showFormat)
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <service>",
		Short: "Back up a service's configuration",
		Long: `Write a service's live configuration to a file as a YAML manifest,
or with --script as a batch script of NSSM commands that recreates it.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&exportScript, "script", false, "write NSSM commands instead of YAML")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	_, reconciler, _, err := setup()
	if err != nil {
		return err
	}

	cfg, err := reconciler.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format := "yaml"
	if exportScript {
		format = "dump"
	}

	if exportOutput == "" {
		return writeService(cmd.OutOrStdout(), cfg, format)
	}

	f, err := hostFs.OpenFile(exportOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	if err := writeService(f, cfg, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", cfg.Identifier(), exportOutput)
	return nil
}

func writeService(w io.Writer, cfg *svcconfig.Config, format string) error {
	switch format {
	case "yaml", "":
		return templates.EncodeConfig(w, cfg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Document())
	case "dump", "script":
		p, err := plan.Synthesize(cfg, nil)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, dump.Render(scriptProgram, p.Commands))
		return err
	default:
		return fmt.Errorf("unknown format %q (want yaml, json or dump)", format)
	}
}
