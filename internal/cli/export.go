package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/convene/internal/persistence"
)

// ValidFormats defines the allowed export formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print every event from the data file",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, format) {
				return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if _, err := a.svc.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load data: %w", err)
			}

			events := a.events.Snapshot()
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(events); err != nil {
					return err
				}
				return enc.Close()
			default:
				return persistence.Encode(out, events)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json|yaml)")
	return cmd
}
