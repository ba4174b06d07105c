package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the data file and report skipped records",
		Long: `Load the data file the same way the server does at startup and print
a summary. Exits non-zero when any record had to be skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			report, err := a.svc.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load data: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:          %s\n", a.cfg.DataPath())
			fmt.Fprintf(out, "events:        %d\n", report.Events)
			fmt.Fprintf(out, "registrations: %d\n", report.Registrations)
			fmt.Fprintf(out, "waitlisted:    %d\n", report.Waitlisted)
			for _, d := range report.Diagnostics {
				fmt.Fprintf(out, "skipped %s\n", d)
			}

			if n := len(report.Diagnostics); n > 0 {
				return fmt.Errorf("%d record(s) skipped", n)
			}
			return nil
		},
	}
}
