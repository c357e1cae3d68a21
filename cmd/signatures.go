package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSignaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signatures",
		Short: "List the failure texts that mean \"no appointment\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Failure signature"})
			for i, sig := range cfg.Check().FailureSignatures {
				t.AppendRow(table.Row{i + 1, sig})
			}
			t.AppendFooter(table.Row{"", "any other result page counts as an appointment"})
			t.Render()
			return nil
		},
	}
}
