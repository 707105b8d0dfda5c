package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoidCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "void <record-id>",
		Short: "Void a record so it no longer counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.VoidRecord(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voided %s\n", args[0])
			return nil
		},
	}
}
