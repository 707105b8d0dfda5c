package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/auditlog"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [person]",
		Short: "List recorded settlements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			entries, err := auditlog.Read(a.cfg.Audit.Dir)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				entries = auditlog.ForPerson(entries, args[0])
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No settlements recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPERSON\tACCOUNT\tTAG\tAMOUNT\tSETTLEMENT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Format("2006-01-02"), e.PersonID, e.AccountID, e.ToTag,
					e.Amount.StringFixed(2), e.SettlementID)
			}
			return tw.Flush()
		},
	}
}
