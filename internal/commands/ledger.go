package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/ledger"
)

type entryView struct {
	Tag                    string   `json:"tag"`
	Net                    string   `json:"net"`
	Principal              string   `json:"principal"`
	Repaid                 string   `json:"repaid"`
	Cashback               string   `json:"cashback"`
	Status                 string   `json:"status"`
	Targets                []string `json:"targets,omitempty"`
	SettledByTransactionID string   `json:"settled_by_transaction_id,omitempty"`
	SettledByTag           string   `json:"settled_by_tag,omitempty"`
}

type allocationView struct {
	Phase   string `json:"phase"`
	FromTag string `json:"from_tag"`
	ToTag   string `json:"to_tag"`
	Amount  string `json:"amount"`
}

type personView struct {
	Person      string           `json:"person"`
	Total       string           `json:"total"`
	Owing       bool             `json:"owing"`
	Entries     []entryView      `json:"entries"`
	Allocations []allocationView `json:"allocations,omitempty"`
}

func newPersonView(person string, res ledger.Result) personView {
	v := personView{
		Person:  person,
		Total:   ledger.TotalNet(res.Entries).StringFixed(2),
		Owing:   len(ledger.Outstanding(res.Entries)) > 0,
		Entries: make([]entryView, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		v.Entries = append(v.Entries, entryView{
			Tag:                    e.Tag,
			Net:                    e.Net.StringFixed(2),
			Principal:              e.Principal.StringFixed(2),
			Repaid:                 e.Repaid.StringFixed(2),
			Cashback:               e.Cashback.StringFixed(2),
			Status:                 string(e.Status),
			Targets:                e.Targets,
			SettledByTransactionID: e.SettledByTransactionID,
			SettledByTag:           e.SettledByTag,
		})
	}
	for _, al := range res.Allocations {
		v.Allocations = append(v.Allocations, allocationView{
			Phase:   string(al.Phase),
			FromTag: al.FromTag,
			ToTag:   al.ToTag,
			Amount:  al.Amount.StringFixed(2),
		})
	}
	return v
}

func newLedgerCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	var writeBack bool

	cmd := &cobra.Command{
		Use:   "ledger [person]",
		Short: "Show per-cycle balances after reconciliation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			who, err := people(ctx, st, args)
			if err != nil {
				return err
			}

			eng := a.engine()
			views := make([]personView, 0, len(who))
			for _, person := range who {
				snap, err := st.Snapshot(ctx, person)
				if err != nil {
					return err
				}
				res := eng.Reconcile(snap.Records)

				if writeBack {
					stamps := ledger.Stamps(person, res.Entries)
					if err := st.SaveStamps(ctx, person, snap.Version, stamps); err != nil {
						return fmt.Errorf("writing stamps for %s: %w", person, err)
					}
					a.log.Info("stamps written", "person", person, "count", len(stamps))
				}
				views = append(views, newPersonView(person, res))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			return printLedger(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&writeBack, "write-back", false, "persist settled-by stamps to the store")

	return cmd
}

func printLedger(w io.Writer, views []personView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t\t\t\t\t\t\n", v.Person)
		fmt.Fprintln(tw, "TAG\tNET\tPRINCIPAL\tREPAID\tCASHBACK\tSTATUS\tSETTLED BY\t")
		for _, e := range v.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				e.Tag, e.Net, e.Principal, e.Repaid, e.Cashback, e.Status, e.SettledByTag)
		}
		status := "clear"
		if v.Owing {
			status = "owing"
		}
		fmt.Fprintf(tw, "TOTAL\t%s\t\t\t\t%s\t\t\n", v.Total, status)
	}
	return tw.Flush()
}
