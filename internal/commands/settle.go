package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/auditlog"
	"github.com/cleared-dev/debtbook/internal/settlement"
	"github.com/cleared-dev/debtbook/internal/store"
)

func newSettleCommand(opts *rootOptions) *cobra.Command {
	var amount string
	var account string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "settle <person>",
		Short: "Record a repayment and apply it to the oldest open cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing --amount %q: %w", amount, err)
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			person := args[0]
			snap, err := st.Snapshot(ctx, person)
			if err != nil {
				return err
			}
			res := a.engine().Reconcile(snap.Records)

			planner := settlement.NewPlanner(a.comparator(), a.accounts())
			plan, err := planner.Plan(settlement.Request{
				PersonID:  person,
				AccountID: account,
				Amount:    amt,
			}, res.Entries)
			if err != nil {
				return err
			}

			printPlan(cmd.OutOrStdout(), plan)
			if dryRun {
				return nil
			}

			if err := st.CommitSettlement(ctx, person, snap.Version, plan.Records(), plan.Stamps()); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("%w: balance for %s changed while planning, run settle again", err, person)
				}
				return err
			}
			entries := auditlog.FromAllocations(plan.ID, plan.PersonID, plan.AccountID, plan.At, plan.Allocations)
			if err := auditlog.Append(a.cfg.Audit.Dir, entries); err != nil {
				return fmt.Errorf("writing settlement log: %w", err)
			}
			a.log.Info("settlement recorded", "settlement", plan.ID, "person", person, "amount", amt.String())
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded settlement %s\n", plan.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount repaid (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&account, "account", "", "payment account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without recording it")

	return cmd
}

func printPlan(w io.Writer, plan settlement.Plan) {
	for _, al := range plan.Allocations {
		state := "partial"
		if plan.Settled[al.ToTag] {
			state = "settled"
		}
		fmt.Fprintf(w, "%s  %s  %s\n", al.ToTag, al.Amount.StringFixed(2), state)
	}
	if plan.Leftover.GreaterThan(decimal.Zero) {
		fmt.Fprintf(w, "Unapplied: %s\n", plan.Leftover.StringFixed(2))
	}
}
