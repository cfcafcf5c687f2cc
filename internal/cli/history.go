package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LeJamon/goRingSim/internal/storage/history"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	*globalOptions

	limit  int
	detail bool
	prune  time.Duration
}

func newHistoryCommand(g *globalOptions) *cobra.Command {
	o := &historyOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded verification runs",
		Long: `Without arguments, history lists the most recent runs recorded by verify.
With a run ID it prints that run and its mismatches, and with --detail the
settlement of every order and the fee payments.

Runs are only recorded when the [history] section names a driver.

Examples:
    ringsim history -n 50
    ringsim history --detail 5b0e7c8e-4c61-4f4e-9f7a-3a4a1d2d7e01
    ringsim history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.cfg.History.IsEnabled() {
				return errors.New("run history is disabled, set [history] driver in the configuration")
			}
			store, err := history.Open(cmd.Context(), o.cfg.HistoryStoreConfig(), o.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case o.prune > 0:
				n, err := store.Prune(cmd.Context(), time.Now().Add(-o.prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d runs\n", n)
				return nil
			case len(args) == 1:
				return o.show(cmd.Context(), out, store, args[0])
			default:
				return o.list(cmd.Context(), out, store)
			}
		},
	}

	cmd.Flags().IntVarP(&o.limit, "limit", "n", 20, "number of runs to list (0 = all)")
	cmd.Flags().BoolVar(&o.detail, "detail", false, "print the recorded settlement of the run")
	cmd.Flags().DurationVar(&o.prune, "prune", 0, "delete runs older than this")
	return cmd
}

func (o *historyOptions) list(ctx context.Context, out io.Writer, store *history.Store) error {
	runs, err := store.Recent(ctx, o.limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-8s rings=%d failed=%d fees=%d invalid=%d  %s\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Outcome,
			r.Rings, r.RingsFailed, r.FeePayments, r.InvalidOrders, r.Fixture)
	}
	return nil
}

func (o *historyOptions) show(ctx context.Context, out io.Writer, store *history.Store, id string) error {
	run, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run:         %s\n", run.ID)
	fmt.Fprintf(out, "fixture:     %s\n", run.Fixture)
	if run.Description != "" {
		fmt.Fprintf(out, "description: %s\n", run.Description)
	}
	fmt.Fprintf(out, "outcome:     %s\n", run.Outcome)
	fmt.Fprintf(out, "started:     %s (%s)\n", run.StartedAt.UTC().Format(time.RFC3339Nano), run.Elapsed)
	fmt.Fprintf(out, "rings:       %d (%d failed)\n", run.Rings, run.RingsFailed)
	fmt.Fprintf(out, "fees:        %d\n", run.FeePayments)
	fmt.Fprintf(out, "invalid:     %d\n", run.InvalidOrders)
	for _, m := range run.Mismatches {
		fmt.Fprintf(out, "mismatch:    %s token=%s owner=%s order=%s expected=%s actual=%s\n",
			m.Kind, m.Token, m.Owner, m.OrderHash, m.Expected, m.Actual)
	}
	if run.Error != "" && len(run.Mismatches) == 0 {
		fmt.Fprintf(out, "error:       %s\n", run.Error)
	}

	if !o.detail {
		return nil
	}
	detail, err := store.Detail(ctx, id)
	if err != nil {
		return err
	}
	if detail == nil {
		fmt.Fprintln(out, "\nno settlement recorded")
		return nil
	}
	for _, ring := range detail.Rings {
		fmt.Fprintf(out, "\nring %d\n", ring.Index)
		for _, s := range ring.Orders {
			fmt.Fprintf(out, "  %s p2p=%t amountS=%s amountB=%s fee=%s feeS=%s feeB=%s split=%s\n",
				s.OrderHash, s.P2P, s.AmountS, s.AmountB, s.AmountFee, s.AmountFeeS, s.AmountFeeB, s.SplitS)
		}
	}
	if len(detail.FeePayments) > 0 {
		fmt.Fprintln(out, "\nfee payments")
		for _, p := range detail.FeePayments {
			fmt.Fprintf(out, "  %s token=%s amount=%s\n", p.Owner, p.Token, p.Amount)
		}
	}
	fmt.Fprintln(out, "\nfilled")
	for _, h := range detail.FilledOrders() {
		fmt.Fprintf(out, "  %s %s\n", h, detail.Filled[h])
	}
	return nil
}
