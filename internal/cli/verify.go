package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/LeJamon/goRingSim/internal/config"
	"github.com/LeJamon/goRingSim/internal/core/burnrate"
	"github.com/LeJamon/goRingSim/internal/core/settlement"
	"github.com/LeJamon/goRingSim/internal/core/validator"
	"github.com/LeJamon/goRingSim/internal/crypto"
	"github.com/LeJamon/goRingSim/internal/fixture"
	"github.com/LeJamon/goRingSim/internal/metrics"
	"github.com/LeJamon/goRingSim/internal/storage/chainstate"
	"github.com/LeJamon/goRingSim/internal/storage/history"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type verifyOptions struct {
	*globalOptions

	checkSpendable bool
	workers        int
	metricsOut     string
}

// batchOutcome is the verification result of one fixture file.
type batchOutcome struct {
	path        string
	description string
	result      *settlement.Result
	invalid     int
	err         error

	started time.Time
	elapsed time.Duration
}

func (b *batchOutcome) status() string {
	switch {
	case b.err != nil:
		return "FAIL"
	case b.result.Skipped:
		return "SKIP"
	case b.result.Reverted:
		return "REVERTED"
	default:
		return "PASS"
	}
}

func newVerifyCommand(g *globalOptions) *cobra.Command {
	o := &verifyOptions{globalOptions: g}

	cmd := &cobra.Command{
		Use:   "verify <fixture.json>...",
		Short: "Verify ring settlement batches against their execution reports",
		Long: `Verify validates every order of each fixture, simulates the settlement of
its rings and reconciles the simulated balances, fee balances and filled
amounts with the report the fixture carries.

Fixtures with a "state" section run against a private in-memory chain state
seeded from it. Fixtures without one read the chain state configured in the
[chainstate] section. When [history] is configured every run is recorded
and can be listed with "ringsim history".

Examples:
    ringsim verify batch.json
    ringsim verify --check-spendable -j 4 testdata/*.json
    ringsim verify --conf ringsim.toml --metrics-out ringsim.prom batch.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("check-spendable") {
				o.cfg.Simulator.CheckSpendable = o.checkSpendable
			}
			if flags.Changed("workers") {
				o.cfg.Simulator.Workers = o.workers
			}
			if flags.Changed("metrics-out") {
				o.cfg.Metrics.Textfile = o.metricsOut
			}
			if err := o.cfg.Simulator.Validate(); err != nil {
				return err
			}
			return o.run(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().BoolVar(&o.checkSpendable, "check-spendable", false, "reserve every fill against the spendable balance of its owner")
	cmd.Flags().IntVarP(&o.workers, "workers", "j", 0, "number of fixtures verified concurrently (0 = one per CPU)")
	cmd.Flags().StringVar(&o.metricsOut, "metrics-out", "", "write the collected metrics to this file in the Prometheus text format")
	return cmd
}

func (o *verifyOptions) run(ctx context.Context, out io.Writer, paths []string) error {
	cfg := o.cfg

	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.Metrics.Namespace, reg)

	shared, err := openChainBackend(cfg.ChainStateOptions(o.logger), cfg)
	if err != nil {
		return err
	}
	defer shared.close(o.logger)
	m.RegisterBurnRateCache(shared.burnRates)

	workers := cfg.Simulator.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]batchOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			outcomes[i] = o.verifyFile(ctx, path, shared, m)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := printOutcomes(out, outcomes)

	if cfg.History.IsEnabled() {
		if err := o.recordOutcomes(ctx, outcomes); err != nil {
			return err
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return err
		}
		o.logger.Debug("metrics written", zap.String("path", cfg.Metrics.Textfile))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed verification", failed, len(outcomes))
	}
	return nil
}

func (o *verifyOptions) verifyFile(ctx context.Context, path string, shared *chainBackend, observer settlement.Observer) (res batchOutcome) {
	res = batchOutcome{path: path, started: time.Now()}
	defer func() { res.elapsed = time.Since(res.started) }()
	logger := o.logger.With(zap.String("fixture", path))

	file, err := fixture.Load(path)
	if err != nil {
		res.err = err
		return res
	}
	res.description = file.Description
	built, err := file.Build(o.cfg.Protocol.Domain())
	if err != nil {
		res.err = err
		return res
	}

	backend := shared
	if built.HasState() {
		backend, err = openChainBackend(chainstate.Options{Logger: logger}, o.cfg)
		if err != nil {
			res.err = err
			return res
		}
		defer backend.close(logger)

		if err := built.Seed(ctx, backend.store); err != nil {
			res.err = fmt.Errorf("seeding chain state: %w", err)
			return res
		}
	}

	v := validator.New(o.cfg.ValidatorConfig(), backend.store.Dependencies(crypto.NewMultiHashVerifier()), logger)
	sim := settlement.New(o.cfg.SettlementConfig(), v, backend.burnRates,
		settlement.WithLogger(logger),
		settlement.WithObserver(observer))

	if err := sim.PrepareBatch(ctx, built.Batch, built.Now); err != nil {
		res.err = err
		return res
	}
	for _, ord := range built.Batch.Orders {
		if !ord.Valid() {
			res.invalid++
		}
	}

	res.result, res.err = sim.Verify(ctx, built.Batch, built.Report)
	return res
}

// recordOutcomes stores every outcome in the run history.
func (o *verifyOptions) recordOutcomes(ctx context.Context, outcomes []batchOutcome) error {
	store, err := history.Open(ctx, o.cfg.HistoryStoreConfig(), o.logger)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer store.Close()

	for i := range outcomes {
		b := &outcomes[i]
		run := history.NewRun(b.path, b.description, b.result, b.invalid, b.err, b.started, b.elapsed)
		if err := store.Record(ctx, run, history.NewDetail(b.result)); err != nil {
			return fmt.Errorf("recording run of %s: %w", b.path, err)
		}
	}
	return nil
}

// printOutcomes writes one line per fixture, the errors of failed ones and
// a summary. It returns the number of failed fixtures.
func printOutcomes(out io.Writer, outcomes []batchOutcome) int {
	var passed, failed, skipped int
	for i := range outcomes {
		b := &outcomes[i]
		status := b.status()
		switch status {
		case "FAIL":
			failed++
		case "SKIP":
			skipped++
		default:
			passed++
		}

		fmt.Fprintf(out, "%-8s %s", status, b.path)
		if b.result != nil && !b.result.Skipped && !b.result.Reverted {
			fmt.Fprintf(out, " (rings=%d failed=%d fees=%d invalid=%d run=%s)",
				len(b.result.Rings), b.result.RingsFailed, len(b.result.FeePayments), b.invalid, b.result.RunID)
		}
		fmt.Fprintln(out)

		if b.err != nil {
			for _, line := range errorLines(b.err) {
				fmt.Fprintf(out, "         %s\n", line)
			}
		}
		if b.result != nil {
			for _, h := range b.result.IncompleteAllOrNone {
				fmt.Fprintf(out, "         all-or-none order %s left partially filled\n", h.Hex())
			}
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d skipped\n", passed, failed, skipped)
	return failed
}

// errorLines flattens joined errors into one message per line.
func errorLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var lines []string
		for _, inner := range joined.Unwrap() {
			lines = append(lines, errorLines(inner)...)
		}
		return lines
	}
	return strings.Split(err.Error(), "\n")
}

// chainBackend is a chain state store with a burn-rate cache in front of it.
type chainBackend struct {
	store     *chainstate.Store
	burnRates *burnrate.CachedTable
}

func openChainBackend(opts chainstate.Options, cfg *config.Config) (*chainBackend, error) {
	store, err := chainstate.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening chain state: %w", err)
	}
	cache, err := burnrate.NewCachedTable(store, cfg.BurnRateCacheConfig())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &chainBackend{store: store, burnRates: cache}, nil
}

func (b *chainBackend) close(logger *zap.Logger) {
	if err := b.store.Close(); err != nil {
		logger.Warn("closing chain state", zap.Error(err))
	}
}
