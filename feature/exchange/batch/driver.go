package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"edi-exchange/core/metrics"
	"edi-exchange/feature/exchange/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Due states of each sweep.
var (
	OutputDueStates = []models.State{models.StateOutputSent, models.StateOutputSentAndError}
	InputDueStates  = []models.State{models.StateNew, models.StateInputProcessedWithError}
)

const (
	SweepOutput = "output"
	SweepInput  = "input"
)

// Reconciler checks one record against its remote storage.
type Reconciler interface {
	CheckOutput(ctx context.Context, rec *models.Record) (bool, error)
	CheckInput(ctx context.Context, rec *models.Record) (bool, error)
}

// Lister selects the records a sweep visits.
type Lister interface {
	ListDue(ctx context.Context, direction models.Direction, states []models.State) ([]*models.Record, error)
}

// Options selects the sweeps of one run.
type Options struct {
	CheckInput  bool `json:"check_input"`
	CheckOutput bool `json:"check_output"`
}

// Failure is a record a sweep could not check.
type Failure struct {
	RecordID uint   `json:"record_id"`
	Error    string `json:"error"`
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Selected int           `json:"selected"`
	Settled  int           `json:"settled"`
	Pending  int           `json:"pending"`
	Failed   int           `json:"failed"`
	Failures []Failure     `json:"failures,omitempty"`
	Took     time.Duration `json:"took_ns"`
}

// Report summarizes one run. A nil sweep did not run.
type Report struct {
	Output *SweepReport `json:"output,omitempty"`
	Input  *SweepReport `json:"input,omitempty"`
}

// Driver runs sweeps over due records with a bounded worker pool.
// Concurrent calls with the same options share one run.
type Driver struct {
	lister  Lister
	engine  Reconciler
	workers int
	metrics *metrics.Metrics
	logger  *zap.Logger
	group   singleflight.Group
}

// NewDriver creates a driver. workers below 1 means 1.
func NewDriver(lister Lister, engine Reconciler, workers int, m *metrics.Metrics, logger *zap.Logger) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{lister: lister, engine: engine, workers: workers, metrics: m, logger: logger}
}

// Sync runs the selected sweeps. A failing record never stops a sweep; only failing to
// select the due records is returned as an error. The shared run is detached from the
// caller that started it, so cancelling one caller never cuts short the others.
func (d *Driver) Sync(ctx context.Context, opts Options) (*Report, error) {
	key := fmt.Sprintf("input=%t,output=%t", opts.CheckInput, opts.CheckOutput)
	ch := d.group.DoChan(key, func() (any, error) {
		return d.run(context.WithoutCancel(ctx), opts)
	})

	select {
	case res := <-ch:
		if res.Shared {
			d.logger.Debug("Joined running sync", zap.String("key", key))
		}
		report, _ := res.Val.(*Report)
		return report, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Driver) run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{}
	var errs []error

	if opts.CheckOutput {
		sr, err := d.sweep(ctx, SweepOutput, models.DirectionOutput, OutputDueStates, d.engine.CheckOutput)
		report.Output = sr
		errs = append(errs, err)
	}
	if opts.CheckInput {
		sr, err := d.sweep(ctx, SweepInput, models.DirectionInput, InputDueStates, d.engine.CheckInput)
		report.Input = sr
		errs = append(errs, err)
	}

	return report, errors.Join(errs...)
}

type checkFunc func(ctx context.Context, rec *models.Record) (bool, error)

func (d *Driver) sweep(ctx context.Context, name string, direction models.Direction, states []models.State, check checkFunc) (*SweepReport, error) {
	start := time.Now()
	records, err := d.lister.ListDue(ctx, direction, states)
	if err != nil {
		return nil, fmt.Errorf("%s sweep: %w", name, err)
	}

	d.logger.Info("Sync sweep running", zap.String("sweep", name), zap.Int("records", len(records)))
	report := &SweepReport{Selected: len(records)}
	if len(records) == 0 {
		report.Took = time.Since(start)
		return report, nil
	}

	workers := d.workers
	if workers > len(records) {
		workers = len(records)
	}

	recordsCh := make(chan *models.Record, len(records))
	for _, rec := range records {
		recordsCh <- rec
	}
	close(recordsCh)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for rec := range recordsCh {
				pending, err := safeCheck(ctx, check, rec)

				mu.Lock()
				switch {
				case err != nil:
					report.Failed++
					report.Failures = append(report.Failures, Failure{RecordID: rec.ID, Error: err.Error()})
				case pending:
					report.Pending++
				default:
					report.Settled++
				}
				mu.Unlock()

				if err != nil {
					d.logger.Error("Sync check failed",
						zap.String("sweep", name),
						zap.Uint("record_id", rec.ID),
						zap.Error(err))
				}
			}
		}()
	}
	wg.Wait()

	report.Took = time.Since(start)
	d.metrics.Sweep(name, report.Took, report.Settled, report.Pending, report.Failed)
	d.logger.Info("Sync sweep done",
		zap.String("sweep", name),
		zap.Int("settled", report.Settled),
		zap.Int("pending", report.Pending),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.Took))
	return report, nil
}

func safeCheck(ctx context.Context, check checkFunc, rec *models.Record) (pending bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return check(ctx, rec)
}
