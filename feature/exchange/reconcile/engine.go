package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"edi-exchange/core/logger"
	"edi-exchange/core/metrics"
	"edi-exchange/core/storage"
	"edi-exchange/core/utils"
	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/notify"
	"edi-exchange/feature/exchange/store"

	"go.uber.org/zap"
)

// SuffixAckReceived is appended to the event name when an acknowledgement is stored.
const SuffixAckReceived = "ack_received"

// GatewayResolver opens the storage gateway of a backend. *storage.Registry implements it.
type GatewayResolver interface {
	Open(kind, location string) (storage.Gateway, error)
}

// Engine reconciles exchange records with the files found on their backend storage.
//
// Every operation locks the record, reloads it from the repository, applies at most one
// transition and copies the result back into the caller's record.
type Engine struct {
	repo       store.Repository
	gateways   GatewayResolver
	sink       notify.Sink
	events     notify.Emitter
	locker     Locker
	processors *Processors
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLocker replaces the in-process record locker.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithProcessors sets the input processors used by Process.
func WithProcessors(p *Processors) Option {
	return func(e *Engine) { e.processors = p }
}

// WithMetrics records transitions and operations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine.
func NewEngine(repo store.Repository, gateways GatewayResolver, sink notify.Sink, events notify.Emitter, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		gateways:   gateways,
		sink:       sink,
		events:     events,
		locker:     NewMutexLocker(),
		processors: NewProcessors(),
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Processors returns the input processor registry.
func (e *Engine) Processors() *Processors {
	return e.processors
}

// CheckOutput looks for the outcome of a sent output file.
// It returns true while the file is in neither the done nor the error folder.
func (e *Engine) CheckOutput(ctx context.Context, rec *models.Record) (bool, error) {
	var pending bool
	err := e.withRecord(ctx, rec, func(cur *models.Record, fx *effects) error {
		gw, err := e.gateway(cur)
		if err != nil {
			return err
		}
		pending, err = e.checkOutput(ctx, gw, cur, fx)
		return err
	})
	e.metrics.Operation("check_output", outcome(pending, err))
	return pending, err
}

// CheckInput looks for the file of an input record in the pending folder.
// It returns true while the file is absent.
func (e *Engine) CheckInput(ctx context.Context, rec *models.Record) (bool, error) {
	var pending bool
	err := e.withRecord(ctx, rec, func(cur *models.Record, fx *effects) error {
		gw, err := e.gateway(cur)
		if err != nil {
			return err
		}
		pending, err = e.checkInput(ctx, gw, cur, fx)
		return err
	})
	e.metrics.Operation("check_input", outcome(pending, err))
	return pending, err
}

// Send puts the record file in the pending output folder.
//
// A file already found in the done or error folder, or a record already processed by the
// partner, is not sent again and Send returns false. Storage failures are not returned: they leave the record in output_error_on_send
// with the failure text, and Send returns false.
func (e *Engine) Send(ctx context.Context, rec *models.Record) (bool, error) {
	if err := sendable(rec); err != nil {
		return false, err
	}

	var sent bool
	err := e.withRecord(ctx, rec, func(cur *models.Record, fx *effects) error {
		if err := sendable(cur); err != nil {
			return err
		}
		if cur.State == models.StateOutputSentAndProcessed {
			return nil
		}

		gw, err := e.gateway(cur)
		if err != nil {
			return err
		}

		pending, err := e.checkOutput(ctx, gw, cur, fx)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}
		if !Allowed(cur.State, EventSent) {
			return fmt.Errorf("%w: cannot send record %d in state %s", ErrIllegalTransition, cur.ID, cur.State)
		}

		sent, err = e.deliver(ctx, gw, cur, fx)
		return err
	})
	switch {
	case err != nil:
		e.metrics.Operation("send", metrics.OutcomeError)
	case sent:
		e.metrics.Operation("send", metrics.OutcomeOK)
	default:
		e.metrics.Operation("send", metrics.OutcomePending)
	}
	return sent, err
}

// Process imports a received input file through the processor registered for its type.
// Processor failures are recorded on the record, not returned.
func (e *Engine) Process(ctx context.Context, rec *models.Record) (bool, error) {
	var ok bool
	err := e.withRecord(ctx, rec, func(cur *models.Record, fx *effects) error {
		if cur.Direction != models.DirectionInput {
			return fmt.Errorf("%w: process on %s record %d", ErrWrongDirection, cur.Direction, cur.ID)
		}
		if !cur.HasPayload() {
			return fmt.Errorf("%w: record %d", ErrNoPayload, cur.ID)
		}
		if !Allowed(cur.State, EventProcessed) {
			return fmt.Errorf("%w: cannot process record %d in state %s", ErrIllegalTransition, cur.ID, cur.State)
		}

		var procErr error
		proc, found := e.processors.Lookup(cur.Type.Code)
		if !found {
			procErr = fmt.Errorf("%w for type %q", ErrNoProcessor, cur.Type.Code)
		} else {
			snapshot := cur.Clone()
			procErr = guard(func() error { return proc.Process(ctx, snapshot) })
		}

		ev, body, sev := EventProcessed, cur.InputProcessedMsg(), models.SeverityInfo
		cur.ExchangeError = ""
		if procErr != nil {
			ev, body, sev = EventProcessFailed, cur.InputProcessErrorMsg(), models.SeverityError
			cur.ExchangeError = procErr.Error()
		}
		if err := e.transition(cur, ev); err != nil {
			return err
		}
		if err := e.save(ctx, cur); err != nil {
			return err
		}
		e.notify(ctx, fx, cur, body, sev)
		e.fire(ctx, fx, cur, "")
		ok = procErr == nil
		return nil
	})
	switch {
	case err != nil:
		e.metrics.Operation("process", metrics.OutcomeError)
	case ok:
		e.metrics.Operation("process", metrics.OutcomeOK)
	default:
		e.metrics.Operation("process", metrics.OutcomePending)
	}
	return ok, err
}

// SetPayload replaces the file of an output record that was not sent yet.
func (e *Engine) SetPayload(ctx context.Context, rec *models.Record, data []byte) error {
	return e.withRecord(ctx, rec, func(cur *models.Record, _ *effects) error {
		if cur.Direction != models.DirectionOutput {
			return fmt.Errorf("%w: set payload on %s record %d", ErrWrongDirection, cur.Direction, cur.ID)
		}
		if !slices.Contains(editableStates, cur.State) {
			return fmt.Errorf("%w: cannot replace the payload of record %d in state %s", ErrIllegalTransition, cur.ID, cur.State)
		}
		cur.ExchangeFile = data
		return e.repo.SaveRecord(ctx, cur)
	})
}

// editableStates are the output states whose payload never reached the partner.
var editableStates = []models.State{models.StateNew, models.StateOutputNotSent, models.StateOutputErrorOnSend}

func sendable(rec *models.Record) error {
	if rec.Direction != models.DirectionOutput {
		return fmt.Errorf("%w: send on %s record %d", ErrWrongDirection, rec.Direction, rec.ID)
	}
	if !rec.HasPayload() {
		return fmt.Errorf("%w: record %d has nothing to send", ErrNoPayload, rec.ID)
	}
	return nil
}

// effects holds the notifications and events of one operation. They run once the
// record lock is released, so subscribers may call back into the engine for the same record.
type effects struct {
	queue []func()
}

func (fx *effects) add(fn func()) {
	fx.queue = append(fx.queue, fn)
}

func (fx *effects) run() {
	for _, fn := range fx.queue {
		fn()
	}
}

// withRecord runs fn on a fresh copy of rec while holding the record lock.
// On success the caller's record is replaced by the copy. Queued effects only
// follow saved transitions and run after the unlock, even when fn fails later.
func (e *Engine) withRecord(ctx context.Context, rec *models.Record, fn func(cur *models.Record, fx *effects) error) error {
	if rec.ID == 0 {
		return ErrUnsaved
	}

	fx := &effects{}
	defer fx.run()

	unlock, err := e.locker.Lock(ctx, rec.ID)
	if err != nil {
		return err
	}
	defer unlock()

	cur, err := e.repo.GetRecord(ctx, rec.ID)
	if err != nil {
		return err
	}
	if err := fn(cur, fx); err != nil {
		return err
	}
	*rec = *cur
	return nil
}

func (e *Engine) checkOutput(ctx context.Context, gw storage.Gateway, rec *models.Record, fx *effects) (bool, error) {
	if rec.Direction != models.DirectionOutput {
		return false, fmt.Errorf("%w: check_output on %s record %d", ErrWrongDirection, rec.Direction, rec.ID)
	}
	log := e.log(rec)

	_, done, err := e.fetch(ctx, gw, rec, models.RemoteDone, rec.ExchangeFilename)
	if err != nil {
		return false, err
	}
	if done {
		log.Debug("Output file done", zap.String("state", string(rec.State)))
		if rec.State == models.StateOutputSentAndProcessed {
			return false, nil
		}
		return false, e.settleDone(ctx, gw, rec, fx)
	}

	_, failed, err := e.fetch(ctx, gw, rec, models.RemoteError, rec.ExchangeFilename)
	if err != nil {
		return false, err
	}
	if failed {
		log.Debug("Output file in error", zap.String("state", string(rec.State)))
		if rec.State != models.StateOutputSent {
			return false, nil
		}
		report, _, err := e.fetch(ctx, gw, rec, models.RemoteError, rec.ErrorReportFilename())
		if err != nil {
			return false, err
		}
		if err := e.transition(rec, EventErrored); err != nil {
			return false, err
		}
		rec.ExchangeError = utils.ToString(report)
		if err := e.save(ctx, rec); err != nil {
			return false, err
		}
		e.notify(ctx, fx, rec, rec.ProcessedKOMsg(), models.SeverityError)
		e.fire(ctx, fx, rec, "")
		return false, nil
	}

	return true, nil
}

// settleDone moves rec to output_sent_and_processed, storing the acknowledgement when
// the type requires one. A missing ack only produces a warning.
func (e *Engine) settleDone(ctx context.Context, gw storage.Gateway, rec *models.Record, fx *effects) error {
	var (
		ack      []byte
		ackFound bool
	)
	if rec.Type.AckNeeded {
		data, found, err := e.fetch(ctx, gw, rec, models.RemoteDone, rec.AckFilename())
		if err != nil {
			e.log(rec).Warn("Failed to fetch ack", zap.Error(err))
		}
		ack, ackFound = data, found
	}

	if err := e.transition(rec, EventDone); err != nil {
		return err
	}
	if ackFound {
		now := e.now().UTC()
		rec.AckFile = ack
		rec.AckReceived = true
		rec.AckReceivedOn = &now
	}
	if err := e.save(ctx, rec); err != nil {
		return err
	}

	e.notify(ctx, fx, rec, rec.ProcessedOKMsg(), models.SeverityInfo)
	e.fire(ctx, fx, rec, "")
	if rec.Type.AckNeeded {
		if ackFound {
			e.fire(ctx, fx, rec, SuffixAckReceived)
		} else {
			e.notify(ctx, fx, rec, rec.AckMissingMsg(), models.SeverityWarning)
		}
	}
	return nil
}

func (e *Engine) checkInput(ctx context.Context, gw storage.Gateway, rec *models.Record, fx *effects) (bool, error) {
	if rec.Direction != models.DirectionInput {
		return false, fmt.Errorf("%w: check_input on %s record %d", ErrWrongDirection, rec.Direction, rec.ID)
	}

	data, found, err := e.fetch(ctx, gw, rec, models.RemotePending, rec.ExchangeFilename)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	if rec.State == models.StateInputReceived {
		return false, nil
	}
	if !Allowed(rec.State, EventReceived) {
		e.log(rec).Debug("Input file ignored", zap.String("state", string(rec.State)))
		return false, nil
	}

	if err := e.transition(rec, EventReceived); err != nil {
		return false, err
	}
	now := e.now().UTC()
	rec.ExchangeFile = data
	rec.ExchangedOn = &now
	rec.ExchangeError = ""
	if err := e.save(ctx, rec); err != nil {
		return false, err
	}
	e.notify(ctx, fx, rec, rec.ReceivedMsg(), models.SeverityInfo)
	e.fire(ctx, fx, rec, "")
	return false, nil
}

// deliver puts the payload and records the outcome in a single write.
func (e *Engine) deliver(ctx context.Context, gw storage.Gateway, rec *models.Record, fx *effects) (bool, error) {
	path, err := rec.Backend.RemotePath(rec.Direction, models.RemotePending, rec.ExchangeFilename)
	if err != nil {
		return false, err
	}

	sendErr := guard(func() error { return gw.Put(ctx, path, rec.ExchangeFile) })

	ev, body, sev := EventSent, rec.SentMsg(), models.SeverityInfo
	if sendErr != nil {
		ev, body, sev = EventSendFailed, rec.SendErrorMsg(), models.SeverityError
		rec.ExchangeError = sendErr.Error()
		e.log(rec).Warn("Send failed", zap.String("path", path), zap.Error(sendErr))
	} else {
		now := e.now().UTC()
		rec.ExchangeError = ""
		rec.ExchangedOn = &now
	}
	if err := e.transition(rec, ev); err != nil {
		return false, err
	}
	if err := e.save(ctx, rec); err != nil {
		return false, err
	}
	e.notify(ctx, fx, rec, body, sev)
	return sendErr == nil, nil
}

func (e *Engine) gateway(rec *models.Record) (storage.Gateway, error) {
	gw, err := e.gateways.Open(rec.Backend.StorageKind, rec.Backend.StorageLocation)
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", rec.Backend.Name, err)
	}
	return gw, nil
}

// fetch reads filename from the given folder. A missing file is reported as found=false.
func (e *Engine) fetch(ctx context.Context, gw storage.Gateway, rec *models.Record, state models.RemoteState, filename string) ([]byte, bool, error) {
	path, err := rec.Backend.RemotePath(rec.Direction, state, filename)
	if err != nil {
		return nil, false, err
	}
	data, err := gw.Get(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (e *Engine) transition(rec *models.Record, ev Event) error {
	next, err := Next(rec.State, ev)
	if err != nil {
		return err
	}
	e.log(rec).Info("Record transition", zap.String("from", string(rec.State)), zap.String("to", string(next)))
	rec.State = next
	return nil
}

func (e *Engine) save(ctx context.Context, rec *models.Record) error {
	if err := e.repo.SaveRecord(ctx, rec); err != nil {
		return err
	}
	e.metrics.Transition(rec.Type.Code, string(rec.State))
	return nil
}

// notify never fails the operation: the transition is already stored.
func (e *Engine) notify(ctx context.Context, fx *effects, rec *models.Record, body string, sev models.Severity) {
	snapshot := rec.Clone()
	fx.add(func() {
		if err := e.sink.Notify(ctx, snapshot, body, sev); err != nil {
			e.log(snapshot).Error("Failed to notify", zap.String("message", body), zap.Error(err))
		}
	})
}

func (e *Engine) fire(ctx context.Context, fx *effects, rec *models.Record, suffix string) {
	snapshot := rec.Clone()
	name := rec.EventName(suffix)
	fx.add(func() {
		e.events.Fire(ctx, name, snapshot)
	})
}

func (e *Engine) log(rec *models.Record) *zap.Logger {
	return logger.WithRecord(e.logger, rec.ID, rec.Type.Code)
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func outcome(pending bool, err error) string {
	switch {
	case err != nil:
		return metrics.OutcomeError
	case pending:
		return metrics.OutcomePending
	default:
		return metrics.OutcomeOK
	}
}
