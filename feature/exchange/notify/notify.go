package notify

import (
	"context"
	"errors"
	"time"

	"edi-exchange/feature/exchange/models"

	"go.uber.org/zap"
)

// Sink posts a human readable message on the business entity behind a record.
type Sink interface {
	Notify(ctx context.Context, rec *models.Record, body string, sev models.Severity) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec *models.Record, body string, sev models.Severity) error

func (f SinkFunc) Notify(ctx context.Context, rec *models.Record, body string, sev models.Severity) error {
	return f(ctx, rec, body, sev)
}

// LogSink writes notifications to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging through l.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Notify(_ context.Context, rec *models.Record, body string, sev models.Severity) error {
	fields := []zap.Field{
		zap.Uint("record_id", rec.ID),
		zap.String("target", rec.TargetRef()),
		zap.String("state", string(rec.State)),
	}
	switch sev {
	case models.SeverityError:
		s.logger.Error(body, fields...)
	case models.SeverityWarning:
		s.logger.Warn(body, fields...)
	default:
		s.logger.Info(body, fields...)
	}
	return nil
}

// MessageWriter persists audit trail messages.
type MessageWriter interface {
	AddMessage(ctx context.Context, msg *models.Message) error
}

// StoreSink keeps notifications as Message rows attached to the record target.
type StoreSink struct {
	writer MessageWriter
	now    func() time.Time
}

// NewStoreSink creates a sink persisting through w.
func NewStoreSink(w MessageWriter) *StoreSink {
	return &StoreSink{writer: w, now: time.Now}
}

func (s *StoreSink) Notify(ctx context.Context, rec *models.Record, body string, sev models.Severity) error {
	return s.writer.AddMessage(ctx, &models.Message{
		RecordID:  rec.ID,
		Model:     rec.Model,
		ResID:     rec.ResID,
		Severity:  sev,
		Body:      body,
		State:     rec.State,
		CreatedAt: s.now().UTC(),
	})
}

// Multi fans a notification out to several sinks.
// Every sink is called; their errors are joined.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, rec *models.Record, body string, sev models.Severity) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, rec, body, sev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
