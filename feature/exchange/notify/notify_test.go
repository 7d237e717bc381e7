package notify_test

import (
	"context"
	"sync"
	"testing"

	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []*models.Message
	err  error
}

func (w *memWriter) AddMessage(_ context.Context, msg *models.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
	return w.err
}

func testRecord() *models.Record {
	return &models.Record{
		ID:               3,
		Model:            "sale.order",
		ResID:            9,
		Direction:        models.DirectionOutput,
		State:            models.StateOutputSent,
		ExchangeFilename: "so9.csv",
		Type:             models.ExchangeType{Code: "csv_out"},
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := notify.NewLogSink(zap.New(core))
	rec := testRecord()

	require.NoError(t, sink.Notify(context.Background(), rec, "hello", models.SeverityWarning))
	require.NoError(t, sink.Notify(context.Background(), rec, "boom", models.SeverityError))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "sale.order,9", entries[0].ContextMap()["target"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestStoreSink(t *testing.T) {
	w := &memWriter{}
	sink := notify.NewStoreSink(w)

	require.NoError(t, sink.Notify(context.Background(), testRecord(), "File so9.csv sent", models.SeverityInfo))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, uint(3), msg.RecordID)
	assert.Equal(t, "sale.order", msg.Model)
	assert.Equal(t, uint64(9), msg.ResID)
	assert.Equal(t, models.SeverityInfo, msg.Severity)
	assert.Equal(t, models.StateOutputSent, msg.State)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestMulti(t *testing.T) {
	ok := &memWriter{}
	failing := &memWriter{err: assert.AnError}
	m := notify.Multi{notify.NewStoreSink(failing), notify.NewStoreSink(ok)}

	err := m.Notify(context.Background(), testRecord(), "x", models.SeverityInfo)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, ok.msgs, 1, "later sinks still run")
}

func TestBus(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := notify.NewBus(zap.New(core))
	rec := testRecord()

	var named, all []string
	bus.Subscribe("on_edi_csv_out_output_sent", func(_ context.Context, ev notify.Event) error {
		named = append(named, ev.Name)
		return assert.AnError
	})
	bus.SubscribeAll(func(_ context.Context, ev notify.Event) error {
		all = append(all, ev.Name)
		ev.Record.State = models.StateOutputSentAndError
		return nil
	})

	bus.Fire(context.Background(), rec.EventName(""), rec)
	bus.Fire(context.Background(), rec.EventName("ack_received"), rec)

	assert.Equal(t, []string{"on_edi_csv_out_output_sent"}, named)
	assert.Equal(t, []string{"on_edi_csv_out_output_sent", "on_edi_csv_out_output_sent_ack_received"}, all)
	assert.Equal(t, models.StateOutputSent, rec.State, "handlers get a snapshot")
	assert.Equal(t, 1, logs.Len())
}
