package models_test

import (
	"testing"
	"time"

	"edi-exchange/feature/exchange/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend() *models.Backend {
	return &models.Backend{
		Name:             "demo",
		InputDirPending:  "demo_in/pending",
		InputDirDone:     "demo_in/done",
		InputDirError:    "demo_in/error",
		OutputDirPending: " demo_out/pending ",
		OutputDirDone:    "demo_out/done/",
		OutputDirError:   "",
	}
}

func TestBackend_RemotePath(t *testing.T) {
	b := testBackend()

	tests := []struct {
		name      string
		direction models.Direction
		state     models.RemoteState
		filename  string
		want      string
	}{
		{"InputPending", models.DirectionInput, models.RemotePending, "file.csv", "demo_in/pending/file.csv"},
		{"TrimmedDir", models.DirectionOutput, models.RemotePending, "file.csv", "demo_out/pending/file.csv"},
		{"TrailingSlashDir", models.DirectionOutput, models.RemoteDone, "file.csv", "demo_out/done/file.csv"},
		{"StrippedFilename", models.DirectionInput, models.RemoteDone, " /file.csv/ ", "demo_in/done/file.csv"},
		{"EmptyDir", models.DirectionOutput, models.RemoteError, "file.csv", "file.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.RemotePath(tt.direction, tt.state, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackend_RemotePath_ContractViolations(t *testing.T) {
	b := testBackend()

	_, err := b.RemotePath("sideways", models.RemotePending, "f.csv")
	assert.ErrorIs(t, err, models.ErrInvalidDirection)

	_, err = b.RemotePath(models.DirectionInput, "archived", "f.csv")
	assert.ErrorIs(t, err, models.ErrInvalidRemoteState)

	_, err = b.RemotePath(models.DirectionInput, models.RemotePending, " / ")
	assert.ErrorIs(t, err, models.ErrEmptyFilename)
}

func TestBackend_Dirs(t *testing.T) {
	dirs := testBackend().Dirs()
	assert.Len(t, dirs, 5)
	assert.Equal(t, "demo_out/pending", dirs["output/pending"])
	_, ok := dirs["output/error"]
	assert.False(t, ok)
}

func TestState_Matches(t *testing.T) {
	for _, s := range models.States {
		t.Run(string(s), func(t *testing.T) {
			switch {
			case s == models.StateNew:
				assert.True(t, s.Matches(models.DirectionInput))
				assert.True(t, s.Matches(models.DirectionOutput))
			case s.Matches(models.DirectionInput):
				assert.False(t, s.Matches(models.DirectionOutput))
			default:
				assert.True(t, s.Matches(models.DirectionOutput))
			}
		})
	}
}

func TestRecord_Validate(t *testing.T) {
	rec := &models.Record{Direction: models.DirectionOutput, State: models.StateNew}
	assert.NoError(t, rec.Validate())

	rec.State = models.StateOutputSent
	assert.NoError(t, rec.Validate())

	rec.State = models.StateInputReceived
	assert.ErrorIs(t, rec.Validate(), models.ErrStateDirection)

	rec.State = "output_lost"
	assert.ErrorIs(t, rec.Validate(), models.ErrInvalidState)

	rec.State = models.StateNew
	rec.Direction = ""
	assert.ErrorIs(t, rec.Validate(), models.ErrInvalidDirection)
}

func TestRecord_BeforeSaveDefaultsState(t *testing.T) {
	rec := &models.Record{Direction: models.DirectionInput}
	require.NoError(t, rec.BeforeSave(nil))
	assert.Equal(t, models.StateNew, rec.State)
}

func TestRecord_Names(t *testing.T) {
	rec := &models.Record{
		Model:            "res.partner",
		ResID:            7,
		ExchangeFilename: "out.csv",
		State:            models.StateOutputSent,
		Type:             models.ExchangeType{Code: "csv_out", Name: "CSV out"},
	}

	assert.Equal(t, "out.csv.ack", rec.AckFilename())
	assert.Equal(t, "out.csv.error", rec.ErrorReportFilename())
	assert.Equal(t, "res.partner,7", rec.TargetRef())
	assert.Equal(t, "[CSV out] res.partner,7", rec.DisplayName())
	assert.Equal(t, "on_edi_csv_out_output_sent", rec.EventName(""))
	assert.Equal(t, "on_edi_csv_out_output_sent_ack_received", rec.EventName("ack_received"))
	assert.Equal(t, "File out.csv sent", rec.SentMsg())
}

func TestRecord_Clone(t *testing.T) {
	now := time.Now()
	rec := &models.Record{ExchangeFile: []byte("abc"), ExchangedOn: &now}
	c := rec.Clone()
	c.ExchangeFile[0] = 'z'
	*c.ExchangedOn = now.Add(time.Hour)

	assert.Equal(t, "abc", string(rec.ExchangeFile))
	assert.Equal(t, now, *rec.ExchangedOn)
}

func TestExchangeType_MakeFilename(t *testing.T) {
	now := time.Date(2020, 10, 21, 10, 30, 0, 0, time.UTC)
	rec := &models.Record{Model: "res.partner", ResID: 42}

	typ := &models.ExchangeType{Code: "test_csv_output", FilenamePattern: "{model}-{type.code}-{dt}", FileExt: "csv"}
	assert.Equal(t, "res.partner-test_csv_output-2020-10-21-10-30-00.csv", typ.MakeFilename(rec, now))

	typ = &models.ExchangeType{Code: "x", FileExt: ".xml"}
	assert.Equal(t, "res.partner-42-x-2020-10-21-10-30-00.xml", typ.MakeFilename(rec, now))

	typ = &models.ExchangeType{Code: "x", FilenamePattern: "fixed.csv", FileExt: "csv"}
	assert.Equal(t, "fixed.csv", typ.MakeFilename(rec, now))
}
