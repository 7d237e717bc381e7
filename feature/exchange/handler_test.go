package exchange_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"edi-exchange/feature/exchange"
	"edi-exchange/feature/exchange/batch"
	"edi-exchange/feature/exchange/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, f *fixture) *fiber.App {
	t.Helper()
	app := fiber.New()
	require.NoError(t, exchange.NewFeature(f.svc).Load(app))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHandler_RecordFlow(t *testing.T) {
	f := newFixture(t)
	app := newApp(t, f)

	resp, body := doJSON(t, app, http.MethodPost, "/exchange/backends/"+itoa(f.backend.ID)+"/records", exchange.CreateRequest{
		TypeCode: "orders", Model: "sale.order", ResID: 11, Filename: "so-11.csv", File: []byte("a;b"),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	var created exchange.RecordView
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "orders", created.Type)
	assert.Equal(t, "acme", created.Backend)
	assert.Equal(t, models.StateNew, created.State)
	id := created.ID

	resp, body = doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(id)+"/send", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var sendOut struct {
		Record exchange.RecordView `json:"record"`
		Sent   bool                `json:"sent"`
	}
	require.NoError(t, json.Unmarshal(body, &sendOut))
	assert.True(t, sendOut.Sent)
	assert.Equal(t, models.StateOutputSent, sendOut.Record.State)

	resp, body = doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(id)+"/check", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var checkOut struct {
		Pending bool `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(body, &checkOut))
	assert.True(t, checkOut.Pending)

	require.NoError(t, f.gw.Put(context.Background(), "out/done/so-11.csv", []byte("a;b")))
	resp, body = doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(id)+"/check", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &checkOut))
	assert.False(t, checkOut.Pending)

	// A processed record is not sent again.
	resp, body = doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(id)+"/send", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &sendOut))
	assert.False(t, sendOut.Sent)
	assert.Equal(t, models.StateOutputSentAndProcessed, sendOut.Record.State)

	resp, body = doJSON(t, app, http.MethodGet, "/exchange/records?model=sale.order&res_id=11", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []exchange.RecordView
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "so-11.csv", listed[0].ExchangeFilename)

	resp, body = doJSON(t, app, http.MethodGet, "/exchange/messages?model=sale.order&res_id=11", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(body, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, models.StateOutputSentAndProcessed, msgs[0].State)
	assert.Equal(t, models.SeverityInfo, msgs[1].Severity)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t)
	app := newApp(t, f)
	rec, err := f.svc.CreateRecord(context.Background(), f.backend.ID, exchange.CreateRequest{TypeCode: "orders", Model: "x", ResID: 1})
	require.NoError(t, err)

	cases := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"UnknownRecord", http.MethodGet, "/exchange/records/404", nil, fiber.StatusNotFound},
		{"InvalidID", http.MethodGet, "/exchange/records/abc", nil, fiber.StatusBadRequest},
		{"UnknownType", http.MethodPost, "/exchange/backends/" + itoa(f.backend.ID) + "/records",
			exchange.CreateRequest{TypeCode: "nope", Model: "x"}, fiber.StatusNotFound},
		{"MissingModel", http.MethodGet, "/exchange/records", nil, fiber.StatusBadRequest},
		{"NoGenerator", http.MethodPost, "/exchange/records/" + itoa(rec.ID) + "/generate", nil, fiber.StatusBadRequest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, body := doJSON(t, app, c.method, c.target, c.body)
			assert.Equal(t, c.status, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}

	t.Run("SendWithoutPayload", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(rec.ID)+"/send", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandler_Sync(t *testing.T) {
	f := newFixture(t)
	app := newApp(t, f)

	resp, body := doJSON(t, app, http.MethodPost, "/exchange/sync?input=false", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var report batch.Report
	require.NoError(t, json.Unmarshal(body, &report))
	assert.NotNil(t, report.Output)
	assert.Nil(t, report.Input)
}

func TestHandler_Generate(t *testing.T) {
	f := newFixture(t)
	app := newApp(t, f)
	f.gens.Register("plain", exchange.GeneratorFunc(func(_ context.Context, rec *models.Record) ([]byte, error) {
		return []byte("generated " + rec.TargetRef()), nil
	}))
	rec, err := f.svc.CreateRecord(context.Background(), f.backend.ID, exchange.CreateRequest{TypeCode: "orders", Model: "x", ResID: 2})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/exchange/records/"+itoa(rec.ID)+"/generate?store=true", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "generated x,2", string(body))

	stored, err := f.svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "generated x,2", string(stored.ExchangeFile))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
