package exchange

import (
	"errors"

	"edi-exchange/core/logger"
	"edi-exchange/core/utils"
	"edi-exchange/feature/exchange/batch"
	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/reconcile"
	"edi-exchange/feature/exchange/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for exchange records.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the exchange routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/exchange")
	group.Post("/sync", h.HandleSync)
	group.Post("/backends/:id/records", h.HandleCreateRecord)
	group.Get("/records", h.HandleListRecords)
	group.Get("/records/:id", h.HandleGetRecord)
	group.Post("/records/:id/send", h.HandleSend)
	group.Post("/records/:id/check", h.HandleCheck)
	group.Post("/records/:id/process", h.HandleProcess)
	group.Post("/records/:id/generate", h.HandleGenerate)
	group.Get("/messages", h.HandleListMessages)
}

// RecordView is the JSON shape of a record.
type RecordView struct {
	*models.Record
	Type        string `json:"type"`
	Backend     string `json:"backend"`
	DisplayName string `json:"display_name"`
}

func view(rec *models.Record) RecordView {
	return RecordView{
		Record:      rec,
		Type:        rec.Type.Code,
		Backend:     rec.Backend.Name,
		DisplayName: rec.DisplayName(),
	}
}

// HandleSync runs the batch sweeps. Both sweeps run unless disabled with
// ?input=false or ?output=false.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	opts := batch.Options{
		CheckInput:  utils.ToBool(c.Query("input", "true")),
		CheckOutput: utils.ToBool(c.Query("output", "true")),
	}
	report, err := h.service.Sync(c.UserContext(), opts)
	if err != nil {
		return h.fail(c, "Sync failed", err)
	}
	return c.JSON(report)
}

// HandleCreateRecord creates a record on the backend given by :id.
func (h *Handler) HandleCreateRecord(c *fiber.Ctx) error {
	backendID, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	rec, err := h.service.CreateRecord(c.UserContext(), backendID, req)
	if err != nil {
		return h.fail(c, "Record creation failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(view(rec))
}

// HandleGetRecord returns one record.
func (h *Handler) HandleGetRecord(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	rec, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "Record lookup failed", err)
	}
	return c.JSON(view(rec))
}

// HandleListRecords lists the records of ?model=&res_id=.
func (h *Handler) HandleListRecords(c *fiber.Ctx) error {
	model, resID := c.Query("model"), utils.ToUint64(c.Query("res_id"))
	if model == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "model is required"})
	}
	records, err := h.service.ListFor(c.UserContext(), model, resID)
	if err != nil {
		return h.fail(c, "Record listing failed", err)
	}
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, view(rec))
	}
	return c.JSON(out)
}

// HandleListMessages lists the audit trail of ?model=&res_id=.
func (h *Handler) HandleListMessages(c *fiber.Ctx) error {
	model, resID := c.Query("model"), utils.ToUint64(c.Query("res_id"))
	if model == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "model is required"})
	}
	msgs, err := h.service.Messages(c.UserContext(), model, resID)
	if err != nil {
		return h.fail(c, "Message listing failed", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(msgs)
}

// HandleSend sends an output record.
func (h *Handler) HandleSend(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	rec, sent, err := h.service.Send(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "Send failed", err)
	}
	return c.JSON(fiber.Map{"record": view(rec), "sent": sent})
}

// HandleCheck reconciles a record with its backend.
func (h *Handler) HandleCheck(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	rec, pending, err := h.service.Check(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "Check failed", err)
	}
	return c.JSON(fiber.Map{"record": view(rec), "pending": pending})
}

// HandleProcess imports a received input record.
func (h *Handler) HandleProcess(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	rec, processed, err := h.service.Process(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "Process failed", err)
	}
	return c.JSON(fiber.Map{"record": view(rec), "processed": processed})
}

// HandleGenerate renders the payload of an output record. ?store=true saves it.
func (h *Handler) HandleGenerate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, "Invalid request", err)
	}
	data, err := h.service.GenerateOutput(c.UserContext(), id, utils.ToBool(c.Query("store")))
	if err != nil {
		return h.fail(c, "Output generation failed", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

var errInvalidID = errors.New("invalid id")

func paramID(c *fiber.Ctx) (uint, error) {
	id := utils.ToUint64(c.Params("id"))
	if id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrTypeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrIllegalTransition), errors.Is(err, store.ErrStale):
		return fiber.StatusConflict
	case errors.Is(err, errInvalidID),
		errors.Is(err, reconcile.ErrWrongDirection),
		errors.Is(err, reconcile.ErrNoPayload),
		errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrNoGenerator):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
