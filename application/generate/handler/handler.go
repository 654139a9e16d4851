package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"datagen/application/generate/domain"
	"datagen/application/generate/service"
	"datagen/common"
	"datagen/internal/admission"
	"datagen/internal/shape"
	"datagen/internal/stream"
	"datagen/middleware"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v5"
)

// Response headers of the generation endpoints.
const (
	HeaderJSONPath      = "X-JSONPath"
	HeaderDeterministic = "X-Deterministic"
	HeaderStreaming     = "X-Streaming"
)

// Handler handles HTTP requests for data generation
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new Handler
func NewHandler(service domain.Service) *Handler {
	return &Handler{svc: service}
}

// RegisterRoutes registers the handler routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/generate", h.Generate)
	api.GET("/generate/ndjson", h.GenerateNDJSON)
	api.GET("/generate/events", h.GenerateEvents)
	api.GET("/structures", h.Structures)
}

// Generate handles GET /api/generate
func (h *Handler) Generate(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	sendStream := c.MustGet("sendStream").(func(middleware.StreamResponse) middleware.StreamResult)
	startTime := time.Now()

	req, err := domain.ParseRequest(c.GetQuery)
	if err == nil {
		err = domain.CheckStreamable(req)
	}
	if err != nil {
		sendValidationError(send, err)
		return
	}

	sh, _ := shape.Lookup(req.Structure)
	entry := &common.Generation{
		RequestID: c.GetString("requestId"),
		Endpoint:  "generate",
		Structure: null.IntFrom(int64(req.Structure)),
		SizeKB:    req.SizeKB,
		Random:    req.Random,
		Streaming: req.Streaming(),
	}
	defer func() {
		entry.DurationMs = time.Since(startTime).Milliseconds()
		h.svc.Finish(c.Request.Context(), entry)
	}()

	ticket, err := h.svc.Admit(req.SizeKB)
	if err != nil {
		entry.Outcome = service.Outcome(err, false)
		entry.Error = null.StringFrom(err.Error())
		sendBusy(c, send, err)
		return
	}
	defer ticket.Release()
	stop := context.AfterFunc(c.Request.Context(), ticket.Release)
	defer stop()

	c.Header(HeaderJSONPath, sh.JSONPath())
	c.Header(HeaderDeterministic, strconv.FormatBool(!req.Random))
	c.Header(HeaderStreaming, strconv.FormatBool(req.Streaming()))

	if req.Streaming() {
		st, _ := shape.AsStreamable(sh)
		session, resp := h.svc.StreamDocument(c.Request.Context(), req, st)
		result := sendStream(resp)
		finishStream(entry, session, result)
		return
	}

	body, records, err := h.svc.BuildDocument(c.Request.Context(), req, sh)
	if err != nil {
		entry.Outcome = service.Outcome(err, c.Request.Context().Err() != nil)
		entry.Error = null.StringFrom(err.Error())
		send(middleware.Response{
			Code:    http.StatusInternalServerError,
			Tag:     domain.TagGenerationFailed,
			Message: "Failed to generate data",
			Error:   err,
		})
		return
	}

	entry.Records = records
	entry.Bytes = int64(len(body))
	entry.Outcome = common.OutcomeSuccess
	c.Data(http.StatusOK, "application/json", body)
}

// GenerateNDJSON handles GET /api/generate/ndjson
func (h *Handler) GenerateNDJSON(c *gin.Context) {
	h.generateLines(c, stream.FramingNDJSON, "ndjson")
}

// GenerateEvents handles GET /api/generate/events
func (h *Handler) GenerateEvents(c *gin.Context) {
	h.generateLines(c, stream.FramingEvents, "events")
}

func (h *Handler) generateLines(c *gin.Context, framing stream.Framing, endpoint string) {
	send := c.MustGet("send").(func(middleware.Response))
	sendStream := c.MustGet("sendStream").(func(middleware.StreamResponse) middleware.StreamResult)
	startTime := time.Now()

	req, err := domain.ParseLineRequest(c.GetQuery)
	if err != nil {
		sendValidationError(send, err)
		return
	}

	entry := &common.Generation{
		RequestID: c.GetString("requestId"),
		Endpoint:  endpoint,
		SizeKB:    req.SizeKB,
		Random:    req.Random,
		Streaming: true,
	}
	defer func() {
		entry.DurationMs = time.Since(startTime).Milliseconds()
		h.svc.Finish(c.Request.Context(), entry)
	}()

	ticket, err := h.svc.Admit(req.SizeKB)
	if err != nil {
		entry.Outcome = service.Outcome(err, false)
		entry.Error = null.StringFrom(err.Error())
		sendBusy(c, send, err)
		return
	}
	defer ticket.Release()
	stop := context.AfterFunc(c.Request.Context(), ticket.Release)
	defer stop()

	c.Header(HeaderDeterministic, strconv.FormatBool(!req.Random))
	c.Header(HeaderStreaming, "true")
	if framing == stream.FramingEvents {
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
	}

	session, resp := h.svc.StreamLines(c.Request.Context(), req, framing)
	result := sendStream(resp)
	finishStream(entry, session, result)
}

// Structures handles GET /api/structures
func (h *Handler) Structures(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	send(middleware.Response{
		Code:    http.StatusOK,
		Message: "Available structures",
		Data:    h.svc.Shapes(),
	})
}

func finishStream(entry *common.Generation, session *stream.Session, result middleware.StreamResult) {
	entry.Records = session.Written()
	entry.Bytes = result.Bytes
	entry.Outcome = service.Outcome(result.Err, result.Canceled)
	if result.Err != nil {
		entry.Error = null.StringFrom(result.Err.Error())
	}
}

func sendValidationError(send func(middleware.Response), err error) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		verr = &domain.ValidationError{Tag: "invalid_request", Message: err.Error()}
	}
	send(middleware.Response{
		Code:    http.StatusBadRequest,
		Tag:     verr.Tag,
		Message: verr.Message,
		Hint:    verr.Hint,
		Error:   err,
	})
}

func sendBusy(c *gin.Context, send func(middleware.Response), err error) {
	var rejected *admission.RejectedError
	if !errors.As(err, &rejected) {
		send(middleware.Response{
			Code:    http.StatusInternalServerError,
			Tag:     domain.TagGenerationFailed,
			Message: "Admission failed",
			Error:   err,
		})
		return
	}

	c.Header("Retry-After", "1")
	send(middleware.Response{
		Code:    http.StatusServiceUnavailable,
		Tag:     domain.TagServerBusy,
		Message: "Server is busy, retry later",
		Error:   err,
		Data: domain.BusyDetails{
			Current:         rejected.Current,
			Capacity:        rejected.Capacity,
			RequestedSizeKB: rejected.RequestedSizeKB,
		},
	})
}
