package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-Id"

func setResponseDefaults(r *Response) {
	if r.Message == "" {
		r.Message = "Success"
	}
	if r.Code == 0 {
		r.Code = http.StatusOK
	}
}

func logResponseError(c *gin.Context, logger *zap.Logger, r Response) {
	if r.Error == nil {
		return
	}

	logger.Warn("request failed",
		zap.String("requestId", c.GetString("requestId")),
		zap.String("path", c.Request.URL.Path),
		zap.Int("code", r.Code),
		zap.String("tag", r.Tag),
		zap.Error(r.Error),
	)
}

func getStartTime(c *gin.Context) time.Time {
	if value, exists := c.Get("start-time"); exists {
		if t, ok := value.(time.Time); ok {
			return t
		}
	}
	return time.Now()
}

func buildDebugInfo(c *gin.Context, r Response) *ResponseAPIDebug {
	startTime := getStartTime(c)
	endTime := time.Now()

	var errMsg *string
	if r.Error != nil {
		msg := r.Error.Error()
		errMsg = &msg
	}

	return &ResponseAPIDebug{
		Version:   c.GetString("version"),
		StartTime: startTime,
		EndTime:   endTime,
		RuntimeMs: endTime.Sub(startTime).Milliseconds(),
		Error:     errMsg,
	}
}

func buildResponseAPI(c *gin.Context, r Response, shouldDebug bool) ResponseAPI {
	response := ResponseAPI{
		RequestID: c.GetString("requestId"),
		Error:     r.Tag,
		Message:   r.Message,
		Data:      r.Data,
		Hint:      r.Hint,
	}

	if shouldDebug {
		response.Debug = buildDebugInfo(c, r)
	}

	return response
}

func send(c *gin.Context, logger *zap.Logger, shouldDebug bool) func(r Response) {
	return func(r Response) {
		setResponseDefaults(&r)
		logResponseError(c, logger, r)
		response := buildResponseAPI(c, r, shouldDebug)

		c.Abort()
		c.JSON(r.Code, response)
	}
}

// RequestInit assigns a request id, a client version and the start time.
func RequestInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("requestId", requestID)
		c.Header(RequestIDHeader, requestID)
		version := c.Request.Header.Get("version")
		if version == "" {
			version = "1.0.0"
		}
		c.Set("version", version)
		c.Set("start-time", time.Now())
		c.Next()
	}
}

// sendStream writes the chunks of r as they arrive and flushes after each
// one. The status and headers are committed with the first data chunk; an
// error received before that is answered with a regular error response.
func sendStream(c *gin.Context, logger *zap.Logger, shouldDebug bool) func(r StreamResponse) StreamResult {
	return func(r StreamResponse) StreamResult {
		requestID := c.GetString("requestId")
		var result StreamResult

		if r.Code == 0 {
			r.Code = http.StatusOK
		}
		if r.ContentType == "" {
			r.ContentType = "application/json"
		}

		if r.Error != nil {
			send(c, logger, shouldDebug)(Response{
				Code:    r.Code,
				Tag:     "stream_failed",
				Message: "Stream failed",
				Error:   r.Error,
			})
			result.Err = r.Error
			return result
		}

		writer := c.Writer
		started := false

		for chunk := range r.ChunkChan {
			select {
			case <-c.Request.Context().Done():
				logger.Info("stream canceled",
					zap.String("requestId", requestID),
					zap.Error(c.Request.Context().Err()),
				)
				result.Canceled = true
				c.Abort()
				return result
			default:
			}

			if chunk.Error != nil {
				result.Err = chunk.Error
				logger.Error("stream error",
					zap.String("requestId", requestID),
					zap.Bool("started", started),
					zap.Error(chunk.Error),
				)
				if !started {
					send(c, logger, shouldDebug)(Response{
						Code:    http.StatusInternalServerError,
						Tag:     "generation_failed",
						Message: "Stream failed",
						Error:   chunk.Error,
					})
				}
				// Headers are committed; the producer has already closed the
				// document, so ending the response is all that is left.
				c.Abort()
				return result
			}

			if chunk.JSONBuf == nil || len(*chunk.JSONBuf) == 0 {
				continue
			}

			if !started {
				c.Header("Content-Type", r.ContentType)
				if r.TotalCount >= 0 {
					c.Header("X-Total-Count", strconv.FormatInt(r.TotalCount, 10))
				}
				c.Status(r.Code)
				started = true
			}

			n, err := writer.Write(*chunk.JSONBuf)
			result.Bytes += int64(n)
			result.Chunks++
			if chunk.Recycle != nil {
				chunk.Recycle(chunk.JSONBuf)
			}
			if err != nil {
				logger.Info("stream write failed",
					zap.String("requestId", requestID),
					zap.Error(err),
				)
				result.Canceled = true
				c.Abort()
				return result
			}

			writer.Flush()
		}

		if !started {
			// Nothing was produced; still answer with a valid empty body.
			c.Header("Content-Type", r.ContentType)
			c.Status(r.Code)
			writer.WriteHeaderNow()
		}

		if shouldDebug {
			logger.Debug("stream completed",
				zap.String("requestId", requestID),
				zap.Int64("runtimeMs", time.Since(getStartTime(c)).Milliseconds()),
				zap.Int64("bytes", result.Bytes),
				zap.Int("chunks", result.Chunks),
			)
		}

		c.Abort()
		return result
	}
}

// ResponseInit injects the send and sendStream helpers into the context.
func ResponseInit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		shouldDebug := gin.Mode() == gin.DebugMode
		c.Set("send", send(c, logger, shouldDebug))
		c.Set("sendStream", sendStream(c, logger, shouldDebug))
		c.Next()
	}
}
