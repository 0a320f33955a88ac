package middlewares

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"spinwheel/pkg/logger"
)

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Logger logs every request with its status and latency. Error responses
// also get the request and response bodies.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		start := time.Now()
		c.Next()

		cost := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("request", c.Request.Method+" "+c.Request.URL.String()),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
			zap.String("time", cast.ToString(cost.Milliseconds())+"ms"),
		}
		if status >= 400 {
			fields = append(fields,
				zap.String("Request Body", string(requestBody)),
				zap.String("Response Body", w.body.String()),
			)
		}

		switch {
		case status >= 500:
			logger.Error("HTTP Error "+cast.ToString(status), fields...)
		case status >= 400:
			logger.Warn("HTTP Warning "+cast.ToString(status), fields...)
		default:
			logger.Debug("HTTP Access Log", fields...)
		}
	}
}
