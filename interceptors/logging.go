package interceptors

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDFilter propagates the caller's X-Request-ID or assigns a new one.
func RequestIDFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	id := req.HeaderParameter(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	resp.AddHeader(RequestIDHeader, id)
	req.Request = req.Request.WithContext(context.WithValue(req.Request.Context(), RequestIDKey, id))
	chain.ProcessFilter(req, resp)
}

// AccessLogFilter logs one line per request after it has been handled.
func AccessLogFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		fields := []zap.Field{
			zap.String("client_ip", clientIP(req.Request)),
			zap.String("method", req.Request.Method),
			zap.String("path", req.Request.URL.Path),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
		}
		if id, ok := GetRequestIDFromContext(req.Request.Context()); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		if username, ok := GetUsernameFromContext(req.Request.Context()); ok {
			fields = append(fields, zap.String("username", username))
		}

		switch {
		case resp.StatusCode() >= http.StatusInternalServerError:
			logger.Error("Request", fields...)
		case resp.StatusCode() >= http.StatusBadRequest:
			logger.Warn("Request", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}

// RecoverHandler turns a handler panic into a 500 JSON response.
// Install it with Container.RecoverHandler.
func RecoverHandler(logger *zap.Logger) restful.RecoverHandleFunction {
	return func(panicReason interface{}, w http.ResponseWriter) {
		logger.Error("Recovered from panic",
			zap.Any("reason", panicReason),
			zap.ByteString("stack", debug.Stack()),
		)
		w.Header().Set("Content-Type", restful.MIME_JSON)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
	}
}

// clientIP is the first X-Forwarded-For hop, or the peer address without one.
func clientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return r.RemoteAddr
}
