package controllers

import (
	"errors"
	"io"
	"net/http"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"bookstore-restful/interceptors"
	"bookstore-restful/services"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// errorResponder translates service errors to HTTP responses.
type errorResponder struct {
	logger        *zap.Logger
	exposeDetails bool
}

// bodyMethods may arrive without a Content-Type; their body is then read as JSON.
var bodyMethods = []string{http.MethodPost, http.MethodPut}

func writeError(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, ErrorResponse{Error: message}, restful.MIME_JSON)
}

// writeServiceError answers routing failures raised by the container
// (unknown route, method, media type) with the usual JSON error body.
func writeServiceError(serviceError restful.ServiceError, _ *restful.Request, response *restful.Response) {
	for header, values := range serviceError.Header {
		for _, value := range values {
			response.Header().Add(header, value)
		}
	}
	writeError(response, serviceError.Code, http.StatusText(serviceError.Code))
}

// handleServiceError answers with the status matching err's kind. Errors of
// no known kind become a 500 carrying internalMessage.
func (e errorResponder) handleServiceError(request *restful.Request, response *restful.Response, err error, internalMessage string) {
	var svcErr *services.Error
	message := internalMessage
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeError(response, http.StatusBadRequest, message)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(response, http.StatusUnauthorized, message)
	case errors.Is(err, services.ErrNotFound):
		writeError(response, http.StatusNotFound, message)
	default:
		fields := []zap.Field{
			zap.String("path", request.Request.URL.Path),
			zap.Error(err),
		}
		if id, ok := interceptors.GetRequestIDFromContext(request.Request.Context()); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		e.logger.Error(internalMessage, fields...)

		body := ErrorResponse{Error: internalMessage}
		if e.exposeDetails {
			body.Details = err.Error()
		}
		_ = response.WriteHeaderAndJson(http.StatusInternalServerError, body, restful.MIME_JSON)
	}
}

// readBody decodes the JSON request body into entity, answering 400 on failure.
// An empty body leaves entity at its zero value.
func readBody(request *restful.Request, response *restful.Response, entity interface{}) bool {
	if err := request.ReadEntity(entity); err != nil && !errors.Is(err, io.EOF) {
		writeError(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
