// internal/handler/errors.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/manager"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/pool"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// statusForError maps scanner-layer failures to HTTP status codes so every
// handler reports the same class of failure the same way.
func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrDetectionRunning):
		return http.StatusConflict
	case errors.Is(err, pool.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch transport.CodeOf(err) {
	case transport.CodeConfigurationInvalid:
		return http.StatusBadRequest
	case transport.CodeConnectionFailure:
		return http.StatusServiceUnavailable
	case transport.CodeTimeoutFailure:
		return http.StatusGatewayTimeout
	case transport.CodeProtocolFailure:
		return http.StatusUnprocessableEntity
	case transport.CodeCommunicationFailure:
		return http.StatusBadGateway
	case transport.CodeResourceExhausted:
		return http.StatusTooManyRequests
	}

	return http.StatusInternalServerError
}

// scannerErrorResponse answers with the mapped status and, when the error
// carries a transport failure code, surfaces that code in the envelope.
func scannerErrorResponse(c *gin.Context, message string, err error) {
	status := statusForError(err)
	if code := transport.CodeOf(err); code != "" {
		utils.ErrorResponseWithCode(c, status, string(code), message, err)
		return
	}
	utils.ErrorResponse(c, status, message, err)
}
