package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-backend/internal/domain"
)

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrAuthorizationFailed),
		errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTodoNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code and a {"detail": ...} body. Internal errors are
// recorded on the context for the request logger and never echoed.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		writeDetail(c, status, "internal server error")
		return
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Header("WWW-Authenticate", "Bearer")
		writeDetail(c, status, domain.ErrUnauthenticated.Error())
		return
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeDetail(c, status, verr.Error())
		return
	}
	writeDetail(c, status, sentinelMessage(err))
}

func writeDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

var sentinels = []error{
	domain.ErrAuthorizationFailed,
	domain.ErrForbidden,
	domain.ErrInvalidPassword,
	domain.ErrTodoNotFound,
	domain.ErrUserNotFound,
	domain.ErrConflict,
	domain.ErrStorageUnavailable,
}

// sentinelMessage strips wrapping context so store details do not leak.
func sentinelMessage(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}
