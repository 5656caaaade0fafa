package responses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/utils/platformerrors"
)

// HandleError maps domain sentinels and platform errors to HTTP responses.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().Str("path", c.Request.URL.Path).Logger()

	switch {
	case errors.Is(err, messaging.ErrContactNotFound),
		errors.Is(err, messaging.ErrClientNotAttached):
		platformerrors.WriteTyped(c, platformerrors.ErrorTypeNotFound, message)
		return
	case errors.Is(err, messaging.ErrClientAlreadyAttached):
		platformerrors.WriteTyped(c, platformerrors.ErrorTypeConflict, message)
		return
	case errors.Is(err, messaging.ErrNoActiveConversation),
		errors.Is(err, messaging.ErrHistoryLoading),
		errors.Is(err, messaging.ErrConversationMismatch):
		platformerrors.WriteTyped(c, platformerrors.ErrorTypeValidation, message)
		return
	}

	platformerrors.WriteError(c, err, logger)
}

// HandleNewError creates and writes a new typed error response.
// Use this for route-level errors like validation or authorization failures.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	platformerrors.WriteTyped(c, errorType, message)
}
