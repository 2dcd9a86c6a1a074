package handler

import (
	"errors"
	"net/http"

	"livedesk/internal/transport/httpdto"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps domain sentinels onto HTTP status and stable error
// codes. Clients branch on the code, not the message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, livedesk_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
	case errors.Is(err, livedesk_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	case errors.Is(err, livedesk_errors.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
	case errors.Is(err, livedesk_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
	case errors.Is(err, livedesk_errors.ErrConversationClosed):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("conversation is closed", "CONVERSATION_CLOSED"))
	case errors.Is(err, livedesk_errors.ErrAwaitingAgent):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("waiting for an agent to join", "AWAITING_AGENT"))
	case errors.Is(err, livedesk_errors.ErrAgentBusy):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("agent already has an open conversation", "AGENT_BUSY"))
	case errors.Is(err, livedesk_errors.ErrAlreadyAssigned):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("conversation was claimed by another agent", "ALREADY_ASSIGNED"))
	case errors.Is(err, livedesk_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse("already exists", "ALREADY_EXISTS"))
	case errors.Is(err, livedesk_errors.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
