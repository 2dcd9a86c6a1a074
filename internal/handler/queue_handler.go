package handler

import (
	"net/http"

	"livedesk/internal/services"
	"livedesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	service *services.QueueService
}

func NewQueueHandler(service *services.QueueService) *QueueHandler {
	return &QueueHandler{service: service}
}

// List returns the pending backlog oldest first.
func (h *QueueHandler) List(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewConversationViews(items)))
}

func (h *QueueHandler) Count(c *gin.Context) {
	count, err := h.service.CountPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"pending": count}))
}
