package handler

import (
	"net/http"

	"livedesk/internal/domain"
	"livedesk/internal/services"
	"livedesk/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	lifecycle *services.LifecycleService
	responder *services.ResponderService
}

func NewConversationHandler(lifecycle *services.LifecycleService, responder *services.ResponderService) *ConversationHandler {
	return &ConversationHandler{lifecycle: lifecycle, responder: responder}
}

// Start opens the customer's support thread, or returns the one already
// active. Always 200; creation is not observable to the caller.
func (h *ConversationHandler) Start(c *gin.Context) {
	var req httpdto.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	customerID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := h.lifecycle.CreateOrGet(c.Request.Context(), customerID, req.Subject)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewConversationView(conv)))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	userID, _ := services.UserIDFromContext(c.Request.Context())
	role, _ := services.RoleFromContext(c.Request.Context())

	conv, err := h.lifecycle.GetByID(c.Request.Context(), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	if role == domain.UserRoleCustomer && conv.CustomerID != userID {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewConversationView(conv)))
}

// Assign claims a PENDING conversation, or transfers an OPEN one. The agent
// defaults to the caller; admins may assign to someone else.
func (h *ConversationHandler) Assign(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	callerID, _ := services.UserIDFromContext(c.Request.Context())
	role, _ := services.RoleFromContext(c.Request.Context())

	agentID := callerID
	var req httpdto.AssignRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.AgentID != "" {
		parsed, err := uuid.Parse(req.AgentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid agent id", "INVALID_REQUEST"))
			return
		}
		if parsed != callerID && role != domain.UserRoleAdmin {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
			return
		}
		agentID = parsed
	}

	conv, err := h.lifecycle.Assign(c.Request.Context(), conversationID, agentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewConversationView(conv)))
}

// Close ends a conversation. Agents close any; customers close their own.
func (h *ConversationHandler) Close(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	userID, _ := services.UserIDFromContext(c.Request.Context())
	role, _ := services.RoleFromContext(c.Request.Context())

	var conv domain.Conversation
	if role == domain.UserRoleCustomer {
		conv, err = h.lifecycle.CloseByCustomer(c.Request.Context(), conversationID, userID)
	} else {
		conv, err = h.lifecycle.Close(c.Request.Context(), conversationID, userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewConversationView(conv)))
}

// Assist runs the customer's text through the scripted responder while the
// conversation is still waiting for an agent.
func (h *ConversationHandler) Assist(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	var req httpdto.AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	customerID, _ := services.UserIDFromContext(c.Request.Context())

	reply, err := h.responder.Respond(c.Request.Context(), conversationID, customerID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(reply))
}

// Leave marks the calling agent away and requeues their open conversation.
func (h *ConversationHandler) Leave(c *gin.Context) {
	agentID, _ := services.UserIDFromContext(c.Request.Context())

	if err := h.lifecycle.ReleaseAgent(c.Request.Context(), agentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "away"}))
}
