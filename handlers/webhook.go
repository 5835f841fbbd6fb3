package handlers

import (
	"net/http"

	"voyager/models"
	"voyager/services/agent"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler serves the three events the voice platform sends: call
// start, tool invocation, and hangup.
type WebhookHandler struct {
	Agent agent.Agent
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(a agent.Agent) *WebhookHandler {
	return &WebhookHandler{Agent: a}
}

// CallStartHandler bootstraps state for an inbound call and returns the
// opening line for the platform to speak.
func (wh *WebhookHandler) CallStartHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.CallStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid call start request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := wh.Agent.StartCall(c.Request.Context(), req.CallID, req.From)
	if err != nil {
		logger.Error("Call start failed",
			zap.String("callID", req.CallID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start call"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ToolHandler runs one tool invocation. Rejections are still HTTP 200: the
// response body carries the corrective line and the reason kind, and the
// platform speaks it like any other turn.
func (wh *WebhookHandler) ToolHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid tool request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp := wh.Agent.HandleTool(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// HangupHandler tears down a finished call. Hanging up a call that no
// longer has state is fine; platforms retry hangup events.
func (wh *WebhookHandler) HangupHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.HangupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid hangup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := wh.Agent.EndCall(c.Request.Context(), req.CallID); err != nil {
		logger.Error("Hangup failed",
			zap.String("callID", req.CallID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end call"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
