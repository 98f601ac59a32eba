package handler

import (
	"net/http"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/middleware"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/service"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves the RAG chatbot.
type ChatHandler struct {
	rag *service.RAGService
}

func NewChatHandler(rag *service.RAGService) *ChatHandler {
	return &ChatHandler{rag: rag}
}

type chatRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers one question grounded in the tenant's indexed contracts.
func (h *ChatHandler) Ask(c *gin.Context) {
	if h.rag == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat service not configured"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: question is required"})
		return
	}

	answer, err := h.rag.Ask(c.Request.Context(), middleware.GetTenant(c), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
