package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opsdesk/backend/internal/config"
	"github.com/opsdesk/backend/internal/models"
	"github.com/opsdesk/backend/internal/services"
)

// Answerer is the QA orchestrator as the controller sees it.
type Answerer interface {
	Answer(ctx context.Context, question string) models.Answer
}

type QAController struct {
	qa   Answerer
	caps config.Capabilities
}

func NewQAController(qa Answerer, caps config.Capabilities) *QAController {
	return &QAController{qa: qa, caps: caps}
}

type askRequest struct {
	// A pointer so a missing key is distinguishable from an empty question:
	// the former is a malformed request, the latter gets the orchestrator's
	// fixed guard message.
	Question *string `json:"question"`
}

// Ask answers one free-text IT question.
func (qc *QAController) Ask(c *gin.Context) {
	if !qc.caps.AI || !qc.caps.KnowledgeBase {
		c.JSON(http.StatusBadRequest, gin.H{"answer": services.FeatureUnavailableMessage})
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == nil {
		c.JSON(http.StatusBadRequest, gin.H{"answer": "Error: the request does not contain a question."})
		return
	}

	answer := qc.qa.Answer(c.Request.Context(), *req.Question)
	c.JSON(http.StatusOK, gin.H{"answer": answer.Text})
}
