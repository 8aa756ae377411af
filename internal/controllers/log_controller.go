package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opsdesk/backend/internal/logger"
	"github.com/opsdesk/backend/internal/models"
	"github.com/opsdesk/backend/internal/store"
)

// LogStore is the slice of the relational store the controller needs.
type LogStore interface {
	FetchAll(ctx context.Context) ([]models.LogRecord, error)
	Update(ctx context.Context, logID int64, ticketNumber string, status models.LogStatus) error
}

type LogController struct {
	store LogStore
}

// NewLogController wires the log endpoints. store may be nil when the
// relational store is not configured.
func NewLogController(s LogStore) *LogController {
	return &LogController{store: s}
}

// GetLogs returns every log record with its derived display fields.
func (lc *LogController) GetLogs(c *gin.Context) {
	if lc.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "The log database is not configured. Check the server environment settings."})
		return
	}

	records, err := lc.store.FetchAll(c.Request.Context())
	if err != nil {
		logger.WithError(err, "log_controller").Error("Failed to fetch log records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log records from the database."})
		return
	}

	views := make([]models.LogRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, models.NewLogRecordView(r))
	}
	c.JSON(http.StatusOK, views)
}

type updateLogRequest struct {
	LogID        *int64 `json:"log_id"`
	TicketNumber string `json:"ticket_number"`
	Status       string `json:"status"`
}

// UpdateLog attaches a ticket number and status to one log record.
func (lc *LogController) UpdateLog(c *gin.Context) {
	var req updateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LogID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: log_id, ticket_number and status are required."})
		return
	}

	if lc.store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "The log database is not configured. Check the server environment settings."})
		return
	}

	err := lc.store.Update(c.Request.Context(), *req.LogID, req.TicketNumber, models.LogStatus(req.Status))
	switch {
	case errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		logger.WithError(err, "log_controller").Error("Failed to update log record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update the log record."})
	default:
		logger.Info("Log record updated", map[string]interface{}{
			"log_id": *req.LogID,
			"ticket": req.TicketNumber,
			"status": req.Status,
		})
		c.JSON(http.StatusOK, gin.H{"message": "Update successful!"})
	}
}
