package models

import (
	"strings"
	"time"
)

type LogStatus string

const (
	StatusNotStarted LogStatus = "not_started"
	StatusInProgress LogStatus = "in_progress"
	StatusDone       LogStatus = "done"
)

// ValidStatus reports whether s is one of the known ticket statuses.
func ValidStatus(s LogStatus) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// LogRecord is a row of the externally owned log_data table. log_id and
// log_date are assigned by the producer; only ticket_number and status are
// ever written back from here.
type LogRecord struct {
	LogID        int64     `json:"log_id" gorm:"column:log_id;primaryKey"`
	LogDate      time.Time `json:"log_date" gorm:"column:log_date"`
	LogData      string    `json:"log_data" gorm:"column:log_data;type:text"`
	TicketNumber *string   `json:"ticket_number" gorm:"column:ticket_number"`
	Status       LogStatus `json:"status" gorm:"column:status;default:'not_started'"`
}

func (LogRecord) TableName() string {
	return "log_data"
}

const logPreviewLimit = 80

// LogRecordView is the API shape of a log row, with the display fields the
// frontend table renders directly.
type LogRecordView struct {
	LogID         int64  `json:"log_id"`
	LogDate       string `json:"log_date"`
	LogData       string `json:"log_data"`
	LogPreview    string `json:"log_preview"`
	TicketNumber  string `json:"ticket_number"`
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display"`
}

// NewLogRecordView derives the display fields for a single record.
func NewLogRecordView(r LogRecord) LogRecordView {
	ticket := ""
	if r.TicketNumber != nil {
		ticket = *r.TicketNumber
	}

	date := ""
	if !r.LogDate.IsZero() {
		date = r.LogDate.Format("2006-01-02 15:04:05")
	}

	return LogRecordView{
		LogID:         r.LogID,
		LogDate:       date,
		LogData:       r.LogData,
		LogPreview:    PreviewLogData(r.LogData),
		TicketNumber:  ticket,
		Status:        string(r.Status),
		StatusDisplay: StatusDisplay(r.Status),
	}
}

// StatusDisplay returns the icon-prefixed label shown in the log table.
func StatusDisplay(s LogStatus) string {
	switch s {
	case StatusInProgress:
		return "⏳ In progress"
	case StatusDone:
		return "✅ Done"
	}
	return "🔴 Not started"
}

// PreviewLogData strips the leading "[...] " bracket blocks a log line
// usually starts with and truncates the remainder for table display.
func PreviewLogData(data string) string {
	content := data
	if i := strings.LastIndex(data, "] "); i != -1 {
		content = data[i+2:]
	}
	content = strings.TrimSpace(content)

	runes := []rune(content)
	if len(runes) > logPreviewLimit {
		return string(runes[:logPreviewLimit]) + "..."
	}
	return content
}
