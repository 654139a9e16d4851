package common

import (
	"time"

	"github.com/guregu/null/v5"
)

// Generation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeRejected = "rejected"
)

// Generation is the journal row kept for each finished generation request.
// Only request metadata is stored, never generated records.
type Generation struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	RequestID  string      `gorm:"size:36;index" json:"request_id"`
	Endpoint   string      `gorm:"size:32" json:"endpoint"`
	Structure  null.Int    `json:"structure"`
	SizeKB     float64     `json:"size_kb"`
	Random     bool        `json:"random"`
	Streaming  bool        `json:"streaming"`
	Records    int         `json:"records"`
	Bytes      int64       `json:"bytes"`
	Outcome    string      `gorm:"size:16;index" json:"outcome"`
	Error      null.String `gorm:"size:512" json:"error"`
	DurationMs int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (Generation) TableName() string {
	return "generations"
}
