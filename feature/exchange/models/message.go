package models

import "time"

// Severity grades a notification attached to a business entity.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is one audit trail entry posted on the business entity behind a record.
type Message struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	RecordID uint     `gorm:"not null;index" json:"record_id"`
	Model    string   `gorm:"type:varchar(128);not null;index:idx_edi_message_target" json:"model"`
	ResID    uint64   `gorm:"not null;index:idx_edi_message_target" json:"res_id"`
	Severity Severity `gorm:"type:varchar(16);not null" json:"severity"`
	Body     string   `gorm:"type:text" json:"body"`
	// State is the record state when the message was posted.
	State     State     `gorm:"type:varchar(64)" json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name.
func (Message) TableName() string {
	return "edi_exchange_messages"
}
