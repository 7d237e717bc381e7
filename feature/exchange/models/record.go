package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record tracks the journey of one exchanged file.
//
// A record points at some business entity through Model and ResID. That entity does
// not own the record: it looks its records up by (Model, ResID).
type Record struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	BackendID uint         `gorm:"not null;index" json:"backend_id"`
	Backend   Backend      `gorm:"foreignKey:BackendID" json:"-"`
	TypeID    uint         `gorm:"not null;index" json:"type_id"`
	Type      ExchangeType `gorm:"foreignKey:TypeID" json:"-"`
	// Direction is copied from the exchange type at creation time.
	Direction Direction `gorm:"type:varchar(16);not null;index:idx_edi_record_due" json:"direction"`

	Model string `gorm:"type:varchar(128);not null;index:idx_edi_record_target" json:"model"`
	ResID uint64 `gorm:"not null;index:idx_edi_record_target" json:"res_id"`

	ExchangeFile     []byte     `json:"-"`
	ExchangeFilename string     `gorm:"type:varchar(512)" json:"exchange_filename"`
	ExchangedOn      *time.Time `json:"exchanged_on,omitempty"`

	AckFile       []byte     `json:"-"`
	AckReceived   bool       `gorm:"not null;default:false" json:"ack_received"`
	AckReceivedOn *time.Time `json:"ack_received_on,omitempty"`

	State         State  `gorm:"column:edi_exchange_state;type:varchar(64);not null;default:new;index:idx_edi_record_due" json:"edi_exchange_state"`
	ExchangeError string `gorm:"type:text" json:"exchange_error,omitempty"`

	// Version guards against lost updates between concurrent writers.
	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name.
func (Record) TableName() string {
	return "edi_exchange_records"
}

// Validate enforces the direction invariant on the record state.
func (r *Record) Validate() error {
	if err := ValidateState(r.State, r.Direction); err != nil {
		return fmt.Errorf("record %d state %q direction %q: %w", r.ID, r.State, r.Direction, err)
	}
	return nil
}

// BeforeSave blocks any write that would break the direction invariant.
func (r *Record) BeforeSave(_ *gorm.DB) error {
	if r.State == "" {
		r.State = StateNew
	}
	return r.Validate()
}

// HasPayload reports whether the record carries a file to exchange.
func (r *Record) HasPayload() bool {
	return len(r.ExchangeFile) > 0
}

// AckFilename is the name of the acknowledgement the partner drops next to the file.
func (r *Record) AckFilename() string {
	return r.ExchangeFilename + ".ack"
}

// ErrorReportFilename is the name of the text report dropped next to a rejected file.
func (r *Record) ErrorReportFilename() string {
	return r.ExchangeFilename + ".error"
}

// TargetRef renders the business entity reference as "model,res_id".
func (r *Record) TargetRef() string {
	return fmt.Sprintf("%s,%d", r.Model, r.ResID)
}

// DisplayName is a short human label for logs and messages.
func (r *Record) DisplayName() string {
	name := r.Type.Name
	if name == "" {
		name = r.Type.Code
	}
	return fmt.Sprintf("[%s] %s", name, r.TargetRef())
}

// EventName builds the name of the event fired for the record's current state.
func (r *Record) EventName(suffix string) string {
	name := fmt.Sprintf("on_edi_%s_%s", r.Type.Code, r.State)
	if suffix != "" {
		name += "_" + suffix
	}
	return name
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.ExchangeFile = cloneBytes(r.ExchangeFile)
	c.AckFile = cloneBytes(r.AckFile)
	if r.ExchangedOn != nil {
		t := *r.ExchangedOn
		c.ExchangedOn = &t
	}
	if r.AckReceivedOn != nil {
		t := *r.AckReceivedOn
		c.AckReceivedOn = &t
	}
	return &c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Record) SentMsg() string {
	return fmt.Sprintf("File %s sent", r.ExchangeFilename)
}

func (r *Record) SendErrorMsg() string {
	return "An error happened while sending. Please check exchange record info."
}

func (r *Record) ProcessedOKMsg() string {
	return fmt.Sprintf("File %s processed successfully", r.ExchangeFilename)
}

func (r *Record) ProcessedKOMsg() string {
	return fmt.Sprintf("File %s processed with errors", r.ExchangeFilename)
}

func (r *Record) AckMissingMsg() string {
	return fmt.Sprintf("ACK file %s is required for this exchange but not found", r.AckFilename())
}

func (r *Record) ReceivedMsg() string {
	return fmt.Sprintf("File %s received", r.ExchangeFilename)
}

func (r *Record) InputProcessedMsg() string {
	return fmt.Sprintf("File %s imported successfully", r.ExchangeFilename)
}

func (r *Record) InputProcessErrorMsg() string {
	return fmt.Sprintf("File %s could not be imported", r.ExchangeFilename)
}
