package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFilenamePattern is used when an exchange type has no pattern of its own.
const DefaultFilenamePattern = "{model}-{res_id}-{type.code}-{dt}"

// filenameTimeLayout renders the {dt} placeholder.
const filenameTimeLayout = "2006-01-02-15-04-05"

// ExchangeType configures one kind of exchange for a backend.
type ExchangeType struct {
	ID        uint      `gorm:"primaryKey" json:"id" yaml:"-"`
	BackendID uint      `gorm:"not null;uniqueIndex:idx_edi_type_backend_code" json:"backend_id" yaml:"-"`
	Code      string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_edi_type_backend_code" json:"code" yaml:"code"`
	Name      string    `gorm:"type:varchar(255)" json:"name" yaml:"name"`
	Direction Direction `gorm:"type:varchar(16);not null" json:"direction" yaml:"direction"`
	AckNeeded bool      `gorm:"not null;default:false" json:"ack_needed" yaml:"ack_needed"`
	// FilenamePattern supports {type.code}, {model}, {res_id}, {dt} and {uuid}.
	FilenamePattern string    `gorm:"type:varchar(255)" json:"filename_pattern" yaml:"filename_pattern"`
	FileExt         string    `gorm:"type:varchar(16)" json:"file_ext" yaml:"file_ext"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"-"`
}

// TableName overrides the table name.
func (ExchangeType) TableName() string {
	return "edi_exchange_types"
}

// MakeFilename renders the exchange filename for rec at the given time.
func (t *ExchangeType) MakeFilename(rec *Record, now time.Time) string {
	pattern := t.FilenamePattern
	if pattern == "" {
		pattern = DefaultFilenamePattern
	}

	r := strings.NewReplacer(
		"{type.code}", t.Code,
		"{model}", rec.Model,
		"{res_id}", strconv.FormatUint(rec.ResID, 10),
		"{dt}", now.UTC().Format(filenameTimeLayout),
		"{uuid}", uuid.NewString(),
	)
	name := r.Replace(pattern)

	ext := strings.TrimPrefix(strings.TrimSpace(t.FileExt), ".")
	if ext != "" && !strings.HasSuffix(name, "."+ext) {
		name += "." + ext
	}
	return name
}
