package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abelkene001/mini-biz/pkg/enums"
)

const PaymentRecordSuccessReferenceConstraint = "payment_records_success_reference_key"

// PaymentRecord is an append-only audit row for one verification attempt.
// At most one success row exists per external reference.
type PaymentRecord struct {
	ID                uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerAccountID    *uuid.UUID                `gorm:"column:owner_account_id;type:uuid"`
	SubscriptionID    *uuid.UUID                `gorm:"column:subscription_id;type:uuid"`
	AmountKobo        int64                     `gorm:"column:amount_kobo;not null"`
	ExternalReference string                    `gorm:"column:external_reference;not null"`
	Status            enums.PaymentRecordStatus `gorm:"column:status;type:payment_record_status;not null"`
	Method            enums.PaymentMethod       `gorm:"column:method;not null"`
	RawMetadata       datatypes.JSON            `gorm:"column:raw_metadata;type:jsonb"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentRecord) TableName() string { return "payment_records" }

func (p *PaymentRecord) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
