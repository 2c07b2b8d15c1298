package billing

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceOpen   InvoiceStatus = "open"
	InvoicePaid   InvoiceStatus = "paid"
	InvoiceVoided InvoiceStatus = "voided"
)

// Invoice belongs to a patient, optionally for one appointment. Amount
// arithmetic lives with the billing collaborator; only the ownership links
// matter here.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`

	AmountCents int64         `gorm:"column:amount_cents;not null"`
	Currency    string        `gorm:"column:currency;type:varchar(3);not null"`
	Status      InvoiceStatus `gorm:"column:status;type:varchar(20);not null;default:'open'"`
}

func (Invoice) TableName() string {
	return "billing.invoices"
}

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`

	AmountCents int64     `gorm:"column:amount_cents;not null"`
	Method      string    `gorm:"column:method;type:varchar(30);not null"`
	PaidAt      time.Time `gorm:"column:paid_at;not null"`
}

func (Payment) TableName() string {
	return "billing.payments"
}
