package domain

import "time"

const (
	EVENT_WEBHOOK = "webhook"
)

const (
	EVENT_STATUS_NEW  = "new"
	EVENT_STATUS_DONE = "done"
)

type Events struct {
	ID         uint   `gorm:"primaryKey"`
	RelationID uint   `gorm:"not null"`
	Type       string `gorm:"type:varchar(255)"` //const type Event*
	Key        string `gorm:"uniqueIndex;type:varchar(255)"`
	Payload    string
	Status     string // new/done
	Attempts   int
	CreatedAt  time.Time
}

// event payloads

type WebhookPayload struct {
	InvoiceID string              `json:"invoice_id"`
	Url       string              `json:"url"`
	Info      ResponseInvoiceInfo `json:"info"`
}

func NewEventKey(eventType, invoiceId, status string) string {
	return eventType + "_" + invoiceId + "_" + status
}
