package model

import (
	"time"
)

const TableEvents = "events"
const TableRegistrants = "registrants"

// Event mirrors the subset of the events table the reconciler reads:
// the external rewards-platform activity id and the event's own end date.
type Event struct {
	Id         int64     `gorm:"primaryKey" json:"id"`
	Title      string    `json:"title"`
	ActivityId string    `json:"activity_id"`
	EndDate    time.Time `json:"end_date"`
}

func (Event) TableName() string {
	return TableEvents
}

// Registrant links a visitor to an event; upserted in the same transaction
// that accepts the order payment.
type Registrant struct {
	Id             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	EventId        int64  `gorm:"uniqueIndex:idx_registrants_event_user" json:"event_id"`
	UserId         int64  `gorm:"uniqueIndex:idx_registrants_event_user" json:"user_id"`
	TelegramUserId int64  `json:"telegram_user_id"`
	OrderId        string `json:"order_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (Registrant) TableName() string {
	return TableRegistrants
}
