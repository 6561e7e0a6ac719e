package model

import (
	"time"
)

const TableOrders = "orders"

type OrderState string

const (
	OrderStateNew        OrderState = "new"
	OrderStateConfirming OrderState = "confirming"
	OrderStateProcessing OrderState = "processing"
	OrderStateCompleted  OrderState = "completed"
	OrderStateFailed     OrderState = "failed"
	OrderStateCancelled  OrderState = "cancelled"
)

// States a payment is still allowed to move the order out of.
// Matching transactions that hit an order outside of these is a replay.
var OrderPayableStates = []OrderState{OrderStateNew, OrderStateConfirming}

// Order is a purchase intent for a ticket. Its id doubles as the correlation
// UUID embedded in the on-chain payment comment.
type Order struct {
	Id      string `gorm:"primaryKey" json:"id"`
	EventId int64  `json:"event_id"`
	UserId  int64  `json:"user_id"`

	// Expected payment
	TotalPrice   float64 `json:"total_price"`
	PaymentToken string  `json:"payment_token"`

	State OrderState `json:"state"`

	// Filled once a matching transaction is seen
	PayerAddress string `json:"payer_address"`
	TrxHash      string `json:"trx_hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return TableOrders
}
