package model

import (
	"time"
)

const TableRewards = "rewards"

type RewardKind string

const (
	// Plain soul-bound token issued directly to a visitor
	RewardKindSbt RewardKind = "sbt"

	// Ticket-bound variant
	RewardKindCsbt RewardKind = "csbt"
)

type RewardStatus string

const (
	RewardStatusPendingCreation RewardStatus = "pending_creation"
	RewardStatusCreated         RewardStatus = "created"
	RewardStatusReceived        RewardStatus = "received"
	RewardStatusFailed          RewardStatus = "failed"
)

// Reward is a pending or completed issuance on the external rewards
// platform. It is only marked created after the batch submission succeeded.
type Reward struct {
	Id             int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	EventId        int64        `json:"event_id"`
	UserId         int64        `json:"user_id"`
	TelegramUserId int64        `json:"telegram_user_id"`
	Kind           RewardKind   `json:"kind"`
	Status         RewardStatus `json:"status"`
	RewardLink     string       `json:"reward_link"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Reward) TableName() string {
	return TableRewards
}
