package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage is one turn of a conversation. Rows are immutable once
// created; the only mutation is an owner-initiated delete.
type ChatMessage struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	IsBot     bool           `json:"is_bot" gorm:"default:false"`
	Meta      datatypes.JSON `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"timestamp"`
}

// TableName keeps the table short and explicit.
func (ChatMessage) TableName() string { return "chat_messages" }
