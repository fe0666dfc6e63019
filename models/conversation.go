package models

import (
	"time"
)

// ConversationTurn is one message of a conversation. Turns are append-only;
// the first turn of a conversation is always the user's initial thought.
type ConversationTurn struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"index"`
	OwnerID        string    `json:"owner_id" gorm:"index"`
	Content        string    `json:"content"`
	IsFromUser     bool      `json:"is_from_user"`
	UsedFallback   bool      `json:"used_fallback"`
	Timestamp      time.Time `json:"timestamp"`
}

// TableName specifies the table name for ConversationTurn model.
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// SanitizationResult is the outcome of one pass of the response pipeline.
// It is never persisted.
type SanitizationResult struct {
	Text         string `json:"text"`
	UsedFallback bool   `json:"used_fallback"`
}
