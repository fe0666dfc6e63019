package services

import "reframe/models"

// maxContextTurns bounds how far back the reducer looks.
const maxContextTurns = 4

// ConversationContextReducer picks what part of a conversation goes into a
// follow-up prompt. Only the newest user turn is sent: small instruction
// models echo back whatever history they are given.
type ConversationContextReducer struct{}

// NewConversationContextReducer creates a ConversationContextReducer.
func NewConversationContextReducer() *ConversationContextReducer {
	return &ConversationContextReducer{}
}

// Reduce returns the content to send for the given conversation.
func (r *ConversationContextReducer) Reduce(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > maxContextTurns {
		turns = turns[len(turns)-maxContextTurns:]
	}
	if len(turns) == 1 {
		return turns[0].Content
	}
	last := turns[len(turns)-1]
	if last.IsFromUser {
		return last.Content
	}
	for i := len(turns) - 2; i >= 0; i-- {
		if turns[i].IsFromUser {
			return turns[i].Content
		}
	}
	return ""
}
