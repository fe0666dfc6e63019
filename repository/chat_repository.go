package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"reframe/models"
)

var (
	// ErrConversationNotFound is returned when no turns exist for a conversation ID.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidTurn is returned for turns that would break the conversation ordering rules.
	ErrInvalidTurn = errors.New("invalid conversation turn")
)

// ChatRepository stores conversations as ordered, append-only turns.
type ChatRepository interface {
	AppendTurns(turns ...*models.ConversationTurn) error
	GetTurns(conversationID string) ([]models.ConversationTurn, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// AppendTurns appends turns to their conversations in a single transaction.
// A conversation must start with a user turn.
func (r *chatRepository) AppendTurns(turns ...*models.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, turn := range turns {
			if turn == nil || turn.ConversationID == "" || turn.OwnerID == "" {
				return fmt.Errorf("%w: conversation and owner IDs are required", ErrInvalidTurn)
			}
			var existing int64
			if err := tx.Model(&models.ConversationTurn{}).Where("conversation_id = ?", turn.ConversationID).Count(&existing).Error; err != nil {
				return fmt.Errorf("failed to count turns of conversation %s: %w", turn.ConversationID, err)
			}
			if existing == 0 && !turn.IsFromUser {
				return fmt.Errorf("%w: conversation %s must start with a user turn", ErrInvalidTurn, turn.ConversationID)
			}
			if err := tx.Create(turn).Error; err != nil {
				log.Printf("ERROR: [ChatRepository] Failed to append turn to conversation %s: %v", turn.ConversationID, err)
				return fmt.Errorf("failed to append turn to conversation %s: %w", turn.ConversationID, err)
			}
		}
		log.Printf("INFO: [ChatRepository] Appended %d turn(s) to conversation %s.", len(turns), turns[0].ConversationID)
		return nil
	})
}

// GetTurns returns the turns of a conversation in the order they were appended.
func (r *chatRepository) GetTurns(conversationID string) ([]models.ConversationTurn, error) {
	var turns []models.ConversationTurn
	err := r.db.Where("conversation_id = ?", conversationID).Order("id asc").Find(&turns).Error
	if err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to load conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}
	if len(turns) == 0 {
		return nil, ErrConversationNotFound
	}
	return turns, nil
}
