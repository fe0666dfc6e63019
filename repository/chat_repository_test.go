package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reframe/models"
)

func TestChatRepository_AppendAndGetTurns(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))
	now := time.Now()

	err := repo.AppendTurns(
		&models.ConversationTurn{ConversationID: "c1", OwnerID: "u1", Content: "I feel useless", IsFromUser: true, Timestamp: now},
		&models.ConversationTurn{ConversationID: "c1", OwnerID: "u1", Content: "It sounds like a hard day.", Timestamp: now},
	)
	require.NoError(t, err)
	require.NoError(t, repo.AppendTurns(
		&models.ConversationTurn{ConversationID: "c1", OwnerID: "u1", Content: "It is", IsFromUser: true, Timestamp: now},
	))

	turns, err := repo.GetTurns("c1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.True(t, turns[0].IsFromUser)
	assert.Equal(t, "I feel useless", turns[0].Content)
	assert.False(t, turns[1].IsFromUser)
	assert.Equal(t, "It is", turns[2].Content)
}

func TestChatRepository_ConversationMustStartWithUser(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	err := repo.AppendTurns(&models.ConversationTurn{ConversationID: "c2", OwnerID: "u1", Content: "Hello"})
	assert.ErrorIs(t, err, ErrInvalidTurn)

	_, err = repo.GetTurns("c2")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestChatRepository_RejectsTurnWithoutIDs(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	err := repo.AppendTurns(&models.ConversationTurn{Content: "orphan", IsFromUser: true})
	assert.ErrorIs(t, err, ErrInvalidTurn)
	assert.NoError(t, repo.AppendTurns())
}
