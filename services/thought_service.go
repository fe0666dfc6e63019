package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reframe/models"
	"reframe/repository"
)

// ThoughtResult is what a submission produces. When LimitReached is set no
// model call was made and DisplayText is empty.
type ThoughtResult struct {
	ConversationID string
	DisplayText    string
	UsedFallback   bool
	LimitReached   bool
	Quota          models.QuotaStatus
}

// ThoughtService is the single entry point for turning a user's thought into
// a displayed reply: guard, prompt, model call, sanitize, count.
type ThoughtService interface {
	ProcessThought(ctx context.Context, ownerID, text string) (*ThoughtResult, error)
	Reply(ctx context.Context, ownerID, conversationID, text string) (*ThoughtResult, error)
	Conversation(ownerID, conversationID string) ([]models.ConversationTurn, error)
}

// ThoughtServiceConfig selects the model and credentials.
type ThoughtServiceConfig struct {
	ModelID            string
	SystemInstructions string
	Credential         string
	FallbackCredential string // shared key tried once when Credential is rejected or missing
}

// ThoughtDeps are the collaborators of a ThoughtService. Nil pipeline
// components are replaced by their defaults; Client, Quotas and Chats are required.
type ThoughtDeps struct {
	Guard     *InputGuard
	Reducer   *ConversationContextReducer
	Builder   *PromptBuilder
	Sanitizer *ResponseSanitizer
	Client    ModelClient
	Quotas    QuotaService
	Chats     repository.ChatRepository
	Now       func() time.Time
}

type thoughtService struct {
	cfg       ThoughtServiceConfig
	guard     *InputGuard
	reducer   *ConversationContextReducer
	builder   *PromptBuilder
	sanitizer *ResponseSanitizer
	client    ModelClient
	quotas    QuotaService
	chats     repository.ChatRepository
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewThoughtService creates a ThoughtService.
func NewThoughtService(cfg ThoughtServiceConfig, deps ThoughtDeps) ThoughtService {
	s := &thoughtService{
		cfg:       cfg,
		guard:     deps.Guard,
		reducer:   deps.Reducer,
		builder:   deps.Builder,
		sanitizer: deps.Sanitizer,
		client:    deps.Client,
		quotas:    deps.Quotas,
		chats:     deps.Chats,
		now:       deps.Now,
		inFlight:  make(map[string]struct{}),
	}
	if s.guard == nil {
		s.guard = NewInputGuard()
	}
	if s.reducer == nil {
		s.reducer = NewConversationContextReducer()
	}
	if s.builder == nil {
		s.builder = NewPromptBuilder()
	}
	if s.sanitizer == nil {
		s.sanitizer = NewResponseSanitizer(NewFallbackGenerator())
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *thoughtService) ProcessThought(ctx context.Context, ownerID, text string) (*ThoughtResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyThought
	}
	release, err := s.acquire(ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	tracker, releaseQuota, err := s.quotas.Acquire(ownerID)
	if err != nil {
		return nil, err
	}
	defer releaseQuota()

	// An exhausted quota is a state, not an error: no model call is made.
	if !tracker.CanRequest() {
		log.Printf("INFO: [ThoughtService] Owner %s has no responses left.", ownerID)
		return &ThoughtResult{LimitReached: true, Quota: tracker.Status()}, nil
	}

	userTurn := models.ConversationTurn{
		ConversationID: uuid.NewString(),
		OwnerID:        ownerID,
		Content:        text,
		IsFromUser:     true,
		Timestamp:      s.now(),
	}
	return s.complete(ctx, tracker, []models.ConversationTurn{userTurn})
}

func (s *thoughtService) Reply(ctx context.Context, ownerID, conversationID, text string) (*ThoughtResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyThought
	}
	release, err := s.acquire(ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	turns, err := s.Conversation(ownerID, conversationID)
	if err != nil {
		return nil, err
	}
	tracker, releaseQuota, err := s.quotas.Acquire(ownerID)
	if err != nil {
		return nil, err
	}
	defer releaseQuota()

	if !tracker.CanRequest() {
		log.Printf("INFO: [ThoughtService] Owner %s has no responses left.", ownerID)
		return &ThoughtResult{ConversationID: conversationID, LimitReached: true, Quota: tracker.Status()}, nil
	}

	pending := append(turns, models.ConversationTurn{
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Content:        text,
		IsFromUser:     true,
		Timestamp:      s.now(),
	})
	return s.complete(ctx, tracker, pending)
}

func (s *thoughtService) Conversation(ownerID, conversationID string) ([]models.ConversationTurn, error) {
	turns, err := s.chats.GetTurns(conversationID)
	if err != nil {
		return nil, err
	}
	if turns[0].OwnerID != ownerID {
		return nil, ErrNotConversationOwner
	}
	return turns, nil
}

// complete runs the model round trip for the last (user) turn of turns and
// stores that turn together with the reply. Quota is only consumed once a
// response has arrived.
func (s *thoughtService) complete(ctx context.Context, tracker *UsageQuotaTracker, turns []models.ConversationTurn) (*ThoughtResult, error) {
	userTurn := turns[len(turns)-1]

	// Reduce the history to the text to answer, then screen it for injection.
	userText := s.guard.Guard(s.reducer.Reduce(turns))
	payload := s.builder.Build(s.cfg.ModelID, s.cfg.SystemInstructions, userText)

	raw, err := s.send(ctx, payload)
	if err != nil {
		// No response, so nothing is counted.
		return nil, err
	}
	sanitized := s.sanitizer.Sanitize(raw, userText)
	tracker.RecordResponse()

	reply := models.ConversationTurn{
		ConversationID: userTurn.ConversationID,
		OwnerID:        userTurn.OwnerID,
		Content:        sanitized.Text,
		UsedFallback:   sanitized.UsedFallback,
		Timestamp:      s.now(),
	}
	result := &ThoughtResult{
		ConversationID: userTurn.ConversationID,
		DisplayText:    sanitized.Text,
		UsedFallback:   sanitized.UsedFallback,
		Quota:          tracker.Status(),
	}
	if err := s.chats.AppendTurns(&userTurn, &reply); err != nil {
		// The reply is still shown; only the history is incomplete.
		log.Printf("ERROR: [ThoughtService] Failed to store conversation %s: %v", userTurn.ConversationID, err)
	}
	return result, nil
}

// send calls the model, retrying exactly once with the shared credential when
// the primary one is missing or rejected.
func (s *thoughtService) send(ctx context.Context, payload *RequestPayload) (string, error) {
	raw, err := s.client.Complete(ctx, s.cfg.Credential, payload)
	if err == nil {
		return raw, nil
	}
	if errors.Is(err, ErrMissingCredential) && s.cfg.FallbackCredential != "" && s.cfg.FallbackCredential != s.cfg.Credential {
		log.Printf("WARN: [ThoughtService] Primary credential unusable; retrying once with the shared credential.")
		raw, err = s.client.Complete(ctx, s.cfg.FallbackCredential, payload)
		if err == nil {
			return raw, nil
		}
	}
	return "", fmt.Errorf("model request failed: %w", err)
}

// acquire marks ownerID busy until release is called.
func (s *thoughtService) acquire(ownerID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[ownerID]; busy {
		return nil, ErrRequestInFlight
	}
	s.inFlight[ownerID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, ownerID)
		s.mu.Unlock()
	}, nil
}
