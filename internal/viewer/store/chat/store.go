// Package chat holds the viewer's mirrored conversation state.
//
// The engine is the sole source of truth for conversation contents and
// activity; this store reconciles its pushes into a consistent local view
// and forwards user commands. Mutations happen only through the exported
// operations, and reads only through Snapshot.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/arbourlane/vigil/internal/engine"
)

// ThinkingMarker records that a participant is producing a response that has
// not yet been delivered. At most one marker exists at a time.
type ThinkingMarker struct {
	ConversationID  string    `json:"conversation_id"`
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Since           time.Time `json:"since"`
}

// Snapshot is a read-only copy of the store state.
type Snapshot struct {
	Sessions []engine.ConversationSummary `json:"sessions"`
	Current  *engine.Conversation         `json:"current,omitempty"`
	Loading  bool                         `json:"loading"`
	Err      string                       `json:"error,omitempty"`
	Thinking *ThinkingMarker              `json:"thinking,omitempty"`
}

// Store reconciles conversation state pushed by the engine.
type Store struct {
	api   engine.API
	clock func() time.Time

	mu       sync.RWMutex
	sessions []engine.ConversationSummary
	current  *engine.Conversation
	loading  bool
	err      string
	thinking *ThinkingMarker
}

// NewStore creates an empty chat store backed by the given engine.
func NewStore(api engine.API) *Store {
	return &Store{api: api, clock: time.Now}
}

// LoadSessions fetches the conversation index. Failures are recorded as a
// user-visible error string; there is no automatic retry.
func (s *Store) LoadSessions(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	sessions, err := s.api.ListConversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = "failed to load conversations: " + err.Error()
		return
	}
	s.sessions = sessions
	s.err = ""
}

// LoadSession fetches one conversation and makes it current.
func (s *Store) LoadSession(ctx context.Context, id string) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	conv, err := s.api.GetConversation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = "failed to load conversation: " + err.Error()
		return
	}
	s.current = &conv
	s.err = ""
}

// CreateSession creates a conversation through the engine, then re-fetches
// the index so local state stays consistent with engine truth.
func (s *Store) CreateSession(ctx context.Context, cfg engine.ConversationConfig) {
	if _, err := s.api.CreateConversation(ctx, cfg); err != nil {
		s.setErr("failed to create conversation: " + err.Error())
		return
	}
	s.LoadSessions(ctx)
}

// UpdateSession updates a conversation through the engine, then re-fetches
// the index.
func (s *Store) UpdateSession(ctx context.Context, id string, cfg engine.ConversationConfig) {
	if err := s.api.UpdateConversation(ctx, id, cfg); err != nil {
		s.setErr("failed to update conversation: " + err.Error())
		return
	}
	s.LoadSessions(ctx)
}

// DeleteSession deletes a conversation through the engine. The current
// pointer is cleared when it referenced the deleted id.
func (s *Store) DeleteSession(ctx context.Context, id string) {
	if err := s.api.DeleteConversation(ctx, id); err != nil {
		s.setErr("failed to delete conversation: " + err.Error())
		return
	}
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()
	s.LoadSessions(ctx)
}

// StartSession asks the engine to start a conversation. The activity flag is
// only ever changed by the engine's push event, so a failure here surfaces
// as an error string without touching local state.
func (s *Store) StartSession(ctx context.Context, id string) {
	if err := s.api.StartConversation(ctx, id); err != nil {
		s.setErr("failed to start conversation: " + err.Error())
	}
}

// StopSession asks the engine to stop a conversation. Same error contract as
// StartSession.
func (s *Store) StopSession(ctx context.Context, id string) {
	if err := s.api.StopConversation(ctx, id); err != nil {
		s.setErr("failed to stop conversation: " + err.Error())
	}
}

// SendMessage forwards a user-authored message to the engine. The message
// itself arrives back through the message-added push.
func (s *Store) SendMessage(ctx context.Context, conversationID, text string) {
	if err := s.api.SendUserMessage(ctx, conversationID, text); err != nil {
		s.setErr("failed to send message: " + err.Error())
	}
}

// HandleStarted applies a conversation-started push.
func (s *Store) HandleStarted(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setActiveLocked(conversationID, true)
}

// HandleStopped applies a conversation-stopped push.
func (s *Store) HandleStopped(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setActiveLocked(conversationID, false)
}

func (s *Store) setActiveLocked(conversationID string, active bool) {
	for i := range s.sessions {
		if s.sessions[i].ID == conversationID {
			s.sessions[i].Active = active
		}
	}
	if s.current != nil && s.current.ID == conversationID {
		s.current.Active = active
	}
}

// HandleError applies a conversation-error push: the error becomes visible
// and any thinking marker for that conversation is cleared.
func (s *Store) HandleError(conversationID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = message
	if s.thinking != nil && s.thinking.ConversationID == conversationID {
		s.thinking = nil
	}
}

// HandleMessageAdded appends a pushed message to the currently loaded
// conversation. Messages for any other conversation are ignored; there is no
// cross-session buffering. When the message's participant matches the
// thinking marker for this conversation, the marker is cleared in the same
// update so the UI never shows both states at once.
func (s *Store) HandleMessageAdded(conversationID string, msg engine.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != conversationID {
		return
	}
	s.current.Messages = append(s.current.Messages, msg)
	if s.thinking != nil &&
		s.thinking.ConversationID == conversationID &&
		s.thinking.ParticipantID == msg.ParticipantID {
		s.thinking = nil
	}
}

// SetThinking applies a participant-thinking push. The marker is a single
// slot: a new push overwrites any prior marker.
func (s *Store) SetThinking(conversationID, participantID, participantName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = &ThinkingMarker{
		ConversationID:  conversationID,
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Since:           s.clock(),
	}
}

// ClearThinking drops the marker when it belongs to the named conversation,
// and is a no-op otherwise.
func (s *Store) ClearThinking(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thinking != nil && s.thinking.ConversationID == conversationID {
		s.thinking = nil
	}
}

// ClearError resets the visible error string.
func (s *Store) ClearError() {
	s.setErr("")
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

// Snapshot returns a copy of the store state safe for concurrent readers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Sessions: append([]engine.ConversationSummary(nil), s.sessions...),
		Loading:  s.loading,
		Err:      s.err,
	}
	if s.current != nil {
		current := *s.current
		current.Messages = append([]engine.Message(nil), s.current.Messages...)
		current.Participants = append([]engine.Participant(nil), s.current.Participants...)
		snap.Current = &current
	}
	if s.thinking != nil {
		marker := *s.thinking
		snap.Thinking = &marker
	}
	return snap
}
