// Package game holds the viewer's mirror of the running game plus the
// ephemeral per-agent overlays layered on top of it.
//
// The engine owns the game; the only local patches this store applies to
// mirrored state are marking an agent dead and appending an event, both
// idempotent-safe reconciliations of pushed truth. Everything else here
// (streaming buffers, thinking marker, side chats, pending roster) is
// viewer-local and never leaves the process.
package game

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/platform/id"
)

// ThinkingMarker records the one agent currently producing a response.
type ThinkingMarker struct {
	ParticipantID   string    `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Since           time.Time `json:"since"`
}

// StreamBuffer accumulates partial speech content for one agent until the
// authoritative event for that agent arrives.
type StreamBuffer struct {
	Content  string `json:"content"`
	Complete bool   `json:"complete"`
}

// SideChatMessage is one entry in a private side conversation.
type SideChatMessage struct {
	ID        string    `json:"id"`
	FromUser  bool      `json:"from_user"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SideChatThread is a private Q&A with one agent, isolated from the main
// event log and from every other thread.
type SideChatThread struct {
	ParticipantID string            `json:"participant_id"`
	Messages      []SideChatMessage `json:"messages"`
	Loading       bool              `json:"loading"`
	Err           string            `json:"error,omitempty"`
	PendingSince  time.Time         `json:"pending_since,omitzero"`
}

// Snapshot is a read-only copy of the store state.
type Snapshot struct {
	State           *engine.GameState         `json:"state,omitempty"`
	Active          bool                      `json:"active"`
	SettingUp       bool                      `json:"setting_up"`
	Paused          bool                      `json:"paused"`
	Thinking        *ThinkingMarker           `json:"thinking,omitempty"`
	Streams         map[string]StreamBuffer   `json:"streams"`
	ThinkingStreams map[string]string         `json:"thinking_streams"`
	SideChats       map[string]SideChatThread `json:"side_chats"`
	Pending         []engine.PendingAgent     `json:"pending_agents"`
	Err             string                    `json:"error,omitempty"`
}

// Store mirrors game state pushed by the engine and owns the viewer-local
// overlays.
type Store struct {
	api   engine.API
	clock func() time.Time
	logf  func(format string, args ...any)

	mu              sync.RWMutex
	state           *engine.GameState
	active          bool
	settingUp       bool
	paused          bool
	thinking        *ThinkingMarker
	streams         map[string]*StreamBuffer
	thinkingStreams map[string]string
	sideChats       map[string]*SideChatThread
	pending         []engine.PendingAgent
	err             string
}

// NewStore creates a game store in the pre-game setup state.
func NewStore(api engine.API) *Store {
	return &Store{
		api:             api,
		clock:           time.Now,
		logf:            log.Printf,
		settingUp:       true,
		streams:         make(map[string]*StreamBuffer),
		thinkingStreams: make(map[string]string),
		sideChats:       make(map[string]*SideChatThread),
	}
}

// ApplyState replaces the mirrored game state with an authoritative push. A
// non-nil state without a winner activates the game; a set winner ends it.
func (s *Store) ApplyState(state *engine.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		return
	}
	s.state = state
	if state.Winner == "" {
		s.active = true
	} else {
		s.active = false
	}
}

// AppendEvent appends one event to the mirrored log. When the event names a
// participant, the same update clears that participant's thinking marker and
// drops both of its streaming buffers, so a late partial chunk can never
// redraw over the authoritative text.
func (s *Store) AppendEvent(evt engine.GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		// Events can arrive before the first full state push.
		s.state = &engine.GameState{}
	}
	s.state.Events = append(s.state.Events, evt)
	if evt.ParticipantID == "" {
		return
	}
	if s.thinking != nil && s.thinking.ParticipantID == evt.ParticipantID {
		s.thinking = nil
	}
	delete(s.streams, evt.ParticipantID)
	delete(s.thinkingStreams, evt.ParticipantID)
}

// SetPhase applies a phase-change push to the mirrored state.
func (s *Store) SetPhase(phase engine.Phase, day int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	s.state.Phase = phase
	if day > 0 {
		s.state.Day = day
	}
}

// SetWinner applies a game-over push and deactivates the game.
func (s *Store) SetWinner(winner engine.Faction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.state.Winner = winner
	}
	s.active = false
}

// MarkAgentDead flips one agent's alive flag. Idempotent; unknown ids are
// ignored because the roster is engine truth.
func (s *Store) MarkAgentDead(participantID string, cause engine.DeathCause) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	for i := range s.state.Agents {
		if s.state.Agents[i].ID == participantID {
			s.state.Agents[i].Alive = false
		}
	}
}

// SetAgentThinking applies a thinking push. Single global slot,
// last-writer-wins.
func (s *Store) SetAgentThinking(participantID, participantName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = &ThinkingMarker{
		ParticipantID:   participantID,
		ParticipantName: participantName,
		Since:           s.clock(),
	}
}

// ClearAgentThinking drops the marker when it names the given participant.
func (s *Store) ClearAgentThinking(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thinking != nil && s.thinking.ParticipantID == participantID {
		s.thinking = nil
	}
}

// AppendStreamingChunk concatenates a partial speech chunk onto the agent's
// buffer, creating the buffer if absent, and marks it incomplete.
func (s *Store) AppendStreamingChunk(participantID, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := s.streams[participantID]
	if buf == nil {
		buf = &StreamBuffer{}
		s.streams[participantID] = buf
	}
	buf.Content += chunk
	buf.Complete = false
}

// CompleteStreaming flips the completion flag on an existing buffer. It must
// not create a buffer: completion without prior content is a no-op.
func (s *Store) CompleteStreaming(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.streams[participantID]; ok {
		buf.Complete = true
	}
}

// AppendThinkingChunk concatenates a partial reasoning chunk for the agent.
// Thinking buffers have no completion flag; they are only ever cleared
// wholesale.
func (s *Store) AppendThinkingChunk(participantID, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinkingStreams[participantID] += chunk
}

// ClearThinkingStream drops the agent's reasoning buffer.
func (s *Store) ClearThinkingStream(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.thinkingStreams, participantID)
}

// SendSideChatMessage appends the user's question to the agent's private
// thread immediately, then asks the engine for a reply. A failure is local
// to this one thread: the loading flag clears, an error is attached, and the
// user's message stays in the log.
func (s *Store) SendSideChatMessage(ctx context.Context, participantID, text string) {
	now := s.clock()
	s.mu.Lock()
	thread := s.sideChats[participantID]
	if thread == nil {
		thread = &SideChatThread{ParticipantID: participantID}
		s.sideChats[participantID] = thread
	}
	thread.Messages = append(thread.Messages, SideChatMessage{
		ID:        id.New(),
		FromUser:  true,
		Content:   text,
		Timestamp: now,
	})
	thread.Loading = true
	thread.Err = ""
	thread.PendingSince = now
	history := make([]engine.ChatTurn, 0, len(thread.Messages))
	for _, m := range thread.Messages {
		role := "assistant"
		if m.FromUser {
			role = "user"
		}
		history = append(history, engine.ChatTurn{Role: role, Content: m.Content})
	}
	s.mu.Unlock()

	reply, err := s.api.AskAgent(ctx, participantID, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	thread = s.sideChats[participantID]
	if thread == nil {
		// Reset raced the reply; nothing to attach it to.
		return
	}
	thread.Loading = false
	thread.PendingSince = time.Time{}
	if err != nil {
		thread.Err = "agent did not answer: " + err.Error()
		return
	}
	thread.Messages = append(thread.Messages, SideChatMessage{
		ID:        id.New(),
		FromUser:  false,
		Content:   reply,
		Timestamp: s.clock(),
	})
}

// AddPendingAgent adds a roster entry for the next game. A name that matches
// an existing entry case-insensitively is rejected silently with a warning
// log; duplicate names would make speech attribution ambiguous.
func (s *Store) AddPendingAgent(agent engine.PendingAgent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.pending {
		if strings.EqualFold(existing.Name, agent.Name) {
			s.logf("game: duplicate agent name %q ignored", agent.Name)
			return
		}
	}
	s.pending = append(s.pending, agent)
}

// RemovePendingAgent removes a roster entry by name (case-insensitive).
func (s *Store) RemovePendingAgent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, agent := range s.pending {
		if !strings.EqualFold(agent.Name, name) {
			kept = append(kept, agent)
		}
	}
	s.pending = kept
}

// ClearPendingAgents empties the pre-game roster.
func (s *Store) ClearPendingAgents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// CanStartGame reports whether the pending roster satisfies the four
// independently required role categories: Mafia-aligned, investigative,
// protective, and restraining.
func (s *Store) CanStartGame() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canStartLocked()
}

func (s *Store) canStartLocked() bool {
	var mafia, investigative, protective, restraining bool
	for _, agent := range s.pending {
		mafia = mafia || IsMafiaAligned(agent.Role)
		investigative = investigative || IsInvestigative(agent.Role)
		protective = protective || IsProtective(agent.Role)
		restraining = restraining || IsRestraining(agent.Role)
	}
	return mafia && investigative && protective && restraining
}

// StartGame submits the pending roster to the engine. The setup flag flips
// optimistically before the call and reverts only when the call itself
// fails; a slow engine is trusted to eventually push game state.
func (s *Store) StartGame(ctx context.Context) {
	s.mu.Lock()
	if !s.canStartLocked() {
		s.err = "cannot start: roster is missing a required role"
		s.mu.Unlock()
		return
	}
	agents := append([]engine.PendingAgent(nil), s.pending...)
	s.settingUp = false
	s.err = ""
	s.mu.Unlock()

	if err := s.api.StartGame(ctx, agents); err != nil {
		s.mu.Lock()
		s.settingUp = true
		s.err = "failed to start game: " + err.Error()
		s.mu.Unlock()
	}
}

// StopGame deactivates the game locally and tells the engine to stop. A
// failed call surfaces as the shared error string without rolling back.
func (s *Store) StopGame(ctx context.Context) {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	if err := s.api.StopGame(ctx); err != nil {
		s.setErr("failed to stop game: " + err.Error())
	}
}

// PauseGame flips the paused flag optimistically. No rollback on failure:
// the next authoritative push corrects any divergence.
func (s *Store) PauseGame(ctx context.Context) {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()

	if err := s.api.PauseGame(ctx); err != nil {
		s.setErr("failed to pause game: " + err.Error())
	}
}

// ResumeGame is the optimistic counterpart of PauseGame.
func (s *Store) ResumeGame(ctx context.Context) {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()

	if err := s.api.ResumeGame(ctx); err != nil {
		s.setErr("failed to resume game: " + err.Error())
	}
}

// Reset returns every transient and mirrored field to its initial value
// without contacting the engine. Used when the user returns to the welcome
// flow after a game ends.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	s.active = false
	s.settingUp = true
	s.paused = false
	s.thinking = nil
	s.streams = make(map[string]*StreamBuffer)
	s.thinkingStreams = make(map[string]string)
	s.sideChats = make(map[string]*SideChatThread)
	s.pending = nil
	s.err = ""
}

// PendingAgents returns a copy of the pre-game roster.
func (s *Store) PendingAgents() []engine.PendingAgent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]engine.PendingAgent(nil), s.pending...)
}

// SideChat returns a copy of one agent's private thread.
func (s *Store) SideChat(participantID string) (SideChatThread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.sideChats[participantID]
	if !ok {
		return SideChatThread{}, false
	}
	return copyThread(thread), true
}

func (s *Store) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func copyThread(thread *SideChatThread) SideChatThread {
	out := *thread
	out.Messages = append([]SideChatMessage(nil), thread.Messages...)
	return out
}

// Snapshot returns a copy of the store state safe for concurrent readers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Active:          s.active,
		SettingUp:       s.settingUp,
		Paused:          s.paused,
		Streams:         make(map[string]StreamBuffer, len(s.streams)),
		ThinkingStreams: make(map[string]string, len(s.thinkingStreams)),
		SideChats:       make(map[string]SideChatThread, len(s.sideChats)),
		Pending:         append([]engine.PendingAgent(nil), s.pending...),
		Err:             s.err,
	}
	if s.state != nil {
		state := *s.state
		state.Agents = append([]engine.Agent(nil), s.state.Agents...)
		state.Events = append([]engine.GameEvent(nil), s.state.Events...)
		snap.State = &state
	}
	if s.thinking != nil {
		marker := *s.thinking
		snap.Thinking = &marker
	}
	for pid, buf := range s.streams {
		snap.Streams[pid] = *buf
	}
	for pid, content := range s.thinkingStreams {
		snap.ThinkingStreams[pid] = content
	}
	for pid, thread := range s.sideChats {
		snap.SideChats[pid] = copyThread(thread)
	}
	return snap
}
