// Package enginetest provides a lightweight in-memory engine.API fake for
// viewer tests.
package enginetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arbourlane/vigil/internal/engine"
)

// Fake is an in-memory engine.API implementation. Exported fields configure
// behavior; zero values mean "succeed with empty results".
type Fake struct {
	mu sync.Mutex

	Conversations map[string]engine.Conversation
	SettingsValue engine.Settings
	SavedSettings []engine.Settings
	StartedGames  [][]engine.PendingAgent

	// Err fails every call when set. Per-call errors take precedence.
	Err          error
	AskErr       error
	StartGameErr error

	AskReply    string
	TestResult  engine.TestResult
	AskRequests []AskRequest
	Calls       []string

	handlers map[int]func(engine.Event)
	nextID   int
	seq      int
}

// AskRequest records one AskAgent invocation.
type AskRequest struct {
	ParticipantID string
	History       []engine.ChatTurn
}

// NewFake constructs a Fake with initialized state maps.
func NewFake() *Fake {
	return &Fake{
		Conversations: make(map[string]engine.Conversation),
		handlers:      make(map[int]func(engine.Event)),
	}
}

func (f *Fake) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *Fake) ListConversations(_ context.Context) ([]engine.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListConversations")
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]engine.ConversationSummary, 0, len(f.Conversations))
	for _, c := range f.Conversations {
		out = append(out, engine.ConversationSummary{
			ID: c.ID, Name: c.Name, Topic: c.Topic, Active: c.Active,
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GetConversation(_ context.Context, id string) (engine.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetConversation:" + id)
	if f.Err != nil {
		return engine.Conversation{}, f.Err
	}
	c, ok := f.Conversations[id]
	if !ok {
		return engine.Conversation{}, engine.ErrNotFound
	}
	return c, nil
}

func (f *Fake) CreateConversation(_ context.Context, cfg engine.ConversationConfig) (engine.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateConversation:" + cfg.Name)
	if f.Err != nil {
		return engine.Conversation{}, f.Err
	}
	f.seq++
	c := engine.Conversation{
		ID:               fmt.Sprintf("conv-%d", f.seq),
		Name:             cfg.Name,
		Topic:            cfg.Topic,
		Participants:     cfg.Participants,
		ResponseInterval: cfg.ResponseInterval,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	f.Conversations[c.ID] = c
	return c, nil
}

func (f *Fake) UpdateConversation(_ context.Context, id string, cfg engine.ConversationConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateConversation:" + id)
	if f.Err != nil {
		return f.Err
	}
	c, ok := f.Conversations[id]
	if !ok {
		return engine.ErrNotFound
	}
	c.Name = cfg.Name
	c.Topic = cfg.Topic
	c.Participants = cfg.Participants
	c.ResponseInterval = cfg.ResponseInterval
	c.UpdatedAt = time.Now()
	f.Conversations[id] = c
	return nil
}

func (f *Fake) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteConversation:" + id)
	if f.Err != nil {
		return f.Err
	}
	delete(f.Conversations, id)
	return nil
}

func (f *Fake) StartConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StartConversation:" + id)
	return f.Err
}

func (f *Fake) StopConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StopConversation:" + id)
	return f.Err
}

func (f *Fake) SendUserMessage(_ context.Context, conversationID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SendUserMessage:" + conversationID)
	return f.Err
}

func (f *Fake) GetSettings(_ context.Context) (engine.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSettings")
	if f.Err != nil {
		return engine.Settings{}, f.Err
	}
	return f.SettingsValue, nil
}

func (f *Fake) SaveSettings(_ context.Context, settings engine.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SaveSettings")
	if f.Err != nil {
		return f.Err
	}
	f.SavedSettings = append(f.SavedSettings, settings)
	return nil
}

func (f *Fake) TestProvider(_ context.Context, provider, key string) (engine.TestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TestProvider:" + provider)
	if f.Err != nil {
		return engine.TestResult{}, f.Err
	}
	return f.TestResult, nil
}

func (f *Fake) StartGame(_ context.Context, agents []engine.PendingAgent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StartGame")
	if f.StartGameErr != nil {
		return f.StartGameErr
	}
	if f.Err != nil {
		return f.Err
	}
	f.StartedGames = append(f.StartedGames, agents)
	return nil
}

func (f *Fake) StopGame(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StopGame")
	return f.Err
}

func (f *Fake) PauseGame(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PauseGame")
	return f.Err
}

func (f *Fake) ResumeGame(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResumeGame")
	return f.Err
}

func (f *Fake) AskAgent(_ context.Context, participantID string, history []engine.ChatTurn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AskAgent:" + participantID)
	f.AskRequests = append(f.AskRequests, AskRequest{ParticipantID: participantID, History: history})
	if f.AskErr != nil {
		return "", f.AskErr
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.AskReply, nil
}

// Subscribe registers a handler for Push deliveries.
func (f *Fake) Subscribe(handler func(engine.Event)) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.nextID++
	id := f.nextID
	f.handlers[id] = handler
	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}, nil
}

// Push delivers an event to every subscribed handler, in registration order.
func (f *Fake) Push(evt engine.Event) {
	f.mu.Lock()
	ids := make([]int, 0, len(f.handlers))
	for id := range f.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(engine.Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, f.handlers[id])
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

var _ engine.API = (*Fake)(nil)
