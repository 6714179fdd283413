// Package engine defines the contract between the viewer and the game engine
// process: the data types mirrored into viewer stores, the push event
// envelope, and the request/response API surface.
//
// The engine owns game rules, agent orchestration, and all durable state.
// The viewer only consumes this contract; nothing in this repository is
// authoritative over it.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the engine has no record for the requested id.
var ErrNotFound = errors.New("engine: not found")

// ErrUnavailable indicates the engine connection is closed or unreachable.
var ErrUnavailable = errors.New("engine: unavailable")

// Faction is one of the opposing alignments a game participant belongs to.
type Faction string

const (
	FactionTown    Faction = "town"
	FactionMafia   Faction = "mafia"
	FactionNeutral Faction = "neutral"
)

// Role is a participant's game role.
type Role string

const (
	RoleGodfather    Role = "godfather"
	RoleMafioso      Role = "mafioso"
	RoleSheriff      Role = "sheriff"
	RoleInvestigator Role = "investigator"
	RoleDoctor       Role = "doctor"
	RoleBodyguard    Role = "bodyguard"
	RoleJailor       Role = "jailor"
	RoleVillager     Role = "villager"
	RoleVeteran      Role = "veteran"
	RoleJester       Role = "jester"
)

// Phase names the current stage of the game's turn structure.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseDayDiscussion Phase = "day_discussion"
	PhaseDayVote       Phase = "day_vote"
	PhaseNight         Phase = "night"
	PhaseGameOver      Phase = "game_over"
)

// Visibility tags who a narration event was addressed to.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMafia   Visibility = "mafia"
	VisibilitySheriff Visibility = "sheriff"
	VisibilityDoctor  Visibility = "doctor"
	VisibilityJailor  Visibility = "jailor"
)

// DeathCause codes how a participant died.
type DeathCause string

const (
	DeathCauseMafiaKill DeathCause = "mafia_kill"
	DeathCauseLynch     DeathCause = "lynch"
	DeathCauseVeteran   DeathCause = "veteran_alert"
	DeathCauseUnknown   DeathCause = "unknown"
)

// GameEventType enumerates the closed set of game event variants.
type GameEventType string

const (
	EventNarration     GameEventType = "narration"
	EventPhaseChange   GameEventType = "phase_change"
	EventSpeech        GameEventType = "speech"
	EventVote          GameEventType = "vote"
	EventChoice        GameEventType = "choice"
	EventInvestigation GameEventType = "investigation"
	EventDeath         GameEventType = "death"
	EventTransition    GameEventType = "transition"
)

// Agent is one mirrored game participant.
type Agent struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Role     Role    `json:"role"`
	Faction  Faction `json:"faction"`
	Alive    bool    `json:"alive"`
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Color    string  `json:"color,omitempty"`
	Avatar   string  `json:"avatar,omitempty"`
}

// PendingAgent is a roster entry assembled before the game starts.
type PendingAgent struct {
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Personality string `json:"personality,omitempty"`
	Color       string `json:"color,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// GameEvent is one entry in the append-only game log. Fields beyond Type and
// Timestamp are variant-specific.
type GameEvent struct {
	Type          GameEventType `json:"type"`
	Timestamp     time.Time     `json:"timestamp"`
	ParticipantID string        `json:"participant_id,omitempty"`
	Text          string        `json:"text,omitempty"`
	Thinking      string        `json:"thinking,omitempty"`
	Visibility    Visibility    `json:"visibility,omitempty"`
	Phase         Phase         `json:"phase,omitempty"`
	Day           int           `json:"day,omitempty"`
	Targets       []string      `json:"targets,omitempty"`
	Result        string        `json:"result,omitempty"`
	Cause         DeathCause    `json:"cause,omitempty"`
}

// GameState is the authoritative game snapshot pushed by the engine. An empty
// Winner means the game is still running.
type GameState struct {
	Agents []Agent     `json:"agents"`
	Phase  Phase       `json:"phase"`
	Day    int         `json:"day"`
	Events []GameEvent `json:"events"`
	Winner Faction     `json:"winner,omitempty"`
}

// Participant is one member of a multi-agent chat conversation.
type Participant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Personality string `json:"personality,omitempty"`
}

// Message is one entry in a conversation log. An empty ParticipantID marks a
// user-authored message.
type Message struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	SenderName    string    `json:"sender_name"`
	Content       string    `json:"content"`
	Thinking      string    `json:"thinking,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Complete      bool      `json:"complete"`
}

// ConversationSummary is the index entry for a conversation.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation is a fully loaded chat session.
type Conversation struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Topic            string        `json:"topic,omitempty"`
	Active           bool          `json:"active"`
	Messages         []Message     `json:"messages"`
	Participants     []Participant `json:"participants"`
	ResponseInterval int           `json:"response_interval_seconds"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ConversationConfig carries the user-editable conversation fields for
// create and update calls.
type ConversationConfig struct {
	Name             string        `json:"name"`
	Topic            string        `json:"topic,omitempty"`
	Participants     []Participant `json:"participants"`
	ResponseInterval int           `json:"response_interval_seconds"`
}

// ProviderSettings holds credentials for one LLM provider.
type ProviderSettings struct {
	APIKey string `json:"api_key"`
}

// GameSettings holds engine pacing configuration.
type GameSettings struct {
	MaxRounds       int `json:"max_rounds"`
	MaxRetries      int `json:"max_retries"`
	TurnTimeoutSecs int `json:"turn_timeout_seconds"`
}

// CustomModel is one user-added model catalog entry.
type CustomModel struct {
	Provider    string `json:"provider"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Settings is the flat configuration object persisted wholesale by the
// engine.
type Settings struct {
	Providers          map[string]ProviderSettings `json:"providers"`
	Game               GameSettings                `json:"game"`
	DefaultPersonality string                      `json:"default_personality"`
	CustomModels       []CustomModel               `json:"custom_models"`
}

// TestResult reports a provider connectivity check.
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ChatTurn is one exchange in a side-chat history sent to AskAgent.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// API is the engine boundary consumed by the viewer. Implementations must be
// safe for concurrent use.
type API interface {
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (Conversation, error)
	CreateConversation(ctx context.Context, cfg ConversationConfig) (Conversation, error)
	UpdateConversation(ctx context.Context, id string, cfg ConversationConfig) error
	DeleteConversation(ctx context.Context, id string) error
	StartConversation(ctx context.Context, id string) error
	StopConversation(ctx context.Context, id string) error
	SendUserMessage(ctx context.Context, conversationID, text string) error

	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
	TestProvider(ctx context.Context, provider, key string) (TestResult, error)

	StartGame(ctx context.Context, agents []PendingAgent) error
	StopGame(ctx context.Context) error
	PauseGame(ctx context.Context) error
	ResumeGame(ctx context.Context) error
	AskAgent(ctx context.Context, participantID string, history []ChatTurn) (string, error)

	// Subscribe registers a push handler and returns its unsubscribe
	// function. Handlers are invoked sequentially in delivery order.
	Subscribe(handler func(Event)) (func(), error)
}
