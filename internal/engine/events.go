package engine

// EventKind discriminates push event payloads.
type EventKind string

const (
	KindConversationStarted EventKind = "conversation.started"
	KindConversationStopped EventKind = "conversation.stopped"
	KindMessageAdded        EventKind = "conversation.message"
	KindConversationError   EventKind = "conversation.error"
	KindParticipantThinking EventKind = "conversation.thinking"

	KindGameEvent        EventKind = "game.event"
	KindGamePhase        EventKind = "game.phase"
	KindGameOver         EventKind = "game.over"
	KindGameAgentDied    EventKind = "game.agent_died"
	KindGameThinking     EventKind = "game.thinking"
	KindGameThinkingDone EventKind = "game.thinking_done"
	KindGameStream       EventKind = "game.stream"
	KindGameState        EventKind = "game.state"
)

// Event is the push envelope delivered over the engine subscription. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind `json:"kind"`

	ConversationID  string   `json:"conversation_id,omitempty"`
	ParticipantID   string   `json:"participant_id,omitempty"`
	ParticipantName string   `json:"participant_name,omitempty"`
	Message         *Message `json:"message,omitempty"`
	Error           string   `json:"error,omitempty"`

	GameEvent *GameEvent `json:"game_event,omitempty"`
	Phase     Phase      `json:"phase,omitempty"`
	Day       int        `json:"day,omitempty"`
	Winner    Faction    `json:"winner,omitempty"`
	Cause     DeathCause `json:"cause,omitempty"`
	State     *GameState `json:"state,omitempty"`

	// Stream chunk fields for KindGameStream. Thinking marks reasoning
	// content; Done marks completion of the content stream.
	Chunk    string `json:"chunk,omitempty"`
	Thinking bool   `json:"thinking,omitempty"`
	Done     bool   `json:"done,omitempty"`
}
