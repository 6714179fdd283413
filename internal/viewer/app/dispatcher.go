// Package app wires the viewer runtime: one engine subscription feeding the
// stores, and the local HTTP surface the front end reads them through.
package app

import (
	"log"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/viewer/store/chat"
	"github.com/arbourlane/vigil/internal/viewer/store/game"
)

// Dispatcher routes engine push events to the store that owns the matching
// state slice. There is exactly one dispatcher per process, subscribed for
// the lifetime of the viewer.
type Dispatcher struct {
	chat *chat.Store
	game *game.Store
}

// NewDispatcher creates a dispatcher over the two push-driven stores.
func NewDispatcher(chatStore *chat.Store, gameStore *game.Store) *Dispatcher {
	return &Dispatcher{chat: chatStore, game: gameStore}
}

// Start subscribes Route on the engine and returns the unsubscribe function
// for teardown.
func (d *Dispatcher) Start(api engine.API) (func(), error) {
	return api.Subscribe(d.Route)
}

// Route applies one push event. Events arrive in engine emission order and
// each is handled synchronously, so per-store updates observe that order.
func (d *Dispatcher) Route(evt engine.Event) {
	switch evt.Kind {
	case engine.KindConversationStarted:
		d.chat.HandleStarted(evt.ConversationID)
	case engine.KindConversationStopped:
		d.chat.HandleStopped(evt.ConversationID)
	case engine.KindMessageAdded:
		if evt.Message != nil {
			d.chat.HandleMessageAdded(evt.ConversationID, *evt.Message)
		}
	case engine.KindConversationError:
		d.chat.HandleError(evt.ConversationID, evt.Error)
	case engine.KindParticipantThinking:
		d.chat.SetThinking(evt.ConversationID, evt.ParticipantID, evt.ParticipantName)
	case engine.KindGameEvent:
		if evt.GameEvent != nil {
			d.game.AppendEvent(*evt.GameEvent)
		}
	case engine.KindGamePhase:
		d.game.SetPhase(evt.Phase, evt.Day)
	case engine.KindGameOver:
		d.game.SetWinner(evt.Winner)
	case engine.KindGameAgentDied:
		d.game.MarkAgentDead(evt.ParticipantID, evt.Cause)
	case engine.KindGameThinking:
		d.game.SetAgentThinking(evt.ParticipantID, evt.ParticipantName)
	case engine.KindGameThinkingDone:
		d.game.ClearAgentThinking(evt.ParticipantID)
		d.game.ClearThinkingStream(evt.ParticipantID)
	case engine.KindGameStream:
		d.routeStreamChunk(evt)
	case engine.KindGameState:
		d.game.ApplyState(evt.State)
	default:
		log.Printf("viewer: unhandled event kind %q", evt.Kind)
	}
}

func (d *Dispatcher) routeStreamChunk(evt engine.Event) {
	if evt.Thinking {
		d.game.AppendThinkingChunk(evt.ParticipantID, evt.Chunk)
		return
	}
	if evt.Done {
		d.game.CompleteStreaming(evt.ParticipantID)
		return
	}
	d.game.AppendStreamingChunk(evt.ParticipantID, evt.Chunk)
}
