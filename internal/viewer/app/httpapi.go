package app

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/narration"
	"github.com/arbourlane/vigil/internal/viewer/store/chat"
	"github.com/arbourlane/vigil/internal/viewer/store/game"
	"github.com/arbourlane/vigil/internal/viewer/store/settings"
	"github.com/arbourlane/vigil/internal/viewer/store/ui"
)

// handler serves reconciled store snapshots and forwards user commands. Each
// read endpoint takes an independent snapshot of the store it needs; there
// is no cross-store locking.
type handler struct {
	chat     *chat.Store
	game     *game.Store
	settings *settings.Store
	ui       *ui.Store
}

func newRouter(h *handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.gameState)
		r.Post("/game/start", h.startGame)
		r.Post("/game/stop", h.stopGame)
		r.Post("/game/pause", h.pauseGame)
		r.Post("/game/resume", h.resumeGame)
		r.Post("/game/reset", h.resetGame)
		r.Post("/game/agents", h.addPendingAgent)
		r.Delete("/game/agents", h.clearPendingAgents)
		r.Delete("/game/agents/{name}", h.removePendingAgent)
		r.Get("/game/sidechats/{participantID}", h.getSideChat)
		r.Post("/game/sidechats/{participantID}", h.sendSideChat)

		r.Get("/conversations", h.listConversations)
		r.Post("/conversations", h.createConversation)
		r.Get("/conversations/{id}", h.getConversation)
		r.Put("/conversations/{id}", h.updateConversation)
		r.Delete("/conversations/{id}", h.deleteConversation)
		r.Post("/conversations/{id}/start", h.startConversation)
		r.Post("/conversations/{id}/stop", h.stopConversation)
		r.Post("/conversations/{id}/messages", h.sendMessage)

		r.Get("/settings", h.getSettings)
		r.Patch("/settings", h.updateSettings)
		r.Post("/settings/save", h.saveSettings)
		r.Post("/settings/test", h.testProvider)

		r.Get("/ui", h.uiState)
		r.Post("/ui/navigate", h.navigate)
	})
	return r
}

// decoratedEvent attaches the narration display category to log entries so
// the front end styles them without re-deriving categories client-side.
type decoratedEvent struct {
	engine.GameEvent
	Display *narration.Display `json:"display,omitempty"`
}

type gameStateResponse struct {
	game.Snapshot
	Events       []decoratedEvent `json:"events"`
	CanStartGame bool             `json:"can_start_game"`
}

func (h *handler) gameState(w http.ResponseWriter, r *http.Request) {
	snap := h.game.Snapshot()
	resp := gameStateResponse{
		Snapshot:     snap,
		Events:       []decoratedEvent{},
		CanStartGame: h.game.CanStartGame(),
	}
	if snap.State != nil {
		resp.Events = make([]decoratedEvent, 0, len(snap.State.Events))
		for _, evt := range snap.State.Events {
			decorated := decoratedEvent{GameEvent: evt}
			if evt.Type == engine.EventNarration {
				display := narration.Categorize(evt.Text, evt.Visibility)
				decorated.Display = &display
			}
			resp.Events = append(resp.Events, decorated)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) startGame(w http.ResponseWriter, r *http.Request) {
	h.game.StartGame(r.Context())
	writeJSON(w, http.StatusAccepted, h.game.Snapshot())
}

func (h *handler) stopGame(w http.ResponseWriter, r *http.Request) {
	h.game.StopGame(r.Context())
	writeJSON(w, http.StatusAccepted, h.game.Snapshot())
}

func (h *handler) pauseGame(w http.ResponseWriter, r *http.Request) {
	h.game.PauseGame(r.Context())
	writeJSON(w, http.StatusAccepted, h.game.Snapshot())
}

func (h *handler) resumeGame(w http.ResponseWriter, r *http.Request) {
	h.game.ResumeGame(r.Context())
	writeJSON(w, http.StatusAccepted, h.game.Snapshot())
}

func (h *handler) resetGame(w http.ResponseWriter, r *http.Request) {
	h.game.Reset()
	writeJSON(w, http.StatusOK, h.game.Snapshot())
}

func (h *handler) addPendingAgent(w http.ResponseWriter, r *http.Request) {
	var agent engine.PendingAgent
	if !decodeBody(w, r, &agent) {
		return
	}
	if agent.Name == "" {
		writeError(w, http.StatusBadRequest, "agent name is required")
		return
	}
	h.game.AddPendingAgent(agent)
	writeJSON(w, http.StatusOK, h.game.PendingAgents())
}

func (h *handler) clearPendingAgents(w http.ResponseWriter, r *http.Request) {
	h.game.ClearPendingAgents()
	writeJSON(w, http.StatusOK, h.game.PendingAgents())
}

func (h *handler) removePendingAgent(w http.ResponseWriter, r *http.Request) {
	h.game.RemovePendingAgent(chi.URLParam(r, "name"))
	writeJSON(w, http.StatusOK, h.game.PendingAgents())
}

func (h *handler) getSideChat(w http.ResponseWriter, r *http.Request) {
	thread, ok := h.game.SideChat(chi.URLParam(r, "participantID"))
	if !ok {
		writeError(w, http.StatusNotFound, "no side chat for participant")
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *handler) sendSideChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	participantID := chi.URLParam(r, "participantID")
	h.game.SendSideChatMessage(r.Context(), participantID, body.Text)
	thread, _ := h.game.SideChat(participantID)
	writeJSON(w, http.StatusOK, thread)
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.Snapshot())
}

func (h *handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var cfg engine.ConversationConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	h.chat.CreateSession(r.Context(), cfg)
	writeJSON(w, http.StatusOK, h.chat.Snapshot())
}

func (h *handler) getConversation(w http.ResponseWriter, r *http.Request) {
	h.chat.LoadSession(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.chat.Snapshot())
}

func (h *handler) updateConversation(w http.ResponseWriter, r *http.Request) {
	var cfg engine.ConversationConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	h.chat.UpdateSession(r.Context(), chi.URLParam(r, "id"), cfg)
	writeJSON(w, http.StatusOK, h.chat.Snapshot())
}

func (h *handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	h.chat.DeleteSession(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.chat.Snapshot())
}

func (h *handler) startConversation(w http.ResponseWriter, r *http.Request) {
	h.chat.StartSession(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusAccepted, h.chat.Snapshot())
}

func (h *handler) stopConversation(w http.ResponseWriter, r *http.Request) {
	h.chat.StopSession(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusAccepted, h.chat.Snapshot())
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.chat.SendMessage(r.Context(), chi.URLParam(r, "id"), body.Text)
	writeJSON(w, http.StatusAccepted, h.chat.Snapshot())
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Snapshot())
}

// updateSettings applies in-memory mutations only; persistence requires an
// explicit call to the save endpoint.
func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKeys            map[string]string    `json:"api_keys,omitempty"`
		Game               *engine.GameSettings `json:"game,omitempty"`
		DefaultPersonality *string              `json:"default_personality,omitempty"`
		AddModel           *engine.CustomModel  `json:"add_model,omitempty"`
		RemoveModel        *engine.CustomModel  `json:"remove_model,omitempty"`
		ResetModels        bool                 `json:"reset_models,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	for provider, key := range body.APIKeys {
		h.settings.UpdateAPIKey(provider, key)
	}
	if body.Game != nil {
		h.settings.UpdateGameSettings(*body.Game)
	}
	if body.DefaultPersonality != nil {
		h.settings.UpdateDefaultPersonality(*body.DefaultPersonality)
	}
	if body.AddModel != nil {
		h.settings.AddCustomModel(*body.AddModel)
	}
	if body.RemoveModel != nil {
		h.settings.RemoveCustomModel(body.RemoveModel.Provider, body.RemoveModel.ID)
	}
	if body.ResetModels {
		h.settings.ResetCustomModels()
	}
	writeJSON(w, http.StatusOK, h.settings.Snapshot())
}

func (h *handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	h.settings.Save(r.Context())
	writeJSON(w, http.StatusOK, h.settings.Snapshot())
}

func (h *handler) testProvider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider string `json:"provider"`
		Key      string `json:"key"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	result := h.settings.TestProvider(r.Context(), body.Provider, body.Key)
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) uiState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ui.Snapshot())
}

func (h *handler) navigate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Screen           ui.Screen `json:"screen"`
		ConversationID   string    `json:"conversation_id,omitempty"`
		PrivateChatAgent string    `json:"private_chat_agent,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PrivateChatAgent != "" {
		h.ui.OpenPrivateChat(body.PrivateChatAgent)
	} else {
		h.ui.Navigate(body.Screen)
	}
	if body.ConversationID != "" {
		h.ui.SelectConversation(body.ConversationID)
	}
	writeJSON(w, http.StatusOK, h.ui.Snapshot())
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("viewer: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
