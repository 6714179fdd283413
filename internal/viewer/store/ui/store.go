// Package ui holds navigation and selection state local to the view layer.
// Nothing here synchronizes with the engine.
package ui

import "sync"

// Screen names one top-level view.
type Screen string

const (
	ScreenWelcome     Screen = "welcome"
	ScreenSetup       Screen = "setup"
	ScreenGame        Screen = "game"
	ScreenChat        Screen = "chat"
	ScreenSettings    Screen = "settings"
	ScreenPrivateChat Screen = "private_chat"
)

var validScreens = map[Screen]bool{
	ScreenWelcome:     true,
	ScreenSetup:       true,
	ScreenGame:        true,
	ScreenChat:        true,
	ScreenSettings:    true,
	ScreenPrivateChat: true,
}

// Snapshot is a read-only copy of the store state.
type Snapshot struct {
	Screen               Screen `json:"screen"`
	SelectedConversation string `json:"selected_conversation,omitempty"`
	PrivateChatAgent     string `json:"private_chat_agent,omitempty"`
}

// Store tracks which screen is shown and what is selected on it.
type Store struct {
	mu                   sync.RWMutex
	screen               Screen
	selectedConversation string
	privateChatAgent     string
}

// NewStore creates a UI store on the welcome screen.
func NewStore() *Store {
	return &Store{screen: ScreenWelcome}
}

// Navigate switches screens. Entering any screen other than the private-chat
// screen clears the private-chat selection, so a later "back" can never land
// on a stale agent. Unknown screens are ignored.
func (s *Store) Navigate(screen Screen) {
	if !validScreens[screen] {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = screen
	if screen != ScreenPrivateChat {
		s.privateChatAgent = ""
	}
}

// SelectConversation records the conversation shown on the chat screen.
func (s *Store) SelectConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedConversation = id
}

// OpenPrivateChat navigates to the private-chat screen for one agent.
func (s *Store) OpenPrivateChat(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = ScreenPrivateChat
	s.privateChatAgent = agentID
}

// Snapshot returns a copy of the store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Screen:               s.screen,
		SelectedConversation: s.selectedConversation,
		PrivateChatAgent:     s.privateChatAgent,
	}
}
