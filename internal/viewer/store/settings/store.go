// Package settings holds provider credentials and game configuration
// mirrored from the engine's settings file.
//
// Mutations apply to the in-memory copy only; nothing is persisted until
// Save performs a full overwrite through the engine. There are no partial
// transactions.
package settings

import (
	"context"
	"sync"

	"github.com/arbourlane/vigil/internal/engine"
)

// Snapshot is a read-only copy of the store state.
type Snapshot struct {
	Settings engine.Settings `json:"settings"`
	Loaded   bool            `json:"loaded"`
	Loading  bool            `json:"loading"`
	Err      string          `json:"error,omitempty"`
}

// Store mirrors engine settings with default backfill.
type Store struct {
	api engine.API

	mu       sync.RWMutex
	settings engine.Settings
	loaded   bool
	loading  bool
	err      string
}

// NewStore creates a settings store with defaults applied, so consumers can
// read sensible configuration even before Load completes.
func NewStore(api engine.API) *Store {
	return &Store{api: api, settings: applyDefaults(engine.Settings{})}
}

// Load fetches settings from the engine and backfills any absent field with
// its fixed default. Failures are recorded as an error string; the existing
// in-memory settings stay usable.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	loaded, err := s.api.GetSettings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = "failed to load settings: " + err.Error()
		return
	}
	s.settings = applyDefaults(loaded)
	s.loaded = true
	s.err = ""
}

// Save persists the full in-memory settings wholesale through the engine.
func (s *Store) Save(ctx context.Context) {
	s.mu.RLock()
	copied := copySettings(s.settings)
	s.mu.RUnlock()

	if err := s.api.SaveSettings(ctx, copied); err != nil {
		s.mu.Lock()
		s.err = "failed to save settings: " + err.Error()
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// UpdateAPIKey sets one provider's credential on the in-memory copy.
func (s *Store) UpdateAPIKey(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.settings.Providers[provider]
	p.APIKey = key
	s.settings.Providers[provider] = p
}

// UpdateGameSettings merges non-zero pacing fields onto the in-memory copy.
func (s *Store) UpdateGameSettings(game engine.GameSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game.MaxRounds > 0 {
		s.settings.Game.MaxRounds = game.MaxRounds
	}
	if game.MaxRetries > 0 {
		s.settings.Game.MaxRetries = game.MaxRetries
	}
	if game.TurnTimeoutSecs > 0 {
		s.settings.Game.TurnTimeoutSecs = game.TurnTimeoutSecs
	}
}

// UpdateDefaultPersonality replaces the default personality text.
func (s *Store) UpdateDefaultPersonality(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		text = DefaultPersonality
	}
	s.settings.DefaultPersonality = text
}

// AddCustomModel appends a catalog entry, replacing any existing entry with
// the same provider and id.
func (s *Store) AddCustomModel(model engine.CustomModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.settings.CustomModels {
		if existing.Provider == model.Provider && existing.ID == model.ID {
			s.settings.CustomModels[i] = model
			return
		}
	}
	s.settings.CustomModels = append(s.settings.CustomModels, model)
}

// RemoveCustomModel drops a catalog entry by provider and id.
func (s *Store) RemoveCustomModel(provider, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.settings.CustomModels[:0]
	for _, model := range s.settings.CustomModels {
		if model.Provider != provider || model.ID != id {
			kept = append(kept, model)
		}
	}
	s.settings.CustomModels = kept
}

// ResetCustomModels restores the built-in model catalog.
func (s *Store) ResetCustomModels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.CustomModels = DefaultModelCatalog()
}

// TestProvider checks a credential against the engine without storing it.
func (s *Store) TestProvider(ctx context.Context, provider, key string) engine.TestResult {
	result, err := s.api.TestProvider(ctx, provider, key)
	if err != nil {
		return engine.TestResult{Success: false, Error: err.Error()}
	}
	return result
}

// Snapshot returns a copy of the store state safe for concurrent readers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Settings: copySettings(s.settings),
		Loaded:   s.loaded,
		Loading:  s.loading,
		Err:      s.err,
	}
}

func copySettings(s engine.Settings) engine.Settings {
	out := s
	out.Providers = make(map[string]engine.ProviderSettings, len(s.Providers))
	for name, p := range s.Providers {
		out.Providers[name] = p
	}
	out.CustomModels = append([]engine.CustomModel(nil), s.CustomModels...)
	return out
}
