package settings

import "github.com/arbourlane/vigil/internal/engine"

// DefaultPersonality seeds new agents that have no custom personality text.
const DefaultPersonality = "You are a sharp but fair player. Argue from " +
	"evidence, keep your answers short, and never reveal private information " +
	"unless your role demands it."

// Default pacing; the engine treats zero values as misconfiguration, so the
// store backfills these whenever a loaded field is absent.
const (
	defaultMaxRounds       = 20
	defaultMaxRetries      = 3
	defaultTurnTimeoutSecs = 60
)

// DefaultModelCatalog returns the built-in model catalog used when the
// loaded settings carry no custom models.
func DefaultModelCatalog() []engine.CustomModel {
	return []engine.CustomModel{
		{Provider: "openai", ID: "gpt-4o", DisplayName: "GPT-4o"},
		{Provider: "openai", ID: "gpt-4o-mini", DisplayName: "GPT-4o mini"},
		{Provider: "anthropic", ID: "claude-3-7-sonnet", DisplayName: "Claude 3.7 Sonnet"},
		{Provider: "google", ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
	}
}

// applyDefaults backfills absent fields so downstream consumers never
// observe undefined configuration.
func applyDefaults(s engine.Settings) engine.Settings {
	if s.Providers == nil {
		s.Providers = make(map[string]engine.ProviderSettings)
	}
	if s.Game.MaxRounds <= 0 {
		s.Game.MaxRounds = defaultMaxRounds
	}
	if s.Game.MaxRetries <= 0 {
		s.Game.MaxRetries = defaultMaxRetries
	}
	if s.Game.TurnTimeoutSecs <= 0 {
		s.Game.TurnTimeoutSecs = defaultTurnTimeoutSecs
	}
	if s.DefaultPersonality == "" {
		s.DefaultPersonality = DefaultPersonality
	}
	if s.CustomModels == nil {
		s.CustomModels = DefaultModelCatalog()
	}
	return s
}
