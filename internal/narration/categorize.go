// Package narration classifies narrator output for display. Categorization
// is presentation-only: it never changes what the engine said, only how the
// viewer styles it.
package narration

import (
	"regexp"

	"github.com/arbourlane/vigil/internal/engine"
)

// Category is a display grouping for a narration event.
type Category string

const (
	CategoryMafiaPrivate   Category = "mafia_private"
	CategorySheriffPrivate Category = "sheriff_private"
	CategoryDoctorPrivate  Category = "doctor_private"
	CategoryJailorPrivate  Category = "jailor_private"
	CategoryWin            Category = "win"
	CategoryDeath          Category = "death"
	CategorySave           Category = "save"
	CategoryReveal         Category = "reveal"
	CategoryVote           Category = "vote"
	CategoryPrompt         Category = "prompt"
)

// Display pairs a category with the icon shown next to the narration text.
type Display struct {
	Category Category `json:"category"`
	Icon     string   `json:"icon"`
}

var privateDisplays = map[engine.Visibility]Display{
	engine.VisibilityMafia:   {Category: CategoryMafiaPrivate, Icon: "mask"},
	engine.VisibilitySheriff: {Category: CategorySheriffPrivate, Icon: "badge"},
	engine.VisibilityDoctor:  {Category: CategoryDoctorPrivate, Icon: "cross"},
	engine.VisibilityJailor:  {Category: CategoryJailorPrivate, Icon: "lock"},
}

// textDisplays are tried in order; the first matching pattern wins. Critical
// outcomes (win, death, save, reveal) outrank the vote-result pattern.
var textDisplays = []struct {
	re      *regexp.Regexp
	display Display
}{
	{regexp.MustCompile(`(?i)\b(wins?|won|victory|victorious|triumphs?)\b`), Display{Category: CategoryWin, Icon: "trophy"}},
	{regexp.MustCompile(`(?i)\b(died|dead|killed|murdered|slain|perished)\b`), Display{Category: CategoryDeath, Icon: "skull"}},
	{regexp.MustCompile(`(?i)\b(saved|protected|healed|survived the attack)\b`), Display{Category: CategorySave, Icon: "shield"}},
	{regexp.MustCompile(`(?i)\b(revealed|turns out|was (actually )?the)\b`), Display{Category: CategoryReveal, Icon: "eye"}},
	{regexp.MustCompile(`(?i)\b(vote[ds]?|voting|lynch(ed)?|hanged|no one was eliminated)\b`), Display{Category: CategoryVote, Icon: "gavel"}},
}

// Categorize maps a narration event to its display category and icon.
//
// Role-private visibility always wins over text content: a private message
// whose text mentions a death still renders in that role's private category.
// The function is pure and total; unmatched text falls back to the generic
// prompt category.
func Categorize(text string, visibility engine.Visibility) Display {
	if d, ok := privateDisplays[visibility]; ok {
		return d
	}
	for _, td := range textDisplays {
		if td.re.MatchString(text) {
			return td.display
		}
	}
	return Display{Category: CategoryPrompt, Icon: "scroll"}
}
