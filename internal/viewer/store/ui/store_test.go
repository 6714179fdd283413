package ui

import "testing"

func TestStartsOnWelcomeScreen(t *testing.T) {
	store := NewStore()
	if got := store.Snapshot().Screen; got != ScreenWelcome {
		t.Fatalf("expected welcome screen, got %q", got)
	}
}

func TestNavigateAwayClearsPrivateChatSelection(t *testing.T) {
	store := NewStore()
	store.OpenPrivateChat("p1")

	snap := store.Snapshot()
	if snap.Screen != ScreenPrivateChat || snap.PrivateChatAgent != "p1" {
		t.Fatalf("expected private chat with p1, got %+v", snap)
	}

	store.Navigate(ScreenGame)

	snap = store.Snapshot()
	if snap.Screen != ScreenGame {
		t.Fatalf("expected game screen, got %q", snap.Screen)
	}
	if snap.PrivateChatAgent != "" {
		t.Fatalf("expected private-chat selection cleared, got %q", snap.PrivateChatAgent)
	}
}

func TestNavigateToPrivateChatKeepsSelection(t *testing.T) {
	store := NewStore()
	store.OpenPrivateChat("p1")

	store.Navigate(ScreenPrivateChat)

	if got := store.Snapshot().PrivateChatAgent; got != "p1" {
		t.Fatalf("expected selection kept, got %q", got)
	}
}

func TestNavigateIgnoresUnknownScreen(t *testing.T) {
	store := NewStore()
	store.Navigate(ScreenChat)

	store.Navigate(Screen("bogus"))

	if got := store.Snapshot().Screen; got != ScreenChat {
		t.Fatalf("expected chat screen kept, got %q", got)
	}
}

func TestSelectConversationSurvivesNavigation(t *testing.T) {
	store := NewStore()
	store.SelectConversation("c1")
	store.Navigate(ScreenSettings)

	if got := store.Snapshot().SelectedConversation; got != "c1" {
		t.Fatalf("expected conversation selection kept, got %q", got)
	}
}
