package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/engine/enginetest"
)

func seedConversations(fake *enginetest.Fake) {
	fake.Conversations["c1"] = engine.Conversation{ID: "c1", Name: "philosophy", Messages: []engine.Message{
		{ID: "m1", ParticipantID: "p1", SenderName: "Ada", Content: "hello", Complete: true},
	}}
	fake.Conversations["c2"] = engine.Conversation{ID: "c2", Name: "history"}
}

func TestLoadSessionsPopulatesIndex(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)

	store.LoadSessions(context.Background())

	snap := store.Snapshot()
	if len(snap.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(snap.Sessions))
	}
	if snap.Loading {
		t.Fatal("expected loading flag cleared")
	}
	if snap.Err != "" {
		t.Fatalf("unexpected error %q", snap.Err)
	}
}

func TestLoadSessionsFailureRecordsError(t *testing.T) {
	fake := enginetest.NewFake()
	fake.Err = errors.New("engine offline")
	store := NewStore(fake)

	store.LoadSessions(context.Background())

	snap := store.Snapshot()
	if snap.Loading {
		t.Fatal("expected loading flag cleared after failure")
	}
	if !strings.Contains(snap.Err, "engine offline") {
		t.Fatalf("expected error string, got %q", snap.Err)
	}
}

func TestMessageAddedForOtherConversationIsIgnored(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSessions(context.Background())
	store.LoadSession(context.Background(), "c1")

	store.HandleMessageAdded("c2", engine.Message{ID: "m9", Content: "stray"})

	snap := store.Snapshot()
	if snap.Current == nil || snap.Current.ID != "c1" {
		t.Fatalf("expected current conversation c1, got %+v", snap.Current)
	}
	if len(snap.Current.Messages) != 1 {
		t.Fatalf("expected c1 log unchanged, got %d messages", len(snap.Current.Messages))
	}
}

func TestMessageAddedClearsMatchingThinkingMarker(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSession(context.Background(), "c1")

	store.SetThinking("c1", "p1", "Ada")
	if store.Snapshot().Thinking == nil {
		t.Fatal("expected thinking marker after set")
	}

	store.HandleMessageAdded("c1", engine.Message{ID: "m2", ParticipantID: "p1", Content: "reply"})

	snap := store.Snapshot()
	if snap.Thinking != nil {
		t.Fatalf("expected marker cleared by matching message, got %+v", snap.Thinking)
	}
	if len(snap.Current.Messages) != 2 {
		t.Fatalf("expected appended message, got %d", len(snap.Current.Messages))
	}
}

func TestMessageAddedKeepsMarkerForOtherParticipant(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSession(context.Background(), "c1")

	store.SetThinking("c1", "p2", "Bix")
	store.HandleMessageAdded("c1", engine.Message{ID: "m2", ParticipantID: "p1", Content: "reply"})

	if store.Snapshot().Thinking == nil {
		t.Fatal("expected marker kept when participants differ")
	}
}

func TestSetThinkingOverwritesPriorMarker(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.clock = func() time.Time { return time.Unix(100, 0) }

	store.SetThinking("c1", "p1", "Ada")
	store.SetThinking("c2", "p2", "Bix")

	snap := store.Snapshot()
	if snap.Thinking == nil || snap.Thinking.ParticipantID != "p2" {
		t.Fatalf("expected last-writer marker, got %+v", snap.Thinking)
	}
	if !snap.Thinking.Since.Equal(time.Unix(100, 0)) {
		t.Fatalf("expected clock timestamp, got %v", snap.Thinking.Since)
	}
}

func TestClearThinkingIsScopedToConversation(t *testing.T) {
	store := NewStore(enginetest.NewFake())

	store.SetThinking("c1", "p1", "Ada")
	store.ClearThinking("c2")
	if store.Snapshot().Thinking == nil {
		t.Fatal("expected marker kept for unrelated conversation")
	}

	store.ClearThinking("c1")
	if store.Snapshot().Thinking != nil {
		t.Fatal("expected marker cleared")
	}
}

func TestDeleteSessionClearsCurrentPointer(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSession(context.Background(), "c1")

	store.DeleteSession(context.Background(), "c1")

	snap := store.Snapshot()
	if snap.Current != nil {
		t.Fatalf("expected current cleared, got %+v", snap.Current)
	}
	if len(snap.Sessions) != 1 {
		t.Fatalf("expected refetched index with 1 session, got %d", len(snap.Sessions))
	}
}

func TestDeleteSessionKeepsUnrelatedCurrent(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSession(context.Background(), "c1")

	store.DeleteSession(context.Background(), "c2")

	if snap := store.Snapshot(); snap.Current == nil || snap.Current.ID != "c1" {
		t.Fatalf("expected current kept, got %+v", snap.Current)
	}
}

func TestStartSessionFailureDoesNotTouchActivity(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSessions(context.Background())

	fake.Err = errors.New("start refused")
	store.StartSession(context.Background(), "c1")

	snap := store.Snapshot()
	if !strings.Contains(snap.Err, "start refused") {
		t.Fatalf("expected error string, got %q", snap.Err)
	}
	for _, sess := range snap.Sessions {
		if sess.Active {
			t.Fatalf("expected activity untouched, got %+v", sess)
		}
	}
}

func TestStartedAndStoppedPushesDriveActivity(t *testing.T) {
	fake := enginetest.NewFake()
	seedConversations(fake)
	store := NewStore(fake)
	store.LoadSessions(context.Background())
	store.LoadSession(context.Background(), "c1")

	store.HandleStarted("c1")
	snap := store.Snapshot()
	if !snap.Sessions[0].Active || !snap.Current.Active {
		t.Fatal("expected c1 marked active in index and current")
	}

	store.HandleStopped("c1")
	snap = store.Snapshot()
	if snap.Sessions[0].Active || snap.Current.Active {
		t.Fatal("expected c1 marked inactive")
	}
}

func TestHandleErrorClearsThinkingForConversation(t *testing.T) {
	store := NewStore(enginetest.NewFake())

	store.SetThinking("c1", "p1", "Ada")
	store.HandleError("c1", "provider timeout")

	snap := store.Snapshot()
	if snap.Thinking != nil {
		t.Fatal("expected marker cleared on error")
	}
	if snap.Err != "provider timeout" {
		t.Fatalf("expected error surfaced, got %q", snap.Err)
	}
}
