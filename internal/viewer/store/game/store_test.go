package game

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/engine/enginetest"
)

func fullRoster() []engine.PendingAgent {
	return []engine.PendingAgent{
		{Name: "Marcus", Role: engine.RoleGodfather},
		{Name: "Eleanor", Role: engine.RoleSheriff},
		{Name: "Quinn", Role: engine.RoleDoctor},
		{Name: "Silas", Role: engine.RoleJailor},
	}
}

func TestApplyStateActivatesGameWithoutWinner(t *testing.T) {
	store := NewStore(enginetest.NewFake())

	store.ApplyState(&engine.GameState{Phase: engine.PhaseDayDiscussion, Day: 1})

	snap := store.Snapshot()
	if !snap.Active {
		t.Fatal("expected game active")
	}
}

func TestApplyStateWithWinnerDeactivates(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.ApplyState(&engine.GameState{Phase: engine.PhaseDayDiscussion})

	store.ApplyState(&engine.GameState{Phase: engine.PhaseGameOver, Winner: engine.FactionMafia})

	snap := store.Snapshot()
	if snap.Active {
		t.Fatal("expected game inactive once winner is set")
	}
	if snap.State.Winner != engine.FactionMafia {
		t.Fatalf("expected mafia winner, got %q", snap.State.Winner)
	}
}

func TestAppendEventPurgesStreamingStateForParticipant(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.AppendStreamingChunk("p1", "I think")
	store.AppendThinkingChunk("p1", "reasoning...")
	store.AppendStreamingChunk("p2", "unrelated")
	store.SetAgentThinking("p1", "Marcus")

	store.AppendEvent(engine.GameEvent{Type: engine.EventSpeech, ParticipantID: "p1", Text: "I think Eleanor is suspicious."})

	snap := store.Snapshot()
	if _, ok := snap.Streams["p1"]; ok {
		t.Fatal("expected p1 stream buffer dropped")
	}
	if _, ok := snap.ThinkingStreams["p1"]; ok {
		t.Fatal("expected p1 thinking buffer dropped")
	}
	if snap.Thinking != nil {
		t.Fatal("expected thinking marker cleared")
	}
	if _, ok := snap.Streams["p2"]; !ok {
		t.Fatal("expected p2 stream buffer kept")
	}
	if len(snap.State.Events) != 1 {
		t.Fatalf("expected appended event, got %d", len(snap.State.Events))
	}
}

func TestAppendEventWithoutParticipantLeavesOverlays(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.AppendStreamingChunk("p1", "partial")
	store.SetAgentThinking("p1", "Marcus")

	store.AppendEvent(engine.GameEvent{Type: engine.EventNarration, Text: "Night falls."})

	snap := store.Snapshot()
	if _, ok := snap.Streams["p1"]; !ok {
		t.Fatal("expected stream buffer kept")
	}
	if snap.Thinking == nil {
		t.Fatal("expected thinking marker kept")
	}
}

func TestCompleteStreamingDoesNotCreateBuffer(t *testing.T) {
	store := NewStore(enginetest.NewFake())

	store.CompleteStreaming("ghost")

	if snap := store.Snapshot(); len(snap.Streams) != 0 {
		t.Fatalf("expected no buffers, got %d", len(snap.Streams))
	}
}

func TestCompleteStreamingPreservesContent(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.AppendStreamingChunk("p1", "Hello ")
	store.AppendStreamingChunk("p1", "town")

	store.CompleteStreaming("p1")

	buf := store.Snapshot().Streams["p1"]
	if buf.Content != "Hello town" {
		t.Fatalf("expected concatenated content, got %q", buf.Content)
	}
	if !buf.Complete {
		t.Fatal("expected buffer marked complete")
	}
}

func TestStreamingChunkAfterCompleteMarksIncomplete(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.AppendStreamingChunk("p1", "first")
	store.CompleteStreaming("p1")

	store.AppendStreamingChunk("p1", " second")

	buf := store.Snapshot().Streams["p1"]
	if buf.Complete {
		t.Fatal("expected buffer marked incomplete after new chunk")
	}
}

func TestAddPendingAgentRejectsCaseInsensitiveDuplicate(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	var warned string
	store.logf = func(format string, args ...any) { warned = format }

	store.AddPendingAgent(engine.PendingAgent{Name: "Marcus", Role: engine.RoleGodfather})
	store.AddPendingAgent(engine.PendingAgent{Name: "mArCuS", Role: engine.RoleVillager})

	if got := store.PendingAgents(); len(got) != 1 {
		t.Fatalf("expected 1 pending agent, got %d", len(got))
	}
	if warned == "" {
		t.Fatal("expected a warning log for the duplicate")
	}
	if snap := store.Snapshot(); snap.Err != "" {
		t.Fatalf("duplicate must not surface as store error, got %q", snap.Err)
	}
}

func TestCanStartGameRequiresAllFourCategories(t *testing.T) {
	roster := fullRoster()
	for drop := range roster {
		store := NewStore(enginetest.NewFake())
		for i, agent := range roster {
			if i == drop {
				continue
			}
			store.AddPendingAgent(agent)
		}
		// Padding with extra non-qualifying roles must not help.
		store.AddPendingAgent(engine.PendingAgent{Name: "Ira", Role: engine.RoleVillager})
		store.AddPendingAgent(engine.PendingAgent{Name: "Juno", Role: engine.RoleJester})
		if store.CanStartGame() {
			t.Fatalf("expected start blocked without %q", roster[drop].Role)
		}
	}

	store := NewStore(enginetest.NewFake())
	for _, agent := range roster {
		store.AddPendingAgent(agent)
	}
	if !store.CanStartGame() {
		t.Fatal("expected start allowed with all four categories")
	}
}

func TestGodfatherSatisfiesMafiaRequirement(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	for _, agent := range fullRoster() {
		store.AddPendingAgent(agent)
	}
	// fullRoster uses the Godfather, not a Mafioso.
	if !store.CanStartGame() {
		t.Fatal("expected godfather to satisfy the mafia requirement")
	}
}

func TestStartGameOptimisticSetupFlip(t *testing.T) {
	fake := enginetest.NewFake()
	store := NewStore(fake)
	for _, agent := range fullRoster() {
		store.AddPendingAgent(agent)
	}

	store.StartGame(context.Background())

	snap := store.Snapshot()
	if snap.SettingUp {
		t.Fatal("expected setup flag cleared optimistically")
	}
	if len(fake.StartedGames) != 1 || len(fake.StartedGames[0]) != 4 {
		t.Fatalf("expected roster submitted, got %+v", fake.StartedGames)
	}
}

func TestStartGameRevertsSetupOnCallFailure(t *testing.T) {
	fake := enginetest.NewFake()
	fake.StartGameErr = errors.New("engine refused")
	store := NewStore(fake)
	for _, agent := range fullRoster() {
		store.AddPendingAgent(agent)
	}

	store.StartGame(context.Background())

	snap := store.Snapshot()
	if !snap.SettingUp {
		t.Fatal("expected setup flag reverted on synchronous failure")
	}
	if !strings.Contains(snap.Err, "engine refused") {
		t.Fatalf("expected error string, got %q", snap.Err)
	}
}

func TestStartGameBlockedByIncompleteRoster(t *testing.T) {
	fake := enginetest.NewFake()
	store := NewStore(fake)
	store.AddPendingAgent(engine.PendingAgent{Name: "Marcus", Role: engine.RoleGodfather})

	store.StartGame(context.Background())

	if len(fake.StartedGames) != 0 {
		t.Fatal("expected no engine call for incomplete roster")
	}
	if !store.Snapshot().SettingUp {
		t.Fatal("expected setup flag untouched")
	}
}

func TestPauseFailureKeepsOptimisticFlag(t *testing.T) {
	fake := enginetest.NewFake()
	store := NewStore(fake)
	fake.Err = errors.New("pause failed")

	store.PauseGame(context.Background())

	snap := store.Snapshot()
	if !snap.Paused {
		t.Fatal("expected paused flag kept despite failure")
	}
	if !strings.Contains(snap.Err, "pause failed") {
		t.Fatalf("expected error string, got %q", snap.Err)
	}
}

func TestSideChatSuccessAppendsReply(t *testing.T) {
	fake := enginetest.NewFake()
	fake.AskReply = "I was at home all night."
	store := NewStore(fake)

	store.SendSideChatMessage(context.Background(), "p1", "Where were you?")

	thread, ok := store.SideChat("p1")
	if !ok {
		t.Fatal("expected thread created")
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("expected question and reply, got %d messages", len(thread.Messages))
	}
	if thread.Loading {
		t.Fatal("expected loading cleared")
	}
	if !thread.Messages[0].FromUser || thread.Messages[1].FromUser {
		t.Fatalf("expected user question then agent reply, got %+v", thread.Messages)
	}
	if len(fake.AskRequests) != 1 || fake.AskRequests[0].History[0].Role != "user" {
		t.Fatalf("expected user turn in history, got %+v", fake.AskRequests)
	}
}

func TestSideChatFailureIsLocalToThread(t *testing.T) {
	fake := enginetest.NewFake()
	fake.AskErr = errors.New("agent offline")
	store := NewStore(fake)

	store.SendSideChatMessage(context.Background(), "p1", "Where were you?")

	thread, _ := store.SideChat("p1")
	if thread.Loading {
		t.Fatal("expected loading cleared on failure")
	}
	if !strings.Contains(thread.Err, "agent offline") {
		t.Fatalf("expected thread error, got %q", thread.Err)
	}
	if len(thread.Messages) != 1 || !thread.Messages[0].FromUser {
		t.Fatal("expected user message kept in thread")
	}
	if snap := store.Snapshot(); snap.Err != "" {
		t.Fatalf("side-chat failure must not surface globally, got %q", snap.Err)
	}
}

func TestSideChatSurvivesRosterDeath(t *testing.T) {
	fake := enginetest.NewFake()
	fake.AskReply = "Trust me."
	store := NewStore(fake)
	store.ApplyState(&engine.GameState{Agents: []engine.Agent{
		{ID: "p1", Name: "Marcus", Alive: true},
	}})

	store.SendSideChatMessage(context.Background(), "p1", "Are you mafia?")
	store.MarkAgentDead("p1", engine.DeathCauseLynch)

	thread, ok := store.SideChat("p1")
	if !ok || len(thread.Messages) != 2 {
		t.Fatalf("expected thread history unaffected by roster death, got %+v", thread)
	}
	if agent := store.Snapshot().State.Agents[0]; agent.Alive {
		t.Fatal("expected agent marked dead")
	}
}

func TestMarkAgentDeadIsIdempotent(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.ApplyState(&engine.GameState{Agents: []engine.Agent{{ID: "p1", Alive: true}}})

	store.MarkAgentDead("p1", engine.DeathCauseMafiaKill)
	store.MarkAgentDead("p1", engine.DeathCauseMafiaKill)
	store.MarkAgentDead("unknown", engine.DeathCauseMafiaKill)

	agents := store.Snapshot().State.Agents
	if len(agents) != 1 || agents[0].Alive {
		t.Fatalf("expected single dead agent, got %+v", agents)
	}
}

func TestThinkingMarkerLastWriterWins(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.clock = func() time.Time { return time.Unix(42, 0) }

	store.SetAgentThinking("p1", "Marcus")
	store.SetAgentThinking("p2", "Eleanor")
	store.ClearAgentThinking("p1")

	snap := store.Snapshot()
	if snap.Thinking == nil || snap.Thinking.ParticipantID != "p2" {
		t.Fatalf("expected p2 marker to survive, got %+v", snap.Thinking)
	}

	store.ClearAgentThinking("p2")
	if store.Snapshot().Thinking != nil {
		t.Fatal("expected marker cleared")
	}
}

func TestResetReturnsToInitialState(t *testing.T) {
	fake := enginetest.NewFake()
	store := NewStore(fake)
	store.ApplyState(&engine.GameState{Phase: engine.PhaseNight, Day: 3})
	store.AppendStreamingChunk("p1", "partial")
	store.SetAgentThinking("p1", "Marcus")
	store.AddPendingAgent(engine.PendingAgent{Name: "Marcus", Role: engine.RoleGodfather})
	store.SendSideChatMessage(context.Background(), "p1", "hello")
	calls := len(fake.Calls)

	store.Reset()

	snap := store.Snapshot()
	if snap.State != nil || snap.Active || !snap.SettingUp || snap.Paused {
		t.Fatalf("expected initial flags, got %+v", snap)
	}
	if len(snap.Streams) != 0 || len(snap.ThinkingStreams) != 0 || len(snap.SideChats) != 0 {
		t.Fatal("expected overlays cleared")
	}
	if len(snap.Pending) != 0 || snap.Thinking != nil || snap.Err != "" {
		t.Fatal("expected roster, marker and error cleared")
	}
	if len(fake.Calls) != calls {
		t.Fatal("reset must not contact the engine")
	}
}

func TestSetPhaseUpdatesMirroredState(t *testing.T) {
	store := NewStore(enginetest.NewFake())
	store.ApplyState(&engine.GameState{Phase: engine.PhaseDayDiscussion, Day: 1})

	store.SetPhase(engine.PhaseNight, 2)

	snap := store.Snapshot()
	if snap.State.Phase != engine.PhaseNight || snap.State.Day != 2 {
		t.Fatalf("expected night day 2, got %+v", snap.State)
	}
}
