package badger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	session, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if !strings.HasPrefix(session.ID, "sess_") {
		t.Errorf("Unexpected session id format: %s", session.ID)
	}

	loaded, err := storage.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded.ID != session.ID {
		t.Errorf("Expected %s, got %s", session.ID, loaded.ID)
	}

	if _, err := storage.GetSession(ctx, "sess_unknown"); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendTurnSequencing(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	session, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	exchanges := []struct {
		role    string
		content string
	}{
		{models.RoleUser, "first question"},
		{models.RoleModel, "first answer"},
		{models.RoleUser, "second question"},
		{models.RoleModel, "second answer"},
	}
	for _, ex := range exchanges {
		if _, err := storage.AppendTurn(ctx, session.ID, ex.role, ex.content); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	turns, err := storage.GetTurns(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetTurns failed: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("Expected 4 turns, got %d", len(turns))
	}
	for i, turn := range turns {
		if turn.Sequence != i {
			t.Errorf("Turn %d has sequence %d", i, turn.Sequence)
		}
		if turn.Role != exchanges[i].role || turn.Content != exchanges[i].content {
			t.Errorf("Turn %d mismatch: %+v", i, turn)
		}
	}
	if turns[0].Role != models.RoleUser {
		t.Error("First turn must be a user turn")
	}
}

func TestAppendTurnUnknownSession(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})

	if _, err := storage.AppendTurn(context.Background(), "sess_missing", models.RoleUser, "hello"); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	session, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := storage.AppendTurn(ctx, session.ID, models.RoleUser, "message"); err != nil {
				t.Errorf("AppendTurn failed: %v", err)
			}
		}()
	}
	wg.Wait()

	turns, err := storage.GetTurns(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != writers {
		t.Fatalf("Expected %d turns, got %d", writers, len(turns))
	}
	seen := make(map[int]bool)
	for _, turn := range turns {
		if seen[turn.Sequence] {
			t.Fatalf("Duplicate sequence %d", turn.Sequence)
		}
		seen[turn.Sequence] = true
	}
}

func TestRecentTurnsWindow(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	session, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 6; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleModel
		}
		if _, err := storage.AppendTurn(ctx, session.ID, role, "turn"); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := storage.RecentTurns(ctx, session.ID, 4)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(recent) != 4 {
		t.Fatalf("Expected 4 turns, got %d", len(recent))
	}
	if recent[0].Sequence != 2 || recent[3].Sequence != 5 {
		t.Errorf("Expected sequences 2..5, got %d..%d", recent[0].Sequence, recent[3].Sequence)
	}

	// Unknown session yields an empty slice, not an error
	empty, err := storage.RecentTurns(ctx, "sess_missing", 4)
	if err != nil {
		t.Fatalf("RecentTurns for unknown session failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Expected empty slice, got %d turns", len(empty))
	}
}

func TestListSessionsPreviewAndOrder(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	older, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storage.AppendTurn(ctx, older.ID, models.RoleUser, "short question"); err != nil {
		t.Fatal(err)
	}

	newer, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	longQuestion := strings.Repeat("long question text ", 5)
	if _, err := storage.AppendTurn(ctx, newer.ID, models.RoleUser, longQuestion); err != nil {
		t.Fatal(err)
	}

	summaries, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}

	// Newest activity first
	if summaries[0].SessionID != newer.ID {
		t.Errorf("Expected newest session first, got %s", summaries[0].SessionID)
	}

	// Long previews are truncated with an ellipsis
	if len(summaries[0].Preview) != previewLength+3 || !strings.HasSuffix(summaries[0].Preview, "...") {
		t.Errorf("Unexpected preview: %q", summaries[0].Preview)
	}
	if summaries[1].Preview != "short question" {
		t.Errorf("Expected untruncated preview, got %q", summaries[1].Preview)
	}
}

func TestClearAllSessions(t *testing.T) {
	storage := NewSessionStorage(setupTestDB(t), arbor.NewLogger(), &sync.RWMutex{})
	ctx := context.Background()

	session, err := storage.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storage.AppendTurn(ctx, session.ID, models.RoleUser, "hello"); err != nil {
		t.Fatal(err)
	}

	if err := storage.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if _, err := storage.GetSession(ctx, session.ID); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("Expected session gone, got %v", err)
	}

	summaries, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Fatalf("Expected no sessions, got %d", len(summaries))
	}
}
