package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/session"
)

func sampleSnapshot() session.Snapshot {
	return session.Snapshot{
		Messages: []protocol.Message{
			protocol.NewMessage(protocol.RoleUser, "What is 25 times 4?"),
			{
				Role:    protocol.RoleAssistant,
				Content: "",
				ToolCalls: []protocol.ToolCall{
					protocol.NewToolCall("call_1", "calculator", map[string]any{"operation": "multiply", "a": 25, "b": 4}),
				},
			},
			protocol.NewToolResult("call_1", "25 * 4 = 100"),
			protocol.NewMessage(protocol.RoleAssistant, "25 times 4 is 100."),
			protocol.NewMessage(protocol.RoleUser, "Weather in Paris?"),
			{Role: protocol.RoleAssistant, ToolCalls: []protocol.ToolCall{weatherCall("call_2", "Paris")}},
			protocol.NewToolResult("call_2", "clarification requested"),
			protocol.NewMessage(protocol.RoleAssistant, "Which Paris?"),
		},
		Turn: session.TurnState{
			Intent:           session.IntentQuestion,
			ExchangeCount:    3,
			NeedsApproval:    true,
			PendingToolCalls: []protocol.ToolCall{weatherCall("call_2", "Paris")},
			ApprovalPrompt:   "Which Paris?",
		},
	}
}

type storeFactory struct {
	name string
	open func(t *testing.T) session.Store
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T) session.Store {
			return session.NewMemoryStore(0)
		}},
		{"file", func(t *testing.T) session.Store {
			s, err := session.NewFileStore(filepath.Join(t.TempDir(), "sessions"))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		}},
		{"gorm-sqlite", func(t *testing.T) session.Store {
			s, err := session.NewGormStore("sqlite", filepath.Join(t.TempDir(), "db", "sessions.db"))
			if err != nil {
				t.Fatalf("NewGormStore: %v", err)
			}
			return s
		}},
		{"badger-memory", func(t *testing.T) session.Store {
			s, err := session.NewBadgerStore(session.BadgerOptions{})
			if err != nil {
				t.Fatalf("NewBadgerStore: %v", err)
			}
			return s
		}},
		{"badger-disk", func(t *testing.T) session.Store {
			s, err := session.NewBadgerStore(session.BadgerOptions{Path: t.TempDir(), TTL: time.Hour})
			if err != nil {
				t.Fatalf("NewBadgerStore: %v", err)
			}
			return s
		}},
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			ctx := context.Background()

			want := sampleSnapshot()
			if err := store.Save(ctx, "s1", want); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestStores_NotFoundOverwriteDelete(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			ctx := context.Background()

			if _, err := store.Load(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("Load(missing) = %v, want ErrNotFound", err)
			}

			first := sampleSnapshot()
			if err := store.Save(ctx, "s1", first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			second := sampleSnapshot()
			second.Messages = append(second.Messages, protocol.NewMessage(protocol.RoleUser, "Paris, France"))
			second.Turn = session.TurnState{Intent: session.IntentQuestion, ExchangeCount: 4}
			if err := store.Save(ctx, "s1", second); err != nil {
				t.Fatalf("Save overwrite: %v", err)
			}

			got, err := store.Load(ctx, "s1")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, second) {
				t.Errorf("overwrite not visible:\n got %+v\nwant %+v", got, second)
			}

			if err := store.Delete(ctx, "s1"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.Load(ctx, "s1"); !errors.Is(err, session.ErrNotFound) {
				t.Errorf("Load after delete = %v, want ErrNotFound", err)
			}
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Errorf("Delete of missing id = %v, want nil", err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", true},
		{"blank", "  \t", true},
		{"simple", "s1", false},
		{"at limit", strings.Repeat("a", session.MaxIDLength), false},
		{"over limit", strings.Repeat("a", session.MaxIDLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, session.ErrInvalidID) {
				t.Errorf("error = %v, want ErrInvalidID", err)
			}
		})
	}
}

func TestStores_RejectInvalidID(t *testing.T) {
	long := strings.Repeat("x", session.MaxIDLength+1)
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			ctx := context.Background()

			for _, id := range []string{"  ", long} {
				if err := store.Save(ctx, id, session.New()); !errors.Is(err, session.ErrInvalidID) {
					t.Errorf("Save(%.8q) = %v, want ErrInvalidID", id, err)
				}
			}
		})
	}
}

func TestStores_LongestIDRoundTrips(t *testing.T) {
	id := strings.Repeat("é", session.MaxIDLength/2)
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			ctx := context.Background()

			if err := store.Save(ctx, id, sampleSnapshot()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, err := store.Load(ctx, id); err != nil {
				t.Errorf("Load: %v", err)
			}
		})
	}
}

func TestStores_IDsAreIsolated(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			defer store.Close()
			ctx := context.Background()

			ids := []string{"a", "a/b", "../escape", "user@example.com"}
			for i, id := range ids {
				snap := session.New()
				snap.Turn.ExchangeCount = i
				if err := store.Save(ctx, id, snap); err != nil {
					t.Fatalf("Save(%q): %v", id, err)
				}
			}
			for i, id := range ids {
				got, err := store.Load(ctx, id)
				if err != nil {
					t.Fatalf("Load(%q): %v", id, err)
				}
				if got.Turn.ExchangeCount != i {
					t.Errorf("Load(%q) count = %d, want %d", id, got.Turn.ExchangeCount, i)
				}
			}
		})
	}
}

func TestMemoryStore_DefensiveCopies(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	snap := sampleSnapshot()
	if err := store.Save(ctx, "s1", snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap.Messages[0].Content = "tampered"

	got, _ := store.Load(ctx, "s1")
	if got.Messages[0].Content == "tampered" {
		t.Error("store aliases the saved snapshot")
	}

	got.Messages[0].Content = "tampered again"
	again, _ := store.Load(ctx, "s1")
	if again.Messages[0].Content == "tampered again" {
		t.Error("store aliases the loaded snapshot")
	}
}

func TestMemoryStore_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	store := session.NewMemoryStore(2)
	ctx := context.Background()

	store.Save(ctx, "a", session.New())
	store.Save(ctx, "b", session.New())
	if _, err := store.Load(ctx, "a"); err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	store.Save(ctx, "c", session.New())

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
	if _, err := store.Load(ctx, "b"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("b should be evicted, got %v", err)
	}
	if _, err := store.Load(ctx, "a"); err != nil {
		t.Errorf("a should survive: %v", err)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := session.NewMemoryStore(0)
	store.Close()

	if _, err := store.Load(context.Background(), "a"); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Load after close = %v, want ErrClosed", err)
	}
	if err := store.Save(context.Background(), "a", session.New()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Save after close = %v, want ErrClosed", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := []string{"x", "y"}[i%2]
			snap := sampleSnapshot()
			if err := store.Save(ctx, id, snap); err != nil {
				t.Errorf("Save: %v", err)
			}
			if _, err := store.Load(ctx, id); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()
}
