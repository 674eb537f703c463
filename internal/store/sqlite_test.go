package store_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/memora-app/memora/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.NewSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sampleProfile() *store.Profile {
	return &store.Profile{
		Name:              "小明",
		Nickname:          "小明明",
		Relationship:      "朋友",
		AvatarURL:         "",
		PersonalityPrompt: "溫柔、講話很快",
		AnalysisStatus:    "completed",
		SampleMessages:    []string{"嗨", "早安"},
	}
}

func TestSQLiteProfileRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleProfile()
	if err := s.SaveProfile(ctx, "xiaoming", want); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := s.GetProfile(ctx, "xiaoming")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetProfile() = %+v, want %+v", got, want)
	}

	// Reads are idempotent.
	again, err := s.GetProfile(ctx, "xiaoming")
	if err != nil {
		t.Fatalf("GetProfile (second read): %v", err)
	}
	if !reflect.DeepEqual(again, got) {
		t.Errorf("second read differs: %+v vs %+v", again, got)
	}
}

func TestSQLiteSaveProfileOverwrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleProfile()
	if err := s.SaveProfile(ctx, "p1", first); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	second := sampleProfile()
	second.Nickname = "新暱稱"
	second.SampleMessages = []string{"改過的訊息"}
	if err := s.SaveProfile(ctx, "p1", second); err != nil {
		t.Fatalf("SaveProfile (overwrite): %v", err)
	}

	got, err := s.GetProfile(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Nickname != "新暱稱" || len(got.SampleMessages) != 1 {
		t.Errorf("overwrite did not take effect: %+v", got)
	}
}

func TestSQLiteGetProfileNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, store.ErrProfileNotFound) {
		t.Fatalf("GetProfile(unknown) error = %v, want ErrProfileNotFound", err)
	}
}

func TestSQLiteListProfiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles (empty): %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty listing, got %v", list)
	}

	for i, name := range []string{"alice", "bob"} {
		p := sampleProfile()
		p.Name = name
		if err := s.SaveProfile(ctx, fmt.Sprintf("id-%d", i), p); err != nil {
			t.Fatalf("SaveProfile %q: %v", name, err)
		}
	}

	list, err = s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	want := []store.ProfileSummary{
		{ProfileID: "id-0", Name: "alice"},
		{ProfileID: "id-1", Name: "bob"},
	}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("ListProfiles() = %v, want %v", list, want)
	}
}

func TestSQLiteChatLogAppendOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	const turns = 5
	for i := 0; i < turns; i++ {
		user := store.Turn{Role: store.RoleUser, Text: fmt.Sprintf("u%d", i), TS: int64(i * 2)}
		bot := store.Turn{Role: store.RoleBot, Text: fmt.Sprintf("b%d", i), TS: int64(i*2 + 1)}
		if err := s.AppendTurn(ctx, "p1", user); err != nil {
			t.Fatalf("AppendTurn user %d: %v", i, err)
		}
		if err := s.AppendTurn(ctx, "p1", bot); err != nil {
			t.Fatalf("AppendTurn bot %d: %v", i, err)
		}
	}

	history, err := s.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2*turns {
		t.Fatalf("len(history) = %d, want %d", len(history), 2*turns)
	}
	for i, turn := range history {
		wantRole := store.RoleUser
		if i%2 == 1 {
			wantRole = store.RoleBot
		}
		if turn.Role != wantRole {
			t.Errorf("turn %d role = %q, want %q", i, turn.Role, wantRole)
		}
		if turn.TS != int64(i) {
			t.Errorf("turn %d ts = %d, want %d (append order violated)", i, turn.TS, i)
		}
	}
}

func TestSQLiteChatLogsAreIsolatedByProfile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendTurn(ctx, "p1", store.Turn{Role: store.RoleUser, Text: "hi", TS: 1}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	other, err := s.GetHistory(ctx, "p2")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty history for other profile, got %v", other)
	}
}

func TestSQLiteGetHistoryMissingLogIsEmpty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	history, err := s.GetHistory(context.Background(), "never-chatted")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("GetHistory(missing) = %v, want empty non-nil slice", history)
	}
}

func TestSQLiteRunMaintenance(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := s.RunMaintenance(context.Background()); err != nil {
		t.Fatalf("RunMaintenance: %v", err)
	}
}

func TestSQLitePing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
