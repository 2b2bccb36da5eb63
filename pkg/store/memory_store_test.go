package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"viralstudio/pkg/domain"
)

func sampleContent(tone string) domain.GeneratedContent {
	return domain.GeneratedContent{
		Content:     "main body",
		Captions:    []string{"c1", "c2", "c3"},
		Hashtags:    []string{"#main", "#viral"},
		CTA:         "share this",
		Keywords:    []string{"k1"},
		VisualGuide: "warm light, fast cuts",
		ToneUsed:    tone,
	}
}

func TestMemoryStoreSaveAndGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	data := sampleContent("modern viral fomo")
	saved, err := s.SaveContent("topic-1", data, "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatalf("expected store-assigned created_at")
	}
	got, err := s.GetContentByID(saved.ID, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Data, data) {
		t.Fatalf("data mismatch: got %+v want %+v", got.Data, data)
	}
	if got.UserID != "user-1" {
		t.Fatalf("user_id = %q, want user-1", got.UserID)
	}
}

func TestMemoryStoreSaveRequiresOwner(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.SaveContent("t", sampleContent("x"), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated", err)
	}
}

func TestMemoryStoreListLifecycle(t *testing.T) {
	s := NewMemoryStore()
	items, err := s.ListContents("user-1")
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("empty store list length = %d, want 0", len(items))
	}

	saved, err := s.SaveContent("t", sampleContent("x"), "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	items, err = s.ListContents("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != saved.ID {
		t.Fatalf("after save, list = %+v, want single item %d", items, saved.ID)
	}

	if err := s.DeleteContent(saved.ID, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err = s.ListContents("user-1")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	for _, item := range items {
		if item.ID == saved.ID {
			t.Fatalf("deleted id %d still listed", saved.ID)
		}
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	first, err := s.SaveContent("older", sampleContent("x"), "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	clock = base.Add(time.Minute)
	second, err := s.SaveContent("newer", sampleContent("x"), "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	items, err := s.ListContents("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list length = %d, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", items[0].ID, items[1].ID, second.ID, first.ID)
	}
}

func TestMemoryStoreListScopedToOwner(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.SaveContent("mine", sampleContent("x"), "user-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveContent("theirs", sampleContent("x"), "user-2"); err != nil {
		t.Fatalf("save: %v", err)
	}
	items, err := s.ListContents("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Topic != "mine" {
		t.Fatalf("list = %+v, want only user-1 rows", items)
	}
}

func TestMemoryStoreOwnershipEnforced(t *testing.T) {
	s := NewMemoryStore()
	saved, err := s.SaveContent("t", sampleContent("x"), "owner")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.UpdateContent(saved.ID, "intruder", sampleContent("y")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("update foreign row: got %v, want ErrForbidden", err)
	}
	if err := s.DeleteContent(saved.ID, "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete foreign row: got %v, want ErrForbidden", err)
	}
	if _, err := s.GetContentByID(saved.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get foreign row: got %v, want ErrNotFound", err)
	}
	// Owner is unaffected.
	if _, err := s.GetContentByID(saved.ID, "owner"); err != nil {
		t.Fatalf("owner get: %v", err)
	}
}

func TestMemoryStoreUpdateReplacesDataOnly(t *testing.T) {
	s := NewMemoryStore()
	saved, err := s.SaveContent("topic", sampleContent("before"), "user-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	updated := sampleContent("after")
	if err := s.UpdateContent(saved.ID, "user-1", updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetContentByID(saved.ID, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Data.ToneUsed != "after" {
		t.Fatalf("data not replaced: %+v", got.Data)
	}
	if got.Topic != "topic" || !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("update touched non-data fields: %+v", got)
	}
}

func TestMemoryStoreMissingRows(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetContentByID(42, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: got %v, want ErrNotFound", err)
	}
	if err := s.UpdateContent(42, "user-1", sampleContent("x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteContent(42, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreProfiles(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, err := s.GetProfile("u1"); err != nil || ok {
		t.Fatalf("expected missing profile, got ok=%v err=%v", ok, err)
	}
	profile := domain.UserProfile{ID: "u1", Fullname: "Creator One", Avatar: "https://a/b.png", APIKey: "ciphertext"}
	if err := s.SaveProfile(profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	got, ok, err := s.GetProfile("u1")
	if err != nil || !ok {
		t.Fatalf("get profile: ok=%v err=%v", ok, err)
	}
	if got != profile {
		t.Fatalf("profile mismatch: got %+v", got)
	}
}
