package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/shopclerk/internal/core"
)

func newTestStore() *Store {
	return NewStore(DefaultConfig())
}

func userMsg(i int) core.Message {
	return core.Message{
		ID:        fmt.Sprintf("m%d", i),
		Role:      core.RoleUser,
		Content:   fmt.Sprintf("message number %d", i),
		Timestamp: time.Now(),
	}
}

func TestAddMessage_UnknownConversation(t *testing.T) {
	s := newTestStore()

	err := s.AddMessage(context.Background(), "missing", userMsg(1))
	if err != core.ErrConversationNotFound {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestAddMessage_Bookkeeping(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "u1")

	for i := 0; i < 3; i++ {
		if err := s.AddMessage(ctx, "c1", userMsg(i)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	conv, ok := s.Get("c1")
	if !ok {
		t.Fatal("conversation missing")
	}
	if conv.Meta.MessageCount != len(conv.Messages) {
		t.Errorf("messageCount %d != len(messages) %d", conv.Meta.MessageCount, len(conv.Messages))
	}
	if len(conv.Messages) != 3 {
		t.Errorf("got %d messages, want 3", len(conv.Messages))
	}
	if conv.UserID != "u1" {
		t.Errorf("userID = %q, want u1", conv.UserID)
	}
}

func TestCompression_TriggersAtThreshold(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "")

	// 25 sequential messages, no system role. After the 21st append the
	// history collapses to the compression threshold.
	for i := 1; i <= 25; i++ {
		if err := s.AddMessage(ctx, "c1", userMsg(i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}

		conv, _ := s.Get("c1")
		if i == 20 && len(conv.Messages) != 20 {
			t.Fatalf("after 20 appends: %d messages, want 20", len(conv.Messages))
		}
		if i == 21 && len(conv.Messages) != 10 {
			t.Fatalf("after 21st append: %d messages, want 10", len(conv.Messages))
		}
	}

	conv, _ := s.Get("c1")
	if len(conv.Messages) != 14 {
		t.Errorf("after 25 appends: %d messages, want 14", len(conv.Messages))
	}
	// Retained messages keep their relative order.
	last := conv.Messages[len(conv.Messages)-1]
	if last.ID != "m25" {
		t.Errorf("newest retained = %s, want m25", last.ID)
	}
}

func TestCompression_SystemMessagesSurvive(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "")

	sys := core.Message{ID: "sys1", Role: core.RoleSystem, Content: "store policy"}
	if err := s.AddMessage(ctx, "c1", sys); err != nil {
		t.Fatalf("add system: %v", err)
	}
	for i := 1; i <= 24; i++ {
		if err := s.AddMessage(ctx, "c1", userMsg(i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	conv, _ := s.Get("c1")
	foundSys := false
	for _, m := range conv.Messages {
		if m.ID == "sys1" {
			foundSys = true
		}
	}
	if !foundSys {
		t.Error("system message dropped by compression")
	}
	if conv.Messages[0].ID != "sys1" {
		t.Errorf("system message moved: first is %s", conv.Messages[0].ID)
	}
}

func TestMemory_Caps(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "")

	for i := 0; i < 40; i++ {
		msg := core.Message{
			ID:   fmt.Sprintf("m%d", i),
			Role: core.RoleUser,
			Content: fmt.Sprintf(
				"price shipping delivery warranty discount unique%dword another%dthing", i, i),
		}
		if err := s.AddMessage(ctx, "c1", msg); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	mem, ok := s.Memory("c1")
	if !ok {
		t.Fatal("memory missing")
	}
	if len(mem.ShortTerm) > 20 {
		t.Errorf("short-term = %d, want <= 20", len(mem.ShortTerm))
	}
	if len(mem.LongTerm.Topics) > 10 {
		t.Errorf("topics = %d, want <= 10", len(mem.LongTerm.Topics))
	}
	if len(mem.LongTerm.Context) > 20 {
		t.Errorf("keywords = %d, want <= 20", len(mem.LongTerm.Context))
	}
}

func TestMemory_TopicsFromPriorityList(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "")

	msg := core.Message{ID: "m1", Role: core.RoleUser, Content: "What is the shipping price for this table?"}
	if err := s.AddMessage(ctx, "c1", msg); err != nil {
		t.Fatalf("add: %v", err)
	}

	mem, _ := s.Memory("c1")
	want := map[string]bool{"price": true, "shipping": true, "table": true}
	for _, topic := range mem.LongTerm.Topics {
		delete(want, topic)
	}
	if len(want) != 0 {
		t.Errorf("topics %v missing %v", mem.LongTerm.Topics, want)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	s.Create("c1", "")

	if !s.Delete("c1") {
		t.Error("delete existing = false, want true")
	}
	if s.Delete("c1") {
		t.Error("delete missing = true, want false")
	}
	if _, ok := s.Get("c1"); ok {
		t.Error("conversation still present after delete")
	}
	if _, ok := s.Memory("c1"); ok {
		t.Error("memory still present after delete")
	}
}

func TestSweep_DropsIdleConversations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAge = 10 * time.Millisecond
	s := NewStore(cfg)
	ctx := context.Background()

	s.Create("old", "")
	if err := s.AddMessage(ctx, "old", userMsg(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	s.Create("fresh", "")

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("swept %d, want 1", removed)
	}
	if _, ok := s.Get("old"); ok {
		t.Error("idle conversation survived sweep")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh conversation was swept")
	}
}

func TestRestore_RebuildsMemory(t *testing.T) {
	s := newTestStore()

	conv := core.Conversation{
		ConversationID: "c1",
		Messages: []core.Message{
			{ID: "m1", Role: core.RoleUser, Content: "warranty question about the sofa"},
			{ID: "m2", Role: core.RoleAgent, Content: "our sofas carry a two year warranty"},
		},
		Meta: core.ConversationMeta{MessageCount: 2, LastUpdate: time.Now()},
	}
	s.Restore(conv)

	got, ok := s.Get("c1")
	if !ok || len(got.Messages) != 2 {
		t.Fatalf("restored conversation wrong: %+v", got)
	}

	mem, ok := s.Memory("c1")
	if !ok {
		t.Fatal("memory not rebuilt")
	}
	if len(mem.ShortTerm) != 2 {
		t.Errorf("short-term = %d, want 2", len(mem.ShortTerm))
	}
	hasWarranty := false
	for _, topic := range mem.LongTerm.Topics {
		if topic == "warranty" {
			hasWarranty = true
		}
	}
	if !hasWarranty {
		t.Errorf("topics %v missing warranty", mem.LongTerm.Topics)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	s.Create("c1", "")
	if err := s.AddMessage(ctx, "c1", userMsg(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	conv, _ := s.Get("c1")
	conv.Messages[0].Content = "mutated"

	again, _ := s.Get("c1")
	if again.Messages[0].Content == "mutated" {
		t.Error("snapshot shares backing array with store")
	}
}
