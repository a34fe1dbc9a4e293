// Package session holds the live, in-memory conversation state: full
// message histories, their derived memories, and the retention policy
// that keeps both bounded.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/pkg/log"
)

// Config bounds per-conversation state.
type Config struct {
	// MaxMessages caps both the stored history (compression trigger) and
	// the short-term memory window.
	MaxMessages int
	// CompressionKeep is how many non-system messages survive a
	// compression pass.
	CompressionKeep int
	// MaxTopics and MaxKeywords bound the long-term memory sets.
	MaxTopics   int
	MaxKeywords int
	// MaxAge is the idle age after which Sweep drops a conversation.
	MaxAge time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxMessages:     20,
		CompressionKeep: 10,
		MaxTopics:       10,
		MaxKeywords:     20,
		MaxAge:          24 * time.Hour,
	}
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithTokenCounter enables token accounting on retained histories. Purely
// diagnostic; counting failures never affect behavior.
func WithTokenCounter(tc TokenCounter) Option {
	return func(s *Store) { s.tokens = tc }
}

// Store is the process-wide conversation state holder. All methods are
// safe for concurrent use; the single lock is never held across I/O
// (every operation under it is pure computation).
type Store struct {
	cfg    Config
	tokens TokenCounter

	mu       sync.RWMutex
	contexts map[string]*core.Conversation
	memories map[string]*Memory
}

func NewStore(cfg Config, opts ...Option) *Store {
	s := &Store{
		cfg:      cfg,
		contexts: make(map[string]*core.Conversation),
		memories: make(map[string]*Memory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new conversation and returns a snapshot of it.
// Creating an id that already exists returns the existing conversation.
func (s *Store) Create(conversationID, userID string) core.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.createLocked(conversationID, userID))
}

// GetOrCreate returns the conversation for the id, creating it on first
// use.
func (s *Store) GetOrCreate(conversationID, userID string) core.Conversation {
	return s.Create(conversationID, userID)
}

func (s *Store) createLocked(conversationID, userID string) *core.Conversation {
	if conv, ok := s.contexts[conversationID]; ok {
		return conv
	}

	now := time.Now()
	conv := &core.Conversation{
		ConversationID: conversationID,
		UserID:         userID,
		Meta: core.ConversationMeta{
			StartTime:  now,
			LastUpdate: now,
		},
	}
	s.contexts[conversationID] = conv
	s.memories[conversationID] = newMemory()
	return conv
}

// Get returns a snapshot of the conversation, or false when unknown.
func (s *Store) Get(conversationID string) (core.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.contexts[conversationID]
	if !ok {
		return core.Conversation{}, false
	}
	return snapshot(conv), true
}

// Restore seeds a conversation from a persisted mirror, replacing any
// live state for the id. Memory is rebuilt from the message history; it
// is a pure function of it.
func (s *Store) Restore(conv core.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := snapshot(&conv)
	s.contexts[conv.ConversationID] = &stored

	mem := newMemory()
	for _, msg := range stored.Messages {
		mem.absorb(msg, s.cfg)
	}
	s.memories[conv.ConversationID] = mem
}

// AddMessage appends to the conversation history, refreshes bookkeeping,
// feeds the derived memory, and compresses the history once it exceeds
// the configured cap. The conversation must already exist.
func (s *Store) AddMessage(ctx context.Context, conversationID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.contexts[conversationID]
	if !ok {
		return core.ErrConversationNotFound
	}

	conv.Messages = append(conv.Messages, msg)
	conv.Meta.MessageCount = len(conv.Messages)
	conv.Meta.LastUpdate = time.Now()

	if mem, ok := s.memories[conversationID]; ok {
		mem.absorb(msg, s.cfg)
	}

	if len(conv.Messages) > s.cfg.MaxMessages {
		conv.Messages = compress(conv.Messages, s.cfg.CompressionKeep)
		conv.Meta.MessageCount = len(conv.Messages)
	}

	s.logTokenUsage(ctx, conv)
	return nil
}

// Memory returns a snapshot of the derived memory for the conversation.
func (s *Store) Memory(conversationID string) (Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mem, ok := s.memories[conversationID]
	if !ok {
		return Memory{}, false
	}
	return mem.snapshot(), true
}

// Delete removes the conversation and its memory, reporting whether it
// existed.
func (s *Store) Delete(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.contexts[conversationID]
	delete(s.contexts, conversationID)
	delete(s.memories, conversationID)
	return ok
}

// Sweep drops every conversation idle for longer than MaxAge and returns
// how many were removed. Maintenance only; the host schedules it.
func (s *Store) Sweep() int {
	cutoff := time.Now().Add(-s.cfg.MaxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, conv := range s.contexts {
		if conv.Meta.LastUpdate.Before(cutoff) {
			delete(s.contexts, id)
			delete(s.memories, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}

// compress retains every system message plus the most recent keep
// non-system messages, preserving relative order of the survivors.
func compress(messages []core.Message, keep int) []core.Message {
	nonSystem := 0
	for _, m := range messages {
		if m.Role != core.RoleSystem {
			nonSystem++
		}
	}

	drop := nonSystem - keep
	if drop <= 0 {
		return messages
	}

	retained := make([]core.Message, 0, len(messages)-drop)
	for _, m := range messages {
		if m.Role != core.RoleSystem && drop > 0 {
			drop--
			continue
		}
		retained = append(retained, m)
	}
	return retained
}

func (s *Store) logTokenUsage(ctx context.Context, conv *core.Conversation) {
	if s.tokens == nil {
		return
	}

	total := 0
	for _, m := range conv.Messages {
		n, err := s.tokens.Count(m.Content)
		if err != nil {
			return
		}
		total += n
	}
	log.FromCtx(ctx).Debug().
		Str("conversation", conv.ConversationID).
		Int("messages", len(conv.Messages)).
		Int("tokens", total).
		Msg("retained context size")
}

// snapshot deep-copies the parts callers may hold onto.
func snapshot(conv *core.Conversation) core.Conversation {
	out := *conv
	out.Messages = make([]core.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return out
}
