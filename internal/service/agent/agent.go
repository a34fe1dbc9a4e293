// Package agent is the public entry point of the assistant: it validates
// a request, ensures conversation state, classifies the message, renders
// the reply, and mirrors the conversation to persistence.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/internal/service/responder"
	"github.com/sandevgo/shopclerk/pkg/log"
	"github.com/sandevgo/shopclerk/pkg/retry"
)

// Classifier resolves a message to an intent.
type Classifier interface {
	Classify(message string) core.IntentResult
}

// Contexts is the live conversation state the orchestrator drives.
type Contexts interface {
	GetOrCreate(conversationID, userID string) core.Conversation
	Get(conversationID string) (core.Conversation, bool)
	Restore(conv core.Conversation)
	AddMessage(ctx context.Context, conversationID string, msg core.Message) error
	Delete(conversationID string) bool
}

// Generator renders the reply for a classified message.
type Generator interface {
	Generate(ctx context.Context, res core.IntentResult, message string) responder.Reply
}

// Initializer prepares the retrieval layer before a turn is served. The
// call is expected to be idempotent and cheap once the indices exist.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithStore mirrors every turn to a durable conversation store. The
// mirror is best-effort: write failures are logged and swallowed.
func WithStore(store core.ConversationStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithRetrier overrides the persistence retry policy.
func WithRetrier(r *retry.Retrier) Option {
	return func(o *Orchestrator) { o.retrier = r }
}

// WithInitializer makes every turn ensure the retrieval indices exist
// before touching conversation state. An initialization failure is fatal
// for the turn and propagates to the caller, unlike the degraded replies
// a post-init lookup failure produces.
func WithInitializer(init Initializer) Option {
	return func(o *Orchestrator) { o.init = init }
}

// Orchestrator coordinates one assistant turn end to end. Turns on the
// same conversation are serialized; different conversations proceed in
// parallel.
type Orchestrator struct {
	classifier Classifier
	contexts   Contexts
	gen        Generator
	init       Initializer
	store      core.ConversationStore
	retrier    *retry.Retrier

	mu    sync.Mutex
	locks map[string]*turnLock
}

// turnLock serializes turns on one conversation. Entries are
// reference-counted so the map only holds conversations with a turn in
// flight.
type turnLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrchestrator(classifier Classifier, contexts Contexts, gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		contexts:   contexts,
		gen:        gen,
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    2,
			BackoffFactor: 2,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      time.Second,
			Jitter:        25 * time.Millisecond,
		}),
		locks: make(map[string]*turnLock),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessRequest runs one turn: validate, ensure context, append the user
// message, classify, generate, append the reply, mirror to persistence.
// Validation failures reject the turn before any state is touched.
func (o *Orchestrator) ProcessRequest(ctx context.Context, req core.Request) (core.Response, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return core.Response{}, err
	}

	if o.init != nil {
		if err := o.init.Initialize(ctx); err != nil {
			return core.Response{}, fmt.Errorf("search index unavailable: %w", err)
		}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return core.Response{}, core.ErrEmptyMessage
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	lock := o.acquireTurn(conversationID)
	defer o.releaseTurn(conversationID, lock)

	o.ensureContext(ctx, conversationID, req.UserID)

	userMsg := core.Message{
		ID:        uuid.NewString(),
		Role:      core.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	}
	if err := o.contexts.AddMessage(ctx, conversationID, userMsg); err != nil {
		return core.Response{}, fmt.Errorf("failed to record user message: %w", err)
	}

	res := o.classifier.Classify(message)
	log.FromCtx(ctx).Debug().
		Str("conversation", conversationID).
		Str("intent", string(res.Intent)).
		Float64("confidence", res.Confidence).
		Msg("classified message")

	reply := o.gen.Generate(ctx, res, message)

	agentMsg := core.Message{
		ID:        uuid.NewString(),
		Role:      core.RoleAgent,
		Content:   reply.Message,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"intent":     string(res.Intent),
			"confidence": res.Confidence,
			"entities":   res.Entities,
		},
	}
	if err := o.contexts.AddMessage(ctx, conversationID, agentMsg); err != nil {
		return core.Response{}, fmt.Errorf("failed to record reply: %w", err)
	}

	o.persist(ctx, conversationID)

	return core.Response{
		ConversationID: conversationID,
		Message:        reply.Message,
		Suggestions:    reply.Suggestions,
		Actions:        reply.Actions,
		Meta: core.ResponseMeta{
			ProcessingTime: time.Since(start).Milliseconds(),
			Confidence:     res.Confidence,
			Sources:        reply.Sources,
		},
	}, nil
}

// GetConversationHistory returns the messages for a conversation: live
// state first, then the persisted mirror, then empty. Never an error.
func (o *Orchestrator) GetConversationHistory(ctx context.Context, conversationID string) []core.Message {
	if conv, ok := o.contexts.Get(conversationID); ok {
		return conv.Messages
	}

	if o.store != nil {
		conv, err := o.store.FindByConversationID(ctx, conversationID)
		if err == nil {
			return conv.Messages
		}
		if !errors.Is(err, core.ErrConversationNotFound) {
			log.FromCtx(ctx).Warn().Err(err).
				Str("conversation", conversationID).
				Msg("failed to load persisted history")
		}
	}
	return nil
}

// ClearConversation drops the live conversation state, reporting whether
// it existed. The persisted mirror is left in place. Clears serialize
// with in-flight turns on the same conversation.
func (o *Orchestrator) ClearConversation(conversationID string) bool {
	lock := o.acquireTurn(conversationID)
	defer o.releaseTurn(conversationID, lock)

	return o.contexts.Delete(conversationID)
}

// ensureContext makes the conversation live, rehydrating it from the
// persisted mirror when a known id arrives on a cold store.
func (o *Orchestrator) ensureContext(ctx context.Context, conversationID, userID string) {
	if _, ok := o.contexts.Get(conversationID); ok {
		return
	}

	if o.store != nil {
		conv, err := o.store.FindByConversationID(ctx, conversationID)
		if err == nil {
			o.contexts.Restore(conv)
			return
		}
		if !errors.Is(err, core.ErrConversationNotFound) {
			log.FromCtx(ctx).Warn().Err(err).
				Str("conversation", conversationID).
				Msg("failed to check persisted conversation")
		}
	}

	o.contexts.GetOrCreate(conversationID, userID)
}

func (o *Orchestrator) persist(ctx context.Context, conversationID string) {
	if o.store == nil {
		return
	}

	conv, ok := o.contexts.Get(conversationID)
	if !ok {
		return
	}

	err := o.retrier.Do(ctx, func() error {
		return o.store.Upsert(ctx, conv)
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).
			Str("conversation", conversationID).
			Msg("failed to mirror conversation")
	}
}

func (o *Orchestrator) acquireTurn(conversationID string) *turnLock {
	o.mu.Lock()
	lock, ok := o.locks[conversationID]
	if !ok {
		lock = &turnLock{}
		o.locks[conversationID] = lock
	}
	lock.refs++
	o.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseTurn unlocks and drops the map entry once no turn holds or
// waits on it. A fresh entry can only be minted after every holder of
// the old one is gone, so turns on one conversation never interleave.
func (o *Orchestrator) releaseTurn(conversationID string, lock *turnLock) {
	lock.mu.Unlock()

	o.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(o.locks, conversationID)
	}
	o.mu.Unlock()
}
