package core

import "context"

// Catalog is the external product/category data source the assistant
// queries but does not own. Used for index building and for the
// recommendation handler.
type Catalog interface {
	ListActiveProducts(ctx context.Context) ([]Product, error)
	ListActiveCategories(ctx context.Context) ([]Category, error)
	ListDocPages(ctx context.Context) ([]DocPage, error)
}

// ConversationStore is the durable mirror of the in-memory session store.
// The assistant tolerates its unavailability: writes are best-effort and
// reads fall back to the live store.
type ConversationStore interface {
	// FindByConversationID returns ErrConversationNotFound when no record
	// exists for the id.
	FindByConversationID(ctx context.Context, conversationID string) (Conversation, error)
	Upsert(ctx context.Context, conv Conversation) error
}
