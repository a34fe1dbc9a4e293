package core

import "time"

const (
	ClerkName          = "ShopClerk"
	ClerkUserAgent     = "ShopClerk-Assistant/0.1"
	ClerkRepositoryURL = "https://github.com/sandevgo/shopclerk"
	ClerkVersion       = "0.1.0"
)

const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Message is a single conversation turn. Immutable once created; owned by
// the Conversation that contains it.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ConversationMeta tracks bookkeeping for one conversation.
// MessageCount always equals len(Messages) after any mutation.
type ConversationMeta struct {
	StartTime    time.Time `json:"startTime"`
	LastUpdate   time.Time `json:"lastUpdate"`
	MessageCount int       `json:"messageCount"`
}

// Conversation is the full ordered message history plus metadata for one
// conversation id. Insertion order is chronological order.
type Conversation struct {
	ConversationID string           `json:"conversationId"`
	UserID         string           `json:"userId,omitempty"`
	Messages       []Message        `json:"messages"`
	Meta           ConversationMeta `json:"metadata"`
}

// Intent is the classified purpose of a user message. The set is closed;
// the responder dispatches exhaustively over it with IntentGeneralQuestion
// as the default arm.
type Intent string

const (
	IntentProductSearch         Intent = "product_search"
	IntentProductRecommendation Intent = "product_recommendation"
	IntentProductInquiry        Intent = "product_inquiry"
	IntentCodeHelp              Intent = "code_help"
	IntentBusinessAnalytics     Intent = "business_analytics"
	IntentGeneralQuestion       Intent = "general_question"
)

// IntentResult is the classifier output for one message.
type IntentResult struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []string `json:"entities"`
}

// ItemType identifies which collection a searchable item belongs to.
type ItemType string

const (
	ItemProduct       ItemType = "product"
	ItemCategory      ItemType = "category"
	ItemDocumentation ItemType = "documentation"
)

// SearchableItem is a read-only snapshot indexed for fuzzy retrieval.
// Rebuilt wholesale on refresh, never partially mutated.
type SearchableItem struct {
	ID          string         `json:"id"`
	Type        ItemType       `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SearchResult is a ranked retrieval hit. Score is in [0,1], 1 is best.
type SearchResult struct {
	ID          string         `json:"id"`
	Type        ItemType       `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Score       float64        `json:"score"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ActionType names the kinds of references the caller may act on.
type ActionType string

const (
	ActionNavigate  ActionType = "navigate"
	ActionRecommend ActionType = "recommend"
)

// Action is an actionable reference attached to a response. The assistant
// never executes it.
type Action struct {
	Type        ActionType     `json:"type"`
	Payload     map[string]any `json:"payload"`
	Description string         `json:"description"`
}

// Request is the inbound assistant call.
type Request struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

// ResponseMeta carries per-turn diagnostics. ProcessingTime is wall-clock
// milliseconds for the whole call.
type ResponseMeta struct {
	ProcessingTime int64    `json:"processingTime"`
	Confidence     float64  `json:"confidence"`
	Sources        []string `json:"sources,omitempty"`
}

// Response is the structured assistant output for one turn.
type Response struct {
	ConversationID string       `json:"conversationId"`
	Message        string       `json:"message"`
	Suggestions    []string     `json:"suggestions,omitempty"`
	Actions        []Action     `json:"actions,omitempty"`
	Meta           ResponseMeta `json:"metadata"`
}

// Product is an active catalog product as exposed by the catalog store.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// Category is an active catalog category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

// DocPage is a documentation/help article. Body may contain HTML; it is
// flattened to text before indexing.
type DocPage struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags,omitempty"`
}
