package session

import (
	"strings"
	"unicode"

	"github.com/sandevgo/shopclerk/internal/core"
)

// topicKeywords is the fixed priority list scanned against every new
// message. Order is priority order; matches union into the bounded topic
// set.
var topicKeywords = []string{
	"price", "order", "shipping", "delivery", "return", "warranty",
	"discount", "furniture", "table", "chair", "sofa", "lighting",
	"payment", "support", "design",
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"have": {}, "from": {}, "what": {}, "about": {}, "your": {}, "you": {},
	"are": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"there": {}, "here": {}, "they": {}, "them": {}, "been": {},
	"will": {}, "just": {}, "like": {}, "some": {}, "more": {},
	"please": {}, "want": {}, "need": {},
}

const keywordsPerMessage = 5

// LongTermMemory is the bounded distilled view of a conversation: which
// known topics came up and which free-form keywords did.
type LongTermMemory struct {
	Topics  []string `json:"topics"`
	Context []string `json:"context"`
}

// Memory is the derived, per-conversation cache over the message history.
// It is rebuilt incrementally on every append and can always be
// regenerated from scratch; it is never persisted on its own.
type Memory struct {
	ShortTerm []core.Message `json:"shortTermMemory"`
	LongTerm  LongTermMemory `json:"longTermMemory"`
}

func newMemory() *Memory {
	return &Memory{}
}

// absorb folds one new message into the memory: pushes it onto the
// short-term ring, unions matched topics, and unions extracted keywords,
// each under its own cap with oldest-first eviction.
func (m *Memory) absorb(msg core.Message, cfg Config) {
	m.ShortTerm = append(m.ShortTerm, msg)
	if len(m.ShortTerm) > cfg.MaxMessages {
		m.ShortTerm = m.ShortTerm[len(m.ShortTerm)-cfg.MaxMessages:]
	}

	lower := strings.ToLower(msg.Content)
	for _, topic := range topicKeywords {
		if strings.Contains(lower, topic) {
			m.LongTerm.Topics = unionCapped(m.LongTerm.Topics, topic, cfg.MaxTopics)
		}
	}

	for _, kw := range extractKeywords(lower) {
		m.LongTerm.Context = unionCapped(m.LongTerm.Context, kw, cfg.MaxKeywords)
	}
}

func (m *Memory) snapshot() Memory {
	out := Memory{
		ShortTerm: make([]core.Message, len(m.ShortTerm)),
		LongTerm: LongTermMemory{
			Topics:  append([]string(nil), m.LongTerm.Topics...),
			Context: append([]string(nil), m.LongTerm.Context...),
		},
	}
	copy(out.ShortTerm, m.ShortTerm)
	return out
}

// unionCapped keeps the set unique and recency-ordered: a re-mentioned
// value moves to the back, and the oldest entry falls out past the cap.
func unionCapped(set []string, value string, limit int) []string {
	for i, v := range set {
		if v == value {
			set = append(set[:i], set[i+1:]...)
			break
		}
	}
	set = append(set, value)
	if len(set) > limit {
		set = set[len(set)-limit:]
	}
	return set
}

// extractKeywords pulls up to five non-stopword tokens longer than three
// characters from an already-lowercased message, in order, without
// duplicates.
func extractKeywords(lower string) []string {
	var keywords []string
	seen := map[string]struct{}{}

	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(tok)) <= 3 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
		if len(keywords) == keywordsPerMessage {
			break
		}
	}
	return keywords
}
