package intent

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/sandevgo/shopclerk/internal/core"
)

// pattern is one declarative classification rule. New intents are added by
// appending a row, not by writing branches.
type pattern struct {
	intent   core.Intent
	keywords []string
	weight   float64
}

// Patterns are evaluated in declaration order; on equal scores the earlier
// pattern wins. The general_question row is the lowest-priority fallback.
var defaultPatterns = []pattern{
	{core.IntentProductSearch, []string{"find", "search", "looking for", "show me", "browse", "need a"}, 1.0},
	{core.IntentProductRecommendation, []string{"recommend", "suggest", "best", "popular", "what should"}, 1.0},
	{core.IntentProductInquiry, []string{"price", "cost", "how much", "tell me about", "details", "in stock"}, 0.9},
	{core.IntentCodeHelp, []string{"code", "error", "bug", "function", "integration", "how do i"}, 0.8},
	{core.IntentBusinessAnalytics, []string{"sales", "revenue", "analytics", "report", "performance"}, 0.8},
	{core.IntentGeneralQuestion, []string{"what", "how", "why", "when", "where"}, 0.5},
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Classifier scores a message against weighted keyword patterns. Stateless
// and safe for concurrent use.
type Classifier struct {
	patterns []pattern
}

func NewClassifier() *Classifier {
	return &Classifier{patterns: defaultPatterns}
}

// Classify returns the best-scoring intent with its confidence and the
// entities extracted from the message. Pure function of the input text.
//
// Per-pattern score is (keywords found / keywords total) * weight; the
// first maximum wins and confidence is capped at 1. A message matching no
// pattern classifies as general_question with confidence 0.
func (c *Classifier) Classify(message string) core.IntentResult {
	lower := strings.ToLower(message)

	best := core.IntentGeneralQuestion
	bestScore := 0.0

	for _, p := range c.patterns {
		found := 0
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				found++
			}
		}
		score := float64(found) / float64(len(p.keywords)) * p.weight
		if score > bestScore {
			best = p.intent
			bestScore = score
		}
	}

	return core.IntentResult{
		Intent:     best,
		Confidence: math.Min(bestScore, 1.0),
		Entities:   extractEntities(message),
	}
}

// extractEntities collects candidate named references: capitalized tokens
// longer than two characters first, then every numeric substring, each in
// order of appearance.
func extractEntities(message string) []string {
	var entities []string

	for _, tok := range strings.Fields(message) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		runes := []rune(tok)
		if len(runes) > 2 && unicode.IsUpper(runes[0]) {
			entities = append(entities, tok)
		}
	}

	entities = append(entities, numberRe.FindAllString(message, -1)...)
	return entities
}
