// Package responder turns a classified intent plus the raw message into
// the reply shown to the shopper: text, follow-up suggestions, and
// actionable references.
package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/pkg/log"
)

// Searcher is the slice of the retrieval service the responder needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]core.SearchResult, error)
	SearchDocumentation(ctx context.Context, query string, limit int) ([]core.SearchResult, error)
}

// Reply is one generated turn. Zero-value slices mean "nothing to offer",
// never an error: lookup failures degrade to fallback text inside the
// handlers and are not surfaced.
type Reply struct {
	Message     string
	Suggestions []string
	Actions     []core.Action
	Sources     []string
}

var genericSuggestions = []string{
	"Browse the catalog",
	"Get a product recommendation",
	"Ask about shipping and returns",
}

const fallbackMessage = "Sorry, something went wrong while I was looking that up. Mind trying again in a moment?"

const maxRecommendations = 5
const descriptionPreviewLen = 100

// Generator maps intents to reply handlers over retrieval and the
// catalog.
type Generator struct {
	search  Searcher
	catalog core.Catalog
}

func NewGenerator(search Searcher, catalog core.Catalog) *Generator {
	return &Generator{search: search, catalog: catalog}
}

// Generate dispatches on the classified intent. The switch is exhaustive
// over the closed intent set; general_question doubles as the default arm
// so an unknown value can never produce an error.
func (g *Generator) Generate(ctx context.Context, res core.IntentResult, message string) Reply {
	switch res.Intent {
	case core.IntentProductSearch:
		return g.productSearch(ctx, message)
	case core.IntentProductRecommendation:
		return g.recommendation(ctx)
	case core.IntentProductInquiry:
		return g.inquiry(ctx, message)
	case core.IntentCodeHelp:
		return g.codeHelp(ctx, message)
	case core.IntentBusinessAnalytics:
		return g.analytics()
	case core.IntentGeneralQuestion:
		return g.general(ctx, message)
	default:
		return g.general(ctx, message)
	}
}

func (g *Generator) productSearch(ctx context.Context, message string) Reply {
	results, err := g.search.SearchProducts(ctx, message, 5)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("product search failed")
		return fallbackReply()
	}

	if len(results) == 0 {
		return Reply{
			Message:     "I couldn't find any products matching that. Try different words, or I can show you what's popular.",
			Suggestions: genericSuggestions,
		}
	}

	var sb strings.Builder
	sb.WriteString("Here's what I found:\n")
	reply := Reply{}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, r.Title, r.Description)
		reply.Actions = append(reply.Actions, core.Action{
			Type:        core.ActionNavigate,
			Payload:     map[string]any{"productId": r.ID},
			Description: "View " + r.Title,
		})
		reply.Sources = append(reply.Sources, r.Title)
	}
	sb.WriteString("Would you like details on any of these?")

	reply.Message = sb.String()
	reply.Suggestions = []string{"Show me more details", "Refine my search"}
	return reply
}

func (g *Generator) recommendation(ctx context.Context) Reply {
	// Recommendations ignore the message text: they always surface
	// current catalog picks.
	products, err := g.catalog.ListActiveProducts(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("catalog lookup failed")
		return fallbackReply()
	}

	if len(products) == 0 {
		return Reply{
			Message:     "The catalog is being restocked right now, so I have nothing to recommend just yet. Check back soon!",
			Suggestions: genericSuggestions,
		}
	}

	if len(products) > maxRecommendations {
		products = products[:maxRecommendations]
	}

	var sb strings.Builder
	sb.WriteString("Here are some picks from our current catalog:\n")
	reply := Reply{}
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s: %s ($%.2f)\n", p.Name, truncate(p.Description, descriptionPreviewLen), p.Price)
		reply.Actions = append(reply.Actions, core.Action{
			Type:        core.ActionRecommend,
			Payload:     map[string]any{"productId": p.ID, "price": p.Price},
			Description: "Recommended: " + p.Name,
		})
		reply.Sources = append(reply.Sources, p.Name)
	}

	reply.Message = sb.String()
	reply.Suggestions = []string{"Tell me more about one of these", "Show something different"}
	return reply
}

func (g *Generator) inquiry(ctx context.Context, message string) Reply {
	results, err := g.search.SearchProducts(ctx, message, 3)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("product inquiry lookup failed")
		return fallbackReply()
	}

	if len(results) == 0 {
		return Reply{
			Message:     "Could you tell me a bit more about which product you mean? A name or a category helps.",
			Suggestions: genericSuggestions,
		}
	}

	var sb strings.Builder
	sb.WriteString("Are you asking about one of these?\n")
	reply := Reply{}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		reply.Suggestions = append(reply.Suggestions, r.Title)
		reply.Sources = append(reply.Sources, r.Title)
	}
	sb.WriteString("Which one do you mean?")

	reply.Message = sb.String()
	return reply
}

func (g *Generator) codeHelp(ctx context.Context, message string) Reply {
	results, err := g.search.SearchDocumentation(ctx, message, 3)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("documentation lookup failed")
		return fallbackReply()
	}

	var sb strings.Builder
	sb.WriteString("Here are documentation pages that might help:\n")
	reply := Reply{}
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Description)
		reply.Sources = append(reply.Sources, r.Title)
	}

	reply.Message = sb.String()
	reply.Suggestions = genericSuggestions
	return reply
}

func (g *Generator) analytics() Reply {
	return Reply{
		Message: "I can't pull live analytics from this chat yet. " +
			"Your store dashboard has up-to-date sales and revenue reports.",
		Suggestions: genericSuggestions,
	}
}

func (g *Generator) general(ctx context.Context, message string) Reply {
	results, err := g.search.Search(ctx, message, 5)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("unified search failed")
		return fallbackReply()
	}

	if len(results) == 0 {
		return Reply{
			Message: "I can help you find products, recommend items from our catalog, " +
				"answer questions about specific products, and point you at our help pages. What are you looking for?",
			Suggestions: genericSuggestions,
		}
	}

	var sb strings.Builder
	sb.WriteString("This might be relevant:\n")
	reply := Reply{}
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s (%s)\n", r.Title, r.Type)
		reply.Sources = append(reply.Sources, r.Title)
		if len(reply.Suggestions) < 3 {
			reply.Suggestions = append(reply.Suggestions, r.Title)
		}
	}

	reply.Message = sb.String()
	return reply
}

func fallbackReply() Reply {
	return Reply{
		Message:     fallbackMessage,
		Suggestions: genericSuggestions,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
