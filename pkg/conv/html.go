package conv

import "github.com/inbucket/html2text"

// HTMLToText flattens stored HTML (documentation page bodies) to plain
// text so the fuzzy indexer matches words, not markup.
func HTMLToText(input string) (string, error) {
	return html2text.FromString(input, html2text.Options{
		OmitLinks: true,
	})
}
